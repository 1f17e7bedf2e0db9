package main

import "campusface/cmd"

func main() {
	cmd.Execute()
}
