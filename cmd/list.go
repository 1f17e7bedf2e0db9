package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"campusface/models"

	"github.com/spf13/cobra"
)

var studentsCmd = &cobra.Command{
	Use:   "students",
	Short: "Inspect registered students",
}

var studentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered students",
	RunE:  runStudentsList,
}

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Inspect attendance records",
}

var attendanceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List attendance for a day, newest first",
	RunE:  runAttendanceList,
}

func init() {
	rootCmd.AddCommand(studentsCmd, attendanceCmd)
	studentsCmd.AddCommand(studentsListCmd)
	attendanceCmd.AddCommand(attendanceListCmd)

	attendanceListCmd.Flags().String("date", "", "Day as YYYY-MM-DD (default today)")
	attendanceListCmd.Flags().Bool("all", false, "List every day")
}

func runStudentsList(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	students, err := models.NewStore(db).Students(context.Background())
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(students))
	for _, s := range students {
		rows = append(rows, []string{strconv.FormatInt(s.Id, 10), s.Name, s.RollNo, s.ClassName, s.Photo})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"ID", "Name", "Roll No", "Class", "Photo"}, rows,
		[]columnAlignment{alignRight}))
	fmt.Fprintf(cmd.OutOrStdout(), "%d student(s)\n", len(students))
	return nil
}

func runAttendanceList(cmd *cobra.Command, args []string) error {
	day := mustGetString(cmd, "date")
	switch {
	case mustGetBool(cmd, "all"):
		day = ""
	case day == "":
		day = time.Now().Format(models.DayLayout)
	default:
		if _, err := time.Parse(models.DayLayout, day); err != nil {
			return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
		}
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	views, err := models.NewStore(db).AttendanceOn(context.Background(), day)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(views))
	for _, v := range views {
		rows = append(rows, []string{strconv.FormatInt(v.Id, 10), v.Name, v.RollNo, v.Time})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"ID", "Name", "Roll No", "Time"}, rows,
		[]columnAlignment{alignRight}))
	fmt.Fprintf(cmd.OutOrStdout(), "%d record(s)\n", len(views))
	return nil
}
