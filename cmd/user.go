package cmd

import (
	"errors"
	"fmt"
	"strings"

	"campusface/helper"
	"campusface/models"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage login accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create a login account",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserAdd,
}

var userPromoteCmd = &cobra.Command{
	Use:   "promote <username>",
	Short: "Give an account the admin role",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserPromote,
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd, userPromoteCmd)

	userAddCmd.Flags().String("password", "", "Account password (required)")
	userAddCmd.Flags().Bool("admin", false, "Create the account with the admin role")
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	username := strings.TrimSpace(args[0])
	password := mustGetString(cmd, "password")
	if username == "" || password == "" {
		return errors.New("username and --password are required")
	}

	db, err := openDB()
	if err != nil {
		return err
	}

	hash, err := helper.HashPassword(password)
	if err != nil {
		return err
	}
	role := models.RoleOperator
	if mustGetBool(cmd, "admin") {
		role = models.RoleAdmin
	}

	user := models.User{Username: username, Password: hash, Role: role}
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("user %q already exists", username)
		}
		return fmt.Errorf("create user: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s %q (id %d)\n", role, username, user.Id)
	return nil
}

func runUserPromote(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}

	res := db.Model(&models.User{}).Where("username = ?", args[0]).Update("role", models.RoleAdmin)
	if res.Error != nil {
		return fmt.Errorf("promote user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %q not found", args[0])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%q is now an admin\n", args[0])
	return nil
}
