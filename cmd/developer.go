package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"campusface/controllers/developer"
	"campusface/helper"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var developerCmd = &cobra.Command{
	Use:   "developer",
	Short: "Manage the helpdesk contact shown to operators",
}

var developerSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create or update the helpdesk contact",
	Long: `Create or update the helpdesk contact. Flags that are not given keep
their current value. --photo copies an image into DEVELOPER_DIR.`,
	RunE: runDeveloperSet,
}

func init() {
	rootCmd.AddCommand(developerCmd)
	developerCmd.AddCommand(developerSetCmd)

	developerSetCmd.Flags().String("name", "", "Contact name")
	developerSetCmd.Flags().String("email", "", "Contact email")
	developerSetCmd.Flags().String("contact", "", "Phone number or other contact")
	developerSetCmd.Flags().String("photo", "", "Path to a png/jpg photo")
}

func runDeveloperSet(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}

	dev, err := developer.First(db)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("load developer: %w", err)
	}
	for flag, field := range map[string]*string{"name": &dev.Name, "email": &dev.Email, "contact": &dev.Contact} {
		if cmd.Flags().Changed(flag) {
			*field = mustGetString(cmd, flag)
		}
	}
	if dev.Name == "" {
		return errors.New("--name is required for a new contact")
	}

	if src := mustGetString(cmd, "photo"); src != "" {
		name := helper.SecureFilename(filepath.Base(src))
		if !helper.AllowedFile(name) {
			return helper.ErrInvalidPhoto
		}
		if err := copyFile(src, filepath.Join(cfg.DeveloperDir, name)); err != nil {
			return err
		}
		dev.Photo = name
	}

	if err := db.Save(&dev).Error; err != nil {
		return fmt.Errorf("save developer: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Developer contact saved: %s <%s>\n", dev.Name, dev.Email)
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open photo: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create photo dir: %w", err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create photo: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy photo: %w", err)
	}
	return out.Close()
}
