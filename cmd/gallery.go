package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"campusface/models"
	"campusface/recognition"
	"campusface/vision"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Inspect the recognition gallery",
}

var galleryCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Encode every student photo and report the ones the camera will not recognise",
	RunE:  runGalleryCheck,
}

func init() {
	rootCmd.AddCommand(galleryCmd)
	galleryCmd.AddCommand(galleryCheckCmd)
}

type photoProblem struct {
	student models.Student
	reason  string
}

func runGalleryCheck(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	students, err := models.NewStore(db).Students(context.Background())
	if err != nil {
		return err
	}

	engine, err := vision.NewEngine(vision.Options{
		CascadePath:       cfg.CascadePath,
		LandmarkModelPath: cfg.LandmarkModelPath,
	})
	if err != nil {
		return fmt.Errorf("load face models: %w", err)
	}
	defer engine.Close()

	bar := progressbar.NewOptions(len(students),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription("Encoding photos"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)
	problems := checkPhotos(students, engine, cfg.UploadDir, func() { _ = bar.Add(1) })
	_ = bar.Finish()
	fmt.Fprintln(cmd.ErrOrStderr())

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d of %d student(s) are recognisable\n", len(students)-len(problems), len(students))
	if len(problems) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(problems))
	for _, p := range problems {
		rows = append(rows, []string{strconv.FormatInt(p.student.Id, 10), p.student.Name, p.student.Photo, p.reason})
	}
	fmt.Fprintln(out, renderTable([]string{"ID", "Name", "Photo", "Problem"}, rows, []columnAlignment{alignRight}))
	return nil
}

// checkPhotos applies the gallery loading rules to each student and reports
// the ones that would be skipped.
func checkPhotos(students []models.Student, enc recognition.PhotoEncoder, dir string, step func()) []photoProblem {
	var problems []photoProblem
	for _, s := range students {
		path := filepath.Join(dir, filepath.Base(s.Photo))
		if _, err := os.Stat(path); err != nil {
			problems = append(problems, photoProblem{s, "photo file missing"})
			step()
			continue
		}
		encoding, err := enc.EncodePhoto(path)
		switch {
		case errors.Is(err, recognition.ErrNoFace) || (err == nil && len(encoding) == 0):
			problems = append(problems, photoProblem{s, "no face found"})
		case err != nil:
			problems = append(problems, photoProblem{s, err.Error()})
		}
		step()
	}
	return problems
}
