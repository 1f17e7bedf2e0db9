// Package jobs runs the periodic housekeeping of the photo store.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"campusface/helper"
	"campusface/metrics"
	"campusface/models"

	"github.com/go-co-op/gocron"
	"gorm.io/gorm"
)

// OrphanGrace keeps fresh uploads out of the sweep while their row is being written.
const OrphanGrace = time.Hour

// SweepOrphanPhotos deletes files in dir that no student row references and
// that are older than OrphanGrace. It returns the removed file names.
func SweepOrphanPhotos(ctx context.Context, db *gorm.DB, dir string, now time.Time) ([]string, error) {
	var photos []string
	if err := db.WithContext(ctx).Model(&models.Student{}).Pluck("photo", &photos).Error; err != nil {
		return nil, fmt.Errorf("list student photos: %w", err)
	}
	referenced := make(map[string]bool, len(photos))
	for _, p := range photos {
		referenced[filepath.Base(p)] = true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read photo dir: %w", err)
	}

	var removed []string
	for _, e := range entries {
		if e.IsDir() || referenced[e.Name()] || !helper.AllowedFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil || now.Sub(info.ModTime()) < OrphanGrace {
			continue
		}
		if err := helper.RemovePhoto(dir, e.Name()); err != nil {
			slog.Warn("remove orphan photo", "photo", e.Name(), "error", err)
			continue
		}
		removed = append(removed, e.Name())
	}
	return removed, nil
}

// AuditPhotos returns the students whose photo file is missing from dir.
func AuditPhotos(ctx context.Context, db *gorm.DB, dir string) ([]models.Student, error) {
	var students []models.Student
	if err := db.WithContext(ctx).Order("id").Find(&students).Error; err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	var missing []models.Student
	for _, s := range students {
		if _, err := os.Stat(filepath.Join(dir, filepath.Base(s.Photo))); err != nil {
			missing = append(missing, s)
		}
	}
	return missing, nil
}

// Start schedules the nightly orphan sweep and the six-hourly photo audit.
// Call Stop on the returned scheduler at shutdown.
func Start(db *gorm.DB, dir string, m *metrics.Metrics, log *slog.Logger) (*gocron.Scheduler, error) {
	if log == nil {
		log = slog.Default()
	}
	s := gocron.NewScheduler(time.Local)

	_, err := s.Every(1).Day().At("02:00").Do(func() {
		removed, err := SweepOrphanPhotos(context.Background(), db, dir, time.Now())
		if err != nil {
			log.Error("orphan photo sweep", "error", err)
			return
		}
		if m != nil {
			m.OrphanPhotos.Add(float64(len(removed)))
		}
		log.Info("orphan photo sweep done", "removed", len(removed))
	})
	if err != nil {
		return nil, fmt.Errorf("schedule orphan sweep: %w", err)
	}

	_, err = s.Every(6).Hours().Do(func() {
		missing, err := AuditPhotos(context.Background(), db, dir)
		if err != nil {
			log.Error("photo audit", "error", err)
			return
		}
		for _, st := range missing {
			log.Warn("student photo missing", "student_id", st.Id, "roll_no", st.RollNo, "photo", st.Photo)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule photo audit: %w", err)
	}

	s.StartAsync()
	return s, nil
}
