package recognition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// GalleryEntry identifies the student behind one gallery encoding.
type GalleryEntry struct {
	StudentID int64
	Name      string
	RollNo    string
}

// Gallery holds parallel slices: Encodings[i] belongs to Entries[i].
type Gallery struct {
	Encodings [][]float64
	Entries   []GalleryEntry
	// Skipped lists students whose photo was missing, unreadable or faceless.
	Skipped []int64
}

func (g *Gallery) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Encodings)
}

func (g *Gallery) StudentIDs() []int64 {
	ids := make([]int64, len(g.Entries))
	for i, e := range g.Entries {
		ids[i] = e.StudentID
	}
	return ids
}

// LoadGallery encodes every enrolled student's reference photo from photoDir.
// Students whose photo cannot be used are logged and skipped; only failing to
// list the students is an error.
func LoadGallery(ctx context.Context, students StudentLister, enc PhotoEncoder, photoDir string, log *slog.Logger) (*Gallery, error) {
	if log == nil {
		log = slog.Default()
	}

	list, err := students.Students(ctx)
	if err != nil {
		return nil, fmt.Errorf("load gallery: %w", err)
	}

	g := &Gallery{}
	for _, s := range list {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(photoDir, filepath.Base(s.Photo))
		if _, err := os.Stat(path); err != nil {
			log.Warn("student photo missing, skipped", "student_id", s.Id, "photo", s.Photo, "error", err)
			g.Skipped = append(g.Skipped, s.Id)
			continue
		}

		encoding, err := enc.EncodePhoto(path)
		if err != nil || len(encoding) == 0 {
			switch {
			case errors.Is(err, ErrNoFace) || err == nil:
				log.Warn("no face found in student photo, skipped", "student_id", s.Id, "photo", s.Photo)
			default:
				log.Warn("cannot load student photo, skipped", "student_id", s.Id, "photo", s.Photo, "error", err)
			}
			g.Skipped = append(g.Skipped, s.Id)
			continue
		}

		g.Encodings = append(g.Encodings, encoding)
		g.Entries = append(g.Entries, GalleryEntry{StudentID: s.Id, Name: s.Name, RollNo: s.RollNo})
	}
	return g, nil
}
