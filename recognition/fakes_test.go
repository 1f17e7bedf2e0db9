package recognition

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"testing"

	"campusface/models"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeFrame struct {
	n int
}

func (f fakeFrame) Bounds() image.Rectangle { return image.Rect(0, 0, 640, 480) }

type fakeCamera struct {
	frames int
	read   int
	failAt int
	closed bool
	onRead func(n int)
}

func (c *fakeCamera) Read() (Frame, error) {
	if c.failAt > 0 && c.read+1 == c.failAt {
		return nil, errors.New("device unplugged")
	}
	if c.read >= c.frames {
		return nil, io.EOF
	}
	c.read++
	if c.onRead != nil {
		c.onRead(c.read)
	}
	return fakeFrame{n: c.read}, nil
}

func (c *fakeCamera) Close() error {
	c.closed = true
	return nil
}

// fakeEngine serves encodings from maps. Photos are keyed by base file name,
// faces by every frame: the same regions appear in every frame.
type fakeEngine struct {
	photos  map[string][]float64
	regions []image.Rectangle
	faces   map[image.Point][]float64

	detectCalls int
	rendered    []Annotation
	closed      bool
}

func (e *fakeEngine) EncodePhoto(path string) ([]float64, error) {
	enc, ok := e.photos[filepath.Base(path)]
	if !ok {
		return nil, fmt.Errorf("decode %s: corrupt image", path)
	}
	if enc == nil {
		return nil, ErrNoFace
	}
	return enc, nil
}

func (e *fakeEngine) Detect(Frame) ([]image.Rectangle, error) {
	e.detectCalls++
	return e.regions, nil
}

func (e *fakeEngine) EncodeRegion(_ Frame, r image.Rectangle) ([]float64, error) {
	enc, ok := e.faces[r.Min]
	if !ok {
		return nil, ErrNoFace
	}
	return enc, nil
}

func (e *fakeEngine) Render(f Frame, a Annotation) ([]byte, error) {
	e.rendered = append(e.rendered, a)
	return []byte(fmt.Sprintf("jpeg-%d", f.(fakeFrame).n)), nil
}

func (e *fakeEngine) Close() error {
	e.closed = true
	return nil
}

type fakeStore struct {
	students []models.Student
	marked   map[string][]int64
	records  []models.Attendance
	failRec  error
	listErr  error
}

func (s *fakeStore) Students(context.Context) ([]models.Student, error) {
	return s.students, s.listErr
}

func (s *fakeStore) MarkedStudentIDs(_ context.Context, day string) ([]int64, error) {
	return s.marked[day], nil
}

func (s *fakeStore) RecordAttendance(_ context.Context, rec models.Attendance) (bool, error) {
	if s.failRec != nil {
		return false, s.failRec
	}
	for _, r := range s.records {
		if r.StudentId == rec.StudentId && r.Day == rec.Day {
			return false, nil
		}
	}
	s.records = append(s.records, rec)
	return true, nil
}

type recordingNotifier struct {
	events []Event
	err    error
}

func (n *recordingNotifier) AttendanceRecorded(_ context.Context, ev Event) error {
	n.events = append(n.events, ev)
	return n.err
}

// writePhotos creates empty files for names under a temp dir.
func writePhotos(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("img"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// stuckNotifier only returns once its context ends, like a publish to a
// broker that never acknowledges.
type stuckNotifier struct {
	calls int
}

func (n *stuckNotifier) AttendanceRecorded(ctx context.Context, _ Event) error {
	n.calls++
	<-ctx.Done()
	return ctx.Err()
}
