package recognition

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"campusface/models"
)

// DefaultNotifyTimeout bounds how long a recorded attendance waits on the notifier.
const DefaultNotifyTimeout = 3 * time.Second

// Recorder writes at most one attendance record per student per day. The
// in-memory set is seeded from storage, and storage itself refuses duplicates,
// so a restart cannot produce a second record for the same day.
type Recorder struct {
	store    AttendanceStore
	notifier Notifier
	now      func() time.Time
	log      *slog.Logger
	// NotifyTimeout is the context deadline given to the notifier.
	NotifyTimeout time.Duration

	day    string
	marked map[int64]struct{}
}

func NewRecorder(store AttendanceStore, notifier Notifier, now func() time.Time, log *slog.Logger) *Recorder {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{
		store:         store,
		notifier:      notifier,
		now:           now,
		log:           log,
		NotifyTimeout: DefaultNotifyTimeout,
		marked:        make(map[int64]struct{}),
	}
}

// Seed loads the students already recorded today.
func (r *Recorder) Seed(ctx context.Context) error {
	day := r.now().Format(models.DayLayout)
	ids, err := r.store.MarkedStudentIDs(ctx, day)
	if err != nil {
		return err
	}
	r.day = day
	r.marked = make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		r.marked[id] = struct{}{}
	}
	return nil
}

func (r *Recorder) Marked(studentID int64) bool {
	if r.now().Format(models.DayLayout) != r.day {
		return false
	}
	_, ok := r.marked[studentID]
	return ok
}

// Mark records entry's student unless already recorded today. It reports
// whether a new record was written.
func (r *Recorder) Mark(ctx context.Context, entry GalleryEntry) (bool, error) {
	t := r.now()
	if day := t.Format(models.DayLayout); day != r.day {
		// Midnight passed during the session.
		r.day = day
		r.marked = make(map[int64]struct{})
	}
	if _, ok := r.marked[entry.StudentID]; ok {
		return false, nil
	}

	rec := models.NewAttendance(entry.StudentID, t)
	written, err := r.store.RecordAttendance(ctx, rec)
	if err != nil {
		return false, fmt.Errorf("record attendance for student %d: %w", entry.StudentID, err)
	}
	r.marked[entry.StudentID] = struct{}{}
	if !written {
		return false, nil
	}

	ev := Event{StudentID: entry.StudentID, Name: entry.Name, RollNo: entry.RollNo, Time: rec.Time}
	nctx, cancel := context.WithTimeout(ctx, r.NotifyTimeout)
	defer cancel()
	if err := r.notifier.AttendanceRecorded(nctx, ev); err != nil {
		r.log.Warn("attendance notification failed", "student_id", entry.StudentID, "error", err)
	}
	return true, nil
}
