package recognition

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// DeviceLock serialises access to one camera device across requests and
// processes with a lock file.
type DeviceLock struct {
	path string
}

func NewDeviceLock(dir string, device int) *DeviceLock {
	return &DeviceLock{path: filepath.Join(dir, fmt.Sprintf("campusface-camera-%d.lock", device))}
}

func (l *DeviceLock) Path() string { return l.path }

// Acquire takes the lock without waiting. It returns ErrCameraBusy when
// another session holds it; the returned func releases it.
func (l *DeviceLock) Acquire() (release func() error, err error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}

	fl := flock.New(l.path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire camera lock: %w", err)
	}
	if !ok {
		return nil, ErrCameraBusy
	}
	return fl.Unlock, nil
}
