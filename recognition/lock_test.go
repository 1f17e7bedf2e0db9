package recognition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceLockExclusive(t *testing.T) {
	dir := t.TempDir()
	first := NewDeviceLock(dir, 0)

	release, err := first.Acquire()
	require.NoError(t, err)

	_, err = NewDeviceLock(dir, 0).Acquire()
	assert.ErrorIs(t, err, ErrCameraBusy)

	// Other devices are independent.
	releaseOther, err := NewDeviceLock(dir, 1).Acquire()
	require.NoError(t, err)
	require.NoError(t, releaseOther())

	require.NoError(t, release())

	again, err := NewDeviceLock(dir, 0).Acquire()
	require.NoError(t, err)
	require.NoError(t, again())
}
