package recognition

import (
	"bytes"
	"io"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMJPEGWriterFraming(t *testing.T) {
	var buf bytes.Buffer
	flushes := 0
	w := NewMJPEGWriter(&buf, func() { flushes++ })

	require.NoError(t, w.WriteFrame([]byte("first")))
	require.NoError(t, w.WriteFrame([]byte("second")))
	require.NoError(t, w.Close())
	assert.Equal(t, 2, flushes)

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("--frame\r\nContent-Type: image/jpeg\r\n\r\nfirst")))

	r := multipart.NewReader(&buf, MJPEGBoundary)
	var parts []string
	for {
		p, err := r.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", p.Header.Get("Content-Type"))
		body, err := io.ReadAll(p)
		require.NoError(t, err)
		parts = append(parts, string(body))
	}
	assert.Equal(t, []string{"first", "second"}, parts)
}
