package recognition

import (
	"io"
	"mime/multipart"
	"net/textproto"
)

// MJPEGBoundary is the part boundary of the live video stream.
const MJPEGBoundary = "frame"

// MJPEGContentType is the response content type matching MJPEGBoundary.
const MJPEGContentType = "multipart/x-mixed-replace; boundary=" + MJPEGBoundary

// MJPEGWriter writes JPEG frames as a multipart/x-mixed-replace stream.
type MJPEGWriter struct {
	mw    *multipart.Writer
	flush func()
}

// NewMJPEGWriter wraps w. flush, when non-nil, runs after every frame.
func NewMJPEGWriter(w io.Writer, flush func()) *MJPEGWriter {
	mw := multipart.NewWriter(w)
	// The boundary is a fixed valid token, SetBoundary cannot fail here.
	_ = mw.SetBoundary(MJPEGBoundary)
	return &MJPEGWriter{mw: mw, flush: flush}
}

func (w *MJPEGWriter) WriteFrame(jpeg []byte) error {
	part, err := w.mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"image/jpeg"}})
	if err != nil {
		return err
	}
	if _, err := part.Write(jpeg); err != nil {
		return err
	}
	if w.flush != nil {
		w.flush()
	}
	return nil
}

// Close writes the terminating boundary.
func (w *MJPEGWriter) Close() error {
	return w.mw.Close()
}
