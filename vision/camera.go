package vision

import (
	"errors"
	"fmt"
	"image"

	"campusface/recognition"

	"gocv.io/x/gocv"
)

// Frame is a camera frame backed by an OpenCV Mat.
type Frame struct {
	mat gocv.Mat
}

func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.mat.Cols(), f.mat.Rows())
}

// Camera reads frames from a local video device. The returned Frame is reused
// by every Read.
type Camera struct {
	capture *gocv.VideoCapture
	frame   Frame
}

func OpenCamera(device int) (*Camera, error) {
	capture, err := gocv.VideoCaptureDevice(device)
	if err != nil {
		return nil, fmt.Errorf("open video device %d: %w", device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("video device %d did not open", device)
	}
	return &Camera{capture: capture, frame: Frame{mat: gocv.NewMat()}}, nil
}

// CameraOpener adapts OpenCamera to the session's camera factory.
func CameraOpener(device int) func() (recognition.Camera, error) {
	return func() (recognition.Camera, error) {
		cam, err := OpenCamera(device)
		if err != nil {
			return nil, err
		}
		return cam, nil
	}
}

func (c *Camera) Read() (recognition.Frame, error) {
	if ok := c.capture.Read(&c.frame.mat); !ok || c.frame.mat.Empty() {
		return nil, errors.New("camera returned no frame")
	}
	return &c.frame, nil
}

func (c *Camera) Close() error {
	return errors.Join(c.frame.mat.Close(), c.capture.Close())
}
