// Package recognition runs the live attendance pipeline: it builds a gallery
// from enrolled students' reference photos, reads camera frames, matches
// detected faces against the gallery and records attendance.
//
// Face detection, landmark encoding and frame rendering are delegated to an
// Engine; package vision provides the OpenCV implementation.
package recognition

import (
	"context"
	"errors"
	"image"

	"campusface/models"
)

var (
	ErrCameraUnavailable = errors.New("camera unavailable")
	ErrFrameRead         = errors.New("camera frame read failed")
	ErrNoFace            = errors.New("no face landmarks found")
	ErrCameraBusy        = errors.New("camera is in use by another session")
)

// Frame is one raster frame owned by the Camera that produced it. It stays
// valid until the next Read.
type Frame interface {
	Bounds() image.Rectangle
}

type Camera interface {
	// Read blocks for the next frame. io.EOF ends the stream cleanly.
	Read() (Frame, error)
	Close() error
}

// PhotoEncoder computes the reference encoding of the first face in a stored photo.
// It returns ErrNoFace when the photo decodes but holds no usable face.
type PhotoEncoder interface {
	EncodePhoto(path string) ([]float64, error)
}

// Engine wraps the external detection and landmark models for one session.
type Engine interface {
	PhotoEncoder
	Detect(frame Frame) ([]image.Rectangle, error)
	// EncodeRegion runs the landmark model on the sub-image of frame inside region.
	EncodeRegion(frame Frame, region image.Rectangle) ([]float64, error)
	Render(frame Frame, a Annotation) ([]byte, error)
	Close() error
}

// Overlay is a labelled box drawn on an output frame.
type Overlay struct {
	Box   image.Rectangle
	Label string
	Known bool
}

type Annotation struct {
	Banner   string
	Overlays []Overlay
	Footer   string
	Marked   bool
}

// DetectedFace only lives for one frame-processing step.
type DetectedFace struct {
	Region   image.Rectangle
	Encoding []float64
}

type StudentLister interface {
	Students(ctx context.Context) ([]models.Student, error)
}

type AttendanceStore interface {
	MarkedStudentIDs(ctx context.Context, day string) ([]int64, error)
	RecordAttendance(ctx context.Context, rec models.Attendance) (bool, error)
}

type Store interface {
	StudentLister
	AttendanceStore
}

// Event describes one recorded attendance.
type Event struct {
	StudentID int64  `json:"student_id"`
	Name      string `json:"name"`
	RollNo    string `json:"roll_no"`
	Time      string `json:"time"`
}

type Notifier interface {
	AttendanceRecorded(ctx context.Context, ev Event) error
}

type nopNotifier struct{}

func (nopNotifier) AttendanceRecorded(context.Context, Event) error { return nil }
