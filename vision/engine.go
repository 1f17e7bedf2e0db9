// Package vision implements the recognition engine on OpenCV: a Haar cascade
// finds faces and an ONNX landmark network turns each face into an encoding
// made of its flattened landmark coordinates.
package vision

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"campusface/recognition"

	"gocv.io/x/gocv"
)

const defaultInputSize = 192

var (
	green  = color.RGBA{G: 255}
	red    = color.RGBA{R: 255}
	white  = color.RGBA{R: 255, G: 255, B: 255}
	yellow = color.RGBA{G: 255, B: 255}
)

type Options struct {
	CascadePath       string
	LandmarkModelPath string
	// InputSize is the square input edge of the landmark network.
	InputSize int
}

// Engine holds one cascade and one landmark network. It is not safe for
// concurrent use: every camera session loads its own.
type Engine struct {
	cascade   gocv.CascadeClassifier
	landmarks gocv.Net
	inputSize image.Point
}

func NewEngine(opts Options) (*Engine, error) {
	cascade := gocv.NewCascadeClassifier()
	if !cascade.Load(opts.CascadePath) {
		cascade.Close()
		return nil, fmt.Errorf("load face cascade %s", opts.CascadePath)
	}

	net := gocv.ReadNetFromONNX(opts.LandmarkModelPath)
	if net.Empty() {
		cascade.Close()
		net.Close()
		return nil, fmt.Errorf("load landmark model %s", opts.LandmarkModelPath)
	}

	size := opts.InputSize
	if size <= 0 {
		size = defaultInputSize
	}
	return &Engine{cascade: cascade, landmarks: net, inputSize: image.Pt(size, size)}, nil
}

// EngineFactory adapts NewEngine to the session's engine factory.
func EngineFactory(opts Options) func() (recognition.Engine, error) {
	return func() (recognition.Engine, error) {
		e, err := NewEngine(opts)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
}

func (e *Engine) Close() error {
	return errors.Join(e.cascade.Close(), e.landmarks.Close())
}

func (e *Engine) Detect(f recognition.Frame) ([]image.Rectangle, error) {
	mat, err := matOf(f)
	if err != nil {
		return nil, err
	}
	return e.detect(*mat), nil
}

func (e *Engine) detect(img gocv.Mat) []image.Rectangle {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	return e.cascade.DetectMultiScale(gray)
}

func (e *Engine) EncodeRegion(f recognition.Frame, region image.Rectangle) ([]float64, error) {
	mat, err := matOf(f)
	if err != nil {
		return nil, err
	}
	region = region.Intersect(f.Bounds())
	if region.Empty() {
		return nil, recognition.ErrNoFace
	}
	crop := mat.Region(region)
	defer crop.Close()
	return e.encode(crop)
}

// EncodePhoto reads a stored photo and encodes its largest face.
func (e *Engine) EncodePhoto(path string) ([]float64, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return nil, fmt.Errorf("read image %s: unreadable or unsupported format", path)
	}

	faces := e.detect(img)
	if len(faces) == 0 {
		return nil, recognition.ErrNoFace
	}
	crop := img.Region(largest(faces))
	defer crop.Close()
	return e.encode(crop)
}

func (e *Engine) encode(face gocv.Mat) ([]float64, error) {
	if face.Empty() {
		return nil, recognition.ErrNoFace
	}

	blob := gocv.BlobFromImage(face, 1.0/255.0, e.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	e.landmarks.SetInput(blob, "")
	out := e.landmarks.Forward("")
	defer out.Close()
	if out.Empty() {
		return nil, recognition.ErrNoFace
	}

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read landmark output: %w", err)
	}

	enc := make([]float64, len(data))
	nonZero := false
	for i, v := range data {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, recognition.ErrNoFace
		}
		if f != 0 {
			nonZero = true
		}
		enc[i] = f
	}
	if !nonZero {
		return nil, recognition.ErrNoFace
	}
	return enc, nil
}

// Render draws the annotation onto the frame and returns it JPEG-encoded.
func (e *Engine) Render(f recognition.Frame, a recognition.Annotation) ([]byte, error) {
	mat, err := matOf(f)
	if err != nil {
		return nil, err
	}
	drawAnnotation(mat, a)

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *mat)
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()
	return append([]byte(nil), buf.GetBytes()...), nil
}

func drawAnnotation(mat *gocv.Mat, a recognition.Annotation) {
	if a.Banner != "" {
		gocv.PutText(mat, a.Banner, image.Pt(10, 30), gocv.FontHersheySimplex, 1, green, 2)
	}

	for _, ov := range a.Overlays {
		c := red
		if ov.Known {
			c = green
		}
		box := ov.Box
		gocv.Rectangle(mat, box, c, 3)
		gocv.Rectangle(mat, image.Rect(box.Min.X, box.Max.Y-35, box.Max.X, box.Max.Y), c, -1)
		gocv.PutText(mat, ov.Label, image.Pt(box.Min.X+6, box.Max.Y-6), gocv.FontHersheyDuplex, 0.8, white, 2)
	}

	if a.Footer != "" {
		c := yellow
		if a.Marked {
			c = green
		}
		gocv.PutText(mat, a.Footer, image.Pt(10, mat.Rows()-20), gocv.FontHersheySimplex, 0.7, c, 2)
	}
}

func matOf(f recognition.Frame) (*gocv.Mat, error) {
	vf, ok := f.(*Frame)
	if !ok || vf == nil {
		return nil, fmt.Errorf("unsupported frame type %T", f)
	}
	return &vf.mat, nil
}

func largest(rects []image.Rectangle) image.Rectangle {
	best := rects[0]
	for _, r := range rects[1:] {
		if r.Dx()*r.Dy() > best.Dx()*best.Dy() {
			best = r
		}
	}
	return best
}
