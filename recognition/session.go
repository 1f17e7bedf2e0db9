package recognition

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"campusface/metrics"

	"github.com/google/uuid"
)

const (
	bannerFaceDetected = "Face Detected!"
	footerWaiting      = "Look at the camera. Close the page to exit"
	footerMarked       = "Attendance Marked! Closing..."
	labelUnknown       = "Unknown"
)

type SessionConfig struct {
	PhotoDir string
	// Stride selects which frames are analysed: every Stride-th frame.
	Stride     int
	CloseDelay time.Duration
	// NotifyTimeout bounds the attendance notifier; zero means DefaultNotifyTimeout.
	NotifyTimeout time.Duration
}

// Session is one camera streaming run. It is not safe for concurrent use and
// is meant to be run once.
type Session struct {
	ID string

	cfg        SessionConfig
	openCamera func() (Camera, error)
	newEngine  func() (Engine, error)
	store      Store
	matcher    *Matcher
	notifier   Notifier
	metrics    *metrics.Metrics
	log        *slog.Logger
	now        func() time.Time
}

type SessionOption func(*Session)

func WithNotifier(n Notifier) SessionOption {
	return func(s *Session) { s.notifier = n }
}

func WithMetrics(m *metrics.Metrics) SessionOption {
	return func(s *Session) { s.metrics = m }
}

func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.log = l }
}

func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

func NewSession(cfg SessionConfig, openCamera func() (Camera, error), newEngine func() (Engine, error),
	store Store, matcher *Matcher, opts ...SessionOption) *Session {
	if cfg.Stride < 1 {
		cfg.Stride = 3
	}
	s := &Session{
		ID:         uuid.NewString(),
		cfg:        cfg,
		openCamera: openCamera,
		newEngine:  newEngine,
		store:      store,
		matcher:    matcher,
		notifier:   nopNotifier{},
		log:        slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	s.log = s.log.With("session", s.ID)
	return s
}

// Result summarises a finished session.
type Result struct {
	Frames      int
	Processed   int
	GallerySize int
	// Recorded is the student whose attendance ended the session, if any.
	Recorded *GalleryEntry
}

// Run streams rendered JPEG frames to emit until the camera ends, ctx is
// cancelled, emit fails, or an attendance is recorded. After the first
// recorded attendance no further matches are taken; the closing frame is
// emitted and Run returns after CloseDelay.
//
// Camera open and frame read failures end the session with an error.
func (s *Session) Run(ctx context.Context, emit func(jpeg []byte) error) (res Result, err error) {
	defer func() {
		outcome := "ended"
		switch {
		case err != nil:
			outcome = "error"
		case res.Recorded != nil:
			outcome = "recorded"
		}
		s.metrics.Sessions.WithLabelValues(outcome).Inc()
	}()

	engine, err := s.newEngine()
	if err != nil {
		return res, fmt.Errorf("load face models: %w", err)
	}
	defer func() {
		if cerr := engine.Close(); cerr != nil {
			s.log.Warn("release face models", "error", cerr)
		}
	}()

	gallery, err := LoadGallery(ctx, s.store, engine, s.cfg.PhotoDir, s.log)
	if err != nil {
		return res, err
	}
	res.GallerySize = gallery.Len()
	s.metrics.GallerySize.Set(float64(gallery.Len()))
	s.metrics.GallerySkipped.Set(float64(len(gallery.Skipped)))
	s.log.Info("gallery loaded", "faces", gallery.Len(), "skipped", len(gallery.Skipped))

	cam, err := s.openCamera()
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}
	defer func() {
		if cerr := cam.Close(); cerr != nil {
			s.log.Warn("release camera", "error", cerr)
		}
	}()

	recorder := NewRecorder(s.store, s.notifier, s.now, s.log)
	if s.cfg.NotifyTimeout > 0 {
		recorder.NotifyTimeout = s.cfg.NotifyTimeout
	}
	if err := recorder.Seed(ctx); err != nil {
		return res, err
	}

	marked := false
	for {
		if ctx.Err() != nil {
			s.log.Info("stream closed by client", "frames", res.Frames)
			return res, nil
		}

		frame, err := cam.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return res, nil
			}
			return res, fmt.Errorf("%w: %v", ErrFrameRead, err)
		}
		res.Frames++
		s.metrics.FramesRead.Inc()

		ann := Annotation{Footer: footerWaiting}
		if res.Frames%s.cfg.Stride == 0 && !marked {
			res.Processed++
			s.metrics.FramesProcessed.Inc()

			faces, detected := s.detectAndEncode(engine, frame)
			if detected > 0 {
				s.log.Debug("faces detected", "count", detected)
				ann.Banner = bannerFaceDetected
			}

			for _, face := range faces {
				ov := Overlay{Box: face.Region, Label: labelUnknown}
				if m, ok := s.matcher.Best(gallery.Encodings, face.Encoding); ok {
					s.metrics.MatchesAccepted.Inc()
					entry := gallery.Entries[m.Index]
					ov.Label = entry.Name
					ov.Known = true

					if !marked {
						recorded, err := recorder.Mark(ctx, entry)
						switch {
						case err != nil:
							s.metrics.AttendanceErrors.Inc()
							s.log.Error("attendance not saved", "student_id", entry.StudentID, "error", err)
						case recorded:
							s.metrics.AttendanceRecorded.Inc()
							s.log.Info("attendance marked", "student_id", entry.StudentID, "name", entry.Name,
								"similarity", m.Similarity)
							marked = true
							e := entry
							res.Recorded = &e
						}
					}
				}
				ann.Overlays = append(ann.Overlays, ov)
			}
		}

		if marked {
			ann.Footer = footerMarked
			ann.Marked = true
		}

		jpeg, err := engine.Render(frame, ann)
		if err != nil {
			s.log.Warn("frame encode failed", "error", err)
		} else if err := emit(jpeg); err != nil {
			s.log.Info("stream writer closed", "error", err)
			return res, nil
		}

		if marked {
			sleep(ctx, s.cfg.CloseDelay)
			return res, nil
		}
	}
}

// detectAndEncode returns the encodable faces in frame and the number of
// regions the detector reported. Regions that fall outside the frame or yield
// no landmarks are dropped.
func (s *Session) detectAndEncode(engine Engine, frame Frame) ([]DetectedFace, int) {
	regions, err := engine.Detect(frame)
	if err != nil {
		s.log.Warn("face detection failed", "error", err)
		return nil, 0
	}
	s.metrics.FacesDetected.Add(float64(len(regions)))

	bounds := frame.Bounds()
	var faces []DetectedFace
	for _, r := range regions {
		r = r.Intersect(bounds)
		if r.Empty() {
			continue
		}
		enc, err := engine.EncodeRegion(frame, r)
		if err != nil || len(enc) == 0 {
			continue
		}
		faces = append(faces, DetectedFace{Region: r, Encoding: enc})
	}
	s.metrics.FacesEncoded.Add(float64(len(faces)))
	return faces, len(regions)
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
