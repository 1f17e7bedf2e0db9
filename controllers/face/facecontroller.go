package face

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"campusface/config"
	"campusface/metrics"
	"campusface/models"
	"campusface/recognition"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Controller serves the live recognition stream and the face diagnostics.
type Controller struct {
	Cfg        *config.Config
	Store      recognition.Store
	NewEngine  func() (recognition.Engine, error)
	OpenCamera func() (recognition.Camera, error)
	Lock       *recognition.DeviceLock
	Notifier   recognition.Notifier
	Metrics    *metrics.Metrics
	Log        *slog.Logger
}

func (h *Controller) logger() *slog.Logger {
	if h.Log == nil {
		return slog.Default()
	}
	return h.Log
}

// VideoFeed runs one recognition session and streams its frames as MJPEG.
// Failures before the first frame are answered with JSON.
func (h *Controller) VideoFeed(c *gin.Context) {
	log := h.logger()

	// 1. Satu kamera hanya untuk satu sesi
	release, err := h.Lock.Acquire()
	if err != nil {
		if errors.Is(err, recognition.ErrCameraBusy) {
			c.JSON(http.StatusConflict, gin.H{"error": "The camera is already in use"})
			return
		}
		log.Error("camera lock", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not start the camera"})
		return
	}
	defer func() {
		if err := release(); err != nil {
			log.Warn("release camera lock", "error", err)
		}
	}()

	// 2. Siapkan sesi
	opts := []recognition.SessionOption{recognition.WithLogger(log)}
	if h.Notifier != nil {
		opts = append(opts, recognition.WithNotifier(h.Notifier))
	}
	if h.Metrics != nil {
		opts = append(opts, recognition.WithMetrics(h.Metrics))
	}
	session := recognition.NewSession(recognition.SessionConfig{
		PhotoDir:   h.Cfg.UploadDir,
		Stride:     h.Cfg.FrameStride,
		CloseDelay: h.Cfg.CloseDelay,
	}, h.OpenCamera, h.NewEngine, h.Store, recognition.NewMatcher(h.Cfg.Tolerance, h.Cfg.MaxDistance), opts...)

	// 3. Header stream baru dikirim bersama frame pertama
	mjpeg := recognition.NewMJPEGWriter(c.Writer, c.Writer.Flush)
	streamed := false
	emit := func(jpeg []byte) error {
		if !streamed {
			c.Header("Content-Type", recognition.MJPEGContentType)
			c.Header("Cache-Control", "no-cache, no-store")
			c.Status(http.StatusOK)
			streamed = true
		}
		return mjpeg.WriteFrame(jpeg)
	}

	res, err := session.Run(c.Request.Context(), emit)
	if streamed {
		if cerr := mjpeg.Close(); cerr != nil {
			log.Debug("close stream", "error", cerr)
		}
	}
	if err != nil {
		log.Error("recognition session failed", "session", session.ID, "frames", res.Frames, "error", err)
		sentry.CaptureException(err)
		if !streamed {
			status := http.StatusInternalServerError
			if errors.Is(err, recognition.ErrCameraUnavailable) {
				status = http.StatusServiceUnavailable
			}
			c.JSON(status, gin.H{"error": "Camera not accessible"})
		}
		return
	}

	attrs := []any{"session", session.ID, "frames", res.Frames, "processed", res.Processed, "gallery", res.GallerySize}
	if res.Recorded != nil {
		attrs = append(attrs, "student_id", res.Recorded.StudentID)
	}
	log.Info("recognition session ended", attrs...)
	if !streamed {
		c.Status(http.StatusNoContent)
	}
}

// FaceStatus reports whether a student's stored photo yields a usable face.
func (h *Controller) FaceStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid student id"})
		return
	}

	var student models.Student
	if err := models.DB.First(&student, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
			return
		}
		h.logger().Error("load student", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load student"})
		return
	}

	resp := gin.H{"student_id": student.Id, "photo": student.Photo, "photo_exists": false, "face_found": false}
	path := filepath.Join(h.Cfg.UploadDir, filepath.Base(student.Photo))
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusOK, resp)
		return
	}
	resp["photo_exists"] = true

	engine, err := h.NewEngine()
	if err != nil {
		h.logger().Error("load face models", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Face models are not available"})
		return
	}
	defer engine.Close()

	encoding, err := engine.EncodePhoto(path)
	switch {
	case err == nil && len(encoding) > 0:
		resp["face_found"] = true
		resp["encoding_length"] = len(encoding)
	case err == nil || errors.Is(err, recognition.ErrNoFace):
	default:
		resp["error"] = "Photo could not be read"
		h.logger().Warn("encode student photo", "id", id, "error", err)
	}
	c.JSON(http.StatusOK, resp)
}

// Gallery summarises which students the next session will recognise.
func (h *Controller) Gallery(c *gin.Context) {
	engine, err := h.NewEngine()
	if err != nil {
		h.logger().Error("load face models", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Face models are not available"})
		return
	}
	defer engine.Close()

	gallery, err := recognition.LoadGallery(c.Request.Context(), h.Store, engine, h.Cfg.UploadDir, h.logger())
	if err != nil {
		h.logger().Error("load gallery", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load gallery"})
		return
	}
	skipped := gallery.Skipped
	if skipped == nil {
		skipped = []int64{}
	}

	c.JSON(http.StatusOK, gin.H{
		"size":        gallery.Len(),
		"student_ids": gallery.StudentIDs(),
		"skipped":     skipped,
	})
}
