// Package metrics exposes the service's prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "campusface"

type Metrics struct {
	registry *prometheus.Registry

	Sessions           *prometheus.CounterVec
	FramesRead         prometheus.Counter
	FramesProcessed    prometheus.Counter
	FacesDetected      prometheus.Counter
	FacesEncoded       prometheus.Counter
	MatchesAccepted    prometheus.Counter
	AttendanceRecorded prometheus.Counter
	AttendanceErrors   prometheus.Counter
	GallerySize        prometheus.Gauge
	GallerySkipped     prometheus.Gauge
	LoginFailures      prometheus.Counter
	OrphanPhotos       prometheus.Counter
}

// New builds a Metrics bound to its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_sessions_total",
			Help:      "Camera sessions by outcome.",
		}, []string{"outcome"}),
		FramesRead: newCounter("frames_read_total", "Frames read from the camera."),
		FramesProcessed: newCounter("frames_processed_total",
			"Frames that went through detection and encoding."),
		FacesDetected:      newCounter("faces_detected_total", "Face regions returned by the detector."),
		FacesEncoded:       newCounter("faces_encoded_total", "Face regions that produced an encoding."),
		MatchesAccepted:    newCounter("matches_accepted_total", "Probes accepted by the matcher."),
		AttendanceRecorded: newCounter("attendance_recorded_total", "Attendance records written by the pipeline."),
		AttendanceErrors:   newCounter("attendance_errors_total", "Attendance writes that failed."),
		GallerySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gallery_size",
			Help:      "Encodings in the most recently loaded gallery.",
		}),
		GallerySkipped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gallery_skipped",
			Help:      "Students skipped while loading the most recent gallery.",
		}),
		LoginFailures: newCounter("login_failures_total", "Rejected login attempts."),
		OrphanPhotos:  newCounter("orphan_photos_removed_total", "Unreferenced photo files removed by the sweep job."),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Sessions, m.FramesRead, m.FramesProcessed, m.FacesDetected, m.FacesEncoded,
		m.MatchesAccepted, m.AttendanceRecorded, m.AttendanceErrors,
		m.GallerySize, m.GallerySkipped, m.LoginFailures, m.OrphanPhotos,
	)
	return m
}

func newCounter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
