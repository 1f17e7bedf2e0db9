package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campusface/controllers/face"
	"campusface/helper"
	"campusface/jobs"
	"campusface/metrics"
	"campusface/models"
	"campusface/notify"
	"campusface/recognition"
	"campusface/routes"
	"campusface/vision"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the campusface web server.
The server exposes the login, student, attendance and developer endpoints and
the live /video_feed recognition stream.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides PORT)")
	serveCmd.Flags().Bool("no-jobs", false, "Do not run the photo housekeeping jobs")
}

func runServe(cmd *cobra.Command, args []string) error {
	if port := mustGetInt(cmd, "port"); port > 0 {
		cfg.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := slog.Default()

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, ServerName: "campusface"}); err != nil {
			log.Warn("sentry disabled", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	m := metrics.New()

	var notifier recognition.Notifier
	if cfg.MQTTBroker != "" {
		mq, err := notify.NewMQTT(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopic)
		if err != nil {
			log.Warn("attendance events disabled", "broker", cfg.MQTTBroker, "error", err)
		} else {
			defer mq.Close()
			notifier = mq
			log.Info("publishing attendance events", "broker", cfg.MQTTBroker, "topic", cfg.MQTTTopic)
		}
	}

	if !mustGetBool(cmd, "no-jobs") {
		scheduler, err := jobs.Start(db, cfg.UploadDir, m, log)
		if err != nil {
			return err
		}
		defer scheduler.Stop()
	}

	faceCtrl := &face.Controller{
		Cfg:   cfg,
		Store: models.NewStore(db),
		NewEngine: vision.EngineFactory(vision.Options{
			CascadePath:       cfg.CascadePath,
			LandmarkModelPath: cfg.LandmarkModelPath,
		}),
		OpenCamera: vision.CameraOpener(cfg.CameraDevice),
		Lock:       recognition.NewDeviceLock(cfg.LockDir, cfg.CameraDevice),
		Notifier:   notifier,
		Metrics:    m,
		Log:        log,
	}

	gin.SetMode(gin.ReleaseMode)
	router := routes.SetupRouter(routes.Deps{
		Cfg:      cfg,
		Metrics:  m,
		Throttle: helper.NewLoginThrottle(5, 15*time.Minute),
		Face:     faceCtrl,
		Log:      log,
	})

	// Tanpa WriteTimeout: /video_feed adalah stream panjang
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr, "db", cfg.DBDriver, "camera", cfg.CameraDevice)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
