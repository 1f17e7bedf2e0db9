// Package routes wires the HTTP handlers into a gin engine.
package routes

import (
	"log/slog"
	"net/http"
	"time"

	"campusface/config"
	"campusface/controllers/absen"
	"campusface/controllers/auth"
	"campusface/controllers/developer"
	"campusface/controllers/face"
	"campusface/controllers/student"
	"campusface/helper"
	"campusface/metrics"
	"campusface/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps are the long-lived services the handlers share.
type Deps struct {
	Cfg      *config.Config
	Metrics  *metrics.Metrics
	Throttle *helper.LoginThrottle
	Face     *face.Controller
	Log      *slog.Logger
}

func SetupRouter(d Deps) *gin.Engine {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.Cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.MaxMultipartMemory = helper.MaxUploadSize

	authCtrl := &auth.Controller{Cfg: d.Cfg, Throttle: d.Throttle, Metrics: d.Metrics}
	studentCtrl := &student.Controller{Cfg: d.Cfg}
	devCtrl := &developer.Controller{Cfg: d.Cfg}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	r.POST("/register", authCtrl.Register)
	r.POST("/login", authCtrl.Login)

	// Semua route di bawah ini wajib login
	user := r.Group("/", middleware.AuthRequired(d.Cfg.JWTKey))
	{
		user.POST("/logout", authCtrl.Logout)
		user.GET("/me", authCtrl.Me)

		user.GET("/dashboard", studentCtrl.Dashboard)
		user.POST("/students", studentCtrl.Register)
		user.PUT("/students/:id", studentCtrl.Edit)
		user.DELETE("/students/:id", studentCtrl.Delete)

		user.GET("/attendance", absen.GetAllAbsen)
		user.POST("/attendance/:id/delete", middleware.AdminOnly(), absen.DeleteAbsen)

		user.GET("/developer", devCtrl.Get)
		user.POST("/developer", devCtrl.Save)

		// Foto hanya untuk user yang sudah login
		if d.Cfg.UploadDir != "" {
			user.Static("/photos/students", d.Cfg.UploadDir)
		}
		if d.Cfg.DeveloperDir != "" {
			user.Static("/photos/developer", d.Cfg.DeveloperDir)
		}

		if d.Face != nil {
			user.GET("/students/:id/face", d.Face.FaceStatus)
			user.GET("/gallery", d.Face.Gallery)
			user.GET("/video_feed", d.Face.VideoFeed)
		}
	}

	return r
}
