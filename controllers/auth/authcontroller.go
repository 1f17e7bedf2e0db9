package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"campusface/config"
	"campusface/helper"
	"campusface/metrics"
	"campusface/middleware"
	"campusface/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CredentialsPayload struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type Controller struct {
	Cfg      *config.Config
	Throttle *helper.LoginThrottle
	Metrics  *metrics.Metrics
}

func (h *Controller) Register(c *gin.Context) {
	// 1. Form atau JSON, dua-duanya wajib diisi
	var payload CredentialsPayload
	if err := c.ShouldBind(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fill both username and password"})
		return
	}
	payload.Username = strings.TrimSpace(payload.Username)
	if payload.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fill both username and password"})
		return
	}

	// 2. Username harus unik
	var existing models.User
	err := models.DB.Where("username = ?", payload.Username).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Username already exists"})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		slog.Error("lookup user", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not register user"})
		return
	}

	hash, err := helper.HashPassword(payload.Password)
	if err != nil {
		slog.Error("hash password", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not register user"})
		return
	}

	// 3. User pertama otomatis menjadi admin
	role := models.RoleOperator
	var count int64
	if err := models.DB.Model(&models.User{}).Count(&count).Error; err == nil && count == 0 {
		role = models.RoleAdmin
	}

	user := models.User{Username: payload.Username, Password: hash, Role: role}
	if err := models.DB.Create(&user).Error; err != nil {
		slog.Error("create user", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not register user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully! Please login.", "user": user})
}

func (h *Controller) Login(c *gin.Context) {
	var payload CredentialsPayload
	if err := c.ShouldBind(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid username or password"})
		return
	}

	key := strings.ToLower(strings.TrimSpace(payload.Username)) + "|" + c.ClientIP()
	if h.Throttle != nil && h.Throttle.Blocked(key) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many failed attempts, try again later"})
		return
	}

	var user models.User
	err := models.DB.Where("username = ?", strings.TrimSpace(payload.Username)).First(&user).Error
	if err != nil || !helper.CheckPassword(user.Password, payload.Password) {
		if h.Throttle != nil {
			h.Throttle.Fail(key)
		}
		if h.Metrics != nil {
			h.Metrics.LoginFailures.Inc()
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}
	if h.Throttle != nil {
		h.Throttle.Reset(key)
	}

	token, err := helper.IssueToken(h.Cfg.JWTKey, user.Username, user.Role, h.Cfg.TokenTTL)
	if err != nil {
		slog.Error("issue token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not log in"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.CookieName, token, int(h.Cfg.TokenTTL.Seconds()), "/", "", h.Cfg.CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "token": token, "user": user})
}

func (h *Controller) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.CookieName, "", -1, "/", "", h.Cfg.CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *Controller) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
