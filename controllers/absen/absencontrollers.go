package absen

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"campusface/helper"
	"campusface/middleware"
	"campusface/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetAllAbsen lists attendance with the student's name and roll number,
// newest first. ?date=YYYY-MM-DD limits the list to one day.
func GetAllAbsen(c *gin.Context) {
	date := c.Query("date")
	if date != "" {
		if _, err := time.Parse(models.DayLayout, date); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
	}

	absensi, err := models.NewStore(models.DB).AttendanceOn(c.Request.Context(), date)
	if err != nil {
		slog.Error("list attendance", "date", date, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load attendance"})
		return
	}
	if absensi == nil {
		absensi = []models.AttendanceView{}
	}

	c.JSON(http.StatusOK, gin.H{"date": date, "attendance": absensi})
}

type DeletePayload struct {
	Password string `form:"password" json:"password" binding:"required"`
}

// DeleteAbsen removes one attendance row. The admin must confirm with their
// own password.
func DeleteAbsen(c *gin.Context) {
	// 1. Ambil user login (sudah lolos AdminOnly)
	currentUser, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user session"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid attendance id"})
		return
	}

	// 2. Konfirmasi password admin
	var payload DeletePayload
	if err := c.ShouldBind(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password is required"})
		return
	}
	if !helper.CheckPassword(currentUser.Password, payload.Password) {
		slog.Warn("attendance delete refused", "user", currentUser.Username, "attendance_id", id)
		c.JSON(http.StatusForbidden, gin.H{"error": "Incorrect password! Attendance not deleted."})
		return
	}

	// 3. Hapus data
	var absen models.Attendance
	if err := models.DB.First(&absen, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Attendance record not found"})
			return
		}
		slog.Error("load attendance", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete attendance"})
		return
	}
	if err := models.DB.Delete(&absen).Error; err != nil {
		slog.Error("delete attendance", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete attendance"})
		return
	}

	slog.Info("attendance deleted", "user", currentUser.Username, "attendance_id", id, "student_id", absen.StudentId)
	c.JSON(http.StatusOK, gin.H{"message": "Attendance record deleted successfully!"})
}
