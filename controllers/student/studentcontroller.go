package student

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"campusface/config"
	"campusface/helper"
	"campusface/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type StudentPayload struct {
	Name      string `form:"name" binding:"required"`
	RollNo    string `form:"roll_no" binding:"required"`
	ClassName string `form:"class_name" binding:"required"`
}

type Controller struct {
	Cfg *config.Config
}

// Dashboard lists every registered student.
func (h *Controller) Dashboard(c *gin.Context) {
	var students []models.Student
	if err := models.DB.Order("id").Find(&students).Error; err != nil {
		slog.Error("list students", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load students"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

func (h *Controller) Register(c *gin.Context) {
	// 1. Validasi form
	var payload StudentPayload
	if err := c.ShouldBind(&payload); err != nil || !payload.trim() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name, roll number and class are required"})
		return
	}

	// 2. Roll number unik: nama file foto diturunkan darinya
	if taken, ok := h.rollTaken(c, payload.RollNo, 0); !ok || taken {
		return
	}

	// 3. Foto wajib ada dan ekstensinya diizinkan
	fh, err := c.FormFile("photo")
	if err != nil || !helper.AllowedFile(fh.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{"error": helper.ErrInvalidPhoto.Error()})
		return
	}

	name := helper.StudentPhotoName(payload.RollNo, fh.Filename)
	if err := helper.SavePhoto(fh, h.Cfg.UploadDir, name); err != nil {
		if errors.Is(err, helper.ErrInvalidPhoto) {
			c.JSON(http.StatusBadRequest, gin.H{"error": helper.ErrInvalidPhoto.Error()})
			return
		}
		slog.Error("save student photo", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save photo"})
		return
	}

	// 4. Simpan ke database, hapus lagi fotonya kalau gagal
	student := models.Student{
		Name:      payload.Name,
		RollNo:    payload.RollNo,
		ClassName: payload.ClassName,
		Photo:     name,
	}
	if err := models.DB.Create(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// The file belongs to the student that won the insert.
			c.JSON(http.StatusConflict, gin.H{"error": "Roll number already registered"})
			return
		}
		slog.Error("create student", "error", err)
		if rerr := helper.RemovePhoto(h.Cfg.UploadDir, name); rerr != nil {
			slog.Warn("remove orphan photo", "photo", name, "error", rerr)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not register student"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Student registered successfully!", "student": student})
}

func (h *Controller) Edit(c *gin.Context) {
	student, ok := h.find(c)
	if !ok {
		return
	}

	var payload StudentPayload
	if err := c.ShouldBind(&payload); err != nil || !payload.trim() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name, roll number and class are required"})
		return
	}

	if taken, ok := h.rollTaken(c, payload.RollNo, student.Id); !ok || taken {
		return
	}

	oldPhoto := student.Photo
	newPhoto := ""
	if fh, err := c.FormFile("photo"); err == nil {
		newPhoto = helper.StudentPhotoName(payload.RollNo, fh.Filename)
		if err := helper.SavePhoto(fh, h.Cfg.UploadDir, newPhoto); err != nil {
			if errors.Is(err, helper.ErrInvalidPhoto) {
				c.JSON(http.StatusBadRequest, gin.H{"error": helper.ErrInvalidPhoto.Error()})
				return
			}
			slog.Error("save student photo", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save photo"})
			return
		}
		student.Photo = newPhoto
	}

	student.Name = payload.Name
	student.RollNo = payload.RollNo
	student.ClassName = payload.ClassName
	if err := models.DB.Save(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "Roll number already registered"})
			return
		}
		slog.Error("update student", "id", student.Id, "error", err)
		if newPhoto != "" && newPhoto != oldPhoto {
			_ = helper.RemovePhoto(h.Cfg.UploadDir, newPhoto)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update student"})
		return
	}

	// Foto lama dibuang setelah data baru tersimpan
	if newPhoto != "" && newPhoto != oldPhoto {
		if err := helper.RemovePhoto(h.Cfg.UploadDir, oldPhoto); err != nil {
			slog.Warn("remove old photo", "photo", oldPhoto, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Student details updated successfully!", "student": student})
}

func (h *Controller) Delete(c *gin.Context) {
	student, ok := h.find(c)
	if !ok {
		return
	}

	if err := models.DB.Delete(&student).Error; err != nil {
		slog.Error("delete student", "id", student.Id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete student"})
		return
	}
	if err := helper.RemovePhoto(h.Cfg.UploadDir, student.Photo); err != nil {
		slog.Warn("remove student photo", "photo", student.Photo, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Student deleted successfully!"})
}

// find loads the student named by the :id path parameter and writes the
// error response itself when it cannot.
func (h *Controller) find(c *gin.Context) (models.Student, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid student id"})
		return models.Student{}, false
	}

	var student models.Student
	if err := models.DB.First(&student, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
			return models.Student{}, false
		}
		slog.Error("load student", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load student"})
		return models.Student{}, false
	}
	return student, true
}

// rollTaken reports whether another student than exceptID uses rollNo. It
// writes the response itself when the roll is taken or the lookup fails; ok
// is false on lookup failure.
func (h *Controller) rollTaken(c *gin.Context, rollNo string, exceptID int64) (taken, ok bool) {
	var count int64
	err := models.DB.Model(&models.Student{}).
		Where("roll_no = ? AND id <> ?", rollNo, exceptID).
		Count(&count).Error
	if err != nil {
		slog.Error("check roll number", "roll_no", rollNo, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not register student"})
		return false, false
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Roll number already registered"})
		return true, true
	}
	return false, true
}

func (p *StudentPayload) trim() bool {
	p.Name = strings.TrimSpace(p.Name)
	p.RollNo = strings.TrimSpace(p.RollNo)
	p.ClassName = strings.TrimSpace(p.ClassName)
	return p.Name != "" && p.RollNo != "" && p.ClassName != ""
}
