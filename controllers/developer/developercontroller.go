package developer

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"campusface/config"
	"campusface/helper"
	"campusface/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type DeveloperPayload struct {
	Name    string `form:"name" json:"name" binding:"required"`
	Email   string `form:"email" json:"email"`
	Contact string `form:"contact" json:"contact"`
}

type Controller struct {
	Cfg *config.Config
}

// Get returns the helpdesk contact, or an empty object before one is set.
func (h *Controller) Get(c *gin.Context) {
	dev, err := First(models.DB)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		slog.Error("load developer", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load developer details"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"developer": dev})
}

// Save creates or updates the single helpdesk row. A photo is optional.
func (h *Controller) Save(c *gin.Context) {
	var payload DeveloperPayload
	if err := c.ShouldBind(&payload); err != nil || strings.TrimSpace(payload.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Developer name is required"})
		return
	}

	dev, err := First(models.DB)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		slog.Error("load developer", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save developer details"})
		return
	}
	dev.Name = strings.TrimSpace(payload.Name)
	dev.Email = strings.TrimSpace(payload.Email)
	dev.Contact = strings.TrimSpace(payload.Contact)

	oldPhoto := dev.Photo
	if fh, err := c.FormFile("photo"); err == nil {
		name := helper.SecureFilename(fh.Filename)
		if err := helper.SavePhoto(fh, h.Cfg.DeveloperDir, name); err != nil {
			if errors.Is(err, helper.ErrInvalidPhoto) {
				c.JSON(http.StatusBadRequest, gin.H{"error": helper.ErrInvalidPhoto.Error()})
				return
			}
			slog.Error("save developer photo", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save photo"})
			return
		}
		dev.Photo = name
	}

	if err := models.DB.Save(&dev).Error; err != nil {
		slog.Error("save developer", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save developer details"})
		return
	}
	if oldPhoto != "" && oldPhoto != dev.Photo {
		if err := helper.RemovePhoto(h.Cfg.DeveloperDir, oldPhoto); err != nil {
			slog.Warn("remove old developer photo", "photo", oldPhoto, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Developer details saved", "developer": dev})
}

// First loads the helpdesk row. Only the lowest id is ever used.
func First(db *gorm.DB) (models.Developer, error) {
	var dev models.Developer
	err := db.Order("id").First(&dev).Error
	return dev, err
}
