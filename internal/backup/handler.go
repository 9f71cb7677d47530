package backup

import (
	"net/http"

	"property-outline-cms/internal/errors"
	"property-outline-cms/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	backups, err := h.service.List(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"backups": backups})
}

type CreateBackupRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) Create(c *gin.Context) {
	var form CreateBackupRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	principal, _ := middleware.GetPrincipal(c)

	backup, err := h.service.Create(c.Request.Context(), principal, c.Param("id"), form.Reason)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"backup": backup})
}

type UpdateBackupRequest struct {
	BackupName  *string `json:"backup_name" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
}

func (h *Handler) Update(c *gin.Context) {
	var form UpdateBackupRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	principal, _ := middleware.GetPrincipal(c)

	backup, err := h.service.Update(
		c.Request.Context(),
		principal,
		c.Param("id"),
		c.Param("backupId"),
		form.BackupName,
		form.Description,
	)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Backup updated",
		"backup":  backup,
	})
}

func (h *Handler) Delete(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	if err := h.service.Delete(c.Request.Context(), principal, c.Param("id"), c.Param("backupId")); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Backup deleted"})
}
