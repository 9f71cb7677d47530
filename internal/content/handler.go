package content

import (
	"net/http"

	"property-outline-cms/internal/domain"
	"property-outline-cms/internal/errors"
	"property-outline-cms/internal/middleware"
	"property-outline-cms/internal/utils"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetData returns the newest draft or published snapshot, selected by the
// type query parameter (draft by default).
func (h *Handler) GetData(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	kind := c.DefaultQuery("type", "draft")
	if kind != "draft" && kind != "published" {
		c.Error(errors.BadRequest("type must be draft or published", nil))
		return
	}

	data, err := h.service.GetData(c.Request.Context(), principal, c.Param("id"), kind == "published")
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"propertyData": data})
}

func (h *Handler) SaveDraft(c *gin.Context) {
	var payload domain.OutlineData
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	principal, _ := middleware.GetPrincipal(c)

	draft, err := h.service.SaveDraft(c.Request.Context(), principal, c.Param("id"), payload)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"propertyData": draft})
}

func (h *Handler) Publish(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	promoted, err := h.service.Publish(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Published",
		"propertyData": promoted,
	})
}

func (h *Handler) Restore(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	restored, err := h.service.RestoreBackup(c.Request.Context(), principal, c.Param("id"), c.Param("backupId"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Backup restored as a draft. Review and publish to go live.",
		"propertyData": restored,
	})
}

func (h *Handler) ListHistory(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	page, pageSize := utils.GetPaginationParams(c)
	entries, meta, err := h.service.ListHistory(c.Request.Context(), principal, c.Param("id"), page, pageSize)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": entries, "meta": meta})
}
