package lock

import (
	"net/http"

	"property-outline-cms/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Check(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	status, err := h.service.Check(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, status)
}

func (h *Handler) Acquire(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	acquired, err := h.service.Acquire(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"expiresAt": acquired.ExpiresAt,
		"message":   "Lock acquired successfully",
	})
}

func (h *Handler) Release(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	if err := h.service.Release(c.Request.Context(), principal, c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Lock released successfully",
	})
}
