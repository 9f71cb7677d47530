package property

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

	result, err := h.service.ListProperties(c.Request.Context(), principal)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type CreatePropertyRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=255"`
	Slug        string  `json:"slug" binding:"required,min=1,max=255"`
	SiteURL     *string `json:"site_url" binding:"omitempty,url"`
	Description *string `json:"description"`
}

func (h *Handler) Create(c *gin.Context) {
	var form CreatePropertyRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	principal, _ := middleware.GetPrincipal(c)

	property, err := h.service.CreateProperty(c.Request.Context(), principal, CreatePropertyInput{
		Name:        form.Name,
		Slug:        form.Slug,
		SiteURL:     form.SiteURL,
		Description: form.Description,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"property": property})
}

func (h *Handler) Show(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	detail, err := h.service.GetProperty(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

type UpdatePropertyRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=255"`
	Slug        *string `json:"slug" binding:"omitempty,min=1,max=255"`
	SiteURL     *string `json:"site_url" binding:"omitempty,url"`
	Description *string `json:"description"`
}

func (h *Handler) Update(c *gin.Context) {
	var form UpdatePropertyRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	principal, _ := middleware.GetPrincipal(c)

	property, err := h.service.UpdateProperty(c.Request.Context(), principal, c.Param("id"), UpdatePropertyInput{
		Name:        form.Name,
		Slug:        form.Slug,
		SiteURL:     form.SiteURL,
		Description: form.Description,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"property": property})
}

func (h *Handler) Delete(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	if err := h.service.DeleteProperty(c.Request.Context(), principal, c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Property deleted"})
}

func (h *Handler) ListMembers(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	detail, err := h.service.GetProperty(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": detail.Users})
}

type AddMemberRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

func (h *Handler) AddMember(c *gin.Context) {
	var form AddMemberRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	principal, _ := middleware.GetPrincipal(c)

	member, err := h.service.AddMember(c.Request.Context(), principal, c.Param("id"), form.UserID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": member})
}

func (h *Handler) RemoveMember(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	err := h.service.RemoveMember(c.Request.Context(), principal, c.Param("id"), c.Param("userId"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User removed from property"})
}
