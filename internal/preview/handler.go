package preview

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	apiError "property-outline-cms/internal/errors"
	"property-outline-cms/internal/middleware"

	"github.com/gin-gonic/gin"
)

// callbackPattern keeps JSONP callbacks to plain identifiers so the
// response can never smuggle script into the embedding page.
var callbackPattern = regexp.MustCompile(`^[a-zA-Z_$][a-zA-Z0-9_$]*$`)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Mint(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	result, err := h.service.Mint(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Resolve serves a draft preview to an unauthenticated viewer holding a
// valid token.
func (h *Handler) Resolve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.Error(apiError.NotFound("Preview not found", nil))
		return
	}

	result, err := h.service.Resolve(c.Request.Context(), c.Param("slug"), token)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Public serves the published payload as JSON, or as JSONP when a
// callback parameter is present. Errors are rendered inline (and wrapped
// for JSONP) so embedding scripts always get something they can parse.
func (h *Handler) Public(c *gin.Context) {
	callback := c.Query("callback")
	if callback != "" && !callbackPattern.MatchString(callback) {
		c.String(http.StatusBadRequest, "Invalid callback parameter")
		return
	}

	result, err := h.service.Public(c.Request.Context(), c.Param("slug"))
	if err != nil {
		status := http.StatusInternalServerError
		message := "Internal server error"
		var apiErr *apiError.APIError
		if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
			status = apiErr.Status
			message = apiErr.Message
		}
		h.respond(c, callback, status, gin.H{"error": message, "slug": c.Param("slug")})
		return
	}

	h.respond(c, callback, http.StatusOK, result)
}

func (h *Handler) respond(c *gin.Context, callback string, status int, body any) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Cache-Control", "public, max-age=300, s-maxage=600")

	if callback == "" {
		c.JSON(status, body)
		return
	}

	raw, err := json.Marshal(body)
	if err != nil {
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	c.Data(status, "application/javascript", []byte(fmt.Sprintf("%s(%s);", callback, raw)))
}
