package preview

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"property-outline-cms/internal/domain"
	"property-outline-cms/internal/errors"
	"property-outline-cms/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// mock implementation of the Service interface
type MockService struct {
	mock.Mock
}

func (m *MockService) Mint(ctx context.Context, principal domain.Principal, propertyID string) (*MintResult, error) {
	args := m.Called(ctx, principal, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MintResult), args.Error(1)
}

func (m *MockService) Resolve(ctx context.Context, slug, token string) (*PreviewResult, error) {
	args := m.Called(ctx, slug, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PreviewResult), args.Error(1)
}

func (m *MockService) Public(ctx context.Context, slug string) (*PublicResult, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PublicResult), args.Error(1)
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler())
	return router
}

func asEditor(handler gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetPrincipal(c, domain.Principal{ID: "user-1", Role: domain.RoleEditor})
		handler(c)
	}
}

func TestMint_Success(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	result := &MintResult{
		Token:      "deadbeef",
		ExpiresAt:  time.Now().UTC().Add(TokenTTL),
		PreviewURL: "http://localhost:8080/preview/beach-house?token=deadbeef",
	}
	mockService.On("Mint", mock.Anything, mock.Anything, "prop-1").Return(result, nil)

	router.POST("/properties/:id/preview", asEditor(handler.Mint))

	req := httptest.NewRequest("POST", "/properties/prop-1/preview", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "deadbeef", response["token"])
	assert.Contains(t, response["previewUrl"], "token=deadbeef")
	mockService.AssertExpectations(t)
}

func TestMintHandler_NoDraft(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	mockService.On("Mint", mock.Anything, mock.Anything, "prop-1").
		Return(nil, errors.NotFound("No draft to preview", nil))

	router.POST("/properties/:id/preview", asEditor(handler.Mint))

	req := httptest.NewRequest("POST", "/properties/prop-1/preview", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResolve_Success(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	result := &PreviewResult{
		Property:  PublicProperty{Name: "Beach House", Slug: "beach-house"},
		Data:      json.RawMessage(`{"version":"1.0"}`),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	mockService.On("Resolve", mock.Anything, "beach-house", "deadbeef").Return(result, nil)

	router.GET("/public/:slug/preview", handler.Resolve)

	req := httptest.NewRequest("GET", "/public/beach-house/preview?token=deadbeef", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestResolve_MissingToken(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	router.GET("/public/:slug/preview", handler.Resolve)

	req := httptest.NewRequest("GET", "/public/beach-house/preview", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockService.AssertNotCalled(t, "Resolve")
}

func TestPublic_JSON(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	result := &PublicResult{
		Property:  PublicProperty{Name: "Beach House", Slug: "beach-house"},
		Data:      json.RawMessage(`{"version":"1.0"}`),
		Version:   "v.00000123",
		UpdatedAt: time.Now().UTC(),
	}
	mockService.On("Public", mock.Anything, "beach-house").Return(result, nil)

	router.GET("/public/:slug", handler.Public)

	req := httptest.NewRequest("GET", "/public/beach-house", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "public, max-age=300, s-maxage=600", w.Header().Get("Cache-Control"))
	mockService.AssertExpectations(t)
}

func TestPublic_JSONP(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	result := &PublicResult{
		Property: PublicProperty{Name: "Beach House", Slug: "beach-house"},
		Data:     json.RawMessage(`{"version":"1.0"}`),
		Version:  "v.00000123",
	}
	mockService.On("Public", mock.Anything, "beach-house").Return(result, nil)

	router.GET("/public/:slug", handler.Public)

	req := httptest.NewRequest("GET", "/public/beach-house?callback=renderOutline", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/javascript")
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "renderOutline("))
	assert.True(t, strings.HasSuffix(body, ");"))
	mockService.AssertExpectations(t)
}

func TestPublic_InvalidCallback(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	router.GET("/public/:slug", handler.Public)

	req := httptest.NewRequest("GET", "/public/beach-house?callback=alert(1)", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid callback parameter", w.Body.String())
	mockService.AssertNotCalled(t, "Public")
}

// Errors keep the JSONP shape so embedding scripts can still parse them.
func TestPublic_NotFoundWrappedInCallback(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	mockService.On("Public", mock.Anything, "gone").
		Return(nil, errors.NotFound("No published data found", nil))

	router.GET("/public/:slug", handler.Public)

	req := httptest.NewRequest("GET", "/public/gone?callback=cb", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "cb("))
	assert.Contains(t, body, `"slug":"gone"`)
	mockService.AssertExpectations(t)
}
