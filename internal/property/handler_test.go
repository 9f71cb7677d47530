package property

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

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

func (m *MockService) CanAccess(ctx context.Context, propertyID string, principal domain.Principal) error {
	args := m.Called(ctx, propertyID, principal)
	return args.Error(0)
}

func (m *MockService) ListProperties(ctx context.Context, principal domain.Principal) (*PropertyList, error) {
	args := m.Called(ctx, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PropertyList), args.Error(1)
}

func (m *MockService) CreateProperty(ctx context.Context, principal domain.Principal, input CreatePropertyInput) (*domain.Property, error) {
	args := m.Called(ctx, principal, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Property), args.Error(1)
}

func (m *MockService) GetProperty(ctx context.Context, principal domain.Principal, id string) (*PropertyDetail, error) {
	args := m.Called(ctx, principal, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PropertyDetail), args.Error(1)
}

func (m *MockService) UpdateProperty(ctx context.Context, principal domain.Principal, id string, input UpdatePropertyInput) (*domain.Property, error) {
	args := m.Called(ctx, principal, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Property), args.Error(1)
}

func (m *MockService) DeleteProperty(ctx context.Context, principal domain.Principal, id string) error {
	args := m.Called(ctx, principal, id)
	return args.Error(0)
}

func (m *MockService) AddMember(ctx context.Context, principal domain.Principal, propertyID, userID string) (*MemberDTO, error) {
	args := m.Called(ctx, principal, propertyID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MemberDTO), args.Error(1)
}

func (m *MockService) RemoveMember(ctx context.Context, principal domain.Principal, propertyID, userID string) error {
	args := m.Called(ctx, principal, propertyID, userID)
	return args.Error(0)
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler())
	return router
}

func asAdmin(handler gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetPrincipal(c, domain.Principal{ID: "admin-1", Role: domain.RoleAdmin})
		handler(c)
	}
}

func TestListProperties_Handler(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	result := &PropertyList{Properties: []domain.Property{{ID: "prop-1", Name: "Beach House", Slug: "beach-house"}}}
	mockService.On("ListProperties", mock.Anything, mock.Anything).Return(result, nil)

	router.GET("/properties", asAdmin(handler.List))

	req := httptest.NewRequest("GET", "/properties", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.NotNil(t, response["properties"])
	mockService.AssertExpectations(t)
}

func TestCreateProperty_Handler(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	created := &domain.Property{ID: "prop-1", Name: "Beach House", Slug: "beach-house"}
	mockService.On("CreateProperty", mock.Anything, mock.Anything, mock.MatchedBy(func(input CreatePropertyInput) bool {
		return input.Name == "Beach House" && input.Slug == "beach-house"
	})).Return(created, nil)

	router.POST("/properties", asAdmin(handler.Create))

	body, _ := json.Marshal(CreatePropertyRequest{Name: "Beach House", Slug: "beach-house"})
	req := httptest.NewRequest("POST", "/properties", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockService.AssertExpectations(t)
}

func TestCreateProperty_MissingSlug(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	router.POST("/properties", asAdmin(handler.Create))

	req := httptest.NewRequest("POST", "/properties", bytes.NewBufferString(`{"name":"Beach House"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "CreateProperty")
}

func TestCreateProperty_InvalidSiteURL(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	router.POST("/properties", asAdmin(handler.Create))

	req := httptest.NewRequest("POST", "/properties", bytes.NewBufferString(`{"name":"Beach House","slug":"beach-house","site_url":"not a url"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "CreateProperty")
}

func TestShowProperty_WithMembers(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	detail := &PropertyDetail{
		Property: domain.Property{ID: "prop-1", Name: "Beach House"},
		Users:    []MemberDTO{{ID: "user-1", Name: "Jane", Email: "jane@example.com"}},
	}
	mockService.On("GetProperty", mock.Anything, mock.Anything, "prop-1").Return(detail, nil)

	router.GET("/properties/:id", asAdmin(handler.Show))

	req := httptest.NewRequest("GET", "/properties/prop-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.NotNil(t, response["property"])
	assert.NotNil(t, response["users"])
	mockService.AssertExpectations(t)
}

func TestAddMember_Handler_Conflict(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	mockService.On("AddMember", mock.Anything, mock.Anything, "prop-1", "user-1").
		Return(nil, errors.Conflict("User already added!", nil))

	router.POST("/properties/:id/users", asAdmin(handler.AddMember))

	req := httptest.NewRequest("POST", "/properties/prop-1/users", bytes.NewBufferString(`{"user_id":"user-1"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	mockService.AssertExpectations(t)
}

func TestRemoveMember_Handler(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	mockService.On("RemoveMember", mock.Anything, mock.Anything, "prop-1", "user-1").Return(nil)

	router.DELETE("/properties/:id/users/:userId", asAdmin(handler.RemoveMember))

	req := httptest.NewRequest("DELETE", "/properties/prop-1/users/user-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestDeleteProperty_Handler(t *testing.T) {
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()

	mockService.On("DeleteProperty", mock.Anything, mock.Anything, "prop-1").Return(nil)

	router.DELETE("/properties/:id", asAdmin(handler.Delete))

	req := httptest.NewRequest("DELETE", "/properties/prop-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "Property deleted", response["message"])
	mockService.AssertExpectations(t)
}
