package property

import (
	"context"
	"net/http"
	"testing"

	"property-outline-cms/internal/domain"
	"property-outline-cms/internal/errors"
	"property-outline-cms/internal/worker"
	"property-outline-cms/redis"

	"github.com/alicebob/miniredis/v2"
	redisLib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, property *domain.Property, creatorID string, initial domain.OutlineData) error {
	args := m.Called(ctx, property, creatorID, initial)
	return args.Error(0)
}

func (m *MockRepository) ListAll(ctx context.Context) ([]domain.Property, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Property), args.Error(1)
}

func (m *MockRepository) ListByUserID(ctx context.Context, userID string) ([]domain.Property, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Property), args.Error(1)
}

func (m *MockRepository) FindByID(ctx context.Context, id string) (*domain.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Property), args.Error(1)
}

func (m *MockRepository) FindBySlug(ctx context.Context, slug string) (*domain.Property, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Property), args.Error(1)
}

func (m *MockRepository) SlugTaken(ctx context.Context, slug string, excludeID string) (bool, error) {
	args := m.Called(ctx, slug, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, property *domain.Property) error {
	args := m.Called(ctx, property)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) HasUser(ctx context.Context, propertyID, userID string) (bool, error) {
	args := m.Called(ctx, propertyID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) ListUsers(ctx context.Context, propertyID string) ([]MemberRow, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return []MemberRow{}, args.Error(1)
	}
	return args.Get(0).([]MemberRow), args.Error(1)
}

func (m *MockRepository) AddUser(ctx context.Context, propertyID, userID string) error {
	args := m.Called(ctx, propertyID, userID)
	return args.Error(0)
}

func (m *MockRepository) RemoveUser(ctx context.Context, propertyID, userID string) (int64, error) {
	args := m.Called(ctx, propertyID, userID)
	return args.Get(0).(int64), args.Error(1)
}

type MockUserProvider struct {
	mock.Mock
}

func (m *MockUserProvider) GetUserByID(id string) (*domain.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func newTestService(t *testing.T, repo *MockRepository, users *MockUserProvider) Service {
	mr := miniredis.RunT(t)
	cache := redis.NewCacheWithClient(redisLib.NewClient(&redisLib.Options{Addr: mr.Addr()}))

	pool := worker.NewPool(1)
	t.Cleanup(pool.Shutdown)

	return NewService(repo, users, cache, pool)
}

func TestCanAccess_AdminBypassesMembership(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(t, repo, new(MockUserProvider))

	repo.On("FindByID", mock.Anything, "prop-1").Return(&domain.Property{ID: "prop-1"}, nil)

	err := service.CanAccess(context.Background(), "prop-1", domain.Principal{ID: "admin-1", Role: domain.RoleAdmin})

	assert.NoError(t, err)
	repo.AssertNotCalled(t, "HasUser")
}

func TestCanAccess_MemberAllowed(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(t, repo, new(MockUserProvider))

	repo.On("FindByID", mock.Anything, "prop-1").Return(&domain.Property{ID: "prop-1"}, nil)
	repo.On("HasUser", mock.Anything, "prop-1", "user-1").Return(true, nil)

	err := service.CanAccess(context.Background(), "prop-1", domain.Principal{ID: "user-1", Role: domain.RoleEditor})

	assert.NoError(t, err)
}

func TestCanAccess_OutsiderForbidden(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(t, repo, new(MockUserProvider))

	repo.On("FindByID", mock.Anything, "prop-1").Return(&domain.Property{ID: "prop-1"}, nil)
	repo.On("HasUser", mock.Anything, "prop-1", "user-2").Return(false, nil)

	err := service.CanAccess(context.Background(), "prop-1", domain.Principal{ID: "user-2", Role: domain.RoleEditor})

	var apiErr *errors.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
}

func TestCanAccess_MissingProperty(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(t, repo, new(MockUserProvider))

	repo.On("FindByID", mock.Anything, "prop-9").Return(nil, gorm.ErrRecordNotFound)

	err := service.CanAccess(context.Background(), "prop-9", domain.Principal{ID: "admin-1", Role: domain.RoleAdmin})

	var apiErr *errors.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestListProperties_ScopedByRole(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(t, repo, new(MockUserProvider))

	all := []domain.Property{{ID: "prop-1"}, {ID: "prop-2"}}
	mine := []domain.Property{{ID: "prop-1"}}
	repo.On("ListAll", mock.Anything).Return(all, nil)
	repo.On("ListByUserID", mock.Anything, "user-1").Return(mine, nil)

	asAdmin, err := service.ListProperties(context.Background(), domain.Principal{ID: "admin-1", Role: domain.RoleAdmin})
	assert.NoError(t, err)
	assert.Len(t, asAdmin.Properties, 2)

	asEditor, err := service.ListProperties(context.Background(), domain.Principal{ID: "user-1", Role: domain.RoleEditor})
	assert.NoError(t, err)
	assert.Len(t, asEditor.Properties, 1)
}

func TestCreateProperty_DuplicateSlug(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(t, repo, new(MockUserProvider))

	repo.On("SlugTaken", mock.Anything, "beach-house", "").Return(true, nil)

	_, err := service.CreateProperty(context.Background(), domain.Principal{ID: "admin-1", Role: domain.RoleAdmin}, CreatePropertyInput{
		Name: "Beach House",
		Slug: "beach-house",
	})

	var apiErr *errors.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Slug already in use", apiErr.Message)
}

func TestCreateProperty_EditorForbidden(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(t, repo, new(MockUserProvider))

	_, err := service.CreateProperty(context.Background(), domain.Principal{ID: "user-1", Role: domain.RoleEditor}, CreatePropertyInput{
		Name: "Beach House",
		Slug: "beach-house",
	})

	var apiErr *errors.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	repo.AssertNotCalled(t, "Create")
}

func TestAddMember_AlreadyAdded(t *testing.T) {
	repo := new(MockRepository)
	users := new(MockUserProvider)
	service := newTestService(t, repo, users)

	repo.On("FindByID", mock.Anything, "prop-1").Return(&domain.Property{ID: "prop-1"}, nil)
	users.On("GetUserByID", "user-1").Return(&domain.User{ID: "user-1", Name: "Jane"}, nil)
	repo.On("HasUser", mock.Anything, "prop-1", "user-1").Return(true, nil)

	_, err := service.AddMember(context.Background(), domain.Principal{ID: "admin-1", Role: domain.RoleAdmin}, "prop-1", "user-1")

	var apiErr *errors.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
}

func TestRemoveMember_NotAssociated(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(t, repo, new(MockUserProvider))

	repo.On("RemoveUser", mock.Anything, "prop-1", "user-9").Return(int64(0), nil)

	err := service.RemoveMember(context.Background(), domain.Principal{ID: "admin-1", Role: domain.RoleAdmin}, "prop-1", "user-9")

	var apiErr *errors.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}
