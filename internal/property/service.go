package property

import (
	"context"
	defError "errors"
	"fmt"
	"time"

	"property-outline-cms/internal/domain"
	"property-outline-cms/internal/errors"
	"property-outline-cms/internal/worker"
	"property-outline-cms/redis"

	"gorm.io/gorm"
)

type Service interface {
	CanAccess(ctx context.Context, propertyID string, principal domain.Principal) error
	ListProperties(ctx context.Context, principal domain.Principal) (*PropertyList, error)
	CreateProperty(ctx context.Context, principal domain.Principal, input CreatePropertyInput) (*domain.Property, error)
	GetProperty(ctx context.Context, principal domain.Principal, id string) (*PropertyDetail, error)
	UpdateProperty(ctx context.Context, principal domain.Principal, id string, input UpdatePropertyInput) (*domain.Property, error)
	DeleteProperty(ctx context.Context, principal domain.Principal, id string) error
	AddMember(ctx context.Context, principal domain.Principal, propertyID, userID string) (*MemberDTO, error)
	RemoveMember(ctx context.Context, principal domain.Principal, propertyID, userID string) error
}

// UserProvider resolves users from the user package without importing it.
type UserProvider interface {
	GetUserByID(id string) (*domain.User, error)
}

type DefaultService struct {
	repository   PropertyRepository
	userProvider UserProvider
	cache        *redis.Cache
	pool         *worker.Pool
}

func NewService(repository PropertyRepository, userProvider UserProvider, cache *redis.Cache, pool *worker.Pool) Service {
	return &DefaultService{
		repository:   repository,
		userProvider: userProvider,
		cache:        cache,
		pool:         pool,
	}
}

// CanAccess is the capability check every property-scoped operation runs:
// the property must exist, and the caller must be an admin or associated
// with the property. Recomputed per request, never cached.
func (s *DefaultService) CanAccess(ctx context.Context, propertyID string, principal domain.Principal) error {
	if _, err := s.repository.FindByID(ctx, propertyID); err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("Property not found", err)
		}
		return err
	}

	if principal.IsAdmin() {
		return nil
	}

	ok, err := s.repository.HasUser(ctx, propertyID, principal.ID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Forbidden("No access to this property", nil)
	}
	return nil
}

type PropertyList struct {
	Properties []domain.Property `json:"properties"`
}

func (s *DefaultService) ListProperties(ctx context.Context, principal domain.Principal) (*PropertyList, error) {
	v := s.cache.GetVersion(ctx, redis.PropertiesVersionKey)
	cacheKey := fmt.Sprintf("properties:u:%s:v:%d", principal.ID, v)

	var result PropertyList
	found, _ := s.cache.Get(ctx, cacheKey, &result)
	if found {
		return &result, nil
	}

	var properties []domain.Property
	var err error
	if principal.IsAdmin() {
		properties, err = s.repository.ListAll(ctx)
	} else {
		properties, err = s.repository.ListByUserID(ctx, principal.ID)
	}
	if err != nil {
		return nil, err
	}

	result = PropertyList{Properties: properties}
	s.pool.Submit(func(ctx context.Context) error {
		s.cache.Set(ctx, cacheKey, result, 24*time.Hour)
		return nil
	})

	return &result, nil
}

type CreatePropertyInput struct {
	Name        string
	Slug        string
	SiteURL     *string
	Description *string
}

func (s *DefaultService) CreateProperty(ctx context.Context, principal domain.Principal, input CreatePropertyInput) (*domain.Property, error) {
	if !principal.IsAdmin() {
		return nil, errors.Forbidden("Admin role required", nil)
	}

	taken, err := s.repository.SlugTaken(ctx, input.Slug, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errors.BadRequest("Slug already in use", nil)
	}

	property := &domain.Property{
		Name:        input.Name,
		Slug:        input.Slug,
		SiteURL:     input.SiteURL,
		Description: input.Description,
	}

	initial := domain.DefaultOutlineData(principal.ID, time.Now().UTC())
	if err := s.repository.Create(ctx, property, principal.ID, initial); err != nil {
		return nil, err
	}

	s.cache.IncrementVersion(ctx, redis.PropertiesVersionKey)
	return property, nil
}

type MemberDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type PropertyDetail struct {
	Property domain.Property `json:"property"`
	Users    []MemberDTO     `json:"users"`
}

func (s *DefaultService) GetProperty(ctx context.Context, principal domain.Principal, id string) (*PropertyDetail, error) {
	if err := s.CanAccess(ctx, id, principal); err != nil {
		return nil, err
	}

	property, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.repository.ListUsers(ctx, id)
	if err != nil {
		return nil, err
	}

	members := make([]MemberDTO, 0, len(rows))
	for _, row := range rows {
		members = append(members, MemberDTO{ID: row.UserID, Name: row.Name, Email: row.Email})
	}

	return &PropertyDetail{Property: *property, Users: members}, nil
}

type UpdatePropertyInput struct {
	Name        *string
	Slug        *string
	SiteURL     *string
	Description *string
}

func (s *DefaultService) UpdateProperty(ctx context.Context, principal domain.Principal, id string, input UpdatePropertyInput) (*domain.Property, error) {
	if !principal.IsAdmin() {
		return nil, errors.Forbidden("Admin role required", nil)
	}

	property, err := s.repository.FindByID(ctx, id)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Property not found", err)
		}
		return nil, err
	}

	if input.Slug != nil && *input.Slug != property.Slug {
		taken, err := s.repository.SlugTaken(ctx, *input.Slug, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, errors.BadRequest("Slug already in use", nil)
		}
		property.Slug = *input.Slug
	}
	if input.Name != nil {
		property.Name = *input.Name
	}
	if input.SiteURL != nil {
		property.SiteURL = input.SiteURL
	}
	if input.Description != nil {
		property.Description = input.Description
	}

	if err := s.repository.Update(ctx, property); err != nil {
		return nil, err
	}

	s.cache.IncrementVersion(ctx, redis.PropertiesVersionKey)
	s.cache.IncrementVersion(ctx, redis.PublicVersionKey(id))
	return property, nil
}

func (s *DefaultService) DeleteProperty(ctx context.Context, principal domain.Principal, id string) error {
	if !principal.IsAdmin() {
		return errors.Forbidden("Admin role required", nil)
	}

	if _, err := s.repository.FindByID(ctx, id); err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("Property not found", err)
		}
		return err
	}

	if err := s.repository.Delete(ctx, id); err != nil {
		return err
	}

	s.cache.IncrementVersion(ctx, redis.PropertiesVersionKey)
	s.cache.IncrementVersion(ctx, redis.PublicVersionKey(id))
	return nil
}

func (s *DefaultService) AddMember(ctx context.Context, principal domain.Principal, propertyID, userID string) (*MemberDTO, error) {
	if !principal.IsAdmin() {
		return nil, errors.Forbidden("Admin role required", nil)
	}

	if _, err := s.repository.FindByID(ctx, propertyID); err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Property not found", err)
		}
		return nil, err
	}

	// Ensure target user exists
	user, err := s.userProvider.GetUserByID(userID)
	if err != nil {
		return nil, errors.UnprocessableEntity("Can't find user!", err)
	}

	exists, err := s.repository.HasUser(ctx, propertyID, userID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.Conflict("User already added!", nil)
	}

	if err := s.repository.AddUser(ctx, propertyID, userID); err != nil {
		return nil, err
	}

	s.cache.IncrementVersion(ctx, redis.PropertiesVersionKey)
	return &MemberDTO{ID: user.ID, Name: user.Name, Email: user.Email}, nil
}

func (s *DefaultService) RemoveMember(ctx context.Context, principal domain.Principal, propertyID, userID string) error {
	if !principal.IsAdmin() {
		return errors.Forbidden("Admin role required", nil)
	}

	deleted, err := s.repository.RemoveUser(ctx, propertyID, userID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return errors.NotFound("User is not associated with this property", nil)
	}

	s.cache.IncrementVersion(ctx, redis.PropertiesVersionKey)
	return nil
}
