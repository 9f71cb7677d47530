package preview

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	defError "errors"
	"fmt"
	"time"

	"property-outline-cms/internal/domain"
	"property-outline-cms/internal/errors"
	"property-outline-cms/internal/worker"
	"property-outline-cms/redis"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TokenTTL is how long a minted preview link stays usable.
const TokenTTL = 24 * time.Hour

type Service interface {
	Mint(ctx context.Context, principal domain.Principal, propertyID string) (*MintResult, error)
	Resolve(ctx context.Context, slug, token string) (*PreviewResult, error)
	Public(ctx context.Context, slug string) (*PublicResult, error)
}

// AccessChecker is the property-level capability check (property package).
type AccessChecker interface {
	CanAccess(ctx context.Context, propertyID string, principal domain.Principal) error
}

// PropertyProvider resolves properties (property package repository).
type PropertyProvider interface {
	FindByID(ctx context.Context, id string) (*domain.Property, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Property, error)
}

// ContentProvider resolves snapshots (content package repository).
type ContentProvider interface {
	LatestData(ctx context.Context, propertyID string, published bool) (*domain.PropertyData, error)
}

type MintResult struct {
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expiresAt"`
	PreviewURL string    `json:"previewUrl"`
}

type PublicProperty struct {
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	SiteURL     *string `json:"siteUrl"`
	Description *string `json:"description"`
}

type PreviewResult struct {
	Property  PublicProperty  `json:"property"`
	Data      json.RawMessage `json:"data"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

type PublicResult struct {
	Property  PublicProperty  `json:"property"`
	Data      json.RawMessage `json:"data"`
	Version   string          `json:"version"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type DefaultService struct {
	repository PreviewRepository
	access     AccessChecker
	properties PropertyProvider
	contents   ContentProvider
	cache      *redis.Cache
	pool       *worker.Pool
	baseURL    string
}

func NewService(
	repository PreviewRepository,
	access AccessChecker,
	properties PropertyProvider,
	contents ContentProvider,
	cache *redis.Cache,
	pool *worker.Pool,
	baseURL string,
) Service {
	return &DefaultService{
		repository: repository,
		access:     access,
		properties: properties,
		contents:   contents,
		cache:      cache,
		pool:       pool,
		baseURL:    baseURL,
	}
}

// Mint issues a fresh preview token for the current draft and invalidates
// the property's previous token.
func (s *DefaultService) Mint(ctx context.Context, principal domain.Principal, propertyID string) (*MintResult, error) {
	if err := s.access.CanAccess(ctx, propertyID, principal); err != nil {
		return nil, err
	}

	property, err := s.properties.FindByID(ctx, propertyID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Property not found", err)
		}
		return nil, err
	}

	draft, err := s.contents.LatestData(ctx, propertyID, false)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("No draft to preview", err)
		}
		return nil, err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	tokenValue := hex.EncodeToString(raw)

	now := time.Now().UTC()
	token := &domain.PreviewToken{
		ID:         uuid.NewString(),
		PropertyID: propertyID,
		Token:      tokenValue,
		Data:       draft.Data,
		ExpiresAt:  now.Add(TokenTTL),
		CreatedAt:  now,
	}
	if err := s.repository.Replace(ctx, token); err != nil {
		return nil, err
	}

	// sweep dead tokens off the table while we're here
	s.pool.Submit(func(ctx context.Context) error {
		_, err := s.repository.PurgeExpired(ctx, time.Now().UTC())
		return err
	})

	return &MintResult{
		Token:      tokenValue,
		ExpiresAt:  token.ExpiresAt,
		PreviewURL: fmt.Sprintf("%s/preview/%s?token=%s", s.baseURL, property.Slug, tokenValue),
	}, nil
}

// Resolve serves the frozen draft payload to an unauthenticated viewer.
// Unknown and expired tokens are indistinguishable to the caller.
func (s *DefaultService) Resolve(ctx context.Context, slug, token string) (*PreviewResult, error) {
	stored, property, err := s.repository.FindActiveBySlug(ctx, slug, token, time.Now().UTC())
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Preview not found", err)
		}
		return nil, err
	}

	return &PreviewResult{
		Property: PublicProperty{
			Name:        property.Name,
			Slug:        property.Slug,
			SiteURL:     property.SiteURL,
			Description: property.Description,
		},
		Data:      json.RawMessage(stored.Data),
		ExpiresAt: stored.ExpiresAt,
	}, nil
}

// Public returns the published payload for external consumers, cached
// behind a per-property version key bumped on every publish and restore.
func (s *DefaultService) Public(ctx context.Context, slug string) (*PublicResult, error) {
	property, err := s.properties.FindBySlug(ctx, slug)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Property not found", err)
		}
		return nil, err
	}

	v := s.cache.GetVersion(ctx, redis.PublicVersionKey(property.ID))
	cacheKey := fmt.Sprintf("public:%s:v:%d", property.ID, v)

	var result PublicResult
	found, _ := s.cache.Get(ctx, cacheKey, &result)
	if found {
		return &result, nil
	}

	published, err := s.contents.LatestData(ctx, property.ID, true)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("No published data found", err)
		}
		return nil, err
	}

	result = PublicResult{
		Property: PublicProperty{
			Name:        property.Name,
			Slug:        property.Slug,
			SiteURL:     property.SiteURL,
			Description: property.Description,
		},
		Data:      json.RawMessage(published.Data),
		Version:   published.Version,
		UpdatedAt: published.UpdatedAt,
	}

	s.pool.Submit(func(ctx context.Context) error {
		s.cache.Set(ctx, cacheKey, result, time.Hour)
		return nil
	})

	return &result, nil
}
