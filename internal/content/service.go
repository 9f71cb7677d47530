package content

import (
	"context"
	defError "errors"

	"property-outline-cms/internal/domain"
	"property-outline-cms/internal/errors"
	"property-outline-cms/redis"

	"gorm.io/gorm"
)

type Service interface {
	GetData(ctx context.Context, principal domain.Principal, propertyID string, published bool) (*domain.PropertyData, error)
	SaveDraft(ctx context.Context, principal domain.Principal, propertyID string, payload domain.OutlineData) (*domain.PropertyData, error)
	Publish(ctx context.Context, principal domain.Principal, propertyID string) (*domain.PropertyData, error)
	RestoreBackup(ctx context.Context, principal domain.Principal, propertyID, backupID string) (*domain.PropertyData, error)
	ListHistory(ctx context.Context, principal domain.Principal, propertyID string, page, pageSize int) ([]domain.PropertyHistory, HistoryMeta, error)
}

// AccessChecker is the property-level capability check (property package).
type AccessChecker interface {
	CanAccess(ctx context.Context, propertyID string, principal domain.Principal) error
}

// LockGuard rejects content writes while another user holds a live edit
// lock (lock package).
type LockGuard interface {
	GuardEdit(ctx context.Context, propertyID, userID string) error
}

// BackupProvider resolves a backup scoped to its property (backup package).
type BackupProvider interface {
	FindForProperty(ctx context.Context, propertyID, backupID string) (*domain.PropertyBackup, error)
}

type DefaultService struct {
	repository ContentRepository
	access     AccessChecker
	lockGuard  LockGuard
	backups    BackupProvider
	cache      *redis.Cache
}

func NewService(
	repository ContentRepository,
	access AccessChecker,
	lockGuard LockGuard,
	backups BackupProvider,
	cache *redis.Cache,
) Service {
	return &DefaultService{
		repository: repository,
		access:     access,
		lockGuard:  lockGuard,
		backups:    backups,
		cache:      cache,
	}
}

func (s *DefaultService) GetData(ctx context.Context, principal domain.Principal, propertyID string, published bool) (*domain.PropertyData, error) {
	if err := s.access.CanAccess(ctx, propertyID, principal); err != nil {
		return nil, err
	}

	data, err := s.repository.LatestData(ctx, propertyID, published)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Data not found", err)
		}
		return nil, err
	}
	return data, nil
}

// SaveDraft appends a new draft snapshot. A live lock held by someone
// else blocks the write; holding a lock yourself is not required.
func (s *DefaultService) SaveDraft(ctx context.Context, principal domain.Principal, propertyID string, payload domain.OutlineData) (*domain.PropertyData, error) {
	if err := s.access.CanAccess(ctx, propertyID, principal); err != nil {
		return nil, err
	}

	if err := s.lockGuard.GuardEdit(ctx, propertyID, principal.ID); err != nil {
		return nil, err
	}

	draft, err := s.repository.SaveDraft(ctx, propertyID, principal.ID, payload)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Property not found", err)
		}
		return nil, err
	}
	return draft, nil
}

func (s *DefaultService) Publish(ctx context.Context, principal domain.Principal, propertyID string) (*domain.PropertyData, error) {
	if err := s.access.CanAccess(ctx, propertyID, principal); err != nil {
		return nil, err
	}

	promoted, err := s.repository.Publish(ctx, propertyID, principal.ID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("No draft to publish", err)
		}
		return nil, err
	}

	// public consumers see the new version on their next fetch
	s.cache.IncrementVersion(ctx, redis.PublicVersionKey(propertyID))
	return promoted, nil
}

func (s *DefaultService) RestoreBackup(ctx context.Context, principal domain.Principal, propertyID, backupID string) (*domain.PropertyData, error) {
	if err := s.access.CanAccess(ctx, propertyID, principal); err != nil {
		return nil, err
	}

	backup, err := s.backups.FindForProperty(ctx, propertyID, backupID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Backup not found", err)
		}
		return nil, err
	}

	restored, err := s.repository.Restore(ctx, propertyID, principal.ID, backup)
	if err != nil {
		return nil, err
	}

	s.cache.IncrementVersion(ctx, redis.PublicVersionKey(propertyID))
	return restored, nil
}

func (s *DefaultService) ListHistory(ctx context.Context, principal domain.Principal, propertyID string, page, pageSize int) ([]domain.PropertyHistory, HistoryMeta, error) {
	if err := s.access.CanAccess(ctx, propertyID, principal); err != nil {
		return nil, HistoryMeta{}, err
	}

	return s.repository.ListHistory(ctx, propertyID, page, pageSize)
}
