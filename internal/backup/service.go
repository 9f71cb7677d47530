package backup

import (
	"context"
	defError "errors"
	"time"

	"property-outline-cms/internal/domain"
	"property-outline-cms/internal/errors"

	"gorm.io/gorm"
)

type Service interface {
	List(ctx context.Context, principal domain.Principal, propertyID string) ([]domain.PropertyBackup, error)
	Create(ctx context.Context, principal domain.Principal, propertyID, reason string) (*domain.PropertyBackup, error)
	Update(ctx context.Context, principal domain.Principal, propertyID, backupID string, name, description *string) (*domain.PropertyBackup, error)
	Delete(ctx context.Context, principal domain.Principal, propertyID, backupID string) error
}

// AccessChecker is the property-level capability check (property package).
type AccessChecker interface {
	CanAccess(ctx context.Context, propertyID string, principal domain.Principal) error
}

type DefaultService struct {
	repository BackupRepository
	access     AccessChecker
}

func NewService(repository BackupRepository, access AccessChecker) Service {
	return &DefaultService{repository: repository, access: access}
}

func (s *DefaultService) List(ctx context.Context, principal domain.Principal, propertyID string) ([]domain.PropertyBackup, error) {
	if err := s.access.CanAccess(ctx, propertyID, principal); err != nil {
		return nil, err
	}

	return s.repository.ListByProperty(ctx, propertyID)
}

// Create takes a manual snapshot of whatever is currently published. The
// free-text reason becomes both name and description; a timestamped label
// is used when none is given.
func (s *DefaultService) Create(ctx context.Context, principal domain.Principal, propertyID, reason string) (*domain.PropertyBackup, error) {
	if err := s.access.CanAccess(ctx, propertyID, principal); err != nil {
		return nil, err
	}

	name := reason
	if name == "" {
		name = "Manual backup " + time.Now().Format("2006/01/02 15:04:05")
	}
	description := reason
	if description == "" {
		description = "Manual backup"
	}

	backup, err := s.repository.CreateFromPublished(ctx, propertyID, name, &description)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("No published version to back up", err)
		}
		return nil, err
	}
	return backup, nil
}

func (s *DefaultService) Update(ctx context.Context, principal domain.Principal, propertyID, backupID string, name, description *string) (*domain.PropertyBackup, error) {
	if err := s.access.CanAccess(ctx, propertyID, principal); err != nil {
		return nil, err
	}

	backup, err := s.repository.FindForProperty(ctx, propertyID, backupID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Backup not found", err)
		}
		return nil, err
	}

	if name != nil && *name != "" {
		backup.BackupName = *name
	}
	if description != nil {
		backup.Description = description
	}

	if err := s.repository.UpdateMeta(ctx, backup); err != nil {
		return nil, err
	}
	return backup, nil
}

func (s *DefaultService) Delete(ctx context.Context, principal domain.Principal, propertyID, backupID string) error {
	if err := s.access.CanAccess(ctx, propertyID, principal); err != nil {
		return err
	}

	if _, err := s.repository.FindForProperty(ctx, propertyID, backupID); err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("Backup not found", err)
		}
		return err
	}

	return s.repository.Delete(ctx, backupID)
}
