package backup

import (
	"context"
	"time"

	"property-outline-cms/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BackupRepository interface {
	ListByProperty(ctx context.Context, propertyID string) ([]domain.PropertyBackup, error)
	FindForProperty(ctx context.Context, propertyID, backupID string) (*domain.PropertyBackup, error)
	CreateFromPublished(ctx context.Context, propertyID, name string, description *string) (*domain.PropertyBackup, error)
	UpdateMeta(ctx context.Context, backup *domain.PropertyBackup) error
	Delete(ctx context.Context, backupID string) error
}

type BackupRepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new backup repository
func NewRepository(db *gorm.DB) BackupRepository {
	return &BackupRepositoryImpl{db: db}
}

func (r *BackupRepositoryImpl) ListByProperty(ctx context.Context, propertyID string) ([]domain.PropertyBackup, error) {
	var backups []domain.PropertyBackup
	err := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("created_at DESC").
		Find(&backups).Error
	return backups, err
}

// FindForProperty scopes the lookup to the owning property, so a backup id
// from another property comes back as not found.
func (r *BackupRepositoryImpl) FindForProperty(ctx context.Context, propertyID, backupID string) (*domain.PropertyBackup, error) {
	var backup domain.PropertyBackup
	err := r.db.WithContext(ctx).
		Where("id = ? AND property_id = ?", backupID, propertyID).
		First(&backup).Error
	if err != nil {
		return nil, err
	}
	return &backup, nil
}

// CreateFromPublished snapshots the current published payload. Reading the
// payload and writing the backup happen in one transaction, so the copy is
// never taken from a version that a concurrent publish already replaced.
func (r *BackupRepositoryImpl) CreateFromPublished(ctx context.Context, propertyID, name string, description *string) (*domain.PropertyBackup, error) {
	var backup *domain.PropertyBackup

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var published domain.PropertyData
		if err := tx.Where("property_id = ? AND is_published = ?", propertyID, true).
			Order("created_at DESC").
			First(&published).Error; err != nil {
			return err
		}

		backup = &domain.PropertyBackup{
			ID:          uuid.NewString(),
			PropertyID:  propertyID,
			BackupName:  name,
			Description: description,
			Data:        published.Data,
			CreatedAt:   time.Now().UTC(),
		}
		return tx.Create(backup).Error
	})
	if err != nil {
		return nil, err
	}

	return backup, nil
}

func (r *BackupRepositoryImpl) UpdateMeta(ctx context.Context, backup *domain.PropertyBackup) error {
	// only name and description are mutable; the payload never changes
	return r.db.WithContext(ctx).Model(backup).
		Select("backup_name", "description").
		Updates(map[string]any{
			"backup_name": backup.BackupName,
			"description": backup.Description,
		}).Error
}

func (r *BackupRepositoryImpl) Delete(ctx context.Context, backupID string) error {
	return r.db.WithContext(ctx).Delete(&domain.PropertyBackup{}, "id = ?", backupID).Error
}
