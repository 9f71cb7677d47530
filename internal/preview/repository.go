package preview

import (
	"context"
	"time"

	"property-outline-cms/internal/domain"

	"gorm.io/gorm"
)

type PreviewRepository interface {
	Replace(ctx context.Context, token *domain.PreviewToken) error
	FindActiveBySlug(ctx context.Context, slug, token string, now time.Time) (*domain.PreviewToken, *domain.Property, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type PreviewRepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new preview token repository
func NewRepository(db *gorm.DB) PreviewRepository {
	return &PreviewRepositoryImpl{db: db}
}

// Replace removes every token the property has and stores the new one,
// keeping the single-active-token policy inside one transaction.
func (r *PreviewRepositoryImpl) Replace(ctx context.Context, token *domain.PreviewToken) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("property_id = ?", token.PropertyID).
			Delete(&domain.PreviewToken{}).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	})
}

// FindActiveBySlug resolves a token joined to its property. An expired
// token and an unknown one both come back as record-not-found, so callers
// can't tell the cases apart.
func (r *PreviewRepositoryImpl) FindActiveBySlug(ctx context.Context, slug, token string, now time.Time) (*domain.PreviewToken, *domain.Property, error) {
	var property domain.Property
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&property).Error; err != nil {
		return nil, nil, err
	}

	var stored domain.PreviewToken
	err := r.db.WithContext(ctx).
		Where("token = ? AND property_id = ? AND expires_at > ?", token, property.ID, now).
		First(&stored).Error
	if err != nil {
		return nil, nil, err
	}

	return &stored, &property, nil
}

// PurgeExpired drops dead tokens across all properties. Triggered
// opportunistically after a mint, never by a timer.
func (r *PreviewRepositoryImpl) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&domain.PreviewToken{})
	return result.RowsAffected, result.Error
}
