package property

import (
	"context"
	"encoding/json"
	"time"

	"property-outline-cms/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PropertyRepository interface {
	Create(ctx context.Context, property *domain.Property, creatorID string, initial domain.OutlineData) error
	ListAll(ctx context.Context) ([]domain.Property, error)
	ListByUserID(ctx context.Context, userID string) ([]domain.Property, error)
	FindByID(ctx context.Context, id string) (*domain.Property, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Property, error)
	SlugTaken(ctx context.Context, slug string, excludeID string) (bool, error)
	Update(ctx context.Context, property *domain.Property) error
	Delete(ctx context.Context, id string) error
	HasUser(ctx context.Context, propertyID, userID string) (bool, error)
	ListUsers(ctx context.Context, propertyID string) ([]MemberRow, error)
	AddUser(ctx context.Context, propertyID, userID string) error
	RemoveUser(ctx context.Context, propertyID, userID string) (int64, error)
}

// MemberRow is a joined property membership row.
type MemberRow struct {
	UserID string
	Name   string
	Email  string
}

type PropertyRepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new property repository
func NewRepository(db *gorm.DB) PropertyRepository {
	return &PropertyRepositoryImpl{db: db}
}

// Create inserts the property together with its initial draft snapshot and
// a create history entry, in one transaction.
func (r *PropertyRepositoryImpl) Create(ctx context.Context, property *domain.Property, creatorID string, initial domain.OutlineData) error {
	payload, err := json.Marshal(initial)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	property.ID = uuid.NewString()
	property.CreatedAt = now
	property.UpdatedAt = now

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(property).Error; err != nil {
			return err
		}

		if err := tx.Create(&domain.PropertyData{
			ID:          uuid.NewString(),
			PropertyID:  property.ID,
			Version:     initial.Version,
			Data:        payload,
			IsPublished: false,
			CreatedBy:   creatorID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}).Error; err != nil {
			return err
		}

		return tx.Create(&domain.PropertyHistory{
			ID:         uuid.NewString(),
			PropertyID: property.ID,
			Action:     domain.ActionCreate,
			Summary:    "Property created",
			DataAfter:  payload,
			CreatedBy:  creatorID,
			CreatedAt:  now,
		}).Error
	})
}

func (r *PropertyRepositoryImpl) ListAll(ctx context.Context) ([]domain.Property, error) {
	var properties []domain.Property
	err := r.db.WithContext(ctx).Order("updated_at DESC").Find(&properties).Error
	return properties, err
}

func (r *PropertyRepositoryImpl) ListByUserID(ctx context.Context, userID string) ([]domain.Property, error) {
	var properties []domain.Property
	err := r.db.WithContext(ctx).
		Joins("JOIN property_users ON property_users.property_id = properties.id").
		Where("property_users.user_id = ?", userID).
		Order("properties.updated_at DESC").
		Find(&properties).Error
	return properties, err
}

func (r *PropertyRepositoryImpl) FindByID(ctx context.Context, id string) (*domain.Property, error) {
	var property domain.Property
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&property).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

func (r *PropertyRepositoryImpl) FindBySlug(ctx context.Context, slug string) (*domain.Property, error) {
	var property domain.Property
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&property).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

func (r *PropertyRepositoryImpl) SlugTaken(ctx context.Context, slug string, excludeID string) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.Property{}).Where("slug = ?", slug)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *PropertyRepositoryImpl) Update(ctx context.Context, property *domain.Property) error {
	property.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Save(property).Error
}

// Delete fans out over every dependent table explicitly instead of relying
// on a store-level cascade, so the guarantee holds on any storage engine.
func (r *PropertyRepositoryImpl) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{
			&domain.PropertyData{},
			&domain.PropertyBackup{},
			&domain.PropertyHistory{},
			&domain.EditLock{},
			&domain.PreviewToken{},
			&domain.PropertyUser{},
		} {
			if err := tx.Where("property_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", id).Delete(&domain.Property{}).Error
	})
}

func (r *PropertyRepositoryImpl) HasUser(ctx context.Context, propertyID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.PropertyUser{}).
		Where("property_id = ? AND user_id = ?", propertyID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *PropertyRepositoryImpl) ListUsers(ctx context.Context, propertyID string) ([]MemberRow, error) {
	var rows []MemberRow
	err := r.db.WithContext(ctx).Model(&domain.PropertyUser{}).
		Select("property_users.user_id, users.name, users.email").
		Joins("JOIN users ON users.id = property_users.user_id").
		Where("property_users.property_id = ?", propertyID).
		Scan(&rows).Error
	return rows, err
}

func (r *PropertyRepositoryImpl) AddUser(ctx context.Context, propertyID, userID string) error {
	return r.db.WithContext(ctx).Create(&domain.PropertyUser{
		ID:         uuid.NewString(),
		PropertyID: propertyID,
		UserID:     userID,
		CreatedAt:  time.Now().UTC(),
	}).Error
}

func (r *PropertyRepositoryImpl) RemoveUser(ctx context.Context, propertyID, userID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("property_id = ? AND user_id = ?", propertyID, userID).
		Delete(&domain.PropertyUser{})
	return result.RowsAffected, result.Error
}
