package content

import (
	"context"
	"encoding/json"
	"time"

	"property-outline-cms/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContentRepository interface {
	LatestData(ctx context.Context, propertyID string, published bool) (*domain.PropertyData, error)
	SaveDraft(ctx context.Context, propertyID, userID string, payload domain.OutlineData) (*domain.PropertyData, error)
	Publish(ctx context.Context, propertyID, userID string) (*domain.PropertyData, error)
	Restore(ctx context.Context, propertyID, userID string, backup *domain.PropertyBackup) (*domain.PropertyData, error)
	ListHistory(ctx context.Context, propertyID string, page, pageSize int) ([]domain.PropertyHistory, HistoryMeta, error)
}

type HistoryMeta struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	TotalPage   int   `json:"total_page"`
}

type ContentRepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new content repository
func NewRepository(db *gorm.DB) ContentRepository {
	return &ContentRepositoryImpl{db: db}
}

// LatestData returns the newest snapshot with the given published flag.
func (r *ContentRepositoryImpl) LatestData(ctx context.Context, propertyID string, published bool) (*domain.PropertyData, error) {
	var data domain.PropertyData
	err := r.db.WithContext(ctx).
		Where("property_id = ? AND is_published = ?", propertyID, published).
		Order("created_at DESC").
		First(&data).Error
	if err != nil {
		return nil, err
	}
	return &data, nil
}

// SaveDraft appends a new draft snapshot. The draft number comes from the
// property's own counter, claimed atomically inside the transaction, so
// concurrent saves never produce the same label.
func (r *ContentRepositoryImpl) SaveDraft(ctx context.Context, propertyID, userID string, payload domain.OutlineData) (*domain.PropertyData, error) {
	var draft *domain.PropertyData

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		// 1. claim the next draft number on the property row
		var seq uint64
		if err := tx.Raw(`
			UPDATE properties
			SET draft_seq = draft_seq + 1,
			    updated_at = ?
			WHERE id = ?
			RETURNING draft_seq
		`, now, propertyID).Scan(&seq).Error; err != nil {
			return err
		}
		if seq == 0 {
			return gorm.ErrRecordNotFound
		}

		label := draftLabel(seq)
		payload.Version = label
		payload.LastUpdated = now.Format(time.RFC3339)
		payload.UpdatedBy = userID

		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}

		// 2. insert the draft snapshot
		draft = &domain.PropertyData{
			ID:          uuid.NewString(),
			PropertyID:  propertyID,
			Version:     label,
			Data:        raw,
			IsPublished: false,
			CreatedBy:   userID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Create(draft).Error; err != nil {
			return err
		}

		// 3. audit entry
		return tx.Create(&domain.PropertyHistory{
			ID:         uuid.NewString(),
			PropertyID: propertyID,
			Action:     domain.ActionUpdate,
			Summary:    "Draft saved",
			DataAfter:  raw,
			CreatedBy:  userID,
			CreatedAt:  now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return draft, nil
}

// Publish promotes the newest draft to the published version. The outgoing
// published payload is archived as a backup inside the same transaction,
// so a backup can never exist without the matching state change.
func (r *ContentRepositoryImpl) Publish(ctx context.Context, propertyID, userID string) (*domain.PropertyData, error) {
	var promoted *domain.PropertyData

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		// 1. the newest draft is the publish target
		var draft domain.PropertyData
		if err := tx.Where("property_id = ? AND is_published = ?", propertyID, false).
			Order("created_at DESC").
			First(&draft).Error; err != nil {
			return err
		}

		// 2. archive and demote the current published version, if any
		var published domain.PropertyData
		var before []byte
		err := tx.Where("property_id = ? AND is_published = ?", propertyID, true).
			Order("created_at DESC").
			First(&published).Error
		switch {
		case err == nil:
			before = published.Data
			description := "Superseded by a new publish"
			if err := tx.Create(&domain.PropertyBackup{
				ID:          uuid.NewString(),
				PropertyID:  propertyID,
				BackupName:  "Pre-publish backup " + now.Format("2006/01/02 15:04:05"),
				Description: &description,
				Data:        published.Data,
				CreatedAt:   now,
			}).Error; err != nil {
				return err
			}
			if err := tx.Model(&domain.PropertyData{}).
				Where("id = ?", published.ID).
				Updates(map[string]any{"is_published": false, "updated_at": now}).Error; err != nil {
				return err
			}
		case err == gorm.ErrRecordNotFound:
			// first publish, nothing to archive
		default:
			return err
		}

		// 3. promote the draft
		label := publishLabel(now)
		if err := tx.Model(&domain.PropertyData{}).
			Where("id = ?", draft.ID).
			Updates(map[string]any{"is_published": true, "version": label, "updated_at": now}).Error; err != nil {
			return err
		}
		draft.IsPublished = true
		draft.Version = label
		draft.UpdatedAt = now
		promoted = &draft

		// 4. audit entry with before/after payloads
		if err := tx.Create(&domain.PropertyHistory{
			ID:         uuid.NewString(),
			PropertyID: propertyID,
			Action:     domain.ActionPublish,
			Summary:    "Content published",
			DataBefore: before,
			DataAfter:  draft.Data,
			CreatedBy:  userID,
			CreatedAt:  now,
		}).Error; err != nil {
			return err
		}

		// 5. bump the property
		return tx.Model(&domain.Property{}).
			Where("id = ?", propertyID).
			Update("updated_at", now).Error
	})
	if err != nil {
		return nil, err
	}

	return promoted, nil
}

// Restore replaces the current draft with a fresh one built from the
// backup payload. The published version is never touched; the restored
// content has to be published explicitly afterwards.
func (r *ContentRepositoryImpl) Restore(ctx context.Context, propertyID, userID string, backup *domain.PropertyBackup) (*domain.PropertyData, error) {
	var restored *domain.PropertyData

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		// 1. drop the current draft so restore yields exactly one draft
		var draft domain.PropertyData
		err := tx.Where("property_id = ? AND is_published = ?", propertyID, false).
			Order("created_at DESC").
			First(&draft).Error
		if err == nil {
			if err := tx.Delete(&domain.PropertyData{}, "id = ?", draft.ID).Error; err != nil {
				return err
			}
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		// 2. new draft from the backup payload
		restored = &domain.PropertyData{
			ID:          uuid.NewString(),
			PropertyID:  propertyID,
			Version:     restoreLabel(now),
			Data:        backup.Data,
			IsPublished: false,
			CreatedBy:   userID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Create(restored).Error; err != nil {
			return err
		}

		// 3. audit entry, before = what is currently published
		var before []byte
		var published domain.PropertyData
		err = tx.Where("property_id = ? AND is_published = ?", propertyID, true).
			Order("created_at DESC").
			First(&published).Error
		if err == nil {
			before = published.Data
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		if err := tx.Create(&domain.PropertyHistory{
			ID:         uuid.NewString(),
			PropertyID: propertyID,
			Action:     domain.ActionRestore,
			Summary:    "Restored from backup (" + backup.BackupName + ") as a draft",
			DataBefore: before,
			DataAfter:  backup.Data,
			CreatedBy:  userID,
			CreatedAt:  now,
		}).Error; err != nil {
			return err
		}

		// 4. bump the property
		return tx.Model(&domain.Property{}).
			Where("id = ?", propertyID).
			Update("updated_at", now).Error
	})
	if err != nil {
		return nil, err
	}

	return restored, nil
}

func (r *ContentRepositoryImpl) ListHistory(ctx context.Context, propertyID string, page, pageSize int) ([]domain.PropertyHistory, HistoryMeta, error) {
	var entries []domain.PropertyHistory
	var totalRecords int64

	// Count total records
	if err := r.db.WithContext(ctx).Model(&domain.PropertyHistory{}).
		Where("property_id = ?", propertyID).
		Count(&totalRecords).Error; err != nil {
		return entries, HistoryMeta{}, err
	}

	offset := (page - 1) * pageSize
	err := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&entries).Error

	totalPages := int((totalRecords + int64(pageSize) - 1) / int64(pageSize))

	return entries, HistoryMeta{
		Total:       totalRecords,
		PerPage:     pageSize,
		TotalPage:   totalPages,
		CurrentPage: page,
	}, err
}
