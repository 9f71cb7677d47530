package lock

import (
	"context"
	defError "errors"
	"time"

	"property-outline-cms/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LockRepository interface {
	Find(ctx context.Context, propertyID string) (*domain.EditLock, error)
	DeleteByID(ctx context.Context, id string) error
	Acquire(ctx context.Context, propertyID, userID string, now time.Time) (*AcquireOutcome, error)
	Release(ctx context.Context, propertyID, userID string) (int64, error)
}

// AcquireOutcome reports what the acquire transaction decided. On a grant
// or renewal Lock is the requester's lease; on a conflict it is the other
// holder's.
type AcquireOutcome struct {
	Decision Decision
	Lock     domain.EditLock
}

type LockRepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new lock repository
func NewRepository(db *gorm.DB) LockRepository {
	return &LockRepositoryImpl{db: db}
}

// Find returns the stored lock row or nil when none exists. Expiry is not
// applied here; callers run the row through Evaluate.
func (r *LockRepositoryImpl) Find(ctx context.Context, propertyID string) (*domain.EditLock, error) {
	var lock domain.EditLock
	err := r.db.WithContext(ctx).Where("property_id = ?", propertyID).First(&lock).Error
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lock, nil
}

func (r *LockRepositoryImpl) DeleteByID(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.EditLock{}, "id = ?", id).Error
}

// Acquire grants, renews or rejects in one transaction. The existing row
// is read FOR UPDATE so two racing acquirers serialize on it and exactly
// one of them wins.
func (r *LockRepositoryImpl) Acquire(ctx context.Context, propertyID, userID string, now time.Time) (*AcquireOutcome, error) {
	var outcome AcquireOutcome
	expiresAt := now.Add(LeaseDuration)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.EditLock
		var current *domain.EditLock

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("property_id = ?", propertyID).
			First(&existing).Error
		switch {
		case err == nil:
			current = &existing
		case defError.Is(err, gorm.ErrRecordNotFound):
			current = nil
		default:
			return err
		}

		outcome.Decision = Evaluate(current, userID, now)
		switch outcome.Decision {
		case DecisionConflict:
			outcome.Lock = existing
			return nil

		case DecisionRenew:
			existing.ExpiresAt = expiresAt
			existing.UpdatedAt = now
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			outcome.Lock = existing
			return nil

		default: // DecisionGrant
			if current != nil {
				// expired leftover, clear it before creating the new lease
				if err := tx.Delete(&domain.EditLock{}, "id = ?", existing.ID).Error; err != nil {
					return err
				}
			}
			fresh := domain.EditLock{
				ID:         uuid.NewString(),
				PropertyID: propertyID,
				UserID:     userID,
				ExpiresAt:  expiresAt,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := tx.Create(&fresh).Error; err != nil {
				return err
			}
			outcome.Lock = fresh
			return nil
		}
	})
	if err != nil {
		return nil, err
	}

	return &outcome, nil
}

// Release deletes the lock only when the requester owns it. Returns the
// number of rows removed; zero means there was nothing to release.
func (r *LockRepositoryImpl) Release(ctx context.Context, propertyID, userID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("property_id = ? AND user_id = ?", propertyID, userID).
		Delete(&domain.EditLock{})
	return result.RowsAffected, result.Error
}
