package lock

import (
	"context"
	"fmt"
	"time"

	"property-outline-cms/internal/domain"
	"property-outline-cms/internal/errors"
)

type Service interface {
	Check(ctx context.Context, principal domain.Principal, propertyID string) (*Status, error)
	Acquire(ctx context.Context, principal domain.Principal, propertyID string) (*domain.EditLock, error)
	Release(ctx context.Context, principal domain.Principal, propertyID string) error
	GuardEdit(ctx context.Context, propertyID, userID string) error
}

// AccessChecker is the property-level capability check (property package).
type AccessChecker interface {
	CanAccess(ctx context.Context, propertyID string, principal domain.Principal) error
}

// UserProvider resolves the holder's display identity for conflict payloads.
type UserProvider interface {
	GetUserByID(id string) (*domain.User, error)
}

// HolderInfo identifies the current lock holder to other editors.
type HolderInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Status is the lock-check response.
type Status struct {
	Locked             bool        `json:"locked"`
	OwnedByCurrentUser bool        `json:"ownedByCurrentUser,omitempty"`
	LockedBy           *HolderInfo `json:"lockedBy,omitempty"`
	ExpiresAt          *time.Time  `json:"expiresAt,omitempty"`
}

type DefaultService struct {
	repository   LockRepository
	access       AccessChecker
	userProvider UserProvider
	now          func() time.Time
}

func NewService(repository LockRepository, access AccessChecker, userProvider UserProvider) *DefaultService {
	return &DefaultService{
		repository:   repository,
		access:       access,
		userProvider: userProvider,
		now:          time.Now,
	}
}

// Check reports the lock state. Finding an expired row deletes it on the
// spot, so checks keep the table clean without a sweeper.
func (s *DefaultService) Check(ctx context.Context, principal domain.Principal, propertyID string) (*Status, error) {
	if err := s.access.CanAccess(ctx, propertyID, principal); err != nil {
		return nil, err
	}

	existing, err := s.repository.Find(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return &Status{Locked: false}, nil
	}

	now := s.now().UTC()
	if domain.IsExpired(now, existing.ExpiresAt) {
		// lazy cleanup
		if err := s.repository.DeleteByID(ctx, existing.ID); err != nil {
			return nil, err
		}
		return &Status{Locked: false}, nil
	}

	if existing.UserID == principal.ID {
		return &Status{
			Locked:             true,
			OwnedByCurrentUser: true,
			ExpiresAt:          &existing.ExpiresAt,
		}, nil
	}

	return &Status{
		Locked:    true,
		LockedBy:  s.holderInfo(existing.UserID),
		ExpiresAt: &existing.ExpiresAt,
	}, nil
}

// Acquire grants a fresh lease or extends the caller's own. A live lock
// held by someone else is a Conflict carrying the holder's identity so
// the client can tell the editor who to wait for.
func (s *DefaultService) Acquire(ctx context.Context, principal domain.Principal, propertyID string) (*domain.EditLock, error) {
	if err := s.access.CanAccess(ctx, propertyID, principal); err != nil {
		return nil, err
	}

	outcome, err := s.repository.Acquire(ctx, propertyID, principal.ID, s.now().UTC())
	if err != nil {
		return nil, err
	}

	if outcome.Decision == DecisionConflict {
		return nil, s.conflictError(&outcome.Lock)
	}

	return &outcome.Lock, nil
}

// Release is a conditional delete scoped to the requester. Releasing a
// lock you don't hold reports "nothing to release" rather than failing
// someone else's session.
func (s *DefaultService) Release(ctx context.Context, principal domain.Principal, propertyID string) error {
	if err := s.access.CanAccess(ctx, propertyID, principal); err != nil {
		return err
	}

	deleted, err := s.repository.Release(ctx, propertyID, principal.ID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return errors.NotFound("No lock to release", nil)
	}
	return nil
}

// GuardEdit blocks content writes while another user holds a live lock.
// It does not require the writer to hold a lock themselves.
func (s *DefaultService) GuardEdit(ctx context.Context, propertyID, userID string) error {
	existing, err := s.repository.Find(ctx, propertyID)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	now := s.now().UTC()
	if domain.IsExpired(now, existing.ExpiresAt) || existing.UserID == userID {
		return nil
	}

	return s.conflictError(existing)
}

func (s *DefaultService) conflictError(existing *domain.EditLock) error {
	holder := s.holderInfo(existing.UserID)
	message := fmt.Sprintf(
		"%s is editing; expires at %s",
		holder.Name,
		existing.ExpiresAt.Format("2006/01/02 15:04:05"),
	)
	return errors.Conflict(message, nil).WithDetails(conflictDetail{
		LockedBy:  holder,
		ExpiresAt: existing.ExpiresAt,
	})
}

type conflictDetail struct {
	LockedBy  *HolderInfo `json:"lockedBy"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

func (s *DefaultService) holderInfo(userID string) *HolderInfo {
	user, err := s.userProvider.GetUserByID(userID)
	if err != nil {
		// holder row may be gone; the lock itself still stands
		return &HolderInfo{Name: "another user"}
	}
	return &HolderInfo{Name: user.Name, Email: user.Email}
}
