package lock

import (
	"time"

	"property-outline-cms/internal/domain"
)

// LeaseDuration is how long an acquired lock stays valid without renewal.
// Clients renew well under this (the reference cadence is 5 minutes).
const LeaseDuration = 10 * time.Minute

type Decision int

const (
	// DecisionGrant: no usable lock exists, the requester gets a fresh one.
	DecisionGrant Decision = iota
	// DecisionRenew: the requester already holds the lock, extend it.
	DecisionRenew
	// DecisionConflict: a live lock belongs to someone else.
	DecisionConflict
)

// Evaluate is the lock state machine. An expired row counts as absent;
// its cleanup is the caller's job.
func Evaluate(existing *domain.EditLock, userID string, now time.Time) Decision {
	if existing == nil || domain.IsExpired(now, existing.ExpiresAt) {
		return DecisionGrant
	}
	if existing.UserID == userID {
		return DecisionRenew
	}
	return DecisionConflict
}
