package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Property is one real-estate listing whose outline content goes through
// the draft/publish lifecycle.
type Property struct {
	ID          string `gorm:"primaryKey"`
	Name        string
	Slug        string  `gorm:"uniqueIndex"`
	SiteURL     *string `json:"site_url"`
	Description *string
	// DraftSeq numbers draft snapshots per property. Incremented inside the
	// save-draft transaction, never parsed back out of a version label.
	DraftSeq  uint64 `gorm:"default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PropertyUser associates an editor with a property. Admins bypass it.
type PropertyUser struct {
	ID         string `gorm:"primaryKey"`
	PropertyID string `gorm:"uniqueIndex:idx_property_user"`
	UserID     string `gorm:"uniqueIndex:idx_property_user"`
	CreatedAt  time.Time
}

// History actions
const (
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionPublish = "publish"
	ActionRestore = "restore"
)

// PropertyData is a full content snapshot. At most one row per property
// carries IsPublished = true; that invariant is kept by the publish and
// restore transactions, not by a schema constraint. The newest row of
// each flag is "the" current draft / published version.
type PropertyData struct {
	ID          string `gorm:"primaryKey"`
	PropertyID  string `gorm:"index"`
	Version     string
	Data        datatypes.JSON `gorm:"type:jsonb"`
	IsPublished bool
	CreatedBy   string
	CreatedAt   time.Time
	// UpdatedAt moves when the row changes state, so on a published row it
	// is the moment of promotion rather than draft creation.
	UpdatedAt time.Time
}

// PropertyBackup is an archived copy of a published payload. Payload is
// immutable once written; only name and description can change.
type PropertyBackup struct {
	ID          string `gorm:"primaryKey"`
	PropertyID  string `gorm:"index"`
	BackupName  string
	Description *string
	Data        datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt   time.Time
}

// PropertyHistory is an append-only audit entry. Rows are never updated
// and only removed when the owning property is deleted.
type PropertyHistory struct {
	ID         string `gorm:"primaryKey"`
	PropertyID string `gorm:"index"`
	Action     string
	Summary    string
	DataBefore datatypes.JSON `gorm:"type:jsonb"`
	DataAfter  datatypes.JSON `gorm:"type:jsonb"`
	CreatedBy  string
	CreatedAt  time.Time
}

// EditLock is a time-boxed single-holder lease on a property. Expired
// rows are cleaned up lazily at read time; there is no sweeper.
type EditLock struct {
	ID         string `gorm:"primaryKey"`
	PropertyID string `gorm:"uniqueIndex"`
	UserID     string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PreviewToken exposes a frozen draft payload to unauthenticated viewers.
// Minting a new token deletes the property's older ones, so at most one
// is active per property.
type PreviewToken struct {
	ID         string         `gorm:"primaryKey"`
	PropertyID string         `gorm:"index"`
	Token      string         `gorm:"uniqueIndex"`
	Data       datatypes.JSON `gorm:"type:jsonb"`
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// IsExpired reports whether a lease or token deadline has passed. Applied
// at every read/write entry point instead of a background sweep.
func IsExpired(now, expiresAt time.Time) bool {
	return !expiresAt.After(now)
}
