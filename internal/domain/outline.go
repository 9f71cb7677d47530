package domain

import (
	"time"

	"github.com/google/uuid"
)

// OutlineData is the structured content payload stored in every snapshot.
// Binding tags double as the save-draft request schema.
type OutlineData struct {
	Version     string           `json:"version" binding:"required"`
	LastUpdated string           `json:"lastUpdated" binding:"required"`
	UpdatedBy   string           `json:"updatedBy" binding:"required"`
	Sections    []OutlineSection `json:"sections" binding:"required,dive"`
}

type OutlineSection struct {
	ID    string        `json:"id" binding:"required"`
	Type  string        `json:"type" binding:"required,oneof=fixed variable"`
	Title string        `json:"title" binding:"required"`
	Order int           `json:"order"`
	Items []OutlineItem `json:"items" binding:"dive"`
}

type OutlineItem struct {
	ID    string `json:"id" binding:"required"`
	Label string `json:"label" binding:"required"`
	Value string `json:"value"`
	Order int    `json:"order"`
}

// DefaultOutlineData builds the seed payload for a freshly created property.
func DefaultOutlineData(userID string, now time.Time) OutlineData {
	return OutlineData{
		Version:     "1.0",
		LastUpdated: now.UTC().Format(time.RFC3339),
		UpdatedBy:   userID,
		Sections: []OutlineSection{
			{
				ID:    uuid.NewString(),
				Type:  "variable",
				Title: "Overview",
				Order: 1,
				Items: []OutlineItem{
					{ID: uuid.NewString(), Label: "Name", Value: "", Order: 1},
				},
			},
			{
				ID:    uuid.NewString(),
				Type:  "variable",
				Title: "Last updated",
				Order: 999,
				Items: []OutlineItem{
					{ID: uuid.NewString(), Label: "Date", Value: now.Format("2006/01/02"), Order: 1},
				},
			},
		},
	}
}
