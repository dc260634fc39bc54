// Package domain provides shared types for list operations across
// catalog and document repositories.
package domain

import (
	"time"

	"stockyard/internal/core/id"
)

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Search performs substring search on number and comment
	Search string

	// IDs filters by specific IDs
	IDs []id.ID

	// Status filters documents by lifecycle status
	Status string

	// WarehouseID scopes the list to one warehouse
	WarehouseID *id.ID

	DateFrom *time.Time
	DateTo   *time.Time

	// OrderBy specifies sorting (e.g., "date", "-created_at")
	OrderBy string

	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "-date",
	}
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}
