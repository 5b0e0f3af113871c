// Package store persists verification records as versioned documents.
//
// Both implementations give Execute the same contract: mutate runs against the
// latest persisted record and its result is written only if no other writer
// committed in between. A mutate error aborts without writing.
package store

import (
	"time"

	"lectern/internal/verification/models"
)

// ListFilter selects records for the admin list.
type ListFilter struct {
	Statuses []models.Status
	// Search matches a prefix of the instructor or record ID.
	Search string
	Offset int
	Limit  int
}

// maxExecuteRetries bounds optimistic retries before ErrVersionConflict is
// surfaced.
const maxExecuteRetries = 8

func decidedAt(r *models.Record) *time.Time {
	switch r.Status {
	case models.StatusApproved:
		return r.ApprovedAt
	case models.StatusRejected:
		return r.RejectedAt
	}
	return nil
}
