package audit

import (
	"context"
	"time"

	id "lectern/pkg/domain"
)

// EventCategory classifies verification events by their primary purpose so
// sinks can route and retain them differently.
type EventCategory string

const (
	// CategoryCompliance covers admin decisions that change what an account
	// may do. These are kept for the life of the account.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers failed or throttled code checks.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine instructor progress.
	CategoryOperations EventCategory = "operations"
)

// Event mirrors one verification history entry onto the event stream.
type Event struct {
	ID           string            `json:"id"`
	Category     EventCategory     `json:"category"`
	RecordID     id.RecordID       `json:"record_id"`
	InstructorID id.UserID         `json:"instructor_id"`
	Step         string            `json:"step,omitempty"`
	Action       string            `json:"action"`
	Status       string            `json:"status"`
	PerformedBy  string            `json:"performed_by"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	RequestID    string            `json:"request_id,omitempty"`
	Timestamp    time.Time         `json:"timestamp"`
}

var actionCategories = map[string]EventCategory{
	"approved":             CategoryCompliance,
	"rejected":             CategoryCompliance,
	"suspended":            CategoryCompliance,
	"more_info_requested":  CategoryCompliance,
	"steps_reset":          CategoryCompliance,
	"certificate_reviewed": CategoryCompliance,

	"code_rejected": CategorySecurity,
	"limits_reset":  CategorySecurity,
}

// CategoryFor returns the category of a history action. Unknown actions are
// operations events.
func CategoryFor(action string) EventCategory {
	if cat, ok := actionCategories[action]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists events for later listing.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByRecord(ctx context.Context, recordID id.RecordID) ([]Event, error)
}

// Sink receives events without being queried, e.g. a message broker.
type Sink interface {
	Append(ctx context.Context, event Event) error
}
