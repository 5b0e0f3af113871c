package models

import (
	"time"

	id "lectern/pkg/domain"
)

// Action names a history entry.
type Action string

const (
	ActionInitialized             Action = "initialized"
	ActionCodeSent                Action = "code_sent"
	ActionCodeVerified            Action = "code_verified"
	ActionCodeRejected            Action = "code_rejected"
	ActionPersonalInfoSubmitted   Action = "personal_info_submitted"
	ActionIDDocumentsUploaded     Action = "id_documents_uploaded"
	ActionSelfieUploaded          Action = "selfie_uploaded"
	ActionProfessionalInfoUpdated Action = "professional_info_updated"
	ActionCertificateAdded        Action = "certificate_added"
	ActionCertificateUpdated      Action = "certificate_updated"
	ActionCertificateRemoved      Action = "certificate_removed"
	ActionCertificateReviewed     Action = "certificate_reviewed"
	ActionSubmittedForReview      Action = "submitted_for_review"
	ActionApproved                Action = "approved"
	ActionRejected                Action = "rejected"
	ActionMoreInfoRequested       Action = "more_info_requested"
	ActionSuspended               Action = "suspended"
	ActionStepsReset              Action = "steps_reset"
	ActionLimitsReset             Action = "limits_reset"
)

// HistoryEntry is one immutable audit record.
type HistoryEntry struct {
	Step        Step              `json:"step,omitempty"`
	Action      Action            `json:"action"`
	Status      Status            `json:"status"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	PerformedBy id.UserID         `json:"performed_by"`
	Timestamp   time.Time         `json:"timestamp"`
}

// NewHistoryEntry builds an entry without attaching it to a record. Admin
// transitions persist the record first and append the entry afterwards.
func NewHistoryEntry(step Step, action Action, status Status, by id.UserID, metadata map[string]string, now time.Time) HistoryEntry {
	return HistoryEntry{
		Step:        step,
		Action:      action,
		Status:      status,
		Metadata:    metadata,
		PerformedBy: by,
		Timestamp:   now,
	}
}

// AppendHistory adds an entry stamped with the record's current status.
func (r *Record) AppendHistory(step Step, action Action, by id.UserID, metadata map[string]string, now time.Time) HistoryEntry {
	entry := NewHistoryEntry(step, action, r.Status, by, metadata, now)
	r.History = append(r.History, entry)
	return entry
}
