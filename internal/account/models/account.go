// Package models holds the slice of the marketplace account that verification
// mirrors its decisions onto.
package models

import (
	"time"

	id "lectern/pkg/domain"
)

const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

const (
	ApplicationNotStarted  = "not_started"
	ApplicationUnderReview = "under_review"
	ApplicationApproved    = "approved"
	ApplicationRejected    = "rejected"
	ApplicationNeedsInfo   = "needs_more_info"
	ApplicationSuspended   = "suspended"
)

type Account struct {
	ID                id.UserID         `json:"id"`
	Email             string            `json:"email"`
	Phone             string            `json:"phone,omitempty"`
	FirstName         string            `json:"first_name,omitempty"`
	Role              string            `json:"role"`
	InstructorProfile InstructorProfile `json:"instructor_profile"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

type InstructorProfile struct {
	IsApproved        bool                `json:"is_approved"`
	ApplicationStatus string              `json:"application_status"`
	Verification      VerificationSummary `json:"verification"`
}

// VerificationSummary is the denormalized copy of the verification outcome.
type VerificationSummary struct {
	RecordID         string     `json:"record_id,omitempty"`
	Status           string     `json:"status,omitempty"`
	SubmittedAt      *time.Time `json:"submitted_at,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	RejectedAt       *time.Time `json:"rejected_at,omitempty"`
	RejectionReason  string     `json:"rejection_reason,omitempty"`
	InfoRequest      string     `json:"info_request,omitempty"`
	SuspendedAt      *time.Time `json:"suspended_at,omitempty"`
	SuspensionReason string     `json:"suspension_reason,omitempty"`
}

func (a *Account) ApplySubmission(recordID string, now time.Time) {
	a.InstructorProfile.ApplicationStatus = ApplicationUnderReview
	a.InstructorProfile.Verification.RecordID = recordID
	a.InstructorProfile.Verification.Status = ApplicationUnderReview
	a.InstructorProfile.Verification.SubmittedAt = &now
	a.UpdatedAt = now
}

// ApplyApproval grants instructor privileges. Admin accounts keep their role.
func (a *Account) ApplyApproval(recordID string, now time.Time) {
	a.InstructorProfile.IsApproved = true
	a.InstructorProfile.ApplicationStatus = ApplicationApproved
	a.InstructorProfile.Verification.RecordID = recordID
	a.InstructorProfile.Verification.Status = ApplicationApproved
	a.InstructorProfile.Verification.ApprovedAt = &now
	a.InstructorProfile.Verification.RejectionReason = ""
	if a.Role != RoleAdmin {
		a.Role = RoleInstructor
	}
	a.UpdatedAt = now
}

// ApplyRejection records the reason and revokes any earlier approval.
func (a *Account) ApplyRejection(recordID, reason string, now time.Time) {
	a.revokeApproval()
	a.InstructorProfile.ApplicationStatus = ApplicationRejected
	a.InstructorProfile.Verification.RecordID = recordID
	a.InstructorProfile.Verification.Status = ApplicationRejected
	a.InstructorProfile.Verification.RejectedAt = &now
	a.InstructorProfile.Verification.RejectionReason = reason
	a.UpdatedAt = now
}

// ApplyMoreInfo revokes approval until the record is approved again.
func (a *Account) ApplyMoreInfo(recordID, message string, now time.Time) {
	a.revokeApproval()
	a.InstructorProfile.ApplicationStatus = ApplicationNeedsInfo
	a.InstructorProfile.Verification.RecordID = recordID
	a.InstructorProfile.Verification.Status = ApplicationNeedsInfo
	a.InstructorProfile.Verification.InfoRequest = message
	a.UpdatedAt = now
}

// ApplySuspension revokes approval and demotes an instructor to student.
func (a *Account) ApplySuspension(recordID, reason string, now time.Time) {
	a.revokeApproval()
	a.InstructorProfile.ApplicationStatus = ApplicationSuspended
	a.InstructorProfile.Verification.RecordID = recordID
	a.InstructorProfile.Verification.Status = ApplicationSuspended
	a.InstructorProfile.Verification.SuspendedAt = &now
	a.InstructorProfile.Verification.SuspensionReason = reason
	a.UpdatedAt = now
}

func (a *Account) revokeApproval() {
	a.InstructorProfile.IsApproved = false
	if a.Role == RoleInstructor {
		a.Role = RoleStudent
	}
}
