package models

import (
	"time"

	id "lectern/pkg/domain"
)

// Record is the per-instructor verification aggregate.
//
// Invariants:
//   - InstructorID is immutable and unique across records
//   - CompletedSteps entries become true only after the step's data is set on
//     the same record value; they are unset only by ApplyStepReset
//   - Status reaches under_review only through ApplySubmission
//   - History is append-only
//
// Progress is never stored; call Progress.
type Record struct {
	ID               id.RecordID       `json:"id"`
	InstructorID     id.UserID         `json:"instructor_id"`
	Status           Status            `json:"status"`
	CompletedSteps   map[Step]bool     `json:"completed_steps"`
	Email            CodeChannel       `json:"email_verification"`
	Phone            CodeChannel       `json:"phone_verification"`
	PersonalInfo     *PersonalInfo     `json:"personal_info,omitempty"`
	ProfessionalInfo *ProfessionalInfo `json:"professional_info,omitempty"`
	IDDocument       *IDDocument       `json:"id_verification,omitempty"`
	Selfie           *Selfie           `json:"selfie_verification,omitempty"`
	Education        Education         `json:"education_verification"`
	AdminReview      *AdminReview      `json:"admin_review,omitempty"`
	SubmittedAt      *time.Time        `json:"submitted_at,omitempty"`
	ApprovedAt       *time.Time        `json:"approved_at,omitempty"`
	RejectedAt       *time.Time        `json:"rejected_at,omitempty"`
	SuspendedAt      *time.Time        `json:"suspended_at,omitempty"`
	SuspensionReason string            `json:"suspension_reason,omitempty"`
	SuspensionDays   int               `json:"suspension_days,omitempty"`
	SuspendedUntil   *time.Time        `json:"suspended_until,omitempty"`
	History          []HistoryEntry    `json:"verification_history"`
	Version          int64             `json:"version"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// CodeChannel tracks one-time code state for the email or phone channel. The
// code itself is never stored, only its keyed hash.
type CodeChannel struct {
	Destination    string     `json:"destination,omitempty"`
	IsVerified     bool       `json:"is_verified"`
	VerifiedAt     *time.Time `json:"verified_at,omitempty"`
	CodeHash       string     `json:"code_hash,omitempty"`
	CodeExpiresAt  *time.Time `json:"code_expires_at,omitempty"`
	Attempts       int        `json:"attempts"`
	LastCodeSentAt *time.Time `json:"last_code_sent_at,omitempty"`
}

type PersonalInfo struct {
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	MiddleName  string     `json:"middle_name,omitempty"`
	DateOfBirth string     `json:"date_of_birth"`
	Gender      string     `json:"gender,omitempty"`
	Nationality string     `json:"nationality,omitempty"`
	Country     string     `json:"country,omitempty"`
	City        string     `json:"city,omitempty"`
	Address     string     `json:"address,omitempty"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

type ProfessionalInfo struct {
	Headline          string     `json:"headline,omitempty"`
	Bio               string     `json:"bio,omitempty"`
	YearsOfExperience int        `json:"years_of_experience"`
	Expertise         []string   `json:"expertise"`
	Education         []string   `json:"education"`
	Certifications    []string   `json:"certifications"`
	Portfolio         []string   `json:"portfolio"`
	Languages         []string   `json:"languages"`
	SubmittedAt       *time.Time `json:"submitted_at,omitempty"`
}

// Image is a reference to a blob stored in the external blob store.
type Image struct {
	URL        string    `json:"url"`
	PublicID   string    `json:"public_id"`
	MimeType   string    `json:"mime_type,omitempty"`
	Bytes      int64     `json:"bytes,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type DocumentType string

const (
	DocumentNationalID     DocumentType = "national_id"
	DocumentPassport       DocumentType = "passport"
	DocumentDriversLicense DocumentType = "drivers_license"
)

func (d DocumentType) IsValid() bool {
	return d == DocumentNationalID || d == DocumentPassport || d == DocumentDriversLicense
}

type IDDocument struct {
	DocumentType    DocumentType `json:"document_type"`
	Front           *Image       `json:"front_image,omitempty"`
	Back            *Image       `json:"back_image,omitempty"`
	IsVerified      bool         `json:"is_verified"`
	VerifiedBy      *id.UserID   `json:"verified_by,omitempty"`
	VerifiedAt      *time.Time   `json:"verified_at,omitempty"`
	RejectionReason string       `json:"rejection_reason,omitempty"`
	SubmittedAt     time.Time    `json:"submitted_at"`
}

type LivenessCheck struct {
	IsPassed    bool      `json:"is_passed"`
	Confidence  float64   `json:"confidence"`
	ProcessedAt time.Time `json:"processed_at"`
}

type Selfie struct {
	Image           Image         `json:"selfie_image"`
	Liveness        LivenessCheck `json:"liveness_check"`
	IsVerified      bool          `json:"is_verified"`
	VerifiedBy      *id.UserID    `json:"verified_by,omitempty"`
	VerifiedAt      *time.Time    `json:"verified_at,omitempty"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
	SubmittedAt     time.Time     `json:"submitted_at"`
}

type Education struct {
	Certificates          []Certificate `json:"certificates"`
	MinimumRequirementMet bool          `json:"minimum_requirement_met"`
	OverallStatus         OverallStatus `json:"overall_status"`
}

// AdminReview is the snapshot of the most recent admin decision.
type AdminReview struct {
	ReviewedBy        id.UserID       `json:"reviewed_by"`
	ReviewedAt        time.Time       `json:"reviewed_at"`
	Decision          Status          `json:"status"`
	Notes             string          `json:"notes,omitempty"`
	Feedback          string          `json:"feedback,omitempty"`
	StepReasons       map[Step]string `json:"step_reasons,omitempty"`
	RequestedSteps    []Step          `json:"requested_steps,omitempty"`
	AllowResubmission bool            `json:"allow_resubmission"`
}

// NewRecord creates an empty record for an instructor.
func NewRecord(recordID id.RecordID, instructorID id.UserID, now time.Time) *Record {
	steps := make(map[Step]bool, len(RequiredSteps))
	for _, s := range RequiredSteps {
		steps[s] = false
	}
	return &Record{
		ID:             recordID,
		InstructorID:   instructorID,
		Status:         StatusPending,
		CompletedSteps: steps,
		Education:      Education{Certificates: []Certificate{}, OverallStatus: OverallNotStarted},
		History: []HistoryEntry{{
			Action:      ActionInitialized,
			Status:      StatusPending,
			PerformedBy: instructorID,
			Timestamp:   now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Channel returns the code state for ch.
func (r *Record) Channel(ch Channel) *CodeChannel {
	if ch == ChannelPhone {
		return &r.Phone
	}
	return &r.Email
}

// IsStepComplete treats personal info as complete once it has been submitted,
// independent of the stored flag.
func (r *Record) IsStepComplete(step Step) bool {
	if step == StepPersonalInfo && r.PersonalInfo != nil && r.PersonalInfo.SubmittedAt != nil {
		return true
	}
	return r.CompletedSteps[step]
}

// MissingSteps lists required steps not yet complete, in RequiredSteps order.
func (r *Record) MissingSteps() []Step {
	missing := []Step{}
	for _, s := range RequiredSteps {
		if !r.IsStepComplete(s) {
			missing = append(missing, s)
		}
	}
	return missing
}

// Progress is the percentage of required steps complete, rounded down.
func (r *Record) Progress() int {
	done := len(RequiredSteps) - len(r.MissingSteps())
	return done * 100 / len(RequiredSteps)
}

// ProcessingTime is the span from submission to the terminal admin decision.
func (r *Record) ProcessingTime() (time.Duration, bool) {
	if r.SubmittedAt == nil {
		return 0, false
	}
	var decided *time.Time
	switch r.Status {
	case StatusApproved:
		decided = r.ApprovedAt
	case StatusRejected:
		decided = r.RejectedAt
	}
	if decided == nil || decided.Before(*r.SubmittedAt) {
		return 0, false
	}
	return decided.Sub(*r.SubmittedAt), true
}
