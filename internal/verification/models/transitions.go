package models

import (
	"crypto/subtle"
	"fmt"
	"time"

	id "lectern/pkg/domain"
	dErrors "lectern/pkg/domain-errors"
)

// touch records an instructor mutation. The first one moves a pending record
// into progress.
func (r *Record) touch(now time.Time) {
	if r.Status == StatusPending {
		r.Status = StatusInProgress
	}
	r.UpdatedAt = now
}

// CanMutateSteps rejects step changes once the record is under review or
// decided.
func (r *Record) CanMutateSteps() error {
	if !r.Status.AllowsStepMutation() {
		return dErrors.New(dErrors.CodeInvalidState,
			fmt.Sprintf("verification steps cannot be changed while %s", r.Status))
	}
	return nil
}

// =============================================================================
// One-time codes
// =============================================================================

// CodeOutcome is the result of checking a submitted one-time code.
type CodeOutcome int

const (
	CodeAccepted CodeOutcome = iota
	CodeMissing
	CodeExpired
	CodeLocked
	CodeMismatch
)

// CooldownRemaining returns how long until another code may be sent on ch.
func (r *Record) CooldownRemaining(ch Channel, now time.Time, cooldown time.Duration) time.Duration {
	last := r.Channel(ch).LastCodeSentAt
	if last == nil {
		return 0
	}
	if remaining := last.Add(cooldown).Sub(now); remaining > 0 {
		return remaining
	}
	return 0
}

func (r *Record) CanIssueCode(ch Channel) error {
	if err := r.CanMutateSteps(); err != nil {
		return err
	}
	if r.Channel(ch).IsVerified {
		return dErrors.New(dErrors.CodeConflict, fmt.Sprintf("%s already verified", ch))
	}
	return nil
}

// ApplyCodeIssued stores a fresh code hash, replacing any pending code and
// resetting the attempt counter.
func (r *Record) ApplyCodeIssued(ch Channel, destination, codeHash string, now time.Time, ttl time.Duration) {
	c := r.Channel(ch)
	c.Destination = destination
	c.CodeHash = codeHash
	expires := now.Add(ttl)
	c.CodeExpiresAt = &expires
	c.Attempts = 0
	sent := now
	c.LastCodeSentAt = &sent
	r.touch(now)
}

// ApplyCodeAttempt checks codeHash against the pending code. A mismatch
// increments the attempt counter and must be persisted. Acceptance is
// one-shot: the code is cleared so a concurrent second attempt sees
// CodeMissing.
func (r *Record) ApplyCodeAttempt(ch Channel, codeHash string, now time.Time, maxAttempts int) CodeOutcome {
	c := r.Channel(ch)
	if c.CodeHash == "" || c.CodeExpiresAt == nil {
		return CodeMissing
	}
	if !now.Before(*c.CodeExpiresAt) {
		return CodeExpired
	}
	if c.Attempts >= maxAttempts {
		return CodeLocked
	}
	if subtle.ConstantTimeCompare([]byte(c.CodeHash), []byte(codeHash)) != 1 {
		c.Attempts++
		r.UpdatedAt = now
		return CodeMismatch
	}

	verified := now
	c.IsVerified = true
	c.VerifiedAt = &verified
	c.CodeHash = ""
	c.CodeExpiresAt = nil
	c.Attempts = 0
	r.CompletedSteps[ch.Step()] = true
	r.touch(now)
	return CodeAccepted
}

// ApplyLimitsReset clears cooldown stamps and attempt counters on both
// channels. Pending codes stay valid.
func (r *Record) ApplyLimitsReset(now time.Time) {
	for _, ch := range []Channel{ChannelEmail, ChannelPhone} {
		c := r.Channel(ch)
		c.LastCodeSentAt = nil
		c.Attempts = 0
	}
	r.UpdatedAt = now
}

// =============================================================================
// Step processors
// =============================================================================

func (r *Record) ApplyPersonalInfo(info PersonalInfo, now time.Time) {
	submitted := now
	info.SubmittedAt = &submitted
	r.PersonalInfo = &info
	r.CompletedSteps[StepPersonalInfo] = true
	r.touch(now)
}

// ApplyIDDocument replaces the ID document and returns the previous one so
// its blobs can be released.
func (r *Record) ApplyIDDocument(docType DocumentType, front, back *Image, now time.Time) *IDDocument {
	prev := r.IDDocument
	r.IDDocument = &IDDocument{
		DocumentType: docType,
		Front:        front,
		Back:         back,
		IsVerified:   true,
		SubmittedAt:  now,
	}
	r.CompletedSteps[StepIDDocument] = true
	r.touch(now)
	return prev
}

// ApplySelfie replaces the selfie and returns the previous one.
func (r *Record) ApplySelfie(img Image, liveness LivenessCheck, now time.Time) *Selfie {
	prev := r.Selfie
	r.Selfie = &Selfie{
		Image:       img,
		Liveness:    liveness,
		SubmittedAt: now,
	}
	r.CompletedSteps[StepSelfie] = true
	r.touch(now)
	return prev
}

// ApplyProfessionalInfo overwrites professional info. It is optional and sets
// no completion flag.
func (r *Record) ApplyProfessionalInfo(info ProfessionalInfo, now time.Time) {
	submitted := now
	info.SubmittedAt = &submitted
	r.ProfessionalInfo = &info
	r.touch(now)
}

// =============================================================================
// Submission
// =============================================================================

// CanSubmit checks status and step completion. Education requirements are
// evaluated by the caller's policy.
func (r *Record) CanSubmit() error {
	switch r.Status {
	case StatusPending, StatusInProgress, StatusNeedsMoreInfo:
	case StatusUnderReview:
		return dErrors.New(dErrors.CodeConflict, "verification is already under review")
	case StatusApproved:
		return dErrors.New(dErrors.CodeConflict, "verification is already approved")
	default:
		return dErrors.New(dErrors.CodeInvalidState,
			fmt.Sprintf("verification cannot be submitted while %s", r.Status))
	}
	if missing := r.MissingSteps(); len(missing) > 0 {
		return dErrors.New(dErrors.CodeInvalidState, "verification steps are incomplete").
			WithDetail("reason", "incomplete_steps").
			WithDetail("missing_steps", missing)
	}
	return nil
}

func (r *Record) ApplySubmission(now time.Time) {
	submitted := now
	r.Status = StatusUnderReview
	r.SubmittedAt = &submitted
	r.UpdatedAt = now
}

// =============================================================================
// Admin decisions
// =============================================================================

// RejectionDecision is the structured rejection payload supplied by an admin.
type RejectionDecision struct {
	GeneralReason     string
	StepReasons       map[Step]string
	AllowResubmission bool
	Notes             string
}

func (r *Record) CanApprove() error {
	switch r.Status {
	case StatusUnderReview:
		return nil
	case StatusApproved:
		return dErrors.New(dErrors.CodeConflict, "verification is already approved")
	default:
		return dErrors.New(dErrors.CodeInvalidState,
			fmt.Sprintf("verification cannot be approved while %s", r.Status))
	}
}

// ApplyApproval marks the record approved and stamps the ID and selfie
// sub-verifications with the reviewer.
func (r *Record) ApplyApproval(adminID id.UserID, notes string, now time.Time) {
	approved := now
	reviewer := adminID
	r.Status = StatusApproved
	r.ApprovedAt = &approved
	if r.IDDocument != nil {
		r.IDDocument.IsVerified = true
		r.IDDocument.VerifiedBy = &reviewer
		r.IDDocument.VerifiedAt = &approved
		r.IDDocument.RejectionReason = ""
	}
	if r.Selfie != nil {
		r.Selfie.IsVerified = true
		r.Selfie.VerifiedBy = &reviewer
		r.Selfie.VerifiedAt = &approved
		r.Selfie.RejectionReason = ""
	}
	r.AdminReview = &AdminReview{
		ReviewedBy: adminID,
		ReviewedAt: now,
		Decision:   StatusApproved,
		Notes:      notes,
	}
	r.UpdatedAt = now
}

func (r *Record) CanReject() error {
	switch r.Status {
	case StatusUnderReview:
		return nil
	case StatusRejected:
		return dErrors.New(dErrors.CodeConflict, "verification is already rejected")
	default:
		return dErrors.New(dErrors.CodeInvalidState,
			fmt.Sprintf("verification cannot be rejected while %s", r.Status))
	}
}

// ApplyRejection marks the record rejected and annotates the ID and selfie
// sub-verifications from the explicit per-step reasons.
func (r *Record) ApplyRejection(adminID id.UserID, d RejectionDecision, now time.Time) {
	rejected := now
	r.Status = StatusRejected
	r.RejectedAt = &rejected
	if reason, ok := d.StepReasons[StepIDDocument]; ok && r.IDDocument != nil {
		r.IDDocument.IsVerified = false
		r.IDDocument.RejectionReason = reason
	}
	if reason, ok := d.StepReasons[StepSelfie]; ok && r.Selfie != nil {
		r.Selfie.IsVerified = false
		r.Selfie.RejectionReason = reason
	}
	r.AdminReview = &AdminReview{
		ReviewedBy:        adminID,
		ReviewedAt:        now,
		Decision:          StatusRejected,
		Notes:             d.Notes,
		Feedback:          d.GeneralReason,
		StepReasons:       d.StepReasons,
		AllowResubmission: d.AllowResubmission,
	}
	r.UpdatedAt = now
}

// ApplyMoreInfoRequest moves the record to needs_more_info from any status.
// Completed steps are left untouched.
func (r *Record) ApplyMoreInfoRequest(adminID id.UserID, message string, steps []Step, now time.Time) {
	r.Status = StatusNeedsMoreInfo
	r.AdminReview = &AdminReview{
		ReviewedBy:     adminID,
		ReviewedAt:     now,
		Decision:       StatusNeedsMoreInfo,
		Feedback:       message,
		RequestedSteps: steps,
	}
	r.UpdatedAt = now
}

// CanSuspend allows every status. Suspending a suspended record replaces its
// reason and duration.
func (r *Record) CanSuspend() error {
	return nil
}

// ApplySuspension suspends the record. days == 0 means indefinitely.
func (r *Record) ApplySuspension(adminID id.UserID, reason string, days int, now time.Time) {
	suspended := now
	r.Status = StatusSuspended
	r.SuspendedAt = &suspended
	r.SuspensionReason = reason
	r.SuspensionDays = days
	r.SuspendedUntil = nil
	if days > 0 {
		until := now.Add(time.Duration(days) * 24 * time.Hour)
		r.SuspendedUntil = &until
	}
	r.AdminReview = &AdminReview{
		ReviewedBy: adminID,
		ReviewedAt: now,
		Decision:   StatusSuspended,
		Feedback:   reason,
	}
	r.UpdatedAt = now
}

func (r *Record) CanResetSteps() error {
	switch r.Status {
	case StatusApproved, StatusRejected, StatusSuspended:
		return dErrors.New(dErrors.CodeInvalidState,
			fmt.Sprintf("steps cannot be reset while %s", r.Status))
	}
	return nil
}

// ApplyStepReset unsets the given steps so the instructor must redo them. A
// record under review goes back to needs_more_info.
func (r *Record) ApplyStepReset(steps []Step, now time.Time) {
	for _, s := range steps {
		r.CompletedSteps[s] = false
		switch s {
		case StepEmail, StepPhone:
			c := r.Channel(Channel(s))
			c.IsVerified = false
			c.VerifiedAt = nil
			c.CodeHash = ""
			c.CodeExpiresAt = nil
			c.Attempts = 0
		case StepPersonalInfo:
			if r.PersonalInfo != nil {
				r.PersonalInfo.SubmittedAt = nil
			}
		case StepIDDocument:
			if r.IDDocument != nil {
				r.IDDocument.IsVerified = false
			}
		case StepSelfie:
			if r.Selfie != nil {
				r.Selfie.IsVerified = false
			}
		}
	}
	if r.Status == StatusUnderReview {
		r.Status = StatusNeedsMoreInfo
	}
	r.UpdatedAt = now
}
