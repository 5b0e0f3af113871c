package models

import (
	"strings"

	dErrors "lectern/pkg/domain-errors"
)

// Status is the lifecycle state of a verification record.
type Status string

const (
	StatusPending       Status = "pending"
	StatusInProgress    Status = "in_progress"
	StatusUnderReview   Status = "under_review"
	StatusApproved      Status = "approved"
	StatusRejected      Status = "rejected"
	StatusSuspended     Status = "suspended"
	StatusNeedsMoreInfo Status = "needs_more_info"
)

// AllStatuses lists every status in lifecycle order. Stats histograms report
// them in this order.
var AllStatuses = []Status{
	StatusPending,
	StatusInProgress,
	StatusUnderReview,
	StatusApproved,
	StatusRejected,
	StatusSuspended,
	StatusNeedsMoreInfo,
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusUnderReview, StatusApproved,
		StatusRejected, StatusSuspended, StatusNeedsMoreInfo:
		return true
	}
	return false
}

// AllowsStepMutation reports whether instructor step processors may change the
// record in this status.
func (s Status) AllowsStepMutation() bool {
	return s == StatusPending || s == StatusInProgress || s == StatusNeedsMoreInfo
}

// ParseStatus parses a status filter value.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.TrimSpace(strings.ToLower(raw)))
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown verification status: "+raw)
	}
	return s, nil
}

// Step is one independently completable unit of the verification flow.
type Step string

const (
	StepEmail                Step = "email"
	StepPhone                Step = "phone"
	StepPersonalInfo         Step = "personal_info"
	StepIDDocument           Step = "id_document"
	StepSelfie               Step = "selfie"
	StepEducationCertificate Step = "education_certificate"
)

// RequiredSteps must all be complete before a record can be submitted.
var RequiredSteps = []Step{
	StepEmail,
	StepPhone,
	StepPersonalInfo,
	StepIDDocument,
	StepSelfie,
	StepEducationCertificate,
}

func (s Step) IsValid() bool {
	for _, r := range RequiredSteps {
		if r == s {
			return true
		}
	}
	return false
}

// ParseStep parses a step name supplied by an admin (reset, step reasons).
func ParseStep(raw string) (Step, error) {
	s := Step(strings.TrimSpace(raw))
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown verification step: "+raw)
	}
	return s, nil
}

// Channel is a one-time code delivery channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPhone Channel = "phone"
)

func (c Channel) Step() Step {
	if c == ChannelPhone {
		return StepPhone
	}
	return StepEmail
}

func (c Channel) IsValid() bool {
	return c == ChannelEmail || c == ChannelPhone
}
