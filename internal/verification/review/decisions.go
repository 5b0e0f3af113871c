package review

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	accountmodels "lectern/internal/account/models"
	"lectern/internal/notify"
	"lectern/internal/verification/models"
	id "lectern/pkg/domain"
	"lectern/pkg/requestcontext"
)

// Approve grants instructor status. Only a record under review can be
// approved; needs_more_info must be resubmitted first.
func (s *Service) Approve(ctx context.Context, adminID id.UserID, recordID id.RecordID, req *models.ApproveRequest) (rec *models.Record, err error) {
	ctx, span := s.startSpan(ctx, "Approve", recordID)
	defer func() { endSpan(span, err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	updated, err := s.execute(ctx, recordID, func(r *models.Record) error {
		if err := r.CanApprove(); err != nil {
			return err
		}
		r.ApplyApproval(adminID, req.Notes, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.mirror(ctx, updated, func(a *accountmodels.Account) {
		a.ApplyApproval(updated.ID.String(), now)
	})
	meta := map[string]string{}
	if req.Notes != "" {
		meta["notes"] = req.Notes
	}
	s.appendHistory(ctx, updated, models.NewHistoryEntry("", models.ActionApproved, updated.Status, adminID, meta, now))
	s.notifyInstructor(ctx, updated, notify.DecisionApproved, "", nil)

	s.metrics.IncDecision(string(models.StatusApproved))
	if d, ok := updated.ProcessingTime(); ok {
		s.metrics.ObserveProcessingTime(d)
	}
	s.logAudit(ctx, string(models.ActionApproved),
		"record_id", updated.ID.String(),
		"admin_id", adminID.String(),
	)
	return updated, nil
}

// Reject closes the application with a general reason and optional per-step
// reasons. AllowResubmission is recorded for the instructor but does not
// reopen the record.
func (s *Service) Reject(ctx context.Context, adminID id.UserID, recordID id.RecordID, req *models.RejectRequest) (rec *models.Record, err error) {
	ctx, span := s.startSpan(ctx, "Reject", recordID)
	defer func() { endSpan(span, err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	decision := req.Decision()
	now := requestcontext.Now(ctx)
	updated, err := s.execute(ctx, recordID, func(r *models.Record) error {
		if err := r.CanReject(); err != nil {
			return err
		}
		r.ApplyRejection(adminID, decision, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.mirror(ctx, updated, func(a *accountmodels.Account) {
		a.ApplyRejection(updated.ID.String(), decision.GeneralReason, now)
	})
	meta := map[string]string{
		"reason":             decision.GeneralReason,
		"allow_resubmission": strconv.FormatBool(decision.AllowResubmission),
	}
	for step, reason := range decision.StepReasons {
		meta["step_reason."+string(step)] = reason
	}
	s.appendHistory(ctx, updated, models.NewHistoryEntry("", models.ActionRejected, updated.Status, adminID, meta, now))
	s.notifyInstructor(ctx, updated, notify.DecisionRejected, decision.GeneralReason, stepReasonLines(decision.StepReasons))

	s.metrics.IncDecision(string(models.StatusRejected))
	if d, ok := updated.ProcessingTime(); ok {
		s.metrics.ObserveProcessingTime(d)
	}
	s.logAudit(ctx, string(models.ActionRejected),
		"record_id", updated.ID.String(),
		"admin_id", adminID.String(),
		"step_reasons", len(decision.StepReasons),
	)
	return updated, nil
}

// RequestMoreInfo moves the record to needs_more_info from any status.
func (s *Service) RequestMoreInfo(ctx context.Context, adminID id.UserID, recordID id.RecordID, req *models.MoreInfoRequest) (rec *models.Record, err error) {
	ctx, span := s.startSpan(ctx, "RequestMoreInfo", recordID)
	defer func() { endSpan(span, err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	steps := req.ParsedSteps()
	now := requestcontext.Now(ctx)
	updated, err := s.execute(ctx, recordID, func(r *models.Record) error {
		r.ApplyMoreInfoRequest(adminID, req.Message, steps, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.mirror(ctx, updated, func(a *accountmodels.Account) {
		a.ApplyMoreInfo(updated.ID.String(), req.Message, now)
	})
	meta := map[string]string{"message": req.Message}
	if len(steps) > 0 {
		meta["steps"] = joinSteps(steps)
	}
	s.appendHistory(ctx, updated, models.NewHistoryEntry("", models.ActionMoreInfoRequested, updated.Status, adminID, meta, now))
	s.notifyInstructor(ctx, updated, notify.DecisionMoreInfo, req.Message, stepLines(steps))

	s.metrics.IncDecision(string(models.StatusNeedsMoreInfo))
	s.logAudit(ctx, string(models.ActionMoreInfoRequested),
		"record_id", updated.ID.String(),
		"admin_id", adminID.String(),
	)
	return updated, nil
}

// Suspend suspends the record from any status. Suspending again replaces the
// reason and duration. Days == 0 means until lifted.
func (s *Service) Suspend(ctx context.Context, adminID id.UserID, recordID id.RecordID, req *models.SuspendRequest) (rec *models.Record, err error) {
	ctx, span := s.startSpan(ctx, "Suspend", recordID)
	defer func() { endSpan(span, err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	updated, err := s.execute(ctx, recordID, func(r *models.Record) error {
		if err := r.CanSuspend(); err != nil {
			return err
		}
		r.ApplySuspension(adminID, req.Reason, req.Days, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.mirror(ctx, updated, func(a *accountmodels.Account) {
		a.ApplySuspension(updated.ID.String(), req.Reason, now)
	})
	meta := map[string]string{"reason": req.Reason}
	var details []string
	if req.Days > 0 {
		meta["duration_days"] = strconv.Itoa(req.Days)
		details = append(details, fmt.Sprintf("Suspended until %s", updated.SuspendedUntil.Format("2006-01-02")))
	}
	s.appendHistory(ctx, updated, models.NewHistoryEntry("", models.ActionSuspended, updated.Status, adminID, meta, now))
	s.notifyInstructor(ctx, updated, notify.DecisionSuspended, req.Reason, details)

	s.metrics.IncDecision(string(models.StatusSuspended))
	s.logAudit(ctx, string(models.ActionSuspended),
		"record_id", updated.ID.String(),
		"admin_id", adminID.String(),
		"duration_days", req.Days,
	)
	return updated, nil
}

// ResetSteps unsets completed steps so the instructor must redo them. A record
// under review goes back to needs_more_info.
func (s *Service) ResetSteps(ctx context.Context, adminID id.UserID, recordID id.RecordID, req *models.ResetStepsRequest) (rec *models.Record, err error) {
	ctx, span := s.startSpan(ctx, "ResetSteps", recordID)
	defer func() { endSpan(span, err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	steps := req.ParsedSteps()
	now := requestcontext.Now(ctx)
	updated, err := s.execute(ctx, recordID, func(r *models.Record) error {
		if err := r.CanResetSteps(); err != nil {
			return err
		}
		r.ApplyStepReset(steps, now)
		s.evaluator.Refresh(r)
		return nil
	})
	if err != nil {
		return nil, err
	}

	meta := map[string]string{"steps": joinSteps(steps)}
	if req.Reason != "" {
		meta["reason"] = req.Reason
	}
	s.appendHistory(ctx, updated, models.NewHistoryEntry("", models.ActionStepsReset, updated.Status, adminID, meta, now))
	s.notifyInstructor(ctx, updated, notify.DecisionMoreInfo, req.Reason, stepLines(steps))

	s.logAudit(ctx, string(models.ActionStepsReset),
		"record_id", updated.ID.String(),
		"admin_id", adminID.String(),
		"steps", meta["steps"],
	)
	return updated, nil
}

// ReviewCertificate sets the review status of one certificate. Admins may
// override a certificate in any record status.
func (s *Service) ReviewCertificate(ctx context.Context, adminID id.UserID, recordID id.RecordID, certID id.CertificateID, req *models.CertificateReviewRequest) (rec *models.Record, cert models.Certificate, err error) {
	ctx, span := s.startSpan(ctx, "ReviewCertificate", recordID)
	defer func() { endSpan(span, err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, models.Certificate{}, err
	}
	status := models.CertificateStatus(req.Status)
	now := requestcontext.Now(ctx)
	updated, err := s.execute(ctx, recordID, func(r *models.Record) error {
		c, err := r.ApplyCertificateReview(certID, status, req.Reason, adminID, now)
		if err != nil {
			return err
		}
		cert = c
		s.evaluator.Refresh(r)
		return nil
	})
	if err != nil {
		return nil, models.Certificate{}, err
	}

	meta := map[string]string{
		"certificate_id": certID.String(),
		"status":         string(status),
	}
	if req.Reason != "" {
		meta["reason"] = req.Reason
	}
	s.appendHistory(ctx, updated, models.NewHistoryEntry(models.StepEducationCertificate, models.ActionCertificateReviewed, updated.Status, adminID, meta, now))
	s.logAudit(ctx, string(models.ActionCertificateReviewed),
		"record_id", updated.ID.String(),
		"certificate_id", certID.String(),
		"status", status,
	)
	return updated, cert, nil
}

func joinSteps(steps []models.Step) string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = string(s)
	}
	return strings.Join(names, ",")
}

func stepLines(steps []models.Step) []string {
	lines := make([]string, 0, len(steps))
	for _, s := range steps {
		lines = append(lines, stepLabel(s))
	}
	return lines
}

// stepReasonLines renders per-step reasons in required-step order.
func stepReasonLines(reasons map[models.Step]string) []string {
	var lines []string
	for _, step := range models.RequiredSteps {
		if reason, ok := reasons[step]; ok {
			lines = append(lines, stepLabel(step)+": "+reason)
		}
	}
	return lines
}

var stepLabels = map[models.Step]string{
	models.StepEmail:                "Email verification",
	models.StepPhone:                "Phone verification",
	models.StepPersonalInfo:         "Personal information",
	models.StepIDDocument:           "Identity document",
	models.StepSelfie:               "Selfie",
	models.StepEducationCertificate: "Education certificates",
}

func stepLabel(s models.Step) string {
	if l, ok := stepLabels[s]; ok {
		return l
	}
	return string(s)
}
