package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	accountmodels "lectern/internal/account/models"
	"lectern/internal/verification/models"
	"lectern/internal/verification/ratelimit"
	id "lectern/pkg/domain"
	dErrors "lectern/pkg/domain-errors"
	"lectern/pkg/platform/sentinel"
	"lectern/pkg/requestcontext"
)

// Initialize returns the instructor's record, creating it on first call.
// created reports whether this call created it.
func (s *Service) Initialize(ctx context.Context, instructorID id.UserID) (rec *models.Record, created bool, err error) {
	ctx, span := s.startSpan(ctx, "Initialize", instructorID)
	defer func() { endSpan(span, err) }()

	existing, err := s.records.FindByInstructor(ctx, instructorID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification")
	}

	now := requestcontext.Now(ctx)
	rec = models.NewRecord(id.NewRecordID(), instructorID, now)
	if err := s.records.Create(ctx, rec); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyExists) {
			// Lost a race with a concurrent initialize.
			existing, err := s.load(ctx, instructorID)
			return existing, false, err
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create verification")
	}

	s.publishHistory(ctx, rec, rec.History)
	s.logAudit(ctx, string(models.ActionInitialized),
		"record_id", rec.ID.String(),
		"instructor_id", instructorID.String(),
	)
	return rec, true, nil
}

// GetStatus returns the instructor's record.
func (s *Service) GetStatus(ctx context.Context, instructorID id.UserID) (*models.Record, error) {
	return s.load(ctx, instructorID)
}

// SubmitForReview is the only path into under_review. The admin alert and the
// account mirror run after the record is saved and cannot undo it.
func (s *Service) SubmitForReview(ctx context.Context, instructorID id.UserID) (rec *models.Record, err error) {
	ctx, span := s.startSpan(ctx, "SubmitForReview", instructorID)
	defer func() { endSpan(span, err) }()

	current, err := s.load(ctx, instructorID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	updated, err := s.execute(ctx, current, func(r *models.Record) error {
		if err := r.CanSubmit(); err != nil {
			return err
		}
		if err := s.evaluator.Gate(r.Education.Certificates); err != nil {
			return err
		}
		s.evaluator.Refresh(r)
		r.ApplySubmission(now)
		r.AppendHistory("", models.ActionSubmittedForReview, instructorID, map[string]string{
			"certificates": fmt.Sprint(len(r.Education.Certificates)),
		}, now)
		return nil
	})
	if err != nil {
		s.metrics.IncSubmission(submissionResult(err))
		return nil, err
	}
	s.metrics.IncSubmission("accepted")

	s.mirror(ctx, instructorID, "submission", func(a *accountmodels.Account) {
		a.ApplySubmission(updated.ID.String(), now)
	})
	if s.notifier != nil {
		s.notifier.AlertAdmins(ctx, "New instructor verification submitted", submissionAlert(updated))
	}
	s.logAudit(ctx, string(models.ActionSubmittedForReview),
		"record_id", updated.ID.String(),
		"instructor_id", instructorID.String(),
	)
	return updated, nil
}

func submissionResult(err error) string {
	if de, ok := dErrors.As(err); ok {
		if reason, ok := de.Details["reason"].(string); ok {
			return reason
		}
		return string(de.Code)
	}
	return "error"
}

func submissionAlert(rec *models.Record) string {
	name := ""
	if rec.PersonalInfo != nil {
		name = strings.TrimSpace(rec.PersonalInfo.FirstName + " " + rec.PersonalInfo.LastName)
	}
	lines := []string{
		"Record: " + rec.ID.String(),
		"Instructor: " + rec.InstructorID.String(),
	}
	if name != "" {
		lines = append(lines, "Name: "+name)
	}
	lines = append(lines,
		fmt.Sprintf("Certificates: %d (%s)", len(rec.Education.Certificates), rec.Education.OverallStatus),
	)
	return strings.Join(lines, "\n")
}

// ResetLimits clears code cooldowns and attempt counters. It is refused unless
// limit resets are enabled (never in production).
func (s *Service) ResetLimits(ctx context.Context, instructorID id.UserID) (*models.Record, error) {
	if !s.cfg.AllowLimitReset {
		return nil, dErrors.New(dErrors.CodeForbidden, "limit reset is not available in this environment")
	}
	current, err := s.load(ctx, instructorID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	updated, err := s.execute(ctx, current, func(r *models.Record) error {
		r.ApplyLimitsReset(now)
		r.AppendHistory("", models.ActionLimitsReset, instructorID, nil, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, ch := range []models.Channel{models.ChannelEmail, models.ChannelPhone} {
		if err := s.limiter.Reset(ctx, ratelimit.Key(updated.ID.String(), string(ch))); err != nil {
			s.logger.WarnContext(ctx, "failed to reset cooldown gate",
				"record_id", updated.ID.String(),
				"channel", ch,
				"error", err,
			)
		}
	}
	s.logAudit(ctx, string(models.ActionLimitsReset), "record_id", updated.ID.String())
	return updated, nil
}
