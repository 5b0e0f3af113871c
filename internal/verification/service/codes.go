package service

import (
	"context"
	"strconv"
	"time"

	"lectern/internal/notify"
	"lectern/internal/verification/models"
	"lectern/internal/verification/ratelimit"
	id "lectern/pkg/domain"
	dErrors "lectern/pkg/domain-errors"
	"lectern/pkg/email"
	"lectern/pkg/requestcontext"
)

// CodeDispatch describes an issued code. Code is set only when codes are
// exposed (development).
type CodeDispatch struct {
	Channel           models.Channel
	Destination       string
	ExpiresAt         time.Time
	ResendAvailableAt time.Time
	Code              string
}

// SendEmailCode issues a code to address, or to the account email when
// address is empty.
func (s *Service) SendEmailCode(ctx context.Context, instructorID id.UserID, address string) (*CodeDispatch, error) {
	acc := s.account(ctx, instructorID)
	if address == "" && acc != nil {
		address = acc.Email
	}
	if address == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email is required").WithDetail("field", "email")
	}
	firstName := ""
	if acc != nil {
		firstName = acc.FirstName
	}
	return s.sendCode(ctx, instructorID, models.ChannelEmail, address, func(ctx context.Context, code string) {
		s.notifier.SendEmail(ctx, notify.CodeEmail(address, firstName, code, s.cfg.CodeTTL))
	})
}

func (s *Service) SendPhoneCode(ctx context.Context, instructorID id.UserID, phone string) (*CodeDispatch, error) {
	if phone == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "phone is required").WithDetail("field", "phone")
	}
	return s.sendCode(ctx, instructorID, models.ChannelPhone, phone, func(ctx context.Context, code string) {
		s.notifier.SendSMS(ctx, phone, notify.CodeSMS(code, s.cfg.CodeTTL))
	})
}

// sendCode consults the limiter, then stores the code hash atomically. The
// cooldown is checked again inside the update so two racing sends on one
// instance cannot both pass. If the update fails the limiter slot is
// released.
func (s *Service) sendCode(ctx context.Context, instructorID id.UserID, ch models.Channel, destination string, deliver func(context.Context, string)) (dispatch *CodeDispatch, err error) {
	ctx, span := s.startSpan(ctx, "SendCode", instructorID)
	defer func() { endSpan(span, err) }()

	current, err := s.load(ctx, instructorID)
	if err != nil {
		return nil, err
	}
	if err := current.CanIssueCode(ch); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	key := ratelimit.Key(current.ID.String(), string(ch))
	decision, err := s.limiter.Allow(ctx, key, current.Channel(ch).LastCodeSentAt, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check resend cooldown")
	}
	if !decision.Allowed {
		s.metrics.IncThrottled(string(ch))
		return nil, dErrors.RateLimited("please wait before requesting another code", decision.RetryAfter)
	}

	plain, err := s.generator.Generate()
	if err != nil {
		s.releaseLimiter(ctx, key)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate code")
	}
	hash := s.hasher.Hash(current.ID.String(), plain)

	updated, err := s.execute(ctx, current, func(r *models.Record) error {
		if err := r.CanIssueCode(ch); err != nil {
			return err
		}
		if remaining := r.CooldownRemaining(ch, now, s.cfg.ResendCooldown); remaining > 0 {
			return dErrors.RateLimited("please wait before requesting another code", remaining)
		}
		r.ApplyCodeIssued(ch, destination, hash, now, s.cfg.CodeTTL)
		r.AppendHistory(ch.Step(), models.ActionCodeSent, instructorID, map[string]string{
			"channel":     string(ch),
			"destination": maskDestination(ch, destination),
		}, now)
		return nil
	})
	if err != nil {
		if !dErrors.Is(err, dErrors.CodeRateLimited) {
			s.releaseLimiter(ctx, key)
		}
		return nil, err
	}

	if s.notifier != nil {
		deliver(ctx, plain)
	}
	s.metrics.IncCodeIssued(string(ch))
	s.logAudit(ctx, string(models.ActionCodeSent),
		"record_id", updated.ID.String(),
		"channel", ch,
	)

	state := updated.Channel(ch)
	dispatch = &CodeDispatch{
		Channel:           ch,
		Destination:       maskDestination(ch, destination),
		ExpiresAt:         *state.CodeExpiresAt,
		ResendAvailableAt: now.Add(s.cfg.ResendCooldown),
	}
	if s.cfg.ExposeCodes {
		dispatch.Code = plain
	}
	return dispatch, nil
}

func (s *Service) releaseLimiter(ctx context.Context, key string) {
	if err := s.limiter.Reset(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "failed to release cooldown gate", "key", key, "error", err)
	}
}

// VerifyCode checks a submitted code. A mismatch is persisted (the attempt
// counter grows) and then reported; missing, expired and locked codes abort
// without writing. Acceptance clears the code, so of two concurrent correct
// submissions exactly one succeeds.
func (s *Service) VerifyCode(ctx context.Context, instructorID id.UserID, ch models.Channel, submitted string) (rec *models.Record, err error) {
	ctx, span := s.startSpan(ctx, "VerifyCode", instructorID)
	defer func() { endSpan(span, err) }()

	current, err := s.load(ctx, instructorID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	hash := s.hasher.Hash(current.ID.String(), submitted)
	var (
		outcome models.CodeOutcome
		checked bool
	)
	updated, err := s.execute(ctx, current, func(r *models.Record) error {
		if err := r.CanMutateSteps(); err != nil {
			return err
		}
		outcome = r.ApplyCodeAttempt(ch, hash, now, s.cfg.MaxAttempts)
		checked = true
		switch outcome {
		case models.CodeAccepted:
			r.AppendHistory(ch.Step(), models.ActionCodeVerified, instructorID, map[string]string{
				"channel": string(ch),
			}, now)
			return nil
		case models.CodeMismatch:
			r.AppendHistory(ch.Step(), models.ActionCodeRejected, instructorID, map[string]string{
				"channel":  string(ch),
				"attempts": strconv.Itoa(r.Channel(ch).Attempts),
			}, now)
			return nil
		default:
			return codeOutcomeError(outcome)
		}
	})
	if checked {
		s.metrics.IncCodeCheck(string(ch), outcomeLabel(outcome))
	}
	if err != nil {
		return nil, err
	}

	if outcome == models.CodeMismatch {
		remaining := s.cfg.MaxAttempts - updated.Channel(ch).Attempts
		if remaining < 0 {
			remaining = 0
		}
		return nil, dErrors.New(dErrors.CodeInvalidCode, "verification code is incorrect").
			WithDetail("attempts_remaining", remaining)
	}

	s.metrics.IncStepCompleted(string(ch.Step()))
	s.logAudit(ctx, string(models.ActionCodeVerified),
		"record_id", updated.ID.String(),
		"channel", ch,
	)
	return updated, nil
}

func codeOutcomeError(o models.CodeOutcome) error {
	switch o {
	case models.CodeMissing:
		return dErrors.New(dErrors.CodeNotFound, "no verification code is pending, request a new one")
	case models.CodeExpired:
		return dErrors.New(dErrors.CodeExpired, "verification code has expired, request a new one")
	case models.CodeLocked:
		return dErrors.New(dErrors.CodeAttemptsExceeded, "too many incorrect attempts, request a new code")
	default:
		return dErrors.New(dErrors.CodeInternal, "unexpected code outcome")
	}
}

func outcomeLabel(o models.CodeOutcome) string {
	switch o {
	case models.CodeAccepted:
		return "accepted"
	case models.CodeMissing:
		return "missing"
	case models.CodeExpired:
		return "expired"
	case models.CodeLocked:
		return "locked"
	case models.CodeMismatch:
		return "mismatch"
	}
	return "unknown"
}

func maskDestination(ch models.Channel, dest string) string {
	if ch == models.ChannelEmail {
		return email.Mask(dest)
	}
	if len(dest) <= 4 {
		return "****"
	}
	return dest[:min(3, len(dest)-4)] + "****" + dest[len(dest)-4:]
}
