// Package review is the admin side of the verification workflow: decisions,
// step resets, certificate overrides and the review queue.
//
// Decisions follow one order: validate, mutate and persist the record, mirror
// the outcome onto the linked account, append the history entry, notify the
// instructor. Only the first two steps can fail the request.
package review

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	accountmodels "lectern/internal/account/models"
	"lectern/internal/notify"
	"lectern/internal/verification/metrics"
	"lectern/internal/verification/models"
	"lectern/internal/verification/requirements"
	"lectern/internal/verification/store"
	id "lectern/pkg/domain"
	dErrors "lectern/pkg/domain-errors"
	"lectern/pkg/platform/audit"
	"lectern/pkg/platform/sentinel"
	"lectern/pkg/requestcontext"
)

type Store interface {
	FindByID(ctx context.Context, recordID id.RecordID) (*models.Record, error)
	Execute(ctx context.Context, recordID id.RecordID, mutate func(*models.Record) error) (*models.Record, error)
	AppendHistory(ctx context.Context, recordID id.RecordID, entry models.HistoryEntry) error
	List(ctx context.Context, f store.ListFilter) ([]*models.Record, int, error)
	CountByStatus(ctx context.Context) (map[models.Status]int, error)
	ListDecidedSince(ctx context.Context, since time.Time) ([]*models.Record, error)
}

type AccountStore interface {
	FindByID(ctx context.Context, userID id.UserID) (*accountmodels.Account, error)
	Update(ctx context.Context, userID id.UserID, mutate func(*accountmodels.Account) error) (*accountmodels.Account, error)
}

type Notifier interface {
	SendEmail(ctx context.Context, msg notify.Email)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

const defaultStatsWindow = 30 * 24 * time.Hour

// Service adjudicates submitted verifications.
type Service struct {
	records        Store
	accounts       AccountStore
	notifier       Notifier
	auditPublisher AuditPublisher
	evaluator      *requirements.Evaluator
	statsWindow    time.Duration
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Service)

func WithAccounts(a AccountStore) Option {
	return func(s *Service) { s.accounts = a }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = p }
}

func WithEvaluator(e *requirements.Evaluator) Option {
	return func(s *Service) { s.evaluator = e }
}

// WithStatsWindow sets the rolling window for processing-time statistics.
func WithStatsWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.statsWindow = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func New(records Store, opts ...Option) *Service {
	s := &Service{
		records:     records,
		statsWindow: defaultStatsWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.evaluator == nil {
		s.evaluator = requirements.New(requirements.AtLeastOneNotRejected)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("lectern/review")
	}
	return s
}

// =============================================================================
// Shared helpers
// =============================================================================

func (s *Service) execute(ctx context.Context, recordID id.RecordID, mutate func(*models.Record) error) (*models.Record, error) {
	rec, err := s.records.Execute(ctx, recordID, mutate)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return rec, nil
}

func translateStoreError(err error) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "verification not found")
	case errors.Is(err, sentinel.ErrVersionConflict):
		return dErrors.New(dErrors.CodeConflict, "verification was modified concurrently, retry the request")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save verification")
	}
}

// appendHistory records an admin transition after the record is saved. A
// failure here is logged; the decision itself already stands.
func (s *Service) appendHistory(ctx context.Context, rec *models.Record, entry models.HistoryEntry) {
	if err := s.records.AppendHistory(ctx, rec.ID, entry); err != nil {
		s.logger.ErrorContext(ctx, "failed to append verification history",
			"record_id", rec.ID.String(),
			"action", entry.Action,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return
	}
	rec.History = append(rec.History, entry)
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		RecordID:     rec.ID,
		InstructorID: rec.InstructorID,
		Step:         string(entry.Step),
		Action:       string(entry.Action),
		Status:       string(entry.Status),
		PerformedBy:  entry.PerformedBy.String(),
		Metadata:     entry.Metadata,
		RequestID:    requestcontext.RequestID(ctx),
		Timestamp:    entry.Timestamp,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to publish verification event",
			"record_id", rec.ID.String(),
			"action", entry.Action,
			"error", err,
		)
	}
}

// mirror copies a decision onto the linked account. Failures are logged.
func (s *Service) mirror(ctx context.Context, rec *models.Record, fn func(*accountmodels.Account)) {
	if s.accounts == nil {
		return
	}
	_, err := s.accounts.Update(ctx, rec.InstructorID, func(a *accountmodels.Account) error {
		fn(a)
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to mirror decision onto account",
			"record_id", rec.ID.String(),
			"user_id", rec.InstructorID.String(),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}

// notifyInstructor emails the instructor at the account address, falling back
// to the verified email on the record.
func (s *Service) notifyInstructor(ctx context.Context, rec *models.Record, decision notify.Decision, message string, details []string) {
	if s.notifier == nil {
		return
	}
	to := rec.Email.Destination
	firstName := ""
	if rec.PersonalInfo != nil {
		firstName = rec.PersonalInfo.FirstName
	}
	if s.accounts != nil {
		if acc, err := s.accounts.FindByID(ctx, rec.InstructorID); err == nil {
			if acc.Email != "" {
				to = acc.Email
			}
			if firstName == "" {
				firstName = acc.FirstName
			}
		}
	}
	if to == "" {
		s.logger.WarnContext(ctx, "no address for decision email",
			"record_id", rec.ID.String(),
			"decision", decision,
		)
		return
	}
	s.notifier.SendEmail(ctx, notify.DecisionEmail(to, firstName, decision, message, details))
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}

func (s *Service) startSpan(ctx context.Context, name string, recordID id.RecordID) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "review."+name, trace.WithAttributes(
		attribute.String("record_id", recordID.String()),
		attribute.String("admin_id", requestcontext.UserID(ctx).String()),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}
