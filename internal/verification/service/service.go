// Package service runs the instructor side of the verification workflow:
// initialization, one-time codes, step processors, certificates and the
// submission gate. Every record mutation goes through Store.Execute so
// concurrent requests for one record serialize on its version.
package service

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
	"lectern/internal/media"
	"lectern/internal/notify"
	"lectern/internal/verification/code"
	"lectern/internal/verification/metrics"
	"lectern/internal/verification/models"
	"lectern/internal/verification/ratelimit"
	"lectern/internal/verification/requirements"
	id "lectern/pkg/domain"
	dErrors "lectern/pkg/domain-errors"
	"lectern/pkg/platform/audit"
	"lectern/pkg/platform/sentinel"
	"lectern/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, rec *models.Record) error
	FindByID(ctx context.Context, recordID id.RecordID) (*models.Record, error)
	FindByInstructor(ctx context.Context, instructorID id.UserID) (*models.Record, error)
	Execute(ctx context.Context, recordID id.RecordID, mutate func(*models.Record) error) (*models.Record, error)
}

type BlobStore interface {
	Upload(ctx context.Context, u media.Upload) (media.Object, error)
	Destroy(ctx context.Context, publicID string) error
}

type Limiter interface {
	Allow(ctx context.Context, key string, lastSentAt *time.Time, now time.Time) (ratelimit.Decision, error)
	Reset(ctx context.Context, key string) error
}

type CodeGenerator interface {
	Generate() (string, error)
}

type LivenessScorer interface {
	Score(ctx context.Context, image []byte) (float64, error)
}

type AccountStore interface {
	FindByID(ctx context.Context, userID id.UserID) (*accountmodels.Account, error)
	Update(ctx context.Context, userID id.UserID, mutate func(*accountmodels.Account) error) (*accountmodels.Account, error)
}

// Notifier delivers best-effort messages. Implementations must not block.
type Notifier interface {
	SendEmail(ctx context.Context, msg notify.Email)
	SendSMS(ctx context.Context, to, text string)
	AlertAdmins(ctx context.Context, subject, body string)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Config holds the workflow constants. Zero values take the defaults below.
type Config struct {
	CodeLength        int
	CodeTTL           time.Duration
	MaxAttempts       int
	ResendCooldown    time.Duration
	ExposeCodes       bool
	AllowLimitReset   bool
	LivenessThreshold float64
	MinimumAge        int
	StoragePrefix     string
	UploadTimeout     time.Duration
}

func (c Config) withDefaults() Config {
	if c.CodeLength <= 0 {
		c.CodeLength = 6
	}
	if c.CodeTTL <= 0 {
		c.CodeTTL = 10 * time.Minute
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.LivenessThreshold <= 0 {
		c.LivenessThreshold = 0.8
	}
	if c.MinimumAge <= 0 {
		c.MinimumAge = 18
	}
	if c.StoragePrefix == "" {
		c.StoragePrefix = "instructors"
	}
	if c.UploadTimeout <= 0 {
		c.UploadTimeout = 30 * time.Second
	}
	return c
}

// Service orchestrates instructor verification steps.
type Service struct {
	records        Store
	blobs          BlobStore
	hasher         *code.Hasher
	cfg            Config
	limiter        Limiter
	generator      CodeGenerator
	evaluator      *requirements.Evaluator
	liveness       LivenessScorer
	accounts       AccountStore
	notifier       Notifier
	auditPublisher AuditPublisher
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLimiter(l Limiter) Option {
	return func(s *Service) { s.limiter = l }
}

func WithCodeGenerator(g CodeGenerator) Option {
	return func(s *Service) { s.generator = g }
}

func WithEvaluator(e *requirements.Evaluator) Option {
	return func(s *Service) { s.evaluator = e }
}

func WithLiveness(l LivenessScorer) Option {
	return func(s *Service) { s.liveness = l }
}

func WithAccounts(a AccountStore) Option {
	return func(s *Service) { s.accounts = a }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = p }
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

func New(records Store, blobs BlobStore, hasher *code.Hasher, cfg Config, opts ...Option) *Service {
	cfg = cfg.withDefaults()
	s := &Service{
		records: records,
		blobs:   blobs,
		hasher:  hasher,
		cfg:     cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.limiter == nil {
		s.limiter = ratelimit.NewCooldown(cfg.ResendCooldown)
	}
	if s.generator == nil {
		s.generator = code.NewGenerator(cfg.CodeLength)
	}
	if s.evaluator == nil {
		s.evaluator = requirements.New(requirements.AtLeastOneNotRejected)
	}
	if s.liveness == nil {
		s.liveness = media.FixedScorer{Confidence: 0.95}
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("lectern/verification")
	}
	return s
}

// =============================================================================
// Shared helpers
// =============================================================================

func (s *Service) load(ctx context.Context, instructorID id.UserID) (*models.Record, error) {
	rec, err := s.records.FindByInstructor(ctx, instructorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "verification has not been started")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification")
	}
	return rec, nil
}

// mutation is an Execute run that remembers where the record's history ended
// before the last attempt, so the new entries can be published afterwards.
type mutation struct {
	before int
}

// execute runs mutate atomically and publishes the history it appended.
// Coded errors from mutate pass through unchanged.
func (s *Service) execute(ctx context.Context, rec *models.Record, mutate func(*models.Record) error) (*models.Record, error) {
	var m mutation
	updated, err := s.records.Execute(ctx, rec.ID, func(r *models.Record) error {
		m.before = len(r.History)
		return mutate(r)
	})
	if err != nil {
		return nil, translateStoreError(err)
	}
	s.publishHistory(ctx, updated, updated.History[m.before:])
	return updated, nil
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

func (s *Service) publishHistory(ctx context.Context, rec *models.Record, entries []models.HistoryEntry) {
	if s.auditPublisher == nil {
		return
	}
	requestID := requestcontext.RequestID(ctx)
	for _, e := range entries {
		err := s.auditPublisher.Emit(ctx, audit.Event{
			RecordID:     rec.ID,
			InstructorID: rec.InstructorID,
			Step:         string(e.Step),
			Action:       string(e.Action),
			Status:       string(e.Status),
			PerformedBy:  e.PerformedBy.String(),
			Metadata:     e.Metadata,
			RequestID:    requestID,
			Timestamp:    e.Timestamp,
		})
		if err != nil {
			s.logger.WarnContext(ctx, "failed to publish verification event",
				"action", e.Action,
				"record_id", rec.ID.String(),
				"error", err,
			)
		}
	}
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}

// account returns the linked account, or nil when it cannot be read.
func (s *Service) account(ctx context.Context, userID id.UserID) *accountmodels.Account {
	if s.accounts == nil {
		return nil
	}
	acc, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "failed to load linked account",
				"user_id", userID.String(),
				"error", err,
			)
		}
		return nil
	}
	return acc
}

// mirror applies fn to the linked account. Failures are logged and swallowed;
// the record is already durable.
func (s *Service) mirror(ctx context.Context, userID id.UserID, what string, fn func(*accountmodels.Account)) {
	if s.accounts == nil {
		return
	}
	_, err := s.accounts.Update(ctx, userID, func(a *accountmodels.Account) error {
		fn(a)
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to mirror verification onto account",
			"user_id", userID.String(),
			"mirror", what,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}

func (s *Service) startSpan(ctx context.Context, name string, instructorID id.UserID) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "verification."+name, trace.WithAttributes(
		attribute.String("instructor_id", instructorID.String()),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}
