package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/twmb/franz-go/pkg/kgo"

	accountstore "lectern/internal/account/store"
	jwttoken "lectern/internal/jwt_token"
	"lectern/internal/media"
	"lectern/internal/notify"
	"lectern/internal/platform/config"
	"lectern/internal/platform/kafka"
	"lectern/internal/platform/postgres"
	redisclient "lectern/internal/platform/redis"
	"lectern/internal/verification/code"
	"lectern/internal/verification/handler"
	vmetrics "lectern/internal/verification/metrics"
	"lectern/internal/verification/ratelimit"
	"lectern/internal/verification/requirements"
	"lectern/internal/verification/review"
	"lectern/internal/verification/service"
	"lectern/internal/verification/store"
	"lectern/pkg/platform/audit"
	"lectern/pkg/platform/audit/publisher"
	kafkasink "lectern/pkg/platform/audit/sink/kafka"
	auditmemory "lectern/pkg/platform/audit/store/memory"
	auditpostgres "lectern/pkg/platform/audit/store/postgres"
	"lectern/pkg/platform/circuit"
)

const auditBuffer = 1024

type recordStore interface {
	service.Store
	review.Store
}

// dependencies holds everything serve owns and must release.
type dependencies struct {
	registry   prometheus.Registerer
	db         *sql.DB
	pool       *pgxpool.Pool
	redis      *redisclient.Client
	kafka      *kgo.Client
	dispatcher *notify.Dispatcher
	publisher  *publisher.Publisher
	handler    *handler.Handler
	logger     *slog.Logger
}

// build connects the configured backends and assembles the services. Empty
// DSNs and URLs select in-process implementations.
func build(ctx context.Context, cfg *config.Config, log *slog.Logger) (_ *dependencies, err error) {
	d := &dependencies{registry: prometheus.DefaultRegisterer, logger: log}
	defer func() {
		if err != nil {
			d.close()
		}
	}()

	var (
		records    recordStore
		accounts   service.AccountStore
		auditStore audit.Store
	)
	if cfg.Postgres.DSN != "" {
		if d.db, err = postgres.Open(ctx, cfg.Postgres); err != nil {
			return nil, err
		}
		if d.pool, err = postgres.NewPool(ctx, cfg.Postgres); err != nil {
			return nil, err
		}
		records = store.NewPostgres(d.db)
		accounts = accountstore.NewPostgres(d.pool)
		auditStore = auditpostgres.New(d.db)
		log.Info("using postgres stores")
	} else {
		records = store.NewInMemory()
		accounts = accountstore.NewInMemory()
		auditStore = auditmemory.NewInMemoryStore()
		log.Warn("no postgres DSN configured, using in-memory stores")
	}

	if d.redis, err = redisclient.New(ctx, cfg.Redis); err != nil {
		return nil, err
	}
	var limiter service.Limiter = ratelimit.NewCooldown(cfg.Verification.ResendCooldown)
	if d.redis != nil {
		limiter = ratelimit.NewRedisGate(d.redis.Client, cfg.Verification.ResendCooldown)
	}

	blobs, err := blobStore(cfg.Storage)
	if err != nil {
		return nil, err
	}

	publisherOpts := []publisher.Option{
		publisher.WithAsyncBuffer(auditBuffer),
		publisher.WithLogger(log),
	}
	if d.kafka, err = kafka.NewClient(cfg.Kafka); err != nil {
		return nil, err
	}
	if d.kafka != nil {
		if err := kafka.EnsureTopic(ctx, d.kafka, cfg.Kafka.Topic, cfg.Kafka.Partitions); err != nil {
			return nil, err
		}
		publisherOpts = append(publisherOpts, publisher.WithSink(
			kafkasink.New(d.kafka, cfg.Kafka.Topic),
			circuit.WithFailureThreshold(cfg.Kafka.BreakerFailures),
			circuit.WithCooldown(cfg.Kafka.BreakerCooldown),
		))
	}
	d.publisher = publisher.NewPublisher(auditStore, publisherOpts...)

	if d.dispatcher, err = dispatcher(cfg.Notify, log); err != nil {
		return nil, err
	}

	hasher, err := code.NewHasher([]byte(cfg.Verification.CodeHashKey))
	if err != nil {
		return nil, err
	}
	policy, err := requirements.PolicyByName(cfg.Verification.EducationPolicy, cfg.Verification.MinimumCredential)
	if err != nil {
		return nil, err
	}
	evaluator := requirements.New(policy)
	m := vmetrics.New(d.registry)

	instructor := service.New(records, blobs, hasher, service.Config{
		CodeLength:        cfg.Verification.CodeLength,
		CodeTTL:           cfg.Verification.CodeTTL,
		MaxAttempts:       cfg.Verification.MaxAttempts,
		ResendCooldown:    cfg.Verification.ResendCooldown,
		ExposeCodes:       cfg.Verification.ExposeCodes,
		AllowLimitReset:   !cfg.IsProduction(),
		LivenessThreshold: cfg.Verification.LivenessThreshold,
		StoragePrefix:     cfg.Storage.Prefix,
		UploadTimeout:     cfg.Storage.UploadTimeout,
	},
		service.WithLimiter(limiter),
		service.WithEvaluator(evaluator),
		service.WithLiveness(media.FixedScorer{Confidence: cfg.Verification.LivenessScore}),
		service.WithAccounts(accounts),
		service.WithNotifier(d.dispatcher),
		service.WithAuditPublisher(d.publisher),
		service.WithLogger(log),
		service.WithMetrics(m),
	)
	reviews := review.New(records,
		review.WithAccounts(accounts),
		review.WithNotifier(d.dispatcher),
		review.WithAuditPublisher(d.publisher),
		review.WithEvaluator(evaluator),
		review.WithStatsWindow(cfg.Verification.StatsWindow),
		review.WithLogger(log),
		review.WithMetrics(m),
	)

	validator := jwttoken.NewJWTServiceAdapter(
		jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience),
	)
	d.handler = handler.New(instructor, reviews, log, validator)
	return d, nil
}

func blobStore(cfg config.Storage) (service.BlobStore, error) {
	if cfg.Endpoint == "" {
		return media.NewMemoryStore("memory://lectern"), nil
	}
	oss, err := media.NewOSSStore(media.OSSConfig{
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		AccessKeySecret: cfg.AccessKeySecret,
		Bucket:          cfg.Bucket,
		PublicBaseURL:   cfg.PublicBaseURL,
		Timeout:         cfg.UploadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("blob store: %w", err)
	}
	return oss, nil
}

func dispatcher(cfg config.Notify, log *slog.Logger) (*notify.Dispatcher, error) {
	var emailSender notify.EmailSender = notify.NewLogEmailSender(log)
	if cfg.SMTPHost != "" {
		emailSender = notify.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.FromEmail, cfg.FromName)
	}
	sms := notify.NewGatewaySMS(cfg.SMSURL, cfg.SMSAPIKey, log, notify.WithDryRun(cfg.SMSDryRun))

	opts := []notify.DispatcherOption{
		notify.WithAdminEmails(cfg.AdminEmails),
		notify.WithTimeout(cfg.SendTimeout),
	}
	if cfg.TelegramBot != "" {
		alerter, err := notify.NewTelegramAlerter(cfg.TelegramBot, "", cfg.TelegramChat, nil)
		if err != nil {
			return nil, err
		}
		opts = append(opts, notify.WithAlerter(alerter))
	}
	return notify.NewDispatcher(emailSender, sms, log, opts...), nil
}

// drain waits for in-flight notifications and audit events. It runs after
// the HTTP server has stopped accepting requests.
func (d *dependencies) drain() {
	if d.dispatcher != nil {
		d.dispatcher.Wait()
	}
	if d.publisher != nil {
		d.publisher.Close()
		if n := d.publisher.Dropped(); n > 0 {
			d.logger.Warn("audit events dropped during run", "count", n)
		}
	}
}

func (d *dependencies) close() {
	if d.kafka != nil {
		d.kafka.Close()
	}
	if d.redis != nil {
		_ = d.redis.Close()
	}
	if d.pool != nil {
		d.pool.Close()
	}
	if d.db != nil {
		_ = d.db.Close()
	}
}
