package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"lectern/internal/media"
	"lectern/internal/verification/models"
	"lectern/internal/verification/review"
	"lectern/internal/verification/service"
	id "lectern/pkg/domain"
	dErrors "lectern/pkg/domain-errors"
	"lectern/pkg/platform/httputil"
	"lectern/pkg/platform/middleware/admin"
	"lectern/pkg/platform/middleware/auth"
	"lectern/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks InstructorService,ReviewService

// InstructorService is the instructor-facing verification workflow.
type InstructorService interface {
	Initialize(ctx context.Context, instructorID id.UserID) (*models.Record, bool, error)
	GetStatus(ctx context.Context, instructorID id.UserID) (*models.Record, error)
	SendEmailCode(ctx context.Context, instructorID id.UserID, address string) (*service.CodeDispatch, error)
	SendPhoneCode(ctx context.Context, instructorID id.UserID, phone string) (*service.CodeDispatch, error)
	VerifyCode(ctx context.Context, instructorID id.UserID, ch models.Channel, submitted string) (*models.Record, error)
	SubmitPersonalInfo(ctx context.Context, instructorID id.UserID, req *models.PersonalInfoRequest) (*models.Record, error)
	UploadIDDocuments(ctx context.Context, instructorID id.UserID, req *models.IDDocumentRequest, front, back *media.File) (*models.Record, error)
	UploadSelfie(ctx context.Context, instructorID id.UserID, file *media.File) (*models.Record, error)
	SubmitProfessionalInfo(ctx context.Context, instructorID id.UserID, req *models.ProfessionalInfoRequest) (*models.Record, error)
	AddCertificate(ctx context.Context, instructorID id.UserID, req *models.CertificateRequest, doc *media.File) (*models.Record, models.Certificate, error)
	ListCertificates(ctx context.Context, instructorID id.UserID) (models.Education, error)
	UpdateCertificate(ctx context.Context, instructorID id.UserID, certID id.CertificateID, req *models.UpdateCertificateRequest) (*models.Record, models.Certificate, error)
	RemoveCertificate(ctx context.Context, instructorID id.UserID, certID id.CertificateID) (*models.Record, error)
	SubmitForReview(ctx context.Context, instructorID id.UserID) (*models.Record, error)
	ResetLimits(ctx context.Context, instructorID id.UserID) (*models.Record, error)
}

// ReviewService is the admin review queue and decision engine.
type ReviewService interface {
	List(ctx context.Context, q review.Query) (*review.Page, error)
	Get(ctx context.Context, recordID id.RecordID) (*models.Record, error)
	Stats(ctx context.Context) (*review.Stats, error)
	Approve(ctx context.Context, adminID id.UserID, recordID id.RecordID, req *models.ApproveRequest) (*models.Record, error)
	Reject(ctx context.Context, adminID id.UserID, recordID id.RecordID, req *models.RejectRequest) (*models.Record, error)
	RequestMoreInfo(ctx context.Context, adminID id.UserID, recordID id.RecordID, req *models.MoreInfoRequest) (*models.Record, error)
	Suspend(ctx context.Context, adminID id.UserID, recordID id.RecordID, req *models.SuspendRequest) (*models.Record, error)
	ResetSteps(ctx context.Context, adminID id.UserID, recordID id.RecordID, req *models.ResetStepsRequest) (*models.Record, error)
	ReviewCertificate(ctx context.Context, adminID id.UserID, recordID id.RecordID, certID id.CertificateID, req *models.CertificateReviewRequest) (*models.Record, models.Certificate, error)
}

// Handler serves the instructor verification and admin review endpoints.
type Handler struct {
	instructor   InstructorService
	review       ReviewService
	logger       *slog.Logger
	jwtValidator auth.JWTValidator
}

// New creates a verification Handler.
func New(instructor InstructorService, review ReviewService, logger *slog.Logger, jwtValidator auth.JWTValidator) *Handler {
	return &Handler{
		instructor:   instructor,
		review:       review,
		logger:       logger,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the instructor routes (any authenticated caller) and the
// admin routes (admin role only).
func (h *Handler) Register(r chi.Router) {
	r.Route("/instructor/verification", func(r chi.Router) {
		r.Use(auth.RequireAuth(h.jwtValidator, h.logger))
		r.Post("/", h.handleInitialize)
		r.Get("/", h.handleGetStatus)
		r.Post("/email/send", h.handleSendEmailCode)
		r.Post("/email/verify", h.handleVerifyCode(models.ChannelEmail))
		r.Post("/phone/send", h.handleSendPhoneCode)
		r.Post("/phone/verify", h.handleVerifyCode(models.ChannelPhone))
		r.Put("/personal-info", h.handlePersonalInfo)
		r.Post("/id-documents", h.handleIDDocuments)
		r.Post("/selfie", h.handleSelfie)
		r.Put("/professional-info", h.handleProfessionalInfo)
		r.Post("/certificates", h.handleAddCertificate)
		r.Get("/certificates", h.handleListCertificates)
		r.Patch("/certificates/{certificateID}", h.handleUpdateCertificate)
		r.Delete("/certificates/{certificateID}", h.handleRemoveCertificate)
		r.Post("/submit", h.handleSubmit)
		r.Post("/reset-limits", h.handleResetLimits)
	})

	r.Route("/admin/verifications", func(r chi.Router) {
		r.Use(auth.RequireAuth(h.jwtValidator, h.logger))
		r.Use(admin.RequireAdmin(h.logger))
		r.Get("/", h.handleList)
		r.Get("/stats", h.handleStats)
		r.Get("/{recordID}", h.handleGet)
		r.Post("/{recordID}/approve", h.handleApprove)
		r.Post("/{recordID}/reject", h.handleReject)
		r.Post("/{recordID}/request-info", h.handleRequestMoreInfo)
		r.Post("/{recordID}/suspend", h.handleSuspend)
		r.Post("/{recordID}/reset-steps", h.handleResetSteps)
		r.Post("/{recordID}/certificates/{certificateID}/review", h.handleReviewCertificate)
	})
}

// caller returns the authenticated user. RequireAuth guarantees one is set;
// a missing ID means the router was wired without it.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (id.UserID, bool) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		h.logger.ErrorContext(ctx, "userID missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return id.UserID{}, false
	}
	return userID, true
}

// fail logs and writes err. Client errors log at WARN, everything else at
// ERROR.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	}
	if de, ok := dErrors.As(err); ok && httputil.StatusFor(de.Code) < http.StatusInternalServerError {
		h.logger.WarnContext(ctx, msg, attrs...)
	} else {
		h.logger.ErrorContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}

func recordIDParam(r *http.Request) (id.RecordID, error) {
	return id.ParseRecordID(chi.URLParam(r, "recordID"))
}

func certificateIDParam(r *http.Request) (id.CertificateID, error) {
	return id.ParseCertificateID(chi.URLParam(r, "certificateID"))
}

// parseQuery reads status (repeated or comma separated), search, page and
// page_size.
func parseQuery(r *http.Request) (review.Query, error) {
	values := r.URL.Query()
	var q review.Query
	for _, raw := range values["status"] {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			st, err := models.ParseStatus(part)
			if err != nil {
				return q, err
			}
			q.Statuses = append(q.Statuses, st)
		}
	}
	q.Search = strings.TrimSpace(values.Get("search"))

	var err error
	if q.Page, err = intParam(values.Get("page"), "page"); err != nil {
		return q, err
	}
	if q.PageSize, err = intParam(values.Get("page_size"), "page_size"); err != nil {
		return q, err
	}
	return q, nil
}

func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, dErrors.New(dErrors.CodeValidation, name+" must be a non-negative integer").
			WithDetail("field", name)
	}
	return n, nil
}
