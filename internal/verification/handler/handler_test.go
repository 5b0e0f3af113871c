package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"lectern/internal/media"
	"lectern/internal/verification/handler/mocks"
	"lectern/internal/verification/models"
	"lectern/internal/verification/review"
	"lectern/internal/verification/service"
	id "lectern/pkg/domain"
	dErrors "lectern/pkg/domain-errors"
	"lectern/pkg/platform/middleware/auth"
	"lectern/pkg/testutil"
)

const (
	instructorToken = "instructor-token"
	adminToken      = "admin-token"
)

type stubValidator map[string]*auth.JWTClaims

func (v stubValidator) ValidateToken(token string) (*auth.JWTClaims, error) {
	if c, ok := v[token]; ok {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

type HandlerSuite struct {
	suite.Suite
	instructor   *mocks.MockInstructorService
	review       *mocks.MockReviewService
	handler      *Handler
	router       chi.Router
	instructorID id.UserID
	adminID      id.UserID
	now          time.Time
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.instructor = mocks.NewMockInstructorService(ctrl)
	s.review = mocks.NewMockReviewService(ctrl)
	s.instructorID = id.UserID(uuid.New())
	s.adminID = id.UserID(uuid.New())
	s.now = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	validator := stubValidator{
		instructorToken: {UserID: s.instructorID.String(), Role: "student"},
		adminToken:      {UserID: s.adminID.String(), Role: "admin"},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.handler = New(s.instructor, s.review, logger, validator)
	s.router = chi.NewRouter()
	s.handler.Register(s.router)
}

func (s *HandlerSuite) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return testutil.DoRequest(s.router, req)
}

func (s *HandlerSuite) record() *models.Record {
	rec := models.NewRecord(id.NewRecordID(), s.instructorID, s.now)
	rec.Email.Destination = "g***@example.com"
	rec.Email.CodeHash = "stored-code-hash"
	exp := s.now.Add(10 * time.Minute)
	rec.Email.CodeExpiresAt = &exp
	return rec
}

// =============================================================================
// Authentication
// =============================================================================

func (s *HandlerSuite) TestAuthentication() {
	s.Run("missing token is unauthorized", func() {
		rr := s.do(httptest.NewRequest(http.MethodGet, "/instructor/verification", nil), "")
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})

	s.Run("unknown token is unauthorized", func() {
		rr := s.do(httptest.NewRequest(http.MethodGet, "/instructor/verification", nil), "forged")
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})

	s.Run("instructor cannot reach admin routes", func() {
		rr := s.do(httptest.NewRequest(http.MethodGet, "/admin/verifications", nil), instructorToken)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})

	s.Run("handler without auth context fails closed", func() {
		rr := httptest.NewRecorder()
		s.handler.handleGetStatus(rr, httptest.NewRequest(http.MethodGet, "/instructor/verification", nil))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, "internal_error")
	})

	s.Run("direct call uses the context user", func() {
		rec := s.record()
		s.instructor.EXPECT().GetStatus(gomock.Any(), s.instructorID).Return(rec, nil)

		req := testutil.WithUser(httptest.NewRequest(http.MethodGet, "/instructor/verification", nil), s.instructorID, "student")
		rr := httptest.NewRecorder()
		s.handler.handleGetStatus(rr, req)
		s.Equal(http.StatusOK, rr.Code)
	})
}

// =============================================================================
// Instructor routes
// =============================================================================

func (s *HandlerSuite) TestInitialize() {
	s.Run("new record is created", func() {
		rec := s.record()
		s.instructor.EXPECT().Initialize(gomock.Any(), s.instructorID).Return(rec, true, nil)

		rr := s.do(httptest.NewRequest(http.MethodPost, "/instructor/verification", nil), instructorToken)
		s.Equal(http.StatusCreated, rr.Code)
		body := testutil.UnmarshalResponse[RecordResponse](s.T(), rr)
		s.Equal(rec.ID, body.ID)
		s.Equal(models.StatusPending, body.Status)
	})

	s.Run("existing record is returned", func() {
		s.instructor.EXPECT().Initialize(gomock.Any(), s.instructorID).Return(s.record(), false, nil)

		rr := s.do(httptest.NewRequest(http.MethodPost, "/instructor/verification", nil), instructorToken)
		s.Equal(http.StatusOK, rr.Code)
	})
}

func (s *HandlerSuite) TestGetStatus() {
	s.Run("view carries progress and hides the code hash", func() {
		rec := s.record()
		rec.CompletedSteps[models.StepEmail] = true
		s.instructor.EXPECT().GetStatus(gomock.Any(), s.instructorID).Return(rec, nil)

		rr := s.do(httptest.NewRequest(http.MethodGet, "/instructor/verification", nil), instructorToken)
		s.Require().Equal(http.StatusOK, rr.Code)
		s.NotContains(rr.Body.String(), "stored-code-hash")
		s.NotContains(rr.Body.String(), "code_hash")

		body := testutil.UnmarshalResponse[RecordResponse](s.T(), rr)
		s.Equal(16, body.Progress)
		s.True(body.Email.CodePending)
		s.NotContains(body.MissingSteps, models.StepEmail)
		s.Len(body.MissingSteps, 5)
	})

	s.Run("not initialized is 404", func() {
		s.instructor.EXPECT().GetStatus(gomock.Any(), s.instructorID).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "verification not found"))

		rr := s.do(httptest.NewRequest(http.MethodGet, "/instructor/verification", nil), instructorToken)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})
}

func (s *HandlerSuite) TestSendCode() {
	s.Run("email body is optional", func() {
		s.instructor.EXPECT().SendEmailCode(gomock.Any(), s.instructorID, "").
			Return(&service.CodeDispatch{
				Channel:           models.ChannelEmail,
				Destination:       "g***@example.com",
				ExpiresAt:         s.now.Add(10 * time.Minute),
				ResendAvailableAt: s.now.Add(time.Minute),
			}, nil)

		rr := s.do(httptest.NewRequest(http.MethodPost, "/instructor/verification/email/send", nil), instructorToken)
		s.Require().Equal(http.StatusOK, rr.Code)
		body := testutil.UnmarshalResponse[CodeSentResponse](s.T(), rr)
		s.Equal("g***@example.com", body.Destination)
		s.Empty(body.Code)
	})

	s.Run("email address is normalized", func() {
		s.instructor.EXPECT().SendEmailCode(gomock.Any(), s.instructorID, "grace@example.com").
			Return(&service.CodeDispatch{Channel: models.ChannelEmail}, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/instructor/verification/email/send",
			map[string]string{"email": "  Grace@Example.com "})
		rr := s.do(req, instructorToken)
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("cooldown maps to 429 with Retry-After", func() {
		s.instructor.EXPECT().SendPhoneCode(gomock.Any(), s.instructorID, "+15551234567").
			Return(nil, dErrors.RateLimited("wait before requesting another code", 40*time.Second))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/instructor/verification/phone/send",
			map[string]string{"phone": "+1 (555) 123-4567"})
		rr := s.do(req, instructorToken)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusTooManyRequests, "rate_limited")
		s.Equal("40", rr.Header().Get("Retry-After"))
	})

	s.Run("malformed phone never reaches the service", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/instructor/verification/phone/send",
			map[string]string{"phone": "call me"})
		rr := s.do(req, instructorToken)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("unknown fields are rejected", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/instructor/verification/phone/send",
			map[string]string{"phone": "+15551234567", "carrier": "x"})
		rr := s.do(req, instructorToken)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *HandlerSuite) TestVerifyCode() {
	s.Run("routes carry the channel", func() {
		for path, ch := range map[string]models.Channel{
			"/instructor/verification/email/verify": models.ChannelEmail,
			"/instructor/verification/phone/verify": models.ChannelPhone,
		} {
			s.instructor.EXPECT().VerifyCode(gomock.Any(), s.instructorID, ch, "123456").Return(s.record(), nil)
			req := testutil.NewJSONRequest(s.T(), http.MethodPost, path, map[string]string{"code": " 123456 "})
			rr := s.do(req, instructorToken)
			s.Equal(http.StatusOK, rr.Code, path)
		}
	})

	s.Run("wrong code reports remaining attempts", func() {
		s.instructor.EXPECT().VerifyCode(gomock.Any(), s.instructorID, models.ChannelEmail, "000000").
			Return(nil, dErrors.New(dErrors.CodeInvalidCode, "invalid verification code").WithDetail("attempts_remaining", 2))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/instructor/verification/email/verify",
			map[string]string{"code": "000000"})
		rr := s.do(req, instructorToken)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_code")
		body := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
		details := (*body)["details"].(map[string]any)
		s.Equal(float64(2), details["attempts_remaining"])
	})

	s.Run("locked code is 429", func() {
		s.instructor.EXPECT().VerifyCode(gomock.Any(), s.instructorID, models.ChannelPhone, "000000").
			Return(nil, dErrors.New(dErrors.CodeAttemptsExceeded, "too many attempts"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/instructor/verification/phone/verify",
			map[string]string{"code": "000000"})
		rr := s.do(req, instructorToken)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusTooManyRequests, "attempts_exceeded")
	})
}

func (s *HandlerSuite) TestPersonalInfo() {
	s.Run("valid body is forwarded", func() {
		s.instructor.EXPECT().SubmitPersonalInfo(gomock.Any(), s.instructorID, gomock.Any()).
			DoAndReturn(func(_ any, _ id.UserID, req *models.PersonalInfoRequest) (*models.Record, error) {
				s.Equal("Grace", req.FirstName)
				s.Equal("1990-05-01", req.DateOfBirth)
				return s.record(), nil
			})

		req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/instructor/verification/personal-info", map[string]string{
			"first_name":    " Grace ",
			"last_name":     "Hopper",
			"date_of_birth": "1990-05-01",
		})
		rr := s.do(req, instructorToken)
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("missing last name lists the field", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/instructor/verification/personal-info", map[string]string{
			"first_name":    "Grace",
			"date_of_birth": "1990-05-01",
		})
		rr := s.do(req, instructorToken)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
		s.Contains(rr.Body.String(), "last_name")
	})
}

func (s *HandlerSuite) TestIDDocuments() {
	s.Run("front only upload", func() {
		s.instructor.EXPECT().UploadIDDocuments(gomock.Any(), s.instructorID, gomock.Any(), gomock.Any(), gomock.Nil()).
			DoAndReturn(func(_ any, _ id.UserID, req *models.IDDocumentRequest, front, _ *media.File) (*models.Record, error) {
				s.Equal("passport", req.DocumentType)
				s.Equal(fieldFront, front.Field)
				s.Equal("front.png", front.Filename)
				s.Equal("image/png", front.ContentType)
				s.Equal([]byte("png-bytes"), front.Data)
				return s.record(), nil
			})

		req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/instructor/verification/id-documents",
			[]testutil.FilePart{{Field: fieldFront, Filename: "front.png", ContentType: "image/png", Data: []byte("png-bytes")}},
			map[string]string{"document_type": "passport"})
		rr := s.do(req, instructorToken)
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("oversized side is rejected before the service", func() {
		big := make([]byte, media.MaxUploadBytes+1)
		req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/instructor/verification/id-documents",
			[]testutil.FilePart{{Field: fieldBack, Filename: "back.jpg", ContentType: "image/jpeg", Data: big}},
			map[string]string{"document_type": "passport"})
		rr := s.do(req, instructorToken)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
		s.Contains(rr.Body.String(), fieldBack)
	})

	s.Run("non multipart body is a bad request", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/instructor/verification/id-documents",
			map[string]string{"document_type": "passport"})
		rr := s.do(req, instructorToken)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("blob store failure surfaces as upload_failed", func() {
		s.instructor.EXPECT().UploadIDDocuments(gomock.Any(), s.instructorID, gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeUploadFailed, "failed to store document"))

		req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/instructor/verification/id-documents",
			[]testutil.FilePart{{Field: fieldFront, Filename: "front.png", ContentType: "image/png", Data: []byte("png")}},
			map[string]string{"document_type": "national_id"})
		rr := s.do(req, instructorToken)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "upload_failed")
	})
}

func (s *HandlerSuite) TestSelfie() {
	s.Run("missing part reaches the service as nil", func() {
		s.instructor.EXPECT().UploadSelfie(gomock.Any(), s.instructorID, gomock.Nil()).
			Return(nil, dErrors.New(dErrors.CodeValidation, "selfie image is required"))

		req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/instructor/verification/selfie", nil, map[string]string{"note": "x"})
		rr := s.do(req, instructorToken)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("upload is forwarded", func() {
		s.instructor.EXPECT().UploadSelfie(gomock.Any(), s.instructorID, gomock.Not(gomock.Nil())).Return(s.record(), nil)

		req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/instructor/verification/selfie",
			[]testutil.FilePart{{Field: fieldSelfie, Filename: "me.jpg", ContentType: "image/jpeg", Data: []byte("jpeg")}}, nil)
		rr := s.do(req, instructorToken)
		s.Equal(http.StatusOK, rr.Code)
	})
}

func (s *HandlerSuite) TestCertificates() {
	certID := id.NewCertificateID()

	s.Run("add parses numeric fields", func() {
		s.instructor.EXPECT().AddCertificate(gomock.Any(), s.instructorID, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, _ id.UserID, req *models.CertificateRequest, doc *media.File) (*models.Record, models.Certificate, error) {
				s.Equal(2015, req.GraduationYear)
				s.Require().NotNil(req.GPA)
				s.InDelta(3.8, *req.GPA, 0.001)
				s.Equal(fieldCertificate, doc.Field)
				rec := s.record()
				cert := models.Certificate{ID: certID, Type: models.CertBachelorsDegree, Status: models.CertificatePending}
				rec.Education.Certificates = append(rec.Education.Certificates, cert)
				rec.CompletedSteps[models.StepEducationCertificate] = true
				return rec, cert, nil
			})

		req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/instructor/verification/certificates",
			[]testutil.FilePart{{Field: fieldCertificate, Filename: "diploma.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")}},
			map[string]string{
				"certificate_type": "bachelors_degree",
				"institution_name": "MIT",
				"field_of_study":   "Mathematics",
				"graduation_year":  "2015",
				"gpa":              "3.8",
			})
		rr := s.do(req, instructorToken)
		s.Require().Equal(http.StatusCreated, rr.Code)
		body := testutil.UnmarshalResponse[CertificateResponse](s.T(), rr)
		s.Equal(certID, body.Certificate.ID)
		s.Equal(16, body.Progress)
	})

	s.Run("non numeric year is rejected", func() {
		req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/instructor/verification/certificates", nil,
			map[string]string{"certificate_type": "other", "graduation_year": "soon"})
		rr := s.do(req, instructorToken)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("list never returns null", func() {
		s.instructor.EXPECT().ListCertificates(gomock.Any(), s.instructorID).Return(models.Education{}, nil)

		rr := s.do(httptest.NewRequest(http.MethodGet, "/instructor/verification/certificates", nil), instructorToken)
		s.Equal(http.StatusOK, rr.Code)
		s.Contains(rr.Body.String(), `"certificates":[]`)
	})

	s.Run("update by id", func() {
		s.instructor.EXPECT().UpdateCertificate(gomock.Any(), s.instructorID, certID, gomock.Any()).
			Return(s.record(), models.Certificate{ID: certID}, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPatch, "/instructor/verification/certificates/"+certID.String(),
			map[string]string{"field_of_study": "Physics"})
		rr := s.do(req, instructorToken)
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("empty update is rejected", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPatch, "/instructor/verification/certificates/"+certID.String(),
			map[string]string{})
		rr := s.do(req, instructorToken)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("remove returns no content", func() {
		s.instructor.EXPECT().RemoveCertificate(gomock.Any(), s.instructorID, certID).Return(s.record(), nil)

		rr := s.do(httptest.NewRequest(http.MethodDelete, "/instructor/verification/certificates/"+certID.String(), nil), instructorToken)
		s.Equal(http.StatusNoContent, rr.Code)
	})

	s.Run("malformed id", func() {
		rr := s.do(httptest.NewRequest(http.MethodDelete, "/instructor/verification/certificates/not-a-uuid", nil), instructorToken)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})
}

func (s *HandlerSuite) TestSubmit() {
	s.Run("incomplete steps are listed", func() {
		s.instructor.EXPECT().SubmitForReview(gomock.Any(), s.instructorID).
			Return(nil, dErrors.New(dErrors.CodeInvalidState, "verification steps are incomplete").
				WithDetail("reason", "incomplete_steps").
				WithDetail("missing_steps", []models.Step{models.StepPhone, models.StepSelfie}))

		rr := s.do(httptest.NewRequest(http.MethodPost, "/instructor/verification/submit", nil), instructorToken)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnprocessableEntity, "invalid_state")
		s.Contains(rr.Body.String(), `"missing_steps":["phone","selfie"]`)
	})

	s.Run("success", func() {
		rec := s.record()
		rec.Status = models.StatusUnderReview
		s.instructor.EXPECT().SubmitForReview(gomock.Any(), s.instructorID).Return(rec, nil)

		rr := s.do(httptest.NewRequest(http.MethodPost, "/instructor/verification/submit", nil), instructorToken)
		s.Require().Equal(http.StatusOK, rr.Code)
		body := testutil.UnmarshalResponse[RecordResponse](s.T(), rr)
		s.Equal(models.StatusUnderReview, body.Status)
	})

	s.Run("reset limits refused in production", func() {
		s.instructor.EXPECT().ResetLimits(gomock.Any(), s.instructorID).
			Return(nil, dErrors.New(dErrors.CodeForbidden, "limit reset is not available in this environment"))

		rr := s.do(httptest.NewRequest(http.MethodPost, "/instructor/verification/reset-limits", nil), instructorToken)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})
}

// =============================================================================
// Admin routes
// =============================================================================

func (s *HandlerSuite) TestList() {
	s.Run("query is parsed", func() {
		s.review.EXPECT().List(gomock.Any(), review.Query{
			Statuses: []models.Status{models.StatusUnderReview, models.StatusNeedsMoreInfo},
			Search:   "grace",
			Page:     2,
			PageSize: 10,
		}).Return(&review.Page{
			Records:  []*models.Record{s.record()},
			Total:    11,
			Page:     2,
			PageSize: 10,
			Counts:   map[models.Status]int{models.StatusUnderReview: 9},
		}, nil)

		req := httptest.NewRequest(http.MethodGet,
			"/admin/verifications?status=under_review,needs_more_info&search=grace&page=2&page_size=10", nil)
		rr := s.do(req, adminToken)
		s.Require().Equal(http.StatusOK, rr.Code)
		body := testutil.UnmarshalResponse[ListResponse](s.T(), rr)
		s.Len(body.Items, 1)
		s.Equal(2, body.TotalPages)
		s.Equal(9, body.Counts[models.StatusUnderReview])
		s.Equal(0, body.Counts[models.StatusApproved])
		s.Len(body.Counts, len(models.AllStatuses))
	})

	s.Run("unknown status", func() {
		rr := s.do(httptest.NewRequest(http.MethodGet, "/admin/verifications?status=lost", nil), adminToken)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("negative page", func() {
		rr := s.do(httptest.NewRequest(http.MethodGet, "/admin/verifications?page=-1", nil), adminToken)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})
}

func (s *HandlerSuite) TestStats() {
	s.review.EXPECT().Stats(gomock.Any()).Return(&review.Stats{
		Total:    3,
		ByStatus: []review.StatusCount{{Status: models.StatusApproved, Count: 3}},
		Window:   30 * 24 * time.Hour,
		ProcessingTime: review.ProcessingStats{
			Decided: 3, Average: 4.33, P50: 2, P90: 10, P99: 10,
		},
	}, nil)

	rr := s.do(httptest.NewRequest(http.MethodGet, "/admin/verifications/stats", nil), adminToken)
	s.Require().Equal(http.StatusOK, rr.Code)
	body := testutil.UnmarshalResponse[StatsResponse](s.T(), rr)
	s.Equal(30, body.WindowDays)
	s.Equal(4.33, body.ProcessingTime.AverageHours)
	s.Equal(10.0, body.ProcessingTime.P90Hours)
}

func (s *HandlerSuite) TestDecisions() {
	rec := s.record()
	base := "/admin/verifications/" + rec.ID.String()

	s.Run("approve uses the admin identity", func() {
		s.review.EXPECT().Approve(gomock.Any(), s.adminID, rec.ID, &models.ApproveRequest{Notes: "looks good"}).
			Return(rec, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, base+"/approve", map[string]string{"notes": " looks good "})
		rr := s.do(req, adminToken)
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("approve twice conflicts", func() {
		s.review.EXPECT().Approve(gomock.Any(), s.adminID, rec.ID, gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "verification is already approved"))

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, base+"/approve", nil), adminToken)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})

	s.Run("reject requires a reason", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, base+"/reject", map[string]any{
			"step_reasons": map[string]string{"selfie": "blurry"},
		}), adminToken)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("reject with unknown step", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, base+"/reject", map[string]any{
			"reason":       "documents unreadable",
			"step_reasons": map[string]string{"fingerprint": "missing"},
		}), adminToken)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("reject forwards step reasons", func() {
		s.review.EXPECT().Reject(gomock.Any(), s.adminID, rec.ID, gomock.Any()).
			DoAndReturn(func(_ any, _, _ any, req *models.RejectRequest) (*models.Record, error) {
				s.Equal("blurry", req.Decision().StepReasons[models.StepSelfie])
				s.True(req.AllowResubmission)
				return rec, nil
			})

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, base+"/reject", map[string]any{
			"reason":             "documents unreadable",
			"step_reasons":       map[string]string{"selfie": " blurry "},
			"allow_resubmission": true,
		}), adminToken)
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("request more info", func() {
		s.review.EXPECT().RequestMoreInfo(gomock.Any(), s.adminID, rec.ID, gomock.Any()).Return(rec, nil)

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, base+"/request-info", map[string]any{
			"message": "please upload the back of your ID",
			"steps":   []string{"id_document"},
		}), adminToken)
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("suspend", func() {
		s.review.EXPECT().Suspend(gomock.Any(), s.adminID, rec.ID, &models.SuspendRequest{Reason: "fraud report", Days: 30}).
			Return(rec, nil)

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, base+"/suspend", map[string]any{
			"reason":        "fraud report",
			"duration_days": 30,
		}), adminToken)
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("reset steps needs at least one step", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, base+"/reset-steps", map[string]any{
			"steps": []string{},
		}), adminToken)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("reset steps", func() {
		s.review.EXPECT().ResetSteps(gomock.Any(), s.adminID, rec.ID, gomock.Any()).Return(rec, nil)

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, base+"/reset-steps", map[string]any{
			"steps":  []string{"selfie", "id_document"},
			"reason": "photos expired",
		}), adminToken)
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("malformed record id", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/verifications/123/approve", nil), adminToken)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})

	s.Run("get missing record", func() {
		missing := id.NewRecordID()
		s.review.EXPECT().Get(gomock.Any(), missing).Return(nil, dErrors.New(dErrors.CodeNotFound, "verification not found"))

		rr := s.do(httptest.NewRequest(http.MethodGet, "/admin/verifications/"+missing.String(), nil), adminToken)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})
}

func (s *HandlerSuite) TestReviewCertificate() {
	rec := s.record()
	certID := id.NewCertificateID()
	path := "/admin/verifications/" + rec.ID.String() + "/certificates/" + certID.String() + "/review"

	s.Run("rejection needs a reason", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, path, map[string]string{"status": "rejected"}), adminToken)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("verified", func() {
		s.review.EXPECT().ReviewCertificate(gomock.Any(), s.adminID, rec.ID, certID,
			&models.CertificateReviewRequest{Status: "verified"}).
			Return(rec, models.Certificate{ID: certID, Status: models.CertificateVerified}, nil)

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, path, map[string]string{"status": "Verified"}), adminToken)
		s.Require().Equal(http.StatusOK, rr.Code)
		s.True(strings.Contains(rr.Body.String(), `"verification_status":"verified"`))
	})
}
