package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"lectern/internal/media"
	"lectern/internal/notify"
	"lectern/internal/verification/code"
	"lectern/internal/verification/models"
	"lectern/internal/verification/service/mocks"
	"lectern/internal/verification/store"
	id "lectern/pkg/domain"
	dErrors "lectern/pkg/domain-errors"
	"lectern/pkg/platform/audit"
	"lectern/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	records    *store.InMemoryStore
	blobs      *media.MemoryStore
	notifier   *mocks.MockNotifier
	publisher  *mocks.MockAuditPublisher
	service    *Service
	instructor id.UserID
	now        time.Time
	ctx        context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.records = store.NewInMemory()
	s.blobs = media.NewMemoryStore("https://cdn.test")
	s.notifier = mocks.NewMockNotifier(s.ctrl)
	s.publisher = mocks.NewMockAuditPublisher(s.ctrl)
	s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	s.service = s.newService(Config{ExposeCodes: true, ResendCooldown: time.Minute})
	s.instructor = id.UserID(uuid.New())
	s.now = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	s.ctx = s.at(s.now)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) newService(cfg Config, opts ...Option) *Service {
	hasher, err := code.NewHasher([]byte("test-code-hash-key"))
	s.Require().NoError(err)
	opts = append([]Option{
		WithNotifier(s.notifier),
		WithAuditPublisher(s.publisher),
	}, opts...)
	return New(s.records, s.blobs, hasher, cfg, opts...)
}

func (s *ServiceSuite) at(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func (s *ServiceSuite) initialize() *models.Record {
	rec, _, err := s.service.Initialize(s.ctx, s.instructor)
	s.Require().NoError(err)
	return rec
}

func pngFile(t *testing.T, field, name string, w, h int) *media.File {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return &media.File{Field: field, Filename: name, ContentType: "image/png", Data: buf.Bytes()}
}

var certificatePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func pdfFile() *media.File {
	return &media.File{Field: "certificate_document", Filename: "diploma.pdf", ContentType: "application/pdf", Data: certificatePDF}
}

func certificateRequest() *models.CertificateRequest {
	return &models.CertificateRequest{
		CertificateType: "bachelors_degree",
		InstitutionName: "State University",
		FieldOfStudy:    "Mathematics",
		GraduationYear:  2018,
	}
}

func (s *ServiceSuite) verifyChannel(ch models.Channel) {
	s.notifier.EXPECT().SendEmail(gomock.Any(), gomock.Any()).AnyTimes()
	s.notifier.EXPECT().SendSMS(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	var (
		dispatch *CodeDispatch
		err      error
	)
	if ch == models.ChannelEmail {
		dispatch, err = s.service.SendEmailCode(s.ctx, s.instructor, "ada@example.com")
	} else {
		dispatch, err = s.service.SendPhoneCode(s.ctx, s.instructor, "+15551234567")
	}
	s.Require().NoError(err)
	_, err = s.service.VerifyCode(s.ctx, s.instructor, ch, dispatch.Code)
	s.Require().NoError(err)
}

// completeSteps runs every required step through the service.
func (s *ServiceSuite) completeSteps() {
	s.verifyChannel(models.ChannelEmail)
	s.verifyChannel(models.ChannelPhone)
	_, err := s.service.SubmitPersonalInfo(s.ctx, s.instructor, &models.PersonalInfoRequest{
		FirstName: "Ada", LastName: "Lovelace", DateOfBirth: "1990-12-10",
	})
	s.Require().NoError(err)
	_, err = s.service.UploadIDDocuments(s.ctx, s.instructor,
		&models.IDDocumentRequest{DocumentType: "passport"},
		pngFile(s.T(), "front_image", "front.png", 32, 20), nil)
	s.Require().NoError(err)
	_, err = s.service.UploadSelfie(s.ctx, s.instructor, pngFile(s.T(), "selfie", "me.png", 40, 60))
	s.Require().NoError(err)
	_, _, err = s.service.AddCertificate(s.ctx, s.instructor, certificateRequest(), pdfFile())
	s.Require().NoError(err)
}

// =============================================================================
// Lifecycle
// =============================================================================

func (s *ServiceSuite) TestInitialize() {
	s.Run("first call creates a pending record", func() {
		rec, created, err := s.service.Initialize(s.ctx, s.instructor)
		s.Require().NoError(err)
		s.True(created)
		s.Equal(models.StatusPending, rec.Status)
		s.Equal(0, rec.Progress())
	})

	s.Run("second call returns the same record", func() {
		first, _, err := s.service.Initialize(s.ctx, s.instructor)
		s.Require().NoError(err)
		again, created, err := s.service.Initialize(s.ctx, s.instructor)
		s.Require().NoError(err)
		s.False(created)
		s.Equal(first.ID, again.ID)
	})

	s.Run("status before initialize is not found", func() {
		_, err := s.service.GetStatus(s.ctx, id.UserID(uuid.New()))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// One-time codes
// =============================================================================

func (s *ServiceSuite) TestSendCode() {
	s.Run("email code is delivered and the destination masked", func() {
		s.SetupTest()
		s.initialize()
		var sent notify.Email
		s.notifier.EXPECT().SendEmail(gomock.Any(), gomock.Any()).Do(func(_ context.Context, msg notify.Email) {
			sent = msg
		})

		dispatch, err := s.service.SendEmailCode(s.ctx, s.instructor, "ada@example.com")
		s.Require().NoError(err)
		s.Len(dispatch.Code, 6)
		s.NotEqual("ada@example.com", dispatch.Destination)
		s.Equal(s.now.Add(10*time.Minute), dispatch.ExpiresAt)
		s.Equal("ada@example.com", sent.To)
		s.Contains(sent.HTML, dispatch.Code)

		rec, err := s.service.GetStatus(s.ctx, s.instructor)
		s.Require().NoError(err)
		s.NotEmpty(rec.Email.CodeHash)
		s.NotEqual(dispatch.Code, rec.Email.CodeHash)
	})

	s.Run("resend inside the cooldown is rate limited", func() {
		s.SetupTest()
		s.initialize()
		s.notifier.EXPECT().SendSMS(gomock.Any(), "+15551234567", gomock.Any()).Times(1)

		_, err := s.service.SendPhoneCode(s.ctx, s.instructor, "+15551234567")
		s.Require().NoError(err)
		_, err = s.service.SendPhoneCode(s.at(s.now.Add(20*time.Second)), s.instructor, "+15551234567")
		s.True(dErrors.HasCode(err, dErrors.CodeRateLimited))
		retry, ok := dErrors.RetryAfter(err)
		s.True(ok)
		s.Equal(40*time.Second, retry)
	})

	s.Run("resend after the cooldown replaces the code", func() {
		s.SetupTest()
		generator := mocks.NewMockCodeGenerator(s.ctrl)
		gomock.InOrder(
			generator.EXPECT().Generate().Return("111111", nil),
			generator.EXPECT().Generate().Return("222222", nil),
		)
		s.service = s.newService(Config{ResendCooldown: time.Minute}, WithCodeGenerator(generator))
		s.initialize()
		s.notifier.EXPECT().SendSMS(gomock.Any(), gomock.Any(), gomock.Any()).Times(2)

		_, err := s.service.SendPhoneCode(s.ctx, s.instructor, "+15551234567")
		s.Require().NoError(err)
		later := s.at(s.now.Add(2 * time.Minute))
		_, err = s.service.SendPhoneCode(later, s.instructor, "+15551234567")
		s.Require().NoError(err)

		_, err = s.service.VerifyCode(later, s.instructor, models.ChannelPhone, "111111")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidCode))
		rec, err := s.service.VerifyCode(later, s.instructor, models.ChannelPhone, "222222")
		s.Require().NoError(err)
		s.True(rec.Phone.IsVerified)
	})

	s.Run("missing email without a linked account is a validation error", func() {
		s.SetupTest()
		s.initialize()
		_, err := s.service.SendEmailCode(s.ctx, s.instructor, "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("verified channel refuses a new code", func() {
		s.SetupTest()
		s.initialize()
		s.verifyChannel(models.ChannelEmail)
		_, err := s.service.SendEmailCode(s.at(s.now.Add(time.Hour)), s.instructor, "ada@example.com")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("codes are hidden unless exposed", func() {
		s.SetupTest()
		s.service = s.newService(Config{})
		s.initialize()
		s.notifier.EXPECT().SendEmail(gomock.Any(), gomock.Any())
		dispatch, err := s.service.SendEmailCode(s.ctx, s.instructor, "ada@example.com")
		s.Require().NoError(err)
		s.Empty(dispatch.Code)
	})
}

func (s *ServiceSuite) TestVerifyCode() {
	send := func() string {
		s.notifier.EXPECT().SendEmail(gomock.Any(), gomock.Any()).AnyTimes()
		dispatch, err := s.service.SendEmailCode(s.ctx, s.instructor, "ada@example.com")
		s.Require().NoError(err)
		return dispatch.Code
	}

	s.Run("correct code completes the step", func() {
		s.SetupTest()
		s.initialize()
		plain := send()

		rec, err := s.service.VerifyCode(s.ctx, s.instructor, models.ChannelEmail, plain)
		s.Require().NoError(err)
		s.True(rec.Email.IsVerified)
		s.True(rec.CompletedSteps[models.StepEmail])
		s.Empty(rec.Email.CodeHash)
		s.Equal(models.StatusInProgress, rec.Status)
	})

	s.Run("wrong codes count attempts and then lock", func() {
		s.SetupTest()
		s.initialize()
		plain := send()

		for remaining := 2; remaining >= 0; remaining-- {
			_, err := s.service.VerifyCode(s.ctx, s.instructor, models.ChannelEmail, "000000")
			s.Require().True(dErrors.HasCode(err, dErrors.CodeInvalidCode))
			de, _ := dErrors.As(err)
			s.Equal(remaining, de.Details["attempts_remaining"])
		}
		rec, err := s.service.GetStatus(s.ctx, s.instructor)
		s.Require().NoError(err)
		s.Equal(3, rec.Email.Attempts)

		_, err = s.service.VerifyCode(s.ctx, s.instructor, models.ChannelEmail, plain)
		s.True(dErrors.HasCode(err, dErrors.CodeAttemptsExceeded))
	})

	s.Run("expired code", func() {
		s.SetupTest()
		s.initialize()
		plain := send()

		_, err := s.service.VerifyCode(s.at(s.now.Add(11*time.Minute)), s.instructor, models.ChannelEmail, plain)
		s.True(dErrors.HasCode(err, dErrors.CodeExpired))
	})

	s.Run("no pending code", func() {
		s.SetupTest()
		s.initialize()
		_, err := s.service.VerifyCode(s.ctx, s.instructor, models.ChannelEmail, "123456")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("concurrent correct submissions succeed exactly once", func() {
		s.SetupTest()
		s.initialize()
		plain := send()

		const workers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
		)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.service.VerifyCode(s.ctx, s.instructor, models.ChannelEmail, plain); err == nil {
					mu.Lock()
					successes++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		s.Equal(1, successes)
	})

	s.Run("verification history is published", func() {
		s.SetupTest()
		publisher := mocks.NewMockAuditPublisher(s.ctrl)
		s.service = s.newService(Config{ExposeCodes: true}, WithAuditPublisher(publisher))
		var actions []string
		publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
			actions = append(actions, e.Action)
			return nil
		}).AnyTimes()

		s.initialize()
		plain := send()
		_, err := s.service.VerifyCode(s.ctx, s.instructor, models.ChannelEmail, plain)
		s.Require().NoError(err)
		s.Equal([]string{"initialized", "code_sent", "code_verified"}, actions)
	})
}

// =============================================================================
// Step processors
// =============================================================================

func (s *ServiceSuite) TestPersonalInfo() {
	s.Run("valid info completes the step", func() {
		s.SetupTest()
		s.initialize()
		rec, err := s.service.SubmitPersonalInfo(s.ctx, s.instructor, &models.PersonalInfoRequest{
			FirstName: " Ada ", LastName: "Lovelace", DateOfBirth: "1990-12-10",
		})
		s.Require().NoError(err)
		s.Equal("Ada", rec.PersonalInfo.FirstName)
		s.True(rec.IsStepComplete(models.StepPersonalInfo))
	})

	s.Run("under-age instructors are refused", func() {
		s.SetupTest()
		s.initialize()
		_, err := s.service.SubmitPersonalInfo(s.ctx, s.instructor, &models.PersonalInfoRequest{
			FirstName: "Young", LastName: "Person", DateOfBirth: "2015-01-01",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("missing fields are reported per field", func() {
		s.SetupTest()
		s.initialize()
		_, err := s.service.SubmitPersonalInfo(s.ctx, s.instructor, &models.PersonalInfoRequest{})
		de, ok := dErrors.As(err)
		s.Require().True(ok)
		s.Equal(dErrors.CodeValidation, de.Code)
		s.Contains(de.Details["fields"], "first_name")
	})
}

// failingBlobs fails uploads whose name starts with the given prefix.
type failingBlobs struct {
	*media.MemoryStore
	prefix string
}

func (f failingBlobs) Upload(ctx context.Context, u media.Upload) (media.Object, error) {
	if len(u.Name) >= len(f.prefix) && u.Name[:len(f.prefix)] == f.prefix {
		return media.Object{}, errors.New("storage unavailable")
	}
	return f.MemoryStore.Upload(ctx, u)
}

func (s *ServiceSuite) TestUploadIDDocuments() {
	req := func() *models.IDDocumentRequest { return &models.IDDocumentRequest{DocumentType: "national_id"} }

	s.Run("both sides are stored", func() {
		s.SetupTest()
		s.initialize()
		rec, err := s.service.UploadIDDocuments(s.ctx, s.instructor, req(),
			pngFile(s.T(), "front_image", "front.png", 16, 10),
			pngFile(s.T(), "back_image", "back.png", 16, 10))
		s.Require().NoError(err)
		s.NotNil(rec.IDDocument.Front)
		s.NotNil(rec.IDDocument.Back)
		s.Equal(2, s.blobs.Len())
	})

	s.Run("replacement releases the previous blobs", func() {
		s.SetupTest()
		s.initialize()
		for range 2 {
			_, err := s.service.UploadIDDocuments(s.ctx, s.instructor, req(),
				pngFile(s.T(), "front_image", "front.png", 16, 10),
				pngFile(s.T(), "back_image", "back.png", 16, 10))
			s.Require().NoError(err)
		}
		s.Equal(2, s.blobs.Len())
	})

	s.Run("at least one side is required", func() {
		s.SetupTest()
		s.initialize()
		_, err := s.service.UploadIDDocuments(s.ctx, s.instructor, req(), nil, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unsupported file type", func() {
		s.SetupTest()
		s.initialize()
		_, err := s.service.UploadIDDocuments(s.ctx, s.instructor, req(), pdfFile(), nil)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("a failed side leaves no orphaned blobs", func() {
		s.SetupTest()
		s.service = s.newService(Config{}, func(svc *Service) {
			svc.blobs = failingBlobs{MemoryStore: s.blobs, prefix: "back-"}
		})
		s.initialize()
		_, err := s.service.UploadIDDocuments(s.ctx, s.instructor, req(),
			pngFile(s.T(), "front_image", "front.png", 16, 10),
			pngFile(s.T(), "back_image", "back.png", 16, 10))
		s.True(dErrors.HasCode(err, dErrors.CodeUploadFailed))
		s.Equal(0, s.blobs.Len())

		rec, err := s.service.GetStatus(s.ctx, s.instructor)
		s.Require().NoError(err)
		s.Nil(rec.IDDocument)
	})
}

func (s *ServiceSuite) TestUploadSelfie() {
	s.Run("selfie is cropped square and stored", func() {
		s.SetupTest()
		s.initialize()
		rec, err := s.service.UploadSelfie(s.ctx, s.instructor, pngFile(s.T(), "selfie", "me.png", 40, 60))
		s.Require().NoError(err)
		s.True(rec.Selfie.Liveness.IsPassed)
		s.Equal("image/jpeg", rec.Selfie.Image.MimeType)

		stored, ok := s.blobs.Get(rec.Selfie.Image.PublicID)
		s.Require().True(ok)
		img, _, err := image.Decode(bytes.NewReader(stored.Data))
		s.Require().NoError(err)
		s.Equal(media.SelfieSize, img.Bounds().Dx())
		s.Equal(media.SelfieSize, img.Bounds().Dy())
	})

	s.Run("failed liveness stores nothing", func() {
		s.SetupTest()
		scorer := mocks.NewMockLivenessScorer(s.ctrl)
		scorer.EXPECT().Score(gomock.Any(), gomock.Any()).Return(0.4, nil)
		s.service = s.newService(Config{}, WithLiveness(scorer))
		s.initialize()

		_, err := s.service.UploadSelfie(s.ctx, s.instructor, pngFile(s.T(), "selfie", "me.png", 40, 60))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal(0, s.blobs.Len())
	})
}

// =============================================================================
// Certificates
// =============================================================================

func (s *ServiceSuite) TestCertificates() {
	s.Run("add, update and remove", func() {
		s.SetupTest()
		s.initialize()
		rec, cert, err := s.service.AddCertificate(s.ctx, s.instructor, certificateRequest(), pdfFile())
		s.Require().NoError(err)
		s.Equal(models.CertificatePending, cert.Status)
		s.True(rec.CompletedSteps[models.StepEducationCertificate])
		s.Equal(models.OverallPending, rec.Education.OverallStatus)
		s.True(rec.Education.MinimumRequirementMet)

		field := "Applied Mathematics"
		_, updated, err := s.service.UpdateCertificate(s.ctx, s.instructor, cert.ID,
			&models.UpdateCertificateRequest{FieldOfStudy: &field})
		s.Require().NoError(err)
		s.Equal(field, updated.FieldOfStudy)

		rec, err = s.service.RemoveCertificate(s.ctx, s.instructor, cert.ID)
		s.Require().NoError(err)
		s.Empty(rec.Education.Certificates)
		s.Equal(0, s.blobs.Len())
	})

	s.Run("graduation year is bounded by the request clock", func() {
		s.SetupTest()
		s.initialize()
		req := certificateRequest()
		req.GraduationYear = 2032
		_, _, err := s.service.AddCertificate(s.ctx, s.instructor, req, pdfFile())
		s.Require().NoError(err)

		req = certificateRequest()
		req.GraduationYear = 2032
		_, _, err = s.service.AddCertificate(s.at(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)), s.instructor, req, pdfFile())
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		edu, err := s.service.ListCertificates(s.ctx, s.instructor)
		s.Require().NoError(err)
		s.Require().Len(edu.Certificates, 1)
		year := 2033
		_, _, err = s.service.UpdateCertificate(s.ctx, s.instructor, edu.Certificates[0].ID,
			&models.UpdateCertificateRequest{GraduationYear: &year})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("verified certificates are frozen", func() {
		s.SetupTest()
		rec := s.initialize()
		_, cert, err := s.service.AddCertificate(s.ctx, s.instructor, certificateRequest(), pdfFile())
		s.Require().NoError(err)
		_, err = s.records.Execute(s.ctx, rec.ID, func(r *models.Record) error {
			_, err := r.ApplyCertificateReview(cert.ID, models.CertificateVerified, "", id.UserID(uuid.New()), s.now)
			return err
		})
		s.Require().NoError(err)

		_, err = s.service.RemoveCertificate(s.ctx, s.instructor, cert.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("unknown certificate", func() {
		s.SetupTest()
		s.initialize()
		_, err := s.service.RemoveCertificate(s.ctx, s.instructor, id.NewCertificateID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("document is required", func() {
		s.SetupTest()
		s.initialize()
		_, _, err := s.service.AddCertificate(s.ctx, s.instructor, certificateRequest(), nil)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// Submission
// =============================================================================

func (s *ServiceSuite) TestSubmitForReview() {
	s.Run("incomplete steps are listed", func() {
		s.SetupTest()
		s.initialize()
		_, err := s.service.SubmitForReview(s.ctx, s.instructor)
		de, ok := dErrors.As(err)
		s.Require().True(ok)
		s.Equal(dErrors.CodeInvalidState, de.Code)
		s.Equal("incomplete_steps", de.Details["reason"])
		s.Len(de.Details["missing_steps"], len(models.RequiredSteps))
	})

	s.Run("complete record moves to review and alerts admins", func() {
		s.SetupTest()
		s.initialize()
		s.completeSteps()
		s.notifier.EXPECT().AlertAdmins(gomock.Any(), "New instructor verification submitted", gomock.Any())

		rec, err := s.service.SubmitForReview(s.ctx, s.instructor)
		s.Require().NoError(err)
		s.Equal(models.StatusUnderReview, rec.Status)
		s.Equal(100, rec.Progress())
		s.NotNil(rec.SubmittedAt)
	})

	s.Run("steps are frozen under review", func() {
		s.SetupTest()
		s.initialize()
		s.completeSteps()
		s.notifier.EXPECT().AlertAdmins(gomock.Any(), gomock.Any(), gomock.Any())
		_, err := s.service.SubmitForReview(s.ctx, s.instructor)
		s.Require().NoError(err)

		_, err = s.service.SubmitProfessionalInfo(s.ctx, s.instructor, &models.ProfessionalInfoRequest{Headline: "Statistics lecturer"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
		_, err = s.service.SubmitForReview(s.ctx, s.instructor)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("removing the last certificate blocks submission", func() {
		s.SetupTest()
		s.initialize()
		s.completeSteps()
		edu, err := s.service.ListCertificates(s.ctx, s.instructor)
		s.Require().NoError(err)
		_, err = s.service.RemoveCertificate(s.ctx, s.instructor, edu.Certificates[0].ID)
		s.Require().NoError(err)

		_, err = s.service.SubmitForReview(s.ctx, s.instructor)
		de, ok := dErrors.As(err)
		s.Require().True(ok)
		s.Equal("no_certificates", de.Details["reason"])
	})
}

func (s *ServiceSuite) TestResetLimits() {
	s.Run("refused unless enabled", func() {
		s.SetupTest()
		s.initialize()
		_, err := s.service.ResetLimits(s.ctx, s.instructor)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("clears cooldowns and attempts", func() {
		s.SetupTest()
		s.service = s.newService(Config{ExposeCodes: true, AllowLimitReset: true, ResendCooldown: time.Minute})
		s.initialize()
		s.notifier.EXPECT().SendEmail(gomock.Any(), gomock.Any()).Times(2)
		_, err := s.service.SendEmailCode(s.ctx, s.instructor, "ada@example.com")
		s.Require().NoError(err)
		_, err = s.service.VerifyCode(s.ctx, s.instructor, models.ChannelEmail, "000000")
		s.Require().Error(err)

		rec, err := s.service.ResetLimits(s.ctx, s.instructor)
		s.Require().NoError(err)
		s.Zero(rec.Email.Attempts)
		s.Nil(rec.Email.LastCodeSentAt)

		_, err = s.service.SendEmailCode(s.ctx, s.instructor, "ada@example.com")
		s.NoError(err)
	})
}
