package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "lectern/pkg/domain"
	dErrors "lectern/pkg/domain-errors"
)

type RecordSuite struct {
	suite.Suite
	now time.Time
}

func TestRecordSuite(t *testing.T) {
	suite.Run(t, new(RecordSuite))
}

func (s *RecordSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *RecordSuite) newRecord() *Record {
	return NewRecord(id.NewRecordID(), id.UserID(uuid.New()), s.now)
}

// completeAll drives a record through every required step.
func (s *RecordSuite) completeAll(r *Record) {
	for _, ch := range []Channel{ChannelEmail, ChannelPhone} {
		r.ApplyCodeIssued(ch, "dest", "h", s.now, time.Minute)
		s.Require().Equal(CodeAccepted, r.ApplyCodeAttempt(ch, "h", s.now, 3))
	}
	r.ApplyPersonalInfo(PersonalInfo{FirstName: "A", LastName: "B", DateOfBirth: "1990-01-01"}, s.now)
	r.ApplyIDDocument(DocumentPassport, &Image{PublicID: "f"}, nil, s.now)
	r.ApplySelfie(Image{PublicID: "s"}, LivenessCheck{IsPassed: true, Confidence: 0.95}, s.now)
	r.ApplyCertificateAdded(id.NewCertificateID(), CertificateMetadata{Type: CertBachelorsDegree}, Image{PublicID: "c"}, s.now)
}

// =============================================================================
// One-time codes
// =============================================================================

func (s *RecordSuite) TestCodeAttempt() {
	s.Run("no pending code", func() {
		r := s.newRecord()
		s.Equal(CodeMissing, r.ApplyCodeAttempt(ChannelEmail, "h", s.now, 3))
	})

	s.Run("expired code", func() {
		r := s.newRecord()
		r.ApplyCodeIssued(ChannelEmail, "a@example.com", "h", s.now, 10*time.Minute)
		s.Equal(CodeExpired, r.ApplyCodeAttempt(ChannelEmail, "h", s.now.Add(10*time.Minute), 3))
	})

	s.Run("mismatch increments attempts until locked", func() {
		r := s.newRecord()
		r.ApplyCodeIssued(ChannelPhone, "+77001234567", "right", s.now, 10*time.Minute)
		for i := 1; i <= 3; i++ {
			s.Equal(CodeMismatch, r.ApplyCodeAttempt(ChannelPhone, "wrong", s.now, 3))
			s.Equal(i, r.Phone.Attempts)
		}
		s.Equal(CodeLocked, r.ApplyCodeAttempt(ChannelPhone, "right", s.now, 3))
		s.False(r.Phone.IsVerified)

		r.ApplyCodeIssued(ChannelPhone, "+77001234567", "fresh", s.now, 10*time.Minute)
		s.Equal(0, r.Phone.Attempts)
		s.Equal(CodeAccepted, r.ApplyCodeAttempt(ChannelPhone, "fresh", s.now, 3))
	})

	s.Run("acceptance is one-shot", func() {
		r := s.newRecord()
		r.ApplyCodeIssued(ChannelEmail, "a@example.com", "h", s.now, 10*time.Minute)
		s.Equal(CodeAccepted, r.ApplyCodeAttempt(ChannelEmail, "h", s.now, 3))
		s.True(r.Email.IsVerified)
		s.Empty(r.Email.CodeHash)
		s.Nil(r.Email.CodeExpiresAt)
		s.True(r.CompletedSteps[StepEmail])
		s.Equal(StatusInProgress, r.Status)

		s.Equal(CodeMissing, r.ApplyCodeAttempt(ChannelEmail, "h", s.now, 3))
	})

	s.Run("cooldown remaining", func() {
		r := s.newRecord()
		s.Zero(r.CooldownRemaining(ChannelEmail, s.now, time.Minute))
		r.ApplyCodeIssued(ChannelEmail, "a@example.com", "h", s.now, 10*time.Minute)
		s.Equal(40*time.Second, r.CooldownRemaining(ChannelEmail, s.now.Add(20*time.Second), time.Minute))
		s.Zero(r.CooldownRemaining(ChannelEmail, s.now.Add(time.Minute), time.Minute))
	})
}

// =============================================================================
// Progress and submission
// =============================================================================

func (s *RecordSuite) TestProgress() {
	r := s.newRecord()
	s.Equal(0, r.Progress())

	last := 0
	check := func() {
		p := r.Progress()
		s.GreaterOrEqual(p, last)
		last = p
	}
	r.ApplyCodeIssued(ChannelEmail, "a@example.com", "h", s.now, time.Minute)
	r.ApplyCodeAttempt(ChannelEmail, "h", s.now, 3)
	check()
	s.Equal(16, r.Progress())
	r.ApplyProfessionalInfo(ProfessionalInfo{}, s.now)
	check()
	r.ApplyPersonalInfo(PersonalInfo{FirstName: "A"}, s.now)
	check()
	s.Equal(33, r.Progress())

	full := s.newRecord()
	s.completeAll(full)
	s.Equal(100, full.Progress())
}

func (s *RecordSuite) TestPersonalInfoCompletesBySubmission() {
	r := s.newRecord()
	r.ApplyPersonalInfo(PersonalInfo{FirstName: "A"}, s.now)
	r.CompletedSteps[StepPersonalInfo] = false
	s.True(r.IsStepComplete(StepPersonalInfo))
}

func (s *RecordSuite) TestCanSubmit() {
	s.Run("lists exactly the missing steps", func() {
		r := s.newRecord()
		r.ApplyCodeIssued(ChannelPhone, "+77001234567", "h", s.now, time.Minute)
		r.ApplyCodeAttempt(ChannelPhone, "h", s.now, 3)
		r.ApplySelfie(Image{}, LivenessCheck{IsPassed: true}, s.now)

		err := r.CanSubmit()
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
		de, _ := dErrors.As(err)
		s.Equal([]Step{StepEmail, StepPersonalInfo, StepIDDocument, StepEducationCertificate}, de.Details["missing_steps"])
	})

	s.Run("complete record can be submitted", func() {
		r := s.newRecord()
		s.completeAll(r)
		s.Require().NoError(r.CanSubmit())
		r.ApplySubmission(s.now)
		s.Equal(StatusUnderReview, r.Status)
		s.Require().NotNil(r.SubmittedAt)

		s.True(dErrors.HasCode(r.CanSubmit(), dErrors.CodeConflict))
		s.True(dErrors.HasCode(r.CanMutateSteps(), dErrors.CodeInvalidState))
	})

	s.Run("rejected record cannot be resubmitted", func() {
		r := s.newRecord()
		r.Status = StatusRejected
		s.True(dErrors.HasCode(r.CanSubmit(), dErrors.CodeInvalidState))
	})
}

// =============================================================================
// Certificates
// =============================================================================

func (s *RecordSuite) TestCertificates() {
	s.Run("verified certificate cannot be removed", func() {
		r := s.newRecord()
		cert := r.ApplyCertificateAdded(id.NewCertificateID(), CertificateMetadata{Type: CertMastersDegree}, Image{}, s.now)
		_, err := r.ApplyCertificateReview(cert.ID, CertificateVerified, "", id.UserID(uuid.New()), s.now)
		s.Require().NoError(err)

		s.True(dErrors.HasCode(r.CanEditCertificate(cert.ID), dErrors.CodeInvalidState))
	})

	s.Run("removal shrinks the list by one", func() {
		r := s.newRecord()
		a := r.ApplyCertificateAdded(id.NewCertificateID(), CertificateMetadata{Type: CertOther}, Image{}, s.now)
		r.ApplyCertificateAdded(id.NewCertificateID(), CertificateMetadata{Type: CertOther}, Image{}, s.now)

		s.Require().NoError(r.CanEditCertificate(a.ID))
		r.ApplyCertificateRemoval(a.ID, s.now)
		s.Len(r.Education.Certificates, 1)
		_, found := r.Certificate(a.ID)
		s.False(found)
	})

	s.Run("update resets rejection to pending", func() {
		r := s.newRecord()
		cert := r.ApplyCertificateAdded(id.NewCertificateID(), CertificateMetadata{Type: CertOther}, Image{}, s.now)
		_, err := r.ApplyCertificateReview(cert.ID, CertificateRejected, "blurry scan", id.UserID(uuid.New()), s.now)
		s.Require().NoError(err)

		institution := "KBTU"
		updated := r.ApplyCertificateUpdate(cert.ID, CertificatePatch{InstitutionName: &institution}, s.now)
		s.Equal(CertificatePending, updated.Status)
		s.Empty(updated.RejectionReason)
		s.Equal("KBTU", updated.InstitutionName)
		s.Nil(updated.ReviewedBy)
	})

	s.Run("unknown certificate", func() {
		r := s.newRecord()
		s.True(dErrors.HasCode(r.CanEditCertificate(id.NewCertificateID()), dErrors.CodeNotFound))
	})
}

// =============================================================================
// Admin decisions
// =============================================================================

func (s *RecordSuite) TestAdminDecisions() {
	admin := id.UserID(uuid.New())

	s.Run("approve stamps sub-verifications", func() {
		r := s.newRecord()
		s.completeAll(r)
		r.ApplySubmission(s.now)

		s.Require().NoError(r.CanApprove())
		r.ApplyApproval(admin, "looks good", s.now)
		s.Equal(StatusApproved, r.Status)
		s.True(r.IDDocument.IsVerified)
		s.True(r.Selfie.IsVerified)
		s.Equal(admin, *r.Selfie.VerifiedBy)
		s.True(dErrors.HasCode(r.CanApprove(), dErrors.CodeConflict))
	})

	s.Run("reject twice conflicts", func() {
		r := s.newRecord()
		s.completeAll(r)
		r.ApplySubmission(s.now)

		s.Require().NoError(r.CanReject())
		r.ApplyRejection(admin, RejectionDecision{
			GeneralReason: "documents unreadable",
			StepReasons:   map[Step]string{StepSelfie: "face not visible"},
		}, s.now)
		s.Equal("face not visible", r.Selfie.RejectionReason)
		s.Empty(r.IDDocument.RejectionReason)
		s.True(dErrors.HasCode(r.CanReject(), dErrors.CodeConflict))
	})

	s.Run("pending record cannot be approved", func() {
		r := s.newRecord()
		s.True(dErrors.HasCode(r.CanApprove(), dErrors.CodeInvalidState))
	})

	s.Run("needs_more_info must be resubmitted before a decision", func() {
		r := s.newRecord()
		s.completeAll(r)
		r.ApplySubmission(s.now)
		r.ApplyStepReset([]Step{StepSelfie}, s.now)

		s.True(dErrors.HasCode(r.CanApprove(), dErrors.CodeInvalidState))
		s.True(dErrors.HasCode(r.CanReject(), dErrors.CodeInvalidState))
	})

	s.Run("suspension from approved", func() {
		r := s.newRecord()
		r.Status = StatusApproved
		s.Require().NoError(r.CanSuspend())
		r.ApplySuspension(admin, "policy violation", 7, s.now)
		s.Equal(StatusSuspended, r.Status)
		s.Equal(s.now.Add(7*24*time.Hour), *r.SuspendedUntil)

		s.Require().NoError(r.CanSuspend())
		r.ApplySuspension(admin, "repeat violation", 0, s.now)
		s.Equal("repeat violation", r.SuspensionReason)
		s.Nil(r.SuspendedUntil)
	})

	s.Run("step reset returns record under review to needs_more_info", func() {
		r := s.newRecord()
		s.completeAll(r)
		r.ApplySubmission(s.now)

		s.Require().NoError(r.CanResetSteps())
		r.ApplyStepReset([]Step{StepEmail, StepSelfie}, s.now)
		s.Equal(StatusNeedsMoreInfo, r.Status)
		s.Equal([]Step{StepEmail, StepSelfie}, r.MissingSteps())
		s.False(r.Email.IsVerified)
	})
}

func (s *RecordSuite) TestClone() {
	r := s.newRecord()
	s.completeAll(r)
	c := r.Clone()

	c.CompletedSteps[StepEmail] = false
	c.Education.Certificates[0].InstitutionName = "changed"
	c.History[0].Action = ActionRejected
	*c.Email.VerifiedAt = s.now.Add(time.Hour)

	s.True(r.CompletedSteps[StepEmail])
	s.Empty(r.Education.Certificates[0].InstitutionName)
	s.Equal(ActionInitialized, r.History[0].Action)
	s.Equal(s.now, *r.Email.VerifiedAt)
}
