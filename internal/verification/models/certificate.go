package models

import (
	"time"

	id "lectern/pkg/domain"
	dErrors "lectern/pkg/domain-errors"
)

// CertificateType is the closed set of accepted education credentials.
type CertificateType string

const (
	CertHighSchoolDiploma       CertificateType = "high_school_diploma"
	CertAssociateDegree         CertificateType = "associate_degree"
	CertBachelorsDegree         CertificateType = "bachelors_degree"
	CertMastersDegree           CertificateType = "masters_degree"
	CertDoctorateDegree         CertificateType = "doctorate_degree"
	CertProfessional            CertificateType = "professional_certificate"
	CertTeaching                CertificateType = "teaching_certificate"
	CertVocational              CertificateType = "vocational_certificate"
	CertIndustryCertification   CertificateType = "industry_certification"
	CertOnlineCourseCertificate CertificateType = "online_course_certificate"
	CertOther                   CertificateType = "other"
)

var certificateTypes = map[CertificateType]struct{}{
	CertHighSchoolDiploma:       {},
	CertAssociateDegree:         {},
	CertBachelorsDegree:         {},
	CertMastersDegree:           {},
	CertDoctorateDegree:         {},
	CertProfessional:            {},
	CertTeaching:                {},
	CertVocational:              {},
	CertIndustryCertification:   {},
	CertOnlineCourseCertificate: {},
	CertOther:                   {},
}

func (t CertificateType) IsValid() bool {
	_, ok := certificateTypes[t]
	return ok
}

// CertificateStatus is the per-certificate review state.
type CertificateStatus string

const (
	CertificatePending  CertificateStatus = "pending"
	CertificateVerified CertificateStatus = "verified"
	CertificateRejected CertificateStatus = "rejected"
)

func (s CertificateStatus) IsValid() bool {
	return s == CertificatePending || s == CertificateVerified || s == CertificateRejected
}

// OverallStatus summarizes all certificates of a record.
type OverallStatus string

const (
	OverallNotStarted        OverallStatus = "not_started"
	OverallPending           OverallStatus = "pending"
	OverallPartiallyVerified OverallStatus = "partially_verified"
	OverallVerified          OverallStatus = "verified"
	OverallRejected          OverallStatus = "rejected"
)

type Certificate struct {
	ID              id.CertificateID  `json:"id"`
	Type            CertificateType   `json:"certificate_type"`
	InstitutionName string            `json:"institution_name"`
	FieldOfStudy    string            `json:"field_of_study"`
	GraduationYear  int               `json:"graduation_year"`
	GPA             *float64          `json:"gpa,omitempty"`
	Document        Image             `json:"certificate_document"`
	Status          CertificateStatus `json:"verification_status"`
	RejectionReason string            `json:"rejection_reason,omitempty"`
	ReviewedBy      *id.UserID        `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time        `json:"reviewed_at,omitempty"`
	UploadedAt      time.Time         `json:"uploaded_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// CertificateMetadata is the instructor-editable part of a certificate.
type CertificateMetadata struct {
	Type            CertificateType
	InstitutionName string
	FieldOfStudy    string
	GraduationYear  int
	GPA             *float64
}

// CertificatePatch carries optional metadata edits; nil fields are unchanged.
type CertificatePatch struct {
	Type            *CertificateType
	InstitutionName *string
	FieldOfStudy    *string
	GraduationYear  *int
	GPA             *float64
}

func (r *Record) certificateIndex(certID id.CertificateID) int {
	for i := range r.Education.Certificates {
		if r.Education.Certificates[i].ID == certID {
			return i
		}
	}
	return -1
}

// Certificate returns a copy of the certificate with certID.
func (r *Record) Certificate(certID id.CertificateID) (Certificate, bool) {
	i := r.certificateIndex(certID)
	if i < 0 {
		return Certificate{}, false
	}
	return r.Education.Certificates[i], true
}

// ApplyCertificateAdded appends a pending certificate and flags the education
// step.
func (r *Record) ApplyCertificateAdded(certID id.CertificateID, meta CertificateMetadata, doc Image, now time.Time) Certificate {
	cert := Certificate{
		ID:              certID,
		Type:            meta.Type,
		InstitutionName: meta.InstitutionName,
		FieldOfStudy:    meta.FieldOfStudy,
		GraduationYear:  meta.GraduationYear,
		GPA:             meta.GPA,
		Document:        doc,
		Status:          CertificatePending,
		UploadedAt:      now,
		UpdatedAt:       now,
	}
	r.Education.Certificates = append(r.Education.Certificates, cert)
	r.CompletedSteps[StepEducationCertificate] = true
	r.touch(now)
	return cert
}

// CanEditCertificate returns NotFound for an unknown ID and InvalidState for a
// verified certificate.
func (r *Record) CanEditCertificate(certID id.CertificateID) error {
	i := r.certificateIndex(certID)
	if i < 0 {
		return dErrors.New(dErrors.CodeNotFound, "certificate not found")
	}
	if r.Education.Certificates[i].Status == CertificateVerified {
		return dErrors.New(dErrors.CodeInvalidState, "verified certificates cannot be changed")
	}
	return nil
}

// ApplyCertificateUpdate edits metadata, resets the status to pending and
// clears any prior rejection. Call CanEditCertificate first.
func (r *Record) ApplyCertificateUpdate(certID id.CertificateID, patch CertificatePatch, now time.Time) Certificate {
	c := &r.Education.Certificates[r.certificateIndex(certID)]
	if patch.Type != nil {
		c.Type = *patch.Type
	}
	if patch.InstitutionName != nil {
		c.InstitutionName = *patch.InstitutionName
	}
	if patch.FieldOfStudy != nil {
		c.FieldOfStudy = *patch.FieldOfStudy
	}
	if patch.GraduationYear != nil {
		c.GraduationYear = *patch.GraduationYear
	}
	if patch.GPA != nil {
		gpa := *patch.GPA
		c.GPA = &gpa
	}
	c.Status = CertificatePending
	c.RejectionReason = ""
	c.ReviewedBy = nil
	c.ReviewedAt = nil
	c.UpdatedAt = now
	r.touch(now)
	return *c
}

// ApplyCertificateRemoval drops the certificate and returns it. The education
// step flag stays set even when the list becomes empty; submission checks the
// list itself. Call CanEditCertificate first.
func (r *Record) ApplyCertificateRemoval(certID id.CertificateID, now time.Time) Certificate {
	i := r.certificateIndex(certID)
	removed := r.Education.Certificates[i]
	certs := make([]Certificate, 0, len(r.Education.Certificates)-1)
	certs = append(certs, r.Education.Certificates[:i]...)
	certs = append(certs, r.Education.Certificates[i+1:]...)
	r.Education.Certificates = certs
	r.touch(now)
	return removed
}

// ApplyCertificateReview records an admin decision on one certificate. Admins
// may override verified certificates.
func (r *Record) ApplyCertificateReview(certID id.CertificateID, status CertificateStatus, reason string, adminID id.UserID, now time.Time) (Certificate, error) {
	i := r.certificateIndex(certID)
	if i < 0 {
		return Certificate{}, dErrors.New(dErrors.CodeNotFound, "certificate not found")
	}
	c := &r.Education.Certificates[i]
	c.Status = status
	c.RejectionReason = ""
	if status == CertificateRejected {
		c.RejectionReason = reason
	}
	reviewer := adminID
	c.ReviewedBy = &reviewer
	reviewedAt := now
	c.ReviewedAt = &reviewedAt
	c.UpdatedAt = now
	r.UpdatedAt = now
	return *c, nil
}
