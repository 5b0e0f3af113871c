package models

import (
	"maps"
	"slices"
	"time"

	id "lectern/pkg/domain"
)

// Clone returns a deep copy. Stores hand out clones so callers never share
// mutable state with the stored document.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.CompletedSteps = maps.Clone(r.CompletedSteps)
	c.Email = r.Email.clone()
	c.Phone = r.Phone.clone()
	if r.PersonalInfo != nil {
		p := *r.PersonalInfo
		p.SubmittedAt = cloneTime(p.SubmittedAt)
		c.PersonalInfo = &p
	}
	if r.ProfessionalInfo != nil {
		p := *r.ProfessionalInfo
		p.Expertise = slices.Clone(p.Expertise)
		p.Education = slices.Clone(p.Education)
		p.Certifications = slices.Clone(p.Certifications)
		p.Portfolio = slices.Clone(p.Portfolio)
		p.Languages = slices.Clone(p.Languages)
		p.SubmittedAt = cloneTime(p.SubmittedAt)
		c.ProfessionalInfo = &p
	}
	if r.IDDocument != nil {
		d := *r.IDDocument
		d.Front = cloneImage(d.Front)
		d.Back = cloneImage(d.Back)
		d.VerifiedBy = cloneUser(d.VerifiedBy)
		d.VerifiedAt = cloneTime(d.VerifiedAt)
		c.IDDocument = &d
	}
	if r.Selfie != nil {
		s := *r.Selfie
		s.VerifiedBy = cloneUser(s.VerifiedBy)
		s.VerifiedAt = cloneTime(s.VerifiedAt)
		c.Selfie = &s
	}
	c.Education.Certificates = make([]Certificate, len(r.Education.Certificates))
	for i, cert := range r.Education.Certificates {
		if cert.GPA != nil {
			gpa := *cert.GPA
			cert.GPA = &gpa
		}
		cert.ReviewedBy = cloneUser(cert.ReviewedBy)
		cert.ReviewedAt = cloneTime(cert.ReviewedAt)
		c.Education.Certificates[i] = cert
	}
	if r.AdminReview != nil {
		a := *r.AdminReview
		a.StepReasons = maps.Clone(a.StepReasons)
		a.RequestedSteps = slices.Clone(a.RequestedSteps)
		c.AdminReview = &a
	}
	c.SubmittedAt = cloneTime(r.SubmittedAt)
	c.ApprovedAt = cloneTime(r.ApprovedAt)
	c.RejectedAt = cloneTime(r.RejectedAt)
	c.SuspendedAt = cloneTime(r.SuspendedAt)
	c.SuspendedUntil = cloneTime(r.SuspendedUntil)
	c.History = make([]HistoryEntry, len(r.History))
	for i, h := range r.History {
		h.Metadata = maps.Clone(h.Metadata)
		c.History[i] = h
	}
	return &c
}

func (c CodeChannel) clone() CodeChannel {
	c.VerifiedAt = cloneTime(c.VerifiedAt)
	c.CodeExpiresAt = cloneTime(c.CodeExpiresAt)
	c.LastCodeSentAt = cloneTime(c.LastCodeSentAt)
	return c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneUser(u *id.UserID) *id.UserID {
	if u == nil {
		return nil
	}
	v := *u
	return &v
}

func cloneImage(img *Image) *Image {
	if img == nil {
		return nil
	}
	v := *img
	return &v
}
