package service

import (
	"context"

	"lectern/internal/media"
	"lectern/internal/verification/models"
	id "lectern/pkg/domain"
	dErrors "lectern/pkg/domain-errors"
	"lectern/pkg/requestcontext"
)

// AddCertificate uploads the certificate document and appends a pending
// certificate. The education step is complete from the first certificate.
func (s *Service) AddCertificate(ctx context.Context, instructorID id.UserID, req *models.CertificateRequest, doc *media.File) (rec *models.Record, cert models.Certificate, err error) {
	ctx, span := s.startSpan(ctx, "AddCertificate", instructorID)
	defer func() { endSpan(span, err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, models.Certificate{}, err
	}
	now := requestcontext.Now(ctx)
	if err := req.CheckGraduationYear(now); err != nil {
		return nil, models.Certificate{}, err
	}
	if doc == nil {
		return nil, models.Certificate{}, dErrors.New(dErrors.CodeValidation, "certificate document is required").
			WithDetail("field", "certificate_document")
	}
	sniffed, err := media.DocumentPolicy.Check(*doc)
	if err != nil {
		return nil, models.Certificate{}, err
	}

	current, err := s.load(ctx, instructorID)
	if err != nil {
		return nil, models.Certificate{}, err
	}
	if err := current.CanMutateSteps(); err != nil {
		return nil, models.Certificate{}, err
	}

	uctx, cancel := context.WithTimeout(ctx, s.cfg.UploadTimeout)
	defer cancel()
	obj, err := s.uploadBlob(uctx, "certificate", media.Upload{
		Folder:      media.Folder(s.cfg.StoragePrefix, instructorID.String(), "certificates"),
		Name:        doc.Filename,
		ContentType: sniffed,
		Data:        doc.Data,
	})
	if err != nil {
		return nil, models.Certificate{}, uploadFailed(err)
	}

	certID := id.NewCertificateID()
	meta := req.Metadata()
	updated, err := s.execute(ctx, current, func(r *models.Record) error {
		if err := r.CanMutateSteps(); err != nil {
			return err
		}
		cert = r.ApplyCertificateAdded(certID, meta, *imageOf(&obj, now), now)
		s.evaluator.Refresh(r)
		r.AppendHistory(models.StepEducationCertificate, models.ActionCertificateAdded, instructorID, map[string]string{
			"certificate_id":   certID.String(),
			"certificate_type": string(meta.Type),
		}, now)
		return nil
	})
	if err != nil {
		s.destroyObjects(ctx, &obj)
		return nil, models.Certificate{}, err
	}

	s.metrics.IncStepCompleted(string(models.StepEducationCertificate))
	s.logAudit(ctx, string(models.ActionCertificateAdded),
		"record_id", updated.ID.String(),
		"certificate_id", certID.String(),
	)
	return updated, cert, nil
}

// ListCertificates returns the education summary with all certificates.
func (s *Service) ListCertificates(ctx context.Context, instructorID id.UserID) (models.Education, error) {
	rec, err := s.load(ctx, instructorID)
	if err != nil {
		return models.Education{}, err
	}
	return rec.Education, nil
}

// UpdateCertificate edits certificate metadata. Verified certificates are
// frozen; any edit sends the certificate back to pending.
func (s *Service) UpdateCertificate(ctx context.Context, instructorID id.UserID, certID id.CertificateID, req *models.UpdateCertificateRequest) (rec *models.Record, cert models.Certificate, err error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, models.Certificate{}, err
	}
	now := requestcontext.Now(ctx)
	if err := req.CheckGraduationYear(now); err != nil {
		return nil, models.Certificate{}, err
	}
	current, err := s.load(ctx, instructorID)
	if err != nil {
		return nil, models.Certificate{}, err
	}

	patch := req.Patch()
	updated, err := s.execute(ctx, current, func(r *models.Record) error {
		if err := r.CanMutateSteps(); err != nil {
			return err
		}
		if err := r.CanEditCertificate(certID); err != nil {
			return err
		}
		cert = r.ApplyCertificateUpdate(certID, patch, now)
		s.evaluator.Refresh(r)
		r.AppendHistory(models.StepEducationCertificate, models.ActionCertificateUpdated, instructorID, map[string]string{
			"certificate_id": certID.String(),
		}, now)
		return nil
	})
	if err != nil {
		return nil, models.Certificate{}, err
	}
	s.logAudit(ctx, string(models.ActionCertificateUpdated),
		"record_id", updated.ID.String(),
		"certificate_id", certID.String(),
	)
	return updated, cert, nil
}

// RemoveCertificate deletes a non-verified certificate and its document blob.
func (s *Service) RemoveCertificate(ctx context.Context, instructorID id.UserID, certID id.CertificateID) (*models.Record, error) {
	current, err := s.load(ctx, instructorID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var removed models.Certificate
	updated, err := s.execute(ctx, current, func(r *models.Record) error {
		if err := r.CanMutateSteps(); err != nil {
			return err
		}
		if err := r.CanEditCertificate(certID); err != nil {
			return err
		}
		removed = r.ApplyCertificateRemoval(certID, now)
		s.evaluator.Refresh(r)
		r.AppendHistory(models.StepEducationCertificate, models.ActionCertificateRemoved, instructorID, map[string]string{
			"certificate_id": certID.String(),
		}, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.destroy(ctx, removed.Document.PublicID)
	s.logAudit(ctx, string(models.ActionCertificateRemoved),
		"record_id", updated.ID.String(),
		"certificate_id", certID.String(),
	)
	return updated, nil
}
