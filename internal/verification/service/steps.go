package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"lectern/internal/media"
	"lectern/internal/verification/models"
	id "lectern/pkg/domain"
	dErrors "lectern/pkg/domain-errors"
	"lectern/pkg/requestcontext"
)

// SubmitPersonalInfo stores personal details and completes the step.
func (s *Service) SubmitPersonalInfo(ctx context.Context, instructorID id.UserID, req *models.PersonalInfoRequest) (rec *models.Record, err error) {
	ctx, span := s.startSpan(ctx, "SubmitPersonalInfo", instructorID)
	defer func() { endSpan(span, err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	if err := req.CheckAge(now, s.cfg.MinimumAge); err != nil {
		return nil, err
	}

	current, err := s.load(ctx, instructorID)
	if err != nil {
		return nil, err
	}
	info := req.Info()
	updated, err := s.execute(ctx, current, func(r *models.Record) error {
		if err := r.CanMutateSteps(); err != nil {
			return err
		}
		r.ApplyPersonalInfo(info, now)
		r.AppendHistory(models.StepPersonalInfo, models.ActionPersonalInfoSubmitted, instructorID, nil, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncStepCompleted(string(models.StepPersonalInfo))
	s.logAudit(ctx, string(models.ActionPersonalInfoSubmitted), "record_id", updated.ID.String())
	return updated, nil
}

// UploadIDDocuments stores the front and/or back of an identity document. At
// least one side is required. Blobs are uploaded before the record is
// touched; if the record update fails they are destroyed again, and on
// success the previous document's blobs are released.
func (s *Service) UploadIDDocuments(ctx context.Context, instructorID id.UserID, req *models.IDDocumentRequest, front, back *media.File) (rec *models.Record, err error) {
	ctx, span := s.startSpan(ctx, "UploadIDDocuments", instructorID)
	defer func() { endSpan(span, err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if front == nil && back == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one document image is required").
			WithDetail("field", "front_image")
	}
	sides := map[string]*media.File{"front": front, "back": back}
	types := make(map[string]string, 2)
	for side, f := range sides {
		if f == nil {
			continue
		}
		sniffed, err := media.ImagePolicy.Check(*f)
		if err != nil {
			return nil, err
		}
		types[side] = sniffed
	}

	current, err := s.load(ctx, instructorID)
	if err != nil {
		return nil, err
	}
	if err := current.CanMutateSteps(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	folder := media.Folder(s.cfg.StoragePrefix, instructorID.String(), "id-documents")

	var (
		frontObj, backObj *media.Object
	)
	uctx, cancel := context.WithTimeout(ctx, s.cfg.UploadTimeout)
	defer cancel()
	g, gctx := errgroup.WithContext(uctx)
	upload := func(side string, f *media.File, dst **media.Object) {
		if f == nil {
			return
		}
		g.Go(func() error {
			obj, err := s.uploadBlob(gctx, "id_document", media.Upload{
				Folder:      folder,
				Name:        side + "-" + f.Filename,
				ContentType: types[side],
				Data:        f.Data,
			})
			if err != nil {
				return err
			}
			*dst = &obj
			return nil
		})
	}
	upload("front", front, &frontObj)
	upload("back", back, &backObj)
	if err := g.Wait(); err != nil {
		s.destroyObjects(ctx, frontObj, backObj)
		return nil, uploadFailed(err)
	}

	docType := models.DocumentType(req.DocumentType)
	var previous *models.IDDocument
	updated, err := s.execute(ctx, current, func(r *models.Record) error {
		if err := r.CanMutateSteps(); err != nil {
			return err
		}
		previous = r.ApplyIDDocument(docType, imageOf(frontObj, now), imageOf(backObj, now), now)
		r.AppendHistory(models.StepIDDocument, models.ActionIDDocumentsUploaded, instructorID, map[string]string{
			"document_type": string(docType),
			"sides":         sideList(frontObj, backObj),
		}, now)
		return nil
	})
	if err != nil {
		s.destroyObjects(ctx, frontObj, backObj)
		return nil, err
	}
	if previous != nil {
		s.destroyImages(ctx, previous.Front, previous.Back)
	}

	s.metrics.IncStepCompleted(string(models.StepIDDocument))
	s.logAudit(ctx, string(models.ActionIDDocumentsUploaded),
		"record_id", updated.ID.String(),
		"document_type", docType,
	)
	return updated, nil
}

// UploadSelfie crops the selfie to a square, scores liveness and stores it.
// A failed liveness check rejects the upload before anything is stored.
func (s *Service) UploadSelfie(ctx context.Context, instructorID id.UserID, file *media.File) (rec *models.Record, err error) {
	ctx, span := s.startSpan(ctx, "UploadSelfie", instructorID)
	defer func() { endSpan(span, err) }()

	if file == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "selfie image is required").WithDetail("field", "selfie")
	}
	if _, err := media.ImagePolicy.Check(*file); err != nil {
		return nil, err
	}

	current, err := s.load(ctx, instructorID)
	if err != nil {
		return nil, err
	}
	if err := current.CanMutateSteps(); err != nil {
		return nil, err
	}

	cropped, err := media.SquareCrop(file.Data, media.SelfieSize)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "selfie could not be decoded as an image").
			WithDetail("field", "selfie")
	}
	confidence, err := s.liveness.Score(ctx, cropped)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "liveness check failed")
	}
	now := requestcontext.Now(ctx)
	if confidence < s.cfg.LivenessThreshold {
		return nil, dErrors.New(dErrors.CodeValidation, "selfie did not pass the liveness check").
			WithDetail("field", "selfie").
			WithDetail("confidence", confidence)
	}

	uctx, cancel := context.WithTimeout(ctx, s.cfg.UploadTimeout)
	defer cancel()
	obj, err := s.uploadBlob(uctx, "selfie", media.Upload{
		Folder:      media.Folder(s.cfg.StoragePrefix, instructorID.String(), "selfie"),
		Name:        "selfie.jpg",
		ContentType: "image/jpeg",
		Data:        cropped,
	})
	if err != nil {
		return nil, uploadFailed(err)
	}

	liveness := models.LivenessCheck{IsPassed: true, Confidence: confidence, ProcessedAt: now}
	var previous *models.Selfie
	updated, err := s.execute(ctx, current, func(r *models.Record) error {
		if err := r.CanMutateSteps(); err != nil {
			return err
		}
		previous = r.ApplySelfie(*imageOf(&obj, now), liveness, now)
		r.AppendHistory(models.StepSelfie, models.ActionSelfieUploaded, instructorID, map[string]string{
			"confidence": fmt.Sprintf("%.2f", confidence),
		}, now)
		return nil
	})
	if err != nil {
		s.destroyObjects(ctx, &obj)
		return nil, err
	}
	if previous != nil {
		s.destroyImages(ctx, &previous.Image)
	}

	s.metrics.IncStepCompleted(string(models.StepSelfie))
	s.logAudit(ctx, string(models.ActionSelfieUploaded), "record_id", updated.ID.String())
	return updated, nil
}

// SubmitProfessionalInfo overwrites the optional professional profile.
func (s *Service) SubmitProfessionalInfo(ctx context.Context, instructorID id.UserID, req *models.ProfessionalInfoRequest) (*models.Record, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	current, err := s.load(ctx, instructorID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	info := req.Info()
	updated, err := s.execute(ctx, current, func(r *models.Record) error {
		if err := r.CanMutateSteps(); err != nil {
			return err
		}
		r.ApplyProfessionalInfo(info, now)
		r.AppendHistory("", models.ActionProfessionalInfoUpdated, instructorID, nil, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, string(models.ActionProfessionalInfoUpdated), "record_id", updated.ID.String())
	return updated, nil
}

// =============================================================================
// Blob helpers
// =============================================================================

func (s *Service) uploadBlob(ctx context.Context, kind string, u media.Upload) (media.Object, error) {
	start := time.Now()
	obj, err := s.blobs.Upload(ctx, u)
	s.metrics.ObserveUpload(kind, time.Since(start))
	return obj, err
}

// destroyObjects releases blobs that were stored for a change that did not
// persist.
func (s *Service) destroyObjects(ctx context.Context, objs ...*media.Object) {
	for _, o := range objs {
		if o != nil {
			s.destroy(ctx, o.PublicID)
		}
	}
}

func (s *Service) destroyImages(ctx context.Context, imgs ...*models.Image) {
	for _, img := range imgs {
		if img != nil {
			s.destroy(ctx, img.PublicID)
		}
	}
}

func (s *Service) destroy(ctx context.Context, publicID string) {
	if publicID == "" {
		return
	}
	if err := s.blobs.Destroy(context.WithoutCancel(ctx), publicID); err != nil {
		s.logger.WarnContext(ctx, "failed to delete stored blob",
			"public_id", publicID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}

func imageOf(obj *media.Object, now time.Time) *models.Image {
	if obj == nil {
		return nil
	}
	return &models.Image{
		URL:        obj.URL,
		PublicID:   obj.PublicID,
		MimeType:   obj.MimeType,
		Bytes:      obj.Bytes,
		UploadedAt: now,
	}
}

func sideList(front, back *media.Object) string {
	switch {
	case front != nil && back != nil:
		return "front,back"
	case front != nil:
		return "front"
	default:
		return "back"
	}
}

func uploadFailed(err error) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeUploadFailed, "failed to store uploaded file")
}
