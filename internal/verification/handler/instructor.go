package handler

import (
	"net/http"

	"lectern/internal/media"
	"lectern/internal/verification/models"
	"lectern/pkg/platform/httputil"
	"lectern/pkg/requestcontext"
)

func (h *Handler) handleInitialize(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	rec, created, err := h.instructor.Initialize(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "failed to initialize verification", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, toRecordResponse(rec))
}

func (h *Handler) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	rec, err := h.instructor.GetStatus(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "failed to load verification", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecordResponse(rec))
}

func (h *Handler) handleSendEmailCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.SendEmailCodeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	dispatch, err := h.instructor.SendEmailCode(ctx, userID, req.Email)
	if err != nil {
		h.fail(w, r, "failed to send email code", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCodeSentResponse(dispatch))
}

func (h *Handler) handleSendPhoneCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.SendPhoneCodeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	dispatch, err := h.instructor.SendPhoneCode(ctx, userID, req.Phone)
	if err != nil {
		h.fail(w, r, "failed to send phone code", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCodeSentResponse(dispatch))
}

func (h *Handler) handleVerifyCode(ch models.Channel) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, ok := h.caller(w, r)
		if !ok {
			return
		}
		req, ok := httputil.DecodeAndPrepare[models.VerifyCodeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
		if !ok {
			return
		}
		rec, err := h.instructor.VerifyCode(ctx, userID, ch, req.Code)
		if err != nil {
			h.fail(w, r, "code verification failed", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toRecordResponse(rec))
	}
}

func (h *Handler) handlePersonalInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.PersonalInfoRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	rec, err := h.instructor.SubmitPersonalInfo(ctx, userID, req)
	if err != nil {
		h.fail(w, r, "failed to save personal info", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecordResponse(rec))
}

func (h *Handler) handleIDDocuments(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	if err := parseMultipart(w, r); err != nil {
		h.fail(w, r, "invalid id document upload", err)
		return
	}
	defer cleanupMultipart(r)

	front, err := formFile(r, fieldFront, media.ImagePolicy)
	if err != nil {
		h.fail(w, r, "invalid id document upload", err)
		return
	}
	back, err := formFile(r, fieldBack, media.ImagePolicy)
	if err != nil {
		h.fail(w, r, "invalid id document upload", err)
		return
	}
	req := &models.IDDocumentRequest{DocumentType: r.FormValue("document_type")}
	rec, err := h.instructor.UploadIDDocuments(r.Context(), userID, req, front, back)
	if err != nil {
		h.fail(w, r, "failed to upload id documents", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecordResponse(rec))
}

func (h *Handler) handleSelfie(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	if err := parseMultipart(w, r); err != nil {
		h.fail(w, r, "invalid selfie upload", err)
		return
	}
	defer cleanupMultipart(r)

	file, err := formFile(r, fieldSelfie, media.ImagePolicy)
	if err != nil {
		h.fail(w, r, "invalid selfie upload", err)
		return
	}
	rec, err := h.instructor.UploadSelfie(r.Context(), userID, file)
	if err != nil {
		h.fail(w, r, "failed to upload selfie", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecordResponse(rec))
}

func (h *Handler) handleProfessionalInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.ProfessionalInfoRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	rec, err := h.instructor.SubmitProfessionalInfo(ctx, userID, req)
	if err != nil {
		h.fail(w, r, "failed to save professional info", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecordResponse(rec))
}

// =============================================================================
// Certificates
// =============================================================================

func (h *Handler) handleAddCertificate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	if err := parseMultipart(w, r); err != nil {
		h.fail(w, r, "invalid certificate upload", err)
		return
	}
	defer cleanupMultipart(r)

	req, err := certificateForm(r)
	if err != nil {
		h.fail(w, r, "invalid certificate upload", err)
		return
	}
	doc, err := formFile(r, fieldCertificate, media.DocumentPolicy)
	if err != nil {
		h.fail(w, r, "invalid certificate upload", err)
		return
	}
	rec, cert, err := h.instructor.AddCertificate(r.Context(), userID, req, doc)
	if err != nil {
		h.fail(w, r, "failed to add certificate", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, CertificateResponse{
		Certificate: cert,
		Education:   rec.Education,
		Progress:    rec.Progress(),
	})
}

func (h *Handler) handleListCertificates(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	edu, err := h.instructor.ListCertificates(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "failed to list certificates", err)
		return
	}
	if edu.Certificates == nil {
		edu.Certificates = []models.Certificate{}
	}
	httputil.WriteJSON(w, http.StatusOK, edu)
}

func (h *Handler) handleUpdateCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	certID, err := certificateIDParam(r)
	if err != nil {
		h.fail(w, r, "invalid certificate id", err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.UpdateCertificateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	rec, cert, err := h.instructor.UpdateCertificate(ctx, userID, certID, req)
	if err != nil {
		h.fail(w, r, "failed to update certificate", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CertificateResponse{
		Certificate: cert,
		Education:   rec.Education,
		Progress:    rec.Progress(),
	})
}

func (h *Handler) handleRemoveCertificate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	certID, err := certificateIDParam(r)
	if err != nil {
		h.fail(w, r, "invalid certificate id", err)
		return
	}
	if _, err := h.instructor.RemoveCertificate(r.Context(), userID, certID); err != nil {
		h.fail(w, r, "failed to remove certificate", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Lifecycle
// =============================================================================

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	rec, err := h.instructor.SubmitForReview(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "submission rejected", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecordResponse(rec))
}

func (h *Handler) handleResetLimits(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}
	rec, err := h.instructor.ResetLimits(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "failed to reset limits", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecordResponse(rec))
}
