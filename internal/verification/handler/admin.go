package handler

import (
	"net/http"

	"lectern/internal/verification/models"
	id "lectern/pkg/domain"
	"lectern/pkg/platform/httputil"
	"lectern/pkg/requestcontext"
)

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.fail(w, r, "invalid verification query", err)
		return
	}
	page, err := h.review.List(r.Context(), q)
	if err != nil {
		h.fail(w, r, "failed to list verifications", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListResponse(page))
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.review.Stats(r.Context())
	if err != nil {
		h.fail(w, r, "failed to compute verification stats", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStatsResponse(stats))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	recordID, err := recordIDParam(r)
	if err != nil {
		h.fail(w, r, "invalid record id", err)
		return
	}
	rec, err := h.review.Get(r.Context(), recordID)
	if err != nil {
		h.fail(w, r, "failed to load verification", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecordResponse(rec))
}

// decide runs one admin decision: it resolves the admin and record IDs,
// decodes T and writes the updated record.
func decide[T any](h *Handler, action string, fn func(r *http.Request, adminID id.UserID, recordID id.RecordID, req *T) (*models.Record, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		adminID, ok := h.caller(w, r)
		if !ok {
			return
		}
		recordID, err := recordIDParam(r)
		if err != nil {
			h.fail(w, r, "invalid record id", err)
			return
		}
		req, ok := httputil.DecodeAndPrepare[T](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
		if !ok {
			return
		}
		rec, err := fn(r, adminID, recordID, req)
		if err != nil {
			h.fail(w, r, action+" failed", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toRecordResponse(rec))
	}
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	decide(h, "approve", func(r *http.Request, adminID id.UserID, recordID id.RecordID, req *models.ApproveRequest) (*models.Record, error) {
		return h.review.Approve(r.Context(), adminID, recordID, req)
	})(w, r)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	decide(h, "reject", func(r *http.Request, adminID id.UserID, recordID id.RecordID, req *models.RejectRequest) (*models.Record, error) {
		return h.review.Reject(r.Context(), adminID, recordID, req)
	})(w, r)
}

func (h *Handler) handleRequestMoreInfo(w http.ResponseWriter, r *http.Request) {
	decide(h, "request more info", func(r *http.Request, adminID id.UserID, recordID id.RecordID, req *models.MoreInfoRequest) (*models.Record, error) {
		return h.review.RequestMoreInfo(r.Context(), adminID, recordID, req)
	})(w, r)
}

func (h *Handler) handleSuspend(w http.ResponseWriter, r *http.Request) {
	decide(h, "suspend", func(r *http.Request, adminID id.UserID, recordID id.RecordID, req *models.SuspendRequest) (*models.Record, error) {
		return h.review.Suspend(r.Context(), adminID, recordID, req)
	})(w, r)
}

func (h *Handler) handleResetSteps(w http.ResponseWriter, r *http.Request) {
	decide(h, "reset steps", func(r *http.Request, adminID id.UserID, recordID id.RecordID, req *models.ResetStepsRequest) (*models.Record, error) {
		return h.review.ResetSteps(r.Context(), adminID, recordID, req)
	})(w, r)
}

func (h *Handler) handleReviewCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	adminID, ok := h.caller(w, r)
	if !ok {
		return
	}
	recordID, err := recordIDParam(r)
	if err != nil {
		h.fail(w, r, "invalid record id", err)
		return
	}
	certID, err := certificateIDParam(r)
	if err != nil {
		h.fail(w, r, "invalid certificate id", err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.CertificateReviewRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	rec, cert, err := h.review.ReviewCertificate(ctx, adminID, recordID, certID, req)
	if err != nil {
		h.fail(w, r, "certificate review failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CertificateResponse{
		Certificate: cert,
		Education:   rec.Education,
		Progress:    rec.Progress(),
	})
}
