package handler

import (
	"math"
	"time"

	"lectern/internal/verification/models"
	"lectern/internal/verification/review"
	"lectern/internal/verification/service"
	id "lectern/pkg/domain"
)

// ChannelResponse is the client view of a code channel. The code hash never
// leaves the server.
type ChannelResponse struct {
	Destination    string     `json:"destination,omitempty"`
	IsVerified     bool       `json:"is_verified"`
	VerifiedAt     *time.Time `json:"verified_at,omitempty"`
	CodePending    bool       `json:"code_pending"`
	CodeExpiresAt  *time.Time `json:"code_expires_at,omitempty"`
	Attempts       int        `json:"attempts"`
	LastCodeSentAt *time.Time `json:"last_code_sent_at,omitempty"`
}

// RecordResponse is the wire shape of a verification record.
type RecordResponse struct {
	ID               id.RecordID              `json:"id"`
	InstructorID     id.UserID                `json:"instructor_id"`
	Status           models.Status            `json:"status"`
	Progress         int                      `json:"progress_percentage"`
	CompletedSteps   map[models.Step]bool     `json:"completed_steps"`
	MissingSteps     []models.Step            `json:"missing_steps"`
	Email            ChannelResponse          `json:"email_verification"`
	Phone            ChannelResponse          `json:"phone_verification"`
	PersonalInfo     *models.PersonalInfo     `json:"personal_info,omitempty"`
	ProfessionalInfo *models.ProfessionalInfo `json:"professional_info,omitempty"`
	IDDocument       *models.IDDocument       `json:"id_verification,omitempty"`
	Selfie           *models.Selfie           `json:"selfie_verification,omitempty"`
	Education        models.Education         `json:"education_verification"`
	AdminReview      *models.AdminReview      `json:"admin_review,omitempty"`
	SubmittedAt      *time.Time               `json:"submitted_at,omitempty"`
	ApprovedAt       *time.Time               `json:"approved_at,omitempty"`
	RejectedAt       *time.Time               `json:"rejected_at,omitempty"`
	SuspendedAt      *time.Time               `json:"suspended_at,omitempty"`
	SuspensionReason string                   `json:"suspension_reason,omitempty"`
	SuspendedUntil   *time.Time               `json:"suspended_until,omitempty"`
	History          []models.HistoryEntry    `json:"verification_history"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
}

func toChannelResponse(c models.CodeChannel) ChannelResponse {
	return ChannelResponse{
		Destination:    c.Destination,
		IsVerified:     c.IsVerified,
		VerifiedAt:     c.VerifiedAt,
		CodePending:    c.CodeHash != "",
		CodeExpiresAt:  c.CodeExpiresAt,
		Attempts:       c.Attempts,
		LastCodeSentAt: c.LastCodeSentAt,
	}
}

func toRecordResponse(rec *models.Record) RecordResponse {
	history := rec.History
	if history == nil {
		history = []models.HistoryEntry{}
	}
	return RecordResponse{
		ID:               rec.ID,
		InstructorID:     rec.InstructorID,
		Status:           rec.Status,
		Progress:         rec.Progress(),
		CompletedSteps:   rec.CompletedSteps,
		MissingSteps:     rec.MissingSteps(),
		Email:            toChannelResponse(rec.Email),
		Phone:            toChannelResponse(rec.Phone),
		PersonalInfo:     rec.PersonalInfo,
		ProfessionalInfo: rec.ProfessionalInfo,
		IDDocument:       rec.IDDocument,
		Selfie:           rec.Selfie,
		Education:        rec.Education,
		AdminReview:      rec.AdminReview,
		SubmittedAt:      rec.SubmittedAt,
		ApprovedAt:       rec.ApprovedAt,
		RejectedAt:       rec.RejectedAt,
		SuspendedAt:      rec.SuspendedAt,
		SuspensionReason: rec.SuspensionReason,
		SuspendedUntil:   rec.SuspendedUntil,
		History:          history,
		CreatedAt:        rec.CreatedAt,
		UpdatedAt:        rec.UpdatedAt,
	}
}

type CodeSentResponse struct {
	Channel           models.Channel `json:"channel"`
	Destination       string         `json:"destination"`
	ExpiresAt         time.Time      `json:"expires_at"`
	ResendAvailableAt time.Time      `json:"resend_available_at"`
	Code              string         `json:"code,omitempty"`
}

func toCodeSentResponse(d *service.CodeDispatch) CodeSentResponse {
	return CodeSentResponse{
		Channel:           d.Channel,
		Destination:       d.Destination,
		ExpiresAt:         d.ExpiresAt,
		ResendAvailableAt: d.ResendAvailableAt,
		Code:              d.Code,
	}
}

type CertificateResponse struct {
	Certificate models.Certificate `json:"certificate"`
	Education   models.Education   `json:"education_verification"`
	Progress    int                `json:"progress_percentage"`
}

type ListResponse struct {
	Items      []RecordResponse      `json:"items"`
	Total      int                   `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
	Counts     map[models.Status]int `json:"status_counts"`
}

func toListResponse(p *review.Page) ListResponse {
	items := make([]RecordResponse, 0, len(p.Records))
	for _, rec := range p.Records {
		items = append(items, toRecordResponse(rec))
	}
	counts := make(map[models.Status]int, len(models.AllStatuses))
	for _, st := range models.AllStatuses {
		counts[st] = p.Counts[st]
	}
	pages := 0
	if p.PageSize > 0 {
		pages = int(math.Ceil(float64(p.Total) / float64(p.PageSize)))
	}
	return ListResponse{
		Items:      items,
		Total:      p.Total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: pages,
		Counts:     counts,
	}
}

type StatusCountResponse struct {
	Status models.Status `json:"status"`
	Count  int           `json:"count"`
}

type ProcessingTimeResponse struct {
	Decided      int     `json:"decided"`
	AverageHours float64 `json:"average_hours"`
	P50Hours     float64 `json:"p50_hours"`
	P90Hours     float64 `json:"p90_hours"`
	P99Hours     float64 `json:"p99_hours"`
}

type StatsResponse struct {
	Total          int                    `json:"total"`
	ByStatus       []StatusCountResponse  `json:"by_status"`
	WindowDays     int                    `json:"window_days"`
	ProcessingTime ProcessingTimeResponse `json:"processing_time"`
}

func toStatsResponse(s *review.Stats) StatsResponse {
	byStatus := make([]StatusCountResponse, 0, len(s.ByStatus))
	for _, c := range s.ByStatus {
		byStatus = append(byStatus, StatusCountResponse{Status: c.Status, Count: c.Count})
	}
	return StatsResponse{
		Total:      s.Total,
		ByStatus:   byStatus,
		WindowDays: int(s.Window / (24 * time.Hour)),
		ProcessingTime: ProcessingTimeResponse{
			Decided:      s.ProcessingTime.Decided,
			AverageHours: s.ProcessingTime.Average,
			P50Hours:     s.ProcessingTime.P50,
			P90Hours:     s.ProcessingTime.P90,
			P99Hours:     s.ProcessingTime.P99,
		},
	}
}
