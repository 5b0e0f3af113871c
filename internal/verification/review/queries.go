package review

import (
	"context"
	"errors"
	"math"
	"slices"
	"time"

	"lectern/internal/verification/models"
	"lectern/internal/verification/store"
	id "lectern/pkg/domain"
	dErrors "lectern/pkg/domain-errors"
	"lectern/pkg/platform/sentinel"
	"lectern/pkg/requestcontext"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Query selects records for the review queue.
type Query struct {
	Statuses []models.Status
	Search   string
	Page     int
	PageSize int
}

// Page is one page of the review queue plus aggregate counts over all
// records.
type Page struct {
	Records  []*models.Record
	Total    int
	Page     int
	PageSize int
	Counts   map[models.Status]int
}

// List returns records matching q, most recently updated first.
func (s *Service) List(ctx context.Context, q Query) (*Page, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	switch {
	case q.PageSize <= 0:
		q.PageSize = defaultPageSize
	case q.PageSize > maxPageSize:
		q.PageSize = maxPageSize
	}
	records, total, err := s.records.List(ctx, store.ListFilter{
		Statuses: q.Statuses,
		Search:   q.Search,
		Offset:   (q.Page - 1) * q.PageSize,
		Limit:    q.PageSize,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list verifications")
	}
	counts, err := s.records.CountByStatus(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count verifications")
	}
	return &Page{
		Records:  records,
		Total:    total,
		Page:     q.Page,
		PageSize: q.PageSize,
		Counts:   counts,
	}, nil
}

// Get returns one record by ID.
func (s *Service) Get(ctx context.Context, recordID id.RecordID) (*models.Record, error) {
	rec, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "verification not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification")
	}
	return rec, nil
}

// StatusCount is one bar of the status histogram.
type StatusCount struct {
	Status models.Status
	Count  int
}

// ProcessingStats summarizes submission-to-decision times, in hours, for
// records decided inside the window.
type ProcessingStats struct {
	Decided int
	Average float64
	P50     float64
	P90     float64
	P99     float64
}

type Stats struct {
	Total          int
	ByStatus       []StatusCount
	Window         time.Duration
	ProcessingTime ProcessingStats
}

// Stats reports the status histogram and processing-time percentiles over the
// rolling window.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	counts, err := s.records.CountByStatus(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count verifications")
	}
	since := requestcontext.Now(ctx).Add(-s.statsWindow)
	decided, err := s.records.ListDecidedSince(ctx, since)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load decided verifications")
	}

	out := &Stats{Window: s.statsWindow}
	for _, st := range models.AllStatuses {
		out.ByStatus = append(out.ByStatus, StatusCount{Status: st, Count: counts[st]})
		out.Total += counts[st]
	}

	hours := make([]float64, 0, len(decided))
	for _, rec := range decided {
		if d, ok := rec.ProcessingTime(); ok {
			hours = append(hours, d.Hours())
		}
	}
	out.ProcessingTime = summarize(hours)
	return out, nil
}

func summarize(hours []float64) ProcessingStats {
	if len(hours) == 0 {
		return ProcessingStats{}
	}
	slices.Sort(hours)
	var sum float64
	for _, h := range hours {
		sum += h
	}
	return ProcessingStats{
		Decided: len(hours),
		Average: round2(sum / float64(len(hours))),
		P50:     round2(percentile(hours, 0.50)),
		P90:     round2(percentile(hours, 0.90)),
		P99:     round2(percentile(hours, 0.99)),
	}
}

// percentile uses the nearest-rank method on sorted input.
func percentile(sorted []float64, p float64) float64 {
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	rank = max(0, min(rank, len(sorted)-1))
	return sorted[rank]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
