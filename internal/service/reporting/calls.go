package reporting

import (
	"context"
	"sort"
	"strings"

	"salesdesk/internal/domain"
	"salesdesk/internal/repository/rediscache"
)

// Page - параметры сортировки и пагинации отчета
type Page struct {
	SortBy  string `json:"sort_by"`
	SortDir string `json:"sort_dir"`
	Limit   int    `json:"limit"`
	Offset  int    `json:"offset"`
}

// CallsReport - отчет по звонкам
type CallsReport struct {
	Rows  []domain.CallsReportEvent `json:"rows"`
	Total int                       `json:"total"`
}

// CallsReport собирает отчет по звонкам с классификацией результатов
func (s *Service) CallsReport(ctx context.Context, orgID string, filter domain.EventFilter, page Page) (*CallsReport, error) {
	key := rediscache.Key(orgID, "calls", struct {
		Filter domain.EventFilter
		Page   Page
	}{filter, page})

	var cached CallsReport
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	rc, err := s.loadReportContext(ctx, orgID, filter)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.CallsReportEvent, 0, len(rc.events))
	for _, event := range rc.events {
		rows = append(rows, domain.CallsReportEvent{
			EventID:        event.ID,
			LeadName:       event.LeadName,
			LeadEmail:      event.LeadEmail,
			CloserName:     rc.closerName(event),
			SetterName:     rc.setterName(event),
			Source:         rc.normalizer.Canonical(event.RawSource),
			Channel:        rc.normalizer.Channel(event.RawSource),
			ScheduledAt:    event.ScheduledAt,
			PipelineStatus: event.PipelineStatus,
			Outcome:        event.EffectiveOutcome(),
			CashCents:      rc.cashCollected(event.ID),
			RevenueCents:   rc.revenue(event.ID),
		})
	}

	sortCalls(rows, page.SortBy, page.SortDir)

	report := &CallsReport{
		Total: len(rows),
		Rows:  paginate(rows, page.Limit, page.Offset),
	}

	s.cache.Set(ctx, key, report)
	return report, nil
}

func sortCalls(rows []domain.CallsReportEvent, sortBy, sortDir string) {
	less := func(i, j int) bool {
		switch sortBy {
		case "lead":
			return rows[i].LeadName < rows[j].LeadName
		case "closer":
			return rows[i].CloserName < rows[j].CloserName
		case "source":
			return rows[i].Source < rows[j].Source
		case "outcome":
			return rows[i].Outcome < rows[j].Outcome
		case "cash":
			return rows[i].CashCents < rows[j].CashCents
		default:
			return rows[i].ScheduledAt.Before(rows[j].ScheduledAt)
		}
	}

	if strings.EqualFold(sortDir, "asc") {
		sort.SliceStable(rows, less)
		return
	}
	// По умолчанию новые сверху
	sort.SliceStable(rows, func(i, j int) bool { return less(j, i) })
}

func paginate[T any](rows []T, limit, offset int) []T {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}
