package reporting

import (
	"context"
	"sort"

	"salesdesk/internal/domain"
	"salesdesk/internal/repository/rediscache"
)

// SetterMetrics - строка таблицы производительности сеттеров
type SetterMetrics struct {
	Key        string  `json:"key"`
	Name       string  `json:"name"`
	SetsBooked int     `json:"sets_booked"`
	ShowsHeld  int     `json:"shows_held"`
	Closes     int     `json:"closes"`
	ShowRate   float64 `json:"show_rate"`
	CloseRate  float64 `json:"close_rate"`
	CashCents  int64   `json:"cash_cents"`
}

// SetterReport - таблица по сеттерам
type SetterReport struct {
	Rows []SetterMetrics `json:"rows"`
}

// SetterReport агрегирует звонки по сеттерам, назначившим их
func (s *Service) SetterReport(ctx context.Context, orgID string, filter domain.EventFilter) (*SetterReport, error) {
	key := rediscache.Key(orgID, "setters", filter)

	var cached SetterReport
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	rc, err := s.loadReportContext(ctx, orgID, filter)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]*SetterMetrics)
	for _, event := range rc.events {
		if event.SetterID == nil {
			continue
		}
		setter, ok := rc.setters[*event.SetterID]
		if !ok {
			continue
		}

		identity := domain.IdentityKey(setter.Email, setter.Name)
		m, ok := byKey[identity]
		if !ok {
			m = &SetterMetrics{Key: identity, Name: setter.Name}
			byKey[identity] = m
		}

		m.SetsBooked++

		outcome := event.EffectiveOutcome()
		if outcome.Showed() {
			m.ShowsHeld++
		}
		if outcome == domain.OutcomeClosed {
			m.Closes++
		}

		m.CashCents += rc.cashCollected(event.ID)
	}

	rows := make([]SetterMetrics, 0, len(byKey))
	for _, m := range byKey {
		m.ShowRate = rate(m.ShowsHeld, m.SetsBooked)
		m.CloseRate = rate(m.Closes, m.ShowsHeld)
		rows = append(rows, *m)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].SetsBooked != rows[j].SetsBooked {
			return rows[i].SetsBooked > rows[j].SetsBooked
		}
		return rows[i].Name < rows[j].Name
	})

	report := &SetterReport{Rows: rows}
	s.cache.Set(ctx, key, report)
	return report, nil
}

// AttributionReport строит дерево атрибуции канал -> источник
func (s *Service) AttributionReport(ctx context.Context, orgID string, filter domain.EventFilter) ([]*domain.AttributionNode, error) {
	key := rediscache.Key(orgID, "attribution", filter)

	var cached []*domain.AttributionNode
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	rc, err := s.loadReportContext(ctx, orgID, filter)
	if err != nil {
		return nil, err
	}

	tree := buildAttributionTree(rc)

	s.cache.Set(ctx, key, tree)
	return tree, nil
}
