package reporting

import (
	"context"
	"sort"

	"salesdesk/internal/domain"
	"salesdesk/internal/repository/rediscache"
)

// CloserMetrics - строка таблицы производительности клоузеров
type CloserMetrics struct {
	Key          string  `json:"key"`
	Name         string  `json:"name"`
	CallsBooked  int     `json:"calls_booked"`
	Shows        int     `json:"shows"`
	NoShows      int     `json:"no_shows"`
	Offers       int     `json:"offers"`
	Closes       int     `json:"closes"`
	ShowRate     float64 `json:"show_rate"`
	OfferRate    float64 `json:"offer_rate"`
	CloseRate    float64 `json:"close_rate"`
	CashCents    int64   `json:"cash_cents"`
	RevenueCents int64   `json:"revenue_cents"`
}

// CloserReport - таблица по клоузерам
type CloserReport struct {
	Rows []CloserMetrics `json:"rows"`
}

// CloserReport агрегирует звонки по клоузерам.
// Клоузер идентифицируется по email-или-имени: два справочника
// с одним email считаются одним человеком.
func (s *Service) CloserReport(ctx context.Context, orgID string, filter domain.EventFilter) (*CloserReport, error) {
	key := rediscache.Key(orgID, "closers", filter)

	var cached CloserReport
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	rc, err := s.loadReportContext(ctx, orgID, filter)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]*CloserMetrics)
	for _, event := range rc.events {
		if event.CloserID == nil {
			continue
		}
		closer, ok := rc.closers[*event.CloserID]
		if !ok {
			continue
		}

		identity := domain.IdentityKey(closer.Email, closer.Name)
		m, ok := byKey[identity]
		if !ok {
			m = &CloserMetrics{Key: identity, Name: closer.Name}
			byKey[identity] = m
		}

		m.CallsBooked++

		outcome := event.EffectiveOutcome()
		if outcome == domain.OutcomeNoShow {
			m.NoShows++
		}
		if outcome.Showed() {
			m.Shows++
		}
		if outcome.OfferMade() {
			m.Offers++
		}
		if outcome == domain.OutcomeClosed {
			m.Closes++
		}

		m.CashCents += rc.cashCollected(event.ID)
		m.RevenueCents += rc.revenue(event.ID)
	}

	rows := make([]CloserMetrics, 0, len(byKey))
	for _, m := range byKey {
		m.ShowRate = rate(m.Shows, m.CallsBooked)
		// Проценты offer/close считаются от показов, не от всех броней
		m.OfferRate = rate(m.Offers, m.Shows)
		m.CloseRate = rate(m.Closes, m.Shows)
		rows = append(rows, *m)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CashCents != rows[j].CashCents {
			return rows[i].CashCents > rows[j].CashCents
		}
		return rows[i].Name < rows[j].Name
	})

	report := &CloserReport{Rows: rows}
	s.cache.Set(ctx, key, report)
	return report, nil
}

func rate(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
