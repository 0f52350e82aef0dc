package reporting

import (
	"context"
	"fmt"

	"salesdesk/internal/domain"
	repoInterface "salesdesk/internal/repository/interface"
	"salesdesk/internal/repository/rediscache"
	"salesdesk/internal/service/attribution"
)

// Service собирает отчеты дашборда из событий, платежей и PCF-форм
type Service struct {
	events  repoInterface.EventRepository
	pcfs    repoInterface.PCFRepository
	team    repoInterface.TeamRepository
	sources repoInterface.SourceRepository
	cache   *rediscache.ReportCache
}

// NewService создает сервис отчетов
func NewService(
	events repoInterface.EventRepository,
	pcfs repoInterface.PCFRepository,
	team repoInterface.TeamRepository,
	sources repoInterface.SourceRepository,
	cache *rediscache.ReportCache,
) *Service {
	return &Service{
		events:  events,
		pcfs:    pcfs,
		team:    team,
		sources: sources,
		cache:   cache,
	}
}

// reportContext - все, что нужно загрузить из БД для сборки отчета
type reportContext struct {
	events     []*domain.Event
	payments   map[string][]*domain.Payment
	pcfs       map[string]*domain.PostCallForm
	closers    map[string]*domain.Closer
	setters    map[string]*domain.Setter
	normalizer *attribution.Normalizer
}

func (s *Service) loadReportContext(ctx context.Context, orgID string, filter domain.EventFilter) (*reportContext, error) {
	// В БД уходят только SQL-фильтры; outcome сравнивается после
	// классификации pipeline-статуса
	dbFilter := filter
	dbFilter.Outcome = domain.OutcomeUnknown

	events, err := s.events.FindByFilter(ctx, orgID, dbFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	events = domain.FilterByOutcome(events, filter.Outcome)

	eventIDs := make([]string, 0, len(events))
	for _, e := range events {
		eventIDs = append(eventIDs, e.ID)
	}

	payments, err := s.events.PaymentsByEventIDs(ctx, orgID, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}

	pcfs, err := s.pcfs.LatestByEventIDs(ctx, orgID, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load post-call forms: %w", err)
	}

	closers, err := s.team.FindClosersByOrg(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load closers: %w", err)
	}
	closersByID := make(map[string]*domain.Closer, len(closers))
	for _, c := range closers {
		closersByID[c.ID] = c
	}

	setters, err := s.team.FindSettersByOrg(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load setters: %w", err)
	}
	settersByID := make(map[string]*domain.Setter, len(setters))
	for _, st := range setters {
		settersByID[st.ID] = st
	}

	aliases, err := s.sources.AliasesByOrg(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load source aliases: %w", err)
	}

	orgSources, err := s.sources.FindByOrg(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}
	channels := make(map[string]string, len(orgSources))
	for _, src := range orgSources {
		channels[src.Name] = src.Channel
	}

	return &reportContext{
		events:     events,
		payments:   payments,
		pcfs:       pcfs,
		closers:    closersByID,
		setters:    settersByID,
		normalizer: attribution.NewNormalizer(aliases, channels),
	}, nil
}

func buildAttributionTree(rc *reportContext) []*domain.AttributionNode {
	return attribution.BuildTree(rc.normalizer, rc.events, rc.payments)
}

// cashCollected - сумма платежей по звонку
func (rc *reportContext) cashCollected(eventID string) int64 {
	var cash int64
	for _, p := range rc.payments[eventID] {
		cash += p.AmountCents
	}
	return cash
}

// revenue - ценность сделки из последней PCF-формы.
// Платежи сами по себе не делают звонок закрытым.
func (rc *reportContext) revenue(eventID string) int64 {
	if pcf, ok := rc.pcfs[eventID]; ok {
		return pcf.DealValueCents
	}
	return 0
}

func (rc *reportContext) closerName(event *domain.Event) string {
	if event.CloserID != nil {
		if c, ok := rc.closers[*event.CloserID]; ok {
			return c.Name
		}
	}
	return ""
}

func (rc *reportContext) setterName(event *domain.Event) string {
	if event.SetterID != nil {
		if st, ok := rc.setters[*event.SetterID]; ok {
			return st.Name
		}
	}
	return ""
}
