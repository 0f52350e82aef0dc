package domain

import "time"

// Event - запланированный звонок (строка таблицы events)
type Event struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	LeadName       string    `db:"lead_name" json:"lead_name"`
	LeadEmail      string    `db:"lead_email" json:"lead_email"`
	LeadPhone      string    `db:"lead_phone" json:"lead_phone"`
	CloserID       *string   `db:"closer_id" json:"closer_id"`
	SetterID       *string   `db:"setter_id" json:"setter_id"`
	SourceID       *string   `db:"source_id" json:"source_id"`
	RawSource      string    `db:"raw_source" json:"raw_source"`
	ScheduledAt    time.Time `db:"scheduled_at" json:"scheduled_at"`
	PipelineStatus string    `db:"pipeline_status" json:"pipeline_status"`
	Outcome        Outcome   `db:"outcome" json:"outcome"`
	CRMContactID   string    `db:"crm_contact_id" json:"crm_contact_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// EffectiveOutcome - итоговый результат звонка: явный outcome из PCF
// имеет приоритет, иначе классифицируется pipeline-статус
func (e *Event) EffectiveOutcome() Outcome {
	if e.Outcome != OutcomeUnknown {
		return e.Outcome
	}
	return ClassifyPipelineStatus(e.PipelineStatus)
}

// Payment - платеж, привязанный к звонку
type Payment struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	EventID        string    `db:"event_id" json:"event_id"`
	AmountCents    int64     `db:"amount_cents" json:"amount_cents"`
	Currency       string    `db:"currency" json:"currency"`
	PaidAt         time.Time `db:"paid_at" json:"paid_at"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// EventFilter - фильтры отчета по звонкам
type EventFilter struct {
	From     *time.Time
	To       *time.Time
	CloserID string
	SetterID string
	SourceID string
	Outcome  Outcome
}

// FilterByOutcome оставляет события с данным итоговым результатом.
// Сравнивается EffectiveOutcome, а не хранимая колонка: событие без PCF
// с pipeline-статусом "No Show" тоже попадает в фильтр no_show.
func FilterByOutcome(events []*Event, outcome Outcome) []*Event {
	if outcome == OutcomeUnknown {
		return events
	}

	filtered := make([]*Event, 0, len(events))
	for _, e := range events {
		if e.EffectiveOutcome() == outcome {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// CallsReportEvent - строка отчета по звонкам (view-model для дашборда)
type CallsReportEvent struct {
	EventID        string    `json:"event_id"`
	LeadName       string    `json:"lead_name"`
	LeadEmail      string    `json:"lead_email"`
	CloserName     string    `json:"closer_name"`
	SetterName     string    `json:"setter_name"`
	Source         string    `json:"source"`
	Channel        string    `json:"channel"`
	ScheduledAt    time.Time `json:"scheduled_at"`
	PipelineStatus string    `json:"pipeline_status"`
	Outcome        Outcome   `json:"outcome"`
	CashCents      int64     `json:"cash_cents"`
	RevenueCents   int64     `json:"revenue_cents"`
}
