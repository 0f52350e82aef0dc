package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"salesdesk/internal/domain"
	repoInterface "salesdesk/internal/repository/interface"
)

// EventRepository - PostgreSQL реализация
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository создает новый репозиторий
func NewEventRepository(db *sqlx.DB) repoInterface.EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, organization_id, lead_name, lead_email, lead_phone, closer_id, setter_id, source_id,
        raw_source, scheduled_at, pipeline_status, outcome, crm_contact_id, created_at, updated_at`

// Create создает новый звонок
func (r *EventRepository) Create(ctx context.Context, event *domain.Event) error {
	query := `
        INSERT INTO events (id, organization_id, lead_name, lead_email, lead_phone, closer_id, setter_id, source_id,
            raw_source, scheduled_at, pipeline_status, outcome, crm_contact_id, created_at, updated_at)
        VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
        RETURNING id, created_at, updated_at
    `

	row := r.db.QueryRowContext(ctx, query,
		event.OrganizationID,
		event.LeadName,
		event.LeadEmail,
		event.LeadPhone,
		event.CloserID,
		event.SetterID,
		event.SourceID,
		event.RawSource,
		event.ScheduledAt,
		event.PipelineStatus,
		event.Outcome,
		event.CRMContactID,
	)

	return row.Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
}

// Update обновляет звонок
func (r *EventRepository) Update(ctx context.Context, event *domain.Event) error {
	query := `
        UPDATE events
        SET lead_name = $1, lead_email = $2, lead_phone = $3, closer_id = $4, setter_id = $5,
            source_id = $6, raw_source = $7, scheduled_at = $8, pipeline_status = $9,
            outcome = $10, updated_at = NOW()
        WHERE id = $11 AND organization_id = $12
    `

	result, err := r.db.ExecContext(ctx, query,
		event.LeadName,
		event.LeadEmail,
		event.LeadPhone,
		event.CloserID,
		event.SetterID,
		event.SourceID,
		event.RawSource,
		event.ScheduledAt,
		event.PipelineStatus,
		event.Outcome,
		event.ID,
		event.OrganizationID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// FindByID находит звонок по ID в рамках организации
func (r *EventRepository) FindByID(ctx context.Context, orgID, id string) (*domain.Event, error) {
	var event domain.Event

	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 AND organization_id = $2`

	err := r.db.GetContext(ctx, &event, query, id, orgID)
	if err != nil {
		return nil, err
	}

	return &event, nil
}

// FindByFilter находит звонки организации по фильтрам отчета
func (r *EventRepository) FindByFilter(ctx context.Context, orgID string, filter domain.EventFilter) ([]*domain.Event, error) {
	conditions := []string{"organization_id = $1"}
	args := []interface{}{orgID}

	addCondition := func(clause string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, clause+" $"+strconv.Itoa(len(args)))
	}

	if filter.From != nil {
		addCondition("scheduled_at >=", *filter.From)
	}
	if filter.To != nil {
		addCondition("scheduled_at <", *filter.To)
	}
	if filter.CloserID != "" {
		addCondition("closer_id =", filter.CloserID)
	}
	if filter.SetterID != "" {
		addCondition("setter_id =", filter.SetterID)
	}
	if filter.SourceID != "" {
		addCondition("source_id =", filter.SourceID)
	}
	// Фильтр по outcome здесь невозможен: итоговый результат звонка
	// классифицируется из pipeline-статуса в Go (domain.FilterByOutcome)

	query := `SELECT ` + eventColumns + ` FROM events WHERE ` + strings.Join(conditions, " AND ") +
		` ORDER BY scheduled_at DESC`

	var events []*domain.Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}

	return events, nil
}

// CreatePayment создает платеж
func (r *EventRepository) CreatePayment(ctx context.Context, payment *domain.Payment) error {
	query := `
        INSERT INTO payments (id, organization_id, event_id, amount_cents, currency, paid_at, created_at)
        VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, NOW())
        RETURNING id, created_at
    `

	return r.db.QueryRowContext(ctx, query,
		payment.OrganizationID,
		payment.EventID,
		payment.AmountCents,
		payment.Currency,
		payment.PaidAt,
	).Scan(&payment.ID, &payment.CreatedAt)
}

// PaymentsByEventIDs возвращает платежи, сгруппированные по звонкам
func (r *EventRepository) PaymentsByEventIDs(ctx context.Context, orgID string, eventIDs []string) (map[string][]*domain.Payment, error) {
	grouped := make(map[string][]*domain.Payment)
	if len(eventIDs) == 0 {
		return grouped, nil
	}

	query := `
        SELECT id, organization_id, event_id, amount_cents, currency, paid_at, created_at
        FROM payments
        WHERE organization_id = $1 AND event_id = ANY($2)
        ORDER BY paid_at
    `

	var payments []*domain.Payment
	if err := r.db.SelectContext(ctx, &payments, query, orgID, pq.Array(eventIDs)); err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}

	for _, p := range payments {
		grouped[p.EventID] = append(grouped[p.EventID], p)
	}

	return grouped, nil
}
