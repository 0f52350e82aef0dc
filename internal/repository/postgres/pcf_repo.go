package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"salesdesk/internal/domain"
	repoInterface "salesdesk/internal/repository/interface"
)

// PCFRepository - PostgreSQL реализация
type PCFRepository struct {
	db *sqlx.DB
}

// NewPCFRepository создает новый репозиторий
func NewPCFRepository(db *sqlx.DB) repoInterface.PCFRepository {
	return &PCFRepository{db: db}
}

// Create сохраняет отправленную PCF-форму
func (r *PCFRepository) Create(ctx context.Context, pcf *domain.PostCallForm) error {
	query := `
        INSERT INTO post_call_forms (id, organization_id, event_id, closer_id, outcome,
            deal_value_cents, cash_collected_cents, objections, notes, submitted_by, submitted_at)
        VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
        RETURNING id, submitted_at
    `

	return r.db.QueryRowContext(ctx, query,
		pcf.OrganizationID,
		pcf.EventID,
		pcf.CloserID,
		pcf.Outcome,
		pcf.DealValueCents,
		pcf.CashCollectedCents,
		pcf.Objections,
		pcf.Notes,
		pcf.SubmittedBy,
	).Scan(&pcf.ID, &pcf.SubmittedAt)
}

// FindByEventID находит формы по звонку
func (r *PCFRepository) FindByEventID(ctx context.Context, orgID, eventID string) ([]*domain.PostCallForm, error) {
	var forms []*domain.PostCallForm

	query := `
        SELECT id, organization_id, event_id, closer_id, outcome, deal_value_cents,
            cash_collected_cents, objections, notes, submitted_by, submitted_at
        FROM post_call_forms
        WHERE organization_id = $1 AND event_id = $2
        ORDER BY submitted_at DESC
    `

	if err := r.db.SelectContext(ctx, &forms, query, orgID, eventID); err != nil {
		return nil, err
	}

	return forms, nil
}

// FindByOrg находит формы организации с пагинацией
func (r *PCFRepository) FindByOrg(ctx context.Context, orgID string, limit, offset int) ([]*domain.PostCallForm, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM post_call_forms WHERE organization_id = $1`, orgID)
	if err != nil {
		return nil, 0, err
	}

	query := `
        SELECT id, organization_id, event_id, closer_id, outcome, deal_value_cents,
            cash_collected_cents, objections, notes, submitted_by, submitted_at
        FROM post_call_forms
        WHERE organization_id = $1
        ORDER BY submitted_at DESC
        LIMIT $2 OFFSET $3
    `

	var forms []*domain.PostCallForm
	if err := r.db.SelectContext(ctx, &forms, query, orgID, limit, offset); err != nil {
		return nil, 0, err
	}

	return forms, total, nil
}

// LatestByEventIDs возвращает последнюю форму по каждому звонку
func (r *PCFRepository) LatestByEventIDs(ctx context.Context, orgID string, eventIDs []string) (map[string]*domain.PostCallForm, error) {
	latest := make(map[string]*domain.PostCallForm)
	if len(eventIDs) == 0 {
		return latest, nil
	}

	query := `
        SELECT DISTINCT ON (event_id) id, organization_id, event_id, closer_id, outcome,
            deal_value_cents, cash_collected_cents, objections, notes, submitted_by, submitted_at
        FROM post_call_forms
        WHERE organization_id = $1 AND event_id = ANY($2)
        ORDER BY event_id, submitted_at DESC
    `

	var forms []*domain.PostCallForm
	if err := r.db.SelectContext(ctx, &forms, query, orgID, pq.Array(eventIDs)); err != nil {
		return nil, err
	}

	for _, f := range forms {
		latest[f.EventID] = f
	}

	return latest, nil
}
