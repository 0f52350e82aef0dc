package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"salesdesk/internal/domain"
	repoInterface "salesdesk/internal/repository/interface"
)

// PayoutRepository - PostgreSQL реализация
type PayoutRepository struct {
	db *sqlx.DB
}

// NewPayoutRepository создает новый репозиторий
func NewPayoutRepository(db *sqlx.DB) repoInterface.PayoutRepository {
	return &PayoutRepository{db: db}
}

// CreateSnapshot фиксирует выплату вместе со строками расшифровки
func (r *PayoutRepository) CreateSnapshot(ctx context.Context, snapshot *domain.PayoutSnapshot) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
        INSERT INTO payout_snapshots (id, organization_id, recipient_name, recipient_email, period_start, period_end, total_cents, created_at)
        VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, NOW())
        RETURNING id, created_at
    `

	err = tx.QueryRowContext(ctx, query,
		snapshot.OrganizationID,
		snapshot.RecipientName,
		snapshot.RecipientEmail,
		snapshot.PeriodStart,
		snapshot.PeriodEnd,
		snapshot.TotalCents,
	).Scan(&snapshot.ID, &snapshot.CreatedAt)
	if err != nil {
		return err
	}

	detailQuery := `
        INSERT INTO payout_snapshot_details (id, snapshot_id, event_id, description, deal_value_cents, commission_cents, closed_at)
        VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6)
        RETURNING id
    `

	for i := range snapshot.Details {
		d := &snapshot.Details[i]
		d.SnapshotID = snapshot.ID

		err := tx.QueryRowContext(ctx, detailQuery,
			d.SnapshotID,
			d.EventID,
			d.Description,
			d.DealValueCents,
			d.CommissionCents,
			d.ClosedAt,
		).Scan(&d.ID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// FindSnapshotByID находит выплату организации (без расшифровки)
func (r *PayoutRepository) FindSnapshotByID(ctx context.Context, orgID, id string) (*domain.PayoutSnapshot, error) {
	var snapshot domain.PayoutSnapshot

	query := `
        SELECT id, organization_id, recipient_name, recipient_email, period_start, period_end, total_cents, created_at
        FROM payout_snapshots
        WHERE id = $1 AND organization_id = $2
    `

	if err := r.db.GetContext(ctx, &snapshot, query, id, orgID); err != nil {
		return nil, err
	}

	return &snapshot, nil
}

// FindSnapshotsByOrg находит выплаты организации
func (r *PayoutRepository) FindSnapshotsByOrg(ctx context.Context, orgID string) ([]*domain.PayoutSnapshot, error) {
	var snapshots []*domain.PayoutSnapshot

	query := `
        SELECT id, organization_id, recipient_name, recipient_email, period_start, period_end, total_cents, created_at
        FROM payout_snapshots
        WHERE organization_id = $1
        ORDER BY created_at DESC
    `

	if err := r.db.SelectContext(ctx, &snapshots, query, orgID); err != nil {
		return nil, err
	}

	return snapshots, nil
}

// CreateLink создает публичную ссылку на выплату
func (r *PayoutRepository) CreateLink(ctx context.Context, link *domain.CommissionLink) error {
	query := `
        INSERT INTO commission_links (id, snapshot_id, token_hash, expires_at, created_at)
        VALUES (gen_random_uuid(), $1, $2, $3, NOW())
        RETURNING id, created_at
    `

	return r.db.QueryRowContext(ctx, query,
		link.SnapshotID,
		link.TokenHash,
		link.ExpiresAt,
	).Scan(&link.ID, &link.CreatedAt)
}

// FindLinkByTokenHash находит ссылку по хешу токена
func (r *PayoutRepository) FindLinkByTokenHash(ctx context.Context, hash string) (*domain.CommissionLink, error) {
	var link domain.CommissionLink

	query := `
        SELECT id, snapshot_id, token_hash, revoked_at, expires_at, created_at
        FROM commission_links
        WHERE token_hash = $1
    `

	if err := r.db.GetContext(ctx, &link, query, hash); err != nil {
		return nil, err
	}

	return &link, nil
}

// FindSnapshotWithDetails загружает выплату с расшифровкой для публичного просмотра
func (r *PayoutRepository) FindSnapshotWithDetails(ctx context.Context, snapshotID string) (*domain.PayoutSnapshot, error) {
	var snapshot domain.PayoutSnapshot

	query := `
        SELECT id, organization_id, recipient_name, recipient_email, period_start, period_end, total_cents, created_at
        FROM payout_snapshots
        WHERE id = $1
    `

	if err := r.db.GetContext(ctx, &snapshot, query, snapshotID); err != nil {
		return nil, err
	}

	detailQuery := `
        SELECT id, snapshot_id, event_id, description, deal_value_cents, commission_cents, closed_at
        FROM payout_snapshot_details
        WHERE snapshot_id = $1
        ORDER BY closed_at
    `

	if err := r.db.SelectContext(ctx, &snapshot.Details, detailQuery, snapshotID); err != nil {
		return nil, err
	}

	return &snapshot, nil
}

// CreateSyncLog создает запись о попытке синхронизации с CRM
func (r *PayoutRepository) CreateSyncLog(ctx context.Context, log *domain.CRMSyncLog) error {
	query := `
        INSERT INTO crm_sync_logs (event_id, payload, success, error, attempts, completed_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
        RETURNING id, completed_at
    `

	return r.db.QueryRowContext(ctx, query,
		log.EventID,
		log.Payload,
		log.Success,
		log.Error,
		log.Attempts,
	).Scan(&log.ID, &log.CompletedAt)
}

// FindSyncLogsByEvent возвращает последние попытки синхронизации по звонку
func (r *PayoutRepository) FindSyncLogsByEvent(ctx context.Context, eventID string, limit int) ([]*domain.CRMSyncLog, error) {
	var logs []*domain.CRMSyncLog

	query := `
        SELECT id, event_id, payload, success, error, attempts, completed_at
        FROM crm_sync_logs
        WHERE event_id = $1
        ORDER BY completed_at DESC
        LIMIT $2
    `

	if err := r.db.SelectContext(ctx, &logs, query, eventID, limit); err != nil {
		return nil, err
	}

	return logs, nil
}
