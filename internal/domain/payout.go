package domain

import "time"

// PayoutSnapshot - зафиксированная выплата комиссии за период
type PayoutSnapshot struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	RecipientName  string    `db:"recipient_name" json:"recipient_name"`
	RecipientEmail string    `db:"recipient_email" json:"recipient_email"`
	PeriodStart    time.Time `db:"period_start" json:"period_start"`
	PeriodEnd      time.Time `db:"period_end" json:"period_end"`
	TotalCents     int64     `db:"total_cents" json:"total_cents"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`

	Details []PayoutSnapshotDetail `db:"-" json:"details,omitempty"`
}

// PayoutSnapshotDetail - строка расшифровки выплаты
type PayoutSnapshotDetail struct {
	ID              string    `db:"id" json:"id"`
	SnapshotID      string    `db:"snapshot_id" json:"snapshot_id"`
	EventID         *string   `db:"event_id" json:"event_id"`
	Description     string    `db:"description" json:"description"`
	DealValueCents  int64     `db:"deal_value_cents" json:"deal_value_cents"`
	CommissionCents int64     `db:"commission_cents" json:"commission_cents"`
	ClosedAt        time.Time `db:"closed_at" json:"closed_at"`
}

// CommissionLink - публичная ссылка на расшифровку выплаты.
// Токен хранится только в виде хеша.
type CommissionLink struct {
	ID         string     `db:"id" json:"id"`
	SnapshotID string     `db:"snapshot_id" json:"snapshot_id"`
	TokenHash  string     `db:"token_hash" json:"-"`
	RevokedAt  *time.Time `db:"revoked_at" json:"revoked_at"`
	ExpiresAt  time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// Expired сообщает, действует ли еще ссылка.
func (l *CommissionLink) Expired(now time.Time) bool {
	return l.RevokedAt != nil || now.After(l.ExpiresAt)
}

// CRMSyncLog - запись о попытке синхронизации события с CRM
type CRMSyncLog struct {
	ID          int64     `db:"id" json:"id"`
	EventID     string    `db:"event_id" json:"event_id"`
	Payload     []byte    `db:"payload" json:"-"`
	Success     bool      `db:"success" json:"success"`
	Error       string    `db:"error" json:"error"`
	Attempts    int       `db:"attempts" json:"attempts"`
	CompletedAt time.Time `db:"completed_at" json:"completed_at"`
}
