package domain

import "time"

// PostCallForm - форма результата звонка (PCF)
type PostCallForm struct {
	ID                 string    `db:"id" json:"id"`
	OrganizationID     string    `db:"organization_id" json:"organization_id"`
	EventID            string    `db:"event_id" json:"event_id"`
	CloserID           *string   `db:"closer_id" json:"closer_id"`
	Outcome            Outcome   `db:"outcome" json:"outcome"`
	DealValueCents     int64     `db:"deal_value_cents" json:"deal_value_cents"`
	CashCollectedCents int64     `db:"cash_collected_cents" json:"cash_collected_cents"`
	Objections         string    `db:"objections" json:"objections"`
	Notes              string    `db:"notes" json:"notes"`
	SubmittedBy        string    `db:"submitted_by" json:"submitted_by"`
	SubmittedAt        time.Time `db:"submitted_at" json:"submitted_at"`
}
