package domain

import "time"

// Source - канонический источник трафика организации
type Source struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	Name           string    `db:"name" json:"name"`
	Channel        string    `db:"channel" json:"channel"`
	Aliases        []string  `db:"-" json:"aliases"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Каналы атрибуции
const (
	ChannelPaid     = "paid"
	ChannelOrganic  = "organic"
	ChannelReferral = "referral"
	ChannelOutbound = "outbound"
	ChannelOther    = "other"
)

// AttributionNode - узел дерева атрибуции: канал -> источник
type AttributionNode struct {
	Key       string             `json:"key"`
	Calls     int                `json:"calls"`
	Shows     int                `json:"shows"`
	Closes    int                `json:"closes"`
	CashCents int64              `json:"cash_cents"`
	Children  []*AttributionNode `json:"children,omitempty"`
}
