package domain

import (
	"strings"
	"time"
)

// Organization - организация (команда продаж)
type Organization struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	CRMAPIKey       string    `db:"crm_api_key" json:"-"`
	DefaultTimezone string    `db:"default_timezone" json:"default_timezone"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// User - пользователь дашборда
type User struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	Email          string    `db:"email" json:"email"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	DisplayName    string    `db:"display_name" json:"display_name"`
	Role           string    `db:"role" json:"role"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Роли пользователей
const (
	RoleAdmin  = "admin"
	RoleCloser = "closer"
	RoleSetter = "setter"
)

// Invitation - приглашение в команду
type Invitation struct {
	ID             string     `db:"id" json:"id"`
	OrganizationID string     `db:"organization_id" json:"organization_id"`
	Email          string     `db:"email" json:"email"`
	Role           string     `db:"role" json:"role"`
	TokenHash      string     `db:"token_hash" json:"-"`
	InvitedBy      string     `db:"invited_by" json:"invited_by"`
	AcceptedAt     *time.Time `db:"accepted_at" json:"accepted_at"`
	ExpiresAt      time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// Closer - клоузер (тот, кто проводит звонок)
type Closer struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	Name           string    `db:"name" json:"name"`
	Email          string    `db:"email" json:"email"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Setter - сеттер (тот, кто назначает звонок)
type Setter struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	Name           string    `db:"name" json:"name"`
	Email          string    `db:"email" json:"email"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// IdentityKey - ключ агрегации по email-или-имени.
// Уникальность клоузера/сеттера обеспечивается на чтении, не схемой.
func IdentityKey(email, name string) string {
	if e := strings.ToLower(strings.TrimSpace(email)); e != "" {
		return e
	}
	return strings.ToLower(strings.TrimSpace(name))
}
