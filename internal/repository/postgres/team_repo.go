package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"salesdesk/internal/domain"
	repoInterface "salesdesk/internal/repository/interface"
)

// TeamRepository - PostgreSQL реализация
type TeamRepository struct {
	db *sqlx.DB
}

// NewTeamRepository создает новый репозиторий
func NewTeamRepository(db *sqlx.DB) repoInterface.TeamRepository {
	return &TeamRepository{db: db}
}

// CreateOrganization создает организацию
func (r *TeamRepository) CreateOrganization(ctx context.Context, org *domain.Organization) error {
	query := `
        INSERT INTO organizations (id, name, crm_api_key, default_timezone, created_at, updated_at)
        VALUES (gen_random_uuid(), $1, $2, $3, NOW(), NOW())
        RETURNING id, created_at, updated_at
    `

	return r.db.QueryRowContext(ctx, query,
		org.Name,
		org.CRMAPIKey,
		org.DefaultTimezone,
	).Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
}

// FindOrganizationByID находит организацию по ID
func (r *TeamRepository) FindOrganizationByID(ctx context.Context, id string) (*domain.Organization, error) {
	var org domain.Organization

	query := `
        SELECT id, name, crm_api_key, default_timezone, created_at, updated_at
        FROM organizations
        WHERE id = $1
    `

	if err := r.db.GetContext(ctx, &org, query, id); err != nil {
		return nil, err
	}

	return &org, nil
}

// UpdateOrganization обновляет организацию
func (r *TeamRepository) UpdateOrganization(ctx context.Context, org *domain.Organization) error {
	query := `
        UPDATE organizations
        SET name = $1, crm_api_key = $2, default_timezone = $3, updated_at = NOW()
        WHERE id = $4
    `

	result, err := r.db.ExecContext(ctx, query, org.Name, org.CRMAPIKey, org.DefaultTimezone, org.ID)
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

// CreateUser создает пользователя
func (r *TeamRepository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
        INSERT INTO users (id, organization_id, email, password_hash, display_name, role, is_active, created_at, updated_at)
        VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, TRUE, NOW(), NOW())
        RETURNING id, is_active, created_at, updated_at
    `

	return r.db.QueryRowContext(ctx, query,
		user.OrganizationID,
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		user.Role,
	).Scan(&user.ID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
}

// FindUserByEmail находит пользователя по email
func (r *TeamRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User

	query := `
        SELECT id, organization_id, email, password_hash, display_name, role, is_active, created_at, updated_at
        FROM users
        WHERE LOWER(email) = LOWER($1)
    `

	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}

	return &user, nil
}

// FindUserByID находит пользователя по ID
func (r *TeamRepository) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User

	query := `
        SELECT id, organization_id, email, password_hash, display_name, role, is_active, created_at, updated_at
        FROM users
        WHERE id = $1
    `

	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}

	return &user, nil
}

// FindUsersByOrg находит всех пользователей организации
func (r *TeamRepository) FindUsersByOrg(ctx context.Context, orgID string) ([]*domain.User, error) {
	var users []*domain.User

	query := `
        SELECT id, organization_id, email, password_hash, display_name, role, is_active, created_at, updated_at
        FROM users
        WHERE organization_id = $1
        ORDER BY created_at
    `

	if err := r.db.SelectContext(ctx, &users, query, orgID); err != nil {
		return nil, err
	}

	return users, nil
}

// DeactivateUser деактивирует пользователя (не удаляем: на нем висит история)
func (r *TeamRepository) DeactivateUser(ctx context.Context, orgID, id string) error {
	query := `UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND organization_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, orgID)
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

// CreateInvitation создает приглашение
func (r *TeamRepository) CreateInvitation(ctx context.Context, inv *domain.Invitation) error {
	query := `
        INSERT INTO invitations (id, organization_id, email, role, token_hash, invited_by, expires_at, created_at)
        VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, NOW())
        RETURNING id, created_at
    `

	return r.db.QueryRowContext(ctx, query,
		inv.OrganizationID,
		inv.Email,
		inv.Role,
		inv.TokenHash,
		inv.InvitedBy,
		inv.ExpiresAt,
	).Scan(&inv.ID, &inv.CreatedAt)
}

// RevokeInvitationsByEmail отзывает прежние приглашения на этот email
func (r *TeamRepository) RevokeInvitationsByEmail(ctx context.Context, orgID, email string) error {
	query := `
        UPDATE invitations SET expires_at = NOW()
        WHERE organization_id = $1 AND LOWER(email) = LOWER($2) AND accepted_at IS NULL
    `

	_, err := r.db.ExecContext(ctx, query, orgID, email)
	return err
}

// FindPendingInvitations находит непринятые приглашения организации
func (r *TeamRepository) FindPendingInvitations(ctx context.Context, orgID string) ([]*domain.Invitation, error) {
	var invitations []*domain.Invitation

	query := `
        SELECT id, organization_id, email, role, token_hash, invited_by, accepted_at, expires_at, created_at
        FROM invitations
        WHERE organization_id = $1 AND accepted_at IS NULL AND expires_at > NOW()
        ORDER BY created_at DESC
    `

	if err := r.db.SelectContext(ctx, &invitations, query, orgID); err != nil {
		return nil, err
	}

	return invitations, nil
}

// FindInvitationByEmail находит действующее приглашение по email
func (r *TeamRepository) FindInvitationByEmail(ctx context.Context, email string) (*domain.Invitation, error) {
	var inv domain.Invitation

	query := `
        SELECT id, organization_id, email, role, token_hash, invited_by, accepted_at, expires_at, created_at
        FROM invitations
        WHERE LOWER(email) = LOWER($1) AND accepted_at IS NULL AND expires_at > NOW()
        ORDER BY created_at DESC
        LIMIT 1
    `

	if err := r.db.GetContext(ctx, &inv, query, email); err != nil {
		return nil, err
	}

	return &inv, nil
}

// MarkInvitationAccepted отмечает приглашение принятым
func (r *TeamRepository) MarkInvitationAccepted(ctx context.Context, id string) error {
	query := `UPDATE invitations SET accepted_at = NOW() WHERE id = $1 AND accepted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
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

// FindClosersByOrg находит клоузеров организации
func (r *TeamRepository) FindClosersByOrg(ctx context.Context, orgID string) ([]*domain.Closer, error) {
	var closers []*domain.Closer

	query := `
        SELECT id, organization_id, name, email, is_active, created_at
        FROM closers
        WHERE organization_id = $1
        ORDER BY name
    `

	if err := r.db.SelectContext(ctx, &closers, query, orgID); err != nil {
		return nil, err
	}

	return closers, nil
}

// FindSettersByOrg находит сеттеров организации
func (r *TeamRepository) FindSettersByOrg(ctx context.Context, orgID string) ([]*domain.Setter, error) {
	var setters []*domain.Setter

	query := `
        SELECT id, organization_id, name, email, is_active, created_at
        FROM setters
        WHERE organization_id = $1
        ORDER BY name
    `

	if err := r.db.SelectContext(ctx, &setters, query, orgID); err != nil {
		return nil, err
	}

	return setters, nil
}
