package postgres

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"

	"salesdesk/internal/domain"
	repoInterface "salesdesk/internal/repository/interface"
)

// SourceRepository - PostgreSQL реализация
type SourceRepository struct {
	db *sqlx.DB
}

// NewSourceRepository создает новый репозиторий
func NewSourceRepository(db *sqlx.DB) repoInterface.SourceRepository {
	return &SourceRepository{db: db}
}

// Create создает источник
func (r *SourceRepository) Create(ctx context.Context, source *domain.Source) error {
	query := `
        INSERT INTO sources (id, organization_id, name, channel, created_at)
        VALUES (gen_random_uuid(), $1, $2, $3, NOW())
        RETURNING id, created_at
    `

	err := r.db.QueryRowContext(ctx, query,
		source.OrganizationID,
		source.Name,
		source.Channel,
	).Scan(&source.ID, &source.CreatedAt)
	if err != nil {
		return err
	}

	for _, alias := range source.Aliases {
		if err := r.AddAlias(ctx, source.OrganizationID, source.ID, alias); err != nil {
			return err
		}
	}

	return nil
}

// FindByOrg находит источники организации вместе с алиасами
func (r *SourceRepository) FindByOrg(ctx context.Context, orgID string) ([]*domain.Source, error) {
	var sources []*domain.Source

	query := `
        SELECT id, organization_id, name, channel, created_at
        FROM sources
        WHERE organization_id = $1
        ORDER BY name
    `

	if err := r.db.SelectContext(ctx, &sources, query, orgID); err != nil {
		return nil, err
	}

	aliasQuery := `
        SELECT sa.source_id, sa.alias
        FROM source_aliases sa
        JOIN sources s ON s.id = sa.source_id
        WHERE s.organization_id = $1
    `

	rows, err := r.db.QueryContext(ctx, aliasQuery, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	aliases := make(map[string][]string)
	for rows.Next() {
		var sourceID, alias string
		if err := rows.Scan(&sourceID, &alias); err != nil {
			return nil, err
		}
		aliases[sourceID] = append(aliases[sourceID], alias)
	}

	for _, s := range sources {
		s.Aliases = aliases[s.ID]
	}

	return sources, nil
}

// AddAlias добавляет алиас к источнику своей организации.
// Чужой источник не находится, вставка не происходит.
func (r *SourceRepository) AddAlias(ctx context.Context, orgID, sourceID, alias string) error {
	query := `
        INSERT INTO source_aliases (source_id, alias)
        SELECT id, $3 FROM sources WHERE id = $1 AND organization_id = $2
    `

	result, err := r.db.ExecContext(ctx, query, sourceID, orgID, strings.ToLower(strings.TrimSpace(alias)))
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

// AliasesByOrg возвращает карту алиас -> каноническое имя источника
func (r *SourceRepository) AliasesByOrg(ctx context.Context, orgID string) (map[string]string, error) {
	query := `
        SELECT sa.alias, s.name
        FROM source_aliases sa
        JOIN sources s ON s.id = sa.source_id
        WHERE s.organization_id = $1
    `

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	aliases := make(map[string]string)
	for rows.Next() {
		var alias, name string
		if err := rows.Scan(&alias, &name); err != nil {
			return nil, err
		}
		aliases[strings.ToLower(alias)] = name
	}

	return aliases, nil
}
