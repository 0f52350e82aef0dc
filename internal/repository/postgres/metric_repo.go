package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"salesdesk/internal/domain"
	repoInterface "salesdesk/internal/repository/interface"
)

// MetricRepository - PostgreSQL реализация
type MetricRepository struct {
	db *sqlx.DB
}

// NewMetricRepository создает новый репозиторий
func NewMetricRepository(db *sqlx.DB) repoInterface.MetricRepository {
	return &MetricRepository{db: db}
}

// Create создает определение метрики
func (r *MetricRepository) Create(ctx context.Context, def *domain.MetricDefinition) error {
	filtersJSON, baseFiltersJSON, err := marshalFilters(def)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO metric_definitions (id, organization_id, name, dataset, operation, field, filters, base_filters, format, created_at, updated_at)
        VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
        RETURNING id, created_at, updated_at
    `

	return r.db.QueryRowContext(ctx, query,
		def.OrganizationID,
		def.Name,
		def.Dataset,
		def.Operation,
		def.Field,
		filtersJSON,
		baseFiltersJSON,
		def.Format,
	).Scan(&def.ID, &def.CreatedAt, &def.UpdatedAt)
}

// Update обновляет определение метрики
func (r *MetricRepository) Update(ctx context.Context, def *domain.MetricDefinition) error {
	filtersJSON, baseFiltersJSON, err := marshalFilters(def)
	if err != nil {
		return err
	}

	query := `
        UPDATE metric_definitions
        SET name = $1, dataset = $2, operation = $3, field = $4, filters = $5, base_filters = $6, format = $7, updated_at = NOW()
        WHERE id = $8 AND organization_id = $9
    `

	result, err := r.db.ExecContext(ctx, query,
		def.Name,
		def.Dataset,
		def.Operation,
		def.Field,
		filtersJSON,
		baseFiltersJSON,
		def.Format,
		def.ID,
		def.OrganizationID,
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

// Delete удаляет определение метрики
func (r *MetricRepository) Delete(ctx context.Context, orgID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM metric_definitions WHERE id = $1 AND organization_id = $2`, id, orgID)
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

// FindByID находит определение метрики
func (r *MetricRepository) FindByID(ctx context.Context, orgID, id string) (*domain.MetricDefinition, error) {
	query := `
        SELECT id, organization_id, name, dataset, operation, field, filters, base_filters, format, created_at, updated_at
        FROM metric_definitions
        WHERE id = $1 AND organization_id = $2
    `

	return scanMetricDefinition(r.db.QueryRowContext(ctx, query, id, orgID))
}

// FindByOrg находит все определения метрик организации
func (r *MetricRepository) FindByOrg(ctx context.Context, orgID string) ([]*domain.MetricDefinition, error) {
	query := `
        SELECT id, organization_id, name, dataset, operation, field, filters, base_filters, format, created_at, updated_at
        FROM metric_definitions
        WHERE organization_id = $1
        ORDER BY name
    `

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []*domain.MetricDefinition
	for rows.Next() {
		def, err := scanMetricDefinition(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}

	return defs, nil
}

// FindDatasetRecords находит записи датасета
func (r *MetricRepository) FindDatasetRecords(ctx context.Context, orgID, dataset string) ([]*domain.DatasetRecord, error) {
	query := `
        SELECT id, organization_id, dataset, properties, created_at
        FROM dataset_records
        WHERE organization_id = $1 AND dataset = $2
        ORDER BY created_at
    `

	rows, err := r.db.QueryContext(ctx, query, orgID, dataset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.DatasetRecord
	for rows.Next() {
		var record domain.DatasetRecord
		var propsJSON []byte

		err := rows.Scan(&record.ID, &record.OrganizationID, &record.Dataset, &propsJSON, &record.CreatedAt)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal(propsJSON, &record.Properties); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record properties: %w", err)
		}

		records = append(records, &record)
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMetricDefinition(row rowScanner) (*domain.MetricDefinition, error) {
	var def domain.MetricDefinition
	var filtersJSON, baseFiltersJSON []byte

	err := row.Scan(
		&def.ID,
		&def.OrganizationID,
		&def.Name,
		&def.Dataset,
		&def.Operation,
		&def.Field,
		&filtersJSON,
		&baseFiltersJSON,
		&def.Format,
		&def.CreatedAt,
		&def.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(filtersJSON, &def.Filters); err != nil {
		return nil, fmt.Errorf("failed to unmarshal filters: %w", err)
	}

	if err := json.Unmarshal(baseFiltersJSON, &def.BaseFilters); err != nil {
		return nil, fmt.Errorf("failed to unmarshal base filters: %w", err)
	}

	return &def, nil
}

func marshalFilters(def *domain.MetricDefinition) ([]byte, []byte, error) {
	filters := def.Filters
	if filters == nil {
		filters = []domain.MetricFilter{}
	}
	baseFilters := def.BaseFilters
	if baseFilters == nil {
		baseFilters = []domain.MetricFilter{}
	}

	filtersJSON, err := json.Marshal(filters)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal filters: %w", err)
	}

	baseFiltersJSON, err := json.Marshal(baseFilters)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal base filters: %w", err)
	}

	return filtersJSON, baseFiltersJSON, nil
}
