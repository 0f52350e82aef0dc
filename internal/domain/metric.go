package domain

import "time"

// Операции calculated fields
const (
	MetricOpCount      = "count"
	MetricOpSum        = "sum"
	MetricOpAverage    = "average"
	MetricOpPercentage = "percentage"
)

// Операторы фильтров
const (
	FilterOpEq       = "eq"
	FilterOpNeq      = "neq"
	FilterOpGt       = "gt"
	FilterOpGte      = "gte"
	FilterOpLt       = "lt"
	FilterOpLte      = "lte"
	FilterOpContains = "contains"
)

// MetricFilter - одно условие отбора записей
type MetricFilter struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value string `json:"value"`
}

// MetricDefinition - пользовательское calculated field:
// count/sum/average/percentage над dataset_records
type MetricDefinition struct {
	ID             string         `db:"id" json:"id"`
	OrganizationID string         `db:"organization_id" json:"organization_id"`
	Name           string         `db:"name" json:"name"`
	Dataset        string         `db:"dataset" json:"dataset"`
	Operation      string         `db:"operation" json:"operation"`
	Field          string         `db:"field" json:"field"`
	Filters        []MetricFilter `db:"-" json:"filters"`
	// Для percentage: числитель - Filters, знаменатель - BaseFilters
	BaseFilters []MetricFilter `db:"-" json:"base_filters"`
	Format      string         `db:"format" json:"format"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// DatasetRecord - произвольная запись, по которой считаются формулы
type DatasetRecord struct {
	ID             string                 `db:"id" json:"id"`
	OrganizationID string                 `db:"organization_id" json:"organization_id"`
	Dataset        string                 `db:"dataset" json:"dataset"`
	Properties     map[string]interface{} `db:"-" json:"properties"`
	CreatedAt      time.Time              `db:"created_at" json:"created_at"`
}
