package formula

import (
	"fmt"
	"strconv"
	"strings"

	"salesdesk/internal/domain"
)

// Result - результат вычисления метрики
type Result struct {
	Value   float64 `json:"value"`
	Matched int     `json:"matched"`
	Format  string  `json:"format"`
}

// Evaluate вычисляет calculated field над записями датасета.
// Одна свертка: count/sum/average по отфильтрованным записям,
// percentage - доля Filters среди BaseFilters.
func Evaluate(def *domain.MetricDefinition, records []*domain.DatasetRecord) (Result, error) {
	switch def.Operation {
	case domain.MetricOpCount:
		matched := filterRecords(def.Filters, records)
		return Result{Value: float64(len(matched)), Matched: len(matched), Format: def.Format}, nil

	case domain.MetricOpSum:
		matched := filterRecords(def.Filters, records)
		var sum float64
		for _, r := range matched {
			if v, ok := numericField(r, def.Field); ok {
				sum += v
			}
		}
		return Result{Value: sum, Matched: len(matched), Format: def.Format}, nil

	case domain.MetricOpAverage:
		matched := filterRecords(def.Filters, records)
		var sum float64
		var n int
		for _, r := range matched {
			if v, ok := numericField(r, def.Field); ok {
				sum += v
				n++
			}
		}
		if n == 0 {
			return Result{Format: def.Format}, nil
		}
		return Result{Value: sum / float64(n), Matched: len(matched), Format: def.Format}, nil

	case domain.MetricOpPercentage:
		base := filterRecords(def.BaseFilters, records)
		if len(base) == 0 {
			return Result{Format: def.Format}, nil
		}
		matched := filterRecords(def.Filters, base)
		return Result{
			Value:   float64(len(matched)) / float64(len(base)) * 100,
			Matched: len(matched),
			Format:  def.Format,
		}, nil
	}

	return Result{}, fmt.Errorf("unknown operation: %s", def.Operation)
}

func filterRecords(filters []domain.MetricFilter, records []*domain.DatasetRecord) []*domain.DatasetRecord {
	if len(filters) == 0 {
		return records
	}

	var matched []*domain.DatasetRecord
	for _, r := range records {
		if matchesAll(filters, r) {
			matched = append(matched, r)
		}
	}
	return matched
}

func matchesAll(filters []domain.MetricFilter, record *domain.DatasetRecord) bool {
	for _, f := range filters {
		if !matches(f, record) {
			return false
		}
	}
	return true
}

func matches(f domain.MetricFilter, record *domain.DatasetRecord) bool {
	value, ok := record.Properties[f.Field]
	if !ok {
		return false
	}

	switch f.Op {
	case domain.FilterOpEq, domain.FilterOpNeq:
		equal := strings.EqualFold(stringify(value), f.Value)
		if f.Op == domain.FilterOpEq {
			return equal
		}
		return !equal

	case domain.FilterOpContains:
		return strings.Contains(
			strings.ToLower(stringify(value)),
			strings.ToLower(f.Value),
		)

	case domain.FilterOpGt, domain.FilterOpGte, domain.FilterOpLt, domain.FilterOpLte:
		left, lok := toFloat(value)
		right, rok := parseFloat(f.Value)
		if !lok || !rok {
			return false
		}
		switch f.Op {
		case domain.FilterOpGt:
			return left > right
		case domain.FilterOpGte:
			return left >= right
		case domain.FilterOpLt:
			return left < right
		default:
			return left <= right
		}
	}

	return false
}

func numericField(record *domain.DatasetRecord, field string) (float64, bool) {
	value, ok := record.Properties[field]
	if !ok {
		return 0, false
	}
	return toFloat(value)
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		return parseFloat(v)
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return fmt.Sprintf("%v", value)
}
