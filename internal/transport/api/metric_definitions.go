package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"salesdesk/internal/domain"
	repoInterface "salesdesk/internal/repository/interface"
	"salesdesk/internal/service/formula"
)

var (
	errInvalidRequest    = errors.New("invalid request")
	errMetricNameDataset = errors.New("name and dataset are required")
	errMetricOperation   = errors.New("operation must be count, sum, average or percentage")
	errMetricField       = errors.New("field is required for sum and average")
)

type MetricsAPI struct {
	metrics repoInterface.MetricRepository
}

type MetricDefinitionRequest struct {
	Name        string                `json:"name"`
	Dataset     string                `json:"dataset"`
	Operation   string                `json:"operation"`
	Field       string                `json:"field"`
	Filters     []domain.MetricFilter `json:"filters"`
	BaseFilters []domain.MetricFilter `json:"base_filters"`
	Format      string                `json:"format"`
}

func NewMetricsAPI(metrics repoInterface.MetricRepository) *MetricsAPI {
	return &MetricsAPI{metrics: metrics}
}

// List возвращает calculated fields организации
func (a *MetricsAPI) List(c echo.Context) error {
	orgID := c.Get("org_id").(string)

	defs, err := a.metrics.FindByOrg(c.Request().Context(), orgID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load metric definitions"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"definitions": defs})
}

// Create создает calculated field
func (a *MetricsAPI) Create(c echo.Context) error {
	orgID := c.Get("org_id").(string)

	def, err := a.bindDefinition(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	def.OrganizationID = orgID

	if err := a.metrics.Create(c.Request().Context(), def); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create metric definition"})
	}

	return c.JSON(http.StatusCreated, def)
}

// Update обновляет calculated field
func (a *MetricsAPI) Update(c echo.Context) error {
	orgID := c.Get("org_id").(string)

	def, err := a.bindDefinition(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	def.ID = c.Param("id")
	def.OrganizationID = orgID

	if err := a.metrics.Update(c.Request().Context(), def); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "metric definition not found"})
	}

	return c.JSON(http.StatusOK, def)
}

// Delete удаляет calculated field
func (a *MetricsAPI) Delete(c echo.Context) error {
	orgID := c.Get("org_id").(string)

	if err := a.metrics.Delete(c.Request().Context(), orgID, c.Param("id")); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "metric definition not found"})
	}

	return c.NoContent(http.StatusNoContent)
}

// Value вычисляет значение calculated field по его датасету
func (a *MetricsAPI) Value(c echo.Context) error {
	orgID := c.Get("org_id").(string)

	def, err := a.metrics.FindByID(c.Request().Context(), orgID, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "metric definition not found"})
	}

	records, err := a.metrics.FindDatasetRecords(c.Request().Context(), orgID, def.Dataset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load dataset records"})
	}

	result, err := formula.Evaluate(def, records)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, result)
}

func (a *MetricsAPI) bindDefinition(c echo.Context) (*domain.MetricDefinition, error) {
	var req MetricDefinitionRequest
	if err := c.Bind(&req); err != nil {
		return nil, errInvalidRequest
	}

	if req.Name == "" || req.Dataset == "" {
		return nil, errMetricNameDataset
	}

	switch req.Operation {
	case domain.MetricOpCount, domain.MetricOpSum, domain.MetricOpAverage, domain.MetricOpPercentage:
	default:
		return nil, errMetricOperation
	}

	if (req.Operation == domain.MetricOpSum || req.Operation == domain.MetricOpAverage) && req.Field == "" {
		return nil, errMetricField
	}

	return &domain.MetricDefinition{
		Name:        req.Name,
		Dataset:     req.Dataset,
		Operation:   req.Operation,
		Field:       req.Field,
		Filters:     req.Filters,
		BaseFilters: req.BaseFilters,
		Format:      req.Format,
	}, nil
}
