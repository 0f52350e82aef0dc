package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"salesdesk/internal/domain"
	"salesdesk/internal/service/reporting"
)

type ReportsAPI struct {
	reports *reporting.Service
}

func NewReportsAPI(reports *reporting.Service) *ReportsAPI {
	return &ReportsAPI{reports: reports}
}

// Calls возвращает отчет по звонкам (JSON или CSV при ?format=csv)
func (a *ReportsAPI) Calls(c echo.Context) error {
	orgID := c.Get("org_id").(string)
	filter, err := parseEventFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if c.QueryParam("format") == "csv" {
		rows, err := a.allCallRows(c, orgID, filter)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to build report"})
		}
		return writeCSV(c, "calls.csv", func() error {
			return reporting.WriteCallsCSV(c.Response(), rows)
		})
	}

	report, err := a.reports.CallsReport(c.Request().Context(), orgID, filter, parsePage(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to build report"})
	}

	return c.JSON(http.StatusOK, report)
}

// Closers возвращает таблицу производительности клоузеров
func (a *ReportsAPI) Closers(c echo.Context) error {
	orgID := c.Get("org_id").(string)
	filter, err := parseEventFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	report, err := a.reports.CloserReport(c.Request().Context(), orgID, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to build report"})
	}

	if c.QueryParam("format") == "csv" {
		return writeCSV(c, "closers.csv", func() error {
			return reporting.WriteClosersCSV(c.Response(), report.Rows)
		})
	}

	return c.JSON(http.StatusOK, report)
}

// Setters возвращает таблицу производительности сеттеров
func (a *ReportsAPI) Setters(c echo.Context) error {
	orgID := c.Get("org_id").(string)
	filter, err := parseEventFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	report, err := a.reports.SetterReport(c.Request().Context(), orgID, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to build report"})
	}

	if c.QueryParam("format") == "csv" {
		return writeCSV(c, "setters.csv", func() error {
			return reporting.WriteSettersCSV(c.Response(), report.Rows)
		})
	}

	return c.JSON(http.StatusOK, report)
}

// Attribution возвращает дерево атрибуции канал -> источник
func (a *ReportsAPI) Attribution(c echo.Context) error {
	orgID := c.Get("org_id").(string)
	filter, err := parseEventFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	tree, err := a.reports.AttributionReport(c.Request().Context(), orgID, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to build report"})
	}

	if c.QueryParam("format") == "csv" {
		return writeCSV(c, "attribution.csv", func() error {
			return reporting.WriteAttributionCSV(c.Response(), tree)
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"tree": tree})
}

// allCallRows собирает все строки отчета для экспорта, постранично
func (a *ReportsAPI) allCallRows(c echo.Context, orgID string, filter domain.EventFilter) ([]domain.CallsReportEvent, error) {
	page := reporting.Page{
		SortBy:  c.QueryParam("sort_by"),
		SortDir: c.QueryParam("sort_dir"),
		Limit:   200,
	}

	var rows []domain.CallsReportEvent
	for {
		report, err := a.reports.CallsReport(c.Request().Context(), orgID, filter, page)
		if err != nil {
			return nil, err
		}
		rows = append(rows, report.Rows...)
		page.Offset += page.Limit
		if len(report.Rows) == 0 || page.Offset >= report.Total {
			return rows, nil
		}
	}
}

func writeCSV(c echo.Context, filename string, write func() error) error {
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	c.Response().WriteHeader(http.StatusOK)
	return write()
}

// parseEventFilter читает фильтры отчета из query-параметров.
// Даты принимаются как RFC3339 или YYYY-MM-DD.
func parseEventFilter(c echo.Context) (domain.EventFilter, error) {
	var filter domain.EventFilter

	if raw := c.QueryParam("from"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return filter, err
		}
		filter.From = &t
	}

	if raw := c.QueryParam("to"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return filter, err
		}
		filter.To = &t
	}

	filter.CloserID = c.QueryParam("closer_id")
	filter.SetterID = c.QueryParam("setter_id")
	filter.SourceID = c.QueryParam("source_id")

	if raw := c.QueryParam("outcome"); raw != "" {
		outcome, ok := domain.ParseOutcome(raw)
		if !ok {
			return filter, fmt.Errorf("unknown outcome: %s", raw)
		}
		filter.Outcome = outcome
	}

	return filter, nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func parsePage(c echo.Context) reporting.Page {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	return reporting.Page{
		SortBy:  c.QueryParam("sort_by"),
		SortDir: c.QueryParam("sort_dir"),
		Limit:   limit,
		Offset:  offset,
	}
}
