package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"salesdesk/internal/domain"
	repoInterface "salesdesk/internal/repository/interface"
	"salesdesk/internal/repository/rediscache"
)

type EventsAPI struct {
	events  repoInterface.EventRepository
	payouts repoInterface.PayoutRepository
	cache   *rediscache.ReportCache
}

type CreateEventRequest struct {
	LeadName       string    `json:"lead_name"`
	LeadEmail      string    `json:"lead_email"`
	LeadPhone      string    `json:"lead_phone"`
	CloserID       *string   `json:"closer_id"`
	SetterID       *string   `json:"setter_id"`
	RawSource      string    `json:"raw_source"`
	ScheduledAt    time.Time `json:"scheduled_at"`
	PipelineStatus string    `json:"pipeline_status"`
	CRMContactID   string    `json:"crm_contact_id"`
}

type CreatePaymentRequest struct {
	AmountCents int64      `json:"amount_cents"`
	Currency    string     `json:"currency"`
	PaidAt      *time.Time `json:"paid_at"`
}

func NewEventsAPI(events repoInterface.EventRepository, payouts repoInterface.PayoutRepository, cache *rediscache.ReportCache) *EventsAPI {
	return &EventsAPI{
		events:  events,
		payouts: payouts,
		cache:   cache,
	}
}

// List возвращает звонки организации по фильтру
func (a *EventsAPI) List(c echo.Context) error {
	orgID := c.Get("org_id").(string)
	filter, err := parseEventFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	dbFilter := filter
	dbFilter.Outcome = domain.OutcomeUnknown

	events, err := a.events.FindByFilter(c.Request().Context(), orgID, dbFilter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load events"})
	}
	events = domain.FilterByOutcome(events, filter.Outcome)

	return c.JSON(http.StatusOK, map[string]interface{}{"events": events})
}

// Get возвращает один звонок
func (a *EventsAPI) Get(c echo.Context) error {
	orgID := c.Get("org_id").(string)

	event, err := a.events.FindByID(c.Request().Context(), orgID, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "event not found"})
	}

	return c.JSON(http.StatusOK, event)
}

// Create создает звонок
func (a *EventsAPI) Create(c echo.Context) error {
	orgID := c.Get("org_id").(string)

	var req CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if req.LeadName == "" || req.ScheduledAt.IsZero() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "lead_name and scheduled_at are required"})
	}

	event := &domain.Event{
		OrganizationID: orgID,
		LeadName:       req.LeadName,
		LeadEmail:      req.LeadEmail,
		LeadPhone:      req.LeadPhone,
		CloserID:       req.CloserID,
		SetterID:       req.SetterID,
		RawSource:      req.RawSource,
		ScheduledAt:    req.ScheduledAt,
		PipelineStatus: req.PipelineStatus,
		CRMContactID:   req.CRMContactID,
	}

	if err := a.events.Create(c.Request().Context(), event); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create event"})
	}

	a.cache.InvalidateOrg(c.Request().Context(), orgID)
	return c.JSON(http.StatusCreated, event)
}

// AddPayment привязывает платеж к звонку
func (a *EventsAPI) AddPayment(c echo.Context) error {
	orgID := c.Get("org_id").(string)

	event, err := a.events.FindByID(c.Request().Context(), orgID, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "event not found"})
	}

	var req CreatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if req.AmountCents <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "amount_cents must be positive"})
	}

	payment := &domain.Payment{
		OrganizationID: orgID,
		EventID:        event.ID,
		AmountCents:    req.AmountCents,
		Currency:       req.Currency,
		PaidAt:         time.Now(),
	}
	if payment.Currency == "" {
		payment.Currency = "USD"
	}
	if req.PaidAt != nil {
		payment.PaidAt = *req.PaidAt
	}

	if err := a.events.CreatePayment(c.Request().Context(), payment); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create payment"})
	}

	a.cache.InvalidateOrg(c.Request().Context(), orgID)
	return c.JSON(http.StatusCreated, payment)
}

// SyncLogs возвращает историю синхронизаций звонка с CRM
func (a *EventsAPI) SyncLogs(c echo.Context) error {
	orgID := c.Get("org_id").(string)

	event, err := a.events.FindByID(c.Request().Context(), orgID, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "event not found"})
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	logs, err := a.payouts.FindSyncLogsByEvent(c.Request().Context(), event.ID, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load sync logs"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"logs": logs})
}
