package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"salesdesk/internal/domain"
	repoInterface "salesdesk/internal/repository/interface"
	"salesdesk/internal/service/commission"
)

type CommissionAPI struct {
	payouts repoInterface.PayoutRepository
	links   *commission.Service
}

type CreateSnapshotRequest struct {
	RecipientName  string    `json:"recipient_name"`
	RecipientEmail string    `json:"recipient_email"`
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`

	Details []struct {
		EventID         *string   `json:"event_id"`
		Description     string    `json:"description"`
		DealValueCents  int64     `json:"deal_value_cents"`
		CommissionCents int64     `json:"commission_cents"`
		ClosedAt        time.Time `json:"closed_at"`
	} `json:"details"`
}

func NewCommissionAPI(payouts repoInterface.PayoutRepository, links *commission.Service) *CommissionAPI {
	return &CommissionAPI{
		payouts: payouts,
		links:   links,
	}
}

// CreateSnapshot фиксирует выплату комиссии за период
func (a *CommissionAPI) CreateSnapshot(c echo.Context) error {
	orgID := c.Get("org_id").(string)

	var req CreateSnapshotRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if req.RecipientName == "" || req.PeriodStart.IsZero() || req.PeriodEnd.IsZero() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "recipient_name, period_start and period_end are required"})
	}
	if req.PeriodEnd.Before(req.PeriodStart) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "period_end must be after period_start"})
	}

	snapshot := &domain.PayoutSnapshot{
		OrganizationID: orgID,
		RecipientName:  req.RecipientName,
		RecipientEmail: req.RecipientEmail,
		PeriodStart:    req.PeriodStart,
		PeriodEnd:      req.PeriodEnd,
	}

	for _, d := range req.Details {
		snapshot.Details = append(snapshot.Details, domain.PayoutSnapshotDetail{
			EventID:         d.EventID,
			Description:     d.Description,
			DealValueCents:  d.DealValueCents,
			CommissionCents: d.CommissionCents,
			ClosedAt:        d.ClosedAt,
		})
		snapshot.TotalCents += d.CommissionCents
	}

	if err := a.payouts.CreateSnapshot(c.Request().Context(), snapshot); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create payout snapshot"})
	}

	return c.JSON(http.StatusCreated, snapshot)
}

// ListSnapshots возвращает выплаты организации
func (a *CommissionAPI) ListSnapshots(c echo.Context) error {
	orgID := c.Get("org_id").(string)

	snapshots, err := a.payouts.FindSnapshotsByOrg(c.Request().Context(), orgID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load payout snapshots"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"snapshots": snapshots})
}

// GetSnapshot возвращает выплату с расшифровкой
func (a *CommissionAPI) GetSnapshot(c echo.Context) error {
	orgID := c.Get("org_id").(string)

	// Принадлежность организации проверяется до загрузки деталей
	snapshot, err := a.payouts.FindSnapshotByID(c.Request().Context(), orgID, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "payout snapshot not found"})
	}

	full, err := a.payouts.FindSnapshotWithDetails(c.Request().Context(), snapshot.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load payout details"})
	}

	return c.JSON(http.StatusOK, full)
}

// GenerateLink выпускает публичную ссылку на расшифровку выплаты
func (a *CommissionAPI) GenerateLink(c echo.Context) error {
	orgID := c.Get("org_id").(string)

	url, link, err := a.links.GenerateLink(c.Request().Context(), orgID, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "payout snapshot not found"})
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"url":        url,
		"expires_at": link.ExpiresAt,
	})
}

// PublicView отдает расшифровку выплаты по токену из ссылки.
// Несуществующие и просроченные токены неразличимы для клиента.
func (a *CommissionAPI) PublicView(c echo.Context) error {
	snapshot, err := a.links.ResolveToken(c.Request().Context(), c.Param("token"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "link not found or expired"})
	}

	return c.JSON(http.StatusOK, snapshot)
}
