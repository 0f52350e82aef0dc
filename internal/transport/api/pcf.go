package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"salesdesk/internal/domain"
	repoInterface "salesdesk/internal/repository/interface"
	"salesdesk/internal/repository/rediscache"
	"salesdesk/internal/service/crmsync"
	"salesdesk/internal/service/encryption"
	"salesdesk/internal/service/mailer"
)

type PCFAPI struct {
	events  repoInterface.EventRepository
	pcfs    repoInterface.PCFRepository
	team    repoInterface.TeamRepository
	cache   *rediscache.ReportCache
	crm     *crmsync.Client
	mail    *mailer.Client
	crypto  *encryption.Encryptor
	baseURL string
}

type SubmitPCFRequest struct {
	Outcome            string `json:"outcome"`
	DealValueCents     int64  `json:"deal_value_cents"`
	CashCollectedCents int64  `json:"cash_collected_cents"`
	Objections         string `json:"objections"`
	Notes              string `json:"notes"`
}

func NewPCFAPI(
	events repoInterface.EventRepository,
	pcfs repoInterface.PCFRepository,
	team repoInterface.TeamRepository,
	cache *rediscache.ReportCache,
	crm *crmsync.Client,
	mail *mailer.Client,
	crypto *encryption.Encryptor,
	baseURL string,
) *PCFAPI {
	return &PCFAPI{
		events:  events,
		pcfs:    pcfs,
		team:    team,
		cache:   cache,
		crm:     crm,
		mail:    mail,
		crypto:  crypto,
		baseURL: baseURL,
	}
}

// Submit принимает post-call форму: фиксирует результат звонка,
// обновляет событие и запускает фоновую синхронизацию с CRM
func (a *PCFAPI) Submit(c echo.Context) error {
	orgID := c.Get("org_id").(string)
	userID := c.Get("user_id").(string)

	event, err := a.events.FindByID(c.Request().Context(), orgID, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "event not found"})
	}

	var req SubmitPCFRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	outcome, ok := domain.ParseOutcome(req.Outcome)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown outcome: " + req.Outcome})
	}

	if req.DealValueCents < 0 || req.CashCollectedCents < 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "money amounts cannot be negative"})
	}

	pcf := &domain.PostCallForm{
		OrganizationID:     orgID,
		EventID:            event.ID,
		CloserID:           event.CloserID,
		Outcome:            outcome,
		DealValueCents:     req.DealValueCents,
		CashCollectedCents: req.CashCollectedCents,
		Objections:         req.Objections,
		Notes:              req.Notes,
		SubmittedBy:        userID,
	}

	if err := a.pcfs.Create(c.Request().Context(), pcf); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to save post-call form"})
	}

	// Явный outcome из формы перекрывает классификацию pipeline-статуса
	event.Outcome = outcome
	if err := a.events.Update(c.Request().Context(), event); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to update event"})
	}

	if req.CashCollectedCents > 0 {
		payment := &domain.Payment{
			OrganizationID: orgID,
			EventID:        event.ID,
			AmountCents:    req.CashCollectedCents,
			Currency:       "USD",
			PaidAt:         time.Now(),
		}
		if err := a.events.CreatePayment(c.Request().Context(), payment); err != nil {
			log.Error().Err(err).Str("event_id", event.ID).Msg("failed to record PCF payment")
		}
	}

	a.cache.InvalidateOrg(c.Request().Context(), orgID)

	a.syncToCRM(c.Request().Context(), orgID, event, pcf)
	a.notifyAdmins(orgID, event, pcf)

	return c.JSON(http.StatusCreated, pcf)
}

// Resync вручную повторяет отправку результата звонка в CRM
func (a *PCFAPI) Resync(c echo.Context) error {
	orgID := c.Get("org_id").(string)

	event, err := a.events.FindByID(c.Request().Context(), orgID, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "event not found"})
	}

	if event.CRMContactID == "" {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "event has no CRM contact"})
	}

	forms, err := a.pcfs.FindByEventID(c.Request().Context(), orgID, event.ID)
	if err != nil || len(forms) == 0 {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "no post-call form to sync"})
	}

	a.syncToCRM(c.Request().Context(), orgID, event, forms[len(forms)-1])

	return c.JSON(http.StatusAccepted, map[string]string{"status": "sync scheduled"})
}

// ListByEvent возвращает все формы по звонку
func (a *PCFAPI) ListByEvent(c echo.Context) error {
	orgID := c.Get("org_id").(string)

	forms, err := a.pcfs.FindByEventID(c.Request().Context(), orgID, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load post-call forms"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"forms": forms})
}

// ListByOrg возвращает последние формы организации
func (a *PCFAPI) ListByOrg(c echo.Context) error {
	orgID := c.Get("org_id").(string)

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}

	forms, total, err := a.pcfs.FindByOrg(c.Request().Context(), orgID, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load post-call forms"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"forms": forms, "total": total})
}

// syncToCRM запускает фоновую отправку результата в CRM.
// Без crm_contact_id или API-ключа организации синхронизировать нечего.
func (a *PCFAPI) syncToCRM(ctx context.Context, orgID string, event *domain.Event, pcf *domain.PostCallForm) {
	if a.crm == nil || event.CRMContactID == "" {
		return
	}

	org, err := a.team.FindOrganizationByID(ctx, orgID)
	if err != nil || org.CRMAPIKey == "" {
		return
	}

	apiKey, err := a.crypto.Decrypt(org.CRMAPIKey)
	if err != nil {
		log.Error().Err(err).Str("org_id", orgID).Msg("failed to decrypt CRM API key")
		return
	}

	go a.crm.SyncEvent(context.Background(), crmsync.SyncPayload{
		CRMContactID:   event.CRMContactID,
		EventID:        event.ID,
		Outcome:        string(pcf.Outcome),
		DealValueCents: pcf.DealValueCents,
		APIKey:         apiKey,
	})
}

// notifyAdmins шлет администраторам письмо о новой форме
func (a *PCFAPI) notifyAdmins(orgID string, event *domain.Event, pcf *domain.PostCallForm) {
	if a.mail == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		users, err := a.team.FindUsersByOrg(ctx, orgID)
		if err != nil {
			log.Error().Err(err).Str("org_id", orgID).Msg("failed to load users for PCF notification")
			return
		}

		closerName := ""
		if event.CloserID != nil {
			if closers, err := a.team.FindClosersByOrg(ctx, orgID); err == nil {
				for _, cl := range closers {
					if cl.ID == *event.CloserID {
						closerName = cl.Name
						break
					}
				}
			}
		}

		link := a.baseURL + "/events/" + event.ID
		for _, u := range users {
			if u.Role != domain.RoleAdmin || !u.IsActive {
				continue
			}
			if err := a.mail.SendPCFNotification(ctx, u.Email, event.LeadName, string(pcf.Outcome), closerName, link); err != nil {
				log.Error().Err(err).Str("to", u.Email).Msg("failed to send PCF notification")
			}
		}
	}()
}
