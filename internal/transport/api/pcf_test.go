package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdesk/internal/domain"
)

func newPCFFixture(t *testing.T) (*PCFAPI, *fakeEventRepo, *fakePCFRepo, *domain.Event) {
	t.Helper()

	events := newFakeEventRepo()
	pcfs := &fakePCFRepo{}
	team := newFakeTeamRepo()

	event := &domain.Event{
		OrganizationID: "org-1",
		LeadName:       "Jane Lead",
		ScheduledAt:    time.Now(),
		PipelineStatus: "Showed - Offer Made",
	}
	require.NoError(t, events.Create(context.Background(), event))

	api := NewPCFAPI(events, pcfs, team, nil, nil, nil, nil, "http://localhost:8080")
	return api, events, pcfs, event
}

func submitPCF(t *testing.T, api *PCFAPI, eventID, body string) (echo.Context, int) {
	t.Helper()

	c, rec := newJSONContext(t, http.MethodPost, "/events/"+eventID+"/pcf", body)
	c.SetParamNames("id")
	c.SetParamValues(eventID)
	c.Set("org_id", "org-1")
	c.Set("user_id", "user-1")

	require.NoError(t, api.Submit(c))
	return c, rec.Code
}

func TestSubmitPCFUpdatesEventOutcome(t *testing.T) {
	api, events, pcfs, event := newPCFFixture(t)

	_, code := submitPCF(t, api, event.ID,
		`{"outcome":"closed","deal_value_cents":500000,"cash_collected_cents":250000,"notes":"paid half upfront"}`)
	require.Equal(t, http.StatusCreated, code)

	// Явный outcome из формы перекрывает pipeline-статус
	updated, err := events.FindByID(context.Background(), "org-1", event.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeClosed, updated.Outcome)

	require.Len(t, pcfs.forms, 1)
	assert.Equal(t, int64(500000), pcfs.forms[0].DealValueCents)
	assert.Equal(t, "user-1", pcfs.forms[0].SubmittedBy)

	// Собранный кеш превращается в платеж
	payments := events.payments[event.ID]
	require.Len(t, payments, 1)
	assert.Equal(t, int64(250000), payments[0].AmountCents)
}

func TestSubmitPCFWithoutCashCreatesNoPayment(t *testing.T) {
	api, events, _, event := newPCFFixture(t)

	_, code := submitPCF(t, api, event.ID, `{"outcome":"no_show"}`)
	require.Equal(t, http.StatusCreated, code)

	assert.Empty(t, events.payments[event.ID])
}

func TestSubmitPCFRejectsUnknownOutcome(t *testing.T) {
	api, _, pcfs, event := newPCFFixture(t)

	_, code := submitPCF(t, api, event.ID, `{"outcome":"maybe"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Empty(t, pcfs.forms)
}

func TestSubmitPCFRejectsNegativeAmounts(t *testing.T) {
	api, _, pcfs, event := newPCFFixture(t)

	_, code := submitPCF(t, api, event.ID, `{"outcome":"closed","deal_value_cents":-100}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Empty(t, pcfs.forms)
}

func TestSubmitPCFUnknownEvent(t *testing.T) {
	api, _, _, _ := newPCFFixture(t)

	_, code := submitPCF(t, api, "missing", `{"outcome":"closed"}`)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSubmitPCFOtherOrgEvent(t *testing.T) {
	api, events, _, _ := newPCFFixture(t)

	foreign := &domain.Event{
		OrganizationID: "org-2",
		LeadName:       "Other Lead",
		ScheduledAt:    time.Now(),
	}
	require.NoError(t, events.Create(context.Background(), foreign))

	_, code := submitPCF(t, api, foreign.ID, `{"outcome":"closed"}`)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestResyncRequiresCRMContact(t *testing.T) {
	api, _, _, event := newPCFFixture(t)

	c, rec := newJSONContext(t, http.MethodPost, "/events/"+event.ID+"/sync", "")
	c.SetParamNames("id")
	c.SetParamValues(event.ID)
	c.Set("org_id", "org-1")

	require.NoError(t, api.Resync(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestResyncRequiresPCF(t *testing.T) {
	api, events, _, event := newPCFFixture(t)

	event.CRMContactID = "crm-123"
	require.NoError(t, events.Update(context.Background(), event))

	c, rec := newJSONContext(t, http.MethodPost, "/events/"+event.ID+"/sync", "")
	c.SetParamNames("id")
	c.SetParamValues(event.ID)
	c.Set("org_id", "org-1")

	require.NoError(t, api.Resync(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestResyncSchedulesSync(t *testing.T) {
	api, events, _, event := newPCFFixture(t)

	event.CRMContactID = "crm-123"
	require.NoError(t, events.Update(context.Background(), event))

	_, code := submitPCF(t, api, event.ID, `{"outcome":"closed","deal_value_cents":100000}`)
	require.Equal(t, http.StatusCreated, code)

	c, rec := newJSONContext(t, http.MethodPost, "/events/"+event.ID+"/sync", "")
	c.SetParamNames("id")
	c.SetParamValues(event.ID)
	c.Set("org_id", "org-1")

	require.NoError(t, api.Resync(c))
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestListPCFsByEvent(t *testing.T) {
	api, _, _, event := newPCFFixture(t)

	_, code := submitPCF(t, api, event.ID, `{"outcome":"showed_offer_no_close"}`)
	require.Equal(t, http.StatusCreated, code)
	_, code = submitPCF(t, api, event.ID, `{"outcome":"closed","deal_value_cents":100000}`)
	require.Equal(t, http.StatusCreated, code)

	c, rec := newJSONContext(t, http.MethodGet, "/events/"+event.ID+"/pcf", "")
	c.SetParamNames("id")
	c.SetParamValues(event.ID)
	c.Set("org_id", "org-1")

	require.NoError(t, api.ListByEvent(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "showed_offer_no_close")
	assert.Contains(t, rec.Body.String(), "closed")
}
