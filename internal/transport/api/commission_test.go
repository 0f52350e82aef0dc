package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdesk/internal/domain"
	"salesdesk/internal/service/commission"
)

func newCommissionFixture() (*CommissionAPI, *fakePayoutRepo) {
	payouts := newFakePayoutRepo()
	links := commission.NewService(payouts, "http://localhost:8080/api/v1", 30*24*time.Hour)
	return NewCommissionAPI(payouts, links), payouts
}

func TestCreateSnapshotTotalsDetails(t *testing.T) {
	api, _ := newCommissionFixture()

	c, rec := newJSONContext(t, http.MethodPost, "/payouts", `{
		"recipient_name": "Alice Closer",
		"recipient_email": "alice@acme.com",
		"period_start": "2026-08-01T00:00:00Z",
		"period_end": "2026-08-31T23:59:59Z",
		"details": [
			{"description": "Deal A", "deal_value_cents": 1000000, "commission_cents": 100000, "closed_at": "2026-08-10T12:00:00Z"},
			{"description": "Deal B", "deal_value_cents": 500000, "commission_cents": 50000, "closed_at": "2026-08-20T12:00:00Z"}
		]
	}`)
	c.Set("org_id", "org-1")

	require.NoError(t, api.CreateSnapshot(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var snapshot domain.PayoutSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.Equal(t, int64(150000), snapshot.TotalCents)
	assert.Len(t, snapshot.Details, 2)
}

func TestCreateSnapshotRejectsInvertedPeriod(t *testing.T) {
	api, _ := newCommissionFixture()

	c, rec := newJSONContext(t, http.MethodPost, "/payouts", `{
		"recipient_name": "Alice",
		"period_start": "2026-08-31T00:00:00Z",
		"period_end": "2026-08-01T00:00:00Z"
	}`)
	c.Set("org_id", "org-1")

	require.NoError(t, api.CreateSnapshot(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateLinkAndPublicView(t *testing.T) {
	api, payouts := newCommissionFixture()

	snapshot := &domain.PayoutSnapshot{
		OrganizationID: "org-1",
		RecipientName:  "Alice Closer",
		PeriodStart:    time.Now().AddDate(0, -1, 0),
		PeriodEnd:      time.Now(),
		TotalCents:     150000,
	}
	require.NoError(t, payouts.CreateSnapshot(context.Background(), snapshot))

	c, rec := newJSONContext(t, http.MethodPost, "/payouts/"+snapshot.ID+"/link", "")
	c.SetParamNames("id")
	c.SetParamValues(snapshot.ID)
	c.Set("org_id", "org-1")

	require.NoError(t, api.GenerateLink(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.URL, "/commission/")

	// Токен из URL открывает расшифровку без аутентификации
	token := resp.URL[strings.LastIndex(resp.URL, "/")+1:]

	c, rec = newJSONContext(t, http.MethodGet, "/commission/"+token, "")
	c.SetParamNames("token")
	c.SetParamValues(token)

	require.NoError(t, api.PublicView(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Alice Closer")
}

func TestGenerateLinkForeignSnapshot(t *testing.T) {
	api, payouts := newCommissionFixture()

	snapshot := &domain.PayoutSnapshot{OrganizationID: "org-2", RecipientName: "Bob"}
	require.NoError(t, payouts.CreateSnapshot(context.Background(), snapshot))

	c, rec := newJSONContext(t, http.MethodPost, "/payouts/"+snapshot.ID+"/link", "")
	c.SetParamNames("id")
	c.SetParamValues(snapshot.ID)
	c.Set("org_id", "org-1")

	require.NoError(t, api.GenerateLink(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublicViewUnknownToken(t *testing.T) {
	api, _ := newCommissionFixture()

	c, rec := newJSONContext(t, http.MethodGet, "/commission/bogus", "")
	c.SetParamNames("token")
	c.SetParamValues("bogus")

	require.NoError(t, api.PublicView(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublicViewExpiredLink(t *testing.T) {
	payouts := newFakePayoutRepo()
	links := commission.NewService(payouts, "http://localhost:8080/api/v1", -time.Hour)
	api := NewCommissionAPI(payouts, links)

	snapshot := &domain.PayoutSnapshot{OrganizationID: "org-1", RecipientName: "Alice"}
	require.NoError(t, payouts.CreateSnapshot(context.Background(), snapshot))

	url, _, err := links.GenerateLink(context.Background(), "org-1", snapshot.ID)
	require.NoError(t, err)
	token := url[strings.LastIndex(url, "/")+1:]

	c, rec := newJSONContext(t, http.MethodGet, "/commission/"+token, "")
	c.SetParamNames("token")
	c.SetParamValues(token)

	require.NoError(t, api.PublicView(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
