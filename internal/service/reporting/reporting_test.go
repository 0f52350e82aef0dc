package reporting

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdesk/internal/domain"
)

// In-memory фейки репозиториев: отчеты собираются из заранее
// подготовленных срезов, БД в этих тестах не нужна.

type fakeEventRepo struct {
	events   []*domain.Event
	payments map[string][]*domain.Payment
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error  { return nil }
func (f *fakeEventRepo) Update(ctx context.Context, e *domain.Event) error  { return nil }
func (f *fakeEventRepo) FindByID(ctx context.Context, orgID, id string) (*domain.Event, error) {
	return nil, nil
}
func (f *fakeEventRepo) FindByFilter(ctx context.Context, orgID string, filter domain.EventFilter) ([]*domain.Event, error) {
	return f.events, nil
}
func (f *fakeEventRepo) CreatePayment(ctx context.Context, p *domain.Payment) error { return nil }
func (f *fakeEventRepo) PaymentsByEventIDs(ctx context.Context, orgID string, eventIDs []string) (map[string][]*domain.Payment, error) {
	return f.payments, nil
}

type fakePCFRepo struct {
	latest map[string]*domain.PostCallForm
}

func (f *fakePCFRepo) Create(ctx context.Context, pcf *domain.PostCallForm) error { return nil }
func (f *fakePCFRepo) FindByEventID(ctx context.Context, orgID, eventID string) ([]*domain.PostCallForm, error) {
	return nil, nil
}
func (f *fakePCFRepo) FindByOrg(ctx context.Context, orgID string, limit, offset int) ([]*domain.PostCallForm, int, error) {
	return nil, 0, nil
}
func (f *fakePCFRepo) LatestByEventIDs(ctx context.Context, orgID string, eventIDs []string) (map[string]*domain.PostCallForm, error) {
	if f.latest == nil {
		return map[string]*domain.PostCallForm{}, nil
	}
	return f.latest, nil
}

type fakeTeamRepo struct {
	closers []*domain.Closer
	setters []*domain.Setter
}

func (f *fakeTeamRepo) CreateOrganization(ctx context.Context, org *domain.Organization) error {
	return nil
}
func (f *fakeTeamRepo) FindOrganizationByID(ctx context.Context, id string) (*domain.Organization, error) {
	return nil, nil
}
func (f *fakeTeamRepo) UpdateOrganization(ctx context.Context, org *domain.Organization) error {
	return nil
}
func (f *fakeTeamRepo) CreateUser(ctx context.Context, user *domain.User) error { return nil }
func (f *fakeTeamRepo) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return nil, nil
}
func (f *fakeTeamRepo) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	return nil, nil
}
func (f *fakeTeamRepo) FindUsersByOrg(ctx context.Context, orgID string) ([]*domain.User, error) {
	return nil, nil
}
func (f *fakeTeamRepo) DeactivateUser(ctx context.Context, orgID, id string) error { return nil }
func (f *fakeTeamRepo) CreateInvitation(ctx context.Context, inv *domain.Invitation) error {
	return nil
}
func (f *fakeTeamRepo) RevokeInvitationsByEmail(ctx context.Context, orgID, email string) error {
	return nil
}
func (f *fakeTeamRepo) FindPendingInvitations(ctx context.Context, orgID string) ([]*domain.Invitation, error) {
	return nil, nil
}
func (f *fakeTeamRepo) FindInvitationByEmail(ctx context.Context, email string) (*domain.Invitation, error) {
	return nil, nil
}
func (f *fakeTeamRepo) MarkInvitationAccepted(ctx context.Context, id string) error { return nil }
func (f *fakeTeamRepo) FindClosersByOrg(ctx context.Context, orgID string) ([]*domain.Closer, error) {
	return f.closers, nil
}
func (f *fakeTeamRepo) FindSettersByOrg(ctx context.Context, orgID string) ([]*domain.Setter, error) {
	return f.setters, nil
}

type fakeSourceRepo struct{}

func (f *fakeSourceRepo) Create(ctx context.Context, s *domain.Source) error { return nil }
func (f *fakeSourceRepo) FindByOrg(ctx context.Context, orgID string) ([]*domain.Source, error) {
	return nil, nil
}
func (f *fakeSourceRepo) AddAlias(ctx context.Context, orgID, sourceID, alias string) error {
	return nil
}
func (f *fakeSourceRepo) AliasesByOrg(ctx context.Context, orgID string) (map[string]string, error) {
	return nil, nil
}

func strptr(s string) *string { return &s }

func testService() *Service {
	closerA := &domain.Closer{ID: "c1", Name: "Alice Closer", Email: "alice@acme.io"}
	// Дубль клоузера с тем же email: должен схлопнуться с c1
	closerDup := &domain.Closer{ID: "c2", Name: "A. Closer", Email: "ALICE@acme.io"}
	closerB := &domain.Closer{ID: "c3", Name: "Bob Closer"}
	setter := &domain.Setter{ID: "s1", Name: "Sam Setter", Email: "sam@acme.io"}

	now := time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC)

	events := []*domain.Event{
		{ID: "e1", LeadName: "Lead One", CloserID: strptr("c1"), SetterID: strptr("s1"), RawSource: "fb ads", ScheduledAt: now, PipelineStatus: "Closed Won"},
		{ID: "e2", LeadName: "Lead Two", CloserID: strptr("c2"), SetterID: strptr("s1"), RawSource: "fb", ScheduledAt: now.Add(time.Hour), PipelineStatus: "No Show"},
		{ID: "e3", LeadName: "Lead Three", CloserID: strptr("c3"), SetterID: strptr("s1"), RawSource: "referral", ScheduledAt: now.Add(2 * time.Hour), PipelineStatus: "Offer Made - Follow Up"},
		{ID: "e4", LeadName: "Lead Four", CloserID: strptr("c1"), RawSource: "ig", ScheduledAt: now.Add(3 * time.Hour), PipelineStatus: "Showed, no offer"},
	}

	payments := map[string][]*domain.Payment{
		"e1": {{EventID: "e1", AmountCents: 250000}, {EventID: "e1", AmountCents: 250000}},
	}

	pcfs := map[string]*domain.PostCallForm{
		"e1": {EventID: "e1", Outcome: domain.OutcomeClosed, DealValueCents: 1000000},
	}

	return NewService(
		&fakeEventRepo{events: events, payments: payments},
		&fakePCFRepo{latest: pcfs},
		&fakeTeamRepo{closers: []*domain.Closer{closerA, closerDup, closerB}, setters: []*domain.Setter{setter}},
		&fakeSourceRepo{},
		nil,
	)
}

func TestCallsReport(t *testing.T) {
	svc := testService()

	report, err := svc.CallsReport(context.Background(), "org-1", domain.EventFilter{}, Page{})
	require.NoError(t, err)
	require.Equal(t, 4, report.Total)

	// По умолчанию новые сверху
	assert.Equal(t, "e4", report.Rows[0].EventID)

	byID := make(map[string]domain.CallsReportEvent)
	for _, row := range report.Rows {
		byID[row.EventID] = row
	}

	assert.Equal(t, domain.OutcomeClosed, byID["e1"].Outcome)
	assert.Equal(t, "facebook", byID["e1"].Source)
	assert.Equal(t, domain.ChannelPaid, byID["e1"].Channel)
	assert.Equal(t, int64(500000), byID["e1"].CashCents)
	assert.Equal(t, int64(1000000), byID["e1"].RevenueCents)
	assert.Equal(t, "Alice Closer", byID["e1"].CloserName)
	assert.Equal(t, "Sam Setter", byID["e1"].SetterName)

	assert.Equal(t, domain.OutcomeNoShow, byID["e2"].Outcome)
	assert.Equal(t, int64(0), byID["e2"].CashCents)
}

func TestCallsReportPagination(t *testing.T) {
	svc := testService()

	report, err := svc.CallsReport(context.Background(), "org-1", domain.EventFilter{}, Page{Limit: 2, Offset: 2, SortBy: "date", SortDir: "asc"})
	require.NoError(t, err)
	assert.Equal(t, 4, report.Total)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, "e3", report.Rows[0].EventID)
	assert.Equal(t, "e4", report.Rows[1].EventID)
}

func TestCloserReport(t *testing.T) {
	svc := testService()

	report, err := svc.CloserReport(context.Background(), "org-1", domain.EventFilter{})
	require.NoError(t, err)

	// c1 и c2 - один человек по email, несмотря на разные имена
	require.Len(t, report.Rows, 2)

	alice := report.Rows[0]
	assert.Equal(t, "alice@acme.io", alice.Key)
	assert.Equal(t, 3, alice.CallsBooked)
	assert.Equal(t, 2, alice.Shows)
	assert.Equal(t, 1, alice.NoShows)
	assert.Equal(t, 1, alice.Closes)
	assert.InDelta(t, 66.67, alice.ShowRate, 0.01)
	assert.InDelta(t, 50.0, alice.CloseRate, 0.01)
	assert.Equal(t, int64(500000), alice.CashCents)
	assert.Equal(t, int64(1000000), alice.RevenueCents)

	bob := report.Rows[1]
	assert.Equal(t, "bob closer", bob.Key)
	assert.Equal(t, 1, bob.CallsBooked)
	assert.Equal(t, 1, bob.Offers)
	assert.Equal(t, 0, bob.Closes)
}

func TestSetterReport(t *testing.T) {
	svc := testService()

	report, err := svc.SetterReport(context.Background(), "org-1", domain.EventFilter{})
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)

	sam := report.Rows[0]
	assert.Equal(t, 3, sam.SetsBooked)
	assert.Equal(t, 2, sam.ShowsHeld)
	assert.Equal(t, 1, sam.Closes)
	assert.Equal(t, int64(500000), sam.CashCents)
}

func TestAttributionReport(t *testing.T) {
	svc := testService()

	tree, err := svc.AttributionReport(context.Background(), "org-1", domain.EventFilter{})
	require.NoError(t, err)
	require.Len(t, tree, 2)

	assert.Equal(t, domain.ChannelPaid, tree[0].Key)
	assert.Equal(t, 3, tree[0].Calls)
	require.Len(t, tree[0].Children, 2)
	assert.Equal(t, "facebook", tree[0].Children[0].Key)
	assert.Equal(t, 2, tree[0].Children[0].Calls)
}

func TestWriteCallsCSV(t *testing.T) {
	svc := testService()

	report, err := svc.CallsReport(context.Background(), "org-1", domain.EventFilter{}, Page{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCallsCSV(&buf, report.Rows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "Cash Collected")
	assert.Contains(t, buf.String(), "5000.00")
	assert.Contains(t, buf.String(), "Lead One")
}

func TestWriteClosersCSV(t *testing.T) {
	svc := testService()

	report, err := svc.CloserReport(context.Background(), "org-1", domain.EventFilter{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteClosersCSV(&buf, report.Rows))

	assert.Contains(t, buf.String(), "Alice Closer")
	assert.Contains(t, buf.String(), "66.7%")
}

func TestWriteAttributionCSV(t *testing.T) {
	svc := testService()

	tree, err := svc.AttributionReport(context.Background(), "org-1", domain.EventFilter{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteAttributionCSV(&buf, tree))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Contains(t, lines[0], "Channel,Source")
	// По строке на источник внутри канала
	assert.Contains(t, buf.String(), "paid,facebook")
}

func TestCallsReportOutcomeFilterUsesClassification(t *testing.T) {
	svc := testService()

	// У Lead Two нет PCF: no_show существует только как классификация
	// pipeline-статуса "No Show"
	report, err := svc.CallsReport(context.Background(), "org-1", domain.EventFilter{
		Outcome: domain.OutcomeNoShow,
	}, Page{})
	require.NoError(t, err)

	require.Equal(t, 1, report.Total)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, "Lead Two", report.Rows[0].LeadName)
	assert.Equal(t, domain.OutcomeNoShow, report.Rows[0].Outcome)
}

func TestCloserReportOutcomeFilter(t *testing.T) {
	svc := testService()

	report, err := svc.CloserReport(context.Background(), "org-1", domain.EventFilter{
		Outcome: domain.OutcomeClosed,
	})
	require.NoError(t, err)

	require.Len(t, report.Rows, 1)
	assert.Equal(t, "Alice Closer", report.Rows[0].Name)
	assert.Equal(t, 1, report.Rows[0].Closes)
}
