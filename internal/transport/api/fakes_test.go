package api

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"salesdesk/internal/domain"
)

// In-memory репозитории для тестов хендлеров

type fakeTeamRepo struct {
	seq     int
	orgs    map[string]*domain.Organization
	users   map[string]*domain.User
	invs    map[string]*domain.Invitation
	closers []*domain.Closer
	setters []*domain.Setter
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{
		orgs:  map[string]*domain.Organization{},
		users: map[string]*domain.User{},
		invs:  map[string]*domain.Invitation{},
	}
}

func (r *fakeTeamRepo) nextID(prefix string) string {
	r.seq++
	return fmt.Sprintf("%s-%d", prefix, r.seq)
}

func (r *fakeTeamRepo) CreateOrganization(_ context.Context, org *domain.Organization) error {
	org.ID = r.nextID("org")
	org.CreatedAt = time.Now()
	r.orgs[org.ID] = org
	return nil
}

func (r *fakeTeamRepo) FindOrganizationByID(_ context.Context, id string) (*domain.Organization, error) {
	if org, ok := r.orgs[id]; ok {
		return org, nil
	}
	return nil, sql.ErrNoRows
}

func (r *fakeTeamRepo) UpdateOrganization(_ context.Context, org *domain.Organization) error {
	if _, ok := r.orgs[org.ID]; !ok {
		return sql.ErrNoRows
	}
	r.orgs[org.ID] = org
	return nil
}

func (r *fakeTeamRepo) CreateUser(_ context.Context, user *domain.User) error {
	user.ID = r.nextID("user")
	user.IsActive = true
	user.CreatedAt = time.Now()
	r.users[user.ID] = user
	return nil
}

func (r *fakeTeamRepo) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeTeamRepo) FindUserByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (r *fakeTeamRepo) FindUsersByOrg(_ context.Context, orgID string) ([]*domain.User, error) {
	var users []*domain.User
	for _, u := range r.users {
		if u.OrganizationID == orgID {
			users = append(users, u)
		}
	}
	return users, nil
}

func (r *fakeTeamRepo) DeactivateUser(_ context.Context, orgID, id string) error {
	u, ok := r.users[id]
	if !ok || u.OrganizationID != orgID {
		return sql.ErrNoRows
	}
	u.IsActive = false
	return nil
}

func (r *fakeTeamRepo) CreateInvitation(_ context.Context, inv *domain.Invitation) error {
	inv.ID = r.nextID("inv")
	inv.CreatedAt = time.Now()
	r.invs[inv.ID] = inv
	return nil
}

func (r *fakeTeamRepo) RevokeInvitationsByEmail(_ context.Context, orgID, email string) error {
	for id, inv := range r.invs {
		if inv.OrganizationID == orgID && strings.EqualFold(inv.Email, email) && inv.AcceptedAt == nil {
			delete(r.invs, id)
		}
	}
	return nil
}

func (r *fakeTeamRepo) FindPendingInvitations(_ context.Context, orgID string) ([]*domain.Invitation, error) {
	var invs []*domain.Invitation
	for _, inv := range r.invs {
		if inv.OrganizationID == orgID && inv.AcceptedAt == nil {
			invs = append(invs, inv)
		}
	}
	return invs, nil
}

func (r *fakeTeamRepo) FindInvitationByEmail(_ context.Context, email string) (*domain.Invitation, error) {
	for _, inv := range r.invs {
		if strings.EqualFold(inv.Email, email) && inv.AcceptedAt == nil {
			return inv, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeTeamRepo) MarkInvitationAccepted(_ context.Context, id string) error {
	inv, ok := r.invs[id]
	if !ok {
		return sql.ErrNoRows
	}
	now := time.Now()
	inv.AcceptedAt = &now
	return nil
}

func (r *fakeTeamRepo) FindClosersByOrg(_ context.Context, orgID string) ([]*domain.Closer, error) {
	var closers []*domain.Closer
	for _, c := range r.closers {
		if c.OrganizationID == orgID {
			closers = append(closers, c)
		}
	}
	return closers, nil
}

func (r *fakeTeamRepo) FindSettersByOrg(_ context.Context, orgID string) ([]*domain.Setter, error) {
	var setters []*domain.Setter
	for _, s := range r.setters {
		if s.OrganizationID == orgID {
			setters = append(setters, s)
		}
	}
	return setters, nil
}

type fakeEventRepo struct {
	seq      int
	events   map[string]*domain.Event
	payments map[string][]*domain.Payment
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		events:   map[string]*domain.Event{},
		payments: map[string][]*domain.Payment{},
	}
}

func (r *fakeEventRepo) Create(_ context.Context, event *domain.Event) error {
	r.seq++
	event.ID = fmt.Sprintf("event-%d", r.seq)
	event.CreatedAt = time.Now()
	r.events[event.ID] = event
	return nil
}

func (r *fakeEventRepo) Update(_ context.Context, event *domain.Event) error {
	if _, ok := r.events[event.ID]; !ok {
		return sql.ErrNoRows
	}
	r.events[event.ID] = event
	return nil
}

func (r *fakeEventRepo) FindByID(_ context.Context, orgID, id string) (*domain.Event, error) {
	event, ok := r.events[id]
	if !ok || event.OrganizationID != orgID {
		return nil, sql.ErrNoRows
	}
	return event, nil
}

func (r *fakeEventRepo) FindByFilter(_ context.Context, orgID string, _ domain.EventFilter) ([]*domain.Event, error) {
	var events []*domain.Event
	for _, e := range r.events {
		if e.OrganizationID == orgID {
			events = append(events, e)
		}
	}
	return events, nil
}

func (r *fakeEventRepo) CreatePayment(_ context.Context, payment *domain.Payment) error {
	r.seq++
	payment.ID = fmt.Sprintf("payment-%d", r.seq)
	r.payments[payment.EventID] = append(r.payments[payment.EventID], payment)
	return nil
}

func (r *fakeEventRepo) PaymentsByEventIDs(_ context.Context, _ string, eventIDs []string) (map[string][]*domain.Payment, error) {
	result := map[string][]*domain.Payment{}
	for _, id := range eventIDs {
		if payments, ok := r.payments[id]; ok {
			result[id] = payments
		}
	}
	return result, nil
}

type fakePCFRepo struct {
	seq   int
	forms []*domain.PostCallForm
}

func (r *fakePCFRepo) Create(_ context.Context, pcf *domain.PostCallForm) error {
	r.seq++
	pcf.ID = fmt.Sprintf("pcf-%d", r.seq)
	pcf.SubmittedAt = time.Now()
	r.forms = append(r.forms, pcf)
	return nil
}

func (r *fakePCFRepo) FindByEventID(_ context.Context, orgID, eventID string) ([]*domain.PostCallForm, error) {
	var forms []*domain.PostCallForm
	for _, f := range r.forms {
		if f.OrganizationID == orgID && f.EventID == eventID {
			forms = append(forms, f)
		}
	}
	return forms, nil
}

func (r *fakePCFRepo) FindByOrg(_ context.Context, orgID string, limit, offset int) ([]*domain.PostCallForm, int, error) {
	var forms []*domain.PostCallForm
	for _, f := range r.forms {
		if f.OrganizationID == orgID {
			forms = append(forms, f)
		}
	}
	total := len(forms)
	if offset >= len(forms) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(forms) {
		end = len(forms)
	}
	return forms[offset:end], total, nil
}

func (r *fakePCFRepo) LatestByEventIDs(_ context.Context, orgID string, eventIDs []string) (map[string]*domain.PostCallForm, error) {
	result := map[string]*domain.PostCallForm{}
	for _, f := range r.forms {
		if f.OrganizationID != orgID {
			continue
		}
		for _, id := range eventIDs {
			if f.EventID == id {
				result[id] = f
			}
		}
	}
	return result, nil
}

type fakePayoutRepo struct {
	seq       int
	snapshots map[string]*domain.PayoutSnapshot
	links     map[string]*domain.CommissionLink
	logs      []*domain.CRMSyncLog
}

func newFakePayoutRepo() *fakePayoutRepo {
	return &fakePayoutRepo{
		snapshots: map[string]*domain.PayoutSnapshot{},
		links:     map[string]*domain.CommissionLink{},
	}
}

func (r *fakePayoutRepo) CreateSnapshot(_ context.Context, snapshot *domain.PayoutSnapshot) error {
	r.seq++
	snapshot.ID = fmt.Sprintf("snapshot-%d", r.seq)
	snapshot.CreatedAt = time.Now()
	r.snapshots[snapshot.ID] = snapshot
	return nil
}

func (r *fakePayoutRepo) FindSnapshotByID(_ context.Context, orgID, id string) (*domain.PayoutSnapshot, error) {
	snapshot, ok := r.snapshots[id]
	if !ok || snapshot.OrganizationID != orgID {
		return nil, sql.ErrNoRows
	}
	return snapshot, nil
}

func (r *fakePayoutRepo) FindSnapshotsByOrg(_ context.Context, orgID string) ([]*domain.PayoutSnapshot, error) {
	var snapshots []*domain.PayoutSnapshot
	for _, s := range r.snapshots {
		if s.OrganizationID == orgID {
			snapshots = append(snapshots, s)
		}
	}
	return snapshots, nil
}

func (r *fakePayoutRepo) CreateLink(_ context.Context, link *domain.CommissionLink) error {
	r.seq++
	link.ID = fmt.Sprintf("link-%d", r.seq)
	link.CreatedAt = time.Now()
	r.links[link.TokenHash] = link
	return nil
}

func (r *fakePayoutRepo) FindLinkByTokenHash(_ context.Context, hash string) (*domain.CommissionLink, error) {
	if link, ok := r.links[hash]; ok {
		return link, nil
	}
	return nil, sql.ErrNoRows
}

func (r *fakePayoutRepo) FindSnapshotWithDetails(_ context.Context, snapshotID string) (*domain.PayoutSnapshot, error) {
	if snapshot, ok := r.snapshots[snapshotID]; ok {
		return snapshot, nil
	}
	return nil, sql.ErrNoRows
}

func (r *fakePayoutRepo) CreateSyncLog(_ context.Context, entry *domain.CRMSyncLog) error {
	r.logs = append(r.logs, entry)
	return nil
}

func (r *fakePayoutRepo) FindSyncLogsByEvent(_ context.Context, eventID string, limit int) ([]*domain.CRMSyncLog, error) {
	var logs []*domain.CRMSyncLog
	for _, l := range r.logs {
		if l.EventID == eventID && len(logs) < limit {
			logs = append(logs, l)
		}
	}
	return logs, nil
}

type fakeSourceRepo struct {
	seq     int
	sources []*domain.Source
	aliases map[string]string
}

func newFakeSourceRepo() *fakeSourceRepo {
	return &fakeSourceRepo{aliases: map[string]string{}}
}

func (r *fakeSourceRepo) Create(_ context.Context, source *domain.Source) error {
	r.seq++
	source.ID = fmt.Sprintf("source-%d", r.seq)
	r.sources = append(r.sources, source)
	return nil
}

func (r *fakeSourceRepo) FindByOrg(_ context.Context, orgID string) ([]*domain.Source, error) {
	var sources []*domain.Source
	for _, s := range r.sources {
		if s.OrganizationID == orgID {
			sources = append(sources, s)
		}
	}
	return sources, nil
}

func (r *fakeSourceRepo) AddAlias(_ context.Context, orgID, sourceID, alias string) error {
	for _, s := range r.sources {
		if s.ID == sourceID && s.OrganizationID == orgID {
			r.aliases[alias] = s.Name
			return nil
		}
	}
	return sql.ErrNoRows
}

func (r *fakeSourceRepo) AliasesByOrg(_ context.Context, _ string) (map[string]string, error) {
	return r.aliases, nil
}

type fakeMetricRepo struct {
	seq     int
	defs    map[string]*domain.MetricDefinition
	records map[string][]*domain.DatasetRecord
}

func newFakeMetricRepo() *fakeMetricRepo {
	return &fakeMetricRepo{
		defs:    map[string]*domain.MetricDefinition{},
		records: map[string][]*domain.DatasetRecord{},
	}
}

func (r *fakeMetricRepo) Create(_ context.Context, def *domain.MetricDefinition) error {
	r.seq++
	def.ID = fmt.Sprintf("metric-%d", r.seq)
	r.defs[def.ID] = def
	return nil
}

func (r *fakeMetricRepo) Update(_ context.Context, def *domain.MetricDefinition) error {
	existing, ok := r.defs[def.ID]
	if !ok || existing.OrganizationID != def.OrganizationID {
		return sql.ErrNoRows
	}
	r.defs[def.ID] = def
	return nil
}

func (r *fakeMetricRepo) Delete(_ context.Context, orgID, id string) error {
	def, ok := r.defs[id]
	if !ok || def.OrganizationID != orgID {
		return sql.ErrNoRows
	}
	delete(r.defs, id)
	return nil
}

func (r *fakeMetricRepo) FindByID(_ context.Context, orgID, id string) (*domain.MetricDefinition, error) {
	def, ok := r.defs[id]
	if !ok || def.OrganizationID != orgID {
		return nil, sql.ErrNoRows
	}
	return def, nil
}

func (r *fakeMetricRepo) FindByOrg(_ context.Context, orgID string) ([]*domain.MetricDefinition, error) {
	var defs []*domain.MetricDefinition
	for _, d := range r.defs {
		if d.OrganizationID == orgID {
			defs = append(defs, d)
		}
	}
	return defs, nil
}

func (r *fakeMetricRepo) FindDatasetRecords(_ context.Context, orgID, dataset string) ([]*domain.DatasetRecord, error) {
	var records []*domain.DatasetRecord
	for _, rec := range r.records[dataset] {
		if rec.OrganizationID == orgID {
			records = append(records, rec)
		}
	}
	return records, nil
}
