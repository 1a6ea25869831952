package api

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"triagedesk/internal/model"
)

// In-memory backing stores shared by the handler tests. One bundle per test
// so tests never share state.

type fakeStore struct {
	customers   map[string]*model.Customer // by email
	byID        map[string]*model.Customer
	messages    map[string]*model.Message
	assignments map[string]*model.Assignment // by message id
	agents      map[string]*model.Agent      // by email
	profiles    map[string]*model.CustomerProfile
	canned      []model.CannedMessage
	nextID      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		customers:   map[string]*model.Customer{},
		byID:        map[string]*model.Customer{},
		messages:    map[string]*model.Message{},
		assignments: map[string]*model.Assignment{},
		agents:      map[string]*model.Agent{},
		profiles:    map[string]*model.CustomerProfile{},
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

// CustomerStore / CustomerReader

func (f *fakeStore) FindByEmail(_ context.Context, email string) (*model.Customer, error) {
	c, ok := f.customers[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return c, nil
}

func (f *fakeStore) Create(_ context.Context, c *model.Customer) error {
	c.ID = f.id("cust")
	c.CreatedAt = time.Now()
	f.customers[c.Email] = c
	f.byID[c.ID] = c
	return nil
}

func (f *fakeStore) FindByID(_ context.Context, id string) (*model.Customer, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return c, nil
}

type fakeMessages struct{ store *fakeStore }

func (f *fakeMessages) Create(_ context.Context, m *model.Message) error {
	m.ID = f.store.id("msg")
	m.CreatedAt = time.Now()
	f.store.messages[m.ID] = m
	return nil
}

func (f *fakeMessages) FindByID(_ context.Context, id string) (*model.Message, error) {
	m, ok := f.store.messages[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return m, nil
}

func (f *fakeMessages) ListByCustomer(_ context.Context, customerID string) ([]model.Message, error) {
	var out []model.Message
	for _, m := range f.store.messages {
		if m.CustomerID == customerID {
			out = append(out, *m)
		}
	}
	return out, nil
}

// DashboardReader over the same message map.

func (f *fakeMessages) ListDashboard(_ context.Context, limit int) ([]model.DashboardMessage, error) {
	var out []model.DashboardMessage
	for _, m := range f.store.messages {
		if m.MessageType != model.MessageTypeCustomer {
			continue
		}
		out = append(out, f.dashboardRow(m))
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeMessages) Search(_ context.Context, _ string, limit int) ([]model.DashboardMessage, error) {
	return f.ListDashboard(context.Background(), limit)
}

func (f *fakeMessages) GetDashboardByID(_ context.Context, id string) (*model.DashboardMessage, error) {
	m, ok := f.store.messages[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	row := f.dashboardRow(m)
	return &row, nil
}

func (f *fakeMessages) dashboardRow(m *model.Message) model.DashboardMessage {
	row := model.DashboardMessage{
		ID:           m.ID,
		Content:      m.Content,
		MessageType:  m.MessageType,
		UrgencyScore: m.UrgencyScore,
		CreatedAt:    m.CreatedAt,
		CustomerID:   m.CustomerID,
	}
	if c, ok := f.store.byID[m.CustomerID]; ok {
		row.CustomerEmail = c.Email
		row.CustomerName = c.Name
	}
	if a, ok := f.store.assignments[m.ID]; ok {
		row.AssignedAgentID = &a.AgentID
		row.AssignedAgentName = &a.AgentName
		row.AssignmentStatus = &a.Status
	}
	return row
}

type fakeProfiles struct{ store *fakeStore }

func (f *fakeProfiles) LoanStatus(_ context.Context, customerID string) (string, error) {
	p, ok := f.store.profiles[customerID]
	if !ok || p.LoanStatus == nil {
		return "", nil
	}
	return *p.LoanStatus, nil
}

func (f *fakeProfiles) FindByCustomerID(_ context.Context, customerID string) (*model.CustomerProfile, error) {
	p, ok := f.store.profiles[customerID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

type fakeAssignments struct{ store *fakeStore }

func (f *fakeAssignments) Upsert(_ context.Context, a *model.Assignment) error {
	if existing, ok := f.store.assignments[a.MessageID]; ok {
		a.ID = existing.ID
	} else {
		a.ID = f.store.id("asg")
	}
	a.AssignedAt = time.Now()
	copied := *a
	f.store.assignments[a.MessageID] = &copied
	return nil
}

func (f *fakeAssignments) DeleteByMessageID(_ context.Context, messageID string) error {
	delete(f.store.assignments, messageID)
	return nil
}

type fakeAgents struct{ store *fakeStore }

func (f *fakeAgents) Create(_ context.Context, a *model.Agent) error {
	a.ID = f.store.id("agent")
	a.CreatedAt = time.Now()
	f.store.agents[a.Email] = a
	return nil
}

func (f *fakeAgents) FindByEmail(_ context.Context, email string) (*model.Agent, error) {
	a, ok := f.store.agents[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return a, nil
}

type fakeCanned struct{ store *fakeStore }

func (f *fakeCanned) ListAll(_ context.Context) ([]model.CannedMessage, error) {
	return f.store.canned, nil
}
