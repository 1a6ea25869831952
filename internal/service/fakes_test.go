package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"triagedesk/internal/model"
)

// In-memory stand-ins for the repository layer.

type fakeCustomerStore struct {
	byEmail   map[string]*model.Customer
	nextID    int
	createErr error
	findErr   error
}

func newFakeCustomerStore() *fakeCustomerStore {
	return &fakeCustomerStore{byEmail: map[string]*model.Customer{}}
}

func (f *fakeCustomerStore) FindByEmail(_ context.Context, email string) (*model.Customer, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	c, ok := f.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return c, nil
}

func (f *fakeCustomerStore) Create(_ context.Context, c *model.Customer) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	c.ID = fmt.Sprintf("cust-%d", f.nextID)
	c.CreatedAt = time.Now()
	f.byEmail[c.Email] = c
	return nil
}

type fakeMessageStore struct {
	messages  []*model.Message
	nextID    int
	createErr error
	failAfter int // fail Create calls once this many have succeeded; 0 disables
}

func (f *fakeMessageStore) Create(_ context.Context, m *model.Message) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.failAfter > 0 && len(f.messages) >= f.failAfter {
		return fmt.Errorf("disk full")
	}
	f.nextID++
	m.ID = fmt.Sprintf("msg-%d", f.nextID)
	m.CreatedAt = time.Now()
	f.messages = append(f.messages, m)
	return nil
}

type fakeProfileStore struct {
	loanStatus map[string]string
}

func (f *fakeProfileStore) LoanStatus(_ context.Context, customerID string) (string, error) {
	return f.loanStatus[customerID], nil
}

type fakeMessageFinder struct {
	existing map[string]bool
}

func (f *fakeMessageFinder) FindByID(_ context.Context, id string) (*model.Message, error) {
	if !f.existing[id] {
		return nil, pgx.ErrNoRows
	}
	return &model.Message{ID: id, MessageType: model.MessageTypeCustomer}, nil
}

type fakeAssignmentStore struct {
	byMessage map[string]*model.Assignment
	nextID    int
	upsertErr error
}

func newFakeAssignmentStore() *fakeAssignmentStore {
	return &fakeAssignmentStore{byMessage: map[string]*model.Assignment{}}
}

func (f *fakeAssignmentStore) Upsert(_ context.Context, a *model.Assignment) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if existing, ok := f.byMessage[a.MessageID]; ok {
		a.ID = existing.ID
	} else {
		f.nextID++
		a.ID = fmt.Sprintf("asg-%d", f.nextID)
	}
	a.AssignedAt = time.Now()
	copied := *a
	f.byMessage[a.MessageID] = &copied
	return nil
}

func (f *fakeAssignmentStore) DeleteByMessageID(_ context.Context, messageID string) error {
	delete(f.byMessage, messageID)
	return nil
}

type fakeAgentStore struct {
	byEmail map[string]*model.Agent
	nextID  int
}

func newFakeAgentStore() *fakeAgentStore {
	return &fakeAgentStore{byEmail: map[string]*model.Agent{}}
}

func (f *fakeAgentStore) Create(_ context.Context, a *model.Agent) error {
	f.nextID++
	a.ID = fmt.Sprintf("agent-%d", f.nextID)
	a.CreatedAt = time.Now()
	f.byEmail[a.Email] = a
	return nil
}

func (f *fakeAgentStore) FindByEmail(_ context.Context, email string) (*model.Agent, error) {
	a, ok := f.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return a, nil
}

type stubDeduper struct {
	seen map[string]bool
}

func newStubDeduper() *stubDeduper {
	return &stubDeduper{seen: map[string]bool{}}
}

func (s *stubDeduper) AcquireOnce(_ context.Context, scope, key string) bool {
	k := scope + ":" + key
	if s.seen[k] {
		return false
	}
	s.seen[k] = true
	return true
}

type fakeCannedStore struct {
	templates []model.CannedMessage
	calls     int
	err       error
}

func (f *fakeCannedStore) ListAll(_ context.Context) ([]model.CannedMessage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.templates, nil
}
