package customer

import (
	"context"
	"fmt"
	"sync"
)

type fakePayments struct {
	mu        sync.Mutex
	customers []PaymentsCustomer
	deleted   map[string]bool
	nextID    int

	retrieveErr error
	listErr     error
	createErr   error

	retrieves int
	lists     int
	creates   []NewPaymentsCustomer
}

var _ Payments = &fakePayments{}

func newFakePayments(existing ...PaymentsCustomer) *fakePayments {
	return &fakePayments{
		customers: existing,
		deleted:   make(map[string]bool),
	}
}

func (f *fakePayments) Retrieve(ctx context.Context, id string) (*PaymentsCustomer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retrieves++
	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}
	for _, c := range f.customers {
		if c.ID == id && !f.deleted[id] {
			c := c
			return &c, nil
		}
	}
	return nil, fmt.Errorf("no such customer %s: %w", id, ErrPaymentsCustomerNotFound)
}

func (f *fakePayments) ListByEmail(ctx context.Context, email string, limit int64) ([]PaymentsCustomer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []PaymentsCustomer
	for _, c := range f.customers {
		if c.Email == email && !f.deleted[c.ID] {
			out = append(out, c)
		}
		if int64(len(out)) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakePayments) Create(ctx context.Context, p NewPaymentsCustomer) (*PaymentsCustomer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.creates = append(f.creates, p)
	f.nextID++
	c := PaymentsCustomer{
		ID:    fmt.Sprintf("cus_new%d", f.nextID),
		Email: p.Email,
		Name:  p.Name,
	}
	f.customers = append(f.customers, c)
	return &c, nil
}

func (f *fakePayments) writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creates)
}

type fakeStore struct {
	mu      sync.Mutex
	records map[string]*Record
	nextID  int

	findErr   error
	patchErr  error
	createErr error

	patches []Patch
	created []Record
}

var _ Store = &fakeStore{}

func newFakeStore(existing ...Record) *fakeStore {
	s := &fakeStore{
		records: make(map[string]*Record),
	}
	for i := range existing {
		rec := existing[i]
		s.records[rec.ID] = &rec
	}
	return s
}

func (s *fakeStore) FindByEmail(ctx context.Context, email string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	for _, rec := range s.records {
		if rec.Email == email {
			r := *rec
			return &r, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) Patch(ctx context.Context, id string, patch Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.patchErr != nil {
		return s.patchErr
	}
	rec, ok := s.records[id]
	if !ok {
		return ErrRecordNotFound
	}
	s.patches = append(s.patches, patch)
	rec.StripeCustomerID = patch.StripeCustomerID
	rec.ExternalAuthID = patch.ExternalAuthID
	rec.Name = patch.Name
	updated := patch.UpdatedAt
	rec.Updated = &updated
	return nil
}

func (s *fakeStore) Create(ctx context.Context, rec *Record) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.nextID++
	doc := *rec
	doc.ID = fmt.Sprintf("doc-%d", s.nextID)
	s.records[doc.ID] = &doc
	s.created = append(s.created, doc)
	out := doc
	return &out, nil
}

func (s *fakeStore) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.patches) + len(s.created)
}

type fakeEvents struct {
	mu     sync.Mutex
	events []SyncedEvent
	err    error
}

func (e *fakeEvents) PublishSynced(ctx context.Context, ev SyncedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
	return e.err
}
