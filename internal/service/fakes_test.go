package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/vehicle-rental/internal/model"
	"github.com/iliyamo/vehicle-rental/internal/payment"
	"github.com/iliyamo/vehicle-rental/internal/queue"
	"github.com/iliyamo/vehicle-rental/internal/repository"
)

type fakePersons map[uuid.UUID]model.Person

func (f fakePersons) GetByID(_ context.Context, id uuid.UUID) (*model.Person, error) {
	p, ok := f[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

type fakeGroups map[uuid.UUID]model.Group

func (f fakeGroups) GetByID(_ context.Context, id uuid.UUID) (*model.Group, error) {
	g, ok := f[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &g, nil
}

type fakeAccessories struct {
	byID  map[uuid.UUID]model.Accessory
	calls [][]uuid.UUID
}

func (f *fakeAccessories) GetByIDs(_ context.Context, ids []uuid.UUID) ([]model.Accessory, error) {
	f.calls = append(f.calls, ids)
	var out []model.Accessory
	for _, id := range ids {
		if a, ok := f.byID[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// memStore implements ReservationStore and PaymentStore with one mutex
// standing in for the row locks.
type memStore struct {
	mu           sync.Mutex
	reservations map[uuid.UUID]model.Reservation
	payments     map[uuid.UUID]model.Payment
	createErr    error
}

func newMemStore() *memStore {
	return &memStore{
		reservations: map[uuid.UUID]model.Reservation{},
		payments:     map[uuid.UUID]model.Payment{},
	}
}

func (m *memStore) Create(_ context.Context, res *model.Reservation, pay *model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.reservations[res.ID] = *res
	if pay != nil {
		m.payments[pay.ID] = *pay
	}
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (m *memStore) List(_ context.Context, personID uuid.UUID, offset, limit int) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]model.Reservation, 0, len(m.reservations))
	for _, r := range m.reservations {
		if personID == uuid.Nil || r.PersonID == personID {
			all = append(all, r)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID.String() < all[j].ID.String()
	})
	out := []model.Reservation{}
	for i := offset; i < len(all) && i < offset+limit; i++ {
		out = append(out, all[i])
	}
	return out, nil
}

func (m *memStore) Transition(_ context.Context, id uuid.UUID, now time.Time, fn repository.TransitionFunc) (*model.Payment, *model.Reservation, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, nil, false, repository.ErrNotFound
	}
	r := m.reservations[p.ReservationID]
	changed, err := fn(&p, &r)
	if err != nil || !changed {
		return &p, &r, false, err
	}
	p.UpdatedAt, r.UpdatedAt = now, now
	m.payments[id] = p
	m.reservations[r.ID] = r
	return &p, &r, true, nil
}

// memPayments exposes the payment side of memStore, whose GetByID reads
// reservations.
type memPayments struct{ *memStore }

func (m memPayments) GetByID(_ context.Context, id uuid.UUID) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (m *memStore) count() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reservations), len(m.payments)
}

type fakeGateway struct {
	mu      sync.Mutex
	reqs    []payment.CheckoutRequest
	expired []string
	err     error
	paid    map[string]bool
	paidErr error
}

func (g *fakeGateway) markPaid(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paid == nil {
		g.paid = map[string]bool{}
	}
	g.paid[id] = true
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reqs = append(g.reqs, req)
	if g.err != nil {
		return nil, &payment.GatewayError{Op: "create session", Err: g.err}
	}
	return &payment.CheckoutSession{ID: "cs_test", URL: "https://checkout.example/cs_test"}, nil
}

func (g *fakeGateway) ExpireCheckoutSession(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.expired = append(g.expired, id)
	return nil
}

func (g *fakeGateway) CheckoutPaid(_ context.Context, id string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paidErr != nil {
		return false, &payment.GatewayError{Op: "get session", Err: g.paidErr}
	}
	return g.paid[id], nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.ReservationEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, ev queue.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) types() []queue.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]queue.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

var errBrokerDown = errors.New("broker down")

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
