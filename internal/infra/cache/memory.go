package cache

import (
	"context"
	"sync"
	"time"

	"carrental/internal/app/policies"
	domainbooking "carrental/internal/domain/booking"
	domainpayment "carrental/internal/domain/payment"
)

const DefaultTTL = 2 * time.Minute

type memoryEntry struct {
	payments   []domainpayment.Payment
	paymentsAt time.Time
	bookings   []domainbooking.Booking
	bookingsAt time.Time
}

// Memory is a process local list cache.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*memoryEntry
	gens    map[string]uint64
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*memoryEntry),
		gens:    make(map[string]uint64),
	}
}

func (m *Memory) Generation(_ context.Context, customerID string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gens[customerID], nil
}

func (m *Memory) Payments(_ context.Context, customerID string) ([]domainpayment.Payment, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[customerID]
	if !ok || e.payments == nil || m.expired(e.paymentsAt) {
		return nil, false, nil
	}
	return append([]domainpayment.Payment(nil), e.payments...), true, nil
}

func (m *Memory) StorePayments(_ context.Context, customerID string, gen uint64, items []domainpayment.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gens[customerID] != gen {
		return nil
	}
	e := m.entry(customerID)
	e.payments = append(make([]domainpayment.Payment, 0, len(items)), items...)
	e.paymentsAt = m.now()
	return nil
}

func (m *Memory) Bookings(_ context.Context, customerID string) ([]domainbooking.Booking, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[customerID]
	if !ok || e.bookings == nil || m.expired(e.bookingsAt) {
		return nil, false, nil
	}
	return append([]domainbooking.Booking(nil), e.bookings...), true, nil
}

func (m *Memory) StoreBookings(_ context.Context, customerID string, gen uint64, items []domainbooking.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gens[customerID] != gen {
		return nil
	}
	e := m.entry(customerID)
	e.bookings = append(make([]domainbooking.Booking, 0, len(items)), items...)
	e.bookingsAt = m.now()
	return nil
}

func (m *Memory) Invalidate(_ context.Context, customerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, customerID)
	m.gens[customerID]++
	return nil
}

func (m *Memory) entry(customerID string) *memoryEntry {
	e, ok := m.entries[customerID]
	if !ok {
		e = &memoryEntry{}
		m.entries[customerID] = e
	}
	return e
}

func (m *Memory) expired(at time.Time) bool {
	return m.now().Sub(at) > m.ttl
}

var _ policies.ListCache = (*Memory)(nil)
