package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/reservaespacios/reservation-service/internal/core/domain"
	"github.com/reservaespacios/reservation-service/internal/core/ports"
)

// MockReservationRepository implements ports.ReservationRepository in memory,
// including the overlap and usage queries.
type MockReservationRepository struct {
	mu           sync.RWMutex
	spaceLock    sync.Mutex
	reservations map[string]domain.Reservation

	CreateCalls []domain.Reservation
	UpdateCalls []domain.Reservation
	DeleteCalls []string
	ListCalls   []domain.ReservationFilter
	LockCalls   []string

	CreateError error
	ListError   error
}

var _ ports.ReservationRepository = (*MockReservationRepository)(nil)

func NewMockReservationRepository() *MockReservationRepository {
	return &MockReservationRepository{reservations: make(map[string]domain.Reservation)}
}

func (m *MockReservationRepository) Seed(r domain.Reservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reservations[r.ID] = r
}

func (m *MockReservationRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.reservations)
}

func (m *MockReservationRepository) FindByID(ctx context.Context, id string) (*domain.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reservations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

func (m *MockReservationRepository) List(ctx context.Context, filter domain.ReservationFilter) ([]domain.Reservation, error) {
	m.mu.Lock()
	m.ListCalls = append(m.ListCalls, filter)
	m.mu.Unlock()

	if m.ListError != nil {
		return nil, m.ListError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Reservation
	for _, r := range m.reservations {
		if filter.SpaceID != "" && r.SpaceID != filter.SpaceID {
			continue
		}
		if filter.UserID != "" && r.UserID != filter.UserID {
			continue
		}
		if filter.From != nil && r.StartTime.Before(*filter.From) {
			continue
		}
		if filter.To != nil && r.EndTime.After(*filter.To) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *MockReservationRepository) Create(ctx context.Context, r domain.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls = append(m.CreateCalls, r)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.reservations[r.ID] = r
	return nil
}

func (m *MockReservationRepository) Update(ctx context.Context, r domain.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls = append(m.UpdateCalls, r)
	if _, ok := m.reservations[r.ID]; !ok {
		return domain.ErrNotFound
	}
	m.reservations[r.ID] = r
	return nil
}

func (m *MockReservationRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls = append(m.DeleteCalls, id)
	if _, ok := m.reservations[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.reservations, id)
	return nil
}

func (m *MockReservationRepository) FindOverlapping(ctx context.Context, spaceID string, start, end time.Time, excludeID string) ([]domain.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Reservation
	for _, r := range m.reservations {
		if r.ID == excludeID || r.SpaceID != spaceID || r.Status == domain.ReservationCancelled {
			continue
		}
		if r.Overlaps(start, end) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockReservationRepository) OrganizationUsage(ctx context.Context, organization string, from, to time.Time, excludeID string) (time.Duration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total time.Duration
	for _, r := range m.reservations {
		if r.ID == excludeID || r.Status == domain.ReservationCancelled || !strings.EqualFold(r.Organization, organization) {
			continue
		}
		if !r.StartTime.Before(from) && r.StartTime.Before(to) {
			total += r.Duration()
		}
	}
	return total, nil
}

// WithinSpaceLock serializes fn across all spaces, which is stricter than the
// per-space lock of the SQL repository.
func (m *MockReservationRepository) WithinSpaceLock(ctx context.Context, spaceID string, fn func(ctx context.Context) error) error {
	m.spaceLock.Lock()
	defer m.spaceLock.Unlock()

	m.mu.Lock()
	m.LockCalls = append(m.LockCalls, spaceID)
	m.mu.Unlock()
	return fn(ctx)
}
