// Package mocks provides in-memory implementations of the port interfaces.
// Each mock records its calls and accepts injected errors so services and
// handlers can be exercised without Postgres.
package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/reservaespacios/reservation-service/internal/core/domain"
	"github.com/reservaespacios/reservation-service/internal/core/ports"
)

// MockUserRepository implements ports.UserRepository for testing.
type MockUserRepository struct {
	mu sync.RWMutex

	users map[string]*domain.User

	// Call tracking for verification
	FindByEmailCalls       []string
	CreateCalls            []domain.User
	UpdateCalls            []domain.User
	UpdateCredentialsCalls []domain.User
	DeleteCalls            []string

	// Error injection for testing error scenarios
	FindByIDError          error
	FindByEmailError       error
	CreateError            error
	UpdateError            error
	UpdateCredentialsError error
	DeleteError            error
}

var _ ports.UserRepository = (*MockUserRepository)(nil)

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

// SeedUser adds a user to the mock repository for test setup.
func (m *MockUserRepository) SeedUser(user domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = &user
}

// User returns a copy of the stored user, for assertions.
func (m *MockUserRepository) User(id string) (domain.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, false
	}
	return *u, true
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if m.FindByIDError != nil {
		return nil, m.FindByIDError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	m.FindByEmailCalls = append(m.FindByEmailCalls, email)
	m.mu.Unlock()

	if m.FindByEmailError != nil {
		return nil, m.FindByEmailError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context, filter domain.UserFilter) ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Status != "" && u.Status != filter.Status {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockUserRepository) Create(ctx context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls = append(m.CreateCalls, user)
	if m.CreateError != nil {
		return m.CreateError
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return domain.ErrDuplicateEmail
		}
	}
	m.users[user.ID] = &user
	return nil
}

func (m *MockUserRepository) Update(ctx context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateCalls = append(m.UpdateCalls, user)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	if _, ok := m.users[user.ID]; !ok {
		return domain.ErrNotFound
	}
	m.users[user.ID] = &user
	return nil
}

func (m *MockUserRepository) UpdateCredentials(ctx context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateCredentialsCalls = append(m.UpdateCredentialsCalls, user)
	if m.UpdateCredentialsError != nil {
		return m.UpdateCredentialsError
	}
	stored, ok := m.users[user.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.PasswordHash = user.PasswordHash
	stored.Status = user.Status
	stored.TemporaryPassword = user.TemporaryPassword
	stored.LastPasswordChange = user.LastPasswordChange
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls = append(m.DeleteCalls, id)
	if m.DeleteError != nil {
		return m.DeleteError
	}
	if _, ok := m.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

// MockSpaceRepository implements ports.SpaceRepository for testing.
type MockSpaceRepository struct {
	mu     sync.RWMutex
	spaces map[string]domain.Space

	FindByIDError error
}

var _ ports.SpaceRepository = (*MockSpaceRepository)(nil)

func NewMockSpaceRepository(spaces ...domain.Space) *MockSpaceRepository {
	m := &MockSpaceRepository{spaces: make(map[string]domain.Space)}
	for _, s := range spaces {
		m.spaces[s.ID] = s
	}
	return m
}

func (m *MockSpaceRepository) FindByID(ctx context.Context, id string) (*domain.Space, error) {
	if m.FindByIDError != nil {
		return nil, m.FindByIDError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.spaces[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (m *MockSpaceRepository) List(ctx context.Context) ([]domain.Space, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Space, 0, len(m.spaces))
	for _, s := range m.spaces {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// MockOrganizationRepository implements ports.OrganizationRepository for testing.
type MockOrganizationRepository struct {
	mu   sync.RWMutex
	orgs []domain.Organization
}

var _ ports.OrganizationRepository = (*MockOrganizationRepository)(nil)

func NewMockOrganizationRepository(orgs ...domain.Organization) *MockOrganizationRepository {
	return &MockOrganizationRepository{orgs: orgs}
}

func (m *MockOrganizationRepository) FindByName(ctx context.Context, name string) (*domain.Organization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.orgs {
		if strings.EqualFold(o.Name, name) {
			cp := o
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockOrganizationRepository) List(ctx context.Context) ([]domain.Organization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Organization, len(m.orgs))
	copy(out, m.orgs)
	return out, nil
}
