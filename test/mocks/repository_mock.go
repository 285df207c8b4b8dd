// Package mocks provides in-memory implementations of the port interfaces
// for testing. Services depend on the ports, so swapping the Postgres
// adapters for these mocks exercises the core logic without a database.
package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/civicgov/birth-registry/certificate-service/internal/core/domain"
	"github.com/civicgov/birth-registry/certificate-service/internal/core/ports"
)

type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User // keyed by id

	CreateCalls []domain.User

	CreateError      error
	FindByEmailError error
	Unavailable      bool
}

var _ ports.UserRepository = (*MockUserRepository)(nil)

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*domain.User)}
}

// SeedUser adds a user for test setup.
func (m *MockUserRepository) SeedUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls = append(m.CreateCalls, user)
	if m.CreateError != nil {
		return m.CreateError
	}
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return fmt.Errorf("%w: user already exists", domain.ErrConflict)
		}
	}
	m.users[user.ID] = &user
	return nil
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FindByEmailError != nil {
		return nil, m.FindByEmailError
	}
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, fmt.Errorf("%w: user", domain.ErrNotFound)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user", domain.ErrNotFound)
	}
	return user, nil
}

func (m *MockUserRepository) Available(ctx context.Context) bool {
	return !m.Unavailable
}

// MockApplicationRepository mirrors the conditional-update semantics of
// the Postgres adapter: transitions take the lock, re-check the status
// guard and fail with ErrConflict when it does not hold. That makes it
// safe to hammer from concurrent goroutines in workflow race tests.
type MockApplicationRepository struct {
	mu           sync.Mutex
	applications map[string]*domain.Application

	OutboxEvents [][]byte
	ApproveCalls []string

	CreateError  error
	FindError    error
	Unavailable  bool
	ForceCertDup int // fail this many Approve calls with a duplicate certificate id
}

var _ ports.ApplicationRepository = (*MockApplicationRepository)(nil)

func NewMockApplicationRepository() *MockApplicationRepository {
	return &MockApplicationRepository{applications: make(map[string]*domain.Application)}
}

// SeedApplication adds an application for test setup.
func (m *MockApplicationRepository) SeedApplication(app *domain.Application) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applications[app.ID] = app
}

func (m *MockApplicationRepository) Create(ctx context.Context, app domain.Application, outboxPayload []byte) (*domain.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateError != nil {
		return nil, m.CreateError
	}
	m.applications[app.ID] = &app
	m.OutboxEvents = append(m.OutboxEvents, outboxPayload)
	return &app, nil
}

func (m *MockApplicationRepository) FindByID(ctx context.Context, id string) (*domain.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findLocked(id)
}

func (m *MockApplicationRepository) FindByCertificateID(ctx context.Context, certificateID string) (*domain.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FindError != nil {
		return nil, m.FindError
	}
	for _, app := range m.applications {
		if app.CertificateID != nil && *app.CertificateID == certificateID {
			copied := *app
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("%w: application", domain.ErrNotFound)
}

func (m *MockApplicationRepository) FindByParent(ctx context.Context, parentID string) ([]domain.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var apps []domain.Application
	for _, app := range m.applications {
		if app.Parent == parentID {
			apps = append(apps, *app)
		}
	}
	sortNewestFirst(apps)
	return apps, nil
}

func (m *MockApplicationRepository) FindAll(ctx context.Context) ([]domain.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FindError != nil {
		return nil, m.FindError
	}
	var apps []domain.Application
	for _, app := range m.applications {
		apps = append(apps, *app)
	}
	sortNewestFirst(apps)
	return apps, nil
}

func (m *MockApplicationRepository) Verify(ctx context.Context, id string, target domain.Status, notes, signature, verifierID string, at time.Time, outboxPayload []byte) (*domain.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, err := m.findLocked(id)
	if err != nil {
		return nil, err
	}
	if app.Status == domain.StatusVerified || app.Status == domain.StatusApproved {
		return nil, domain.ErrConflict
	}

	stored := m.applications[id]
	stored.Status = target
	stored.ReviewNotes = notes
	if target == domain.StatusVerified {
		stored.VerifiedBy = &verifierID
		stored.DigitalSignature = signature
		verifiedAt := at
		stored.VerificationDate = &verifiedAt
	}
	m.OutboxEvents = append(m.OutboxEvents, outboxPayload)
	copied := *stored
	return &copied, nil
}

func (m *MockApplicationRepository) Approve(ctx context.Context, id, certificateID string, at time.Time, outboxPayload []byte) (*domain.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ApproveCalls = append(m.ApproveCalls, certificateID)

	app, err := m.findLocked(id)
	if err != nil {
		return nil, err
	}
	if app.Status != domain.StatusVerified {
		return nil, domain.ErrConflict
	}
	if m.ForceCertDup > 0 {
		m.ForceCertDup--
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateCertificateID, certificateID)
	}
	for _, other := range m.applications {
		if other.CertificateID != nil && *other.CertificateID == certificateID {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateCertificateID, certificateID)
		}
	}

	stored := m.applications[id]
	stored.Status = domain.StatusApproved
	stored.CertificateID = &certificateID
	issuedAt := at
	stored.DateOfIssue = &issuedAt
	m.OutboxEvents = append(m.OutboxEvents, outboxPayload)
	copied := *stored
	return &copied, nil
}

func (m *MockApplicationRepository) Reject(ctx context.Context, id, notes string, outboxPayload []byte) (*domain.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, err := m.findLocked(id)
	if err != nil {
		return nil, err
	}
	if app.Status == domain.StatusApproved {
		return nil, domain.ErrConflict
	}

	stored := m.applications[id]
	stored.Status = domain.StatusRejected
	stored.ReviewNotes = notes
	m.OutboxEvents = append(m.OutboxEvents, outboxPayload)
	copied := *stored
	return &copied, nil
}

func (m *MockApplicationRepository) CountByStatus(ctx context.Context) (*domain.StatusCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var counts domain.StatusCounts
	for _, app := range m.applications {
		counts.Total++
		switch app.Status {
		case domain.StatusPending:
			counts.Pending++
		case domain.StatusApproved:
			counts.Approved++
			if app.CertificateID != nil {
				counts.CertificatesIssued++
			}
		case domain.StatusRejected:
			counts.Rejected++
		}
	}
	return &counts, nil
}

func (m *MockApplicationRepository) MonthlyCounts(ctx context.Context, months int) ([]domain.MonthlyCount, error) {
	return nil, nil
}

func (m *MockApplicationRepository) Available(ctx context.Context) bool {
	return !m.Unavailable
}

func (m *MockApplicationRepository) findLocked(id string) (*domain.Application, error) {
	if m.FindError != nil {
		return nil, m.FindError
	}
	app, ok := m.applications[id]
	if !ok {
		return nil, fmt.Errorf("%w: application", domain.ErrNotFound)
	}
	copied := *app
	return &copied, nil
}

func sortNewestFirst(apps []domain.Application) {
	sort.Slice(apps, func(i, j int) bool {
		return apps[i].AppliedAt.After(apps[j].AppliedAt)
	})
}
