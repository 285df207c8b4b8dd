package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/civicgov/birth-registry/certificate-service/internal/core/domain"
	"github.com/civicgov/birth-registry/certificate-service/internal/core/ports"
	"github.com/civicgov/birth-registry/certificate-service/internal/core/token"
	"github.com/civicgov/birth-registry/certificate-service/test/mocks"
)

var testSecret = []byte("test-signing-secret")

func newTestAuthService(repo *mocks.MockUserRepository) *AuthService {
	svc := NewAuthService(repo, testSecret)
	frozen := time.Now().UTC()
	svc.now = func() time.Time { return frozen }
	return svc
}

func seedUser(t *testing.T, repo *mocks.MockUserRepository, email, password string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	user := &domain.User{
		ID:       "user-" + email,
		Name:     "Seeded User",
		Email:    email,
		Password: string(hash),
		Role:     role,
	}
	repo.SeedUser(user)
	return user
}

func TestRegisterIssuesToken(t *testing.T) {
	repo := mocks.NewMockUserRepository()
	svc := newTestAuthService(repo)

	signed, user, err := svc.Register(context.Background(), ports.RegisterInput{
		Name:     "Grace Lee",
		Email:    "grace.lee@example.com",
		Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Role != domain.RoleParent {
		t.Errorf("role = %q, want default parent", user.Role)
	}
	if user.Password == "s3cret-pass" {
		t.Error("password must be stored hashed")
	}

	identity, err := token.Verify(signed, testSecret)
	if err != nil {
		t.Fatalf("Verify issued token: %v", err)
	}
	if identity.UserID != user.ID || identity.Role != domain.RoleParent {
		t.Errorf("identity = %+v", identity)
	}
}

func TestRegisterValidation(t *testing.T) {
	repo := mocks.NewMockUserRepository()
	svc := newTestAuthService(repo)

	tests := []struct {
		name string
		in   ports.RegisterInput
	}{
		{"missing name", ports.RegisterInput{Email: "a@b.com", Password: "x"}},
		{"missing password", ports.RegisterInput{Name: "A", Email: "a@b.com"}},
		{"bad email", ports.RegisterInput{Name: "A", Email: "not-an-email", Password: "x"}},
		{"bad role", ports.RegisterInput{Name: "A", Email: "a@b.com", Password: "x", Role: "superuser"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := svc.Register(context.Background(), tt.in); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := mocks.NewMockUserRepository()
	svc := newTestAuthService(repo)
	seedUser(t, repo, "grace.lee@example.com", "whatever", domain.RoleParent)

	_, _, err := svc.Register(context.Background(), ports.RegisterInput{
		Name:     "Grace Lee",
		Email:    "grace.lee@example.com",
		Password: "s3cret-pass",
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestRegisterDoctorKeepsFacility(t *testing.T) {
	repo := mocks.NewMockUserRepository()
	svc := newTestAuthService(repo)

	_, user, err := svc.Register(context.Background(), ports.RegisterInput{
		Name:     "Dr. J. Smith",
		Email:    "j.smith@hospital.example.com",
		Password: "s3cret-pass",
		Role:     "doctor",
		Facility: "central-hospital",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Role != domain.RoleDoctor || user.Facility != "central-hospital" {
		t.Errorf("user = %+v", user)
	}
}

func TestRegisterWhenStoreUnavailable(t *testing.T) {
	repo := mocks.NewMockUserRepository()
	repo.Unavailable = true
	svc := newTestAuthService(repo)

	_, _, err := svc.Register(context.Background(), ports.RegisterInput{
		Name:     "Grace Lee",
		Email:    "grace.lee@example.com",
		Password: "s3cret-pass",
	})
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestLogin(t *testing.T) {
	repo := mocks.NewMockUserRepository()
	svc := newTestAuthService(repo)
	seeded := seedUser(t, repo, "admin@registry.example.gov", "admin-pass", domain.RoleAdmin)

	signed, user, err := svc.Login(context.Background(), "admin@registry.example.gov", "admin-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != seeded.ID {
		t.Errorf("user id = %q, want %q", user.ID, seeded.ID)
	}
	identity, err := token.Verify(signed, testSecret)
	if err != nil {
		t.Fatalf("Verify issued token: %v", err)
	}
	if identity.Role != domain.RoleAdmin {
		t.Errorf("role = %q, want admin", identity.Role)
	}
}

func TestLoginFailures(t *testing.T) {
	repo := mocks.NewMockUserRepository()
	svc := newTestAuthService(repo)
	seedUser(t, repo, "grace.lee@example.com", "right-pass", domain.RoleParent)

	if _, _, err := svc.Login(context.Background(), "", "x"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty email err = %v, want ErrValidation", err)
	}
	if _, _, err := svc.Login(context.Background(), "nobody@example.com", "x"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("unknown user err = %v, want ErrUnauthenticated", err)
	}
	if _, _, err := svc.Login(context.Background(), "grace.lee@example.com", "wrong-pass"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("wrong password err = %v, want ErrUnauthenticated", err)
	}
}
