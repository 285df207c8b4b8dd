package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/civicgov/birth-registry/certificate-service/internal/core/domain"
	"github.com/civicgov/birth-registry/certificate-service/internal/core/ports"
	"github.com/civicgov/birth-registry/certificate-service/internal/core/token"
)

type AuthService struct {
	userRepo  ports.UserRepository
	jwtSecret []byte
	now       func() time.Time
}

var _ ports.AuthService = (*AuthService)(nil)

func NewAuthService(userRepo ports.UserRepository, jwtSecret []byte) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		now:       time.Now,
	}
}

// Register creates a user and issues a fresh credential. Role defaults to
// parent; only doctors carry a facility reference.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (string, *domain.User, error) {
	if _, err := govalidator.ValidateStruct(&in); err != nil {
		return "", nil, fmt.Errorf("%w: %s", domain.ErrValidation, firstValidationError(err))
	}

	role := domain.Role(in.Role)
	if in.Role == "" {
		role = domain.RoleParent
	}
	if !role.Valid() {
		return "", nil, fmt.Errorf("%w: unsupported role %q", domain.ErrValidation, in.Role)
	}

	if !s.userRepo.Available(ctx) {
		return "", nil, fmt.Errorf("%w: database connection error", domain.ErrUnavailable)
	}

	if existing, err := s.userRepo.FindByEmail(ctx, in.Email); err == nil && existing != nil {
		return "", nil, fmt.Errorf("%w: user already exists", domain.ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, err
	}

	user := domain.User{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		Role:      role,
		Password:  string(hash),
		CreatedAt: s.now(),
	}
	if role == domain.RoleDoctor {
		user.Facility = in.Facility
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return "", nil, err
	}

	signed, err := token.Sign(user.ID, user.Role, s.jwtSecret, s.now())
	if err != nil {
		return "", nil, err
	}
	return signed, &user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if email == "" || password == "" {
		return "", nil, fmt.Errorf("%w: please enter both email and password", domain.ErrValidation)
	}

	if !s.userRepo.Available(ctx) {
		return "", nil, fmt.Errorf("%w: database connection error", domain.ErrUnavailable)
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthenticated)
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return "", nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthenticated)
	}

	signed, err := token.Sign(user.ID, user.Role, s.jwtSecret, s.now())
	if err != nil {
		return "", nil, err
	}
	return signed, user, nil
}

// firstValidationError flattens a govalidator error into the single
// message surfaced to the caller.
func firstValidationError(err error) string {
	var errs govalidator.Errors
	if errors.As(err, &errs) && len(errs.Errors()) > 0 {
		return errs.Errors()[0].Error()
	}
	return err.Error()
}
