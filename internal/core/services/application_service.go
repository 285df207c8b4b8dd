package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"

	"github.com/civicgov/birth-registry/certificate-service/internal/core/domain"
	"github.com/civicgov/birth-registry/certificate-service/internal/core/ports"
)

// certificateIDAttempts bounds the retry loop when the generated
// certificate number collides with an existing one.
const certificateIDAttempts = 3

// ApplicationService drives the application lifecycle:
// pending -> verified -> approved, with rejection from any non-approved
// state. Status guards are enforced by conditional updates in the
// repository, so concurrent admins racing on one record get exactly one
// winner.
type ApplicationService struct {
	appRepo ports.ApplicationRepository
	now     func() time.Time
	randInt func(n int) int
}

var _ ports.ApplicationService = (*ApplicationService)(nil)

func NewApplicationService(appRepo ports.ApplicationRepository) *ApplicationService {
	return &ApplicationService{
		appRepo: appRepo,
		now:     time.Now,
		randInt: rand.IntN,
	}
}

func (s *ApplicationService) Submit(ctx context.Context, parentID string, in ports.SubmitApplicationInput) (*domain.Application, error) {
	if _, err := govalidator.ValidateStruct(&in); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, firstValidationError(err))
	}

	childDOB, err := parseDate(in.ChildDOB)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid child date of birth", domain.ErrValidation)
	}
	motherDOB, err := parseDate(in.MotherDOB)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid mother date of birth", domain.ErrValidation)
	}
	var fatherDOB *time.Time
	if in.FatherDOB != "" {
		d, err := parseDate(in.FatherDOB)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid father date of birth", domain.ErrValidation)
		}
		fatherDOB = &d
	}

	if !s.appRepo.Available(ctx) {
		return nil, fmt.Errorf("%w: database connection error", domain.ErrUnavailable)
	}

	documents := in.Documents
	if documents == nil {
		documents = []string{}
	}

	app := domain.Application{
		ID:                 uuid.NewString(),
		ChildName:          in.ChildName,
		ChildDOB:           childDOB,
		PlaceOfBirth:       in.PlaceOfBirth,
		Gender:             in.Gender,
		Weight:             in.Weight,
		CityOfBirth:        in.CityOfBirth,
		StateOfBirth:       in.StateOfBirth,
		CountryOfBirth:     in.CountryOfBirth,
		MotherName:         in.MotherName,
		MotherDOB:          motherDOB,
		MotherNationality:  in.MotherNationality,
		MotherIDNumber:     in.MotherIDNumber,
		FatherName:         in.FatherName,
		FatherDOB:          fatherDOB,
		FatherNationality:  in.FatherNationality,
		FatherIDNumber:     in.FatherIDNumber,
		ContactEmail:       in.ContactEmail,
		PhoneNumber:        in.PhoneNumber,
		ResidentialAddress: in.ResidentialAddress,
		Parent:             parentID,
		Documents:          documents,
		Status:             domain.StatusPending,
		AppliedAt:          s.now(),
	}

	payload, err := s.eventPayload(ports.EventApplicationSubmitted, &app)
	if err != nil {
		return nil, err
	}
	return s.appRepo.Create(ctx, app, payload)
}

func (s *ApplicationService) ListMine(ctx context.Context, parentID string) ([]domain.Application, error) {
	return s.appRepo.FindByParent(ctx, parentID)
}

func (s *ApplicationService) ListAll(ctx context.Context) ([]domain.Application, error) {
	return s.appRepo.FindAll(ctx)
}

// Get enforces read-side ownership: a parent sees only their own records,
// an admin sees any.
func (s *ApplicationService) Get(ctx context.Context, callerID string, callerRole domain.Role, id string) (*domain.Application, error) {
	app, err := s.appRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.Parent != callerID && callerRole != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: user not authorized", domain.ErrForbidden)
	}
	return app, nil
}

// Verify moves a pending application to the requested status. Targeting
// "verified" records the reviewing admin, their signature text and the
// verification time. Already verified or approved applications are
// immutable here.
func (s *ApplicationService) Verify(ctx context.Context, adminID, id string, in ports.VerifyInput) (*domain.Application, error) {
	// Approval goes through Approve so a certificate is always issued
	// alongside it; verify only moves records to verified or rejected.
	target := domain.Status(in.Status)
	if target != domain.StatusVerified && target != domain.StatusRejected {
		return nil, fmt.Errorf("%w: unsupported status %q", domain.ErrValidation, in.Status)
	}

	evt := ports.EventApplicationVerified
	if target != domain.StatusVerified {
		evt = ports.EventApplicationRejected
	}
	payload, err := json.Marshal(ports.ApplicationEvent{
		Type:          evt,
		ApplicationID: id,
		Status:        string(target),
		OccurredAt:    s.now(),
	})
	if err != nil {
		return nil, err
	}

	app, err := s.appRepo.Verify(ctx, id, target, in.ReviewNotes, in.DigitalSignature, adminID, s.now(), payload)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: application already processed or approved", domain.ErrConflict)
		}
		return nil, err
	}
	return app, nil
}

// Approve issues a certificate for a verified application. The generated
// certificate number is structurally unique (issuance millis plus a random
// suffix) and additionally guarded by a unique constraint; a collision
// retries with a fresh number.
func (s *ApplicationService) Approve(ctx context.Context, id string) (*domain.Application, error) {
	for attempt := 0; attempt < certificateIDAttempts; attempt++ {
		certificateID := s.newCertificateID()

		payload, err := json.Marshal(ports.ApplicationEvent{
			Type:          ports.EventApplicationApproved,
			ApplicationID: id,
			Status:        string(domain.StatusApproved),
			CertificateID: certificateID,
			OccurredAt:    s.now(),
		})
		if err != nil {
			return nil, err
		}

		app, err := s.appRepo.Approve(ctx, id, certificateID, s.now(), payload)
		if errors.Is(err, domain.ErrDuplicateCertificateID) {
			continue
		}
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil, fmt.Errorf("%w: application must be verified before approval", domain.ErrConflict)
			}
			return nil, err
		}
		return app, nil
	}
	return nil, fmt.Errorf("could not allocate a unique certificate id for application %s", id)
}

func (s *ApplicationService) Reject(ctx context.Context, id, reviewNotes string) (*domain.Application, error) {
	payload, err := json.Marshal(ports.ApplicationEvent{
		Type:          ports.EventApplicationRejected,
		ApplicationID: id,
		Status:        string(domain.StatusRejected),
		OccurredAt:    s.now(),
	})
	if err != nil {
		return nil, err
	}

	app, err := s.appRepo.Reject(ctx, id, reviewNotes, payload)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: approved applications cannot be rejected", domain.ErrConflict)
		}
		return nil, err
	}
	return app, nil
}

func (s *ApplicationService) Stats(ctx context.Context) (*domain.AdminStats, error) {
	counts, err := s.appRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	monthly, err := s.appRepo.MonthlyCounts(ctx, 6)
	if err != nil {
		return nil, err
	}
	return &domain.AdminStats{
		StatusCounts:         *counts,
		ApplicationsOverTime: monthly,
	}, nil
}

func (s *ApplicationService) newCertificateID() string {
	return fmt.Sprintf("DBC-%d-%03d", s.now().UnixMilli(), s.randInt(1000))
}

func (s *ApplicationService) eventPayload(eventType string, app *domain.Application) ([]byte, error) {
	return json.Marshal(ports.ApplicationEvent{
		Type:          eventType,
		ApplicationID: app.ID,
		Parent:        app.Parent,
		Status:        string(app.Status),
		OccurredAt:    s.now(),
	})
}

// parseDate accepts the two formats clients actually send: bare dates and
// full RFC3339 timestamps.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
