package ports

import (
	"context"

	"github.com/civicgov/birth-registry/certificate-service/internal/core/domain"
)

// RegisterInput carries a registration request. Facility is only
// meaningful for the doctor role.
type RegisterInput struct {
	Name     string `json:"name" valid:"required~Please enter all fields"`
	Email    string `json:"email" valid:"required~Please enter all fields,email~Invalid email address"`
	Password string `json:"password" valid:"required~Please enter all fields"`
	Role     string `json:"role" valid:"-"`
	Facility string `json:"facilityId" valid:"-"`
}

type SubmitApplicationInput struct {
	ChildName          string   `json:"childName" valid:"required~Child name is required"`
	ChildDOB           string   `json:"childDOB" valid:"required~Child date of birth is required"`
	PlaceOfBirth       string   `json:"placeOfBirth" valid:"required~Place of birth is required"`
	Gender             string   `json:"gender" valid:"required~Gender is required,in(male|female|other)~Invalid gender"`
	Weight             float64  `json:"weight" valid:"-"`
	CityOfBirth        string   `json:"cityOfBirth" valid:"required~City of birth is required"`
	StateOfBirth       string   `json:"stateOfBirth" valid:"required~State of birth is required"`
	CountryOfBirth     string   `json:"countryOfBirth" valid:"required~Country of birth is required"`
	MotherName         string   `json:"motherName" valid:"required~Mother name is required"`
	MotherDOB          string   `json:"motherDOB" valid:"required~Mother date of birth is required"`
	MotherNationality  string   `json:"motherNationality" valid:"required~Mother nationality is required"`
	MotherIDNumber     string   `json:"motherIDNumber" valid:"required~Mother ID number is required"`
	FatherName         string   `json:"fatherName" valid:"-"`
	FatherDOB          string   `json:"fatherDOB" valid:"-"`
	FatherNationality  string   `json:"fatherNationality" valid:"-"`
	FatherIDNumber     string   `json:"fatherIDNumber" valid:"-"`
	ContactEmail       string   `json:"contactEmail" valid:"required~Contact email is required,email~Invalid contact email"`
	PhoneNumber        string   `json:"phoneNumber" valid:"required~Phone number is required"`
	ResidentialAddress string   `json:"residentialAddress" valid:"required~Residential address is required"`
	Documents          []string `json:"documents" valid:"-"`
}

type VerifyInput struct {
	Status           string `json:"status"`
	ReviewNotes      string `json:"reviewNotes"`
	DigitalSignature string `json:"digitalSignature"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (string, *domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}

type ApplicationService interface {
	Submit(ctx context.Context, parentID string, in SubmitApplicationInput) (*domain.Application, error)
	ListMine(ctx context.Context, parentID string) ([]domain.Application, error)
	ListAll(ctx context.Context) ([]domain.Application, error)
	Get(ctx context.Context, callerID string, callerRole domain.Role, id string) (*domain.Application, error)
	Verify(ctx context.Context, adminID, id string, in VerifyInput) (*domain.Application, error)
	Approve(ctx context.Context, id string) (*domain.Application, error)
	Reject(ctx context.Context, id, reviewNotes string) (*domain.Application, error)
	Stats(ctx context.Context) (*domain.AdminStats, error)
}

type CertificateService interface {
	Issue(ctx context.Context, callerID string, callerRole domain.Role, applicationID string) (*domain.CertificateArtifact, error)
	VerifyCertificate(ctx context.Context, certificateID string) (*domain.VerificationResult, error)
}

type ReportService interface {
	CSV(ctx context.Context) ([]byte, error)
	PDF(ctx context.Context) ([]byte, error)
}
