package domain

import "time"

// Status is the lifecycle state of a birth certificate application.
// pending -> verified -> approved, with rejection possible from pending
// or verified. Approved and rejected are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusApproved, StatusRejected:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type Application struct {
	ID                 string     `json:"id"`
	ChildName          string     `json:"childName"`
	ChildDOB           time.Time  `json:"childDOB"`
	PlaceOfBirth       string     `json:"placeOfBirth"`
	Gender             string     `json:"gender"`
	Weight             float64    `json:"weight,omitempty"`
	CityOfBirth        string     `json:"cityOfBirth"`
	StateOfBirth       string     `json:"stateOfBirth"`
	CountryOfBirth     string     `json:"countryOfBirth"`
	MotherName         string     `json:"motherName"`
	MotherDOB          time.Time  `json:"motherDOB"`
	MotherNationality  string     `json:"motherNationality"`
	MotherIDNumber     string     `json:"motherIDNumber"`
	FatherName         string     `json:"fatherName,omitempty"`
	FatherDOB          *time.Time `json:"fatherDOB,omitempty"`
	FatherNationality  string     `json:"fatherNationality,omitempty"`
	FatherIDNumber     string     `json:"fatherIDNumber,omitempty"`
	ContactEmail       string     `json:"contactEmail"`
	PhoneNumber        string     `json:"phoneNumber"`
	ResidentialAddress string     `json:"residentialAddress"`
	Parent             string     `json:"parent"`
	Documents          []string   `json:"documents"`
	Status             Status     `json:"status"`
	ReviewNotes        string     `json:"reviewNotes"`
	VerifiedBy         *string    `json:"verifiedBy,omitempty"`
	VerifiedByName     string     `json:"verifiedByName,omitempty"`
	VerificationDate   *time.Time `json:"verificationDate,omitempty"`
	DigitalSignature   string     `json:"digitalSignature,omitempty"`
	CertificateID      *string    `json:"certificateId,omitempty"`
	DateOfIssue        *time.Time `json:"dateOfIssue,omitempty"`
	AppliedAt          time.Time  `json:"appliedAt"`
}

// StatusCounts is the aggregate view backing the admin dashboard.
type StatusCounts struct {
	Total              int `json:"totalApplications"`
	Pending            int `json:"pendingApplications"`
	Approved           int `json:"approvedApplications"`
	Rejected           int `json:"rejectedApplications"`
	CertificatesIssued int `json:"totalCertificatesIssued"`
}

type MonthlyCount struct {
	Month        string `json:"name"`
	Applications int    `json:"applications"`
	Approved     int    `json:"approved"`
	Pending      int    `json:"pending"`
}
