package domain

import "time"

// CertificateArtifact is a rendered certificate: PDF bytes plus the
// machine-verifiable payload embedded in its QR code.
type CertificateArtifact struct {
	Filename string
	PDF      []byte
	Payload  CertificateDetails
}

// CertificateDetails is the field set embedded in the certificate QR code
// and returned by the public verification lookup.
type CertificateDetails struct {
	CertificateID    string     `json:"certificateId"`
	ChildName        string     `json:"childName"`
	DateOfBirth      time.Time  `json:"dateOfBirth"`
	PlaceOfBirth     string     `json:"placeOfBirth"`
	MotherName       string     `json:"motherName"`
	FatherName       string     `json:"fatherName,omitempty"`
	IssuedDate       *time.Time `json:"issuedDate,omitempty"`
	VerifiedBy       string     `json:"verifiedBy,omitempty"`
	VerificationDate *time.Time `json:"verificationDate,omitempty"`
}

const (
	VerificationVerified = "verified"
	VerificationInvalid  = "invalid"
	VerificationNotFound = "not_found"
)

// VerificationResult is the public lookup response for a certificate id.
type VerificationResult struct {
	Status  string              `json:"status"`
	Reason  string              `json:"reason,omitempty"`
	Details *CertificateDetails `json:"details,omitempty"`
}

// AdminStats aggregates workflow state for the admin dashboard.
type AdminStats struct {
	StatusCounts
	ApplicationsOverTime []MonthlyCount `json:"applicationsOverTime"`
}
