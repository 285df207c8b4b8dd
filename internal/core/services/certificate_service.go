package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/phpdave11/gofpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/civicgov/birth-registry/certificate-service/internal/core/domain"
	"github.com/civicgov/birth-registry/certificate-service/internal/core/ports"
)

const (
	certificateDateFormat = "January 2, 2006"
	verificationCacheTTL  = 5 * time.Minute
	qrCodeSize            = 256
)

// CertificateService renders approved applications into certificate PDFs
// and serves the public verification lookup for issued certificates.
type CertificateService struct {
	appRepo ports.ApplicationRepository
	cache   ports.VerificationCache
}

var _ ports.CertificateService = (*CertificateService)(nil)

func NewCertificateService(appRepo ports.ApplicationRepository, cache ports.VerificationCache) *CertificateService {
	return &CertificateService{appRepo: appRepo, cache: cache}
}

// Issue renders the certificate for an approved application. Only the
// owning parent or an admin may download it.
func (s *CertificateService) Issue(ctx context.Context, callerID string, callerRole domain.Role, applicationID string) (*domain.CertificateArtifact, error) {
	app, err := s.appRepo.FindByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	if app.Status != domain.StatusApproved {
		return nil, fmt.Errorf("%w: certificate can only be generated for approved applications", domain.ErrConflict)
	}
	if app.Parent != callerID && callerRole != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: user not authorized to download this certificate", domain.ErrForbidden)
	}

	details := buildDetails(app)
	pdfBytes, err := renderCertificate(app, details)
	if err != nil {
		return nil, err
	}

	return &domain.CertificateArtifact{
		Filename: fmt.Sprintf("birth_certificate_%s.pdf", *app.CertificateID),
		PDF:      pdfBytes,
		Payload:  details,
	}, nil
}

// VerifyCertificate is the public, unauthenticated read side of issuance.
// Approved certificates are immutable once issued, so verified results are
// cached.
func (s *CertificateService) VerifyCertificate(ctx context.Context, certificateID string) (*domain.VerificationResult, error) {
	if cached, ok := s.cache.Get(ctx, certificateID); ok {
		var result domain.VerificationResult
		if err := json.Unmarshal(cached, &result); err == nil {
			return &result, nil
		}
	}

	app, err := s.appRepo.FindByCertificateID(ctx, certificateID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.VerificationResult{
				Status: domain.VerificationNotFound,
				Reason: "No certificate found with this ID.",
			}, nil
		}
		return nil, err
	}

	if app.Status != domain.StatusApproved {
		return &domain.VerificationResult{
			Status: domain.VerificationInvalid,
			Reason: "This certificate is not yet approved or is invalid.",
		}, nil
	}

	details := buildDetails(app)
	result := &domain.VerificationResult{
		Status:  domain.VerificationVerified,
		Details: &details,
	}

	if payload, err := json.Marshal(result); err == nil {
		s.cache.Set(ctx, certificateID, payload, verificationCacheTTL)
	}
	return result, nil
}

func buildDetails(app *domain.Application) domain.CertificateDetails {
	details := domain.CertificateDetails{
		ChildName:        app.ChildName,
		DateOfBirth:      app.ChildDOB,
		PlaceOfBirth:     app.PlaceOfBirth,
		MotherName:       app.MotherName,
		FatherName:       app.FatherName,
		IssuedDate:       app.DateOfIssue,
		VerifiedBy:       app.VerifiedByName,
		VerificationDate: app.VerificationDate,
	}
	if app.CertificateID != nil {
		details.CertificateID = *app.CertificateID
	}
	return details
}

func renderCertificate(app *domain.Application, details domain.CertificateDetails) ([]byte, error) {
	qrPayload, err := json.Marshal(details)
	if err != nil {
		return nil, err
	}
	qrPNG, err := qrcode.Encode(string(qrPayload), qrcode.Medium, qrCodeSize)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	// Outer frame.
	pdf.SetLineWidth(1.2)
	pdf.SetDrawColor(30, 64, 175)
	pdf.Rect(10, 10, 190, 277, "D")

	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetTextColor(30, 64, 175)
	pdf.CellFormat(0, 14, "Digital Birth Certificate", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(59, 130, 246)
	pdf.CellFormat(0, 8, "Certificate Details", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetTextColor(0, 0, 0)
	writeField(pdf, "Child Name", app.ChildName)
	writeField(pdf, "Date of Birth", app.ChildDOB.Format(certificateDateFormat))
	writeField(pdf, "Place of Birth", app.PlaceOfBirth)
	writeField(pdf, "Mother's Name", app.MotherName)
	if app.FatherName != "" {
		writeField(pdf, "Father's Name", app.FatherName)
	}
	writeField(pdf, "Certificate No.", details.CertificateID)
	if app.DateOfIssue != nil {
		writeField(pdf, "Date of Issue", app.DateOfIssue.Format(certificateDateFormat))
	}

	if app.VerifiedBy != nil && app.VerificationDate != nil {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.SetTextColor(59, 130, 246)
		pdf.CellFormat(0, 8, "Verification", "", 1, "L", false, 0, "")
		pdf.Ln(2)
		pdf.SetTextColor(0, 0, 0)
		writeField(pdf, "Verified By", app.VerifiedByName)
		writeField(pdf, "Verification Date", app.VerificationDate.Format("January 2, 2006 15:04"))
		if app.DigitalSignature != "" {
			writeField(pdf, "Digital Signature", app.DigitalSignature)
		}
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("verification-qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("verification-qr", 150, 230, 40, 40, false, opts, 0, "")

	pdf.SetY(275)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 6, "Scan the QR code to verify this certificate.", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeField(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(48, 7, label+":", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
}
