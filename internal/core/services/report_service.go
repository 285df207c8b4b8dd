package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"

	"github.com/phpdave11/gofpdf"

	"github.com/civicgov/birth-registry/certificate-service/internal/core/domain"
	"github.com/civicgov/birth-registry/certificate-service/internal/core/ports"
)

const reportDateFormat = "2006-01-02"

var reportHeader = []string{
	"Application ID", "Child Name", "Date of Birth", "Status",
	"Submission Date", "Certificate ID", "Mother Name", "Father Name",
	"Contact Email", "Review Notes",
}

// ReportService is the pure read side: bulk exports of the application
// collection for administrators. It never mutates workflow state.
type ReportService struct {
	appRepo ports.ApplicationRepository
}

var _ ports.ReportService = (*ReportService)(nil)

func NewReportService(appRepo ports.ApplicationRepository) *ReportService {
	return &ReportService{appRepo: appRepo}
}

func (s *ReportService) CSV(ctx context.Context) ([]byte, error) {
	apps, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(reportHeader); err != nil {
		return nil, err
	}
	for _, app := range apps {
		if err := w.Write(reportRow(&app)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PDF renders one application per page.
func (s *ReportService) PDF(ctx context.Context) ([]byte, error) {
	apps, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)

	for _, app := range apps {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 18)
		pdf.CellFormat(0, 12, "Application Report", "", 1, "C", false, 0, "")
		pdf.Ln(4)

		row := reportRow(&app)
		for i, label := range reportHeader {
			value := row[i]
			if value == "" {
				value = "N/A"
			}
			pdf.SetFont("Helvetica", "B", 11)
			pdf.CellFormat(50, 7, label+":", "", 0, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 11)
			pdf.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *ReportService) load(ctx context.Context) ([]domain.Application, error) {
	apps, err := s.appRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(apps) == 0 {
		return nil, fmt.Errorf("%w: no applications found to generate report", domain.ErrNotFound)
	}
	return apps, nil
}

func reportRow(app *domain.Application) []string {
	certificateID := ""
	if app.CertificateID != nil {
		certificateID = *app.CertificateID
	}
	return []string{
		app.ID,
		app.ChildName,
		app.ChildDOB.Format(reportDateFormat),
		string(app.Status),
		app.AppliedAt.Format(reportDateFormat),
		certificateID,
		app.MotherName,
		app.FatherName,
		app.ContactEmail,
		app.ReviewNotes,
	}
}
