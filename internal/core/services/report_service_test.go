package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/civicgov/birth-registry/certificate-service/internal/core/domain"
	"github.com/civicgov/birth-registry/certificate-service/test/mocks"
)

func TestReportCSV(t *testing.T) {
	repo := mocks.NewMockApplicationRepository()
	appSvc := newTestApplicationService(repo)
	submitTestApplication(t, appSvc, "parent-1")
	approvedApplication(t, repo)

	svc := NewReportService(repo)
	out, err := svc.CSV(context.Background())
	if err != nil {
		t.Fatalf("CSV: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("rows = %d, want header plus 2", len(records))
	}
	if records[0][0] != "Application ID" || records[0][9] != "Review Notes" {
		t.Errorf("header = %v", records[0])
	}

	var sawCertificate bool
	for _, rec := range records[1:] {
		if rec[1] != "Ava Lee" {
			t.Errorf("child name = %q", rec[1])
		}
		if rec[5] != "" {
			sawCertificate = true
		}
	}
	if !sawCertificate {
		t.Error("approved row should carry its certificate id")
	}
}

func TestReportPDF(t *testing.T) {
	repo := mocks.NewMockApplicationRepository()
	approvedApplication(t, repo)

	svc := NewReportService(repo)
	out, err := svc.PDF(context.Background())
	if err != nil {
		t.Fatalf("PDF: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Error("output does not look like a PDF")
	}
}

func TestReportEmptyCollection(t *testing.T) {
	repo := mocks.NewMockApplicationRepository()
	svc := NewReportService(repo)

	if _, err := svc.CSV(context.Background()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("CSV err = %v, want ErrNotFound", err)
	}
	if _, err := svc.PDF(context.Background()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("PDF err = %v, want ErrNotFound", err)
	}
}

func TestReportPropagatesStoreFailure(t *testing.T) {
	repo := mocks.NewMockApplicationRepository()
	repo.FindError = errors.New("database down")

	svc := NewReportService(repo)
	if _, err := svc.CSV(context.Background()); err == nil || errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want the store failure", err)
	}
}
