package handler

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/civicgov/birth-registry/certificate-service/internal/core/ports"
)

type ReportHandler struct {
	reports ports.ReportService
	logger  *logrus.Logger
}

func NewReportHandler(reports ports.ReportService, logger *logrus.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger}
}

func (h *ReportHandler) CSV(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.CSV(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="applications_report.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(report)
}

func (h *ReportHandler) PDF(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.PDF(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="applications_report.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(report)
}
