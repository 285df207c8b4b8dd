package handler

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/civicgov/birth-registry/certificate-service/internal/adapters/middleware"
	"github.com/civicgov/birth-registry/certificate-service/internal/core/domain"
	"github.com/civicgov/birth-registry/certificate-service/internal/core/ports"
)

type CertificateHandler struct {
	certificates ports.CertificateService
	logger       *logrus.Logger
}

func NewCertificateHandler(certificates ports.CertificateService, logger *logrus.Logger) *CertificateHandler {
	return &CertificateHandler{certificates: certificates, logger: logger}
}

// Download streams the certificate PDF for an approved application.
func (h *CertificateHandler) Download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	artifact, err := h.certificates.Issue(ctx, middleware.CallerID(ctx), middleware.CallerRole(ctx), r.PathValue("applicationId"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifact.PDF)
}

// Verify is the public verification lookup; no credential required.
func (h *CertificateHandler) Verify(w http.ResponseWriter, r *http.Request) {
	result, err := h.certificates.VerifyCertificate(r.Context(), r.PathValue("certificateId"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	status := http.StatusOK
	if result.Status == domain.VerificationNotFound {
		status = http.StatusNotFound
	}
	writeJSON(w, status, result)
}
