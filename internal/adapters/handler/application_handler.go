package handler

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/civicgov/birth-registry/certificate-service/internal/adapters/middleware"
	"github.com/civicgov/birth-registry/certificate-service/internal/core/ports"
)

type ApplicationHandler struct {
	applications ports.ApplicationService
	logger       *logrus.Logger
}

func NewApplicationHandler(applications ports.ApplicationService, logger *logrus.Logger) *ApplicationHandler {
	return &ApplicationHandler{applications: applications, logger: logger}
}

type submitResponse struct {
	Msg         string `json:"msg"`
	Application any    `json:"application"`
}

func (h *ApplicationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req ports.SubmitApplicationInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Msg: "invalid request body"})
		return
	}

	app, err := h.applications.Submit(r.Context(), middleware.CallerID(r.Context()), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"application_id": app.ID,
		"parent":         app.Parent,
	}).Info("application submitted")
	writeJSON(w, http.StatusCreated, submitResponse{
		Msg:         "Application submitted successfully",
		Application: app,
	})
}

func (h *ApplicationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	apps, err := h.applications.ListMine(r.Context(), middleware.CallerID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (h *ApplicationHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	apps, err := h.applications.ListAll(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	app, err := h.applications.Get(ctx, middleware.CallerID(ctx), middleware.CallerRole(ctx), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *ApplicationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req ports.VerifyInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Msg: "invalid request body"})
		return
	}

	ctx := r.Context()
	id := r.PathValue("id")
	app, err := h.applications.Verify(ctx, middleware.CallerID(ctx), id, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"application_id": id,
		"status":         app.Status,
	}).Info("application reviewed")
	writeJSON(w, http.StatusOK, app)
}

func (h *ApplicationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	app, err := h.applications.Approve(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"application_id": id,
		"certificate_id": app.CertificateID,
	}).Info("application approved")
	writeJSON(w, http.StatusOK, app)
}

func (h *ApplicationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReviewNotes string `json:"reviewNotes"`
	}
	// A body is optional on reject; notes default to empty.
	_ = json.NewDecoder(r.Body).Decode(&req)

	id := r.PathValue("id")
	app, err := h.applications.Reject(r.Context(), id, req.ReviewNotes)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.WithField("application_id", id).Info("application rejected")
	writeJSON(w, http.StatusOK, app)
}

func (h *ApplicationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.applications.Stats(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
