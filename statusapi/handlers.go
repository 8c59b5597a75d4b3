package statusapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/GoCodeAlone/appshell"
)

// handler serves the status API endpoints against one shell.
type handler struct {
	shell *appshell.Shell
}

func (h *handler) listApplications(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, okResponse(h.shell.ListApplications()))
}

func (h *handler) getApplication(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	info, err := h.shell.Info(name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse(info))
}

func (h *handler) resetApplication(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.shell.ResetApplication(name); err != nil {
		writeError(w, err)
		return
	}
	info, err := h.shell.Info(name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse(info))
}

func (h *handler) skipApplication(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.shell.SkipApplication(name); err != nil {
		writeError(w, err)
		return
	}
	info, err := h.shell.Info(name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse(info))
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	report := h.shell.Health()

	code := http.StatusOK
	if report.Status == appshell.HealthStatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, Response{
		Status:    report.Status.String(),
		Timestamp: report.GeneratedAt.UTC(),
		Data:      report.Apps,
	})
}

func (h *handler) history(w http.ResponseWriter, r *http.Request) {
	events := h.shell.History()

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse("limit must be a non-negative integer"))
			return
		}
		if limit < len(events) {
			events = events[len(events)-limit:]
		}
	}
	writeJSON(w, http.StatusOK, okResponse(events))
}

// reconcileRequest is the optional body for POST /reconcile.
type reconcileRequest struct {
	// Path overrides the navigator's current location for this pass.
	Path string `json:"path"`
}

func (h *handler) reconcile(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		var req reconcileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body: "+err.Error()))
			return
		}
		path = req.Path
	}

	var override *appshell.Location
	if path != "" {
		loc := appshell.ParseLocation(path)
		override = &loc
	}

	if err := h.shell.TriggerReconciliation(r.Context(), override); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse(map[string]any{
		"mounted": h.shell.ListMounted(),
	}))
}

// writeError maps orchestrator errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, appshell.ErrAppNotFound):
		code = http.StatusNotFound
	case errors.Is(err, appshell.ErrInvalidAppState),
		errors.Is(err, appshell.ErrShellNotStarted):
		code = http.StatusConflict
	}
	writeJSON(w, code, errorResponse(err.Error()))
}
