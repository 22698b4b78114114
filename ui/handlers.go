package ui

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"stagegate/adapters/excel"
	"stagegate/app"
	"stagegate/domain/core"
	"stagegate/domain/transition"
)

// transitionRequest is the JSON body for preview and commit calls. The
// current-state fields are intentionally absent: the service overlays
// the authoritative stored state before evaluating.
type transitionRequest struct {
	EntityID      core.EntityID   `json:"entity_id"`
	Domain        string          `json:"domain,omitempty"`
	NewStageID    *core.StageID   `json:"new_stage_id"`
	NewTargetID   *core.StageID   `json:"new_target_stage_id"`
	NewTargetDate *core.Timestamp `json:"new_target_date"`
	Note          string          `json:"note,omitempty"`
	ChangedBy     string          `json:"changed_by,omitempty"`
	Acknowledged  bool            `json:"acknowledged,omitempty"`
}

func (r transitionRequest) toServiceRequest() app.TransitionRequest {
	return app.TransitionRequest{
		EntityID: r.EntityID,
		Domain:   r.Domain,
		Input: transition.TransitionInput{
			NewStageID:       r.NewStageID,
			NewTargetStageID: r.NewTargetID,
			NewTargetDate:    r.NewTargetDate,
			Note:             r.Note,
		},
		ChangedBy:    r.ChangedBy,
		Acknowledged: r.Acknowledged,
	}
}

func (a *App) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.EntityID == "" {
		writeError(w, http.StatusBadRequest, "entity_id is required")
		return
	}

	outcome, err := a.service.Preview(r.Context(), req.toServiceRequest())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (a *App) handleCommit(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.EntityID == "" {
		writeError(w, http.StatusBadRequest, "entity_id is required")
		return
	}

	outcome, err := a.service.Commit(r.Context(), req.toServiceRequest())
	if err != nil {
		// Gate refusals still carry the evaluation so the caller can
		// show the alerts and resubmit.
		if outcome != nil && core.IsGateError(err) {
			writeJSON(w, http.StatusConflict, map[string]interface{}{
				"error":   err.Error(),
				"outcome": outcome,
			})
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (a *App) handleStatistics(w http.ResponseWriter, r *http.Request) {
	entityID := core.EntityID(chi.URLParam(r, "id"))
	stats, err := a.service.Statistics(r.Context(), entityID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *App) handleUpdateReason(w http.ResponseWriter, r *http.Request) {
	entityID := core.EntityID(chi.URLParam(r, "id"))
	var body struct {
		Reason    string `json:"reason"`
		ChangedBy string `json:"changed_by,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Reason == "" {
		writeError(w, http.StatusBadRequest, "reason is required")
		return
	}

	record, err := a.service.UpdateReason(r.Context(), entityID, body.Reason, body.ChangedBy)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (a *App) handleCatalog(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")
	catalog, err := a.service.StageCatalog(r.Context(), domain)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"domain": catalog.Domain(),
		"stages": catalog.Definitions(),
	})
}

func (a *App) handleSweep(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	report, err := a.sweeps.Run(r.Context(), domain, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleReport exports one entity's history and statistics to xlsx and
// streams the workbook back.
func (a *App) handleReport(w http.ResponseWriter, r *http.Request) {
	entityID := core.EntityID(chi.URLParam(r, "id"))

	state, err := a.service.EntityState(r.Context(), entityID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if state.IsNew {
		writeError(w, http.StatusNotFound, "entity not found")
		return
	}

	catalog, err := a.service.StageCatalog(r.Context(), state.Domain)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	records, err := a.service.HistoryWindow(r.Context(), entityID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	stats, err := a.service.Statistics(r.Context(), entityID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := os.MkdirAll(a.exportDir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, "cannot prepare export directory")
		return
	}
	path := filepath.Join(a.exportDir, excel.ReportFilename(entityID))
	writer := excel.NewReportWriter(catalog)
	if err := writer.WriteHistoryReport(path, entityID, records, stats); err != nil {
		writeError(w, http.StatusInternalServerError, "report generation failed")
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename="+excel.ReportFilename(entityID))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, path)
}

// JSON helpers

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps domain sentinels onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case core.IsNotFoundError(err):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrNothingToCommit):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, core.ErrStaleSnapshot):
		writeError(w, http.StatusConflict, err.Error())
	case core.IsGateError(err):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
