package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"bonus-service/internal/models"
	"bonus-service/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// BonusRunner is the pipeline surface the handlers depend on.
type BonusRunner interface {
	Run(ctx context.Context, req services.RunRequest) (*services.RunResult, error)
	Export(ctx context.Context, req services.RunRequest) (*bytes.Buffer, *services.RunResult, error)
	GetRun(runID string) (*models.BonusRun, error)
	ListRuns(limit int) ([]*models.BonusRun, error)
	ListRecords(runID, status string) ([]models.ReconciliationRecord, error)
}

type RunHandler struct {
	runner BonusRunner
	logger *zap.Logger
}

func NewRunHandler(runner BonusRunner, logger *zap.Logger) *RunHandler {
	return &RunHandler{
		runner: runner,
		logger: logger.With(zap.String("component", "run_handler")),
	}
}

func decodeRunRequest(r *http.Request) (services.RunRequest, string) {
	var request services.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		return request, "Invalid request payload"
	}
	if strings.TrimSpace(request.Staff) == "" || strings.TrimSpace(request.Worker) == "" {
		return request, "Both staff_file and worker_file are required"
	}
	if _, err := services.ParseAsOf(request.AsOf); err != nil {
		return request, "Invalid as_of format. Use YYYY-MM-DD"
	}
	return request, ""
}

func (h *RunHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	request, problem := decodeRunRequest(r)
	if problem != "" {
		respondWithError(w, http.StatusBadRequest, problem)
		return
	}

	result, err := h.runner.Run(r.Context(), request)
	if err != nil {
		h.respondWithRunError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *RunHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	request, problem := decodeRunRequest(r)
	if problem != "" {
		respondWithError(w, http.StatusBadRequest, problem)
		return
	}

	buf, result, err := h.runner.Export(r.Context(), request)
	if err != nil {
		h.respondWithRunError(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="bonus-%s.xlsx"`, result.Run.RunID))
	w.Header().Set("X-Run-ID", result.Run.RunID)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("Failed to stream report", zap.String("run_id", result.Run.RunID), zap.Error(err))
	}
}

func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := h.runner.ListRuns(limit)
	if err != nil {
		h.respondWithRunError(w, err)
		return
	}
	if runs == nil {
		runs = []*models.BonusRun{}
	}

	respondWithJSON(w, http.StatusOK, runs)
}

func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["run_id"]
	if runID == "" {
		respondWithError(w, http.StatusBadRequest, "Run ID is required")
		return
	}

	run, err := h.runner.GetRun(runID)
	if err != nil {
		h.respondWithRunError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, run)
}

var recordStatuses = map[string]bool{
	models.StatusMatch:    true,
	models.StatusMismatch: true,
	models.StatusMissing:  true,
}

func (h *RunHandler) GetReconciliation(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["run_id"]
	if runID == "" {
		respondWithError(w, http.StatusBadRequest, "Run ID is required")
		return
	}

	status := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status")))
	if status != "" && !recordStatuses[status] {
		respondWithError(w, http.StatusBadRequest, "status must be one of MATCH, MISMATCH, MISSING")
		return
	}

	records, err := h.runner.ListRecords(runID, status)
	if err != nil {
		h.respondWithRunError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":  runID,
		"status":  status,
		"records": records,
	})
}

// statusForError maps pipeline errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrMissingCohortFile), errors.Is(err, models.ErrInvalidInputPath):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, models.ErrPersistenceDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *RunHandler) respondWithRunError(w http.ResponseWriter, err error) {
	code := statusForError(err)
	if code == http.StatusInternalServerError {
		h.logger.Error("Bonus run failed", zap.Error(err))
	}

	var runErr *models.RunError
	if errors.As(err, &runErr) {
		respondWithJSON(w, code, map[string]string{
			"error": runErr.Error(),
			"stage": runErr.Stage,
		})
		return
	}
	respondWithError(w, code, err.Error())
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Error marshaling JSON response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
