package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"regdiag/app"
	"regdiag/domain/core"
	"regdiag/domain/diagnostics"
)

// createRunRequest is the JSON body of POST /api/diagnostics/runs.
// Unset fields fall back to the server's configured defaults.
type createRunRequest struct {
	File         string   `json:"file,omitempty"`
	Response     string   `json:"response,omitempty"`
	Predictors   []string `json:"predictors,omitempty"`
	DropFraction *float64 `json:"drop_fraction,omitempty"`
	Alternative  string   `json:"alternative,omitempty"`
	Alpha        *float64 `json:"alpha,omitempty"`
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var body createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	file := body.File
	if file == "" {
		file = s.defaults.File
	}
	if file == "" {
		s.writeError(w, http.StatusBadRequest, "no dataset file given and none configured")
		return
	}

	source, err := s.opener(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to load dataset: "+err.Error())
		return
	}

	response := body.Response
	if response == "" {
		response = s.defaults.Response
	}

	predictorNames := body.Predictors
	if len(predictorNames) == 0 {
		predictorNames = s.defaults.Predictors
	}
	if len(predictorNames) == 0 {
		// Default to every column except the response and any index column.
		for _, key := range source.Columns() {
			if key.String() == response || key.String() == "index" {
				continue
			}
			predictorNames = append(predictorNames, key.String())
		}
	}

	predictors := make([]core.VariableKey, len(predictorNames))
	for i, name := range predictorNames {
		key, err := core.ParseVariableKey(name)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		predictors[i] = key
	}

	drop := s.defaults.DropFraction
	if body.DropFraction != nil {
		drop = *body.DropFraction
	}
	alpha := s.defaults.Alpha
	if body.Alpha != nil {
		alpha = *body.Alpha
	}
	alt := diagnostics.Alternative(body.Alternative)
	if body.Alternative == "" {
		alt = diagnostics.AlternativeTwoSided
	}

	result, err := s.service.Run(r.Context(), app.RunRequest{
		Source:       source,
		Response:     core.VariableKey(response),
		Predictors:   predictors,
		DropFraction: drop,
		Alternative:  alt,
		Alpha:        alpha,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		s.writeError(w, http.StatusNotImplemented, "run persistence is disabled")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	summaries, err := s.repo.ListReports(r.Context(), limit, offset)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if summaries == nil {
		summaries = []diagnostics.RunSummary{}
	}
	s.writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	report, ok := s.fetchReport(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleGetRunReport(w http.ResponseWriter, r *http.Request) {
	report, ok := s.fetchReport(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(s.renderer.RenderHTML(report))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) fetchReport(w http.ResponseWriter, r *http.Request) (*diagnostics.RunReport, bool) {
	if s.repo == nil {
		s.writeError(w, http.StatusNotImplemented, "run persistence is disabled")
		return nil, false
	}

	runID, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	report, err := s.repo.GetReport(r.Context(), runID)
	if err != nil {
		s.writeDomainError(w, err)
		return nil, false
	}
	return report, true
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case core.IsInvalidArgumentError(err):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case core.IsNotFoundError(err):
		s.writeError(w, http.StatusNotFound, err.Error())
	case core.IsDegenerateFitError(err):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.Error("request failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response: %v", err)
	}
}
