package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/glue-decades/internal/catalog"
	"github.com/Clark-Hu/glue-decades/internal/domain"
	"github.com/Clark-Hu/glue-decades/internal/job"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100

	// writeDeadlineMargin leaves room to encode and flush the run response
	// after the pass itself hits its timeout.
	writeDeadlineMargin = 10 * time.Second
)

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type decadeResponse struct {
	Decade     *int64   `json:"decade"`
	MovieCount int64    `json:"movieCount"`
	AvgRating  *float64 `json:"avgRating"`
}

type runResponse struct {
	ID             string           `json:"id"`
	Table          string           `json:"table"`
	Status         string           `json:"status"`
	StartedAt      time.Time        `json:"startedAt"`
	FinishedAt     time.Time        `json:"finishedAt"`
	DurationMillis int64            `json:"durationMs"`
	RowsRead       int64            `json:"rowsRead"`
	Location       string           `json:"location,omitempty"`
	Error          string           `json:"error,omitempty"`
	Decades        []decadeResponse `json:"decades"`
}

type runListResponse struct {
	Items []runResponse `json:"items"`
}

type runStatsResponse struct {
	Runs      int64 `json:"runs"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	P50Millis int64 `json:"p50Ms"`
	P95Millis int64 `json:"p95Ms"`
	P99Millis int64 `json:"p99Ms"`
	MaxMillis int64 `json:"maxMs"`
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	if !s.verifyBearer(r.Header.Get("Authorization")) {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}

	// A pass outlives the server's WriteTimeout, so the deadline for this
	// response is pushed past the run timeout. Recorders without deadline
	// support return ErrNotSupported, which is fine to ignore.
	var writeDeadline time.Time
	ctx := r.Context()
	if s.cfg.RunTimeoutSecs > 0 {
		runTimeout := time.Duration(s.cfg.RunTimeoutSecs) * time.Second
		writeDeadline = time.Now().Add(runTimeout + writeDeadlineMargin)
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runTimeout)
		defer cancel()
	}
	if err := http.NewResponseController(w).SetWriteDeadline(writeDeadline); err != nil && !errors.Is(err, http.ErrNotSupported) {
		s.logger.Printf("extend write deadline: %v", err)
	}

	res, err := s.runner.Run(ctx)
	if errors.Is(err, job.ErrRunInProgress) {
		s.respondError(w, http.StatusConflict, "CONFLICT", "A run is already in progress")
		return
	}
	s.history.Add(res)

	if err != nil {
		s.logger.Printf("run %s failed: %v", res.ID, err)
		status := http.StatusBadGateway
		if errors.Is(err, catalog.ErrTableNotFound) {
			status = http.StatusNotFound
		}
		s.respondJSON(w, status, toRunResponse(res))
		return
	}

	w.Header().Set("Location", "/runs/"+url.PathEscape(res.ID))
	s.respondJSON(w, http.StatusCreated, toRunResponse(res))
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := parseListLimit(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	runs := s.history.List(limit)
	items := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		items = append(items, toRunResponse(run))
	}
	s.respondJSON(w, http.StatusOK, runListResponse{Items: items})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "missing id parameter")
		return
	}
	run, ok := s.history.Get(id)
	if !ok {
		s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
		return
	}
	s.respondJSON(w, http.StatusOK, toRunResponse(run))
}

func (s *Server) handleRunStats(w http.ResponseWriter, r *http.Request) {
	st := s.history.Stats()
	s.respondJSON(w, http.StatusOK, runStatsResponse{
		Runs:      st.Runs,
		Succeeded: st.Succeeded,
		Failed:    st.Failed,
		P50Millis: st.P50.Milliseconds(),
		P95Millis: st.P95.Milliseconds(),
		P99Millis: st.P99.Milliseconds(),
		MaxMillis: st.Max.Milliseconds(),
	})
}

func parseListLimit(query url.Values) (int, error) {
	val := strings.TrimSpace(query.Get("limit"))
	if val == "" {
		return defaultListLimit, nil
	}
	limit, err := strconv.Atoi(val)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("invalid limit value")
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit, nil
}

func toRunResponse(run domain.RunResult) runResponse {
	resp := runResponse{
		ID:             run.ID,
		Table:          run.Table.String(),
		Status:         string(run.Status),
		StartedAt:      run.StartedAt,
		FinishedAt:     run.FinishedAt,
		DurationMillis: run.Duration().Milliseconds(),
		RowsRead:       run.RowsRead,
		Location:       run.Location,
		Error:          run.Error,
		Decades:        make([]decadeResponse, 0, len(run.Summaries)),
	}
	for _, row := range run.Summaries {
		resp.Decades = append(resp.Decades, decadeResponse{
			Decade:     row.Decade,
			MovieCount: row.MovieCount,
			AvgRating:  finiteOrNil(row.AvgRating),
		})
	}
	return resp
}

// finiteOrNil maps NaN and infinities to null; JSON cannot carry them.
func finiteOrNil(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}

// respondJSON encodes before writing the header so an encoding failure can
// still produce a complete 500 response.
func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			s.logger.Printf("failed to encode response: %v", err)
			status = http.StatusInternalServerError
			encoded, _ = json.Marshal(errorResponse{Code: "INTERNAL_ERROR", Message: "Failed to encode response"})
		}
		body = append(encoded, '\n')
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if _, err := w.Write(body); err != nil {
			s.logger.Printf("failed to write response: %v", err)
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func (s *Server) verifyBearer(header string) bool {
	if header == "" {
		return false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token != "" && token == s.cfg.AuthToken
}
