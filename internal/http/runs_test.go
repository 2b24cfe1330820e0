package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/Clark-Hu/glue-decades/internal/domain"
	"github.com/Clark-Hu/glue-decades/internal/job"
)

type fakeRunner struct {
	err error
}

func (f fakeRunner) Run(ctx context.Context) (domain.RunResult, error) {
	return domain.RunResult{}, f.err
}

// slowRunner finishes a successful pass after delay.
type slowRunner struct {
	delay time.Duration
}

func (s slowRunner) Run(ctx context.Context) (domain.RunResult, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return domain.RunResult{Status: domain.RunFailed}, ctx.Err()
	}
	now := time.Now()
	return domain.RunResult{
		ID:         "slow-run",
		StartedAt:  now.Add(-s.delay),
		FinishedAt: now,
		Status:     domain.RunSucceeded,
	}, nil
}

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

func newFakeServer(runner Runner, pinger Pinger) *Server {
	return New(testConfig(), pinger, runner, job.NewHistory(10), log.New(io.Discard, "", 0))
}

func TestParseListLimit(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"", defaultListLimit, false},
		{"limit=5", 5, false},
		{"limit=500", maxListLimit, false},
		{"limit=0", 0, true},
		{"limit=-3", 0, true},
		{"limit=abc", 0, true},
	}
	for _, tt := range tests {
		values, _ := url.ParseQuery(tt.raw)
		got, err := parseListLimit(values)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("parseListLimit(%q) expected error", tt.raw)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("parseListLimit(%q) = %d, %v; want %d", tt.raw, got, err, tt.want)
		}
	}
}

func TestVerifyBearer(t *testing.T) {
	srv := newFakeServer(fakeRunner{}, fakePinger{})
	cases := map[string]bool{
		"":              false,
		"secret":        false,
		"Bearer ":       false,
		"Bearer wrong":  false,
		"Bearer secret": true,
	}
	for header, want := range cases {
		if got := srv.verifyBearer(header); got != want {
			t.Fatalf("verifyBearer(%q) = %v, want %v", header, got, want)
		}
	}
}

func TestHandleCreateRun_Conflict(t *testing.T) {
	srv := newFakeServer(fakeRunner{err: job.ErrRunInProgress}, fakePinger{})

	req := httptest.NewRequest(http.MethodPost, "/runs", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if len(srv.history.List(0)) != 0 {
		t.Fatalf("rejected run should not be recorded")
	}
}

func TestHandleCreateRun_UpstreamFailure(t *testing.T) {
	srv := newFakeServer(fakeRunner{err: errors.New("load: access denied")}, fakePinger{})

	req := httptest.NewRequest(http.MethodPost, "/runs", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestHandleCreateRun_OutlivesWriteTimeout(t *testing.T) {
	srv := newFakeServer(slowRunner{delay: 1500 * time.Millisecond}, fakePinger{})
	ts := httptest.NewUnstartedServer(srv.Handler())
	ts.Config.WriteTimeout = 500 * time.Millisecond
	ts.Start()
	defer ts.Close()

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/runs", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer secret")
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("POST /runs: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var body runResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode run response: %v", err)
	}
	if body.ID != "slow-run" || body.Status != string(domain.RunSucceeded) {
		t.Fatalf("run = %+v, want slow-run succeeded", body)
	}
}

func TestToRunResponseNonFiniteRating(t *testing.T) {
	nan, inf, ok := math.NaN(), math.Inf(1), 4.5
	resp := toRunResponse(domain.RunResult{
		ID:     "r1",
		Status: domain.RunSucceeded,
		Summaries: []domain.DecadeSummary{
			{MovieCount: 1, AvgRating: &nan},
			{MovieCount: 1, AvgRating: &inf},
			{MovieCount: 1, AvgRating: &ok},
		},
	})
	if resp.Decades[0].AvgRating != nil || resp.Decades[1].AvgRating != nil {
		t.Fatalf("non-finite ratings should map to null: %+v", resp.Decades)
	}
	if resp.Decades[2].AvgRating == nil || *resp.Decades[2].AvgRating != 4.5 {
		t.Fatalf("finite rating changed: %+v", resp.Decades[2])
	}
	if _, err := json.Marshal(resp); err != nil {
		t.Fatalf("marshal run response: %v", err)
	}
}

func TestRespondJSONEncodeFailure(t *testing.T) {
	srv := newFakeServer(fakeRunner{}, fakePinger{})
	rec := httptest.NewRecorder()
	srv.respondJSON(rec, http.StatusOK, map[string]float64{"avg": math.NaN()})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Code != "INTERNAL_ERROR" {
		t.Fatalf("code = %s, want INTERNAL_ERROR", body.Code)
	}
}

func TestHandleGetRun_NotFound(t *testing.T) {
	srv := newFakeServer(fakeRunner{}, fakePinger{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleListRuns_InvalidLimit(t *testing.T) {
	srv := newFakeServer(fakeRunner{}, fakePinger{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs?limit=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleHealthz_Unavailable(t *testing.T) {
	srv := newFakeServer(fakeRunner{}, fakePinger{err: errors.New("down")})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func FuzzParseListLimit(f *testing.F) {
	for _, seed := range []string{"limit=10", "limit=abc", "limit=999999999999999999999", ""} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, raw string) {
		values, err := url.ParseQuery(raw)
		if err != nil {
			return
		}
		limit, err := parseListLimit(values)
		if err == nil && (limit <= 0 || limit > maxListLimit) {
			t.Fatalf("limit %d out of range for %q", limit, raw)
		}
	})
}

func BenchmarkHandleListRuns(b *testing.B) {
	srv := newFakeServer(fakeRunner{}, fakePinger{})
	for i := 0; i < 50; i++ {
		srv.history.Add(domain.RunResult{ID: string(rune('a' + i%26)), Status: domain.RunSucceeded})
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		srv.handleListRuns(rec, httptest.NewRequest(http.MethodGet, "/runs?limit=20", nil))
		if rec.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}
