package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"civicsetu-be/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "hunter22" {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"token": "tok-" + body["email"],
				"user":  map[string]interface{}{"email": body["email"], "role": "supervisor"},
			},
		})
	})
	mux.HandleFunc("GET /api/reports", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "resolved", r.URL.Query().Get("status"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":    true,
			"data":       []map[string]interface{}{{"title": "Pothole", "status": "resolved"}},
			"pagination": map[string]interface{}{"page": 2, "limit": 10, "total": 11, "pages": 2},
		})
	})
	mux.HandleFunc("PATCH /api/reports/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "Authorization required"})
			return
		}
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"success": false,
			"message": "cannot move report from resolved to submitted",
			"details": "no further moves; reopen the report instead",
		})
	})
	mux.HandleFunc("GET /api/admin/dashboard", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-a@example.com", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"stats": map[string]interface{}{"totalReports": 6, "pendingReports": 3, "completedReports": 2, "unclassifiedReports": 1},
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSession_LoginAndDashboard(t *testing.T) {
	srv := newAPI(t)
	s := NewSession(srv.URL+"/", nil)

	_, err := s.Login(context.Background(), "a@example.com", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.Empty(t, s.Token())

	u, err := s.Login(context.Background(), "a@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSupervisor, u.Role)
	assert.Equal(t, "tok-a@example.com", s.Token())

	stats, err := s.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(6), stats.TotalReports)
	assert.Equal(t, int64(3), stats.PendingReports)
	assert.Equal(t, int64(1), stats.UnclassifiedReports)
}

func TestSession_TokensAreIndependent(t *testing.T) {
	srv := newAPI(t)
	a := NewSession(srv.URL, nil).WithToken("one")
	b := NewSession(srv.URL, nil)

	assert.Equal(t, "one", a.Token())
	assert.Empty(t, b.Token())

	_, err := b.UpdateStatus(context.Background(), "abc", models.StatusSubmitted, "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestSession_ListReportsAndRefusedMove(t *testing.T) {
	srv := newAPI(t)
	s := NewSession(srv.URL, nil).WithToken("t")

	reports, page, err := s.ListReports(context.Background(), ReportQuery{Status: models.StatusResolved, Page: 2})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, models.StatusResolved, reports[0].Status)
	assert.Equal(t, int64(11), page.Total)
	assert.Equal(t, 2, page.Pages)

	_, err = s.UpdateStatus(context.Background(), "abc", models.StatusSubmitted, "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "reopen the report")
}

func TestPoller_SkipsWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	p := &Poller{
		Interval: 5 * time.Millisecond,
		Timeout:  time.Second,
		Fn: func(ctx context.Context) error {
			if calls.Add(1) == 1 {
				select {
				case <-release:
				case <-ctx.Done():
				}
			}
			return nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return p.Skipped() >= 3 }, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, uint64(1), p.Runs())

	close(release)
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func TestPoller_TimeoutPerCall(t *testing.T) {
	errs := make(chan error, 4)
	p := &Poller{
		Interval: time.Hour,
		Timeout:  10 * time.Millisecond,
		Fn: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
		OnError: func(err error) { errs <- err },
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = p.Run(ctx) }()

	select {
	case err := <-errs:
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	case <-time.After(time.Second):
		t.Fatal("call was not timed out")
	}
}

func TestPoller_Validation(t *testing.T) {
	assert.Error(t, (&Poller{Fn: func(context.Context) error { return nil }}).Run(context.Background()))
	assert.Error(t, (&Poller{Interval: time.Second}).Run(context.Background()))
}
