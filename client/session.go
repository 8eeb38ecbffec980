// Package client is a Go client for the Civic Setu API, used by the watch
// command and by integrations that consume the dashboard.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"civicsetu-be/models"
	"civicsetu-be/utils"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("api error %d: %s (%s)", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

type envelope[T any] struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Data       T                 `json:"data"`
	Pagination *utils.Pagination `json:"pagination"`
	Details    string            `json:"details"`
}

// Session talks to the API as one user. The token belongs to the session,
// so several sessions can run side by side in one process.
type Session struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// NewSession creates a session for baseURL. A nil httpClient uses a client
// with a 15s timeout.
func NewSession(baseURL string, httpClient *http.Client) *Session {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Session{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// WithToken returns a session that reuses an existing token.
func (s *Session) WithToken(token string) *Session {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return s
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := s.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
		var e envelope[json.RawMessage]
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Message != "" {
			apiErr.Message = e.Message
			apiErr.Details = e.Details
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// Login authenticates and keeps the token for later calls.
func (s *Session) Login(ctx context.Context, email, password string) (*models.User, error) {
	var out envelope[struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}]
	err := s.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	s.WithToken(out.Data.Token)
	return &out.Data.User, nil
}

// ReportQuery filters ListReports. Zero values are omitted.
type ReportQuery struct {
	Status   models.ReportStatus
	Category string
	Search   string
	Page     int
	Limit    int
}

func (q ReportQuery) values() url.Values {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// ListReports returns one page of reports.
func (s *Session) ListReports(ctx context.Context, q ReportQuery) ([]models.Report, utils.Pagination, error) {
	path := "/api/reports"
	if enc := q.values().Encode(); enc != "" {
		path += "?" + enc
	}
	var out envelope[[]models.Report]
	if err := s.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, utils.Pagination{}, err
	}
	var p utils.Pagination
	if out.Pagination != nil {
		p = *out.Pagination
	}
	return out.Data, p, nil
}

// UpdateStatus moves a report to status. Refused moves come back as an
// *APIError with status 409.
func (s *Session) UpdateStatus(ctx context.Context, reportID string, status models.ReportStatus, comment string) (*models.Report, error) {
	var out envelope[models.Report]
	err := s.do(ctx, http.MethodPatch, "/api/reports/"+url.PathEscape(reportID)+"/status", map[string]string{
		"status":  string(status),
		"comment": comment,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// DashboardStats mirrors the stats block of the admin dashboard.
type DashboardStats struct {
	TotalReports        int64            `json:"totalReports"`
	TodayReports        int64            `json:"todayReports"`
	PendingReports      int64            `json:"pendingReports"`
	CompletedReports    int64            `json:"completedReports"`
	ResolvedReports     int64            `json:"resolvedReports"`
	UnclassifiedReports int64            `json:"unclassifiedReports"`
	ByStatus            map[string]int64 `json:"byStatus"`
	TotalUsers          int64            `json:"totalUsers"`
	ActiveStaff         int64            `json:"activeStaff"`
}

// Dashboard fetches the admin dashboard counts.
func (s *Session) Dashboard(ctx context.Context) (*DashboardStats, error) {
	var out envelope[struct {
		Stats DashboardStats `json:"stats"`
	}]
	if err := s.do(ctx, http.MethodGet, "/api/admin/dashboard", nil, &out); err != nil {
		return nil, err
	}
	return &out.Data.Stats, nil
}
