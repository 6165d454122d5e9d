package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"codenotes/internal/app/service"
	"codenotes/internal/common"
	"codenotes/internal/domain/model"
)

// ErrTransport marks failures where no HTTP response was received. The
// caller can only offer a retry.
var ErrTransport = errors.New("could not reach codenotes server")

// APIError is a non-2xx response. It unwraps to the common sentinel its
// status maps to, so callers branch with errors.Is.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() []error {
	switch e.Status {
	case http.StatusNotFound:
		return []error{common.ErrNotFound}
	case http.StatusUnauthorized:
		return []error{common.ErrUnauthorized}
	case http.StatusBadRequest:
		errs := []error{common.ErrBadRequest}
		if strings.Contains(e.Message, common.ErrDuplicateKey.Error()) {
			errs = append(errs, common.ErrDuplicateKey)
		}
		if strings.Contains(e.Message, common.ErrValidation.Error()) {
			errs = append(errs, common.ErrValidation)
		}
		return errs
	case http.StatusServiceUnavailable:
		return []error{common.ErrServiceUnavailable}
	}
	return []error{common.ErrInternalServer}
}

// API is the HTTP transport to the codenotes server. Every call carries
// the bearer token it is given; API itself holds no session.
type API struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPI returns a transport with no request timeout; calls are bounded
// only by their context. Use WithTimeout to cap them.
func NewAPI(baseURL string) *API {
	return &API{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// WithTimeout caps every request at d. Zero means no limit.
func (a *API) WithTimeout(d time.Duration) *API {
	a.httpClient = &http.Client{Timeout: d}
	return a
}

// WithHTTPClient swaps the underlying client, mostly for tests.
func (a *API) WithHTTPClient(c *http.Client) *API {
	a.httpClient = c
	return a
}

func (a *API) ListTopics(ctx context.Context, token string) ([]model.Topic, error) {
	var out []model.Topic
	err := a.do(ctx, token, http.MethodGet, "/topics", nil, &out)
	return out, err
}

func (a *API) CreateTopic(ctx context.Context, token string, req service.CreateTopicRequest) (*model.Topic, error) {
	var out model.Topic
	if err := a.do(ctx, token, http.MethodPost, "/topics", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) UpdateTopic(ctx context.Context, token, topicID string, req service.UpdateTopicRequest) (*model.Topic, error) {
	var out model.Topic
	if err := a.do(ctx, token, http.MethodPut, "/topics/"+url.PathEscape(topicID), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) DeleteTopic(ctx context.Context, token, topicID string) error {
	return a.do(ctx, token, http.MethodDelete, "/topics/"+url.PathEscape(topicID), nil, nil)
}

func (a *API) ListProblems(ctx context.Context, token string) ([]model.Problem, error) {
	var out []model.Problem
	err := a.do(ctx, token, http.MethodGet, "/problems", nil, &out)
	return out, err
}

func (a *API) GetProblem(ctx context.Context, token, problemID string) (*model.Problem, error) {
	var out model.Problem
	if err := a.do(ctx, token, http.MethodGet, "/problems/"+url.PathEscape(problemID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) CreateProblem(ctx context.Context, token string, req service.CreateProblemRequest) (*model.Problem, error) {
	var out model.Problem
	if err := a.do(ctx, token, http.MethodPost, "/problems", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) UpdateProblem(ctx context.Context, token, problemID string, req service.UpdateProblemRequest) (*model.Problem, error) {
	var out model.Problem
	if err := a.do(ctx, token, http.MethodPut, "/problems/"+url.PathEscape(problemID), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) DeleteProblem(ctx context.Context, token, problemID string) error {
	return a.do(ctx, token, http.MethodDelete, "/problems/"+url.PathEscape(problemID), nil, nil)
}

// SetMembership adds (value true) or removes the problem from one of the
// caller's membership lists.
func (a *API) SetMembership(ctx context.Context, token string, flag model.MembershipFlag, problemID string, value bool) (*model.User, error) {
	method := http.MethodDelete
	if value {
		method = http.MethodPost
	}
	var out model.User
	if err := a.do(ctx, token, method, "/users/"+flag.Route(), service.MembershipRequest{ProblemID: problemID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Profile(ctx context.Context, token string) (*model.User, error) {
	var out model.User
	if err := a.do(ctx, token, http.MethodGet, "/users/profile", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) UpdateProfile(ctx context.Context, token string, req service.UpdateProfileRequest) (*model.User, error) {
	var out model.User
	if err := a.do(ctx, token, http.MethodPut, "/users/profile", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Reconcile(ctx context.Context, token string, prune bool) (*model.ReconcileReport, error) {
	path := "/reconcile"
	if prune {
		path += "?prune=true"
	}
	var out model.ReconcileReport
	if err := a.do(ctx, token, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) do(ctx context.Context, token, method, path string, body, out interface{}) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %w", method, path, ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w: %w", method, path, ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func errorMessage(raw []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return strings.TrimSpace(string(raw))
}
