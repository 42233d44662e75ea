package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// REST talks to a PostgREST-style HTTP endpoint.
type REST struct {
	baseURL string
	opts    *restOptions
}

// RESTOption configures the REST client.
type RESTOption func(*restOptions)

type restOptions struct {
	httpClient *http.Client
	apiKey     string
	token      func() string
}

func defaultRESTOptions() *restOptions {
	return &restOptions{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		token:      func() string { return "" },
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) RESTOption {
	return func(o *restOptions) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithAPIKey sets the service API key sent with every request.
func WithAPIKey(key string) RESTOption {
	return func(o *restOptions) {
		o.apiKey = key
	}
}

// WithTokenSource sets a callback that supplies the viewer's bearer token
// per request. An empty return omits the Authorization header.
func WithTokenSource(fn func() string) RESTOption {
	return func(o *restOptions) {
		if fn != nil {
			o.token = fn
		}
	}
}

// NewREST creates a client for the data service at baseURL
// (e.g. "https://project.example.co/rest/v1").
func NewREST(baseURL string, opts ...RESTOption) *REST {
	o := defaultRESTOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &REST{
		baseURL: strings.TrimRight(baseURL, "/"),
		opts:    o,
	}
}

// Select reads all matching rows into dest.
func (r *REST) Select(ctx context.Context, q Query, dest any) error {
	body, err := r.do(ctx, http.MethodGet, r.queryURL(q), nil, "")
	if err != nil {
		return err
	}
	return decode(body, dest)
}

// SelectOne reads a single row into dest, returning ErrNotFound on no match.
func (r *REST) SelectOne(ctx context.Context, q Query, dest any) error {
	q.Limit = 1
	body, err := r.do(ctx, http.MethodGet, r.queryURL(q), nil, "")
	if err != nil {
		return err
	}
	return decodeFirst(body, dest)
}

// Insert creates a row, reading it back into dest when dest is non-nil.
func (r *REST) Insert(ctx context.Context, relation string, row any, dest any) error {
	prefer := "return=minimal"
	if dest != nil {
		prefer = "return=representation"
	}
	body, err := r.do(ctx, http.MethodPost, r.relationURL(relation, nil), row, prefer)
	if err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	return decodeFirst(body, dest)
}

// Update patches matching rows, returning ErrNotFound when nothing matched.
func (r *REST) Update(ctx context.Context, relation string, patch any, filters ...Filter) error {
	// return=representation lets us distinguish "no row matched" from success.
	body, err := r.do(ctx, http.MethodPatch, r.relationURL(relation, filters), patch, "return=representation")
	if err != nil {
		return err
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return errors.Join(ErrDecode, err)
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}

// Upsert creates or replaces a row, merging on the relation's unique key.
func (r *REST) Upsert(ctx context.Context, relation string, row any) error {
	_, err := r.do(ctx, http.MethodPost, r.relationURL(relation, nil), row,
		"resolution=merge-duplicates,return=minimal")
	return err
}

// Delete removes matching rows.
func (r *REST) Delete(ctx context.Context, relation string, filters ...Filter) error {
	_, err := r.do(ctx, http.MethodDelete, r.relationURL(relation, filters), nil, "")
	return err
}

// relationURL builds the endpoint URL for a relation with optional filters.
func (r *REST) relationURL(relation string, filters []Filter) string {
	params := url.Values{}
	for _, f := range filters {
		params.Set(f.Column, f.encoded())
	}
	u := r.baseURL + "/" + url.PathEscape(relation)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// queryURL builds the endpoint URL for a full query.
func (r *REST) queryURL(q Query) string {
	params := url.Values{}
	for _, f := range q.Filters {
		params.Set(f.Column, f.encoded())
	}
	if len(q.Order) > 0 {
		parts := make([]string, 0, len(q.Order))
		for _, o := range q.Order {
			parts = append(parts, o.encoded())
		}
		params.Set("order", strings.Join(parts, ","))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	u := r.baseURL + "/" + url.PathEscape(q.Relation)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// do executes one request and returns the response body.
func (r *REST) do(ctx context.Context, method, rawURL string, payload any, prefer string) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Join(ErrRequestFailed, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}
	if r.opts.apiKey != "" {
		req.Header.Set("apikey", r.opts.apiKey)
	}
	if token := r.opts.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := r.opts.httpClient.Do(req)
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return data, nil
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusNotAcceptable:
		return nil, ErrNotFound
	default:
		return nil, errors.Join(ErrBadStatus,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data))))
	}
}

// decode unmarshals a response body into dest.
func decode(body []byte, dest any) error {
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return errors.Join(ErrDecode, err)
	}
	return nil
}

// decodeFirst unmarshals the first element of a row array into dest,
// returning ErrNotFound for an empty result.
func decodeFirst(body []byte, dest any) error {
	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return errors.Join(ErrDecode, err)
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	if err := json.Unmarshal(rows[0], dest); err != nil {
		return errors.Join(ErrDecode, err)
	}
	return nil
}

var _ Client = (*REST)(nil)
