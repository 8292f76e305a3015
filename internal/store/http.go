package store

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
)

// HTTPStore talks to a realtime-database style REST endpoint where every node is
// reachable at <base>/<path>.json.
type HTTPStore struct {
	base   string
	auth   string
	client *http.Client
}

type HTTPOption func(*HTTPStore)

// WithAuthToken appends ?auth=<token> to every request.
func WithAuthToken(token string) HTTPOption {
	return func(s *HTTPStore) { s.auth = strings.TrimSpace(token) }
}

func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPStore) {
		if c != nil {
			s.client = c
		}
	}
}

func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPStore) {
		if d > 0 {
			s.client = &http.Client{Timeout: d}
		}
	}
}

func NewHTTPStore(baseURL string, opts ...HTTPOption) (*HTTPStore, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, errors.New("store: base url is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("store: parse base url: %w", err)
	}
	s := &HTTPStore{base: base, client: &http.Client{Timeout: 15 * time.Second}}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *HTTPStore) Get(ctx context.Context, path string) (json.RawMessage, error) {
	return s.do(ctx, http.MethodGet, path, nil)
}

func (s *HTTPStore) Put(ctx context.Context, path string, value any) (json.RawMessage, error) {
	return s.do(ctx, http.MethodPut, path, value)
}

func (s *HTTPStore) Post(ctx context.Context, path string, value any) (string, error) {
	raw, err := s.do(ctx, http.MethodPost, path, value)
	if err != nil {
		return "", err
	}
	var res PostResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", fmt.Errorf("store: decode post result: %w", err)
	}
	if res.Name == "" {
		return "", errors.New("store: post result has no name")
	}
	return res.Name, nil
}

func (s *HTTPStore) Patch(ctx context.Context, path string, partial any) (json.RawMessage, error) {
	return s.do(ctx, http.MethodPatch, path, partial)
}

func (s *HTTPStore) Delete(ctx context.Context, path string) error {
	_, err := s.do(ctx, http.MethodDelete, path, nil)
	return err
}

func (s *HTTPStore) endpoint(path string) (string, error) {
	segs, err := splitPath(path)
	if err != nil {
		return "", err
	}
	escaped := make([]string, len(segs))
	for i, seg := range segs {
		escaped[i] = url.PathEscape(seg)
	}
	out := s.base + "/" + strings.Join(escaped, "/") + ".json"
	if s.auth != "" {
		out += "?auth=" + url.QueryEscape(s.auth)
	}
	return out, nil
}

func (s *HTTPStore) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	endpoint, err := s.endpoint(path)
	if err != nil {
		return nil, err
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("store: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("store: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("store: read %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(raw)}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return json.RawMessage("null"), nil
	}
	return json.RawMessage(raw), nil
}
