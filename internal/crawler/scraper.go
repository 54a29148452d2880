package crawler

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

	"bogoinsight/pkg/utils"
)

// ErrFetchFailure matches every FetchError.
var ErrFetchFailure = errors.New("fetch failure")

// maxErrorBody caps how much of a failed response is kept on the error.
const maxErrorBody = 4 << 10

// FetchError is a non-2xx response or a transport failure.
type FetchError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	}

	return fmt.Sprintf("%s %s: unexpected status code %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Is lets errors.Is(err, ErrFetchFailure) match.
func (e *FetchError) Is(target error) bool { return target == ErrFetchFailure }

func (e *FetchError) Unwrap() error { return e.Err }

// Request describes one upstream call. Form and JSON are mutually exclusive.
type Request struct {
	Method string
	URL    string
	Form   url.Values
	JSON   any
	Header map[string]string
}

// Fetcher is what sources use to reach the network.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) ([]byte, error)
}

// ScraperOptions configures a Scraper.
type ScraperOptions struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	Client       *http.Client
}

// Scraper performs single bounded-timeout requests. It never retries.
type Scraper struct {
	client  *http.Client
	headers *utils.HTTPHelper
	maxBody int64
}

// NewScraper creates a scraper with the given options; zero fields get defaults.
func NewScraper(opts ScraperOptions) *Scraper {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 64 << 20
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}

	client.Timeout = opts.Timeout

	return &Scraper{
		client:  client,
		headers: utils.NewHTTPHelper(opts.UserAgent),
		maxBody: opts.MaxBodyBytes,
	}
}

// Fetch issues the request and returns the whole body of a 2xx response.
func (s *Scraper) Fetch(ctx context.Context, r Request) ([]byte, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	var (
		body        io.Reader = http.NoBody
		contentType string
	)

	switch {
	case r.Form != nil:
		body = strings.NewReader(r.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case r.JSON != nil:
		payload, err := json.Marshal(r.JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}

		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, r.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header = s.headers.BuildHeaders(r.Header)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &FetchError{Method: method, URL: r.URL, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody))
	if err != nil {
		return nil, &FetchError{Method: method, URL: r.URL, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(data) > maxErrorBody {
			data = data[:maxErrorBody]
		}

		return nil, &FetchError{Method: method, URL: r.URL, StatusCode: resp.StatusCode, Body: string(data)}
	}

	return data, nil
}

// Get fetches url with GET.
func (s *Scraper) Get(ctx context.Context, url string) ([]byte, error) {
	return s.Fetch(ctx, Request{URL: url})
}

// PostForm submits a url-encoded form.
func (s *Scraper) PostForm(ctx context.Context, url string, form url.Values) ([]byte, error) {
	return s.Fetch(ctx, Request{Method: http.MethodPost, URL: url, Form: form})
}

// PostJSON submits a JSON body.
func (s *Scraper) PostJSON(ctx context.Context, url string, payload any) ([]byte, error) {
	return s.Fetch(ctx, Request{Method: http.MethodPost, URL: url, JSON: payload})
}
