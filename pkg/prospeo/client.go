// Package prospeo provides a client for the Prospeo contact data API.
package prospeo

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Client defines the Prospeo operations used by the enrichment engine.
type Client interface {
	// CompanyEmployees returns one page of employees for a company
	// identified by its LinkedIn URL.
	CompanyEmployees(ctx context.Context, companyURL string, pageSize, page int) (*EmployeesResponse, error)
	// EmailFinder looks up a verified email for a LinkedIn profile.
	EmailFinder(ctx context.Context, profileURL string) (*EmailResponse, error)
	// MobileFinder looks up a phone number for a LinkedIn profile.
	MobileFinder(ctx context.Context, profileURL string) (*PhoneResponse, error)
}

// Experience is one entry in an employee's work history.
type Experience struct {
	Title       string `json:"title"`
	CompanyName string `json:"company_name"`
	CompanyURL  string `json:"company_url"`
	IsCurrent   bool   `json:"is_current"`
}

// Employee is a single discovered employee record.
type Employee struct {
	FullName    string       `json:"full_name"`
	Headline    string       `json:"headline"`
	Location    string       `json:"location"`
	ProfileURL  string       `json:"profile_url"`
	Experiences []Experience `json:"experiences"`
}

// EmployeesResponse is the parsed company-employees page.
type EmployeesResponse struct {
	Employees []Employee `json:"employees"`
}

// EmailResponse is the parsed email-finder result.
type EmailResponse struct {
	Email       string `json:"email"`
	EmailStatus string `json:"email_status"`
}

// PhoneResponse is the parsed mobile-finder result.
type PhoneResponse struct {
	Phone string `json:"phone"`
}

// Option configures the Prospeo client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithBackoffUnit scales every retry delay. The default unit is one
// second; tests shrink it to keep retry paths fast.
func WithBackoffUnit(unit time.Duration) Option {
	return func(c *httpClient) {
		c.backoffUnit = unit
	}
}

type httpClient struct {
	apiKey      string
	baseURL     string
	backoffUnit time.Duration
	http        *http.Client
}

// maxAttempts is the total attempt budget per logical call (the first
// attempt plus four retries).
const maxAttempts = 5

// NewClient creates a Prospeo client carrying the given credential.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:      apiKey,
		baseURL:     "https://api.prospeo.io",
		backoffUnit: time.Second,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rateLimitDelay is the backoff before retrying a 429, capped at 16 units.
func (c *httpClient) rateLimitDelay(attempt int) time.Duration {
	d := c.backoffUnit << attempt
	if ceil := 16 * c.backoffUnit; d > ceil {
		d = ceil
	}
	return d
}

// transientDelay is the linear backoff before retrying any other failure.
func (c *httpClient) transientDelay(attempt int) time.Duration {
	return c.backoffUnit * time.Duration(attempt+1)
}

// emptyResultStatus reports whether the status means "no data available",
// a valid non-error outcome.
func emptyResultStatus(code int) bool {
	return code == http.StatusNotFound || code == http.StatusUnprocessableEntity
}

// post performs one logical call with the full retry policy. Remote
// failures never surface: after the attempt budget is exhausted, or on a
// not-found style status, out is left at its zero value and the error is
// nil. Only context cancellation returns an error.
func (c *httpClient) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "prospeo: marshal request")
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			zap.L().Debug("prospeo: retrying",
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
			)
		}

		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if reqErr != nil {
			return eris.Wrap(reqErr, "prospeo: create request")
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-KEY", c.apiKey)

		resp, doErr := c.http.Do(req)
		if doErr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			zap.L().Warn("prospeo: request failed",
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
				zap.Error(doErr),
			)
			if err := c.sleep(ctx, c.transientDelay(attempt)); err != nil {
				return err
			}
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			zap.L().Warn("prospeo: rate limited",
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
			)
			if err := c.sleep(ctx, c.rateLimitDelay(attempt)); err != nil {
				return err
			}
			continue

		case emptyResultStatus(resp.StatusCode):
			return nil

		case resp.StatusCode != http.StatusOK || readErr != nil:
			zap.L().Warn("prospeo: unexpected response",
				zap.String("path", path),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			if err := c.sleep(ctx, c.transientDelay(attempt)); err != nil {
				return err
			}
			continue
		}

		if err := json.Unmarshal(respBody, out); err != nil {
			zap.L().Warn("prospeo: unmarshal response",
				zap.String("path", path),
				zap.Error(err),
			)
			if err := c.sleep(ctx, c.transientDelay(attempt)); err != nil {
				return err
			}
			continue
		}

		return nil
	}

	// Budget exhausted: the pipeline proceeds with an empty result.
	zap.L().Warn("prospeo: attempts exhausted, returning empty result",
		zap.String("path", path),
	)
	return nil
}

func (c *httpClient) sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *httpClient) CompanyEmployees(ctx context.Context, companyURL string, pageSize, page int) (*EmployeesResponse, error) {
	req := struct {
		CompanyURL string `json:"company_url"`
		PageSize   int    `json:"page_size"`
		Page       int    `json:"page"`
	}{companyURL, pageSize, page}

	var out EmployeesResponse
	if err := c.post(ctx, "/company-employees", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) EmailFinder(ctx context.Context, profileURL string) (*EmailResponse, error) {
	req := struct {
		ProfileURL string `json:"profile_url"`
	}{profileURL}

	var out EmailResponse
	if err := c.post(ctx, "/email-finder", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) MobileFinder(ctx context.Context, profileURL string) (*PhoneResponse, error) {
	req := struct {
		ProfileURL string `json:"profile_url"`
	}{profileURL}

	var out PhoneResponse
	if err := c.post(ctx, "/mobile-finder", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
