// Package trp is a client for the Transkribus REST API (TrpServer).
// It covers the slice of the API that batch runs need: session login,
// collection/document listing, full-document reads, transcript content
// get/post, status updates and asynchronous job handling.
package trp

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the production TrpServer REST root.
	DefaultBaseURL = "https://transkribus.eu/TrpServer/rest"

	// JobStateFinished is the terminal state of a successful job.
	JobStateFinished = "FINISHED"
	// JobStateFailed and JobStateCanceled are terminal failure states.
	JobStateFailed   = "FAILED"
	JobStateCanceled = "CANCELED"
)

// ErrNotFound reports a name lookup that matched nothing. It is distinct
// from a request failure: the listing succeeded but held no match.
var ErrNotFound = errors.New("not found")

// ErrJobTimeout reports a job that did not reach a terminal state within
// the configured poll timeout.
var ErrJobTimeout = errors.New("job timed out")

// StatusError is returned for non-2xx responses from the platform.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("transkribus error (status %d): %s", e.StatusCode, body)
}

// Config holds configuration for the Transkribus client.
type Config struct {
	BaseURL string
	Timeout time.Duration

	// PollInterval is the delay between job status checks.
	PollInterval time.Duration
	// PollTimeout bounds the total wait for a job to finish. Recognition
	// jobs can run for hours; zero selects the default rather than forever.
	PollTimeout time.Duration

	// DownloadAttempts and DownloadDelay control the retry of transcript
	// content downloads on server errors or connection loss.
	DownloadAttempts uint
	DownloadDelay    time.Duration
}

// Client talks to the Transkribus platform. All calls after Login carry
// the session ID as a JSESSIONID query parameter.
type Client struct {
	baseURL          string
	sessionID        string
	pollInterval     time.Duration
	pollTimeout      time.Duration
	downloadAttempts uint
	downloadDelay    time.Duration
	client           *http.Client
}

// New creates a Transkribus client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.PollTimeout == 0 {
		cfg.PollTimeout = 6 * time.Hour
	}
	if cfg.DownloadAttempts == 0 {
		cfg.DownloadAttempts = 60
	}
	if cfg.DownloadDelay == 0 {
		cfg.DownloadDelay = 60 * time.Second
	}

	return &Client{
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
		pollInterval:     cfg.PollInterval,
		pollTimeout:      cfg.PollTimeout,
		downloadAttempts: cfg.DownloadAttempts,
		downloadDelay:    cfg.DownloadDelay,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// SessionID returns the current session identifier, empty before Login.
func (c *Client) SessionID() string {
	return c.sessionID
}

// loginResponse is the XML body returned by auth/login.
type loginResponse struct {
	XMLName   xml.Name `xml:"trpUserLogin"`
	SessionID string   `xml:"sessionId"`
	UserID    int      `xml:"userId"`
}

// Login exchanges credentials for a session ID. A failed login is fatal
// for the run: there is no retry.
func (c *Client) Login(ctx context.Context, user, password string) error {
	form := url.Values{}
	form.Set("user", user)
	form.Set("pw", password)

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read login response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed: %w", &StatusError{StatusCode: resp.StatusCode, Body: string(body)})
	}

	var login loginResponse
	if err := xml.Unmarshal(body, &login); err != nil {
		return fmt.Errorf("failed to parse login response: %w", err)
	}
	if login.SessionID == "" {
		return fmt.Errorf("login response contains no session id")
	}
	c.sessionID = login.SessionID
	return nil
}

// endpoint builds a request URL under the REST root with the session ID
// and any extra query parameters attached.
func (c *Client) endpoint(path string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("JSESSIONID", c.sessionID)
	return c.baseURL + path + "?" + params.Encode()
}

// get performs a GET and returns the raw body, converting non-2xx
// statuses into a StatusError.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// post performs a POST with an optional body and returns the raw
// response body, converting non-2xx statuses into a StatusError.
func (c *Client) post(ctx context.Context, rawURL, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

// retryable reports whether an error is worth retrying: connection
// failures and server-side (5xx) statuses. Client errors are not.
func retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500
	}
	// Anything that never produced a status line is a transport problem.
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
