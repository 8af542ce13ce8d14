// Package factcheck is the HTTP client of the external fact-check service and
// the helpers interpreting its payload.
package factcheck

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	. "github.com/Luismorlan/factfeed/utils/log"
	"github.com/pkg/errors"
)

const maxErrorBodyBytes = 2048

// StatusError is returned for non 2xx answers.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return "fact-check service answered " + http.StatusText(e.Code) + ": " + e.Body
}

type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// NewClient creates a client for the service rooted at endpoint. timeout
// bounds every single request, the job as a whole is bounded by the caller.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

// Submit queues a fact check and returns the service's job id.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	var resp submitResponse
	if err := c.do(ctx, http.MethodPost, "/fact-check", req, &resp); err != nil {
		return "", errors.Wrap(err, "submit fact check")
	}
	if resp.JobID == "" {
		return "", errors.New("submit fact check: empty job id")
	}
	return resp.JobID, nil
}

// Status polls one job.
func (c *Client) Status(ctx context.Context, jobID string) (JobStatus, error) {
	var status JobStatus
	if err := c.do(ctx, http.MethodGet, "/fact-check/"+url.PathEscape(jobID), nil, &status); err != nil {
		return JobStatus{}, errors.Wrap(err, "poll fact check "+jobID)
	}
	return status, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}, v interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrap(err, "marshal payload")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		Log.WithField("status", resp.StatusCode).WithField("path", path).
			Warnf("fact-check service error, body: %s", string(b))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

// IsRetryable reports whether a poll error is worth retrying: transport
// errors, 429 and 5xx answers. Other 4xx answers will not get better.
func IsRetryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return true
}
