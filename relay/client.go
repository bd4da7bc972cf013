package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/Laisky/errors/v2"

	"github.com/songquanpeng/hamming-ci/common/config"
	"github.com/songquanpeng/hamming-ci/common/helper"
	"github.com/songquanpeng/hamming-ci/model"
	relaymodel "github.com/songquanpeng/hamming-ci/relay/model"
)

const maxResponseBodySize = 8 << 20 // 8 MiB

// ErrNotFound is matched by errors.Is for any 404 answer.
var ErrNotFound = errors.New("test run not found")

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %s: %s", e.Method, e.Endpoint, e.Status, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client talks to the Hamming REST API.
type Client struct {
	baseURL    string
	headers    http.Header
	httpClient *http.Client
}

type ClientOption func(*Client)

// WithHTTPClient replaces the default client, whose timeout comes from the configuration.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(cfg *config.Config, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    cfg.APIBaseURL,
		headers:    cfg.Headers(),
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout()},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateTestRun submits a run for an inbound voice agent.
func (c *Client) CreateTestRun(ctx context.Context, req *model.CreateTestRunRequest) (*model.TestRunResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "marshal create request")
	}

	body, err := c.do(ctx, http.MethodPost, "/test-runs/test-inbound-agent", payload)
	if err != nil {
		return nil, err
	}

	var resp relaymodel.CreateResponse
	if err = json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrapf(err, "decode create response: %s", helper.Snippet(body))
	}
	out := resp.ToCanonical()
	if out.TestRunID == "" {
		return nil, errors.Errorf("create response carries no run id: %s", helper.Snippet(body))
	}
	return out, nil
}

// GetStatus returns the current status of a run. A 404 matches ErrNotFound.
func (c *Client) GetStatus(ctx context.Context, runID string) (model.RunStatus, error) {
	body, err := c.do(ctx, http.MethodGet, "/test-runs/"+url.PathEscape(runID)+"/status", nil)
	if err != nil {
		return "", err
	}

	var resp relaymodel.StatusResponse
	if err = json.Unmarshal(body, &resp); err != nil {
		return "", errors.Wrapf(err, "decode status response: %s", helper.Snippet(body))
	}
	st := resp.RunStatus()
	if st == "" {
		return "", errors.Errorf("status response carries no status: %s", helper.Snippet(body))
	}
	return st, nil
}

// GetResults returns the raw results payload of a run, in whatever shape the API sends.
func (c *Client) GetResults(ctx context.Context, runID string) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodGet, "/test-runs/"+url.PathEscape(runID)+"/results", nil)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, errors.Errorf("results response is not valid JSON: %s", helper.Snippet(body))
	}
	return json.RawMessage(body), nil
}

// FetchResults fetches and decodes the results of a run.
func (c *Client) FetchResults(ctx context.Context, runID string) (*model.TestRunResults, json.RawMessage, error) {
	raw, err := c.GetResults(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	res, _, err := DecodeResults(raw)
	if err != nil {
		return nil, raw, err
	}
	return res, raw, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	endpoint := c.baseURL + path

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, errors.Wrapf(err, "build request %s %s", method, endpoint)
	}
	for key, values := range c.headers {
		req.Header[key] = values
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "do request %s %s", method, endpoint)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, errors.Wrapf(err, "read response %s %s", method, endpoint)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			Method:     method,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       helper.Snippet(body),
		}
	}
	return body, nil
}
