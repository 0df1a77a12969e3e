package soliscloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the production SolisCloud API endpoint.
	DefaultBaseURL = "https://www.soliscloud.com:13333"

	requestTimeout = 30 * time.Second
)

// API is the surface of the SolisCloud client consumed by the agent's
// services.
type API interface {
	ListInverters(ctx context.Context) ([]InverterRecord, error)
	InverterDetail(ctx context.Context, sn string) (map[string]any, error)
}

// Client is a signed HTTP client for the SolisCloud v1 API. Credentials are
// immutable for the lifetime of the client and are never logged.
type Client struct {
	baseURL    string
	key        string
	secret     string
	httpClient *http.Client
	logger     zerolog.Logger
	now        func() time.Time
}

// NewClient creates a SolisCloud API client. An empty baseURL selects the
// production endpoint.
func NewClient(key, secret, baseURL string, logger zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL: baseURL,
		key:     key,
		secret:  secret,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		logger: logger,
		now:    time.Now,
	}
}

// envelope is the outer structure of every SolisCloud response.
type envelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// post serializes the payload, signs the exact body bytes, issues the request
// and unwraps the response envelope. It performs no retries; retry policy
// belongs to the caller.
func (c *Client) post(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	// The signature covers the exact serialized body, so the headers are
	// derived from the same bytes that go on the wire.
	req.Header = Sign(c.key, c.secret, string(body), path, c.now())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, &DecodeError{Err: err}
	}

	if env.Code != "0" {
		return nil, &APIError{Code: env.Code, Message: env.Msg}
	}

	return env.Data, nil
}
