// Package cloudflare is a thin typed client for the slice of the
// Cloudflare v4 API this controller uses: listing zones and listing,
// creating, updating and deleting DNS records within a zone.
//
// Every response carries the {success, result, errors} envelope. A response
// with success=false surfaces as *APIError, distinct from transport errors
// (connectivity, deserialization), which are returned wrapped. Callers that
// care about the difference use errors.As.
package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lexfrei/cloudflare-dns-controller/internal/dns"
	"github.com/lexfrei/cloudflare-dns-controller/internal/metrics"
)

// DefaultEndpoint is the public Cloudflare v4 API base URL.
const DefaultEndpoint = "https://api.cloudflare.com/client/v4"

const defaultTimeout = 30 * time.Second

// Zone is a DNS zone as reported by the provider.
type Zone struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// APIError is an application-level Cloudflare error: the HTTP exchange
// succeeded but the envelope reported success=false.
type APIError struct {
	// StatusCode is the HTTP status of the response carrying the envelope.
	StatusCode int

	// Errors is the raw diagnostic payload from the envelope.
	Errors json.RawMessage
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("cloudflare api error (status %d): %s", e.StatusCode, string(e.Errors))
}

// IsAPIError reports whether err is (or wraps) an application-level
// Cloudflare error rather than a transport failure.
func IsAPIError(err error) bool {
	var apiErr *APIError

	return errors.As(err, &apiErr)
}

// Client calls the Cloudflare API with bearer-token authentication.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
	metrics    metrics.Collector
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithEndpoint overrides the API base URL. Used by tests.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithMetrics records per-call durations and error types on the given
// collector.
func WithMetrics(collector metrics.Collector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// NewClient creates a Client authenticating with the given API token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		endpoint:   DefaultEndpoint,
		token:      token,
		metrics:    metrics.NewNoopCollector(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Zones lists all zones the token can see.
func (c *Client) Zones(ctx context.Context) ([]Zone, error) {
	var zones []Zone

	err := c.do(ctx, http.MethodGet, "/zones", "zones", nil, &zones)
	if err != nil {
		return nil, err
	}

	return zones, nil
}

// Records lists all DNS records in the given zone.
func (c *Client) Records(ctx context.Context, zoneID string) ([]dns.Record, error) {
	var records []dns.Record

	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/zones/%s/dns_records", zoneID), "records", nil, &records)
	if err != nil {
		return nil, err
	}

	return records, nil
}

// CreateRecord creates the record in the zone. The record's ID must be
// empty; the provider assigns one.
func (c *Client) CreateRecord(ctx context.Context, zoneID string, record dns.Record) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/zones/%s/dns_records", zoneID), "records", record, nil)
}

// UpdateRecord replaces the content of the record identified by its ID.
func (c *Client) UpdateRecord(ctx context.Context, zoneID string, record dns.Record) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/zones/%s/dns_records/%s", zoneID, record.ID), "records", record, nil)
}

// DeleteRecord deletes the record with the given provider ID from the zone.
func (c *Client) DeleteRecord(ctx context.Context, zoneID, recordID string) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/zones/%s/dns_records/%s", zoneID, recordID), "records", nil, nil)
}

type envelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Errors  json.RawMessage `json:"errors"`
}

// do performs one API call: marshal body, send, decode the envelope, and
// unmarshal the result into out when non-nil.
func (c *Client) do(ctx context.Context, method, path, resource string, body, out any) error {
	var reqBody io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to encode request body")
		}

		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reqBody)
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}

	req.Header.Set("Authorization", "Bearer "+c.token)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordAPICall(ctx, method, resource, "error", time.Since(start))
		c.metrics.RecordAPIError(ctx, method, metrics.ClassifyTransportError(err))

		return errors.Wrapf(err, "cloudflare transport error on %s %s", method, path)
	}
	defer resp.Body.Close() //nolint:errcheck // nothing useful to do with a close error

	var env envelope

	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		c.metrics.RecordAPICall(ctx, method, resource, "error", time.Since(start))
		c.metrics.RecordAPIError(ctx, method, metrics.ClassifyTransportError(err))

		return errors.Wrapf(err, "failed to decode cloudflare response for %s %s", method, path)
	}

	if !env.Success {
		c.metrics.RecordAPICall(ctx, method, resource, "error", time.Since(start))
		c.metrics.RecordAPIError(ctx, method, metrics.ClassifyStatusCode(resp.StatusCode))

		return &APIError{StatusCode: resp.StatusCode, Errors: env.Errors}
	}

	c.metrics.RecordAPICall(ctx, method, resource, "success", time.Since(start))

	if out != nil {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return errors.Wrapf(err, "failed to decode cloudflare result for %s %s", method, path)
		}
	}

	return nil
}
