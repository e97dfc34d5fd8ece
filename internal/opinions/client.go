package opinions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the opinion service. The zero timeout policy is the
// transport default; requests are never retried automatically, and both
// calls honor ctx cancellation so an unmounted view discards its result.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the service at baseURL (e.g.
// "http://localhost:4000").
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    newHTTPClient(15 * time.Second),
	}
}

// NewWithHTTPClient is used by tests and callers with their own transport.
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// List fetches the opinions for eventID, newest first. On any transport or
// non-success failure it returns an empty (never nil) slice together with
// the structured error, so render paths can show zero opinions while the
// caller decides whether to surface the failure.
func (c *Client) List(ctx context.Context, eventID string) ([]Opinion, error) {
	empty := []Opinion{}

	endpoint := c.baseURL + "/api/opinions/" + url.PathEscape(eventID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return empty, &TransportError{Op: "build list request", Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return empty, &TransportError{Op: "list opinions", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return empty, readServerError(resp)
	}

	var items []Opinion
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return empty, &TransportError{Op: "decode list response", Err: err}
	}
	if items == nil {
		items = []Opinion{}
	}
	return items, nil
}

// Add appends a comment to eventID and returns the created row with its
// server-assigned id and timestamp. Missing fields fail fast before any
// network call. Repeating Add with identical arguments creates a second
// distinct opinion; the service makes no idempotency promise.
func (c *Client) Add(ctx context.Context, eventID, comment string) (Opinion, error) {
	if strings.TrimSpace(eventID) == "" || strings.TrimSpace(comment) == "" {
		return Opinion{}, &ValidationError{Message: "event_id and comment are required"}
	}

	payload, err := json.Marshal(map[string]string{
		"event_id": eventID,
		"comment":  comment,
	})
	if err != nil {
		return Opinion{}, &TransportError{Op: "encode add request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/opinions", bytes.NewReader(payload))
	if err != nil {
		return Opinion{}, &TransportError{Op: "build add request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Opinion{}, &TransportError{Op: "add opinion", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		body := decodeErrorBody(resp)
		message := body.Error
		if message == "" {
			message = "request rejected"
		}
		return Opinion{}, &ValidationError{Message: message}
	}
	if resp.StatusCode != http.StatusCreated {
		return Opinion{}, readServerError(resp)
	}

	var created Opinion
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return Opinion{}, &TransportError{Op: "decode add response", Err: err}
	}
	return created, nil
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

func decodeErrorBody(resp *http.Response) errorBody {
	var body errorBody
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return body
}

func readServerError(resp *http.Response) *ServerError {
	body := decodeErrorBody(resp)
	message := body.Error
	if message == "" {
		message = fmt.Sprintf("unexpected status %d", resp.StatusCode)
	}
	return &ServerError{Status: resp.StatusCode, Message: message, Details: body.Details}
}
