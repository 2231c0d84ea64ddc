// Package client talks to the dispatch API on behalf of a signed-in device.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/handyhub/dispatch-api/internal/domain/booking"
	"github.com/handyhub/dispatch-api/internal/domain/dispatch"
	"github.com/handyhub/dispatch-api/internal/domain/mapview"
)

const defaultTimeout = 10 * time.Second

// Client is an HTTP client for /api/v1.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a client. baseURL is the server root, e.g. http://localhost:8080.
func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		token:   token,
		http:    &http.Client{Timeout: timeout, Transport: transport},
	}
}

// Board fetches the dispatch board of the signed-in actor.
func (c *Client) Board(ctx context.Context) (*dispatch.BoardResponse, error) {
	var out dispatch.BoardResponse
	if err := c.do(ctx, http.MethodGet, "/dispatch/board", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches one booking.
func (c *Client) Get(ctx context.Context, id string) (*booking.BookingResponse, error) {
	var out booking.BookingResponse
	if err := c.do(ctx, http.MethodGet, "/bookings/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create places a booking as the signed-in seeker.
func (c *Client) Create(ctx context.Context, req *booking.CreateRequest) (*booking.BookingResponse, error) {
	var out booking.BookingResponse
	if err := c.do(ctx, http.MethodPost, "/bookings", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Transition records the provider's decision on a booking.
func (c *Client) Transition(ctx context.Context, id string, status booking.Status) (*booking.TransitionResponse, error) {
	var out booking.TransitionResponse
	body := &booking.UpdateStatusRequest{Status: string(status)}
	if err := c.do(ctx, http.MethodPatch, "/bookings/"+id+"/status", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Map downloads the standalone map page of a booking.
func (c *Client) Map(ctx context.Context, id string) (html []byte, etag string, err error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/bookings/"+id+"/map", nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("dispatch api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", decodeError(resp)
	}
	html, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read map page: %w", err)
	}
	return html, strings.Trim(resp.Header.Get("ETag"), `"`), nil
}

// PublishMap uploads the map page to object storage and returns where it lives.
func (c *Client) PublishMap(ctx context.Context, id string) (*mapview.PublishResponse, error) {
	var out mapview.PublishResponse
	if err := c.do(ctx, http.MethodPost, "/bookings/"+id+"/map/publish", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("dispatch api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}
