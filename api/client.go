package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"kiraye/config"
	"kiraye/httputil"
)

const maxBodySize = 10 << 20

// Client talks to the rental REST API. Privileged calls take the bearer
// token explicitly and refuse to go out without one.
type Client struct {
	baseURL string
	http    *http.Client
	upload  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

func New(cfg config.APIConfig, clients *httputil.Clients, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    clients.API,
		upload:  clients.Upload,
		timeout: cfg.RequestTimeout,
		logger:  logger,
	}
}

// NewWithHTTPClient builds a client around a single http.Client.
func NewWithHTTPClient(baseURL string, hc *http.Client, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		upload:  hc,
		timeout: timeout,
		logger:  logger,
	}
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	token       string
	auth        bool // token required
	upload      bool
}

type response struct {
	status      int
	contentType string
	body        []byte
	requestID   string
}

func (c *Client) do(ctx context.Context, r request) (*response, error) {
	if r.auth && r.token == "" {
		return nil, ErrUnauthenticated
	}

	if c.timeout > 0 && !r.upload {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	endpoint := c.baseURL + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, r.body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("X-Request-Id", requestID)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	hc := c.http
	if r.upload {
		hc = c.upload
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "method", r.method, "path", r.path, "request_id", requestID, "error", err)
		return nil, transportError(ctx, err, requestID)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, transportError(ctx, err, requestID)
	}

	c.logger.Debug("request done",
		"method", r.method,
		"path", r.path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"took", time.Since(start).Round(time.Millisecond))

	out := &response{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        body,
		requestID:   requestID,
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, fromResponse(resp.StatusCode, out.contentType, body, requestID)
	}
	return out, nil
}

func transportError(ctx context.Context, err error, requestID string) error {
	if errors.Is(err, context.Canceled) && ctx.Err() == context.Canceled {
		return err
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		e := *ErrTimeout
		e.RequestID = requestID
		return &e
	}

	e := *ErrTransport
	e.RequestID = requestID
	return &e
}

// getJSON performs r and decodes a JSON body of type T.
func getJSON[T any](ctx context.Context, c *Client, r request) (T, error) {
	var zero T

	resp, err := c.do(ctx, r)
	if err != nil {
		return zero, err
	}

	v, ok := Decode[T](resp.body).Value()
	if !ok {
		return zero, &Error{
			Kind:      KindDecode,
			Status:    resp.status,
			Message:   "Unexpected response from server.",
			RequestID: resp.requestID,
		}
	}
	return v, nil
}

type messageBody struct {
	Message string `json:"message"`
}

// messageOf reads a success message that may arrive as JSON or plain text.
func messageOf(resp *response, fallback string) string {
	res := Decode[messageBody](resp.body)
	if mb, ok := res.Value(); ok {
		return firstNonEmpty(mb.Message, fallback)
	}
	return firstNonEmpty(plainText(resp.contentType, res.Raw()), fallback)
}
