// Package khalti is a thin client for the Khalti ePayment API (initiate and lookup).
// Calls are never retried.
package khalti

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTimeout = 15 * time.Second

type Client struct {
	baseURL   string
	secretKey string
	timeout   time.Duration
	http      *http.Client
	tracer    trace.Tracer
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		secretKey: cfg.SecretKey,
		timeout:   timeout,
		http:      &http.Client{Timeout: timeout},
		tracer:    otel.Tracer("ticketing/internal/gateway/khalti"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResponse, error) {
	ctx, span := c.tracer.Start(ctx, "khalti.initiate", trace.WithAttributes(
		attribute.String("khalti.purchase_order_id", req.PurchaseOrderID),
		attribute.Int64("khalti.amount", req.Amount),
	))
	defer span.End()

	raw, err := c.post(ctx, "/epayment/initiate/", req)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	var out InitiateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		recordError(span, err)
		return nil, err
	}
	out.Raw = raw
	span.SetAttributes(attribute.String("khalti.pidx", out.Pidx))
	return &out, nil
}

func (c *Client) Lookup(ctx context.Context, pidx string) (*LookupResponse, error) {
	ctx, span := c.tracer.Start(ctx, "khalti.lookup", trace.WithAttributes(
		attribute.String("khalti.pidx", pidx),
	))
	defer span.End()

	raw, err := c.post(ctx, "/epayment/lookup/", map[string]string{"pidx": pidx})
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	var out LookupResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		recordError(span, err)
		return nil, err
	}
	out.Raw = raw
	span.SetAttributes(attribute.String("khalti.status", out.Status))
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("khalti: encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("khalti: build request: %w", err)
	}
	req.Header.Set("Authorization", "Key "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &APIError{StatusCode: res.StatusCode, Message: errorMessage(raw, res.Status), Body: raw}
	}
	return raw, nil
}

func errorMessage(raw []byte, fallback string) string {
	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err == nil {
		switch {
		case eb.Detail != "":
			return eb.Detail
		case eb.Message != "":
			return eb.Message
		case eb.ErrorKey != "":
			return eb.ErrorKey
		}
	}
	return fallback
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		span.SetAttributes(attribute.Int("http.status_code", apiErr.StatusCode))
	}
}
