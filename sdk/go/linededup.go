// Package linededup is a Go client for the linededup HTTP API.
//
// A Client posts plain text to the server and returns the unique non-blank
// lines in first-occurrence order:
//
//	client, err := linededup.New(linededup.Config{Endpoint: "http://localhost:8080"})
//	if err != nil {
//		return err
//	}
//	res, err := client.DedupText(ctx, "b\na\nb\n")
//	if errors.Is(err, linededup.ErrTooLarge) {
//		// payload exceeded the server's ceiling
//	}
package linededup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

const dedupPath = "/api/v1/dedup"

// Result is the server's answer for one payload.
type Result struct {
	// Lines holds unique trimmed lines in first-occurrence order.
	Lines []string `json:"lines"`

	// Count is the number of unique lines.
	Count int `json:"count"`

	// BytesIngested is the size of the accepted payload.
	BytesIngested int `json:"bytes_ingested"`

	// Fingerprint identifies the cleaned text; empty when no lines remain.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Repeat reports that the server recently produced identical output.
	Repeat bool `json:"repeat"`

	// RequestID is the id the server logged the request under.
	RequestID string `json:"-"`
}

// Text joins the lines with a single newline and no trailing separator.
func (r *Result) Text() string {
	return strings.Join(r.Lines, "\n")
}

// Client is the SDK client for the linededup service. It is safe for
// concurrent use.
type Client struct {
	config    Config
	transport *httpTransport
}

// New creates a new client with the given configuration.
func New(cfg Config) (*Client, error) {
	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Apply defaults
	cfg = cfg.withDefaults()

	return &Client{
		config:    cfg,
		transport: newHTTPTransport(cfg),
	}, nil
}

// Dedup reads r to the end and submits it. The payload is buffered so it
// can be replayed on retry.
func (c *Client) Dedup(ctx context.Context, r io.Reader) (*Result, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("linededup: failed to read payload: %w", err)
	}
	return c.dedup(ctx, body)
}

// DedupText submits text.
func (c *Client) DedupText(ctx context.Context, text string) (*Result, error) {
	return c.dedup(ctx, []byte(text))
}

func (c *Client) dedup(ctx context.Context, body []byte) (*Result, error) {
	requestID := uuid.Must(uuid.NewV7()).String()

	resp, err := c.transport.post(ctx, dedupPath, requestID, body)
	if err != nil {
		return nil, err
	}

	var res Result
	if err := json.Unmarshal(resp.body, &res); err != nil {
		return nil, fmt.Errorf("linededup: failed to decode response: %w", err)
	}
	if res.Lines == nil {
		res.Lines = []string{}
	}
	res.RequestID = resp.requestID
	if res.RequestID == "" {
		res.RequestID = requestID
	}
	return &res, nil
}
