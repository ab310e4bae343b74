package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/amcabaraban/pureflow-tagum-pos/internal/schema"
)

// Config holds the HTTP gateway's connection settings.
type Config struct {
	// BaseURL is the backend root, e.g. https://project.example.co
	BaseURL string

	// APIKey is sent as both the apikey header and a bearer token.
	APIKey string

	// Timeout bounds each request. Elapsed timeouts surface as Unreachable.
	// Default: 10s.
	Timeout time.Duration

	// Logger for gateway activity. Default: stderr logger.
	Logger *log.Logger
}

// Client is the HTTP implementation of Gateway, speaking PostgREST
// conventions: POST /rest/v1/<table> for inserts, on_conflict plus a
// merge-duplicates Prefer header for upserts, PATCH with a column filter
// for updates, and order/limit query parameters for selects.
type Client struct {
	cfg   Config
	httpc *http.Client
}

var _ Gateway = (*Client)(nil)

// NewClient creates an HTTP gateway client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("remote base URL cannot be empty")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "[remote] ", log.LstdFlags)
	}
	return &Client{
		cfg:   cfg,
		httpc: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// restURL builds /rest/v1/<table> with query parameters.
func (c *Client) restURL(table string, query url.Values) string {
	u := c.cfg.BaseURL + "/rest/v1/" + table
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do sends one request and classifies the response into the failure
// taxonomy. A nil error means 2xx; body is the response payload.
func (c *Client) do(ctx context.Context, method, rawURL string, body []byte, prefer string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("apikey", c.cfg.APIKey)
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		// Transport failures and timeouts are the no-network class.
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnreachable, method, rawURL, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnreachable, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return payload, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, method, rawURL)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, fmt.Errorf("%w: %s %s: status %d: %s",
			ErrRejected, method, rawURL, resp.StatusCode, truncate(payload, 200))
	default:
		return nil, fmt.Errorf("%w: %s %s: status %d",
			ErrUnreachable, method, rawURL, resp.StatusCode)
	}
}

// Insert implements Gateway.Insert.
func (c *Client) Insert(ctx context.Context, kind schema.Kind, record json.RawMessage) (json.RawMessage, error) {
	body, err := json.Marshal([]json.RawMessage{record})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s record: %w", kind, err)
	}

	payload, err := c.do(ctx, http.MethodPost, c.restURL(kind.Table(), nil), body, "return=representation")
	if err != nil {
		return nil, err
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(payload, &rows); err != nil || len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s insert returned no row", ErrRejected, kind)
	}
	return rows[0], nil
}

// UpsertByKey implements Gateway.UpsertByKey.
func (c *Client) UpsertByKey(ctx context.Context, kind schema.Kind, record json.RawMessage, conflictKey string) error {
	body, err := json.Marshal([]json.RawMessage{record})
	if err != nil {
		return fmt.Errorf("failed to encode %s record: %w", kind, err)
	}

	query := url.Values{"on_conflict": {conflictKey}}
	_, err = c.do(ctx, http.MethodPost, c.restURL(kind.Table(), query), body,
		"resolution=merge-duplicates")
	return err
}

// UpdateByKey implements Gateway.UpdateByKey.
func (c *Client) UpdateByKey(ctx context.Context, kind schema.Kind, keyColumn, keyValue string, partial json.RawMessage) error {
	query := url.Values{keyColumn: {"eq." + keyValue}}
	_, err := c.do(ctx, http.MethodPatch, c.restURL(kind.Table(), query), partial, "")
	return err
}

// SelectAll implements Gateway.SelectAll.
func (c *Client) SelectAll(ctx context.Context, kind schema.Kind, opts SelectOptions) ([]json.RawMessage, error) {
	query := url.Values{"select": {"*"}}
	if opts.OrderBy != "" {
		direction := "asc"
		if opts.Descending {
			direction = "desc"
		}
		query.Set("order", opts.OrderBy+"."+direction)
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}

	payload, err := c.do(ctx, http.MethodGet, c.restURL(kind.Table(), query), nil, "")
	if err != nil {
		return nil, err
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("%w: decoding %s rows: %v", ErrRejected, kind, err)
	}
	return rows, nil
}

// Ping implements Gateway.Ping with a one-row probe of the sales table.
func (c *Client) Ping(ctx context.Context) error {
	query := url.Values{"select": {"id"}, "limit": {"1"}}
	_, err := c.do(ctx, http.MethodGet, c.restURL(schema.KindSales.Table(), query), nil, "")
	return err
}

// truncate shortens an error payload for log-friendly messages.
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
