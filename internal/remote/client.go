package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	restPrefix = "/rest/v1/"

	headerPrefer       = "Prefer"
	preferRepr         = "return=representation"
	preferCount        = "count=exact"
	acceptSingleObject = "application/vnd.pgrst.object+json"
)

// Options configures a Client. BaseURL and APIKey are mandatory.
type Options struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration // ignored when HTTPClient is provided
	HTTPClient *http.Client  // optional, for tests
}

// Client talks to the remote table service. It is constructed explicitly and
// passed to the access layer; there is no package-level instance. The client
// never opens subscription channels, so real-time features are simply absent.
//
// SetToken must be called before the client is shared across goroutines.
type Client struct {
	baseURL string
	apiKey  string
	token   string
	http    *http.Client
}

// New builds a client for the given service.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("remote: BaseURL is required")
	}
	if opts.APIKey == "" {
		return nil, fmt.Errorf("remote: APIKey is required")
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		http:    hc,
	}, nil
}

// BaseURL returns the configured service URL.
func (c *Client) BaseURL() string { return c.baseURL }

// SetToken installs the bearer token used for authenticated requests.
func (c *Client) SetToken(token string) { c.token = token }

// SelectOne fetches exactly one row matching q into dest. Returns ErrNotFound
// when no row matches.
func (c *Client) SelectOne(ctx context.Context, table string, q Query, dest any) error {
	_, err := c.do(ctx, http.MethodGet, table, q, nil, dest, true)
	return err
}

// Select fetches the rows matching q into dest (a pointer to a slice) and
// returns the exact total of matching rows when the query is ranged.
func (c *Client) Select(ctx context.Context, table string, q Query, dest any) (int, error) {
	return c.do(ctx, http.MethodGet, table, q, nil, dest, false)
}

// InsertOne inserts row and decodes the persisted representation into dest.
func (c *Client) InsertOne(ctx context.Context, table string, row, dest any) error {
	_, err := c.do(ctx, http.MethodPost, table, Query{}, row, dest, true)
	return err
}

// UpdateOne patches the single row matching q and decodes the updated
// representation into dest. Returns ErrNotFound when no row matches.
func (c *Client) UpdateOne(ctx context.Context, table string, q Query, patch, dest any) error {
	_, err := c.do(ctx, http.MethodPatch, table, q, patch, dest, true)
	return err
}

// DeleteWhere removes the rows matching q and returns how many were removed.
func (c *Client) DeleteWhere(ctx context.Context, table string, q Query) (int, error) {
	var removed []json.RawMessage
	_, err := c.do(ctx, http.MethodDelete, table, q, nil, &removed, false)
	if err != nil {
		return 0, err
	}
	return len(removed), nil
}

// Ping issues a cheap unauthenticated request to check reachability.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 500 {
		return &Error{Status: resp.StatusCode, Message: "service unhealthy"}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, table string, q Query, body, dest any, single bool) (int, error) {
	u := c.baseURL + restPrefix + table
	if enc := q.encode(); enc != "" {
		u += "?" + enc
	}

	var rd io.Reader = http.NoBody
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request body: %w", err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return 0, err
	}
	req.Header.Set("apikey", c.apiKey)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	prefer := make([]string, 0, 2)
	if dest != nil && method != http.MethodGet {
		prefer = append(prefer, preferRepr)
	}
	if q.counted {
		prefer = append(prefer, preferCount)
	}
	if len(prefer) > 0 {
		req.Header.Set(headerPrefer, strings.Join(prefer, ","))
	}
	if single {
		req.Header.Set("Accept", acceptSingleObject)
	}
	if rh := q.rangeHeader(); rh != "" {
		req.Header.Set("Range-Unit", "items")
		req.Header.Set("Range", rh)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("remote request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return 0, decodeError(resp)
	}

	total := -1
	if q.counted {
		total = parseTotal(resp.Header.Get("Content-Range"))
	}

	if dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return 0, fmt.Errorf("decode response: %w", err)
		}
	}
	return total, nil
}

// decodeError maps an error response to the typed taxonomy. A "single object
// requested, no rows" answer is a distinguishable empty result.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))

	var payload struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	_ = json.Unmarshal(raw, &payload)

	if payload.Code == codeNoSingleRow || resp.StatusCode == http.StatusNotAcceptable {
		return ErrNotFound
	}

	msg := payload.Message
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &Error{Status: resp.StatusCode, Code: payload.Code, Message: msg}
}

// parseTotal extracts the total from a "from-to/total" Content-Range value.
// Returns -1 when the header is absent or malformed.
func parseTotal(cr string) int {
	idx := strings.LastIndexByte(cr, '/')
	if idx < 0 {
		return -1
	}
	n, err := strconv.Atoi(cr[idx+1:])
	if err != nil {
		return -1
	}
	return n
}
