package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

const DefaultTimeout = 5 * time.Second

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method  string
	URL     string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Status, e.Message)
}

// Client talks to a widgetd instance.
type Client struct {
	base string
	http *http.Client
}

// NewClient uses hc as is, or a client with DefaultTimeout when hc is nil.
func NewClient(base string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{base: baseURL(base), http: hc}
}

func baseURL(addr string) string {
	addr = strings.TrimRight(addr, "/")
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return addr
	}
	return "http://" + addr
}

func (c *Client) Create(ctx context.Context, req CreateRequest) (Widget, error) {
	var w Widget
	err := c.do(ctx, http.MethodPost, "/api/widgets", req, &w)
	return w, err
}

func (c *Client) Update(ctx context.Context, req UpdateRequest) (Widget, error) {
	var w Widget
	err := c.do(ctx, http.MethodPut, "/api/widgets", req, &w)
	return w, err
}

// Get returns ErrNotFound when the server has no such widget.
func (c *Client) Get(ctx context.Context, id uuid.UUID) (Widget, error) {
	var w Widget
	err := c.do(ctx, http.MethodGet, "/api/widgets/"+id.String(), nil, &w)
	var se *StatusError
	if errors.As(err, &se) && se.Status == http.StatusNotFound {
		return Widget{}, fmt.Errorf("widget %s: %w", id, ErrNotFound)
	}
	return w, err
}

func (c *Client) List(ctx context.Context) ([]Widget, error) {
	var ws []Widget
	err := c.do(ctx, http.MethodGet, "/api/widgets", nil, &ws)
	return ws, err
}

// ListPage returns one page and the total number of widgets on the server.
func (c *Client) ListPage(ctx context.Context, page, size int) ([]Widget, int, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))

	var ws []Widget
	h, err := c.doHeader(ctx, http.MethodGet, "/api/v2/widgets?"+q.Encode(), nil, &ws)
	if err != nil {
		return nil, 0, err
	}
	total, err := strconv.Atoi(h.Get(TotalCountHeader))
	if err != nil {
		return nil, 0, fmt.Errorf("bad %s header: %w", TotalCountHeader, err)
	}
	return ws, total, nil
}

func (c *Client) Delete(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/widgets/"+id.String(), nil, nil)
}

// Health succeeds when the server answers /health with 2xx.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, req any, resp any) error {
	_, err := c.doHeader(ctx, method, path, req, resp)
	return err
}

func (c *Client) doHeader(ctx context.Context, method, path string, req any, resp any) (http.Header, error) {
	var body io.Reader
	if req != nil {
		b, err := json.Marshal(req)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	u := c.base + path
	httpReq, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	if req != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	r, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer r.Body.Close()

	if r.StatusCode < 200 || r.StatusCode >= 300 {
		se := &StatusError{Method: method, URL: u, Status: r.StatusCode}
		var er ErrorResponse
		if b, _ := io.ReadAll(r.Body); len(b) > 0 && json.Unmarshal(b, &er) == nil {
			se.Message = er.Message
		}
		return nil, se
	}

	if resp == nil {
		return r.Header, nil
	}
	return r.Header, json.NewDecoder(r.Body).Decode(resp)
}
