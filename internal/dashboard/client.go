package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/domain"
)

// Client talks to the REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Meters(ctx context.Context) ([]domain.Meter, error) {
	var out []domain.Meter
	if err := c.getJSON(ctx, "/api/meters", &out, nil); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Groups(ctx context.Context) ([]domain.Group, error) {
	var out []domain.Group
	if err := c.getJSON(ctx, "/api/groups", &out, nil); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MeterLine(ctx context.Context, ids []int64, ti domain.TimeInterval) (map[int64][]domain.Reading, error) {
	return c.line(ctx, "meters", ids, ti)
}

func (c *Client) GroupLine(ctx context.Context, ids []int64, ti domain.TimeInterval) (map[int64][]domain.Reading, error) {
	return c.line(ctx, "groups", ids, ti)
}

// Health reports whether the API answers.
func (c *Client) Health(ctx context.Context) error {
	var out map[string]string
	return c.getJSON(ctx, "/health", &out, nil)
}

func (c *Client) line(ctx context.Context, kind string, ids []int64, ti domain.TimeInterval) (map[int64][]domain.Reading, error) {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	params := url.Values{}
	params.Set("timeInterval", ti.String())

	var raw map[string][]domain.Reading
	if err := c.getJSON(ctx, "/api/readings/line/"+kind+"/"+strings.Join(parts, ","), &raw, params); err != nil {
		return nil, err
	}
	out := make(map[int64][]domain.Reading, len(raw))
	for k, rs := range raw {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line readings: bad id %q", k)
		}
		if rs == nil {
			rs = []domain.Reading{}
		}
		out[id] = rs
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any, params url.Values) error {
	u := c.baseURL + path
	if params != nil {
		if q := params.Encode(); q != "" {
			u += "?" + q
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("GET %s failed: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
