package cohort

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/lifeline/internal/domain/model"
)

const maxErrorBody = 4 << 10

// Client talks to the lifeline HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Healthz checks that the service answers on /healthz.
func (c *Client) Healthz(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil, http.StatusOK)
}

// PostRecord submits one record. A duplicate is reported through Ack, not as an error.
func (c *Client) PostRecord(ctx context.Context, r Record) (Ack, error) {
	var ack Ack
	err := c.do(ctx, http.MethodPost, "/records", r, &ack, http.StatusAccepted, http.StatusOK)
	return ack, err
}

// Groups fetches GET /groups.
func (c *Client) Groups(ctx context.Context) ([]GroupSummary, error) {
	var resp struct {
		Groups []GroupSummary `json:"groups"`
	}
	if err := c.do(ctx, http.MethodGet, "/groups", nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return resp.Groups, nil
}

// Survival fetches the Kaplan-Meier curve of group.
func (c *Client) Survival(ctx context.Context, group string) (model.SurvivalCurve, error) {
	var curve model.SurvivalCurve
	err := c.do(ctx, http.MethodGet, "/survival/"+url.PathEscape(group), nil, &curve, http.StatusOK)
	return curve, err
}

// Hazard fetches the Nelson-Aalen curve of group.
func (c *Client) Hazard(ctx context.Context, group string) (model.CumulativeHazardCurve, error) {
	var curve model.CumulativeHazardCurve
	err := c.do(ctx, http.MethodGet, "/hazard/"+url.PathEscape(group), nil, &curve, http.StatusOK)
	return curve, err
}

// ChartItem is one entry of a POST /chart request.
type ChartItem struct {
	Source     string            `json:"source"`
	Group      string            `json:"group,omitempty"`
	Parametric *ParametricItem   `json:"parametric,omitempty"`
	Style      map[string]string `json:"style_hint,omitempty"`
}

// ParametricItem evaluates a closed-form model over a linspace.
type ParametricItem struct {
	Group      string             `json:"group"`
	Kind       string             `json:"model_kind"`
	Parameters map[string]float64 `json:"parameters,omitempty"`
	Linspace   Linspace           `json:"linspace"`
}

// Linspace is Num evenly spaced points from Start to Stop.
type Linspace struct {
	Start float64 `json:"start"`
	Stop  float64 `json:"stop"`
	Num   int     `json:"num"`
}

// ChartRequest is the POST /chart body.
type ChartRequest struct {
	Title   string         `json:"title,omitempty"`
	Items   []ChartItem    `json:"items"`
	Markers []model.Marker `json:"markers,omitempty"`
}

// Chart posts req and returns the chart description.
func (c *Client) Chart(ctx context.Context, req ChartRequest) (model.ComparativeChartSpec, error) {
	var spec model.ComparativeChartSpec
	err := c.do(ctx, http.MethodPost, "/chart", req, &spec, http.StatusOK)
	return spec, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, want ...int) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if !expected(resp.StatusCode, want) {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %s %s: %d %s", ErrUnexpectedStatus, method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func expected(status int, want []int) bool {
	for _, w := range want {
		if status == w {
			return true
		}
	}
	return false
}
