package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kurihiro0119/codacy-standards-report/internal/api"
	"github.com/kurihiro0119/codacy-standards-report/internal/domain"
	apperrors "github.com/kurihiro0119/codacy-standards-report/internal/errors"
)

// Client is the API client for the report history server
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// HealthCheck reports whether the server answers its health endpoint
func (c *Client) HealthCheck(ctx context.Context) error {
	var response struct {
		Status string `json:"status"`
	}
	if err := c.get(ctx, "/health", nil, &response); err != nil {
		return err
	}
	if response.Status != "ok" {
		return fmt.Errorf("unexpected health status: %q", response.Status)
	}
	return nil
}

// ListRuns retrieves the most recent runs of an organization
func (c *Client) ListRuns(ctx context.Context, org string, limit int) ([]*domain.ReportRun, error) {
	path := fmt.Sprintf("/api/v1/orgs/%s/runs", url.PathEscape(org))
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var response struct {
		Data []*domain.ReportRun `json:"data"`
	}
	if err := c.get(ctx, path, params, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// GetRun retrieves a run with its repository outcomes
func (c *Client) GetRun(ctx context.Context, id string) (*api.RunDetail, error) {
	path := fmt.Sprintf("/api/v1/runs/%s", url.PathEscape(id))

	var response struct {
		Data *api.RunDetail `json:"data"`
	}
	if err := c.get(ctx, path, nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// get performs a GET request and decodes the JSON response
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return err
	}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &apperrors.StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	return json.NewDecoder(resp.Body).Decode(result)
}
