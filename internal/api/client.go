// Package api talks to the flight planning web frontend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/dronepath/autopilot/internal/geo"
	"github.com/dronepath/autopilot/pkg/core"
)

const plansPath = "/api/v1/plans"

// PlanUpload is the document the frontend stores for a saved plan.
type PlanUpload struct {
	Name         string      `json:"name"`
	Tag          string      `json:"tag,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	DistanceUnit float64     `json:"distanceUnit"`
	Speed        int         `json:"speed"`
	Commands     []string    `json:"commands"`
	Instructions int         `json:"instructions"`
	PathLength   float64     `json:"pathLength"`
	PathWKT      string      `json:"pathWkt,omitempty"`
	LandLine     []core.Vec3 `json:"landLine,omitempty"`
}

// NewPlanUpload describes plan together with its drawn path.
func NewPlanUpload(plan core.Plan, tag string) PlanUpload {
	r := geo.Render(plan.Instructions)
	return PlanUpload{
		Name:         plan.Name,
		Tag:          tag,
		CreatedAt:    plan.CreatedAt,
		DistanceUnit: plan.DistanceUnit,
		Speed:        plan.Speed,
		Commands:     plan.Commands,
		Instructions: len(plan.Instructions),
		PathLength:   r.Length,
		PathWKT:      r.WKT,
		LandLine:     r.LandLine,
	}
}

// Client handles communication with the web frontend.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Healthcheck checks if the web frontend is reachable.
func (c *Client) Healthcheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthcheck", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}

// Upload posts a plan as gzip-compressed JSON.
func (c *Client) Upload(ctx context.Context, u PlanUpload) error {
	var body bytes.Buffer
	zw := gzip.NewWriter(&body)
	if err := json.NewEncoder(zw).Encode(u); err != nil {
		return fmt.Errorf("failed to encode plan %q: %w", u.Name, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to compress plan %q: %w", u.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+plansPath, &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if text := strings.TrimSpace(string(msg)); text != "" {
		return fmt.Errorf("upload returned status %d: %s", resp.StatusCode, text)
	}
	return fmt.Errorf("upload returned status %d", resp.StatusCode)
}
