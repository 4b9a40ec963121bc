// Package groundtruth is the HTTP client for the Sentinel-2 observation
// gateway. The gateway picks the newest low-cloud scene over a buffered point
// and reports its mean NDWI (green vs near-infrared) over that area.
package groundtruth

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

	"golang.org/x/time/rate"

	"pratyaksh/internal/ports"
)

const (
	BufferMeters  = 500
	MaxCloudCover = 15
)

type Client struct {
	base    string
	token   string
	http    *http.Client
	limiter *rate.Limiter
}

// New returns a client paced at rps requests per second. rps <= 0 disables
// pacing.
func New(baseURL, token string, timeout time.Duration, rps float64) *Client {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Client{
		base:    strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
	}
}

type observationResponse struct {
	Found      bool    `json:"found"`
	Matched    bool    `json:"matched"`
	NDWI       float64 `json:"ndwi"`
	SceneID    string  `json:"scene_id"`
	AcquiredAt string  `json:"acquired_at"`
	Reason     string  `json:"reason"`
}

// Query returns the newest qualifying observation in window, or nil when the
// gateway found no clear pass.
func (c *Client) Query(ctx context.Context, lat, lon float64, window ports.Window) (*ports.Observation, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("from", window.From.UTC().Format(time.RFC3339))
	q.Set("to", window.To.UTC().Format(time.RFC3339))
	q.Set("buffer_m", strconv.Itoa(BufferMeters))
	q.Set("max_cloud", strconv.Itoa(MaxCloudCover))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/v1/observations?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("gateway status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out observationResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode observation: %w", err)
	}
	if !out.Found {
		return nil, nil
	}

	obs := &ports.Observation{
		Matched: out.Matched,
		NDWI:    out.NDWI,
		SceneID: out.SceneID,
		Reason:  out.Reason,
	}
	if out.AcquiredAt != "" {
		if t, err := time.Parse(time.RFC3339, out.AcquiredAt); err == nil {
			obs.AcquiredAt = t
		}
	}
	return obs, nil
}
