// Package classifier is an HTTP client for an image-classification inference
// endpoint that labels images as AI-generated or human made.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"pratyaksh/internal/domain"
)

const (
	LabelArtificial = "artificial"
	LabelHuman      = "human"
)

// Client posts raw image bytes and reads back a list of scored labels.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

func New(endpoint, token string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		token:    token,
		http:     &http.Client{Timeout: timeout},
	}
}

type prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type apiError struct {
	Error string `json:"error"`
}

// Classify returns the top prediction mapped onto artificial or human.
func (c *Client) Classify(ctx context.Context, media domain.MediaReference) (string, float64, error) {
	data, err := os.ReadFile(media.Path)
	if err != nil {
		return "", 0, fmt.Errorf("read media: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("classifier request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", 0, fmt.Errorf("classifier response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var ae apiError
		if json.Unmarshal(body, &ae) == nil && ae.Error != "" {
			return "", 0, fmt.Errorf("classifier status %d: %s", resp.StatusCode, ae.Error)
		}
		return "", 0, fmt.Errorf("classifier status %d", resp.StatusCode)
	}

	var preds []prediction
	if err := json.Unmarshal(body, &preds); err != nil {
		return "", 0, fmt.Errorf("decode predictions: %w", err)
	}
	if len(preds) == 0 {
		return "", 0, fmt.Errorf("classifier returned no predictions")
	}

	top := preds[0]
	for _, p := range preds[1:] {
		if p.Score > top.Score {
			top = p
		}
	}
	return mapLabel(top.Label), top.Score, nil
}

func mapLabel(raw string) string {
	l := strings.ToLower(raw)
	for _, marker := range []string{"artificial", "fake", "generated", "ai"} {
		if strings.Contains(l, marker) {
			return LabelArtificial
		}
	}
	return LabelHuman
}
