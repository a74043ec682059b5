// Package scorehttp talks to the sidecar model server that holds the
// audio-visual classifier weights. The network itself is opaque here:
// tensors in, one class index out.
package scorehttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avml/lipread/internal/ports"
)

type Adapter struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string) *Adapter {
	baseURL = strings.TrimRight(baseURL, "/")
	return &Adapter{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type scoreRequest struct {
	Video ports.VideoTensor `json:"video"`
	Audio ports.AudioTensor `json:"audio"`
}

type scoreResponse struct {
	ClassIndex int `json:"class_index"`
}

func (a *Adapter) Score(ctx context.Context, video ports.VideoTensor, audio ports.AudioTensor) (int, error) {
	body, err := json.Marshal(scoreRequest{Video: video, Audio: audio})
	if err != nil {
		return 0, fmt.Errorf("marshal score request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/score", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("score request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return 0, fmt.Errorf("score request: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var sr scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return 0, fmt.Errorf("decode score response: %w", err)
	}
	return sr.ClassIndex, nil
}

// Ping verifies the model server is up and its weights are loaded.
// Called once at startup; a failure must prevent serving.
func (a *Adapter) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("scorer unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("scorer unhealthy: status %d", resp.StatusCode)
	}
	return nil
}
