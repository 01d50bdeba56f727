package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"pongo_server/models"
)

// Tunables are the constants the reconciliation layer runs on. Gameplay
// values come from GET /game/config; the render constants are client-side.
type Tunables struct {
	TickRate     int
	PaddleSpeed  float64
	PaddleHeight float64

	BufferSize       int
	RenderDelayMs    float64
	BaselineFreshMs  float64
	PaddleEaseMs     float64
	BallEaseMs       float64
	BallJumpFraction float64
}

func DefaultTunables() Tunables {
	return TunablesFromConfig(models.DefaultGameConfig())
}

// TunablesFromConfig takes gameplay constants from a server config. Missing
// or non-positive fields keep the built-in defaults.
func TunablesFromConfig(cfg models.GameConfig) Tunables {
	t := Tunables{
		TickRate:         models.TickRate,
		PaddleSpeed:      models.PaddleSpeed,
		PaddleHeight:     models.PaddleHeight,
		BufferSize:       60,
		RenderDelayMs:    100,
		BaselineFreshMs:  250,
		PaddleEaseMs:     90,
		BallEaseMs:       45,
		BallJumpFraction: 0.18,
	}
	if cfg.TickRate > 0 {
		t.TickRate = cfg.TickRate
	}
	if cfg.PaddleSpeed > 0 {
		t.PaddleSpeed = cfg.PaddleSpeed
	}
	if cfg.PaddleHeight > 0 {
		t.PaddleHeight = cfg.PaddleHeight
	}
	return t
}

// DT is the server's fixed tick in seconds.
func (t Tunables) DT() float64 {
	return 1 / float64(t.TickRate)
}

func (t Tunables) HalfExtent() float64 {
	return t.PaddleHeight / 2
}

// FetchTunables loads /game/config from baseURL.
func FetchTunables(ctx context.Context, hc *http.Client, baseURL string) (Tunables, error) {
	if hc == nil {
		hc = http.DefaultClient
	}
	url := strings.TrimRight(baseURL, "/") + "/game/config"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return DefaultTunables(), fmt.Errorf("failed to build config request: %w", err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return DefaultTunables(), fmt.Errorf("failed to fetch game config: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return DefaultTunables(), fmt.Errorf("game config returned status %d", resp.StatusCode)
	}
	var cfg models.GameConfig
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return DefaultTunables(), fmt.Errorf("failed to decode game config: %w", err)
	}
	return TunablesFromConfig(cfg), nil
}
