// Package musicbrainz provides a MusicBrainz implementation of the
// MusicSearch interface.
package musicbrainz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/spanlab/span-core/internal/domain/entities"
	"github.com/spanlab/span-core/internal/domain/ports"
	"github.com/spanlab/span-core/internal/infrastructure/config"
)

// minRequestInterval is the spacing MusicBrainz requires between calls
// from one client.
const minRequestInterval = time.Second

// Client implements ports.MusicSearch against the MusicBrainz web service.
// All outbound calls share one pacing gate, so concurrent searches are
// serialized at least a second apart.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client

	mu       sync.Mutex
	lastCall time.Time

	// Overridable in tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a new MusicBrainz client.
func NewClient(cfg config.MusicBrainzConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("musicbrainz base URL is required")
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("musicbrainz user agent is required")
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
		sleep:      sleepContext,
	}, nil
}

// searchResponse mirrors the artist search payload.
type searchResponse struct {
	Artists []struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		Type           string `json:"type"`
		Country        string `json:"country"`
		Disambiguation string `json:"disambiguation"`
		Score          int    `json:"score"`
	} `json:"artists"`
}

// Search queries the artist index and returns matches, best first.
// A rate-limited response is retried exactly once; any other upstream
// failure is fatal for this call.
func (c *Client) Search(ctx context.Context, query string) ([]ports.MusicMatch, error) {
	matches, err := c.doSearch(ctx, query)
	if err == nil {
		return matches, nil
	}
	if !isRateLimited(err) {
		return nil, err
	}

	// One retry, still behind the pacing gate.
	matches, err = c.doSearch(ctx, query)
	if err != nil {
		return nil, err
	}
	return matches, nil
}

func (c *Client) doSearch(ctx context.Context, query string) ([]ports.MusicMatch, error) {
	if err := c.waitTurn(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("fmt", "json")
	requestURL := fmt.Sprintf("%s/artist?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling musicbrainz: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return nil, fmt.Errorf("musicbrainz throttled the request: %w", entities.ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("musicbrainz returned status %d: %w", resp.StatusCode, entities.ErrUpstreamUnavailable)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding musicbrainz response: %w", err)
	}

	matches := make([]ports.MusicMatch, 0, len(payload.Artists))
	for _, a := range payload.Artists {
		matches = append(matches, ports.MusicMatch{
			ID:             a.ID,
			Name:           a.Name,
			Type:           a.Type,
			Country:        a.Country,
			Disambiguation: a.Disambiguation,
			Score:          a.Score,
		})
	}
	return matches, nil
}

// waitTurn blocks until at least minRequestInterval has passed since the
// previous outbound call.
func (c *Client) waitTurn(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lastCall.IsZero() {
		if wait := minRequestInterval - c.now().Sub(c.lastCall); wait > 0 {
			if err := c.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	c.lastCall = c.now()
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isRateLimited(err error) bool {
	return errors.Is(err, entities.ErrRateLimited)
}
