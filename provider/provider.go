// Package provider contains the external result provider client. The core
// treats every provider failure as "not yet resolvable", never as a verdict.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"bookie/models"
)

// ResultProvider fetches the current state of a fixture from the upstream
// results source.
type ResultProvider interface {
	FetchFixture(ctx context.Context, fixtureID int64) (*models.FixtureResult, error)
}

// HTTPProvider talks to the upstream results API over HTTP with a bounded
// per-request timeout.
type HTTPProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPProvider creates a provider client. timeout bounds each fetch; a
// timed-out fetch is reported as an error and the wager stays unresolved.
func NewHTTPProvider(baseURL, apiKey string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchFixture retrieves a fixture's status, score and goal events.
func (p *HTTPProvider) FetchFixture(ctx context.Context, fixtureID int64) (*models.FixtureResult, error) {
	url := fmt.Sprintf("%s/fixtures/%d?apiKey=%s", p.baseURL, fixtureID, p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch fixture %d: %w", fixtureID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("fixture %d: %w", fixtureID, models.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fixture %d: provider returned %d", fixtureID, resp.StatusCode)
	}

	var result models.FixtureResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("fixture %d: decode payload: %w", fixtureID, err)
	}
	result.FixtureID = fixtureID

	return &result, nil
}
