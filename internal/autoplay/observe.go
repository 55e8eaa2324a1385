// Package autoplay implements an unattended player for the HTTP API.
// It observes the store, decides on the best-value purchase, and acts via the
// player endpoints.
package autoplay

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Snapshot holds the data collected during one observation.
type Snapshot struct {
	Status Status `json:"status"`
	Items  []Item `json:"items"`
}

// Status mirrors the status block of GET /api/v1/store.
type Status struct {
	Balance        float64 `json:"balance"`
	ClickPower     float64 `json:"click_power"`
	ClickPowerCost float64 `json:"click_power_cost"`
	Rate           float64 `json:"rate"`
}

// Item mirrors one entry of GET /api/v1/store.
type Item struct {
	Name      string  `json:"name"`
	Cost      float64 `json:"cost"`
	BaseRate  float64 `json:"base_rate"`
	Count     int     `json:"count"`
	PerkLevel int     `json:"perk_level"`
	PerkCost  float64 `json:"perk_cost"`
	Rate      float64 `json:"rate"`
	TotalRate float64 `json:"total_rate"`
}

// Observer fetches game state from the API.
type Observer struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewObserver creates an Observer targeting the given API base URL.
func NewObserver(baseURL string) *Observer {
	return &Observer{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Observe fetches the store listing, which carries the status too.
func (o *Observer) Observe() (*Snapshot, error) {
	snap := &Snapshot{}
	if err := o.fetchJSON("/api/v1/store", snap); err != nil {
		return nil, fmt.Errorf("fetch store: %w", err)
	}
	return snap, nil
}

// Ready reports whether the status endpoint answers.
func (o *Observer) Ready() bool {
	var st Status
	return o.fetchJSON("/api/v1/status", &st) == nil
}

// fetchJSON GETs a path and decodes the JSON response into target.
func (o *Observer) fetchJSON(path string, target any) error {
	resp, err := o.HTTPClient.Get(o.BaseURL + path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
