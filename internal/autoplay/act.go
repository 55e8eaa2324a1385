package autoplay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Actor executes decisions via the player API.
type Actor struct {
	BaseURL    string
	AdminKey   string
	HTTPClient *http.Client
}

// NewActor creates an Actor targeting the given API base URL with admin auth.
func NewActor(baseURL, adminKey string) *Actor {
	return &Actor{
		BaseURL:  baseURL,
		AdminKey: adminKey,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Act sends the decision to the matching POST endpoint and returns the raw
// JSON response.
func (a *Actor) Act(d Decision) (json.RawMessage, error) {
	var body any
	switch d.Action {
	case ActionBuy:
		body = map[string]any{"item": d.Item, "amount": 1}
	case ActionPerk:
		body = map[string]any{"item": d.Item}
	case ActionClick, ActionClickPerk:
	default:
		return nil, fmt.Errorf("unknown action %q", d.Action)
	}
	return a.post("/api/v1/"+d.Action, body)
}

// Save asks the server to persist the game.
func (a *Actor) Save() (json.RawMessage, error) {
	return a.post("/api/v1/save", nil)
}

func (a *Actor) post(path string, payload any) (json.RawMessage, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(http.MethodPost, a.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.AdminKey)

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("POST %s failed (%d): %s", path, resp.StatusCode, string(respBody))
	}
	return json.RawMessage(respBody), nil
}
