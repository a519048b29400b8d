package fortune

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"ai-fortune-report/internal/domain/model"
	"ai-fortune-report/internal/domain/ports/adapter"
)

var _ adapter.FortuneProvider = (*AstroClient)(nil)

// AstroClient talks to the external fortune-telling REST API.
type AstroClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewAstroClient(baseURL, apiKey string, timeout time.Duration) (*AstroClient, error) {
	if baseURL == "" {
		return nil, errors.New("fortune base url empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid fortune base url: %w", err)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &AstroClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// Divine posts the birth data and returns the structured reading.
func (a *AstroClient) Divine(ctx context.Context, profile model.Profile) (*adapter.Reading, error) {
	payload := map[string]any{
		"year":   profile.BirthYear,
		"month":  profile.BirthMonth,
		"day":    profile.BirthDay,
		"hour":   profile.BirthHour,
		"gender": string(profile.Gender),
	}
	b, _ := json.Marshal(payload)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/divination", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fortune http %d", resp.StatusCode)
	}

	var out struct {
		Data   adapter.Reading `json:"data"`
		Errors any             `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.Data.Summary == "" {
		return nil, errors.New("fortune: empty reading")
	}
	return &out.Data, nil
}
