package volcano

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/profilesketch/sketcher/internal/models"
	"github.com/profilesketch/sketcher/internal/providers"
)

// Volcano posts the batch to a Volcengine Doubao style endpoint
type Volcano struct {
	URL        string
	HTTPClient *http.Client
}

// New returns a new Volcano provider for the given endpoint
func New(url string) *Volcano {
	return &Volcano{
		URL:        url,
		HTTPClient: &http.Client{},
	}
}

// Analyze sends all images in one request and decodes the report
func (v *Volcano) Analyze(ctx context.Context, req providers.Request, apiKey string) (*models.AnalysisResult, error) {
	prompt := req.Prompt
	if prompt == "" {
		prompt = providers.DefaultPrompt
	}

	requestBody, err := json.Marshal(map[string]interface{}{
		"images": req.Images,
		"prompt": prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", v.URL, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := v.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, providers.ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &providers.APIError{Provider: "volcano", StatusCode: resp.StatusCode, Body: string(body)}
	}

	return providers.ParseReport(body)
}
