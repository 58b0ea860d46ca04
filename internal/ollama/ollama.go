package ollama

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

const defaultModel = "mistral-small3.2:24b"

// Ollama is a provider for a local Ollama server with a vision model
type Ollama struct {
	URL        string
	HTTPClient *http.Client
}

// New returns a new Ollama provider talking to baseURL
func New(baseURL string) *Ollama {
	return &Ollama{
		URL:        baseURL,
		HTTPClient: &http.Client{},
	}
}

// Analyze runs the prompt against every image with JSON output forced.
// Ollama needs no credential; apiKey is ignored.
func (o *Ollama) Analyze(ctx context.Context, req providers.Request, apiKey string) (*models.AnalysisResult, error) {
	model := req.Model
	if model == "" {
		model = defaultModel
	}
	prompt := req.Prompt
	if prompt == "" {
		prompt = providers.DefaultPrompt
	}

	requestBody, err := json.Marshal(map[string]interface{}{
		"model":  model,
		"prompt": prompt + providers.ReportInstructions,
		"images": req.Images,
		"stream": false,
		"format": "json",
		"options": map[string]interface{}{
			"temperature": 0.7,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.URL+"/api/generate", bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &providers.APIError{Provider: "ollama", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response body: %v", providers.ErrMalformedResponse, err)
	}

	return providers.ParseReportText(response.Response)
}
