package openai

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

const defaultModel = "gpt-4o"

// OpenAI is a provider for OpenAI compatible chat completion endpoints
type OpenAI struct {
	URL        string
	HTTPClient *http.Client
}

// New returns a new OpenAI provider
func New(url string) *OpenAI {
	return &OpenAI{
		URL:        url,
		HTTPClient: &http.Client{},
	}
}

// Analyze sends the prompt and every image as parts of a single user message
func (o *OpenAI) Analyze(ctx context.Context, req providers.Request, apiKey string) (*models.AnalysisResult, error) {
	model := req.Model
	if model == "" {
		model = defaultModel
	}
	prompt := req.Prompt
	if prompt == "" {
		prompt = providers.DefaultPrompt
	}

	content := []map[string]interface{}{
		{
			"type": "text",
			"text": prompt + providers.ReportInstructions,
		},
	}
	for _, img := range req.Images {
		content = append(content, map[string]interface{}{
			"type": "image_url",
			"image_url": map[string]string{
				"url": providers.DataURI(img),
			},
		})
	}

	requestBody, err := json.Marshal(map[string]interface{}{
		"model": model,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": content,
			},
		},
		"max_tokens":      4000,
		"temperature":     0.7,
		"response_format": map[string]string{"type": "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.URL, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := o.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, providers.ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &providers.APIError{Provider: "openai", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response body: %v", providers.ErrMalformedResponse, err)
	}

	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned from OpenAI", providers.ErrMalformedResponse)
	}

	return providers.ParseReportText(response.Choices[0].Message.Content)
}
