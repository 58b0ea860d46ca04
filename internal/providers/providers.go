package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/profilesketch/sketcher/internal/models"
)

// DefaultPrompt is the instruction sent alongside the images
const DefaultPrompt = "分析这些朋友圈图片，推测用户的性格特点、兴趣爱好，并提供社交互动建议"

// DummyAPIKey selects the canned sample report instead of a real provider call
const DummyAPIKey = "DUMMY_API_KEY"

var (
	ErrUnauthorized      = errors.New("provider rejected the credential")
	ErrMalformedResponse = errors.New("provider returned a malformed response")
)

// APIError is a non-success HTTP status from a provider
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Request is one analysis call: base64 image payloads in batch order plus the prompt
type Request struct {
	Images []string
	Prompt string
	Model  string
}

// Provider is a vision backend able to turn images into a profile report
type Provider interface {
	Analyze(ctx context.Context, req Request, apiKey string) (*models.AnalysisResult, error)
}

// Stub returns the sample report without any network traffic
type Stub struct{}

func (Stub) Analyze(ctx context.Context, req Request, apiKey string) (*models.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return models.SampleResult(), nil
}
