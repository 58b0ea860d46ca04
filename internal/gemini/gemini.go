package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/profilesketch/sketcher/internal/models"
	"github.com/profilesketch/sketcher/internal/providers"
)

const defaultModel = "gemini-1.5-flash"

// Gemini is a provider for Google Gemini
type Gemini struct{}

// New returns a new Gemini provider
func New() *Gemini {
	return &Gemini{}
}

// Analyze sends the images as inline blobs followed by the prompt.
// GEMINI_API_KEY is used when no credential is supplied.
func (g *Gemini) Analyze(ctx context.Context, req providers.Request, apiKey string) (*models.AnalysisResult, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, providers.ErrUnauthorized
	}

	parts, err := buildParts(req)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	modelName := req.Model
	if modelName == "" {
		modelName = defaultModel
	}
	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates returned from Gemini", providers.ErrMalformedResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty content returned from Gemini", providers.ErrMalformedResponse)
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}

	return providers.ParseReportText(text.String())
}

func buildParts(req providers.Request) ([]genai.Part, error) {
	prompt := req.Prompt
	if prompt == "" {
		prompt = providers.DefaultPrompt
	}

	parts := make([]genai.Part, 0, len(req.Images)+1)
	for i, img := range req.Images {
		data, err := base64.StdEncoding.DecodeString(img)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image %d: %w", i, err)
		}
		format := strings.TrimPrefix(providers.MIMEType(img), "image/")
		parts = append(parts, genai.ImageData(format, data))
	}
	parts = append(parts, genai.Text(prompt+providers.ReportInstructions))
	return parts, nil
}
