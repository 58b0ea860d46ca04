package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/profilesketch/sketcher/internal/config"
	"github.com/profilesketch/sketcher/internal/gemini"
	"github.com/profilesketch/sketcher/internal/models"
	"github.com/profilesketch/sketcher/internal/ollama"
	"github.com/profilesketch/sketcher/internal/openai"
	"github.com/profilesketch/sketcher/internal/providers"
	"github.com/profilesketch/sketcher/internal/volcano"
)

// ErrUnsupportedProvider is returned for unknown provider names
var ErrUnsupportedProvider = errors.New("unsupported provider")

const defaultTimeout = 2 * time.Minute

// Service runs one analysis call against the configured provider
type Service struct {
	provider providers.Provider
	name     string
	model    string
	timeout  time.Duration
}

// NewProvider returns the provider registered under name
func NewProvider(name string, cfg config.Config) (providers.Provider, error) {
	switch name {
	case "volcano", "":
		return volcano.New(cfg.VolcanoURL), nil
	case "openai":
		return openai.New(cfg.OpenAIURL), nil
	case "ollama":
		return ollama.New(cfg.OllamaURL), nil
	case "gemini":
		return gemini.New(), nil
	case "stub":
		return providers.Stub{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, name)
	}
}

// NewService builds a service from configuration
func NewService(cfg config.Config) (*Service, error) {
	p, err := NewProvider(cfg.Provider, cfg)
	if err != nil {
		return nil, err
	}
	return &Service{
		provider: p,
		name:     cfg.Provider,
		model:    cfg.Model,
		timeout:  cfg.AnalysisTimeout,
	}, nil
}

// NewServiceWithProvider wraps an existing provider, mostly for tests
func NewServiceWithProvider(p providers.Provider, timeout time.Duration) *Service {
	return &Service{provider: p, name: "custom", timeout: timeout}
}

// Analyze sends the images with the given credential. The dummy key is
// answered with the sample report. The call is bounded by the service timeout.
func (s *Service) Analyze(ctx context.Context, images []string, prompt, apiKey string) (*models.AnalysisResult, error) {
	if prompt == "" {
		prompt = providers.DefaultPrompt
	}

	p := s.provider
	if apiKey == providers.DummyAPIKey {
		p = providers.Stub{}
	}

	timeout := s.timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	result, err := p.Analyze(ctx, providers.Request{Images: images, Prompt: prompt, Model: s.model}, apiKey)
	if err != nil {
		slog.Error("Analysis failed", "provider", s.name, "images", len(images), "elapsed", time.Since(start), "err", err)
		return nil, err
	}

	slog.Info("Analysis completed", "provider", s.name, "model", s.model, "images", len(images), "elapsed", time.Since(start))
	return result, nil
}
