package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort           = "8001"
	defaultDatabasePath   = "sketcher.db"
	defaultStaticDir      = "static"
	defaultProvider       = "volcano"
	defaultVolcanoURL     = "https://api.volcengine.com/doubao/v1.6/thinking"
	defaultOpenAIURL      = "https://api.openai.com/v1/chat/completions"
	defaultOllamaURL      = "http://localhost:11434"
	defaultTimeoutSeconds = 120
	defaultPreviewMaxSize = 320
	defaultAllowedOrigins = "*"
)

type Config struct {
	Port         string
	DatabasePath string
	StaticDir    string

	// analysis provider settings
	Provider        string
	Model           string
	VolcanoURL      string
	VolcanoAPIKey   string // server-side fallback when a request carries no key
	OpenAIURL       string
	OllamaURL       string
	AnalysisTimeout time.Duration

	// longest edge of generated preview thumbnails, in pixels
	PreviewMaxSize int

	AllowedOrigins []string
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		slog.Warn("Invalid integer setting, using default", "env", envVar, "value", valStr, "default", defaultVal, "err", err)
		return defaultVal
	}
	return val
}

// Load reads configuration from the environment. Call godotenv before this
// if a .env file should be honoured.
func Load() Config {
	ollamaURL := os.Getenv("OLLAMA_URL")
	if ollamaURL == "" {
		ollamaURL = getEnvOrDefault("OLLAMA_HOST", defaultOllamaURL)
	}

	var origins []string
	for _, o := range strings.Split(getEnvOrDefault("ALLOWED_ORIGINS", defaultAllowedOrigins), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return Config{
		Port:            getEnvOrDefault("SKETCHER_PORT", getEnvOrDefault("PORT", defaultPort)),
		DatabasePath:    getEnvOrDefault("SKETCHER_DATABASE_PATH", defaultDatabasePath),
		StaticDir:       getEnvOrDefault("SKETCHER_STATIC_DIR", defaultStaticDir),
		Provider:        strings.ToLower(getEnvOrDefault("ANALYSIS_PROVIDER", defaultProvider)),
		Model:           os.Getenv("ANALYSIS_MODEL"),
		VolcanoURL:      getEnvOrDefault("VOLCANO_API_URL", defaultVolcanoURL),
		VolcanoAPIKey:   os.Getenv("VOLCANO_API_KEY"),
		OpenAIURL:       getEnvOrDefault("OPENAI_API_URL", defaultOpenAIURL),
		OllamaURL:       ollamaURL,
		AnalysisTimeout: time.Duration(getEnvIntOrDefault("ANALYSIS_TIMEOUT_SECONDS", defaultTimeoutSeconds)) * time.Second,
		PreviewMaxSize:  getEnvIntOrDefault("PREVIEW_MAX_SIZE", defaultPreviewMaxSize),
		AllowedOrigins:  origins,
	}
}
