package providers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/profilesketch/sketcher/internal/models"
)

// reportKeys are the top-level fields of a complete report
var reportKeys = []string{"personality", "interests", "pursuitSuggestions", "chatTopics", "dateSuggestions"}

// ReportInstructions is appended to the prompt for chat-style models so the
// reply can be parsed into an AnalysisResult
const ReportInstructions = `

Respond with ONLY a JSON object in the following format:

{
  "personality": {"tags": ["..."], "description": "..."},
  "interests": ["..."],
  "pursuitSuggestions": ["..."],
  "chatTopics": ["..."],
  "dateSuggestions": ["..."]
}

Write every value in the same language as the instructions above.`

// ParseReport decodes a report from a provider body. The body may be the
// report itself, or a chat completion whose first message holds the report
// as text (optionally inside a markdown code block).
func ParseReport(body []byte) (*models.AnalysisResult, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if _, ok := raw["personality"]; ok {
		return decodeReport(body, raw)
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			Text string `json:"text"`
		} `json:"choices"`
	}
	if _, ok := raw["choices"]; ok {
		if err := json.Unmarshal(body, &completion); err == nil && len(completion.Choices) > 0 {
			content := completion.Choices[0].Message.Content
			if content == "" {
				content = completion.Choices[0].Text
			}
			return ParseReportText(content)
		}
	}

	return nil, fmt.Errorf("%w: no report fields in response", ErrMalformedResponse)
}

// ParseReportText extracts a report from model output text
func ParseReportText(text string) (*models.AnalysisResult, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	// tolerate prose around the object
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		text = text[start : end+1]
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("%w: model output is not JSON: %v", ErrMalformedResponse, err)
	}
	if _, ok := raw["personality"]; !ok {
		return nil, fmt.Errorf("%w: model output has no personality field", ErrMalformedResponse)
	}
	return decodeReport([]byte(text), raw)
}

func decodeReport(body []byte, raw map[string]json.RawMessage) (*models.AnalysisResult, error) {
	var result models.AnalysisResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	for _, key := range reportKeys {
		if _, ok := raw[key]; !ok {
			slog.Warn("Report is missing a field, rendering it empty", "field", key)
		}
	}
	return &result, nil
}
