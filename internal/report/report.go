package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/profilesketch/sketcher/internal/models"
)

// SectionKind says how a section's items are displayed
type SectionKind string

const (
	KindTags SectionKind = "tags"
	KindList SectionKind = "list"
)

// Section is one display grouping of the report
type Section struct {
	Key         string      `json:"key" yaml:"key"`
	Title       string      `json:"title" yaml:"title"`
	Kind        SectionKind `json:"kind" yaml:"kind"`
	Items       []string    `json:"items" yaml:"items"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
}

// Report is the presentable form of an AnalysisResult
type Report struct {
	Sections []Section `json:"sections" yaml:"sections"`
}

// Present maps a result into its five sections, in display order. Item order
// is preserved; missing fields and a nil result produce empty sections.
func Present(result *models.AnalysisResult) Report {
	if result == nil {
		result = &models.AnalysisResult{}
	}
	return Report{
		Sections: []Section{
			{Key: "personality", Title: "性格特质", Kind: KindTags, Items: items(result.Personality.Tags), Description: result.Personality.Description},
			{Key: "interests", Title: "兴趣爱好", Kind: KindTags, Items: items(result.Interests)},
			{Key: "pursuitSuggestions", Title: "追求建议", Kind: KindList, Items: items(result.PursuitSuggestions)},
			{Key: "chatTopics", Title: "聊天话题", Kind: KindList, Items: items(result.ChatTopics)},
			{Key: "dateSuggestions", Title: "约会建议", Kind: KindList, Items: items(result.DateSuggestions)},
		},
	}
}

func items(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// Section returns the section with the given key
func (r Report) Section(key string) (Section, bool) {
	for _, s := range r.Sections {
		if s.Key == key {
			return s, true
		}
	}
	return Section{}, false
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	tagStyle   = lipgloss.NewStyle().Padding(0, 1).Background(lipgloss.Color("57")).Foreground(lipgloss.Color("230"))
	descStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245"))
)

// RenderText formats the report for a terminal
func RenderText(r Report) string {
	var b strings.Builder
	for i, s := range r.Sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(titleStyle.Render(s.Title))
		b.WriteString("\n")

		switch s.Kind {
		case KindTags:
			tags := make([]string, len(s.Items))
			for j, item := range s.Items {
				tags[j] = tagStyle.Render(item)
			}
			b.WriteString(strings.Join(tags, " "))
			b.WriteString("\n")
		default:
			for j, item := range s.Items {
				fmt.Fprintf(&b, "%d. %s\n", j+1, item)
			}
		}
		if s.Description != "" {
			b.WriteString(descStyle.Render(s.Description))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// WriteYAML encodes the report as YAML
func WriteYAML(w io.Writer, r Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}
