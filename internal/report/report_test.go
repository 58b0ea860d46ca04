package report

import (
	"bytes"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/profilesketch/sketcher/internal/models"
)

func TestPresentKeepsOrder(t *testing.T) {
	r := Present(models.SampleResult())

	wantKeys := []string{"personality", "interests", "pursuitSuggestions", "chatTopics", "dateSuggestions"}
	if len(r.Sections) != len(wantKeys) {
		t.Fatalf("Expected %d sections, got %d", len(wantKeys), len(r.Sections))
	}
	for i, key := range wantKeys {
		if r.Sections[i].Key != key {
			t.Errorf("Section %d: expected %s, got %s", i, key, r.Sections[i].Key)
		}
	}

	personality, _ := r.Section("personality")
	want := []string{"温柔", "理性", "好学"}
	if len(personality.Items) != len(want) {
		t.Fatalf("Expected tags %v, got %v", want, personality.Items)
	}
	for i := range want {
		if personality.Items[i] != want[i] {
			t.Errorf("Tag %d: expected %s, got %s", i, want[i], personality.Items[i])
		}
	}
	if personality.Kind != KindTags || personality.Description == "" {
		t.Errorf("Unexpected personality section: %+v", personality)
	}

	topics, _ := r.Section("chatTopics")
	if topics.Kind != KindList || topics.Items[1] != "Pokemon的收藏" {
		t.Errorf("Unexpected chat topics: %+v", topics)
	}
}

func TestPresentMissingFields(t *testing.T) {
	tests := []struct {
		name   string
		result *models.AnalysisResult
	}{
		{"nil result", nil},
		{"empty result", &models.AnalysisResult{}},
		{"only personality", &models.AnalysisResult{Personality: models.Personality{Tags: []string{"a"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Present(tt.result)
			if len(r.Sections) != 5 {
				t.Fatalf("Expected 5 sections, got %d", len(r.Sections))
			}
			dates, ok := r.Section("dateSuggestions")
			if !ok || dates.Items == nil || len(dates.Items) != 0 {
				t.Errorf("Expected empty non-nil date suggestions, got %#v", dates.Items)
			}
		})
	}

	if _, ok := Present(nil).Section("unknown"); ok {
		t.Error("Expected unknown section lookup to fail")
	}
}

func TestPresentCopiesItems(t *testing.T) {
	result := models.SampleResult()
	r := Present(result)
	result.Interests[0] = "changed"

	interests, _ := r.Section("interests")
	if interests.Items[0] != "旅行" {
		t.Error("Report must not alias the result's slices")
	}
}

func TestRenderText(t *testing.T) {
	text := RenderText(Present(models.SampleResult()))

	for _, want := range []string{"性格特质", "温柔", "1. 分享自己的旅行经历中的小故事", "4. 尝试新开的网红餐厅"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected output to contain %q", want)
		}
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteYAML(&buf, Present(models.SampleResult())); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}

	var decoded Report
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Output is not valid YAML: %v", err)
	}
	if len(decoded.Sections) != 5 || decoded.Sections[0].Items[2] != "好学" {
		t.Errorf("Unexpected decoded report: %+v", decoded)
	}
}
