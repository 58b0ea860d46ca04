package models

// AnalysisResult is the profile sketch returned by a vision provider
type AnalysisResult struct {
	Personality        Personality `json:"personality" yaml:"personality"`
	Interests          []string    `json:"interests" yaml:"interests"`
	PursuitSuggestions []string    `json:"pursuitSuggestions" yaml:"pursuitSuggestions"`
	ChatTopics         []string    `json:"chatTopics" yaml:"chatTopics"`
	DateSuggestions    []string    `json:"dateSuggestions" yaml:"dateSuggestions"`
}

// Personality holds the trait tags and a free-text summary
type Personality struct {
	Tags        []string `json:"tags" yaml:"tags"`
	Description string   `json:"description" yaml:"description"`
}

// ViewState is the screen a session is currently showing
type ViewState int

const (
	ViewUpload ViewState = iota
	ViewLoading
	ViewResult
)

func (v ViewState) String() string {
	switch v {
	case ViewUpload:
		return "upload"
	case ViewLoading:
		return "loading"
	case ViewResult:
		return "result"
	default:
		return "unknown"
	}
}

// MarshalText lets ViewState appear as a string in JSON payloads
func (v ViewState) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// SampleResult is the canned report served when no real credential is configured
func SampleResult() *AnalysisResult {
	return &AnalysisResult{
		Personality: Personality{
			Tags:        []string{"温柔", "理性", "好学"},
			Description: "善于分享生活，对事物充满好奇，理性思考问题，文字表达能力强。",
		},
		Interests: []string{"旅行", "美食", "科技", "艺术"},
		PursuitSuggestions: []string{
			"分享自己的旅行经历中的小故事",
			"评论美食照片中的亮点和特色",
			"一起探讨科技话题的新进展",
			"关注对方的艺术品味和审美偏好",
		},
		ChatTopics: []string{
			"旅行中的有趣趣事",
			"Pokemon的收藏",
			"AI无人驾驶的看法",
			"皮克斯电影的画面风格",
		},
		DateSuggestions: []string{
			"动漫主题咖啡厅",
			"科技展览参观",
			"艺术画廊或工作室",
			"尝试新开的网红餐厅",
		},
	}
}
