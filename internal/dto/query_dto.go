package dto

type QueryRequest struct {
	Query     string `json:"query" validate:"required,min=1,max=2000"`
	ImageRef  string `json:"image_ref,omitempty" validate:"omitempty,max=500"`
	EpisodeID string `json:"episode_id,omitempty" validate:"omitempty,uuid4"`
}

type TraceStepDTO struct {
	Step    string         `json:"step"`
	Details string         `json:"details"`
	Data    map[string]any `json:"data,omitempty"`
}

type EvidenceSummaryDTO struct {
	ImageMatches int  `json:"image_matches"`
	TextChunks   int  `json:"text_chunks"`
	WebSnippets  int  `json:"web_snippets"`
	Wiki         bool `json:"wiki"`
	Geo          bool `json:"geo"`
}

type QueryResponse struct {
	Answer        string             `json:"answer"`
	EpisodeID     string             `json:"episode_id"`
	Category      string             `json:"category"`
	QualityScore  float64            `json:"quality_score"`
	Sources       []string           `json:"sources"`
	Evidence      EvidenceSummaryDTO `json:"evidence"`
	ThinkingTrace []TraceStepDTO     `json:"thinking_trace,omitempty"`
	Degraded      bool               `json:"degraded"`
	DegradedNote  string             `json:"degraded_note,omitempty"`
}

type FeedbackRequest struct {
	Query    string `json:"query" validate:"required,max=2000"`
	Response string `json:"response" validate:"required"`
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Feedback string `json:"feedback,omitempty" validate:"omitempty,max=2000"`
}
