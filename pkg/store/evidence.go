package store

// ImageMatch is one ranked hit from the satellite image index.
type ImageMatch struct {
	ID          string   `json:"id"`
	Class       string   `json:"class"`
	Description string   `json:"description"`
	Region      string   `json:"region"`
	Tags        []string `json:"tags"`
	Distance    float64  `json:"distance"` // lower is closer
}

// Similarity converts the index distance into a percentage for display.
func (m ImageMatch) Similarity() float64 {
	return (1 - m.Distance) * 100
}

// TextChunk is one ranked passage from the document knowledge base.
type TextChunk struct {
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Score   float64 `json:"score"`
}

// WebSnippet is one result from a live web search.
type WebSnippet struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// WikiSummary is an encyclopedia extract plus its source title.
type WikiSummary struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

// GeoImageMatch is a catalog image matched by location rather than similarity.
type GeoImageMatch struct {
	Filename string  `json:"filename"`
	Class    string  `json:"class"`
	Region   string  `json:"region"`
	Country  string  `json:"country"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

const (
	GeoResultPoint    = "point"
	GeoResultLocation = "location_search"
)

// GeoResult is the outcome of a location lookup: either an extracted
// coordinate pair or a set of catalog matches for named locations.
type GeoResult struct {
	Type      string          `json:"type"` // GeoResultPoint | GeoResultLocation
	Latitude  float64         `json:"latitude,omitempty"`
	Longitude float64         `json:"longitude,omitempty"`
	Locations []string        `json:"locations,omitempty"`
	LandClass string          `json:"land_class,omitempty"`
	Matches   []GeoImageMatch `json:"matches,omitempty"`
}

// Turn is a single conversation exchange entry.
type Turn struct {
	Role    string `json:"role"` // "user" | "assistant"
	Content string `json:"content"`
}

// EpisodeExcerpt is a condensed past interaction surfaced by episodic recall.
type EpisodeExcerpt struct {
	Query    string `json:"query"`
	Response string `json:"response"`
}
