package state

import (
	"sat-sight-be/pkg/store"
)

// SourceTag identifies one retrieval modality.
type SourceTag string

const (
	SourceVision SourceTag = "vision"
	SourceText   SourceTag = "text"
	SourceWeb    SourceTag = "web"
	SourceWiki   SourceTag = "wiki"
	SourceGeo    SourceTag = "geo"
)

// NodeTag identifies one step of the orchestration graph.
type NodeTag string

const (
	NodePlanner   NodeTag = "planner"
	NodeVision    NodeTag = "vision"
	NodeText      NodeTag = "text_retrieval"
	NodeWeb       NodeTag = "web_search"
	NodeWiki      NodeTag = "wikipedia"
	NodeGeo       NodeTag = "geo"
	NodeMemory    NodeTag = "memory"
	NodeReasoning NodeTag = "reasoning"
	NodeCritic    NodeTag = "critic"
	NodeGuardrail NodeTag = "guardrail"
	NodeEnd       NodeTag = "end"
)

// Query categories assigned by the planner.
const (
	CategoryImageSearch        = "image_search"
	CategoryWebSearch          = "web_search"
	CategoryLocationQuery      = "location_query"
	CategoryImageAnalysis      = "image_analysis"
	CategoryContextualAnalysis = "contextual_analysis"
	CategoryGeneralKnowledge   = "general_knowledge"
)

// MaxRevisions caps how many times the critic may send the answer back
// to the synthesizer within one execution.
const MaxRevisions = 1

// Evidence is the modality-keyed bundle of retrieved items.
type Evidence struct {
	ImageMatches []store.ImageMatch
	TextChunks   []store.TextChunk
	WebSnippets  []store.WebSnippet
	Wiki         *store.WikiSummary
	Geo          *store.GeoResult
}

// TraceStep is one entry of the thinking trace shown to the user.
type TraceStep struct {
	Step    string         `json:"step"`
	Details string         `json:"details"`
	Data    map[string]any `json:"data,omitempty"`
}

// QueryContext is the single record threaded through the graph. It is
// created fresh per request and owned by that request alone.
type QueryContext struct {
	Query    string
	ImageRef string
	UserID   string

	// EpisodeID is minted by the planner when the caller did not supply one
	// and never changes afterwards.
	EpisodeID string

	Category string

	// RequiredSources is set once by the planner and never mutated after.
	RequiredSources []SourceTag

	// CompletedSources is append-only; a tag appears at most once and only
	// when it is a member of RequiredSources.
	CompletedSources []SourceTag

	Evidence Evidence

	Conversation   []store.Turn
	MemoryContext  string
	EpisodicRecall []store.EpisodeExcerpt

	Answer        string
	ThinkingTrace []TraceStep

	QualityScore   float64
	CriticFeedback string
	NeedsRevision  bool
	RevisionCount  int

	ErrorFlag    bool
	ErrorMessage string

	CurrentNode NodeTag
	NextNode    NodeTag

	// MemoryDone records that the memory pass has run; memory is inserted
	// exactly once, immediately before reasoning.
	MemoryDone bool

	// GuardrailDone records that the safety gate has already filtered the
	// answer; the executor runs it exactly once on the way out.
	GuardrailDone bool
}

// New creates the per-request context positioned at the planner.
func New(query, imageRef, userID string) *QueryContext {
	return &QueryContext{
		Query:       query,
		ImageRef:    imageRef,
		UserID:      userID,
		CurrentNode: NodePlanner,
		NextNode:    NodePlanner,
	}
}

// HasImage reports whether the request carried an image reference.
func (qc *QueryContext) HasImage() bool {
	return qc.ImageRef != ""
}

// IsRequired reports whether the planner marked tag as a required source.
func (qc *QueryContext) IsRequired(tag SourceTag) bool {
	for _, t := range qc.RequiredSources {
		if t == tag {
			return true
		}
	}
	return false
}

// IsCompleted reports whether tag already contributed evidence.
func (qc *QueryContext) IsCompleted(tag SourceTag) bool {
	for _, t := range qc.CompletedSources {
		if t == tag {
			return true
		}
	}
	return false
}

// MarkCompleted appends tag to CompletedSources. Opportunistic runs of
// sources that were never required are not tracked, and a tag is never
// appended twice.
func (qc *QueryContext) MarkCompleted(tag SourceTag) {
	if !qc.IsRequired(tag) || qc.IsCompleted(tag) {
		return
	}
	qc.CompletedSources = append(qc.CompletedSources, tag)
}

// RemainingSources returns the required sources not yet completed, in the
// planner's original priority order.
func (qc *QueryContext) RemainingSources() []SourceTag {
	var remaining []SourceTag
	for _, t := range qc.RequiredSources {
		if !qc.IsCompleted(t) {
			remaining = append(remaining, t)
		}
	}
	return remaining
}

// SetError records a failure. The flag is sticky: the first message wins
// and no later node clears it within the same execution.
func (qc *QueryContext) SetError(message string) {
	if qc.ErrorFlag {
		return
	}
	qc.ErrorFlag = true
	qc.ErrorMessage = message
}

// AddTurn appends one exchange to the in-state conversation record.
func (qc *QueryContext) AddTurn(role, content string) {
	qc.Conversation = append(qc.Conversation, store.Turn{Role: role, Content: content})
}

// AddTrace appends one thinking-trace entry.
func (qc *QueryContext) AddTrace(step, details string, data map[string]any) {
	qc.ThinkingTrace = append(qc.ThinkingTrace, TraceStep{Step: step, Details: details, Data: data})
}
