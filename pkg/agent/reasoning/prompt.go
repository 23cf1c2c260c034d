package reasoning

import (
	"fmt"
	"strings"

	"sat-sight-be/pkg/agent/state"
	"sat-sight-be/pkg/store"
)

const (
	maxEvidenceItems = 3
	chunkCharLimit   = 600
	snippetCharLimit = 500
)

// instructionFor picks the answering style from the shape of the question.
func instructionFor(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	switch {
	case strings.Contains(q, "risk"), strings.Contains(q, "danger"), strings.Contains(q, "threat"):
		return "Assess the risks directly. Name each risk, its likelihood, and what drives it, based on the evidence."
	case strings.HasPrefix(q, "why"):
		return "Explain the causes and mechanisms behind the phenomenon the user asks about."
	case strings.HasPrefix(q, "how"):
		return "Walk through the process or method step by step."
	case strings.HasPrefix(q, "what"), strings.HasPrefix(q, "which"):
		return "Define and describe the subject clearly, then add the most relevant details from the evidence."
	default:
		return "Answer the question directly and concisely using the evidence provided."
	}
}

// buildPrompt assembles the synthesis prompt. Sections appear in a fixed
// order so the model sees conversation first and volatile web content last.
func buildPrompt(qc *state.QueryContext) string {
	var b strings.Builder

	b.WriteString("You are a satellite imagery analysis assistant. Answer the user's question using only the context below.\n\n")

	if qc.MemoryContext != "" {
		b.WriteString("## Conversation so far\n")
		b.WriteString(qc.MemoryContext)
		b.WriteString("\n\n")
	}

	if len(qc.EpisodicRecall) > 0 {
		b.WriteString("## Related past interactions\n")
		for _, e := range qc.EpisodicRecall {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", e.Query, e.Response)
		}
		b.WriteString("\n")
	}

	if qc.Evidence.Wiki != nil && qc.Evidence.Wiki.Content != "" {
		b.WriteString("## Background (")
		b.WriteString(qc.Evidence.Wiki.Source)
		b.WriteString(")\n")
		b.WriteString(qc.Evidence.Wiki.Content)
		b.WriteString("\n\n")
	}

	if len(qc.Evidence.ImageMatches) > 0 {
		b.WriteString("## Similar satellite images\n")
		for i, m := range qc.Evidence.ImageMatches {
			if i >= maxEvidenceItems {
				break
			}
			fmt.Fprintf(&b, "%d. class=%s region=%s similarity=%.1f%%", i+1, m.Class, m.Region, m.Similarity())
			if m.Description != "" {
				fmt.Fprintf(&b, " (%s)", m.Description)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if qc.Evidence.Geo != nil {
		writeGeoSection(&b, qc)
	}

	if len(qc.Evidence.TextChunks) > 0 {
		b.WriteString("## Knowledge base passages\n")
		for i, c := range qc.Evidence.TextChunks {
			if i >= maxEvidenceItems {
				break
			}
			fmt.Fprintf(&b, "[%s] %s\n", c.Source, truncate(c.Content, chunkCharLimit))
		}
		b.WriteString("\n")
	}

	if len(qc.Evidence.WebSnippets) > 0 {
		b.WriteString("## Web results\n")
		for i, s := range qc.Evidence.WebSnippets {
			if i >= maxEvidenceItems {
				break
			}
			fmt.Fprintf(&b, "- %s (%s): %s\n", s.Title, s.URL, truncate(s.Content, snippetCharLimit))
		}
		b.WriteString("\n")
	}

	if qc.ErrorFlag {
		b.WriteString("Note: some evidence sources were unavailable for this request. Answer from what is present and say when the context is insufficient.\n\n")
	}

	if qc.CriticFeedback != "" && qc.RevisionCount > 0 {
		b.WriteString("## Reviewer feedback on your previous draft\n")
		b.WriteString(qc.CriticFeedback)
		b.WriteString("\nRevise the answer to address this feedback.\n\n")
	}

	b.WriteString("## Instruction\n")
	b.WriteString(instructionFor(qc.Query))
	b.WriteString("\n\n## Question\n")
	b.WriteString(qc.Query)
	b.WriteString("\n\nAnswer:")

	return b.String()
}

func writeGeoSection(b *strings.Builder, qc *state.QueryContext) {
	geo := qc.Evidence.Geo
	b.WriteString("## Geographic context\n")
	if geo.Type == store.GeoResultPoint {
		fmt.Fprintf(b, "The query references coordinates %.4f, %.4f.\n", geo.Latitude, geo.Longitude)
	}
	if len(geo.Locations) > 0 {
		fmt.Fprintf(b, "Locations: %s\n", strings.Join(geo.Locations, ", "))
	}
	if geo.LandClass != "" {
		fmt.Fprintf(b, "Land class of interest: %s\n", geo.LandClass)
	}
	for i, m := range geo.Matches {
		if i >= maxEvidenceItems {
			break
		}
		fmt.Fprintf(b, "- %s: %s in %s, %s\n", m.Filename, m.Class, m.Region, m.Country)
	}
	b.WriteString("\n")
}

// truncate cuts at a rune boundary so multibyte text is never split
// mid-character.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
