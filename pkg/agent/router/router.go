// Package router holds the shared completion rule that every source
// adapter consults after it finishes, plus the static edge table the
// executor uses to reject impossible transitions up front.
package router

import (
	"fmt"

	"sat-sight-be/pkg/agent/state"
)

// sourceNodes maps a source tag to the node that services it.
var sourceNodes = map[state.SourceTag]state.NodeTag{
	state.SourceVision: state.NodeVision,
	state.SourceText:   state.NodeText,
	state.SourceWeb:    state.NodeWeb,
	state.SourceWiki:   state.NodeWiki,
	state.SourceGeo:    state.NodeGeo,
}

// NodeForSource resolves the graph node servicing a source tag.
func NodeForSource(tag state.SourceTag) state.NodeTag {
	if node, ok := sourceNodes[tag]; ok {
		return node
	}
	return state.NodeEnd
}

// Router owns the legal-successor table for the graph.
type Router struct {
	table map[state.NodeTag][]state.NodeTag
}

// New builds the router and validates the edge table: every successor must
// itself be a declared node, so a typo is a construction-time error rather
// than a silent dead end at run time.
func New() (*Router, error) {
	sources := []state.NodeTag{state.NodeVision, state.NodeText, state.NodeWeb, state.NodeWiki, state.NodeGeo}

	table := map[state.NodeTag][]state.NodeTag{
		state.NodePlanner:   append([]state.NodeTag{state.NodeMemory, state.NodeReasoning, state.NodeEnd}, sources...),
		state.NodeVision:    {state.NodeText, state.NodeWeb, state.NodeWiki, state.NodeMemory, state.NodeReasoning, state.NodeEnd},
		state.NodeText:      {state.NodeVision, state.NodeWeb, state.NodeWiki, state.NodeMemory, state.NodeReasoning, state.NodeEnd},
		state.NodeWeb:       {state.NodeVision, state.NodeText, state.NodeWiki, state.NodeMemory, state.NodeReasoning, state.NodeEnd},
		state.NodeWiki:      {state.NodeVision, state.NodeText, state.NodeWeb, state.NodeMemory, state.NodeReasoning, state.NodeEnd},
		state.NodeGeo:       {state.NodeMemory, state.NodeReasoning, state.NodeEnd},
		state.NodeMemory:    {state.NodeReasoning},
		state.NodeReasoning: {state.NodeCritic, state.NodeEnd},
		state.NodeCritic:    {state.NodeReasoning, state.NodeEnd},
		state.NodeGuardrail: {state.NodeEnd},
	}

	known := map[state.NodeTag]bool{state.NodeEnd: true, state.NodeGuardrail: true}
	for node := range table {
		known[node] = true
	}
	for node, successors := range table {
		for _, succ := range successors {
			if !known[succ] {
				return nil, fmt.Errorf("router: node %q lists unknown successor %q", node, succ)
			}
		}
	}

	return &Router{table: table}, nil
}

// Allowed reports whether the edge from -> to exists in the graph.
func (r *Router) Allowed(from, to state.NodeTag) bool {
	if to == state.NodeEnd {
		return true
	}
	for _, succ := range r.table[from] {
		if succ == to {
			return true
		}
	}
	return false
}

// Next applies the shared completion rule:
//
//  1. a sticky error skips all remaining retrieval;
//  2. the first unmet required source, in the planner's priority order,
//     gets the next hop;
//  3. the memory pass runs exactly once, immediately before reasoning;
//  4. everything else falls through to reasoning.
//
// A tag already in CompletedSources is never revisited, so the
// multi-source loop is acyclic and terminates in |RequiredSources|+2 hops.
func (r *Router) Next(qc *state.QueryContext) state.NodeTag {
	if !qc.ErrorFlag && len(qc.RequiredSources) > 0 {
		if remaining := qc.RemainingSources(); len(remaining) > 0 {
			return NodeForSource(remaining[0])
		}
	}
	if !qc.MemoryDone {
		return state.NodeMemory
	}
	return state.NodeReasoning
}
