// Package executor drives the orchestration graph: it owns the node
// registry, enforces the legal-transition table, bounds the hop count, and
// finishes every execution with the safety gate and the bookkeeping pass.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"sat-sight-be/internal/pkg/logger"
	"sat-sight-be/pkg/agent/router"
	"sat-sight-be/pkg/agent/state"
	"sat-sight-be/pkg/memstore"
)

// Node is one step of the graph. Run mutates qc in place and sets
// qc.NextNode before returning.
type Node interface {
	Tag() state.NodeTag
	Run(ctx context.Context, qc *state.QueryContext)
}

// maxHops bounds any single execution: five sources, the planner, the
// memory pass, synthesis plus one revision round trip, the review, and
// the safety gate all fit well within it.
const maxHops = 16

// InteractionMessage is the payload published after each execution for
// asynchronous archiving.
type InteractionMessage struct {
	EpisodeID  string   `json:"episode_id"`
	UserID     string   `json:"user_id"`
	Query      string   `json:"query"`
	Response   string   `json:"response"`
	Category   string   `json:"category"`
	NodesUsed  []string `json:"nodes_used"`
	ImageRef   string   `json:"image_ref,omitempty"`
	Confidence float64  `json:"confidence"`
}

// Engine executes queries against the registered graph nodes.
type Engine struct {
	nodes     map[state.NodeTag]Node
	guardrail Node
	router    *router.Router
	shortTerm memstore.ShortTerm
	publisher message.Publisher
	topic     string
	logger    logger.ILogger
	tracer    trace.Tracer
}

// New wires the engine. publisher may be nil when asynchronous archiving
// is disabled; shortTerm may be nil in stateless deployments.
func New(
	nodes []Node,
	guardrail Node,
	r *router.Router,
	shortTerm memstore.ShortTerm,
	publisher message.Publisher,
	topic string,
	log logger.ILogger,
) (*Engine, error) {
	registry := make(map[state.NodeTag]Node, len(nodes))
	for _, n := range nodes {
		if _, dup := registry[n.Tag()]; dup {
			return nil, fmt.Errorf("executor: duplicate node registered for %q", n.Tag())
		}
		registry[n.Tag()] = n
	}
	if _, ok := registry[state.NodePlanner]; !ok {
		return nil, fmt.Errorf("executor: planner node is required")
	}
	if guardrail == nil {
		return nil, fmt.Errorf("executor: guardrail node is required")
	}

	return &Engine{
		nodes:     registry,
		guardrail: guardrail,
		router:    r,
		shortTerm: shortTerm,
		publisher: publisher,
		topic:     topic,
		logger:    log,
		tracer:    otel.Tracer("agent-executor"),
	}, nil
}

// RunQuery executes one natural-language query through the graph and
// returns the final answer plus the full execution record. episodeID may
// be empty; the planner mints one for a fresh conversation.
func (e *Engine) RunQuery(ctx context.Context, query, imageRef, userID, episodeID string) (string, *state.QueryContext, error) {
	started := time.Now()

	qc := state.New(query, imageRef, userID)
	qc.EpisodeID = episodeID

	ctx, span := e.tracer.Start(ctx, "agent.query")
	defer span.End()

	var nodesUsed []string
	prev := state.NodeTag("")

	for hop := 0; hop < maxHops; hop++ {
		if err := ctx.Err(); err != nil {
			return "", qc, fmt.Errorf("query execution cancelled: %w", err)
		}

		current := qc.NextNode

		if current == state.NodeEnd {
			if !qc.GuardrailDone {
				e.runNode(ctx, e.guardrail, qc)
				nodesUsed = append(nodesUsed, string(state.NodeGuardrail))
				prev = state.NodeGuardrail
				continue
			}
			e.finish(ctx, qc, nodesUsed, started)
			return qc.Answer, qc, nil
		}

		node, ok := e.nodes[current]
		if !ok {
			return "", qc, fmt.Errorf("no node registered for %q", current)
		}
		if prev != "" && !e.router.Allowed(prev, current) {
			return "", qc, fmt.Errorf("illegal transition %q -> %q", prev, current)
		}

		e.runNode(ctx, node, qc)
		nodesUsed = append(nodesUsed, string(current))
		prev = current
	}

	return "", qc, fmt.Errorf("query execution exceeded %d hops without terminating", maxHops)
}

func (e *Engine) runNode(ctx context.Context, node Node, qc *state.QueryContext) {
	ctx, span := e.tracer.Start(ctx, "agent.node."+string(node.Tag()))
	defer span.End()

	node.Run(ctx, qc)

	span.SetAttributes(
		attribute.String("agent.next_node", string(qc.NextNode)),
		attribute.Bool("agent.error_flag", qc.ErrorFlag),
	)
}

// finish performs the post-execution bookkeeping: the assistant turn in
// short-term memory and the archiving message. Both are best-effort.
func (e *Engine) finish(ctx context.Context, qc *state.QueryContext, nodesUsed []string, started time.Time) {
	if qc.Answer == "" && qc.ErrorFlag {
		qc.Answer = "I'm sorry, I could not process this request: " + qc.ErrorMessage
	}

	if e.shortTerm != nil && qc.EpisodeID != "" && qc.Answer != "" {
		if err := e.shortTerm.AddTurn(ctx, qc.EpisodeID, "assistant", qc.Answer); err != nil {
			e.logger.Warn("executor", "failed to record assistant turn", map[string]interface{}{"error": err.Error()})
		}
	}

	if e.publisher != nil && qc.EpisodeID != "" {
		payload, err := json.Marshal(InteractionMessage{
			EpisodeID:  qc.EpisodeID,
			UserID:     qc.UserID,
			Query:      qc.Query,
			Response:   qc.Answer,
			Category:   qc.Category,
			NodesUsed:  nodesUsed,
			ImageRef:   qc.ImageRef,
			Confidence: qc.QualityScore,
		})
		if err == nil {
			msg := message.NewMessage(watermill.NewUUID(), payload)
			if err := e.publisher.Publish(e.topic, msg); err != nil {
				e.logger.Warn("executor", "failed to publish interaction message", map[string]interface{}{"error": err.Error()})
			}
		}
	}

	e.logger.Info("executor", "query execution finished", map[string]interface{}{
		"episode_id":  qc.EpisodeID,
		"category":    qc.Category,
		"nodes_used":  nodesUsed,
		"error_flag":  qc.ErrorFlag,
		"duration_ms": time.Since(started).Milliseconds(),
	})
}
