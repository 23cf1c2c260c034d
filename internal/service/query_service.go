// FILE: internal/service/query_service.go
package service

import (
	"context"
	"fmt"

	"sat-sight-be/internal/dto"
	"sat-sight-be/internal/pkg/logger"
	"sat-sight-be/pkg/agent/executor"
	"sat-sight-be/pkg/agent/state"
	"sat-sight-be/pkg/events"
	"sat-sight-be/pkg/memstore"
)

type IQueryService interface {
	Ask(ctx context.Context, userID string, req dto.QueryRequest) (*dto.QueryResponse, error)
	SubmitFeedback(ctx context.Context, userID string, req dto.FeedbackRequest) error
}

type queryService struct {
	engine    *executor.Engine
	longTerm  memstore.LongTerm
	publisher EventPublisher
	logger    logger.ILogger
}

func NewQueryService(engine *executor.Engine, longTerm memstore.LongTerm, publisher EventPublisher, log logger.ILogger) IQueryService {
	return &queryService{
		engine:    engine,
		longTerm:  longTerm,
		publisher: publisher,
		logger:    log,
	}
}

func (s *queryService) Ask(ctx context.Context, userID string, req dto.QueryRequest) (*dto.QueryResponse, error) {
	answer, qc, err := s.engine.RunQuery(ctx, req.Query, req.ImageRef, userID, req.EpisodeID)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}

	return toQueryResponse(answer, qc), nil
}

func (s *queryService) SubmitFeedback(ctx context.Context, userID string, req dto.FeedbackRequest) error {
	if err := s.longTerm.RecordFeedback(ctx, userID, req.Query, req.Response, req.Rating, req.Feedback); err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.NewFeedbackReceived(userID, req.Rating)); err != nil {
			s.logger.Warn("query_service", "failed to publish feedback event", map[string]interface{}{"error": err.Error()})
		}
	}

	return nil
}

func toQueryResponse(answer string, qc *state.QueryContext) *dto.QueryResponse {
	resp := &dto.QueryResponse{
		Answer:       answer,
		EpisodeID:    qc.EpisodeID,
		Category:     qc.Category,
		QualityScore: qc.QualityScore,
		Degraded:     qc.ErrorFlag,
		DegradedNote: qc.ErrorMessage,
		Evidence: dto.EvidenceSummaryDTO{
			ImageMatches: len(qc.Evidence.ImageMatches),
			TextChunks:   len(qc.Evidence.TextChunks),
			WebSnippets:  len(qc.Evidence.WebSnippets),
			Wiki:         qc.Evidence.Wiki != nil,
			Geo:          qc.Evidence.Geo != nil,
		},
	}

	for _, tag := range qc.CompletedSources {
		resp.Sources = append(resp.Sources, string(tag))
	}
	for _, step := range qc.ThinkingTrace {
		resp.ThinkingTrace = append(resp.ThinkingTrace, dto.TraceStepDTO{
			Step:    step.Step,
			Details: step.Details,
			Data:    step.Data,
		})
	}

	return resp
}
