// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"

	"sat-sight-be/internal/pkg/logger"
	"sat-sight-be/pkg/agent/executor"
	"sat-sight-be/pkg/events"
	"sat-sight-be/pkg/memstore"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// EventPublisher is the outbound bus the archiver notifies after a
// successful write. A nil publisher disables notification.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// consumerService drains the in-process interaction topic and persists
// each finished query execution into the episodic store.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	episodic  memstore.Episodic
	publisher EventPublisher
	logger    logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	episodic memstore.Episodic,
	publisher EventPublisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		episodic:  episodic,
		publisher: publisher,
		logger:    log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload executor.InteractionMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("consumer", "failed to unmarshal interaction message", map[string]interface{}{"error": err.Error()})
		// Ack invalid messages to prevent infinite retry
		msg.Ack()
		return
	}

	err := cs.episodic.RecordInteraction(ctx, memstore.Interaction{
		EpisodeID:  payload.EpisodeID,
		UserID:     payload.UserID,
		Query:      payload.Query,
		Response:   payload.Response,
		NodesUsed:  payload.NodesUsed,
		ImageRef:   payload.ImageRef,
		Confidence: payload.Confidence,
	})
	if err != nil {
		cs.logger.Error("consumer", "failed to record interaction", map[string]interface{}{
			"episode_id": payload.EpisodeID,
			"error":      err.Error(),
		})
		msg.Nack()
		return
	}

	if cs.publisher != nil {
		event := events.NewInteractionRecorded(payload.EpisodeID, payload.UserID, payload.Category, payload.Confidence, false)
		if err := cs.publisher.Publish(ctx, event); err != nil {
			cs.logger.Warn("consumer", "failed to publish interaction event", map[string]interface{}{"error": err.Error()})
		}
	}

	cs.logger.Info("consumer", "interaction archived", map[string]interface{}{
		"episode_id": payload.EpisodeID,
		"user_id":    payload.UserID,
	})
	msg.Ack()
}
