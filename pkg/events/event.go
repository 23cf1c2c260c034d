// Package events defines the system event contract and the domain events
// the query engine emits.
package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "INTERACTION_RECORDED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent carries the common fields; the constructors below build valid
// instances.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

const (
	TypeInteractionRecorded = "INTERACTION_RECORDED"
	TypeFeedbackReceived    = "FEEDBACK_RECEIVED"
)

// NewInteractionRecorded is emitted once per completed query execution.
func NewInteractionRecorded(episodeID, userID, category string, qualityScore float64, errored bool) Event {
	return BaseEvent{
		Type: TypeInteractionRecorded,
		Data: map[string]interface{}{
			"episode_id":    episodeID,
			"user_id":       userID,
			"category":      category,
			"quality_score": qualityScore,
			"errored":       errored,
		},
		OccurredAt: time.Now(),
	}
}

// NewFeedbackReceived is emitted when a user rates a past answer.
func NewFeedbackReceived(userID string, rating int) Event {
	return BaseEvent{
		Type: TypeFeedbackReceived,
		Data: map[string]interface{}{
			"user_id": userID,
			"rating":  rating,
		},
		OccurredAt: time.Now(),
	}
}
