// Package queue carries activity events over RabbitMQ. The publisher is an
// ActivityRecorder; the consumer persists what it receives.
package queue

import "time"

// ActivityQueueName is the durable queue activity events are routed to.
const ActivityQueueName = "activity.recorded"

// ActivityEvent is published after a write commits. It contains everything
// the consumer needs to persist the audit row without further queries.
type ActivityEvent struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id,omitempty"`
	Action     string         `json:"action"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}
