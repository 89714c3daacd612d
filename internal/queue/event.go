// Package queue defines message payloads exchanged over the message broker.
package queue

// ModerationQueueName is the durable queue carrying moderation decisions.
const ModerationQueueName = "moderation.decided"

// ModerationDecidedEvent is published after an admin approves or rejects a
// model. It carries enough information for downstream consumers to audit
// or notify without querying the primary database. A rejected model no
// longer exists by the time the event is consumed.
type ModerationDecidedEvent struct {
	ModelID         uint64 `json:"model_id"`
	Title           string `json:"title"`
	CreatorID       uint64 `json:"creator_id"`
	CreatorUsername string `json:"creator_username"`
	Decision        string `json:"decision"` // "approved" or "rejected"
	Warning         bool   `json:"warning"`  // reject cleanup was incomplete
	DecidedAt       string `json:"decided_at"`
}
