package audit

import (
	"context"
	"time"
)

// Action names an operator-visible event.
type Action string

const (
	// Per-expert events, one per drawn or replaced expert.
	ActionExpertDrawn    Action = "expert_drawn"
	ActionExpertReplaced Action = "expert_replaced"

	// Operator summary events, one per selection operation.
	ActionSelectionCreated Action = "selection_created"
	ActionSelectionAmended Action = "selection_amended"
)

// Module is the operator log module the action belongs to.
func (a Action) Module() string {
	switch a {
	case ActionExpertReplaced, ActionSelectionAmended:
		return "replacement"
	default:
		return "selection"
	}
}

// Event is emitted after a selection commits. Transport-agnostic so sinks can fan out.
type Event struct {
	ID        string    `json:"id"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`

	RecordID    string `json:"record_id"`
	ProjectName string `json:"project_name,omitempty"`
	OperatorID  string `json:"operator_id,omitempty"`
	RequestID   string `json:"request_id,omitempty"`

	Category     string `json:"category,omitempty"`
	ExpertName   string `json:"expert_name,omitempty"`
	ReplacedName string `json:"replaced_name,omitempty"`
	NewName      string `json:"new_name,omitempty"`
	Reason       string `json:"reason,omitempty"`

	// Content is the human-readable summary shown in the operator log.
	Content string `json:"content,omitempty"`
}

// Store is an append-only sink for events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
