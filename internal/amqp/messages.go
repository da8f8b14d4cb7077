package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"moneymanager/internal/core"
)

// RefreshMessage asks the worker to refetch records and update the stored
// snapshot. An empty Kind means both kinds.
type RefreshMessage struct {
	Kind        core.Kind `json:"kind,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// Reasons carried by RefreshMessage.
const (
	ReasonManual    = "manual"
	ReasonScheduled = "scheduled"
)

func NewRefreshMessage(kind core.Kind, reason string) *RefreshMessage {
	return &RefreshMessage{Kind: kind, Reason: reason, RequestedAt: time.Now().UTC()}
}

// Kinds returns the record kinds the message covers.
func (m *RefreshMessage) Kinds() []core.Kind {
	if m.Kind == "" {
		return []core.Kind{core.Income, core.Expense}
	}
	return []core.Kind{m.Kind}
}

func (m *RefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RefreshMessageFromJSON decodes and validates a message body.
func RefreshMessageFromJSON(data []byte) (*RefreshMessage, error) {
	var msg RefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Kind != "" {
		k, err := core.ParseKind(string(msg.Kind))
		if err != nil {
			return nil, fmt.Errorf("refresh message kind %q: %w", msg.Kind, err)
		}
		msg.Kind = k
	}
	return &msg, nil
}
