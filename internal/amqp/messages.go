package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"iexpense/internal/core"
)

var ErrInvalidMessage = errors.New("invalid change message")

// ChangeMessage announces that the expense collection was mutated and
// persisted. It only names the record; consumers read the slot for the
// current state.
type ChangeMessage struct {
	Op        core.ChangeOp `json:"op"`
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
}

func NewChangeMessage(c core.Change) *ChangeMessage {
	return &ChangeMessage{
		Op:        c.Op,
		ID:        c.ID,
		Timestamp: time.Now(),
	}
}

// Change returns the domain event carried by the message.
func (m *ChangeMessage) Change() core.Change {
	return core.Change{Op: m.Op, ID: m.ID}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON parses and validates a message body.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Op {
	case core.ChangeAdded, core.ChangeRemoved:
	default:
		return nil, fmt.Errorf("%w: unknown op %q", ErrInvalidMessage, msg.Op)
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidMessage)
	}
	return &msg, nil
}
