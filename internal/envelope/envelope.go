// Package envelope wraps validated groups into the group_load wire message.
package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmehdipour/group-load/internal/model"
)

var ErrBadEnvelope = errors.New("bad envelope")

// Builder stamps envelopes for one environment.
type Builder struct {
	environment string
	now         func() time.Time
	newID       func() string
}

func NewBuilder(environment string) *Builder {
	return &Builder{
		environment: environment,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       NewMessageID,
	}
}

// NewMessageID returns a random (v4) UUID string.
func NewMessageID() string { return uuid.NewString() }

func (b *Builder) Environment() string { return b.environment }

// Build wraps details; an empty messageID is generated.
func (b *Builder) Build(details model.GroupDetails, messageID string) model.GroupLoadMessage {
	if messageID == "" {
		messageID = b.newID()
	}
	if details.Members == nil {
		details.Members = []model.GroupMember{}
	}
	return model.GroupLoadMessage{
		MessageType:  model.MessageTypeGroupLoad,
		Timestamp:    b.now(),
		Environment:  b.environment,
		MessageID:    messageID,
		GroupDetails: details,
	}
}

// Encode renders the message as the UTF-8 JSON payload published to Kafka.
func Encode(msg model.GroupLoadMessage) ([]byte, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope %s: %w", msg.MessageID, err)
	}
	return b, nil
}

// Decode parses a payload produced by Encode.
func Decode(payload []byte) (model.GroupLoadMessage, error) {
	var msg model.GroupLoadMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return model.GroupLoadMessage{}, fmt.Errorf("%w: %v", ErrBadEnvelope, err)
	}
	if msg.MessageType != model.MessageTypeGroupLoad {
		return model.GroupLoadMessage{}, fmt.Errorf("%w: message_type %q", ErrBadEnvelope, msg.MessageType)
	}
	if msg.MessageID == "" {
		return model.GroupLoadMessage{}, fmt.Errorf("%w: missing message_id", ErrBadEnvelope)
	}
	return msg, nil
}
