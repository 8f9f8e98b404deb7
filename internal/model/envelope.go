package model

import "time"

const MessageTypeGroupLoad = "group_load"

// GroupLoadMessage is the envelope published to Kafka; key is MessageID.
type GroupLoadMessage struct {
	MessageType  string       `json:"message_type"`
	Timestamp    time.Time    `json:"timestamp"`
	Environment  string       `json:"environment"` // dev|qa
	MessageID    string       `json:"message_id"`  // UUID v4
	GroupDetails GroupDetails `json:"group_details"`
}
