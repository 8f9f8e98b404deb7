package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/segmentio/kafka-go"
)

type ErrorKind string

const (
	KindTimeout   ErrorKind = "timeout"
	KindRejected  ErrorKind = "rejected"
	KindTransport ErrorKind = "transport"
	KindClosed    ErrorKind = "closed"
)

func (k ErrorKind) String() string { return string(k) }

var (
	ErrPublishTimeout  = errors.New("publish timed out waiting for acknowledgment")
	ErrBrokerRejected  = errors.New("broker rejected message")
	ErrTransport       = errors.New("transport failure")
	ErrClosed          = errors.New("publisher closed")
	ErrCircuitOpen     = errors.New("circuit open")
	ErrPayloadTooLarge = errors.New("payload exceeds buffer capacity")
)

// PublishError is returned by Publisher.Publish. It matches both its kind
// sentinel and the underlying cause with errors.Is.
type PublishError struct {
	Kind  ErrorKind
	Topic string
	Key   string
	Err   error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %s key=%s (%s): %v", e.Topic, e.Key, e.Kind, e.Err)
}

func (e *PublishError) Unwrap() []error { return []error{e.Kind.sentinel(), e.Err} }

func (k ErrorKind) sentinel() error {
	switch k {
	case KindTimeout:
		return ErrPublishTimeout
	case KindRejected:
		return ErrBrokerRejected
	case KindClosed:
		return ErrClosed
	default:
		return ErrTransport
	}
}

// KindOf returns the kind of a publish error, or "" for other errors.
func KindOf(err error) ErrorKind {
	var pe *PublishError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// classify maps a kafka-go write error to a kind.
func classify(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	var writeErrs kafka.WriteErrors
	if errors.As(err, &writeErrs) {
		for _, e := range writeErrs {
			if e != nil {
				return classify(e)
			}
		}
	}

	var protoErr kafka.Error
	if errors.As(err, &protoErr) {
		if protoErr == kafka.RequestTimedOut {
			return KindTimeout
		}
		return KindRejected
	}
	var tooLarge kafka.MessageTooLargeError
	if errors.As(err, &tooLarge) {
		return KindRejected
	}

	return KindTransport
}
