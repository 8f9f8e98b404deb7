package kafka

import (
	"crypto/tls"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
)

// Security selects SASL/PLAIN credentials and TLS for broker connections.
type Security struct {
	SASL     bool
	TLS      bool
	Username string // API key
	Password string // API secret
}

func (s Security) mechanism() sasl.Mechanism {
	if !s.SASL {
		return nil
	}
	return plain.Mechanism{Username: s.Username, Password: s.Password}
}

func (s Security) tlsConfig() *tls.Config {
	if !s.TLS {
		return nil
	}
	return &tls.Config{MinVersion: tls.VersionTLS12}
}

func (s Security) dialer(clientID string, timeout time.Duration) *kafka.Dialer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &kafka.Dialer{
		ClientID:      clientID,
		Timeout:       timeout,
		DualStack:     true,
		TLS:           s.tlsConfig(),
		SASLMechanism: s.mechanism(),
	}
}

func (s Security) transport(clientID string, dialTimeout time.Duration) *kafka.Transport {
	if dialTimeout <= 0 {
		dialTimeout = 10 * time.Second
	}
	// kafka-go caches broker metadata; a short TTL lets the writer recover
	// from broker address changes without a restart.
	return &kafka.Transport{
		ClientID:    clientID,
		DialTimeout: dialTimeout,
		MetadataTTL: 10 * time.Second,
		TLS:         s.tlsConfig(),
		SASL:        s.mechanism(),
	}
}
