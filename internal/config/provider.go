package config

import (
	"errors"
	"fmt"
	"strings"
)

type Environment string

const (
	EnvDev Environment = "dev"
	EnvQA  Environment = "qa"
)

func (e Environment) String() string { return string(e) }

func (e Environment) Valid() bool { return e == EnvDev || e == EnvQA }

// ParseEnvironment normalizes input; only dev and qa are accepted.
func ParseEnvironment(s string) (Environment, error) {
	env := Environment(strings.ToLower(strings.TrimSpace(s)))
	if !env.Valid() {
		return "", fmt.Errorf("%w: %q (want dev or qa)", ErrUnknownEnvironment, s)
	}
	return env, nil
}

const (
	SecuritySASLSSL       = "SASL_SSL"
	SecuritySASLPlaintext = "SASL_PLAINTEXT"
	SecurityPlaintext     = "PLAINTEXT"
)

var (
	ErrUnknownEnvironment = errors.New("unknown environment")
	ErrMissingCredentials = errors.New("missing kafka credentials")
	ErrMissingBrokers     = errors.New("missing kafka bootstrap servers")
	ErrMissingTopic       = errors.New("missing topic")
	ErrUnsupportedAuth    = errors.New("unsupported kafka security settings")
)

// Provider is the resolved, read-only view of broker settings and topic for a
// single environment. Switching environment means building another Provider.
type Provider struct {
	env   Environment
	topic string
	kafka KafkaConfig
}

// NewProvider binds cfg to env and fails when the environment cannot be served.
func NewProvider(cfg Config, env Environment) (*Provider, error) {
	if !env.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEnvironment, env)
	}

	topic := cfg.Topics.Dev
	if env == EnvQA {
		topic = cfg.Topics.QA
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("%w for environment %s", ErrMissingTopic, env)
	}

	k := cfg.Kafka
	if len(k.Brokers()) == 0 {
		return nil, ErrMissingBrokers
	}

	k.SecurityProtocol = strings.ToUpper(strings.TrimSpace(k.SecurityProtocol))
	if k.SecurityProtocol == "" {
		k.SecurityProtocol = SecuritySASLSSL
	}
	switch k.SecurityProtocol {
	case SecuritySASLSSL, SecuritySASLPlaintext:
		mech := strings.ToUpper(strings.TrimSpace(k.SASLMechanism))
		if mech != "" && mech != "PLAIN" {
			return nil, fmt.Errorf("%w: sasl mechanism %q", ErrUnsupportedAuth, k.SASLMechanism)
		}
		k.SASLMechanism = "PLAIN"
		if strings.TrimSpace(k.APIKey) == "" || strings.TrimSpace(k.APISecret) == "" {
			return nil, ErrMissingCredentials
		}
	case SecurityPlaintext:
	default:
		return nil, fmt.Errorf("%w: security protocol %q", ErrUnsupportedAuth, k.SecurityProtocol)
	}

	return &Provider{env: env, topic: topic, kafka: k}, nil
}

func (p *Provider) Environment() Environment { return p.env }

// Topic returns the single topic bound to the provider's environment.
func (p *Provider) Topic() string { return p.topic }

func (p *Provider) Kafka() KafkaConfig { return p.kafka }

// UseSASL reports whether PLAIN credentials are sent to the brokers.
func (p *Provider) UseSASL() bool { return p.kafka.SecurityProtocol != SecurityPlaintext }

// UseTLS reports whether the transport is encrypted.
func (p *Provider) UseTLS() bool { return p.kafka.SecurityProtocol == SecuritySASLSSL }

// MaskedAPIKey returns the first 8 characters of the API key for display.
func (p *Provider) MaskedAPIKey() string { return MaskKey(p.kafka.APIKey) }

// MaskKey shortens a secret to its first 8 characters, or "Not set".
func MaskKey(key string) string {
	if key == "" {
		return "Not set"
	}
	if len(key) > 8 {
		key = key[:8]
	}
	return key + "..."
}
