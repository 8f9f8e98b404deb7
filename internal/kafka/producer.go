package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const DefaultPublishTimeout = 10 * time.Second

// MessageWriter is the subset of *kafka.Writer the publisher depends on.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type ProducerConfig struct {
	Brokers  []string
	Topic    string
	ClientID string
	Security Security

	RequiredAcks   string        // all|1|0
	Retries        int           // attempts after the first
	BatchBytes     int64         // batch size hint; never lowers the per-message limit below BufferBytes
	Linger         time.Duration // batch timeout
	BufferBytes    int           // max key+value size accepted for one publish
	PublishTimeout time.Duration // ack wait per publish, default 10s
	DialTimeout    time.Duration
	VerifyOnStart  bool // dial a bootstrap server before returning

	BreakerThreshold int // consecutive connectivity failures; 0 disables
	BreakerOpenFor   time.Duration
}

// Ack confirms a message was acknowledged by the broker.
type Ack struct {
	Topic   string
	Key     string
	Bytes   int
	Latency time.Duration
}

// DeliveryReport is passed to the delivery hook after every publish attempt
// that reached the writer.
type DeliveryReport struct {
	Topic   string
	Key     string
	Bytes   int
	Latency time.Duration
	Err     error
}

type DeliveryHook func(DeliveryReport)

type Option func(*Publisher)

// WithDeliveryHook replaces the default logging hook.
func WithDeliveryHook(h DeliveryHook) Option {
	return func(p *Publisher) {
		if h != nil {
			p.hook = h
		}
	}
}

// WithWriter uses w instead of building a kafka-go writer; VerifyOnStart is skipped.
func WithWriter(w MessageWriter) Option {
	return func(p *Publisher) { p.w = w }
}

// Publisher owns one Kafka writer for its lifetime and publishes synchronously.
// It is safe for concurrent use.
type Publisher struct {
	mu       sync.Mutex
	w        MessageWriter
	closed   bool
	topic    string
	timeout  time.Duration
	maxBytes int
	breaker  *Breaker
	hook     DeliveryHook
	log      *zap.Logger
}

// NewPublisher builds the writer. With VerifyOnStart an unreachable cluster or
// rejected credentials fail here.
func NewPublisher(ctx context.Context, cfg ProducerConfig, log *zap.Logger, opts ...Option) (*Publisher, error) {
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("kafka: empty topic")
	}
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}

	p := &Publisher{
		topic:    cfg.Topic,
		timeout:  timeout,
		maxBytes: cfg.BufferBytes,
		breaker:  NewBreaker(cfg.BreakerThreshold, cfg.BreakerOpenFor),
		log:      log,
	}
	p.hook = p.logDelivery
	for _, opt := range opts {
		opt(p)
	}

	if p.w == nil {
		if len(cfg.Brokers) == 0 {
			return nil, errors.New("kafka: no brokers configured")
		}
		if cfg.VerifyOnStart {
			if err := verifyBrokers(ctx, cfg); err != nil {
				return nil, err
			}
		}
		p.w = newWriter(cfg, log)
	}

	log.Info("kafka producer ready",
		zap.String("topic", cfg.Topic),
		zap.Strings("brokers", cfg.Brokers),
		zap.Bool("sasl", cfg.Security.SASL),
		zap.Bool("tls", cfg.Security.TLS),
	)
	return p, nil
}

func newWriter(cfg ProducerConfig, log *zap.Logger) *kafka.Writer {
	retries := cfg.Retries
	if retries < 0 {
		retries = 0
	}
	linger := cfg.Linger
	if linger <= 0 {
		linger = 10 * time.Millisecond
	}
	sugar := log.Sugar()

	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: ParseAcks(cfg.RequiredAcks),
		MaxAttempts:  retries + 1,
		BatchBytes:   writerBatchBytes(cfg),
		BatchTimeout: linger,
		Async:        false,
		Transport:    cfg.Security.transport(cfg.ClientID, cfg.DialTimeout),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			sugar.Errorf("kafka-go: "+msg, args...)
		}),
	}
}

// writerBatchBytes sizes the kafka-go request limit. kafka-go refuses any
// single message above BatchBytes, so it must fit the largest payload
// BufferBytes admits. With no BufferBytes the kafka-go default (1 MiB) applies.
func writerBatchBytes(cfg ProducerConfig) int64 {
	if cfg.BufferBytes <= 0 {
		return 0
	}
	return max(cfg.BatchBytes, int64(cfg.BufferBytes))
}

func verifyBrokers(ctx context.Context, cfg ProducerConfig) error {
	d := cfg.Security.dialer(cfg.ClientID, cfg.DialTimeout)
	var lastErr error
	for _, addr := range cfg.Brokers {
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("kafka: no reachable broker in %v: %w", cfg.Brokers, lastErr)
}

// ParseAcks maps all|-1, 1 and 0 to kafka-go acks; anything else means all.
func ParseAcks(s string) kafka.RequiredAcks {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "none":
		return kafka.RequireNone
	case "1", "one", "leader":
		return kafka.RequireOne
	default:
		return kafka.RequireAll
	}
}

func (p *Publisher) Topic() string { return p.topic }

// Publish sends value keyed by key and blocks until the broker acknowledges
// or the publish timeout elapses.
func (p *Publisher) Publish(ctx context.Context, key, value []byte) (Ack, error) {
	p.mu.Lock()
	w, closed := p.w, p.closed
	p.mu.Unlock()
	if closed || w == nil {
		return Ack{}, p.newError(KindClosed, key, ErrClosed)
	}

	size := len(key) + len(value)
	if p.maxBytes > 0 && size > p.maxBytes {
		err := p.newError(KindRejected, key, fmt.Errorf("%w: %d > %d bytes", ErrPayloadTooLarge, size, p.maxBytes))
		p.hook(DeliveryReport{Topic: p.topic, Key: string(key), Bytes: size, Err: err})
		return Ack{}, err
	}

	if !p.breaker.Allow() {
		return Ack{}, p.newError(KindTransport, key, ErrCircuitOpen)
	}

	start := time.Now()
	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	err := w.WriteMessages(cctx, kafka.Message{Key: key, Value: value})
	cancel()
	latency := time.Since(start)

	report := DeliveryReport{Topic: p.topic, Key: string(key), Bytes: size, Latency: latency}
	if err != nil {
		kind := classify(err)
		if p.isClosed() {
			kind = KindClosed
		}
		switch {
		case ctx.Err() != nil:
			// the caller gave up; says nothing about the brokers
			p.breaker.Release()
		case kind == KindTimeout, kind == KindTransport:
			p.breaker.OnFailure()
		case kind == KindRejected:
			p.breaker.OnSuccess()
		default:
			p.breaker.Release()
		}
		perr := p.newError(kind, key, err)
		report.Err = perr
		p.hook(report)
		return Ack{}, perr
	}

	p.breaker.OnSuccess()
	p.hook(report)
	return Ack{Topic: p.topic, Key: string(key), Bytes: size, Latency: latency}, nil
}

// Close flushes pending writes and releases the writer. Calling it again is a no-op.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.w == nil {
		return nil
	}
	err := p.w.Close()
	p.w = nil
	if err != nil {
		return fmt.Errorf("close kafka writer: %w", err)
	}
	p.log.Info("kafka producer closed", zap.String("topic", p.topic))
	return nil
}

func (p *Publisher) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Publisher) newError(kind ErrorKind, key []byte, err error) *PublishError {
	return &PublishError{Kind: kind, Topic: p.topic, Key: string(key), Err: err}
}

func (p *Publisher) logDelivery(r DeliveryReport) {
	if r.Err != nil {
		p.log.Error("message delivery failed",
			zap.String("topic", r.Topic),
			zap.String("key", r.Key),
			zap.Duration("latency", r.Latency),
			zap.Error(r.Err),
		)
		return
	}
	p.log.Debug("message delivered",
		zap.String("topic", r.Topic),
		zap.String("key", r.Key),
		zap.Int("bytes", r.Bytes),
		zap.Duration("latency", r.Latency),
	)
}
