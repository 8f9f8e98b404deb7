// Package streamer drives group records through validation, envelope building
// and publishing, isolating each record's failure from the rest of a batch.
package streamer

import (
	"context"
	"sync"
	"time"

	"github.com/jmehdipour/group-load/internal/envelope"
	"github.com/jmehdipour/group-load/internal/kafka"
	"github.com/jmehdipour/group-load/internal/metrics"
	"github.com/jmehdipour/group-load/internal/model"
	"github.com/jmehdipour/group-load/internal/util"
	"github.com/jmehdipour/group-load/internal/validate"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// UnknownGroupID keys batch results whose group_id could not be read.
const UnknownGroupID = "unknown"

type Publisher interface {
	Publish(ctx context.Context, key, value []byte) (kafka.Ack, error)
	Close() error
}

// Recorder stores one audit row per processed record.
type Recorder interface {
	Record(ctx context.Context, d model.Delivery) error
}

type FailureKind string

const (
	FailureNone       FailureKind = ""
	FailureValidation FailureKind = "validation"
	FailureEncode     FailureKind = "encode"
	FailurePublish    FailureKind = "publish"
)

// Outcome is the result of pushing one raw record through the pipeline.
type Outcome struct {
	GroupID   string
	MessageID string
	Failure   FailureKind
	Err       error
}

func (o Outcome) OK() bool { return o.Failure == FailureNone }

type Option func(*Streamer)

// WithWorkers processes batch records on up to n goroutines. Results keep
// input order.
func WithWorkers(n int) Option {
	return func(s *Streamer) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *Streamer) { s.recorder = r }
}

// Streamer is the entry point for single and batch publishes. It owns the
// publisher; call Close once when done.
type Streamer struct {
	pub      Publisher
	builder  *envelope.Builder
	log      *zap.Logger
	recorder Recorder
	workers  int
	topic    string

	closeOnce sync.Once
	closeErr  error
}

func New(pub Publisher, builder *envelope.Builder, log *zap.Logger, opts ...Option) *Streamer {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Streamer{
		pub:     pub,
		builder: builder,
		log:     log,
		workers: 1,
	}
	if tp, ok := pub.(interface{ Topic() string }); ok {
		s.topic = tp.Topic()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StreamOne validates, wraps and publishes raw, reporting whether all steps
// succeeded.
func (s *Streamer) StreamOne(ctx context.Context, raw map[string]any) bool {
	return s.Stream(ctx, raw).OK()
}

// Stream is StreamOne with the detailed outcome.
func (s *Streamer) Stream(ctx context.Context, raw map[string]any) Outcome {
	env := s.builder.Environment()
	metrics.RecordsTotal.WithLabelValues("received", env).Inc()

	group, err := validate.Group(raw)
	if err != nil {
		id, ok := validate.GroupID(raw)
		if !ok {
			id = UnknownGroupID
		}
		out := Outcome{GroupID: id, Failure: FailureValidation, Err: err}
		metrics.RecordsTotal.WithLabelValues("invalid", env).Inc()
		s.log.Warn("group record rejected",
			zap.String("failure_kind", string(out.Failure)),
			zap.String("group_id", id),
			zap.Error(err),
		)
		s.record(ctx, out, model.OutcomeInvalid)
		return out
	}

	msg := s.builder.Build(group, "")
	out := Outcome{GroupID: group.GroupID, MessageID: msg.MessageID}

	payload, err := envelope.Encode(msg)
	if err != nil {
		out.Failure, out.Err = FailureEncode, err
		metrics.RecordsTotal.WithLabelValues("invalid", env).Inc()
		s.log.Error("group envelope encoding failed",
			zap.String("failure_kind", string(out.Failure)),
			zap.String("group_id", out.GroupID),
			zap.Error(err),
		)
		s.record(ctx, out, model.OutcomeInvalid)
		return out
	}

	start := time.Now()
	_, err = s.pub.Publish(ctx, []byte(msg.MessageID), payload)
	elapsed := time.Since(start)
	if err != nil {
		kind := kafka.KindOf(err)
		out.Failure, out.Err = FailurePublish, err
		metrics.RecordsTotal.WithLabelValues("failed", env).Inc()
		metrics.PublishDuration.WithLabelValues(env, resultLabel(kind)).Observe(elapsed.Seconds())
		s.log.Error("group publish failed",
			zap.String("failure_kind", string(out.Failure)),
			zap.String("error_kind", string(kind)),
			zap.String("group_id", out.GroupID),
			zap.String("message_id", out.MessageID),
			zap.Error(err),
		)
		s.record(ctx, out, deliveryOutcome(kind))
		return out
	}

	metrics.RecordsTotal.WithLabelValues("published", env).Inc()
	metrics.PublishDuration.WithLabelValues(env, "ok").Observe(elapsed.Seconds())
	s.log.Info("group published",
		zap.String("group_id", out.GroupID),
		zap.String("message_id", out.MessageID),
		zap.String("topic", s.topic),
		zap.Int("members", len(group.Members)),
		zap.Duration("latency", elapsed),
	)
	s.record(ctx, out, model.OutcomeDelivered)
	return out
}

// StreamBatch processes every record independently and maps group id (or
// UnknownGroupID) to success. Published records stay published when later
// ones fail. When ids repeat, the later record's result wins.
func (s *Streamer) StreamBatch(ctx context.Context, raws []map[string]any) map[string]bool {
	outcomes := s.StreamBatchOutcomes(ctx, raws)
	results := make(map[string]bool, len(outcomes))
	for _, o := range outcomes {
		results[o.GroupID] = o.OK()
	}
	return results
}

// StreamBatchOutcomes returns one outcome per record, in input order.
func (s *Streamer) StreamBatchOutcomes(ctx context.Context, raws []map[string]any) []Outcome {
	batchID := util.NewULID()
	start := time.Now()
	s.log.Info("batch started", zap.String("batch_id", batchID), zap.Int("records", len(raws)), zap.Int("workers", s.workers))

	outcomes := make([]Outcome, len(raws))
	if s.workers <= 1 || len(raws) < 2 {
		for i, raw := range raws {
			outcomes[i] = s.Stream(ctx, raw)
		}
	} else {
		p := pool.New().WithMaxGoroutines(s.workers)
		for i, raw := range raws {
			p.Go(func() {
				outcomes[i] = s.Stream(ctx, raw)
			})
		}
		p.Wait()
	}

	ok := 0
	for _, o := range outcomes {
		if o.OK() {
			ok++
		}
	}
	s.log.Info("batch finished",
		zap.String("batch_id", batchID),
		zap.Int("succeeded", ok),
		zap.Int("failed", len(outcomes)-ok),
		zap.Duration("took", time.Since(start)),
	)
	return outcomes
}

// Close releases the publisher. Later calls return the first result.
func (s *Streamer) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.pub.Close()
	})
	return s.closeErr
}

func (s *Streamer) record(ctx context.Context, out Outcome, outcome model.DeliveryOutcome) {
	if s.recorder == nil {
		return
	}
	d := model.Delivery{
		ID:          util.NewULID(),
		MessageID:   out.MessageID,
		GroupID:     out.GroupID,
		Environment: s.builder.Environment(),
		Topic:       s.topic,
		Outcome:     outcome,
		CreatedAt:   time.Now().UTC(),
	}
	if out.Err != nil {
		d.Error = out.Err.Error()
	}
	if err := s.recorder.Record(ctx, d); err != nil {
		s.log.Warn("delivery audit failed", zap.String("group_id", out.GroupID), zap.Error(err))
	}
}

func deliveryOutcome(kind kafka.ErrorKind) model.DeliveryOutcome {
	switch kind {
	case kafka.KindTimeout:
		return model.OutcomeTimeout
	case kafka.KindRejected:
		return model.OutcomeRejected
	case kafka.KindClosed:
		return model.OutcomeClosed
	default:
		return model.OutcomeTransport
	}
}

func resultLabel(kind kafka.ErrorKind) string {
	if kind == "" {
		return string(kafka.KindTransport)
	}
	return string(kind)
}
