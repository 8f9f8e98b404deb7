package streamer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/jmehdipour/group-load/internal/envelope"
	"github.com/jmehdipour/group-load/internal/kafka"
	"github.com/jmehdipour/group-load/internal/model"
	"github.com/jmehdipour/group-load/internal/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	key string
	msg model.GroupLoadMessage
}

// fakePublisher acknowledges everything unless failFor returns an error for
// the group being published.
type fakePublisher struct {
	mu      sync.Mutex
	calls   []published
	failFor func(groupID string) error
	closes  int
}

func (f *fakePublisher) Publish(_ context.Context, key, value []byte) (kafka.Ack, error) {
	msg, err := envelope.Decode(value)
	if err != nil {
		return kafka.Ack{}, err
	}
	f.mu.Lock()
	f.calls = append(f.calls, published{key: string(key), msg: msg})
	f.mu.Unlock()

	if f.failFor != nil {
		if err := f.failFor(msg.GroupDetails.GroupID); err != nil {
			return kafka.Ack{}, err
		}
	}
	return kafka.Ack{Topic: "test.topic", Key: string(key), Bytes: len(value)}, nil
}

func (f *fakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakePublisher) Topic() string { return "test.topic" }

func (f *fakePublisher) publishCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type memRecorder struct {
	mu   sync.Mutex
	rows []model.Delivery
	err  error
}

func (r *memRecorder) Record(_ context.Context, d model.Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, d)
	return r.err
}

func newStreamer(pub *fakePublisher, opts ...Option) *Streamer {
	return New(pub, envelope.NewBuilder("dev"), nil, opts...)
}

func group(id string) map[string]any {
	return map[string]any{
		"group_id":       id,
		"group_name":     id + " plan",
		"group_type":     "family",
		"effective_date": "2024-02-01",
		"members": []any{
			map[string]any{"member_id": id + "_M1", "first_name": "A", "last_name": "B", "email": "a@b.test"},
		},
	}
}

func publishErr(kind kafka.ErrorKind, cause error) error {
	return &kafka.PublishError{Kind: kind, Topic: "test.topic", Err: cause}
}

func TestStreamOne_SampleGroup(t *testing.T) {
	pub := &fakePublisher{}
	s := newStreamer(pub)
	defer s.Close()

	ok := s.StreamOne(context.Background(), sample.SampleGroups()[0])
	require.True(t, ok)

	require.Len(t, pub.calls, 1)
	call := pub.calls[0]
	assert.Equal(t, "GRP_12345", call.msg.GroupDetails.GroupID)
	assert.Equal(t, call.msg.MessageID, call.key)
	assert.Equal(t, "dev", call.msg.Environment)
	assert.Equal(t, model.MessageTypeGroupLoad, call.msg.MessageType)
	assert.Len(t, call.msg.GroupDetails.Members, 2)
	assert.Nil(t, call.msg.GroupDetails.TerminationDate)
}

func TestStreamOne_PublishFailures(t *testing.T) {
	for _, kind := range []kafka.ErrorKind{kafka.KindTimeout, kafka.KindRejected, kafka.KindTransport, kafka.KindClosed} {
		t.Run(string(kind), func(t *testing.T) {
			pub := &fakePublisher{failFor: func(string) error { return publishErr(kind, errors.New("boom")) }}
			s := newStreamer(pub)

			out := s.Stream(context.Background(), group("G1"))
			assert.False(t, out.OK())
			assert.Equal(t, FailurePublish, out.Failure)
			assert.Equal(t, kind, kafka.KindOf(out.Err))
			assert.Equal(t, "G1", out.GroupID)
			assert.NotEmpty(t, out.MessageID)
			assert.False(t, s.StreamOne(context.Background(), group("G1")))
		})
	}
}

func TestStreamOne_ValidationNeverPublishes(t *testing.T) {
	pub := &fakePublisher{}
	s := newStreamer(pub)

	raw := group("G1")
	delete(raw, "group_name")

	out := s.Stream(context.Background(), raw)
	assert.Equal(t, FailureValidation, out.Failure)
	assert.Equal(t, "G1", out.GroupID)
	assert.Empty(t, out.MessageID)
	assert.Equal(t, 0, pub.publishCount())
}

func TestStreamBatch_InvalidRecordsIsolated(t *testing.T) {
	pub := &fakePublisher{}
	s := newStreamer(pub)

	raws := []map[string]any{group("G1"), group("G2"), group("G3"), group("G4"), group("G5")}
	delete(raws[1], "members")
	raws[3]["effective_date"] = 20240101

	res := s.StreamBatch(context.Background(), raws)
	assert.Equal(t, map[string]bool{"G1": true, "G2": false, "G3": true, "G4": false, "G5": true}, res)
	assert.Equal(t, 3, pub.publishCount())
}

func TestStreamBatch_EmptyMembersStillPublished(t *testing.T) {
	pub := &fakePublisher{}
	s := newStreamer(pub)

	raws := []map[string]any{group("G1"), group("G2"), group("G3")}
	raws[1]["members"] = []any{}

	res := s.StreamBatch(context.Background(), raws)
	assert.Equal(t, map[string]bool{"G1": true, "G2": true, "G3": true}, res)
	assert.Equal(t, 3, pub.publishCount())
}

func TestStreamBatch_UnknownKey(t *testing.T) {
	pub := &fakePublisher{}
	s := newStreamer(pub)

	bad := group("G2")
	delete(bad, "group_id")

	res := s.StreamBatch(context.Background(), []map[string]any{group("G1"), bad})
	assert.Equal(t, map[string]bool{"G1": true, UnknownGroupID: false}, res)
}

func TestStreamBatch_PublishFailureDoesNotStopBatch(t *testing.T) {
	pub := &fakePublisher{failFor: func(id string) error {
		if id == "G2" {
			return publishErr(kafka.KindTimeout, context.DeadlineExceeded)
		}
		return nil
	}}
	s := newStreamer(pub)

	outcomes := s.StreamBatchOutcomes(context.Background(), []map[string]any{group("G1"), group("G2"), group("G3")})
	require.Len(t, outcomes, 3)
	assert.True(t, outcomes[0].OK())
	assert.Equal(t, FailurePublish, outcomes[1].Failure)
	assert.True(t, outcomes[2].OK())
	assert.Equal(t, 3, pub.publishCount())
}

func TestStreamBatch_ReorderKeepsSuccessSet(t *testing.T) {
	failing := func(id string) error {
		if id == "G3" {
			return publishErr(kafka.KindRejected, kafka.ErrBrokerRejected)
		}
		return nil
	}
	build := func(ids ...string) []map[string]any {
		out := make([]map[string]any, 0, len(ids))
		for _, id := range ids {
			raw := group(id)
			if id == "G5" {
				delete(raw, "group_type")
			}
			out = append(out, raw)
		}
		return out
	}
	successes := func(res map[string]bool) []string {
		var ids []string
		for id, ok := range res {
			if ok {
				ids = append(ids, id)
			}
		}
		sort.Strings(ids)
		return ids
	}

	a := newStreamer(&fakePublisher{failFor: failing}).StreamBatch(context.Background(), build("G1", "G2", "G3", "G4", "G5"))
	b := newStreamer(&fakePublisher{failFor: failing}).StreamBatch(context.Background(), build("G5", "G4", "G3", "G2", "G1"))
	assert.Equal(t, successes(a), successes(b))
	assert.Equal(t, []string{"G1", "G2", "G4"}, successes(a))
}

func TestStreamBatch_Workers(t *testing.T) {
	pub := &fakePublisher{failFor: func(id string) error {
		if id == "G7" {
			return publishErr(kafka.KindTransport, errors.New("eof"))
		}
		return nil
	}}
	s := newStreamer(pub, WithWorkers(4))

	raws := make([]map[string]any, 0, 20)
	for i := 0; i < 20; i++ {
		raws = append(raws, group(fmt.Sprintf("G%d", i)))
	}
	delete(raws[3], "members")

	outcomes := s.StreamBatchOutcomes(context.Background(), raws)
	require.Len(t, outcomes, 20)
	for i, o := range outcomes {
		assert.Equal(t, fmt.Sprintf("G%d", i), o.GroupID, "input order kept")
		switch i {
		case 3:
			assert.Equal(t, FailureValidation, o.Failure)
		case 7:
			assert.Equal(t, FailurePublish, o.Failure)
		default:
			assert.True(t, o.OK())
		}
	}
	assert.Equal(t, 19, pub.publishCount())
}

func TestStreamer_RecorderRows(t *testing.T) {
	rec := &memRecorder{err: errors.New("db down")}
	pub := &fakePublisher{failFor: func(id string) error {
		if id == "G2" {
			return publishErr(kafka.KindTimeout, context.DeadlineExceeded)
		}
		return nil
	}}
	s := newStreamer(pub, WithRecorder(rec))

	bad := group("G3")
	delete(bad, "members")
	res := s.StreamBatch(context.Background(), []map[string]any{group("G1"), group("G2"), bad})
	assert.Equal(t, map[string]bool{"G1": true, "G2": false, "G3": false}, res, "recorder errors do not change results")

	require.Len(t, rec.rows, 3)
	assert.Equal(t, model.OutcomeDelivered, rec.rows[0].Outcome)
	assert.Equal(t, model.OutcomeTimeout, rec.rows[1].Outcome)
	assert.Equal(t, model.OutcomeInvalid, rec.rows[2].Outcome)
	for _, row := range rec.rows {
		assert.NotEmpty(t, row.ID)
		assert.Equal(t, "dev", row.Environment)
		assert.Equal(t, "test.topic", row.Topic)
	}
	assert.Empty(t, rec.rows[0].Error)
	assert.NotEmpty(t, rec.rows[1].Error)
	assert.Empty(t, rec.rows[2].MessageID)
}

func TestStreamer_CloseOnce(t *testing.T) {
	pub := &fakePublisher{}
	s := newStreamer(pub)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, pub.closes)
}
