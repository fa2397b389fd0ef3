package sink

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmehdipour/agent-bridge/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func testEvent(id string) model.Event {
	return model.Event{
		ID:         "01HZX" + id,
		Webhook:    model.WebhookInfo{Type: "sanity", Source: model.EventSourceSocialMedia},
		Document:   model.DocumentInfo{Type: "socialMedia", ID: id, Revision: "r1"},
		Actionable: true,
		SocialMedia: &model.SocialMediaInfo{
			PlatformCount: 1,
			Platforms:     []model.PlatformSummary{{Platform: "twitter", CaptionLength: 5, HashtagCount: 2, Hashtags: []string{"a", "b"}}},
		},
	}
}

func TestLogSink_Emit(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewLogSink(zap.New(core))

	require.NoError(t, s.Emit(context.Background(), testEvent("doc-1")))

	payload := logs.FilterMessage(PayloadMessage).All()
	require.Len(t, payload, 1)
	fields := payload[0].ContextMap()
	assert.Equal(t, "01HZXdoc-1", fields["eventId"])
	assert.Equal(t, model.DocumentInfo{Type: "socialMedia", ID: "doc-1", Revision: "r1"}, fields["document"])

	done := logs.FilterMessage("Social media webhook processing completed").All()
	require.Len(t, done, 1)
	assert.Equal(t, int64(1), done[0].ContextMap()["platformsToProcess"])
}

func TestFanout_JoinsErrors(t *testing.T) {
	var calls []string
	errA := errors.New("a failed")
	errC := errors.New("c failed")

	f := Fanout{
		Func(func(context.Context, model.Event) error { calls = append(calls, "a"); return errA }),
		Func(func(context.Context, model.Event) error { calls = append(calls, "b"); return nil }),
		Func(func(context.Context, model.Event) error { calls = append(calls, "c"); return errC }),
	}

	err := f.Emit(context.Background(), testEvent("doc"))
	assert.Equal(t, []string{"a", "b", "c"}, calls)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errC)

	assert.NoError(t, Fanout{}.Emit(context.Background(), testEvent("doc")))
}

type fakePublisher struct {
	mu     sync.Mutex
	keys   []string
	values [][]byte
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, key, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, string(key))
	p.values = append(p.values, value)
	return nil
}

func TestKafkaSink_Emit(t *testing.T) {
	pub := &fakePublisher{}
	s := NewKafkaSink(pub)

	require.NoError(t, s.Emit(context.Background(), testEvent("doc-7")))
	require.Len(t, pub.values, 1)
	assert.Equal(t, []string{"doc-7"}, pub.keys)

	var got model.Event
	require.NoError(t, json.Unmarshal(pub.values[0], &got))
	assert.Equal(t, "doc-7", got.Document.ID)
	assert.Equal(t, 5, got.SocialMedia.Platforms[0].CaptionLength)
}

func TestKafkaSink_PublishError(t *testing.T) {
	boom := errors.New("broker down")
	s := NewKafkaSink(&fakePublisher{err: boom})

	err := s.Emit(context.Background(), testEvent("doc"))
	assert.ErrorIs(t, err, boom)
}

func TestAsync_DeliversInBackground(t *testing.T) {
	pub := &fakePublisher{}
	a := NewAsync(NewKafkaSink(pub), AsyncConfig{Name: "kafka", Workers: 2, QueueSize: 16}, zap.NewNop())

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, a.Emit(context.Background(), testEvent(id)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, a.Close(ctx))

	assert.ElementsMatch(t, []string{"a", "b", "c"}, pub.keys)
}

func TestAsync_QueueFull(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	slow := Func(func(context.Context, model.Event) error {
		started <- struct{}{}
		<-release
		return nil
	})

	a := NewAsync(slow, AsyncConfig{Workers: 1, QueueSize: 1}, zap.NewNop())

	require.NoError(t, a.Emit(context.Background(), testEvent("in-flight")))
	<-started
	require.NoError(t, a.Emit(context.Background(), testEvent("queued")))

	assert.ErrorIs(t, a.Emit(context.Background(), testEvent("overflow")), ErrQueueFull)

	close(release)
	require.NoError(t, a.Close(context.Background()))
}

func TestAsync_LogsDeliveryFailures(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	failing := Func(func(context.Context, model.Event) error { return errors.New("nope") })

	a := NewAsync(failing, AsyncConfig{Name: "kafka", Workers: 1}, zap.New(core))
	require.NoError(t, a.Emit(context.Background(), testEvent("doc-9")))
	require.NoError(t, a.Close(context.Background()))

	entries := logs.FilterMessage("async sink delivery failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "doc-9", entries[0].ContextMap()["documentId"])
	assert.Equal(t, "kafka", entries[0].ContextMap()["sink"])
}

func TestAsync_EmitAfterClose(t *testing.T) {
	a := NewAsync(Func(func(context.Context, model.Event) error { return nil }), AsyncConfig{}, zap.NewNop())
	require.NoError(t, a.Close(context.Background()))
	require.NoError(t, a.Close(context.Background()))

	assert.ErrorIs(t, a.Emit(context.Background(), testEvent("late")), ErrClosed)
}

func TestAsync_CloseHonorsDeadline(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	blocked := Func(func(context.Context, model.Event) error { <-release; return nil })

	a := NewAsync(blocked, AsyncConfig{Workers: 1}, zap.NewNop())
	require.NoError(t, a.Emit(context.Background(), testEvent("stuck")))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, a.Close(ctx), context.DeadlineExceeded)
}
