package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/docportal/internal/foundation/errors"
)

type fakeStream struct {
	subject string
	data    []byte
	err     error
}

func (f *fakeStream) Publish(_ context.Context, subject string, data []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.subject, f.data = subject, data
	return &jetstream.PubAck{Stream: "DOCPORTAL", Sequence: 1}, nil
}

type fakeKV struct{ values map[string][]byte }

func (f *fakeKV) Put(_ context.Context, key string, value []byte) (uint64, error) {
	f.values[key] = value
	return 1, nil
}

func TestNATSPublisher_PublishesAndStoresLatest(t *testing.T) {
	stream := &fakeStream{}
	kv := &fakeKV{values: map[string][]byte{}}
	p := &NATSPublisher{js: stream, kv: kv, subject: "docportal.builds", timeout: time.Second}

	err := p.Publish(t.Context(), BuildNotification{BuildID: "b1", Outcome: "success", Pages: 3})
	require.NoError(t, err)

	assert.Equal(t, "docportal.builds", stream.subject)
	var got BuildNotification
	require.NoError(t, json.Unmarshal(stream.data, &got))
	assert.Equal(t, "b1", got.BuildID)
	assert.False(t, got.Timestamp.IsZero())
	assert.Equal(t, stream.data, kv.values[LatestKey])
}

func TestNATSPublisher_PublishError(t *testing.T) {
	p := &NATSPublisher{js: &fakeStream{err: errors.New("no responders")}, subject: "s", timeout: time.Second}

	err := p.Publish(t.Context(), BuildNotification{BuildID: "b1"})
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryEvents))
	require.NoError(t, p.Close())
}

func TestNewNATSPublisher_Validation(t *testing.T) {
	_, err := NewNATSPublisher(t.Context(), NATSOptions{URL: "nats://127.0.0.1:1"})
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryConfig))

	_, err = NewNATSPublisher(t.Context(), NATSOptions{URL: "nats://127.0.0.1:1", Subject: "s", Timeout: 200 * time.Millisecond})
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryEvents))
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	require.NoError(t, p.Publish(t.Context(), BuildNotification{}))
	require.NoError(t, p.Close())
}
