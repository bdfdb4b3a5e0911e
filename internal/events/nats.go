package events

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/docportal/internal/foundation/errors"
	"git.home.luguber.info/inful/docportal/internal/logfields"
)

// LatestKey is the key-value entry holding the most recent notification.
const LatestKey = "latest"

// NATSOptions configures the JetStream publisher.
type NATSOptions struct {
	URL      string
	Subject  string
	Stream   string // created or updated to capture Subject when set
	KVBucket string // stores the latest notification under LatestKey when set
	Timeout  time.Duration
}

type streamPublisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

type kvPutter interface {
	Put(ctx context.Context, key string, value []byte) (uint64, error)
}

// NATSPublisher publishes notifications to a JetStream subject.
type NATSPublisher struct {
	conn    *nats.Conn
	js      streamPublisher
	kv      kvPutter
	subject string
	timeout time.Duration
}

// NewNATSPublisher connects to NATS and prepares the stream and bucket.
func NewNATSPublisher(ctx context.Context, opts NATSOptions) (*NATSPublisher, error) {
	if opts.Subject == "" {
		return nil, errors.ConfigError("events subject is required").Build()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	conn, err := nats.Connect(opts.URL, nats.Name("docportal"), nats.Timeout(opts.Timeout))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryEvents, "failed to connect to NATS").
			WithContext("url", opts.URL).Retryable().Build()
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, errors.WrapError(err, errors.CategoryEvents, "failed to create JetStream context").Build()
	}

	p := &NATSPublisher{conn: conn, js: js, subject: opts.Subject, timeout: opts.Timeout}

	setupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if opts.Stream != "" {
		if _, err := js.CreateOrUpdateStream(setupCtx, jetstream.StreamConfig{
			Name:     opts.Stream,
			Subjects: []string{opts.Subject},
			MaxAge:   30 * 24 * time.Hour,
		}); err != nil {
			conn.Close()
			return nil, errors.WrapError(err, errors.CategoryEvents, "failed to ensure stream").WithContext("stream", opts.Stream).Build()
		}
	}
	if opts.KVBucket != "" {
		kv, err := js.KeyValue(setupCtx, opts.KVBucket)
		if stderrors.Is(err, jetstream.ErrBucketNotFound) {
			kv, err = js.CreateKeyValue(setupCtx, jetstream.KeyValueConfig{
				Bucket:      opts.KVBucket,
				Description: "Latest docportal build",
				History:     1,
			})
		}
		if err != nil {
			conn.Close()
			return nil, errors.WrapError(err, errors.CategoryEvents, "failed to open KV bucket").WithContext("bucket", opts.KVBucket).Build()
		}
		p.kv = kv
	}

	slog.Info("NATS publisher initialized", logfields.URL(opts.URL), logfields.Subject(opts.Subject))
	return p, nil
}

// Publish sends n to the configured subject and records it as the latest build.
func (p *NATSPublisher) Publish(ctx context.Context, n BuildNotification) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now().UTC()
	}
	data, err := n.Encode()
	if err != nil {
		return errors.WrapError(err, errors.CategoryEvents, "failed to marshal notification").Build()
	}
	if _, err := p.js.Publish(ctx, p.subject, data); err != nil {
		return errors.WrapError(err, errors.CategoryEvents, "failed to publish notification").
			WithContext("subject", p.subject).Retryable().Build()
	}
	if p.kv != nil {
		if _, err := p.kv.Put(ctx, LatestKey, data); err != nil {
			return errors.WrapError(err, errors.CategoryEvents, "failed to store latest notification").Retryable().Build()
		}
	}

	slog.Debug("Published build notification", logfields.BuildID(n.BuildID), logfields.Subject(p.subject))
	return nil
}

// Close drains the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
