package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/cardlink/internal/config"
	"git.home.luguber.info/inful/cardlink/internal/foundation/errors"
	"git.home.luguber.info/inful/cardlink/internal/logfields"
)

const publishTimeout = 5 * time.Second

// streamPublisher is the part of jetstream.JetStream the publisher needs.
type streamPublisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// NATSPublisher publishes resolution events to a JetStream stream.
type NATSPublisher struct {
	conn    *nats.Conn
	js      streamPublisher
	subject string
}

// NewNATSPublisher connects to cfg.NATSURL and ensures the stream exists.
func NewNATSPublisher(ctx context.Context, cfg config.EventsConfig) (*NATSPublisher, error) {
	if !cfg.Enabled {
		return nil, errors.EventsError("resolution events are disabled").Build()
	}

	conn, err := nats.Connect(cfg.NATSURL, nats.Name("cardlink"))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryEvents, "failed to connect to NATS").
			WithContext("url", cfg.NATSURL).Retryable().Build()
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, errors.WrapError(err, errors.CategoryEvents, "failed to create JetStream context").Build()
	}

	sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := js.CreateOrUpdateStream(sctx, jetstream.StreamConfig{
		Name:        cfg.Stream,
		Description: "Card name resolution outcomes",
		Subjects:    []string{cfg.Subject},
		MaxAge:      7 * 24 * time.Hour,
	}); err != nil {
		conn.Close()
		return nil, errors.WrapError(err, errors.CategoryEvents, "failed to ensure stream").
			WithContext("stream", cfg.Stream).Build()
	}

	slog.Info("NATS publisher initialized",
		logfields.URL(cfg.NATSURL),
		slog.String("subject", cfg.Subject),
		slog.String("stream", cfg.Stream))

	return &NATSPublisher{conn: conn, js: js, subject: cfg.Subject}, nil
}

// PublishResolution marshals ev and publishes it with its ID as the message ID,
// so JetStream deduplicates redeliveries.
func (p *NATSPublisher) PublishResolution(ctx context.Context, ev *ResolutionEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal resolution event").Build()
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if _, err := p.js.Publish(ctx, p.subject, data, jetstream.WithMsgID(ev.ID)); err != nil {
		return errors.WrapError(err, errors.CategoryEvents, "failed to publish resolution event").
			WithContext("subject", p.subject).Build()
	}

	slog.Debug("Published resolution event", logfields.CardName(ev.CardName), logfields.Resolved(ev.Resolved))
	return nil
}

// Close drains the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
