// Package natsad feeds rental events from a NATS queue group into the consumer.
package natsad

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

const (
	connectWait   = 5 * time.Second
	maxReconnects = -1 // keep trying; the consumer has nothing else to do
	reconnectWait = 2 * time.Second
)

// Dispatcher accepts one raw event body.
type Dispatcher interface {
	Dispatch(ctx context.Context, body []byte) error
}

// Connect dials NATS with reconnect handling logged through zerolog.
func Connect(url string) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("kos-service consumer"),
		nats.Timeout(connectWait),
		nats.MaxReconnects(maxReconnects),
		nats.ReconnectWait(reconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info().Msg("nats connection closed")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return nc, nil
}

type Subscriber struct {
	nc      *nats.Conn
	subject string
	queue   string
	d       Dispatcher
}

func NewSubscriber(nc *nats.Conn, subject, queue string, d Dispatcher) *Subscriber {
	return &Subscriber{nc: nc, subject: subject, queue: queue, d: d}
}

// Run consumes until ctx is cancelled. Instances sharing a queue group split
// the stream, so each event is applied by one replica.
func (s *Subscriber) Run(ctx context.Context) error {
	sub, err := s.nc.QueueSubscribe(s.subject, s.queue, func(m *nats.Msg) {
		if err := s.d.Dispatch(ctx, m.Data); err != nil {
			log.Warn().Err(err).Str("subject", m.Subject).Msg("event dropped during shutdown")
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", s.subject, err)
	}
	if err := s.nc.Flush(); err != nil {
		return fmt.Errorf("flush subscription: %w", err)
	}
	log.Info().Str("subject", s.subject).Str("queue", s.queue).Msg("nats subscriber started")

	<-ctx.Done()
	if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		log.Warn().Err(err).Msg("nats unsubscribe failed")
	}
	return nil
}
