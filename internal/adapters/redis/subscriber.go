package redisad

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Dispatcher accepts one raw event body.
type Dispatcher interface {
	Dispatch(ctx context.Context, body []byte) error
}

func NewClient(addr, pass string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
}

// Subscriber consumes rental events from a Redis pub/sub channel.
// Pub/sub is fire-and-forget: events published while no subscriber is
// connected are lost.
type Subscriber struct {
	c       *redis.Client
	channel string
	d       Dispatcher
}

func NewSubscriber(c *redis.Client, channel string, d Dispatcher) *Subscriber {
	return &Subscriber{c: c, channel: channel, d: d}
}

// Run blocks until ctx is cancelled or the subscription breaks.
func (s *Subscriber) Run(ctx context.Context) error {
	ps := s.c.Subscribe(ctx, s.channel)
	defer ps.Close()

	// wait for the subscription confirmation so publishers after Run starts are seen
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", s.channel, err)
	}
	log.Info().Str("channel", s.channel).Msg("redis subscriber started")

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return fmt.Errorf("redis channel %s closed", s.channel)
			}
			if err := s.d.Dispatch(ctx, []byte(m.Payload)); err != nil {
				log.Warn().Err(err).Str("channel", m.Channel).Msg("event dropped during shutdown")
			}
		}
	}
}
