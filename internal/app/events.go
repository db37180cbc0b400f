package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"kos_service/internal/adapters/observability"
	"kos_service/internal/domain"
)

// Outcomes reported for every consumed event.
const (
	OutcomeOK       = "ok"
	OutcomeInvalid  = "invalid"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// EventConsumer applies rental-created events to listings.
// Every message is acknowledged: failures are logged and counted, never retried here.
type EventConsumer struct {
	cmd       *CommandService
	transport string
	sem       *semaphore.Weighted
	wg        sync.WaitGroup
}

func NewEventConsumer(cmd *CommandService, transport string, workers int) *EventConsumer {
	if workers <= 0 {
		workers = 1
	}
	return &EventConsumer{cmd: cmd, transport: transport, sem: semaphore.NewWeighted(int64(workers))}
}

// Dispatch handles body on its own goroutine, blocking while all workers are busy.
// It returns an error only when ctx is cancelled before a worker frees up.
func (c *EventConsumer) Dispatch(ctx context.Context, body []byte) error {
	// acquire before launching the goroutine; release inside it
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.sem.Release(1)
		c.Handle(context.WithoutCancel(ctx), body)
	}()
	return nil
}

// Wait blocks until every dispatched event has been handled.
func (c *EventConsumer) Wait() { c.wg.Wait() }

// Handle decodes and applies a single event, returning the outcome label.
func (c *EventConsumer) Handle(ctx context.Context, body []byte) string {
	outcome := c.handle(ctx, body)
	observability.ObserveEvent(c.transport, outcome)
	return outcome
}

func (c *EventConsumer) handle(ctx context.Context, body []byte) string {
	var evt domain.RentalCreatedEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		log.Warn().Err(err).Int("bytes", len(body)).Msg("rental event: undecodable payload dropped")
		return OutcomeInvalid
	}
	if _, err := uuid.Parse(evt.KosID); err != nil {
		log.Warn().Str("kos_id", evt.KosID).Str("rental_id", evt.RentalID).Msg("rental event: malformed kos id dropped")
		return OutcomeInvalid
	}

	k, err := c.cmd.AdjustOccupancy(ctx, evt.KosID, 1)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		log.Warn().Str("kos_id", evt.KosID).Str("rental_id", evt.RentalID).Msg("rental event: kos not found, acknowledged")
		return OutcomeNotFound
	case err != nil:
		log.Error().Err(err).Str("kos_id", evt.KosID).Str("rental_id", evt.RentalID).Msg("rental event: occupancy update failed")
		return OutcomeError
	}
	log.Info().
		Str("kos_id", k.ID).
		Str("rental_id", evt.RentalID).
		Str("user_id", evt.UserID).
		Int("occupied_rooms", k.OccupiedRooms).
		Msg("rental event applied")
	return OutcomeOK
}
