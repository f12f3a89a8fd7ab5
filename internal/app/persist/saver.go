/*
Package persist moves room state between the in-memory directory and the
configured store: once at startup, periodically while running and once more
on shutdown. Failures are logged and never stop the server; memory stays
authoritative.
*/
package persist

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"poker/internal/app/store"
	"poker/internal/pkg/logx"
)

// DefaultInterval is used when no save interval is configured.
const DefaultInterval = 5 * time.Minute

// operationTimeout bounds a single load or save.
const operationTimeout = 30 * time.Second

// Rooms is the part of the room directory the saver needs.
type Rooms interface {
	Restore(records []store.RoomRecord) int
	Snapshot(ctx context.Context) ([]store.RoomRecord, error)
}

// Saver periodically writes room snapshots to a store.
type Saver struct {
	rooms    Rooms
	store    store.Store
	interval time.Duration
	clock    clockwork.Clock
	logger   zerolog.Logger
}

// NewSaver creates a saver. A nil clock means the real one.
func NewSaver(rooms Rooms, st store.Store, interval time.Duration, clock clockwork.Clock) *Saver {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Saver{
		rooms:    rooms,
		store:    st,
		interval: interval,
		clock:    clock,
		logger:   logx.Component("Saver"),
	}
}

// Restore loads the saved rooms into the directory and returns how many were
// created. A load failure is logged and leaves the directory empty.
func (s *Saver) Restore(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	records, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load saved rooms. Starting empty.")
		return 0
	}
	if len(records) == 0 {
		s.logger.Info().Msg("No saved rooms found.")
		return 0
	}

	return s.rooms.Restore(records)
}

// Save writes one snapshot of every room and reports the error, if any.
func (s *Saver) Save(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	records, err := s.rooms.Snapshot(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to snapshot rooms.")
		return err
	}

	if err := s.store.Save(ctx, records); err != nil {
		s.logger.Error().Err(err).Int("rooms", len(records)).Msg("Failed to save rooms.")
		return err
	}

	s.logger.Info().Int("rooms", len(records)).Msg("Rooms saved.")
	return nil
}

// Run saves every interval until ctx is cancelled.
func (s *Saver) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("Periodic save started.")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Periodic save stopped.")
			return
		case <-ticker.Chan():
			_ = s.Save(ctx)
		}
	}
}
