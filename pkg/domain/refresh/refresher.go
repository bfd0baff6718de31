// Package refresh keeps the store's turn collection in step with the backend.
package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduardlon/torresbarber/pkg/domain/store"
	"github.com/eduardlon/torresbarber/pkg/repository/model"
	"github.com/eduardlon/torresbarber/pkg/utils/clock"
	"github.com/eduardlon/torresbarber/pkg/utils/errs"
)

const minInterval = 5 * time.Second

type TurnSource interface {
	ListTurns(ctx context.Context) ([]model.Turn, error)
}

type Notifier interface {
	Error(title, msg string)
}

type Refresher struct {
	store    *store.Store
	source   TurnSource
	notifier Notifier
	clock    clock.Clock
	logger   zerolog.Logger

	// serializes overlapping refreshes (timer + /sync)
	mu sync.Mutex
}

func New(s *store.Store, src TurnSource, n Notifier, c clock.Clock, logger zerolog.Logger) *Refresher {
	if c == nil {
		c = clock.Real()
	}
	return &Refresher{
		store:    s,
		source:   src,
		notifier: n,
		clock:    c,
		logger:   logger.With().Str("component", "refresh").Logger(),
	}
}

// Refresh replaces the store's turns with the backend's list and stamps the sync time.
// A list that arrives after the session ended is dropped.
func (r *Refresher) Refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.store.SetLoading(true)
	defer r.store.SetLoading(false)

	epoch := r.store.SessionEpoch()
	turns, err := r.source.ListTurns(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("refresh failed")
		r.notifier.Error("Error al sincronizar", "No se pudieron cargar los turnos")
		return errs.New("failed to list turns").Wrap(err)
	}
	if !r.store.ApplySync(epoch, turns) {
		r.logger.Debug().Msg("session changed during refresh, result discarded")
		return nil
	}
	r.logger.Debug().Int("turns", len(turns)).Msg("turns refreshed")
	return nil
}

// Interval reads the refresh period from the current settings.
func (r *Refresher) Interval() time.Duration {
	d := time.Duration(r.store.Settings().RefreshInterval) * time.Second
	if d < minInterval {
		d = minInterval
	}
	return d
}

// Run refreshes immediately and then once per interval while auto-refresh is
// enabled. Settings are re-read each round, so toggling takes effect on the next one.
func (r *Refresher) Run(ctx context.Context) error {
	wake := make(chan struct{}, 1)
	for {
		if r.store.Settings().AutoRefresh && r.store.IsAuthenticated() {
			_ = r.Refresh(ctx)
		}

		t := r.clock.AfterFunc(r.Interval(), func() {
			select {
			case wake <- struct{}{}:
			default:
			}
		})
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-wake:
		}
	}
}
