// Package connectivity turns backend reachability into store state and
// user-facing notifications.
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduardlon/torresbarber/pkg/domain/store"
	"github.com/eduardlon/torresbarber/pkg/repository/model"
	"github.com/eduardlon/torresbarber/pkg/utils/clock"
)

const (
	RestoredDuration = 3 * time.Second

	DefaultProbeInterval = 15 * time.Second
	DefaultProbeTimeout  = 5 * time.Second
)

type Notifier interface {
	Add(typ model.NotificationType, title, message string, d time.Duration) string
}

// Watcher remembers the last observed status so flapping reports of the
// same status do not produce duplicate notifications.
type Watcher struct {
	store    *store.Store
	notifier Notifier
	logger   zerolog.Logger

	mu        sync.Mutex
	wasOnline bool
}

func NewWatcher(s *store.Store, n Notifier, logger zerolog.Logger) *Watcher {
	return &Watcher{
		store:     s,
		notifier:  n,
		logger:    logger.With().Str("component", "connectivity").Logger(),
		wasOnline: s.Connectivity().IsOnline,
	}
}

// Observe records a status report. It returns true when the status changed.
func (w *Watcher) Observe(online bool) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.store.SetOnlineStatus(online)
	if online == w.wasOnline {
		return false
	}
	w.wasOnline = online

	if online {
		w.logger.Info().Msg("connection restored")
		w.notifier.Add(model.NotifySuccess, "Conexión restablecida", "Vuelves a estar en línea", RestoredDuration)
	} else {
		w.logger.Warn().Msg("connection lost")
		w.notifier.Add(model.NotifyWarning, "Sin conexión", "Se perdió la conexión con el servidor", 0)
	}
	return true
}

type PingFunc func(ctx context.Context) error

// Prober pings the backend on an interval and feeds the result to a Watcher.
type Prober struct {
	watcher  *Watcher
	ping     PingFunc
	clock    clock.Clock
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger
}

func NewProber(w *Watcher, ping PingFunc, c clock.Clock, interval time.Duration, logger zerolog.Logger) *Prober {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	if c == nil {
		c = clock.Real()
	}
	return &Prober{
		watcher:  w,
		ping:     ping,
		clock:    c,
		interval: interval,
		timeout:  DefaultProbeTimeout,
		logger:   logger.With().Str("component", "prober").Logger(),
	}
}

// Probe runs a single ping and reports whether the backend answered. A ping
// cut short by ctx being cancelled says nothing about the backend and is not
// observed.
func (p *Prober) Probe(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.ping(pingCtx)
	if ctx.Err() != nil {
		return false
	}
	if err != nil {
		p.logger.Debug().Err(err).Msg("ping failed")
	}
	online := err == nil
	p.watcher.Observe(online)
	return online
}

func (p *Prober) Run(ctx context.Context) error {
	t := p.clock.NewTicker(p.interval)
	defer t.Stop()

	p.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C():
			p.Probe(ctx)
		}
	}
}
