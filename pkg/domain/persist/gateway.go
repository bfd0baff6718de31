// Package persist mirrors the long-lived part of the store (session, auth flag,
// settings) to durable storage and reads it back once at startup. Turns,
// notifications and UI flags are never written.
package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduardlon/torresbarber/pkg/domain/store"
	"github.com/eduardlon/torresbarber/pkg/utils/errs"
)

const (
	DefaultKey = "torresbarber-storage"
	Version    = 1
)

var (
	ErrNotFound        = errors.New("persisted state not found")
	ErrVersionMismatch = errors.New("persisted state version mismatch")
)

// Storage is a durable key/value slot.
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

type envelope struct {
	State   store.Persisted `json:"state"`
	Version int             `json:"version"`
}

func Encode(p store.Persisted) ([]byte, error) {
	return json.Marshal(envelope{State: p, Version: Version})
}

func Decode(data []byte) (store.Persisted, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return store.Persisted{}, err
	}
	if env.Version != Version {
		return store.Persisted{}, errs.New("unsupported version").Arg("version", env.Version).Wrap(ErrVersionMismatch)
	}
	return env.State, nil
}

// Gateway writes the persisted subset after every committed mutation. Writes
// happen on the Run goroutine, latest snapshot wins; failures are logged and
// the store keeps working in memory.
type Gateway struct {
	storage Storage
	key     string
	timeout time.Duration
	logger  zerolog.Logger

	mu      sync.Mutex
	last    []byte
	pending []byte
	signal  chan struct{}
}

func NewGateway(storage Storage, key string, logger zerolog.Logger) *Gateway {
	if key == "" {
		key = DefaultKey
	}
	return &Gateway{
		storage: storage,
		key:     key,
		timeout: 3 * time.Second,
		logger:  logger.With().Str("component", "persist").Logger(),
		signal:  make(chan struct{}, 1),
	}
}

// Rehydrate loads the stored subset. It reports false when nothing usable is stored.
func (g *Gateway) Rehydrate(ctx context.Context) (store.Persisted, bool) {
	data, err := g.storage.Load(ctx, g.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			g.logger.Debug().Str("key", g.key).Msg("no persisted state")
		} else {
			g.logger.Warn().Err(err).Str("key", g.key).Msg("load persisted state")
		}
		return store.Persisted{}, false
	}
	p, err := Decode(data)
	if err != nil {
		errs.Log(g.logger.Warn(), err).Str("key", g.key).Msg("discarding persisted state")
		return store.Persisted{}, false
	}

	g.mu.Lock()
	g.last, _ = Encode(p)
	g.mu.Unlock()
	g.logger.Info().Bool("authenticated", p.IsAuthenticated).Msg("state rehydrated")
	return p, true
}

// Attach subscribes the gateway to every commit of s.
func (g *Gateway) Attach(s *store.Store) (cancel func()) {
	return s.Subscribe(g.Mirror)
}

// Mirror is a store.Listener. It only queues the encoded subset when it changed.
func (g *Gateway) Mirror(_, next store.State) {
	data, err := Encode(next.PersistedSubset())
	if err != nil {
		g.logger.Error().Err(err).Msg("encode persisted state")
		return
	}

	g.mu.Lock()
	if bytes.Equal(data, g.last) {
		g.mu.Unlock()
		return
	}
	g.last = data
	g.pending = data
	g.mu.Unlock()

	select {
	case g.signal <- struct{}{}:
	default:
	}
}

// Flush writes the pending subset, if any.
func (g *Gateway) Flush(ctx context.Context) error {
	g.mu.Lock()
	data := g.pending
	g.pending = nil
	g.mu.Unlock()
	if data == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	if err := g.storage.Save(ctx, g.key, data); err != nil {
		g.mu.Lock()
		// Force the next mutation to write again.
		g.last = nil
		g.mu.Unlock()
		g.logger.Warn().Err(err).Str("key", g.key).Msg("persist state failed, continuing in memory")
		return err
	}
	g.logger.Trace().Int("bytes", len(data)).Msg("state persisted")
	return nil
}

// Run flushes queued writes until ctx ends, then performs a final flush.
func (g *Gateway) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			_ = g.Flush(context.Background())
			return nil
		case <-g.signal:
			_ = g.Flush(ctx)
		}
	}
}
