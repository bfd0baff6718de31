package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eduardlon/torresbarber/pkg/domain/store"
	"github.com/eduardlon/torresbarber/pkg/repository/model"
	"github.com/eduardlon/torresbarber/pkg/utils/clock"
)

const (
	DefaultDuration = 5 * time.Second
	DefaultTick     = 50 * time.Millisecond
)

// Input is what producers hand to Notify. A nil Duration means DefaultDuration;
// zero means sticky.
type Input struct {
	Type     model.NotificationType
	Title    string
	Message  string
	Duration *time.Duration
}

// Sample is the rendered countdown state of one visible notification.
type Sample struct {
	ID        string
	Progress  float64
	Remaining time.Duration
	Paused    bool
	Sticky    bool
}

// Observer renders notifications. Calls may arrive from timer goroutines.
type Observer interface {
	Added(n model.Notification)
	Removed(id string)
	Tick(samples []Sample)
}

type entry struct {
	countdown *Countdown
	timer     clock.Timer
	gen       int
}

// Center drives the lifecycle of notifications kept in the store: insertion,
// capacity eviction, countdown, pause/resume and removal. The store stays
// authoritative; entries only hold timer bookkeeping.
type Center struct {
	mu        sync.Mutex
	entries   map[string]*entry
	observers []Observer

	store    *store.Store
	clock    clock.Clock
	logger   zerolog.Logger
	duration time.Duration
	tick     time.Duration
}

type Option func(*Center)

func WithClock(c clock.Clock) Option { return func(n *Center) { n.clock = c } }

func WithLogger(l zerolog.Logger) Option {
	return func(n *Center) { n.logger = l.With().Str("component", "notify").Logger() }
}

func WithDefaultDuration(d time.Duration) Option {
	return func(n *Center) {
		if d >= 0 {
			n.duration = d
		}
	}
}

func WithTick(d time.Duration) Option {
	return func(n *Center) {
		if d > 0 {
			n.tick = d
		}
	}
}

func NewCenter(s *store.Store, opts ...Option) *Center {
	c := &Center{
		entries:  make(map[string]*entry),
		store:    s,
		clock:    clock.Real(),
		logger:   zerolog.Nop(),
		duration: DefaultDuration,
		tick:     DefaultTick,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe adds a rendering observer.
func (c *Center) Subscribe(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// Notify is the fire-and-forget producer used across the application.
func (c *Center) Notify(in Input) {
	d := c.duration
	if in.Duration != nil {
		d = *in.Duration
	}
	c.Add(in.Type, in.Title, in.Message, d)
}

func (c *Center) Success(title, msg string) { c.Notify(Input{Type: model.NotifySuccess, Title: title, Message: msg}) }
func (c *Center) Info(title, msg string)    { c.Notify(Input{Type: model.NotifyInfo, Title: title, Message: msg}) }
func (c *Center) Warning(title, msg string) { c.Notify(Input{Type: model.NotifyWarning, Title: title, Message: msg}) }
func (c *Center) Error(title, msg string)   { c.Notify(Input{Type: model.NotifyError, Title: title, Message: msg}) }

// Add inserts a notification and arms its expiry. Negative durations are
// treated as sticky. It returns the generated id, or "" when notifications are
// disabled for this type.
func (c *Center) Add(typ model.NotificationType, title, message string, d time.Duration) string {
	if !c.store.Settings().NotificationsEnabled && typ != model.NotifyError {
		c.logger.Debug().Str("title", title).Msg("notifications disabled, dropped")
		return ""
	}
	if d < 0 {
		c.logger.Warn().Dur("duration", d).Str("title", title).Msg("negative duration, keeping notification sticky")
		d = 0
	}

	now := c.clock.Now()
	n := model.Notification{
		ID:        uuid.NewString(),
		Type:      typ,
		Title:     title,
		Message:   message,
		Duration:  d,
		CreatedAt: now,
	}

	c.mu.Lock()
	pruned := c.pruneLocked()
	evicted := c.store.AddNotification(n)
	for _, id := range evicted {
		c.dropLocked(id)
	}
	e := &entry{countdown: NewCountdown(d, now)}
	c.entries[n.ID] = e
	if d > 0 {
		c.armLocked(n.ID, e, d)
	}
	observers := c.observersLocked()
	c.mu.Unlock()

	c.logger.Debug().Str("id", n.ID).Str("type", string(typ)).Dur("duration", d).Msg("notification added")
	gone := append(pruned, evicted...)
	for _, o := range observers {
		for _, id := range gone {
			o.Removed(id)
		}
		o.Added(n)
	}
	return n.ID
}

// Reconcile drops bookkeeping for notifications the store no longer holds,
// e.g. after logout, and tells observers about them.
func (c *Center) Reconcile() int {
	c.mu.Lock()
	pruned := c.pruneLocked()
	observers := c.observersLocked()
	c.mu.Unlock()

	for _, o := range observers {
		for _, id := range pruned {
			o.Removed(id)
		}
	}
	return len(pruned)
}

// Pause freezes the countdown of id (pointer entered the surface).
func (c *Center) Pause(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok || !e.countdown.Pause(c.clock.Now()) {
		return false
	}
	c.disarmLocked(e)
	return true
}

// Resume restarts the countdown of id from the remaining time captured at pause.
func (c *Center) Resume(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	now := c.clock.Now()
	if !ok || !e.countdown.Resume(now) {
		return false
	}
	c.armLocked(id, e, e.countdown.Remaining(now))
	return true
}

// Toggle pauses a running countdown or resumes a paused one.
func (c *Center) Toggle(id string) bool {
	c.mu.Lock()
	e, ok := c.entries[id]
	paused := ok && e.countdown.Paused()
	c.mu.Unlock()
	if !ok {
		return false
	}
	if paused {
		return c.Resume(id)
	}
	return c.Pause(id)
}

// Dismiss removes id after a click on the notification body.
func (c *Center) Dismiss(id string) bool { return c.remove(id, "dismissed") }

// Close removes id through the dedicated close control.
func (c *Center) Close(id string) bool { return c.remove(id, "closed") }

// expire runs on the timer goroutine. A fire from a timer that has since been
// stopped or re-armed is dropped.
func (c *Center) expire(id string, e *entry, gen int) {
	c.removeIf(id, "expired", func() bool {
		return c.entries[id] == e && e.gen == gen && !e.countdown.Paused()
	})
}

// remove is idempotent: an id already gone is a no-op.
func (c *Center) remove(id, reason string) bool {
	return c.removeIf(id, reason, nil)
}

func (c *Center) removeIf(id, reason string, guard func() bool) bool {
	c.mu.Lock()
	if guard != nil && !guard() {
		c.mu.Unlock()
		return false
	}
	_, tracked := c.entries[id]
	c.dropLocked(id)
	removed := c.store.RemoveNotification(id) || tracked
	observers := c.observersLocked()
	c.mu.Unlock()

	if !removed {
		return false
	}
	c.logger.Debug().Str("id", id).Str("reason", reason).Msg("notification removed")
	for _, o := range observers {
		o.Removed(id)
	}
	return true
}

// Progress reports the countdown of a visible notification in [0,100].
func (c *Center) Progress(id string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok || !c.store.HasNotification(id) {
		return 0, false
	}
	return e.countdown.Progress(c.clock.Now()), true
}

// Sample returns the countdown state of every visible notification, most recent first.
func (c *Center) Sample() []Sample {
	now := c.clock.Now()
	visible := c.store.Notifications()

	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Sample, 0, len(visible))
	for _, n := range visible {
		e, ok := c.entries[n.ID]
		if !ok {
			continue
		}
		out = append(out, Sample{
			ID:        n.ID,
			Progress:  e.countdown.Progress(now),
			Remaining: e.countdown.Remaining(now),
			Paused:    e.countdown.Paused(),
			Sticky:    e.countdown.Sticky(),
		})
	}
	return out
}

// Run samples every tick and hands the samples to observers until ctx ends.
func (c *Center) Run(ctx context.Context) error {
	ticker := c.clock.NewTicker(c.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C():
			samples := c.Sample()
			c.mu.Lock()
			observers := c.observersLocked()
			c.mu.Unlock()
			for _, o := range observers {
				o.Tick(samples)
			}
		}
	}
}

// Tracked reports how many notifications hold timer bookkeeping.
func (c *Center) Tracked() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Center) armLocked(id string, e *entry, d time.Duration) {
	c.disarmLocked(e)
	gen := e.gen
	e.timer = c.clock.AfterFunc(d, func() { c.expire(id, e, gen) })
}

func (c *Center) disarmLocked(e *entry) {
	e.gen++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

func (c *Center) dropLocked(id string) {
	e, ok := c.entries[id]
	if !ok {
		return
	}
	c.disarmLocked(e)
	delete(c.entries, id)
}

// pruneLocked forgets entries the store no longer shows, e.g. after logout.
func (c *Center) pruneLocked() []string {
	var pruned []string
	for id := range c.entries {
		if !c.store.HasNotification(id) {
			c.dropLocked(id)
			pruned = append(pruned, id)
		}
	}
	return pruned
}

func (c *Center) observersLocked() []Observer {
	return append([]Observer(nil), c.observers...)
}
