package sender

import (
	"context"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/eduardlon/torresbarber/pkg/domain/bot/keyboards"
	"github.com/eduardlon/torresbarber/pkg/domain/notify"
	"github.com/eduardlon/torresbarber/pkg/repository/model"
)

const (
	barWidth = 10

	DefaultEditsPerSecond = 1.0
)

var typeIcon = map[model.NotificationType]string{
	model.NotifySuccess: "✅",
	model.NotifyError:   "❌",
	model.NotifyWarning: "⚠️",
	model.NotifyInfo:    "ℹ️",
}

// Bar draws a countdown bar for progress in [0,100].
func Bar(progress float64) string {
	progress = max(0, min(100, progress))
	filled := bucket(progress)
	return strings.Repeat("▰", filled) + strings.Repeat("▱", barWidth-filled) + fmt.Sprintf(" %d%%", int(progress+0.5))
}

func bucket(progress float64) int {
	switch {
	case progress <= 0:
		return 0
	case progress >= 100:
		return barWidth
	}
	return int(progress*barWidth/100 + 0.5)
}

// Format renders a notification message. Sticky notifications carry no bar.
func Format(n model.Notification, progress float64, paused bool) string {
	var b strings.Builder
	b.WriteString(typeIcon[n.Type])
	b.WriteString(" ")
	b.WriteString(n.Title)
	if n.Message != "" {
		b.WriteString("\n")
		b.WriteString(n.Message)
	}
	if !n.Sticky() {
		b.WriteString("\n")
		b.WriteString(Bar(progress))
		if paused {
			b.WriteString(" ⏸")
		}
	}
	return b.String()
}

type poster interface {
	Send(text string, markup *tgbotapi.InlineKeyboardMarkup) (int, error)
	Edit(messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) error
	Delete(messageID int) error
}

type opKind int

const (
	opAdd opKind = iota
	opRemove
	opEdit
)

type op struct {
	kind   opKind
	id     string
	sample notify.Sample
}

type posted struct {
	n          model.Notification
	msgID      int
	bucket     int
	paused     bool
	editQueued bool
}

// Surface mirrors the notification list into the operator chat: one message
// per notification, deleted on removal, with a progress bar that is edited
// when it visibly changes. Telegram calls happen on the Run goroutine.
type Surface struct {
	out     poster
	limiter *rate.Limiter
	logger  zerolog.Logger

	mu     sync.Mutex
	posted map[string]*posted
	queue  []op
	signal chan struct{}
}

func NewSurface(out poster, editsPerSecond float64, logger zerolog.Logger) *Surface {
	if editsPerSecond <= 0 {
		editsPerSecond = DefaultEditsPerSecond
	}
	return &Surface{
		out:     out,
		limiter: rate.NewLimiter(rate.Limit(editsPerSecond), 1),
		logger:  logger.With().Str("component", "surface").Logger(),
		posted:  make(map[string]*posted),
		signal:  make(chan struct{}, 1),
	}
}

func (s *Surface) Added(n model.Notification) {
	s.mu.Lock()
	s.posted[n.ID] = &posted{n: n, bucket: barWidth}
	s.queue = append(s.queue, op{kind: opAdd, id: n.ID})
	s.mu.Unlock()
	s.wake()
}

func (s *Surface) Removed(id string) {
	s.mu.Lock()
	if _, ok := s.posted[id]; !ok {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, op{kind: opRemove, id: id})
	s.mu.Unlock()
	s.wake()
}

func (s *Surface) Tick(samples []notify.Sample) {
	queued := false
	s.mu.Lock()
	for _, smp := range samples {
		p, ok := s.posted[smp.ID]
		if !ok || p.msgID == 0 || p.editQueued || smp.Sticky {
			continue
		}
		if bucket(smp.Progress) == p.bucket && smp.Paused == p.paused {
			continue
		}
		p.editQueued = true
		s.queue = append(s.queue, op{kind: opEdit, id: smp.ID, sample: smp})
		queued = true
	}
	s.mu.Unlock()
	if queued {
		s.wake()
	}
}

func (s *Surface) wake() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// Run performs queued Telegram calls until ctx ends.
func (s *Surface) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.signal:
			s.drain(ctx)
		}
	}
}

func (s *Surface) drain(ctx context.Context) {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		o := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		s.apply(ctx, o)
	}
}

func (s *Surface) apply(ctx context.Context, o op) {
	s.mu.Lock()
	p, ok := s.posted[o.id]
	s.mu.Unlock()
	if !ok {
		return
	}

	switch o.kind {
	case opAdd:
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}
		kb := keyboards.NotificationMenu(o.id, false)
		msgID, err := s.out.Send(Format(p.n, 100, false), &kb)
		if err != nil {
			s.logger.Warn().Err(err).Str("id", o.id).Msg("post notification")
			return
		}
		s.mu.Lock()
		p.msgID = msgID
		s.mu.Unlock()

	case opRemove:
		s.mu.Lock()
		delete(s.posted, o.id)
		s.mu.Unlock()
		if p.msgID == 0 {
			return
		}
		if err := s.out.Delete(p.msgID); err != nil {
			s.logger.Warn().Err(err).Str("id", o.id).Msg("delete notification message")
		}

	case opEdit:
		// Skipped edits are retried by the next tick since the bucket is unchanged.
		if !s.limiter.Allow() {
			s.mu.Lock()
			p.editQueued = false
			s.mu.Unlock()
			return
		}
		kb := keyboards.NotificationMenu(o.id, o.sample.Paused)
		err := s.out.Edit(p.msgID, Format(p.n, o.sample.Progress, o.sample.Paused), &kb)
		s.mu.Lock()
		p.editQueued = false
		if err == nil {
			p.bucket = bucket(o.sample.Progress)
			p.paused = o.sample.Paused
		}
		s.mu.Unlock()
		if err != nil {
			s.logger.Debug().Err(err).Str("id", o.id).Msg("edit notification message")
		}
	}
}

// Posted reports how many notifications currently have a chat message.
func (s *Surface) Posted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posted)
}
