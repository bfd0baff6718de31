package receiver

import (
	"context"
	"errors"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/eduardlon/torresbarber/pkg/domain/bot/keyboards"
	"github.com/eduardlon/torresbarber/pkg/domain/notify"
	"github.com/eduardlon/torresbarber/pkg/domain/queue"
	"github.com/eduardlon/torresbarber/pkg/domain/store"
	"github.com/eduardlon/torresbarber/pkg/repository/model"
	"github.com/eduardlon/torresbarber/pkg/utils/clock"
)

const reminderTTL = 5 * time.Second

// API is the part of *tgbotapi.BotAPI the handler talks to.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Syncer interface {
	Refresh(ctx context.Context) error
}

type Deps struct {
	Store    *store.Store
	Queue    *queue.Manager
	Center   *notify.Center
	Backend  model.TurnRepo // optional
	Syncer   Syncer         // optional
	Operator model.User
	Catalog  Catalog
	// AllowedChat restricts the bot to one chat when non-zero.
	AllowedChat int64
	Clock       clock.Clock
	Logger      zerolog.Logger
}

// Handler turns Telegram updates into store operations and re-renders the
// operator's screen after each one.
type Handler struct {
	api      API
	deps     Deps
	sessions *Sessions
	logger   zerolog.Logger
}

func NewHandler(api API, d Deps) *Handler {
	if d.Clock == nil {
		d.Clock = clock.Real()
	}
	return &Handler{
		api:      api,
		deps:     d,
		sessions: NewSessions(),
		logger:   d.Logger.With().Str("component", "receiver").Logger(),
	}
}

func (h *Handler) Sessions() *Sessions { return h.sessions }

// Run consumes updates until ctx ends or the channel is closed.
func (h *Handler) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			h.Handle(ctx, upd)
		}
	}
}

func (h *Handler) Handle(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.Message != nil:
		if !h.allowed(upd.Message.Chat.ID) {
			return
		}
		h.handleMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		cq := upd.CallbackQuery
		if cq.Message == nil || !h.allowed(cq.Message.Chat.ID) {
			h.answer(cq.ID, "")
			return
		}
		h.handleCallback(ctx, cq)
	}
}

func (h *Handler) allowed(chatID int64) bool {
	if h.deps.AllowedChat != 0 && chatID != h.deps.AllowedChat {
		h.logger.Warn().Int64("chat", chatID).Msg("update from foreign chat ignored")
		return false
	}
	return true
}

func (h *Handler) handleMessage(ctx context.Context, m *tgbotapi.Message) {
	chatID := m.Chat.ID
	sess := h.sessions.Get(chatID)

	if m.IsCommand() {
		switch m.Command() {
		case "start":
			if _, err := h.api.Request(tgbotapi.NewDeleteMessage(chatID, m.MessageID)); err != nil {
				h.logger.Warn().Err(err).Msg("delete /start failed")
			}
			h.login(sess)
		case "logout":
			h.logout()
		case "queue":
			if !h.requireAuth(chatID) {
				return
			}
			sess.Go(StateQueue)
		case "add":
			if !h.requireAuth(chatID) {
				return
			}
			sess.Draft = AdmitData{}
			sess.Go(StateAdmitName)
		case "sync":
			if !h.requireAuth(chatID) {
				return
			}
			h.sync(ctx)
			sess.Go(StateQueue)
		case "help":
			sess.Go(StateHelp)
		default:
			h.remind(chatID, m.MessageID)
			return
		}
		h.sendScreen(chatID, sess)
		return
	}

	if sess.State == StateAdmitName && h.deps.Store.IsAuthenticated() {
		name := strings.TrimSpace(m.Text)
		if name == "" {
			h.remind(chatID, m.MessageID)
			return
		}
		sess.Draft.Name = name
		sess.Go(StateAdmitService)
		h.sendScreen(chatID, sess)
		return
	}

	// Любой произвольный текст: удаляем и напоминаем
	h.remind(chatID, m.MessageID)
}

func (h *Handler) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	data := cq.Data
	chatID := cq.Message.Chat.ID
	sess := h.sessions.Get(chatID)

	// Notification buttons belong to the notification message, not the screen.
	if id, ok := keyboards.Is(data, keyboards.PHold); ok {
		h.deps.Center.Toggle(id)
		h.answer(cq.ID, "")
		return
	}
	if id, ok := keyboards.Is(data, keyboards.PClose); ok {
		h.deps.Center.Close(id)
		h.answer(cq.ID, "")
		return
	}

	if data == keyboards.CbLogin {
		h.login(sess)
		h.editScreen(cq, sess, "")
		return
	}
	if !h.deps.Store.IsAuthenticated() {
		sess.State = StateStart
		h.editScreen(cq, sess, "Inicia sesión con /start")
		return
	}

	notice := ""
	switch {
	case data == keyboards.CbMain:
		sess.Go(StateMain)
	case data == keyboards.CbQueue:
		sess.Go(StateQueue)
	case data == keyboards.CbAdd:
		sess.Draft = AdmitData{}
		sess.Go(StateAdmitName)
	case data == keyboards.CbSettings:
		sess.Go(StateSettings)
	case data == keyboards.CbHelp:
		sess.Go(StateHelp)
	case data == keyboards.CbBack:
		sess.Back()
	case data == keyboards.CbSync:
		h.sync(ctx)
	case data == keyboards.CbUnfocus:
		h.deps.Queue.Unfocus()
	case data == keyboards.CbDetails:
		h.deps.Store.ToggleSidebar()

	case strings.HasPrefix(data, keyboards.PSvc):
		val, _ := keyboards.Is(data, keyboards.PSvc)
		if _, ok := h.deps.Catalog.Find(val); !ok {
			notice = "Servicio desconocido"
			break
		}
		sess.Draft.Service = val
		sess.Go(StateAdmitConfirm)

	case data == keyboards.CbOk:
		notice = h.admit(ctx, sess)

	case strings.HasPrefix(data, keyboards.PStart):
		id, _ := keyboards.Is(data, keyboards.PStart)
		notice = h.transition(ctx, id, model.TurnInProgress)
	case strings.HasPrefix(data, keyboards.PFinish):
		id, _ := keyboards.Is(data, keyboards.PFinish)
		notice = h.transition(ctx, id, model.TurnCompleted)
	case strings.HasPrefix(data, keyboards.PCancel):
		id, _ := keyboards.Is(data, keyboards.PCancel)
		notice = h.transition(ctx, id, model.TurnCancelled)
	case strings.HasPrefix(data, keyboards.PRemove):
		id, _ := keyboards.Is(data, keyboards.PRemove)
		notice = h.remove(ctx, id)
	case strings.HasPrefix(data, keyboards.PFocus):
		id, _ := keyboards.Is(data, keyboards.PFocus)
		if !h.deps.Queue.Focus(id) {
			notice = "El turno ya no existe"
		}

	case strings.HasPrefix(data, keyboards.PSet):
		key, _ := keyboards.Is(data, keyboards.PSet)
		h.toggleSetting(key)
	}

	h.editScreen(cq, sess, notice)
}

func (h *Handler) login(sess *Session) {
	h.deps.Store.Login(h.deps.Operator)
	sess.ResetFlow()
	h.logger.Info().Str("user", h.deps.Operator.ID).Msg("operator logged in")
}

func (h *Handler) logout() {
	h.deps.Store.Logout()
	h.deps.Center.Reconcile()
	h.sessions.Reset()
	h.logger.Info().Msg("operator logged out")
}

func (h *Handler) requireAuth(chatID int64) bool {
	if h.deps.Store.IsAuthenticated() {
		return true
	}
	h.send(tgbotapi.NewMessage(chatID, "Inicia sesión con /start"))
	return false
}

func (h *Handler) sync(ctx context.Context) {
	if h.deps.Syncer == nil {
		return
	}
	if err := h.deps.Syncer.Refresh(ctx); err == nil {
		h.deps.Center.Success("Sincronizado", "La cola está al día")
	}
}

func (h *Handler) admit(ctx context.Context, sess *Session) string {
	if sess.Draft.Name == "" || sess.Draft.Service == "" {
		sess.ResetFlow()
		return "Faltan datos del turno"
	}
	svc, _ := h.deps.Catalog.Find(sess.Draft.Service)
	t := h.deps.Queue.Admit(queue.AdmitInput{
		ClientName:    sess.Draft.Name,
		Service:       svc.Key,
		EstimatedTime: svc.Minutes,
	})
	if h.deps.Backend != nil {
		if err := h.deps.Backend.CreateTurn(ctx, t); err != nil {
			h.logger.Error().Err(err).Str("turn", t.ID).Msg("create turn in backend")
			h.deps.Center.Error("Error al guardar", "El turno solo existe en esta recepción")
		}
	}
	h.deps.Center.Success("Turno agregado", t.ClientName+" · "+svc.Title)

	sess.ResetFlow()
	sess.Go(StateQueue)
	return ""
}

func (h *Handler) transition(ctx context.Context, id string, to model.TurnStatus) string {
	var err error
	switch to {
	case model.TurnInProgress:
		_, err = h.deps.Queue.Start(id)
	case model.TurnCompleted:
		_, err = h.deps.Queue.Finish(id)
	case model.TurnCancelled:
		_, err = h.deps.Queue.Cancel(id)
	default:
		_, err = h.deps.Queue.Transition(id, to)
	}
	switch {
	case errors.Is(err, store.ErrTurnNotFound):
		return "El turno ya no existe"
	case errors.Is(err, store.ErrIllegalTransition):
		return "Cambio de estado no permitido"
	case err != nil:
		return "Error inesperado"
	}

	if h.deps.Backend != nil {
		if err := h.deps.Backend.UpdateTurnStatus(ctx, id, to); err != nil {
			h.logger.Error().Err(err).Str("turn", id).Str("status", string(to)).Msg("update turn in backend")
			h.deps.Center.Error("Error al guardar", "El cambio no llegó al servidor")
		}
	}
	return ""
}

// remove drops a turn entered by mistake, locally and in the backend.
func (h *Handler) remove(ctx context.Context, id string) string {
	if !h.deps.Queue.Remove(id) {
		return "El turno ya no existe"
	}
	if h.deps.Backend != nil {
		if err := h.deps.Backend.DeleteTurn(ctx, id); err != nil && !errors.Is(err, store.ErrTurnNotFound) {
			h.logger.Error().Err(err).Str("turn", id).Msg("delete turn in backend")
			h.deps.Center.Error("Error al guardar", "El turno sigue en el servidor")
		}
	}
	return "Turno eliminado"
}

var themes = []string{"light", "dark", "system"}

func (h *Handler) toggleSetting(key string) {
	cur := h.deps.Store.Settings()
	var p model.SettingsPatch
	switch key {
	case keyboards.SetNotifications:
		v := !cur.NotificationsEnabled
		p.NotificationsEnabled = &v
	case keyboards.SetSound:
		v := !cur.SoundEnabled
		p.SoundEnabled = &v
	case keyboards.SetAutoRefresh:
		v := !cur.AutoRefresh
		p.AutoRefresh = &v
	case keyboards.SetTheme:
		next := themes[0]
		for i, t := range themes {
			if t == cur.Theme {
				next = themes[(i+1)%len(themes)]
			}
		}
		p.Theme = &next
	default:
		return
	}
	h.deps.Store.UpdateSettings(p)
}

func (h *Handler) view() View {
	return View{
		State:   h.deps.Store.Snapshot(),
		Open:    h.deps.Queue.Open(),
		Catalog: h.deps.Catalog,
	}
}

func (h *Handler) sendScreen(chatID int64, sess *Session) {
	v := h.view()
	msg := tgbotapi.NewMessage(chatID, RenderText(sess, v))
	msg.ReplyMarkup = RenderKeyboard(sess, v)
	h.send(msg)
}

// editScreen redraws the screen in place and answers the callback.
func (h *Handler) editScreen(cq *tgbotapi.CallbackQuery, sess *Session, notice string) {
	v := h.view()
	edit := tgbotapi.NewEditMessageTextAndMarkup(
		cq.Message.Chat.ID, cq.Message.MessageID, RenderText(sess, v), RenderKeyboard(sess, v),
	)
	if _, err := h.api.Send(edit); err != nil && !isNotModified(err) {
		h.logger.Warn().Err(err).Msg("edit screen")
	}
	h.answer(cq.ID, notice)
}

func (h *Handler) answer(callbackID, text string) {
	// Гасим "часики"
	if _, err := h.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		h.logger.Debug().Err(err).Msg("answer callback")
	}
}

func (h *Handler) send(c tgbotapi.Chattable) {
	if _, err := h.api.Send(c); err != nil {
		h.logger.Warn().Err(err).Msg("send message")
	}
}

func (h *Handler) remind(chatID int64, messageID int) {
	_, _ = h.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID))

	sent, err := h.api.Send(tgbotapi.NewMessage(chatID, "Por favor, usa los botones 👆"))
	if err != nil {
		h.logger.Warn().Err(err).Msg("send reminder")
		return
	}
	h.deps.Clock.AfterFunc(reminderTTL, func() {
		_, _ = h.api.Request(tgbotapi.NewDeleteMessage(chatID, sent.MessageID))
	})
}

func isNotModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}
