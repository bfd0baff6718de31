package keyboards

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/eduardlon/torresbarber/pkg/repository/model"
)

// ---------- Callback keys ----------

const (
	CbLogin    = "login"
	CbMain     = "main"
	CbQueue    = "queue"
	CbAdd      = "add"
	CbSettings = "settings"
	CbHelp     = "help"
	CbBack     = "back"
	CbOk       = "confirm"
	CbSync     = "sync"
	CbUnfocus  = "unfocus"
	CbDetails  = "details"

	PStart  = "ts:"  // ts:<turn id>
	PFinish = "tf:"  // tf:<turn id>
	PCancel = "tc:"  // tc:<turn id>
	PFocus  = "ta:"  // ta:<turn id>
	PRemove = "tr:"  // tr:<turn id>
	PSvc    = "svc:" // svc:haircut
	PHold   = "nh:"  // nh:<notification id>
	PClose  = "nc:"  // nc:<notification id>
	PSet    = "set:" // set:notifications
)

const (
	SetNotifications = "notifications"
	SetSound         = "sound"
	SetAutoRefresh   = "autorefresh"
	SetTheme         = "theme"
)

func Is(k, prefix string) (string, bool) {
	if strings.HasPrefix(k, prefix) {
		return strings.TrimPrefix(k, prefix), true
	}
	return "", false
}

func back() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ Atrás", CbBack))
}

// ---------- UI builders ----------

func StartMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("EMPEZAR", CbLogin)),
	)
}

func MainMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("💈 Cola de turnos", CbQueue)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("➕ Nuevo turno", CbAdd)),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Sincronizar", CbSync),
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Ajustes", CbSettings),
		),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("❓ Ayuda", CbHelp)),
	)
}

// QueueMenu shows one row per open turn with the actions its status allows.
func QueueMenu(open []model.Turn, activeID string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(open)+2)
	for _, t := range open {
		label := t.ClientName
		if t.ID == activeID {
			label = "⭐ " + label
		}
		var row []tgbotapi.InlineKeyboardButton
		switch t.Status {
		case model.TurnWaiting:
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("▶️ "+label, PStart+t.ID))
		case model.TurnInProgress:
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("✅ "+label, PFinish+t.ID))
		default:
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, PFocus+t.ID))
		}
		if t.ID != activeID {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("⭐", PFocus+t.ID))
		}
		row = append(row,
			tgbotapi.NewInlineKeyboardButtonData("✖️", PCancel+t.ID),
			tgbotapi.NewInlineKeyboardButtonData("🗑", PRemove+t.ID),
		)
		rows = append(rows, row)
	}
	if activeID != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("☆ Quitar foco", CbUnfocus)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("➕ Nuevo turno", CbAdd),
		tgbotapi.NewInlineKeyboardButtonData("📋", CbDetails),
		tgbotapi.NewInlineKeyboardButtonData("🔄", CbSync),
	))
	rows = append(rows, back())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func ServiceMenu(catalog []model.Service) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(catalog)/2+2)
	var row []tgbotapi.InlineKeyboardButton
	for _, s := range catalog {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(s.Title, PSvc+s.Key))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, back())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func ConfirmMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("✅ Confirmar", CbOk)),
		back(),
	)
}

func SettingsMenu(s model.Settings) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(onOff("🔔 Notificaciones", s.NotificationsEnabled), PSet+SetNotifications)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(onOff("🔊 Sonido", s.SoundEnabled), PSet+SetSound)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(onOff("🔄 Auto-actualizar", s.AutoRefresh), PSet+SetAutoRefresh)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🎨 Tema: "+s.Theme, PSet+SetTheme)),
		back(),
	)
}

func BackOnly() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(back())
}

// NotificationMenu is attached to every notification message.
func NotificationMenu(id string, paused bool) tgbotapi.InlineKeyboardMarkup {
	hold := "⏸ Pausar"
	if paused {
		hold = "▶️ Seguir"
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(hold, PHold+id),
			tgbotapi.NewInlineKeyboardButtonData("✖️ Cerrar", PClose+id),
		),
	)
}

func onOff(label string, on bool) string {
	if on {
		return label + ": sí"
	}
	return label + ": no"
}
