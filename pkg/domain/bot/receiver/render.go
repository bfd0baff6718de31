package receiver

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/eduardlon/torresbarber/pkg/domain/bot/keyboards"
	"github.com/eduardlon/torresbarber/pkg/domain/store"
	"github.com/eduardlon/torresbarber/pkg/repository/model"
)

// Catalog is the list of services offered at the front desk.
type Catalog []model.Service

func (c Catalog) Find(key string) (model.Service, bool) {
	for _, s := range c {
		if s.Key == key {
			return s, true
		}
	}
	return model.Service{}, false
}

func (c Catalog) Title(key string) string {
	if s, ok := c.Find(key); ok {
		return s.Title
	}
	return key
}

// View is everything a screen needs, read from one store snapshot.
type View struct {
	State   store.State
	Open    []model.Turn
	Catalog Catalog
}

var statusIcon = map[model.TurnStatus]string{
	model.TurnWaiting:    "⏳",
	model.TurnInProgress: "✂️",
	model.TurnCompleted:  "✅",
	model.TurnCancelled:  "✖️",
}

// ---------- Rendering по состоянию ----------

func RenderText(sess *Session, v View) string {
	switch sess.State {
	case StateStart:
		return "Pulsa EMPEZAR para abrir la recepción."
	case StateMain:
		name := ""
		if v.State.Session != nil {
			name = v.State.Session.Name
		}
		return fmt.Sprintf("Recepción de %s. Elige una acción:", name)
	case StateQueue:
		return renderQueue(v)
	case StateAdmitName:
		return "Escribe el nombre del cliente:"
	case StateAdmitService:
		return fmt.Sprintf("Cliente: %s\nElige el servicio:", sess.Draft.Name)
	case StateAdmitConfirm:
		svc, _ := v.Catalog.Find(sess.Draft.Service)
		return fmt.Sprintf("Revisa el turno:\nCliente: %s\nServicio: %s\nTiempo estimado: %d min",
			sess.Draft.Name, v.Catalog.Title(sess.Draft.Service), svc.Minutes)
	case StateSettings:
		return "Ajustes de la recepción:"
	case StateHelp:
		return "Comandos:\n/start - abrir sesión\n/queue - ver la cola\n/add - nuevo turno\n/sync - sincronizar\n/logout - cerrar sesión"
	default:
		return "Menú"
	}
}

func renderQueue(v View) string {
	var b strings.Builder
	stats := v.State.Stats()
	b.WriteString("Cola de turnos\n")
	fmt.Fprintf(&b, "En espera: %d · En curso: %d · Completados: %d · Cancelados: %d\n",
		stats.Waiting(), stats.InProgress(), stats.Completed(), stats.Cancelled())
	if !v.State.Connectivity.IsOnline {
		b.WriteString("⚠️ Sin conexión\n")
	}
	if last := v.State.Connectivity.LastSync; !last.IsZero() {
		fmt.Fprintf(&b, "Última sincronización: %s\n", last.Format("15:04"))
	}
	b.WriteString("\n")

	if len(v.Open) == 0 {
		b.WriteString("No hay turnos abiertos.")
		return b.String()
	}
	for i, t := range v.Open {
		mark := ""
		if t.ID == v.State.ActiveTurnID {
			mark = " ⭐"
		}
		fmt.Fprintf(&b, "%d. %s %s · %s (%d min) · %s%s\n",
			i+1, statusIcon[t.Status], t.ClientName, v.Catalog.Title(t.Service), t.EstimatedTime,
			t.CreatedAt.Format("15:04"), mark)
		if v.State.UI.SidebarOpen {
			renderDetails(&b, t)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderDetails adds the optional fields of a turn when the detail panel is open.
func renderDetails(b *strings.Builder, t model.Turn) {
	if t.ClientPhone != nil && *t.ClientPhone != "" {
		fmt.Fprintf(b, "    📞 %s\n", *t.ClientPhone)
	}
	if t.BarberID != nil && *t.BarberID != "" {
		fmt.Fprintf(b, "    💈 %s\n", *t.BarberID)
	}
	if t.Notes != nil && *t.Notes != "" {
		fmt.Fprintf(b, "    📝 %s\n", *t.Notes)
	}
}

func RenderKeyboard(sess *Session, v View) tgbotapi.InlineKeyboardMarkup {
	switch sess.State {
	case StateStart:
		return keyboards.StartMenu()
	case StateMain:
		return keyboards.MainMenu()
	case StateQueue:
		return keyboards.QueueMenu(v.Open, v.State.ActiveTurnID)
	case StateAdmitService:
		return keyboards.ServiceMenu(v.Catalog)
	case StateAdmitConfirm:
		return keyboards.ConfirmMenu()
	case StateSettings:
		return keyboards.SettingsMenu(v.State.Settings)
	case StateAdmitName, StateHelp:
		return keyboards.BackOnly()
	default:
		return keyboards.MainMenu()
	}
}
