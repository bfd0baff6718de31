package receiver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/eduardlon/torresbarber/pkg/domain/store"
	"github.com/eduardlon/torresbarber/pkg/repository/model"
)

func TestSession_GoBack(t *testing.T) {
	s := &Session{State: StateMain}
	s.Go(StateAdmitName)
	s.Go(StateAdmitName)
	s.Go(StateAdmitService)

	s.Back()
	assert.Equal(t, StateAdmitName, s.State)
	s.Back()
	assert.Equal(t, StateMain, s.State)
	s.Back()
	assert.Equal(t, StateMain, s.State, "empty history falls back to main")
}

func TestSession_ResetFlow(t *testing.T) {
	s := &Session{State: StateMain}
	s.Go(StateAdmitName)
	s.Draft = AdmitData{Name: "Ana", Service: "haircut"}

	s.ResetFlow()
	assert.Equal(t, StateMain, s.State)
	assert.Equal(t, AdmitData{}, s.Draft)
	s.Back()
	assert.Equal(t, StateMain, s.State)
}

func TestSessions_PerChat(t *testing.T) {
	ss := NewSessions()
	ss.Get(1).Go(StateQueue)
	assert.Equal(t, StateStart, ss.Get(2).State)
	assert.Equal(t, StateQueue, ss.Get(1).State)

	ss.Reset()
	assert.Equal(t, StateStart, ss.Get(1).State)
}

func TestRenderQueue(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 5, 0, 0, time.UTC)
	v := View{
		State: store.State{
			Turns: []model.Turn{
				{ID: "b", ClientName: "Luis", Service: "beard", Status: model.TurnInProgress, EstimatedTime: 20, CreatedAt: at},
				{ID: "a", ClientName: "Ana", Service: "haircut", Status: model.TurnWaiting, EstimatedTime: 30, CreatedAt: at},
			},
			ActiveTurnID: "b",
			Connectivity: model.Connectivity{IsOnline: false},
		},
		Catalog: Catalog{{Key: "haircut", Title: "Corte"}},
	}
	v.Open = []model.Turn{v.State.Turns[1], v.State.Turns[0]}

	got := RenderText(&Session{State: StateQueue}, v)
	assert.Contains(t, got, "En espera: 1 · En curso: 1")
	assert.Contains(t, got, "⚠️ Sin conexión")
	assert.Contains(t, got, "1. ⏳ Ana · Corte (30 min) · 09:05")
	assert.Contains(t, got, "2. ✂️ Luis · beard (20 min) · 09:05 ⭐")
	assert.NotContains(t, got, "Última sincronización")
	assert.NotContains(t, got, "📝")
}

func TestRenderQueue_DetailPanel(t *testing.T) {
	phone, notes := "555-0101", "solo tijera"
	ana := model.Turn{ID: "a", ClientName: "Ana", Service: "haircut", Status: model.TurnWaiting, ClientPhone: &phone, Notes: &notes}
	v := View{
		State: store.State{Turns: []model.Turn{ana}, Connectivity: model.Connectivity{IsOnline: true}},
		Open:  []model.Turn{ana},
	}

	closed := RenderText(&Session{State: StateQueue}, v)
	assert.NotContains(t, closed, "555-0101")

	v.State.UI.SidebarOpen = true
	open := RenderText(&Session{State: StateQueue}, v)
	assert.Contains(t, open, "📞 555-0101")
	assert.Contains(t, open, "📝 solo tijera")
}
