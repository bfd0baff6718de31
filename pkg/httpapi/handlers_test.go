package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduardlon/torresbarber/pkg/domain/notify"
	"github.com/eduardlon/torresbarber/pkg/domain/store"
	"github.com/eduardlon/torresbarber/pkg/repository/model"
	"github.com/eduardlon/torresbarber/pkg/utils/clock"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func setup() (http.Handler, *store.Store, *notify.Center, *clock.Fake) {
	fc := clock.NewFake(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	s := store.New(store.WithClock(fc))
	c := notify.NewCenter(s, notify.WithClock(fc))
	return SetupRoutes(s, c), s, c, fc
}

func TestHealthz(t *testing.T) {
	h, _, _, _ := setup()
	assert.Equal(t, http.StatusOK, get(t, h, "/healthz").Code)
}

func TestGetState(t *testing.T) {
	h, s, _, _ := setup()
	s.Login(model.User{ID: "u1", Name: "Ana", Role: model.RoleBarber})
	s.AddTurn(model.Turn{ID: "t1", ClientName: "Luis", Status: model.TurnInProgress})
	s.SetActiveTurn("t1")

	rec := get(t, h, "/api/state")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Session         model.User         `json:"session"`
		IsAuthenticated bool               `json:"isAuthenticated"`
		Turns           []model.TurnRecord `json:"turns"`
		ActiveTurn      *model.TurnRecord  `json:"activeTurn"`
		Notifications   []json.RawMessage  `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Ana", body.Session.Name)
	assert.True(t, body.IsAuthenticated)
	require.Len(t, body.Turns, 1)
	require.NotNil(t, body.ActiveTurn)
	assert.Equal(t, "Luis", body.ActiveTurn.ClientName)
	assert.NotNil(t, body.Notifications)
	assert.Contains(t, rec.Body.String(), `"client_name":"Luis"`)
}

func TestGetStats(t *testing.T) {
	h, s, c, _ := setup()
	s.Login(model.User{ID: "u1", Role: model.RoleAdmin})
	s.AddTurn(model.Turn{ID: "a", Status: model.TurnWaiting})
	s.AddTurn(model.Turn{ID: "b", Status: model.TurnWaiting})
	s.AddTurn(model.Turn{ID: "c", Status: model.TurnCompleted})
	c.Info("hola", "")

	var body statsView
	require.NoError(t, json.Unmarshal(get(t, h, "/api/stats").Body.Bytes(), &body))
	assert.Equal(t, 3, body.Total)
	assert.Equal(t, 2, body.ByStatus[model.TurnWaiting])
	assert.Equal(t, 0, body.ByStatus[model.TurnCancelled])
	assert.False(t, body.HasActiveTurn)
	assert.Equal(t, 1, body.Unread)
	assert.Equal(t, model.RoleAdmin, body.Auth.Role)
}

func TestGetTurn(t *testing.T) {
	h, s, _, _ := setup()
	s.AddTurn(model.Turn{ID: "t1", ClientName: "Luis"})

	assert.Equal(t, http.StatusOK, get(t, h, "/api/turns/t1").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/turns/zzz").Code)
	assert.Equal(t, http.StatusNoContent, get(t, h, "/api/turns/active").Code)
}

func TestGetNotifications_CarryProgress(t *testing.T) {
	h, _, c, fc := setup()
	c.Add(model.NotifyInfo, "hola", "", 10*time.Second)
	fc.Advance(2500 * time.Millisecond)

	var body []notificationView
	require.NoError(t, json.Unmarshal(get(t, h, "/api/notifications").Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.InDelta(t, 75, body[0].Progress, 0.01)
	assert.Equal(t, int64(7500), body[0].RemainingMS)
	assert.Equal(t, "hola", body[0].Title)
}
