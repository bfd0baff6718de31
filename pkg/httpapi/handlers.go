package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eduardlon/torresbarber/pkg/domain/notify"
	"github.com/eduardlon/torresbarber/pkg/domain/store"
	"github.com/eduardlon/torresbarber/pkg/repository/model"
)

type stateView struct {
	Session         *model.User          `json:"session"`
	IsAuthenticated bool                 `json:"isAuthenticated"`
	Turns           []model.TurnRecord   `json:"turns"`
	ActiveTurn      *model.TurnRecord    `json:"activeTurn"`
	Notifications   []model.Notification `json:"notifications"`
	Settings        model.Settings       `json:"settings"`
	Connectivity    model.Connectivity   `json:"connectivity"`
	UI              model.UI             `json:"ui"`
}

type statsView struct {
	Total         int                      `json:"total"`
	ByStatus      map[model.TurnStatus]int `json:"byStatus"`
	HasActiveTurn bool                     `json:"hasActiveTurn"`
	Unread        int                      `json:"unread"`
	Auth          store.AuthStatus         `json:"auth"`
}

type notificationView struct {
	model.Notification
	Progress    float64 `json:"progress"`
	RemainingMS int64   `json:"remainingMs"`
	Paused      bool    `json:"paused"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func records(turns []model.Turn) []model.TurnRecord {
	out := make([]model.TurnRecord, 0, len(turns))
	for _, t := range turns {
		out = append(out, model.RecordOf(t))
	}
	return out
}

func GetState(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := s.Snapshot()
		v := stateView{
			Session:         st.Session,
			IsAuthenticated: st.IsAuthenticated,
			Turns:           records(st.Turns),
			Notifications:   st.Notifications,
			Settings:        st.Settings,
			Connectivity:    st.Connectivity,
			UI:              st.UI,
		}
		if v.Notifications == nil {
			v.Notifications = []model.Notification{}
		}
		if a := st.ActiveTurn(); a != nil {
			rec := model.RecordOf(*a)
			v.ActiveTurn = &rec
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func GetStats(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := s.Stats()
		writeJSON(w, http.StatusOK, statsView{
			Total:         stats.Total,
			ByStatus:      stats.ByStatus,
			HasActiveTurn: stats.HasActiveTurn,
			Unread:        s.UnreadCount(),
			Auth:          s.AuthStatus(),
		})
	}
}

func GetTurn(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := s.Turn(chi.URLParam(r, "id"))
		if !ok {
			http.Error(w, "turn not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, model.RecordOf(t))
	}
}

func GetActiveTurn(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a := s.ActiveTurn()
		if a == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, model.RecordOf(*a))
	}
}

func GetNotifications(s *store.Store, c *notify.Center) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		samples := map[string]notify.Sample{}
		if c != nil {
			for _, smp := range c.Sample() {
				samples[smp.ID] = smp
			}
		}
		list := s.Notifications()
		out := make([]notificationView, 0, len(list))
		for _, n := range list {
			v := notificationView{Notification: n, Progress: 100}
			if smp, ok := samples[n.ID]; ok {
				v.Progress = smp.Progress
				v.RemainingMS = smp.Remaining.Milliseconds()
				v.Paused = smp.Paused
			}
			out = append(out, v)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// NewServer wraps the routes with the timeouts used in production.
func NewServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
