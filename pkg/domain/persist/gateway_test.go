package persist

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduardlon/torresbarber/pkg/domain/store"
	"github.com/eduardlon/torresbarber/pkg/repository/model"
)

type memStorage struct {
	mu     sync.Mutex
	data   map[string][]byte
	saves  int
	failOn error
}

func newMem() *memStorage { return &memStorage{data: map[string][]byte{}} }

func (m *memStorage) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

func (m *memStorage) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != nil {
		return m.failOn
	}
	m.saves++
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *memStorage) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func TestGateway_RoundTripKeepsOnlySubset(t *testing.T) {
	mem := newMem()
	gw := NewGateway(mem, "", zerolog.Nop())
	s := store.New()
	gw.Attach(s)

	s.Login(model.User{ID: "u1", Name: "Luis", Email: "luis@example.com", Role: model.RoleAdmin})
	dark := "dark"
	s.UpdateSettings(model.SettingsPatch{Theme: &dark})
	s.AddTurn(model.Turn{ID: "t1", ClientName: "Ana", Status: model.TurnWaiting})
	s.SetActiveTurn("t1")
	s.AddNotification(model.Notification{ID: "n1", Title: "hola"})
	require.NoError(t, gw.Flush(context.Background()))

	want := s.Persisted()

	// Discard everything, then rebuild from storage.
	gw2 := NewGateway(mem, "", zerolog.Nop())
	p, ok := gw2.Rehydrate(context.Background())
	require.True(t, ok)
	assert.Equal(t, want, p)

	fresh := store.New(store.WithPersisted(p))
	assert.Equal(t, "Luis", fresh.Session().Name)
	assert.True(t, fresh.IsAuthenticated())
	assert.Equal(t, "dark", fresh.Settings().Theme)
	assert.Empty(t, fresh.Turns())
	assert.Empty(t, fresh.Notifications())
	assert.Nil(t, fresh.ActiveTurn())
}

func TestGateway_EnvelopeLayout(t *testing.T) {
	data, err := Encode(store.Persisted{IsAuthenticated: false, Settings: model.DefaultSettings()})
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, `1`, string(raw["version"]))

	var state map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw["state"], &state))
	assert.Len(t, state, 3)
	assert.JSONEq(t, `null`, string(state["session"]))
	assert.JSONEq(t, `false`, string(state["isAuthenticated"]))
	assert.Contains(t, string(state["settings"]), `"refreshInterval":30`)
}

func TestGateway_SkipsWritesWhenSubsetUnchanged(t *testing.T) {
	mem := newMem()
	gw := NewGateway(mem, "k", zerolog.Nop())
	s := store.New()
	gw.Attach(s)

	s.Login(model.User{ID: "u1"})
	require.NoError(t, gw.Flush(context.Background()))
	require.Equal(t, 1, mem.saveCount())

	// Queue and notification churn does not touch the persisted subset.
	s.AddTurn(model.Turn{ID: "t1"})
	s.AddNotification(model.Notification{ID: "n1"})
	s.SetLoading(true)
	require.NoError(t, gw.Flush(context.Background()))
	assert.Equal(t, 1, mem.saveCount())

	s.Logout()
	require.NoError(t, gw.Flush(context.Background()))
	assert.Equal(t, 2, mem.saveCount())
}

func TestGateway_FailuresAreNotFatal(t *testing.T) {
	mem := newMem()
	mem.failOn = errors.New("quota exceeded")
	gw := NewGateway(mem, "k", zerolog.Nop())
	s := store.New()
	gw.Attach(s)

	s.Login(model.User{ID: "u1"})
	assert.Error(t, gw.Flush(context.Background()))
	assert.True(t, s.IsAuthenticated(), "store keeps working in memory")

	mem.mu.Lock()
	mem.failOn = nil
	mem.mu.Unlock()

	// The next mutation writes even though the subset equals the failed one.
	s.Login(model.User{ID: "u1"})
	require.NoError(t, gw.Flush(context.Background()))
	assert.Equal(t, 1, mem.saveCount())
}

func TestGateway_RehydrateRejectsBadData(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"garbage", `{not json`},
		{"old version", `{"state":{"session":null,"isAuthenticated":true},"version":0}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mem := newMem()
			mem.data[DefaultKey] = []byte(tc.data)
			_, ok := NewGateway(mem, "", zerolog.Nop()).Rehydrate(context.Background())
			assert.False(t, ok)
		})
	}

	_, ok := NewGateway(newMem(), "", zerolog.Nop()).Rehydrate(context.Background())
	assert.False(t, ok)
}

func TestDecode_VersionMismatch(t *testing.T) {
	_, err := Decode([]byte(`{"state":{},"version":2}`))
	assert.ErrorIs(t, err, ErrVersionMismatch)
}

func TestGateway_RunWritesInBackground(t *testing.T) {
	mem := newMem()
	gw := NewGateway(mem, "k", zerolog.Nop())
	s := store.New()
	gw.Attach(s)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = gw.Run(ctx)
		close(done)
	}()

	s.Login(model.User{ID: "u1"})
	require.Eventually(t, func() bool { return mem.saveCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
