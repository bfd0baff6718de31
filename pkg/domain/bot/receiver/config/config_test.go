package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduardlon/torresbarber/pkg/repository/model"
)

const sample = `
log_level: debug
http_port: 8080
storage:
  driver: file
  dir: /tmp/torres
operator:
  id: op-1
  name: Recepción
  email: recepcion@torresbarber.co
notifications:
  default_duration: 5s
  tick: 50ms
queue:
  transitions:
    completed: [in_progress]
settings:
  theme: dark
  refresh_interval: 60
services:
  - {key: haircut, title: Corte, minutes: 30}
  - {key: beard, title: Barba, minutes: 20}
`

func write(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFrom(t *testing.T) {
	t.Setenv("TG_TOKEN", "123:abc")
	t.Setenv("TG_CHAT_ID", "-100200")
	t.Setenv("DB_DSN", "")

	cfg, err := LoadConfigFrom(write(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.Equal(t, int64(-100200), cfg.ChatID)
	assert.Equal(t, 5*time.Second, cfg.Notifications.DefaultDuration)
	assert.Equal(t, 50*time.Millisecond, cfg.Notifications.Tick)
	assert.Equal(t, model.RoleAdmin, cfg.Operator.User().Role)
	assert.Equal(t, []string{"in_progress"}, cfg.Queue.Transitions["completed"])

	// unset keys keep their defaults
	assert.Equal(t, "dark", cfg.Settings.Theme)
	assert.Equal(t, 60, cfg.Settings.RefreshInterval)
	assert.Equal(t, "es", cfg.Settings.Language)
	assert.True(t, cfg.Settings.AutoRefresh)
	assert.Len(t, cfg.Services, 2)
}

func TestLoadConfigFrom_Invalid(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("TG_CHAT_ID", "")
	cases := map[string]string{
		"no services":       "http_port: 1\noperator: {id: a, name: b}\n",
		"bad driver":        strings.Replace(sample, "driver: file", "driver: s3", 1),
		"redis without url": "http_port: 1\noperator: {id: a, name: b}\nstorage: {driver: redis}\nservices: [{key: a, title: A}]\n",
		"postgres no dsn":   "http_port: 1\noperator: {id: a, name: b}\nstorage: {driver: postgres}\nservices: [{key: a, title: A}]\n",
		"short interval":    "http_port: 1\noperator: {id: a, name: b}\nsettings: {refresh_interval: 1}\nservices: [{key: a, title: A}]\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfigFrom(write(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigFrom_MissingFile(t *testing.T) {
	_, err := LoadConfigFrom(filepath.Join(t.TempDir(), "nope.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
