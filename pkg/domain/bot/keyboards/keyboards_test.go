package keyboards

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduardlon/torresbarber/pkg/repository/model"
)

func callbacks(m tgbotapi.InlineKeyboardMarkup) []string {
	var out []string
	for _, row := range m.InlineKeyboard {
		for _, b := range row {
			if b.CallbackData != nil {
				out = append(out, *b.CallbackData)
			}
		}
	}
	return out
}

func TestIs(t *testing.T) {
	v, ok := Is("ts:abc", PStart)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	_, ok = Is("tf:abc", PStart)
	assert.False(t, ok)
}

func TestQueueMenu_ActionsFollowStatus(t *testing.T) {
	open := []model.Turn{
		{ID: "w", ClientName: "Ana", Status: model.TurnWaiting},
		{ID: "p", ClientName: "Luis", Status: model.TurnInProgress},
	}
	got := callbacks(QueueMenu(open, "p"))

	assert.Equal(t, []string{
		"ts:w", "ta:w", "tc:w", "tr:w",
		"tf:p", "tc:p", "tr:p",
		CbUnfocus,
		CbAdd, CbDetails, CbSync,
		CbBack,
	}, got)
}

func TestServiceMenu_TwoPerRow(t *testing.T) {
	m := ServiceMenu([]model.Service{{Key: "a", Title: "A"}, {Key: "b", Title: "B"}, {Key: "c", Title: "C"}})
	require.Len(t, m.InlineKeyboard, 3)
	assert.Len(t, m.InlineKeyboard[0], 2)
	assert.Len(t, m.InlineKeyboard[1], 1)
	assert.Equal(t, "svc:c", *m.InlineKeyboard[1][0].CallbackData)
}

func TestNotificationMenu(t *testing.T) {
	assert.Equal(t, []string{"nh:n1", "nc:n1"}, callbacks(NotificationMenu("n1", false)))
	assert.Equal(t, "▶️ Seguir", NotificationMenu("n1", true).InlineKeyboard[0][0].Text)
}
