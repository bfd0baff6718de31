package sender

import (
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyAPI struct {
	failures []error
	calls    int
	sent     []tgbotapi.Chattable
}

func (f *flakyAPI) next() error {
	i := f.calls
	f.calls++
	if i < len(f.failures) {
		return f.failures[i]
	}
	return nil
}

func (f *flakyAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if err := f.next(); err != nil {
		return tgbotapi.Message{}, err
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: 100 + len(f.sent)}, nil
}

func (f *flakyAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if err := f.next(); err != nil {
		return nil, err
	}
	f.sent = append(f.sent, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func newProcessor(api API) (*Processor, *[]time.Duration) {
	p := New(ProcessorConfig{ChatID: 7}, zerolog.Nop(), api)
	var slept []time.Duration
	p.sleep = func(d time.Duration) { slept = append(slept, d) }
	return p, &slept
}

func TestProcessor_SendRetries(t *testing.T) {
	api := &flakyAPI{failures: []error{errors.New("timeout"), errors.New("timeout")}}
	p, slept := newProcessor(api)

	id, err := p.Send("hola", nil)
	require.NoError(t, err)
	assert.Equal(t, 101, id)
	assert.Equal(t, 3, api.calls)
	assert.Equal(t, []time.Duration{2 * time.Second}, *slept)

	msg := api.sent[0].(tgbotapi.MessageConfig)
	assert.Equal(t, int64(7), msg.ChatID)
}

func TestProcessor_GivesUpAfterThreeAttempts(t *testing.T) {
	boom := errors.New("bad gateway")
	api := &flakyAPI{failures: []error{boom, boom, boom, boom}}
	p, _ := newProcessor(api)

	_, err := p.Send("hola", nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, api.calls)
}

func TestProcessor_PermanentErrorsAreNotRetried(t *testing.T) {
	api := &flakyAPI{failures: []error{errors.New("Bad Request: message to delete not found")}}
	p, slept := newProcessor(api)

	assert.Error(t, p.Delete(5))
	assert.Equal(t, 1, api.calls)
	assert.Empty(t, *slept)
}

func TestProcessor_EditWithMarkup(t *testing.T) {
	api := &flakyAPI{}
	p, _ := newProcessor(api)
	kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("x", "y")))

	require.NoError(t, p.Edit(9, "nuevo", &kb))
	edit := api.sent[0].(tgbotapi.EditMessageTextConfig)
	assert.Equal(t, 9, edit.MessageID)
	assert.Equal(t, "nuevo", edit.Text)
	require.NotNil(t, edit.ReplyMarkup)
}
