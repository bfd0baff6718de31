package sender

import (
	"math"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/eduardlon/torresbarber/pkg/utils/errs"
)

const attempts = 3

type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Processor struct {
	config ProcessorConfig
	logger zerolog.Logger

	bot   API
	sleep func(time.Duration)
}

func New(config ProcessorConfig, logger zerolog.Logger, bot API) *Processor {
	return &Processor{
		config: config,
		logger: logger.With().Str("component", "sender").Logger(),
		bot:    bot,
		sleep:  time.Sleep,
	}
}

// backoff is 0s, 2s, 4s: the first retry is immediate.
func backoff(i int) time.Duration {
	if i == 0 {
		return 0
	}
	return time.Duration(math.Pow(2, float64(i))) * time.Second
}

func (p *Processor) retry(op string, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if permanent(err) {
			break
		}
		p.logger.Warn().Err(err).Str("op", op).Int("retry", i+1).Msg("telegram call failed, retrying")
		if d := backoff(i); d > 0 && i < attempts-1 {
			p.sleep(d)
		}
	}
	p.logger.Error().Err(err).Str("op", op).Msg("telegram call permanently failed")
	return err
}

// permanent reports errors that a retry cannot fix.
func permanent(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "message is not modified") ||
		strings.Contains(msg, "message to delete not found") ||
		strings.Contains(msg, "message to edit not found")
}

func (p *Processor) Send(text string, markup *tgbotapi.InlineKeyboardMarkup) (int, error) {
	p.logger.Trace().Msg("In")
	defer p.logger.Trace().Msg("Out")

	msgToSend := tgbotapi.NewMessage(p.config.ChatID, text)
	if markup != nil {
		msgToSend.ReplyMarkup = *markup
	}

	var msg tgbotapi.Message
	err := p.retry("send", func() error {
		var err error
		msg, err = p.bot.Send(msgToSend)
		return err
	})
	if err != nil {
		return 0, errs.New("failed to send message").Wrap(err)
	}
	return msg.MessageID, nil
}

func (p *Processor) Edit(messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	var edit tgbotapi.EditMessageTextConfig
	if markup != nil {
		edit = tgbotapi.NewEditMessageTextAndMarkup(p.config.ChatID, messageID, text, *markup)
	} else {
		edit = tgbotapi.NewEditMessageText(p.config.ChatID, messageID, text)
	}
	err := p.retry("edit", func() error {
		_, err := p.bot.Send(edit)
		return err
	})
	if err != nil {
		return errs.New("failed to edit message").Arg("message", messageID).Wrap(err)
	}
	return nil
}

func (p *Processor) Delete(messageID int) error {
	err := p.retry("delete", func() error {
		_, err := p.bot.Request(tgbotapi.NewDeleteMessage(p.config.ChatID, messageID))
		return err
	})
	if err != nil {
		return errs.New("failed to delete message").Arg("message", messageID).Wrap(err)
	}
	return nil
}
