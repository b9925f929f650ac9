package gateway

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rahul/outing/internal/observability"
)

const telegramMessageLimit = 4096

type TelegramGateway struct {
	Bot  *tgbotapi.BotAPI
	Conv *Conversation
	Log  observability.Logger
}

func NewTelegramGateway(token string, conv *Conversation, log observability.Logger) (*TelegramGateway, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	if log == nil {
		log = observability.NewNopLogger()
	}
	log = log.Event(observability.EventGateway).With(observability.Fields{"gateway": "telegram"})
	log.Info("authorized", observability.Fields{"account": bot.Self.UserName})

	return &TelegramGateway{Bot: bot, Conv: conv, Log: log}, nil
}

func (tg *TelegramGateway) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := tg.Bot.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			tg.handle(ctx, update.Message)
		}
	}
}

func (tg *TelegramGateway) handle(ctx context.Context, m *tgbotapi.Message) {
	chatID := strconv.FormatInt(m.Chat.ID, 10)
	fields := observability.Fields{"chat_id": chatID}
	if m.From != nil {
		fields["from"] = m.From.UserName
	}
	tg.Log.Debug("message received", fields)

	if _, err := tg.Bot.Request(tgbotapi.NewChatAction(m.Chat.ID, tgbotapi.ChatTyping)); err != nil {
		tg.Log.WithError(err).Debug("chat action failed", nil)
	}
	reply := tg.Conv.Reply(ctx, "telegram:"+chatID, m.Text)
	if err := tg.Send(chatID, reply); err != nil {
		tg.Log.WithError(err).Warn("send failed", observability.Fields{"chat_id": chatID})
	}
}

func (tg *TelegramGateway) Send(chatID string, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil || id == 0 {
		return fmt.Errorf("invalid chat ID: %s", chatID)
	}
	for _, part := range Chunk(text, telegramMessageLimit) {
		if _, err := tg.Bot.Send(tgbotapi.NewMessage(id, part)); err != nil {
			return err
		}
	}
	return nil
}

func (tg *TelegramGateway) Stop() error {
	tg.Bot.StopReceivingUpdates()
	return nil
}
