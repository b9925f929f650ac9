package gateway

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rahul/outing/internal/observability"
)

const discordMessageLimit = 2000

type DiscordGateway struct {
	Session *discordgo.Session
	Conv    *Conversation
	Log     observability.Logger
}

func NewDiscordGateway(token string, conv *Conversation, log observability.Logger) (*DiscordGateway, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentMessageContent
	if log == nil {
		log = observability.NewNopLogger()
	}
	return &DiscordGateway{
		Session: session,
		Conv:    conv,
		Log:     log.Event(observability.EventGateway).With(observability.Fields{"gateway": "discord"}),
	}, nil
}

// Start opens the websocket session and serves messages until ctx is done.
// The session stays open until Stop.
func (dg *DiscordGateway) Start(ctx context.Context) error {
	remove := dg.Session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot {
			return
		}
		dg.handle(ctx, m.ChannelID, m.Content)
	})
	defer remove()

	if err := dg.Session.Open(); err != nil {
		return fmt.Errorf("discord: %w", err)
	}
	if u := dg.Session.State.User; u != nil {
		dg.Log.Info("authorized", observability.Fields{"account": u.Username})
	}
	<-ctx.Done()
	return nil
}

func (dg *DiscordGateway) handle(ctx context.Context, channelID, text string) {
	if err := dg.Session.ChannelTyping(channelID); err != nil {
		dg.Log.WithError(err).Debug("typing indicator failed", nil)
	}
	reply := dg.Conv.Reply(ctx, "discord:"+channelID, text)
	if err := dg.Send(channelID, reply); err != nil {
		dg.Log.WithError(err).Warn("send failed", observability.Fields{"chat_id": channelID})
	}
}

func (dg *DiscordGateway) Send(chatID string, text string) error {
	if chatID == "" {
		return fmt.Errorf("invalid chat ID: %q", chatID)
	}
	for _, part := range Chunk(text, discordMessageLimit) {
		if _, err := dg.Session.ChannelMessageSend(chatID, part); err != nil {
			return err
		}
	}
	return nil
}

func (dg *DiscordGateway) Stop() error {
	return dg.Session.Close()
}
