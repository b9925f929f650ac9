// Package gateway connects chat platforms to the planner. Every platform
// shares one Conversation, which turns a chat message into an answer.
package gateway

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rahul/outing/internal/observability"
	"github.com/rahul/outing/internal/orchestrator"
	"github.com/rahul/outing/internal/outing"
	"github.com/rahul/outing/internal/prompts"
)

// Messenger defines the interface for communication gateways (Telegram, Discord, etc.)
type Messenger interface {
	// Start listens for messages until ctx is done.
	Start(ctx context.Context) error
	// Send sends a message to a specific chat
	Send(chatID string, text string) error
	// Stop gracefully shuts down the gateway
	Stop() error
}

// Planner runs a full plan, satisfied by *orchestrator.Orchestrator.
type Planner interface {
	RunPlan(ctx context.Context, req orchestrator.Request) (*orchestrator.Response, error)
}

// Memory remembers the last destination stated in each chat, satisfied by
// *store.HistoryStore.
type Memory interface {
	SetChatDestination(ctx context.Context, chatID string, d outing.Destination) error
	ChatDestination(ctx context.Context, chatID string) (*outing.Destination, error)
}

const (
	greeting     = "Hi! Tell me what kind of outing you have in mind and I will plan it."
	troubleReply = "I'm having trouble planning right now..."
)

// Conversation answers chat messages. Memory is optional.
type Conversation struct {
	Plans  Planner
	Memory Memory
	Log    observability.Logger
}

func NewConversation(plans Planner, memory Memory, log observability.Logger) *Conversation {
	if log == nil {
		log = observability.NewNopLogger()
	}
	return &Conversation{Plans: plans, Memory: memory, Log: log.Event(observability.EventGateway)}
}

// Reply computes the answer to one message of chatID.
func (c *Conversation) Reply(ctx context.Context, chatID, text string) string {
	text = strings.TrimSpace(text)
	switch strings.ToLower(text) {
	case "", "/start", "/help":
		return greeting + "\n\n" + prompts.LocationPrompt
	}

	reply := ParseLocationReply(text)
	dest := reply.Destination
	if dest != nil && dest.Complete() {
		c.remember(ctx, chatID, *dest)
		if reply.Prompt == "" {
			return "Destination set to " + dest.Label() + ". What would you like to do there?"
		}
	}
	if reply.Prompt == "" {
		return "What would you like to do?"
	}
	if dest == nil {
		dest = c.recall(ctx, chatID)
	}

	resp, err := c.Plans.RunPlan(ctx, orchestrator.Request{
		Prompt:      reply.Prompt,
		Destination: dest,
		EventDate:   reply.Date,
		UserID:      chatID,
	})
	switch {
	case err == nil:
		return FormatPlan(resp)
	case outing.IsValidation(err):
		return err.Error()
	case outing.IsPlannerFatal(err):
		return err.Error() + "\n\n" + prompts.LocationPrompt
	}
	c.Log.WithError(err).Error("plan failed", observability.Fields{"chat_id": chatID})
	return troubleReply
}

func (c *Conversation) remember(ctx context.Context, chatID string, d outing.Destination) {
	if c.Memory == nil {
		return
	}
	if err := c.Memory.SetChatDestination(ctx, chatID, d); err != nil {
		c.Log.WithError(err).Warn("failed to remember destination", observability.Fields{"chat_id": chatID})
	}
}

func (c *Conversation) recall(ctx context.Context, chatID string) *outing.Destination {
	if c.Memory == nil {
		return nil
	}
	d, err := c.Memory.ChatDestination(ctx, chatID)
	if err != nil {
		c.Log.WithError(err).Warn("failed to recall destination", observability.Fields{"chat_id": chatID})
		return nil
	}
	return d
}

// LocationReply is a chat message split into its labelled fields and the
// remaining free text.
type LocationReply struct {
	Destination *outing.Destination
	Date        string
	Prompt      string
}

var (
	keyPattern   = regexp.MustCompile(`(?i)\b(?:country|state(?:\s*/\s*region)?|city|date)\s*:`)
	fieldPattern = regexp.MustCompile(`(?i)\b(country|state(?:\s*/\s*region)?|city|date)\s*:\s*([^|\n]*)`)
)

// ParseLocationReply extracts "Country: x | State: y | City: z" and an
// optional "Date: YYYY-MM-DD" from text. Destination is nil when no
// location field was given.
func ParseLocationReply(text string) LocationReply {
	var (
		reply                LocationReply
		country, state, city string
	)
	// Every key starts a new field even without a separator.
	text = keyPattern.ReplaceAllString(text, "|${0}")
	for _, m := range fieldPattern.FindAllStringSubmatch(text, -1) {
		value := strings.TrimSpace(m[2])
		switch key := strings.ToLower(m[1]); {
		case key == "country":
			country = value
		case strings.HasPrefix(key, "state"):
			state = value
		case key == "city":
			city = value
		case key == "date":
			reply.Date = value
		}
	}
	reply.Destination = outing.NewDestination(country, state, city)

	rest := fieldPattern.ReplaceAllString(text, "")
	rest = strings.NewReplacer("|", " ", "\n", " ").Replace(rest)
	reply.Prompt = strings.Trim(strings.Join(strings.Fields(rest), " "), " .,;")
	return reply
}

// Chunk splits text into pieces of at most limit bytes, preferring line
// breaks.
func Chunk(text string, limit int) []string {
	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}
	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		chunks = append(chunks, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
