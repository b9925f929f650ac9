package gateway

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rahul/outing/internal/agent"
	"github.com/rahul/outing/internal/normalize"
	"github.com/rahul/outing/internal/observability/obstest"
	"github.com/rahul/outing/internal/orchestrator"
	"github.com/rahul/outing/internal/outing"
	"github.com/rahul/outing/internal/prompts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocationReply(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		dest   *outing.Destination
		date   string
		prompt string
	}{
		{
			name: "structured reply only",
			text: "Country: India | State: Jharkhand | City: Jamshedpur",
			dest: &outing.Destination{Country: "India", State: "Jharkhand", City: "Jamshedpur"},
		},
		{
			name:   "prompt with trailing fields and date",
			text:   "Plan a movie night. Country: India | State: Karnataka | City: Bengaluru Date: 2026-02-22",
			dest:   &outing.Destination{Country: "India", State: "Karnataka", City: "Bengaluru"},
			date:   "2026-02-22",
			prompt: "Plan a movie night",
		},
		{
			name:   "case and state/region label",
			text:   "dinner\ncountry: India\nstate/region: Goa\ncity: Panaji",
			dest:   &outing.Destination{Country: "India", State: "Goa", City: "Panaji"},
			prompt: "dinner",
		},
		{
			name:   "free text only",
			text:   "what's on this weekend?",
			prompt: "what's on this weekend?",
		},
		{
			name:   "partial destination",
			text:   "brunch City: Pune",
			dest:   &outing.Destination{City: "Pune"},
			prompt: "brunch",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLocationReply(tt.text)
			assert.Equal(t, tt.dest, got.Destination)
			assert.Equal(t, tt.date, got.Date)
			assert.Equal(t, tt.prompt, got.Prompt)
		})
	}
}

func TestChunk(t *testing.T) {
	assert.Equal(t, []string{"short"}, Chunk("short", 10))
	assert.Equal(t, []string{"line one", "line two"}, Chunk("line one\nline two", 12))
	assert.Equal(t, []string{"abcde", "fghij", "k"}, Chunk("abcdefghijk", 5))

	for _, part := range Chunk(strings.Repeat("★", 10), 7) {
		assert.LessOrEqual(t, len(part), 7)
		assert.True(t, strings.HasPrefix(part, "★"))
	}
}

type fakePlanner struct {
	req  orchestrator.Request
	resp *orchestrator.Response
	err  error
	runs int
}

func (f *fakePlanner) RunPlan(_ context.Context, req orchestrator.Request) (*orchestrator.Response, error) {
	f.runs++
	f.req = req
	return f.resp, f.err
}

type memMemory map[string]outing.Destination

func (m memMemory) SetChatDestination(_ context.Context, chatID string, d outing.Destination) error {
	m[chatID] = d
	return nil
}

func (m memMemory) ChatDestination(_ context.Context, chatID string) (*outing.Destination, error) {
	if d, ok := m[chatID]; ok {
		return &d, nil
	}
	return nil, nil
}

func samplePlan() *orchestrator.Response {
	date, _ := outing.ParseEventDate("2026-02-22")
	rating := 4.5
	showtime := "7:30 PM"
	return &orchestrator.Response{
		Location:  outing.Destination{Country: "India", State: "Karnataka", City: "Bengaluru"},
		EventDate: date,
		Subtasks:  []outing.Subtask{outing.SubtaskMovie, outing.SubtaskRestaurant, outing.SubtaskWeather, outing.SubtaskWebSearch},
		Results: []outing.AgentResult{
			outing.Succeeded("movie", &agent.MoviePlan{
				Title:       "Dune",
				Overview:    "Found 3 movies.",
				Venue:       "PVR Forum",
				Showtime:    &showtime,
				Attribution: outing.Live("BookMyShow (Firecrawl)"),
			}),
			outing.Succeeded("restaurant", &agent.RestaurantPlan{
				Restaurants: []normalize.Restaurant{{Name: "Truffles", Cuisines: []string{"Burger"}, Rating: &rating, VegStatus: normalize.VegNonVeg}},
				Attribution: outing.Fallback("Gemini"),
			}),
			outing.Succeeded("weather", &agent.WeatherPlan{
				Forecast:    map[string]string{"Morning": "21.0°C • Rain 10%", "Night": "No data"},
				Attribution: outing.Live("Open-Meteo"),
			}),
			outing.Failed("web_search", "quota exceeded"),
		},
	}
}

func TestFormatPlan(t *testing.T) {
	text := FormatPlan(samplePlan())

	assert.True(t, strings.HasPrefix(text, "Plan for Bengaluru, Karnataka, India on Sunday, February 22, 2026"))
	assert.Contains(t, text, "Movie: Dune")
	assert.Contains(t, text, "Where: PVR Forum at 7:30 PM")
	assert.Contains(t, text, "(source: BookMyShow (Firecrawl), live)")
	assert.Contains(t, text, "- Truffles · Burger · 4.5★")
	assert.Contains(t, text, "(source: Gemini, fallback)")
	assert.Contains(t, text, "- Morning: 21.0°C • Rain 10%")
	assert.Less(t, strings.Index(text, "Morning"), strings.Index(text, "Night"))
	assert.Contains(t, text, "web_search: unavailable (quota exceeded)")
}

func TestConversationReply(t *testing.T) {
	ctx := context.Background()
	log := obstest.NewLogger(t)

	t.Run("greeting", func(t *testing.T) {
		planner := &fakePlanner{}
		conv := NewConversation(planner, nil, log)
		reply := conv.Reply(ctx, "c1", "/start")
		assert.Contains(t, reply, prompts.LocationPrompt)
		assert.Zero(t, planner.runs)
	})

	t.Run("destination is remembered and reused", func(t *testing.T) {
		planner := &fakePlanner{resp: samplePlan()}
		mem := memMemory{}
		conv := NewConversation(planner, mem, log)

		reply := conv.Reply(ctx, "c1", "Country: India | State: Karnataka | City: Bengaluru")
		assert.Equal(t, "Destination set to Bengaluru, Karnataka, India. What would you like to do there?", reply)
		assert.Zero(t, planner.runs)

		reply = conv.Reply(ctx, "c1", "movie and dinner tonight")
		assert.Contains(t, reply, "Movie: Dune")
		require.NotNil(t, planner.req.Destination)
		assert.Equal(t, "Bengaluru", planner.req.Destination.City)
		assert.Equal(t, "movie and dinner tonight", planner.req.Prompt)
		assert.Equal(t, "c1", planner.req.UserID)

		conv.Reply(ctx, "c2", "movie tonight")
		assert.Nil(t, planner.req.Destination)
	})

	t.Run("date is forwarded", func(t *testing.T) {
		planner := &fakePlanner{resp: samplePlan()}
		conv := NewConversation(planner, nil, log)
		conv.Reply(ctx, "c1", "dinner Date: 2026-02-22")
		assert.Equal(t, "2026-02-22", planner.req.EventDate)
	})

	t.Run("planner failure asks for a location", func(t *testing.T) {
		planner := &fakePlanner{err: outing.NewPlannerError("Location is incomplete. Ensure country, state, and city are provided.", nil)}
		conv := NewConversation(planner, nil, log)
		reply := conv.Reply(ctx, "c1", "something fun")
		assert.True(t, strings.HasPrefix(reply, "Location is incomplete."))
		assert.Contains(t, reply, prompts.LocationPrompt)
	})

	t.Run("validation message is relayed", func(t *testing.T) {
		planner := &fakePlanner{err: outing.NewValidationError("Invalid date format. Provide an ISO 8601 string (e.g. 2026-02-22).")}
		conv := NewConversation(planner, nil, log)
		assert.Equal(t, planner.err.Error(), conv.Reply(ctx, "c1", "dinner Date: soon"))
	})

	t.Run("unexpected failure", func(t *testing.T) {
		conv := NewConversation(&fakePlanner{err: errors.New("boom")}, nil, log)
		assert.Equal(t, troubleReply, conv.Reply(ctx, "c1", "dinner"))
	})
}
