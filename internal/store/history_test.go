package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rahul/outing/internal/outing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Title string `json:"title"`
	outing.Attribution
}

func newStore(t *testing.T) *HistoryStore {
	t.Helper()
	h, err := NewHistoryStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func samplePlan(t *testing.T, id, user string, at time.Time) PlanRecord {
	results, err := ResultsOf([]outing.AgentResult{
		outing.Succeeded("movie", &payload{Title: "Dune", Attribution: outing.Live("BookMyShow (Firecrawl)")}),
		outing.Failed("karaoke", outing.UnsupportedAgentMessage),
	})
	require.NoError(t, err)
	return PlanRecord{
		ID:        id,
		UserID:    user,
		Prompt:    "movie night",
		Location:  outing.Destination{Country: "India", State: "Maharashtra", City: "Pune"},
		EventDate: "2025-07-15",
		Subtasks:  []string{"movie", "karaoke"},
		Results:   results,
		CreatedAt: at,
	}
}

func TestSaveAndGetPlan(t *testing.T) {
	h := newStore(t)
	ctx := context.Background()
	at := time.Date(2025, 7, 1, 18, 30, 0, 0, time.UTC)

	require.NoError(t, h.SavePlan(ctx, samplePlan(t, "p1", "", at)))

	got, err := h.GetPlan(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, DefaultUserID, got.UserID)
	assert.Equal(t, "Pune", got.Location.City)
	assert.Equal(t, []string{"movie", "karaoke"}, got.Subtasks)
	assert.True(t, at.Equal(got.CreatedAt))

	require.Len(t, got.Results, 2)
	assert.Equal(t, "movie", got.Results[0].Agent)
	assert.JSONEq(t, `{"title":"Dune","source":"BookMyShow (Firecrawl)","origin":"live"}`, string(got.Results[0].Data))
	assert.Nil(t, got.Results[1].Data)
	assert.Equal(t, outing.UnsupportedAgentMessage, got.Results[1].Error)

	data, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"data":{"title":"Dune"`)
}

func TestListPlans(t *testing.T) {
	h := newStore(t)
	ctx := context.Background()
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, h.SavePlan(ctx, samplePlan(t, id, "u1", base.Add(time.Duration(i)*time.Hour))))
	}
	require.NoError(t, h.SavePlan(ctx, samplePlan(t, "other", "u2", base)))

	plans, err := h.ListPlans(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "c", plans[0].ID)
	assert.Equal(t, "b", plans[1].ID)
	assert.Nil(t, plans[0].Results)

	none, err := h.ListPlans(ctx, "nobody", 20)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestListPlans_SubSecondOrder(t *testing.T) {
	h := newStore(t)
	ctx := context.Background()
	base := time.Date(2025, 7, 1, 18, 0, 5, 0, time.UTC)

	require.NoError(t, h.SavePlan(ctx, samplePlan(t, "whole", "u1", base)))
	require.NoError(t, h.SavePlan(ctx, samplePlan(t, "later", "u1", base.Add(500*time.Millisecond))))

	plans, err := h.ListPlans(ctx, "u1", 20)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "later", plans[0].ID)
	assert.Equal(t, "whole", plans[1].ID)
	assert.True(t, plans[1].CreatedAt.Equal(base))
}

func TestDeletePlan(t *testing.T) {
	h := newStore(t)
	ctx := context.Background()
	require.NoError(t, h.SavePlan(ctx, samplePlan(t, "p1", "u1", time.Now())))

	require.NoError(t, h.DeletePlan(ctx, "p1"))
	_, err := h.GetPlan(ctx, "p1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, h.DeletePlan(ctx, "p1"), ErrNotFound)

	var orphans int
	require.NoError(t, h.DB.QueryRow(`SELECT COUNT(*) FROM agent_results WHERE plan_id = 'p1'`).Scan(&orphans))
	assert.Zero(t, orphans)
}

func TestSavePlan_DuplicateID(t *testing.T) {
	h := newStore(t)
	ctx := context.Background()
	require.NoError(t, h.SavePlan(ctx, samplePlan(t, "p1", "u1", time.Now())))
	assert.Error(t, h.SavePlan(ctx, samplePlan(t, "p1", "u1", time.Now())))

	got, err := h.GetPlan(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, got.Results, 2)
}

func TestChatDestination(t *testing.T) {
	h := newStore(t)
	ctx := context.Background()

	d, err := h.ChatDestination(ctx, "42")
	require.NoError(t, err)
	assert.Nil(t, d)

	require.NoError(t, h.SetChatDestination(ctx, "42", outing.Destination{Country: "India", State: "Goa", City: "Panaji"}))
	require.NoError(t, h.SetChatDestination(ctx, "42", outing.Destination{Country: "India", State: "Kerala", City: "Kochi"}))

	d, err = h.ChatDestination(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, &outing.Destination{Country: "India", State: "Kerala", City: "Kochi"}, d)
}
