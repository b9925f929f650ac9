package zomato

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rahul/outing/internal/extract"
	"github.com/rahul/outing/internal/llm"
	"github.com/rahul/outing/internal/outing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugifyCity(t *testing.T) {
	assert.Equal(t, "bangalore", SlugifyCity(" Bengaluru "))
	assert.Equal(t, "bangalore", SlugifyCity("BANGALORE"))
	assert.Equal(t, "new-delhi", SlugifyCity("New Delhi"))
	assert.Equal(t, "https://www.zomato.com/jamshedpur", ListingURL("Jamshedpur"))
	assert.Equal(t, "", ListingURL(""))
}

type fakeExtractor struct {
	answer map[string]any
	err    error
	got    extract.Request
}

func (f *fakeExtractor) Name() string { return "fake" }

func (f *fakeExtractor) Extract(_ context.Context, req extract.Request) (map[string]any, error) {
	f.got = req
	return f.answer, f.err
}

var jamshedpur = outing.Destination{Country: "India", State: "Jharkhand", City: "Jamshedpur"}

func TestClient_FetchRestaurants(t *testing.T) {
	list := make([]any, 0, 7)
	for i := 0; i < 7; i++ {
		list = append(list, map[string]any{"name": fmt.Sprintf("Place %d", i), "address": "Bistupur"})
	}
	list = append([]any{map[string]any{"name": "place 0", "address": "Bistupur"}}, list...)
	fx := &fakeExtractor{answer: map[string]any{"restaurants": list}}

	res := NewClient(fx).FetchRestaurants(context.Background(), jamshedpur, "")
	require.True(t, res.OK())
	require.Len(t, res.Value, 5)
	assert.Equal(t, "place 0", res.Value[0].Name)
	assert.Equal(t, "Place 4", res.Value[4].Name)
	assert.Equal(t, "https://www.zomato.com/jamshedpur", res.URL)
	assert.Contains(t, fx.got.Prompt, "User context: restaurant hunt.")
	assert.Equal(t, 5, fx.got.Schema["properties"].(schema)["restaurants"].(schema)["maxItems"])
}

func TestClient_FetchRestaurantsFailure(t *testing.T) {
	res := NewClient(&fakeExtractor{err: errors.New("timeout")}).FetchRestaurants(context.Background(), jamshedpur, "")
	assert.EqualError(t, res.Err, "timeout")

	res = NewClient(&fakeExtractor{}).FetchRestaurants(context.Background(), outing.Destination{}, "")
	assert.ErrorIs(t, res.Err, ErrNoTarget)
}

func TestSchemasAreValidJSONSchema(t *testing.T) {
	doc := map[string]any{"restaurants": []any{map[string]any{"name": "Spice Route", "cuisine": "Thai", "rating": 4.2}}}
	assert.Empty(t, llm.Validate(SuggestionSchema(), doc))
	assert.NotEmpty(t, llm.Validate(ListingSchema(5), doc))
}

func TestClient_Label(t *testing.T) {
	assert.Equal(t, "Zomato (fake)", NewClient(&fakeExtractor{}).Label())
}
