package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDuckDuckGo(t *testing.T) {
	s, err := NewDuckDuckGo(0)
	require.NoError(t, err)
	require.NotNil(t, s)

	_, err = s.Search(context.Background(), "   ")
	assert.EqualError(t, err, "search failed: empty query")
}

func TestFunc(t *testing.T) {
	var got string
	var s Searcher = Func(func(_ context.Context, q string) (string, error) {
		got = q
		return "1 result", nil
	})

	out, err := s.Search(context.Background(), "jazz in pune")
	require.NoError(t, err)
	assert.Equal(t, "1 result", out)
	assert.Equal(t, "jazz in pune", got)
}
