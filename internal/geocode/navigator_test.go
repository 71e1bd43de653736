package geocode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeSuggestions() []Suggestion {
	return []Suggestion{
		{Label: "a"},
		{Label: "b"},
		{Label: "c"},
	}
}

func TestNavigatorStartsClosedWithNoHighlight(t *testing.T) {
	n := NewNavigator()
	assert.False(t, n.IsOpen())
	assert.Equal(t, -1, n.ActiveIndex())
}

func TestSetSuggestionsOpensAndResetsHighlight(t *testing.T) {
	n := NewNavigator()
	n.SetSuggestions(threeSuggestions())
	n.ArrowDown()

	n.SetSuggestions(threeSuggestions())
	assert.True(t, n.IsOpen())
	assert.Equal(t, -1, n.ActiveIndex())

	n.SetSuggestions(nil)
	assert.False(t, n.IsOpen())
}

func TestArrowDownClampsAtLastItem(t *testing.T) {
	n := NewNavigator()
	n.SetSuggestions(threeSuggestions())

	assert.Equal(t, 0, n.ArrowDown(), "first ArrowDown moves from -1 to 0")
	assert.Equal(t, 1, n.ArrowDown())
	assert.Equal(t, 2, n.ArrowDown())
	assert.Equal(t, 2, n.ArrowDown(), "ArrowDown stays on the last item")
}

func TestArrowUpClampsAtFirstItem(t *testing.T) {
	n := NewNavigator()
	n.SetSuggestions(threeSuggestions())

	assert.Equal(t, 0, n.ArrowUp(), "ArrowUp from no highlight lands on the first item")
	assert.Equal(t, 0, n.ArrowUp(), "ArrowUp stays on the first item")

	n.ArrowDown()
	n.ArrowDown()
	assert.Equal(t, 1, n.ArrowUp())
}

func TestArrowKeysIgnoredWhenClosed(t *testing.T) {
	n := NewNavigator()
	assert.Equal(t, -1, n.ArrowDown())
	assert.Equal(t, -1, n.ArrowUp())
}

func TestActiveRequiresHighlight(t *testing.T) {
	n := NewNavigator()
	n.SetSuggestions(threeSuggestions())

	_, ok := n.Active()
	assert.False(t, ok, "Enter with no highlight is a selection no-op")

	n.ArrowDown()
	s, ok := n.Active()
	require.True(t, ok)
	assert.Equal(t, "a", s.Label)
}

func TestSelectCommitsAndCloses(t *testing.T) {
	n := NewNavigator()
	n.SetSuggestions(threeSuggestions())

	s, ok := n.Select(1)
	require.True(t, ok)
	assert.Equal(t, "b", s.Label)
	assert.False(t, n.IsOpen())
	assert.Empty(t, n.Suggestions())

	_, ok = n.Select(0)
	assert.False(t, ok, "selection from a cleared list fails")
}

func TestEscapeClosesWithoutCommitting(t *testing.T) {
	n := NewNavigator()
	n.SetSuggestions(threeSuggestions())
	n.ArrowDown()

	n.Escape()
	assert.False(t, n.IsOpen())
	assert.Equal(t, -1, n.ActiveIndex())
}
