package geocode

// Navigator is the keyboard state machine for the suggestion list.
// ActiveIndex -1 means nothing is highlighted. Not safe for concurrent
// use; it lives on the session engine's event loop.
type Navigator struct {
	open        bool
	suggestions []Suggestion
	active      int
}

// NewNavigator creates a closed navigator
func NewNavigator() *Navigator {
	return &Navigator{active: -1}
}

// SetSuggestions replaces the list. A non-empty list opens the
// navigator; an empty one closes it. Highlight resets either way.
func (n *Navigator) SetSuggestions(s []Suggestion) {
	n.suggestions = s
	n.active = -1
	n.open = len(s) > 0
}

// Clear drops the list and closes the navigator.
func (n *Navigator) Clear() {
	n.suggestions = nil
	n.active = -1
	n.open = false
}

// IsOpen reports whether the list is showing.
func (n *Navigator) IsOpen() bool {
	return n.open
}

// Suggestions returns the current list.
func (n *Navigator) Suggestions() []Suggestion {
	return n.suggestions
}

// ActiveIndex returns the highlighted index, -1 for none.
func (n *Navigator) ActiveIndex() int {
	return n.active
}

// ArrowDown moves the highlight down, stopping at the last item.
func (n *Navigator) ArrowDown() int {
	if !n.open {
		return n.active
	}
	next := n.active + 1
	if last := len(n.suggestions) - 1; next > last {
		next = last
	}
	n.active = next
	return n.active
}

// ArrowUp moves the highlight up, stopping at the first item. From the
// unhighlighted state it lands on the first item.
func (n *Navigator) ArrowUp() int {
	if !n.open {
		return n.active
	}
	i := n.active
	if i < 0 {
		i = 0
	}
	i--
	if i < 0 {
		i = 0
	}
	n.active = i
	return n.active
}

// Active returns the highlighted suggestion, if any. Enter with no
// highlight is a selection no-op that falls through to resolve.
func (n *Navigator) Active() (Suggestion, bool) {
	if !n.open || n.active < 0 || n.active >= len(n.suggestions) {
		return Suggestion{}, false
	}
	return n.suggestions[n.active], true
}

// Select commits the suggestion at index and closes the list.
func (n *Navigator) Select(index int) (Suggestion, bool) {
	if index < 0 || index >= len(n.suggestions) {
		return Suggestion{}, false
	}
	s := n.suggestions[index]
	n.Clear()
	return s, true
}

// Escape closes the list without committing.
func (n *Navigator) Escape() {
	n.open = false
	n.active = -1
}
