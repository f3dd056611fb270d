package search

import (
	"strings"
)

type Key int

const (
	KeyOther Key = iota
	KeyUp
	KeyDown
	KeyEnter
	// KeyModifier is a bare shift, ctrl, alt or meta press.
	KeyModifier
)

// ParseKey reads a browser key name such as ArrowUp or Enter. Unknown
// names are KeyOther.
func ParseKey(name string) Key {
	switch strings.ToLower(name) {
	case "arrowup", "up":
		return KeyUp
	case "arrowdown", "down":
		return KeyDown
	case "enter":
		return KeyEnter
	case "shift", "control", "ctrl", "alt", "meta":
		return KeyModifier
	}
	return KeyOther
}

// Action tells the caller what to do after a key press.
type Action int

const (
	// ActionNone leaves everything as it is.
	ActionNone Action = iota
	// ActionMove only moved the active item.
	ActionMove
	// ActionSelect activates the item returned along with it.
	ActionSelect
	// ActionHide hides the dropdown.
	ActionHide
	// ActionSearch re-runs the search with the current input.
	ActionSearch
)

var actionNames = [...]string{"none", "move", "select", "hide", "search"}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "unknown"
	}
	return actionNames[a]
}

// Cursor is the virtual cursor moving over the rendered dropdown items. The
// zero value has no items and no active item.
type Cursor struct {
	items []string
	pos   int
}

func NewCursor(items []string) *Cursor {
	return &Cursor{items: items, pos: -1}
}

// Reset replaces the items and unsets the cursor.
func (c *Cursor) Reset(items []string) {
	c.items = items
	c.pos = -1
}

func (c *Cursor) Items() []string {
	return c.items
}

// Pos returns the index of the active item, -1 when none is.
func (c *Cursor) Pos() int {
	if len(c.items) == 0 {
		return -1
	}
	return c.pos
}

// Active reports whether item i is under the cursor.
func (c *Cursor) Active(i int) bool {
	return c.Pos() >= 0 && c.pos == i
}

// Key applies a key press. The returned name is only set along with
// ActionSelect.
func (c *Cursor) Key(k Key) (Action, string) {
	switch k {
	case KeyModifier:
		return ActionNone, ""
	case KeyUp:
		if len(c.items) == 0 {
			return ActionNone, ""
		}
		c.pos--
		if c.pos < 0 {
			c.pos = 0
		}
		return ActionMove, ""
	case KeyDown:
		if len(c.items) == 0 {
			return ActionNone, ""
		}
		c.pos++
		if c.pos > len(c.items)-1 {
			c.pos = len(c.items) - 1
		}
		return ActionMove, ""
	case KeyEnter:
		if c.Pos() < 0 {
			return ActionHide, ""
		}
		name := c.items[c.pos]
		c.pos = -1
		return ActionSelect, name
	}
	return ActionSearch, ""
}
