package search

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscape(t *testing.T) {
	tts := map[string]struct {
		q       string
		escaped string
	}{
		"plain":       {q: "abc", escaped: "abc"},
		"comma":       {q: "a,b", escaped: "a|b"},
		"dot":         {q: "a.b", escaped: `a\.b`},
		"brackets":    {q: "[x]", escaped: `\[x\]`},
		"backslash":   {q: `a\b`, escaped: `a\\b`},
		"pipe":        {q: "a|b", escaped: `a\|b`},
		"mixed comma": {q: "id:1+,Crash", escaped: `id:1\+|Crash`},
	}

	for name, tt := range tts {
		assert.Equal(t, tt.escaped, Escape(tt.q), name)
	}
}

func TestEscape_MetacharsMatchThemselves(t *testing.T) {
	for _, c := range `.*+-?^${}()|[]\` {
		q := fmt.Sprintf("a%cb", c)
		re, err := Compile(q)
		require.NoError(t, err, q)

		assert.True(t, re.MatchString(q), "%q should match itself", q)
		assert.False(t, re.MatchString("axxb"), "%q should not act as a pattern", q)
	}
}

func TestCompile_Empty(t *testing.T) {
	re, err := Compile("")
	require.NoError(t, err)
	assert.Nil(t, re)
}

func TestRun(t *testing.T) {
	names := []string{"id:000001", "id:000002", "Crash: 000003", "id:000010"}

	tts := map[string]struct {
		q       string
		matches []string
	}{
		"empty query":          {q: "", matches: []string{}},
		"substring":            {q: "00001", matches: []string{"id:000001", "id:000010"}},
		"case insensitive":     {q: "crash", matches: []string{"Crash: 000003"}},
		"comma is alternation": {q: "002,crash", matches: []string{"id:000002", "Crash: 000003"}},
		"no match":             {q: "zzz", matches: []string{}},
	}

	for name, tt := range tts {
		res, err := Run(names, tt.q)
		require.NoError(t, err, name)
		assert.Equal(t, tt.matches, res.Matches, name)
		assert.Equal(t, tt.matches, res.Shown, name)
	}
}

func TestRun_MaxShow(t *testing.T) {
	names := make([]string, 25)
	for i := range names {
		names[i] = fmt.Sprintf("id:%06d", i)
	}

	res, err := Run(names, "id")
	require.NoError(t, err)
	assert.Len(t, res.Matches, 25)
	assert.Equal(t, names[:MaxShow], res.Shown)
}

func TestRun_ClearTwice(t *testing.T) {
	first, err := Run([]string{"a"}, "")
	require.NoError(t, err)
	second, err := Run([]string{"a"}, "")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, second.Empty())
}

func TestCursor(t *testing.T) {
	c := NewCursor([]string{"a", "b", "c"})
	assert.Equal(t, -1, c.Pos())

	action, _ := c.Key(KeyEnter)
	assert.Equal(t, ActionHide, action, "enter without cursor hides the dropdown")

	c.Key(KeyDown)
	assert.Equal(t, 0, c.Pos())
	assert.True(t, c.Active(0))

	c.Key(KeyDown)
	c.Key(KeyDown)
	c.Key(KeyDown)
	assert.Equal(t, 2, c.Pos(), "down is clamped")

	c.Key(KeyUp)
	assert.Equal(t, 1, c.Pos())
	c.Key(KeyUp)
	c.Key(KeyUp)
	assert.Equal(t, 0, c.Pos(), "up is clamped")

	action, _ = c.Key(KeyModifier)
	assert.Equal(t, ActionNone, action)
	assert.Equal(t, 0, c.Pos())

	action, name := c.Key(KeyEnter)
	assert.Equal(t, ActionSelect, action)
	assert.Equal(t, "a", name)
	assert.Equal(t, -1, c.Pos())

	action, _ = c.Key(KeyOther)
	assert.Equal(t, ActionSearch, action)
}

func TestCursor_UpFromUnset(t *testing.T) {
	c := NewCursor([]string{"a", "b"})
	c.Key(KeyUp)
	assert.Equal(t, 0, c.Pos())

	empty := NewCursor(nil)
	action, _ := empty.Key(KeyDown)
	assert.Equal(t, ActionNone, action)
	assert.Equal(t, -1, empty.Pos())
}

func TestParseKey(t *testing.T) {
	tts := map[string]Key{
		"ArrowUp":   KeyUp,
		"down":      KeyDown,
		"Enter":     KeyEnter,
		"Shift":     KeyModifier,
		"Meta":      KeyModifier,
		"a":         KeyOther,
		"Backspace": KeyOther,
	}

	for name, expected := range tts {
		assert.Equal(t, expected, ParseKey(name), name)
	}
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "select", ActionSelect.String())
	assert.Equal(t, "unknown", Action(42).String())
}
