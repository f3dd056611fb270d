package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Prod(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput("prod", &buf)

	l.WithField("seed", "id:000001").Printf("selected %d nodes", 3)
	l.Debugf("not written at info level")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "selected 3 nodes", entry["msg"])
	assert.Equal(t, "prod", entry["env"])
	assert.Equal(t, "id:000001", entry["seed"])
	assert.Equal(t, "info", entry["level"])
}

func TestNew_Dev(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput("dev", &buf)

	l.Debugf("layout settled after %d ticks", 300)
	assert.Contains(t, buf.String(), "layout settled after 300 ticks")
	assert.Contains(t, buf.String(), "env=dev")
}
