package bolt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobinette/seedgraph/layout"
)

func TestLayoutStore(t *testing.T) {
	driver, f := createDriver(t)
	defer f()
	store := LayoutStore{Driver: driver}

	_, found, err := store.Load("graph")
	require.NoError(t, err)
	assert.False(t, found)

	snap := layout.Snapshot{Points: []layout.Point{
		{ID: "A", X: 1.5, Y: -2},
		{ID: "B", X: 300, Y: 400.25, Fixed: true},
	}}
	require.NoError(t, store.Save("graph", snap))

	got, found, err := store.Load("graph")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, snap, got)

	require.NoError(t, store.Delete("graph"))
	_, found, err = store.Load("graph")
	require.NoError(t, err)
	assert.False(t, found)
}
