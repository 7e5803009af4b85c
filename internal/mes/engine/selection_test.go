package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionDecrementStopsAtOne(t *testing.T) {
	p := newPendingSelection("itm-1", nil)
	p.Toggle(SelectedDefect{DefectID: "def-1", Code: "WG001", Count: 9})

	sel := p.Selected()
	require.Len(t, sel, 1)
	assert.Equal(t, 1, sel[0].Count)

	p.Decrement("def-1")
	p.Decrement("def-1")
	assert.Equal(t, 1, p.Selected()[0].Count)

	p.Increment("def-1")
	p.Increment("def-1")
	p.Decrement("def-1")
	assert.Equal(t, 2, p.Selected()[0].Count)
}

func TestSelectionToggleAndRemove(t *testing.T) {
	p := newPendingSelection("itm-1", []SelectedDefect{{DefectID: "def-1", Count: 3}})
	p.Toggle(SelectedDefect{DefectID: "def-2"})
	assert.Len(t, p.Selected(), 2)

	p.Toggle(SelectedDefect{DefectID: "def-1"})
	sel := p.Selected()
	require.Len(t, sel, 1)
	assert.Equal(t, "def-2", sel[0].DefectID)

	p.Remove("def-2")
	p.Remove("unknown")
	assert.Empty(t, p.Selected())
}

func TestSelectionIsDetachedFromItem(t *testing.T) {
	current := []SelectedDefect{{DefectID: "def-1", Count: 1}}
	p := newPendingSelection("itm-1", current)
	p.Increment("def-1")
	p.Clear()

	assert.Equal(t, 1, current[0].Count)
	assert.Empty(t, p.Selected())
}
