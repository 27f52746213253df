package flight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dronepath/autopilot/pkg/core"
)

func move(label string) core.Instruction {
	return core.Instruction{Kind: core.KindMove, Direction: core.Forward, Label: label}
}

func assertFramed(t *testing.T, l *List) {
	t.Helper()
	items := l.Items()
	require.GreaterOrEqual(t, len(items), 2)
	assert.Equal(t, core.KindTakeoff, items[0].Kind)
	assert.Equal(t, core.KindLand, items[len(items)-1].Kind)
}

func TestNewList_Sentinels(t *testing.T) {
	l := NewList()

	assert.Equal(t, 2, l.Len())
	assert.True(t, l.Empty())
	assert.Equal(t, core.KindTakeoff, l.Last().Instruction.Kind)
	assertFramed(t, l)
}

func TestList_AppendBeforeLand(t *testing.T) {
	l := NewList()
	l.Append(move("a"), core.North)
	l.Append(move("b"), core.East)

	items := l.Items()
	require.Len(t, items, 4)
	assert.Equal(t, "a", items[1].Label)
	assert.Equal(t, "b", items[2].Label)
	assert.Equal(t, core.East, l.Last().Before)
	assertFramed(t, l)
}

func TestList_MergeKeepsPreState(t *testing.T) {
	l := NewList()
	l.Append(core.Instruction{Kind: core.KindRotate, Direction: core.Clockwise, Degrees: 90}, core.South)
	l.MergeReplaceLast(core.Instruction{Kind: core.KindRotate, Direction: core.Clockwise, Degrees: 180})

	assert.Equal(t, 3, l.Len())
	assert.Equal(t, 180, l.Last().Instruction.Degrees)
	assert.Equal(t, core.South, l.Last().Before)
}

func TestList_MergeIntoEmptyPanics(t *testing.T) {
	l := NewList()
	assert.Panics(t, func() { l.MergeReplaceLast(move("x")) })
}

func TestList_UndoLast(t *testing.T) {
	l := NewList()
	l.Append(move("a"), core.North)
	l.Append(move("b"), core.West)

	removed, err := l.UndoLast()
	require.NoError(t, err)
	assert.Equal(t, "b", removed.Instruction.Label)
	assert.Equal(t, core.West, removed.Before)
	assert.Equal(t, "a", l.Last().Instruction.Label)
	assertFramed(t, l)
}

func TestList_UndoOnEmptyIsNoop(t *testing.T) {
	l := NewList()

	_, err := l.UndoLast()
	assert.ErrorIs(t, err, ErrNothingToUndo)
	assert.Equal(t, 2, l.Len())
	assertFramed(t, l)
}

func TestList_Clear(t *testing.T) {
	l := NewList()
	for i := 0; i < 5; i++ {
		l.Append(move("m"), core.North)
	}
	l.Clear()

	assert.True(t, l.Empty())
	assertFramed(t, l)
}

func TestList_ItemsIsCopy(t *testing.T) {
	l := NewList()
	l.Append(move("a"), core.North)

	items := l.Items()
	items[1].Label = "changed"

	assert.Equal(t, "a", l.Last().Instruction.Label)
}
