package flight

import (
	"errors"

	"github.com/dronepath/autopilot/pkg/core"
)

// ErrNothingToUndo is returned by UndoLast when only the sentinels remain.
var ErrNothingToUndo = errors.New("nothing to undo")

// Entry is an interior list entry together with the heading in force before it was
// first created. Restoring Before undoes the entry's effect on orientation.
type Entry struct {
	Instruction core.Instruction
	Before      core.Orientation
}

// List is the ordered instruction log, always framed by takeoff and land.
// All mutations happen strictly between the two sentinels.
type List struct {
	entries []Entry
}

// NewList returns the two-sentinel empty list.
func NewList() *List {
	l := &List{}
	l.Clear()
	return l
}

// Len counts all entries including the sentinels.
func (l *List) Len() int {
	return len(l.entries)
}

// Empty reports whether only the sentinels remain.
func (l *List) Empty() bool {
	return len(l.entries) <= 2
}

// Items returns a copy of the instructions in order.
func (l *List) Items() []core.Instruction {
	out := make([]core.Instruction, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Instruction
	}
	return out
}

// Last returns the entry before the trailing land sentinel. For an empty list that is
// the takeoff sentinel.
func (l *List) Last() Entry {
	return l.entries[len(l.entries)-2]
}

// Append inserts ins immediately before the trailing land sentinel.
func (l *List) Append(ins core.Instruction, before core.Orientation) {
	tail := len(l.entries) - 1
	l.entries = append(l.entries[:tail], Entry{Instruction: ins, Before: before}, l.entries[tail])
}

// MergeReplaceLast swaps the instruction before the trailing sentinel for its merged
// form. The original pre-state is kept so undo still reverts the whole entry.
func (l *List) MergeReplaceLast(ins core.Instruction) {
	if l.Empty() {
		panic("flight: merge into empty list")
	}
	l.entries[len(l.entries)-2].Instruction = ins
}

// UndoLast removes the entry before the trailing sentinel.
func (l *List) UndoLast() (Entry, error) {
	if l.Empty() {
		return Entry{}, ErrNothingToUndo
	}
	idx := len(l.entries) - 2
	removed := l.entries[idx]
	l.entries = append(l.entries[:idx], l.entries[idx+1:]...)
	return removed, nil
}

// Clear resets the list to takeoff followed by land.
func (l *List) Clear() {
	l.entries = []Entry{{Instruction: core.Takeoff()}, {Instruction: core.Land()}}
}
