// Package board holds the per-room operation log with undo/redo stacks.
// The visible picture is derived by replaying the log; it is never
// cached incrementally because room histories are bounded by session
// lifetime.
package board

import (
	"github.com/openboard/openboard/internal/draw"
)

// Log is an append-only sequence of committed operations plus a stack
// of undone operations. It is not safe for concurrent use; the owning
// room serializes access.
type Log struct {
	history []draw.Op
	undone  []draw.Op
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{}
}

// Commit appends an operation to the history. Any redo history is
// invalidated: committing clears the undone stack.
func (l *Log) Commit(op draw.Op) {
	l.history = append(l.history, op)
	l.undone = nil
}

// Undo moves the most recently committed operation onto the undone
// stack. It reports false, changing nothing, when the history is empty.
// A clear is an ordinary log entry and is therefore undoable.
func (l *Log) Undo() bool {
	if len(l.history) == 0 {
		return false
	}

	last := len(l.history) - 1
	op := l.history[last]
	l.history = l.history[:last]
	l.undone = append(l.undone, op)

	return true
}

// Redo moves the most recently undone operation back onto the history.
// It reports false, changing nothing, when the undone stack is empty.
func (l *Log) Redo() bool {
	if len(l.undone) == 0 {
		return false
	}

	last := len(l.undone) - 1
	op := l.undone[last]
	l.undone = l.undone[:last]
	l.history = append(l.history, op)

	return true
}

// Visible derives the render-ready operation sequence by replaying the
// history in order. A clear resets the accumulator without truncating
// the underlying log; clears themselves never appear in the result.
func (l *Log) Visible() []draw.Op {
	visible := make([]draw.Op, 0, len(l.history))

	for _, op := range l.history {
		if op.IsClear() {
			visible = visible[:0]

			continue
		}

		visible = append(visible, op)
	}

	return visible
}

// HistoryLen returns the number of committed operations, clears included.
func (l *Log) HistoryLen() int {
	return len(l.history)
}

// UndoneLen returns the number of operations on the undone stack.
func (l *Log) UndoneLen() int {
	return len(l.undone)
}
