package editor

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/sidebearing/internal/engine"
	"github.com/roach88/sidebearing/internal/metrics"
)

var (
	// ErrNothingToUndo is returned by Undo on an empty history.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo is returned by Redo when no undone entry is waiting.
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Entry is one recorded command in the history.
type Entry struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`

	tx *Transaction
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the logger used by the editor and its arbiter.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// WithMetrics attaches Prometheus counters to the arbiter.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Editor) { e.metrics = m }
}

// WithHistoryLimit caps the undo history. Zero means unlimited.
func WithHistoryLimit(n int) Option {
	return func(e *Editor) { e.limit = n }
}

// Editor executes commands against one font and its rules and keeps the
// undo and redo stacks.
type Editor struct {
	font    engine.Font
	rules   Rules
	arbiter *engine.Arbiter

	undo  []*Entry
	redo  []*Entry
	limit int

	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New returns an Editor over font and rules.
func New(font engine.Font, rules Rules, opts ...Option) *Editor {
	e := &Editor{font: font, rules: rules}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.arbiter = engine.NewArbiter(font, rules, engine.WithLogger(e.logger), engine.WithMetrics(e.metrics))
	return e
}

// Arbiter returns the arbiter commands run against.
func (e *Editor) Arbiter() *engine.Arbiter {
	return e.arbiter
}

// Execute runs cmd inside a new transaction. On success the transaction
// becomes the newest undo entry and the redo stack is cleared. On failure
// whatever the command already changed is rolled back and nothing is recorded.
func (e *Editor) Execute(cmd Command) (*Result, error) {
	tx := newTransaction(e.font, e.rules)
	res, err := cmd.Execute(Env{Font: e.font, Rules: e.rules, Arbiter: e.arbiter, Recorder: tx})
	if err != nil {
		if _, rerr := tx.revert(); rerr != nil {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rerr))
		}
		e.logger.Warn("command failed", "command", cmd.Description(), "error", err)
		return nil, fmt.Errorf("%s: %w", cmd.Description(), err)
	}

	entry := &Entry{ID: uuid.New(), Description: cmd.Description(), tx: tx}
	e.undo = append(e.undo, entry)
	if e.limit > 0 && len(e.undo) > e.limit {
		e.undo = e.undo[len(e.undo)-e.limit:]
	}
	e.redo = nil

	e.logger.Debug("command executed",
		"id", entry.ID,
		"command", entry.Description,
		"touched", tx.Len(),
	)
	res.ID = entry.ID.String()
	return res, nil
}

// Undo reverts the newest entry and moves it to the redo stack.
func (e *Editor) Undo() (*Result, error) {
	if len(e.undo) == 0 {
		return nil, ErrNothingToUndo
	}
	entry := e.undo[len(e.undo)-1]
	e.undo = e.undo[:len(e.undo)-1]

	res, err := e.replay(entry, "Undid")
	e.redo = append(e.redo, entry)
	return res, err
}

// Redo re-applies the most recently undone entry.
func (e *Editor) Redo() (*Result, error) {
	if len(e.redo) == 0 {
		return nil, ErrNothingToRedo
	}
	entry := e.redo[len(e.redo)-1]
	e.redo = e.redo[:len(e.redo)-1]

	res, err := e.replay(entry, "Redid")
	e.undo = append(e.undo, entry)
	return res, err
}

// replay reverts entry's transaction and stores the captured opposite state
// on the entry for the next undo or redo.
func (e *Editor) replay(entry *Entry, verb string) (*Result, error) {
	fwd, err := entry.tx.revert()
	entry.tx = fwd
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", verb, entry.Description, err)
	}
	e.logger.Debug("history replayed", "id", entry.ID, "verb", verb, "touched", fwd.Len())
	return &Result{
		ID:       entry.ID.String(),
		Message:  verb + ": " + entry.Description,
		Affected: fwd.Glyphs(),
	}, nil
}

// CanUndo reports whether Undo has something to do.
func (e *Editor) CanUndo() bool { return len(e.undo) > 0 }

// CanRedo reports whether Redo has something to do.
func (e *Editor) CanRedo() bool { return len(e.redo) > 0 }

// UndoDescription describes the entry Undo would revert.
func (e *Editor) UndoDescription() (string, bool) {
	if len(e.undo) == 0 {
		return "", false
	}
	return e.undo[len(e.undo)-1].Description, true
}

// RedoDescription describes the entry Redo would re-apply.
func (e *Editor) RedoDescription() (string, bool) {
	if len(e.redo) == 0 {
		return "", false
	}
	return e.redo[len(e.redo)-1].Description, true
}

// History returns the undo history, oldest first.
func (e *Editor) History() []Entry {
	out := make([]Entry, len(e.undo))
	for i, entry := range e.undo {
		out[i] = Entry{ID: entry.ID, Description: entry.Description}
	}
	return out
}

// ClearHistory drops both stacks.
func (e *Editor) ClearHistory() {
	e.undo = nil
	e.redo = nil
}
