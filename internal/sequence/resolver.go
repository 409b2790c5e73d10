// Package sequence resolves two-stage signs. A sign split into "BASE_0" and
// "BASE_1" halves resolves to "BASE" only when both halves are committed in
// order.
package sequence

import (
	"strconv"
	"strings"

	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/dictionary"
)

// State is either Idle or AwaitingSecondStage.
type State interface {
	isState()
}

type Idle struct{}

// AwaitingSecondStage holds the base whose first half has been committed.
type AwaitingSecondStage struct {
	Base dictionary.Label
}

func (Idle) isState()                {}
func (AwaitingSecondStage) isState() {}

// Outcome classifies how a committed label was handled.
type Outcome int

const (
	// Passed means the label is not a sequence member and flows through unchanged.
	Passed Outcome = iota
	// FirstStage means the first half was recorded; nothing is emitted yet.
	FirstStage
	// Completed means the second half matched the pending first half.
	Completed
	// Dropped means an unmatched second half was discarded.
	Dropped
)

func (o Outcome) String() string {
	switch o {
	case Passed:
		return "passed"
	case FirstStage:
		return "first_stage"
	case Completed:
		return "completed"
	case Dropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// Result carries the resolved symbol for Passed and Completed outcomes.
type Result struct {
	Outcome Outcome
	Symbol  dictionary.Label
}

// Resolved reports whether the result carries a symbol for the composer.
func (r Result) Resolved() bool {
	return r.Outcome == Passed || r.Outcome == Completed
}

// HiddenSet reports whether a label is hidden. Hidden labels never enter
// sequence logic even when they look like "BASE_n".
type HiddenSet interface {
	IsHidden(dictionary.Label) bool
}

type Resolver struct {
	hidden HiddenSet
	state  State
}

func New(hidden HiddenSet) *Resolver {
	return &Resolver{hidden: hidden, state: Idle{}}
}

func (r *Resolver) State() State {
	return r.state
}

func (r *Resolver) Reset() {
	r.state = Idle{}
}

// Resolve feeds one committed label through the state machine.
func (r *Resolver) Resolve(label dictionary.Label) Result {
	base, step, ok := r.split(label)
	if !ok {
		r.state = Idle{}
		return Result{Outcome: Passed, Symbol: label}
	}
	if step == 0 {
		r.state = AwaitingSecondStage{Base: base}
		return Result{Outcome: FirstStage}
	}
	if pending, ok := r.state.(AwaitingSecondStage); ok && pending.Base == base {
		r.state = Idle{}
		return Result{Outcome: Completed, Symbol: base}
	}
	return Result{Outcome: Dropped}
}

func (r *Resolver) split(label dictionary.Label) (dictionary.Label, int, bool) {
	if r.hidden != nil && r.hidden.IsHidden(label) {
		return "", 0, false
	}
	return Split(label)
}

// Split parses "BASE_n" with n of 0 or 1. Anything else is a plain label.
func Split(label dictionary.Label) (dictionary.Label, int, bool) {
	s := string(label)
	idx := strings.LastIndex(s, "_")
	if idx <= 0 || idx == len(s)-1 {
		return "", 0, false
	}
	step, err := strconv.Atoi(s[idx+1:])
	if err != nil || (step != 0 && step != 1) {
		return "", 0, false
	}
	return dictionary.Label(s[:idx]), step, true
}
