// Package engine wires the stability filter, sequence resolver, composer and
// sentence buffer into a single per-session pipeline. An Engine holds all
// session state explicitly; callers own rendering and transport.
package engine

import (
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/composer"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/dictionary"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/sequence"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/sentence"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/stability"
)

// Frame is one upstream tick: a detection or the absence of a hand.
type Frame struct {
	HandPresent bool
	Label       string
	Confidence  float64
}

func Detection(label string, confidence float64) Frame {
	return Frame{HandPresent: true, Label: label, Confidence: confidence}
}

func NoHand() Frame {
	return Frame{}
}

// Display is the per-tick feedback state.
type Display struct {
	Label      string
	Text       string
	Confidence float64
	Percent    int
	Visible    bool
	// Pending is the base of a two-stage sign whose first half was committed.
	Pending string
}

// Update describes what one frame did.
type Update struct {
	Display Display
	// Commit is set on the frame where a label became stable.
	Commit *stability.Commit
	// Stage is the sequence outcome for the committed label.
	Stage sequence.Result
	// Effect is the composition decision for the resolved symbol.
	Effect composer.Effect
	// TimedOut is set when the no-hand timeout cleared the current label.
	TimedOut bool
	// Sentence is set only when the buffer changed.
	Sentence *sentence.Projection
}

// Engine is not safe for concurrent use; callers serialise frames and
// commands per session.
type Engine struct {
	dict     *dictionary.Dictionary
	filter   *stability.Filter
	resolver *sequence.Resolver
	composer *composer.Composer
	buffer   *sentence.Buffer
}

func New(dict *dictionary.Dictionary, cfg stability.Config) *Engine {
	if dict == nil {
		dict = dictionary.Default()
	}
	return &Engine{
		dict:     dict,
		filter:   stability.New(cfg),
		resolver: sequence.New(dict),
		composer: composer.New(dict),
		buffer:   sentence.New(dict),
	}
}

// Observe runs one frame through the pipeline.
func (e *Engine) Observe(f Frame) Update {
	if !f.HandPresent || f.Label == "" {
		var u Update
		if e.filter.ObserveNoHand() {
			e.composer.ForgetPrinted()
			u.TimedOut = true
		}
		u.Display = e.Display()
		return u
	}

	var u Update
	commit, ok := e.filter.Observe(f.Label, f.Confidence)
	if ok {
		u.Commit = &commit
		u.Stage = e.resolver.Resolve(dictionary.Label(commit.Label))
		if u.Stage.Resolved() {
			u.Effect = e.composer.Compose(u.Stage.Symbol)
			if e.apply(u.Effect) {
				p := e.buffer.Render()
				u.Sentence = &p
			}
		}
	}
	u.Display = e.Display()
	return u
}

func (e *Engine) apply(effect composer.Effect) bool {
	switch effect.Kind {
	case composer.Append:
		e.buffer.Append(effect.Text)
		return true
	case composer.ReplaceLast:
		if effect.Remove != "" {
			e.buffer.RemoveLastIfMatches(effect.Remove)
		}
		e.buffer.Append(effect.Text)
		return true
	default:
		return false
	}
}

// Backspace deletes one letter or the last word.
func (e *Engine) Backspace() (sentence.Projection, bool) {
	changed := e.buffer.Backspace()
	return e.buffer.Render(), changed
}

// Clear empties the sentence and forgets composition and sequence memory.
func (e *Engine) Clear() sentence.Projection {
	e.buffer.Clear()
	e.composer.Reset()
	e.resolver.Reset()
	return e.buffer.Render()
}

func (e *Engine) Sentence() sentence.Projection {
	return e.buffer.Render()
}

func (e *Engine) Entries() []sentence.Entry {
	return e.buffer.Entries()
}

func (e *Engine) Dictionary() *dictionary.Dictionary {
	return e.dict
}

// Display returns the current feedback state.
func (e *Engine) Display() Display {
	d := e.filter.Display()
	out := Display{
		Label:      d.Label,
		Confidence: d.Confidence,
		Percent:    d.Percent(),
		Visible:    d.Visible,
	}
	if d.Visible {
		out.Text = e.dict.Translate(d.Label)
	}
	if pending, ok := e.resolver.State().(sequence.AwaitingSecondStage); ok {
		out.Pending = string(pending.Base)
	}
	return out
}
