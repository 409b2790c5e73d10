// Package composer decides how a resolved symbol changes the sentence: it
// suppresses repeats, remembers hidden signs, gates modifiers on their base
// symbol, and collapses activator pairs into combined words.
package composer

import "github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/dictionary"

// Kind enumerates composition effects.
type Kind int

const (
	Skip Kind = iota
	Append
	ReplaceLast
)

func (k Kind) String() string {
	switch k {
	case Skip:
		return "skip"
	case Append:
		return "append"
	case ReplaceLast:
		return "replace_last"
	default:
		return "unknown"
	}
}

// Effect is the buffer mutation requested for a symbol. For ReplaceLast,
// Remove names the entry expected at the buffer tail; it is empty when the
// previous symbol was hidden and never reached the buffer.
type Effect struct {
	Kind   Kind
	Text   string
	Remove string
}

// Rules is the subset of the dictionary the composer consults.
type Rules interface {
	IsHidden(dictionary.Label) bool
	ModifierBase(dictionary.Label) (dictionary.Label, bool)
	Activator(previous, current dictionary.Label) (dictionary.Label, bool)
}

// entry is the last logical symbol: none, one written to the buffer, or a
// hidden one kept only as memory.
type entry interface {
	symbol() dictionary.Label
}

type visible struct{ label dictionary.Label }

type hidden struct{ label dictionary.Label }

func (v visible) symbol() dictionary.Label { return v.label }
func (h hidden) symbol() dictionary.Label  { return h.label }

// Composer is not safe for concurrent use.
type Composer struct {
	rules       Rules
	last        entry
	lastPrinted dictionary.Label
}

func New(rules Rules) *Composer {
	return &Composer{rules: rules}
}

// Compose applies the rules to one resolved symbol.
func (c *Composer) Compose(symbol dictionary.Label) Effect {
	if symbol == "" || symbol == c.lastPrinted {
		return Effect{Kind: Skip}
	}

	if c.rules.IsHidden(symbol) {
		c.last = hidden{label: symbol}
		c.lastPrinted = symbol
		return Effect{Kind: Skip}
	}

	previous := c.LastEntry()
	replace := false
	if base, ok := c.rules.ModifierBase(symbol); ok {
		if previous != base {
			return Effect{Kind: Skip}
		}
		replace = true
	}

	var effect Effect
	if combined, ok := c.rules.Activator(previous, symbol); ok && previous != "" {
		effect = Effect{Kind: ReplaceLast, Text: string(combined), Remove: c.removable()}
		c.last = visible{label: combined}
	} else if replace {
		effect = Effect{Kind: ReplaceLast, Text: string(symbol), Remove: c.removable()}
		c.last = visible{label: symbol}
	} else {
		effect = Effect{Kind: Append, Text: string(symbol)}
		c.last = visible{label: symbol}
	}
	c.lastPrinted = symbol
	return effect
}

func (c *Composer) removable() string {
	if v, ok := c.last.(visible); ok {
		return string(v.label)
	}
	return ""
}

// LastEntry is the most recent logical symbol, hidden or not.
func (c *Composer) LastEntry() dictionary.Label {
	if c.last == nil {
		return ""
	}
	return c.last.symbol()
}

// LastHidden reports whether the last logical symbol was a hidden sign.
func (c *Composer) LastHidden() bool {
	_, ok := c.last.(hidden)
	return ok
}

func (c *Composer) LastPrinted() dictionary.Label {
	return c.lastPrinted
}

// ForgetPrinted allows the last printed symbol to be printed again.
func (c *Composer) ForgetPrinted() {
	c.lastPrinted = ""
}

// Reset drops all composition memory.
func (c *Composer) Reset() {
	c.last = nil
	c.lastPrinted = ""
}
