// Package sentence keeps the bilingual sentence under construction. Entries
// are either letter runs being spelled out or whole words and phrases.
package sentence

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Placeholder is rendered for an empty sentence.
const Placeholder = "..."

// Entry is one word of the sentence in both channels.
type Entry struct {
	Source  string `json:"source"`
	Target  string `json:"target"`
	Letters bool   `json:"letters"`
}

// Projection is the rendered sentence.
type Projection struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Empty  bool   `json:"empty"`
}

// Translator maps source text to the target channel.
type Translator interface {
	Translate(text string) string
}

// Buffer is not safe for concurrent use.
type Buffer struct {
	translator    Translator
	entries       []Entry
	lastWasLetter bool
}

func New(translator Translator) *Buffer {
	return &Buffer{translator: translator}
}

// IsLetter reports whether text is exactly one alphabetic character.
func IsLetter(text string) bool {
	r, size := utf8.DecodeRuneInString(text)
	return size > 0 && size == len(text) && unicode.IsLetter(r)
}

// Append adds text, extending an open letter run when text is a letter.
func (b *Buffer) Append(text string) {
	if IsLetter(text) {
		if b.lastWasLetter && len(b.entries) > 0 {
			last := &b.entries[len(b.entries)-1]
			lower := strings.ToLower(text)
			last.Source += lower
			last.Target += lower
		} else {
			upper := strings.ToUpper(text)
			b.entries = append(b.entries, Entry{Source: upper, Target: upper, Letters: true})
		}
		b.lastWasLetter = true
		return
	}
	target := text
	if b.translator != nil {
		target = b.translator.Translate(text)
	}
	b.entries = append(b.entries, Entry{Source: text, Target: target})
	b.lastWasLetter = false
}

// Backspace removes one letter from a letter run, or the whole last entry.
// It reports whether the buffer changed.
func (b *Buffer) Backspace() bool {
	if len(b.entries) == 0 {
		return false
	}
	last := &b.entries[len(b.entries)-1]
	if last.Letters && utf8.RuneCountInString(last.Source) > 1 {
		last.Source = dropLastRune(last.Source)
		last.Target = dropLastRune(last.Target)
		return true
	}
	b.pop()
	return true
}

// RemoveLastIfMatches pops the last entry only when its source text is text
// or text in upper case.
func (b *Buffer) RemoveLastIfMatches(text string) bool {
	if len(b.entries) == 0 {
		return false
	}
	last := b.entries[len(b.entries)-1].Source
	if last != text && last != strings.ToUpper(text) {
		return false
	}
	b.pop()
	return true
}

func (b *Buffer) Clear() {
	b.entries = nil
	b.lastWasLetter = false
}

func (b *Buffer) pop() {
	b.entries = b.entries[:len(b.entries)-1]
	if n := len(b.entries); n > 0 {
		b.lastWasLetter = b.entries[n-1].Letters
	} else {
		b.lastWasLetter = false
	}
}

// Render joins both channels with single spaces.
func (b *Buffer) Render() Projection {
	if len(b.entries) == 0 {
		return Projection{Source: Placeholder, Target: Placeholder, Empty: true}
	}
	source := make([]string, len(b.entries))
	target := make([]string, len(b.entries))
	for i, e := range b.entries {
		source[i] = e.Source
		target[i] = e.Target
	}
	return Projection{Source: strings.Join(source, " "), Target: strings.Join(target, " ")}
}

func (b *Buffer) Entries() []Entry {
	return append([]Entry(nil), b.entries...)
}

func (b *Buffer) Len() int {
	return len(b.entries)
}

func dropLastRune(s string) string {
	_, size := utf8.DecodeLastRuneInString(s)
	return s[:len(s)-size]
}
