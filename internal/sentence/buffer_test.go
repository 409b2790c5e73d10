package sentence

import (
	"testing"

	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/dictionary"
)

func TestLetterMerge(t *testing.T) {
	b := New(dictionary.Default())
	b.Append("A")
	b.Append("B")
	b.Append("C")
	if b.Len() != 1 {
		t.Fatalf("expected one entry, got %d", b.Len())
	}
	e := b.Entries()[0]
	if e.Source != "Abc" || e.Target != "Abc" || !e.Letters {
		t.Fatalf("unexpected entry %+v", e)
	}
}

func TestWordBreaksLetterRun(t *testing.T) {
	b := New(dictionary.Default())
	b.Append("H")
	b.Append("I")
	b.Append("Thank you")
	b.Append("a")
	p := b.Render()
	if p.Source != "Hi Thank you A" {
		t.Fatalf("unexpected source line %q", p.Source)
	}
	if p.Target != "Hi Terima Kasih A" {
		t.Fatalf("unexpected target line %q", p.Target)
	}
}

func TestUntranslatedFallsBack(t *testing.T) {
	b := New(dictionary.Default())
	b.Append("Mystery")
	if got := b.Entries()[0].Target; got != "Mystery" {
		t.Fatalf("expected identity translation, got %q", got)
	}
}

func TestBackspace(t *testing.T) {
	b := New(nil)
	if b.Backspace() {
		t.Fatal("backspace on empty buffer must be a no-op")
	}
	b.Append("A")
	b.Append("B")
	if !b.Backspace() {
		t.Fatal("expected change")
	}
	if e := b.Entries(); len(e) != 1 || e[0].Source != "A" || !e[0].Letters {
		t.Fatalf("unexpected entries %+v", e)
	}
	b.Backspace()
	if b.Len() != 0 {
		t.Fatalf("expected empty buffer, got %+v", b.Entries())
	}
	if !b.Render().Empty {
		t.Fatal("expected placeholder projection")
	}
}

func TestBackspaceRemovesWholeWord(t *testing.T) {
	b := New(dictionary.Default())
	b.Append("A")
	b.Append("B")
	b.Append("Hello")
	b.Backspace()
	if got := b.Render().Source; got != "Ab" {
		t.Fatalf("expected word removed, got %q", got)
	}
	b.Append("C")
	if got := b.Render().Source; got != "Abc" {
		t.Fatalf("expected letter run to reopen after backspace, got %q", got)
	}
}

func TestBackspaceIsRuneAware(t *testing.T) {
	b := New(nil)
	b.Append("É")
	b.Append("ß")
	b.Backspace()
	if got := b.Entries()[0].Source; got != "É" {
		t.Fatalf("expected multi-byte letter preserved, got %q", got)
	}
}

func TestRemoveLastIfMatches(t *testing.T) {
	b := New(dictionary.Default())
	if b.RemoveLastIfMatches("Hello") {
		t.Fatal("empty buffer must not report removal")
	}
	b.Append("Hello")
	if b.RemoveLastIfMatches("Goodbye") {
		t.Fatal("must not remove an unrelated entry")
	}
	if !b.RemoveLastIfMatches("Hello") || b.Len() != 0 {
		t.Fatal("expected Hello removed")
	}

	b.Append("i")
	if !b.RemoveLastIfMatches("i") {
		t.Fatal("expected upper-case form to match")
	}
}

func TestClear(t *testing.T) {
	b := New(nil)
	b.Append("A")
	b.Clear()
	b.Append("B")
	if got := b.Render().Source; got != "B" {
		t.Fatalf("expected fresh letter run after clear, got %q", got)
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	b := New(dictionary.Default())
	b.Append("Hello")
	b.Append("X")
	first, second := b.Render(), b.Render()
	if first != second {
		t.Fatalf("render changed without mutation: %+v vs %+v", first, second)
	}
	empty := New(nil).Render()
	if empty.Source != Placeholder || empty.Target != Placeholder {
		t.Fatalf("expected placeholder, got %+v", empty)
	}
}
