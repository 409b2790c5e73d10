package composer

import (
	"testing"

	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/dictionary"
)

func TestPlainAppendAndDedup(t *testing.T) {
	c := New(dictionary.Default())
	if e := c.Compose("Hello"); e.Kind != Append || e.Text != "Hello" {
		t.Fatalf("expected append Hello, got %+v", e)
	}
	if e := c.Compose("Hello"); e.Kind != Skip {
		t.Fatalf("expected repeat to be skipped, got %+v", e)
	}
	c.ForgetPrinted()
	if e := c.Compose("Hello"); e.Kind != Append {
		t.Fatalf("expected append after forgetting, got %+v", e)
	}
}

func TestModifierRequiresBase(t *testing.T) {
	c := New(dictionary.Default())
	if e := c.Compose("J"); e.Kind != Skip {
		t.Fatalf("expected J without I to be suppressed, got %+v", e)
	}
	if c.LastEntry() != "" || c.LastPrinted() != "" {
		t.Fatalf("suppressed modifier must not change state")
	}

	c.Compose("I")
	e := c.Compose("J")
	if e.Kind != ReplaceLast || e.Text != "J" || e.Remove != "I" {
		t.Fatalf("expected J to replace I, got %+v", e)
	}
	if c.LastEntry() != "J" {
		t.Fatalf("expected last entry J, got %q", c.LastEntry())
	}
}

func TestModifierWithWordBase(t *testing.T) {
	c := New(dictionary.Default())
	c.Compose("Hello")
	if e := c.Compose("Please (Welcome)"); e.Kind != Skip {
		t.Fatalf("expected suppression after unrelated entry, got %+v", e)
	}
	c.Compose("Goodbye")
	e := c.Compose("Please (Welcome)")
	if e.Kind != ReplaceLast || e.Remove != "Goodbye" || e.Text != "Please (Welcome)" {
		t.Fatalf("unexpected effect %+v", e)
	}
}

func TestActivatorReplacesPrevious(t *testing.T) {
	c := New(dictionary.Default())
	c.Compose("Hello")
	e := c.Compose("Waalaikumussalam")
	if e.Kind != ReplaceLast || e.Text != "Assalamualaikum" || e.Remove != "Hello" {
		t.Fatalf("unexpected effect %+v", e)
	}
	if c.LastEntry() != "Assalamualaikum" {
		t.Fatalf("expected combined word as last entry, got %q", c.LastEntry())
	}
	if c.LastPrinted() != "Waalaikumussalam" {
		t.Fatalf("expected raw symbol as last printed, got %q", c.LastPrinted())
	}
}

func TestHiddenPredecessorIsNotRemoved(t *testing.T) {
	c := New(dictionary.Default())
	if e := c.Compose("How are you?"); e.Kind != Skip {
		t.Fatalf("hidden sign must not reach the buffer, got %+v", e)
	}
	if !c.LastHidden() || c.LastEntry() != "How are you?" {
		t.Fatalf("hidden sign must be remembered")
	}
	e := c.Compose("I'm fine")
	if e.Kind != ReplaceLast || e.Text != "How are you?" || e.Remove != "" {
		t.Fatalf("unexpected effect %+v", e)
	}
	if c.LastHidden() {
		t.Fatal("combined entry is visible")
	}
}

func TestHiddenRepeatIsSkipped(t *testing.T) {
	c := New(dictionary.Default())
	c.Compose("How are you?")
	c.Compose("How are you?")
	if !c.LastHidden() {
		t.Fatal("expected hidden memory to persist")
	}
}

func TestChainedActivators(t *testing.T) {
	c := New(dictionary.Default())
	c.Compose("Well")
	if e := c.Compose("Morning"); e.Text != "Good Morning" || e.Remove != "Well" {
		t.Fatalf("unexpected effect %+v", e)
	}
	if e := c.Compose("Night"); e.Kind != Append || e.Text != "Night" {
		t.Fatalf("activator needs Well as previous entry, got %+v", e)
	}
}

func TestReset(t *testing.T) {
	c := New(dictionary.Default())
	c.Compose("Well")
	c.Reset()
	if e := c.Compose("Morning"); e.Kind != Append {
		t.Fatalf("expected plain append after reset, got %+v", e)
	}
}
