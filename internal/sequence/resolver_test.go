package sequence

import (
	"testing"

	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/dictionary"
)

func TestSplit(t *testing.T) {
	cases := []struct {
		label dictionary.Label
		base  dictionary.Label
		step  int
		ok    bool
	}{
		{"Z_0", "Z", 0, true},
		{"Z_1", "Z", 1, true},
		{"Long_Name_1", "Long_Name", 1, true},
		{"Z_2", "", 0, false},
		{"Z_x", "", 0, false},
		{"Z_", "", 0, false},
		{"_0", "", 0, false},
		{"Hello", "", 0, false},
	}
	for _, tc := range cases {
		base, step, ok := Split(tc.label)
		if base != tc.base || step != tc.step || ok != tc.ok {
			t.Errorf("Split(%q) = %q, %d, %v; want %q, %d, %v", tc.label, base, step, ok, tc.base, tc.step, tc.ok)
		}
	}
}

func TestCompletedSequence(t *testing.T) {
	r := New(dictionary.Default())
	if res := r.Resolve("Z_0"); res.Outcome != FirstStage || res.Resolved() {
		t.Fatalf("expected first stage, got %+v", res)
	}
	if st, ok := r.State().(AwaitingSecondStage); !ok || st.Base != "Z" {
		t.Fatalf("expected awaiting Z, got %#v", r.State())
	}
	res := r.Resolve("Z_1")
	if res.Outcome != Completed || res.Symbol != "Z" {
		t.Fatalf("expected Z to resolve, got %+v", res)
	}
	if _, ok := r.State().(Idle); !ok {
		t.Fatalf("expected idle after resolution, got %#v", r.State())
	}
	if res := r.Resolve("Z_1"); res.Outcome != Dropped {
		t.Fatalf("a repeated second half must not resolve again, got %+v", res)
	}
}

func TestPlainLabelAbandonsSequence(t *testing.T) {
	r := New(dictionary.Default())
	r.Resolve("Z_0")
	if res := r.Resolve("A"); res.Outcome != Passed || res.Symbol != "A" {
		t.Fatalf("expected A to pass through, got %+v", res)
	}
	if res := r.Resolve("Z_1"); res.Outcome != Dropped {
		t.Fatalf("expected abandoned sequence to drop, got %+v", res)
	}
}

func TestSecondFirstStageOverwrites(t *testing.T) {
	r := New(nil)
	r.Resolve("Q_0")
	r.Resolve("Z_0")
	if res := r.Resolve("Q_1"); res.Outcome != Dropped {
		t.Fatalf("expected Q second half to drop, got %+v", res)
	}
	if res := r.Resolve("Z_1"); res.Outcome != Completed || res.Symbol != "Z" {
		t.Fatalf("expected Z to resolve, got %+v", res)
	}
}

func TestOutOfOrderSecondHalfDropped(t *testing.T) {
	r := New(nil)
	if res := r.Resolve("Z_1"); res.Outcome != Dropped {
		t.Fatalf("expected drop, got %+v", res)
	}
	if _, ok := r.State().(Idle); !ok {
		t.Fatalf("expected idle state, got %#v", r.State())
	}
}

type hiddenSet map[dictionary.Label]bool

func (h hiddenSet) IsHidden(l dictionary.Label) bool { return h[l] }

func TestHiddenLabelIsNeverSequenceMember(t *testing.T) {
	r := New(hiddenSet{"Secret_0": true})
	res := r.Resolve("Secret_0")
	if res.Outcome != Passed || res.Symbol != "Secret_0" {
		t.Fatalf("expected hidden label to pass through, got %+v", res)
	}
}
