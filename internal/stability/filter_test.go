package stability

import (
	"math"
	"testing"
)

func feed(f *Filter, label string, n int) int {
	commits := 0
	for i := 0; i < n; i++ {
		if _, ok := f.Observe(label, 0.9); ok {
			commits++
		}
	}
	return commits
}

func TestCommitAfterThreshold(t *testing.T) {
	f := New(DefaultConfig())
	if got := feed(f, "A", DefaultStabilityThreshold-1); got != 0 {
		t.Fatalf("expected no commit before threshold, got %d", got)
	}
	c, ok := f.Observe("A", 0.8)
	if !ok {
		t.Fatal("expected commit on threshold frame")
	}
	if c.Label != "A" || c.Confidence != 0.8 {
		t.Fatalf("unexpected commit %+v", c)
	}
}

func TestCommitIsEdgeTriggered(t *testing.T) {
	f := New(DefaultConfig())
	if got := feed(f, "A", 100); got != 1 {
		t.Fatalf("expected exactly one commit for a long run, got %d", got)
	}
}

func TestInterruptedRunResets(t *testing.T) {
	f := New(DefaultConfig())
	feed(f, "A", 7)
	feed(f, "B", 1)
	if got := feed(f, "A", DefaultStabilityThreshold-1); got != 0 {
		t.Fatalf("interrupted run must restart, got %d commits", got)
	}
	if got := feed(f, "A", 1); got != 1 {
		t.Fatalf("expected commit once the restarted run completes, got %d", got)
	}
}

func TestNoHandTimeout(t *testing.T) {
	f := New(DefaultConfig())
	feed(f, "A", 3)
	for i := 0; i < DefaultResetThreshold; i++ {
		if f.ObserveNoHand() {
			t.Fatalf("timeout fired early at frame %d", i+1)
		}
	}
	if !f.Display().Visible {
		t.Fatal("display should persist until the threshold is exceeded")
	}
	if !f.ObserveNoHand() {
		t.Fatal("expected timeout past the reset threshold")
	}
	d := f.Display()
	if d.Visible || d.Label != "" || d.Percent() != 0 {
		t.Fatalf("expected cleared display, got %+v", d)
	}
}

func TestNoHandTimeoutFiresOncePerAbsence(t *testing.T) {
	f := New(DefaultConfig())
	for round := 0; round < 2; round++ {
		feed(f, "A", 3)
		fired := 0
		for i := 0; i < 100; i++ {
			if f.ObserveNoHand() {
				fired++
			}
		}
		if fired != 1 {
			t.Fatalf("round %d: expected one timeout per absence, got %d", round, fired)
		}
		if f.Display().Visible {
			t.Fatalf("round %d: display should stay cleared", round)
		}
	}
}

func TestReappearingHandCanCommitSameLabel(t *testing.T) {
	f := New(DefaultConfig())
	if got := feed(f, "A", 30); got != 1 {
		t.Fatalf("expected one commit, got %d", got)
	}
	for i := 0; i <= DefaultResetThreshold; i++ {
		f.ObserveNoHand()
	}
	if got := feed(f, "A", DefaultStabilityThreshold); got != 1 {
		t.Fatalf("expected the same label to commit again after a gap, got %d", got)
	}
}

func TestShortGapKeepsRun(t *testing.T) {
	f := New(DefaultConfig())
	feed(f, "A", 5)
	f.ObserveNoHand()
	if got := feed(f, "A", DefaultStabilityThreshold-5); got != 1 {
		t.Fatalf("brief hand loss should not break the run, got %d commits", got)
	}
}

func TestSmooth(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0.3, 0.3},
		{0.4, 0.4},
		{0.5, 0.7},
		{0.9, 0.99},
	}
	for _, tc := range cases {
		if got := Smooth(tc.in); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("Smooth(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
	f := New(Config{})
	f.Observe("B", 0.5)
	if p := f.Display().Percent(); p != 70 {
		t.Fatalf("expected 70%%, got %d", p)
	}
}
