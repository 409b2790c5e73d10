// Package stability turns a jittery per-frame label stream into discrete
// commits. A label is committed once it has been observed for a configured
// number of consecutive frames, and only once per run.
package stability

import "math"

const (
	DefaultStabilityThreshold = 12
	DefaultResetThreshold     = 20
)

// Config controls the frame-count thresholds.
type Config struct {
	// StabilityThreshold is the run length, in frames, at which a label commits.
	StabilityThreshold int
	// ResetThreshold is the number of consecutive no-hand frames that must be
	// exceeded before the current label is forgotten.
	ResetThreshold int
}

func DefaultConfig() Config {
	return Config{
		StabilityThreshold: DefaultStabilityThreshold,
		ResetThreshold:     DefaultResetThreshold,
	}
}

// Commit is emitted when a label becomes stable.
type Commit struct {
	Label      string
	Confidence float64
}

// Display is the per-frame feedback state.
type Display struct {
	Label      string
	Confidence float64
	Visible    bool
}

// Percent is the smoothed confidence rounded to a whole percentage.
func (d Display) Percent() int {
	return int(math.Round(d.Confidence * 100))
}

// Filter is not safe for concurrent use.
type Filter struct {
	cfg      Config
	previous string
	run      int
	absent   int
	display  Display
}

func New(cfg Config) *Filter {
	if cfg.StabilityThreshold <= 0 {
		cfg.StabilityThreshold = DefaultStabilityThreshold
	}
	if cfg.ResetThreshold <= 0 {
		cfg.ResetThreshold = DefaultResetThreshold
	}
	return &Filter{cfg: cfg}
}

// Observe records one labeled frame and reports a commit on the frame where
// the run reaches the stability threshold.
func (f *Filter) Observe(label string, confidence float64) (Commit, bool) {
	f.absent = 0
	f.display = Display{Label: label, Confidence: Smooth(confidence), Visible: true}

	if label == f.previous && f.run > 0 {
		f.run++
	} else {
		f.previous = label
		f.run = 1
	}
	if f.run == f.cfg.StabilityThreshold {
		return Commit{Label: label, Confidence: confidence}, true
	}
	return Commit{}, false
}

// ObserveNoHand records a frame without a hand. It returns true only on the
// frame where the absence first exceeds the reset threshold; callers use it to
// forget the last printed label.
func (f *Filter) ObserveNoHand() bool {
	f.absent++
	if f.absent <= f.cfg.ResetThreshold {
		return false
	}
	f.previous = ""
	f.run = 0
	f.display = Display{}
	return f.absent == f.cfg.ResetThreshold+1
}

func (f *Filter) Display() Display {
	return f.display
}

// Smooth boosts confident predictions for display.
func Smooth(confidence float64) float64 {
	if confidence > 0.4 {
		return math.Min(confidence*1.4, 0.99)
	}
	return confidence
}
