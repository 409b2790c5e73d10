// Package classifier turns opaque feature vectors into class indices. The
// engine only ever sees the resulting labels.
package classifier

import (
	"context"
	"fmt"

	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/config"
)

// Prediction is the winning class index and its confidence in [0,1].
type Prediction struct {
	Index      int
	Confidence float64
}

type Classifier interface {
	Classify(ctx context.Context, features []float32) (Prediction, error)
}

// New builds the classifier selected by cfg.Mode.
func New(cfg config.ClassifierConfig) (Classifier, error) {
	switch cfg.Mode {
	case "", "mock":
		return NewMock(), nil
	case "exec":
		return NewExec(cfg)
	default:
		return nil, fmt.Errorf("unknown classifier mode %q", cfg.Mode)
	}
}
