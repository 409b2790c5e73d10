package classifier

import (
	"context"
	"errors"
)

type mockClassifier struct{}

// NewMock returns a classifier that picks the largest feature. Feeding it
// one-hot vectors makes a deterministic stand-in for a trained model.
func NewMock() Classifier {
	return &mockClassifier{}
}

func (m *mockClassifier) Classify(_ context.Context, features []float32) (Prediction, error) {
	if len(features) == 0 {
		return Prediction{}, errors.New("empty feature vector")
	}
	best := 0
	for i, v := range features {
		if v > features[best] {
			best = i
		}
	}
	conf := float64(features[best])
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	return Prediction{Index: best, Confidence: conf}, nil
}
