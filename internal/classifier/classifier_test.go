package classifier

import (
	"context"
	"os/exec"
	"testing"

	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/config"
)

func TestMockArgMax(t *testing.T) {
	c := NewMock()
	p, err := c.Classify(context.Background(), []float32{0.1, 0.7, 0.2})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if p.Index != 1 || p.Confidence < 0.69 || p.Confidence > 0.71 {
		t.Fatalf("unexpected prediction %+v", p)
	}
	if _, err := c.Classify(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty features")
	}
}

func TestMockClampsConfidence(t *testing.T) {
	p, err := NewMock().Classify(context.Background(), []float32{3, 1})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if p.Index != 0 || p.Confidence != 1 {
		t.Fatalf("unexpected prediction %+v", p)
	}
}

func TestNewModes(t *testing.T) {
	if _, err := New(config.ClassifierConfig{Mode: "mock"}); err != nil {
		t.Fatalf("mock: %v", err)
	}
	if _, err := New(config.ClassifierConfig{Mode: "tflite"}); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if _, err := New(config.ClassifierConfig{Mode: "exec", Command: "  "}); err == nil {
		t.Fatal("expected error for empty command")
	}
	if _, err := New(config.ClassifierConfig{Mode: "exec", Command: `python3 "unterminated`}); err == nil {
		t.Fatal("expected error for bad quoting")
	}
}

func TestResponsePrediction(t *testing.T) {
	two := 2
	cases := []struct {
		name string
		resp execResponse
		want Prediction
		err  bool
	}{
		{"with probabilities", execResponse{Label: &two, Probabilities: []float64{0.1, 0.2, 0.7}}, Prediction{Index: 2, Confidence: 0.7}, false},
		{"without probabilities", execResponse{Label: &two}, Prediction{Index: 2, Confidence: 1}, false},
		{"missing label", execResponse{}, Prediction{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.resp.prediction()
			if tc.err {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("got %+v %v, want %+v", got, err, tc.want)
			}
		})
	}
}

func TestExecRoundTrip(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	c, err := NewExec(config.ClassifierConfig{
		Command:   `sh -c 'cat >/dev/null; echo "{\"label\":1,\"probabilities\":[0.25,0.75]}"'`,
		TimeoutMS: 5000,
	})
	if err != nil {
		t.Fatalf("new exec: %v", err)
	}
	p, err := c.Classify(context.Background(), []float32{0, 1})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if p.Index != 1 || p.Confidence != 0.75 {
		t.Fatalf("unexpected prediction %+v", p)
	}
}

func TestExecFailure(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	c, err := NewExec(config.ClassifierConfig{Command: `sh -c 'exit 3'`, TimeoutMS: 5000})
	if err != nil {
		t.Fatalf("new exec: %v", err)
	}
	if _, err := c.Classify(context.Background(), []float32{1}); err == nil {
		t.Fatal("expected error from failing command")
	}
}
