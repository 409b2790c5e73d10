package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/mattn/go-shellwords"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/config"
)

// execClassifier runs an external model once per frame. The command reads
// {"features":[...]} on stdin and answers {"label":n,"probabilities":[...]}.
type execClassifier struct {
	cmd     []string
	timeout time.Duration
}

type execRequest struct {
	Features []float32 `json:"features"`
}

type execResponse struct {
	Label         *int      `json:"label"`
	Probabilities []float64 `json:"probabilities"`
}

func NewExec(cfg config.ClassifierConfig) (Classifier, error) {
	parser := shellwords.NewParser()
	parser.ParseEnv = true
	args, err := parser.Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse classifier command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("classifier command is empty")
	}
	return &execClassifier{
		cmd:     args,
		timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
	}, nil
}

func (c *execClassifier) Classify(ctx context.Context, features []float32) (Prediction, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	input, err := json.Marshal(execRequest{Features: features})
	if err != nil {
		return Prediction{}, fmt.Errorf("encode classifier request: %w", err)
	}

	command := exec.CommandContext(ctx, c.cmd[0], c.cmd[1:]...)
	var stdout, stderr bytes.Buffer
	command.Stdin = bytes.NewReader(input)
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return Prediction{}, fmt.Errorf("classifier command failed: %w: %s", err, stderr.String())
	}

	var resp execResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return Prediction{}, fmt.Errorf("decode classifier response: %w", err)
	}
	return resp.prediction()
}

func (r execResponse) prediction() (Prediction, error) {
	if r.Label == nil {
		return Prediction{}, fmt.Errorf("classifier response has no label")
	}
	idx := *r.Label
	if idx < 0 {
		return Prediction{}, fmt.Errorf("classifier returned negative label %d", idx)
	}
	conf := 1.0
	if idx < len(r.Probabilities) {
		conf = r.Probabilities[idx]
	}
	return Prediction{Index: idx, Confidence: conf}, nil
}
