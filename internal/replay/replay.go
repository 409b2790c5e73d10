// Package replay drives an engine from a JSON Lines recording. Each line is a
// detection, a no-hand frame or a command:
//
//	{"label":"A","confidence":0.9,"repeat":12}
//	{"hand_present":false,"repeat":25}
//	{"command":"backspace"}
package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/engine"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/protocol"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/sentence"
)

// Record is one line of a recording. Repeat applies the frame that many
// times; zero means once.
type Record struct {
	Label       string  `json:"label,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
	HandPresent *bool   `json:"hand_present,omitempty"`
	Command     string  `json:"command,omitempty"`
	Repeat      int     `json:"repeat,omitempty"`
}

// Frame converts the record to an engine frame. A record without a label is
// a no-hand frame unless hand_present says otherwise.
func (r Record) Frame() engine.Frame {
	present := r.Label != ""
	if r.HandPresent != nil {
		present = *r.HandPresent
	}
	if !present {
		return engine.NoHand()
	}
	return engine.Detection(r.Label, r.Confidence)
}

// Step reports a single applied frame or command.
type Step struct {
	Line    int
	Record  Record
	Update  engine.Update
	Command bool
	// Sentence is the projection after a command.
	Sentence sentence.Projection
}

type Result struct {
	Frames   int
	Commits  int
	Commands int
	Sentence sentence.Projection
	Entries  []sentence.Entry
}

// Each decodes the recording in r and calls fn for every record in order.
// Blank lines and lines starting with # are skipped. Decode errors, negative
// repeats and errors returned by fn are reported with their line number.
func Each(ctx context.Context, r io.Reader, fn func(line int, rec Record) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		var rec Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if rec.Repeat < 0 {
			return fmt.Errorf("line %d: repeat must be >= 0", line)
		}
		if err := fn(line, rec); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read recording: %w", err)
	}
	return nil
}

// Times is the number of frames the record stands for.
func (r Record) Times() int {
	if r.Repeat == 0 {
		return 1
	}
	return r.Repeat
}

// Run applies every record in r to e. observe, if non-nil, sees each step.
func Run(ctx context.Context, r io.Reader, e *engine.Engine, observe func(Step)) (Result, error) {
	var res Result
	err := Each(ctx, r, func(line int, rec Record) error {
		if rec.Command != "" {
			p, err := applyCommand(e, rec.Command)
			if err != nil {
				return err
			}
			res.Commands++
			if observe != nil {
				observe(Step{Line: line, Record: rec, Command: true, Sentence: p})
			}
			return nil
		}

		frame := rec.Frame()
		for i := 0; i < rec.Times(); i++ {
			u := e.Observe(frame)
			res.Frames++
			if u.Commit != nil {
				res.Commits++
			}
			if observe != nil {
				observe(Step{Line: line, Record: rec, Update: u})
			}
		}
		return nil
	})
	if err != nil {
		return res, err
	}
	res.Sentence = e.Sentence()
	res.Entries = e.Entries()
	return res, nil
}

func applyCommand(e *engine.Engine, action string) (sentence.Projection, error) {
	switch action {
	case protocol.ActionBackspace:
		p, _ := e.Backspace()
		return p, nil
	case protocol.ActionClear:
		return e.Clear(), nil
	default:
		return sentence.Projection{}, fmt.Errorf("unsupported command %q", action)
	}
}
