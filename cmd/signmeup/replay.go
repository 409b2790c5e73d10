package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/bus"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/config"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/dictionary"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/engine"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/protocol"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/replay"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/stability"
)

type replayOptions struct {
	dictPath  string
	stability int
	reset     int
	verbose   bool
	natsURL   string
	sessionID string
	frameGap  time.Duration
}

func newReplayCmd() *cobra.Command {
	opts := &replayOptions{}
	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Run a JSON Lines recording through the interpreter",
		Long: `Run a JSON Lines recording through a local engine and print the sentence.
With --nats the frames are published to a running node instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open recording: %w", err)
			}
			defer f.Close()
			if opts.natsURL != "" {
				return publishRecording(cmd.Context(), cmd.OutOrStdout(), f, opts)
			}
			return replayLocal(cmd.Context(), cmd.OutOrStdout(), f, opts)
		},
	}
	defaults := stability.DefaultConfig()
	cmd.Flags().StringVar(&opts.dictPath, "dict", "", "dictionary file (default: built-in table)")
	cmd.Flags().IntVar(&opts.stability, "stability", defaults.StabilityThreshold, "identical frames needed to commit")
	cmd.Flags().IntVar(&opts.reset, "reset", defaults.ResetThreshold, "no-hand frames before the current label clears")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "print every commit")
	cmd.Flags().StringVar(&opts.natsURL, "nats", "", "publish frames to this NATS server instead of replaying locally")
	cmd.Flags().StringVar(&opts.sessionID, "session", "", "session id when publishing (default: random)")
	cmd.Flags().DurationVar(&opts.frameGap, "frame-gap", 0, "delay between published frames")
	return cmd
}

func replayLocal(ctx context.Context, out io.Writer, r io.Reader, opts *replayOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	d, err := dictionary.LoadOrDefault(opts.dictPath)
	if err != nil {
		return err
	}
	e := engine.New(d, stability.Config{StabilityThreshold: opts.stability, ResetThreshold: opts.reset})

	res, err := replay.Run(ctx, r, e, func(s replay.Step) {
		if !opts.verbose {
			return
		}
		switch {
		case s.Command:
			fmt.Fprintf(out, "line %d: %s -> %s\n", s.Line, s.Record.Command, s.Sentence.Source)
		case s.Update.Commit != nil:
			line := fmt.Sprintf("line %d: %s (%d%%) %s/%s", s.Line, s.Update.Commit.Label,
				s.Update.Display.Percent, s.Update.Stage.Outcome, s.Update.Effect.Kind)
			if s.Update.Sentence != nil {
				line += " -> " + s.Update.Sentence.Source
			}
			fmt.Fprintln(out, line)
		}
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %s\n", d.SourceLanguage(), res.Sentence.Source)
	fmt.Fprintf(out, "%s: %s\n", d.TargetLanguage(), res.Sentence.Target)
	fmt.Fprintf(out, "frames=%d commits=%d commands=%d\n", res.Frames, res.Commits, res.Commands)
	return nil
}

// publishRecording sends the recording to a live interpreter as detections
// and commands on the session's subjects.
func publishRecording(ctx context.Context, out io.Writer, r io.Reader, opts *replayOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sessionID := opts.sessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := bus.Connect(ctx, "signmeup-replay", config.BusConfig{
		Servers:        []string{opts.natsURL},
		ConnectTimeout: 2000,
	}, log)
	if err != nil {
		return err
	}
	defer client.Close()

	detectionSubject := protocol.SubjectDetectionPrefix + "." + sessionID
	commandSubject := protocol.SubjectCommandPrefix + "." + sessionID

	seq := 0
	err = replay.Each(ctx, r, func(_ int, rec replay.Record) error {
		if rec.Command != "" {
			return client.PublishJSON(commandSubject, protocol.Command{SessionID: sessionID, Action: rec.Command})
		}
		frame := rec.Frame()
		for i := 0; i < rec.Times(); i++ {
			seq++
			det := protocol.Detection{
				SessionID:   sessionID,
				Sequence:    seq,
				HandPresent: frame.HandPresent,
				Label:       frame.Label,
				Confidence:  frame.Confidence,
			}
			if err := client.PublishJSON(detectionSubject, det); err != nil {
				return err
			}
			if opts.frameGap > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(opts.frameGap):
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	flushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Conn().FlushWithContext(flushCtx); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	fmt.Fprintf(out, "published %d frames to session %s\n", seq, sessionID)
	return nil
}
