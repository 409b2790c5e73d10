package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/config"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/natsserver"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/protocol"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const recording = `{"label":"Well","confidence":0.7,"repeat":12}
{"label":"Morning","confidence":0.7,"repeat":12}
`

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil || strings.TrimSpace(out) != version {
		t.Fatalf("unexpected version output %q %v", out, err)
	}
}

func TestReplayLocal(t *testing.T) {
	path := writeFile(t, "rec.jsonl", recording)
	out, err := run(t, "replay", "-v", path)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !strings.Contains(out, "en: Good Morning") || !strings.Contains(out, "ms: Selamat Pagi") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "commits=2") {
		t.Fatalf("expected commit count in output:\n%s", out)
	}
}

func TestReplayMissingFile(t *testing.T) {
	if _, err := run(t, "replay", filepath.Join(t.TempDir(), "missing.jsonl")); err == nil {
		t.Fatal("expected error for missing recording")
	}
}

func TestDictValidateAndShow(t *testing.T) {
	path := writeFile(t, "signs.yaml", `source_language: en
target_language: ms
labels: [Hello, Sorry]
translations:
  Hello: Helo
  Sorry: Maaf
`)
	out, err := run(t, "dict", "validate", path)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "2 labels") {
		t.Fatalf("unexpected validate output %q", out)
	}

	out, err = run(t, "dict", "show", "--dict", path)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "Sorry") || !strings.Contains(out, "Maaf") {
		t.Fatalf("unexpected show output:\n%s", out)
	}

	out, err = run(t, "dict", "show")
	if err != nil {
		t.Fatalf("show default: %v", err)
	}
	if !strings.Contains(out, "Hello + Waalaikumussalam = Assalamualaikum") {
		t.Fatalf("expected combinations in default table:\n%s", out)
	}
}

func TestDictValidateRejectsBadTable(t *testing.T) {
	path := writeFile(t, "bad.yaml", "labels: [A, A]\n")
	if _, err := run(t, "dict", "validate", path); err == nil {
		t.Fatal("expected duplicate labels to fail validation")
	}
}

func TestReplayPublishesToBus(t *testing.T) {
	srv, err := natsserver.Start(config.BusConfig{Embedded: true, Port: -1}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("start nats: %v", err)
	}
	defer srv.Shutdown()

	nc, err := nats.Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer nc.Close()
	frames := make(chan *nats.Msg, 64)
	sub, err := nc.ChanSubscribe(protocol.SubjectDetectionPrefix+".kiosk", frames)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()
	if err := nc.Flush(); err != nil {
		t.Fatal(err)
	}

	path := writeFile(t, "rec.jsonl", recording)
	out, err := run(t, "replay", "--nats", srv.ClientURL(), "--session", "kiosk", path)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !strings.Contains(out, "published 24 frames to session kiosk") {
		t.Fatalf("unexpected output %q", out)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	for i := 0; i < 24; i++ {
		select {
		case m := <-frames:
			var det protocol.Detection
			if err := json.Unmarshal(m.Data, &det); err != nil {
				t.Fatal(err)
			}
			if det.Sequence != i+1 || det.SessionID != "kiosk" || !det.HandPresent {
				t.Fatalf("unexpected detection %+v", det)
			}
		case <-ctx.Done():
			t.Fatalf("received only %d frames", i)
		}
	}
}

func TestReplayPublishRejectsNegativeRepeat(t *testing.T) {
	srv, err := natsserver.Start(config.BusConfig{Embedded: true, Port: -1}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("start nats: %v", err)
	}
	defer srv.Shutdown()

	path := writeFile(t, "rec.jsonl", `{"label":"A","repeat":-1}`+"\n")
	if _, err := run(t, "replay", path); err == nil {
		t.Fatal("expected local replay to reject a negative repeat")
	}
	if _, err := run(t, "replay", "--nats", srv.ClientURL(), path); err == nil {
		t.Fatal("expected publish to reject a negative repeat")
	}
}
