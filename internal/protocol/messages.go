package protocol

import (
	"strings"
	"time"

	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/sentence"
)

// Detection is one classified frame from an edge device. HandPresent=false
// marks a frame in which no hand was tracked.
type Detection struct {
	SessionID   string  `json:"session_id"`
	Sequence    int     `json:"sequence"`
	HandPresent bool    `json:"hand_present"`
	Label       string  `json:"label,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
}

// FeatureFrame carries an unclassified feature vector. An empty vector means
// no hand was tracked.
type FeatureFrame struct {
	SessionID string    `json:"session_id"`
	Sequence  int       `json:"sequence"`
	Features  []float32 `json:"features,omitempty"`
}

// Command is a user edit applied between frames.
type Command struct {
	SessionID string `json:"session_id"`
	Action    string `json:"action"`
}

const (
	ActionBackspace = "backspace"
	ActionClear     = "clear"
)

// Display is the per-frame feedback for a session.
type Display struct {
	SessionID     string `json:"session_id"`
	Label         string `json:"label,omitempty"`
	Text          string `json:"text,omitempty"`
	ConfidencePct int    `json:"confidence_pct"`
	Visible       bool   `json:"visible"`
	Pending       string `json:"pending,omitempty"`
}

// Commit is published each time a label becomes stable.
type Commit struct {
	SessionID  string    `json:"session_id"`
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	Outcome    string    `json:"outcome"`
	Effect     string    `json:"effect"`
	Timestamp  time.Time `json:"timestamp"`
}

// Transcript is the bilingual sentence, published whenever it changes.
type Transcript struct {
	SessionID      string           `json:"session_id"`
	SourceLanguage string           `json:"source_language"`
	TargetLanguage string           `json:"target_language"`
	Source         string           `json:"source"`
	Target         string           `json:"target"`
	Entries        []sentence.Entry `json:"entries"`
	Revision       int              `json:"revision"`
	Timestamp      time.Time        `json:"timestamp"`
}

const (
	SubjectDetectionPrefix = "sign.detection"
	SubjectFeaturesPrefix  = "sign.features"
	SubjectCommandPrefix   = "sign.command"
	SubjectDisplay         = "sign.display"
	SubjectCommit          = "sign.commit"
	SubjectTranscript      = "sign.transcript"
)

// SessionFromSubject returns the last token of a per-session subject such as
// "sign.detection.kiosk-1".
func SessionFromSubject(prefix, subject string) string {
	if !strings.HasPrefix(subject, prefix+".") {
		return ""
	}
	return subject[len(prefix)+1:]
}
