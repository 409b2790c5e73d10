// Package interpreter runs one sign engine per session on the bus. It turns
// detection and feature frames into display feedback, commits and bilingual
// transcripts.
package interpreter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/bus"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/classifier"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/config"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/dictionary"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/engine"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/eventstore"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/protocol"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/sentence"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/stability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ErrUnknownSession is returned for sessions that never sent a frame or were evicted.
var ErrUnknownSession = errors.New("unknown session")

type Service struct {
	cfg        config.InterpreterConfig
	engineCfg  stability.Config
	dict       *dictionary.Dictionary
	bus        *bus.Client
	classifier classifier.Classifier
	store      *eventstore.Store
	log        *slog.Logger
	metrics    *metrics
	tracer     trace.Tracer
	now        func() time.Time
	optErr     error

	mu       sync.Mutex
	sessions map[string]*session

	ctx    context.Context
	cancel context.CancelFunc
	subs   []*nats.Subscription
	wg     sync.WaitGroup
	ready  atomic.Bool
}

type session struct {
	mu       sync.Mutex
	id       string
	engine   *engine.Engine
	lastSeen time.Time
	inflight bool
	revision int
	closed   bool
}

type Option func(*Service)

type route struct {
	subject string
	handler nats.MsgHandler
}

// WithClassifier enables the sign.features subjects.
func WithClassifier(c classifier.Classifier) Option {
	return func(s *Service) { s.classifier = c }
}

func WithEventStore(store *eventstore.Store) Option {
	return func(s *Service) { s.store = store }
}

func WithEngineConfig(cfg stability.Config) Option {
	return func(s *Service) { s.engineCfg = cfg }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) {
		met, err := newMetrics(mp)
		if err != nil {
			s.optErr = fmt.Errorf("create interpreter metrics: %w", err)
			return
		}
		s.metrics = met
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer(meterName) }
}

func withClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(parent context.Context, cfg config.InterpreterConfig, busClient *bus.Client, dict *dictionary.Dictionary, opts ...Option) (*Service, error) {
	if dict == nil {
		dict = dictionary.Default()
	}
	ctx, cancel := context.WithCancel(parent)
	s := &Service{
		cfg:       cfg,
		engineCfg: stability.DefaultConfig(),
		dict:      dict,
		bus:       busClient,
		log:       slog.Default(),
		now:       time.Now,
		sessions:  make(map[string]*session),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.optErr != nil {
		cancel()
		return nil, s.optErr
	}
	s.log = s.log.With(slog.String("component", "interpreter"))
	if s.metrics == nil {
		met, err := newMetrics(otel.GetMeterProvider())
		if err != nil {
			cancel()
			return nil, fmt.Errorf("create interpreter metrics: %w", err)
		}
		s.metrics = met
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(meterName)
	}
	return s, nil
}

func (s *Service) Start() error {
	if !s.cfg.Enabled {
		return nil
	}
	conn := s.bus.Conn()
	routes := []route{
		{protocol.SubjectDetectionPrefix + ".*", s.handleDetection},
		{protocol.SubjectCommandPrefix + ".*", s.handleCommand},
	}
	if s.classifier != nil {
		routes = append(routes, route{protocol.SubjectFeaturesPrefix + ".*", s.handleFeatures})
	}
	for _, sub := range routes {
		handle, err := conn.Subscribe(sub.subject, sub.handler)
		if err != nil {
			s.unsubscribe()
			return fmt.Errorf("subscribe %s: %w", sub.subject, err)
		}
		s.subs = append(s.subs, handle)
	}
	if err := conn.Flush(); err != nil {
		s.unsubscribe()
		return fmt.Errorf("flush subscriptions: %w", err)
	}

	if idle := s.idleTimeout(); idle > 0 {
		s.wg.Add(1)
		go s.sweep(idle)
	}
	s.ready.Store(true)
	s.log.Info("interpreter started",
		slog.String("source_language", s.dict.SourceLanguage()),
		slog.String("target_language", s.dict.TargetLanguage()),
		slog.Bool("classifier", s.classifier != nil))
	return nil
}

// Close stops the service. The context is cancelled under s.mu so no
// classification goroutine is added once Wait has begun.
func (s *Service) Close() {
	s.ready.Store(false)
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	s.unsubscribe()
	s.wg.Wait()
}

func (s *Service) Healthy() bool {
	return !s.cfg.Enabled || s.ready.Load()
}

func (s *Service) unsubscribe() {
	for _, sub := range s.subs {
		_ = sub.Drain()
	}
	s.subs = nil
}

func (s *Service) idleTimeout() time.Duration {
	return time.Duration(s.cfg.SessionIdleTimeout) * time.Millisecond
}

func (s *Service) handleDetection(msg *nats.Msg) {
	var det protocol.Detection
	if err := json.Unmarshal(msg.Data, &det); err != nil {
		s.log.Warn("failed to decode detection", slogError(err))
		return
	}
	sessionID := sessionFor(det.SessionID, protocol.SubjectDetectionPrefix, msg.Subject)
	if sessionID == "" {
		s.log.Warn("detection without session", slog.String("subject", msg.Subject))
		return
	}
	frame := engine.NoHand()
	if det.HandPresent {
		frame = engine.Detection(det.Label, det.Confidence)
	}
	sess := s.lockSession(sessionID)
	defer sess.mu.Unlock()
	s.observe(sess, frame, "detection")
}

// handleFeatures classifies off the subscription goroutine. While one frame
// is being classified, later frames for the same session are dropped.
func (s *Service) handleFeatures(msg *nats.Msg) {
	var ff protocol.FeatureFrame
	if err := json.Unmarshal(msg.Data, &ff); err != nil {
		s.log.Warn("failed to decode feature frame", slogError(err))
		return
	}
	sessionID := sessionFor(ff.SessionID, protocol.SubjectFeaturesPrefix, msg.Subject)
	if sessionID == "" {
		s.log.Warn("feature frame without session", slog.String("subject", msg.Subject))
		return
	}

	sess := s.lockSession(sessionID)
	if sess.inflight {
		sess.mu.Unlock()
		s.metrics.dropped.Add(s.ctx, 1)
		return
	}
	if len(ff.Features) == 0 {
		s.observe(sess, engine.NoHand(), "features")
		sess.mu.Unlock()
		return
	}
	sess.inflight = true
	sess.mu.Unlock()

	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		sess.mu.Lock()
		sess.inflight = false
		sess.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	features := append([]float32(nil), ff.Features...)
	go func() {
		defer s.wg.Done()
		frame, ok := s.classify(sessionID, ff.Sequence, features)

		sess.mu.Lock()
		defer sess.mu.Unlock()
		sess.inflight = false
		if ok && !sess.closed {
			s.observe(sess, frame, "features")
		}
	}()
}

func (s *Service) classify(sessionID string, seq int, features []float32) (engine.Frame, bool) {
	ctx, span := s.tracer.Start(s.ctx, "interpreter.classify",
		trace.WithAttributes(
			attribute.String("session_id", sessionID),
			attribute.Int("sequence", seq),
			attribute.Int("features", len(features)),
		))
	defer span.End()

	start := s.now()
	pred, err := s.classifier.Classify(ctx, features)
	s.metrics.classifyLatency.Record(ctx, s.now().Sub(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "classification failed")
		s.metrics.classifyErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "classifier")))
		s.log.Warn("classification failed", slog.String("session_id", sessionID), slogError(err))
		return engine.Frame{}, false
	}
	label, ok := s.dict.LabelAt(pred.Index)
	if !ok {
		span.SetStatus(codes.Error, "unknown class index")
		s.metrics.classifyErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "unknown_index")))
		s.log.Warn("classifier returned unknown index",
			slog.String("session_id", sessionID), slog.Int("index", pred.Index))
		return engine.Frame{}, false
	}
	span.SetAttributes(attribute.String("label", string(label)), attribute.Float64("confidence", pred.Confidence))
	return engine.Detection(string(label), pred.Confidence), true
}

func (s *Service) handleCommand(msg *nats.Msg) {
	var cmd protocol.Command
	if err := json.Unmarshal(msg.Data, &cmd); err != nil {
		s.log.Warn("failed to decode command", slogError(err))
		return
	}
	sessionID := sessionFor(cmd.SessionID, protocol.SubjectCommandPrefix, msg.Subject)
	if sessionID == "" {
		s.log.Warn("command without session", slog.String("subject", msg.Subject))
		return
	}
	if _, err := s.Apply(s.ctx, sessionID, cmd.Action); err != nil {
		s.log.Warn("command rejected",
			slog.String("session_id", sessionID), slog.String("action", cmd.Action), slogError(err))
	}
}

// Apply runs a backspace or clear against a live session between frames and
// returns the resulting transcript. Commands never open a session.
func (s *Service) Apply(ctx context.Context, sessionID, action string) (protocol.Transcript, error) {
	_, span := s.tracer.Start(ctx, "interpreter.command",
		trace.WithAttributes(attribute.String("session_id", sessionID), attribute.String("action", action)))
	defer span.End()

	var eventType string
	switch action {
	case protocol.ActionBackspace:
		eventType = eventstore.TypeCommandBackspace
	case protocol.ActionClear:
		eventType = eventstore.TypeCommandClear
	default:
		err := fmt.Errorf("unsupported action %q", action)
		span.SetStatus(codes.Error, err.Error())
		return protocol.Transcript{}, err
	}

	sess, ok := s.lockExisting(sessionID)
	if !ok {
		span.SetStatus(codes.Error, ErrUnknownSession.Error())
		return protocol.Transcript{}, ErrUnknownSession
	}
	defer sess.mu.Unlock()

	sess.lastSeen = s.now()
	var changed bool
	switch action {
	case protocol.ActionBackspace:
		_, changed = sess.engine.Backspace()
	case protocol.ActionClear:
		changed = len(sess.engine.Entries()) > 0
		sess.engine.Clear()
	}
	s.record(sess.id, eventType, map[string]bool{"changed": changed})
	if changed {
		s.metrics.mutations.Add(s.ctx, 1, metric.WithAttributes(attribute.String("cause", action)))
		s.publishTranscript(sess)
	}
	return s.transcriptLocked(sess), nil
}

// observe applies one frame. Callers hold sess.mu.
func (s *Service) observe(sess *session, frame engine.Frame, source string) {
	sess.lastSeen = s.now()
	u := sess.engine.Observe(frame)

	kind := "detection"
	if !frame.HandPresent || frame.Label == "" {
		kind = "no_hand"
	}
	s.metrics.frames.Add(s.ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind), attribute.String("source", source)))

	if s.cfg.PublishDisplay {
		if err := s.bus.PublishJSON(protocol.SubjectDisplay, displayMessage(sess.id, u.Display)); err != nil {
			s.log.Warn("failed to publish display", slogError(err))
		}
	}
	if u.TimedOut {
		s.metrics.timeouts.Add(s.ctx, 1)
		s.log.Debug("no-hand timeout", slog.String("session_id", sess.id))
	}
	if u.Commit != nil {
		s.metrics.commits.Add(s.ctx, 1, metric.WithAttributes(attribute.String("outcome", u.Stage.Outcome.String())))
		commit := protocol.Commit{
			SessionID:  sess.id,
			Label:      u.Commit.Label,
			Confidence: u.Commit.Confidence,
			Outcome:    u.Stage.Outcome.String(),
			Effect:     u.Effect.Kind.String(),
			Timestamp:  s.now().UTC(),
		}
		if err := s.bus.PublishJSON(protocol.SubjectCommit, commit); err != nil {
			s.log.Warn("failed to publish commit", slogError(err))
		}
		s.record(sess.id, eventstore.TypeCommit, commit)
		s.log.Debug("label committed",
			slog.String("session_id", sess.id),
			slog.String("label", u.Commit.Label),
			slog.String("outcome", commit.Outcome),
			slog.String("effect", commit.Effect))
	}
	if u.Sentence != nil {
		s.metrics.mutations.Add(s.ctx, 1, metric.WithAttributes(attribute.String("cause", "commit")))
		s.publishTranscript(sess)
	}
}

func (s *Service) publishTranscript(sess *session) {
	sess.revision++
	msg := s.transcriptLocked(sess)
	if err := s.bus.PublishJSON(protocol.SubjectTranscript, msg); err != nil {
		s.log.Warn("failed to publish transcript", slogError(err))
	}
	s.record(sess.id, eventstore.TypeTranscriptUpdate, struct {
		Source   string `json:"source"`
		Target   string `json:"target"`
		Revision int    `json:"revision"`
	}{msg.Source, msg.Target, msg.Revision})
}

func (s *Service) transcriptLocked(sess *session) protocol.Transcript {
	p := sess.engine.Sentence()
	entries := sess.engine.Entries()
	if entries == nil {
		entries = []sentence.Entry{}
	}
	return protocol.Transcript{
		SessionID:      sess.id,
		SourceLanguage: s.dict.SourceLanguage(),
		TargetLanguage: s.dict.TargetLanguage(),
		Source:         p.Source,
		Target:         p.Target,
		Entries:        entries,
		Revision:       sess.revision,
		Timestamp:      s.now().UTC(),
	}
}

// Transcript returns the current sentence for a live session.
func (s *Service) Transcript(sessionID string) (protocol.Transcript, error) {
	s.mu.Lock()
	sess := s.sessions[sessionID]
	s.mu.Unlock()
	if sess == nil {
		return protocol.Transcript{}, ErrUnknownSession
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.transcriptLocked(sess), nil
}

// Sessions lists live session ids in sorted order.
func (s *Service) Sessions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// lockSession returns the live session for id with its lock held. A session
// evicted between lookup and lock is replaced by a fresh one.
func (s *Service) lockSession(id string) *session {
	for {
		sess := s.session(id)
		sess.mu.Lock()
		if !sess.closed {
			return sess
		}
		sess.mu.Unlock()
	}
}

// lockExisting is lockSession without creation.
func (s *Service) lockExisting(id string) (*session, bool) {
	for {
		s.mu.Lock()
		sess := s.sessions[id]
		s.mu.Unlock()
		if sess == nil {
			return nil, false
		}
		sess.mu.Lock()
		if !sess.closed {
			return sess, true
		}
		sess.mu.Unlock()
	}
}

func (s *Service) session(id string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess
	}
	sess := &session{
		id:       id,
		engine:   engine.New(s.dict, s.engineCfg),
		lastSeen: s.now(),
	}
	s.sessions[id] = sess
	s.metrics.activeSessions.Add(s.ctx, 1)
	if err := s.store.AppendSession(s.ctx, eventstore.Session{
		ID:             id,
		Privacy:        "session",
		SourceLanguage: s.dict.SourceLanguage(),
		TargetLanguage: s.dict.TargetLanguage(),
	}); err != nil {
		s.log.Warn("failed to record session", slog.String("session_id", id), slogError(err))
	}
	s.log.Info("session opened", slog.String("session_id", id))
	return sess
}

func (s *Service) sweep(idle time.Duration) {
	defer s.wg.Done()
	interval := idle / 4
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.evictIdle(idle)
		}
	}
}

// evictIdle closes sessions that have not seen a frame or command for idle.
func (s *Service) evictIdle(idle time.Duration) int {
	cutoff := s.now().Add(-idle)

	s.mu.Lock()
	var stale []*session
	for id, sess := range s.sessions {
		sess.mu.Lock()
		if !sess.inflight && sess.lastSeen.Before(cutoff) {
			sess.closed = true
			stale = append(stale, sess)
			delete(s.sessions, id)
		}
		sess.mu.Unlock()
	}
	s.mu.Unlock()

	for _, sess := range stale {
		s.metrics.activeSessions.Add(s.ctx, -1)
		s.record(sess.id, eventstore.TypeSessionClosed, map[string]string{"reason": "idle"})
		if err := s.store.CloseSession(s.ctx, sess.id); err != nil {
			s.log.Warn("failed to close session", slog.String("session_id", sess.id), slogError(err))
		}
		s.log.Info("session evicted", slog.String("session_id", sess.id))
	}
	return len(stale)
}

func (s *Service) record(sessionID, eventType string, payload any) {
	if err := s.store.Record(s.ctx, sessionID, eventType, payload); err != nil {
		s.log.Warn("failed to record event",
			slog.String("session_id", sessionID), slog.String("type", eventType), slogError(err))
	}
}

func displayMessage(sessionID string, d engine.Display) protocol.Display {
	return protocol.Display{
		SessionID:     sessionID,
		Label:         d.Label,
		Text:          d.Text,
		ConfidencePct: d.Percent,
		Visible:       d.Visible,
		Pending:       d.Pending,
	}
}

func sessionFor(payloadID, prefix, subject string) string {
	if payloadID != "" {
		return payloadID
	}
	return protocol.SessionFromSubject(prefix, subject)
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
