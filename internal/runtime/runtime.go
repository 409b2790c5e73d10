// Package runtime assembles the interpreter node: telemetry, the bus, the
// event store, the interpreter service, the capability registry and the HTTP
// surface.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/bus"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/capability"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/classifier"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/config"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/dictionary"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/eventstore"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/interpreter"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/natsserver"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/stability"
)

const pruneInterval = time.Hour

type Runtime struct {
	cfg     config.Config
	version string
	logger  *slog.Logger
	ready   atomic.Bool

	// addr is set once the HTTP listener is bound.
	addr atomic.Value
}

func New(cfg config.Config, version string, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:     cfg,
		version: version,
		logger:  logger,
	}
}

// Addr returns the bound HTTP address, or "" before Start has listened.
func (r *Runtime) Addr() string {
	if v, ok := r.addr.Load().(string); ok {
		return v
	}
	return ""
}

func (r *Runtime) Ready() bool {
	return r.ready.Load()
}

// Start runs the node until ctx is cancelled.
func (r *Runtime) Start(ctx context.Context) (err error) {
	tel, err := setupTelemetry(ctx, r.cfg, r.version, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if shutdownErr := tel.shutdown(shutdownCtx); shutdownErr != nil {
			r.logger.Error("telemetry shutdown error", slog.String("error", shutdownErr.Error()))
		}
	}()

	dict, err := dictionary.LoadOrDefault(r.cfg.Dictionary.Path)
	if err != nil {
		return fmt.Errorf("load dictionary: %w", err)
	}
	stats := dict.Stats()
	r.logger.Info("dictionary loaded",
		slog.String("path", r.cfg.Dictionary.Path),
		slog.Int("labels", stats.Labels),
		slog.Int("activators", stats.Activators))

	busCfg := r.cfg.Bus
	embedded, err := natsserver.Start(busCfg, r.logger)
	if err != nil {
		return fmt.Errorf("start embedded bus: %w", err)
	}
	defer embedded.Shutdown()
	if embedded != nil {
		busCfg.Servers = []string{embedded.ClientURL()}
	}

	busClient, err := bus.Connect(ctx, r.cfg.RuntimeName, busCfg, r.logger)
	if err != nil {
		return err
	}
	defer busClient.Close()

	store, err := eventstore.Open(ctx, r.cfg.EventStore, r.logger.With(slog.String("component", "eventstore")))
	if err != nil {
		return fmt.Errorf("open event store: %w", err)
	}
	defer store.Close()

	opts := []interpreter.Option{
		interpreter.WithEventStore(store),
		interpreter.WithLogger(r.logger),
		interpreter.WithMeterProvider(tel.meterProvider),
		interpreter.WithTracerProvider(tel.tracerProvider),
		interpreter.WithEngineConfig(stability.Config{
			StabilityThreshold: r.cfg.Engine.StabilityThreshold,
			ResetThreshold:     r.cfg.Engine.ResetThreshold,
		}),
	}
	classifierMode := ""
	if r.cfg.Classifier.Enabled {
		cls, err := classifier.New(r.cfg.Classifier)
		if err != nil {
			return fmt.Errorf("create classifier: %w", err)
		}
		classifierMode = r.cfg.Classifier.Mode
		opts = append(opts, interpreter.WithClassifier(cls))
	}

	interp, err := interpreter.NewService(ctx, r.cfg.Interpreter, busClient, dict, opts...)
	if err != nil {
		return err
	}
	if err := interp.Start(); err != nil {
		return fmt.Errorf("start interpreter: %w", err)
	}
	defer interp.Close()

	var local []capability.Capability
	if r.cfg.Interpreter.Enabled {
		local = append(local, capability.Interpreter(dict.SourceLanguage(), dict.TargetLanguage(), classifierMode))
	}
	registry, err := capability.NewRegistry(ctx, r.cfg.Node, local, busClient, r.logger)
	if err != nil {
		return fmt.Errorf("start capability registry: %w", err)
	}
	defer registry.Close()

	handler := (&api{
		transcripts: interp,
		timeline:    store,
		ready: func() bool {
			return r.ready.Load() && busClient.Healthy() && interp.Healthy() && registry.Healthy()
		},
		metrics: tel.metricsHandler,
		log:     r.logger.With(slog.String("component", "http")),
	}).routes()

	addr := fmt.Sprintf("%s:%d", r.cfg.HTTP.Bind, r.cfg.HTTP.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	r.addr.Store(listener.Addr().String())
	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(pruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := store.Prune(gctx); err != nil {
					r.logger.Warn("event store prune failed", slog.String("error", err.Error()))
				}
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		r.ready.Store(false)
		r.logger.Info("runtime stopping")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	r.ready.Store(true)
	r.logger.Info("runtime started",
		slog.String("addr", r.Addr()),
		slog.String("node_id", r.cfg.Node.ID),
		slog.String("version", r.version))

	return g.Wait()
}
