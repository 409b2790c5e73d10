package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel     string `yaml:"log_level"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
	TraceStdout  bool   `yaml:"trace_stdout"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type Config struct {
	RuntimeName string            `yaml:"runtime_name"`
	Environment string            `yaml:"environment"`
	HTTP        HTTPConfig        `yaml:"http"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Bus         BusConfig         `yaml:"bus"`
	Node        NodeConfig        `yaml:"node"`
	EventStore  EventStoreConfig  `yaml:"event_store"`
	Dictionary  DictionaryConfig  `yaml:"dictionary"`
	Engine      EngineConfig      `yaml:"engine"`
	Classifier  ClassifierConfig  `yaml:"classifier"`
	Interpreter InterpreterConfig `yaml:"interpreter"`
}

type BusConfig struct {
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type NodeConfig struct {
	ID                string `yaml:"id"`
	Role              string `yaml:"role"`
	HeartbeatInterval int    `yaml:"heartbeat_interval_ms"`
	HeartbeatTimeout  int    `yaml:"heartbeat_timeout_ms"`
}

type EventStoreConfig struct {
	Path          string `yaml:"path"`
	RetentionMode string `yaml:"retention_mode"`
	RetentionDays int    `yaml:"retention_days"`
	MaxSessions   int    `yaml:"max_sessions"`
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

// DictionaryConfig points at a YAML or TOML symbol table. Empty uses the
// built-in English/Malay table.
type DictionaryConfig struct {
	Path string `yaml:"path"`
}

type EngineConfig struct {
	StabilityThreshold int `yaml:"stability_threshold"`
	ResetThreshold     int `yaml:"reset_threshold"`
}

type ClassifierConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Mode      string `yaml:"mode"` // mock, exec
	Command   string `yaml:"command"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

type InterpreterConfig struct {
	Enabled            bool `yaml:"enabled"`
	PublishDisplay     bool `yaml:"publish_display"`
	SessionIdleTimeout int  `yaml:"session_idle_timeout_ms"`
}

func Default() Config {
	return Config{
		RuntimeName: "signmeup",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 8080,
		},
		Telemetry: TelemetryConfig{
			LogLevel:     "info",
			OTLPInsecure: true,
		},
		Bus: BusConfig{
			Embedded:       true,
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		Node: NodeConfig{
			ID:                "signmeup-node-1",
			Role:              "interpreter",
			HeartbeatInterval: 2000,
			HeartbeatTimeout:  6000,
		},
		EventStore: EventStoreConfig{
			Path:          "./data/signmeup-events.db",
			RetentionMode: "session",
			RetentionDays: 30,
			MaxSessions:   10000,
		},
		Engine: EngineConfig{
			StabilityThreshold: 12,
			ResetThreshold:     20,
		},
		Classifier: ClassifierConfig{
			Enabled:   false,
			Mode:      "mock",
			TimeoutMS: 2000,
		},
		Interpreter: InterpreterConfig{
			Enabled:            true,
			PublishDisplay:     true,
			SessionIdleTimeout: 10 * 60 * 1000,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SlogLevel maps telemetry.log_level to a slog level.
func (c TelemetryConfig) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "SIGNMEUP_RUNTIME_NAME")
	overrideString(&cfg.Environment, "SIGNMEUP_RUNTIME_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "SIGNMEUP_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "SIGNMEUP_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "SIGNMEUP_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "SIGNMEUP_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "SIGNMEUP_TELEMETRY_OTLP_INSECURE")
	overrideBool(&cfg.Telemetry.TraceStdout, "SIGNMEUP_TELEMETRY_TRACE_STDOUT")
	overrideBool(&cfg.Bus.Embedded, "SIGNMEUP_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "SIGNMEUP_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "SIGNMEUP_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "SIGNMEUP_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "SIGNMEUP_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "SIGNMEUP_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "SIGNMEUP_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "SIGNMEUP_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.Node.ID, "SIGNMEUP_NODE_ID")
	overrideString(&cfg.Node.Role, "SIGNMEUP_NODE_ROLE")
	overrideInt(&cfg.Node.HeartbeatInterval, "SIGNMEUP_NODE_HEARTBEAT_INTERVAL_MS")
	overrideInt(&cfg.Node.HeartbeatTimeout, "SIGNMEUP_NODE_HEARTBEAT_TIMEOUT_MS")
	overrideString(&cfg.EventStore.Path, "SIGNMEUP_EVENT_STORE_PATH")
	overrideString(&cfg.EventStore.RetentionMode, "SIGNMEUP_EVENT_STORE_RETENTION_MODE")
	overrideInt(&cfg.EventStore.RetentionDays, "SIGNMEUP_EVENT_STORE_RETENTION_DAYS")
	overrideInt(&cfg.EventStore.MaxSessions, "SIGNMEUP_EVENT_STORE_MAX_SESSIONS")
	overrideBool(&cfg.EventStore.VacuumOnStart, "SIGNMEUP_EVENT_STORE_VACUUM_ON_START")
	overrideString(&cfg.Dictionary.Path, "SIGNMEUP_DICTIONARY_PATH")
	overrideInt(&cfg.Engine.StabilityThreshold, "SIGNMEUP_ENGINE_STABILITY_THRESHOLD")
	overrideInt(&cfg.Engine.ResetThreshold, "SIGNMEUP_ENGINE_RESET_THRESHOLD")
	overrideBool(&cfg.Classifier.Enabled, "SIGNMEUP_CLASSIFIER_ENABLED")
	overrideString(&cfg.Classifier.Mode, "SIGNMEUP_CLASSIFIER_MODE")
	overrideString(&cfg.Classifier.Command, "SIGNMEUP_CLASSIFIER_COMMAND")
	overrideInt(&cfg.Classifier.TimeoutMS, "SIGNMEUP_CLASSIFIER_TIMEOUT_MS")
	overrideBool(&cfg.Interpreter.Enabled, "SIGNMEUP_INTERPRETER_ENABLED")
	overrideBool(&cfg.Interpreter.PublishDisplay, "SIGNMEUP_INTERPRETER_PUBLISH_DISPLAY")
	overrideInt(&cfg.Interpreter.SessionIdleTimeout, "SIGNMEUP_INTERPRETER_SESSION_IDLE_TIMEOUT_MS")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func validate(cfg Config) error {
	if cfg.RuntimeName == "" {
		return errors.New("runtime_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Bus.Embedded {
		if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
			return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
		}
	} else if len(cfg.Bus.Servers) == 0 {
		return errors.New("bus.servers must not be empty when embedded mode is disabled")
	}
	if cfg.Node.ID == "" {
		return errors.New("node.id must not be empty")
	}
	if cfg.Node.HeartbeatInterval <= 0 {
		return errors.New("node.heartbeat_interval_ms must be positive")
	}
	if cfg.Node.HeartbeatTimeout <= cfg.Node.HeartbeatInterval {
		return errors.New("node.heartbeat_timeout_ms must be greater than heartbeat interval")
	}
	if cfg.EventStore.Path == "" {
		return errors.New("event_store.path must not be empty")
	}
	switch cfg.EventStore.RetentionMode {
	case "ephemeral", "session", "persistent":
		// ok
	default:
		return errors.New("event_store.retention_mode must be one of ephemeral|session|persistent")
	}
	if cfg.EventStore.RetentionDays < 0 {
		return errors.New("event_store.retention_days must be >= 0")
	}
	if cfg.Engine.StabilityThreshold <= 0 {
		return errors.New("engine.stability_threshold must be positive")
	}
	if cfg.Engine.ResetThreshold <= 0 {
		return errors.New("engine.reset_threshold must be positive")
	}
	if cfg.Classifier.Enabled {
		switch cfg.Classifier.Mode {
		case "mock", "exec":
		default:
			return errors.New("classifier.mode must be one of mock|exec")
		}
		if cfg.Classifier.Mode == "exec" && cfg.Classifier.Command == "" {
			return errors.New("classifier.command must be set when mode=exec")
		}
		if cfg.Classifier.TimeoutMS <= 0 {
			return errors.New("classifier.timeout_ms must be positive")
		}
	}
	if cfg.Interpreter.SessionIdleTimeout < 0 {
		return errors.New("interpreter.session_idle_timeout_ms must be >= 0")
	}
	return nil
}
