// Package config provides Viper-based configuration loading for the world
// server.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds top-level server settings.
type ServerConfig struct {
	// Mode is the server operation mode: "standalone", "frontend", or "backend".
	Mode string `mapstructure:"mode"`
	// Type is a free-form server type identifier surfaced in logs/metrics.
	Type string `mapstructure:"type"`
}

// DatabaseConfig holds PostgreSQL connection settings for the World Store's
// postgres-backed repository implementation.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// TransportConfig holds the websocket duplex-channel listener settings.
type TransportConfig struct {
	// Host is the bind address for the websocket listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the websocket listener.
	Port int `mapstructure:"port"`
	// ClientURL is the allowed CORS origin for browser-based clients.
	ClientURL string `mapstructure:"client_url"`
	// ReadTimeout bounds how long a connection may sit idle before the
	// server assumes it's dead and drops it.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout bounds a single outbound frame write.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (t TransportConfig) Addr() string {
	return fmt.Sprintf("%s:%d", t.Host, t.Port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// GameLoopConfig holds the fixed-rate scheduler's tuning knobs.
type GameLoopConfig struct {
	// TickRateHz is the number of ticks per second.
	TickRateHz int `mapstructure:"tick_rate_hz"`
	// CommandDrainCap is the soft per-tick cap on commands dequeued from
	// the Command Queue.
	CommandDrainCap int `mapstructure:"command_drain_cap"`
}

// TickInterval returns the duration between ticks.
//
// Precondition: TickRateHz must be > 0.
func (g GameLoopConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(g.TickRateHz)
}

// CombatConfig holds combat-system tuning knobs.
type CombatConfig struct {
	// FleeSuccessProbability is the base chance (0..1) that a flee attempt succeeds.
	FleeSuccessProbability float64 `mapstructure:"flee_success_probability"`
}

// AIConfig holds AI Agent Manager tuning knobs.
type AIConfig struct {
	// ProactiveIntervalSeconds is the cadence of the proactive decision loop.
	ProactiveIntervalSeconds int `mapstructure:"proactive_interval_seconds"`
	// CooldownSeconds is the minimum time between an agent's actions.
	CooldownSeconds int `mapstructure:"cooldown_seconds"`
	// PerceptionWindowSeconds bounds how long an event stays in an agent's
	// perception queue before being dropped.
	PerceptionWindowSeconds int `mapstructure:"perception_window_seconds"`
	// SpatialMemoryTTLHours is the age at which an agent's spatial memory
	// summary is refreshed.
	SpatialMemoryTTLHours int `mapstructure:"spatial_memory_ttl_hours"`
}

// ProactiveInterval returns the AIConfig's proactive cadence as a Duration.
func (a AIConfig) ProactiveInterval() time.Duration {
	return time.Duration(a.ProactiveIntervalSeconds) * time.Second
}

// Cooldown returns the minimum inter-action duration for an agent.
func (a AIConfig) Cooldown() time.Duration {
	return time.Duration(a.CooldownSeconds) * time.Second
}

// PerceptionWindow returns the perception-queue retention duration.
func (a AIConfig) PerceptionWindow() time.Duration {
	return time.Duration(a.PerceptionWindowSeconds) * time.Second
}

// SpatialMemoryTTL returns the spatial-memory refresh interval.
func (a AIConfig) SpatialMemoryTTL() time.Duration {
	return time.Duration(a.SpatialMemoryTTLHours) * time.Hour
}

// OracleConfig holds LLM Oracle credentials and model selection.
type OracleConfig struct {
	// Provider identifies which llm.Oracle implementation to construct.
	Provider string `mapstructure:"provider"`
	// APIKey is the oracle credential.
	APIKey string `mapstructure:"api_key"`
	// BaseURL overrides the oracle endpoint.
	BaseURL string `mapstructure:"base_url"`
	// Model selects the oracle's model.
	Model string `mapstructure:"model"`
	// RequestTimeout bounds a single oracle call; on expiry the caller must
	// treat the action as a no-op and emit an ai:error event.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Transport TransportConfig `mapstructure:"transport"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	GameLoop  GameLoopConfig  `mapstructure:"game_loop"`
	Combat    CombatConfig    `mapstructure:"combat"`
	AI        AIConfig        `mapstructure:"ai"`
	Oracle    OracleConfig    `mapstructure:"oracle"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateServer(c.Server); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateDatabase(c.Database); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateTransport(c.Transport); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGameLoop(c.GameLoop); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateCombat(c.Combat); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateAI(c.AI); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateOracle(c.Oracle); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	validModes := map[string]bool{"standalone": true, "frontend": true, "backend": true}
	if !validModes[s.Mode] {
		return fmt.Errorf("server.mode must be one of [standalone, frontend, backend], got %q", s.Mode)
	}
	if s.Type == "" {
		return errors.New("server.type must not be empty")
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateTransport(t TransportConfig) error {
	var errs []string
	if t.Port < 1 || t.Port > 65535 {
		errs = append(errs, fmt.Sprintf("transport.port must be 1-65535, got %d", t.Port))
	}
	if t.ReadTimeout < 0 {
		errs = append(errs, "transport.read_timeout must not be negative")
	}
	if t.WriteTimeout < 0 {
		errs = append(errs, "transport.write_timeout must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateGameLoop(g GameLoopConfig) error {
	var errs []string
	if g.TickRateHz < 1 {
		errs = append(errs, fmt.Sprintf("game_loop.tick_rate_hz must be >= 1, got %d", g.TickRateHz))
	}
	if g.CommandDrainCap < 1 {
		errs = append(errs, fmt.Sprintf("game_loop.command_drain_cap must be >= 1, got %d", g.CommandDrainCap))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateCombat(c CombatConfig) error {
	if c.FleeSuccessProbability < 0 || c.FleeSuccessProbability > 1 {
		return fmt.Errorf("combat.flee_success_probability must be within [0,1], got %v", c.FleeSuccessProbability)
	}
	return nil
}

func validateAI(a AIConfig) error {
	var errs []string
	if a.ProactiveIntervalSeconds < 1 {
		errs = append(errs, "ai.proactive_interval_seconds must be >= 1")
	}
	if a.CooldownSeconds < 0 {
		errs = append(errs, "ai.cooldown_seconds must not be negative")
	}
	if a.PerceptionWindowSeconds < 1 {
		errs = append(errs, "ai.perception_window_seconds must be >= 1")
	}
	if a.SpatialMemoryTTLHours < 1 {
		errs = append(errs, "ai.spatial_memory_ttl_hours must be >= 1")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateOracle(o OracleConfig) error {
	if o.Provider == "" {
		return errors.New("oracle.provider must not be empty")
	}
	if o.RequestTimeout < 0 {
		return errors.New("oracle.request_timeout must not be negative")
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with WORLD_ prefix
	v.SetEnvPrefix("WORLD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unprefixed operator-facing names, read alongside the WORLD_ forms.
	_ = v.BindEnv("oracle.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("oracle.base_url", "OPENAI_BASE_URL")
	_ = v.BindEnv("oracle.model", "OPENAI_MODEL")
	_ = v.BindEnv("transport.client_url", "CLIENT_URL")
	_ = v.BindEnv("transport.port", "PORT")

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", "standalone")
	v.SetDefault("server.type", "textworld")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "textworld")
	v.SetDefault("database.password", "textworld")
	v.SetDefault("database.name", "textworld")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("transport.host", "0.0.0.0")
	v.SetDefault("transport.port", 8080)
	v.SetDefault("transport.client_url", "http://localhost:5173")
	v.SetDefault("transport.read_timeout", "5m")
	v.SetDefault("transport.write_timeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("game_loop.tick_rate_hz", 10)
	v.SetDefault("game_loop.command_drain_cap", 50)

	v.SetDefault("combat.flee_success_probability", 0.7)

	v.SetDefault("ai.proactive_interval_seconds", 10)
	v.SetDefault("ai.cooldown_seconds", 3)
	v.SetDefault("ai.perception_window_seconds", 30)
	v.SetDefault("ai.spatial_memory_ttl_hours", 24)

	v.SetDefault("oracle.provider", "anthropic")
	v.SetDefault("oracle.model", "claude-sonnet-4-5")
	v.SetDefault("oracle.request_timeout", "20s")
}
