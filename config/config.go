package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Node    NodeConfig    `yaml:"node"`
	Engine  EngineConfig  `yaml:"engine"`
	Logging LoggingConfig `yaml:"logging"`
}

// NodeConfig holds the cluster membership and listen addresses
type NodeConfig struct {
	ID        string   `yaml:"id"`
	RaftAddr  string   `yaml:"raft_addr"`
	RaftDir   string   `yaml:"raft_dir"`
	HTTPAddr  string   `yaml:"http_addr"`
	Bootstrap bool     `yaml:"bootstrap"`
	JoinAddr  string   `yaml:"join"`
	Peers     []string `yaml:"peers"`
}

// EngineConfig tunes the estimation engine
type EngineConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	Timezone     string        `yaml:"timezone"`
}

// LoggingConfig selects the log level and output format
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Environment variables overriding the config file
const (
	EnvHTTPAddr = "PRINTETA_HTTP_ADDR"
	EnvLogLevel = "PRINTETA_LOG_LEVEL"
	EnvTimezone = "PRINTETA_TIMEZONE"
)

func defaults() *Config {
	return &Config{
		Engine: EngineConfig{
			TickInterval: time.Second,
			Timezone:     "Local",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML config file on top of the defaults. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvHTTPAddr); v != "" {
		c.Node.HTTPAddr = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := getenv(EnvTimezone); v != "" {
		c.Engine.Timezone = v
	}
}

// Parse builds the configuration from defaults, the file named by -config,
// the environment and finally the remaining flags in args.
func Parse(args []string, getenv func(string) string) (*Config, error) {
	fs := flag.NewFlagSet("printeta-server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	configPath := fs.String("config", "", "Path to a YAML config file")
	nodeID := fs.String("id", "", "Node ID (required)")
	raftAddr := fs.String("raft-addr", "", "Raft transport address (required)")
	raftDir := fs.String("raft-dir", "", "Raft storage directory (required)")
	httpAddr := fs.String("http-addr", "", "HTTP API address (required)")
	bootstrap := fs.Bool("bootstrap", false, "Bootstrap the cluster")
	join := fs.String("join", "", "Join address of an existing node")
	peers := fs.String("peers", "", "Comma-separated list of peer addresses")
	tick := fs.Duration("tick-interval", 0, "Live progress refresh interval")
	timezone := fs.String("timezone", "", "Time zone for formatted timestamps")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "", "Log format (text or json)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := Load(*configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(getenv)

	// Only flags given on the command line win over file and environment.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "id":
			cfg.Node.ID = *nodeID
		case "raft-addr":
			cfg.Node.RaftAddr = *raftAddr
		case "raft-dir":
			cfg.Node.RaftDir = *raftDir
		case "http-addr":
			cfg.Node.HTTPAddr = *httpAddr
		case "bootstrap":
			cfg.Node.Bootstrap = *bootstrap
		case "join":
			cfg.Node.JoinAddr = *join
		case "peers":
			cfg.Node.Peers = splitPeers(*peers)
		case "tick-interval":
			cfg.Engine.TickInterval = *tick
		case "timezone":
			cfg.Engine.Timezone = *timezone
		case "log-level":
			cfg.Logging.Level = *logLevel
		case "log-format":
			cfg.Logging.Format = *logFormat
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseFlags parses the process arguments and exits on invalid configuration
func ParseFlags() *Config {
	cfg, err := Parse(os.Args[1:], os.Getenv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	return cfg
}

func splitPeers(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks required fields and value ranges
func (c *Config) Validate() error {
	if c.Node.ID == "" {
		return fmt.Errorf("node ID is required")
	}
	if c.Node.RaftAddr == "" {
		return fmt.Errorf("raft address is required")
	}
	if c.Node.RaftDir == "" {
		return fmt.Errorf("raft directory is required")
	}
	if c.Node.HTTPAddr == "" {
		return fmt.Errorf("HTTP address is required")
	}
	if c.Engine.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %v", c.Engine.TickInterval)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	return nil
}

// Location resolves the configured time zone
func (c *Config) Location() (*time.Location, error) {
	if c.Engine.Timezone == "" || c.Engine.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Engine.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", c.Engine.Timezone, err)
	}
	return loc, nil
}
