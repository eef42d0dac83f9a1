package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	World   WorldConfig   `yaml:"world"`
	Actions ActionsConfig `yaml:"actions"`
	Client  ClientConfig  `yaml:"client"`
}

type ServerConfig struct {
	Addr             string        `yaml:"addr"`
	TickInterval     time.Duration `yaml:"tick_interval"`
	AutosaveInterval time.Duration `yaml:"autosave_interval"`
}

type StorageConfig struct {
	// Type is one of file, json or postgres.
	Type        string `yaml:"type"`
	DataDir     string `yaml:"data_dir"`
	JSONFile    string `yaml:"json_file"`
	DatabaseURL string `yaml:"database_url"`
	WorldName   string `yaml:"world_name"`
}

type WorldConfig struct {
	Width  int   `yaml:"width"`
	Height int   `yaml:"height"`
	Seed   int64 `yaml:"seed"`
	// SandLevel is the average corner height below which tiles become sand.
	SandLevel  *float64    `yaml:"sand_level"`
	TreeChance float64     `yaml:"tree_chance"`
	Noise      NoiseConfig `yaml:"noise"`
}

type NoiseConfig struct {
	Alpha     float64 `yaml:"alpha"`
	Beta      float64 `yaml:"beta"`
	Octaves   int32   `yaml:"octaves"`
	Scale     float64 `yaml:"scale"`
	Amplitude float64 `yaml:"amplitude"`
}

type ActionsConfig struct {
	DigChance *float64 `yaml:"dig_chance"`
}

type ClientConfig struct {
	ServerURL            string `yaml:"server_url"`
	ConnectIntervalTicks int    `yaml:"connect_interval_ticks"`
	MaxAttempts          int    `yaml:"max_attempts"`
	TickRate             int    `yaml:"tick_rate"`

	// DialTimeout bounds one connection attempt, handshake included.
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

func (s *ServerConfig) ApplyDefaults() {
	if s.Addr == "" {
		s.Addr = ":1945"
	}
	if s.TickInterval == 0 {
		s.TickInterval = 17 * time.Millisecond
	}
	if s.AutosaveInterval == 0 {
		s.AutosaveInterval = 5 * time.Minute
	}
}

func (s *StorageConfig) ApplyDefaults() {
	if s.Type == "" {
		s.Type = "file"
	}
	if s.DataDir == "" {
		s.DataDir = "server_data"
	}
	if s.JSONFile == "" {
		s.JSONFile = "db.json"
	}
	if s.DatabaseURL == "" {
		s.DatabaseURL = "host=localhost user=tilecraft password=tilecraft dbname=tilecraft sslmode=disable"
	}
	if s.WorldName == "" {
		s.WorldName = "main"
	}
}

func (w *WorldConfig) ApplyDefaults() {
	if w.Width == 0 {
		w.Width = 64
	}
	if w.Height == 0 {
		w.Height = 64
	}
	if w.SandLevel == nil {
		level := -2.0
		w.SandLevel = &level
	}
	if w.TreeChance == 0 {
		w.TreeChance = 0.1
	}
	w.Noise.ApplyDefaults()
}

func (n *NoiseConfig) ApplyDefaults() {
	if n.Alpha == 0 {
		n.Alpha = 2
	}
	if n.Beta == 0 {
		n.Beta = 2
	}
	if n.Octaves == 0 {
		n.Octaves = 3
	}
	if n.Scale == 0 {
		n.Scale = 0.08
	}
	if n.Amplitude == 0 {
		n.Amplitude = 12
	}
}

func (a *ActionsConfig) ApplyDefaults() {
	if a.DigChance == nil {
		one := 1.0
		a.DigChance = &one
	}
}

func (c *ClientConfig) ApplyDefaults() {
	if c.ServerURL == "" {
		c.ServerURL = "ws://localhost:1945/ws"
	}
	if c.ConnectIntervalTicks == 0 {
		c.ConnectIntervalTicks = 70
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 10
	}
	if c.TickRate == 0 {
		c.TickRate = 60
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
}

func (c *Config) ApplyDefaults() {
	c.Server.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.World.ApplyDefaults()
	c.Actions.ApplyDefaults()
	c.Client.ApplyDefaults()
}

// Default returns the configuration used when no file is present
func Default() *Config {
	var c Config
	c.ApplyDefaults()
	return &c
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Config
	if err := yaml.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	r.ApplyDefaults()
	return &r, nil
}

// LoadOrDefault loads path, falling back to defaults when it does not exist.
// Environment overrides are applied either way.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Default()
	} else if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}
