package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the server configuration. Values come from defaults, an
// optional YAML file and CONTAGION_* environment variables, in increasing
// order of precedence; command-line flags override all three.
type Config struct {
	Addr      string         `mapstructure:"addr"`
	DBPath    string         `mapstructure:"db_path"`
	ClientDir string         `mapstructure:"client_dir"`
	Sim       SimConfig      `mapstructure:"sim"`
	Operator  OperatorConfig `mapstructure:"operator"`
}

// SimConfig holds the world and step parameters
type SimConfig struct {
	Width               int   `mapstructure:"width"`
	Height              int   `mapstructure:"height"`
	Capacity            int   `mapstructure:"capacity"`
	Radius              int   `mapstructure:"radius"`
	Potency             int   `mapstructure:"potency"`
	Population          int   `mapstructure:"population"`
	InitialContaminated int   `mapstructure:"initial_contaminated"`
	MaxPopulation       int   `mapstructure:"max_population"`
	Seed                int64 `mapstructure:"seed"`
	TickRate            int   `mapstructure:"tick_rate"`
	BroadcastRate       int   `mapstructure:"broadcast_rate"`
	SampleEvery         int   `mapstructure:"sample_every"`
}

// OperatorConfig enables operator-only actions when a password is set.
// PasswordHash is a bcrypt hash and wins over Password.
type OperatorConfig struct {
	Password     string `mapstructure:"password"`
	PasswordHash string `mapstructure:"password_hash"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("db_path", "contagion.db")
	v.SetDefault("client_dir", "")
	v.SetDefault("sim.width", 500)
	v.SetDefault("sim.height", 500)
	v.SetDefault("sim.capacity", 32)
	v.SetDefault("sim.radius", 6)
	v.SetDefault("sim.potency", DefaultPotency)
	v.SetDefault("sim.population", 60000)
	v.SetDefault("sim.initial_contaminated", 1)
	v.SetDefault("sim.max_population", 100000)
	v.SetDefault("sim.seed", 0)
	v.SetDefault("sim.tick_rate", 150)
	v.SetDefault("sim.broadcast_rate", 30)
	v.SetDefault("sim.sample_every", 150)
	v.SetDefault("operator.password", "")
	v.SetDefault("operator.password_hash", "")
}

// LoadConfig reads the configuration. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("contagion")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Sim.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects parameters the simulation cannot run with
func (c SimConfig) Validate() error {
	switch {
	case c.Width < 1 || c.Height < 1:
		return fmt.Errorf("sim: world must be at least 1x1, got %dx%d", c.Width, c.Height)
	case c.Capacity < 1:
		return fmt.Errorf("sim: capacity must be at least 1, got %d", c.Capacity)
	case c.Radius < 0:
		return fmt.Errorf("sim: radius must not be negative, got %d", c.Radius)
	case c.Potency < 1:
		return fmt.Errorf("sim: potency must be at least 1, got %d", c.Potency)
	case c.Population < 0 || c.InitialContaminated < 0:
		return fmt.Errorf("sim: population must not be negative")
	case c.InitialContaminated > c.Population:
		return fmt.Errorf("sim: initial_contaminated %d exceeds population %d", c.InitialContaminated, c.Population)
	case c.MaxPopulation < c.Population:
		return fmt.Errorf("sim: max_population %d below population %d", c.MaxPopulation, c.Population)
	case c.TickRate < 1 || c.BroadcastRate < 1:
		return fmt.Errorf("sim: tick and broadcast rates must be positive")
	case c.SampleEvery < 1:
		return fmt.Errorf("sim: sample_every must be at least 1, got %d", c.SampleEvery)
	}
	return nil
}
