// Package config loads the simulation configuration from a YAML file through
// viper and applies REALM_* environment overrides.
package config

// Config is the root configuration.
type Config struct {
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	Sim         SimConfig         `yaml:"sim" mapstructure:"sim"`
	Persistence PersistenceConfig `yaml:"persistence" mapstructure:"persistence"`
	API         APIConfig         `yaml:"api" mapstructure:"api"`
}

type LogConfig struct {
	FileDir    string `yaml:"file_dir" mapstructure:"file_dir"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"` // MB
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"` // days
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
	Level      string `yaml:"level" mapstructure:"level"`
	Dev        bool   `yaml:"dev" mapstructure:"dev"`
}

type SimConfig struct {
	Seed      int64  `yaml:"seed" mapstructure:"seed"`
	Turns     int    `yaml:"turns" mapstructure:"turns"`
	Countries int    `yaml:"countries" mapstructure:"countries"`
	MapRadius int    `yaml:"map_radius" mapstructure:"map_radius"`
	DefsFile  string `yaml:"defs_file" mapstructure:"defs_file"` // empty = built-in content
}

type PersistenceConfig struct {
	DBPath    string `yaml:"db_path" mapstructure:"db_path"` // empty = no persistence
	SaveEvery int    `yaml:"save_every" mapstructure:"save_every"`
}

type APIConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"` // empty = API disabled
}

// Env holds the REALM_* overrides. Nil fields were not set.
type Env struct {
	Seed     *int64  `env:"REALM_SEED"`
	Turns    *int    `env:"REALM_TURNS"`
	DBPath   *string `env:"REALM_DB_PATH"`
	LogLevel *string `env:"REALM_LOG_LEVEL"`
	APIAddr  *string `env:"REALM_API_ADDR"`
}

func (e Env) apply(c *Config) {
	if e.Seed != nil {
		c.Sim.Seed = *e.Seed
	}
	if e.Turns != nil {
		c.Sim.Turns = *e.Turns
	}
	if e.DBPath != nil {
		c.Persistence.DBPath = *e.DBPath
	}
	if e.LogLevel != nil {
		c.Log.Level = *e.LogLevel
	}
	if e.APIAddr != nil {
		c.API.Addr = *e.APIAddr
	}
}
