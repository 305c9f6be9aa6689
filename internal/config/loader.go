package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
)

const defaultConfigRelPath = "configs/realm.yml"

// Load reads cfgPath (or searches configs/realm.yml upward from the working
// directory when cfgPath is empty), fills defaults, then applies environment
// overrides. A missing file is only an error when cfgPath was given.
func Load(cfgPath string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	path := cfgPath
	if path == "" {
		if dir, err := os.Getwd(); err == nil {
			path = findConfigUpward(dir)
		}
	}
	if path != "" {
		if !fileExist(path) {
			return Config{}, fmt.Errorf("config file not exist, path=%s", path)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	var overrides Env
	if err := ParseEnv(&overrides); err != nil {
		return Config{}, err
	}
	overrides.apply(&cfg)
	return cfg, nil
}

// ParseEnv loads environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size", 64)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 14)
	v.SetDefault("sim.seed", 42)
	v.SetDefault("sim.turns", 120)
	v.SetDefault("sim.countries", 6)
	v.SetDefault("sim.map_radius", 8)
	v.SetDefault("persistence.save_every", 12)
}

// findConfigUpward returns "" when no config file exists up to the root.
func findConfigUpward(startDir string) string {
	dir := startDir
	for {
		candidate := filepath.Join(dir, defaultConfigRelPath)
		if fileExist(candidate) {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func fileExist(fileName string) bool {
	_, err := os.Stat(fileName)
	return err == nil
}
