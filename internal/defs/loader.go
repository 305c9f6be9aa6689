package defs

import (
	"fmt"

	"github.com/spf13/viper"
)

// Load reads a YAML definition file and prepares it. Viper lowercases map
// keys, so commodity and class identifiers are expected in lower case.
func Load(path string) (*Database, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read definitions %s: %w", path, err)
	}
	db := &Database{}
	if err := v.Unmarshal(db); err != nil {
		return nil, fmt.Errorf("unmarshal definitions %s: %w", path, err)
	}
	if err := db.Prepare(); err != nil {
		return nil, fmt.Errorf("prepare definitions %s: %w", path, err)
	}
	return db, nil
}

// LoadOrDefault loads path, or returns Default when path is empty.
func LoadOrDefault(path string) (*Database, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}
