package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadReadsFileAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "realm.yml")
	body := "sim:\n  seed: 7\n  countries: 3\nlog:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Sim.Seed != 7 || cfg.Sim.Countries != 3 {
		t.Fatalf("got sim %+v, want seed 7 countries 3", cfg.Sim)
	}
	if cfg.Sim.Turns != 120 {
		t.Fatalf("got turns %d, want default 120", cfg.Sim.Turns)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("got level %q, want debug", cfg.Log.Level)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "realm.yml")
	if err := os.WriteFile(path, []byte("sim:\n  seed: 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("REALM_SEED", "99")
	t.Setenv("REALM_DB_PATH", "/tmp/realm.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Sim.Seed != 99 {
		t.Fatalf("got seed %d, want 99", cfg.Sim.Seed)
	}
	if cfg.Persistence.DBPath != "/tmp/realm.db" {
		t.Fatalf("got db path %q", cfg.Persistence.DBPath)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
