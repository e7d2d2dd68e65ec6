package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if got := cfg.ListenAddr(); got != "127.0.0.1:37778" {
		t.Errorf("ListenAddr = %q, want 127.0.0.1:37778", got)
	}
	if cfg.Engine.DecayInterval.Std() != time.Hour {
		t.Errorf("DecayInterval = %v, want 1h", cfg.Engine.DecayInterval.Std())
	}
	if cfg.Engine.MemoryLimit != 200 {
		t.Errorf("MemoryLimit = %d, want 200", cfg.Engine.MemoryLimit)
	}
	if cfg.MQTT.Enabled {
		t.Error("MQTT enabled by default")
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 37778 {
		t.Errorf("Port = %d, want 37778", cfg.Server.Port)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 4000

[engine]
decay_interval = "15m"
memory_limit = 50

[mqtt]
enabled = true
broker_url = "tcp://broker:1883"
topic_prefix = "home/pets"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("Port = %d, want 4000", cfg.Server.Port)
	}
	if cfg.Server.Bind != "127.0.0.1" {
		t.Errorf("Bind = %q, want default kept", cfg.Server.Bind)
	}
	if cfg.Engine.DecayInterval.Std() != 15*time.Minute {
		t.Errorf("DecayInterval = %v, want 15m", cfg.Engine.DecayInterval.Std())
	}
	if cfg.Engine.MemoryLimit != 50 {
		t.Errorf("MemoryLimit = %d, want 50", cfg.Engine.MemoryLimit)
	}
	if !cfg.MQTT.Enabled || cfg.MQTT.BrokerURL != "tcp://broker:1883" || cfg.MQTT.TopicPrefix != "home/pets" {
		t.Errorf("MQTT = %+v", cfg.MQTT)
	}
	if cfg.MQTT.ClientID != "thringlet" {
		t.Errorf("ClientID = %q, want default kept", cfg.MQTT.ClientID)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "[server]\nport = 4000\n")
	t.Setenv("THRINGLET_PORT", "5000")
	t.Setenv("THRINGLET_DECAY_INTERVAL", "2h")
	t.Setenv("THRINGLET_DB_PATH", "/tmp/t.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("Port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Engine.DecayInterval.Std() != 2*time.Hour {
		t.Errorf("DecayInterval = %v, want 2h", cfg.Engine.DecayInterval.Std())
	}
	if cfg.Database.Path != "/tmp/t.db" {
		t.Errorf("Path = %q, want /tmp/t.db", cfg.Database.Path)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad toml", "[server\nport = 1"},
		{"bad port", "[server]\nport = 70000\n"},
		{"bad interval", "[engine]\ndecay_interval = \"soon\"\n"},
		{"zero interval", "[engine]\ndecay_interval = \"0s\"\n"},
		{"mqtt without broker", "[mqtt]\nenabled = true\nbroker_url = \"\"\n"},
	}
	for _, tt := range tests {
		if _, err := Load(writeConfig(t, tt.body)); err == nil {
			t.Errorf("%s: Load = nil error, want error", tt.name)
		}
	}
}
