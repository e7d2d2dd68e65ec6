package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lazypower/thringlet/internal/companion"
	"github.com/lazypower/thringlet/internal/config"
	"github.com/lazypower/thringlet/internal/engine"
	"github.com/lazypower/thringlet/internal/store"
)

// run executes the root command against a temporary database and returns stdout.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("THRINGLET_DB_PATH", filepath.Join(dir, "thringlet.db"))
	t.Setenv("THRINGLET_LOG_LEVEL", "error")

	createID, createName, createRarity = "", "", string(companion.Common)
	createOwner, createCore, createPersonality, createLore = "", "", "", ""
	createAbilities = nil
	listOwner, showMemory, decayAll, remoteURL = "", 0, false, ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	base := []string{"--config", filepath.Join(dir, "missing.toml"), "--env-file", ""}
	rootCmd.SetArgs(append(args, base...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseAbility(t *testing.T) {
	tests := []struct {
		in      string
		want    companion.Ability
		wantErr bool
	}{
		{"Patch", companion.Ability{Name: "Patch"}, false},
		{"Patch:support", companion.Ability{Name: "Patch", Type: "support"}, false},
		{"Patch:support:mends: a sector", companion.Ability{Name: "Patch", Type: "support", Description: "mends: a sector"}, false},
		{" :support", companion.Ability{}, true},
	}
	for _, tt := range tests {
		got, err := parseAbility(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseAbility(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseAbility(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, t.TempDir(), "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "thringlet dev") {
		t.Errorf("output = %q", out)
	}
}

func TestCompanionLifecycle(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "create", "--id", "thr-001", "--name", "Nyx", "--rarity", "legendary",
		"--ability", "Patch:support:mends a sector", "--owner", "0xabc")
	if err != nil {
		t.Fatalf("create: %v\n%s", err, out)
	}
	// Legendary base 70 plus 5 for its one ability.
	if !strings.Contains(out, "Nyx  [Legendary]  power 75") {
		t.Errorf("create output = %q", out)
	}

	out, err = run(t, dir, "interact", "thr-001", "feed")
	if err != nil {
		t.Fatalf("interact: %v", err)
	}
	if !strings.Contains(out, "absorbs the data packet") {
		t.Errorf("interact output = %q", out)
	}

	out, err = run(t, dir, "show", "thr-001", "--memory", "5")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"bond:        52%", "Patch (support): mends a sector", "feed"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, dir, "list", "--owner", "0xabc")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "thr-001") || !strings.Contains(out, "1 companion\n") {
		t.Errorf("list output = %q", out)
	}

	out, err = run(t, dir, "abilities", "thr-001")
	if err != nil {
		t.Fatalf("abilities: %v", err)
	}
	if !strings.Contains(out, "Patch") {
		t.Errorf("abilities output = %q", out)
	}

	out, err = run(t, dir, "decay", "thr-001")
	if err != nil {
		t.Fatalf("decay: %v", err)
	}
	if !strings.Contains(out, "nothing to decay") {
		t.Errorf("decay output = %q", out)
	}

	out, err = run(t, dir, "decay", "--all")
	if err != nil {
		t.Fatalf("decay --all: %v", err)
	}
	if !strings.Contains(out, "Decayed 0 companions.") {
		t.Errorf("decay --all output = %q", out)
	}

	if _, err := run(t, dir, "delete", "thr-001"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := run(t, dir, "show", "thr-001"); err == nil {
		t.Error("show after delete: want error")
	}
}

func TestCreatePowerWithoutAbilities(t *testing.T) {
	out, err := run(t, t.TempDir(), "create", "--id", "thr-002", "--name", "Vex", "--rarity", "legendary")
	if err != nil {
		t.Fatalf("create: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Vex  [Legendary]  power 70") {
		t.Errorf("create output = %q", out)
	}
}

func TestResolveDBPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("THRINGLET_DB", filepath.Join(t.TempDir(), "other.db"))
	saved := cfg
	t.Cleanup(func() { cfg = saved })

	cfg = config.Default()
	got, err := resolveDBPath()
	if err != nil {
		t.Fatalf("resolveDBPath: %v", err)
	}
	want, err := store.DefaultDBPath()
	if err != nil {
		t.Fatalf("DefaultDBPath: %v", err)
	}
	if got != want {
		t.Errorf("resolveDBPath = %q, want default %q", got, want)
	}

	cfg.Database.Path = filepath.Join(t.TempDir(), "configured.db")
	if got, _ := resolveDBPath(); got != cfg.Database.Path {
		t.Errorf("resolveDBPath = %q, want configured %q", got, cfg.Database.Path)
	}
}

func TestCreateRejectsBadRarity(t *testing.T) {
	if _, err := run(t, t.TempDir(), "create", "--name", "Nyx", "--rarity", "mythic"); err == nil {
		t.Error("create with bad rarity: want error")
	}
}

func TestDecayNeedsTarget(t *testing.T) {
	dir := t.TempDir()
	if _, err := run(t, dir, "decay"); err == nil {
		t.Error("decay with no id: want error")
	}
	if _, err := run(t, dir, "decay", "thr-001", "--all"); err == nil {
		t.Error("decay with id and --all: want error")
	}
}

func TestRemoteUnreachable(t *testing.T) {
	if _, err := run(t, t.TempDir(), "list", "--remote", "http://127.0.0.1:1"); err == nil {
		t.Error("list against unreachable remote: want error")
	}
}

func TestStatusLine(t *testing.T) {
	s := engine.Snapshot{
		Profile: companion.Profile{Name: "Nyx"},
		State:   companion.State{Emotion: 12, Corruption: 7, BondLevel: 55, LastInteraction: time.Now()},
		Label:   companion.Content,
	}
	want := "Nyx is Content: emotion +12, corruption 7%, bond 55%"
	if got := statusLine(s); got != want {
		t.Errorf("statusLine = %q, want %q", got, want)
	}
}
