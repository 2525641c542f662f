package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(body), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestLoad_DefaultWhenMissing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AutosaveIntervalMS != DefaultAutosaveIntervalMS {
		t.Fatalf("AutosaveIntervalMS = %d, want %d", cfg.AutosaveIntervalMS, DefaultAutosaveIntervalMS)
	}
	if cfg.WebBind != DefaultWebBind || cfg.WebPort != DefaultWebPort {
		t.Fatalf("web = %s:%d, want %s:%d", cfg.WebBind, cfg.WebPort, DefaultWebBind, DefaultWebPort)
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"autosave_interval_ms": 30000, "web_port": 9000}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AutosaveIntervalMS != 30000 {
		t.Fatalf("AutosaveIntervalMS = %d, want 30000", cfg.AutosaveIntervalMS)
	}
	if cfg.WebPort != 9000 {
		t.Fatalf("WebPort = %d, want 9000", cfg.WebPort)
	}
	if cfg.WebBind != DefaultWebBind {
		t.Fatalf("WebBind = %q, want default", cfg.WebBind)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{not json}`)

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestAutosaveInterval(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
		want time.Duration
	}{
		{"nil config", nil, 5 * time.Second},
		{"zero", &Config{}, 5 * time.Second},
		{"negative", &Config{AutosaveIntervalMS: -1}, 5 * time.Second},
		{"custom", &Config{AutosaveIntervalMS: 250}, 250 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.AutosaveInterval(); got != tt.want {
				t.Errorf("AutosaveInterval() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadWithRepo_BothPresent(t *testing.T) {
	globalDir := t.TempDir()
	repoDir := t.TempDir()
	writeConfig(t, globalDir, `{"autosave_interval_ms": 10000, "disabled_tools": ["draft_close"]}`)
	writeConfig(t, filepath.Join(repoDir, ".thoughts"), `{"autosave_interval_ms": 20000, "disabled_tools": ["thought_list", "draft_close"]}`)

	cfg, err := LoadWithRepo(globalDir, repoDir)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.AutosaveIntervalMS != 20000 {
		t.Errorf("AutosaveIntervalMS = %d, want 20000 (repo wins)", cfg.AutosaveIntervalMS)
	}
	if len(cfg.DisabledTools) != 2 {
		t.Errorf("DisabledTools = %v, want 2 deduplicated entries", cfg.DisabledTools)
	}
}

func TestLoadWithRepo_NeitherPresent(t *testing.T) {
	cfg, err := LoadWithRepo(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.AutosaveIntervalMS != DefaultAutosaveIntervalMS {
		t.Errorf("AutosaveIntervalMS = %d, want default", cfg.AutosaveIntervalMS)
	}
}

func TestLoadWithRepo_WalksUpward(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, filepath.Join(root, ".thoughts"), `{"web_port": 7000}`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0700); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	cfg, err := LoadWithRepo(t.TempDir(), nested)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.WebPort != 7000 {
		t.Errorf("WebPort = %d, want 7000", cfg.WebPort)
	}
}

func TestFindRepoConfig_NotFound(t *testing.T) {
	if got := FindRepoConfig(t.TempDir()); got != "" {
		t.Errorf("FindRepoConfig() = %q, want empty", got)
	}
}

func TestMerge_ArrayMergeDedup(t *testing.T) {
	base := &Config{DisabledTools: []string{" a ", "b"}}
	overlay := &Config{DisabledTools: []string{"b", "c", ""}}

	got := Merge(base, overlay)
	want := []string{"a", "b", "c"}
	if len(got.DisabledTools) != len(want) {
		t.Fatalf("DisabledTools = %v, want %v", got.DisabledTools, want)
	}
	for i := range want {
		if got.DisabledTools[i] != want[i] {
			t.Errorf("DisabledTools[%d] = %q, want %q", i, got.DisabledTools[i], want[i])
		}
	}
}

func TestMerge_ScalarOverride(t *testing.T) {
	got := Merge(DefaultConfig(), &Config{DBMaxOpenConns: 1, WebBind: "0.0.0.0"})
	if got.DBMaxOpenConns != 1 {
		t.Errorf("DBMaxOpenConns = %d, want 1", got.DBMaxOpenConns)
	}
	if got.WebBind != "0.0.0.0" {
		t.Errorf("WebBind = %q, want 0.0.0.0", got.WebBind)
	}
	if got.AutosaveIntervalMS != DefaultAutosaveIntervalMS {
		t.Errorf("AutosaveIntervalMS = %d, want default", got.AutosaveIntervalMS)
	}
}
