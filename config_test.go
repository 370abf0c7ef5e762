package crucible

import (
	"testing"
)

func TestConfigPath(t *testing.T) {
	got := ConfigPath("/tmp/repo")
	want := "/tmp/repo/.crucible/config.yaml"
	if got != want {
		t.Errorf("ConfigPath = %q, want %q", got, want)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	dir := t.TempDir()

	cfg := &Config{
		Workspace: WorkspaceConfig{
			Toolchain: "cargo",
			BuildMode: ModeRelease,
			TestMode:  ModeBoth,
			Ignore:    []string{"target/**"},
		},
		Notify: NotifyConfig{Kind: "discord", Token: "tok", ChannelID: "123"},
	}

	if err := SaveConfig(dir, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.Workspace.Toolchain != "cargo" || loaded.Workspace.BuildMode != ModeRelease || loaded.Workspace.TestMode != ModeBoth {
		t.Errorf("unexpected workspace config: %+v", loaded.Workspace)
	}
	if loaded.Notify.Kind != "discord" || loaded.Notify.ChannelID != "123" {
		t.Errorf("unexpected notify config: %+v", loaded.Notify)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.Workspace.Toolchain != "" {
		t.Errorf("Toolchain = %q, want empty", cfg.Workspace.Toolchain)
	}
}

func TestConfig_IgnorePatternsDefaultsWhenUnset(t *testing.T) {
	cfg := &Config{}
	got := cfg.IgnorePatterns()
	if len(got) != len(DefaultIgnoreGlobs) {
		t.Fatalf("expected default ignore globs, got %v", got)
	}
}

func TestConfig_ToolchainDefaultsWhenUnset(t *testing.T) {
	cfg := &Config{}
	if got := cfg.Toolchain(); got != DefaultToolchain {
		t.Errorf("Toolchain() = %q, want %q", got, DefaultToolchain)
	}
}

func TestConfig_ModeDefaults(t *testing.T) {
	cfg := &Config{}
	if got := cfg.BuildMode(); got != ModeNone {
		t.Errorf("BuildMode() = %q, want %q", got, ModeNone)
	}
	if got := cfg.TestMode(); got != ModeDebug {
		t.Errorf("TestMode() = %q, want %q", got, ModeDebug)
	}
}

func TestParseCompilationMode(t *testing.T) {
	cases := []struct {
		in      string
		want    CompilationMode
		wantErr bool
	}{
		{"none", ModeNone, false},
		{"debug", ModeDebug, false},
		{"Release", ModeRelease, false},
		{"BOTH", ModeBoth, false},
		{"fast", "", true},
		{"", "", true},
	}
	for _, c := range cases {
		got, err := ParseCompilationMode(c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("ParseCompilationMode(%q) error = %v, wantErr %v", c.in, err, c.wantErr)
			continue
		}
		if got != c.want {
			t.Errorf("ParseCompilationMode(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCompilationMode_IsRelease(t *testing.T) {
	if ModeNone.IsRelease() || ModeDebug.IsRelease() || ModeBoth.IsRelease() {
		t.Error("only the release mode should report IsRelease")
	}
	if !ModeRelease.IsRelease() {
		t.Error("release mode should report IsRelease")
	}
}

func TestBuildNotifier_DefaultsToNop(t *testing.T) {
	n := BuildNotifier(NotifyConfig{})
	if _, ok := n.(NopNotifier); !ok {
		t.Fatalf("expected NopNotifier, got %T", n)
	}
}

func TestBuildNotifier_Discord(t *testing.T) {
	n := BuildNotifier(NotifyConfig{Kind: "discord", Token: "t", ChannelID: "c"})
	dn, ok := n.(*DiscordNotifier)
	if !ok {
		t.Fatalf("expected *DiscordNotifier, got %T", n)
	}
	if dn.Token != "t" || dn.ChannelID != "c" {
		t.Errorf("unexpected discord notifier: %+v", dn)
	}
}
