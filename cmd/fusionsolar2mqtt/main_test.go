package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/solarbridge/fusionsolar2mqtt/internal/infrastructure/config"
)

func TestParseFlags_Defaults(t *testing.T) {
	var buf bytes.Buffer
	opts, err := parseFlags(nil, &buf)
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}

	if opts.settingsPath != "" {
		t.Errorf("settingsPath = %q, want empty", opts.settingsPath)
	}
	if opts.list {
		t.Error("list = true, want false")
	}
	if opts.debug {
		t.Error("debug = true, want false")
	}
	if opts.interval != intervalUnset {
		t.Errorf("interval = %d, want %d", opts.interval, intervalUnset)
	}
}

func TestParseFlags_AllFlags(t *testing.T) {
	var buf bytes.Buffer
	opts, err := parseFlags([]string{
		"--settings", "/etc/fusionsolar/settings.yaml",
		"--device-file", "/var/lib/fusionsolar/devices.json",
		"--list",
		"--debug",
		"--interval", "300",
	}, &buf)
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}

	if opts.settingsPath != "/etc/fusionsolar/settings.yaml" {
		t.Errorf("settingsPath = %q", opts.settingsPath)
	}
	if opts.deviceFile != "/var/lib/fusionsolar/devices.json" {
		t.Errorf("deviceFile = %q", opts.deviceFile)
	}
	if !opts.list {
		t.Error("list = false, want true")
	}
	if !opts.debug {
		t.Error("debug = false, want true")
	}
	if opts.interval != 300 {
		t.Errorf("interval = %d, want 300", opts.interval)
	}
}

func TestParseFlags_UnknownFlag(t *testing.T) {
	var buf bytes.Buffer
	if _, err := parseFlags([]string{"--bogus"}, &buf); err == nil {
		t.Error("parseFlags() should fail on unknown flag")
	}
}

func TestGetSettingsPath_Default(t *testing.T) {
	originalEnv := os.Getenv("FUSIONSOLAR_CONFIG")
	defer os.Setenv("FUSIONSOLAR_CONFIG", originalEnv)
	os.Unsetenv("FUSIONSOLAR_CONFIG")

	if got := getSettingsPath(&options{}); got != defaultSettingsPath {
		t.Errorf("getSettingsPath() = %q, want %q", got, defaultSettingsPath)
	}
}

func TestGetSettingsPath_EnvOverride(t *testing.T) {
	originalEnv := os.Getenv("FUSIONSOLAR_CONFIG")
	defer os.Setenv("FUSIONSOLAR_CONFIG", originalEnv)
	os.Setenv("FUSIONSOLAR_CONFIG", "/custom/settings.yaml")

	if got := getSettingsPath(&options{}); got != "/custom/settings.yaml" {
		t.Errorf("getSettingsPath() = %q, want %q", got, "/custom/settings.yaml")
	}
}

func TestGetSettingsPath_FlagWins(t *testing.T) {
	originalEnv := os.Getenv("FUSIONSOLAR_CONFIG")
	defer os.Setenv("FUSIONSOLAR_CONFIG", originalEnv)
	os.Setenv("FUSIONSOLAR_CONFIG", "/env/settings.yaml")

	opts := &options{settingsPath: "/flag/settings.yaml"}
	if got := getSettingsPath(opts); got != "/flag/settings.yaml" {
		t.Errorf("getSettingsPath() = %q, want %q", got, "/flag/settings.yaml")
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := &config.Config{}
	cfg.FusionSolar.DeviceFile = "devices.json"
	cfg.System.LogLevel = "info"
	cfg.Poll.Interval = 600

	applyFlagOverrides(cfg, &options{
		deviceFile: "/tmp/devices.json",
		debug:      true,
		interval:   0,
	})

	if cfg.FusionSolar.DeviceFile != "/tmp/devices.json" {
		t.Errorf("DeviceFile = %q", cfg.FusionSolar.DeviceFile)
	}
	if cfg.System.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.System.LogLevel)
	}
	if cfg.Poll.Interval != 0 {
		t.Errorf("Interval = %d, want 0 (flag set to 0 means run once)", cfg.Poll.Interval)
	}
}

func TestApplyFlagOverrides_IntervalUnset(t *testing.T) {
	cfg := &config.Config{}
	cfg.Poll.Interval = 600

	applyFlagOverrides(cfg, &options{interval: intervalUnset})

	if cfg.Poll.Interval != 600 {
		t.Errorf("Interval = %d, want 600 (unset flag keeps config value)", cfg.Poll.Interval)
	}
}

// TestRun_InvalidConfig verifies run fails with an invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := &options{settingsPath: "/nonexistent/path/settings.yaml"}
	if err := run(ctx, opts); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_MissingCredentials verifies run fails when the FusionSolar
// credentials are absent from both file and environment.
func TestRun_MissingCredentials(t *testing.T) {
	for _, key := range []string{"FUSIONSOLAR_USERNAME", "FUSIONSOLAR_PASSWORD"} {
		original := os.Getenv(key)
		os.Unsetenv(key)
		defer os.Setenv(key, original)
	}

	tmpDir := t.TempDir()
	settingsPath := filepath.Join(tmpDir, "settings.yaml")

	settings := `
fusionsolar:
  base_url: "https://eu5.fusionsolar.huawei.com"

mqtt:
  broker:
    host: "127.0.0.1"
    port: 1883
  qos: 1
  topic: "fusionsolar"
`
	if err := os.WriteFile(settingsPath, []byte(settings), 0600); err != nil {
		t.Fatalf("failed to write test settings: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := &options{settingsPath: settingsPath}
	if err := run(ctx, opts); err == nil {
		t.Fatal("run() should fail without credentials")
	}
}
