package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// setupTestHome points HOME at a temporary directory for the test and
// returns the snakebot config directory inside it.
func setupTestHome(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)

	configDir := filepath.Join(home, ".config", "snakebot")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	return configDir
}

// TestLoadWithFile_ValidYAML tests loading configuration from a valid YAML file.
func TestLoadWithFile_ValidYAML(t *testing.T) {
	configDir := setupTestHome(t)
	configPath := filepath.Join(configDir, "config.yaml")

	yamlContent := `board:
  length: 10
  warps:
    - {from: 2, to: 8}
    - {from: 9, to: 3}
server:
  port: 8081
  shutdown_timeout: 3s
robot:
  driver: simulator
dice:
  source: fixed
  fixed_value: 4
  fallback: skip
collision:
  post_warp: confirm
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadWithFile(configPath)
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v, want nil", err)
	}

	if cfg.Board.Length != 10 {
		t.Errorf("Board.Length = %d, want 10", cfg.Board.Length)
	}
	if len(cfg.Board.Warps) != 2 {
		t.Fatalf("len(Board.Warps) = %d, want 2", len(cfg.Board.Warps))
	}
	if got := cfg.Board.WarpMap()[9]; got != 3 {
		t.Errorf("warp 9 = %d, want 3", got)
	}
	if cfg.Server.Port != 8081 {
		t.Errorf("Server.Port = %d, want 8081", cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeout.Duration() != 3*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 3s", cfg.Server.ShutdownTimeout.Duration())
	}
	if cfg.Robot.Driver != DriverSimulator {
		t.Errorf("Robot.Driver = %q, want %q", cfg.Robot.Driver, DriverSimulator)
	}
	if cfg.Dice.FixedValue != 4 || cfg.Dice.Fallback != FallbackSkip {
		t.Errorf("Dice = %+v, want fixed 4 with skip fallback", cfg.Dice)
	}
	if cfg.Collision.PostWarp != PostWarpConfirm {
		t.Errorf("Collision.PostWarp = %q, want %q", cfg.Collision.PostWarp, PostWarpConfirm)
	}

	// Keys absent from the file keep their defaults
	if cfg.Gripper.Open != 800 {
		t.Errorf("Gripper.Open = %d, want default 800", cfg.Gripper.Open)
	}
	if cfg.Robot.OperatorName != "snake.exe" {
		t.Errorf("Robot.OperatorName = %q, want default snake.exe", cfg.Robot.OperatorName)
	}
}

// TestLoadWithFile_EnvironmentOverride tests that environment variables override YAML.
func TestLoadWithFile_EnvironmentOverride(t *testing.T) {
	configDir := setupTestHome(t)
	configPath := filepath.Join(configDir, "config.yaml")

	yamlContent := `server:
  port: 9090
dice:
  fallback: abort
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	t.Setenv("SNAKEBOT_SERVER_PORT", "7777")
	t.Setenv("SNAKEBOT_DICE_FALLBACK", "default")
	t.Setenv("SNAKEBOT_DICE_FALLBACK_VALUE", "5")
	t.Setenv("SNAKEBOT_COLLISION_POST_WARP", "confirm")

	cfg, err := LoadWithFile(configPath)
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v, want nil", err)
	}

	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %d, want 7777 (from env override)", cfg.Server.Port)
	}
	if cfg.Dice.Fallback != FallbackDefault {
		t.Errorf("Dice.Fallback = %q, want %q (from env override)", cfg.Dice.Fallback, FallbackDefault)
	}
	if cfg.Dice.FallbackValue != 5 {
		t.Errorf("Dice.FallbackValue = %d, want 5", cfg.Dice.FallbackValue)
	}
	if cfg.Collision.PostWarp != PostWarpConfirm {
		t.Errorf("Collision.PostWarp = %q, want %q", cfg.Collision.PostWarp, PostWarpConfirm)
	}
}

// TestLoadWithFile_MissingFile tests that a missing file yields the defaults.
func TestLoadWithFile_MissingFile(t *testing.T) {
	configDir := setupTestHome(t)

	cfg, err := LoadWithFile(filepath.Join(configDir, "config.yaml"))
	if err != nil {
		t.Fatalf("LoadWithFile() should not error on missing file, got: %v", err)
	}
	if cfg.Board.Length != 30 {
		t.Errorf("Board.Length = %d, want default 30", cfg.Board.Length)
	}
	if !strings.HasSuffix(cfg.History.Path, filepath.Join(".local", "share", "snakebot", "history.db")) {
		t.Errorf("History.Path = %q, want expanded default", cfg.History.Path)
	}
	if strings.HasPrefix(cfg.History.Path, "~") {
		t.Errorf("History.Path = %q, want ~ expanded", cfg.History.Path)
	}
}

// TestLoadWithFile_InvalidYAML tests handling of malformed YAML.
func TestLoadWithFile_InvalidYAML(t *testing.T) {
	configDir := setupTestHome(t)
	configPath := filepath.Join(configDir, "config.yaml")

	invalidYAML := `server:
  port: [unterminated
  invalid syntax here
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	if _, err := LoadWithFile(configPath); err == nil {
		t.Error("LoadWithFile() should error on invalid YAML, got nil")
	}
}

// TestLoadWithFile_ChainedWarpRejected tests that board invariants are enforced at load time.
func TestLoadWithFile_ChainedWarpRejected(t *testing.T) {
	configDir := setupTestHome(t)
	configPath := filepath.Join(configDir, "config.yaml")

	yamlContent := `board:
  length: 30
  warps:
    - {from: 3, to: 7}
    - {from: 7, to: 12}
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadWithFile(configPath)
	if err == nil {
		t.Fatal("LoadWithFile() should reject chained warps, got nil")
	}
	if !strings.Contains(err.Error(), "lands on another warp source") {
		t.Errorf("error = %v, want chained warp error", err)
	}
}

// TestLoadWithFile_InsecurePermissions tests that world-readable files are rejected.
func TestLoadWithFile_InsecurePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission model differs on windows")
	}

	configDir := setupTestHome(t)
	configPath := filepath.Join(configDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("server:\n  port: 9000\n"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadWithFile(configPath)
	if err == nil {
		t.Fatal("LoadWithFile() should reject 0644 config file, got nil")
	}
	if !strings.Contains(err.Error(), "insecure config file permissions") {
		t.Errorf("error = %v, want permissions error", err)
	}
}

// TestLoadWithFile_PathOutsideAllowedDirs tests path validation.
func TestLoadWithFile_PathOutsideAllowedDirs(t *testing.T) {
	setupTestHome(t)

	_, err := LoadWithFile("/tmp/snakebot-elsewhere/config.yaml")
	if err == nil {
		t.Fatal("LoadWithFile() should reject paths outside allowed directories")
	}
}

// TestLoadWithFile_OversizedFile tests the 1MB limit.
func TestLoadWithFile_OversizedFile(t *testing.T) {
	configDir := setupTestHome(t)
	configPath := filepath.Join(configDir, "config.yaml")

	big := "# " + strings.Repeat("x", maxConfigFileSize) + "\n"
	if err := os.WriteFile(configPath, []byte(big), 0600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadWithFile(configPath)
	if err == nil {
		t.Fatal("LoadWithFile() should reject files over 1MB")
	}
	if !strings.Contains(err.Error(), "too large") {
		t.Errorf("error = %v, want size error", err)
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"SNAKEBOT_SERVER_PORT":         "server.port",
		"SNAKEBOT_DICE_FALLBACK_VALUE": "dice.fallback_value",
		"SNAKEBOT_NATS_SUBJECT_PREFIX": "nats.subject_prefix",
		"SNAKEBOT_DEBUG":               "debug",
	}
	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}
