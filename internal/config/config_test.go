package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFindEnvLocal_InCurrentDir(t *testing.T) {
	tmpDir := t.TempDir()
	envPath := filepath.Join(tmpDir, ".env.local")
	if err := os.WriteFile(envPath, []byte("TEST=value"), 0644); err != nil {
		t.Fatal(err)
	}

	oldCwd, _ := os.Getwd()
	defer os.Chdir(oldCwd)
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatal(err)
	}

	result := findEnvLocal()
	if result == "" {
		t.Error("expected to find .env.local in current directory")
	}
}

func TestFindEnvLocal_InParentDir(t *testing.T) {
	tmpDir := t.TempDir()
	childDir := filepath.Join(tmpDir, "child")
	if err := os.Mkdir(childDir, 0755); err != nil {
		t.Fatal(err)
	}
	envPath := filepath.Join(tmpDir, ".env.local")
	if err := os.WriteFile(envPath, []byte("TEST=parent"), 0644); err != nil {
		t.Fatal(err)
	}

	oldCwd, _ := os.Getwd()
	defer os.Chdir(oldCwd)
	if err := os.Chdir(childDir); err != nil {
		t.Fatal(err)
	}

	result := findEnvLocal()
	if result == "" {
		t.Error("expected to find .env.local in parent directory")
	}
	// Resolve symlinks for comparison (macOS /var -> /private/var)
	expectedResolved, _ := filepath.EvalSymlinks(envPath)
	resultResolved, _ := filepath.EvalSymlinks(result)
	if resultResolved != expectedResolved {
		t.Errorf("expected %s, got %s", expectedResolved, resultResolved)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TRACK_SERVER", "https://primary.example.com")
	t.Setenv("TRACK_API_USER", "sync-bot")
	t.Setenv("TRACK_API_KEY", "secret")
	t.Setenv("PARTNER_TRACK_SERVER", "https://partner.example.com")
	t.Setenv("SHOWSYNC_LEDGER_PATH", filepath.Join(t.TempDir(), "ledger.db"))
	t.Setenv("SHOWSYNC_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Primary.URL != "https://primary.example.com" {
		t.Errorf("expected primary URL from env, got %q", cfg.Primary.URL)
	}
	if cfg.Primary.APIUser != "sync-bot" {
		t.Errorf("expected primary api user from env, got %q", cfg.Primary.APIUser)
	}
	if !cfg.Primary.Configured() {
		t.Error("expected primary server to be configured")
	}
	if cfg.Partner.Configured() {
		t.Error("expected partner server to be incomplete without user/key")
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.SlogLevel())
	}
}

func TestLoad_APIKeyFromFile(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(keyPath, []byte("file-secret\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TRACK_API_KEY", "")
	t.Setenv("TRACK_API_KEY_FILE", keyPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Primary.APIKey != "file-secret" {
		t.Errorf("expected api key from file, got %q", cfg.Primary.APIKey)
	}
}

func TestValidate_MissingPrimary(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for empty primary server")
	}
	for _, want := range []string{"TRACK_SERVER", "TRACK_API_USER", "TRACK_API_KEY"} {
		if !contains(err.Error(), want) {
			t.Errorf("expected error to mention %s, got %q", want, err.Error())
		}
	}

	cfg.Primary = Server{URL: "https://x", APIUser: "u", APIKey: "k"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error with full primary: %v", err)
	}
}

func TestWebhooks(t *testing.T) {
	cfg := &Config{WebhookURLs: "https://a.example.com/hook, https://b.example.com/hook ,"}
	got := cfg.Webhooks()
	want := []string{"https://a.example.com/hook", "https://b.example.com/hook"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Webhooks() = %v, want %v", got, want)
	}

	empty := &Config{}
	if empty.Webhooks() != nil {
		t.Error("expected nil webhooks for empty config")
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
