package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points Load at a missing env file so a developer's .env cannot leak in.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("BAGBUILDER_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg := Load()

	if cfg.ListenPort != ":8080" {
		t.Errorf("ListenPort = %q, want :8080", cfg.ListenPort)
	}
	if cfg.CatalogURL != "https://discit-api.fly.dev/disc" {
		t.Errorf("CatalogURL = %q", cfg.CatalogURL)
	}
	if cfg.ReloadInterval != 6*time.Hour {
		t.Errorf("ReloadInterval = %v, want 6h", cfg.ReloadInterval)
	}
	if cfg.Engine != "genai" || cfg.EngineAPIKey != "" {
		t.Errorf("Engine = %q key = %q, want genai with no key", cfg.Engine, cfg.EngineAPIKey)
	}
	if cfg.SearchDebounce != 300*time.Millisecond {
		t.Errorf("SearchDebounce = %v, want 300ms", cfg.SearchDebounce)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("RedisAddr = %q, want disabled by default", cfg.RedisAddr)
	}
	if cfg.RecommendBurst != 3 || cfg.RecommendPerMin != 6 {
		t.Errorf("recommend limit = %d/%d, want 3/6", cfg.RecommendBurst, cfg.RecommendPerMin)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("BAGBUILDER_ENGINE", "OpenAI")
	t.Setenv("BAGBUILDER_ENGINE_API_KEY", "sk-test")
	t.Setenv("BAGBUILDER_ALLOWED_CIDRS", "10.0.0.0/8, 192.168.1.4")
	t.Setenv("BAGBUILDER_SESSION_IDLE_TTL", "45m")

	cfg := Load()

	if cfg.Engine != "openai" {
		t.Errorf("Engine = %q, want openai", cfg.Engine)
	}
	if cfg.EngineAPIKey != "sk-test" {
		t.Errorf("EngineAPIKey = %q", cfg.EngineAPIKey)
	}
	if len(cfg.AllowedCIDRS) != 2 || cfg.AllowedCIDRS[1] != "192.168.1.4" {
		t.Errorf("AllowedCIDRS = %v", cfg.AllowedCIDRS)
	}
	if cfg.SessionIdleTTL != 45*time.Minute {
		t.Errorf("SessionIdleTTL = %v, want 45m", cfg.SessionIdleTTL)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	content := "BAGBUILDER_CATALOG_URL=file:///srv/discs.yaml\nBAGBUILDER_DB_PATH=/var/lib/bag.db\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("BAGBUILDER_ENV_FILE", path)
	// Variables already in the environment win over the file.
	t.Setenv("BAGBUILDER_DB_PATH", "/override.db")
	t.Cleanup(func() { _ = os.Unsetenv("BAGBUILDER_CATALOG_URL") })

	cfg := Load()

	if cfg.CatalogURL != "file:///srv/discs.yaml" {
		t.Errorf("CatalogURL = %q, want value from env file", cfg.CatalogURL)
	}
	if cfg.DBPath != "/override.db" {
		t.Errorf("DBPath = %q, want environment to win", cfg.DBPath)
	}
}

func TestLoadPanics(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "redis enabled without password",
			env:  map[string]string{"BAGBUILDER_REDIS_ADDR": "localhost:6379"},
		},
		{
			name: "unknown engine",
			env:  map[string]string{"BAGBUILDER_ENGINE": "llama"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			defer func() {
				if r := recover(); r == nil {
					t.Errorf("Load() should have panicked")
				}
			}()
			Load()
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := Config{RedisUser: "default", RedisPassword: "hunter2", EngineAPIKey: "sk-secret", DBPath: "bag.db"}

	out := cfg.Redacted()
	printed := strings.Join([]string{out.RedisUser, out.RedisPassword, out.EngineAPIKey}, " ")
	for _, secret := range []string{"hunter2", "sk-secret", "default"} {
		if strings.Contains(printed, secret) {
			t.Errorf("Redacted() leaked %q", secret)
		}
	}
	if out.DBPath != "bag.db" {
		t.Errorf("Redacted() changed a non-secret field: %q", out.DBPath)
	}
	if cfg.EngineAPIKey != "sk-secret" {
		t.Error("Redacted() modified the receiver")
	}
}

func TestRequireEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "test_value")
	if got := requireEnv("TEST_VAR"); got != "test_value" {
		t.Errorf("requireEnv() = %v, want test_value", got)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("requireEnv() should have panicked")
		}
	}()
	requireEnv("TEST_VAR_MISSING")
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{"valid duration", "TEST_DURATION", "5s", time.Second, 5 * time.Second},
		{"invalid duration uses default", "TEST_DURATION_INVALID", "invalid", 10 * time.Second, 10 * time.Second},
		{"missing variable uses default", "TEST_DURATION_MISSING", "", 15 * time.Second, 15 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}
			if got := mustDuration(tt.key, tt.def); got != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMustBoolAndInt(t *testing.T) {
	t.Setenv("TEST_BOOL", "false")
	t.Setenv("TEST_BOOL_BAD", "maybe")
	t.Setenv("TEST_INT", "12")
	t.Setenv("TEST_INT_BAD", "twelve")

	if mustBool("TEST_BOOL", true) {
		t.Error("mustBool() ignored a valid value")
	}
	if !mustBool("TEST_BOOL_BAD", true) {
		t.Error("mustBool() should fall back to default on invalid input")
	}
	if got := getenvInt("TEST_INT", 1); got != 12 {
		t.Errorf("getenvInt() = %d, want 12", got)
	}
	if got := getenvInt("TEST_INT_BAD", 7); got != 7 {
		t.Errorf("getenvInt() = %d, want default 7", got)
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(` a.example.com , "b.example.com",, 'c' `)
	want := []string{"a.example.com", "b.example.com", "c"}
	if len(got) != len(want) {
		t.Fatalf("splitAndTrim() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitAndTrim()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if splitAndTrim("") != nil {
		t.Error("splitAndTrim(\"\") should be nil")
	}
}
