package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		APIBaseURL:     "https://api.planejai.example",
		APIPrefix:      "/planejai",
		RequestTimeout: 30 * time.Second,
		FetchTimeout:   45 * time.Second,
		SessionDBPath:  "./session.db",
		PageSize:       20,
		LogLevel:       "info",
		LogFormat:      "text",
		ExportBackend:  "memory",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "empty base url is valid",
			mutate:  func(c *Config) { c.APIBaseURL = "" },
			wantErr: false,
		},
		{
			name:        "invalid base url scheme",
			mutate:      func(c *Config) { c.APIBaseURL = "ftp://example.com" },
			wantErr:     true,
			errorString: "invalid API URL scheme 'ftp': must be 'http' or 'https'",
		},
		{
			name:        "prefix without leading slash",
			mutate:      func(c *Config) { c.APIPrefix = "planejai" },
			wantErr:     true,
			errorString: "invalid API prefix 'planejai': must start with '/'",
		},
		{
			name:        "request timeout too short",
			mutate:      func(c *Config) { c.RequestTimeout = time.Millisecond },
			wantErr:     true,
			errorString: "invalid request timeout 1ms: must be at least 100ms",
		},
		{
			name:        "fetch timeout shorter than request timeout",
			mutate:      func(c *Config) { c.FetchTimeout = 10 * time.Second },
			wantErr:     true,
			errorString: "invalid fetch timeout 10s: must be at least the request timeout (30s)",
		},
		{
			name:        "empty session db",
			mutate:      func(c *Config) { c.SessionDBPath = "" },
			wantErr:     true,
			errorString: "session database path cannot be empty",
		},
		{
			name:        "page size too large",
			mutate:      func(c *Config) { c.PageSize = 1000 },
			wantErr:     true,
			errorString: "invalid page size 1000: must be at most 500",
		},
		{
			name:        "negative request rate",
			mutate:      func(c *Config) { c.RequestsPerMinute = -1 },
			wantErr:     true,
			errorString: "invalid requests per minute -1: must not be negative",
		},
		{
			name:        "invalid log level",
			mutate:      func(c *Config) { c.LogLevel = "verbose" },
			wantErr:     true,
			errorString: "invalid log level 'verbose'",
		},
		{
			name:        "invalid export backend",
			mutate:      func(c *Config) { c.ExportBackend = "csv" },
			wantErr:     true,
			errorString: "invalid export backend 'csv': must be one of [memory sheets]",
		},
		{
			name: "sheets backend missing everything",
			mutate: func(c *Config) {
				c.ExportBackend = "sheets"
				c.GoogleSheetName = ""
			},
			wantErr:     true,
			errorString: "Google Spreadsheet ID is required when using sheets export backend",
		},
		{
			name: "sheets backend with inline credentials",
			mutate: func(c *Config) {
				c.ExportBackend = "sheets"
				c.GoogleSpreadsheetID = "sheet-id"
				c.GoogleSheetName = "Lancamentos"
				c.GoogleServiceAccountJSON = `{"type":"service_account"}`
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && tt.errorString != "" && !strings.Contains(err.Error(), tt.errorString) {
				t.Errorf("Config.Validate() error = %v, want error containing %v", err, tt.errorString)
			}
		})
	}
}

func TestConfig_ValidateWithFiles(t *testing.T) {
	tempDir := t.TempDir()
	credFile := filepath.Join(tempDir, "sa.json")
	if err := os.WriteFile(credFile, []byte(`{}`), 0o600); err != nil {
		t.Fatalf("write credentials: %v", err)
	}

	cfg := validConfig()
	cfg.ExportBackend = "sheets"
	cfg.GoogleSpreadsheetID = "sheet-id"
	cfg.GoogleSheetName = "Lancamentos"
	cfg.GoogleServiceAccountFile = credFile
	if err := cfg.Validate(); err != nil {
		t.Fatalf("existing credentials file should validate: %v", err)
	}

	cfg.GoogleServiceAccountFile = filepath.Join(tempDir, "missing.json")
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "Google service account file does not exist") {
		t.Fatalf("expected missing file error, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		for _, key := range []string{"PLANEJAI_API_URL", "PLANEJAI_API_PREFIX", "PLANEJAI_REQUEST_TIMEOUT", "PLANEJAI_PAGE_SIZE", "EXPORT_BACKEND"} {
			t.Setenv(key, "")
		}
		cfg := Load()

		if cfg.APIBaseURL != "" {
			t.Errorf("Load() APIBaseURL = %v, want empty", cfg.APIBaseURL)
		}
		if cfg.APIPrefix != "/planejai" {
			t.Errorf("Load() APIPrefix = %v, want /planejai", cfg.APIPrefix)
		}
		if cfg.RequestTimeout != 30*time.Second {
			t.Errorf("Load() RequestTimeout = %v, want 30s", cfg.RequestTimeout)
		}
		if cfg.PageSize != 20 {
			t.Errorf("Load() PageSize = %v, want 20", cfg.PageSize)
		}
		if cfg.ExportBackend != "memory" {
			t.Errorf("Load() ExportBackend = %v, want memory", cfg.ExportBackend)
		}
		if cfg.SessionDBPath == "" {
			t.Errorf("Load() SessionDBPath should have a default")
		}
	})

	t.Run("environment variables", func(t *testing.T) {
		t.Setenv("PLANEJAI_API_URL", "http://localhost:8080")
		t.Setenv("PLANEJAI_REQUEST_TIMEOUT", "5s")
		t.Setenv("PLANEJAI_SESSION_DB", "/tmp/planejai.db")
		t.Setenv("PLANEJAI_PAGE_SIZE", "50")

		cfg := Load()

		if cfg.APIBaseURL != "http://localhost:8080" {
			t.Errorf("Load() APIBaseURL = %v, want http://localhost:8080", cfg.APIBaseURL)
		}
		if cfg.RequestTimeout != 5*time.Second {
			t.Errorf("Load() RequestTimeout = %v, want 5s", cfg.RequestTimeout)
		}
		if cfg.SessionDBPath != "/tmp/planejai.db" {
			t.Errorf("Load() SessionDBPath = %v, want /tmp/planejai.db", cfg.SessionDBPath)
		}
		if cfg.PageSize != 50 {
			t.Errorf("Load() PageSize = %v, want 50", cfg.PageSize)
		}
	})

	t.Run("invalid environment variables use defaults", func(t *testing.T) {
		t.Setenv("PLANEJAI_REQUEST_TIMEOUT", "invalid")
		t.Setenv("PLANEJAI_PAGE_SIZE", "invalid")

		cfg := Load()

		if cfg.RequestTimeout != 30*time.Second {
			t.Errorf("Load() RequestTimeout = %v, want 30s (default for invalid input)", cfg.RequestTimeout)
		}
		if cfg.PageSize != 20 {
			t.Errorf("Load() PageSize = %v, want 20 (default for invalid input)", cfg.PageSize)
		}
	})
}

func TestRequireAPI(t *testing.T) {
	cfg := validConfig()
	if err := cfg.RequireAPI(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.APIBaseURL = " "
	if err := cfg.RequireAPI(); err == nil {
		t.Fatalf("expected error for empty base url")
	}
}
