package config

import "testing"

func TestGetTablePrefix(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		override string
		want     string
	}{
		{name: "prod", env: "prod", want: "prod_"},
		{name: "test", env: "test", want: "test_"},
		{name: "dev", env: "dev", want: "dev_"},
		{name: "unknown falls back to dev", env: "staging", want: "dev_"},
		{name: "explicit override wins", env: "prod", override: "custom_", want: "custom_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TABLE_PREFIX", tt.override)
			if got := getTablePrefix(tt.env); got != tt.want {
				t.Errorf("getTablePrefix(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"ENVIRONMENT", "ROOT_LABEL", "BLOB_BACKEND", "LOG_MAX_FILES", "DEBUG", "TABLE_PREFIX"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.RootLabel != "Home" {
		t.Errorf("RootLabel = %q, want Home", cfg.RootLabel)
	}
	if cfg.BlobBackend != "memory" {
		t.Errorf("BlobBackend = %q, want memory", cfg.BlobBackend)
	}
	if cfg.LogMaxFiles != 10 {
		t.Errorf("LogMaxFiles = %d, want 10", cfg.LogMaxFiles)
	}
	if !cfg.Debug {
		t.Error("Debug should default to true outside prod")
	}
}

func TestLoad_ProdDisablesDebug(t *testing.T) {
	t.Setenv("ENVIRONMENT", "prod")
	t.Setenv("DEBUG", "")
	t.Setenv("LOG_MAX_FILES", "not-a-number")

	cfg := Load()
	if cfg.Debug {
		t.Error("Debug should default to false in prod")
	}
	if cfg.LogMaxFiles != 10 {
		t.Errorf("invalid LOG_MAX_FILES should fall back to 10, got %d", cfg.LogMaxFiles)
	}
}
