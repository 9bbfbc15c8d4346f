package config

import (
	"os"
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected read timeout 10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Storage.KeyPrefix != "bucketdb:" {
		t.Errorf("expected key prefix bucketdb:, got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Storage.BucketMaxRecords != 1000 {
		t.Errorf("expected bucket max records 1000, got %d", cfg.Storage.BucketMaxRecords)
	}
	if cfg.Delete.YieldEvery != 64 {
		t.Errorf("expected yield every 64, got %d", cfg.Delete.YieldEvery)
	}
	if !cfg.Delete.TimeseriesDeletesEnabled() {
		t.Error("expected time-series deletes enabled by default")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.HTTP.Port = 0 }, true},
		{"port too high", func(c *Config) { c.HTTP.Port = 70000 }, true},
		{"no addrs", func(c *Config) { c.Database.Addrs = nil }, true},
		{"prefix without colon", func(c *Config) { c.Storage.KeyPrefix = "bucketdb" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				HTTP:     HTTPConfig{Port: 8080},
				Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
			}
			cfg.ApplyDefaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestTimeseriesDeletesGate(t *testing.T) {
	off := false
	cfg := Config{Delete: DeleteConfig{TimeseriesDeletes: &off}}
	if cfg.Delete.TimeseriesDeletesEnabled() {
		t.Error("expected gate off")
	}
	on := true
	cfg.Delete.TimeseriesDeletes = &on
	if !cfg.Delete.TimeseriesDeletesEnabled() {
		t.Error("expected gate on")
	}
}

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("BUCKETDB_TEST_PASSWORD", "s3cret")
	defer os.Unsetenv("BUCKETDB_TEST_PASSWORD")

	in := []byte("password: ${BUCKETDB_TEST_PASSWORD}\nprefix: ${BUCKETDB_TEST_MISSING:-bucketdb:}")
	out := string(expandEnvVars(in))

	if out != "password: s3cret\nprefix: bucketdb:" {
		t.Errorf("unexpected expansion: %q", out)
	}
}
