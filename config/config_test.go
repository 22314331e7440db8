package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "reportes.db")
	t.Setenv("ADMIN_TOKEN", "a-long-enough-secret")

	c, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Port != 8080 || c.StorageDriver != StorageLocal || c.RateLimitBackend != BackendMemory {
		t.Errorf("unexpected defaults %+v", c)
	}
	if c.CreateLimit != 1 || c.CreateWindow != 20*time.Minute || c.RateLimitDaily != 2000 || c.RateLimitHourly != 500 {
		t.Errorf("unexpected limits %+v", c)
	}
	if c.DBConnMaxLifetime != 280*time.Second {
		t.Errorf("pool recycle = %v", c.DBConnMaxLifetime)
	}
	if len(c.AllowedExtensions) != 5 || c.AdminHeader != "x-admin-token" {
		t.Errorf("unexpected upload/admin defaults %+v", c)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := writeEnv(t, "REPORTES_DB_DRIVER=sqlite\nREPORTES_DATABASE_URL=file.db\nADMIN_TOKEN=from-dot-env-file\nPUBLIC_BASE_URL=https://api.example.com/static/uploads/\n")
	for _, k := range []string{"REPORTES_DB_DRIVER", "REPORTES_DATABASE_URL", "ADMIN_TOKEN", "PUBLIC_BASE_URL"} {
		k := k
		t.Cleanup(func() { os.Unsetenv(k) })
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DBDriver != DriverSQLite || c.AdminToken != "from-dot-env-file" {
		t.Errorf("env file not applied: %+v", c)
	}
	if c.PublicBaseURL != "https://api.example.com/static/uploads" {
		t.Errorf("trailing slash not trimmed: %q", c.PublicBaseURL)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DBDriver:          DriverSQLite,
			DatabaseURL:       "x.db",
			StorageDriver:     StorageLocal,
			UploadDir:         "./uploads",
			RateLimitBackend:  BackendMemory,
			AdminToken:        "long-enough-token",
			AllowedExtensions: []string{"png"},
			CreateLimit:       1,
			CreateWindow:      time.Minute,
		}
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := map[string]func(*Config){
		"unknown driver":   func(c *Config) { c.DBDriver = "mysql" },
		"postgres no host": func(c *Config) { c.DBDriver = DriverPostgres; c.DatabaseURL = "" },
		"s3 no bucket":     func(c *Config) { c.StorageDriver = StorageS3 },
		"redis no url":     func(c *Config) { c.RateLimitBackend = BackendRedis },
		"weak token":       func(c *Config) { c.AdminToken = "short" },
		"no extensions":    func(c *Config) { c.AllowedExtensions = nil },
		"zero window":      func(c *Config) { c.CreateWindow = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected an error")
			}
		})
	}

	c := valid()
	c.AdminToken = ""
	c.AdminTokenHash = "$2a$10$abcdefghijklmnopqrstuv"
	if err := c.Validate(); err != nil {
		t.Errorf("a hash should replace the plain token: %v", err)
	}
}

func TestPostgresDSN(t *testing.T) {
	c := &Config{PostgresHost: "db", PostgresUser: "u", PostgresPassword: "p", PostgresDB: "reportes", PostgresPort: 5432, PostgresSSLMode: "disable"}
	want := "host=db user=u password=p dbname=reportes port=5432 sslmode=disable TimeZone=UTC"
	if got := c.PostgresDSN(); got != want {
		t.Errorf("PostgresDSN() = %q", got)
	}
	c.DatabaseURL = "postgres://u:p@db/reportes"
	if got := c.PostgresDSN(); got != c.DatabaseURL {
		t.Errorf("DATABASE_URL should win, got %q", got)
	}
}
