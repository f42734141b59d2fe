package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestNewDefaults(t *testing.T) {
	c := New()
	if c.Addr != ":3000" {
		t.Errorf("Addr = %q, want :3000", c.Addr)
	}
	if c.ResumeWindow() != 5*time.Minute {
		t.Errorf("ResumeWindow() = %v, want 5m", c.ResumeWindow())
	}
	if c.Slice() != 16*time.Millisecond {
		t.Errorf("Slice() = %v, want 16ms", c.Slice())
	}
	if c.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", c.Log.Level)
	}
}

func TestLoad(t *testing.T) {
	dir := writeConfig(t, `{
  "name": "demo",
  "addr": ":8080",
  "server": {"maxSessions": 50, "resumeWindow": "1m", "slice": "8ms"},
  "log": {"level": "debug"}
}`)

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Name != "demo" {
		t.Errorf("Name = %q, want demo", c.Name)
	}
	if c.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", c.Addr)
	}
	if c.Server.MaxSessions != 50 {
		t.Errorf("MaxSessions = %d, want 50", c.Server.MaxSessions)
	}
	if c.ResumeWindow() != time.Minute {
		t.Errorf("ResumeWindow() = %v, want 1m", c.ResumeWindow())
	}
	if c.Slice() != 8*time.Millisecond {
		t.Errorf("Slice() = %v, want 8ms", c.Slice())
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("Load of empty dir succeeded, want error")
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad json", `{`, "parse"},
		{"bad duration", `{"server": {"resumeWindow": "soon"}}`, "resumeWindow"},
		{"bad level", `{"log": {"level": "loud"}}`, "log level"},
		{"negative cap", `{"server": {"maxSessions": -2}}`, "maxSessions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeConfig(t, tt.content)
			_, err := Load(dir)
			if err == nil {
				t.Fatal("Load succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := writeConfig(t, `{"name": "demo"}`)
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	c.Addr = ":9999"
	if err := c.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	again, err := Load(dir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Addr != ":9999" {
		t.Errorf("Addr after round trip = %q, want :9999", again.Addr)
	}
}

func TestExists(t *testing.T) {
	dir := writeConfig(t, `{}`)
	if !Exists(dir) {
		t.Error("Exists = false for dir with weft.json")
	}
	if Exists(t.TempDir()) {
		t.Error("Exists = true for empty dir")
	}
}
