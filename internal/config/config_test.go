package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("expected defaults (-want +got):\n%s", diff)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
backend: Firestore
firestore:
  project_id: my-project
  credentials_file: /tmp/key.json
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	want := Default()
	want.Backend = BackendFirestore
	want.Firestore.ProjectID = "my-project"
	want.Firestore.CredentialsFile = "/tmp/key.json"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadLeavesValidationToCaller(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("backend: firebase\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not validate: %v", err)
	}
	if cfg.Backend != "firebase" {
		t.Fatalf("expected raw file value, got %q", cfg.Backend)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected Validate to reject the file value")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Backend = "carrier-pigeon"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected unknown backend to be rejected")
	}

	cfg = Default()
	cfg.Backend = BackendRESTLive
	cfg.REST.URL = " "
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected missing url to be rejected")
	}
}

func TestRESTTimeout(t *testing.T) {
	cfg := Default()
	d, err := cfg.RESTTimeout()
	if err != nil || d != 15*time.Second {
		t.Fatalf("expected default 15s, got %v (%v)", d, err)
	}
	cfg.REST.Timeout = ""
	if d, _ := cfg.RESTTimeout(); d != 15*time.Second {
		t.Fatalf("expected empty timeout to fall back to 15s, got %v", d)
	}
	cfg.REST.Timeout = "2s"
	if d, _ := cfg.RESTTimeout(); d != 2*time.Second {
		t.Fatalf("expected 2s, got %v", d)
	}
	for _, bad := range []string{"soon", "-1s"} {
		cfg.REST.Timeout = bad
		if _, err := cfg.RESTTimeout(); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestPathHonoursXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	p, err := Path()
	if err != nil {
		t.Fatalf("Path failed: %v", err)
	}
	if want := filepath.Join(dir, "todo", "config.yaml"); p != want {
		t.Fatalf("expected %s, got %s", want, p)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("backend: [oops"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected a parse error")
	}
}
