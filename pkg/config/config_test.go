package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

var errNoName = errors.New("name is required")

func (s *sample) Validate() error {
	if s.Name == "" {
		return errNoName
	}
	return nil
}

func TestDecode_ExpandsEnv(t *testing.T) {
	t.Setenv("FILESNAP_TEST_NAME", "from-env")
	var s sample
	if err := Decode([]byte("name: ${FILESNAP_TEST_NAME}\nport: 9\n"), &s); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if s.Name != "from-env" || s.Port != 9 {
		t.Errorf("decoded %+v", s)
	}
}

func TestDecode_RunsValidator(t *testing.T) {
	var s sample
	err := Decode([]byte("port: 1\n"), &s)
	if !errors.Is(err, errNoName) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	var s sample
	if err := Decode([]byte("name: x\nprot: 1\n"), &s); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var s sample
	err := Load(filepath.Join(t.TempDir(), "absent.yaml"), &s)
	if err == nil || !strings.Contains(err.Error(), "failed to read config file") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoad_KeepsDefaults(t *testing.T) {
	p := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(p, []byte("name: svc\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := sample{Port: 8080}
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "svc" || s.Port != 8080 {
		t.Errorf("loaded %+v", s)
	}
}
