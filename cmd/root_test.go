package cmd

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(VersionInfo{Version: "1.2.3", Commit: "abc"})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "reportes 1.2.3 (abc)") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestHashTokenCommand(t *testing.T) {
	out, err := execute(t, "hash-token", "un-secreto-largo")
	if err != nil {
		t.Fatal(err)
	}
	hash := strings.TrimSpace(out)
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("un-secreto-largo")); err != nil {
		t.Errorf("output is not a matching bcrypt hash: %q", hash)
	}

	if _, err := execute(t, "hash-token", "corto"); err == nil {
		t.Error("weak token should be rejected")
	}
}
