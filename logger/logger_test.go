package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("api", "warn", &buf)

	log.Info("hidden %d", 1)
	log.Warn("shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "WARN  [api] shown 2") {
		t.Errorf("missing warn line: %q", out)
	}
}

func TestNamedSharesWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("api", "debug", &buf).Named("storage")
	log.Debug("removed %s", "a.png")

	if !strings.Contains(buf.String(), "[api/storage] removed a.png") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := &loggerService{opts: Options{JSON: true}, name: "db", level: Info, writer: &buf}
	log.Error("query failed: %s", "timeout")

	var entry logEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not json: %v", err)
	}
	if entry.Level != "ERROR" || entry.Service != "db" || entry.Message != "query failed: timeout" {
		t.Errorf("unexpected entry %+v", entry)
	}
}

func TestParse(t *testing.T) {
	cases := map[string]LogLevel{"debug": Debug, "INFO": Info, "warning": Warn, "Error": Error, "": Info, "nope": Info}
	for in, want := range cases {
		if got := Parse(in); got != want {
			t.Errorf("Parse(%q) = %v, want %v", in, got, want)
		}
	}
}
