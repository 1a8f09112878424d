package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func lastLine(buf *bytes.Buffer) map[string]interface{} {
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]interface{}
	json.Unmarshal([]byte(lines[len(lines)-1]), &entry)
	return entry
}

func TestWritesJSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "apiclient", "info")

	log.Info("backend reachable")
	entry := lastLine(&buf)
	if entry["component"] != "apiclient" {
		t.Errorf("component = %v", entry["component"])
	}
	if entry["message"] != "backend reachable" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v", entry["level"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "x", "warn")

	log.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info leaked through warn level: %s", buf.String())
	}
	log.Warn("kept")
	if buf.Len() == 0 {
		t.Error("warn dropped")
	}
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "x", "shouting")

	log.Debug("dropped")
	if buf.Len() != 0 {
		t.Error("debug leaked through info fallback")
	}
	log.Info("kept")
	if buf.Len() == 0 {
		t.Error("info dropped under fallback level")
	}
}

func TestWithFieldAndError(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "store", "info")

	log.WithField("store", "savings").WithError(errors.New("disk full")).Error("persist failed")
	entry := lastLine(&buf)
	if entry["store"] != "savings" {
		t.Errorf("store = %v", entry["store"])
	}
	if entry["error"] != "disk full" {
		t.Errorf("error = %v", entry["error"])
	}
}

func TestChainingDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := New(&buf, "x", "info")
	_ = parent.WithField("child", true)

	parent.Info("plain")
	entry := lastLine(&buf)
	if _, ok := entry["child"]; ok {
		t.Error("child field leaked into parent logger")
	}
}

func TestNopDiscards(t *testing.T) {
	// Must not panic and must not write anywhere.
	Nop().WithField("k", "v").WithError(errors.New("x")).Error("ignored")
}
