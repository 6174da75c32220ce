package notify

import (
	"log"
	"strings"
	"testing"
)

func TestLogNotifier(t *testing.T) {
	var buf strings.Builder
	n := NewLogNotifier(log.New(&buf, "", 0))

	n.Info("synced %d tasks", 3)
	n.Error("project %s failed", "Work")

	out := buf.String()
	if !strings.Contains(out, "synced 3 tasks") {
		t.Errorf("Expected info line, got %q", out)
	}
	if !strings.Contains(out, "ERROR: project Work failed") {
		t.Errorf("Expected prefixed error line, got %q", out)
	}
}

func TestNewLogNotifierNilLogger(t *testing.T) {
	if n := NewLogNotifier(nil); n.Logger == nil {
		t.Error("Expected fallback logger")
	}
}
