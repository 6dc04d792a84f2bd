package notify

import (
	"io"
	"log/slog"
	"testing"

	rgerrors "git.home.luguber.info/inful/readmegen/internal/errors"
)

func TestSubject(t *testing.T) {
	tests := []struct {
		prefix    string
		eventType string
		want      string
	}{
		{"", "readme.generated", "readme.generated"},
		{"ci", "readme.generated", "ci.readme.generated"},
		{"org.builds", "build.completed", "org.builds.build.completed"},
	}

	for _, tc := range tests {
		if got := Subject(tc.prefix, tc.eventType); got != tc.want {
			t.Errorf("Subject(%q, %q) = %q, want %q", tc.prefix, tc.eventType, got, tc.want)
		}
	}
}

func TestNoopNotifier(t *testing.T) {
	n := NewNoopNotifier()
	if err := n.Publish("readme.generated", []byte(`{}`)); err != nil {
		t.Errorf("noop publish returned error: %v", err)
	}
	if err := n.Close(); err != nil {
		t.Errorf("noop close returned error: %v", err)
	}
}

func TestNATSNotifierConnectFailure(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := NewNATSNotifier("nats://127.0.0.1:1", "", logger)
	if err == nil {
		t.Fatal("expected connection error")
	}
	if !rgerrors.IsCategory(err, rgerrors.CategoryNotify) {
		t.Errorf("expected notify category, got %v", err)
	}
	if !rgerrors.IsRetryable(err) {
		t.Error("expected connect failure to be retryable")
	}
}
