package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf)

	log.Info().Str("component", "test").Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"message":"hello"`) {
		t.Errorf("expected message field in output, got %q", out)
	}
	if !strings.Contains(out, `"component":"test"`) {
		t.Errorf("expected component field in output, got %q", out)
	}
}

func TestFromContext_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf)

	ctx := WithContext(context.Background(), log)
	got := FromContext(ctx)

	got.Info().Msg("from context")
	if !strings.Contains(buf.String(), "from context") {
		t.Errorf("logger from context did not write to original writer: %q", buf.String())
	}
}
