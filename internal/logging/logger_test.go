package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerWithContextIncludesTraceID(t *testing.T) {
	var buf bytes.Buffer
	l := New("krecikd", "info", "json")
	l.SetOutput(&buf)

	ctx := WithTraceID(context.Background(), "abc-123")
	l.WithContext(ctx).Info("probing")

	require.Contains(t, buf.String(), "abc-123")
	require.Contains(t, buf.String(), "krecikd")
}

func TestNewTraceIDIsUnique(t *testing.T) {
	a := NewTraceID()
	b := NewTraceID()
	require.NotEqual(t, a, b)
}

func TestGetTraceIDEmptyWhenUnset(t *testing.T) {
	require.Equal(t, "", GetTraceID(context.Background()))
}
