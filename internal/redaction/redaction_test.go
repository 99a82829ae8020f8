package redaction

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRedactURLMasksTokenParam(t *testing.T) {
	got := RedactURL("https://inventory.example.com/catalog?token=abc123XYZ_-&site=prod")
	require.Equal(t, "https://inventory.example.com/catalog?token=***REDACTED***&site=prod", got)
}

func TestRedactURLLeavesURLWithoutTokenUnchanged(t *testing.T) {
	url := "https://inventory.example.com/catalog?site=prod"
	require.Equal(t, url, RedactURL(url))
}

func TestRedactorRedactFieldsMasksBlockedNames(t *testing.T) {
	r := NewRedactor(DefaultConfig())
	out := r.RedactFields(map[string]interface{}{
		"token":  "abc123",
		"status": "ok",
	})
	require.Equal(t, "***REDACTED***", out["token"])
	require.Equal(t, "ok", out["status"])
}

func TestRedactorDisabledPassesThrough(t *testing.T) {
	r := NewRedactor(SecretConfig{Enabled: false})
	url := "https://inventory.example.com/catalog?token=abc123"
	require.Equal(t, url, r.RedactString(url))
}
