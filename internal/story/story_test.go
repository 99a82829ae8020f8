package story

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSuccessStoryIsNotError(t *testing.T) {
	s := Success(HTTPCode("https://example.com", 200))
	require.False(t, s.IsError())
	require.NoError(t, s.Validate())
}

func TestErrorStoryIsError(t *testing.T) {
	s := Error(HTTPCodeInvalid("https://example.com", 500, 200))
	require.True(t, s.IsError())
	require.NoError(t, s.Validate())
}

func TestMinorStoryIsNotError(t *testing.T) {
	s := Minor(OSError("https://example.com", "connection reset"))
	require.False(t, s.IsError())
	require.NoError(t, s.Validate())
}

func TestValidateRejectsAmbiguousStory(t *testing.T) {
	e := HTTPCode("https://example.com", 200)
	u := HTTPCodeInvalid("https://example.com", 500, 200)
	s := Story{Success: &e, Error: &u}
	require.Error(t, s.Validate())
}

func TestValidateRejectsEmptyStory(t *testing.T) {
	require.Error(t, Story{}.Validate())
}

func TestWithNotifierTagsCopy(t *testing.T) {
	s := Success(HTTPCode("https://example.com", 200))
	tagged := s.WithNotifier("ops")
	require.Equal(t, "ops", tagged.Notifier)
	require.Empty(t, s.Notifier)
}

func TestNewTimestampUsesOverridableClock(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	old := Now
	Now = func() time.Time { return fixed }
	defer func() { Now = old }()

	s := Success(HTTPCode("https://example.com", 200))
	require.Equal(t, fixed.Format(time.RFC3339Nano), s.Timestamp)
}

func TestStoryRoundTripsThroughJSON(t *testing.T) {
	s := Error(TLSDomainExpired("example.com", 3))
	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded Story
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.True(t, decoded.IsError())
	require.Equal(t, "example.com", decoded.Error.Domain)
}

func TestStringRendersEachVariant(t *testing.T) {
	require.Contains(t, Success(HTTPCode("u", 200)).String(), "responded with expected code")
	require.Contains(t, Error(HTTPCodeInvalid("u", 500, 200)).String(), "unexpected code")
	require.Contains(t, Minor(OSError("u", "boom")).String(), "OS error")
	require.Contains(t, Story{}.String(), "ambiguous")
}
