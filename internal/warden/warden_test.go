package warden

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kreciklabs/krecik/internal/history"
	"github.com/kreciklabs/krecik/internal/notifier"
	"github.com/kreciklabs/krecik/internal/story"
)

type capturingSink struct {
	messages []string
}

func (s *capturingSink) Send(_ context.Context, message string) error {
	s.messages = append(s.messages, message)
	return nil
}

func newTestStore(t *testing.T) *history.Store {
	t.Helper()
	dir := t.TempDir()
	st, err := history.New(dir)
	require.NoError(t, err)
	return st
}

func writeRun(t *testing.T, st *history.Store, at time.Time, stories story.Stories) string {
	t.Helper()
	orig := history.Now
	history.Now = func() time.Time { return at }
	defer func() { history.Now = orig }()
	path, err := st.Write(stories)
	require.NoError(t, err)
	return path
}

func TestWardenRunFewerThanValidateCountIsNoOp(t *testing.T) {
	st := newTestStore(t)
	writeRun(t, st, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), story.Stories{
		story.Error(story.HTTPConnectionFailed("https://example.com", false)),
	})

	sink := &capturingSink{}
	gw := notifier.New(filepath.Join(t.TempDir(), "state"), sink)
	w := New(st, gw)

	require.NoError(t, w.Run(context.Background()))
	require.Empty(t, sink.messages, "must not notify when fewer than ValidateCount runs exist")

	paths, err := st.List()
	require.NoError(t, err)
	require.Len(t, paths, 1, "must not prune when exiting early")
}

func TestWardenNotifiesErrorsFromLastValidateCountRuns(t *testing.T) {
	st := newTestStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	writeRun(t, st, base, story.Stories{
		story.Error(story.HTTPConnectionFailed("https://a.example.com", false)),
	})
	writeRun(t, st, base.Add(time.Second), story.Stories{
		story.Error(story.HTTPConnectionFailed("https://b.example.com", false)),
		story.Success(story.HTTPCode("https://ok.example.com", 200)),
	})
	writeRun(t, st, base.Add(2*time.Second), story.Stories{
		story.Error(story.HTTPConnectionFailed("https://c.example.com", false)),
	})

	sink := &capturingSink{}
	gw := notifier.New(filepath.Join(t.TempDir(), "state"), sink)
	w := New(st, gw)
	w.ValidateCount = 3

	require.NoError(t, w.Run(context.Background()))
	require.Len(t, sink.messages, 1)

	want := notifier.FormatMessage([]story.Unexpected{
		story.HTTPConnectionFailed("https://c.example.com", false),
		story.HTTPConnectionFailed("https://b.example.com", false),
		story.HTTPConnectionFailed("https://a.example.com", false),
	})
	require.Equal(t, want, sink.messages[0])
}

func TestWardenPrunesBeyondKeepCount(t *testing.T) {
	st := newTestStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		writeRun(t, st, base.Add(time.Duration(i)*time.Second), story.Stories{
			story.Success(story.HTTPCode("https://ok.example.com", 200)),
		})
	}

	sink := &capturingSink{}
	gw := notifier.New(filepath.Join(t.TempDir(), "state"), sink)
	w := New(st, gw)
	w.ValidateCount = 2
	w.KeepCount = 3

	require.NoError(t, w.Run(context.Background()))

	paths, err := st.List()
	require.NoError(t, err)
	require.Len(t, paths, 3)
}

func TestWardenHonorsLocalLock(t *testing.T) {
	lock := NewLocalLock()
	release, err := lock.Acquire(context.Background())
	require.NoError(t, err)
	release()

	release2, err := lock.Acquire(context.Background())
	require.NoError(t, err)
	release2()
}

func TestFileExistsHelper(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present")
	require.NoError(t, os.WriteFile(present, []byte("x"), 0o644))
	require.True(t, fileExists(present))
	require.False(t, fileExists(filepath.Join(dir, "absent")))
}
