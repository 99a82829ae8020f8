package history

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kreciklabs/krecik/internal/story"
)

func withFixedClock(t *testing.T, at time.Time) {
	t.Helper()
	old := Now
	Now = func() time.Time { return at }
	t.Cleanup(func() { Now = old })
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	st, err := New(t.TempDir())
	require.NoError(t, err)

	stories := story.Stories{story.Success(story.HTTPCode("u", 200))}
	path, err := st.Write(stories)
	require.NoError(t, err)

	got := st.Read(path)
	require.Len(t, got, 1)
	require.False(t, got[0].IsError())
}

func TestReadMissingFileReturnsEmpty(t *testing.T) {
	st, err := New(t.TempDir())
	require.NoError(t, err)
	require.Empty(t, st.Read(st.Dir+"/does-not-exist.json"))
}

func TestReadTruncatedFileReturnsEmpty(t *testing.T) {
	st, err := New(t.TempDir())
	require.NoError(t, err)
	path, err := st.Write(story.Stories{story.Success(story.HTTPCode("u", 200))})
	require.NoError(t, err)
	require.NoError(t, truncate(path))
	require.Empty(t, st.Read(path))
}

func truncate(path string) error {
	return os.WriteFile(path, []byte("{not json"), 0o644)
}

func TestListOrdersOldestToNewest(t *testing.T) {
	st, err := New(t.TempDir())
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	withFixedClock(t, base)
	_, err = st.Write(story.Stories{})
	require.NoError(t, err)

	withFixedClock(t, base.Add(time.Second))
	_, err = st.Write(story.Stories{})
	require.NoError(t, err)

	paths, err := st.List()
	require.NoError(t, err)
	require.Len(t, paths, 2)
	require.True(t, paths[0] < paths[1])
}

func TestListIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	st, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dir+"/notes.txt", []byte("x"), 0o644))

	_, err = st.Write(story.Stories{})
	require.NoError(t, err)

	paths, err := st.List()
	require.NoError(t, err)
	require.Len(t, paths, 1)
}

func TestPruneKeepsOnlyMostRecent(t *testing.T) {
	st, err := New(t.TempDir())
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		withFixedClock(t, base.Add(time.Duration(i)*time.Second))
		_, err := st.Write(story.Stories{})
		require.NoError(t, err)
	}

	removed, err := st.Prune(2)
	require.NoError(t, err)
	require.Equal(t, 3, removed)

	paths, err := st.List()
	require.NoError(t, err)
	require.Len(t, paths, 2)
}

func TestPruneIsIdempotent(t *testing.T) {
	st, err := New(t.TempDir())
	require.NoError(t, err)
	_, err = st.Write(story.Stories{})
	require.NoError(t, err)

	_, err = st.Prune(0)
	require.NoError(t, err)
	removed, err := st.Prune(0)
	require.NoError(t, err)
	require.Equal(t, 0, removed)
}
