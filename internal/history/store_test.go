package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, text := range []string{"First note.", "Second note.", "Third note."} {
		require.NoError(t, store.Record(Entry{
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
			RawText:     "raw " + text,
			CleanedText: text,
			Engine:      "whisper",
			DurationS:   2.5,
			WPM:         120,
			Confidence:  0.9,
		}))
	}

	entries, err := store.Recent(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "Third note.", entries[0].CleanedText)
	require.Equal(t, "Second note.", entries[1].CleanedText)
	require.Equal(t, "whisper", entries[0].Engine)
	require.InDelta(t, 0.9, entries[0].Confidence, 1e-9)
	require.True(t, entries[0].Timestamp.Equal(base.Add(2*time.Minute)))
}

func TestRecentTexts(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Record(Entry{CleanedText: "Older.", Timestamp: time.Unix(100, 0)}))
	require.NoError(t, store.Record(Entry{CleanedText: "Newer.", Timestamp: time.Unix(200, 0)}))

	texts, err := store.RecentTexts(5)
	require.NoError(t, err)
	require.Equal(t, []string{"Newer.", "Older."}, texts)
}

func TestRecentOnEmptyStore(t *testing.T) {
	store := openTestStore(t)

	entries, err := store.Recent(10)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestSearchMatchesRawAndCleaned(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Record(Entry{RawText: "um meeting notes", CleanedText: "Meeting notes.", Timestamp: time.Unix(100, 0)}))
	require.NoError(t, store.Record(Entry{RawText: "grocery list", CleanedText: "Grocery list.", Timestamp: time.Unix(200, 0)}))

	entries, err := store.Search("meeting", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "Meeting notes.", entries[0].CleanedText)

	entries, err = store.Search("nowhere", 10)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestPruneKeepsNewest(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 10; i++ {
		require.NoError(t, store.Record(Entry{
			CleanedText: "entry",
			Timestamp:   time.Unix(int64(100+i), 0),
		}))
	}

	require.NoError(t, store.Prune(4))

	count, err := store.Count()
	require.NoError(t, err)
	require.Equal(t, 4, count)

	entries, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	require.True(t, entries[0].Timestamp.Equal(time.Unix(109, 0)))
	require.True(t, entries[3].Timestamp.Equal(time.Unix(106, 0)))
}

func TestPruneZeroIsNoOp(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Record(Entry{CleanedText: "keep"}))
	require.NoError(t, store.Prune(0))

	count, err := store.Count()
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestOpenCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "history.sqlite")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Record(Entry{CleanedText: "works"}))
}
