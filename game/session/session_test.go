package session

import (
	"bufio"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/gamesession/game/identity"
	"github.com/wricardo/gamesession/game/logging"
)

func seededGenerator() *identity.Generator {
	var seed [32]byte
	seed[0] = 42
	return identity.NewGenerator(rand.NewChaCha8(seed))
}

func readLog(t *testing.T, path string) []map[string]any {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var records []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	return records
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) {
	return 0, errors.New("no entropy")
}

func TestNew_TestMode(t *testing.T) {
	dir := t.TempDir()
	sess, err := New(true, WithLogDir(dir))
	require.NoError(t, err)
	defer sess.Close()

	assert.Equal(t, PhaseLobby, sess.Phase())
	assert.True(t, sess.TestMode())
	assert.Empty(t, sess.LogPath())

	_, err = identity.Parse(sess.ID().String())
	assert.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNew_DistinctIdentifiers(t *testing.T) {
	a, err := New(true)
	require.NoError(t, err)
	defer a.Close()
	b, err := New(true)
	require.NoError(t, err)
	defer b.Close()

	assert.NotEqual(t, a.ID(), b.ID())
}

func TestNew_ProductionFlushesCreationRecord(t *testing.T) {
	dir := t.TempDir()
	now := time.Unix(1700000123, 0)

	sess, err := New(false,
		WithLogDir(dir),
		WithGenerator(seededGenerator()),
		WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	defer sess.Close()

	wantName := logging.FileName(now, sess.ID())
	assert.Equal(t, filepath.Join(dir, wantName), sess.LogPath())
	assert.True(t, strings.HasPrefix(wantName, "1700000123_"+sess.ID().Prefix(4)))

	// readable before Close: New flushes the creation record
	records := readLog(t, sess.LogPath())
	require.Len(t, records, 1)
	assert.Equal(t, "session created", records[0]["msg"])
	assert.Equal(t, sess.ID().String(), records[0]["session_id"])
	assert.Equal(t, "info", records[0]["level"])
}

func TestNew_ProductionMissingDir(t *testing.T) {
	_, err := New(false, WithLogDir(filepath.Join(t.TempDir(), "missing")))
	require.ErrorIs(t, err, logging.ErrSinkUnavailable)
}

func TestNew_EntropyFailure(t *testing.T) {
	_, err := New(true, WithGenerator(identity.NewGenerator(brokenReader{})))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no entropy")
}

func TestNew_SeededGeneratorIsReproducible(t *testing.T) {
	a, err := New(true, WithGenerator(seededGenerator()))
	require.NoError(t, err)
	b, err := New(true, WithGenerator(seededGenerator()))
	require.NoError(t, err)

	assert.Equal(t, a.ID(), b.ID())
}

func TestSession_Advance(t *testing.T) {
	sess, err := New(true)
	require.NoError(t, err)
	defer sess.Close()

	require.NoError(t, sess.Advance(PhaseStarting))
	assert.Equal(t, PhaseStarting, sess.Phase())

	err = sess.Advance(PhaseLobby)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, PhaseStarting, sess.Phase(), "rejected move must not change phase")

	require.NoError(t, sess.Advance(PhaseLive))
	require.NoError(t, sess.Advance(PhaseEnded))

	for _, p := range []Phase{PhaseLobby, PhaseStarting, PhaseLive, PhaseEnded} {
		assert.ErrorIs(t, sess.Advance(p), ErrInvalidTransition, "ended must be absorbing")
	}
}

func TestSession_AdvanceLogsTransitions(t *testing.T) {
	sess, err := New(false, WithLogDir(t.TempDir()))
	require.NoError(t, err)

	require.NoError(t, sess.Advance(PhaseEnded))
	require.NoError(t, sess.Close())

	records := readLog(t, sess.LogPath())
	require.Len(t, records, 3)
	assert.Equal(t, "phase changed", records[1]["msg"])
	assert.Equal(t, "lobby", records[1]["from"])
	assert.Equal(t, "ended", records[1]["to"])
	assert.Equal(t, "session closed", records[2]["msg"])
	assert.Equal(t, "ended", records[2]["phase"])
}

func TestSession_CloseIdempotent(t *testing.T) {
	sess, err := New(false, WithLogDir(t.TempDir()))
	require.NoError(t, err)

	require.NoError(t, sess.Close())
	require.NoError(t, sess.Close())
	assert.Len(t, readLog(t, sess.LogPath()), 2)
}

func TestSession_AdvanceAfterClose(t *testing.T) {
	sess, err := New(false, WithLogDir(t.TempDir()))
	require.NoError(t, err)
	require.NoError(t, sess.Close())

	require.ErrorIs(t, sess.Advance(PhaseStarting), ErrClosed)
	assert.Equal(t, PhaseLobby, sess.Phase())

	records := readLog(t, sess.LogPath())
	require.Len(t, records, 2)
	assert.Equal(t, "session closed", records[1]["msg"])
}

func TestNew_ReadsClockOnce(t *testing.T) {
	// successive reads cross a second boundary
	base := time.Unix(1700000000, 999_000_000)
	calls := 0
	clock := func() time.Time {
		calls++
		return base.Add(time.Duration(calls-1) * time.Millisecond)
	}

	sess, err := New(false, WithLogDir(t.TempDir()), WithClock(clock))
	require.NoError(t, err)
	defer sess.Close()

	assert.Equal(t, 1, calls)
	info, err := logging.ParseFileName(sess.LogPath())
	require.NoError(t, err)
	assert.Equal(t, sess.CreatedAt().Unix(), info.CreatedAt.Unix())
}

func TestSession_Snapshot(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	sess, err := New(true, WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	defer sess.Close()

	snap := sess.Snapshot()
	assert.Equal(t, sess.ID(), snap.ID)
	assert.Equal(t, PhaseLobby, snap.Phase)
	assert.True(t, snap.TestMode)
	assert.True(t, snap.CreatedAt.Equal(now))

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"phase":"lobby"`)
}

func TestSession_ConcurrentReads(t *testing.T) {
	sess, err := New(true)
	require.NoError(t, err)
	defer sess.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = sess.Snapshot()
				_ = sess.Phase()
			}
		}()
	}

	require.NoError(t, sess.Advance(PhaseStarting))
	require.NoError(t, sess.Advance(PhaseLive))
	wg.Wait()

	assert.Equal(t, PhaseLive, sess.Phase())
}
