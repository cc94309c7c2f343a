package pipeloader

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain steps l until it reports done or the deadline passes.
func drain(t *testing.T, l *Loader) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !l.Done() {
		l.Step()
		if time.Now().After(deadline) {
			require.FailNow(t, "loader never finished")
		}
		if !l.Done() {
			time.Sleep(time.Millisecond)
		}
	}
}

func TestHeadModeStopsAtCapacity(t *testing.T) {
	data := make([]byte, 3*chunkSize)
	for i := range data {
		data[i] = byte(i)
	}
	l, err := NewStream(&sliceReader{data: data}, ModeHead, chunkSize+10)
	require.NoError(t, err)
	drain(t, l)

	assert.True(t, l.Done())
	assert.False(t, l.EOF())
	assert.GreaterOrEqual(t, l.TotalRead(), int64(chunkSize+10))
	// never overshoots by more than one chunk
	assert.Less(t, l.TotalRead(), int64(2*chunkSize+10))
}

func TestHeadModeRunsToEOFWhenShorterThanCap(t *testing.T) {
	data := []byte("hello world")
	l, err := NewStream(&sliceReader{data: data}, ModeHead, 1<<20)
	require.NoError(t, err)
	drain(t, l)

	assert.True(t, l.EOF())
	assert.Equal(t, data, l.LoadedData(false))
}

func TestTailModeDropsWholeFrontChunksScenario(t *testing.T) {
	// spec.md §8 scenario 5: cap 100, three 60-byte chunks emitted one at
	// a time; final buffered bytes = 120, not 180.
	l := newLoader(ModeTail, 100)
	l.appendChunk(make([]byte, 60))
	assert.Equal(t, int64(60), l.bufferedBytes)

	l.appendChunk(make([]byte, 60))
	assert.Equal(t, int64(120), l.bufferedBytes, "120 - 60 = 60 < 100, no drop yet")

	l.appendChunk(make([]byte, 60))
	assert.Equal(t, int64(120), l.bufferedBytes, "180 - 60 = 120 >= 100, front chunk dropped")
	assert.Equal(t, int64(180), l.totalRead)
}

func TestLoadedDataExactTrimsToLastCapacityBytes(t *testing.T) {
	l := newLoader(ModeTail, 100)
	full := make([]byte, 0, 180)
	for i := 0; i < 3; i++ {
		chunk := make([]byte, 60)
		for j := range chunk {
			chunk[j] = byte(i*60 + j)
		}
		full = append(full, chunk...)
		l.appendChunk(chunk)
	}

	exact := l.LoadedData(true)
	assert.Len(t, exact, 100)
	assert.Equal(t, full[80:180], exact)
}

func TestLoadedDataExactHeadModeTrimsFromBack(t *testing.T) {
	l := newLoader(ModeHead, 50)
	l.chunks = [][]byte{make([]byte, 60)}
	l.bufferedBytes = 60
	got := l.LoadedData(true)
	assert.Len(t, got, 50)
}

func TestSetCapacityStopsHeadModeImmediatelyWhenAlreadyMet(t *testing.T) {
	l := newLoader(ModeHead, 1000)
	l.appendChunk(make([]byte, 60))
	assert.False(t, l.done)

	l.SetCapacity(10)
	assert.True(t, l.done)
}

func TestSetModeToTailReappliesDropRule(t *testing.T) {
	l := newLoader(ModeHead, 1000)
	l.appendChunk(make([]byte, 60))
	l.appendChunk(make([]byte, 60))

	l.capacity = 50
	l.SetMode(ModeTail)
	assert.Equal(t, int64(60), l.bufferedBytes)
}

func TestNewFilePlainFilePassesThrough(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.log")
	require.NoError(t, os.WriteFile(path, []byte("line one\nline two\n"), 0o644))

	l, err := NewFile(path, ModeHead, 1<<20)
	require.NoError(t, err)
	drain(t, l)
	assert.Equal(t, []byte("line one\nline two\n"), l.LoadedData(false))
}

// sliceReader is a plain io.Reader over an in-memory slice, used instead
// of bytes.Reader so Read never returns more than one chunkSize-ish
// slice at a time, exercising the chunking loop the way a pipe would.
type sliceReader struct {
	data []byte
	pos  int
}

func (r *sliceReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}
