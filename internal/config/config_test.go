package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "nope.qt"))
	assert.Equal(t, Default().BufferCapacity(), cfg.BufferCapacity())
	assert.Equal(t, CurrentVersion, cfg.Version)
}

func TestLoadMalformedJSONReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.qt")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	cfg := Load(path)
	assert.Equal(t, Default().BufferCapacity(), cfg.BufferCapacity())
}

func TestLoadVersionOutsideCompatRangeReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "futuristic.qt")
	require.NoError(t, os.WriteFile(path, []byte(`{"xx_trowser_version": 999}`), 0o644))
	cfg := Load(path)
	assert.Equal(t, CurrentVersion, cfg.Version)
}

func TestLoadRoundTripsKnownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "good.qt")
	const content = `{
		"xx_trowser_version": 1,
		"main_search": {"tlb_history": [["foo", true, false]], "tlb_case": true, "tlb_hist_maxlen": 50},
		"highlight": [{"search_pattern": "ERROR", "search_reg_exp": false, "search_match_case": true, "fg_col": "red"}],
		"load_buf_size_lsb": 1000,
		"load_buf_size_msb": 0
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := Load(path)
	require.Len(t, cfg.MainSearch.History, 1)
	assert.Equal(t, "foo", cfg.MainSearch.History[0].Pattern)
	assert.True(t, cfg.MainSearch.History[0].Regexp)
	assert.True(t, cfg.MainSearch.Case)
	require.Len(t, cfg.Highlight, 1)
	assert.Equal(t, "ERROR", cfg.Highlight[0].SearchPattern)
	assert.Equal(t, "red", cfg.Highlight[0].FgColor)
	assert.Equal(t, int64(1000), cfg.BufferCapacity())
}

func TestLoadInvalidSubsectionFallsBackForThatSectionOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.qt")
	// main_search is a string instead of an object: that one section
	// should default, but the valid highlight array should still load.
	const content = `{
		"xx_trowser_version": 1,
		"main_search": "oops",
		"highlight": [{"search_pattern": "WARN"}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := Load(path)
	assert.Equal(t, 50, cfg.MainSearch.HistMaxLen) // untouched default
	require.Len(t, cfg.Highlight, 1)
	assert.Equal(t, "WARN", cfg.Highlight[0].SearchPattern)
}

func TestBufferCapacitySplitAndJoin(t *testing.T) {
	cfg := Default()
	cfg.SetBufferCapacity(1<<33 + 42)
	assert.Equal(t, int64(1<<33+42), cfg.BufferCapacity())
}

func TestHistoryEntryJSONIsThreeTuple(t *testing.T) {
	h := HistoryEntry{Pattern: "x", Regexp: true, Case: false}
	data, err := h.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `["x", true, false]`, string(data))

	var roundtrip HistoryEntry
	require.NoError(t, roundtrip.UnmarshalJSON(data))
	assert.Equal(t, h, roundtrip)
}
