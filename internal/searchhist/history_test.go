package searchhist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/trowser/internal/trowser"
)

func par(s string) trowser.SearchPar { return trowser.SearchPar{Pattern: s, MatchCase: true} }

func TestFrontIsMRU(t *testing.T) {
	h := New()
	h.AddEntry(par("A"))
	h.AddEntry(par("B"))
	h.AddEntry(par("C"))

	h.AddEntry(par("B"))
	front, ok := h.Front()
	require.True(t, ok)
	assert.Equal(t, "B", front.Pattern)
	assert.Equal(t, []trowser.SearchPar{par("B"), par("C"), par("A")}, h.All())
}

func TestAddingDuplicateKeepsOneCopy(t *testing.T) {
	h := New()
	h.AddEntry(par("X"))
	h.AddEntry(par("X"))
	h.AddEntry(par("X"))
	assert.Equal(t, 1, h.Len())
}

func TestDuplicateAddReplacesOptions(t *testing.T) {
	h := New()
	h.AddEntry(trowser.SearchPar{Pattern: "X", Regexp: false, MatchCase: false})
	h.AddEntry(trowser.SearchPar{Pattern: "X", Regexp: true, MatchCase: true})

	front, ok := h.Front()
	require.True(t, ok)
	assert.True(t, front.Regexp)
	assert.True(t, front.MatchCase)
}

func TestBoundedAtMaxEntries(t *testing.T) {
	h := New()
	for i := 0; i < MaxEntries+10; i++ {
		h.AddEntry(trowser.SearchPar{Pattern: string(rune('a' + i%26)) + string(rune(i))})
	}
	assert.Equal(t, MaxEntries, h.Len())
}

func TestPrefixFilter(t *testing.T) {
	h := New()
	h.AddEntry(par("error: disk"))
	h.AddEntry(par("warn: mem"))
	h.AddEntry(par("error: net"))

	got := h.PrefixFilter("error:")
	assert.Equal(t, []trowser.SearchPar{par("error: net"), par("error: disk")}, got)
}

func TestEmptyPatternIsNoOp(t *testing.T) {
	h := New()
	h.AddEntry(trowser.SearchPar{})
	assert.Equal(t, 0, h.Len())
}
