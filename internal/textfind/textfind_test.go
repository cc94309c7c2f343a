package textfind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/trowser/internal/trowser"
)

type fakeDoc [][]byte

func (d fakeDoc) BlockCount() int { return len(d) }
func (d fakeDoc) Line(b trowser.BlockNum) ([]byte, bool) {
	if b < 0 || int(b) >= len(d) {
		return nil, false
	}
	return d[b], true
}

func TestForwardSubstringScan(t *testing.T) {
	doc := fakeDoc{[]byte("alpha"), []byte("beta"), []byte("alphabet")}
	par := trowser.SearchPar{Pattern: "alp", MatchCase: true}
	f := New(doc, par, trowser.DirForward, 0, 0)

	var blocks []trowser.BlockNum
	for {
		m, ok := f.FindNext()
		if !ok {
			break
		}
		blocks = append(blocks, m.Block)
	}
	assert.Equal(t, []trowser.BlockNum{0, 2}, blocks)
	assert.True(t, f.IsDone())
}

func TestBackwardSearchEndColumnConstraint(t *testing.T) {
	doc := fakeDoc{[]byte("foo bar foo")}
	par := trowser.SearchPar{Pattern: "foo", MatchCase: true}
	// Backward from column 7 (exclusive): only the first "foo" (ends at 3) qualifies.
	f := New(doc, par, trowser.DirBackward, 0, 7)
	m, ok := f.FindNext()
	require.True(t, ok)
	assert.LessOrEqual(t, m.End, 7)
	assert.Equal(t, 0, m.Start)
}

func TestEmptyPatternIsImmediatelyDone(t *testing.T) {
	doc := fakeDoc{[]byte("x")}
	f := New(doc, trowser.SearchPar{Pattern: ""}, trowser.DirForward, 0, 0)
	assert.True(t, f.IsDone())
	_, ok := f.FindNext()
	assert.False(t, ok)
}

func TestInvalidRegexIsImmediatelyDone(t *testing.T) {
	doc := fakeDoc{[]byte("x")}
	f := New(doc, trowser.SearchPar{Pattern: "(unterminated", Regexp: true}, trowser.DirForward, 0, 0)
	assert.True(t, f.IsDone())
}

func TestZeroLengthMatchReportedAsLengthOne(t *testing.T) {
	doc := fakeDoc{[]byte("")}
	f := New(doc, trowser.SearchPar{Pattern: "^", Regexp: true}, trowser.DirForward, 0, 0)
	m, ok := f.FindNext()
	require.True(t, ok)
	assert.Equal(t, 1, m.Length)
}

func TestCaseInsensitiveRegex(t *testing.T) {
	doc := fakeDoc{[]byte("Hello World")}
	f := New(doc, trowser.SearchPar{Pattern: "hello", Regexp: true, MatchCase: false}, trowser.DirForward, 0, 0)
	m, ok := f.FindNext()
	require.True(t, ok)
	assert.Equal(t, 0, m.Start)
}

func TestCaseInsensitiveSubstring(t *testing.T) {
	doc := fakeDoc{[]byte("Hello World")}
	f := New(doc, trowser.SearchPar{Pattern: "WORLD", MatchCase: false}, trowser.DirForward, 0, 0)
	m, ok := f.FindNext()
	require.True(t, ok)
	assert.Equal(t, 6, m.Start)
}

func TestCapturingRegexSubmatch(t *testing.T) {
	doc := fakeDoc{[]byte("ts=42 foo")}
	par := trowser.SearchPar{Pattern: `ts=(\d+)`, Regexp: true, MatchCase: true}
	m := compile(par)
	s, e, ok := m.find(doc[0], 0)
	require.True(t, ok)
	assert.Equal(t, "ts=42", string(doc[0][s:e]))
}
