package filterlist

import (
	"github.com/standardbeagle/trowser/internal/textfind"
	"github.com/standardbeagle/trowser/internal/trowser"
)

// finderAdapter adapts a textfind.Finder (which reports Match structs)
// to the SearchSource interface the scan driver consumes (which only
// needs the matched block number).
type finderAdapter struct {
	f *textfind.Finder
}

func (a finderAdapter) FindNext() (trowser.BlockNum, bool) {
	m, ok := a.f.FindNext()
	if !ok {
		return 0, false
	}
	return m.Block, true
}

func (a finderAdapter) IsDone() bool { return a.f.IsDone() }

// Direction selects where searchMatches scans from: DirAll scans the
// whole document from block 0, DirForward/DirBackward scan from a given
// cursor position, per spec.md §4.5.
func NewSearchMatchesFinders(doc textfind.Source, patterns []trowser.SearchPar, dir trowser.Direction, from trowser.BlockNum) []SearchSource {
	out := make([]SearchSource, 0, len(patterns))
	for _, p := range patterns {
		d := dir
		start := from
		if dir == trowser.DirAll {
			d = trowser.DirForward
			start = 0
		}
		out = append(out, finderAdapter{f: textfind.New(doc, p, d, start, 0)})
	}
	return out
}
