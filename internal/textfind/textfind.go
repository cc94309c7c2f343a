package textfind

import (
	"github.com/standardbeagle/trowser/internal/trowser"
)

// maxBlocksPerCall caps the number of blocks a single findNext call will
// scan, bounding per-call cost in pathological no-match inputs (spec.md
// §4.2/§5).
const maxBlocksPerCall = 50000

// Source is the minimal read surface TextFinder needs from a document.
// internal/document.Document satisfies this.
type Source interface {
	BlockCount() int
	Line(b trowser.BlockNum) ([]byte, bool)
}

// Match is one result of findNext.
type Match struct {
	Block  trowser.BlockNum
	Start  int // byte column within the block's line
	End    int // exclusive
	Length int
}

// Finder is the resumable block-scan cursor (component C). A Finder scans
// at most maxBlocksPerCall blocks per FindNext call; callers drive it
// repeatedly (directly, or as the inner loop of a BgScheduler task) to
// cover an entire document without blocking the UI loop.
type Finder struct {
	src       Source
	par       trowser.SearchPar
	dir       trowser.Direction
	m         *matcher
	block     trowser.BlockNum
	col       int // next scan column within block, direction-dependent
	done      bool
	firstStep bool
}

// New creates a cursor over src, searching par starting at (block, col)
// in the given direction. dir must be DirForward or DirBackward. An
// invalid regex or empty pattern yields a cursor whose IsDone is
// immediately true.
func New(src Source, par trowser.SearchPar, dir trowser.Direction, block trowser.BlockNum, col int) *Finder {
	f := &Finder{src: src, par: par, dir: dir, block: block, col: col, firstStep: true}
	f.m = compile(par)
	if !f.m.valid {
		f.done = true
	}
	if block < 0 || int(block) >= src.BlockCount() {
		if dir == trowser.DirForward && block < 0 {
			f.block = 0
			f.col = 0
		} else if dir == trowser.DirBackward && int(block) >= src.BlockCount() {
			f.block = trowser.BlockNum(src.BlockCount() - 1)
			f.col = -1 // sentinel: "end of line" on first backward step
		} else {
			f.done = true
		}
	}
	return f
}

// IsDone reports whether the cursor has been exhausted (no construction
// error and no more matches available without a further FindNext call
// returning none).
func (f *Finder) IsDone() bool { return f.done }

// NextStartPos reports the block the next FindNext call will resume
// from, useful for progress reporting.
func (f *Finder) NextStartPos() trowser.BlockNum { return f.block }

// FindNext scans forward or backward from the cursor's current position,
// advancing past each block examined, and returns the first match found
// within maxBlocksPerCall blocks. ok is false if the scan exhausted the
// document (in which case IsDone becomes true) or hit the block cap
// without a match (IsDone stays false; call again to continue).
func (f *Finder) FindNext() (m Match, ok bool) {
	if f.done {
		return Match{}, false
	}
	n := f.src.BlockCount()
	scanned := 0
	for scanned < maxBlocksPerCall {
		if f.block < 0 || int(f.block) >= n {
			f.done = true
			return Match{}, false
		}
		line, exists := f.src.Line(f.block)
		if !exists {
			f.done = true
			return Match{}, false
		}
		scanned++

		if f.dir == trowser.DirForward {
			from := f.col
			if !f.firstStep {
				from = 0
			}
			if s, e, found := f.m.find(line, from); found {
				blk := f.block
				f.advance()
				return Match{Block: blk, Start: s, End: e, Length: e - s}, true
			}
		} else {
			before := f.col
			if f.firstStep {
				if before < 0 || before > len(line) {
					before = len(line)
				}
			} else {
				before = len(line)
			}
			if s, e, found := f.m.findLast(line, before); found {
				blk := f.block
				f.advance()
				return Match{Block: blk, Start: s, End: e, Length: e - s}, true
			}
		}
		f.firstStep = false
		f.stepBlock()
	}
	return Match{}, false // block cap reached; not done, caller reschedules
}

// advance moves the cursor one block past the match, per spec: "after
// returning a match the cursor advances past the match's block so the
// next call continues from the following block."
func (f *Finder) advance() {
	f.firstStep = false
	f.stepBlock()
}

func (f *Finder) stepBlock() {
	if f.dir == trowser.DirForward {
		f.block++
		if int(f.block) >= f.src.BlockCount() {
			f.done = true
		}
	} else {
		f.block--
		if f.block < 0 {
			f.done = true
		}
	}
}
