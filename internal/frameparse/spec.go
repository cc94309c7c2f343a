// Package frameparse implements FrameParser (component E): deriving a
// (value, frame) side-column pair for any block by scanning nearby lines
// against two configured regexes, with a range-keyed cache so repeated
// queries over an unchanged document are O(1).
package frameparse

// Spec is FrameParseSpec from the data model: how to extract up to two
// side-column values for any block.
type Spec struct {
	ValuePattern string
	ValueHeader  string
	ValueDelta   bool

	FramePattern  string // empty means "no frame column"
	FrameHeader   string
	FrameForward  bool
	FrameCapture  bool
	FrameDelta    bool

	Range int // max blocks scanned per direction
}

// algorithm reports which of the two scanning algorithms a Spec selects,
// per spec.md §4.6: "Range" only when a frame pattern is set AND scans
// forward from the anchor; "Linear" otherwise.
func (s Spec) algorithm() algoKind {
	if s.FramePattern != "" && s.FrameForward {
		return algoRange
	}
	return algoLinear
}

type algoKind int

const (
	algoLinear algoKind = iota
	algoRange
)

// Empty reports whether the spec describes no extraction at all.
func (s Spec) Empty() bool {
	return s.ValuePattern == "" && s.FramePattern == ""
}

// Equal reports whether two specs are the same, for the "clear cache on
// spec change" invalidation rule.
func (s Spec) Equal(o Spec) bool {
	return s == o
}

// Result is the (value, frame) pair FrameParser returns for a block.
type Result struct {
	Value string
	Frame string
}
