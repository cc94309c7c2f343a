// Package trowser holds the types shared across every component of the
// log browser: block numbers, search parameters, format specs and the
// document generation counter used to invalidate per-generation caches.
package trowser

// BlockNum identifies a line ("block") in the document, 0-based.
type BlockNum int64

// Generation is bumped on every bulk truncation or reload of the
// document. Components that cache results keyed by block number must
// discard those caches when the generation they were computed against
// no longer matches the document's current generation.
type Generation uint64

// SearchPar is the (pattern, regexp, matchCase) triple used as both a
// search key and a history entry.
type SearchPar struct {
	Pattern   string
	Regexp    bool
	MatchCase bool
}

// Empty reports whether the pattern is the empty string. Every component
// treats an empty pattern as a no-op per the boundary behaviors in the
// specification.
func (p SearchPar) Empty() bool {
	return p.Pattern == ""
}

// Equal reports whether two SearchPars describe the same search. History
// deduplication (SearchHistory) keys on Pattern alone, per spec: "adding a
// pattern already present moves it to the front; options of the older
// copy are discarded" — this method is for components that need an exact
// comparison including options (e.g. highlight rule identity checks).
func (p SearchPar) Equal(o SearchPar) bool {
	return p.Pattern == o.Pattern && p.Regexp == o.Regexp && p.MatchCase == o.MatchCase
}

// PatternStyle selects a fill pattern for a FormatSpec background or
// foreground, independent of the actual color.
type PatternStyle int

const (
	PatternNone PatternStyle = iota
	PatternSolid
	PatternHatched
	PatternDotted
)

// FormatSpec is a declarative set of visual attributes. Every field is a
// pointer or carries its own "set" flag so that two FormatSpecs can be
// composed field-wise: a field left unset in the later spec does not
// shadow the field already set by an earlier one.
type FormatSpec struct {
	BgColor      *string
	FgColor      *string
	BgStyle      *PatternStyle
	FgStyle      *PatternStyle
	OutlineColor *string
	Font         *string
	Bold         *bool
	Italic       *bool
	Underline    *bool
	Strikeout    *bool
}

// Merge composes two FormatSpecs, with fields explicitly set in `over`
// overriding the receiver's corresponding field. The receiver is not
// mutated; a new FormatSpec is returned.
func (f FormatSpec) Merge(over FormatSpec) FormatSpec {
	out := f
	if over.BgColor != nil {
		out.BgColor = over.BgColor
	}
	if over.FgColor != nil {
		out.FgColor = over.FgColor
	}
	if over.BgStyle != nil {
		out.BgStyle = over.BgStyle
	}
	if over.FgStyle != nil {
		out.FgStyle = over.FgStyle
	}
	if over.OutlineColor != nil {
		out.OutlineColor = over.OutlineColor
	}
	if over.Font != nil {
		out.Font = over.Font
	}
	if over.Bold != nil {
		out.Bold = over.Bold
	}
	if over.Italic != nil {
		out.Italic = over.Italic
	}
	if over.Underline != nil {
		out.Underline = over.Underline
	}
	if over.Strikeout != nil {
		out.Strikeout = over.Strikeout
	}
	return out
}

// Reserved highlight rule ids, stable for the lifetime of a session.
const (
	RuleIDSearchResult = 0 // ephemeral "search result" highlight driven by IncSearchFSM
	RuleIDSearchIncr   = 1 // "search increment" (per-character match while typing)
	RuleIDBookmark     = 2 // bookmark highlight
	RuleIDFirstUser    = 3 // first id available for user-configured rules
)

// Direction constrains a scan or search to all of the document, or to one
// side of a cursor position.
type Direction int

const (
	DirAll Direction = iota
	DirForward
	DirBackward
)
