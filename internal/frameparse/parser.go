package frameparse

import (
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/standardbeagle/trowser/internal/textfind"
	"github.com/standardbeagle/trowser/internal/trowser"
)

// Document is the read surface Parser needs.
type Document interface {
	BlockCount() int
	Line(b trowser.BlockNum) ([]byte, bool)
	Generation() trowser.Generation
}

// Parser implements FrameParser (component E). One Parser instance is
// bound to a document and a current Spec; changing either clears the
// cache.
type Parser struct {
	doc  Document
	spec Spec
	gen  trowser.Generation

	valueRe *textfind.CaptureRegex
	frameRe *textfind.CaptureRegex

	cache *frameCache
	group singleflight.Group // collapses concurrent misses on the same block
}

// New creates a Parser with no spec configured (Parse always misses
// until SetSpec is called with a non-empty Spec).
func New(doc Document) *Parser {
	return &Parser{doc: doc, cache: newFrameCache(), gen: doc.Generation()}
}

// SetSpec installs a new extraction spec, clearing the cache per spec.md
// §4.6 "Invalidation": "On any document generation change or spec
// change, cache is cleared."
func (p *Parser) SetSpec(spec Spec) error {
	if spec.Equal(p.spec) {
		return nil
	}
	p.spec = spec
	p.cache.clear()
	p.valueRe = nil
	p.frameRe = nil
	if spec.ValuePattern != "" {
		re, err := textfind.CompileCapture(spec.ValuePattern, true)
		if err != nil {
			return fmt.Errorf("frameparse: compile value pattern: %w", err)
		}
		p.valueRe = re
	}
	if spec.FramePattern != "" {
		re, err := textfind.CompileCapture(spec.FramePattern, true)
		if err != nil {
			return fmt.Errorf("frameparse: compile frame pattern: %w", err)
		}
		p.frameRe = re
	}
	return nil
}

func (p *Parser) checkGeneration() {
	if g := p.doc.Generation(); g != p.gen {
		p.gen = g
		p.cache.clear()
	}
}

// Parse returns the (value, frame) pair for block, per spec.md §4.6. A
// pure function of document contents + spec: repeated calls with
// unchanged inputs return byte-identical results, and clearing the cache
// never changes the result, only its cost.
func (p *Parser) Parse(block trowser.BlockNum) (Result, error) {
	p.checkGeneration()
	if p.spec.Empty() {
		return Result{}, nil
	}

	if e, ok := p.cache.lookup(block); ok {
		if p.spec.algorithm() == algoLinear {
			p.cache.extend(e, block)
		}
		return e.result, nil
	}

	key := fmt.Sprintf("%d:%d", block, p.gen)
	v, err, _ := p.group.Do(key, func() (any, error) {
		// re-check the cache: another caller may have just populated it
		// while we were waiting to be selected as the leader.
		if e, ok := p.cache.lookup(block); ok {
			return e.result, nil
		}
		switch p.spec.algorithm() {
		case algoRange:
			return p.parseRange(block)
		default:
			return p.parseLinear(block)
		}
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

// parseLinear implements spec.md §4.6 "Linear": from the target block,
// scan backward block by block, at most Range blocks. The first block
// matching FramePattern (if set) anchors the frame start and optionally
// contributes the frame text; the first block matching ValuePattern
// within range contributes the value text. The result is cached against
// the anchor block as startLine, open-ended at lastLine == target (later
// extended on hit).
func (p *Parser) parseLinear(block trowser.BlockNum) (Result, error) {
	var res Result
	anchor := block
	haveFrame := p.frameRe == nil
	haveValue := p.valueRe == nil

	limit := block - trowser.BlockNum(p.spec.Range)
	if limit < 0 {
		limit = 0
	}
	for b := block; b >= limit && (!haveFrame || !haveValue); b-- {
		line, ok := p.doc.Line(b)
		if !ok {
			break
		}
		if !haveFrame && p.frameRe != nil && p.frameRe.MatchString(line) {
			anchor = b
			if p.spec.FrameCapture {
				if text, ok := p.frameRe.FindSubmatchString(line); ok {
					res.Frame = text
				}
			}
			haveFrame = true
		}
		if !haveValue && p.valueRe != nil && p.valueRe.MatchString(line) {
			if text, ok := p.valueRe.FindSubmatchString(line); ok {
				res.Value = text
			}
			haveValue = true
			// With no frame pattern configured, the frame-match branch
			// above never runs and anchor would otherwise stay pinned
			// at block — caching [block, block] instead of the whole
			// interval over which this same value applies. The value
			// match line is the correct bound in that case.
			if p.frameRe == nil {
				anchor = b
			}
		}
	}
	p.cache.insert(anchor, block, res)
	return res, nil
}

// parseRange implements spec.md §4.6 "Range": scan backward up to Range
// for FramePattern to find the enclosing frame start (recording any
// intervening ValuePattern match along the way), then scan forward up to
// Range for the next FramePattern to find the frame end; if value wasn't
// found on the backward leg, keep scanning forward for it too. The
// result is cached for the whole frame interval [frameStart, frameEnd).
func (p *Parser) parseRange(block trowser.BlockNum) (Result, error) {
	var res Result
	frameStart := trowser.BlockNum(0)
	haveValue := p.valueRe == nil

	limit := block - trowser.BlockNum(p.spec.Range)
	if limit < 0 {
		limit = 0
	}
	for b := block; b >= limit; b-- {
		line, ok := p.doc.Line(b)
		if !ok {
			break
		}
		if p.frameRe != nil && p.frameRe.MatchString(line) {
			frameStart = b
			if p.spec.FrameCapture {
				if text, ok := p.frameRe.FindSubmatchString(line); ok {
					res.Frame = text
				}
			}
			break
		}
		if !haveValue && p.valueRe != nil && p.valueRe.MatchString(line) {
			if text, ok := p.valueRe.FindSubmatchString(line); ok {
				res.Value = text
			}
			haveValue = true
		}
	}

	frameEnd := trowser.BlockNum(p.doc.BlockCount())
	fwdLimit := block + trowser.BlockNum(p.spec.Range)
	n := trowser.BlockNum(p.doc.BlockCount())
	if fwdLimit > n {
		fwdLimit = n
	}
	for b := block + 1; b < fwdLimit; b++ {
		line, ok := p.doc.Line(b)
		if !ok {
			break
		}
		if p.frameRe != nil && p.frameRe.MatchString(line) {
			frameEnd = b
			break
		}
		if !haveValue && p.valueRe != nil && p.valueRe.MatchString(line) {
			if text, ok := p.valueRe.FindSubmatchString(line); ok {
				res.Value = text
			}
			haveValue = true
		}
	}

	p.cache.insert(frameStart, frameEnd-1, res)
	return res, nil
}

// ClearCache empties the cache without changing the spec, exposed for
// callers that want to force a rescan (e.g. a manual refresh command).
func (p *Parser) ClearCache() {
	p.cache.clear()
}
