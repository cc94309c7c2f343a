// Package app wires every component into the central context struct
// (component-independent glue: bookmark file I/O, filter-list export,
// CLI-facing config load/save) per spec.md §6, which classifies all of
// this as "thin glue" outside the core component boundary.
package app

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"

	apperrors "github.com/standardbeagle/trowser/internal/errors"
	"github.com/standardbeagle/trowser/internal/bookmarks"
	"github.com/standardbeagle/trowser/internal/trowser"
)

// bookmarkLineRe matches one bookmark-file line: a 1-based line number,
// optionally followed by a separator and a free-form label, per spec.md
// §6: "^(\d+)(?:[ \t:.,;='/](.*))?$".
var bookmarkLineRe = regexp.MustCompile(`^(\d+)(?:[ \t:.,;='/](.*))?$`)

// BookmarkFileResult is the outcome of reading a bookmark file: the
// entries that parsed and were in range, plus separate tallies for the
// two kinds of problem line so the caller can offer "ignore syntax
// errors and continue" per spec.md §6.
type BookmarkFileResult struct {
	Loaded       []bookmarks.Entry
	SyntaxErrors int
	OutOfRange   int
}

// ReadBookmarkFile parses one bookmark per non-empty, non-comment line.
// blockCount bounds the valid line-number range [1, blockCount]; a parsed
// line number outside that range is tallied as out-of-range rather than
// loaded. Empty lines and lines starting with '#' are ignored entirely.
func ReadBookmarkFile(r io.Reader, blockCount int) (*BookmarkFileResult, error) {
	res := &BookmarkFileResult{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] == '#' {
			continue
		}
		m := bookmarkLineRe.FindStringSubmatch(line)
		if m == nil {
			res.SyntaxErrors++
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			res.SyntaxErrors++
			continue
		}
		if n < 1 || n > blockCount {
			res.OutOfRange++
			continue
		}
		res.Loaded = append(res.Loaded, bookmarks.Entry{
			Line:  trowser.BlockNum(n - 1),
			Label: m[2],
		})
	}
	if err := scanner.Err(); err != nil {
		return res, apperrors.NewIOError("read bookmark file", "", err)
	}
	return res, nil
}

// WriteBookmarkFile writes one "<1-based-line> <label>\n" line per entry,
// in the order given (callers pass bookmarks.Set.Sorted() for a
// deterministic, line-ascending file).
func WriteBookmarkFile(w io.Writer, entries []bookmarks.Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		if _, err := fmt.Fprintf(bw, "%d %s\n", e.Line+1, e.Label); err != nil {
			return apperrors.NewIOError("write bookmark file", "", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return apperrors.NewIOError("write bookmark file", "", err)
	}
	return nil
}
