package app

import (
	"bufio"
	"fmt"
	"io"

	apperrors "github.com/standardbeagle/trowser/internal/errors"
	"github.com/standardbeagle/trowser/internal/trowser"
)

// ExportFormat selects a filter-list export rendering, per spec.md §6.
type ExportFormat int

const (
	// ExportLineNumbers writes "<line>\n" for every listed block.
	ExportLineNumbers ExportFormat = iota
	// ExportNumberedText writes "<line>\t<text>\n" for every listed block.
	ExportNumberedText
)

// lineReader is the read surface ExportFilterList needs from the
// document: the text of a block, by number.
type lineReader interface {
	Line(b trowser.BlockNum) ([]byte, bool)
}

// ExportFilterList writes blocks (typically filterlist.List.Blocks(), in
// ascending order) to w in the given format. Line numbers are 1-based per
// spec.md §6.
func ExportFilterList(w io.Writer, doc lineReader, blocks []trowser.BlockNum, format ExportFormat) error {
	bw := bufio.NewWriter(w)
	for _, b := range blocks {
		switch format {
		case ExportNumberedText:
			text, _ := doc.Line(b)
			if _, err := fmt.Fprintf(bw, "%d\t%s\n", b+1, text); err != nil {
				return apperrors.NewIOError("export filter list", "", err)
			}
		default:
			if _, err := fmt.Fprintf(bw, "%d\n", b+1); err != nil {
				return apperrors.NewIOError("export filter list", "", err)
			}
		}
	}
	if err := bw.Flush(); err != nil {
		return apperrors.NewIOError("export filter list", "", err)
	}
	return nil
}
