package app

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/trowser/internal/bookmarks"
	"github.com/standardbeagle/trowser/internal/trowser"
)

func TestReadBookmarkFileParsesLineAndLabel(t *testing.T) {
	r := strings.NewReader("1 start of request\n3: handler entry\n# a comment\n\n5\n")
	res, err := ReadBookmarkFile(r, 10)
	require.NoError(t, err)
	require.Len(t, res.Loaded, 3)
	assert.Equal(t, trowser.BlockNum(0), res.Loaded[0].Line)
	assert.Equal(t, "start of request", res.Loaded[0].Label)
	assert.Equal(t, trowser.BlockNum(2), res.Loaded[1].Line)
	assert.Equal(t, " handler entry", res.Loaded[1].Label)
	assert.Equal(t, trowser.BlockNum(4), res.Loaded[2].Line)
	assert.Equal(t, "", res.Loaded[2].Label)
	assert.Equal(t, 0, res.SyntaxErrors)
	assert.Equal(t, 0, res.OutOfRange)
}

func TestReadBookmarkFileTalliesSyntaxErrorsAndOutOfRange(t *testing.T) {
	r := strings.NewReader("not a number\n999 way past the end\n2 ok\n")
	res, err := ReadBookmarkFile(r, 5)
	require.NoError(t, err)
	require.Len(t, res.Loaded, 1)
	assert.Equal(t, trowser.BlockNum(1), res.Loaded[0].Line)
	assert.Equal(t, 1, res.SyntaxErrors)
	assert.Equal(t, 1, res.OutOfRange)
}

func TestWriteBookmarkFileFormat(t *testing.T) {
	var buf bytes.Buffer
	entries := []bookmarks.Entry{
		{Line: 0, Label: "first"},
		{Line: 4, Label: "fifth"},
	}
	require.NoError(t, WriteBookmarkFile(&buf, entries))
	assert.Equal(t, "1 first\n5 fifth\n", buf.String())
}

func TestBookmarkFileRoundTrip(t *testing.T) {
	set := bookmarks.New()
	set.Set(0, "alpha")
	set.Set(9, "beta")

	var buf bytes.Buffer
	require.NoError(t, WriteBookmarkFile(&buf, set.Sorted()))

	res, err := ReadBookmarkFile(&buf, 10)
	require.NoError(t, err)
	require.Len(t, res.Loaded, 2)
	assert.Equal(t, trowser.BlockNum(0), res.Loaded[0].Line)
	assert.Equal(t, "alpha", res.Loaded[0].Label)
	assert.Equal(t, trowser.BlockNum(9), res.Loaded[1].Line)
	assert.Equal(t, "beta", res.Loaded[1].Label)
}
