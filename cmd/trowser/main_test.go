package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/trowser/internal/config"
	"github.com/standardbeagle/trowser/internal/pipeloader"
)

func newCliContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()
	fs := flag.NewFlagSet("trowser", flag.ContinueOnError)
	fs.String("tail", "", "")
	fs.String("head", "", "")
	fs.String("rcfile", "", "")
	require.NoError(t, fs.Parse(args))
	return cli.NewContext(cli.NewApp(), fs, nil)
}

func TestParseBufferFlagsDefaultsToHeadMode(t *testing.T) {
	c := newCliContext(t)
	mode, cap, err := parseBufferFlags(c)
	require.NoError(t, err)
	assert.Equal(t, pipeloader.ModeHead, mode)
	assert.Equal(t, config.DefaultHeadCapacity, cap)
}

func TestParseBufferFlagsTail(t *testing.T) {
	c := newCliContext(t, "-tail=500")
	mode, cap, err := parseBufferFlags(c)
	require.NoError(t, err)
	assert.Equal(t, pipeloader.ModeTail, mode)
	assert.Equal(t, int64(500), cap)
}

func TestParseBufferFlagsRejectsBothTailAndHead(t *testing.T) {
	c := newCliContext(t, "-tail=500", "-head=500")
	_, _, err := parseBufferFlags(c)
	assert.Error(t, err)
}

func TestParseBufferFlagsRejectsUnparseableNumber(t *testing.T) {
	c := newCliContext(t, "-head=not-a-number")
	_, _, err := parseBufferFlags(c)
	assert.Error(t, err)
}

func TestSplitLinesKeepsTrailingUnterminatedFragment(t *testing.T) {
	lines := splitLines([]byte("a\nb\nc"))
	require.Len(t, lines, 3)
	assert.Equal(t, "a", string(lines[0]))
	assert.Equal(t, "b", string(lines[1]))
	assert.Equal(t, "c", string(lines[2]))
}

func TestSplitLinesEmptyInput(t *testing.T) {
	assert.Nil(t, splitLines(nil))
}
