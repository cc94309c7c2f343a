// Package config implements the JSON configuration file described in
// spec.md §6: a platform-appropriate user config path, top-level keys
// owned by individual components, version-gated loading that falls
// back to defaults rather than failing, and a debounced, fingerprinted
// save path (see save.go).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/standardbeagle/trowser/internal/trowser"
)

// CurrentVersion is written to xx_trowser_version on save.
// CompatVersion is the oldest version still accepted on load.
const (
	CurrentVersion = 1
	CompatVersion  = 1
)

// DefaultHeadCapacity matches spec.md §6's "-h <N> ... default 20 MiB".
const DefaultHeadCapacity int64 = 20 * 1024 * 1024

// DefaultFileName is the config file's default name in the platform
// config directory, per spec.md §6.
const DefaultFileName = ".trowserc.qt"

// HistoryEntry is one SearchHistory entry, wire-encoded as the 3-tuple
// [pattern, regexp, case] spec.md §6 specifies for main_search.tlb_history.
type HistoryEntry struct {
	Pattern string
	Regexp  bool
	Case    bool
}

func (h HistoryEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]any{h.Pattern, h.Regexp, h.Case})
}

func (h *HistoryEntry) UnmarshalJSON(data []byte) error {
	var tuple []any
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	if len(tuple) != 3 {
		return fmt.Errorf("config: tlb_history entry needs 3 elements, got %d", len(tuple))
	}
	pat, _ := tuple[0].(string)
	reg, _ := tuple[1].(bool)
	cs, _ := tuple[2].(bool)
	*h = HistoryEntry{Pattern: pat, Regexp: reg, Case: cs}
	return nil
}

// MainSearch is the top-level search-bar sub-section.
type MainSearch struct {
	History      []HistoryEntry `json:"tlb_history"`
	Case         bool            `json:"tlb_case"`
	Regexp       bool            `json:"tlb_regexp"`
	HighlightAll bool            `json:"tlb_hall"`
	HistMaxLen   int             `json:"tlb_hist_maxlen"`
}

// HighlightEntry is one persisted HighlightRule, field names matching
// spec.md §6's highlight array exactly.
type HighlightEntry struct {
	SearchPattern   string `json:"search_pattern"`
	SearchRegExp    bool   `json:"search_reg_exp"`
	SearchMatchCase bool   `json:"search_match_case"`
	BgColor         string `json:"bg_col,omitempty"`
	FgColor         string `json:"fg_col,omitempty"`
	BgStyle         int    `json:"bg_style,omitempty"`
	FgStyle         int    `json:"fg_style,omitempty"`
	FontUnderline   bool   `json:"font_underline,omitempty"`
	FontBold        bool   `json:"font_bold,omitempty"`
	FontItalic      bool   `json:"font_italic,omitempty"`
	FontOverstrike  bool   `json:"font_overstrike,omitempty"`
	Font            string `json:"font,omitempty"`
}

// SearchList is the filter-list window's persisted state plus its
// FrameParser configuration.
type SearchList struct {
	WindowWidth  int    `json:"win_w,omitempty"`
	WindowHeight int    `json:"win_h,omitempty"`
	ValuePattern string `json:"value_pattern,omitempty"`
	ValueHeader  string `json:"value_header,omitempty"`
	FramePattern string `json:"frame_pattern,omitempty"`
	FrameHeader  string `json:"frame_header,omitempty"`
	FrameForward bool   `json:"frame_forward,omitempty"`
	FrameCapture bool   `json:"frame_capture,omitempty"`
	Range        int    `json:"range,omitempty"`
}

// Config is the full top-level JSON object.
type Config struct {
	Version        int             `json:"xx_trowser_version"`
	MainSearch     MainSearch      `json:"main_search"`
	Highlight      []HighlightEntry `json:"highlight"`
	SearchList     SearchList      `json:"search_list"`
	LoadBufSizeLSB uint32          `json:"load_buf_size_lsb"`
	LoadBufSizeMSB uint32          `json:"load_buf_size_msb"`
}

// BufferCapacity reassembles the two 32-bit halves spec.md §6 stores
// the 64-bit byte cap as.
func (c *Config) BufferCapacity() int64 {
	return int64(c.LoadBufSizeMSB)<<32 | int64(c.LoadBufSizeLSB)
}

// SetBufferCapacity splits n back into its two persisted halves.
func (c *Config) SetBufferCapacity(n int64) {
	c.LoadBufSizeLSB = uint32(n)
	c.LoadBufSizeMSB = uint32(n >> 32)
}

// Default returns the configuration a fresh install, or a load failure
// that falls back rather than erroring out, should start from.
func Default() *Config {
	cfg := &Config{
		Version: CurrentVersion,
		MainSearch: MainSearch{
			HistMaxLen: 50, // matches searchhist.MaxEntries
		},
	}
	cfg.SetBufferCapacity(DefaultHeadCapacity)
	return cfg
}

// configSchema loosely shapes the top-level object: per-section content
// is owned by individual components and validated, if at all, by them;
// this schema only catches a malformed top-level shape (wrong type for
// a known key), matching the teacher's "log + default on sub-section
// failure" policy rather than rejecting the whole file over one bad
// key.
var configSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"xx_trowser_version": {Type: "integer"},
		"main_search":        {Type: "object"},
		"highlight":          {Type: "array"},
		"search_list":        {Type: "object"},
		"load_buf_size_lsb":  {Type: "integer"},
		"load_buf_size_msb":  {Type: "integer"},
	},
}

// Load reads and parses path, falling back to Default() (never erroring
// out the caller) for a missing file, malformed JSON, or a version
// outside [CompatVersion, CurrentVersion]; a schema violation is logged
// and only the sub-sections that fail to decode keep their defaults —
// each logged via slog.Warn, per spec.md §6: "On load, an unknown
// version prints a warning and starts with defaults."
func Load(path string) *Config {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("config: could not read file, using defaults", "path", path, "error", err)
		}
		return Default()
	}
	return parse(data)
}

func parse(data []byte) *Config {
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		slog.Warn("config: malformed JSON, using defaults", "error", err)
		return Default()
	}
	resolved, err := configSchema.Resolve(nil)
	if err != nil {
		slog.Warn("config: schema could not be resolved, using defaults", "error", err)
		return Default()
	}
	if err := resolved.Validate(generic); err != nil {
		slog.Warn("config: schema validation failed, using defaults for invalid sections", "error", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		slog.Warn("config: malformed top-level object, using defaults", "error", err)
		return Default()
	}

	cfg := Default()

	if v, ok := raw["xx_trowser_version"]; ok {
		var version int
		if err := json.Unmarshal(v, &version); err == nil {
			if version < CompatVersion || version > CurrentVersion {
				slog.Warn("config: version outside compatible range, using defaults",
					"version", version, "compat", CompatVersion, "current", CurrentVersion)
				return Default()
			}
			cfg.Version = version
		}
	}

	loadSection(raw, "main_search", &cfg.MainSearch)
	loadSection(raw, "search_list", &cfg.SearchList)

	if v, ok := raw["highlight"]; ok {
		var highlight []HighlightEntry
		if err := json.Unmarshal(v, &highlight); err != nil {
			slog.Warn("config: highlight section invalid, using defaults", "error", err)
		} else {
			cfg.Highlight = highlight
		}
	}
	if v, ok := raw["load_buf_size_lsb"]; ok {
		json.Unmarshal(v, &cfg.LoadBufSizeLSB)
	}
	if v, ok := raw["load_buf_size_msb"]; ok {
		json.Unmarshal(v, &cfg.LoadBufSizeMSB)
	}

	return cfg
}

// loadSection decodes raw[key] into out in place, logging and leaving
// out's current (default) value untouched on failure — a malformed
// sub-section never fails the whole load.
func loadSection[T any](raw map[string]json.RawMessage, key string, out *T) {
	v, ok := raw[key]
	if !ok {
		return
	}
	if err := json.Unmarshal(v, out); err != nil {
		slog.Warn("config: sub-section invalid, using defaults", "section", key, "error", err)
	}
}

// HistoryEntriesFrom converts a SearchHistory snapshot (searchhist.History.All())
// to its persisted form, for callers wiring searchhist.History to this package.
func HistoryEntriesFrom(pars []trowser.SearchPar) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(pars))
	for _, p := range pars {
		out = append(out, HistoryEntry{Pattern: p.Pattern, Regexp: p.Regexp, Case: p.MatchCase})
	}
	return out
}

// SearchPars converts a loaded tlb_history back into the SearchPar form
// searchhist.History.AddEntry expects, in file order (oldest-first entries
// should be replayed first so the most-recently-used one ends up at the
// front, matching History's MRU semantics).
func (m MainSearch) SearchPars() []trowser.SearchPar {
	out := make([]trowser.SearchPar, 0, len(m.History))
	for _, h := range m.History {
		out = append(out, trowser.SearchPar{Pattern: h.Pattern, Regexp: h.Regexp, MatchCase: h.Case})
	}
	return out
}
