package textfind

import "github.com/coregx/coregex"

// CaptureRegex is the same coregex-backed matching textfind's internal
// matcher uses, exported for components that need capture-group text
// rather than just a match span (FrameParser, component E). Case-fold is
// implemented the same way as the unexported matcher: by prefixing the
// pattern with the inline (?i) modifier, since coregex.Compile has no
// case-fold flag.
type CaptureRegex struct {
	re *coregex.Regex
}

// CompileCapture compiles pattern for matchCase matching. An invalid
// pattern returns a non-nil error; callers treat that the same as "rule
// disabled", per the specification's handling of bad regex everywhere
// else.
func CompileCapture(pattern string, matchCase bool) (*CaptureRegex, error) {
	if !matchCase {
		pattern = "(?i)" + pattern
	}
	re, err := coregex.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &CaptureRegex{re: re}, nil
}

// FindSubmatchString returns the first capture group's text (group 1),
// if the pattern matches line and has at least one capturing group.
// Falls back to the whole match text when the pattern has no capture
// group at all.
func (c *CaptureRegex) FindSubmatchString(line []byte) (text string, ok bool) {
	idx := c.re.FindStringSubmatchIndex(string(line))
	if idx == nil {
		return "", false
	}
	if len(idx) >= 4 && idx[2] >= 0 && idx[3] >= 0 {
		return string(line[idx[2]:idx[3]]), true
	}
	return string(line[idx[0]:idx[1]]), true
}

// MatchString reports whether the pattern matches line at all, without
// extracting any capture group.
func (c *CaptureRegex) MatchString(line []byte) bool {
	return c.re.Match(line)
}
