package recovery

import (
	"regexp"
	"strings"
)

var (
	blockCommentRE  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	trailingCommaRE = regexp.MustCompile(`,(\s*[\]}])`)
)

// Sanitize normalizes untrusted model text towards parseable JSON.
// It is total and deterministic: any input yields some output.
// Steps, in order: full-line comments, same-line trailing comments,
// block comments, control characters, trailing commas, surrounding
// whitespace.
func Sanitize(raw string) string {
	s := stripLineComments(raw)
	s = blockCommentRE.ReplaceAllString(s, "")
	s = stripControlChars(s)
	s = trailingCommaRE.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}

// stripLineComments removes // comments, both full-line and trailing.
// The trailing form is a heuristic, not a parser: a quoted value that
// happens to contain "//" after a non-colon character is clipped too.
// Known, accepted limitation.
func stripLineComments(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "//") {
			continue
		}
		if idx := lineCommentIndex(line); idx >= 0 {
			line = strings.TrimRight(line[:idx], " \t")
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// lineCommentIndex finds a trailing // not preceded by ':' so protocol
// separators such as "https://" survive.
func lineCommentIndex(line string) int {
	for i := 0; i+1 < len(line); i++ {
		if line[i] != '/' || line[i+1] != '/' {
			continue
		}
		if i > 0 && (line[i-1] == ':' || line[i-1] == '/') {
			continue
		}
		return i
	}
	return -1
}

// stripControlChars drops control characters other than ordinary
// whitespace. Models occasionally emit raw escape bytes mid-string.
func stripControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\t':
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
