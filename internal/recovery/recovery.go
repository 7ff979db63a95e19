package recovery

import (
	"encoding/json"
	"strings"
)

// Record is a loosely typed insight candidate extracted from model text.
// Validation and normalization happen downstream.
type Record struct {
	Title   string
	Message string
	Type    string
	Icon    string
	Color   string
}

// Defaults injected when repairing a truncated trailing object.
const (
	defaultType  = "info"
	defaultIcon  = "information-circle-outline"
	defaultColor = "#2196F3"
)

// Recover extracts structured records from untrusted model text. It is
// total: it never fails, and the worst case is an empty slice, which
// callers must treat as "no data". Strategies are tried in strict
// precedence; the first that yields parseable records wins.
func Recover(raw string) []Record {
	text := Sanitize(raw)
	if text == "" {
		return nil
	}

	// A trailing comma or quote, or a missing closing bracket, means the
	// completion was cut off; a direct parse attempt cannot succeed.
	if !truncated(text) {
		if records, ok := parseArray(text); ok {
			return records
		}
	}

	if span, ok := balancedArraySpan(text); ok {
		if records, ok := parseArray(span); ok {
			return records
		}
	}

	if repaired, ok := repairTruncatedArray(text); ok {
		if records, ok := parseArray(repaired); ok {
			return records
		}
	}

	if span, ok := balancedObjectSpan(text); ok {
		if record, ok := parseObject(span); ok {
			return []Record{record}
		}
	}

	if inner, ok := fencedBlock(raw); ok {
		cleaned := Sanitize(inner)
		if records, ok := parseArray(cleaned); ok {
			return records
		}
		if record, ok := parseObject(cleaned); ok {
			return []Record{record}
		}
	}

	if trimmed, ok := heuristicTrim(text); ok {
		if records, ok := parseArray(trimmed); ok {
			return records
		}
		if record, ok := parseObject(trimmed); ok {
			return []Record{record}
		}
	}

	return nil
}

// truncated reports signs of an incomplete completion.
func truncated(text string) bool {
	if strings.HasSuffix(text, ",") || strings.HasSuffix(text, "\"") {
		return true
	}
	return !strings.HasSuffix(text, "]") && !strings.HasSuffix(text, "}")
}

func parseArray(text string) ([]Record, bool) {
	var items []map[string]any
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, false
	}
	records := make([]Record, 0, len(items))
	for _, item := range items {
		records = append(records, recordFromMap(item))
	}
	return records, true
}

func parseObject(text string) (Record, bool) {
	var item map[string]any
	if err := json.Unmarshal([]byte(text), &item); err != nil {
		return Record{}, false
	}
	return recordFromMap(item), true
}

func recordFromMap(item map[string]any) Record {
	return Record{
		Title:   stringField(item, "title"),
		Message: stringField(item, "message"),
		Type:    stringField(item, "type"),
		Icon:    stringField(item, "icon"),
		Color:   stringField(item, "color"),
	}
}

func stringField(item map[string]any, key string) string {
	if value, ok := item[key].(string); ok {
		return value
	}
	return ""
}

// balancedArraySpan returns the first balanced [ ... ] span whose first
// element is an object. Scanning is string-aware so brackets inside
// quoted values do not affect depth.
func balancedArraySpan(text string) (string, bool) {
	start := strings.Index(text, "[")
	if start < 0 {
		return "", false
	}
	interior := strings.TrimSpace(text[start+1:])
	if !strings.HasPrefix(interior, "{") {
		return "", false
	}
	end, ok := scanBalanced(text, start, '[', ']')
	if !ok {
		return "", false
	}
	return text[start : end+1], true
}

// balancedObjectSpan returns the first balanced { ... } span.
func balancedObjectSpan(text string) (string, bool) {
	start := strings.Index(text, "{")
	if start < 0 {
		return "", false
	}
	end, ok := scanBalanced(text, start, '{', '}')
	if !ok {
		return "", false
	}
	return text[start : end+1], true
}

// scanBalanced walks text from start, tracking string and escape state,
// and returns the index of the closer matching the opener at start.
func scanBalanced(text string, start int, open, close byte) (int, bool) {
	depth := 0
	inString := false
	escape := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			if escape {
				escape = false
				continue
			}
			switch c {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// repairTruncatedArray tries to complete an unterminated [ { ... span:
// drop dangling fragments, inject defaults for the commonly missing
// trailing fields, then close the open object and array.
func repairTruncatedArray(text string) (string, bool) {
	start := strings.Index(text, "[")
	if start < 0 {
		return "", false
	}
	s := strings.TrimSpace(text[start:])
	if !strings.HasPrefix(strings.TrimSpace(s[1:]), "{") {
		return "", false
	}

	s, ok := trimDanglingTail(s)
	if !ok {
		return "", false
	}

	opens := openDelimiters(s)
	if len(opens) == 0 {
		// Already balanced; nothing to repair here.
		return "", false
	}

	if opens[len(opens)-1] == '{' {
		s += missingDefaults(s)
	}
	for i := len(opens) - 1; i >= 0; i-- {
		switch opens[i] {
		case '{':
			s += "}"
		case '[':
			s += "]"
		}
	}
	return s, true
}

// trimDanglingTail removes an unterminated string literal, orphaned keys
// and trailing separators so the remainder ends on a complete value.
func trimDanglingTail(s string) (string, bool) {
	if unbalancedQuotes(s) {
		cut := strings.LastIndexByte(s, '"')
		if cut < 0 {
			return "", false
		}
		s = s[:cut]
	}
	for {
		s = strings.TrimRight(s, " \t\r\n")
		if s == "" {
			return "", false
		}
		switch s[len(s)-1] {
		case ',':
			s = s[:len(s)-1]
		case ':':
			// Drop the orphaned "key": fragment as well.
			rest := strings.TrimRight(s[:len(s)-1], " \t\r\n")
			if !strings.HasSuffix(rest, "\"") {
				return "", false
			}
			open := strings.LastIndexByte(rest[:len(rest)-1], '"')
			if open < 0 {
				return "", false
			}
			s = rest[:open]
		default:
			return s, true
		}
	}
}

func unbalancedQuotes(s string) bool {
	count := 0
	escape := false
	for i := 0; i < len(s); i++ {
		if escape {
			escape = false
			continue
		}
		switch s[i] {
		case '\\':
			escape = true
		case '"':
			count++
		}
	}
	return count%2 == 1
}

// openDelimiters returns the stack of unclosed brackets, outermost first.
func openDelimiters(s string) []byte {
	var stack []byte
	inString := false
	escape := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			if escape {
				escape = false
				continue
			}
			switch c {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[', '{':
			stack = append(stack, c)
		case ']', '}':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	return stack
}

// missingDefaults builds the field injection for the open trailing object.
func missingDefaults(s string) string {
	body := s
	if idx := strings.LastIndexByte(s, '{'); idx >= 0 {
		body = s[idx+1:]
	}
	var parts []string
	if !strings.Contains(body, "\"type\"") {
		parts = append(parts, `"type":"`+defaultType+`"`)
	}
	if !strings.Contains(body, "\"icon\"") {
		parts = append(parts, `"icon":"`+defaultIcon+`"`)
	}
	if !strings.Contains(body, "\"color\"") {
		parts = append(parts, `"color":"`+defaultColor+`"`)
	}
	if len(parts) == 0 {
		return ""
	}
	joined := strings.Join(parts, ",")
	if strings.TrimSpace(body) == "" {
		return joined
	}
	return "," + joined
}

// fencedBlock returns the interior of the first ``` fence that carries
// array or object content.
func fencedBlock(raw string) (string, bool) {
	start := strings.Index(raw, "```")
	if start < 0 {
		return "", false
	}
	rest := raw[start+3:]
	// Skip an optional language tag such as "json".
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 && !strings.ContainsAny(rest[:nl], "[{") {
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	inner := strings.TrimSpace(rest[:end])
	if !strings.ContainsAny(inner, "[{") {
		return "", false
	}
	return inner, true
}

// Introductory phrases models commonly put before the payload.
var introPhrases = []string{
	"here are",
	"here's",
	"here is",
	"sure",
	"of course",
	"certainly",
	"below is",
	"these are",
}

// heuristicTrim strips leading prose before the first bracket and
// trailing prose after the last matching closer.
func heuristicTrim(text string) (string, bool) {
	working := text
	lower := strings.ToLower(working)
	for _, phrase := range introPhrases {
		if strings.HasPrefix(lower, phrase) {
			if idx := strings.IndexAny(working, "[{"); idx >= 0 {
				working = working[idx:]
			}
			break
		}
	}

	first := strings.IndexAny(working, "[{")
	if first < 0 {
		return "", false
	}
	var last int
	if working[first] == '[' {
		last = strings.LastIndexByte(working, ']')
	} else {
		last = strings.LastIndexByte(working, '}')
	}
	if last <= first {
		return "", false
	}
	return working[first : last+1], true
}
