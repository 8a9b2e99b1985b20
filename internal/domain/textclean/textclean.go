// Package textclean strips stylesheet noise from page text before it is
// handed to a model. It is a line heuristic, not a CSS parser.
package textclean

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
)

var (
	classRule    = regexp.MustCompile(`^\.[a-zA-Z0-9_-]+\s*{`)
	propertyRule = regexp.MustCompile(`^[a-zA-Z-]+:[a-zA-Z0-9%\s().,-]+;$`)
	unicodeEsc   = regexp.MustCompile(`\\u([0-9a-fA-F]{4})(\\u([0-9a-fA-F]{4}))?`)
)

// Clean returns the kept lines of text.
func Clean(text string) []string {
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		for _, line := range strings.Split(unescapeAll(raw), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || IsNoise(line) {
				continue
			}
			lines = append(lines, line)
		}
	}
	return lines
}

// CleanString is Clean joined with newlines.
func CleanString(text string) string {
	return strings.Join(Clean(text), "\n")
}

// IsNoise reports whether a trimmed line looks like a CSS rule or declaration.
func IsNoise(line string) bool {
	if strings.Contains(line, "{") && strings.Contains(line, "}") {
		return true
	}
	if strings.Contains(line, "@keyframes") {
		return true
	}
	return classRule.MatchString(line) || propertyRule.MatchString(line)
}

// unescapeAll resolves nested escapes like \u005Cu0041 until none are
// left. Every replacing pass shortens s, so the loop ends.
func unescapeAll(s string) string {
	for {
		next := Unescape(s)
		if next == s {
			return s
		}
		s = next
	}
}

// Unescape replaces literal \uXXXX sequences with the characters they
// name, joining UTF-16 surrogate pairs.
func Unescape(s string) string {
	if !strings.Contains(s, `\u`) {
		return s
	}
	return unicodeEsc.ReplaceAllStringFunc(s, func(m string) string {
		sub := unicodeEsc.FindStringSubmatch(m)
		hi := parseHex(sub[1])
		if sub[3] == "" {
			return string(rune(hi))
		}
		lo := parseHex(sub[3])
		if utf16.IsSurrogate(rune(hi)) {
			if r := utf16.DecodeRune(rune(hi), rune(lo)); r != unicode.ReplacementChar {
				return string(r)
			}
		}
		return string(rune(hi)) + string(rune(lo))
	})
}

func parseHex(h string) uint16 {
	v, _ := strconv.ParseUint(h, 16, 16)
	return uint16(v)
}
