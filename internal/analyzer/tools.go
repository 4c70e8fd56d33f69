package analyzer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// lower folds s to lower case. A Caser keeps state, so one is created per call.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// CountTools counts whole-word, case-insensitive mentions of each tool in
// text. Tools that never occur are left out.
func CountTools(text string, tools []string) map[string]int {
	folded := lower(text)
	found := make(map[string]int)
	for _, tool := range tools {
		if strings.TrimSpace(tool) == "" {
			continue
		}
		if n := countWord(folded, lower(tool)); n > 0 {
			found[tool] = n
		}
	}
	return found
}

// countWord counts non-overlapping occurrences of word in text that are
// not part of a longer word.
func countWord(text, word string) int {
	n := 0
	for i := 0; i <= len(text)-len(word); {
		j := strings.Index(text[i:], word)
		if j < 0 {
			break
		}
		start := i + j
		end := start + len(word)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			n++
			i = end
			continue
		}
		i = start + 1
	}
	return n
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
