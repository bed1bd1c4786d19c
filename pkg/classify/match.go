package classify

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"
)

// normalize folds full-width forms to ASCII and case-folds the result, so
// "ＱＣ", "qc" and "QC" compare equal. Casers are stateful, hence one per call.
func normalize(s string) string {
	return cases.Fold().String(width.Fold.String(s))
}

func isASCIIAlnum(r rune) bool {
	return r < utf8.RuneSelf && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
}

// find returns the byte offset of the first occurrence of phrase in text, or
// -1. Both must already be normalized. A phrase edge that is an ASCII letter
// or digit only matches on a word boundary, so "po" does not match "report";
// CJK edges match anywhere.
func find(text, phrase string) int {
	if phrase == "" {
		return -1
	}
	first, _ := utf8.DecodeRuneInString(phrase)
	last, _ := utf8.DecodeLastRuneInString(phrase)
	checkLeft, checkRight := isASCIIAlnum(first), isASCIIAlnum(last)

	offset := 0
	for offset <= len(text) {
		i := strings.Index(text[offset:], phrase)
		if i < 0 {
			return -1
		}
		start := offset + i
		end := start + len(phrase)
		ok := true
		if checkLeft && start > 0 {
			prev, _ := utf8.DecodeLastRuneInString(text[:start])
			ok = !isASCIIAlnum(prev)
		}
		if ok && checkRight && end < len(text) {
			next, _ := utf8.DecodeRuneInString(text[end:])
			ok = !isASCIIAlnum(next)
		}
		if ok {
			return start
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
	return -1
}
