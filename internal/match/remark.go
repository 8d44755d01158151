package match

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// "remove <X>" up to a following " -", end of line, or end of text.
	// This is the canonical phrasing written back on work order completion:
	// "remove Part-C - WO#123456 - 2026-02-21 12:00:00".
	removeRe = regexp.MustCompile(`(?i)remove\s+(.*?)(?:\s+-|\s*$|\s*\n)`)

	// Free-form phrasings, recognized only by the opt-in predicate:
	// "Missing Part-C", "Part-C is missing", "... Part-C is missing from ...".
	missingPrefixRe = regexp.MustCompile(`(?i)missing[:\s]+(.*?)(?:\s+-|[.,;!?]|\s*$|\s*\n)`)
	missingSuffixRe = regexp.MustCompile(`(?i)([^\s,.;]+)\s+is\s+missing`)
)

// Normalize strips all whitespace from a part code and lowercases it,
// so "PART-A", "part-a" and "Part - A" compare equal. Note that "part 1"
// and "part1" collapse to the same string as well.
func Normalize(code string) string {
	var b strings.Builder
	for _, r := range code {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// BaseSKU strips the "*N" duplicate suffix from a stocked SKU.
func BaseSKU(sku string) string {
	if i := strings.Index(sku, "*"); i >= 0 {
		return sku[:i]
	}
	return sku
}

// Disqualifier decides whether an accessory's remark history rules it
// out for a given part code. Remarks are passed newest-first, but every
// entry is scanned: one historical removal fact disqualifies the part
// permanently.
type Disqualifier func(remarks []string, partCode string) bool

// NewDisqualifier returns the predicate wired into the resolver. The
// strict "remove <X> -" pattern is always recognized; free-form
// "missing" phrasings only when recognizeMissing is set.
func NewDisqualifier(recognizeMissing bool) Disqualifier {
	if recognizeMissing {
		return RemoveOrMissingPattern
	}
	return RemovePattern
}

// RemovePattern recognizes only the structured "remove <X> -" phrasing.
// Statements like "PART-A is missing" are deliberately ignored here.
func RemovePattern(remarks []string, partCode string) bool {
	return scan(remarks, partCode, removeRe)
}

// RemoveOrMissingPattern additionally treats "Missing <X>" and
// "<X> is missing" statements as removal facts.
func RemoveOrMissingPattern(remarks []string, partCode string) bool {
	return scan(remarks, partCode, removeRe, missingPrefixRe, missingSuffixRe)
}

func scan(remarks []string, partCode string, patterns ...*regexp.Regexp) bool {
	want := Normalize(partCode)
	if want == "" {
		return false
	}
	for _, content := range remarks {
		if content == "" {
			continue
		}
		for _, re := range patterns {
			for _, m := range re.FindAllStringSubmatch(content, -1) {
				// Full normalized equality only: "part-ab" never blocks "part-a".
				if Normalize(m[1]) == want {
					return true
				}
			}
		}
	}
	return false
}
