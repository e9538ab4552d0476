package retrieval

import (
	"regexp"
	"strings"
)

// Extraction artifact patterns stripped from chunk text before serialization.
// These come from the PDF/OCR extraction that produced the chunks, not from
// the documents themselves.
var (
	pageMarkerRe = regexp.MustCompile(`(?im)^\s*(página|page|pág\.?)\s*\d+(\s*(de|of)\s*\d+)?\s*$`)
	separatorRe  = regexp.MustCompile(`(?m)^[\s\-_=*·]{4,}$`)
	ocrNoiseRe   = regexp.MustCompile(`[\x{FFFD}\f\v]+`)
	spaceRunRe   = regexp.MustCompile(`[ \t]{2,}`)
	blankRunRe   = regexp.MustCompile(`\n{3,}`)
)

// CleanText strips fixed extraction artifacts (page markers, separator lines,
// OCR noise tokens, repeated footer lines) and collapses redundant whitespace.
func CleanText(text string) string {
	cleaned := ocrNoiseRe.ReplaceAllString(text, " ")
	cleaned = pageMarkerRe.ReplaceAllString(cleaned, "")
	cleaned = separatorRe.ReplaceAllString(cleaned, "")
	cleaned = dropRepeatedLines(cleaned)
	cleaned = spaceRunRe.ReplaceAllString(cleaned, " ")
	cleaned = blankRunRe.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}

// dropRepeatedLines removes duplicate occurrences of short lines that appear
// three or more times, which is the footprint of a per-page footer stamped
// into every extracted page.
func dropRepeatedLines(text string) string {
	lines := strings.Split(text, "\n")

	counts := make(map[string]int)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && len([]rune(trimmed)) <= 80 {
			counts[trimmed]++
		}
	}

	kept := make([]string, 0, len(lines))
	seen := make(map[string]bool)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if counts[trimmed] >= 3 {
			if seen[trimmed] {
				continue
			}
			seen[trimmed] = true
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
