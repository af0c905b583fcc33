package webhook

import (
	"regexp"
	"strings"
)

// phonePattern matches phone-like runs permissively: an optional leading +,
// then digits with common separators. Candidates are validated by digit
// count afterwards.
var phonePattern = regexp.MustCompile(`\+?\d[\d\s().\-]{5,}\d`)

const minPhoneDigits = 7

// ExtractPhone scans free text for the first phone-like run of at least 7
// digits and normalizes it by stripping separators, keeping a leading + when
// the raw match had one. Returns "" when nothing qualifies.
func ExtractPhone(text string) string {
	for _, match := range phonePattern.FindAllString(text, -1) {
		digits := stripNonDigits(match)
		if len(digits) < minPhoneDigits {
			continue
		}

		if strings.HasPrefix(match, "+") {
			return "+" + digits
		}

		return digits
	}

	return ""
}

func stripNonDigits(s string) string {
	var b strings.Builder

	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	return b.String()
}
