// Package identity canonicalizes raw recipient phone numbers and rewrites
// tracking links embedded in rendered messages.
//
// Canonical identities use a +<countrycode><number> shape. Matching against
// the delivery ledger is done on the digits-only tail, not the canonical
// string, because the ledger records identities with its own formatting.
package identity

import (
	"regexp"
	"strings"
)

var (
	plusIntlRe   = regexp.MustCompile(`^\+\d{8,20}$`)
	nonDigitRe   = regexp.MustCompile(`\D`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Normalize converts a raw phone-number string into canonical form.
// Returns ("", false) when the input cannot be normalized.
//
// Rules, first match wins:
//  1. "+" followed by 8-20 digits (ignoring whitespace): kept as-is.
//  2. exactly 11 digits starting with "1": "+" prefixed.
//  3. exactly 10 digits not starting with "0": "+1" prefixed.
//  4. 8-15 digits not starting with "0": "+" prefixed.
func Normalize(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	if plusIntlRe.MatchString(strings.ReplaceAll(s, " ", "")) {
		return whitespaceRe.ReplaceAllString(s, ""), true
	}
	digits := nonDigitRe.ReplaceAllString(s, "")
	switch {
	case len(digits) == 11 && strings.HasPrefix(digits, "1"):
		return "+" + digits, true
	case len(digits) == 10 && !strings.HasPrefix(digits, "0"):
		return "+1" + digits, true
	case len(digits) >= 8 && len(digits) <= 15 && !strings.HasPrefix(digits, "0"):
		return "+" + digits, true
	}
	return "", false
}

// DigitsOnly strips every non-digit rune from s.
func DigitsOnly(s string) string {
	return nonDigitRe.ReplaceAllString(s, "")
}
