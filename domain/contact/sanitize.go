package contact

import (
	"strings"

	"github.com/finprofile/contact-api/pkg/constants"
)

var angleBracketReplacer = strings.NewReplacer("<", "", ">", "")

// SanitizeText strips angle brackets, trims surrounding whitespace and caps
// the value at the maximum field length. It never rejects input; validation
// has already run by the time a value reaches this function. The result is
// stable under repeated application.
func SanitizeText(value string) string {
	value = angleBracketReplacer.Replace(value)
	value = strings.TrimSpace(value)

	runes := []rune(value)
	if len(runes) > constants.MaxSanitizedFieldLength {
		value = string(runes[:constants.MaxSanitizedFieldLength])
		// Truncation can expose trailing whitespace.
		value = strings.TrimSpace(value)
	}

	return value
}
