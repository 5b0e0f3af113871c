package email

import (
	"strings"
	"unicode"
)

// GreetingName picks the name used in notification salutations: the given
// first name when present, otherwise a capitalized token from the address's
// local part, otherwise "Instructor".
func GreetingName(firstName, address string) string {
	if name := strings.TrimSpace(firstName); name != "" {
		return name
	}

	localPart := address
	if at := strings.IndexByte(address, '@'); at > 0 {
		localPart = address[:at]
	}
	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+' || unicode.IsDigit(r)
	})
	if len(parts) == 0 {
		return "Instructor"
	}
	return capitalize(parts[0])
}

// Mask hides most of the local part, e.g. "a***@example.com". Used in logs.
func Mask(address string) string {
	at := strings.IndexByte(address, '@')
	if at <= 0 {
		return "***"
	}
	return address[:1] + "***" + address[at:]
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
