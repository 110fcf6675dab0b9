package storefront

import (
	"strings"
	"unicode"
)

// CleanType strips decorative symbols such as emoji from a vehicle type label.
func CleanType(s string) string {
	stripped := strings.Map(func(r rune) rune {
		if isDecoration(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(stripped), " ")
}

func isDecoration(r rune) bool {
	switch {
	case unicode.Is(unicode.So, r), unicode.Is(unicode.Variation_Selector, r):
		return true
	case r == '\u200d', r == '\u20e3':
		return true
	case r >= 0x1F000 && r <= 0x1FAFF: // emoji planes, skin tone modifiers included
		return true
	}
	return false
}
