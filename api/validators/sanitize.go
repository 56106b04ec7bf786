package validators

import (
	"strings"
	"unicode"
)

// SanitizeString drops control characters, collapses runs of whitespace and
// truncates to maxLen runes. Truncation never splits a multi-byte character,
// which matters for names like "Matcha Latte £5 deal".
func SanitizeString(input string, maxLen int) string {
	var b strings.Builder
	b.Grow(len(input))

	space := false
	count := 0
	for _, r := range strings.TrimSpace(input) {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		if maxLen > 0 && count >= maxLen {
			break
		}
		if space && count > 0 {
			if maxLen > 0 && count+1 >= maxLen {
				break
			}
			b.WriteByte(' ')
			count++
		}
		space = false
		b.WriteRune(r)
		count++
	}
	return b.String()
}
