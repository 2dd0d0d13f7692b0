// Package sms holds the pure text handling of inbound farmer messages:
// numeral normalization, intent classification and the outbound message
// templates. Nothing here touches storage or the network.
package sms

import "strings"

// geezNumerals maps the Ethiopic digits one through ten (U+1369..U+1372).
var geezNumerals = map[rune]string{
	'፩': "1",
	'፪': "2",
	'፫': "3",
	'፬': "4",
	'፭': "5",
	'፮': "6",
	'፯': "7",
	'፰': "8",
	'፱': "9",
	'፲': "10",
}

// Normalize trims the message and rewrites Ge'ez numerals as Arabic digits.
// Every other rune, Ethiopic letters included, is kept as is.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.ContainsFunc(raw, isGeezNumeral) {
		return raw
	}

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if digits, ok := geezNumerals[r]; ok {
			b.WriteString(digits)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isGeezNumeral(r rune) bool {
	_, ok := geezNumerals[r]
	return ok
}
