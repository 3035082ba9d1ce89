package app

import (
	"errors"
	"net/url"
	"regexp"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"
)

var reUnicodeEscapeRun = regexp.MustCompile(`(?i)(\\u[0-9a-f]{4})+`)

// decodeTitle déplie les séquences \uXXXX (UTF-16, paires de substitution comprises)
// puis décode le résultat comme une chaîne percent-encodée.
func decodeTitle(raw string) (string, error) {
	unescaped := reUnicodeEscapeRun.ReplaceAllStringFunc(raw, func(run string) string {
		units := make([]uint16, 0, len(run)/6)
		for i := 0; i+6 <= len(run); i += 6 {
			v, err := strconv.ParseUint(run[i+2:i+6], 16, 16)
			if err != nil {
				return run
			}
			units = append(units, uint16(v))
		}
		return string(utf16.Decode(units))
	})

	decoded, err := url.PathUnescape(unescaped)
	if err != nil {
		return "", &ResolveError{Kind: KindDecodeFailed, Message: "decode title", Err: err}
	}
	if !utf8.ValidString(decoded) {
		return "", &ResolveError{Kind: KindDecodeFailed, Message: "decode title", Err: errors.New("invalid utf-8 after percent-decoding")}
	}
	return decoded, nil
}
