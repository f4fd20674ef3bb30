package utils

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const escapedStemPrefix = "lsf-enc-"

// CustomEscape rewrites a job name so it can be used as a file basename.
// '%' is escaped as "%25" to keep the encoding reversible, path
// separators and invalid UTF-8 bytes become "%XX". The result is always
// valid UTF-8 and contains no separators.
func CustomEscape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		r, width := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && width == 1 {
			fmt.Fprintf(&b, "%%%02X", s[i])
			i++
			continue
		}
		switch r {
		case '%':
			b.WriteString("%25")
		case '/', '\\':
			fmt.Fprintf(&b, "%%%02X", s[i])
		default:
			b.WriteRune(r)
		}
		i += width
	}
	return b.String()
}

// CustomUnescape reverses CustomEscape.
func CustomUnescape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] == '%' && i+2 < len(s) {
			val, err := strconv.ParseInt(s[i+1:i+3], 16, 32)
			if err == nil {
				b.WriteByte(byte(val))
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// SafeFileStem returns the base name used for the job script and the
// .out/.err files. Well-formed names pass through untouched; anything
// containing separators or invalid UTF-8 is escaped and prefixed so the
// original name can still be recovered.
func SafeFileStem(name string) string {
	if utf8.ValidString(name) &&
		!strings.ContainsAny(name, `/\`) &&
		!strings.HasPrefix(name, escapedStemPrefix) {
		return name
	}
	return escapedStemPrefix + CustomEscape(name)
}

// OriginalJobName recovers the job name from a stem produced by
// SafeFileStem.
func OriginalJobName(stem string) string {
	if strings.HasPrefix(stem, escapedStemPrefix) {
		return CustomUnescape(strings.TrimPrefix(stem, escapedStemPrefix))
	}
	return stem
}
