package hl7v2

import (
	"strconv"
	"strings"
)

// Unescape replaces HL7 escape sequences in a decomposed component value.
// The standard table:
//
//	\F\  field separator
//	\S\  component separator
//	\T\  subcomponent separator
//	\R\  repetition separator
//	\E\  escape character
//	\Xhh\ byte with hex value hh
//
// It is applied to component text only, never to raw undivided strings, so
// restored separators cannot be re-split. Unknown or unterminated sequences
// are kept verbatim; the function never fails. For any string with no
// residual escape tokens the operation is idempotent.
func Unescape(s string, enc Encoding) string {
	if strings.IndexByte(s, enc.Escape) == -1 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		if s[i] != enc.Escape {
			b.WriteByte(s[i])
			i++
			continue
		}

		end := strings.IndexByte(s[i+1:], enc.Escape)
		if end == -1 {
			// Unterminated escape: keep the remainder literally.
			b.WriteString(s[i:])
			break
		}

		token := s[i+1 : i+1+end]
		if rep, ok := resolveEscape(token, enc); ok {
			b.WriteString(rep)
		} else {
			b.WriteString(s[i : i+2+end])
		}
		i += end + 2
	}

	return b.String()
}

// resolveEscape maps a single escape token (the text between the escape
// characters) to its replacement.
func resolveEscape(token string, enc Encoding) (string, bool) {
	switch token {
	case "F":
		return string(enc.Field), true
	case "S":
		return string(enc.Component), true
	case "T":
		return string(enc.Subcomponent), true
	case "R":
		return string(enc.Repetition), true
	case "E":
		return string(enc.Escape), true
	}
	if len(token) == 3 && (token[0] == 'X' || token[0] == 'x') {
		if v, err := strconv.ParseUint(token[1:], 16, 8); err == nil {
			return string([]byte{byte(v)}), true
		}
	}
	return "", false
}
