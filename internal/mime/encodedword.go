package mime

import (
	"encoding/base64"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// encodedWordPattern matches one RFC 2047 "=?charset?B?payload?=" or
// "=?charset?Q?payload?=" run.
var encodedWordPattern = regexp.MustCompile(`=\?([^?]+)\?([BbQq])\?([^?]*)\?=`)

// charsetAliases is the small substitute table spec'd for decoded
// encoded-word bytes: the common charsets mail clients actually send
// that golang.org/x/text doesn't resolve by MIME name alone.
var charsetAliases = map[string]encoding.Encoding{
	"utf-8":        encoding.Nop,
	"utf8":         encoding.Nop,
	"us-ascii":     encoding.Nop,
	"ascii":        encoding.Nop,
	"utf-16":       unicode.UTF16(unicode.BigEndian, unicode.UseBOM),
	"latin-1":      charmap.ISO8859_1,
	"iso-8859-1":   charmap.ISO8859_1,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
}

func lookupCharset(name string) encoding.Encoding {
	if enc, ok := charsetAliases[strings.ToLower(name)]; ok {
		return enc
	}
	return encoding.Nop
}

// DecodeEncodedWords finds every "=?charset?B?..?=" / "=?charset?Q?..?="
// run in text, decodes the payload and charset, and substitutes the
// result in place, leaving everything else untouched.
func DecodeEncodedWords(text string) string {
	return encodedWordPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := encodedWordPattern.FindStringSubmatch(match)
		if groups == nil {
			return match
		}
		charsetName, enc, payload := groups[1], strings.ToUpper(groups[2]), groups[3]
		var raw []byte
		var err error
		if enc == "B" {
			raw, err = base64.StdEncoding.DecodeString(payload)
		} else {
			raw, err = decodeQEncoding(payload)
		}
		if err != nil {
			return match
		}
		decoded, decErr := lookupCharset(charsetName).NewDecoder().Bytes(raw)
		if decErr != nil {
			return string(raw)
		}
		return string(decoded)
	})
}

// decodeQEncoding decodes RFC 2047 Q-encoding: underscores are spaces,
// "=XX" is a hex-escaped byte.
func decodeQEncoding(payload string) ([]byte, error) {
	out := make([]byte, 0, len(payload))
	for i := 0; i < len(payload); i++ {
		switch payload[i] {
		case '_':
			out = append(out, ' ')
		case '=':
			if i+2 < len(payload) {
				n, err := strconv.ParseUint(payload[i+1:i+3], 16, 8)
				if err == nil {
					out = append(out, byte(n))
					i += 2
					continue
				}
			}
			out = append(out, '=')
		default:
			out = append(out, payload[i])
		}
	}
	return out, nil
}
