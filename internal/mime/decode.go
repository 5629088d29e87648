package mime

import (
	"bytes"
	"encoding/base64"
	"mime/quotedprintable"
	"strings"
)

// DecodeContent decodes raw according to a Content-Transfer-Encoding
// name. base64 tolerates embedded whitespace and line folds;
// quoted-printable follows RFC 2045 §6.7 soft-line-break rules;
// 7bit/8bit/binary (and anything unrecognized) pass through unchanged.
func DecodeContent(raw []byte, encoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return decodeBase64Loose(raw)
	case "quoted-printable":
		decoded, err := quotedPrintableDecode(raw)
		if err != nil {
			return nil, err
		}
		return decoded, nil
	default: // 7bit, 8bit, binary, ""
		return raw, nil
	}
}

func decodeBase64Loose(raw []byte) ([]byte, error) {
	var cleaned bytes.Buffer
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			cleaned.WriteByte(b)
		}
	}
	return base64.StdEncoding.DecodeString(cleaned.String())
}

// quotedPrintableDecode wraps the standard decoder, which already
// implements the soft-line-break and literal-hex-escape semantics spec'd
// for this operation.
func quotedPrintableDecode(raw []byte) ([]byte, error) {
	r := quotedprintable.NewReader(bytes.NewReader(raw))
	var out bytes.Buffer
	if _, err := out.ReadFrom(r); err != nil {
		return out.Bytes(), nil
	}
	return out.Bytes(), nil
}
