package mime

import (
	"bytes"
	"strings"
)

// Part is one node of a decoded MIME tree: either a leaf with decoded
// Body, or a multipart container whose children are recursively parsed.
type Part struct {
	ContentType string
	Subtype     string
	Params      map[string]string
	Encoding    string
	Body        []byte
	Parts       []Part
}

// ParseMIMEPart splits raw at its first blank line into a header block
// and a body, parses the headers, and either recurses into each
// multipart child or decodes the body per its transfer encoding.
func ParseMIMEPart(raw []byte) *Part {
	headerBlock, body := splitHeaderBody(raw)
	headers := ParseHeaders(string(headerBlock))

	contentType := HeaderValue(headers, "content-type")
	if contentType == "" {
		contentType = "text/plain"
	}
	typ, subtype, params := ParseContentType(contentType)
	encoding := HeaderValue(headers, "content-transfer-encoding")

	p := &Part{ContentType: typ, Subtype: subtype, Params: params, Encoding: encoding}

	if typ == "multipart" {
		boundary, ok := ExtractBoundary(contentType)
		if !ok {
			boundary = params["boundary"]
		}
		if boundary != "" {
			for _, seg := range SplitMultipartBody(body, boundary) {
				p.Parts = append(p.Parts, *ParseMIMEPart(seg))
			}
			return p
		}
	}

	decoded, err := DecodeContent(body, encoding)
	if err != nil {
		decoded = body
	}
	p.Body = decoded
	return p
}

func splitHeaderBody(raw []byte) ([]byte, []byte) {
	for _, sep := range [][]byte{[]byte("\r\n\r\n"), []byte("\n\n")} {
		if idx := bytes.Index(raw, sep); idx >= 0 {
			return raw[:idx], raw[idx+len(sep):]
		}
	}
	return raw, nil
}

// IsMultipart reports whether p's Content-Type primary type is
// "multipart".
func (p *Part) IsMultipart() bool {
	return strings.EqualFold(p.ContentType, "multipart")
}
