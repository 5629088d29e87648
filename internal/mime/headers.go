// Package mime decodes the MIME structures carried inside FETCH body
// sections: header unfolding, RFC 2047 encoded words, Content-Type
// parameters, and multipart boundaries. It is consumed on demand once a
// fetched message's raw bytes are in hand; nothing here touches the wire.
package mime

import "strings"

// UnfoldHeaders replaces every CRLF-or-LF followed by at least one
// SP/HTAB with a single space, per RFC 2822 §2.2.3 line unfolding.
func UnfoldHeaders(block string) string {
	var b strings.Builder
	b.Grow(len(block))
	i := 0
	for i < len(block) {
		c := block[i]
		if c == '\r' || c == '\n' {
			end := i + 1
			if c == '\r' && end < len(block) && block[end] == '\n' {
				end++
			}
			if end < len(block) && (block[end] == ' ' || block[end] == '\t') {
				b.WriteByte(' ')
				i = end + 1
				for i < len(block) && (block[i] == ' ' || block[i] == '\t') {
					i++
				}
				continue
			}
		}
		b.WriteByte(c)
		i++
	}
	return b.String()
}

// ParseHeaders unfolds block, splits each line at its first colon,
// lower-cases the header name, decodes RFC 2047 encoded words in the
// value, and accumulates repeated headers into an ordered list.
func ParseHeaders(block string) map[string][]string {
	unfolded := UnfoldHeaders(block)
	out := map[string][]string{}
	for _, line := range strings.Split(unfolded, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		out[name] = append(out[name], DecodeEncodedWords(value))
	}
	return out
}

// HeaderValue returns the first value recorded for name, decoded, or
// "" if the header was not present.
func HeaderValue(headers map[string][]string, name string) string {
	vals := headers[strings.ToLower(name)]
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}
