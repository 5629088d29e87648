package protocol

import "strings"

// Framer turns a raw byte stream from the transport into complete logical
// response lines, resolving literal payloads along the way.
//
// Spec §4.4 rule 3 says a literal's octets are "concatenated onto the line
// (replacing the marker)". A literal's bytes are arbitrary and may contain
// parentheses, quotes or CRLFs that would otherwise corrupt the
// reconstructed line, so Framer substitutes each resolved literal with an
// IMAP quoted-string rendering of its bytes (backslash-escaping '"' and
// '\\'). The result is a self-contained, fully quotable line that
// wire.Tokenize can parse without any special literal handling of its own.
//
// A logical line is considered complete at the first CRLF encountered
// while parenthesis depth is back to zero and no quoted string is open —
// this tolerates servers that break a single FETCH data item across
// several physical lines around a literal, which is exactly what happens
// whenever a literal is not the last thing before the closing ')'.
type Framer struct {
	leftover []byte
	building strings.Builder

	inQuote      bool
	quoteEscaped bool
	depth        int

	awaitingLiteral  bool
	literalRemaining int64
}

// NewFramer returns a Framer ready to consume bytes from a fresh
// connection.
func NewFramer() *Framer {
	return &Framer{}
}

// Feed appends newly-read bytes and returns every logical line that became
// complete as a result.
func (f *Framer) Feed(data []byte) []string {
	f.leftover = append(f.leftover, data...)
	var lines []string

	for {
		if f.awaitingLiteral {
			take := int64(len(f.leftover))
			if take > f.literalRemaining {
				take = f.literalRemaining
			}
			f.building.WriteString(quoteEscape(f.leftover[:take]))
			f.leftover = f.leftover[take:]
			f.literalRemaining -= take
			if f.literalRemaining > 0 {
				return lines
			}
			f.awaitingLiteral = false
			continue
		}

		i := 0
		advanced := false
		for i < len(f.leftover) {
			c := f.leftover[i]

			if f.inQuote {
				f.building.WriteByte(c)
				if f.quoteEscaped {
					f.quoteEscaped = false
				} else if c == '\\' {
					f.quoteEscaped = true
				} else if c == '"' {
					f.inQuote = false
				}
				i++
				continue
			}

			switch c {
			case '"':
				f.inQuote = true
				f.building.WriteByte(c)
				i++
			case '(':
				f.depth++
				f.building.WriteByte(c)
				i++
			case ')':
				f.depth--
				f.building.WriteByte(c)
				i++
			case '{':
				size, consumed, ok, wait := tryLiteralMarker(f.leftover[i:])
				if wait {
					// not enough buffered data to confirm the marker yet
					f.leftover = f.leftover[i:]
					advanced = true
					goto needMore
				}
				if !ok {
					f.building.WriteByte(c)
					i++
					continue
				}
				i += consumed
				f.leftover = f.leftover[i:]
				f.awaitingLiteral = true
				f.literalRemaining = size
				advanced = true
				goto needMore
			case '\r':
				if i+1 >= len(f.leftover) {
					f.leftover = f.leftover[i:]
					advanced = true
					goto needMore
				}
				if f.leftover[i+1] == '\n' && f.depth <= 0 {
					lines = append(lines, f.building.String())
					f.building.Reset()
					f.depth = 0
					i += 2
					f.leftover = f.leftover[i:]
					advanced = true
					goto nextLine
				}
				f.building.WriteByte(c)
				i++
			default:
				f.building.WriteByte(c)
				i++
			}
		}
		f.leftover = f.leftover[i:]
		return lines

	nextLine:
		if advanced {
			continue
		}
	needMore:
		if f.awaitingLiteral {
			continue
		}
		return lines
	}
}

// tryLiteralMarker attempts to parse "{digits}\r\n" starting at s[0]=='{'.
// wait is true when more buffered data is needed before a decision can be
// made; ok is true when a complete, valid marker was found, in which case
// consumed is the number of bytes (including the trailing CRLF) to skip.
func tryLiteralMarker(s []byte) (size int64, consumed int, ok bool, wait bool) {
	j := 1
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	if j == 1 {
		return 0, 0, false, false
	}
	if j >= len(s) {
		return 0, 0, false, true
	}
	if s[j] != '}' {
		return 0, 0, false, false
	}
	if j+2 >= len(s) {
		return 0, 0, false, true
	}
	if s[j+1] != '\r' || s[j+2] != '\n' {
		return 0, 0, false, false
	}
	var n int64
	for _, d := range s[1:j] {
		n = n*10 + int64(d-'0')
	}
	return n, j + 3, true, false
}

// quoteEscape renders raw bytes as the body of an IMAP quoted string,
// including the surrounding quotes.
func quoteEscape(b []byte) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, c := range b {
		if c == '"' || c == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(c)
	}
	sb.WriteByte('"')
	return sb.String()
}
