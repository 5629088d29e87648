package mime

import "bytes"

// SplitMultipartBody locates "--boundary" as the start of each part and
// "--boundary--" as the terminator, strips the trailing line ending from
// each extracted segment, and discards the preamble before the first
// delimiter and the epilogue after the closing one. It tolerates both
// CRLF and bare-LF line endings.
func SplitMultipartBody(body []byte, boundary string) [][]byte {
	delim := []byte("--" + boundary)
	var parts [][]byte

	segments := bytes.Split(body, delim)
	if len(segments) < 2 {
		return nil
	}
	// segments[0] is the preamble; the last segment starting with "--"
	// (the terminator) and everything after it (epilogue) is discarded.
	for _, seg := range segments[1:] {
		if bytes.HasPrefix(seg, []byte("--")) {
			break
		}
		parts = append(parts, trimLeadingEOL(trimTrailingEOL(seg)))
	}
	return parts
}

func trimLeadingEOL(b []byte) []byte {
	if bytes.HasPrefix(b, []byte("\r\n")) {
		return b[2:]
	}
	if bytes.HasPrefix(b, []byte("\n")) {
		return b[1:]
	}
	return b
}

func trimTrailingEOL(b []byte) []byte {
	b = bytes.TrimSuffix(b, []byte("\r\n"))
	b = bytes.TrimSuffix(b, []byte("\n"))
	return b
}
