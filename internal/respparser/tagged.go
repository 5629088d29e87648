package respparser

import "strings"

// ParseTagged parses a line already classified as ClassTagged.
func ParseTagged(line string) Tagged {
	sp := strings.IndexByte(line, ' ')
	if sp < 0 {
		return Tagged{Tag: line, Status: BAD, Text: ""}
	}
	tag := line[:sp]
	rest := line[sp+1:]

	sp2 := strings.IndexByte(rest, ' ')
	var statusWord, text string
	if sp2 < 0 {
		statusWord, text = rest, ""
	} else {
		statusWord, text = rest[:sp2], rest[sp2+1:]
	}

	switch strings.ToUpper(statusWord) {
	case "OK":
		return Tagged{Tag: tag, Status: OK, Text: text}
	case "NO":
		return Tagged{Tag: tag, Status: NO, Text: text}
	case "BAD":
		return Tagged{Tag: tag, Status: BAD, Text: text}
	default:
		return Tagged{Tag: tag, Status: BAD, Text: rest}
	}
}
