package respparser

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/fenilsonani/imapclient/internal/wire"
)

// ParseUntagged parses a line already classified as ClassUntagged, with the
// leading "* " stripped by the caller.
func ParseUntagged(line string) Untagged {
	if n, rest, ok := splitLeadingNumber(line); ok {
		return parseNumeric(n, rest, line)
	}

	upper := strings.ToUpper(line)
	switch {
	case hasWord(upper, "OK"):
		return parseStatus("OK", line, 2)
	case hasWord(upper, "NO"):
		return parseStatus("NO", line, 2)
	case hasWord(upper, "BAD"):
		return parseStatus("BAD", line, 3)
	case hasWord(upper, "BYE"):
		return parseStatus("BYE", line, 3)
	case hasWord(upper, "PREAUTH"):
		return parseStatus("PREAUTH", line, 7)
	case strings.HasPrefix(upper, "CAPABILITY"):
		return Untagged{Type: "CAPABILITY", Raw: line, Capabilities: strings.Fields(skipWord(line))}
	case strings.HasPrefix(upper, "FLAGS"):
		return Untagged{Type: "FLAGS", Raw: line, Flags: tokenizeFlagList(skipWord(line))}
	case strings.HasPrefix(upper, "LIST"):
		return parseListLike("LIST", skipWord(line), line)
	case strings.HasPrefix(upper, "LSUB"):
		return parseListLike("LSUB", skipWord(line), line)
	case strings.HasPrefix(upper, "SEARCH"):
		return parseSearch(skipWord(line), line)
	case strings.HasPrefix(upper, "VANISHED"):
		return parseVanished(skipWord(line), line)
	case strings.HasPrefix(upper, "STATUS"):
		return parseStatusMailbox(skipWord(line), line)
	default:
		fields := strings.SplitN(line, " ", 2)
		u := Untagged{Type: strings.ToUpper(fields[0]), Raw: line}
		if len(fields) > 1 {
			u.Extra = fields[1]
		}
		return u
	}
}

// hasWord reports whether upper starts with word followed by a space or
// end of string (so "OK" doesn't match "OKAY").
func hasWord(upper, word string) bool {
	if !strings.HasPrefix(upper, word) {
		return false
	}
	return len(upper) == len(word) || upper[len(word)] == ' '
}

func skipWord(line string) string {
	sp := strings.IndexByte(line, ' ')
	if sp < 0 {
		return ""
	}
	return strings.TrimLeft(line[sp+1:], " ")
}

func splitLeadingNumber(line string) (int64, string, bool) {
	sp := strings.IndexByte(line, ' ')
	var numStr, rest string
	if sp < 0 {
		numStr, rest = line, ""
	} else {
		numStr, rest = line[:sp], line[sp+1:]
	}
	n, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil || numStr == "" {
		return 0, "", false
	}
	return n, rest, true
}

func parseNumeric(n int64, rest, raw string) Untagged {
	upper := strings.ToUpper(rest)
	typ := upper
	if sp := strings.IndexByte(upper, ' '); sp >= 0 {
		typ = upper[:sp]
	}
	switch typ {
	case "EXISTS", "RECENT", "EXPUNGE":
		return Untagged{Type: typ, Raw: raw, Number: n}
	case "FETCH":
		body := strings.TrimSpace(rest[len("FETCH"):])
		return Untagged{Type: "FETCH", Raw: raw, Fetch: parseFetch(uint32(n), body)}
	default:
		return Untagged{Type: typ, Raw: raw, Number: n, Extra: rest}
	}
}

// parseStatus handles "OK|NO|BAD|BYE|PREAUTH [code] text".
func parseStatus(typ, line string, wordLen int) Untagged {
	rest := strings.TrimLeft(line[wordLen:], " ")
	code, text := extractBracketCode(rest)
	return Untagged{Type: typ, Raw: line, Code: code, Text: text}
}

// extractBracketCode pulls a leading "[...]" off s, returning its inner
// content (without brackets) and the remaining text, trimmed of one
// separating space.
func extractBracketCode(s string) (code, text string) {
	if !strings.HasPrefix(s, "[") {
		return "", s
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				code = s[1:i]
				text = strings.TrimLeft(s[i+1:], " ")
				return
			}
		}
	}
	return "", s
}

func tokenizeFlagList(s string) []string {
	toks, _ := wire.Tokenize(s)
	if len(toks) == 0 || toks[0].Kind != wire.List {
		return nil
	}
	flags := make([]string, 0, len(toks[0].Items))
	for _, it := range toks[0].Items {
		flags = append(flags, it.String())
	}
	return flags
}

func parseListLike(typ, rest, raw string) Untagged {
	toks, remainder := wire.Tokenize(rest)
	var attrs []string
	idx := 0
	if len(toks) > idx && toks[idx].Kind == wire.List {
		for _, it := range toks[idx].Items {
			attrs = append(attrs, it.String())
		}
		idx++
	}
	var delim *byte
	if len(toks) > idx {
		switch toks[idx].Kind {
		case wire.Nil:
			delim = nil
		case wire.Quoted, wire.Atom:
			if len(toks[idx].Text) > 0 {
				b := toks[idx].Text[0]
				delim = &b
			}
		}
		idx++
	}
	name := ""
	if len(toks) > idx {
		name = toks[idx].Text
	} else if remainder != "" {
		name = strings.TrimSpace(remainder)
	}
	return Untagged{
		Type: typ,
		Raw:  raw,
		List: &ListData{Attributes: attrs, Delimiter: delim, Name: name},
	}
}

func parseSearch(rest, raw string) Untagged {
	rest = strings.TrimSpace(rest)
	var modseq *big.Int
	if idx := strings.LastIndex(rest, "("); idx >= 0 && strings.HasSuffix(rest, ")") {
		inner := strings.TrimSpace(rest[idx+1 : len(rest)-1])
		fields := strings.Fields(inner)
		if len(fields) == 2 && strings.EqualFold(fields[0], "MODSEQ") {
			if n, ok := new(big.Int).SetString(fields[1], 10); ok {
				modseq = n
				rest = strings.TrimSpace(rest[:idx])
			}
		}
	}
	var uids []uint32
	for _, f := range strings.Fields(rest) {
		if n, err := strconv.ParseUint(f, 10, 32); err == nil {
			uids = append(uids, uint32(n))
		}
	}
	return Untagged{Type: "SEARCH", Raw: raw, Search: &SearchData{UIDs: uids, HighestModseq: modseq}}
}

func parseVanished(rest, raw string) Untagged {
	earlier := false
	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(strings.ToUpper(rest), "(EARLIER)") {
		earlier = true
		rest = strings.TrimSpace(rest[len("(EARLIER)"):])
	}
	return Untagged{Type: "VANISHED", Raw: raw, Vanished: &VanishedData{Earlier: earlier, UIDs: ExpandSequenceSet(rest)}}
}

// ExpandSequenceSet expands a comma-separated sequence-set, where "a:b" is
// an inclusive range in either direction (spec §9: "if a > b, still expand
// the closed interval").
func ExpandSequenceSet(s string) []uint32 {
	if s == "" {
		return nil
	}
	var out []uint32
	for _, part := range strings.Split(s, ",") {
		if part == "" {
			continue
		}
		if ci := strings.IndexByte(part, ':'); ci >= 0 {
			a, errA := strconv.ParseUint(part[:ci], 10, 32)
			b, errB := strconv.ParseUint(part[ci+1:], 10, 32)
			if errA != nil || errB != nil {
				continue
			}
			lo, hi := a, b
			if lo > hi {
				lo, hi = hi, lo
			}
			for i := lo; i <= hi; i++ {
				out = append(out, uint32(i))
			}
			continue
		}
		if n, err := strconv.ParseUint(part, 10, 32); err == nil {
			out = append(out, uint32(n))
		}
	}
	return out
}

func parseStatusMailbox(rest, raw string) Untagged {
	toks, _ := wire.Tokenize(rest)
	u := Untagged{Type: "STATUS", Raw: raw}
	if len(toks) > 0 {
		u.Extra = toks[0].Text
	}
	if len(toks) > 1 && toks[1].Kind == wire.List {
		var sb strings.Builder
		for i, it := range toks[1].Items {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(it.String())
		}
		u.Text = sb.String()
	}
	return u
}
