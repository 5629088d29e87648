package command

import "strconv"

// FetchOptions mirrors spec §3's fetch-options data model.
type FetchOptions struct {
	Bodies       []string // body-section names; "", "HEADER", "TEXT", "FULL" are well-known
	Struct       bool
	Envelope     bool
	Size         bool
	MarkSeen     bool
	Modseq       bool
	ChangedSince *int64
}

// sectionName maps the well-known aliases onto their RFC 3501 section
// text; anything else (e.g. "HEADER.FIELDS (FROM SUBJECT)") passes
// through verbatim.
func sectionName(s string) string {
	switch s {
	case "", "FULL":
		return ""
	default:
		return s
	}
}

// Fetch builds "FETCH seq (...)" (the caller, the session facade, wraps
// this with WithUID so UIDs rather than sequence numbers address the
// messages). UID and FLAGS are always present, each requested body
// section becomes BODY[section] or BODY.PEEK[section] depending on
// MarkSeen, and the remaining options append their own well-known
// attribute names. A non-nil ChangedSince appends the RFC 7162
// "(CHANGEDSINCE n)" fetch-modifier.
func Fetch(seq string, opts FetchOptions) string {
	attrs := "UID FLAGS"
	for _, section := range opts.Bodies {
		name := sectionName(section)
		if opts.MarkSeen {
			attrs += " BODY[" + name + "]"
		} else {
			attrs += " BODY.PEEK[" + name + "]"
		}
	}
	if opts.Struct {
		attrs += " BODYSTRUCTURE"
	}
	if opts.Envelope {
		attrs += " ENVELOPE"
	}
	if opts.Size {
		attrs += " RFC822.SIZE"
	}
	if opts.Modseq {
		attrs += " MODSEQ"
	}
	cmd := "FETCH " + seq + " (" + attrs + ")"
	if opts.ChangedSince != nil {
		cmd += " (CHANGEDSINCE " + strconv.FormatInt(*opts.ChangedSince, 10) + ")"
	}
	return cmd
}
