package respparser

import (
	"strconv"
	"strings"

	"github.com/fenilsonani/imapclient/internal/wire"
)

// BodyStructureData mirrors RFC 3501 §7.4.2's BODYSTRUCTURE, recursively
// for multipart messages, decoded from the raw token tree an AttrRaw
// FETCH attribute carries.
type BodyStructureData struct {
	MIMEType    string
	MIMESubtype string
	Params      map[string]string
	ID          string
	Description string
	Encoding    string
	Size        int64
	Lines       int64
	Parts       []BodyStructureData
	Envelope    *EnvelopeData
}

// ParseBodyStructure decodes a BODYSTRUCTURE token tree. A leading List
// item marks a multipart body, whose children are parsed recursively and
// whose first non-list item is the multipart subtype.
func ParseBodyStructure(tok *wire.Token) *BodyStructureData {
	if tok == nil || tok.Kind != wire.List || len(tok.Items) == 0 {
		return nil
	}
	items := tok.Items
	if items[0].Kind == wire.List {
		bs := &BodyStructureData{MIMEType: "multipart"}
		i := 0
		for i < len(items) && items[i].Kind == wire.List {
			if child := parseBodyStructureItems(items[i].Items); child != nil {
				bs.Parts = append(bs.Parts, *child)
			}
			i++
		}
		if i < len(items) {
			bs.MIMESubtype = textOrEmpty(items[i])
		}
		return bs
	}
	return parseBodyStructureItems(items)
}

func parseBodyStructureItems(items []wire.Token) *BodyStructureData {
	if len(items) < 2 {
		return nil
	}
	bs := &BodyStructureData{
		MIMEType:    textOrEmpty(items[0]),
		MIMESubtype: textOrEmpty(items[1]),
	}
	if len(items) > 2 {
		bs.Params = parseParamList(items[2])
	}
	if len(items) > 3 {
		bs.ID = textOrEmpty(items[3])
	}
	if len(items) > 4 {
		bs.Description = textOrEmpty(items[4])
	}
	if len(items) > 5 {
		bs.Encoding = textOrEmpty(items[5])
	}
	if len(items) > 6 {
		bs.Size = parseIntOrZero(items[6])
	}

	switch {
	case strings.EqualFold(bs.MIMEType, "MESSAGE") && strings.EqualFold(bs.MIMESubtype, "RFC822"):
		if len(items) > 7 {
			t := items[7]
			bs.Envelope = ParseEnvelope(&t)
		}
		if len(items) > 8 {
			t := items[8]
			if child := ParseBodyStructure(&t); child != nil {
				bs.Parts = []BodyStructureData{*child}
			}
		}
		if len(items) > 9 {
			bs.Lines = parseIntOrZero(items[9])
		}
	case strings.EqualFold(bs.MIMEType, "TEXT"):
		if len(items) > 7 {
			bs.Lines = parseIntOrZero(items[7])
		}
	}
	return bs
}

func parseIntOrZero(tok wire.Token) int64 {
	n, err := strconv.ParseInt(tok.Text, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
