package imap

import (
	"math/big"
	"testing"

	"github.com/fenilsonani/imapclient/internal/respparser"
	"github.com/fenilsonani/imapclient/internal/wire"
)

func TestUIDSetString(t *testing.T) {
	tests := []struct {
		uids []uint32
		want string
	}{
		{[]uint32{1}, "1"},
		{[]uint32{1, 2, 3}, "1,2,3"},
		{[]uint32{42, 7}, "42,7"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := uidSetString(tt.uids); got != tt.want {
			t.Errorf("uidSetString(%v) = %q, want %q", tt.uids, got, tt.want)
		}
	}
}

func TestBodySectionName(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"BODY[HEADER]", "HEADER"},
		{"BODY[TEXT]", "TEXT"},
		{"BODY[]", ""},
		{"BODY.PEEK[HEADER.FIELDS (SUBJECT)]", "HEADER.FIELDS (SUBJECT)"},
		{"BODY.PEEK[]", ""},
	}
	for _, tt := range tests {
		if got := bodySectionName(tt.key); got != tt.want {
			t.Errorf("bodySectionName(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestFoldMessageBasicAttributes(t *testing.T) {
	data := respparser.FetchData{
		SeqNo: 3,
		Attributes: map[string]respparser.AttrValue{
			"UID":          {Kind: respparser.AttrText, Text: "99"},
			"FLAGS":        {Kind: respparser.AttrList, List: []string{`\Seen`, `\Flagged`}},
			"RFC822.SIZE":  {Kind: respparser.AttrText, Text: "4096"},
			"MODSEQ":       {Kind: respparser.AttrNum, Num: big.NewInt(12345)},
			"BODY[HEADER]": {Kind: respparser.AttrText, Text: "Subject: hi\r\n"},
		},
	}

	m := foldMessage(data)
	if m.SeqNo != 3 {
		t.Errorf("SeqNo = %d, want 3", m.SeqNo)
	}
	if m.UID != 99 {
		t.Errorf("UID = %d, want 99", m.UID)
	}
	if len(m.Flags) != 2 || m.Flags[0] != `\Seen` {
		t.Errorf("Flags = %v, unexpected", m.Flags)
	}
	if m.Size != 4096 {
		t.Errorf("Size = %d, want 4096", m.Size)
	}
	if m.Modseq == nil || m.Modseq.Int64() != 12345 {
		t.Errorf("Modseq = %v, want 12345", m.Modseq)
	}
	if string(m.Bodies["HEADER"]) != "Subject: hi\r\n" {
		t.Errorf("Bodies[HEADER] = %q, unexpected", m.Bodies["HEADER"])
	}
}

func TestFoldMessageEnvelopeAndBodyStructure(t *testing.T) {
	env := envelopeTokForFetchTest()
	bs := wire.Token{
		Kind: wire.List,
		Items: []wire.Token{
			{Kind: wire.Atom, Text: "TEXT"},
			{Kind: wire.Atom, Text: "PLAIN"},
			{Kind: wire.List, Items: []wire.Token{{Kind: wire.Atom, Text: "CHARSET"}, {Kind: wire.Atom, Text: "UTF-8"}}},
			{Kind: wire.Nil},
			{Kind: wire.Nil},
			{Kind: wire.Atom, Text: "7BIT"},
			{Kind: wire.Atom, Text: "100"},
			{Kind: wire.Atom, Text: "5"},
		},
	}

	data := respparser.FetchData{
		SeqNo: 1,
		Attributes: map[string]respparser.AttrValue{
			"ENVELOPE":      {Kind: respparser.AttrRaw, Raw: &env},
			"BODYSTRUCTURE": {Kind: respparser.AttrRaw, Raw: &bs},
		},
	}

	m := foldMessage(data)
	if m.Envelope == nil {
		t.Fatal("expected non-nil envelope")
	}
	if m.Envelope.Subject != "Hello" {
		t.Errorf("Subject = %q, want Hello", m.Envelope.Subject)
	}
	if m.BodyStructure == nil {
		t.Fatal("expected non-nil body structure")
	}
	if m.BodyStructure.MIMEType != "TEXT" || m.BodyStructure.Lines != 5 {
		t.Errorf("BodyStructure = %+v, unexpected", m.BodyStructure)
	}
}

func TestFoldMessagesSkipsNonFetchUntagged(t *testing.T) {
	untagged := []respparser.Untagged{
		{Type: "EXISTS", Number: 10},
		{Type: "FETCH", Fetch: &respparser.FetchData{SeqNo: 1, Attributes: map[string]respparser.AttrValue{
			"UID": {Kind: respparser.AttrText, Text: "1"},
		}}},
	}
	messages := foldMessages(untagged)
	if len(messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(messages))
	}
	if messages[0].UID != 1 {
		t.Errorf("UID = %d, want 1", messages[0].UID)
	}
}

// envelopeTokForFetchTest builds a minimal well-formed ENVELOPE token tree.
func envelopeTokForFetchTest() wire.Token {
	addr := wire.Token{Kind: wire.List, Items: []wire.Token{
		{Kind: wire.Atom, Text: "Alice"},
		{Kind: wire.Nil},
		{Kind: wire.Atom, Text: "alice"},
		{Kind: wire.Atom, Text: "example.com"},
	}}
	addrList := wire.Token{Kind: wire.List, Items: []wire.Token{addr}}
	nilT := wire.Token{Kind: wire.Nil}
	return wire.Token{Kind: wire.List, Items: []wire.Token{
		{Kind: wire.Atom, Text: "Mon, 1 Jan 2024 12:00:00 +0000"},
		{Kind: wire.Atom, Text: "Hello"},
		addrList, addrList, nilT, addrList, nilT, nilT, nilT,
		{Kind: wire.Atom, Text: "<id@example.com>"},
	}}
}
