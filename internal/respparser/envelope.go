package respparser

import (
	"strings"

	"github.com/fenilsonani/imapclient/internal/wire"
)

// EnvelopeData mirrors RFC 3501 §7.4.2's ENVELOPE structure, decoded from
// the raw token tree an AttrRaw FETCH attribute carries.
type EnvelopeData struct {
	Date      string
	Subject   string
	From      []AddressData
	Sender    []AddressData
	ReplyTo   []AddressData
	To        []AddressData
	CC        []AddressData
	BCC       []AddressData
	InReplyTo string
	MessageID string
}

// AddressData is one ENVELOPE address-structure member: (name adl mailbox
// host). The source-route (adl) field is obsolete and discarded.
type AddressData struct {
	Name    string
	Mailbox string
	Host    string
}

// ParseEnvelope decodes an ENVELOPE token tree. It returns nil if tok is
// not a well-formed 10-element envelope list.
func ParseEnvelope(tok *wire.Token) *EnvelopeData {
	if tok == nil || tok.Kind != wire.List || len(tok.Items) < 10 {
		return nil
	}
	items := tok.Items
	return &EnvelopeData{
		Date:      textOrEmpty(items[0]),
		Subject:   textOrEmpty(items[1]),
		From:      parseAddressList(items[2]),
		Sender:    parseAddressList(items[3]),
		ReplyTo:   parseAddressList(items[4]),
		To:        parseAddressList(items[5]),
		CC:        parseAddressList(items[6]),
		BCC:       parseAddressList(items[7]),
		InReplyTo: textOrEmpty(items[8]),
		MessageID: textOrEmpty(items[9]),
	}
}

func parseAddressList(tok wire.Token) []AddressData {
	if tok.Kind != wire.List {
		return nil
	}
	addrs := make([]AddressData, 0, len(tok.Items))
	for _, item := range tok.Items {
		if item.Kind != wire.List || len(item.Items) < 4 {
			continue
		}
		addrs = append(addrs, AddressData{
			Name:    textOrEmpty(item.Items[0]),
			Mailbox: textOrEmpty(item.Items[2]),
			Host:    textOrEmpty(item.Items[3]),
		})
	}
	return addrs
}

func textOrEmpty(tok wire.Token) string {
	if tok.Kind == wire.Nil {
		return ""
	}
	return tok.Text
}

func parseParamList(tok wire.Token) map[string]string {
	if tok.Kind != wire.List || len(tok.Items) == 0 {
		return nil
	}
	m := make(map[string]string, len(tok.Items)/2)
	for i := 0; i+1 < len(tok.Items); i += 2 {
		m[strings.ToUpper(textOrEmpty(tok.Items[i]))] = textOrEmpty(tok.Items[i+1])
	}
	return m
}
