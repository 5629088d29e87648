package respparser

import (
	"testing"

	"github.com/fenilsonani/imapclient/internal/wire"
)

func atomTok(s string) wire.Token { return wire.Token{Kind: wire.Atom, Text: s} }
func nilTok() wire.Token          { return wire.Token{Kind: wire.Nil} }
func listTok(items ...wire.Token) wire.Token {
	return wire.Token{Kind: wire.List, Items: items}
}

func addressTok(name, mailbox, host string) wire.Token {
	nameTok := nilTok()
	if name != "" {
		nameTok = atomTok(name)
	}
	return listTok(nameTok, nilTok(), atomTok(mailbox), atomTok(host))
}

func envelopeTok() wire.Token {
	return listTok(
		atomTok("Mon, 1 Jan 2024 12:00:00 +0000"),
		atomTok("Hello"),
		listTok(addressTok("Alice", "alice", "example.com")),
		listTok(addressTok("Alice", "alice", "example.com")),
		nilTok(),
		listTok(addressTok("Bob", "bob", "example.com")),
		nilTok(),
		nilTok(),
		nilTok(),
		atomTok("<msg-id@example.com>"),
	)
}

func TestParseEnvelope(t *testing.T) {
	tok := envelopeTok()
	env := ParseEnvelope(&tok)
	if env == nil {
		t.Fatal("expected non-nil envelope")
	}
	if env.Subject != "Hello" {
		t.Errorf("Subject = %q, want Hello", env.Subject)
	}
	if env.MessageID != "<msg-id@example.com>" {
		t.Errorf("MessageID = %q, want <msg-id@example.com>", env.MessageID)
	}
	if len(env.From) != 1 || env.From[0].Mailbox != "alice" || env.From[0].Host != "example.com" {
		t.Errorf("From = %+v, unexpected", env.From)
	}
	if len(env.To) != 1 || env.To[0].Name != "Bob" {
		t.Errorf("To = %+v, unexpected", env.To)
	}
	if env.ReplyTo != nil {
		t.Errorf("ReplyTo = %+v, want nil", env.ReplyTo)
	}
}

func TestParseEnvelopeNilForNilToken(t *testing.T) {
	if env := ParseEnvelope(nil); env != nil {
		t.Errorf("expected nil, got %+v", env)
	}
}

func TestParseEnvelopeNilForNonListToken(t *testing.T) {
	tok := atomTok("not a list")
	if env := ParseEnvelope(&tok); env != nil {
		t.Errorf("expected nil, got %+v", env)
	}
}

func TestParseEnvelopeNilForShortList(t *testing.T) {
	tok := listTok(atomTok("a"), atomTok("b"))
	if env := ParseEnvelope(&tok); env != nil {
		t.Errorf("expected nil, got %+v", env)
	}
}

func TestParseAddressListSkipsMalformedEntries(t *testing.T) {
	tok := listTok(
		addressTok("Good", "good", "example.com"),
		listTok(atomTok("too"), atomTok("short")),
		atomTok("not-a-list"),
	)
	addrs := parseAddressList(tok)
	if len(addrs) != 1 || addrs[0].Mailbox != "good" {
		t.Errorf("addrs = %+v, want single good entry", addrs)
	}
}

func TestParseAddressListNilForNonList(t *testing.T) {
	tok := nilTok()
	if addrs := parseAddressList(tok); addrs != nil {
		t.Errorf("expected nil, got %+v", addrs)
	}
}
