package imap

import (
	"context"
	"net/mail"
	"strconv"
	"strings"

	"github.com/fenilsonani/imapclient/internal/command"
	"github.com/fenilsonani/imapclient/internal/respparser"
	"github.com/fenilsonani/imapclient/internal/validation"
)

// Fetch issues "UID FETCH seqSet (...)" against the selected mailbox and
// folds the results into Message values. seqSet is a UID sequence-set
// string such as "1:*" or "4,9,12:20".
func (c *Client) Fetch(ctx context.Context, seqSet string, opts FetchOptions) ([]Message, error) {
	if err := validation.SequenceSet(seqSet); err != nil {
		return nil, err
	}
	if err := c.requireState(StateSelected); err != nil {
		return nil, err
	}
	cmdOpts := command.FetchOptions{
		Bodies:       opts.Bodies,
		Struct:       opts.Struct,
		Envelope:     opts.Envelope,
		Size:         opts.Size,
		MarkSeen:     opts.MarkSeen,
		Modseq:       opts.Modseq,
		ChangedSince: opts.ChangedSince,
	}
	cmdText := command.WithUID(command.Fetch(seqSet, cmdOpts))
	res, err := c.engine.ExecuteCommand(ctx, cmdText)
	if err != nil {
		return nil, c.wrapCommandErr(err, cmdText)
	}
	return foldMessages(res.Untagged), nil
}

// FetchUIDs is Fetch over an explicit, ordered UID list. An empty list
// returns without issuing a command.
func (c *Client) FetchUIDs(ctx context.Context, uids []uint32, opts FetchOptions) ([]Message, error) {
	if len(uids) == 0 {
		return nil, nil
	}
	return c.Fetch(ctx, uidSetString(uids), opts)
}

func uidSetString(uids []uint32) string {
	parts := make([]string, len(uids))
	for i, u := range uids {
		parts[i] = strconv.FormatUint(uint64(u), 10)
	}
	return strings.Join(parts, ",")
}

// AddFlags issues "UID STORE seqSet +FLAGS (...)". An empty flags list is
// a no-op.
func (c *Client) AddFlags(ctx context.Context, seqSet string, flags []string) error {
	return c.storeFlags(ctx, seqSet, true, flags)
}

// DelFlags issues "UID STORE seqSet -FLAGS (...)". An empty flags list is
// a no-op.
func (c *Client) DelFlags(ctx context.Context, seqSet string, flags []string) error {
	return c.storeFlags(ctx, seqSet, false, flags)
}

func (c *Client) storeFlags(ctx context.Context, seqSet string, add bool, flags []string) error {
	if len(flags) == 0 {
		return nil
	}
	if err := validation.SequenceSet(seqSet); err != nil {
		return err
	}
	if err := c.requireState(StateSelected); err != nil {
		return err
	}
	cmdText := command.WithUID(command.Store(seqSet, add, flags))
	if _, err := c.engine.ExecuteCommand(ctx, cmdText); err != nil {
		return c.wrapCommandErr(err, cmdText)
	}
	return nil
}

// Copy issues "UID COPY seqSet mailbox".
func (c *Client) Copy(ctx context.Context, seqSet, mailboxName string) error {
	if err := validation.SequenceSet(seqSet); err != nil {
		return err
	}
	if err := validation.MailboxName(mailboxName); err != nil {
		return err
	}
	if err := c.requireState(StateSelected); err != nil {
		return err
	}
	cmdText := command.WithUID(command.Copy(seqSet, mailboxName))
	if _, err := c.engine.ExecuteCommand(ctx, cmdText); err != nil {
		return c.wrapCommandErr(err, cmdText)
	}
	return nil
}

// Move copies seqSet to mailboxName and marks the originals \Deleted.
// Callers still issue Expunge to make the move permanent; RFC 3501 has
// no atomic MOVE, and none of this session's capability servers were
// assumed to speak RFC 6851.
func (c *Client) Move(ctx context.Context, seqSet, mailboxName string) error {
	if err := c.Copy(ctx, seqSet, mailboxName); err != nil {
		return err
	}
	return c.AddFlags(ctx, seqSet, []string{`\Deleted`})
}

// Expunge issues EXPUNGE, permanently removing \Deleted messages from
// the selected mailbox.
func (c *Client) Expunge(ctx context.Context) error {
	if err := c.requireState(StateSelected); err != nil {
		return err
	}
	cmdText := command.Expunge()
	if _, err := c.engine.ExecuteCommand(ctx, cmdText); err != nil {
		return c.wrapCommandErr(err, cmdText)
	}
	return nil
}

func foldMessages(untagged []respparser.Untagged) []Message {
	var messages []Message
	for _, u := range untagged {
		if u.Fetch == nil {
			continue
		}
		messages = append(messages, foldMessage(*u.Fetch))
	}
	return messages
}

func foldMessage(data respparser.FetchData) Message {
	m := Message{SeqNo: data.SeqNo, Bodies: map[string][]byte{}}
	for key, val := range data.Attributes {
		switch {
		case key == "UID":
			if n, err := strconv.ParseUint(val.Text, 10, 32); err == nil {
				m.UID = uint32(n)
			}
		case key == "FLAGS":
			m.Flags = val.List
		case key == "MODSEQ":
			m.Modseq = val.Num
		case key == "RFC822.SIZE":
			if n, err := strconv.ParseInt(val.Text, 10, 64); err == nil {
				m.Size = n
			}
		case key == "ENVELOPE":
			if val.Kind == respparser.AttrRaw {
				m.Envelope = mapEnvelope(respparser.ParseEnvelope(val.Raw))
			}
		case key == "BODYSTRUCTURE":
			if val.Kind == respparser.AttrRaw {
				m.BodyStructure = mapBodyStructure(respparser.ParseBodyStructure(val.Raw))
			}
		case strings.HasPrefix(key, "BODY[") || strings.HasPrefix(key, "BODY.PEEK["):
			section := bodySectionName(key)
			m.Bodies[section] = []byte(val.Text)
		}
	}
	return m
}

// bodySectionName strips the "BODY[" / "BODY.PEEK[" wrapper a FETCH
// attribute key carries down to the bare section name, e.g.
// "BODY[HEADER]" -> "HEADER", "BODY.PEEK[]" -> "".
func bodySectionName(key string) string {
	inner := strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(key, "BODY.PEEK["), "BODY["), "]")
	return inner
}

func mapEnvelope(ed *respparser.EnvelopeData) *Envelope {
	if ed == nil {
		return nil
	}
	env := &Envelope{
		Subject:   ed.Subject,
		From:      mapAddresses(ed.From),
		Sender:    mapAddresses(ed.Sender),
		ReplyTo:   mapAddresses(ed.ReplyTo),
		To:        mapAddresses(ed.To),
		CC:        mapAddresses(ed.CC),
		BCC:       mapAddresses(ed.BCC),
		InReplyTo: ed.InReplyTo,
		MessageID: ed.MessageID,
	}
	if ed.Date != "" {
		if t, err := mail.ParseDate(ed.Date); err == nil {
			env.Date = t
		}
	}
	return env
}

func mapAddresses(as []respparser.AddressData) []Address {
	if as == nil {
		return nil
	}
	out := make([]Address, len(as))
	for i, a := range as {
		out[i] = Address{Name: a.Name, Mailbox: a.Mailbox, Host: a.Host}
	}
	return out
}

func mapBodyStructure(bd *respparser.BodyStructureData) *BodyStructure {
	if bd == nil {
		return nil
	}
	bs := &BodyStructure{
		MIMEType:    bd.MIMEType,
		MIMESubtype: bd.MIMESubtype,
		Params:      bd.Params,
		ID:          bd.ID,
		Description: bd.Description,
		Encoding:    bd.Encoding,
		Size:        bd.Size,
		Lines:       bd.Lines,
		Envelope:    mapEnvelope(bd.Envelope),
	}
	if len(bd.Parts) > 0 {
		bs.Parts = make([]BodyStructure, len(bd.Parts))
		for i, p := range bd.Parts {
			bs.Parts[i] = *mapBodyStructure(&p)
		}
	}
	return bs
}
