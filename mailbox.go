package imap

import (
	"context"
	"strconv"
	"strings"

	"github.com/fenilsonani/imapclient/internal/command"
	"github.com/fenilsonani/imapclient/internal/protocol"
	"github.com/fenilsonani/imapclient/internal/respparser"
	"github.com/fenilsonani/imapclient/internal/validation"
)

// OpenBox selects (or, if readOnly, examines) a mailbox and returns its
// folded state.
func (c *Client) OpenBox(ctx context.Context, name string, readOnly bool) (*Mailbox, error) {
	if err := validation.MailboxName(name); err != nil {
		return nil, err
	}
	if err := c.requireAtLeast(StateAuthenticated); err != nil {
		return nil, err
	}

	cmdText := command.Select(name, "")
	if readOnly {
		cmdText = command.Examine(name, "")
	}

	res, err := c.engine.ExecuteCommand(ctx, cmdText)
	if err != nil {
		c.clearSelection()
		return nil, c.wrapCommandErr(err, cmdText)
	}

	mbox := c.foldMailbox(name, readOnly, res)
	c.setSelection(mbox)
	return mbox, nil
}

// OpenBoxWithQresync performs the RFC 7162 QRESYNC-augmented
// SELECT/EXAMINE. It fails locally if the capability set is known and
// lacks QRESYNC, without round-tripping to the server.
func (c *Client) OpenBoxWithQresync(ctx context.Context, name string, params QresyncParams, readOnly bool) (*QresyncResult, error) {
	if err := validation.MailboxName(name); err != nil {
		return nil, err
	}
	if err := c.requireAtLeast(StateAuthenticated); err != nil {
		return nil, err
	}
	if caps := c.Capabilities(); len(caps) > 0 && !caps.HasQresync() {
		return nil, &ProtocolError{Message: "server does not advertise QRESYNC", Command: "SELECT"}
	}

	cmdText := command.Select(name, params.render())
	if readOnly {
		cmdText = command.Examine(name, params.render())
	}

	res, err := c.engine.ExecuteCommand(ctx, cmdText)
	if err != nil {
		c.clearSelection()
		return nil, c.wrapCommandErr(err, cmdText)
	}

	mbox := c.foldMailbox(name, readOnly, res)
	c.setSelection(mbox)

	uids, earlier := collectVanished(res.Untagged)
	return &QresyncResult{Mailbox: mbox, Vanished: uids, VanishedEarlier: earlier}, nil
}

func (c *Client) foldMailbox(name string, readOnly bool, res protocol.Result) *Mailbox {
	fold := respparser.SelectFold{}
	for _, u := range res.Untagged {
		respparser.FoldSelect(&fold, u)
	}
	respparser.ApplyTaggedCode(&fold, res.Text)

	mb := &Mailbox{
		Name:           name,
		Exists:         fold.Total,
		Recent:         fold.New,
		Flags:          fold.Flags,
		PermanentFlags: fold.PermanentFlags,
		UIDValidity:    fold.UIDValidity,
		UIDNext:        fold.UIDNext,
		Unseen:         fold.Unseen,
		HighestModseq:  fold.HighestModseq,
		NoModseq:       fold.NoModseq,
		ReadOnly:       readOnly,
	}
	if fold.ReadOnly != nil {
		mb.ReadOnly = *fold.ReadOnly
	}
	return mb
}

func (c *Client) setSelection(mb *Mailbox) {
	c.mu.Lock()
	c.mailbox = mb
	c.state = StateSelected
	c.mu.Unlock()
}

func (c *Client) clearSelection() {
	c.mu.Lock()
	c.mailbox = nil
	if c.state == StateSelected {
		c.state = StateAuthenticated
	}
	c.mu.Unlock()
}

// CurrentMailbox returns the currently selected mailbox, or nil if none.
func (c *Client) CurrentMailbox() *Mailbox {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mailbox
}

// Close sends CLOSE, permanently expunging \Deleted messages and
// deselecting the mailbox (RFC 3501 §6.4.2).
func (c *Client) Close(ctx context.Context) error {
	if err := c.requireState(StateSelected); err != nil {
		return err
	}
	_, err := c.engine.ExecuteCommand(ctx, command.Close())
	c.clearSelection()
	if err != nil {
		return c.wrapCommandErr(err, command.Close())
	}
	return nil
}

// Unselect deselects the mailbox without expunging, per RFC 3691.
func (c *Client) Unselect(ctx context.Context) error {
	if err := c.requireState(StateSelected); err != nil {
		return err
	}
	_, err := c.engine.ExecuteCommand(ctx, command.Unselect())
	c.clearSelection()
	if err != nil {
		return c.wrapCommandErr(err, command.Unselect())
	}
	return nil
}

// Create issues CREATE for a new mailbox name.
func (c *Client) Create(ctx context.Context, name string) error {
	if err := validation.MailboxName(name); err != nil {
		return err
	}
	if err := c.requireAtLeast(StateAuthenticated); err != nil {
		return err
	}
	_, err := c.engine.ExecuteCommand(ctx, command.Create(name))
	if err != nil {
		return c.wrapCommandErr(err, command.Create(name))
	}
	return nil
}

// Delete issues DELETE for a mailbox name.
func (c *Client) Delete(ctx context.Context, name string) error {
	if err := validation.MailboxName(name); err != nil {
		return err
	}
	if err := c.requireAtLeast(StateAuthenticated); err != nil {
		return err
	}
	_, err := c.engine.ExecuteCommand(ctx, command.Delete(name))
	if err != nil {
		return c.wrapCommandErr(err, command.Delete(name))
	}
	return nil
}

// Rename issues RENAME from oldName to newName.
func (c *Client) Rename(ctx context.Context, oldName, newName string) error {
	if err := validation.MailboxName(oldName); err != nil {
		return err
	}
	if err := validation.MailboxName(newName); err != nil {
		return err
	}
	if err := c.requireAtLeast(StateAuthenticated); err != nil {
		return err
	}
	_, err := c.engine.ExecuteCommand(ctx, command.Rename(oldName, newName))
	if err != nil {
		return c.wrapCommandErr(err, command.Rename(oldName, newName))
	}
	return nil
}

// ListEntry is one mailbox named by LIST/LSUB.
type ListEntry struct {
	Attributes []string
	Delimiter  byte
	Name       string
}

// List issues LIST ref pattern and folds every untagged LIST response
// into a ListEntry.
func (c *Client) List(ctx context.Context, ref, pattern string) ([]ListEntry, error) {
	if err := c.requireAtLeast(StateAuthenticated); err != nil {
		return nil, err
	}
	return c.listLike(ctx, command.List(ref, pattern))
}

// Lsub issues LSUB ref pattern, the subscribed-mailbox counterpart to List.
func (c *Client) Lsub(ctx context.Context, ref, pattern string) ([]ListEntry, error) {
	if err := c.requireAtLeast(StateAuthenticated); err != nil {
		return nil, err
	}
	return c.listLike(ctx, command.Lsub(ref, pattern))
}

func (c *Client) listLike(ctx context.Context, cmdText string) ([]ListEntry, error) {
	res, err := c.engine.ExecuteCommand(ctx, cmdText)
	if err != nil {
		return nil, c.wrapCommandErr(err, cmdText)
	}
	var entries []ListEntry
	for _, u := range res.Untagged {
		if u.List == nil {
			continue
		}
		e := ListEntry{Attributes: u.List.Attributes, Name: u.List.Name}
		if u.List.Delimiter != nil {
			e.Delimiter = *u.List.Delimiter
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// MailboxStatus is the result of STATUS, keyed by the requested item
// names (MESSAGES, RECENT, UIDNEXT, UIDVALIDITY, UNSEEN, HIGHESTMODSEQ).
type MailboxStatus map[string]int64

// Status issues STATUS mailbox (items...) (RFC 3501 §6.3.10).
func (c *Client) Status(ctx context.Context, name string, items []string) (MailboxStatus, error) {
	if err := validation.MailboxName(name); err != nil {
		return nil, err
	}
	if err := c.requireAtLeast(StateAuthenticated); err != nil {
		return nil, err
	}
	cmdText := command.Status(name, items)
	res, err := c.engine.ExecuteCommand(ctx, cmdText)
	if err != nil {
		return nil, c.wrapCommandErr(err, cmdText)
	}
	out := MailboxStatus{}
	for _, u := range res.Untagged {
		if u.Type != "STATUS" || u.Extra != name {
			continue
		}
		parseStatusItemsInto(out, u.Text)
	}
	return out, nil
}

func parseStatusItemsInto(out MailboxStatus, text string) {
	fields := strings.Fields(text)
	for i := 0; i+1 < len(fields); i += 2 {
		n, err := strconv.ParseInt(fields[i+1], 10, 64)
		if err != nil {
			continue
		}
		out[strings.ToUpper(fields[i])] = n
	}
}
