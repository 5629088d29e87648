package imap

import (
	"context"

	"github.com/fenilsonani/imapclient/internal/command"
)

// Search issues "UID SEARCH (...)" against the selected mailbox and
// returns the matching UIDs. An empty criteria list searches ALL.
func (c *Client) Search(ctx context.Context, criteria []command.Criterion) ([]uint32, error) {
	return c.search(ctx, criteria, nil)
}

// SearchSince is Search with the RFC 7162 CHANGEDSINCE search modifier,
// restricting results to messages whose MODSEQ has changed since
// changedSince.
func (c *Client) SearchSince(ctx context.Context, criteria []command.Criterion, changedSince int64) ([]uint32, error) {
	return c.search(ctx, criteria, &changedSince)
}

func (c *Client) search(ctx context.Context, criteria []command.Criterion, changedSince *int64) ([]uint32, error) {
	if err := c.requireState(StateSelected); err != nil {
		return nil, err
	}
	cmdText := command.WithUID(command.Search(criteria, changedSince))
	res, err := c.engine.ExecuteCommand(ctx, cmdText)
	if err != nil {
		return nil, c.wrapCommandErr(err, cmdText)
	}
	var uids []uint32
	for _, u := range res.Untagged {
		if u.Search == nil {
			continue
		}
		uids = append(uids, u.Search.UIDs...)
	}
	return uids, nil
}

// SearchAndFetch runs Search and, when it returns a non-empty UID list,
// immediately fetches those UIDs with opts. An empty search result
// short-circuits without issuing a FETCH.
func (c *Client) SearchAndFetch(ctx context.Context, criteria []command.Criterion, opts FetchOptions) ([]Message, error) {
	uids, err := c.Search(ctx, criteria)
	if err != nil {
		return nil, err
	}
	if len(uids) == 0 {
		return nil, nil
	}
	return c.FetchUIDs(ctx, uids, opts)
}
