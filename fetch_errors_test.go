package imap

import (
	"context"
	"testing"

	"github.com/fenilsonani/imapclient/internal/config"
)

func newTestClient() *Client {
	return New(&config.Config{}, nil)
}

func TestFetchRejectsInvalidSequenceSet(t *testing.T) {
	c := newTestClient()
	if _, err := c.Fetch(context.Background(), "not-a-seqset!", FetchOptions{}); err == nil {
		t.Error("expected error for invalid sequence set")
	}
}

func TestFetchRejectsWrongState(t *testing.T) {
	c := newTestClient()
	if _, err := c.Fetch(context.Background(), "1:*", FetchOptions{}); err == nil {
		t.Error("expected error when not in Selected state")
	}
}

func TestFetchUIDsEmptyListShortCircuits(t *testing.T) {
	c := newTestClient()
	messages, err := c.FetchUIDs(context.Background(), nil, FetchOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if messages != nil {
		t.Errorf("expected nil messages, got %v", messages)
	}
}

func TestAddFlagsEmptyListIsNoop(t *testing.T) {
	c := newTestClient()
	if err := c.AddFlags(context.Background(), "1:*", nil); err != nil {
		t.Errorf("expected no-op for empty flags, got error: %v", err)
	}
}

func TestDelFlagsEmptyListIsNoop(t *testing.T) {
	c := newTestClient()
	if err := c.DelFlags(context.Background(), "1:*", nil); err != nil {
		t.Errorf("expected no-op for empty flags, got error: %v", err)
	}
}

func TestAddFlagsRejectsInvalidSequenceSet(t *testing.T) {
	c := newTestClient()
	if err := c.AddFlags(context.Background(), "!!!", []string{`\Seen`}); err == nil {
		t.Error("expected error for invalid sequence set")
	}
}

func TestCopyRejectsInvalidMailboxName(t *testing.T) {
	c := newTestClient()
	if err := c.Copy(context.Background(), "1:*", ""); err == nil {
		t.Error("expected error for empty mailbox name")
	}
}

func TestExpungeRejectsWrongState(t *testing.T) {
	c := newTestClient()
	if err := c.Expunge(context.Background()); err == nil {
		t.Error("expected error when not in Selected state")
	}
}

func TestSearchRejectsWrongState(t *testing.T) {
	c := newTestClient()
	if _, err := c.Search(context.Background(), nil); err == nil {
		t.Error("expected error when not in Selected state")
	}
}

func TestMoveRejectsInvalidSequenceSet(t *testing.T) {
	c := newTestClient()
	if err := c.Move(context.Background(), "bad!", "INBOX"); err == nil {
		t.Error("expected error for invalid sequence set")
	}
}

func TestSearchAndFetchRequiresSelected(t *testing.T) {
	c := newTestClient()
	// Still requires Selected state before it can even search.
	if _, err := c.SearchAndFetch(context.Background(), nil, FetchOptions{}); err == nil {
		t.Error("expected error when not in Selected state")
	}
}
