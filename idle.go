package imap

import (
	"context"
	"sync"

	"github.com/fenilsonani/imapclient/internal/metrics"
	"github.com/fenilsonani/imapclient/internal/respparser"
)

// IdleController represents one active IDLE (or polling Watch) session.
// It is safe to read Events concurrently with other Client calls; only
// one IdleController may be active on a Client at a time.
type IdleController struct {
	client *Client

	mu     sync.Mutex
	active bool
	stopCh chan struct{}
	doneCh chan struct{}
	events chan IdleEvent
}

// Events returns the channel IDLE/watch notifications are delivered on.
// It is closed once the controller stops.
func (ic *IdleController) Events() <-chan IdleEvent {
	return ic.events
}

// IsActive reports whether the controller is still subscribed.
func (ic *IdleController) IsActive() bool {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return ic.active
}

// Stop exits IDLE (sending DONE) or stops the polling loop, and blocks
// until the controller's goroutine has closed the event channel. Stop
// does not drain the channel; events still buffered in it stay readable.
func (ic *IdleController) Stop() {
	ic.mu.Lock()
	if !ic.active {
		ic.mu.Unlock()
		return
	}
	ic.active = false
	close(ic.stopCh)
	ic.mu.Unlock()
	<-ic.doneCh
}

func (ic *IdleController) emit(ev IdleEvent) {
	select {
	case ic.events <- ev:
	case <-ic.stopCh:
	}
}

func (ic *IdleController) translate(u respparser.Untagged) {
	switch u.Type {
	case "EXISTS":
		ic.emit(IdleEvent{Kind: IdleExists, SeqNo: uint32(u.Number)})
		metrics.RecordIdleEvent("exists")
	case "EXPUNGE":
		ic.emit(IdleEvent{Kind: IdleExpunge, SeqNo: uint32(u.Number)})
		metrics.RecordIdleEvent("expunge")
	case "RECENT":
		ic.emit(IdleEvent{Kind: IdleRecent, SeqNo: uint32(u.Number)})
		metrics.RecordIdleEvent("recent")
	case "FETCH":
		if u.Fetch == nil {
			return
		}
		var flags []string
		if fv, ok := u.Fetch.Attributes["FLAGS"]; ok {
			flags = fv.List
		}
		ic.emit(IdleEvent{Kind: IdleFetch, SeqNo: u.Fetch.SeqNo, Flags: flags})
		metrics.RecordIdleEvent("fetch")
	case "OK", "NO", "BAD", "BYE":
		ic.emit(IdleEvent{Kind: IdleNotification, Text: u.Text})
		metrics.RecordIdleEvent("notification")
	}
}

// Idle enters RFC 2177 IDLE on the selected mailbox and returns a
// controller streaming untagged notifications until Stop is called or
// the connection closes. Entering IDLE without a selected mailbox, while
// another IDLE is active, or against a server that never advertised the
// IDLE capability is an error.
func (c *Client) Idle(ctx context.Context) (*IdleController, error) {
	if err := c.requireState(StateSelected); err != nil {
		return nil, err
	}
	if !c.Capabilities().HasIdle() {
		return nil, &ProtocolError{Message: "server does not advertise IDLE", Command: "IDLE"}
	}

	c.mu.Lock()
	if c.idle != nil && c.idle.IsActive() {
		c.mu.Unlock()
		return nil, &ProtocolError{Message: "IDLE already active on this session", Command: "IDLE"}
	}
	c.mu.Unlock()

	if err := c.engine.EnterIdle(ctx); err != nil {
		return nil, c.wrapCommandErr(err, "IDLE")
	}

	sub := c.engine.Subscribe()
	ic := &IdleController{
		client: c,
		active: true,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		events: make(chan IdleEvent, 64),
	}

	c.mu.Lock()
	c.idle = ic
	c.mu.Unlock()

	go ic.runIdle(sub)
	go c.clearIdleOnDone(ic)
	return ic, nil
}

func (ic *IdleController) runIdle(sub chan respparser.Untagged) {
	defer close(ic.doneCh)
	defer close(ic.events)
	defer ic.client.engine.Unsubscribe(sub)

	for {
		select {
		case u, ok := <-sub:
			if !ok {
				ic.emit(IdleEvent{Kind: IdleEnd})
				return
			}
			ic.translate(u)
		case <-ic.stopCh:
			exitCtx, cancel := context.WithTimeout(context.Background(), ic.client.cfg.CommandTimeout())
			_, err := ic.client.engine.ExitIdle(exitCtx)
			cancel()
			if err != nil {
				ic.events <- IdleEvent{Kind: IdleError, Err: err}
			}
			ic.events <- IdleEvent{Kind: IdleEnd}
			return
		}
	}
}

func (c *Client) clearIdleOnDone(ic *IdleController) {
	<-ic.doneCh
	c.mu.Lock()
	if c.idle == ic {
		c.idle = nil
	}
	c.mu.Unlock()
}
