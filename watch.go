package imap

import (
	"context"
	"time"

	"github.com/fenilsonani/imapclient/internal/command"
	"github.com/fenilsonani/imapclient/internal/respparser"
)

// Watch streams mailbox notifications the same way Idle does, but falls
// back to periodic NOOP polling when the server never advertised IDLE.
// pollInterval of zero uses the configured default.
func (c *Client) Watch(ctx context.Context, pollInterval time.Duration) (*IdleController, error) {
	if err := c.requireState(StateSelected); err != nil {
		return nil, err
	}
	if c.Capabilities().HasIdle() {
		return c.Idle(ctx)
	}

	c.mu.Lock()
	if c.idle != nil && c.idle.IsActive() {
		c.mu.Unlock()
		return nil, &ProtocolError{Message: "IDLE already active on this session", Command: "NOOP"}
	}
	c.mu.Unlock()

	if pollInterval <= 0 {
		pollInterval = c.cfg.IdlePollInterval()
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

	go ic.runPoll(sub, pollInterval)
	go c.clearIdleOnDone(ic)
	return ic, nil
}

func (ic *IdleController) runPoll(sub chan respparser.Untagged, interval time.Duration) {
	defer close(ic.doneCh)
	defer close(ic.events)
	defer ic.client.engine.Unsubscribe(sub)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case u, ok := <-sub:
			if !ok {
				ic.events <- IdleEvent{Kind: IdleEnd}
				return
			}
			ic.translate(u)
		case <-ticker.C:
			noopCtx, cancel := context.WithTimeout(context.Background(), ic.client.cfg.CommandTimeout())
			_, err := ic.client.engine.ExecuteCommand(noopCtx, command.Noop())
			cancel()
			if err != nil {
				ic.events <- IdleEvent{Kind: IdleError, Err: err}
				ic.events <- IdleEvent{Kind: IdleEnd}
				return
			}
		case <-ic.stopCh:
			ic.events <- IdleEvent{Kind: IdleEnd}
			return
		}
	}
}
