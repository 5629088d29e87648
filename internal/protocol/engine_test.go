package protocol

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fenilsonani/imapclient/internal/respparser"
)

// fakeTransport is a channel-backed Transport double. SendLine/Send record
// what was written and also publish onto buffered channels so a test can
// synchronize on exactly when the engine has written a given line, instead
// of sleeping and hoping.
type fakeTransport struct {
	dataCh    chan []byte
	errCh     chan error
	closedCh  chan struct{}
	sentCh    chan string
	sentRawCh chan []byte
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		dataCh:    make(chan []byte, 64),
		errCh:     make(chan error, 4),
		closedCh:  make(chan struct{}),
		sentCh:    make(chan string, 64),
		sentRawCh: make(chan []byte, 64),
	}
}

func (f *fakeTransport) Connect() error    { return nil }
func (f *fakeTransport) Disconnect() error { return nil }

func (f *fakeTransport) Send(b []byte) error {
	cp := append([]byte(nil), b...)
	f.sentRawCh <- cp
	return nil
}

func (f *fakeTransport) SendLine(text string) error {
	f.sentCh <- text
	return nil
}

func (f *fakeTransport) Data() <-chan []byte     { return f.dataCh }
func (f *fakeTransport) Errors() <-chan error    { return f.errCh }
func (f *fakeTransport) Closed() <-chan struct{} { return f.closedCh }

// serverSend feeds one CRLF-terminated response line from the "server" into
// the engine's read loop.
func (f *fakeTransport) serverSend(line string) {
	f.dataCh <- []byte(line + "\r\n")
}

func waitSent(t *testing.T, tr *fakeTransport) string {
	t.Helper()
	select {
	case line := <-tr.sentCh:
		return line
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for engine to send a line")
		return ""
	}
}

type engineOutcome struct {
	res Result
	err error
}

func TestEngineOutOfOrderTagCompletion(t *testing.T) {
	tr := newFakeTransport()
	eng := NewEngine(tr, "A", nil)
	eng.Start()
	defer eng.Close()

	res1 := make(chan engineOutcome, 1)
	res2 := make(chan engineOutcome, 1)

	go func() {
		r, err := eng.ExecuteCommand(context.Background(), "NOOP")
		res1 <- engineOutcome{r, err}
	}()
	line1 := waitSent(t, tr)

	go func() {
		r, err := eng.ExecuteCommand(context.Background(), "NOOP")
		res2 <- engineOutcome{r, err}
	}()
	line2 := waitSent(t, tr)

	tag1 := strings.Fields(line1)[0]
	tag2 := strings.Fields(line2)[0]

	// Reply to the second-issued command first.
	tr.serverSend(tag2 + " OK second-done")
	tr.serverSend(tag1 + " OK first-done")

	o2 := <-res2
	o1 := <-res1

	if o1.err != nil || o1.res.Text != "first-done" {
		t.Errorf("first command result = %+v, err = %v, want text first-done", o1.res, o1.err)
	}
	if o2.err != nil || o2.res.Text != "second-done" {
		t.Errorf("second command result = %+v, err = %v, want text second-done", o2.res, o2.err)
	}
}

func TestEngineLiteralContinuationHandshake(t *testing.T) {
	tr := newFakeTransport()
	eng := NewEngine(tr, "A", nil)
	eng.Start()
	defer eng.Close()

	literal := []byte("Hello World")
	resCh := make(chan engineOutcome, 1)
	go func() {
		r, err := eng.ExecuteCommandWithLiteral(context.Background(), "APPEND INBOX (\\Seen)", literal)
		resCh <- engineOutcome{r, err}
	}()

	cmdLine := waitSent(t, tr)
	if !strings.Contains(cmdLine, "{11}") {
		t.Fatalf("sent command = %q, want a trailing {11} literal marker", cmdLine)
	}

	tr.serverSend("+ Ready for literal data")

	select {
	case raw := <-tr.sentRawCh:
		if string(raw) != "Hello World" {
			t.Fatalf("literal bytes sent = %q, want %q", raw, literal)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for literal bytes to be written")
	}
	select {
	case raw := <-tr.sentRawCh:
		if string(raw) != "\r\n" {
			t.Fatalf("trailing bytes = %q, want CRLF", raw)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for trailing CRLF")
	}

	tag := strings.Fields(cmdLine)[0]
	tr.serverSend(tag + " OK APPEND completed")

	out := <-resCh
	if out.err != nil || out.res.Status != respparser.OK {
		t.Fatalf("result = %+v, err = %v, want OK", out.res, out.err)
	}
}

func TestEngineLiteralHandshakeCanceledByContext(t *testing.T) {
	tr := newFakeTransport()
	eng := NewEngine(tr, "A", nil)
	eng.Start()
	defer eng.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := eng.ExecuteCommandWithLiteral(ctx, "APPEND INBOX", []byte("x"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded (server never sent the continuation)", err)
	}
	waitSent(t, tr) // drain the command line so it doesn't leak into later tests
}

// TestEngineTimeoutDoesNotWedgeTagPipeline exercises the scenario where a
// timed-out command must not prevent a later command on the same engine
// from dispatching and completing normally.
func TestEngineTimeoutDoesNotWedgeTagPipeline(t *testing.T) {
	tr := newFakeTransport()
	eng := NewEngine(tr, "A", nil)
	eng.Start()
	defer eng.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := eng.ExecuteCommand(ctx, "NOOP"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("first command err = %v, want DeadlineExceeded", err)
	}
	waitSent(t, tr) // the timed-out command's line was already written

	resCh := make(chan engineOutcome, 1)
	go func() {
		r, err := eng.ExecuteCommand(context.Background(), "NOOP")
		resCh <- engineOutcome{r, err}
	}()
	line2 := waitSent(t, tr)
	tag2 := strings.Fields(line2)[0]
	tr.serverSend(tag2 + " OK done")

	out := <-resCh
	if out.err != nil || out.res.Status != respparser.OK {
		t.Fatalf("command after timeout: result = %+v, err = %v, want OK", out.res, out.err)
	}

	// A stray late tagged response for the abandoned first tag must not
	// panic or be delivered to anyone (it was already removed from
	// pending when its context expired).
	tr.serverSend("A001 OK late arrival")
	time.Sleep(10 * time.Millisecond)
}

func TestEngineEnterExitIdle(t *testing.T) {
	tr := newFakeTransport()
	eng := NewEngine(tr, "A", nil)
	eng.Start()
	defer eng.Close()

	enterErrCh := make(chan error, 1)
	go func() {
		enterErrCh <- eng.EnterIdle(context.Background())
	}()

	idleLine := waitSent(t, tr)
	if !strings.HasSuffix(idleLine, " IDLE") {
		t.Fatalf("sent = %q, want a trailing IDLE command", idleLine)
	}
	tag := strings.Fields(idleLine)[0]

	tr.serverSend("+ idling")
	if err := <-enterErrCh; err != nil {
		t.Fatalf("EnterIdle err = %v", err)
	}
	if !eng.IsIdling() {
		t.Fatal("IsIdling = false after a successful EnterIdle")
	}

	tr.serverSend("* 5 EXISTS")

	exitResCh := make(chan engineOutcome, 1)
	go func() {
		r, err := eng.ExitIdle(context.Background())
		exitResCh <- engineOutcome{r, err}
	}()

	doneLine := waitSent(t, tr)
	if doneLine != "DONE" {
		t.Fatalf("sent = %q, want DONE", doneLine)
	}
	tr.serverSend(tag + " OK IDLE terminated")

	out := <-exitResCh
	if out.err != nil {
		t.Fatalf("ExitIdle err = %v", out.err)
	}
	if eng.IsIdling() {
		t.Fatal("IsIdling = true after ExitIdle")
	}
	found := false
	for _, u := range out.res.Untagged {
		if u.Type == "EXISTS" && u.Number == 5 {
			found = true
		}
	}
	if !found {
		t.Errorf("ExitIdle result.Untagged = %+v, want the EXISTS notification observed during IDLE", out.res.Untagged)
	}
}

func TestEngineEnterIdleRejectedWithoutContinuation(t *testing.T) {
	tr := newFakeTransport()
	eng := NewEngine(tr, "A", nil)
	eng.Start()
	defer eng.Close()

	enterErrCh := make(chan error, 1)
	go func() {
		enterErrCh <- eng.EnterIdle(context.Background())
	}()

	idleLine := waitSent(t, tr)
	tag := strings.Fields(idleLine)[0]
	tr.serverSend(tag + " BAD IDLE not supported")

	if err := <-enterErrCh; err == nil {
		t.Fatal("EnterIdle err = nil, want the tagged BAD surfaced as an error")
	}
	if eng.IsIdling() {
		t.Fatal("IsIdling = true after a rejected EnterIdle")
	}
}

func TestEngineExitIdleWithoutEnterReturnsErrNotIdle(t *testing.T) {
	tr := newFakeTransport()
	eng := NewEngine(tr, "A", nil)
	eng.Start()
	defer eng.Close()

	if _, err := eng.ExitIdle(context.Background()); !errors.Is(err, ErrNotIdle) {
		t.Fatalf("err = %v, want ErrNotIdle", err)
	}
}

func TestEngineSubscribeReceivesUntaggedNotifications(t *testing.T) {
	tr := newFakeTransport()
	eng := NewEngine(tr, "A", nil)
	eng.Start()
	defer eng.Close()

	ch := eng.Subscribe()
	defer eng.Unsubscribe(ch)

	tr.serverSend("* 12 EXISTS")

	select {
	case u := <-ch:
		if u.Type != "EXISTS" || u.Number != 12 {
			t.Errorf("got %+v, want EXISTS 12", u)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for subscribed notification")
	}
}

func TestEngineCloseFailsPendingCommands(t *testing.T) {
	tr := newFakeTransport()
	eng := NewEngine(tr, "A", nil)
	eng.Start()

	resCh := make(chan engineOutcome, 1)
	go func() {
		r, err := eng.ExecuteCommand(context.Background(), "NOOP")
		resCh <- engineOutcome{r, err}
	}()
	waitSent(t, tr)

	eng.Close()

	out := <-resCh
	if !errors.Is(out.err, ErrConnectionClosed) {
		t.Fatalf("err = %v, want ErrConnectionClosed", out.err)
	}
}
