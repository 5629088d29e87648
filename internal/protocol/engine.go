// Package protocol implements the IMAP protocol engine (C4): tag
// allocation, command dispatch, literal transmission, the untagged
// notification fan-out, and the IDLE enter/exit handshake. It sits
// between a Transport and the response parser, and knows nothing about
// mailbox state or the public API shape — that lives in the root
// package.
package protocol

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fenilsonani/imapclient/internal/logging"
	"github.com/fenilsonani/imapclient/internal/metrics"
	"github.com/fenilsonani/imapclient/internal/respparser"
)

// Engine multiplexes one Transport's byte stream into tagged command
// futures and a global untagged-response feed. One Engine serves
// exactly one Transport; callers fan out by issuing multiple commands
// concurrently (each gets its own tag) rather than by running multiple
// engines.
type Engine struct {
	transport Transport
	tags      *TagGenerator
	framer    *Framer
	log       *logging.Logger
	hub       *UntaggedHub

	mu          sync.Mutex
	pending     map[string]*pendingCommand
	idling      bool
	idleTag     string
	idlePending *pendingCommand
	closed      bool

	contCh chan string

	doneCh chan struct{}
}

// NewEngine wires an Engine to transport with the given tag prefix. Call
// Start to begin the dispatch loop once the transport is connected.
func NewEngine(transport Transport, tagPrefix string, log *logging.Logger) *Engine {
	if log == nil {
		log = logging.Default()
	}
	return &Engine{
		transport: transport,
		tags:      NewTagGenerator(tagPrefix),
		framer:    NewFramer(),
		log:       log.Engine(),
		hub:       NewUntaggedHub(),
		pending:   make(map[string]*pendingCommand),
		contCh:    make(chan string, 1),
		doneCh:    make(chan struct{}),
	}
}

// Start launches the background dispatch loop. It returns immediately;
// the loop runs until the transport closes or Close is called.
func (e *Engine) Start() {
	go e.run()
}

// Subscribe returns a channel delivering every untagged response the
// engine observes, for as long as the returned channel is not
// unsubscribed or the engine is closed.
func (e *Engine) Subscribe() chan respparser.Untagged {
	return e.hub.Subscribe()
}

// Unsubscribe stops delivery to a channel previously returned by
// Subscribe.
func (e *Engine) Unsubscribe(ch chan respparser.Untagged) {
	e.hub.Unsubscribe(ch)
}

// IsIdling reports whether an IDLE command is currently active.
func (e *Engine) IsIdling() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.idling
}

func (e *Engine) run() {
	transportData := e.transport.Data()
	transportErrs := e.transport.Errors()
	transportClosed := e.transport.Closed()

	for {
		select {
		case data, ok := <-transportData:
			if !ok {
				e.failAll(ErrConnectionClosed)
				return
			}
			for _, line := range e.framer.Feed(data) {
				e.handleLine(line)
			}
		case err, ok := <-transportErrs:
			if ok {
				e.failAll(err)
			}
			return
		case <-transportClosed:
			e.failAll(ErrConnectionClosed)
			return
		case <-e.doneCh:
			return
		}
	}
}

func (e *Engine) handleLine(line string) {
	switch respparser.Classify(line) {
	case respparser.ClassContinuation:
		text := strings.TrimPrefix(line, "+")
		text = strings.TrimPrefix(text, " ")
		select {
		case e.contCh <- text:
		default:
			e.log.Warn("continuation observed with no listener", "text", text)
		}
	case respparser.ClassUntagged:
		u := respparser.ParseUntagged(strings.TrimPrefix(line, "* "))
		e.mu.Lock()
		for _, p := range e.pending {
			p.untagged = append(p.untagged, u)
		}
		e.mu.Unlock()
		e.hub.Notify(u)
		metrics.RecordNotification(u.Type)
	default:
		e.resolveTag(respparser.ParseTagged(line))
	}
}

func (e *Engine) resolveTag(t respparser.Tagged) {
	e.mu.Lock()
	p, ok := e.pending[t.Tag]
	if ok {
		delete(e.pending, t.Tag)
	}
	isIdleTag := ok && e.idling && t.Tag == e.idleTag
	e.mu.Unlock()

	if !ok {
		e.log.Warn("tagged response for unknown tag", "tag", t.Tag, "status", string(t.Status))
		return
	}

	res := Result{Tag: t.Tag, Status: t.Status, Text: t.Text, Untagged: p.untagged}
	var err error
	if t.Status != respparser.OK {
		err = &CommandError{Tag: t.Tag, Status: t.Status, Text: t.Text, Command: p.commandText}
	}

	if isIdleTag {
		e.mu.Lock()
		e.idling = false
		e.idleTag = ""
		e.idlePending = nil
		e.mu.Unlock()
	}

	select {
	case p.resolve <- commandOutcome{result: res, err: err}:
	default:
	}
}

// ExecuteCommand allocates a tag, writes "<tag> <commandText>", and
// blocks until the tagged response arrives or ctx is done.
func (e *Engine) ExecuteCommand(ctx context.Context, commandText string) (Result, error) {
	return e.execute(ctx, commandText, nil)
}

// ExecuteCommandWithLiteral appends the RFC 3501 literal marker to
// commandText, waits for the server's continuation, then writes the
// literal bytes and CRLF before awaiting the tagged response.
func (e *Engine) ExecuteCommandWithLiteral(ctx context.Context, commandText string, literal []byte) (Result, error) {
	return e.execute(ctx, commandText, literal)
}

func (e *Engine) execute(ctx context.Context, commandText string, literal []byte) (Result, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return Result{}, ErrConnectionClosed
	}
	e.mu.Unlock()

	tag := e.tags.Next()
	p := &pendingCommand{tag: tag, commandText: commandText, resolve: make(chan commandOutcome, 1)}

	e.mu.Lock()
	e.pending[tag] = p
	e.mu.Unlock()

	line := tag + " " + commandText
	if literal != nil {
		line += fmt.Sprintf(" {%d}", len(literal))
	}

	start := time.Now()
	verb := commandVerb(commandText)

	if err := e.transport.SendLine(line); err != nil {
		e.removePending(tag)
		return Result{}, err
	}

	if literal != nil {
		select {
		case <-e.contCh:
		case <-ctx.Done():
			e.removePending(tag)
			return Result{}, ctx.Err()
		}
		if err := e.transport.Send(literal); err != nil {
			e.removePending(tag)
			return Result{}, err
		}
		if err := e.transport.Send([]byte("\r\n")); err != nil {
			e.removePending(tag)
			return Result{}, err
		}
	}

	select {
	case outcome := <-p.resolve:
		status := "OK"
		if outcome.err != nil {
			status = string(outcome.result.Status)
		}
		metrics.RecordCommand(verb, status, time.Since(start).Seconds())
		return outcome.result, outcome.err
	case <-ctx.Done():
		e.removePending(tag)
		return Result{}, ctx.Err()
	}
}

// ExecuteSASL issues an AUTHENTICATE-style command that may receive a
// single mid-exchange continuation before its tagged response (RFC
// 4954/7628). If a continuation arrives, its text is returned as
// diagnostic and an empty line is sent to close out the exchange before
// the tagged response is awaited.
func (e *Engine) ExecuteSASL(ctx context.Context, commandText string) (diagnostic string, result Result, err error) {
	tag := e.tags.Next()
	p := &pendingCommand{tag: tag, commandText: commandText, resolve: make(chan commandOutcome, 1)}

	e.mu.Lock()
	e.pending[tag] = p
	e.mu.Unlock()

	if sendErr := e.transport.SendLine(tag + " " + commandText); sendErr != nil {
		e.removePending(tag)
		return "", Result{}, sendErr
	}

	select {
	case diag := <-e.contCh:
		if sendErr := e.transport.SendLine(""); sendErr != nil {
			e.removePending(tag)
			return diag, Result{}, sendErr
		}
		select {
		case outcome := <-p.resolve:
			return diag, outcome.result, outcome.err
		case <-ctx.Done():
			e.removePending(tag)
			return diag, Result{}, ctx.Err()
		}
	case outcome := <-p.resolve:
		return "", outcome.result, outcome.err
	case <-ctx.Done():
		e.removePending(tag)
		return "", Result{}, ctx.Err()
	}
}

func (e *Engine) removePending(tag string) {
	e.mu.Lock()
	delete(e.pending, tag)
	e.mu.Unlock()
}

// EnterIdle sends "IDLE" and blocks until the server's continuation
// arrives, at which point the session is receiving untagged data in
// idle mode. Only one IDLE may be active at a time.
func (e *Engine) EnterIdle(ctx context.Context) error {
	e.mu.Lock()
	if e.idling {
		e.mu.Unlock()
		return ErrAlreadyIdle
	}
	e.mu.Unlock()

	tag := e.tags.Next()
	p := &pendingCommand{tag: tag, commandText: "IDLE", resolve: make(chan commandOutcome, 1)}

	e.mu.Lock()
	e.pending[tag] = p
	e.idling = true
	e.idleTag = tag
	e.idlePending = p
	e.mu.Unlock()

	if err := e.transport.SendLine(tag + " IDLE"); err != nil {
		e.removePending(tag)
		e.clearIdle()
		return err
	}

	select {
	case <-e.contCh:
		return nil
	case outcome := <-p.resolve:
		// server rejected IDLE outright (e.g. BAD) without a continuation
		e.clearIdle()
		if outcome.err != nil {
			return outcome.err
		}
		return nil
	case <-ctx.Done():
		e.removePending(tag)
		e.clearIdle()
		return ctx.Err()
	}
}

// ExitIdle sends "DONE" and blocks for the tagged response that closes
// out the IDLE command.
func (e *Engine) ExitIdle(ctx context.Context) (Result, error) {
	e.mu.Lock()
	if !e.idling {
		e.mu.Unlock()
		return Result{}, ErrNotIdle
	}
	p := e.idlePending
	e.mu.Unlock()

	if err := e.transport.SendLine("DONE"); err != nil {
		return Result{}, err
	}

	select {
	case outcome := <-p.resolve:
		return outcome.result, outcome.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (e *Engine) clearIdle() {
	e.mu.Lock()
	e.idling = false
	e.idleTag = ""
	e.idlePending = nil
	e.mu.Unlock()
}

// failAll rejects every pending command with err, marks the engine
// closed, and tears down the untagged hub so subscribers observe
// channel closure.
func (e *Engine) failAll(err error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	pending := e.pending
	e.pending = make(map[string]*pendingCommand)
	e.idling = false
	e.idleTag = ""
	e.idlePending = nil
	e.mu.Unlock()

	for _, p := range pending {
		select {
		case p.resolve <- commandOutcome{err: err}:
		default:
		}
	}
	e.hub.Close()
}

// Close stops the dispatch loop and rejects any outstanding commands.
// It does not close the transport; callers disconnect the transport
// separately.
func (e *Engine) Close() {
	e.failAll(ErrConnectionClosed)
	select {
	case <-e.doneCh:
	default:
		close(e.doneCh)
	}
}

func commandVerb(commandText string) string {
	fields := strings.Fields(commandText)
	if len(fields) == 0 {
		return ""
	}
	verb := strings.ToUpper(fields[0])
	if verb == "UID" && len(fields) > 1 {
		verb = strings.ToUpper(fields[1])
	}
	return verb
}
