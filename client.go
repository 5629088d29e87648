// Package imap implements an IMAP4rev1 client (RFC 3501) with the
// CONDSTORE/QRESYNC (RFC 7162), IDLE (RFC 2177), and XOAUTH2 (RFC 7628)
// extensions, plus MIME decoding of fetched message bodies.
package imap

import (
	"context"
	"strings"
	"sync"

	"github.com/fenilsonani/imapclient/internal/command"
	"github.com/fenilsonani/imapclient/internal/config"
	"github.com/fenilsonani/imapclient/internal/logging"
	"github.com/fenilsonani/imapclient/internal/metrics"
	"github.com/fenilsonani/imapclient/internal/protocol"
	"github.com/fenilsonani/imapclient/internal/resilience"
	"github.com/fenilsonani/imapclient/internal/respparser"
	"github.com/fenilsonani/imapclient/internal/validation"
)

// Client is a single IMAP session: one transport, one protocol engine,
// one selected mailbox at a time. It is not safe for concurrent use
// from multiple goroutines issuing commands, matching spec's
// single-owner session model; the IDLE/watch event stream is the one
// thing safe to read concurrently with other calls.
type Client struct {
	cfg *config.Config
	log *logging.Logger

	mu        sync.Mutex
	state     State
	caps      Capabilities
	transport protocol.Transport
	engine    *protocol.Engine
	mailbox   *Mailbox
	idle      *IdleController

	connectBreaker *resilience.CircuitBreaker
}

// New constructs a Client from cfg without connecting.
func New(cfg *config.Config, log *logging.Logger) *Client {
	if log == nil {
		log = logging.Default()
	}
	cbCfg := resilience.DefaultConfig("imap-connect")
	return &Client{
		cfg:            cfg,
		log:            log.Session(),
		state:          StateDisconnected,
		caps:           Capabilities{},
		connectBreaker: resilience.NewCircuitBreaker(cbCfg),
	}
}

// State returns the client's current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Capabilities returns the last-known capability set.
func (c *Client) Capabilities() Capabilities {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.caps
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// requireState returns a ProtocolError if the client is not exactly in
// want.
func (c *Client) requireState(want State) error {
	if got := c.State(); got != want {
		return &ProtocolError{Message: "operation requires state " + want.String() + ", currently " + got.String()}
	}
	return nil
}

// requireAtLeast returns a ProtocolError unless the client is in want
// or a state that permits a superset of want's operations (Selected
// permits everything Authenticated does).
func (c *Client) requireAtLeast(want State) error {
	got := c.State()
	if got == want {
		return nil
	}
	if want == StateAuthenticated && got == StateSelected {
		return nil
	}
	return &ProtocolError{Message: "operation requires state " + want.String() + " or later, currently " + got.String()}
}

// Connect dials the server, performs the TLS handshake (if configured),
// awaits the greeting, and authenticates. On return the client is
// either Authenticated or, if the server sent PREAUTH, already in that
// state's superset.
func (c *Client) Connect(ctx context.Context) error {
	if err := validation.TagPrefix(c.cfg.Connection.TagPrefix); err != nil {
		return err
	}

	connectErr := c.connectBreaker.Execute(ctx, func(ctx context.Context) error {
		return c.connectOnce(ctx)
	})
	switch connectErr {
	case nil:
		metrics.CircuitState.Set(float64(c.connectBreaker.State()))
		metrics.RecordReconnect("success")
		return nil
	case resilience.ErrCircuitOpen:
		metrics.CircuitState.Set(float64(c.connectBreaker.State()))
		return &NetworkError{Message: "connect circuit breaker open", Host: c.cfg.Connection.Host, Port: c.cfg.Connection.Port}
	default:
		metrics.CircuitState.Set(float64(c.connectBreaker.State()))
		metrics.RecordReconnect("failure")
		return connectErr
	}
}

func (c *Client) connectOnce(ctx context.Context) error {
	transport := protocol.NewTCPTransport(c.cfg.Connection.Host, c.cfg.Connection.Port, protocol.TLSOptions{
		Enabled:            c.cfg.TLS.Enabled,
		InsecureSkipVerify: c.cfg.TLS.InsecureSkipVerify,
		ServerName:         c.cfg.TLS.ServerName,
		MinVersion:         tlsMinVersion(c.cfg.TLS.MinVersion),
	})

	connectCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout())
	defer cancel()

	connectDone := make(chan error, 1)
	go func() { connectDone <- transport.Connect() }()
	select {
	case err := <-connectDone:
		if err != nil {
			return &NetworkError{Message: err.Error(), Host: c.cfg.Connection.Host, Port: c.cfg.Connection.Port, Cause: err}
		}
	case <-connectCtx.Done():
		return &NetworkError{Message: "connect timed out", Host: c.cfg.Connection.Host, Port: c.cfg.Connection.Port, Cause: connectCtx.Err()}
	}

	eng := protocol.NewEngine(transport, c.cfg.Connection.TagPrefix, c.log)
	greetingCh := eng.Subscribe() // subscribed before Start so the greeting cannot race past us
	eng.Start()

	c.mu.Lock()
	c.transport = transport
	c.engine = eng
	c.state = StateGreeting
	c.mu.Unlock()

	metrics.ActiveConnections.Inc()

	authCtx, cancelAuth := context.WithTimeout(ctx, c.cfg.CommandTimeout())
	defer cancelAuth()

	if err := c.awaitGreeting(authCtx, greetingCh); err != nil {
		return err
	}

	if c.State() != StateAuthenticated {
		if err := c.authenticate(authCtx); err != nil {
			return err
		}
	}

	if len(c.Capabilities()) == 0 {
		if err := c.refreshCapabilities(authCtx); err != nil {
			return err
		}
	}

	return nil
}

func (c *Client) awaitGreeting(ctx context.Context, ch chan respparser.Untagged) error {
	defer c.engine.Unsubscribe(ch)

	select {
	case u, ok := <-ch:
		if !ok {
			return &NetworkError{Message: "connection closed before greeting", Host: c.cfg.Connection.Host, Port: c.cfg.Connection.Port}
		}
		return c.handleGreeting(u)
	case <-ctx.Done():
		return &TimeoutError{Message: "no greeting received", Operation: "connect", TimeoutMS: c.cfg.CommandTimeout().Milliseconds()}
	}
}

func (c *Client) handleGreeting(u respparser.Untagged) error {
	switch u.Type {
	case "OK":
		c.setState(StateNotAuthenticated)
		c.applyCapabilityCode(u.Code)
		return nil
	case "PREAUTH":
		c.setState(StateAuthenticated)
		c.applyCapabilityCode(u.Code)
		return nil
	case "BYE":
		c.setState(StateDisconnected)
		return &ProtocolError{Message: "server rejected connection", ServerResponse: u.Text}
	default:
		return &ParseError{Message: "unexpected greeting", RawData: u.Raw}
	}
}

func (c *Client) applyCapabilityCode(code string) {
	names := parseCapabilityFields(code)
	if names == nil {
		return
	}
	c.mu.Lock()
	c.caps = newCapabilities(names)
	c.mu.Unlock()
}

// authenticate runs LOGIN or AUTHENTICATE XOAUTH2 depending on
// configuration.
func (c *Client) authenticate(ctx context.Context) error {
	if c.cfg.Auth.Password != "" {
		return c.authenticateLogin(ctx)
	}
	return c.authenticateXOAuth2(ctx)
}

func (c *Client) authenticateLogin(ctx context.Context) error {
	cmdText := command.Login(c.cfg.Auth.Username, c.cfg.Auth.Password)
	res, err := c.engine.ExecuteCommand(ctx, cmdText)
	if err != nil {
		return c.wrapCommandErr(err, cmdText)
	}
	c.setState(StateAuthenticated)
	c.foldCapabilitiesFrom(res)
	c.applyCapabilityCode(extractCode(res.Text))
	return nil
}

func (c *Client) authenticateXOAuth2(ctx context.Context) error {
	cmdText, err := command.AuthenticateXOAuth2(c.cfg.Auth.Username, c.cfg.Auth.XOAuth2Token)
	if err != nil {
		return &ProtocolError{Message: "failed to build XOAUTH2 credential", Command: "AUTHENTICATE XOAUTH2"}
	}

	diag, res, err := c.engine.ExecuteSASL(ctx, cmdText)
	if err != nil {
		if diag != "" {
			text := command.XOAuth2ContinuationDiagnostic(c.cfg.Auth.Username, c.cfg.Auth.XOAuth2Token, diag)
			return &ProtocolError{Message: "XOAUTH2 authentication rejected", ServerResponse: text, Command: "AUTHENTICATE XOAUTH2"}
		}
		return c.wrapCommandErr(err, "AUTHENTICATE XOAUTH2")
	}
	c.setState(StateAuthenticated)
	c.foldCapabilitiesFrom(res)
	c.applyCapabilityCode(extractCode(res.Text))
	return nil
}

func (c *Client) foldCapabilitiesFrom(res protocol.Result) {
	for _, u := range res.Untagged {
		if u.Type == "CAPABILITY" {
			c.mu.Lock()
			c.caps = newCapabilities(u.Capabilities)
			c.mu.Unlock()
		}
	}
}

// Capability issues CAPABILITY and refreshes the cached set.
func (c *Client) Capability(ctx context.Context) (Capabilities, error) {
	if err := c.refreshCapabilities(ctx); err != nil {
		return nil, err
	}
	return c.Capabilities(), nil
}

func (c *Client) refreshCapabilities(ctx context.Context) error {
	res, err := c.engine.ExecuteCommand(ctx, command.Capability())
	if err != nil {
		return c.wrapCommandErr(err, command.Capability())
	}
	c.foldCapabilitiesFrom(res)
	return nil
}

// Logout sends LOGOUT, transitions through LoggingOut, and tolerates
// the server closing the connection before the tagged OK arrives.
func (c *Client) Logout(ctx context.Context) error {
	c.setState(StateLoggingOut)
	_, err := c.engine.ExecuteCommand(ctx, command.Logout())
	c.teardown()
	if err != nil && err != protocol.ErrConnectionClosed {
		return c.wrapCommandErr(err, command.Logout())
	}
	return nil
}

func (c *Client) teardown() {
	c.mu.Lock()
	engine := c.engine
	transport := c.transport
	c.engine = nil
	c.transport = nil
	c.mailbox = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	if engine != nil {
		engine.Close()
	}
	if transport != nil {
		_ = transport.Disconnect()
	}
	metrics.ActiveConnections.Dec()
}

// wrapCommandErr converts a protocol-layer error into the public error
// kinds §4.7 documents.
func (c *Client) wrapCommandErr(err error, cmdText string) error {
	if err == nil {
		return nil
	}
	if cmdErr, ok := err.(*protocol.CommandError); ok {
		return &ProtocolError{Message: "command failed", ServerResponse: cmdErr.Text, Command: cmdErr.Command}
	}
	if err == context.DeadlineExceeded {
		return &TimeoutError{Message: "command timed out", Operation: cmdText, TimeoutMS: c.cfg.CommandTimeout().Milliseconds()}
	}
	if err == protocol.ErrConnectionClosed {
		return &NetworkError{Message: "connection closed", Host: c.cfg.Connection.Host, Port: c.cfg.Connection.Port}
	}
	return &NetworkError{Message: err.Error(), Host: c.cfg.Connection.Host, Port: c.cfg.Connection.Port, Cause: err}
}

// extractCode pulls a leading "[...]" code out of a tagged response's
// text, mirroring respparser's internal bracket-code extraction for the
// cases client.go needs it directly.
func extractCode(text string) string {
	if !strings.HasPrefix(text, "[") {
		return ""
	}
	depth := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return text[1:i]
			}
		}
	}
	return ""
}

func tlsMinVersion(v string) uint16 {
	switch v {
	case "1.3":
		return 0x0304 // tls.VersionTLS13
	default:
		return 0x0303 // tls.VersionTLS12
	}
}
