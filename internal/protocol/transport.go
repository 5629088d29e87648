package protocol

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"sync"
)

// Transport is the duplex byte stream the engine drives: connect once,
// write either raw bytes or CRLF-terminated lines, and receive data,
// error, and close notifications on channels until Disconnect is
// called. The engine assumes TLS (if any) is already negotiated inside
// the transport; there is no STARTTLS upgrade hook.
type Transport interface {
	Connect() error
	Disconnect() error
	Send(b []byte) error
	SendLine(text string) error
	Data() <-chan []byte
	Errors() <-chan error
	Closed() <-chan struct{}
}

// TLSOptions configures the TCP transport's TLS behavior. ServerName
// defaults to the dialed host when empty.
type TLSOptions struct {
	Enabled            bool
	InsecureSkipVerify bool
	ServerName         string
	MinVersion         uint16
	RootCAs            *x509.CertPool
}

// TCPTransport is the production Transport: a TLS (or, if disabled,
// plain) TCP connection to the IMAP server, default port 993.
type TCPTransport struct {
	host string
	port int
	tls  TLSOptions

	mu      sync.Mutex
	conn    net.Conn
	dataCh  chan []byte
	errCh   chan error
	closeCh chan struct{}
	closed  bool
}

// NewTCPTransport returns a transport that will dial host:port on
// Connect.
func NewTCPTransport(host string, port int, tlsOpts TLSOptions) *TCPTransport {
	return &TCPTransport{
		host:    host,
		port:    port,
		tls:     tlsOpts,
		dataCh:  make(chan []byte, 64),
		errCh:   make(chan error, 4),
		closeCh: make(chan struct{}),
	}
}

// Connect dials the server and, if TLS is enabled, performs the
// handshake before returning. A background goroutine then relays
// incoming bytes onto Data() until the connection ends.
func (t *TCPTransport) Connect() error {
	addr := fmt.Sprintf("%s:%d", t.host, t.port)

	var conn net.Conn
	var err error
	if t.tls.Enabled {
		cfg := &tls.Config{
			ServerName:         t.tls.ServerName,
			InsecureSkipVerify: t.tls.InsecureSkipVerify,
			MinVersion:         t.tls.MinVersion,
			RootCAs:            t.tls.RootCAs,
		}
		if cfg.ServerName == "" {
			cfg.ServerName = t.host
		}
		conn, err = tls.Dial("tcp", addr, cfg)
	} else {
		conn, err = net.Dial("tcp", addr)
	}
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	go t.readLoop()
	return nil
}

func (t *TCPTransport) readLoop() {
	buf := make([]byte, 32*1024)
	for {
		n, err := t.conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case t.dataCh <- chunk:
			case <-t.closeCh:
				return
			}
		}
		if err != nil {
			t.mu.Lock()
			alreadyClosed := t.closed
			t.mu.Unlock()
			if !alreadyClosed {
				select {
				case t.errCh <- err:
				default:
				}
				t.signalClosed()
			}
			return
		}
	}
}

func (t *TCPTransport) signalClosed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	close(t.closeCh)
}

// Disconnect closes the underlying connection and signals Closed().
func (t *TCPTransport) Disconnect() error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	t.signalClosed()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// Send writes raw bytes to the connection.
func (t *TCPTransport) Send(b []byte) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return ErrConnectionClosed
	}
	_, err := conn.Write(b)
	return err
}

// SendLine writes text followed by CRLF.
func (t *TCPTransport) SendLine(text string) error {
	return t.Send([]byte(text + "\r\n"))
}

func (t *TCPTransport) Data() <-chan []byte      { return t.dataCh }
func (t *TCPTransport) Errors() <-chan error     { return t.errCh }
func (t *TCPTransport) Closed() <-chan struct{}  { return t.closeCh }
