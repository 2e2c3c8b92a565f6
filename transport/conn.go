package transport

import (
	"fmt"
	"net"

	"github.com/maxpoletaev/lockstep/packet"
)

// queueSize bounds the in/out channel buffering, following
// netplay.Netplay's 1000-message channel capacity.
const queueSize = 1000

// Conn is a duplex, asynchronous packet channel over a net.Conn. It
// mirrors netplay.Netplay's Listen/Connect/startReader/startWriter
// shape: a background reader and writer goroutine each drive one
// direction, and the caller drains/enqueues through channels instead of
// blocking on socket I/O directly.
type Conn[T any] struct {
	conn   net.Conn
	toSend chan packet.Packet[T]
	toRecv chan packet.Packet[T]
	stop   chan struct{}
	errs   chan error
}

// Dial opens a connection to addr and wraps it.
func Dial[T any](addr string) (*Conn[T], error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: failed to connect to %s: %w", addr, err)
	}

	return newConn[T](conn), nil
}

// Listen blocks until a single peer connects to addr, then wraps the
// resulting connection.
func Listen[T any](addr string) (*Conn[T], error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: failed to listen on %s: %w", addr, err)
	}

	conn, err := listener.Accept()
	if err != nil {
		return nil, fmt.Errorf("transport: failed to accept connection: %w", err)
	}

	return newConn[T](conn), nil
}

func newConn[T any](conn net.Conn) *Conn[T] {
	return &Conn[T]{
		conn:   conn,
		toSend: make(chan packet.Packet[T], queueSize),
		toRecv: make(chan packet.Packet[T], queueSize),
		stop:   make(chan struct{}),
		errs:   make(chan error, 1),
	}
}

// Start spawns the background reader and writer goroutines. Call once
// per Conn.
func (c *Conn[T]) Start() {
	go c.writeLoop()
	go c.readLoop()
}

func (c *Conn[T]) writeLoop() {
	for {
		select {
		case <-c.stop:
			return
		case p := <-c.toSend:
			if err := WriteMessage(c.conn, p); err != nil {
				c.reportError(fmt.Errorf("transport: write failed: %w", err))
				return
			}
		}
	}
}

func (c *Conn[T]) readLoop() {
	for {
		select {
		case <-c.stop:
			return
		default:
		}

		p, err := ReadMessage[T](c.conn)
		if err != nil {
			c.reportError(fmt.Errorf("transport: read failed: %w", err))
			return
		}

		select {
		case c.toRecv <- p:
		case <-c.stop:
			return
		}
	}
}

func (c *Conn[T]) reportError(err error) {
	select {
	case c.errs <- err:
	default:
	}
}

// Send enqueues a packet for transmission. Never blocks the caller on
// socket I/O.
func (c *Conn[T]) Send(p packet.Packet[T]) {
	select {
	case c.toSend <- p:
	case <-c.stop:
	}
}

// Recv returns the next received packet without blocking, reporting
// false if none is queued yet.
func (c *Conn[T]) Recv() (packet.Packet[T], bool) {
	select {
	case p := <-c.toRecv:
		return p, true
	default:
		var zero packet.Packet[T]
		return zero, false
	}
}

// Err returns the first background I/O error encountered, if any,
// without blocking.
func (c *Conn[T]) Err() error {
	select {
	case err := <-c.errs:
		return err
	default:
		return nil
	}
}

// Close stops the background goroutines and closes the underlying
// connection.
func (c *Conn[T]) Close() error {
	close(c.stop)
	return c.conn.Close()
}
