package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

// maxLineBytes bounds a single message. Large AddTracks requests fit easily.
const maxLineBytes = 4 << 20

// Listener accepts front-end connections.
type Listener struct {
	ln net.Listener
}

// Listen binds a TCP listener on addr.
func Listen(addr string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", addr, err)
	}
	return &Listener{ln: ln}, nil
}

// Accept waits for the next connection.
func (l *Listener) Accept() (*Conn, error) {
	c, err := l.ln.Accept()
	if err != nil {
		return nil, err
	}
	return newConn(c), nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Close stops accepting. Blocked Accept calls return net.ErrClosed.
func (l *Listener) Close() error { return l.ln.Close() }

// Conn is one accepted connection, carrying newline-delimited messages.
type Conn struct {
	c net.Conn
	r *bufio.Reader
}

func newConn(c net.Conn) *Conn {
	return &Conn{c: c, r: bufio.NewReader(c)}
}

// Recv reads one command line. Decode failures wrap ErrProtocol.
func (c *Conn) Recv() (Command, error) {
	line, err := readLine(c.r)
	if err != nil {
		return Command{}, err
	}
	var cmd Command
	if err := json.Unmarshal(line, &cmd); err != nil {
		return Command{}, fmt.Errorf("%w: %w", ErrProtocol, err)
	}
	return cmd, nil
}

// Send writes one response line.
func (c *Conn) Send(r Response) error {
	return writeLine(c.c, r)
}

// SetDeadline bounds the remaining exchange.
func (c *Conn) SetDeadline(t time.Time) error { return c.c.SetDeadline(t) }

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr { return c.c.RemoteAddr() }

// Close closes the connection.
func (c *Conn) Close() error { return c.c.Close() }

// readLine returns the next line without its terminator. A final line
// without a newline is accepted at EOF.
func readLine(r *bufio.Reader) ([]byte, error) {
	var line []byte
	for {
		chunk, isPrefix, err := r.ReadLine()
		line = append(line, chunk...)
		if len(line) > maxLineBytes {
			return nil, fmt.Errorf("%w: message exceeds %d bytes", ErrProtocol, maxLineBytes)
		}
		if err != nil {
			if errors.Is(err, io.EOF) && len(line) > 0 {
				return line, nil
			}
			return nil, err
		}
		if !isPrefix {
			return line, nil
		}
	}
}

func writeLine(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
