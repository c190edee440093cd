package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrDaemonUnreachable is returned when no daemon accepts the connection.
var ErrDaemonUnreachable = errors.New("could not reach daemon")

// DefaultTimeout bounds a whole exchange when the context has no deadline.
const DefaultTimeout = 5 * time.Second

// Client sends one command per connection to a running daemon.
type Client struct {
	Addr    string
	Timeout time.Duration
}

// NewClient creates a client for addr, falling back to DefaultAddr.
func NewClient(addr string) *Client {
	if addr == "" {
		addr = DefaultAddr
	}
	return &Client{Addr: addr, Timeout: DefaultTimeout}
}

// Send performs one exchange. Error responses are returned as a Response,
// not as an error; use Response.Err to convert them.
func (c *Client) Send(ctx context.Context, cmd Command) (Response, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.Addr)
	if err != nil {
		return Response{}, fmt.Errorf("%w at %s: %w", ErrDaemonUnreachable, c.Addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	if err := writeLine(conn, cmd); err != nil {
		return Response{}, fmt.Errorf("send %s: %w", cmd.Kind, err)
	}

	line, err := readLine(bufio.NewReader(conn))
	if err != nil {
		return Response{}, fmt.Errorf("read response to %s: %w", cmd.Kind, err)
	}

	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrProtocol, err)
	}
	return resp, nil
}
