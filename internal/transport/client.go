package transport

import (
	"fmt"
	"net"

	"github.com/ybyygu/vasp-tools/internal/wire"
)

// Client is a thin wrapper over the control-plane codec: one dial, then
// one send (+ recv for Output) per call. It never retries on transport
// failure.
type Client struct {
	conn net.Conn
}

// Dial connects to the server listening at socketPath.
func Dial(socketPath string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", socketPath, err)
	}
	return &Client{conn: conn}, nil
}

// WriteInput sends data to the engine's stdin and waits for the empty ack.
func (c *Client) WriteInput(data []byte) error {
	if err := wire.WriteRequest(c.conn, wire.Input(data)); err != nil {
		return err
	}
	_, err := wire.ReadResponse(c.conn)
	return err
}

// ReadUntil requests the engine's output up to and including the first
// line containing pattern.
func (c *Client) ReadUntil(pattern string) (string, error) {
	if err := wire.WriteRequest(c.conn, wire.Output([]byte(pattern))); err != nil {
		return "", err
	}
	out, err := wire.ReadResponse(c.conn)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Pause sends SIGSTOP to the engine's process group via the server.
func (c *Client) Pause() error { return c.control(wire.SignalPause) }

// Resume sends SIGCONT to the engine's process group via the server.
func (c *Client) Resume() error { return c.control(wire.SignalResume) }

// Quit sends SIGTERM to the engine and closes the connection without
// waiting for the server to exit.
func (c *Client) Quit() error {
	if err := wire.WriteRequest(c.conn, wire.Control(wire.SignalQuit)); err != nil {
		c.conn.Close()
		return err
	}
	return c.conn.Close()
}

func (c *Client) control(sig wire.Signal) error {
	if err := wire.WriteRequest(c.conn, wire.Control(sig)); err != nil {
		return err
	}
	return c.conn.Close()
}

// Close closes the underlying connection without sending anything.
func (c *Client) Close() error { return c.conn.Close() }
