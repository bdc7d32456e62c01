package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
)

// SocketPath returns the default speech engine socket path.
func SocketPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "foxfocus", "speech.sock")
}

// Client communicates with the speech engine over a Unix socket.
type Client struct {
	conn    net.Conn
	scanner *bufio.Scanner
	mu      sync.Mutex
}

// Connect dials the daemon Unix socket.
func Connect(socketPath string) (*Client, error) {
	return ConnectContext(context.Background(), socketPath)
}

// ConnectContext dials the daemon Unix socket, honoring ctx while dialing.
func ConnectContext(ctx context.Context, socketPath string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect to speech engine: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB buffer

	return &Client{conn: conn, scanner: scanner}, nil
}

// Close shuts down the connection. A blocked ReadEvent returns an error.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// SendCommand sends a command and reads one response line.
func (c *Client) SendCommand(cmd Command) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(cmd)
	if err != nil {
		return Response{}, fmt.Errorf("marshal command: %w", err)
	}

	data = append(data, '\n')
	if _, err := c.conn.Write(data); err != nil {
		return Response{}, fmt.Errorf("write command: %w", err)
	}

	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return Response{}, fmt.Errorf("read response: %w", err)
		}
		return Response{}, fmt.Errorf("connection closed")
	}

	var resp Response
	if err := json.Unmarshal(c.scanner.Bytes(), &resp); err != nil {
		return Response{}, fmt.Errorf("unmarshal response: %w", err)
	}

	return resp, nil
}

// ReadEvent reads the next NDJSON event line. Blocks until data arrives.
// After calling Subscribe, use this in a loop to receive events.
func (c *Client) ReadEvent() (Event, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return Event{}, fmt.Errorf("read event: %w", err)
		}
		return Event{}, fmt.Errorf("connection closed")
	}

	var ev Event
	if err := json.Unmarshal(c.scanner.Bytes(), &ev); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}

	return ev, nil
}

// Subscribe sends a subscribe command for the given event names.
func (c *Client) Subscribe(events ...string) error {
	_, err := c.do(Command{Cmd: CmdSubscribe, Events: events})
	return err
}

// Status asks the engine whether it is healthy and recording.
func (c *Client) Status() (Response, error) {
	return c.do(Command{Cmd: CmdStatus})
}

// Start begins recognition in locale with interim results enabled.
func (c *Client) Start(locale string) (Response, error) {
	return c.do(Command{Cmd: CmdStart, Locale: locale, Interim: BoolPtr(true)})
}

// Stop ends recognition. Final segments may still arrive on subscribers.
func (c *Client) Stop() error {
	_, err := c.do(Command{Cmd: CmdStop})
	return err
}

// ErrRejected is returned when the engine answers a command with ok=false.
var ErrRejected = errors.New("rejected by speech engine")

func (c *Client) do(cmd Command) (Response, error) {
	resp, err := c.SendCommand(cmd)
	if err != nil {
		return resp, err
	}
	if !resp.OK {
		if resp.Error == "" {
			return resp, fmt.Errorf("%s: %w", cmd.Cmd, ErrRejected)
		}
		return resp, fmt.Errorf("%s: %w: %s", cmd.Cmd, ErrRejected, resp.Error)
	}
	return resp, nil
}
