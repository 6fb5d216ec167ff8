// SPDX-License-Identifier: MIT

package player

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
)

// ipcRequest is one newline-delimited JSON command sent to mpv, per
// https://mpv.io/manual/master/#json-ipc.
type ipcRequest struct {
	Command   []interface{} `json:"command"`
	RequestID int64         `json:"request_id"`
}

// ipcResponse is mpv's reply to an ipcRequest, correlated by RequestID.
type ipcResponse struct {
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
	RequestID int64           `json:"request_id"`
}

// ipcEvent is an unsolicited message from mpv (no request_id), used to
// drive the bus-event translation in backend.go.
type ipcEvent struct {
	Event string          `json:"event"`
	Name  string          `json:"name"`
	Data  json.RawMessage `json:"data"`
	ID    int             `json:"id"`
}

// ipcClient is a minimal client for mpv's JSON IPC protocol over a Unix
// domain socket. Socket writes are serialized by reqMu; several requests
// may be in flight at once, each matched to its response by request_id
// through the pending map.
type ipcClient struct {
	conn net.Conn

	reqMu   sync.Mutex
	nextID  int64
	pending map[int64]chan ipcResponse
	pendMu  sync.Mutex

	events chan ipcEvent

	closeOnce sync.Once
	closed    atomic.Bool
	readDone  chan struct{}
}

// dialIPC connects to the mpv JSON IPC socket at path and starts the
// background reader goroutine. The caller owns the returned client and
// must call close() when done.
func dialIPC(ctx context.Context, path string) (*ipcClient, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("dial mpv ipc socket: %w", err)
	}

	c := &ipcClient{
		conn:     conn,
		pending:  make(map[int64]chan ipcResponse),
		events:   make(chan ipcEvent, 64),
		readDone: make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *ipcClient) readLoop() {
	defer close(c.readDone)
	defer close(c.events)

	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 4096), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var peek struct {
			RequestID int64  `json:"request_id"`
			Event     string `json:"event"`
		}
		if err := json.Unmarshal(line, &peek); err != nil {
			continue
		}

		if peek.Event != "" {
			var ev ipcEvent
			if err := json.Unmarshal(line, &ev); err == nil {
				select {
				case c.events <- ev:
				default:
					// Drop the event rather than block the reader; a slow
					// consumer should not stall mpv's socket.
				}
			}
			continue
		}

		var resp ipcResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			continue
		}
		c.pendMu.Lock()
		ch, ok := c.pending[resp.RequestID]
		if ok {
			delete(c.pending, resp.RequestID)
		}
		c.pendMu.Unlock()
		if ok {
			ch <- resp
		}
	}
}

// call issues a command and waits for its response, or for ctx to be done.
func (c *ipcClient) call(ctx context.Context, args ...interface{}) (json.RawMessage, error) {
	if c.closed.Load() {
		return nil, fmt.Errorf("ipc client closed")
	}

	id := atomic.AddInt64(&c.nextID, 1)
	ch := make(chan ipcResponse, 1)
	c.pendMu.Lock()
	c.pending[id] = ch
	c.pendMu.Unlock()

	req := ipcRequest{Command: args, RequestID: id}
	payload, err := json.Marshal(req)
	if err != nil {
		c.pendMu.Lock()
		delete(c.pending, id)
		c.pendMu.Unlock()
		return nil, fmt.Errorf("marshal ipc request: %w", err)
	}
	payload = append(payload, '\n')

	c.reqMu.Lock()
	_, werr := c.conn.Write(payload)
	c.reqMu.Unlock()
	if werr != nil {
		c.pendMu.Lock()
		delete(c.pending, id)
		c.pendMu.Unlock()
		return nil, fmt.Errorf("write ipc request: %w", werr)
	}

	select {
	case resp := <-ch:
		if resp.Error != "" && resp.Error != "success" {
			return nil, fmt.Errorf("mpv: %s", resp.Error)
		}
		return resp.Data, nil
	case <-ctx.Done():
		c.pendMu.Lock()
		delete(c.pending, id)
		c.pendMu.Unlock()
		return nil, ctx.Err()
	case <-c.readDone:
		return nil, fmt.Errorf("ipc connection closed")
	}
}

func (c *ipcClient) setProperty(ctx context.Context, name string, value interface{}) error {
	_, err := c.call(ctx, "set_property", name, value)
	return err
}

func (c *ipcClient) getProperty(ctx context.Context, name string) (json.RawMessage, error) {
	return c.call(ctx, "get_property", name)
}

func (c *ipcClient) command(ctx context.Context, args ...interface{}) error {
	_, err := c.call(ctx, args...)
	return err
}

// observeProperty registers id to receive property-change events for name,
// per https://mpv.io/manual/master/#command-interface-observe-property.
func (c *ipcClient) observeProperty(ctx context.Context, id int, name string) error {
	return c.command(ctx, "observe_property", id, name)
}

func (c *ipcClient) close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		err = c.conn.Close()
		<-c.readDone
	})
	return err
}
