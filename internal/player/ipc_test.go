// SPDX-License-Identifier: MIT

package player

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"
)

// fakeMPVServer accepts a single connection on a Unix socket and answers
// every command with a canned response, optionally pushing events first.
type fakeMPVServer struct {
	ln net.Listener
}

func startFakeMPVServer(t *testing.T, handle func(req map[string]interface{}) ipcResponse) *fakeMPVServer {
	t.Helper()
	sockPath := filepath.Join(t.TempDir(), "mpv-test.sock")
	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &fakeMPVServer{ln: ln}

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			var req map[string]interface{}
			if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
				continue
			}
			resp := handle(req)
			resp.RequestID = int64(req["request_id"].(float64))
			payload, _ := json.Marshal(resp)
			payload = append(payload, '\n')
			if _, err := conn.Write(payload); err != nil {
				return
			}
		}
	}()

	t.Cleanup(func() { ln.Close() })
	return srv
}

func (s *fakeMPVServer) path() string { return s.ln.Addr().String() }

func TestIPCCallRoundTrip(t *testing.T) {
	srv := startFakeMPVServer(t, func(req map[string]interface{}) ipcResponse {
		return ipcResponse{Error: "success", Data: json.RawMessage(`42`)}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c, err := dialIPC(ctx, srv.path())
	if err != nil {
		t.Fatalf("dialIPC: %v", err)
	}
	defer c.close()

	data, err := c.call(ctx, "get_property", "volume")
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if string(data) != "42" {
		t.Errorf("call() data = %s, want 42", data)
	}
}

func TestIPCCallError(t *testing.T) {
	srv := startFakeMPVServer(t, func(req map[string]interface{}) ipcResponse {
		return ipcResponse{Error: "property not found"}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c, err := dialIPC(ctx, srv.path())
	if err != nil {
		t.Fatalf("dialIPC: %v", err)
	}
	defer c.close()

	if _, err := c.getProperty(ctx, "nonexistent"); err == nil {
		t.Error("getProperty() expected error, got nil")
	}
}

func TestIPCCallContextCancel(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "mpv-test.sock")
	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		// Never respond, forcing the caller to hit ctx.Done().
		buf := make([]byte, 4096)
		for {
			if _, err := conn.Read(buf); err != nil {
				return
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := dialIPC(ctx, sockPath)
	if err != nil {
		t.Fatalf("dialIPC: %v", err)
	}
	defer c.close()

	callCtx, callCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer callCancel()
	if _, err := c.call(callCtx, "get_property", "pause"); err == nil {
		t.Error("call() expected context deadline error, got nil")
	}
}
