package rpcclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// wsStub serves scripted JSON-RPC responses over a websocket.
type wsStub struct {
	t       *testing.T
	upgrade websocket.Upgrader
	// handle maps method name to a result producer.
	handle map[string]func(params json.RawMessage) (interface{}, *rpcError)
	// delay pauses before replying, to exercise timeouts.
	delay time.Duration
}

func (s *wsStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrade.Upgrade(w, r, nil)
	if err != nil {
		s.t.Errorf("stub: upgrade: %v", err)
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	for {
		var req struct {
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
			ID     uint64          `json:"id"`
		}
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		go func() {
			if s.delay > 0 {
				time.Sleep(s.delay)
			}
			resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
			h, ok := s.handle[req.Method]
			if !ok {
				resp["error"] = &rpcError{Code: -32601, Message: "method not found"}
			} else if result, rpcErr := h(req.Params); rpcErr != nil {
				resp["error"] = rpcErr
			} else {
				resp["result"] = result
			}
			writeMu.Lock()
			defer writeMu.Unlock()
			if err := conn.WriteJSON(resp); err != nil {
				return
			}
		}()
	}
}

func startWSStub(t *testing.T, stub *wsStub) (*httptest.Server, string) {
	t.Helper()
	stub.t = t
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWSClient_Call(t *testing.T) {
	stub := &wsStub{handle: map[string]func(json.RawMessage) (interface{}, *rpcError){
		"echo": func(params json.RawMessage) (interface{}, *rpcError) {
			return json.RawMessage(params), nil
		},
	}}
	_, url := startWSStub(t, stub)

	client, err := DialWS(context.Background(), url)
	if err != nil {
		t.Fatalf("DialWS error: %v", err)
	}
	defer client.Close()

	var result map[string]string
	err = client.Call(context.Background(), "echo", map[string]string{"k": "v"}, &result)
	if err != nil {
		t.Fatalf("Call error: %v", err)
	}
	if result["k"] != "v" {
		t.Errorf("result = %v, want k=v", result)
	}
}

func TestWSClient_ConcurrentCalls(t *testing.T) {
	stub := &wsStub{handle: map[string]func(json.RawMessage) (interface{}, *rpcError){
		"echo": func(params json.RawMessage) (interface{}, *rpcError) {
			return json.RawMessage(params), nil
		},
	}}
	_, url := startWSStub(t, stub)

	client, err := DialWS(context.Background(), url)
	if err != nil {
		t.Fatalf("DialWS error: %v", err)
	}
	defer client.Close()

	// Calls in flight together must come back with their own results.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			want := map[string]int{"n": n}
			var got map[string]int
			if err := client.Call(context.Background(), "echo", want, &got); err != nil {
				t.Errorf("call %d: %v", n, err)
				return
			}
			if got["n"] != n {
				t.Errorf("call %d: got %v", n, got)
			}
		}(i)
	}
	wg.Wait()
}

func TestWSClient_RPCError(t *testing.T) {
	stub := &wsStub{handle: map[string]func(json.RawMessage) (interface{}, *rpcError){}}
	_, url := startWSStub(t, stub)

	client, err := DialWS(context.Background(), url)
	if err != nil {
		t.Fatalf("DialWS error: %v", err)
	}
	defer client.Close()

	err = client.Call(context.Background(), "missing", nil, nil)
	rpcErr, ok := err.(*RPCError)
	if !ok {
		t.Fatalf("expected *RPCError, got %T: %v", err, err)
	}
	if rpcErr.Code != -32601 {
		t.Errorf("error code = %d, want -32601", rpcErr.Code)
	}
}

func TestWSClient_ContextCancel(t *testing.T) {
	stub := &wsStub{
		handle: map[string]func(json.RawMessage) (interface{}, *rpcError){
			"slow": func(json.RawMessage) (interface{}, *rpcError) { return "late", nil },
		},
		delay: time.Second,
	}
	_, url := startWSStub(t, stub)

	client, err := DialWS(context.Background(), url)
	if err != nil {
		t.Fatalf("DialWS error: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := client.Call(ctx, "slow", nil, nil); err != context.DeadlineExceeded {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
}

func TestWSClient_CallAfterClose(t *testing.T) {
	stub := &wsStub{handle: map[string]func(json.RawMessage) (interface{}, *rpcError){}}
	_, url := startWSStub(t, stub)

	client, err := DialWS(context.Background(), url)
	if err != nil {
		t.Fatalf("DialWS error: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	if err := client.Call(context.Background(), "echo", nil, nil); err == nil {
		t.Error("Call after Close should fail")
	}
}

func TestWSClient_ServerGone(t *testing.T) {
	stub := &wsStub{handle: map[string]func(json.RawMessage) (interface{}, *rpcError){}}
	srv, url := startWSStub(t, stub)

	client, err := DialWS(context.Background(), url)
	if err != nil {
		t.Fatalf("DialWS error: %v", err)
	}
	defer client.Close()

	srv.CloseClientConnections()

	// In-flight and subsequent calls surface the connection failure
	// rather than hanging.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Call(ctx, "echo", nil, nil); err == nil {
		t.Error("expected error after server connection dropped")
	}
}
