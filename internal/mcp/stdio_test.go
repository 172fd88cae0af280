package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type stdioFixture struct {
	in   *io.PipeWriter
	out  *bufio.Reader
	done chan error
}

func startStdio(t *testing.T, ctx context.Context) *stdioFixture {
	t.Helper()
	s, _ := newTestServer()
	return startStdioWith(t, ctx, s)
}

func startStdioWith(t *testing.T, ctx context.Context, s *Server) *stdioFixture {
	t.Helper()

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &stdioFixture{in: inW, out: bufio.NewReader(outR), done: make(chan error, 1)}
	go func() {
		f.done <- ServeStdio(ctx, s, inR, outW, logrus.NewEntry(logger))
	}()
	return f
}

func (f *stdioFixture) write(t *testing.T, line string) {
	t.Helper()
	if _, err := io.WriteString(f.in, line+"\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func (f *stdioFixture) read(t *testing.T) map[string]any {
	t.Helper()

	line, err := f.out.ReadBytes('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg map[string]any
	if err := json.Unmarshal(line, &msg); err != nil {
		t.Fatalf("decode %q: %v", line, err)
	}
	return msg
}

func (f *stdioFixture) wait(t *testing.T) {
	t.Helper()
	select {
	case err := <-f.done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("stdio server did not stop")
	}
}

func TestStdioRoundTrip(t *testing.T) {
	f := startStdio(t, context.Background())

	f.write(t, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26"}}`)
	msg := f.read(t)
	if msg["id"] != float64(1) {
		t.Fatalf("expected id 1, got %v", msg["id"])
	}
	result := msg["result"].(map[string]any)
	if result["protocolVersion"] != "2025-03-26" {
		t.Fatalf("unexpected initialize result %v", result)
	}

	// No reply is written for the notification, so the next line belongs
	// to the tools/call below.
	f.write(t, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	f.write(t, `{"jsonrpc":"2.0","id":"call-1","method":"tools/call","params":{"name":"echo","arguments":{"text":"over stdio"}}}`)
	msg = f.read(t)
	if msg["id"] != "call-1" {
		t.Fatalf("expected id call-1, got %v", msg["id"])
	}
	content := msg["result"].(map[string]any)["content"].([]any)
	if text := content[0].(map[string]any)["text"]; text != "over stdio" {
		t.Fatalf("unexpected text %v", text)
	}

	f.write(t, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"echo","arguments":{}}}`)
	msg = f.read(t)
	errObj, ok := msg["error"].(map[string]any)
	if !ok || errObj["code"] != float64(-32602) {
		t.Fatalf("expected invalid params error, got %v", msg)
	}

	_ = f.in.Close()
	f.wait(t)
}

func TestStdioSkipsMalformedLines(t *testing.T) {
	f := startStdio(t, context.Background())

	f.write(t, `{"jsonrpc":`)
	f.write(t, ``)
	f.write(t, `{"jsonrpc":"2.0","id":5,"method":"ping"}`)
	msg := f.read(t)
	if msg["id"] != float64(5) {
		t.Fatalf("expected ping reply after malformed input, got %v", msg)
	}

	_ = f.in.Close()
	f.wait(t)
}

func TestStdioStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := startStdio(t, ctx)

	f.write(t, `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	f.read(t)

	cancel()
	f.wait(t)
}

func TestStdioAnswersWhileCallPending(t *testing.T) {
	block := newBlockingTool()
	echo := &echoTool{name: "echo"}
	f := startStdioWith(t, context.Background(), NewServer(NewToolbox(block, echo)))
	// Keeps a serialized server from hanging the test: the held call is
	// released anyway and its reply then arrives first.
	timer := time.AfterFunc(2*time.Second, block.unblock)
	defer timer.Stop()

	f.write(t, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"block","arguments":{}}}`)
	block.waitStarted(t)

	f.write(t, `{"jsonrpc":"2.0","id":2,"method":"ping"}`)
	if msg := f.read(t); msg["id"] != float64(2) {
		t.Fatalf("expected ping reply while call 1 is pending, got %v", msg)
	}
	f.write(t, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"echo","arguments":{"text":"meanwhile"}}}`)
	if msg := f.read(t); msg["id"] != float64(3) {
		t.Fatalf("expected echo reply while call 1 is pending, got %v", msg)
	}

	block.unblock()
	msg := f.read(t)
	if msg["id"] != float64(1) {
		t.Fatalf("expected reply to call 1, got %v", msg)
	}
	content := msg["result"].(map[string]any)["content"].([]any)
	if text := content[0].(map[string]any)["text"]; text != "released" {
		t.Fatalf("unexpected text %v", text)
	}

	_ = f.in.Close()
	f.wait(t)
}
