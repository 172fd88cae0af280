package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/payram/webextract-mcp-server/internal/protocol"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/jsonrpc2"
)

// stdioReadWriteCloser joins the process streams into one connection.
type stdioReadWriteCloser struct {
	reader io.ReadCloser
	writer io.WriteCloser
}

func (s *stdioReadWriteCloser) Read(p []byte) (int, error) {
	return s.reader.Read(p)
}

func (s *stdioReadWriteCloser) Write(p []byte) (int, error) {
	return s.writer.Write(p)
}

func (s *stdioReadWriteCloser) Close() error {
	rerr := s.reader.Close()
	werr := s.writer.Close()
	if rerr != nil {
		return rerr
	}
	return werr
}

// ServeStdio serves newline-delimited JSON-RPC on in/out until the input
// closes or ctx is cancelled. There is no session concept: the one
// connection is the only client. Calls are handled concurrently.
func ServeStdio(ctx context.Context, server *Server, in io.ReadCloser, out io.WriteCloser, logger *logrus.Entry) error {
	rwc := &stdioReadWriteCloser{reader: in, writer: out}
	stream := jsonrpc2.NewBufferedStream(rwc, lineCodec{logger: logger})
	handler := jsonrpc2.AsyncHandler(jsonrpc2.HandlerWithError(stdioHandler(server)))
	conn := jsonrpc2.NewConn(ctx, stream, handler)

	logger.Info("stdio MCP server ready")
	select {
	case <-conn.DisconnectNotify():
		logger.Info("stdin closed")
		return nil
	case <-ctx.Done():
		logger.Info("shutting down stdio server")
		if err := conn.Close(); err != nil && !errors.Is(err, jsonrpc2.ErrClosed) {
			return err
		}
		return nil
	}
}

// lineCodec frames one JSON-RPC message per line. Lines that are not valid
// messages are logged and skipped so one bad write does not drop the client.
type lineCodec struct {
	logger *logrus.Entry
}

func (c lineCodec) WriteObject(stream io.Writer, obj any) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	_, err = stream.Write(append(data, '\n'))
	return err
}

func (c lineCodec) ReadObject(stream *bufio.Reader, v any) error {
	for {
		line, readErr := stream.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			err := json.Unmarshal(trimmed, v)
			if err == nil {
				return nil
			}
			c.logger.Warnf("skipping malformed message: %v", err)
		}
		if readErr != nil {
			return readErr
		}
	}
}

func stdioHandler(server *Server) func(context.Context, *jsonrpc2.Conn, *jsonrpc2.Request) (any, error) {
	return func(ctx context.Context, _ *jsonrpc2.Conn, r *jsonrpc2.Request) (any, error) {
		req := protocol.Request{JSONRPC: "2.0", Method: r.Method}
		if !r.Notif {
			req.ID = stdioID(r.ID)
		}
		if r.Params != nil {
			req.Params = *r.Params
		}

		resp, reply := server.Handle(ctx, req)
		if !reply {
			return nil, nil
		}
		if resp.Error != nil {
			return nil, &jsonrpc2.Error{Code: int64(resp.Error.Code), Message: resp.Error.Message}
		}
		return resp.Result, nil
	}
}

// stdioID converts the id; jsonrpc2 echoes the request id in its reply.
func stdioID(id jsonrpc2.ID) any {
	if id.IsString {
		return id.Str
	}
	return id.Num
}
