package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/payram/webextract-mcp-server/internal/protocol"
	"github.com/payram/webextract-mcp-server/internal/session"
	"github.com/payram/webextract-mcp-server/internal/version"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	// HeaderSessionID carries the session identifier on every request after
	// initialize.
	HeaderSessionID = "Mcp-Session-Id"
	// EndpointPath serves submit (POST), poll (GET) and terminate (DELETE).
	EndpointPath = "/mcp"

	maxBodyBytes     = 4 << 20
	shutdownGrace    = 5 * time.Second
	defaultKeepAlive = 25 * time.Second

	msgNoValidSession = "Bad Request: No valid session ID provided"
	msgBadSessionID   = "Invalid or missing session ID"
	msgShuttingDown   = "Service Unavailable: server is shutting down"
)

// HTTPHandler is the streamable HTTP binding. Requests are routed to their
// session before reaching the shared Server.
type HTTPHandler struct {
	server    *Server
	sessions  *session.Registry
	logger    *logrus.Entry
	keepAlive time.Duration
}

// NewHTTPHandler builds the HTTP binding.
func NewHTTPHandler(server *Server, sessions *session.Registry, logger *logrus.Entry) *HTTPHandler {
	return &HTTPHandler{server: server, sessions: sessions, logger: logger, keepAlive: defaultKeepAlive}
}

// Routes returns the mux: /health, /version and the guarded MCP endpoint.
// A nil guard leaves the endpoint open.
func (h *HTTPHandler) Routes(guard func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(version.Get())
	})

	var endpoint http.Handler = h
	if guard != nil {
		endpoint = guard(endpoint)
	}
	mux.Handle(EndpointPath, endpoint)
	return mux
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleSubmit(w, r)
	case http.MethodGet:
		h.handlePoll(w, r)
	case http.MethodDelete:
		h.handleTerminate(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *HTTPHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, WriteError(nil, protocol.CodeParseError, "read body", err), http.StatusBadRequest)
		return
	}

	if isBatch(body) {
		writeJSON(w, protocol.Response{JSONRPC: "2.0", Error: &protocol.ResponseError{Code: protocol.CodeInvalidRequest, Message: "batch requests not supported"}}, http.StatusBadRequest)
		return
	}
	var req protocol.Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, protocol.Response{JSONRPC: "2.0", Error: &protocol.ResponseError{Code: protocol.CodeParseError, Message: "invalid JSON"}}, http.StatusBadRequest)
		return
	}

	sess, created, err := h.resolve(r.Header.Get(HeaderSessionID), req)
	switch {
	case errors.Is(err, session.ErrClosed):
		writeJSON(w, protocol.Response{JSONRPC: "2.0", ID: req.ID, Error: &protocol.ResponseError{Code: protocol.CodeSessionError, Message: msgShuttingDown}}, http.StatusServiceUnavailable)
		return
	case err != nil:
		writeJSON(w, protocol.Response{JSONRPC: "2.0", ID: req.ID, Error: &protocol.ResponseError{Code: protocol.CodeSessionError, Message: msgNoValidSession}}, http.StatusBadRequest)
		return
	}
	if IsInitialize(req) && !sess.MarkInitialized() {
		writeJSON(w, WriteError(req.ID, protocol.CodeInvalidRequest, "Invalid Request: Server already initialized", nil), http.StatusBadRequest)
		return
	}

	ctx, cancel := sessionContext(r.Context(), sess)
	defer cancel()

	resp, reply := h.server.Handle(ctx, req)
	if created && resp.Error != nil {
		_ = h.sessions.Close(sess.ID)
		writeJSON(w, resp, http.StatusOK)
		return
	}

	w.Header().Set(HeaderSessionID, sess.ID)
	if !reply {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, resp, http.StatusOK)
}

// resolve maps a request to its session: a known id routes to it, no id with
// initialize mints a new one, anything else is rejected.
func (h *HTTPHandler) resolve(sid string, req protocol.Request) (*session.Session, bool, error) {
	if sid != "" {
		sess, err := h.sessions.Get(sid)
		if err != nil {
			h.logger.WithField("session_id", sid).Warn("request for unknown session")
			return nil, false, err
		}
		return sess, false, nil
	}
	if IsInitialize(req) && !req.IsNotification() {
		sess, err := h.sessions.Create()
		if err != nil {
			return nil, false, err
		}
		return sess, true, nil
	}
	return nil, false, session.ErrNotFound
}

// isBatch reports whether body is a JSON array.
func isBatch(body []byte) bool {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}

func (h *HTTPHandler) handlePoll(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Header.Get(HeaderSessionID))
	if err != nil {
		http.Error(w, msgBadSessionID, http.StatusBadRequest)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set(HeaderSessionID, sess.ID)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-sess.Done():
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (h *HTTPHandler) handleTerminate(w http.ResponseWriter, r *http.Request) {
	sid := r.Header.Get(HeaderSessionID)
	if err := h.sessions.Close(sid); err != nil {
		http.Error(w, msgBadSessionID, http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// sessionContext cancels in-flight work when the session closes.
func sessionContext(parent context.Context, sess *session.Session) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-sess.Done():
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// RunHTTP serves the handler on addr until ctx is cancelled, then closes
// every session before shutting the listener down. Initialize requests that
// race the shutdown are refused by the closed registry.
func RunHTTP(ctx context.Context, h *HTTPHandler, addr string, guard func(http.Handler) http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Routes(guard),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h.logger.Infof("HTTP MCP server listening on %s%s", addr, EndpointPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		closed := h.sessions.CloseAll()
		h.logger.Infof("shutting down, closed %d session(s)", closed)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func writeJSON(w http.ResponseWriter, resp protocol.Response, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(resp)
}
