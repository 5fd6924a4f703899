package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/chess-arena/internal/player"
)

// Handler receives decoded messages and close notifications. Both are
// invoked from transport goroutines; the handler is responsible for its
// own serialization.
type Handler interface {
	HandleMessage(ep Endpoint, msg Message)
	HandleClosed(ep Endpoint, reason CloseReason)
}

// Server is a newline-delimited JSON listener. Each connection
// authenticates with one hello frame, then exchanges Message/Outbound
// frames until it says goodbye or the link drops.
type Server struct {
	addr    string
	handler Handler
	logger  *log.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	registry *Registry
	closed   bool
}

// helloValue is the payload of the first frame of a connection.
type helloValue struct {
	Member *struct {
		UserID int64  `json:"userId"`
		Name   string `json:"name"`
	} `json:"member,omitempty"`
	Guest string `json:"guest,omitempty"`
}

// NewServer creates a server that feeds h.
func NewServer(addr string, h Handler, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "transport"})
	}
	return &Server{
		addr:     addr,
		handler:  h,
		logger:   logger,
		conns:    make(map[net.Conn]struct{}),
		registry: NewRegistry(),
	}
}

// Registry exposes the live endpoints, keyed by connection id.
func (s *Server) Registry() *Registry { return s.registry }

// ListenAndServe accepts connections until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("transport: listen %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	s.logger.Info("listening", "address", ln.Addr().String())

	go func() {
		<-ctx.Done()
		s.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}
		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()
		go s.serveConn(conn)
	}
}

// Close stops the listener and tears down every connection.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.listener != nil {
		s.listener.Close()
	}
	for conn := range s.conns {
		conn.Close()
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	identity, err := s.readHello(scanner)
	if err != nil {
		s.logger.Warn("handshake failed", "remote", conn.RemoteAddr().String(), "error", err)
		return
	}

	ep := NewChannelEndpoint("", identity, 128)
	s.registry.Register(ep)
	defer s.registry.Unregister(ep.ID())
	s.logger.Info("client connected", "endpoint", ep.ID(), "player", identity.Key())

	// Writer: one goroutine owns the socket for writes.
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		enc := json.NewEncoder(conn)
		for {
			select {
			case out := <-ep.Events():
				if err := enc.Encode(out); err != nil {
					ep.Close()
					return
				}
			case <-ep.Done():
				return
			}
		}
	}()

	// Tell guests the token that names them; they replay it on rejoin.
	if guest, ok := identity.(player.Guest); ok {
		ep.Send("general", "welcome", map[string]string{"guest": guest.BrowserToken}, "")
	}

	reason := ClosedNotByChoice
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg Message
		if err := json.Unmarshal(line, &msg); err != nil {
			s.logger.Warn("undecodable frame", "endpoint", ep.ID(), "error", err)
			continue
		}
		if msg.Route == "general" && msg.Action == "bye" {
			reason = ClosedByChoice
			break
		}
		s.handler.HandleMessage(ep, msg)
	}

	ep.Close()
	<-writerDone
	s.logger.Info("client disconnected", "endpoint", ep.ID(), "reason", reason.String())
	s.handler.HandleClosed(ep, reason)
}

// readHello consumes the authentication frame. Guests without a token
// are minted one; identity verification itself is outside the core.
func (s *Server) readHello(scanner *bufio.Scanner) (player.Handle, error) {
	if !scanner.Scan() {
		return nil, fmt.Errorf("transport: connection closed before hello")
	}
	var msg Message
	if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
		return nil, fmt.Errorf("transport: bad hello frame: %w", err)
	}
	if msg.Route != "auth" || msg.Action != "hello" {
		return nil, fmt.Errorf("transport: expected auth hello, got %s/%s", msg.Route, msg.Action)
	}
	var hello helloValue
	if len(msg.Value) > 0 {
		if err := json.Unmarshal(msg.Value, &hello); err != nil {
			return nil, fmt.Errorf("transport: bad hello payload: %w", err)
		}
	}
	if hello.Member != nil {
		return player.Member{UserID: hello.Member.UserID, Name: hello.Member.Name}, nil
	}
	token := hello.Guest
	if token == "" {
		token = player.NewGuestToken()
	}
	return player.Guest{BrowserToken: token}, nil
}
