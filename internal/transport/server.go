// Package transport implements the non-blocking TCP listener and the framed
// per-connection buffering for the bridge's wire protocol. It is driven
// entirely by periodic Process calls from the cooperative driver; nothing in
// this package blocks or spawns goroutines.
package transport

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"golang.org/x/sys/unix"

	"daw-mcp/go-bridge/internal/metrics"
)

const listenBacklog = 8

// RequestFunc consumes one frame and returns the bytes to answer with on the
// same connection. client identifies the peer for logging and rate limiting.
type RequestFunc func(frame []byte, client string) []byte

type Options struct {
	// Port to bind on loopback. 0 picks an ephemeral port (tests).
	Port int
	// MaxBufferedBytes caps a connection's pending unframed bytes; exceeding
	// it closes the connection. 0 disables the cap.
	MaxBufferedBytes int
	Logger           *slog.Logger
	Metrics          *metrics.Metrics
}

// Server is the single point of I/O polling. It owns the listening socket
// and the set of active connections, all touched only from Process, which
// the driver calls once per tick.
type Server struct {
	logger      *slog.Logger
	metrics     *metrics.Metrics
	fd          int
	port        int
	conns       []*Conn
	onFrame     RequestFunc
	maxBuffered int
	running     bool
}

// Listen binds 127.0.0.1:port non-blocking and starts listening. A bind
// failure is startup-fatal and returned immediately; it is never retried.
func Listen(opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("create socket: %w", err)
	}
	unix.CloseOnExec(fd)
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("set nonblocking: %w", err)
	}
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)

	sa := &unix.SockaddrInet4{Port: opts.Port, Addr: [4]byte{127, 0, 0, 1}}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("bind 127.0.0.1:%d: %w", opts.Port, err)
	}
	if err := unix.Listen(fd, listenBacklog); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("listen: %w", err)
	}

	port := opts.Port
	if bound, err := unix.Getsockname(fd); err == nil {
		if in, ok := bound.(*unix.SockaddrInet4); ok {
			port = in.Port
		}
	}

	logger.Info("listening", "addr", "127.0.0.1:"+strconv.Itoa(port))
	return &Server{
		logger:      logger,
		metrics:     opts.Metrics,
		fd:          fd,
		port:        port,
		maxBuffered: opts.MaxBufferedBytes,
		running:     true,
	}, nil
}

// SetRequestFunc installs the frame callback. Must be called before the
// first Process; frames arriving without a callback are dropped.
func (s *Server) SetRequestFunc(fn RequestFunc) { s.onFrame = fn }

func (s *Server) Port() int { return s.port }

// ActiveConns reports the number of currently open client connections.
func (s *Server) ActiveConns() int { return len(s.conns) }

// Process runs one poll cycle: accept at most one pending connection, then
// drain every active connection in a stable order. It never blocks.
func (s *Server) Process() {
	if !s.running {
		return
	}
	s.acceptPending()
	s.readConns()
}

func (s *Server) acceptPending() {
	nfd, sa, err := unix.Accept(s.fd)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR {
			return
		}
		s.logger.Error("accept failed", "err", err)
		return
	}
	if err := unix.SetNonblock(nfd, true); err != nil {
		s.logger.Error("set client nonblocking failed", "err", err)
		_ = unix.Close(nfd)
		return
	}
	unix.CloseOnExec(nfd)

	c := newConn(nfd, remoteString(sa), s.maxBuffered, s.logger)
	s.conns = append(s.conns, c)
	s.metrics.ConnectionAccepted()
	s.metrics.SetActiveConnections(len(s.conns))
	s.logger.Info("client connected", "remote", c.RemoteAddr())
}

func (s *Server) readConns() {
	// Snapshot: dropConn mutates s.conns while we iterate.
	snapshot := append([]*Conn(nil), s.conns...)
	for _, c := range snapshot {
		frames, ok := c.ReadAvailable()
		for _, frame := range frames {
			s.metrics.FrameRead()
			if s.onFrame == nil {
				continue
			}
			resp := s.onFrame(frame, c.RemoteAddr())
			if len(resp) == 0 {
				continue
			}
			if !c.Send(resp) {
				ok = false
				break
			}
		}
		if !ok {
			s.dropConn(c)
		}
	}
}

func (s *Server) dropConn(c *Conn) {
	for i, other := range s.conns {
		if other == c {
			s.conns = append(s.conns[:i], s.conns[i+1:]...)
			break
		}
	}
	c.Close()
	s.metrics.SetActiveConnections(len(s.conns))
	s.logger.Info("client disconnected", "remote", c.RemoteAddr())
}

// Shutdown force-closes every client connection and releases the listening
// socket. Safe to call more than once; Process becomes a no-op afterwards.
func (s *Server) Shutdown() {
	if !s.running {
		return
	}
	s.running = false
	for _, c := range s.conns {
		c.Close()
	}
	s.conns = nil
	s.metrics.SetActiveConnections(0)
	_ = unix.Close(s.fd)
	s.fd = -1
	s.logger.Info("server shut down")
}

func remoteString(sa unix.Sockaddr) string {
	if in, ok := sa.(*unix.SockaddrInet4); ok {
		return net.JoinHostPort(net.IP(in.Addr[:]).String(), strconv.Itoa(in.Port))
	}
	return "unknown"
}
