package transport

import (
	"bytes"
	"log/slog"

	"golang.org/x/sys/unix"
)

// readChunk matches the recv size the wire protocol was designed around.
const readChunk = 64 * 1024

// Conn owns one accepted client socket and its partial-receive buffer. The
// socket is non-blocking; a would-block read is a normal, frequent outcome
// and costs nothing.
type Conn struct {
	fd          int
	remote      string
	buf         []byte
	scratch     []byte
	maxBuffered int
	closed      bool
	logger      *slog.Logger
}

func newConn(fd int, remote string, maxBuffered int, logger *slog.Logger) *Conn {
	return &Conn{
		fd:          fd,
		remote:      remote,
		scratch:     make([]byte, readChunk),
		maxBuffered: maxBuffered,
		logger:      logger,
	}
}

func (c *Conn) RemoteAddr() string { return c.remote }

// ReadAvailable performs one non-blocking read and returns every complete
// newline-delimited frame the buffer now holds. ok=false means the peer is
// gone (EOF, reset, or a read error) or the buffer cap was exceeded, and the
// multiplexer must drop the connection. A trailing partial frame stays
// buffered for the next poll cycle.
func (c *Conn) ReadAvailable() (frames [][]byte, ok bool) {
	if c.closed {
		return nil, false
	}

	n, err := unix.Read(c.fd, c.scratch)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR {
			// Nothing pending this cycle.
			return nil, true
		}
		c.logger.Warn("read failed", "remote", c.remote, "err", err)
		return nil, false
	}
	if n == 0 {
		// Zero-length read: peer closed.
		return nil, false
	}

	c.buf = append(c.buf, c.scratch[:n]...)
	frames = c.extractFrames()

	if c.maxBuffered > 0 && len(c.buf) > c.maxBuffered {
		c.logger.Warn("receive buffer over limit, dropping connection",
			"remote", c.remote, "buffered", len(c.buf), "limit", c.maxBuffered)
		return frames, false
	}
	return frames, true
}

func (c *Conn) extractFrames() [][]byte {
	var frames [][]byte
	for {
		i := bytes.IndexByte(c.buf, '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimSpace(c.buf[:i])
		if len(line) > 0 {
			// Copy: the remainder of buf is about to be reused.
			frames = append(frames, append([]byte(nil), line...))
		}
		c.buf = c.buf[i+1:]
	}
	if len(c.buf) == 0 {
		c.buf = nil
	}
	return frames
}

// Send writes one response followed by the newline terminator. Any failure,
// including a would-block on a full socket buffer, counts as a closure signal
// for this connection.
func (c *Conn) Send(payload []byte) bool {
	if c.closed {
		return false
	}
	data := make([]byte, 0, len(payload)+1)
	data = append(data, payload...)
	data = append(data, '\n')
	for len(data) > 0 {
		n, err := unix.Write(c.fd, data)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			c.logger.Warn("send failed", "remote", c.remote, "err", err)
			return false
		}
		data = data[n:]
	}
	return true
}

// Close releases the socket. Idempotent.
func (c *Conn) Close() {
	if c.closed {
		return
	}
	c.closed = true
	_ = unix.Close(c.fd)
}
