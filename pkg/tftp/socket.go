package tftp

import (
	"net"
	"time"
)

// Socket is the capability the transfer loops need from a transport: set a
// receive timeout, read a datagram, write a datagram. It is deliberately a
// three-method capability set rather than a net.Conn wrapper, so tests can
// inject a fake without a real UDP socket.
type Socket interface {
	SetReadTimeout(d time.Duration) error
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}

// connSocket adapts a net.Conn (already dialed/connected to the peer, i.e.
// already TID-locked) to Socket. The configured timeout is re-applied as a
// fresh deadline on every Read, so callers only need to set it once.
type connSocket struct {
	conn    net.Conn
	timeout time.Duration
}

// NewConnSocket wraps conn as a Socket.
func NewConnSocket(conn net.Conn) Socket {
	return &connSocket{conn: conn}
}

func (s *connSocket) SetReadTimeout(d time.Duration) error {
	s.timeout = d

	return nil
}

func (s *connSocket) Read(p []byte) (int, error) {
	if s.timeout > 0 {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
			return 0, err
		}
	}

	return s.conn.Read(p)
}

func (s *connSocket) Write(p []byte) (int, error) {
	return s.conn.Write(p)
}
