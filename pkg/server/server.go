package server

import (
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/mmoreram/go-tftpd/pkg/tftp"
)

// Server is a TFTP server front-end: it owns the well-known-port listener,
// and for every request it accepts there forks a fresh, TID-locked
// connection on which a pkg/tftp session actually runs.
type Server struct {
	logger      *zap.SugaredLogger
	addr        string
	baseDir     string
	readTimeout time.Duration
	conn        net.PacketConn
	sem         chan struct{}
}

// NewServer builds a Server listening on addr (e.g. "[::]:69" for dual-stack
// IPv4/IPv6), serving files rooted at baseDir. maxConcurrent bounds the
// number of sessions running at once; readTimeout is applied to every
// session's socket as its per-read deadline.
func NewServer(logger *zap.SugaredLogger, addr, baseDir string,
	readTimeout time.Duration, maxConcurrent int,
) *Server {
	return &Server{
		logger:      logger,
		addr:        addr,
		baseDir:     baseDir,
		readTimeout: readTimeout,
		sem:         make(chan struct{}, maxConcurrent),
	}
}

// ListenAndServe binds the well-known port and services requests until the
// listener is closed.
func (s *Server) ListenAndServe() error {
	conn, err := net.ListenPacket("udp", s.addr)
	if err != nil {
		return fmt.Errorf("error while starting the udp server: %w", err)
	}

	s.conn = conn

	datagram := make([]byte, tftp.MaxRequestSize)

	for {
		n, addr, err := conn.ReadFrom(datagram)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}

			return fmt.Errorf("error while reading from listener: %w", err)
		}

		raw := append([]byte(nil), datagram[:n]...)

		select {
		case s.sem <- struct{}{}:
			go func() {
				defer func() { <-s.sem }()
				s.handleRequest(addr, raw)
			}()
		default:
			s.logger.Warnw("dropping request, server at concurrency limit", "addr", addr)
		}
	}
}

// Close shuts down the listener, causing ListenAndServe to return.
func (s *Server) Close() error {
	if s.conn == nil {
		return nil
	}

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("error while closing connection: %w", err)
	}

	return nil
}

// handleRequest parses one RRQ/WRQ datagram, dials a fresh ephemeral-port
// connection back to the client (the TID mechanism -- a new source port
// per session, distinct from the well-known listening port), and runs the
// transfer to completion.
func (s *Server) handleRequest(raddr net.Addr, datagram []byte) {
	req, err := tftp.ParseRequest(datagram)
	if err != nil {
		s.logger.Errorw("malformed request", "addr", raddr, "err", err)
		s.replyError(raddr, tftp.WireIllegalOperation, "malformed request")

		return
	}

	conn, err := net.Dial("udp", raddr.String())
	if err != nil {
		unusable := tftp.SocketUnusableError(err)
		s.logger.Errorw("error dialing session socket", "addr", raddr, "err", err)
		s.replyError(raddr, unusable.WireCode, unusable.Error())

		return
	}

	defer func() {
		if err := conn.Close(); err != nil {
			s.logger.Errorw("error closing session socket", "addr", raddr, "err", err)
		}
	}()

	sock := tftp.NewConnSocket(conn)
	if err := sock.SetReadTimeout(s.readTimeout); err != nil {
		unusable := tftp.SocketUnusableError(err)
		s.logger.Errorw("error setting read timeout", "addr", raddr, "err", err)
		s.sendTypedError(sock, unusable)

		return
	}

	var (
		reader tftp.FileReader
		writer tftp.FileWriter
	)

	switch req.Op {
	case tftp.OpRRQ:
		r, closer, err := OpenReader(s.baseDir, req.Filename)
		if err != nil {
			s.logger.Errorw("cannot serve rrq", "file", req.Filename, "err", err)
			s.sendTypedError(sock, err)

			return
		}
		defer closer.Close()

		reader = r
	case tftp.OpWRQ:
		w, closer, err := OpenWriter(s.baseDir, req.Filename)
		if err != nil {
			s.logger.Errorw("cannot serve wrq", "file", req.Filename, "err", err)
			s.sendTypedError(sock, err)

			return
		}
		defer closer.Close()

		writer = w
	default:
		s.replyError(raddr, tftp.WireIllegalOperation, "request opcode must be RRQ or WRQ")

		return
	}

	s.logger.Infow("serving transfer", "op", req.Op, "file", req.Filename, "addr", raddr)

	if err := tftp.ServeRequest(sock, req, reader, writer); err != nil {
		s.logger.Errorw("transfer ended with error", "file", req.Filename, "addr", raddr, "err", err)

		return
	}

	s.logger.Infow("transfer complete", "op", req.Op, "file", req.Filename, "addr", raddr)
}

// replyError forges and sends an ERROR datagram back to the requester's
// address using the well-known-port listener, for failures that occur
// before a session socket exists.
func (s *Server) replyError(raddr net.Addr, code tftp.WireErrorCode, msg string) {
	if _, err := s.conn.WriteTo(tftp.ForgeError(code, msg), raddr); err != nil {
		s.logger.Errorw("error sending error reply", "addr", raddr, "err", err)
	}
}

// sendTypedError sends err's wire code/message over an already-dialed
// session socket, best-effort.
func (s *Server) sendTypedError(sock tftp.Socket, err error) {
	var tftpErr *tftp.Error
	if !errors.As(err, &tftpErr) {
		tftpErr = &tftp.Error{WireCode: tftp.WireUndefined, Message: err.Error()}
	}

	if _, err := sock.Write(tftp.ForgeError(tftpErr.WireCode, tftpErr.Message)); err != nil {
		s.logger.Errorw("error sending typed error", "err", err)
	}
}
