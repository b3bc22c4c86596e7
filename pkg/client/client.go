package client

import (
	"fmt"
	"net"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/mmoreram/go-tftpd/pkg/tftp"
)

// DefaultTimeout is applied to a session's socket when SetTimeout is never
// called.
const DefaultTimeout = 5 * time.Second

// Connector is what the REPL drives: connect to a server, transfer a file
// in either direction, and tune the session's negotiable parameters before
// the next transfer.
type Connector interface {
	Connect(addr string) error
	Get(filename string) error
	Put(filename string) error
	SetTimeout(seconds uint)
	SetBlockSize(size int64)
	SetWindowSize(size int64)
	SetTrace(trace bool)
	Close() error
}

// Client is the Connector implementation talking real UDP to a TFTP server.
type Client struct {
	logger     *zap.SugaredLogger
	addr       string
	timeout    time.Duration
	blksize    int64
	windowsize int64
	trace      bool
}

// NewClient builds a Client with the RFC-default blksize/windowsize and
// DefaultTimeout.
func NewClient(logger *zap.SugaredLogger) Connector {
	return &Client{
		logger:     logger,
		timeout:    DefaultTimeout,
		blksize:    512,
		windowsize: 1,
	}
}

func (c *Client) Connect(addr string) error {
	c.addr = addr

	return nil
}

func (c *Client) SetTimeout(seconds uint) {
	c.timeout = time.Duration(seconds) * time.Second
}

func (c *Client) SetBlockSize(size int64) {
	c.blksize = size
}

func (c *Client) SetWindowSize(size int64) {
	c.windowsize = size
}

func (c *Client) SetTrace(trace bool) {
	c.trace = trace
}

func (c *Client) Close() error {
	return nil
}

func (c *Client) newRequest(op tftp.Opcode, filename string) *tftp.Request {
	req := tftp.NewRequest(op, filename, tftp.ModeOctet)

	if c.blksize != 512 {
		req.RequestOption(tftp.OptBlksize, c.blksize)
	}

	if c.windowsize != 1 {
		req.RequestOption(tftp.OptWindowsize, c.windowsize)
	}

	return req
}

func (c *Client) dial() (tftp.Socket, net.Conn, error) {
	if c.addr == "" {
		return nil, nil, fmt.Errorf("not connected: run \"connect <host> <port>\" first")
	}

	conn, err := net.Dial("udp", c.addr)
	if err != nil {
		return nil, nil, fmt.Errorf("error while dialing %s: %w", c.addr, err)
	}

	sock := tftp.NewConnSocket(conn)
	if err := sock.SetReadTimeout(c.timeout); err != nil {
		conn.Close()

		return nil, nil, fmt.Errorf("error while setting read timeout: %w", err)
	}

	return sock, conn, nil
}

// Get retrieves filename from the connected server into the current
// working directory.
func (c *Client) Get(filename string) error {
	sock, conn, err := c.dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("error while creating %s: %w", filename, err)
	}
	defer f.Close()

	req := c.newRequest(tftp.OpRRQ, filename)

	if c.trace {
		c.logger.Debugf("get %s: blksize=%d windowsize=%d", filename, c.blksize, c.windowsize)
	}

	if err := tftp.RunClientGet(sock, req, f); err != nil {
		return fmt.Errorf("error while getting %s: %w", filename, err)
	}

	return nil
}

// Put sends filename from the current working directory to the connected
// server.
func (c *Client) Put(filename string) error {
	sock, conn, err := c.dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("error while opening %s: %w", filename, err)
	}
	defer f.Close()

	req := c.newRequest(tftp.OpWRQ, filename)

	if c.trace {
		c.logger.Debugf("put %s: blksize=%d windowsize=%d", filename, c.blksize, c.windowsize)
	}

	if err := tftp.RunClientPut(sock, req, f); err != nil {
		return fmt.Errorf("error while putting %s: %w", filename, err)
	}

	return nil
}
