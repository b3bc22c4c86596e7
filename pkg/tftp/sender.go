package tftp

import (
	"errors"
	"fmt"
	"io"
)

// errWindowWrite wraps a sock.Write failure inside emitWindow so RunSender
// can tell it apart from a local file-read failure: a transient write
// failure is retried like any other lost round (RFC 1350's retransmission
// model), while a file-read failure is not.
var errWindowWrite = errors.New("window write failed")

// MaxRetry is the number of consecutive failed rounds a transfer tolerates
// before it aborts. The loop attempts MaxRetry+1 rounds total.
const MaxRetry = 5

// RunSender drives the windowed DATA-emission loop (RFC 1350's sender side,
// generalized to RFC 7440's sliding window). It owns file for the duration
// of the call, seeking it on every round so a retry always resends from the
// correct origin. It returns nil once the final (possibly empty) DATA
// packet has been acknowledged.
func RunSender(sock Socket, file FileReader, req *Request) error {
	blksize := req.Blksize()
	windowsize := req.Windowsize()

	var (
		retry         int
		windowBlock   uint16 = 1
		absoluteBlock uint64 = 1
	)

	for {
		if retry > MaxRetry {
			sendErr := errRetryExceeded()
			sendErrorBestEffort(sock, sendErr)

			return sendErr
		}

		if _, err := file.Seek(int64(absoluteBlock-1)*int64(blksize), io.SeekStart); err != nil {
			e := errIO(err)
			sendErrorBestEffort(sock, e)

			return e
		}

		finalBlock, isFinalRound, emitErr := emitWindow(sock, file, windowBlock, blksize, windowsize)
		if emitErr != nil {
			if errors.Is(emitErr, errWindowWrite) {
				retry++

				continue
			}

			e := errIO(emitErr)
			sendErrorBestEffort(sock, e)

			return e
		}

		ackBlock, ackErr := readAck(sock)
		if ackErr != nil {
			if IsPeerError(ackErr) {
				return ackErr
			}

			retry++

			continue
		}

		advance := ackBlock + 1 - windowBlock // uint16 arithmetic wraps mod 2^16
		absoluteBlock += uint64(advance)
		windowBlock = ackBlock + 1
		retry = 0

		if isFinalRound && ackBlock == finalBlock {
			return nil
		}
	}
}

// emitWindow sends up to windowsize DATA packets with rolling block numbers
// starting at startBlock. It stops early on a short or empty read (end of
// file), reporting that block as the final one.
func emitWindow(sock Socket, file FileReader, startBlock uint16, blksize, windowsize int) (uint16, bool, error) {
	block := startBlock

	for i := 0; i < windowsize; i++ {
		payload := make([]byte, blksize)

		n, err := io.ReadFull(file, payload)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return 0, false, err
		}

		if _, werr := sock.Write(ForgeData(block, payload[:n])); werr != nil {
			return 0, false, fmt.Errorf("%w: %s", errWindowWrite, werr.Error())
		}

		if n < blksize {
			return block, true, nil
		}

		block++
	}

	return block - 1, false, nil
}

// readAck reads and classifies the single reply expected after a window.
func readAck(sock Socket) (uint16, error) {
	buf := make([]byte, MaxRequestSize)

	n, err := sock.Read(buf)
	if err != nil {
		return 0, err
	}

	raw := buf[:n]

	if GetOpcode(raw) == OpERROR {
		code, msg, perr := ParseError(raw)
		if perr != nil {
			return 0, perr
		}

		return 0, errPeer(code, msg)
	}

	return ParseAck(raw)
}

func sendErrorBestEffort(sock Socket, err *Error) {
	_, _ = sock.Write(ForgeError(err.WireCode, err.Message))
}
