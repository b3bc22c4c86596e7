package tftp

// ServeRequest runs the server side of one already-parsed RRQ/WRQ to
// completion on sock, reading from or writing to file as appropriate:
// RFC 2347 option negotiation, then the windowed sender or receiver loop.
// The caller is responsible for giving sock a TID-locked, per-session
// transport and for opening file according to req.Op before calling this.
func ServeRequest(sock Socket, req *Request, reader FileReader, writer FileWriter) error {
	oack := ServerForgeOptionAck(req)

	switch req.Op {
	case OpWRQ:
		reply := oack
		if len(reply) == 0 {
			reply = ForgeAck(0)
		}

		if _, err := sock.Write(reply); err != nil {
			return errIO(err)
		}

		return RunReceiver(sock, writer, req, nil)

	case OpRRQ:
		if len(oack) > 0 {
			if _, err := sock.Write(oack); err != nil {
				return errIO(err)
			}

			block, err := readOptionAckReply(sock)
			if err != nil {
				if !IsPeerError(err) {
					sendErrorBestEffort(sock, asError(err))
				}

				return err
			}

			if block != 0 {
				e := errNegotiationFailure("expected ack(0) after oack")
				sendErrorBestEffort(sock, e)

				return e
			}
		}

		return RunSender(sock, reader, req)

	default:
		return errIllegalOperation("request opcode must be RRQ or WRQ")
	}
}

func readOptionAckReply(sock Socket) (uint16, error) {
	buf := make([]byte, MaxRequestSize)

	n, err := sock.Read(buf)
	if err != nil {
		return 0, errIO(err)
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

// RunClientGet drives a client RRQ end to end: send the request, negotiate,
// then receive the file into writer.
func RunClientGet(sock Socket, req *Request, writer FileWriter) error {
	if _, err := sock.Write(ForgeRequest(req)); err != nil {
		return errIO(err)
	}

	prefetched, err := ClientNegotiate(sock, req)
	if err != nil {
		return err
	}

	return RunReceiver(sock, writer, req, prefetched)
}

// RunClientPut drives a client WRQ end to end: send the request, negotiate,
// then send reader's contents.
func RunClientPut(sock Socket, req *Request, reader FileReader) error {
	if _, err := sock.Write(ForgeRequest(req)); err != nil {
		return errIO(err)
	}

	if _, err := ClientNegotiate(sock, req); err != nil {
		return err
	}

	return RunSender(sock, reader, req)
}
