package tftp

// negotiatedOptions is the subset of the four-option table this engine ever
// advertises or acknowledges on the wire. timeout and tsize (RFC 2349) are
// modelled but never echoed, so a client that requests them never sees them
// enabled after negotiation completes.
var negotiatedOptions = []OptionName{OptBlksize, OptWindowsize}

func restrictToNegotiated(req *Request) {
	for _, o := range req.Options {
		enabled := false

		for _, name := range negotiatedOptions {
			if o.Name == name {
				enabled = true

				break
			}
		}

		if !enabled {
			o.Enabled = false
		}
	}
}

// ServerForgeOptionAck applies the server-side negotiation rule (RFC 2347):
// every option the client requested is already clamped and enabled by
// ParseRequest; this engine then honours only blksize/windowsize before
// forging the OACK. It returns an empty slice when nothing survives, so the
// caller falls back to a plain ACK(0)/implicit-DATA(1) reply.
func ServerForgeOptionAck(req *Request) []byte {
	restrictToNegotiated(req)

	return ForgeOptionAck(req)
}

// ClientNegotiate reads the single reply that follows a request send and
// drives it through the client-side negotiation rule (RFC 2347):
//
//   - ERROR aborts the session.
//   - OACK resets req to defaults then applies only the echoed options; for
//     an RRQ this also sends the ACK(0) the server is waiting for.
//   - a non-OACK ACK(0) means the peer (necessarily answering a WRQ) chose
//     no options; req is reset to defaults.
//   - a DATA packet is only legal as the very first reply to an RRQ that
//     asked for no negotiation the server cared to acknowledge; req is
//     reset to defaults and the raw datagram is returned so the receiver
//     loop can consume it as its first block instead of re-reading it.
//
// The returned []byte is non-nil only in that last case.
func ClientNegotiate(sock Socket, req *Request) ([]byte, error) {
	bufSize := req.Blksize() + 4
	if MaxRequestSize > bufSize {
		bufSize = MaxRequestSize
	}

	buf := make([]byte, bufSize)

	n, err := sock.Read(buf)
	if err != nil {
		return nil, errIO(err)
	}

	raw := append([]byte(nil), buf[:n]...)

	switch GetOpcode(raw) {
	case OpERROR:
		code, msg, perr := ParseError(raw)
		if perr != nil {
			return nil, perr
		}

		return nil, errPeer(code, msg)

	case OpOACK:
		if perr := ParseOptionAck(raw, req); perr != nil {
			return nil, perr
		}

		if req.Op == OpRRQ {
			if _, werr := sock.Write(ForgeAck(0)); werr != nil {
				return nil, errIO(werr)
			}
		}

		return nil, nil

	case OpACK:
		block, perr := ParseAck(raw)
		if perr != nil {
			return nil, perr
		}

		if block != 0 {
			return nil, errIllegalOperation("unexpected ack block in reply to request")
		}

		req.ResetOptions()

		return nil, nil

	case OpDATA:
		if req.Op != OpRRQ {
			return nil, errIllegalOperation("unexpected data packet in reply to request")
		}

		req.ResetOptions()

		return raw, nil

	default:
		return nil, errIllegalOperation("unexpected opcode in reply to request")
	}
}
