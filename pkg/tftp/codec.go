package tftp

import (
	"bytes"
	"encoding/binary"
	"strconv"
)

// MaxRequestSize is the largest legal RRQ/WRQ/OACK/ERROR datagram (RFC 1350
// caps request-phase packets at 512 bytes).
const MaxRequestSize = 512

// minRequestSize is the lower size bound ParseRequest enforces. The shortest
// well-formed request, opcode(2) + filename "x\0"(2) + mode "mail\0"(5), is
// 9 bytes; an 8-byte datagram passes this check and is then rejected by the
// null-terminator scan.
const minRequestSize = 8

// readCString consumes the leading null-terminated string from b, returning
// the string (without its terminator) and the remaining bytes. It never
// reads past the end of b.
func readCString(b []byte) (string, []byte, error) {
	idx := bytes.IndexByte(b, 0)
	if idx < 0 {
		return "", nil, errFraming("missing null terminator")
	}

	return string(b[:idx]), b[idx+1:], nil
}

// extractOption consumes one name\0value\0 pair from the front of b against
// req's option table. It returns the number of bytes consumed and whether
// the name matched a known option. A malformed pair (missing terminator)
// reports zero bytes consumed so the caller can stop safely; an unknown
// name or an unparsable value is reported as "not matched" but still
// reports bytes consumed, so the caller skips forward without aborting.
func extractOption(b []byte, req *Request) (int, bool) {
	name, rest, err := readCString(b)
	if err != nil {
		return 0, false
	}

	valStr, rest, err := readCString(rest)
	if err != nil {
		return 0, false
	}

	consumed := len(b) - len(rest)

	opt := req.Option(OptionName(name))
	if opt == nil {
		return consumed, false
	}

	val, err := strconv.ParseInt(valStr, 10, 64)
	if err != nil {
		return consumed, false
	}

	opt.Value = val
	opt.clamp()
	opt.Enabled = true

	return consumed, true
}

// ParseRequest decodes an RRQ/WRQ datagram (RFC 1350, with the RFC 2347
// option-extension grammar). Unknown option names are silently skipped for
// forward compatibility; a value that fails to parse as a decimal integer
// skips that option without aborting the packet.
func ParseRequest(b []byte) (*Request, error) {
	if len(b) < minRequestSize || len(b) > MaxRequestSize {
		return nil, errFraming("request size out of bounds")
	}

	op := Opcode(binary.BigEndian.Uint16(b[:2]))
	if op != OpRRQ && op != OpWRQ {
		return nil, errIllegalOperation("request opcode must be RRQ or WRQ")
	}

	rest := b[2:]

	filename, rest, err := readCString(rest)
	if err != nil {
		return nil, err
	}

	modeStr, rest, err := readCString(rest)
	if err != nil {
		return nil, err
	}

	req := NewRequest(op, filename, ParseMode(modeStr))

	for len(rest) > 0 {
		consumed, _ := extractOption(rest, req)
		if consumed == 0 {
			break
		}

		rest = rest[consumed:]
	}

	return req, nil
}

// ForgeRequest encodes req's filename, mode, and every enabled option as an
// RRQ/WRQ datagram.
func ForgeRequest(req *Request) []byte {
	buf := new(bytes.Buffer)

	writeOpcode(buf, req.Op)
	buf.WriteString(req.Filename)
	buf.WriteByte(0)
	buf.WriteString(req.Mode.String())
	buf.WriteByte(0)

	for _, o := range req.Options {
		if !o.Enabled {
			continue
		}

		buf.WriteString(string(o.Name))
		buf.WriteByte(0)
		buf.WriteString(strconv.FormatInt(o.Value, 10))
		buf.WriteByte(0)
	}

	return buf.Bytes()
}

// ParseOptionAck decodes an OACK datagram into req. Per RFC 2347 the OACK is
// authoritative: every known option is reset to its default and disabled
// before any option in the packet is applied. An option name this engine
// does not recognise is a negotiation failure; a recognised option is
// applied whether or not req had requested it.
func ParseOptionAck(b []byte, req *Request) error {
	if len(b) < 4 || len(b) > MaxRequestSize {
		return errFraming("oack size out of bounds")
	}

	op := Opcode(binary.BigEndian.Uint16(b[:2]))
	if op != OpOACK {
		return errIllegalOperation("expected OACK opcode")
	}

	req.ResetOptions()

	rest := b[2:]
	for len(rest) > 0 {
		name, next, err := readCString(rest)
		if err != nil {
			return errFraming(err.Error())
		}

		valStr, next, err := readCString(next)
		if err != nil {
			return errFraming(err.Error())
		}

		rest = next

		opt := req.Option(OptionName(name))
		if opt == nil {
			return errNegotiationFailure("unknown option in OACK: " + name)
		}

		val, err := strconv.ParseInt(valStr, 10, 64)
		if err != nil {
			return errNegotiationFailure("unparsable option value in OACK: " + name)
		}

		opt.Value = val
		opt.clamp()
		opt.Enabled = true
	}

	return nil
}

// ForgeOptionAck encodes every enabled option in req as an OACK datagram.
// It returns an empty slice ("no OACK to send") when nothing is enabled.
func ForgeOptionAck(req *Request) []byte {
	buf := new(bytes.Buffer)

	writeOpcode(buf, OpOACK)

	any := false
	for _, o := range req.Options {
		if !o.Enabled {
			continue
		}

		any = true
		buf.WriteString(string(o.Name))
		buf.WriteByte(0)
		buf.WriteString(strconv.FormatInt(o.Value, 10))
		buf.WriteByte(0)
	}

	if !any {
		return []byte{}
	}

	return buf.Bytes()
}

// ParseData decodes a DATA datagram, returning its block id and payload.
// The payload aliases b; callers that retain it past the next read must
// copy.
func ParseData(b []byte) (uint16, []byte, error) {
	if len(b) < 4 {
		return 0, nil, errFraming("data packet too short")
	}

	op := Opcode(binary.BigEndian.Uint16(b[:2]))
	if op != OpDATA {
		return 0, nil, errIllegalOperation("expected DATA opcode")
	}

	return binary.BigEndian.Uint16(b[2:4]), b[4:], nil
}

// ForgeData encodes a DATA datagram carrying payload as block.
func ForgeData(block uint16, payload []byte) []byte {
	b := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint16(b[0:2], uint16(OpDATA))
	binary.BigEndian.PutUint16(b[2:4], block)
	copy(b[4:], payload)

	return b
}

// ParseAck decodes an ACK datagram, which must be exactly 4 bytes.
func ParseAck(b []byte) (uint16, error) {
	if len(b) != 4 {
		return 0, errFraming("ack packet must be 4 bytes")
	}

	op := Opcode(binary.BigEndian.Uint16(b[:2]))
	if op != OpACK {
		return 0, errIllegalOperation("expected ACK opcode")
	}

	return binary.BigEndian.Uint16(b[2:4]), nil
}

// ForgeAck encodes an ACK datagram for block.
func ForgeAck(block uint16) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint16(b[0:2], uint16(OpACK))
	binary.BigEndian.PutUint16(b[2:4], block)

	return b
}

// ParseError decodes an ERROR datagram into its code and message.
func ParseError(b []byte) (WireErrorCode, string, error) {
	if len(b) < 5 {
		return 0, "", errFraming("error packet too short")
	}

	op := Opcode(binary.BigEndian.Uint16(b[:2]))
	if op != OpERROR {
		return 0, "", errIllegalOperation("expected ERROR opcode")
	}

	code := WireErrorCode(binary.BigEndian.Uint16(b[2:4]))

	msg, _, err := readCString(b[4:])
	if err != nil {
		return 0, "", err
	}

	return code, msg, nil
}

// ForgeError encodes an ERROR datagram.
func ForgeError(code WireErrorCode, msg string) []byte {
	buf := new(bytes.Buffer)

	writeOpcode(buf, OpERROR)

	var codeBytes [2]byte
	binary.BigEndian.PutUint16(codeBytes[:], uint16(code))
	buf.Write(codeBytes[:])

	buf.WriteString(msg)
	buf.WriteByte(0)

	return buf.Bytes()
}

func writeOpcode(buf *bytes.Buffer, op Opcode) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(op))
	buf.Write(b[:])
}
