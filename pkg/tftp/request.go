package tftp

// Request bundles a session's operation, filename, mode, and negotiated
// options. It is born from ParseRequest on the server or constructed
// directly (NewRequest) on the client; after negotiation completes it is
// read-only for the duration of the transfer.
type Request struct {
	Op       Opcode
	Filename string
	Mode     Mode
	Options  []*Option
}

// NewRequest builds a Request with the option table at its RFC defaults,
// none enabled.
func NewRequest(op Opcode, filename string, mode Mode) *Request {
	return &Request{
		Op:       op,
		Filename: filename,
		Mode:     mode,
		Options:  defaultOptions(),
	}
}

// Option looks up one of the four recognised options by name.
func (r *Request) Option(name OptionName) *Option {
	return findOption(r.Options, string(name))
}

// ResetOptions restores every option to its default and disables it. Used
// by ParseOptionAck (the OACK is authoritative) and by the client when a
// reply carries no options (session proceeds with all defaults).
func (r *Request) ResetOptions() {
	for _, o := range r.Options {
		o.reset()
	}
}

// RequestOption enables an option at a client-chosen value before the
// request is forged. Values are clamped to the option's bounds immediately,
// matching how the wire codec would clamp them on the way back.
func (r *Request) RequestOption(name OptionName, value int64) {
	o := r.Option(name)
	if o == nil {
		return
	}

	o.Value = value
	o.clamp()
	o.Enabled = true
}

// Blksize returns the negotiated block size, defaulting to 512 if blksize
// was never enabled.
func (r *Request) Blksize() int {
	return int(r.Option(OptBlksize).Value)
}

// Windowsize returns the negotiated window size, defaulting to 1.
func (r *Request) Windowsize() int {
	return int(r.Option(OptWindowsize).Value)
}
