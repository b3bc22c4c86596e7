package tftp

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RFC 7440 cumulative ACK: WRQ, blksize=1024/windowsize=4, 4097-byte file
// -> blocks 1-4 full in round one (cumulative ACK(4)), block 5 carries the
// trailing byte in round two (ACK(5)).
func TestRunReceiverAccumulatesFullWindow(t *testing.T) {
	full := bytes.Repeat([]byte{0x7A}, 1024)

	sock := &fakeSocket{steps: []step{
		{data: ForgeData(1, full)},
		{data: ForgeData(2, full)},
		{data: ForgeData(3, full)},
		{data: ForgeData(4, full)},
		{data: ForgeData(5, []byte{0x01})},
	}}

	var out bytes.Buffer

	req := newTestRequest(1024, 4)
	err := RunReceiver(sock, &out, req, nil)
	require.NoError(t, err)

	require.Len(t, sock.writes, 2)

	block1, err1 := ParseAck(sock.writes[0])
	require.NoError(t, err1)
	assert.Equal(t, uint16(4), block1)

	block2, err2 := ParseAck(sock.writes[1])
	require.NoError(t, err2)
	assert.Equal(t, uint16(5), block2)

	assert.Equal(t, 4097, out.Len())
}

// DATA blocks arrive in order 1,3,2 within one window; block 3 is dropped
// but still consumes a window slot, block 2 is then accepted and a single
// ACK(2) is sent.
func TestRunReceiverDropsOutOfOrderBlockButConsumesSlot(t *testing.T) {
	sock := &fakeSocket{steps: []step{
		{data: ForgeData(1, []byte("aaaaaaaa"))}, // full block, in order
		{data: ForgeData(3, []byte("cccccccc"))}, // out of order, dropped
		{data: ForgeData(2, []byte("bb"))},       // short block, ends transfer
	}}

	var out bytes.Buffer

	req := newTestRequest(8, 3)
	err := RunReceiver(sock, &out, req, nil)
	require.NoError(t, err)

	// The short final block (2 bytes < blksize) ends the transfer, but only
	// after the window loop has consumed all three scripted reads: the
	// dropped block still occupies a window slot.
	require.Equal(t, 3, sock.pos)
	require.Len(t, sock.writes, 1)

	block, ackErr := ParseAck(sock.writes[0])
	require.NoError(t, ackErr)
	assert.Equal(t, uint16(2), block)

	assert.Equal(t, "aaaaaaaabb", out.String())
}

func TestRunReceiverAbortsOnPeerError(t *testing.T) {
	sock := &fakeSocket{steps: []step{
		{data: ForgeError(WireDiskFull, "disk full")},
	}}

	var out bytes.Buffer

	req := newTestRequest(512, 1)
	err := RunReceiver(sock, &out, req, nil)
	require.Error(t, err)
	assert.True(t, IsPeerError(err))
}

func TestRunReceiverRetryExceededEmitsError(t *testing.T) {
	sock := &fakeSocket{}
	for i := 0; i <= MaxRetry; i++ {
		sock.steps = append(sock.steps, step{err: errors.New("i/o timeout")})
	}

	var out bytes.Buffer

	req := newTestRequest(512, 1)
	err := RunReceiver(sock, &out, req, nil)
	require.Error(t, err)

	tftpErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, KindRetryExceeded, tftpErr.Kind)

	require.Len(t, sock.writes, 1)
	code, msg, perr := ParseError(sock.writes[0])
	require.NoError(t, perr)
	assert.Equal(t, WireUndefined, code)
	assert.Equal(t, "Retry exceeded", msg)
}

func TestRunReceiverConsumesPrefetchedFirstPacket(t *testing.T) {
	sock := &fakeSocket{}

	var out bytes.Buffer

	req := newTestRequest(512, 1)
	prefetched := ForgeData(1, []byte("hi"))

	err := RunReceiver(sock, &out, req, prefetched)
	require.NoError(t, err)

	require.Len(t, sock.writes, 1)
	block, ackErr := ParseAck(sock.writes[0])
	require.NoError(t, ackErr)
	assert.Equal(t, uint16(1), block)
	assert.Equal(t, "hi", out.String())
}
