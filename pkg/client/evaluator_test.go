package client

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConnector struct {
	connectAddr    string
	gotFile        string
	putFile        string
	timeoutSeconds uint
	blksize        int64
	windowsize     int64
	trace          bool
	failGet        error
}

func (f *fakeConnector) Connect(addr string) error {
	f.connectAddr = addr

	return nil
}

func (f *fakeConnector) Get(filename string) error {
	f.gotFile = filename

	return f.failGet
}

func (f *fakeConnector) Put(filename string) error {
	f.putFile = filename

	return nil
}

func (f *fakeConnector) SetTimeout(seconds uint)  { f.timeoutSeconds = seconds }
func (f *fakeConnector) SetBlockSize(size int64)  { f.blksize = size }
func (f *fakeConnector) SetWindowSize(size int64) { f.windowsize = size }
func (f *fakeConnector) SetTrace(trace bool)      { f.trace = trace }
func (f *fakeConnector) Close() error             { return nil }

func evalLine(t *testing.T, fc *fakeConnector, line string) (bool, error) {
	t.Helper()

	e := NewEvaluator(nil, fc)
	e.line = line

	return e.evaluate()
}

func TestEvaluatorConnect(t *testing.T) {
	fc := &fakeConnector{}
	done, err := evalLine(t, fc, "connect example.org 6969")
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, "example.org:6969", fc.connectAddr)
}

func TestEvaluatorGet(t *testing.T) {
	fc := &fakeConnector{}
	_, err := evalLine(t, fc, "get report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", fc.gotFile)
}

func TestEvaluatorGetPropagatesError(t *testing.T) {
	fc := &fakeConnector{failGet: errors.New("boom")}
	_, err := evalLine(t, fc, "get report.pdf")
	require.Error(t, err)
}

func TestEvaluatorPut(t *testing.T) {
	fc := &fakeConnector{}
	_, err := evalLine(t, fc, "put report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", fc.putFile)
}

func TestEvaluatorTimeout(t *testing.T) {
	fc := &fakeConnector{}
	_, err := evalLine(t, fc, "timeout 10")
	require.NoError(t, err)
	assert.Equal(t, uint(10), fc.timeoutSeconds)
}

func TestEvaluatorBlksize(t *testing.T) {
	fc := &fakeConnector{}
	_, err := evalLine(t, fc, "blksize 4096")
	require.NoError(t, err)
	assert.EqualValues(t, 4096, fc.blksize)
}

func TestEvaluatorWindowsize(t *testing.T) {
	fc := &fakeConnector{}
	_, err := evalLine(t, fc, "windowsize 8")
	require.NoError(t, err)
	assert.EqualValues(t, 8, fc.windowsize)
}

func TestEvaluatorTraceToggles(t *testing.T) {
	fc := &fakeConnector{}
	e := NewEvaluator(nil, fc)

	e.line = "trace"
	_, err := e.evaluate()
	require.NoError(t, err)
	assert.True(t, fc.trace)

	e.line = "trace"
	_, err = e.evaluate()
	require.NoError(t, err)
	assert.False(t, fc.trace)
}

func TestEvaluatorQuit(t *testing.T) {
	fc := &fakeConnector{}
	done, err := evalLine(t, fc, "quit")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestEvaluatorUnknownCommand(t *testing.T) {
	fc := &fakeConnector{}
	_, err := evalLine(t, fc, "frobnicate")
	require.Error(t, err)
}
