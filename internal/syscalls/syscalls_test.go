package syscalls

import (
	"errors"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/ehrlich-b/go-rtos/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu  sync.Mutex
	buf []byte
}

func (s *recordingSink) WriteLog(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = append(s.buf, p...)
	return len(p), nil
}

func TestWriteRejectsNonStdoutStderr(t *testing.T) {
	f := NewFacade(config.Default(), nil)
	_, err := f.Write(3, []byte("x"))
	assert.ErrorIs(t, err, syscall.EBADF)
}

func TestWriteDiscardsWithNoSinkConfigured(t *testing.T) {
	f := NewFacade(config.Default(), nil)
	n, err := f.Write(1, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestWriteDelegatesToConfiguredSink(t *testing.T) {
	f := NewFacade(config.Default(), nil)
	sink := &recordingSink{}
	f.SetLogSink(sink)

	n, err := f.Write(2, []byte("boot"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte("boot"), sink.buf)
}

func TestSbrkDisabledWhenHeapSizeZero(t *testing.T) {
	cfg := config.Default()
	cfg.SysHeapSize = 0
	f := NewFacade(cfg, nil)

	_, err := f.Sbrk(16)
	assert.ErrorIs(t, err, syscall.ENOMEM)
}

func TestSbrkGrowsWithinCeiling(t *testing.T) {
	cfg := config.Default()
	cfg.SysHeapSize = 64
	f := NewFacade(cfg, nil)

	prev, err := f.Sbrk(32)
	require.NoError(t, err)
	assert.Equal(t, 0, prev)

	prev, err = f.Sbrk(32)
	require.NoError(t, err)
	assert.Equal(t, 32, prev)

	_, err = f.Sbrk(1)
	assert.ErrorIs(t, err, syscall.ENOMEM)
}

func TestSbrkRefusesStackCollision(t *testing.T) {
	cfg := config.Default()
	cfg.SysHeapSize = 1024
	f := NewFacade(cfg, nil)
	f.SetLowestStackFloor(100)

	_, err := f.Sbrk(50)
	require.NoError(t, err)

	_, err = f.Sbrk(60)
	assert.ErrorIs(t, err, syscall.ENOMEM)
}

func TestExitFullWritesToSinkThenHalts(t *testing.T) {
	cfg := config.Default()
	cfg.SysExit = config.ExitFull
	f := NewFacade(cfg, nil)
	sink := &recordingSink{}
	f.SetLogSink(sink)

	go f.Exit(42)

	require.Eventually(t, func() bool {
		exited, code := f.Exited()
		return exited && code == 42
	}, 2*time.Second, time.Millisecond)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Contains(t, string(sink.buf), "exit")
}

func TestFstatReportsCharacterDevice(t *testing.T) {
	f := NewFacade(config.Default(), nil)
	st, err := f.Fstat(1)
	require.NoError(t, err)
	assert.True(t, st.ModeCharDevice)
}

func TestIsattyAlwaysTrue(t *testing.T) {
	f := NewFacade(config.Default(), nil)
	assert.Equal(t, 1, f.Isatty(0))
}

func TestGetpidIsAlwaysOne(t *testing.T) {
	f := NewFacade(config.Default(), nil)
	assert.Equal(t, 1, f.Getpid())
}

func TestUnsupportedStubsReturnDocumentedErrors(t *testing.T) {
	f := NewFacade(config.Default(), nil)

	_, err := f.Fork()
	assert.True(t, errors.Is(err, syscall.EAGAIN))

	_, err = f.Wait(nil)
	assert.True(t, errors.Is(err, syscall.ECHILD))

	err = f.Unlink("/x")
	assert.True(t, errors.Is(err, syscall.ENOENT))
}
