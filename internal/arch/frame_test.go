package arch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrapRoundTrip(t *testing.T) {
	const entry, arg, trampoline = 0x08001234, 0xDEADBEEF, 0x08005678

	stack := make([]byte, 256)
	sp, frame := BootstrapStack(stack, 256, entry, arg, trampoline)

	require.GreaterOrEqual(t, sp, 0)
	assert.Equal(t, 0, sp%4, "stack pointer must stay word-aligned")
	assert.Equal(t, uint32(entry), frame.Entry)
	assert.Equal(t, uint32(arg), frame.Arg)
	assert.Equal(t, uint32(trampoline), frame.Trampoline)

	pc, a0, lr := RestoreFrame(stack, sp)
	assert.Equal(t, uint32(entry), pc)
	assert.Equal(t, uint32(arg), a0)
	assert.Equal(t, uint32(trampoline), lr)
}

func TestBootstrapStackDiscardsMisalignment(t *testing.T) {
	stack := make([]byte, 256)
	sp, _ := BootstrapStack(stack, 253, 1, 2, 3) // top not word-aligned
	assert.Equal(t, 0, sp%4)
}

func TestBootstrapFrameSentinelRegisters(t *testing.T) {
	f := BootstrapFrame(1, 2, 3)
	assert.Equal(t, uint32(InitialPSR), f.PSR)
	assert.Equal(t, uint32(InitialExecReturn), f.ExecReturn)
	assert.NotZero(t, f.R4)
	assert.NotZero(t, f.R11)
}

func TestWordsLength(t *testing.T) {
	f := BootstrapFrame(1, 2, 3)
	assert.Len(t, f.Words(), WordCount)
}
