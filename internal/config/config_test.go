package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := Default()
	assert.Equal(t, ExitMin, c.SysExit)
	assert.Equal(t, defaultSysHeapSize, c.SysHeapSize)
	assert.Equal(t, PreemptionEnabled, c.SysUsePreemption)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rtos.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sys_heap_size: 0\nrtos_priority_count: 4\n"), 0o644))

	c, err := LoadYAML(path)
	require.NoError(t, err)
	assert.Equal(t, 0, c.SysHeapSize)
	assert.Equal(t, 4, c.RTOSPriorityCount)
	// Untouched fields keep their defaults.
	assert.Equal(t, defaultStackSize, c.DefaultStackSize)
}

func TestSystickReload(t *testing.T) {
	c := Default()
	c.SystickFreq = 200 // 5ms @ divider 8
	reload, err := c.SystickReload(80_000_000)
	require.NoError(t, err)
	// (80MHz >> 3) / 200 - 1 == 49999
	assert.Equal(t, uint32(49999), reload)
}

func TestSystickReloadOverflow(t *testing.T) {
	c := Default()
	c.SystickDivider = 1
	c.SystickFreq = 1
	_, err := c.SystickReload(0xFFFFFFFF)
	assert.Error(t, err)
}
