// Package config holds the compile-time configuration surface of the RTOS
// core. The original C implementation expresses these as preprocessor
// defines overridable at build time; here they are fields on a struct with
// sensible defaults, optionally loaded from YAML.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ExitPolicy selects the behavior of the syscall facade's _exit.
type ExitPolicy int

const (
	// ExitMin spins forever on exit.
	ExitMin ExitPolicy = iota
	// ExitFull logs the exit code to the configured log sink and halts.
	ExitFull
)

// LogSink names a system log destination. The value is carried in Config
// only: the syscall facade does not read it, and _write on fd 1/2 goes to
// whatever sink was installed with SetLogSink.
type LogSink int

const (
	LogSinkLPUART1 LogSink = iota
	LogSinkSemihost
	LogSinkSWO
	LogSinkDisabled
)

// Preemption toggles tick-driven preemption of the active task.
type Preemption int

const (
	PreemptionDisabled Preemption = iota
	PreemptionEnabled
)

// Config is the full compile-time configuration surface of the RTOS core.
type Config struct {
	// SysExit selects the _exit behavior.
	SysExit ExitPolicy `yaml:"sys_exit"`
	// SysHeapSize bounds the _sbrk allocator; zero disables heap allocation
	// entirely, including task_create calls that need an owned stack.
	SysHeapSize int `yaml:"sys_heap_size"`
	// SysLog names the destination for system log output; nothing in the
	// core selects a sink from it (see LogSink).
	SysLog LogSink `yaml:"sys_log"`
	// SysLogLevel is the minimum level emitted by the log layer.
	SysLogLevel int `yaml:"sys_log_level"`
	// SysLogBufSize sizes the semihost log buffer.
	SysLogBufSize int `yaml:"sys_log_buf_size"`
	// SysUsePreemption toggles tick-driven preemption.
	SysUsePreemption Preemption `yaml:"sys_use_preemption"`
	// RTOSPriorityCount is the number of distinct task priority levels.
	RTOSPriorityCount int `yaml:"rtos_priority_count"`
	// DefaultStackSize is used by task_create when no stack size is given.
	DefaultStackSize int `yaml:"default_stack_size"`
	// DefaultPriority is used by task_create when no config is given.
	DefaultPriority int `yaml:"default_priority"`
	// IdleTaskPriority is the priority level the idle task runs at.
	IdleTaskPriority int `yaml:"idle_task_priority"`
	// IdleTaskStackSize sizes the idle task's dedicated stack.
	IdleTaskStackSize int `yaml:"idle_task_stack_size"`
	// SystickFreq is the target systick rate in Hz (default ~5ms period).
	SystickFreq int `yaml:"systick_freq"`
	// SystickDivider is the HCLK divider feeding the systick counter.
	SystickDivider int `yaml:"systick_divider"`
}

const (
	defaultSysHeapSize       = 16384
	defaultLogBufSize        = 512
	defaultPriorityCount     = 8
	defaultStackSize         = 2048
	defaultPriority          = 2
	defaultIdleTaskPriority  = 0
	defaultIdleTaskStackSize = 512
	defaultSystickFreq       = 200 // 5ms period
	defaultSystickDivider    = 8
)

// Default returns the RTOS core's default configuration, matching the
// values config.h carries for an un-overridden build.
func Default() *Config {
	return &Config{
		SysExit:           ExitMin,
		SysHeapSize:       defaultSysHeapSize,
		SysLog:            LogSinkSWO,
		SysLogLevel:       0,
		SysLogBufSize:     defaultLogBufSize,
		SysUsePreemption:  PreemptionEnabled,
		RTOSPriorityCount: defaultPriorityCount,
		DefaultStackSize:  defaultStackSize,
		DefaultPriority:   defaultPriority,
		IdleTaskPriority:  defaultIdleTaskPriority,
		IdleTaskStackSize: defaultIdleTaskStackSize,
		SystickFreq:       defaultSystickFreq,
		SystickDivider:    defaultSystickDivider,
	}
}

// LoadYAML reads a YAML file on top of Default(), letting a host
// application override the compile-time constants without recompiling.
func LoadYAML(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SystickReload computes the systick reload value from the core clock,
// mirroring enable_systick's `(hclk_freq() >> 3) / SYSTICK_FREQ` math for
// an arbitrary divider. Returns an error if the 24-bit reload field would
// overflow.
func (c *Config) SystickReload(hclkHz uint32) (uint32, error) {
	const reloadMask = 0x00FFFFFF // SysTick_LOAD_RELOAD_Msk
	divided := hclkHz / uint32(c.SystickDivider)
	reload := divided / uint32(c.SystickFreq)
	if reload == 0 || reload > reloadMask {
		return 0, errOversizedReload
	}
	return reload - 1, nil
}
