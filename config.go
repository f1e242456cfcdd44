package rtos

import "github.com/ehrlich-b/go-rtos/internal/config"

// Re-exported so callers configure the system without importing an
// internal package directly.
type (
	Config      = config.Config
	ExitPolicy  = config.ExitPolicy
	LogSink     = config.LogSink
	Preemption  = config.Preemption
)

const (
	ExitMin  = config.ExitMin
	ExitFull = config.ExitFull

	LogSinkLPUART1  = config.LogSinkLPUART1
	LogSinkSemihost = config.LogSinkSemihost
	LogSinkSWO      = config.LogSinkSWO
	LogSinkDisabled = config.LogSinkDisabled

	PreemptionDisabled = config.PreemptionDisabled
	PreemptionEnabled  = config.PreemptionEnabled
)

// DefaultConfig returns the RTOS core's default configuration.
func DefaultConfig() *Config {
	return config.Default()
}

// LoadConfig reads a YAML file on top of DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	return config.LoadYAML(path)
}
