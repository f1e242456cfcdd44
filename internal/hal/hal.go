// Package hal declares the hardware/platform collaborators the RTOS core
// consumes but does not implement: GPIO pin multiplexing, the clock tree,
// and the vector-table wiring that routes UART interrupts to a common
// dispatcher. These stay out of scope for this module on purpose; they
// are interfaces here so the core can be exercised against fakes (see
// the root package's testing.go) without real silicon.
package hal

// Peripheral identifies a UART/LPUART hardware instance.
type Peripheral int

const (
	LPUART1 Peripheral = iota
	USART1
	USART2
	USART3
)

func (p Peripheral) String() string {
	switch p {
	case LPUART1:
		return "LPUART1"
	case USART1:
		return "USART1"
	case USART2:
		return "USART2"
	case USART3:
		return "USART3"
	default:
		return "unknown peripheral"
	}
}

// Clock reports the current core clock, used to derive the systick
// reload value.
type Clock interface {
	HCLKFreq() uint32
}

// PinConfig is the GPIO configuration a UART pin needs before the
// peripheral can use it: alternate function, direction, drive strength
// and pull. Concrete values are platform-specific and opaque here.
type PinConfig struct {
	AlternateFunction int
	Mode              string
	OutputSpeed       string
	PullUpDown        string
}

// PinConfigurer configures a single GPIO pin. No package in this module
// calls it; pin muxing itself is out of scope.
type PinConfigurer interface {
	ConfigurePin(port string, pin int, cfg PinConfig) error
}

// InterruptController registers the single dispatcher that the platform's
// vector table calls for any UART/LPUART interrupt, passing the
// originating peripheral.
type InterruptController interface {
	SetUARTISR(dispatch func(Peripheral))
}
