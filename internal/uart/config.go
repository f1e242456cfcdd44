// Package uart drives a UART/LPUART peripheral through a register
// abstraction, with interrupt-fed ring buffers bridging ISR context to
// blocking task-level Read/Write calls via the scheduler.
package uart

// BaudRate is one of the fixed, table-driven baud rates the hardware
// divisor constants below support.
type BaudRate int

const (
	Baud1200 BaudRate = iota
	Baud2400
	Baud4800
	Baud9600
	Baud19200
	Baud38400
	Baud57600
	Baud115200
	// BaudAuto requests hardware auto-baud detection; only valid on
	// peripherals other than LPUART1.
	BaudAuto
)

// WordLength selects the UART frame's data-bit count.
type WordLength int

const (
	Word7N1 WordLength = iota
	Word8N1
	Word9N1
)

// StopBits selects one or two stop bits.
type StopBits int

const (
	OneStopBit StopBits = iota
	TwoStopBits
)

// Parity selects the parity scheme.
type Parity int

const (
	ParityDisabled Parity = iota
	ParityEven
	ParityOdd
)

// BitOrder selects whether the least- or most-significant bit is
// transmitted first.
type BitOrder int

const (
	LSBFirst BitOrder = iota
	MSBFirst
)

// PinSwap swaps the peripheral's TX and RX pins.
type PinSwap int

const (
	PinNormal PinSwap = iota
	PinSwapped
)

// FlowControl enables RTS/CTS hardware flow control.
type FlowControl int

const (
	FlowControlDisabled FlowControl = iota
	FlowControlEnabled
)

// Config describes how to bring up a UART peripheral.
type Config struct {
	BaudRate    BaudRate
	WordLength  WordLength
	StopBits    StopBits
	Parity      Parity
	BitOrder    BitOrder
	PinSwap     PinSwap
	FlowControl FlowControl
}

// RingCapacity is the default size of each peripheral's TX and RX ring
// buffer, matching the original firmware's UART_RINGBUF_SIZE.
const RingCapacity = 80
