package uart

import "github.com/ehrlich-b/go-rtos/internal/hal"

// Registers is the hardware register surface a peripheral driver needs.
// SetBaudDivisor is passed the raw BRR-style divisor looked up from the
// tables below, not the symbolic BaudRate, so this interface stays free of
// the hardware-clock-specific constant tables.
type Registers interface {
	EnableClock()
	DisableClock()

	SetWordLength(WordLength) error
	SetStopBits(StopBits)
	SetParity(Parity)
	SetPinSwap(PinSwap)
	SetBitOrder(BitOrder)
	SetFlowControl(FlowControl)
	SetBaudDivisor(divisor uint32)
	SetAutoBaud(enabled bool)

	Enable()
	Disable()
	EnableTransmitter()
	EnableReceiver()
	SetTXEmptyInterrupt(enabled bool)
	SetRXNotEmptyInterrupt(enabled bool)

	// Pending reports which interrupt condition (if any) is currently
	// latched: (rxNotEmpty, txEmpty).
	Pending() (rxNotEmpty, txEmpty bool)
	ReadData() byte
	WriteData(byte)
}

// lpuart1BaudDivisors holds BRR values for LPUART1, which runs a
// 256*fck/LPUARTDIV scheme and so cannot represent low baud rates without
// switching its clock source - hence the low-baud rejection in Open.
var lpuart1BaudDivisors = map[BaudRate]uint32{
	Baud38400:  0x82355,
	Baud57600:  0x56CE3,
	Baud115200: 0x2B671,
}

// standardBaudDivisors holds BRR values for USARTx peripherals at an 80MHz
// peripheral clock, 16x oversampling. BaudAuto seeds a starter value
// (115200) before auto-baud detection takes over.
var standardBaudDivisors = map[BaudRate]uint32{
	BaudAuto:   0x2B6,
	Baud1200:   0x1046B,
	Baud2400:   0x8236,
	Baud4800:   0x411B,
	Baud9600:   0x208E,
	Baud19200:  0x1047,
	Baud38400:  0x824,
	Baud57600:  0x56D,
	Baud115200: 0x2B6,
}

// baudDivisor looks up the BRR divisor for a (peripheral, rate) pair.
// LPUART1 rejects anything below 38400 baud outright, reflecting its
// restricted BRR range at the default clock source.
func baudDivisor(p hal.Peripheral, rate BaudRate) (uint32, error) {
	if p == hal.LPUART1 {
		if rate < Baud38400 {
			return 0, ErrUnsupportedBaud
		}
		d, ok := lpuart1BaudDivisors[rate]
		if !ok {
			return 0, ErrBadParam
		}
		return d, nil
	}
	d, ok := standardBaudDivisors[rate]
	if !ok {
		return 0, ErrBadParam
	}
	return d, nil
}
