package rtos

import (
	"sync"

	"github.com/ehrlich-b/go-rtos/internal/hal"
	"github.com/ehrlich-b/go-rtos/internal/uart"
)

// FakeClock is a Clock double with a settable frequency, for exercising
// EnableSystick without a real core clock tree.
type FakeClock struct {
	HZ uint32
}

// HCLKFreq implements hal.Clock.
func (c FakeClock) HCLKFreq() uint32 { return c.HZ }

// FakePinConfigurer records every pin configuration request instead of
// touching real GPIO registers.
type FakePinConfigurer struct {
	mu         sync.Mutex
	Configured []FakePinConfig
}

// FakePinConfig is one recorded ConfigurePin call.
type FakePinConfig struct {
	Port string
	Pin  int
	Cfg  hal.PinConfig
}

// ConfigurePin implements hal.PinConfigurer.
func (p *FakePinConfigurer) ConfigurePin(port string, pin int, cfg hal.PinConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Configured = append(p.Configured, FakePinConfig{Port: port, Pin: pin, Cfg: cfg})
	return nil
}

// FakeRegisters is an in-memory USART/LPUART register block: enough state
// to drive a Driver through Open/Write/Read/Close and to inject RX bytes
// or loop TX back to RX, without real silicon. Safe for concurrent use;
// the ISR-side Dispatch call and task-side Write/Read calls run on
// different goroutines in an honest exercise of this.
type FakeRegisters struct {
	mu sync.Mutex

	wordLength  uart.WordLength
	baudDivisor uint32
	enabled     bool
	txEnabled   bool
	rxEnabled   bool
	txInterrupt bool
	rxInterrupt bool
	pendingRX   bool
	pendingTX   bool
	rxData      byte

	// TXData accumulates every byte WriteData has shifted out, in order.
	TXData []byte

	// Loopback, when true, feeds every transmitted byte straight back
	// onto the RX side instead of only appending to TXData.
	Loopback bool
}

// NewFakeRegisters creates a register block with nothing pending.
func NewFakeRegisters() *FakeRegisters { return &FakeRegisters{} }

func (f *FakeRegisters) EnableClock()  {}
func (f *FakeRegisters) DisableClock() {}

func (f *FakeRegisters) SetWordLength(w uart.WordLength) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wordLength = w
	return nil
}
func (f *FakeRegisters) SetStopBits(uart.StopBits)       {}
func (f *FakeRegisters) SetParity(uart.Parity)           {}
func (f *FakeRegisters) SetPinSwap(uart.PinSwap)         {}
func (f *FakeRegisters) SetBitOrder(uart.BitOrder)       {}
func (f *FakeRegisters) SetFlowControl(uart.FlowControl) {}

func (f *FakeRegisters) SetBaudDivisor(d uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.baudDivisor = d
}
func (f *FakeRegisters) SetAutoBaud(bool) {}

func (f *FakeRegisters) Enable()            { f.setFlag(&f.enabled, true) }
func (f *FakeRegisters) Disable()           { f.setFlag(&f.enabled, false) }
func (f *FakeRegisters) EnableTransmitter() { f.setFlag(&f.txEnabled, true) }
func (f *FakeRegisters) EnableReceiver()    { f.setFlag(&f.rxEnabled, true) }

func (f *FakeRegisters) SetTXEmptyInterrupt(e bool)    { f.setFlag(&f.txInterrupt, e) }
func (f *FakeRegisters) SetRXNotEmptyInterrupt(e bool) { f.setFlag(&f.rxInterrupt, e) }

func (f *FakeRegisters) setFlag(flag *bool, v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	*flag = v
}

// Pending implements Registers.
func (f *FakeRegisters) Pending() (rxNotEmpty, txEmpty bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pendingRX, f.pendingTX && f.txInterrupt
}

// ReadData implements Registers.
func (f *FakeRegisters) ReadData() byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pendingRX = false
	return f.rxData
}

// WriteData implements Registers.
func (f *FakeRegisters) WriteData(b byte) {
	f.mu.Lock()
	f.TXData = append(f.TXData, b)
	f.pendingTX = false
	loop := f.Loopback
	f.mu.Unlock()
	if loop {
		f.DeliverRX(b)
	}
}

// DeliverRX marks a byte as received and ready for the next Dispatch.
func (f *FakeRegisters) DeliverRX(b byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rxData = b
	f.pendingRX = true
}

// DriveTX marks the transmit-empty condition as pending for the next
// Dispatch, simulating the shift register becoming free again.
func (f *FakeRegisters) DriveTX() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pendingTX = true
}

// FakeLogSink is a LogSink that appends every write to an in-memory
// buffer instead of touching a real UART or semihosting channel.
type FakeLogSink struct {
	mu  sync.Mutex
	buf []byte
}

// WriteLog implements syscalls.LogSink.
func (s *FakeLogSink) WriteLog(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = append(s.buf, p...)
	return len(p), nil
}

// String returns everything written so far.
func (s *FakeLogSink) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.buf)
}
