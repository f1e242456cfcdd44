package uart

import (
	"sync"

	"github.com/ehrlich-b/go-rtos/internal/hal"
	"github.com/ehrlich-b/go-rtos/internal/ringbuf"
	"github.com/ehrlich-b/go-rtos/internal/sched"
)

// Block reasons a task can be parked on while waiting on a UART ring. Both
// values are shared across every peripheral; a task only ever waits on one
// ring at a time, so reusing the pair is safe (see the original's single
// ISR dispatcher reasoning).
const (
	ReasonTXFull  = sched.ReasonUserBase
	ReasonRXEmpty = sched.ReasonUserBase + 1
)

// Observer receives UART driver events for metrics collection. A nil
// Observer is valid.
type Observer interface {
	RecordUARTTransmit(n int)
	RecordUARTReceive(n int)
	RecordUARTOverflow()
	RecordUARTFramingError()
}

// Driver is one open UART/LPUART peripheral: its register access, its two
// ring buffers, and the task (if any) blocked on each.
type Driver struct {
	mu       sync.Mutex
	regs     Registers
	sched    *sched.Scheduler
	obs      Observer
	periph   hal.Peripheral
	cfg      Config
	open     bool
	tx, rx   *ringbuf.Ring
	txWaiter sched.Handle
	rxWaiter sched.Handle
}

// Table owns at most one open Driver per peripheral, mirroring the
// original's static UARTS[NUM_UARTS] array and its open/InUse check.
type Table struct {
	mu      sync.Mutex
	drivers map[hal.Peripheral]*Driver
	sched   *sched.Scheduler
	obs     Observer
}

// NewTable creates an empty peripheral table bound to a scheduler.
func NewTable(s *sched.Scheduler, obs Observer) *Table {
	return &Table{drivers: make(map[hal.Peripheral]*Driver), sched: s, obs: obs}
}

// Open configures and enables a UART/LPUART peripheral for read/write
// access. Rejects an already-open peripheral, an unsupported low baud rate
// on LPUART1, and any other invalid configuration value.
func (t *Table) Open(p hal.Peripheral, cfg Config, regs Registers) (*Driver, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.drivers[p]; ok && existing.isOpen() {
		return nil, ErrInUse
	}

	divisor, err := baudDivisor(p, cfg.BaudRate)
	if err != nil {
		return nil, err
	}
	if cfg.WordLength < Word7N1 || cfg.WordLength > Word9N1 ||
		cfg.StopBits < OneStopBit || cfg.StopBits > TwoStopBits ||
		cfg.Parity < ParityDisabled || cfg.Parity > ParityOdd ||
		cfg.BitOrder < LSBFirst || cfg.BitOrder > MSBFirst ||
		cfg.PinSwap < PinNormal || cfg.PinSwap > PinSwapped ||
		cfg.FlowControl < FlowControlDisabled || cfg.FlowControl > FlowControlEnabled {
		return nil, ErrBadParam
	}

	regs.EnableClock()
	if err := regs.SetWordLength(cfg.WordLength); err != nil {
		return nil, err
	}
	regs.SetStopBits(cfg.StopBits)
	regs.SetParity(cfg.Parity)
	regs.SetPinSwap(cfg.PinSwap)
	regs.SetBitOrder(cfg.BitOrder)
	regs.SetFlowControl(cfg.FlowControl)
	regs.SetBaudDivisor(divisor)

	d := &Driver{
		regs:   regs,
		sched:  t.sched,
		obs:    t.obs,
		periph: p,
		cfg:    cfg,
		open:   true,
		tx:     ringbuf.New(RingCapacity),
		rx:     ringbuf.New(RingCapacity),
	}

	regs.Enable()
	regs.SetAutoBaud(cfg.BaudRate == BaudAuto)
	regs.EnableTransmitter()
	regs.EnableReceiver()
	regs.SetTXEmptyInterrupt(true)
	regs.SetRXNotEmptyInterrupt(true)

	t.drivers[p] = d
	return d, nil
}

// Dispatch routes a pending interrupt on p to its open driver, mirroring
// the single common UART_interrupt handler the vector table calls into.
// A peripheral with no open driver is a silent no-op.
func (t *Table) Dispatch(p hal.Peripheral) {
	t.mu.Lock()
	d, ok := t.drivers[p]
	t.mu.Unlock()
	if !ok {
		return
	}
	d.handleInterrupt()
}

func (d *Driver) isOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// Write pushes len(p) bytes onto the TX ring, blocking the calling task on
// ReasonTXFull whenever the ring is full, and returns once every byte has
// been queued. The ISR drains the ring and unblocks the writer as space
// reappears; a partial write is only possible as an error return.
func (d *Driver) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		d.mu.Lock()
		if !d.open {
			d.mu.Unlock()
			return written, ErrClosed
		}
		if d.tx.TryPush(p[written]) {
			d.regs.SetTXEmptyInterrupt(true)
			d.mu.Unlock()
			written++
			continue
		}
		self := d.sched.GetActiveTask()
		d.txWaiter = self
		d.mu.Unlock()

		if err := d.sched.BlockActiveTask(ReasonTXFull); err != nil {
			return written, err
		}
	}
	if d.obs != nil {
		d.obs.RecordUARTTransmit(written)
	}
	return written, nil
}

// Read pulls up to len(p) bytes from the RX ring, blocking the calling
// task on ReasonRXEmpty while it is empty, and returns as soon as at least
// one byte is available.
func (d *Driver) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		d.mu.Lock()
		if !d.open {
			d.mu.Unlock()
			return 0, ErrClosed
		}
		n := 0
		for n < len(p) {
			b, ok := d.rx.TryPop()
			if !ok {
				break
			}
			p[n] = b
			n++
		}
		if n > 0 {
			d.mu.Unlock()
			if d.obs != nil {
				d.obs.RecordUARTReceive(n)
			}
			return n, nil
		}
		self := d.sched.GetActiveTask()
		d.rxWaiter = self
		d.mu.Unlock()

		if err := d.sched.BlockActiveTask(ReasonRXEmpty); err != nil {
			return 0, err
		}
	}
}

// Close disables interrupts and the peripheral clock, transitions to
// closed, and discards any buffered data. Tasks still blocked on this
// driver's rings observe ErrClosed the next time they are scheduled.
func (d *Driver) Close() {
	d.mu.Lock()
	if !d.open {
		d.mu.Unlock()
		return
	}
	d.open = false
	d.regs.SetTXEmptyInterrupt(false)
	d.regs.SetRXNotEmptyInterrupt(false)
	d.regs.Disable()
	d.regs.DisableClock()
	d.tx.Reset()
	d.rx.Reset()
	txWaiter, rxWaiter := d.txWaiter, d.rxWaiter
	d.mu.Unlock()

	if txWaiter != 0 {
		d.sched.UnblockTask(txWaiter, ReasonTXFull)
	}
	if rxWaiter != 0 {
		d.sched.UnblockTask(rxWaiter, ReasonRXEmpty)
	}
}

// handleInterrupt is the ISR body for this peripheral: service RX-not-empty
// by enqueueing the received byte (dropping it silently, but observably,
// on overflow), then service TX-empty by draining one byte onto the wire.
func (d *Driver) handleInterrupt() {
	rxReady, txReady := d.regs.Pending()

	if rxReady {
		b := d.regs.ReadData()
		d.mu.Lock()
		if !d.rx.TryPush(b) {
			d.mu.Unlock()
			if d.obs != nil {
				d.obs.RecordUARTOverflow()
			}
		} else {
			waiter := d.rxWaiter
			d.rxWaiter = 0
			d.mu.Unlock()
			if waiter != 0 {
				d.sched.UnblockTask(waiter, ReasonRXEmpty)
			}
		}
	}

	if txReady {
		d.mu.Lock()
		b, ok := d.tx.TryPop()
		if !ok {
			d.regs.SetTXEmptyInterrupt(false)
			d.mu.Unlock()
			return
		}
		d.regs.WriteData(b)
		empty := d.tx.Len() == 0
		waiter := d.txWaiter
		d.txWaiter = 0
		d.mu.Unlock()

		if empty {
			d.regs.SetTXEmptyInterrupt(false)
		}
		if waiter != 0 {
			d.sched.UnblockTask(waiter, ReasonTXFull)
		}
	}
}
