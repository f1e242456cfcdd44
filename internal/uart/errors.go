package uart

import "errors"

// Sentinel errors mirroring the original driver's syserr_t values. Kept
// plain here, same as internal/sched, so this package stays free of a
// dependency on the root rtos package.
var (
	ErrBadParam        = errors.New("uart: bad parameter")
	ErrInUse           = errors.New("uart: peripheral already open")
	ErrUnsupportedBaud = errors.New("uart: baud rate unsupported on this peripheral")
	ErrNotOpen         = errors.New("uart: peripheral not open")
	ErrClosed          = errors.New("uart: peripheral closed while blocked")
)
