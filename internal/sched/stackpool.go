package sched

import "sync"

// Stack sizes pooled by the scheduler's heap allocator, chosen to cover
// the common task stack sizes (default, and the next two power-of-two
// steps up for tasks that do heavier work). Bucketed by size with
// pointer-to-slice pool values to dodge the extra allocation a
// sync.Pool of bare []byte would box on every Put.
const (
	stackBucket2k = 2048
	stackBucket4k = 4096
	stackBucket8k = 8192
)

var stackPool = struct {
	pool2k sync.Pool
	pool4k sync.Pool
	pool8k sync.Pool
}{
	pool2k: sync.Pool{New: func() any { b := make([]byte, stackBucket2k); return &b }},
	pool4k: sync.Pool{New: func() any { b := make([]byte, stackBucket4k); return &b }},
	pool8k: sync.Pool{New: func() any { b := make([]byte, stackBucket8k); return &b }},
}

// getStack returns a zeroed stack region of at least size bytes and the
// bucket it came from (0 if size exceeded the largest bucket and a
// one-off slice was allocated instead, in which case it is never pooled).
func getStack(size int) (stack []byte, bucket int) {
	switch {
	case size <= stackBucket2k:
		b := stackPool.pool2k.Get().(*[]byte)
		clear(*b)
		return (*b)[:size], stackBucket2k
	case size <= stackBucket4k:
		b := stackPool.pool4k.Get().(*[]byte)
		clear(*b)
		return (*b)[:size], stackBucket4k
	case size <= stackBucket8k:
		b := stackPool.pool8k.Get().(*[]byte)
		clear(*b)
		return (*b)[:size], stackBucket8k
	default:
		return make([]byte, size), 0
	}
}

// putStack returns a pooled stack region for reuse by a future task_create.
func putStack(stack []byte, bucket int) {
	if bucket == 0 {
		return
	}
	full := stack[:cap(stack)]
	switch bucket {
	case stackBucket2k:
		stackPool.pool2k.Put(&full)
	case stackBucket4k:
		stackPool.pool4k.Put(&full)
	case stackBucket8k:
		stackPool.pool8k.Put(&full)
	}
}
