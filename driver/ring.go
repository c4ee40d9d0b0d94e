package driver

import (
	"sync/atomic"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// Timed is an output message at an absolute engine sample
type Timed struct {
	Sample  int64
	Message gomidi.Message
}

// Ring is a lock-free single producer, single consumer queue. The producer
// is the real-time thread, so Push never waits: a full ring drops the
// message and counts it.
type Ring struct {
	items       []Timed
	mask        uint32
	read, write atomic.Uint32
	overflow    atomic.Uint64
}

// NewRing creates a ring. size must be a power of 2.
func NewRing(size int) *Ring {
	if size <= 0 || size&(size-1) != 0 {
		panic("ring size must be a power of 2")
	}
	return &Ring{items: make([]Timed, size), mask: uint32(size - 1)}
}

// Push appends t, reporting false if the ring was full
func (r *Ring) Push(t Timed) bool {
	write := r.write.Load()
	if write-r.read.Load() == uint32(len(r.items)) {
		r.overflow.Add(1)
		return false
	}
	r.items[write&r.mask] = t
	r.write.Store(write + 1)
	return true
}

// Iter consumes messages due before until in order. A negative until
// consumes everything.
func (r *Ring) Iter(until int64, f func(Timed)) {
	read := r.read.Load()
	write := r.write.Load()
	for read != write {
		t := r.items[read&r.mask]
		if until >= 0 && t.Sample >= until {
			break
		}
		r.items[read&r.mask] = Timed{}
		f(t)
		read++
	}
	r.read.Store(read)
}

// Len is the number of queued messages
func (r *Ring) Len() int {
	return int(r.write.Load() - r.read.Load())
}

// Overflow counts messages dropped by Push
func (r *Ring) Overflow() uint64 {
	return r.overflow.Load()
}
