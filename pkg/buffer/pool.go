// Package buffer provides size-classed scratch buffers for record
// serialization. State records are encoded into a pooled scratch slice and
// copied into the owning account, so encoding allocates nothing in steady
// state.
package buffer

import (
	"sync"
)

// Pool hands out byte slices from power-of-two size classes. Slices above
// the largest class are allocated directly and never pooled.
type Pool struct {
	classes map[int]*sync.Pool
}

// maxPooled is the largest size class. State records are well under 4 KiB;
// anything bigger is an outlier not worth retaining.
const maxPooled = 4 * 1024

var globalPool = NewPool()

// NewPool creates a pool with classes from 64 bytes up to maxPooled.
func NewPool() *Pool {
	p := &Pool{classes: make(map[int]*sync.Pool)}
	for size := 64; size <= maxPooled; size *= 4 {
		class := size
		p.classes[size] = &sync.Pool{
			New: func() any {
				buf := make([]byte, class)
				return &buf
			},
		}
	}
	return p
}

// Get returns a zeroed slice of exactly size bytes.
func (p *Pool) Get(size int) []byte {
	if size <= 0 {
		return nil
	}
	class := sizeClass(size)
	pool, ok := p.classes[class]
	if !ok {
		return make([]byte, size)
	}
	buf := *pool.Get().(*[]byte)
	return buf[:size]
}

// Put returns a slice obtained from Get. The slice is zeroed before reuse
// so a stale record can never leak into a fresh encode.
func (p *Pool) Put(buf []byte) {
	pool, ok := p.classes[cap(buf)]
	if !ok {
		return
	}
	buf = buf[:cap(buf)]
	for i := range buf {
		buf[i] = 0
	}
	pool.Put(&buf)
}

// sizeClass rounds size up to the next class boundary.
func sizeClass(n int) int {
	c := 64
	for c < n && c <= maxPooled {
		c *= 4
	}
	return c
}

// Get returns a zeroed scratch slice from the shared pool.
func Get(size int) []byte { return globalPool.Get(size) }

// Put returns a scratch slice to the shared pool.
func Put(buf []byte) { globalPool.Put(buf) }
