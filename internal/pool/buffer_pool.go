// Package pool provides reusable scratch buffers for text processing.
package pool

import "sync"

// BufferPool implements a pool of byte slices for efficient memory reuse.
type BufferPool struct {
	pool    sync.Pool
	maxSize int
}

// NewBufferPool creates a pool whose buffers start with the given capacity.
// Buffers that grew beyond four times that capacity are not returned to the pool.
func NewBufferPool(size int) *BufferPool {
	if size <= 0 {
		size = 256
	}
	return &BufferPool{
		pool: sync.Pool{
			New: func() interface{} {
				buffer := make([]byte, 0, size)
				return &buffer
			},
		},
		maxSize: 4 * size,
	}
}

// Get retrieves an empty buffer from the pool.
func (bp *BufferPool) Get() *[]byte {
	return bp.pool.Get().(*[]byte)
}

// Put returns a buffer to the pool for reuse.
func (bp *BufferPool) Put(buffer *[]byte) {
	if buffer == nil || cap(*buffer) > bp.maxSize {
		return
	}
	*buffer = (*buffer)[:0]
	bp.pool.Put(buffer)
}
