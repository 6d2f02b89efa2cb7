package pool

import (
	"io"
	"sync"
)

const (
	ColumnBufferDefaultSize   = 1024 * 16       // 16KiB
	ColumnBufferMaxThreshold  = 1024 * 128      // 128KiB
	PayloadBufferDefaultSize  = 1024 * 64       // 64KiB
	PayloadBufferMaxThreshold = 1024 * 1024 * 8 // 8MiB
)

// ByteBuffer is a growable byte slice that can be returned to a ByteBufferPool.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified default size.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset resets the buffer to be empty, but retains the allocated memory for reuse.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the capacity of the buffer.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// Extend grows the buffer length by n bytes and returns the new tail for in-place writes.
func (bb *ByteBuffer) Extend(n int) []byte {
	bb.Grow(n)
	start := len(bb.B)
	bb.B = bb.B[:start+n]

	return bb.B[start:]
}

// Grow grows the buffer to ensure it can hold requiredBytes more bytes without reallocating.
// If the buffer has sufficient capacity, Grow does nothing.
//
// The growth strategy is as follows:
//   - For small buffers, grow by ColumnBufferDefaultSize to minimize reallocations.
//   - For larger buffers, grow by 25% of current capacity to balance memory usage and reallocation cost.
func (bb *ByteBuffer) Grow(requiredBytes int) {
	available := cap(bb.B) - len(bb.B)
	if available >= requiredBytes {
		return
	}

	growBy := ColumnBufferDefaultSize
	if cap(bb.B) > 4*ColumnBufferDefaultSize {
		growBy = cap(bb.B) / 4
	}

	if growBy < requiredBytes {
		growBy = requiredBytes
	}

	newBuf := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// Write appends the contents of data to the buffer, growing it as needed.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)
	return len(data), nil
}

// ReadChunk performs a single Read from r into at most chunk bytes of spare capacity.
//
// It returns the number of bytes appended and the reader's error, including io.EOF.
// Callers loop on ReadChunk to interleave reads with cancellation checks.
func (bb *ByteBuffer) ReadChunk(r io.Reader, chunk int) (int, error) {
	bb.Grow(chunk)
	start := len(bb.B)
	n, err := r.Read(bb.B[start : start+chunk])
	bb.B = bb.B[:start+n]

	return n, err
}

// Detach returns a copy of the buffer content that stays valid after the buffer is pooled.
func (bb *ByteBuffer) Detach() []byte {
	out := make([]byte, len(bb.B))
	copy(out, bb.B)

	return out
}

// ByteBufferPool is a pool of ByteBuffers to minimize allocations.
//
// Buffers whose capacity exceeds maxThreshold are dropped on Put so that a
// single large payload does not pin memory for the life of the process.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a new ByteBufferPool with buffers of the specified default size.
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a ByteBuffer from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool for reuse.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bbp.pool.Put(bb)
}

var (
	columnDefaultPool  = NewByteBufferPool(ColumnBufferDefaultSize, ColumnBufferMaxThreshold)
	payloadDefaultPool = NewByteBufferPool(PayloadBufferDefaultSize, PayloadBufferMaxThreshold)
)

// GetColumnBuffer retrieves a buffer sized for a single encoded column.
func GetColumnBuffer() *ByteBuffer {
	return columnDefaultPool.Get()
}

// PutColumnBuffer returns a column buffer to its pool.
func PutColumnBuffer(bb *ByteBuffer) {
	columnDefaultPool.Put(bb)
}

// GetPayloadBuffer retrieves a buffer sized for a streamed payload.
func GetPayloadBuffer() *ByteBuffer {
	return payloadDefaultPool.Get()
}

// PutPayloadBuffer returns a payload buffer to its pool.
func PutPayloadBuffer(bb *ByteBuffer) {
	payloadDefaultPool.Put(bb)
}
