package bpool

import (
	"math/bits"
	"sync"
)

// maxBufferLength is the largest buffer size we keep in the pool; anything
// bigger is allocated fresh and dropped on Put rather than pooled.
const maxBufferLength = 65536 // 2^16

// ByteBuffer wraps []byte to avoid allocations when used with sync.Pool.
type ByteBuffer struct {
	B []byte
}

// Write appends p to the buffer, growing it as needed. It never returns an
// error; the signature matches io.Writer so a ByteBuffer can be passed to
// json encoders directly.
func (b *ByteBuffer) Write(p []byte) (int, error) {
	b.B = append(b.B, p...)
	return len(p), nil
}

var bufferPools [17]sync.Pool

// GetByteBuffer returns a ByteBuffer with capacity >= length from the pool.
func GetByteBuffer(length int) *ByteBuffer {
	if length <= 0 {
		length = 16
	}
	if length > maxBufferLength {
		return &ByteBuffer{B: make([]byte, 0, length)}
	}
	idx := nextLogBase2(uint32(length))
	if v := bufferPools[idx].Get(); v != nil {
		buf := v.(*ByteBuffer)
		buf.B = buf.B[:0]
		return buf
	}
	return &ByteBuffer{B: make([]byte, 0, 1<<idx)}
}

// PutByteBuffer returns buf to the pool. Oversized buffers are dropped.
func PutByteBuffer(buf *ByteBuffer) {
	capacity := cap(buf.B)
	if capacity == 0 || capacity > maxBufferLength {
		return
	}
	idx := prevLogBase2(uint32(capacity))
	buf.B = buf.B[:0]
	bufferPools[idx].Put(buf)
}

// nextLogBase2 returns log2(v) rounded up.
func nextLogBase2(v uint32) uint32 {
	if v == 0 {
		return 0
	}
	return uint32(32 - bits.LeadingZeros32(v-1))
}

// prevLogBase2 returns log2(v) rounded down.
func prevLogBase2(v uint32) uint32 {
	if v == 0 {
		return 0
	}
	next := nextLogBase2(v)
	if v == 1<<next {
		return next
	}
	return next - 1
}
