// Package pool provides sync.Pool wrappers for reducing GC pressure.
package pool

import "sync"

// PathBuilder builds dotted element paths over a reusable byte buffer.
// Acquire one from the pool and Release it when done.
type PathBuilder struct {
	buf []byte
}

var pathBuilderPool = sync.Pool{
	New: func() any {
		return &PathBuilder{
			buf: make([]byte, 0, 256),
		}
	},
}

// AcquirePathBuilder gets a PathBuilder from the pool.
// Call Release() when done to return it to the pool.
func AcquirePathBuilder() *PathBuilder {
	pb := pathBuilderPool.Get().(*PathBuilder)
	pb.Reset()
	return pb
}

// Release returns the PathBuilder to the pool. Oversized buffers are not
// returned.
func (b *PathBuilder) Release() {
	if b == nil {
		return
	}
	if cap(b.buf) <= 4096 {
		pathBuilderPool.Put(b)
	}
}

// Reset clears the buffer without deallocating.
func (b *PathBuilder) Reset() {
	b.buf = b.buf[:0]
}

// Len returns the current length of the path.
func (b *PathBuilder) Len() int {
	return len(b.buf)
}

// WriteString appends a string to the path.
func (b *PathBuilder) WriteString(s string) {
	b.buf = append(b.buf, s...)
}

// AppendSegment appends a path segment with a leading dot when the buffer
// is not empty.
func (b *PathBuilder) AppendSegment(part string) {
	if len(b.buf) > 0 {
		b.buf = append(b.buf, '.')
	}
	b.buf = append(b.buf, part...)
}

// Join builds a dotted path from parts in one call.
func (b *PathBuilder) Join(parts ...string) string {
	for _, part := range parts {
		if part == "" {
			continue
		}
		b.AppendSegment(part)
	}
	return b.String()
}

// String returns the built path as a string.
func (b *PathBuilder) String() string {
	return string(b.buf)
}
