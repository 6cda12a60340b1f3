// Package ring holds the bounded raw-intensity window kept per stream.
package ring

// Buffer is a fixed-capacity FIFO of samples. Once full, each Push evicts
// the oldest sample. It is not safe for concurrent use.
type Buffer struct {
	data  []float64
	start int
	size  int
}

// New returns a Buffer holding at most capacity samples (minimum 1).
func New(capacity int) *Buffer {
	return &Buffer{data: make([]float64, max(capacity, 1))}
}

func (b *Buffer) Push(v float64) {
	if b.size < len(b.data) {
		b.data[(b.start+b.size)%len(b.data)] = v
		b.size++
		return
	}
	b.data[b.start] = v
	b.start = (b.start + 1) % len(b.data)
}

func (b *Buffer) Len() int { return b.size }

func (b *Buffer) Cap() int { return len(b.data) }

// Reset drops every sample but keeps the allocation.
func (b *Buffer) Reset() {
	b.start, b.size = 0, 0
}

// Values returns the samples oldest first, in a new slice.
func (b *Buffer) Values() []float64 {
	out := make([]float64, b.size)
	n := copy(out, b.data[b.start:min(b.start+b.size, len(b.data))])
	copy(out[n:], b.data[:b.size-n])
	return out
}
