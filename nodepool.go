package suftree

import "sync"
import "sync/atomic"

import "github.com/sirgallo/utils"


//============================================= Node Pool
//
// The construction pass allocates one []int64 child-offset buffer per
// internal node in the input, almost all of them short-lived. Pooled here
// the same way the teacher's NodePool.go pools transient *MariINode/*MariLNode
// structs around the hot build/write path, with an atomic.Int64 tracking
// how many buffers are currently checked out.


type nodePool struct {
	offsets sync.Pool
	size    atomic.Int64
}

func newNodePool() *nodePool {
	return &nodePool{
		offsets: sync.Pool{
			New: func() interface{} { return make([]int64, 0, 8) },
		},
	}
}

// getOffsets returns a zero-length slice with capacity for at least n
// int64s, reused from the pool when possible.
func (p *nodePool) getOffsets(n int) []int64 {
	p.size.Add(1)

	buf := p.offsets.Get().([]int64)
	if cap(buf) < n {
		buf = make([]int64, 0, n)
	}

	return buf[:n]
}

// putOffsets resets and returns a buffer to the pool.
func (p *nodePool) putOffsets(buf []int64) {
	p.size.Add(-1)

	zero := utils.GetZero[int64]()
	for i := range buf { buf[i] = zero }

	p.offsets.Put(buf[:0])
}

// Size reports the number of buffers currently checked out, for diagnostics.
func (p *nodePool) Size() int64 { return p.size.Load() }
