package sim

import "sync"

// RowPool recycles density row buffers of a fixed grid length.
type RowPool struct {
	pool sync.Pool
	size int
}

func NewRowPool(size int) *RowPool {
	return &RowPool{
		size: size,
		pool: sync.Pool{
			New: func() interface{} {
				return make([]float64, size)
			},
		},
	}
}

func (p *RowPool) Size() int { return p.size }

// Get returns a zeroed row.
func (p *RowPool) Get() []float64 {
	return p.pool.Get().([]float64)
}

func (p *RowPool) Put(row []float64) {
	if len(row) == p.size {
		for i := range row {
			row[i] = 0
		}
		p.pool.Put(row)
	}
}
