package meshing

import (
	"github.com/pkg/errors"
)

// Tuning controls how many workers a pass uses.
type Tuning struct {
	// ReservedCores are left to the caller's own goroutines.
	ReservedCores int
	// ChunksPerWorker is the smallest share worth a goroutine.
	ChunksPerWorker int
	// MaxWorkers caps the count; 0 means no cap.
	MaxWorkers int
}

// DefaultTuning holds two cores back and gives each worker at
// least 128 chunks.
func DefaultTuning() Tuning {
	return Tuning{ReservedCores: 2, ChunksPerWorker: 128}
}

func (t Tuning) Validate() error {
	if t.ReservedCores < 0 {
		return errors.Errorf("reserved cores %d < 0", t.ReservedCores)
	}
	if t.ChunksPerWorker < 1 {
		return errors.Errorf("chunks per worker %d < 1", t.ChunksPerWorker)
	}
	if t.MaxWorkers < 0 {
		return errors.Errorf("max workers %d < 0", t.MaxWorkers)
	}
	return nil
}

// WorkerCount returns max(1, min(parallelism-ReservedCores, chunks/ChunksPerWorker)),
// capped by MaxWorkers when set.
func WorkerCount(parallelism, chunks int, t Tuning) int {
	per := max(t.ChunksPerWorker, 1)
	n := max(1, min(parallelism-t.ReservedCores, chunks/per))
	if t.MaxWorkers > 0 {
		n = min(n, t.MaxWorkers)
	}
	return n
}

// Range is a half-open interval [Start, End) of chunk list indices.
type Range struct {
	Start, End int
}

func (r Range) Len() int {
	return r.End - r.Start
}

// Partition splits [0,n) into workers contiguous ranges of n/workers chunks.
// The last range absorbs the remainder.
func Partition(n, workers int) []Range {
	workers = max(workers, 1)
	per := n / workers
	out := make([]Range, workers)
	for i := range out {
		out[i] = Range{Start: i * per, End: (i + 1) * per}
	}
	out[workers-1].End = n
	return out
}
