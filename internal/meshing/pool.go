package meshing

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// WorkerReport is the single message a worker publishes when it finishes.
// Meshes holds every chunk the worker completed, in partition order, even
// when Err is set.
type WorkerReport struct {
	Pass     uuid.UUID
	Index    int
	Range    Range
	Meshes   []ChunkMesh
	Err      error
	Duration time.Duration
}

// worker runs one generator over one partition. It is created for a single
// pass and never reused.
type worker struct {
	index int
	rng   Range
	gen   MeshGenerator
	// reports has capacity one; the worker sends exactly once and never blocks.
	reports chan WorkerReport
	done    atomic.Bool
}

func newWorker(index int, rng Range, gen MeshGenerator) *worker {
	return &worker{
		index:   index,
		rng:     rng,
		gen:     gen,
		reports: make(chan WorkerReport, 1),
	}
}

// run generates the partition and publishes the report. Panics inside the
// generator become ErrWorkerPanic.
func (w *worker) run(ctx context.Context, pass uuid.UUID) {
	start := time.Now()
	rep := WorkerReport{Pass: pass, Index: w.index, Range: w.rng}
	defer func() {
		if r := recover(); r != nil {
			rep.Err = errors.Wrapf(ErrWorkerPanic, "worker %d: %v", w.index, r)
		}
		rep.Duration = time.Since(start)
		w.reports <- rep
	}()
	rep.Meshes, rep.Err = w.gen.Generate(ctx)
}
