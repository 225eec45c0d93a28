package meshing

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"voxmesh/internal/profiling"
	"voxmesh/internal/world"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// State is the lifecycle stage of the controller's current pass.
type State int32

const (
	StateIdle State = iota
	StateBoundaryPrecomputed
	StateDispatched
	StateAllDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBoundaryPrecomputed:
		return "boundary-precomputed"
	case StateDispatched:
		return "dispatched"
	case StateAllDone:
		return "all-done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Target receives the mesh of the chunk at WorldPosition. Each target is
// paired with exactly one chunk of a pass, and SetMesh is called once per
// pass from a controller goroutine.
type Target interface {
	WorldPosition() world.Coord
	SetMesh(mesh ChunkMesh)
}

// Option configures a Controller.
type Option func(*Controller)

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

func WithMetrics(m *Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

func WithTuning(t Tuning) Option {
	return func(c *Controller) { c.tuning = t }
}

// WithParallelism overrides runtime.GOMAXPROCS as the core count.
func WithParallelism(n int) Option {
	return func(c *Controller) { c.parallelism = n }
}

// WithMaterials sets the material names, one per non-empty block type.
func WithMaterials(names ...string) Option {
	return func(c *Controller) { c.materials = append([]string(nil), names...) }
}

func WithRecorder(r *profiling.Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// DefaultMaterials names one material per non-empty block type.
func DefaultMaterials() []string {
	names := make([]string, world.NumberOfNonEmptyBlockTypes)
	for i := range names {
		names[i] = world.BlockType(i + 1).String()
	}
	return names
}

// Controller runs mesh generation passes over a map. One pass runs at a time;
// each pass precomputes the boundary cache, partitions the chunk list and
// meshes every partition on its own goroutine.
type Controller struct {
	strategy    Strategy
	logger      *slog.Logger
	metrics     *Metrics
	tuning      Tuning
	parallelism int
	materials   []string
	recorder    *profiling.Recorder

	state   atomic.Int32
	allDone atomic.Bool

	mu      sync.Mutex
	current *pass
	results map[world.Coord]ChunkMesh
	err     error
}

// pass is the per-Start bookkeeping. Fields other than the channels are
// guarded by Controller.mu.
type pass struct {
	id       uuid.UUID
	workers  []*worker
	targets  map[world.Coord]Target
	cancel   context.CancelFunc
	events   chan WorkerReport
	finished chan struct{} // closed after the last report
	failed   chan struct{} // closed on the first failure
	started  time.Time
	log      *slog.Logger
}

// NewController creates an idle controller for strategy.
func NewController(strategy Strategy, opts ...Option) (*Controller, error) {
	if !strategy.Valid() {
		return nil, errors.Wrapf(ErrUnknownStrategy, "strategy %d", int(strategy))
	}
	c := &Controller{
		strategy:    strategy,
		logger:      slog.Default(),
		tuning:      DefaultTuning(),
		parallelism: runtime.GOMAXPROCS(0),
		materials:   DefaultMaterials(),
		results:     make(map[world.Coord]ChunkMesh),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if err := c.tuning.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Controller) Strategy() Strategy { return c.strategy }

// Materials returns the configured material names.
func (c *Controller) Materials() []string {
	return append([]string(nil), c.materials...)
}

// Start validates the inputs, builds the boundary cache and dispatches the
// workers. Configuration and precompute errors are returned before any
// worker starts. chunks[i] and targets are paired by world position.
func (c *Controller) Start(ctx context.Context, m *world.Map, chunks []*world.Chunk, targets []Target) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil && !closed(c.current.finished) {
		return errors.Wrapf(ErrPassInProgress, "pass %s", c.current.id)
	}
	byPos, err := c.validate(m, chunks, targets)
	if err != nil {
		return err
	}

	c.results = make(map[world.Coord]ChunkMesh, len(chunks))
	c.err = nil
	c.allDone.Store(false)
	c.state.Store(int32(StateIdle))

	id := uuid.New()
	log := c.logger.With("pass", id.String(), "strategy", c.strategy.String())

	stop := c.recorder.Track("meshing.Precompute")
	began := time.Now()
	cache, err := BuildBoundaryCache(m)
	stop()
	if err != nil {
		err = errors.Wrap(err, "precompute boundary cache")
		c.abortLocked(id, log, err)
		return err
	}
	c.metrics.observePrecompute(time.Since(began), cache.Len())
	c.state.Store(int32(StateBoundaryPrecomputed))
	log.Debug("boundary cache built", "entries", cache.Len(), "duration", time.Since(began))

	defer c.recorder.Track("meshing.Dispatch")()
	n := WorkerCount(c.parallelism, len(chunks), c.tuning)
	ranges := Partition(len(chunks), n)
	workers := make([]*worker, n)
	for i, r := range ranges {
		sub := append([]*world.Chunk(nil), chunks[r.Start:r.End]...)
		gen, err := NewMeshGenerator(c.strategy, m.Info, sub, cache, i, len(c.materials))
		if err != nil {
			c.abortLocked(id, log, err)
			return err
		}
		workers[i] = newWorker(i, r, gen)
	}

	pctx, cancel := context.WithCancel(ctx)
	p := &pass{
		id:       id,
		workers:  workers,
		targets:  byPos,
		cancel:   cancel,
		events:   make(chan WorkerReport, n),
		finished: make(chan struct{}),
		failed:   make(chan struct{}),
		started:  time.Now(),
		log:      log,
	}
	c.current = p
	c.metrics.setWorkers(n)
	c.state.Store(int32(StateDispatched))

	for _, w := range workers {
		go w.run(pctx, id)
		go c.collect(p, w)
	}
	log.Info("mesh pass dispatched", "workers", n, "chunks", len(chunks))
	return nil
}

// validate checks the pass inputs and indexes the targets by world position.
func (c *Controller) validate(m *world.Map, chunks []*world.Chunk, targets []Target) (map[world.Coord]Target, error) {
	if m == nil {
		return nil, errors.Wrap(ErrIncompleteMap, "nil map")
	}
	if len(c.materials) != world.NumberOfNonEmptyBlockTypes {
		return nil, errors.Wrapf(ErrMaterialMismatch, "%d materials for %d block types",
			len(c.materials), world.NumberOfNonEmptyBlockTypes)
	}
	if len(chunks) != len(targets) {
		return nil, errors.Wrapf(ErrPartitionMismatch, "%d chunks, %d targets", len(chunks), len(targets))
	}
	byPos := make(map[world.Coord]Target, len(targets))
	for i, t := range targets {
		if t == nil {
			return nil, errors.Wrapf(ErrPartitionMismatch, "target %d is nil", i)
		}
		pos := t.WorldPosition()
		if _, dup := byPos[pos]; dup {
			return nil, errors.Wrapf(ErrPartitionMismatch, "two targets at %v", pos)
		}
		byPos[pos] = t
	}
	seen := make(map[world.Coord]bool, len(chunks))
	for i, ch := range chunks {
		if ch == nil {
			return nil, errors.Wrapf(ErrIncompleteMap, "chunk %d is nil", i)
		}
		if seen[ch.WorldPosition] {
			return nil, errors.Wrapf(ErrPartitionMismatch, "chunk at %v listed twice", ch.WorldPosition)
		}
		seen[ch.WorldPosition] = true
		if ch.Size != m.Info.ChunkSize {
			return nil, errors.Errorf("chunk %v has size %d, map uses %d", ch.Index, ch.Size, m.Info.ChunkSize)
		}
		if _, ok := byPos[ch.WorldPosition]; !ok {
			return nil, errors.Wrapf(ErrPartitionMismatch, "no target for chunk at %v", ch.WorldPosition)
		}
	}
	return byPos, nil
}

// collect receives the single report of w, hands its meshes to their
// targets and updates the pass state.
func (c *Controller) collect(p *pass, w *worker) {
	rep := <-w.reports

	// Partitions are disjoint, so no two collectors share a target.
	for _, mesh := range rep.Meshes {
		if t, ok := p.targets[mesh.WorldPosition]; ok {
			t.SetMesh(mesh)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, mesh := range rep.Meshes {
		c.results[mesh.WorldPosition] = mesh
	}
	c.metrics.observeReport(c.strategy, rep)
	w.done.Store(true)

	log := p.log.With("worker", rep.Index, "start", rep.Range.Start, "end", rep.Range.End)
	switch {
	case rep.Err == nil:
		log.Debug("mesh worker done", "chunks", len(rep.Meshes), "duration", rep.Duration)
	case c.err != nil && errors.Is(rep.Err, context.Canceled):
		log.Debug("mesh worker stopped", "chunks", len(rep.Meshes))
	default:
		log.Error("mesh worker failed", "error", rep.Err, "chunks", len(rep.Meshes))
		if c.err == nil {
			c.failLocked(rep.Err)
			close(p.failed)
			p.cancel()
		}
	}

	select {
	case p.events <- rep:
	default:
	}

	if !allWorkersDone(p.workers) {
		return
	}
	p.cancel()
	if c.err == nil {
		c.state.Store(int32(StateAllDone))
		c.allDone.Store(true)
		c.metrics.observePass(c.strategy, outcomeDone, time.Since(p.started))
		p.log.Info("mesh pass done", "chunks", len(c.results), "quads", countQuads(c.results), "duration", time.Since(p.started))
	}
	close(p.events)
	close(p.finished)
}

// abortLocked fails a pass that never dispatched. It installs a finished
// pass so Wait, Events and PassID describe the failed attempt. c.mu must be held.
func (c *Controller) abortLocked(id uuid.UUID, log *slog.Logger, err error) {
	c.failLocked(err)
	p := &pass{
		id:       id,
		events:   make(chan WorkerReport),
		finished: make(chan struct{}),
		failed:   make(chan struct{}),
		cancel:   func() {},
		log:      log,
	}
	close(p.events)
	close(p.finished)
	close(p.failed)
	c.current = p
	log.Error("mesh pass aborted before dispatch", "error", err)
}

// failLocked records the first failure of the pass. c.mu must be held.
func (c *Controller) failLocked(err error) {
	if c.err != nil {
		return
	}
	c.err = err
	c.state.Store(int32(StateFailed))
	c.metrics.observePass(c.strategy, outcomeFailed, 0)
}

// AllDone reports whether every worker of the current pass finished without error.
func (c *Controller) AllDone() bool {
	return c.allDone.Load()
}

func (c *Controller) State() State {
	return State(c.state.Load())
}

// Failed returns the error that failed the current pass, if any.
func (c *Controller) Failed() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// PassID returns the id of the current pass, or uuid.Nil before the first dispatch.
func (c *Controller) PassID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return uuid.Nil
	}
	return c.current.id
}

// Wait blocks until the current pass completes or fails, and returns the
// failure. It returns ctx.Err() if ctx ends first.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	p := c.current
	c.mu.Unlock()
	if p == nil {
		return ErrNotStarted
	}
	select {
	case <-p.finished:
	case <-p.failed:
	case <-ctx.Done():
		return ctx.Err()
	}
	return c.Failed()
}

// Results returns a copy of the meshes collected so far, keyed by chunk world position.
func (c *Controller) Results() map[world.Coord]ChunkMesh {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[world.Coord]ChunkMesh, len(c.results))
	for k, v := range c.results {
		out[k] = v
	}
	return out
}

// Events returns the worker reports of the current pass. The channel holds
// one report per worker and is closed after the last one. Reading it is
// optional. It is nil before the first dispatch.
func (c *Controller) Events() <-chan WorkerReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	return c.current.events
}

func allWorkersDone(workers []*worker) bool {
	for _, w := range workers {
		if !w.done.Load() {
			return false
		}
	}
	return true
}

func countQuads(meshes map[world.Coord]ChunkMesh) int {
	n := 0
	for _, m := range meshes {
		n += m.QuadCount()
	}
	return n
}

func closed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
