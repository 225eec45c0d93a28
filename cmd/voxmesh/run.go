package main

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"voxmesh/internal/config"
	"voxmesh/internal/meshing"
	"voxmesh/internal/profiling"
	"voxmesh/internal/world"

	"github.com/pkg/errors"
)

// chunkTarget keeps the last mesh handed to it.
type chunkTarget struct {
	pos world.Coord

	mu   sync.Mutex
	mesh meshing.ChunkMesh
	set  bool
}

func (t *chunkTarget) WorldPosition() world.Coord { return t.pos }

func (t *chunkTarget) SetMesh(m meshing.ChunkMesh) {
	t.mu.Lock()
	t.mesh, t.set = m, true
	t.mu.Unlock()
}

type passResult struct {
	Meshes    []meshing.ChunkMesh
	Quads     int
	Triangles int
	Vertices  int
	Workers   int
	Duration  time.Duration
}

// overrides holds the command-line flags that replace config values.
// Zero values leave the config untouched.
type overrides struct {
	strategy    string
	seed        int64
	out         string
	binary      bool
	metricsAddr string
}

func (o overrides) apply(cfg *config.Config) {
	if o.strategy != "" {
		cfg.Meshing.Strategy = o.strategy
	}
	if o.seed != 0 {
		cfg.Generator.Seed = o.seed
	}
	if o.out != "" {
		cfg.Export.Path = o.out
	}
	if o.binary {
		cfg.Export.Binary = true
	}
	if o.metricsAddr != "" {
		cfg.Metrics.Addr = o.metricsAddr
	}
}

func buildMap(cfg *config.Config, rec *profiling.Recorder) (*world.Map, error) {
	defer rec.Track("world.Generate")()
	m, err := world.NewMap(cfg.Map.Info())
	if err != nil {
		return nil, err
	}
	gen, err := cfg.Generator.Build()
	if err != nil {
		return nil, err
	}
	m.Populate(gen)
	return m, nil
}

// runPass meshes every chunk of m with strategy s and waits for the result.
func runPass(ctx context.Context, cfg *config.Config, m *world.Map, s meshing.Strategy, log *slog.Logger, rec *profiling.Recorder, metrics *meshing.Metrics) (*passResult, error) {
	c, err := meshing.NewController(s,
		meshing.WithLogger(log),
		meshing.WithMetrics(metrics),
		meshing.WithTuning(cfg.Meshing.Tuning()),
		meshing.WithMaterials(cfg.Materials...),
		meshing.WithRecorder(rec),
	)
	if err != nil {
		return nil, err
	}

	chunks := m.Chunks()
	targets := make([]meshing.Target, len(chunks))
	sinks := make([]*chunkTarget, len(chunks))
	for i, ch := range chunks {
		sinks[i] = &chunkTarget{pos: ch.WorldPosition}
		targets[i] = sinks[i]
	}

	start := time.Now()
	stop := rec.Track("meshing.Pass")
	if err := c.Start(ctx, m, chunks, targets); err != nil {
		stop()
		return nil, err
	}
	workers := 0
	events := c.Events()
	err = c.Wait(ctx)
	stop()
	if err != nil {
		return nil, errors.Wrapf(err, "%s pass", s)
	}
	for range events {
		workers++
	}

	res := &passResult{Workers: workers, Duration: time.Since(start)}
	for _, t := range sinks {
		if !t.set {
			return nil, errors.Errorf("chunk at %v got no mesh", t.pos)
		}
		res.Meshes = append(res.Meshes, t.mesh)
		res.Quads += t.mesh.QuadCount()
		res.Triangles += t.mesh.TriangleCount()
		res.Vertices += len(t.mesh.Vertices)
	}
	sort.Slice(res.Meshes, func(i, j int) bool {
		return res.Meshes[i].WorldPosition.Less(res.Meshes[j].WorldPosition)
	})
	return res, nil
}
