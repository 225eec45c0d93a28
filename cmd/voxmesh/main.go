package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"voxmesh/internal/config"
	"voxmesh/internal/export"
	"voxmesh/internal/meshing"
	"voxmesh/internal/profiling"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xlab/closer"
)

func main() {
	var (
		configPath  = flag.String("config", "", "YAML config file (default $VOXMESH_CONFIG)")
		strategy    = flag.String("strategy", "", "mesh strategy: naive, half-greedy, full-greedy")
		compare     = flag.Bool("compare", false, "run every strategy and report quad counts")
		seed        = flag.Int64("seed", 0, "terrain seed (0 keeps the configured seed)")
		out         = flag.String("out", "", "write the meshes as glTF to this path")
		binary      = flag.Bool("binary", false, "write binary glTF (.glb)")
		metricsAddr = flag.String("metrics-addr", "", "serve Prometheus metrics on this address")
		hold        = flag.Bool("hold", false, "keep running until interrupted")
		verbose     = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	// Flags override the file and environment before validation.
	cfg, err := config.Read(*configPath)
	if err != nil {
		closer.Fatalln(err)
	}
	overrides{
		strategy:    *strategy,
		seed:        *seed,
		out:         *out,
		binary:      *binary,
		metricsAddr: *metricsAddr,
	}.apply(cfg)
	if err := cfg.Validate(); err != nil {
		closer.Fatalln(err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics, err := meshing.NewMetrics(reg)
	if err != nil {
		closer.Fatalln(err)
	}
	if cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info("serving metrics", "addr", cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server", "error", err)
			}
		}()
		closer.Bind(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		})
	}

	rec := profiling.NewRecorder()
	ctx, cancel := context.WithCancel(context.Background())
	closer.Bind(cancel)

	m, err := buildMap(cfg, rec)
	if err != nil {
		closer.Fatalln(err)
	}
	log.Info("map generated", "chunks", m.Info.ChunkCount(), "bounds", fmt.Sprint(m.Info.BlockBounds()), "generator", cfg.Generator.Type)

	strategies := []string{cfg.Meshing.Strategy}
	if *compare {
		strategies = []string{
			meshing.StrategyNaive.String(),
			meshing.StrategyHalfGreedy.String(),
			meshing.StrategyFullGreedy.String(),
		}
	}

	var last *passResult
	for _, name := range strategies {
		s, err := meshing.ParseStrategy(name)
		if err != nil {
			closer.Fatalln(err)
		}
		res, err := runPass(ctx, cfg, m, s, log, rec, metrics)
		if err != nil {
			closer.Fatalln(err)
		}
		log.Info("pass complete",
			"strategy", s.String(),
			"quads", res.Quads,
			"triangles", res.Triangles,
			"vertices", res.Vertices,
			"workers", res.Workers,
			"duration", res.Duration,
		)
		last = res
	}
	log.Info("profile", "top", rec.TopN(5))

	if cfg.Export.Path != "" && last != nil {
		stats, err := export.WriteGLTF(cfg.Export.Path, last.Meshes, cfg.Materials, cfg.Export.Binary)
		if err != nil {
			closer.Fatalln(err)
		}
		log.Info("exported", "path", cfg.Export.Path, "meshes", stats.Meshes, "triangles", stats.Triangles)
	}

	if *hold {
		log.Info("holding, interrupt to exit")
		closer.Hold()
		return
	}
	closer.Close()
}
