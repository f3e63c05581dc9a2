// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command warpdemo demonstrates the meshwarp engine on a synthetic frame.
//
// It builds a checkerboard source frame, places a stretch point in the
// center and anchor points in the corners, runs a few engine ticks while
// gliding the global strength up, and saves the warped result as a PNG.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/gogpu/meshwarp"
	_ "github.com/gogpu/meshwarp/gpu" // enable GPU compositing when available
)

func main() {
	var (
		width   = flag.Int("width", 640, "frame width")
		height  = flag.Int("height", 480, "frame height")
		output  = flag.String("output", "warp.png", "output file")
		ticks   = flag.Int("ticks", 30, "engine ticks to run")
		cpuOnly = flag.Bool("cpu", false, "force the software compositor")
		verbose = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if *verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	meshwarp.SetLogger(logger)

	source := checkerboard(*width, *height)

	store := meshwarp.NewStore()
	store.SetParameters(meshwarp.WarpParameters{
		GlobalStrength: 0,
		Kernel:         meshwarp.KernelSmooth,
		QualityTier:    meshwarp.TierFinal,
	})
	store.Add(meshwarp.Pt(0.5, 0.5), meshwarp.PointStretch)
	for _, corner := range []meshwarp.Point{
		meshwarp.Pt(0.1, 0.1), meshwarp.Pt(0.9, 0.1),
		meshwarp.Pt(0.1, 0.9), meshwarp.Pt(0.9, 0.9),
	} {
		id := store.Add(corner, meshwarp.PointAnchor)
		store.SetRadius(id, 0.15)
	}

	surface, err := meshwarp.NewFrameSurface(*width, *height)
	if err != nil {
		logger.Error("create surface", "error", err)
		os.Exit(1)
	}

	engine, err := meshwarp.NewEngine(store, surface, &meshwarp.EngineOptions{DisableGPU: *cpuOnly})
	if err != nil {
		logger.Error("create engine", "error", err)
		os.Exit(1)
	}
	if err := engine.Init(); err != nil {
		logger.Error("init engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	if err := engine.SubmitFrame(source); err != nil {
		logger.Error("submit frame", "error", err)
		os.Exit(1)
	}

	// Ramp the warp in over the run instead of snapping to full strength.
	glide := meshwarp.GlideStrength(store, 1.5, float32(*ticks)/60, nil)
	for i := 0; i < *ticks; i++ {
		glide.Update(1.0 / 60)
		if err := engine.Tick(); err != nil {
			logger.Error("tick", "error", err)
			os.Exit(1)
		}
	}

	result := surface.Last()
	if result == nil {
		logger.Error("no frame presented")
		os.Exit(1)
	}
	if err := result.SavePNG(*output); err != nil {
		logger.Error("save png", "error", err)
		os.Exit(1)
	}
	run, dropped := engine.TickStats()
	logger.Info("demo complete",
		"output", *output,
		"compositor", engine.CompositorName(),
		"ticks", run, "coalesced", dropped)
}

// checkerboard fills a frame with an 8x8-pixel checker pattern; warping
// distorts the straight edges visibly.
func checkerboard(w, h int) *meshwarp.Frame {
	f := meshwarp.NewFrame(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/8+y/8)%2 == 0 {
				f.SetPixel(x, y, 235, 235, 235, 255)
			} else {
				f.SetPixel(x, y, 40, 44, 52, 255)
			}
		}
	}
	return f
}
