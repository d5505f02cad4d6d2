// Command terrainsim drives the terrain streamer headlessly: it flies a camera
// along a scripted path, ticks the chunk manager once per frame, digs into the
// first surface it sees and can export the committed chunks at the end.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"GopherTerrain/internal/config"
	"GopherTerrain/internal/export"
	"GopherTerrain/internal/logger"
	"GopherTerrain/internal/meshing"
	"GopherTerrain/internal/renderer"
	"GopherTerrain/internal/terrain"
	"GopherTerrain/internal/voxel"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a terrain yaml config (defaults are used when empty)")
		ticks      = flag.Int("ticks", 600, "number of frames to simulate")
		dt         = flag.Float64("dt", 1.0/60.0, "seconds per frame")
		altitude   = flag.Float64("altitude", 24, "camera height above the origin")
		fov        = flag.Float64("fov", 60, "camera vertical field of view in degrees")
		palette    = flag.String("palette", "material", "vertex colouring: material or flat")
		digAt      = flag.Int("dig_at", 120, "frame at which to carve a hole under the camera's gaze (negative disables)")
		statsEvery = flag.Int("stats_every", 60, "frames between stats log lines")
		exportDir  = flag.String("export", "", "directory to write committed chunk meshes to (empty to disable)")
		logLevel   = flag.String("log_level", "", "overrides the config log level")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	sim := options{
		ticks:      *ticks,
		dt:         float32(*dt),
		altitude:   float32(*altitude),
		fov:        float32(*fov),
		palette:    *palette,
		digAt:      *digAt,
		statsEvery: *statsEvery,
		exportDir:  *exportDir,
	}
	if err := run(cfg, sim); err != nil {
		logger.Log.Error("Simulation failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

type options struct {
	ticks      int
	dt         float32
	altitude   float32
	fov        float32
	palette    string
	digAt      int
	statsEvery int
	exportDir  string
}

func run(cfg config.Config, opts options) error {
	colors, err := paletteByName(opts.palette)
	if err != nil {
		return err
	}

	scene := renderer.NewScene()
	manager, err := terrain.NewManager(cfg, scene, terrain.WithPalette(colors))
	if err != nil {
		return err
	}
	defer manager.Close()

	camera := renderer.NewDefaultCamera(720, 1280)
	if opts.fov > 0 {
		camera.SetFov(opts.fov)
	}
	camera.SetFar(cfg.ViewDistance * 2)
	camera.Speed = cfg.ChunkExtent() * 2
	camera.Position = mgl32.Vec3{0, opts.altitude, 0}
	camera.LookAt(mgl32.Vec3{cfg.ChunkExtent(), 0, 0})

	start := time.Now()
	var frustum renderer.Frustum
	for frame := 0; frame < opts.ticks; frame++ {
		// Drift forward and slowly turn so the path crosses chunk seams on
		// every axis of the ground plane.
		camera.ProcessMouseMovement(0.5, 0, true)
		camera.Move(1, 0, 0, opts.dt)

		frustum = camera.CalculateFrustum()
		manager.Tick(opts.dt, terrain.Viewer{Position: camera.Position, Frustum: &frustum})

		if frame == opts.digAt {
			dig(manager, scene, camera)
		}
		if opts.statsEvery > 0 && frame%opts.statsEvery == 0 {
			logStats(frame, manager, scene, &frustum)
		}
	}

	settle(manager, camera, &frustum)
	logStats(opts.ticks, manager, scene, &frustum)
	logger.Log.Info("Simulation finished",
		zap.Int("frames", opts.ticks),
		zap.Duration("elapsed", time.Since(start)))

	if opts.exportDir == "" {
		return nil
	}
	return export.WriteDir(opts.exportDir, exportEntries(manager))
}

// dig carves a small sphere of air where the camera's gaze meets the terrain.
// Only the terrain layer is considered, so trees never become edit targets.
func dig(manager *terrain.Manager, scene *renderer.Scene, camera *renderer.Camera) {
	ray := renderer.Ray{Origin: camera.Position, Direction: camera.Front.Add(mgl32.Vec3{0, -1, 0}).Normalize()}
	model, dist, point, ok := scene.Raycast(ray, renderer.TerrainLayer)
	if !ok || dist > camera.Far {
		logger.Log.Info("Nothing to dig, no committed surface under the gaze")
		return
	}

	scale := manager.Config().WorldScale
	edited := 0
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				offset := mgl32.Vec3{float32(dx), float32(dy), float32(dz)}.Mul(scale)
				edited += manager.ModifyAt(point.Add(offset), 1, voxel.Air)
			}
		}
	}
	fields := []zap.Field{
		zap.String("model", model.Name),
		zap.Float32("distance", dist),
		zap.Int("edits", edited),
	}
	if hit, ok := manager.Raycast(ray, camera.Far); ok {
		fields = append(fields, zap.Stringer("chunk", hit.Chunk.Coord()))
	}
	logger.Log.Info("Dug into terrain", fields...)
}

func paletteByName(name string) (meshing.ColorFunc, error) {
	switch name {
	case "", "material":
		return meshing.MaterialColor, nil
	case "flat":
		return func(voxel.Voxel) mgl32.Vec4 { return meshing.Placeholder }, nil
	}
	return nil, fmt.Errorf("unknown palette %q", name)
}

// settle waits for outstanding extractions and keeps ticking in place until
// every pending mesh is committed.
func settle(manager *terrain.Manager, camera *renderer.Camera, frustum *renderer.Frustum) {
	for i := 0; i < 1000; i++ {
		manager.Settle()
		manager.Tick(0, terrain.Viewer{Position: camera.Position, Frustum: frustum})
		stats := manager.Stats()
		if stats.Pending == 0 && stats.InFlight == 0 {
			return
		}
	}
	logger.Log.Warn("Terrain did not settle", zap.Int("pending", manager.Stats().Pending))
}

func logStats(frame int, manager *terrain.Manager, scene *renderer.Scene, frustum *renderer.Frustum) {
	stats := manager.Stats()
	logger.Log.Info("Terrain stats",
		zap.Int("frame", frame),
		zap.Int("live", stats.Live),
		zap.Int("pooled", stats.Pooled),
		zap.Int("pending", stats.Pending),
		zap.Int64("in_flight", stats.InFlight),
		zap.Uint64("allocated", stats.Allocated),
		zap.Uint64("commits", stats.Commits),
		zap.Uint64("discarded", stats.Discarded),
		zap.Int("uploads", scene.Uploads()),
		zap.Int("models_in_view", len(scene.VisibleModels(frustum))))
}

func exportEntries(manager *terrain.Manager) []export.Entry {
	var entries []export.Entry
	for _, c := range manager.VisibleChunks() {
		if !c.IsSurface() {
			continue
		}
		coord := c.Coord()
		entries = append(entries, export.Entry{
			Name:   fmt.Sprintf("chunk_%d_%d_%d", coord.X, coord.Y, coord.Z),
			Origin: c.Origin(),
			Mesh:   c.Mesh(),
		})
	}
	return entries
}
