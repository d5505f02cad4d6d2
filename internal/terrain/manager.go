// Package terrain streams Marching Cubes chunks around a moving viewer.
//
// A Manager owns every chunk. Tick must be called from a single goroutine;
// extraction runs on a worker pool and its results are applied back on that
// goroutine during the next Tick.
package terrain

import (
	"fmt"
	"math"
	"runtime"
	"sort"

	"GopherTerrain/internal/config"
	"GopherTerrain/internal/density"
	"GopherTerrain/internal/logger"
	"GopherTerrain/internal/meshing"
	"GopherTerrain/internal/renderer"
	"GopherTerrain/internal/voxel"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// Viewer is the per-tick input from the host.
type Viewer struct {
	Position mgl32.Vec3
	Frustum  *renderer.Frustum // nil accepts every in-range chunk
}

type Option func(*Manager)

// WithSampler replaces the default density.Field.
func WithSampler(s Sampler) Option {
	return func(m *Manager) {
		m.sampler = s
	}
}

// WithPalette sets the vertex colouring handed to every chunk on Setup.
func WithPalette(p meshing.ColorFunc) Option {
	return func(m *Manager) {
		m.palette = p
	}
}

// Stats is a point-in-time summary of the streamer.
type Stats struct {
	Ticks     uint64
	Live      int
	Pooled    int
	Pending   int // live chunks holding an uncommitted mesh
	InFlight  int64
	Allocated uint64
	Commits   uint64
	Discarded uint64 // stale or cancelled extraction results
}

// Hit is a ray hit on committed terrain.
type Hit struct {
	Chunk    *Chunk
	Point    mgl32.Vec3
	Distance float32
}

type Manager struct {
	cfg      config.Config
	sampler  Sampler
	palette  meshing.ColorFunc
	sink     MeshSink
	pipeline *pipeline

	registry    map[voxel.Coord]*Chunk
	live        []*Chunk // creation order
	pool        []*Chunk // FIFO
	commitStack []*Chunk // LIFO

	offsets     []voxel.Coord
	viewerCoord voxel.Coord
	ticks       uint64
	elapsed     float32
	tokens      uint64
	closed      bool

	allocated uint64
	commits   uint64
	discarded uint64
}

// NewManager copies cfg; later changes to the caller's value have no effect.
// A nil sink discards all geometry.
func NewManager(cfg config.Config, sink MeshSink, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("terrain: %w", err)
	}
	if sink == nil {
		sink = nopSink{}
	}

	m := &Manager{
		cfg:      cfg,
		sink:     sink,
		palette:  meshing.MaterialColor,
		registry: make(map[voxel.Coord]*Chunk),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.sampler == nil {
		m.sampler = density.New(density.DefaultParams(cfg.Seed, float64(cfg.MaxTerrainHeight)))
	}

	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	m.pipeline = newPipeline(workers, m.sampler)

	rings := int(math.Ceil(float64(cfg.ViewDistance / cfg.ChunkExtent())))
	m.offsets = ringOffsets(rings)

	logger.Log.Info("Terrain manager ready",
		zap.Int("chunkSize", cfg.ChunkSize),
		zap.Float32("viewDistance", cfg.ViewDistance),
		zap.Int("rings", rings),
		zap.Int("workers", workers),
		zap.Int64("seed", cfg.Seed))
	return m, nil
}

// ringOffsets lists candidate offsets 0, +1, -1, +2, -2 ... per axis, nearest
// rings first.
func ringOffsets(rings int) []voxel.Coord {
	seq := []int{0}
	for i := 1; i <= rings; i++ {
		seq = append(seq, i, -i)
	}

	offsets := make([]voxel.Coord, 0, len(seq)*len(seq)*len(seq))
	for _, dx := range seq {
		for _, dy := range seq {
			for _, dz := range seq {
				offsets = append(offsets, voxel.Coord{X: dx, Y: dy, Z: dz})
			}
		}
	}

	ring := func(c voxel.Coord) int {
		return maxInt(absInt(c.X), maxInt(absInt(c.Y), absInt(c.Z)))
	}
	sort.SliceStable(offsets, func(i, j int) bool {
		return ring(offsets[i]) < ring(offsets[j])
	})
	return offsets
}

func (m *Manager) Config() config.Config {
	return m.cfg
}

// ViewerCoord rounds a world position to the chunk containing it.
func (m *Manager) ViewerCoord(p mgl32.Vec3) voxel.Coord {
	e := m.cfg.ChunkExtent()
	return voxel.Coord{
		X: int(math.Round(float64(p[0] / e))),
		Y: int(math.Round(float64(p[1] / e))),
		Z: int(math.Round(float64(p[2] / e))),
	}
}

// Tick applies finished extractions, streams chunks in and out around the
// viewer and commits a bounded number of meshes.
func (m *Manager) Tick(dt float32, viewer Viewer) {
	m.elapsed += dt
	m.viewerCoord = m.ViewerCoord(viewer.Position)

	m.drain()
	retired := m.retireOutOfRange(viewer.Position)
	created := m.createInRange(viewer)
	committed := m.CommitPendingMeshes()
	m.ticks++

	if retired > 0 || created > 0 {
		logger.Log.Debug("Terrain streamed",
			zap.Stringer("viewer", m.viewerCoord),
			zap.Int("retired", retired),
			zap.Int("created", created),
			zap.Int("committed", committed),
			zap.Int("live", len(m.live)))
	}
}

func (m *Manager) retireOutOfRange(pos mgl32.Vec3) int {
	limit := m.cfg.ViewDistance * m.cfg.ViewDistance
	var out []*Chunk
	for _, c := range m.live {
		lo, hi := m.chunkBounds(c.coord)
		if clampedDistanceSq(lo, hi, pos) > limit {
			out = append(out, c)
		}
	}
	for _, c := range out {
		c.Retire()
	}
	return len(out)
}

func (m *Manager) createInRange(viewer Viewer) int {
	limit := m.cfg.ViewDistance * m.cfg.ViewDistance
	near := (float32(m.cfg.ChunkSize) + 1) * m.cfg.WorldScale
	near *= near
	bulk := m.ticks == 0

	created := 0
	for _, off := range m.offsets {
		coord := m.viewerCoord.Add(off)
		if _, ok := m.registry[coord]; ok {
			continue
		}
		lo, hi := m.chunkBounds(coord)
		d := clampedDistanceSq(lo, hi, viewer.Position)
		if d > limit {
			continue
		}
		if !bulk && d >= near && viewer.Frustum != nil && !viewer.Frustum.IntersectsAABB(lo, hi) {
			continue
		}

		c := m.acquire()
		if err := c.Setup(coord, m.palette); err != nil {
			logger.Log.Warn("Chunk setup failed", zap.Error(err))
			continue
		}
		created++
	}
	return created
}

// acquire prefers the oldest pooled chunk over a fresh allocation.
func (m *Manager) acquire() *Chunk {
	if len(m.pool) > 0 {
		c := m.pool[0]
		m.pool[0] = nil
		m.pool = m.pool[1:]
		return c
	}
	m.allocated++
	return newChunk(m)
}

// register binds c to coord, moving it out of the pool and onto the live list
// if needed.
func (m *Manager) register(c *Chunk, coord voxel.Coord) {
	for i, p := range m.pool {
		if p == c {
			m.pool = append(m.pool[:i], m.pool[i+1:]...)
			break
		}
	}
	if m.registry[c.coord] == c {
		delete(m.registry, c.coord)
	} else {
		m.live = append(m.live, c)
	}
	m.registry[coord] = c
}

func (m *Manager) unregister(c *Chunk) {
	if m.registry[c.coord] == c {
		delete(m.registry, c.coord)
	}
	for i, l := range m.live {
		if l == c {
			m.live = append(m.live[:i], m.live[i+1:]...)
			break
		}
	}
}

func (m *Manager) issueToken() *token {
	m.tokens++
	return newToken(m.tokens)
}

// drain applies finished extractions whose token is still current.
func (m *Manager) drain() {
	for _, res := range m.pipeline.drain() {
		c := res.chunk
		if c.token != res.token || res.token.Cancelled() {
			m.discarded++
			logger.Log.Debug("Discarded stale extraction",
				zap.Uint64("token", res.token.id),
				zap.Stringer("coord", c.coord))
			continue
		}
		c.apply(res)
	}
}

// Settle blocks until every submitted extraction has finished, then applies
// the results. Nothing is committed.
func (m *Manager) Settle() {
	m.pipeline.wait()
	m.drain()
}

// EnqueueForMeshCommit pushes c on the commit stack. The most recent
// extraction is committed first.
func (m *Manager) EnqueueForMeshCommit(c *Chunk) {
	m.commitStack = append(m.commitStack, c)
}

// CommitPendingMeshes commits the viewer's chunk first if it is pending, then
// pops the commit stack until MaxMeshBuildsPerFrame commits were made.
// Entries whose pending flag was cleared by a newer request are skipped and
// do not count.
func (m *Manager) CommitPendingMeshes() int {
	budget := m.cfg.MaxMeshBuildsPerFrame
	committed := 0

	if c, ok := m.ChunkAt(m.viewerCoord); ok && c.pendingCommit {
		if c.commit() {
			committed++
		}
	}

	for committed < budget && len(m.commitStack) > 0 {
		last := len(m.commitStack) - 1
		c := m.commitStack[last]
		m.commitStack[last] = nil
		m.commitStack = m.commitStack[:last]

		if !c.pendingCommit {
			continue
		}
		if c.commit() {
			committed++
		}
	}

	m.commits += uint64(committed)
	return committed
}

// ChunkAt returns the live chunk registered at coord.
func (m *Manager) ChunkAt(coord voxel.Coord) (*Chunk, bool) {
	c, ok := m.registry[coord]
	return c, ok
}

// VisibleChunks returns the live chunks in creation order.
func (m *Manager) VisibleChunks() []*Chunk {
	return append([]*Chunk(nil), m.live...)
}

// ModifyAt snaps p to the nearest voxel and edits that voxel in every live
// chunk whose grid contains it, so seams stay closed. It returns the number
// of chunks edited.
func (m *Manager) ModifyAt(p mgl32.Vec3, density float32, material voxel.Material) int {
	stride := m.cfg.ChunkSize - 1
	half := float32(stride) / 2
	var g [3]int
	for k := 0; k < 3; k++ {
		g[k] = int(math.Round(float64(p[k]/m.cfg.WorldScale + half)))
	}

	edited := 0
	for _, c := range m.live {
		local := voxel.LocalCoord{
			X: g[0] - c.coord.X*stride,
			Y: g[1] - c.coord.Y*stride,
			Z: g[2] - c.coord.Z*stride,
		}
		if !local.InBounds(m.cfg.ChunkSize) {
			continue
		}
		c.ModifyAt(local, density, material)
		edited++
	}
	if edited == 0 {
		logger.Log.Debug("Edit outside live terrain", zap.Float32s("point", p[:]))
	}
	return edited
}

// Raycast finds the nearest committed terrain triangle along ray. A
// non-positive maxDistance means unlimited.
func (m *Manager) Raycast(ray renderer.Ray, maxDistance float32) (Hit, bool) {
	var best Hit
	found := false
	for _, c := range m.live {
		if c.mesh.Empty() {
			continue
		}
		lo, hi := m.chunkBounds(c.coord)
		ok, near := renderer.RayIntersectAABB(ray, lo, hi)
		if !ok || (found && near > best.Distance) || (maxDistance > 0 && near > maxDistance) {
			continue
		}
		ok, t, p := renderer.RayIntersectMesh(ray, c.Origin(), c.mesh.Positions, c.mesh.Indices)
		if !ok || (maxDistance > 0 && t > maxDistance) {
			continue
		}
		if !found || t < best.Distance {
			best = Hit{Chunk: c, Point: p, Distance: t}
			found = true
		}
	}
	return best, found
}

func (m *Manager) Stats() Stats {
	pending := 0
	for _, c := range m.live {
		if c.pendingCommit {
			pending++
		}
	}
	return Stats{
		Ticks:     m.ticks,
		Live:      len(m.live),
		Pooled:    len(m.pool),
		Pending:   pending,
		InFlight:  m.pipeline.inFlight.Load(),
		Allocated: m.allocated,
		Commits:   m.commits,
		Discarded: m.discarded + m.pipeline.dropped.Load(),
	}
}

// Close cancels outstanding extractions and stops the worker pool. The
// manager must not be ticked afterwards.
func (m *Manager) Close() {
	if m.closed {
		return
	}
	m.closed = true
	for _, c := range m.live {
		c.token.cancel()
	}
	m.pipeline.stop()
	logger.Log.Info("Terrain manager closed",
		zap.Uint64("ticks", m.ticks),
		zap.Float32("elapsed", m.elapsed),
		zap.Uint64("commits", m.commits))
}

func (m *Manager) chunkOrigin(coord voxel.Coord) mgl32.Vec3 {
	e := m.cfg.ChunkExtent()
	return mgl32.Vec3{float32(coord.X) * e, float32(coord.Y) * e, float32(coord.Z) * e}
}

func (m *Manager) chunkBounds(coord voxel.Coord) (mgl32.Vec3, mgl32.Vec3) {
	o := m.chunkOrigin(coord)
	h := m.cfg.ChunkExtent() / 2
	return o.Sub(mgl32.Vec3{h, h, h}), o.Add(mgl32.Vec3{h, h, h})
}

// clampedDistanceSq is the squared distance from p to the box, zero inside.
func clampedDistanceSq(lo, hi, p mgl32.Vec3) float32 {
	var sum float32
	for k := 0; k < 3; k++ {
		var d float32
		switch {
		case p[k] < lo[k]:
			d = lo[k] - p[k]
		case p[k] > hi[k]:
			d = p[k] - hi[k]
		}
		sum += d * d
	}
	return sum
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
