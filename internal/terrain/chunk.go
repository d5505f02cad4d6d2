package terrain

import (
	"fmt"
	"math/rand"

	"GopherTerrain/internal/logger"
	"GopherTerrain/internal/meshing"
	"GopherTerrain/internal/renderer"
	"GopherTerrain/internal/voxel"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

type State uint8

const (
	Pooled State = iota
	Generating
	MeshPending
	Active
)

func (s State) String() string {
	switch s {
	case Pooled:
		return "pooled"
	case Generating:
		return "generating"
	case MeshPending:
		return "mesh-pending"
	case Active:
		return "active"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Chunk is one cubic region of the world. All methods must be called from the
// goroutine that drives the owning Manager.
type Chunk struct {
	m *Manager

	coord   voxel.Coord
	state   State
	palette meshing.ColorFunc

	grid      *voxel.Grid
	generated bool
	overlay   *voxel.Overlay

	buffers       *meshing.Mesh // latest accepted extraction, not yet committed
	mesh          *meshing.Mesh // committed geometry, with normals
	pendingCommit bool

	token *token

	treesPlanted bool
	trees        []mgl32.Vec3
}

func newChunk(m *Manager) *Chunk {
	return &Chunk{m: m, overlay: voxel.NewOverlay()}
}

// Setup binds a pooled or idle chunk to coord and starts its first
// extraction. palette colours the extracted mesh.
func (c *Chunk) Setup(coord voxel.Coord, palette meshing.ColorFunc) error {
	if c.state != Pooled && c.state != Active {
		return fmt.Errorf("terrain: setup %s while chunk %s is %s", coord, c.coord, c.state)
	}
	if other, ok := c.m.registry[coord]; ok && other != c {
		return fmt.Errorf("terrain: setup %s: coordinate already live", coord)
	}
	if c.state == Active {
		c.m.sink.Release(c.coord)
	}
	c.m.register(c, coord)

	c.token.cancel()
	c.token = nil
	c.coord = coord
	c.palette = palette
	c.grid = nil
	c.generated = false
	c.overlay.Clear()
	c.buffers = nil
	c.mesh = nil
	c.pendingCommit = false
	c.treesPlanted = false
	c.trees = nil
	c.state = Active

	c.RequestExtraction()
	return nil
}

// RequestExtraction schedules a background rebuild. Any outstanding request
// is cancelled; its result is discarded when it lands.
func (c *Chunk) RequestExtraction() {
	if c.state == Pooled || c.m.closed {
		return
	}

	c.token.cancel()
	c.token = c.m.issueToken()
	c.pendingCommit = false
	c.buffers = nil
	c.state = Generating

	job := &extraction{
		chunk: c,
		token: c.token,
		coord: c.coord,
		size:  c.m.cfg.ChunkSize,
		opts:  c.meshOptions(),
	}
	if c.generated {
		job.grid = c.grid.Clone()
	} else {
		job.overlay = c.overlay.Snapshot()
	}
	c.m.pipeline.submit(job)
}

func (c *Chunk) meshOptions() meshing.Options {
	half := float32(c.m.cfg.ChunkSize-1) / 2
	return meshing.Options{
		Scale:  c.m.cfg.WorldScale,
		Offset: mgl32.Vec3{-half, -half, -half},
		Color:  c.palette,
	}
}

// apply publishes an accepted result. Called from Manager.drain only.
func (c *Chunk) apply(res result) {
	c.token = nil
	if res.grid != nil {
		c.grid = res.grid
		c.generated = true
	}

	if res.mesh.Empty() {
		c.state = Active
		if c.mesh != nil {
			// The surface was edited away.
			c.mesh = nil
			c.trees = nil
			c.m.sink.Release(c.coord)
		}
		return
	}

	c.buffers = res.mesh
	c.pendingCommit = true
	c.state = MeshPending
	c.m.EnqueueForMeshCommit(c)
}

// commit moves the pending buffers into the renderable mesh and hands them to
// the sink. Trees are planted after the first non-empty commit only.
func (c *Chunk) commit() bool {
	if !c.pendingCommit || c.buffers == nil {
		return false
	}

	mesh := c.buffers
	mesh.Normals = meshing.RecalculateNormals(mesh.Positions, mesh.Indices)
	c.mesh = mesh
	c.buffers = nil
	c.pendingCommit = false
	c.state = Active

	c.m.sink.Commit(c.coord, c.Origin(), mesh)

	if !c.treesPlanted {
		c.treesPlanted = true
		c.GenerateTrees()
	}
	return true
}

// Retire cancels in-flight work, drops every buffer and decoration,
// unregisters the chunk and returns it to the manager's pool. Retiring a
// pooled chunk is a no-op.
func (c *Chunk) Retire() {
	if c.state == Pooled {
		return
	}
	c.m.unregister(c)
	c.token.cancel()
	c.token = nil

	c.m.sink.Release(c.coord)
	c.trees = nil

	c.grid = nil
	c.generated = false
	c.overlay.Clear()
	c.buffers = nil
	c.mesh = nil
	c.pendingCommit = false
	c.state = Pooled

	c.m.pool = append(c.m.pool, c)
}

// ValueAt returns the overlay entry at the clamped local coordinate, or the
// generated sample there. A pooled chunk has no coordinate and reports open
// air.
func (c *Chunk) ValueAt(local voxel.LocalCoord) voxel.Voxel {
	if c.state == Pooled {
		return voxel.Voxel{}
	}
	local = local.Clamp(c.m.cfg.ChunkSize)
	if v, ok := c.overlay.Get(local); ok {
		return v
	}
	if c.generated {
		return c.grid.At(local.X, local.Y, local.Z)
	}
	g := c.globalSample(local)
	return c.m.sampler.Voxel(g[0], g[1], g[2])
}

// ModifyAt overrides one voxel and schedules a rebuild. Out-of-range
// coordinates are clamped onto the nearest boundary voxel.
func (c *Chunk) ModifyAt(local voxel.LocalCoord, density float32, material voxel.Material) {
	if c.state == Pooled {
		logger.Log.Debug("Ignoring edit on pooled chunk")
		return
	}
	local = local.Clamp(c.m.cfg.ChunkSize)
	v := voxel.Voxel{Density: density, Material: material}
	c.overlay.Set(local, v)
	if c.generated {
		c.grid.Set(local.X, local.Y, local.Z, v)
	}
	c.RequestExtraction()
}

func (c *Chunk) globalSample(local voxel.LocalCoord) [3]float64 {
	stride := float64(c.m.cfg.ChunkSize - 1)
	half := stride / 2
	return [3]float64{
		float64(c.coord.X)*stride + float64(local.X) - half,
		float64(c.coord.Y)*stride + float64(local.Y) - half,
		float64(c.coord.Z)*stride + float64(local.Z) - half,
	}
}

// Origin is the world-space centre of the chunk.
func (c *Chunk) Origin() mgl32.Vec3 {
	return c.m.chunkOrigin(c.coord)
}

// Bounds returns the world-space box covered by the grid.
func (c *Chunk) Bounds() (mgl32.Vec3, mgl32.Vec3) {
	return c.m.chunkBounds(c.coord)
}

// ContainsPoint reports whether p lies inside or on the chunk's box. Points on
// shared faces belong to both neighbours.
func (c *Chunk) ContainsPoint(p mgl32.Vec3) bool {
	if c.state == Pooled {
		return false
	}
	lo, hi := c.Bounds()
	for k := 0; k < 3; k++ {
		if p[k] < lo[k] || p[k] > hi[k] {
			return false
		}
	}
	return true
}

// IsSurface reports whether the chunk has committed geometry.
func (c *Chunk) IsSurface() bool {
	return !c.mesh.Empty()
}

// GenerateTrees scatters up to TreesPerChunk anchors on the committed
// surface. Placement is seeded by the world seed and the coordinate, so a
// chunk always grows the same trees.
func (c *Chunk) GenerateTrees() {
	want := c.m.cfg.TreesPerChunk
	if want == 0 || c.mesh.Empty() {
		return
	}

	rng := rand.New(rand.NewSource(c.m.cfg.Seed ^ coordHash(c.coord)))
	lo, hi := c.Bounds()
	origin := c.Origin()

	for attempt := 0; attempt < want*4 && len(c.trees) < want; attempt++ {
		x := lo[0] + rng.Float32()*(hi[0]-lo[0])
		z := lo[2] + rng.Float32()*(hi[2]-lo[2])
		ray := renderer.Ray{Origin: mgl32.Vec3{x, hi[1] + 1, z}, Direction: mgl32.Vec3{0, -1, 0}}

		hit, _, point := renderer.RayIntersectMesh(ray, origin, c.mesh.Positions, c.mesh.Indices)
		if !hit {
			continue
		}
		c.trees = append(c.trees, point)
	}

	if len(c.trees) > 0 {
		c.m.sink.Decorate(c.coord, c.trees)
	}
	logger.Log.Debug("Trees planted",
		zap.Stringer("coord", c.coord),
		zap.Int("count", len(c.trees)))
}

func coordHash(c voxel.Coord) int64 {
	return int64(c.X)*73856093 ^ int64(c.Y)*19349663 ^ int64(c.Z)*83492791
}

func (c *Chunk) Coord() voxel.Coord {
	return c.coord
}

func (c *Chunk) State() State {
	return c.state
}

// Mesh returns the committed geometry, nil if nothing was committed.
func (c *Chunk) Mesh() *meshing.Mesh {
	return c.mesh
}

func (c *Chunk) PendingCommit() bool {
	return c.pendingCommit
}

func (c *Chunk) Generated() bool {
	return c.generated
}

func (c *Chunk) OverlayLen() int {
	return c.overlay.Len()
}

func (c *Chunk) Trees() []mgl32.Vec3 {
	return c.trees
}

func (c *Chunk) TreesPlanted() bool {
	return c.treesPlanted
}
