package terrain

import (
	"testing"

	"GopherTerrain/internal/voxel"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkOverlayRoundTripWithClamping(t *testing.T) {
	m, _ := newTestManager(t, testConfig())
	m.Tick(0.016, origin())
	m.Settle()

	c, ok := m.ChunkAt(voxel.Coord{})
	require.True(t, ok)

	c.ModifyAt(voxel.LocalCoord{X: -3, Y: 99, Z: 2}, -0.75, voxel.Sand)

	want := voxel.Voxel{Density: -0.75, Material: voxel.Sand}
	assert.Equal(t, want, c.ValueAt(voxel.LocalCoord{X: 0, Y: 7, Z: 2}))
	assert.Equal(t, want, c.ValueAt(voxel.LocalCoord{X: -1, Y: 50, Z: 2}))
	assert.Equal(t, 1, c.OverlayLen())

	// Untouched voxels fall back to the generator: local 1 is global -2.5.
	assert.Equal(t, planeSampler{height: 0.3}.Voxel(-2.5, -2.5, -2.5), c.ValueAt(voxel.LocalCoord{X: 1, Y: 1, Z: 1}))
	m.Settle()
}

func TestEditBeforeFirstFillLandsInGrid(t *testing.T) {
	m, _ := newTestManager(t, testConfig())
	g := newGate()
	m.pipeline.beforeRun = g.wait

	m.Tick(0.016, origin())
	c, ok := m.ChunkAt(voxel.Coord{})
	require.True(t, ok)
	require.False(t, c.Generated())

	// Local (3, 4, 3) is global (-0.5, 0.5, -0.5), just above the plane.
	assert.InDelta(t, 0.2, c.ValueAt(voxel.LocalCoord{X: 3, Y: 4, Z: 3}).Density, 1e-6)

	c.ModifyAt(voxel.LocalCoord{X: 3, Y: 4, Z: 3}, -1, voxel.Stone)
	g.open()
	m.Settle()

	require.True(t, c.Generated())
	assert.Equal(t, voxel.Voxel{Density: -1, Material: voxel.Stone}, c.grid.At(3, 4, 3))
}

func TestSetupRejectsBusyChunk(t *testing.T) {
	m, _ := newTestManager(t, testConfig())
	g := newGate()
	m.pipeline.beforeRun = g.wait
	defer m.Settle()
	defer g.open()

	m.Tick(0.016, origin())
	c, _ := m.ChunkAt(voxel.Coord{})
	require.Equal(t, Generating, c.State())

	err := c.Setup(voxel.Coord{X: 40}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generating")
}

func TestSetupRejectsLiveCoordinate(t *testing.T) {
	m, _ := newTestManager(t, testConfig())
	m.Tick(0.016, origin())
	m.Settle()

	c, _ := m.ChunkAt(voxel.Coord{Y: 1})
	require.Equal(t, Active, c.State())

	err := c.Setup(voxel.Coord{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already live")
}

func TestSetupMovesActiveChunk(t *testing.T) {
	m, sink := newTestManager(t, testConfig())
	m.Tick(0.016, origin())
	m.Settle()
	commitAll(m)

	c, _ := m.ChunkAt(voxel.Coord{X: 1})
	require.True(t, c.IsSurface())

	require.NoError(t, c.Setup(voxel.Coord{X: 9}, nil))

	_, ok := m.ChunkAt(voxel.Coord{X: 1})
	assert.False(t, ok)
	got, ok := m.ChunkAt(voxel.Coord{X: 9})
	require.True(t, ok)
	assert.Same(t, c, got)
	assert.False(t, c.IsSurface())
	assert.False(t, c.TreesPlanted())
	assert.Equal(t, 0, c.OverlayLen())
	assert.Equal(t, 1, sink.released[voxel.Coord{X: 1}])
	assertRegistryConsistent(t, m)
	m.Settle()
}

func TestRetireClearsAndPoolsOnce(t *testing.T) {
	m, sink := newTestManager(t, testConfig())
	m.Tick(0.016, origin())
	m.Settle()
	commitAll(m)

	c, _ := m.ChunkAt(voxel.Coord{})
	c.ModifyAt(voxel.LocalCoord{X: 2, Y: 2, Z: 2}, 1, voxel.Air)

	c.Retire()
	c.Retire()

	assert.Equal(t, Pooled, c.State())
	assert.Equal(t, 0, c.OverlayLen())
	assert.False(t, c.Generated())
	assert.Nil(t, c.grid)
	assert.Nil(t, c.Mesh())
	assert.Nil(t, c.Trees())
	assert.False(t, c.PendingCommit())
	assert.False(t, c.ContainsPoint(mgl32.Vec3{}))
	assert.Equal(t, 1, sink.released[voxel.Coord{}])

	count := 0
	for _, p := range m.pool {
		if p == c {
			count++
		}
	}
	assert.Equal(t, 1, count)
	_, ok := m.ChunkAt(voxel.Coord{})
	assert.False(t, ok)
	for _, v := range m.VisibleChunks() {
		assert.NotSame(t, c, v)
	}

	// A pooled chunk no longer samples its old coordinate, where local
	// (1, 1, 1) would be solid ground.
	assert.Equal(t, voxel.Voxel{}, c.ValueAt(voxel.LocalCoord{X: 1, Y: 1, Z: 1}))

	// Edits on a pooled chunk are ignored.
	c.ModifyAt(voxel.LocalCoord{}, -1, voxel.Stone)
	assert.Equal(t, 0, c.OverlayLen())

	m.Tick(0.016, origin())
	got, ok := m.ChunkAt(voxel.Coord{})
	require.True(t, ok)
	assert.Same(t, c, got, "the pooled chunk is reused for the next free coordinate")
	assert.Equal(t, uint64(27), m.Stats().Allocated)
	m.Settle()
}

func TestEditingAwayTheSurfaceReleasesGeometry(t *testing.T) {
	m, sink := newTestManager(t, testConfig())
	m.Tick(0.016, origin())
	m.Settle()
	commitAll(m)

	coord := voxel.Coord{}
	c, ok := m.ChunkAt(coord)
	require.True(t, ok)
	require.True(t, c.IsSurface())
	require.NotEmpty(t, c.Trees())
	commits := sink.commits[coord]
	decorations := sink.decorations[coord]

	size := m.Config().ChunkSize
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			for z := 0; z < size; z++ {
				c.ModifyAt(voxel.LocalCoord{X: x, Y: y, Z: z}, 1, voxel.Air)
			}
		}
	}
	m.Settle()
	commitAll(m)

	assert.False(t, c.IsSurface())
	assert.Nil(t, c.Mesh())
	assert.Nil(t, c.Trees())
	assert.True(t, c.TreesPlanted(), "trees are not replanted later in this lifetime")
	assert.False(t, c.PendingCommit())
	assert.Equal(t, Active, c.State())
	assert.Equal(t, 1, sink.released[coord])
	assert.Equal(t, commits, sink.commits[coord], "an empty extraction is never committed")
	assert.Equal(t, decorations, sink.decorations[coord])
	_, stillThere := sink.meshes[coord]
	assert.False(t, stillThere)
}

func TestChunkGeometryQueries(t *testing.T) {
	m, _ := newTestManager(t, testConfig())
	m.Tick(0.016, origin())
	m.Settle()
	commitAll(m)

	c, _ := m.ChunkAt(voxel.Coord{})
	right, _ := m.ChunkAt(voxel.Coord{X: 1})
	above, _ := m.ChunkAt(voxel.Coord{Y: 1})

	assert.Equal(t, mgl32.Vec3{7, 0, 0}, right.Origin())
	lo, hi := c.Bounds()
	assert.Equal(t, mgl32.Vec3{-3.5, -3.5, -3.5}, lo)
	assert.Equal(t, mgl32.Vec3{3.5, 3.5, 3.5}, hi)

	seam := mgl32.Vec3{3.5, 0, 0}
	assert.True(t, c.ContainsPoint(seam))
	assert.True(t, right.ContainsPoint(seam))
	assert.False(t, c.ContainsPoint(mgl32.Vec3{3.6, 0, 0}))

	assert.True(t, c.IsSurface())
	assert.False(t, above.IsSurface())
	assert.Equal(t, Active, above.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "pooled", Pooled.String())
	assert.Equal(t, "mesh-pending", MeshPending.String())
	assert.Equal(t, "state(9)", State(9).String())
}
