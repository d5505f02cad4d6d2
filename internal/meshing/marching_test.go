package meshing

import (
	"math"
	"math/rand"
	"testing"

	"GopherTerrain/internal/density"
	"GopherTerrain/internal/voxel"
)

func uniformGrid(size int, d float32) *voxel.Grid {
	g := voxel.NewGrid(size)
	g.Fill(func(x, y, z int) voxel.Voxel {
		return voxel.Voxel{Density: d, Material: voxel.Stone}
	})
	return g
}

// rowEdges lists the edges of one triangulation row without the terminator.
func rowEdges(config uint8) []int {
	var edges []int
	for _, e := range triangulation[config] {
		if e < 0 {
			break
		}
		edges = append(edges, int(e))
	}
	return edges
}

func TestExtractOpenGridIsEmpty(t *testing.T) {
	mesh := Extract(uniformGrid(8, 0.5), Options{})

	if !mesh.Empty() {
		t.Errorf("Expected no triangles for open space, got %d", mesh.TriangleCount())
	}
}

func TestExtractSolidGridIsEmpty(t *testing.T) {
	mesh := Extract(uniformGrid(8, -0.5), Options{})

	if !mesh.Empty() {
		t.Errorf("Expected no triangles for solid space, got %d", mesh.TriangleCount())
	}
}

func TestExtractSingleSolidCorner(t *testing.T) {
	g := uniformGrid(8, 1)
	g.Set(0, 0, 0, voxel.Voxel{Density: -1, Material: voxel.Stone})

	mesh := Extract(g, Options{})

	if mesh.VertexCount() != 3 {
		t.Fatalf("Expected 3 vertices, got %d", mesh.VertexCount())
	}
	if got := rowEdges(1); len(got) != 3 {
		t.Fatalf("Expected single-corner entry to hold one triangle, got %v", got)
	}
	// Density -1 to +1 crosses halfway along edges 0, 8 and 3.
	want := map[[3]float32]bool{
		{0.5, 0, 0}: true,
		{0, 0.5, 0}: true,
		{0, 0, 0.5}: true,
	}
	for i := 0; i < 3; i++ {
		v := mesh.Vertex(i)
		if !want[[3]float32{v[0], v[1], v[2]}] {
			t.Errorf("Unexpected vertex %v", v)
		}
	}
}

func TestExtractAppliesOffsetAndScale(t *testing.T) {
	g := uniformGrid(2, 1)
	g.Set(0, 0, 0, voxel.Voxel{Density: -1})

	mesh := Extract(g, Options{Scale: 2, Offset: [3]float32{-0.5, -0.5, -0.5}})
	lo, hi := mesh.Vertex(0)[0], mesh.Vertex(0)[0]
	for i := 1; i < mesh.VertexCount(); i++ {
		x := mesh.Vertex(i)[0]
		lo = float32(math.Min(float64(lo), float64(x)))
		hi = float32(math.Max(float64(hi), float64(x)))
	}

	if lo != -1 || hi != 0 {
		t.Errorf("Expected x bounds [-1, 0], got [%v, %v]", lo, hi)
	}
}

func TestVerticesLieOnSignChangingEdges(t *testing.T) {
	rng := rand.New(rand.NewSource(1337))
	g := voxel.NewGrid(8)
	g.Fill(func(x, y, z int) voxel.Voxel {
		return voxel.Voxel{Density: float32(rng.Float64()*2 - 1)}
	})

	mesh := Extract(g, Options{})
	if mesh.Empty() {
		t.Fatal("Random grid should produce geometry")
	}

	for i := 0; i < mesh.VertexCount(); i++ {
		v := mesh.Vertex(i)
		lo := [3]int{}
		hi := [3]int{}
		fractional := 0
		for k := 0; k < 3; k++ {
			f := math.Floor(float64(v[k]))
			lo[k], hi[k] = int(f), int(f)
			if float64(v[k]) != f {
				hi[k] = int(f) + 1
				fractional++
			}
		}
		if fractional > 1 {
			t.Fatalf("Vertex %v is not on a cube edge", v)
		}
		if fractional == 0 {
			continue
		}
		a := g.At(lo[0], lo[1], lo[2]).Density
		b := g.At(hi[0], hi[1], hi[2]).Density
		if (a < 0) == (b < 0) {
			t.Errorf("Vertex %v sits on an edge without a sign change (%v, %v)", v, a, b)
		}
	}
}

func TestIndicesAreFlat(t *testing.T) {
	f := density.New(density.DefaultParams(1337, 16))
	g := voxel.NewGrid(8)
	g.Fill(func(x, y, z int) voxel.Voxel {
		return f.Voxel(float64(x), float64(y), float64(z))
	})

	mesh := Extract(g, Options{Color: MaterialColor})

	if len(mesh.Indices) != mesh.VertexCount() {
		t.Errorf("Expected one index per vertex, got %d indices for %d vertices", len(mesh.Indices), mesh.VertexCount())
	}
	if len(mesh.Positions) != 3*len(mesh.Indices) {
		t.Errorf("Expected 3 position floats per index, got %d for %d", len(mesh.Positions), len(mesh.Indices))
	}
	if len(mesh.Indices)%3 != 0 {
		t.Errorf("Index count %d is not a multiple of 3", len(mesh.Indices))
	}
	if len(mesh.Colors) != 4*mesh.VertexCount() {
		t.Errorf("Expected rgba per vertex, got %d floats", len(mesh.Colors))
	}
	for i, idx := range mesh.Indices {
		if int(idx) != i {
			t.Fatalf("Index %d should be %d, got %d", i, i, idx)
		}
	}
}

func TestExtractDoesNotMutateGrid(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	g := voxel.NewGrid(6)
	g.Fill(func(x, y, z int) voxel.Voxel {
		return voxel.Voxel{Density: float32(rng.Float64()*2 - 1)}
	})
	before := g.Clone()

	Extract(g, Options{})

	for i := range g.Voxels {
		if g.Voxels[i] != before.Voxels[i] {
			t.Fatalf("Voxel %d changed during extraction", i)
		}
	}
}

func TestCrossingClampsDegenerateEdges(t *testing.T) {
	cases := []struct {
		d0, d1 float32
		want   float32
	}{
		{-1, 1, 0.5},
		{-0.25, 0.75, 0.25},
		{0.3, 0.3, 0.5},
		{-0.2, -0.4, 0},
		{0.2, 0.4, 1},
	}
	for _, c := range cases {
		if got := crossing(c.d0, c.d1); got != c.want {
			t.Errorf("crossing(%v, %v) = %v, want %v", c.d0, c.d1, got, c.want)
		}
	}
}

func TestTriangulationTableConsistency(t *testing.T) {
	for config := 0; config < 256; config++ {
		edges := rowEdges(uint8(config))
		if len(edges)%3 != 0 {
			t.Fatalf("Config %d has %d edges, not whole triangles", config, len(edges))
		}
		crossing := map[int]bool{}
		for e := 0; e < 12; e++ {
			a, b := edgeCornerA[e], edgeCornerB[e]
			if (config>>a)&1 != (config>>b)&1 {
				crossing[e] = true
			}
		}
		used := map[int]bool{}
		for _, e := range edges {
			if !crossing[e] {
				t.Errorf("Config %d uses edge %d which has no sign change", config, e)
			}
			used[e] = true
		}
		if len(used) != len(crossing) {
			t.Errorf("Config %d covers %d of %d crossing edges", config, len(used), len(crossing))
		}
	}
}

func TestRecalculateNormalsFlatTriangle(t *testing.T) {
	positions := []float32{0, 0, 0, 1, 0, 0, 0, 0, 1}
	normals := RecalculateNormals(positions, []uint32{0, 2, 1})

	for i := 0; i < 3; i++ {
		if normals[i*3+1] != 1 {
			t.Errorf("Expected +Y normal at vertex %d, got %v", i, normals[i*3:i*3+3])
		}
	}
}

func TestRecalculateNormalsSkipsDegenerate(t *testing.T) {
	positions := []float32{0, 0, 0, 0, 0, 0, 0, 0, 0}
	normals := RecalculateNormals(positions, []uint32{0, 1, 2})

	for _, n := range normals {
		if n != 0 || n != n {
			t.Fatalf("Degenerate triangle should leave zero normals, got %v", normals)
		}
	}
}

func TestNormalsFaceOpenSpace(t *testing.T) {
	g := uniformGrid(4, 1)
	for z := 0; z < 4; z++ {
		for x := 0; x < 4; x++ {
			g.Set(x, 0, z, voxel.Voxel{Density: -1})
			g.Set(x, 1, z, voxel.Voxel{Density: -1})
		}
	}
	mesh := Extract(g, Options{})
	normals := RecalculateNormals(mesh.Positions, mesh.Indices)

	for i := 0; i < mesh.VertexCount(); i++ {
		if normals[i*3+1] <= 0 {
			t.Fatalf("Floor surface normal should point up, got %v", normals[i*3:i*3+3])
		}
	}
}
