package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"GopherTerrain/internal/meshing"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/multierr"
)

func triangleMesh() *meshing.Mesh {
	positions := []float32{0, 0, 0, 0, 0, 1, 1, 0, 0}
	indices := []uint32{0, 1, 2}
	return &meshing.Mesh{
		Positions: positions,
		Colors:    []float32{0.5, 0.5, 0.5, 1, 0.5, 0.5, 0.5, 1, 0.5, 0.5, 0.5, 1},
		Indices:   indices,
		Normals:   meshing.RecalculateNormals(positions, indices),
	}
}

func TestMeshBinaryEncoding(t *testing.T) {
	mesh := triangleMesh()
	origin := mgl32.Vec3{7, 0, -7}

	data, err := EncodeMesh(origin, mesh)
	if err != nil {
		t.Fatalf("EncodeMesh failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("EncodeMesh returned empty data")
	}

	gotOrigin, got, err := DecodeMesh(data)
	if err != nil {
		t.Fatalf("DecodeMesh failed: %v", err)
	}
	if gotOrigin != origin {
		t.Errorf("Expected origin %v, got %v", origin, gotOrigin)
	}
	if got.VertexCount() != 3 || got.TriangleCount() != 1 {
		t.Errorf("Expected 3 vertices and 1 triangle, got %d and %d", got.VertexCount(), got.TriangleCount())
	}
	if len(got.Colors) != len(mesh.Colors) {
		t.Errorf("Expected %d colour components, got %d", len(mesh.Colors), len(got.Colors))
	}
	if len(got.Normals) != 9 || got.Normals[1] != 1 {
		t.Errorf("Expected upward normals to survive encoding, got %v", got.Normals)
	}
}

func TestMeshBinaryWithoutOptionalBuffers(t *testing.T) {
	mesh := &meshing.Mesh{Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, Indices: []uint32{0, 1, 2}}

	data, err := EncodeMesh(mgl32.Vec3{}, mesh)
	if err != nil {
		t.Fatalf("EncodeMesh failed: %v", err)
	}
	_, got, err := DecodeMesh(data)
	if err != nil {
		t.Fatalf("DecodeMesh failed: %v", err)
	}
	if got.Colors != nil || got.Normals != nil {
		t.Errorf("Expected no colours or normals, got %v and %v", got.Colors, got.Normals)
	}
}

func TestDecodeMeshRejectsGarbage(t *testing.T) {
	if _, _, err := DecodeMesh([]byte("not a mesh")); err == nil {
		t.Error("Expected an error for non-gzip input")
	}

	bad := triangleMesh()
	bad.Indices = []uint32{0, 1, 5}
	data, err := EncodeMesh(mgl32.Vec3{}, bad)
	if err != nil {
		t.Fatalf("EncodeMesh failed: %v", err)
	}
	if _, _, err := DecodeMesh(data); err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Errorf("Expected an out of range error, got %v", err)
	}

	if _, err := EncodeMesh(mgl32.Vec3{}, nil); err == nil {
		t.Error("Expected an error for a nil mesh")
	}
}

func TestWriteOBJ(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOBJ(&buf, "chunk_1_0_0", mgl32.Vec3{7, 0, 0}, triangleMesh()); err != nil {
		t.Fatalf("WriteOBJ failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{
		"o chunk_1_0_0",
		"v 7 0 0 0.5 0.5 0.5",
		"v 7 0 1 0.5 0.5 0.5",
		"v 8 0 0 0.5 0.5 0.5",
		"vn 0 1 0",
		"vn 0 1 0",
		"vn 0 1 0",
		"f 1//1 2//2 3//3",
	}
	if len(lines) != len(want) {
		t.Fatalf("Expected %d lines, got %d:\n%s", len(want), len(lines), buf.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("Line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}

func TestWriteDirAggregatesFailures(t *testing.T) {
	dir := t.TempDir()
	entries := []Entry{
		{Name: "chunk_0_0_0", Mesh: triangleMesh()},
		{Name: "missing/chunk_a", Mesh: triangleMesh()},
		{Name: "chunk_empty", Mesh: &meshing.Mesh{}},
		{Name: "missing/chunk_b", Mesh: triangleMesh()},
	}

	err := WriteDir(dir, entries)
	if err == nil {
		t.Fatal("Expected an error for entries in a missing directory")
	}
	if n := len(multierr.Errors(err)); n != 2 {
		t.Errorf("Expected 2 aggregated errors, got %d: %v", n, err)
	}

	for _, name := range []string{"chunk_0_0_0.obj", "chunk_0_0_0.mesh.gz"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Expected %s to be written: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "chunk_empty.obj")); !os.IsNotExist(err) {
		t.Errorf("Expected empty meshes to be skipped, got %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "chunk_0_0_0.mesh.gz"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if _, mesh, err := DecodeMesh(data); err != nil || mesh.TriangleCount() != 1 {
		t.Errorf("Expected the written mesh to decode, got %v", err)
	}
}
