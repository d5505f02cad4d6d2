package export

import (
	"bufio"
	"fmt"
	"io"

	"GopherTerrain/internal/meshing"

	"github.com/go-gl/mathgl/mgl32"
)

// WriteOBJ writes mesh as a Wavefront OBJ object. Positions are translated by
// origin into world space. Vertex colours use the common "v x y z r g b"
// extension and normals are written when present.
func WriteOBJ(w io.Writer, name string, origin mgl32.Vec3, mesh *meshing.Mesh) error {
	if mesh == nil {
		return fmt.Errorf("export: nil mesh %q", name)
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "o %s\n", name)

	hasColors := len(mesh.Colors) >= mesh.VertexCount()*4
	for i := 0; i < mesh.VertexCount(); i++ {
		p := mesh.Vertex(i).Add(origin)
		if hasColors {
			c := mesh.Colors[i*4 : i*4+3]
			fmt.Fprintf(bw, "v %g %g %g %g %g %g\n", p[0], p[1], p[2], c[0], c[1], c[2])
		} else {
			fmt.Fprintf(bw, "v %g %g %g\n", p[0], p[1], p[2])
		}
	}

	hasNormals := len(mesh.Normals) == len(mesh.Positions)
	if hasNormals {
		for i := 0; i+2 < len(mesh.Normals); i += 3 {
			fmt.Fprintf(bw, "vn %g %g %g\n", mesh.Normals[i], mesh.Normals[i+1], mesh.Normals[i+2])
		}
	}

	// OBJ indices are 1-based.
	for t := 0; t < mesh.TriangleCount(); t++ {
		a, b, c := mesh.Indices[t*3]+1, mesh.Indices[t*3+1]+1, mesh.Indices[t*3+2]+1
		if hasNormals {
			fmt.Fprintf(bw, "f %d//%d %d//%d %d//%d\n", a, a, b, b, c, c)
		} else {
			fmt.Fprintf(bw, "f %d %d %d\n", a, b, c)
		}
	}
	return bw.Flush()
}
