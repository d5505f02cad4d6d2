package export

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"GopherTerrain/internal/meshing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/klauspost/compress/gzip"
)

const (
	meshMagic   = uint32(0x4D455348) // "MESH"
	meshVersion = uint32(1)

	flagNormals = 1 << 0
	flagColors  = 1 << 1
)

// EncodeMesh writes a chunk mesh and its world origin in the compressed
// binary mesh format.
func EncodeMesh(origin mgl32.Vec3, mesh *meshing.Mesh) ([]byte, error) {
	if mesh == nil {
		return nil, fmt.Errorf("export: nil mesh")
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)

	flags := uint32(0)
	if len(mesh.Normals) > 0 {
		flags |= flagNormals
	}
	if len(mesh.Colors) > 0 {
		flags |= flagColors
	}

	for _, v := range []uint32{meshMagic, meshVersion, flags} {
		if err := binary.Write(gz, binary.LittleEndian, v); err != nil {
			return nil, err
		}
	}
	if err := binary.Write(gz, binary.LittleEndian, [3]float32(origin)); err != nil {
		return nil, err
	}
	if err := writeFloat32Slice(gz, mesh.Positions); err != nil {
		return nil, err
	}
	if flags&flagColors != 0 {
		if err := writeFloat32Slice(gz, mesh.Colors); err != nil {
			return nil, err
		}
	}
	if flags&flagNormals != 0 {
		if err := writeFloat32Slice(gz, mesh.Normals); err != nil {
			return nil, err
		}
	}
	if err := writeUint32Slice(gz, mesh.Indices); err != nil {
		return nil, err
	}

	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeMesh reads data produced by EncodeMesh.
func DecodeMesh(data []byte) (mgl32.Vec3, *meshing.Mesh, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return mgl32.Vec3{}, nil, fmt.Errorf("export: gzip reader: %w", err)
	}
	defer gz.Close()

	var header [3]uint32
	if err := binary.Read(gz, binary.LittleEndian, &header); err != nil {
		return mgl32.Vec3{}, nil, fmt.Errorf("export: header: %w", err)
	}
	if header[0] != meshMagic {
		return mgl32.Vec3{}, nil, fmt.Errorf("export: invalid mesh magic: %x", header[0])
	}
	if header[1] != meshVersion {
		return mgl32.Vec3{}, nil, fmt.Errorf("export: unsupported mesh version: %d", header[1])
	}
	flags := header[2]

	var origin [3]float32
	if err := binary.Read(gz, binary.LittleEndian, &origin); err != nil {
		return mgl32.Vec3{}, nil, fmt.Errorf("export: origin: %w", err)
	}

	mesh := &meshing.Mesh{}
	if mesh.Positions, err = readFloat32Slice(gz); err != nil {
		return mgl32.Vec3{}, nil, fmt.Errorf("export: positions: %w", err)
	}
	if flags&flagColors != 0 {
		if mesh.Colors, err = readFloat32Slice(gz); err != nil {
			return mgl32.Vec3{}, nil, fmt.Errorf("export: colors: %w", err)
		}
	}
	if flags&flagNormals != 0 {
		if mesh.Normals, err = readFloat32Slice(gz); err != nil {
			return mgl32.Vec3{}, nil, fmt.Errorf("export: normals: %w", err)
		}
	}
	if mesh.Indices, err = readUint32Slice(gz); err != nil {
		return mgl32.Vec3{}, nil, fmt.Errorf("export: indices: %w", err)
	}
	for _, idx := range mesh.Indices {
		if int(idx) >= mesh.VertexCount() {
			return mgl32.Vec3{}, nil, fmt.Errorf("export: index %d out of range for %d vertices", idx, mesh.VertexCount())
		}
	}
	return mgl32.Vec3(origin), mesh, nil
}

// Helper functions for binary encoding
func writeFloat32Slice(w io.Writer, data []float32) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(data))); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, data)
}

func writeUint32Slice(w io.Writer, data []uint32) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(data))); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, data)
}

// maxSliceLen bounds allocations when reading corrupt input.
const maxSliceLen = 1 << 26

func readCount(r io.Reader) (int, error) {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return 0, err
	}
	if count > maxSliceLen {
		return 0, fmt.Errorf("slice length %d exceeds limit", count)
	}
	return int(count), nil
}

func readFloat32Slice(r io.Reader) ([]float32, error) {
	count, err := readCount(r)
	if err != nil {
		return nil, err
	}
	data := make([]float32, count)
	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		return nil, err
	}
	return data, nil
}

func readUint32Slice(r io.Reader) ([]uint32, error) {
	count, err := readCount(r)
	if err != nil {
		return nil, err
	}
	data := make([]uint32, count)
	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		return nil, err
	}
	return data, nil
}
