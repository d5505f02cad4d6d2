// Package export writes committed terrain meshes to disk, as OBJ for
// inspection and as gzip-compressed binary meshes for reloading.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"GopherTerrain/internal/logger"
	"GopherTerrain/internal/meshing"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Entry is one mesh to export.
type Entry struct {
	Name   string
	Origin mgl32.Vec3
	Mesh   *meshing.Mesh
}

// WriteDir writes <name>.obj and <name>.mesh.gz for every entry into dir,
// creating it if needed. A failing entry does not stop the others; every
// failure is returned in the combined error.
func WriteDir(dir string, entries []Entry) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("export: create %s: %w", dir, err)
	}

	var errs error
	written := 0
	for _, e := range entries {
		if e.Mesh.Empty() {
			continue
		}
		if err := writeEntry(dir, e); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		written++
	}

	logger.Log.Info("Exported terrain meshes",
		zap.String("dir", dir),
		zap.Int("written", written),
		zap.Int("failed", len(multierr.Errors(errs))))
	return errs
}

func writeEntry(dir string, e Entry) (err error) {
	f, err := os.Create(filepath.Join(dir, e.Name+".obj"))
	if err != nil {
		return fmt.Errorf("export: %s: %w", e.Name, err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	if err := WriteOBJ(f, e.Name, e.Origin, e.Mesh); err != nil {
		return fmt.Errorf("export: %s obj: %w", e.Name, err)
	}

	data, err := EncodeMesh(e.Origin, e.Mesh)
	if err != nil {
		return fmt.Errorf("export: %s encode: %w", e.Name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, e.Name+".mesh.gz"), data, 0o644); err != nil {
		return fmt.Errorf("export: %s: %w", e.Name, err)
	}
	return nil
}
