package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"GopherTerrain/internal/config"
)

func TestRunExportsCommittedChunks(t *testing.T) {
	cfg := config.Default()
	cfg.ChunkSize = 8
	cfg.ViewDistance = 14
	cfg.Workers = 2
	cfg.MaxTerrainHeight = 6

	dir := t.TempDir()
	opts := options{ticks: 20, dt: 1.0 / 60.0, altitude: 2, digAt: 5, statsEvery: 10, exportDir: dir}
	if err := run(cfg, opts); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	objs, blobs := 0, 0
	for _, f := range files {
		switch {
		case strings.HasSuffix(f.Name(), ".obj"):
			objs++
		case strings.HasSuffix(f.Name(), ".mesh.gz"):
			blobs++
		}
	}
	if objs == 0 || objs != blobs {
		t.Errorf("Expected matching non-zero OBJ and binary exports, got %d and %d", objs, blobs)
	}
	for _, f := range files {
		if info, err := os.Stat(filepath.Join(dir, f.Name())); err != nil || info.Size() == 0 {
			t.Errorf("Expected %s to be non-empty", f.Name())
		}
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.ChunkSize = 0
	if err := run(cfg, options{ticks: 1, dt: 0.016}); err == nil {
		t.Error("Expected an error for an invalid config")
	}
}

func TestPaletteByName(t *testing.T) {
	for _, name := range []string{"", "material", "flat"} {
		if _, err := paletteByName(name); err != nil {
			t.Errorf("Expected palette %q to resolve, got %v", name, err)
		}
	}
	if _, err := paletteByName("neon"); err == nil {
		t.Error("Expected an error for an unknown palette")
	}

	cfg := config.Default()
	if err := run(cfg, options{ticks: 1, dt: 0.016, palette: "neon"}); err == nil {
		t.Error("Expected run to reject an unknown palette")
	}
}
