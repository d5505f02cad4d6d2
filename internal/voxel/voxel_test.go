package voxel

import "testing"

func TestGridIndexLayout(t *testing.T) {
	g := NewGrid(4)

	if len(g.Voxels) != 64 {
		t.Fatalf("Expected 64 voxels, got %d", len(g.Voxels))
	}
	if got := g.Index(1, 2, 3); got != 3*16+2*4+1 {
		t.Errorf("Expected index %d, got %d", 3*16+2*4+1, got)
	}
}

func TestGridFillOrder(t *testing.T) {
	g := NewGrid(3)
	g.Fill(func(x, y, z int) Voxel {
		return Voxel{Density: float32(x + 10*y + 100*z)}
	})

	for z := 0; z < 3; z++ {
		for y := 0; y < 3; y++ {
			for x := 0; x < 3; x++ {
				want := float32(x + 10*y + 100*z)
				if got := g.At(x, y, z).Density; got != want {
					t.Errorf("Density(%d,%d,%d) = %v, want %v", x, y, z, got, want)
				}
			}
		}
	}
}

func TestGridCloneIsIndependent(t *testing.T) {
	g := NewGrid(2)
	c := g.Clone()
	c.Set(0, 0, 0, Voxel{Density: -1, Material: Stone})

	if g.At(0, 0, 0).Density != 0 {
		t.Error("Clone should not share storage with the original")
	}
}

func TestOverlayRoundTrip(t *testing.T) {
	o := NewOverlay()
	at := LocalCoord{1, 2, 3}
	o.Set(at, Voxel{Density: -0.25, Material: Dirt})

	v, ok := o.Get(at)
	if !ok {
		t.Fatal("Expected overlay entry")
	}
	if v.Density != -0.25 || v.Material != Dirt {
		t.Errorf("Expected (-0.25, dirt), got (%v, %v)", v.Density, v.Material)
	}
}

func TestOverlayClearReleasesEntries(t *testing.T) {
	o := NewOverlay()
	o.Set(LocalCoord{}, Voxel{Density: 1})
	o.Clear()

	if o.Len() != 0 {
		t.Errorf("Expected empty overlay, got %d entries", o.Len())
	}
	o.Set(LocalCoord{1, 1, 1}, Voxel{Density: 1})
	if o.Len() != 1 {
		t.Error("Overlay should accept writes after Clear")
	}
}

func TestOverlaySnapshotIsIndependent(t *testing.T) {
	o := NewOverlay()
	o.Set(LocalCoord{}, Voxel{Density: 1})
	s := o.Snapshot()
	o.Set(LocalCoord{1, 0, 0}, Voxel{Density: 1})

	if s.Len() != 1 {
		t.Errorf("Snapshot should not see later writes, got %d entries", s.Len())
	}
}

func TestGridApplyOverlay(t *testing.T) {
	g := NewGrid(2)
	o := NewOverlay()
	o.Set(LocalCoord{1, 1, 1}, Voxel{Density: -1, Material: Stone})
	o.Set(LocalCoord{5, 0, 0}, Voxel{Density: -1})

	g.Apply(o)

	if g.At(1, 1, 1).Material != Stone {
		t.Error("Overlay entry was not applied")
	}
}

func TestLocalCoordClamp(t *testing.T) {
	got := LocalCoord{-3, 4, 99}.Clamp(8)
	want := LocalCoord{0, 4, 7}
	if got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestMaterialString(t *testing.T) {
	if Stone.String() != "stone" {
		t.Errorf("Expected stone, got %s", Stone.String())
	}
	if Material(200).String() != "material(200)" {
		t.Errorf("Unexpected name %s", Material(200).String())
	}
}
