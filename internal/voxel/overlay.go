package voxel

// Overlay is a sparse set of per-voxel overrides layered over generated
// density. Entries always win over the generator.
type Overlay struct {
	entries map[LocalCoord]Voxel
}

func NewOverlay() *Overlay {
	return &Overlay{entries: make(map[LocalCoord]Voxel)}
}

func (o *Overlay) Get(c LocalCoord) (Voxel, bool) {
	v, ok := o.entries[c]
	return v, ok
}

func (o *Overlay) Set(c LocalCoord, v Voxel) {
	if o.entries == nil {
		o.entries = make(map[LocalCoord]Voxel)
	}
	o.entries[c] = v
}

func (o *Overlay) Len() int {
	return len(o.entries)
}

// Clear drops the backing map so its memory is released immediately.
func (o *Overlay) Clear() {
	o.entries = nil
}

func (o *Overlay) Range(fn func(LocalCoord, Voxel)) {
	for c, v := range o.entries {
		fn(c, v)
	}
}

// Snapshot copies the overlay for use off the owning goroutine.
func (o *Overlay) Snapshot() *Overlay {
	s := &Overlay{entries: make(map[LocalCoord]Voxel, len(o.entries))}
	for c, v := range o.entries {
		s.entries[c] = v
	}
	return s
}
