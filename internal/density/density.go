// Package density defines the scalar field the terrain surface is extracted
// from. Samples are negative inside solid material and non-negative in open
// space, so the surface is the zero isolevel.
package density

import (
	"math"
	"math/rand"

	"GopherTerrain/internal/voxel"

	perlin "github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Params tunes the generator. Everything except Seed and MaxTerrainHeight has
// a sensible default in DefaultParams.
type Params struct {
	Seed             int64
	MaxTerrainHeight float64

	HeightScale      float64 // horizontal frequency of the height map
	HeightTransition float64 // vertical distance over which solid fades to open
	BiomeScale       float64
	CaveScale        float64
	CaveThreshold    float64 // |cave noise| below this carves
	CaveFadeDepth    float64 // caves reach full strength this far below the surface
	OverhangStrength float64
	OverhangBand     float64 // overhangs only appear within this distance of the surface
	SnowLine         float64 // fraction of MaxTerrainHeight
	BeachLine        float64
}

func DefaultParams(seed int64, maxTerrainHeight float64) Params {
	return Params{
		Seed:             seed,
		MaxTerrainHeight: maxTerrainHeight,
		HeightScale:      1.0 / 96.0,
		HeightTransition: 4,
		BiomeScale:       1.0 / 256.0,
		CaveScale:        1.0 / 24.0,
		CaveThreshold:    0.12,
		CaveFadeDepth:    10,
		OverhangStrength: 0.6,
		OverhangBand:     8,
		SnowLine:         0.8,
		BeachLine:        0.12,
	}
}

// Field is a deterministic density function. It holds only read-only noise
// tables, so Sample may be called from any number of goroutines.
type Field struct {
	params Params

	height *perlin.Perlin
	biome  opensimplex.Noise
	caves  *improvedPerlin

	amplitude float64
	exponent  float64
}

func New(p Params) *Field {
	// Amplitude and exponent curves depend on the seed so different worlds
	// differ in character, not just in layout.
	rng := rand.New(rand.NewSource(p.Seed))
	amplitude := 0.55 + 0.4*rng.Float64()
	exponent := 1.1 + 1.2*rng.Float64()

	return &Field{
		params:    p,
		height:    perlin.NewPerlin(2, 2, 4, p.Seed),
		biome:     opensimplex.New(p.Seed ^ 0x5DEECE66D),
		caves:     newImprovedPerlin(p.Seed + 1),
		amplitude: amplitude,
		exponent:  exponent,
	}
}

// SurfaceHeight is the height-map term at a column, in sample units.
func (f *Field) SurfaceHeight(x, z float64) float64 {
	s := f.params.HeightScale
	n := f.height.Noise2D(x*s, z*s)
	h := clamp01((n + 1) * 0.5)
	return math.Pow(h, f.exponent) * f.amplitude * f.params.MaxTerrainHeight
}

// biomeWeight is 0 for plain rolling terrain and 1 for cave-riddled cliffs.
func (f *Field) biomeWeight(x, z float64) float64 {
	s := f.params.BiomeScale
	b := clamp01((f.biome.Eval2(x*s, z*s) + 1) * 0.5)
	return smoothstep(0.35, 0.65, b)
}

// Sample returns the density at a global sample coordinate, in [-1, 1].
func (f *Field) Sample(x, y, z float64) float32 {
	p := &f.params
	if y >= p.MaxTerrainHeight {
		return 1
	}

	surface := f.SurfaceHeight(x, z)
	depth := surface - y

	// Solid amount in [0, 1] before inversion.
	solid := clamp01(depth/p.HeightTransition + 0.5)

	weight := f.biomeWeight(x, z)
	if weight > 0 {
		cs := p.CaveScale
		turb := f.caves.fractal(x*cs, y*cs, z*cs, 3, 0.5)

		if band := 1 - math.Abs(depth)/p.OverhangBand; band > 0 {
			solid += turb * p.OverhangStrength * weight * band
		}

		caveFade := clamp01(depth / p.CaveFadeDepth)
		if caveFade > 0 && p.CaveThreshold > 0 {
			carve := 1 - smoothstep(0, p.CaveThreshold, math.Abs(turb))
			solid -= carve * weight * caveFade
		}
	}

	solid = clamp01(solid)
	return float32(1 - 2*solid)
}

// Voxel samples density and tags the result with a material.
func (f *Field) Voxel(x, y, z float64) voxel.Voxel {
	d := f.Sample(x, y, z)
	return voxel.Voxel{Density: d, Material: f.materialAt(y, f.SurfaceHeight(x, z))}
}

func (f *Field) materialAt(y, surface float64) voxel.Material {
	p := &f.params
	switch {
	case y > p.SnowLine*p.MaxTerrainHeight:
		return voxel.Snow
	case surface < p.BeachLine*p.MaxTerrainHeight:
		return voxel.Sand
	case surface-y < 1.5:
		return voxel.Grass
	case surface-y < 5:
		return voxel.Dirt
	}
	return voxel.Stone
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func smoothstep(edge0, edge1, x float64) float64 {
	t := clamp01((x - edge0) / (edge1 - edge0))
	return t * t * (3 - 2*t)
}
