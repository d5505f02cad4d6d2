package density

import (
	"math"
	"math/rand"
)

// improvedPerlin is Ken Perlin's 2002 noise (quintic fade, 12 edge gradients).
// The permutation table is derived from the seed and never written after
// construction, so one instance can be shared by every extraction worker.
type improvedPerlin struct {
	perm [512]int
}

var edgeGradients = [12][3]float64{
	{1, 1, 0}, {-1, 1, 0}, {1, -1, 0}, {-1, -1, 0},
	{1, 0, 1}, {-1, 0, 1}, {1, 0, -1}, {-1, 0, -1},
	{0, 1, 1}, {0, -1, 1}, {0, 1, -1}, {0, -1, -1},
}

func newImprovedPerlin(seed int64) *improvedPerlin {
	n := &improvedPerlin{}
	rng := rand.New(rand.NewSource(seed))

	for i := 0; i < 256; i++ {
		n.perm[i] = i
	}
	// Fisher-Yates
	for i := 255; i > 0; i-- {
		j := rng.Intn(i + 1)
		n.perm[i], n.perm[j] = n.perm[j], n.perm[i]
	}
	for i := 0; i < 256; i++ {
		n.perm[256+i] = n.perm[i]
	}
	return n
}

// 6t^5 - 15t^4 + 10t^3
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}

func grad(hash int, x, y, z float64) float64 {
	g := edgeGradients[hash%12]
	return g[0]*x + g[1]*y + g[2]*z
}

// noise3 returns a value in roughly [-1, 1].
func (n *improvedPerlin) noise3(x, y, z float64) float64 {
	fx, fy, fz := math.Floor(x), math.Floor(y), math.Floor(z)
	X := int(fx) & 255
	Y := int(fy) & 255
	Z := int(fz) & 255
	x -= fx
	y -= fy
	z -= fz

	u, v, w := fade(x), fade(y), fade(z)
	p := &n.perm

	a := p[X] + Y
	aa := p[a] + Z
	ab := p[a+1] + Z
	b := p[X+1] + Y
	ba := p[b] + Z
	bb := p[b+1] + Z

	return lerp(w,
		lerp(v,
			lerp(u, grad(p[aa], x, y, z), grad(p[ba], x-1, y, z)),
			lerp(u, grad(p[ab], x, y-1, z), grad(p[bb], x-1, y-1, z))),
		lerp(v,
			lerp(u, grad(p[aa+1], x, y, z-1), grad(p[ba+1], x-1, y, z-1)),
			lerp(u, grad(p[ab+1], x, y-1, z-1), grad(p[bb+1], x-1, y-1, z-1))))
}

// fractal sums octaves of noise3 and normalises back into [-1, 1].
func (n *improvedPerlin) fractal(x, y, z float64, octaves int, persistence float64) float64 {
	value, amplitude, frequency, total := 0.0, 1.0, 1.0, 0.0
	for i := 0; i < octaves; i++ {
		value += n.noise3(x*frequency, y*frequency, z*frequency) * amplitude
		total += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	if total == 0 {
		return 0
	}
	return value / total
}
