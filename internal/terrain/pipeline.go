package terrain

import (
	"sync"

	"GopherTerrain/internal/logger"
	"GopherTerrain/internal/meshing"
	"GopherTerrain/internal/voxel"

	"github.com/alitto/pond/v2"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// token identifies one extraction request. A chunk accepts a result only if
// the result's token is still the chunk's current one and was never
// cancelled.
type token struct {
	id        uint64
	cancelled *atomic.Bool
}

func newToken(id uint64) *token {
	return &token{id: id, cancelled: atomic.NewBool(false)}
}

func (t *token) cancel() {
	if t != nil {
		t.cancelled.Store(true)
	}
}

func (t *token) Cancelled() bool {
	return t == nil || t.cancelled.Load()
}

// extraction is a self-contained work item. Workers never touch the chunk
// itself, only this snapshot.
type extraction struct {
	chunk   *Chunk
	token   *token
	coord   voxel.Coord
	size    int
	grid    *voxel.Grid    // copy of the live grid; nil means fill from the sampler
	overlay *voxel.Overlay // applied after a fill
	opts    meshing.Options
}

type result struct {
	chunk *Chunk
	token *token
	grid  *voxel.Grid // freshly filled grid, nil if the job reused one
	mesh  *meshing.Mesh
}

// pipeline runs extractions on a pond worker pool and hands results back
// through a single-consumer completion queue.
type pipeline struct {
	pool    pond.Pool
	sampler Sampler

	mu   sync.Mutex
	done []result

	wg       sync.WaitGroup
	inFlight *atomic.Int64
	dropped  *atomic.Uint64

	// beforeRun is a test hook invoked on the worker before any work.
	beforeRun func(*extraction)
}

func newPipeline(workers int, sampler Sampler) *pipeline {
	return &pipeline{
		pool:     pond.NewPool(workers),
		sampler:  sampler,
		inFlight: atomic.NewInt64(0),
		dropped:  atomic.NewUint64(0),
	}
}

func (p *pipeline) submit(job *extraction) {
	p.wg.Add(1)
	p.inFlight.Inc()
	p.pool.Submit(func() {
		defer p.wg.Done()
		defer p.inFlight.Dec()
		p.run(job)
	})
}

func (p *pipeline) run(job *extraction) {
	if p.beforeRun != nil {
		p.beforeRun(job)
	}
	if job.token.Cancelled() {
		p.dropped.Inc()
		return
	}

	res := result{chunk: job.chunk, token: job.token}
	grid := job.grid
	if grid == nil {
		grid = p.fill(job.coord, job.size)
		grid.Apply(job.overlay)
		res.grid = grid
	}

	res.mesh = meshing.Extract(grid, job.opts)

	if job.token.Cancelled() {
		p.dropped.Inc()
		return
	}

	p.mu.Lock()
	p.done = append(p.done, res)
	p.mu.Unlock()
}

// fill samples the grid of the chunk at coord. Local voxel i sits at global
// sample coord*(size-1) + i - (size-1)/2, so grids are centred on their
// anchor and neighbours share one voxel layer.
func (p *pipeline) fill(coord voxel.Coord, size int) *voxel.Grid {
	grid := voxel.NewGrid(size)
	half := float64(size-1) / 2
	stride := float64(size - 1)
	bx := float64(coord.X)*stride - half
	by := float64(coord.Y)*stride - half
	bz := float64(coord.Z)*stride - half

	grid.Fill(func(x, y, z int) voxel.Voxel {
		return p.sampler.Voxel(bx+float64(x), by+float64(y), bz+float64(z))
	})
	return grid
}

// drain hands every completed result to the caller and empties the queue.
func (p *pipeline) drain() []result {
	p.mu.Lock()
	out := p.done
	p.done = nil
	p.mu.Unlock()
	return out
}

// wait blocks until every submitted extraction has finished or been dropped.
func (p *pipeline) wait() {
	p.wg.Wait()
}

func (p *pipeline) stop() {
	p.pool.StopAndWait()
	logger.Log.Debug("Extraction pool stopped",
		zap.Uint64("dropped", p.dropped.Load()))
}
