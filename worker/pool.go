// Package worker runs background tile computations for the fractal canvas.
//
// The pool distributes tile jobs across per-worker queues with work
// stealing, so slow tiles (deep-zoom regions) do not serialize the rest of
// the frame. Its one promise to the session layer is cancellation:
// CancelTiles(nil) drops every queued job and signals every in-flight job
// through its context, fire-and-forget.
package worker

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/gogpu/fractalview/render"
)

// JobFunc computes one tile. Implementations must watch ctx and abandon
// work promptly once it is cancelled.
type JobFunc func(ctx context.Context)

// job is one queued tile computation.
type job struct {
	id     uuid.UUID
	tile   render.TileID
	run    JobFunc
	ctx    context.Context
	cancel context.CancelFunc
}

// Pool is a pool of goroutines computing fractal tiles.
//
// Pool is safe for concurrent use.
type Pool struct {
	workers   int
	queues    []chan *job
	done      chan struct{}
	wg        sync.WaitGroup
	running   atomic.Bool
	nextQueue atomic.Uint64
	inflight  sync.WaitGroup

	mu   sync.Mutex
	jobs map[uuid.UUID]*job // queued or running, not yet finished
}

// NewPool creates a pool with the given number of workers and starts them.
// workers <= 0 means GOMAXPROCS.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// Buffer a few jobs per worker to hide submission latency.
	queueSize := workers * 4
	if queueSize < 8 {
		queueSize = 8
	}

	p := &Pool{
		workers: workers,
		queues:  make([]chan *job, workers),
		done:    make(chan struct{}),
		jobs:    make(map[uuid.UUID]*job),
	}
	for i := range p.queues {
		p.queues[i] = make(chan *job, queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

// Submit queues one tile computation and returns its job id.
// Returns uuid.Nil when the pool is closed.
func (p *Pool) Submit(tile render.TileID, run JobFunc) uuid.UUID {
	if run == nil || !p.running.Load() {
		return uuid.Nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	j := &job{
		id:     uuid.New(),
		tile:   tile,
		run:    run,
		ctx:    ctx,
		cancel: cancel,
	}

	p.mu.Lock()
	p.jobs[j.id] = j
	p.mu.Unlock()
	p.inflight.Add(1)

	// Round-robin queue selection; stealing evens out imbalance.
	idx := int(p.nextQueue.Add(1)) % p.workers
	select {
	case p.queues[idx] <- j:
	case <-p.done:
		p.finish(j)
	}
	return j.id
}

// CancelTiles cancels background computation. A nil or empty slice cancels
// every job; otherwise only jobs for the listed tiles are cancelled.
// Queued jobs are dropped before execution; running jobs see their context
// cancelled. CancelTiles does not wait for running jobs to notice.
func (p *Pool) CancelTiles(tiles []render.TileID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(tiles) == 0 {
		for _, j := range p.jobs {
			j.cancel()
		}
		return
	}

	want := make(map[render.TileID]struct{}, len(tiles))
	for _, t := range tiles {
		want[t] = struct{}{}
	}
	for _, j := range p.jobs {
		if _, ok := want[j.tile]; ok {
			j.cancel()
		}
	}
}

// Wait blocks until every submitted job has finished or been dropped.
func (p *Pool) Wait() {
	p.inflight.Wait()
}

// Close cancels everything and stops the workers. The pool cannot be
// reused afterwards.
func (p *Pool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	p.CancelTiles(nil)
	close(p.done)
	p.wg.Wait()

	// Drop anything still queued.
	for _, q := range p.queues {
		for drained := false; !drained; {
			select {
			case j := <-q:
				p.finish(j)
			default:
				drained = true
			}
		}
	}
}

// worker is the main loop for one goroutine: own queue first, then steal.
func (p *Pool) worker(id int) {
	defer p.wg.Done()
	myQueue := p.queues[id]

	for {
		select {
		case <-p.done:
			return
		case j := <-myQueue:
			p.execute(j)
		default:
			if j := p.steal(id); j != nil {
				p.execute(j)
			} else {
				select {
				case <-p.done:
					return
				case j := <-myQueue:
					p.execute(j)
				}
			}
		}
	}
}

// steal takes one job from another worker's queue.
func (p *Pool) steal(self int) *job {
	for i := 1; i < p.workers; i++ {
		victim := (self + i) % p.workers
		select {
		case j := <-p.queues[victim]:
			return j
		default:
		}
	}
	return nil
}

// execute runs one job unless it was cancelled while queued.
func (p *Pool) execute(j *job) {
	if j == nil {
		return
	}
	if j.ctx.Err() == nil {
		j.run(j.ctx)
	}
	p.finish(j)
}

// finish releases a job's bookkeeping.
func (p *Pool) finish(j *job) {
	if j == nil {
		return
	}
	j.cancel()
	p.mu.Lock()
	delete(p.jobs, j.id)
	p.mu.Unlock()
	p.inflight.Done()
}
