package task

import (
	"runtime"
	"sync"
)

// Pool is a bounded worker pool. Model loads and optional per-sentence work
// share it; the bound keeps inference-session construction from oversubscribing
// the host.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

// NewPool starts a pool with the given number of workers. A size below one
// uses the platform core count.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	p := &Pool{tasks: make(chan func())}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer p.wg.Done()
			for fn := range p.tasks {
				fn()
			}
		}()
	}
	return p
}

// Go schedules fn on the pool, blocking while all workers are busy.
func (p *Pool) Go(fn func()) {
	p.tasks <- fn
}

// Close stops accepting work and waits for in-flight tasks to finish.
func (p *Pool) Close() {
	p.once.Do(func() { close(p.tasks) })
	p.wg.Wait()
}
