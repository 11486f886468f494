package bot

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/preston-bernstein/ranking-bot/internal/logging"
)

const (
	defaultPoolWorkers = 4
	defaultPoolQueue   = 64
)

// Pool runs inbound chat requests on a fixed set of workers with a bounded queue.
// It is independent of the engine's polling cycle.
type Pool struct {
	jobs   chan func()
	logger *slog.Logger
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewPool starts workers goroutines draining a queue of the given size.
func NewPool(workers, queue int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = defaultPoolWorkers
	}
	if queue <= 0 {
		queue = defaultPoolQueue
	}
	p := &Pool{jobs: make(chan func(), queue), logger: logger}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.work()
	}
	return p
}

func (p *Pool) work() {
	defer p.wg.Done()
	for job := range p.jobs {
		p.run(job)
	}
}

func (p *Pool) run(job func()) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error(p.logger, "inbound handler panicked", fmt.Errorf("%v", r))
		}
	}()
	job()
}

// Submit enqueues job without blocking. It returns false when the queue is full or
// the pool is closed.
func (p *Pool) Submit(job func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.jobs <- job:
		return true
	default:
		return false
	}
}

// Close stops accepting work and waits for queued jobs to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()
	p.wg.Wait()
}
