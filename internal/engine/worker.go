package engine

import (
	"sync"
)

// workerPool runs units on a fixed number of goroutines fed by an unbounded
// FIFO queue. Submitting never blocks, so a running unit can always enqueue
// the work it discovers.
type workerPool struct {
	exec   func(workerID int, u unit)
	ready  *sync.Cond
	queue  []unit
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// newWorkerPool starts n workers that call exec for each submitted unit.
func newWorkerPool(n int, exec func(workerID int, u unit)) *workerPool {
	wp := &workerPool{exec: exec}
	wp.ready = sync.NewCond(&wp.mu)

	wp.wg.Add(n)
	for id := range n {
		go wp.worker(id)
	}
	return wp
}

// submit enqueues u. It returns false if the pool has been closed.
func (wp *workerPool) submit(u unit) bool {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.closed {
		return false
	}
	wp.queue = append(wp.queue, u)
	wp.ready.Signal()
	return true
}

// close stops accepting units and waits for workers to drain the queue.
func (wp *workerPool) close() {
	wp.mu.Lock()
	wp.closed = true
	wp.ready.Broadcast()
	wp.mu.Unlock()

	wp.wg.Wait()
}

func (wp *workerPool) worker(id int) {
	defer wp.wg.Done()
	for {
		u, ok := wp.next()
		if !ok {
			return
		}
		wp.exec(id, u)
	}
}

// next blocks until a unit is available. It returns false once the pool is
// closed and the queue is empty.
func (wp *workerPool) next() (unit, bool) {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	for len(wp.queue) == 0 && !wp.closed {
		wp.ready.Wait()
	}
	if len(wp.queue) == 0 {
		return unit{}, false
	}
	u := wp.queue[0]
	wp.queue[0] = unit{} // release payload for GC
	wp.queue = wp.queue[1:]
	return u, true
}
