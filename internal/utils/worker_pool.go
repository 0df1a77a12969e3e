package utils

import (
	"sync"
)

// WorkerPool fans a batch of independent tasks out over a bounded number of
// workers. The polling coordinator uses one pool per cycle so that Wait
// doubles as the cycle join point.
type WorkerPool struct {
	tasks chan func()
	wg    sync.WaitGroup
}

// NewWorkerPool starts a pool with the given number of workers.
func NewWorkerPool(workers int) *WorkerPool {
	pool := &WorkerPool{
		tasks: make(chan func(), workers),
	}

	pool.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go pool.worker()
	}

	return pool
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for task := range wp.tasks {
		task()
	}
}

// Submit queues a task for execution. It must not be called after Wait.
func (wp *WorkerPool) Submit(task func()) {
	wp.tasks <- task
}

// Wait closes the queue and blocks until every submitted task has finished.
func (wp *WorkerPool) Wait() {
	close(wp.tasks)
	wp.wg.Wait()
}
