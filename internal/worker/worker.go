package worker

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Task is a function that represents a background job
type Task func(ctx context.Context) error

// Pool runs non-authoritative background work: cache population and
// opportunistic purges. Nothing correctness-critical goes through it.
type Pool struct {
	taskQueue chan Task
	wg        sync.WaitGroup
	isClosing atomic.Bool // thread-safe value
}

func NewPool(size int) *Pool {
	wp := &Pool{
		taskQueue: make(chan Task, 1000), // Buffer for 1000 pending tasks
	}

	// Start the workers
	for i := 0; i < size; i++ {
		wp.wg.Add(1) // add to WaitGroup
		go wp.startWorker()
	}

	return wp
}

func (wp *Pool) startWorker() {
	defer wp.wg.Done() // signal when worker finished
	for task := range wp.taskQueue {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := task(ctx); err != nil { // run task
			log.Printf("Worker task failed: %v", err)
		}
		cancel()
	}
}

func (wp *Pool) Submit(t Task) {
	if wp.isClosing.Load() {
		log.Println("Warning: task submitted during shutdown, dropping.")
		return
	}
	select {
	case wp.taskQueue <- t: // send task to worker pool
	default:
		log.Println("Task queue full, dropping task!")
	}
}

// Shutdown closes the queue and waits for workers to finish
func (wp *Pool) Shutdown() {
	wp.isClosing.Store(true)
	close(wp.taskQueue) // Stop accepting new tasks
	wp.wg.Wait()        // Wait for all active workers to finish tasks
}
