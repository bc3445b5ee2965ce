// Package dispatch provides a serial execution queue modelling the host
// application's UI-affinity thread: tasks run one at a time, in submission
// order, on a single goroutine. All terminal flow deliveries are marshalled
// through it, including grant-exchange completions arriving from network
// goroutines.
package dispatch

import "sync"

const defaultQueueDepth = 128

type Queue struct {
	mu     sync.Mutex
	tasks  chan func()
	closed bool
	done   chan struct{}
}

func NewQueue() *Queue {
	q := &Queue{
		tasks: make(chan func(), defaultQueueDepth),
		done:  make(chan struct{}),
	}
	go q.run()
	return q
}

// Async submits a task for ordered execution. Tasks submitted after Close are
// dropped.
func (q *Queue) Async(task func()) {
	if q == nil || task == nil {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.tasks <- task
}

// Sync submits a task and waits for it to run. Primarily useful as a barrier
// in tests and teardown paths.
func (q *Queue) Sync(task func()) {
	if q == nil || task == nil {
		return
	}
	ran := make(chan struct{})
	q.Async(func() {
		defer close(ran)
		task()
	})
	select {
	case <-ran:
	case <-q.done:
	}
}

// Close stops accepting tasks and waits for queued ones to finish.
func (q *Queue) Close() {
	if q == nil {
		return
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()
	<-q.done
}

func (q *Queue) run() {
	defer close(q.done)
	for task := range q.tasks {
		task()
	}
}
