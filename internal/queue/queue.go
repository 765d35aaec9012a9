// Package queue runs jobs one at a time, in the order they were enqueued, on a
// single goroutine. The queue is unbounded so Enqueue never blocks.
package queue

import (
	"sync"

	"github.com/pkg/errors"
)

var ErrClosed = errors.New("queue closed")

type Job func()

type Queue struct {
	sync.Mutex
	cond    *sync.Cond
	jobs    []Job
	closed  bool
	discard bool
	done    chan struct{}
}

// Launch starts the run loop.
func Launch() *Queue {
	q := &Queue{
		done: make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.Mutex)

	go q.runLoop()

	return q
}

func (q *Queue) Enqueue(job Job) error {
	q.Lock()
	defer q.Unlock()

	if q.closed {
		return ErrClosed
	}

	q.jobs = append(q.jobs, job)
	q.cond.Signal()
	return nil
}

func (q *Queue) Len() int {
	q.Lock()
	defer q.Unlock()
	return len(q.jobs)
}

// Close runs the remaining jobs and waits for the loop to exit.
func (q *Queue) Close() {
	q.shutdown(false)
}

// Stop drops the remaining jobs and waits for the running job to finish.
// Stop must not be called from inside a job.
func (q *Queue) Stop() {
	q.shutdown(true)
}

// Abandon drops the remaining jobs without waiting; safe from inside a job.
func (q *Queue) Abandon() {
	q.Lock()
	defer q.Unlock()
	q.closed = true
	q.discard = true
	q.jobs = nil
	q.cond.Signal()
}

func (q *Queue) shutdown(discard bool) {
	q.Lock()
	q.closed = true
	if discard {
		q.discard = true
		q.jobs = nil
	}
	q.cond.Signal()
	q.Unlock()

	<-q.done
}

func (q *Queue) runLoop() {
	defer close(q.done)

	for {
		job, ok := q.next()

		if !ok {
			return
		}

		job()
	}
}

func (q *Queue) next() (Job, bool) {
	q.Lock()
	defer q.Unlock()

	for len(q.jobs) == 0 && !q.closed {
		q.cond.Wait()
	}

	if q.discard || len(q.jobs) == 0 {
		return nil, false
	}

	job := q.jobs[0]
	q.jobs[0] = nil
	q.jobs = q.jobs[1:]
	return job, true
}
