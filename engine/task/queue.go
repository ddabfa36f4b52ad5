package task

import "sync"

// Queue is an unbounded FIFO of jobs shared by any number of producers and one consumer.
// Push and TryPop never block on each other for longer than the critical section.
type Queue struct {
	mu   sync.Mutex
	jobs []Job
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends job to the queue.
func (q *Queue) Push(job Job) {
	if job == nil {
		panic("task: cannot push a nil job")
	}
	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	q.mu.Unlock()
}

// TryPop removes and returns the oldest job.
//
// Returns:
//   - Job: the oldest job, nil if the queue is empty
//   - bool: false if the queue is empty
func (q *Queue) TryPop() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return nil, false
	}
	job := q.jobs[0]
	q.jobs[0] = nil
	q.jobs = q.jobs[1:]
	if len(q.jobs) == 0 {
		q.jobs = nil
	}
	return job, true
}

// Len returns the number of queued jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}
