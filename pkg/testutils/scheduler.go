package testutils

import (
	"sync"
	"time"
)

// ManualScheduler is a virtual clock for deterministic timer tests.
// Callbacks only run inside Advance, on the caller's goroutine.
type ManualScheduler struct {
	mu   sync.Mutex
	now  time.Duration
	jobs map[int]*manualJob
	seq  int
}

type manualJob struct {
	seq   int
	every time.Duration
	next  time.Duration
	fn    func()
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{jobs: make(map[int]*manualJob)}
}

func (m *ManualScheduler) Every(d time.Duration, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	id := m.seq
	m.jobs[id] = &manualJob{seq: id, every: d, next: m.now + d, fn: fn}

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.jobs, id)
	}
}

// Advance moves virtual time forward by d, firing every callback that comes due in order.
func (m *ManualScheduler) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d

	for {
		var due *manualJob
		for _, j := range m.jobs {
			if j.next > target {
				continue
			}
			if due == nil || j.next < due.next || (j.next == due.next && j.seq < due.seq) {
				due = j
			}
		}
		if due == nil {
			break
		}

		m.now = due.next
		due.next += due.every
		fn := due.fn

		m.mu.Unlock()
		fn()
		m.mu.Lock()
	}

	m.now = target
	m.mu.Unlock()
}

// Active is the number of schedules that have not been stopped.
func (m *ManualScheduler) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}
