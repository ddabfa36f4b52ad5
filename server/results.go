package server

import (
	"sync"
	"time"

	"github.com/Carmen-Shannon/universe/common"
	"github.com/Carmen-Shannon/universe/engine/task"
)

// Entry is one completed job as reported to clients.
type Entry struct {
	Seq        uint64    `json:"seq"`
	TaskID     uint64    `json:"task_id"`
	Kind       string    `json:"kind"`
	AssetID    string    `json:"asset_id"`
	OK         bool      `json:"ok"`
	Error      string    `json:"error,omitempty"`
	DurationMS float64   `json:"duration_ms"`
	Finished   time.Time `json:"finished"`
}

// ResultStore keeps every completed job in completion order and fans new entries out to
// subscribers. It is safe for concurrent use.
type ResultStore struct {
	mu      sync.Mutex
	entries []Entry
	subs    map[int]chan Entry
	nextSub int
	closed  bool
}

// NewResultStore creates an empty store.
func NewResultStore() *ResultStore {
	return &ResultStore{subs: make(map[int]chan Entry)}
}

// Add records a job result under the next sequence number and offers it to every subscriber.
// A subscriber whose buffer is full misses the entry; it can catch up through Since.
//
// Parameters:
//   - r: the job result
//
// Returns:
//   - Entry: the stored entry
func (s *ResultStore) Add(r task.Result) Entry {
	e := Entry{
		TaskID:     r.JobID,
		Kind:       r.Kind.String(),
		AssetID:    r.Path,
		OK:         r.OK(),
		DurationMS: float64(r.Duration) / float64(time.Millisecond),
		Finished:   r.Finished,
	}
	if r.Err != nil {
		e.Error = r.Err.Error()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e.Seq = uint64(len(s.entries)) + 1
	s.entries = append(s.entries, e)
	for id, ch := range s.subs {
		select {
		case ch <- e:
		default:
			common.Logger().Warn("result subscriber lagging", "subscriber", id, "seq", e.Seq)
		}
	}
	return e
}

// Since returns the entries with a sequence number greater than after.
//
// Parameters:
//   - after: the last sequence number the caller has seen, 0 for everything
//
// Returns:
//   - []Entry: the newer entries in order
func (s *ResultStore) Since(after uint64) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if after >= uint64(len(s.entries)) {
		return []Entry{}
	}
	return append([]Entry(nil), s.entries[after:]...)
}

// Last returns the highest sequence number handed out so far.
func (s *ResultStore) Last() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint64(len(s.entries))
}

// Subscribe registers a channel receiving every entry added from now on.
// The channel is closed by the returned cancel function or by Close.
//
// Parameters:
//   - buffer: the channel capacity
//
// Returns:
//   - <-chan Entry: the entries
//   - func(): cancels the subscription
func (s *ResultStore) Subscribe(buffer int) (<-chan Entry, func()) {
	ch := make(chan Entry, buffer)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Close ends every subscription. Entries can still be added and read afterwards.
func (s *ResultStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
