package app

import (
	"sync"
	"time"
)

// Year statuses reported while a run is in flight.
const (
	StatusPending    = "pending"
	StatusFetching   = "fetching"
	StatusExtracting = "extracting"
	StatusDone       = "done"
	StatusFailed     = "failed"
)

// YearProgress is the state of one year's pipeline stage.
type YearProgress struct {
	Year      int    `json:"year"`
	Status    string `json:"status"`
	Questions int    `json:"questions"`
	Note      string `json:"note,omitempty"`
}

// Progress is a snapshot of the whole run, ordered by year.
type Progress struct {
	Subject   string         `json:"subject"`
	Years     []YearProgress `json:"years"`
	Done      bool           `json:"done"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Run tracks per-year progress for one analysis run and fans snapshots out
// to subscribers. Year workers run concurrently, so all state is behind the
// mutex; subscribers get whole snapshots, never shared maps.
type Run struct {
	subject string
	order   []int
	now     func() time.Time

	mu          sync.RWMutex
	years       map[int]YearProgress
	done        bool
	subscribers map[chan Progress]struct{}
}

func NewRun(subject string, years []int) *Run {
	return newRunWithClock(subject, years, time.Now)
}

// newRunWithClock allows deterministic timestamps in tests.
func newRunWithClock(subject string, years []int, now func() time.Time) *Run {
	r := &Run{
		subject:     subject,
		order:       append([]int(nil), years...),
		now:         now,
		years:       make(map[int]YearProgress, len(years)),
		subscribers: make(map[chan Progress]struct{}),
	}
	for _, year := range years {
		r.years[year] = YearProgress{Year: year, Status: StatusPending}
	}
	return r
}

// update records a stage change for one year. Nil receiver is a no-op so the
// pipeline can run without progress tracking.
func (r *Run) update(year int, status string, questions int, note string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.years[year] = YearProgress{Year: year, Status: status, Questions: questions, Note: note}
	r.broadcastLocked()
}

func (r *Run) finish() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done = true
	r.broadcastLocked()
}

// Subscribe returns a channel receiving progress snapshots, starting with the
// current one. The caller must invoke the returned cancel function.
func (r *Run) Subscribe() (<-chan Progress, func()) {
	ch := make(chan Progress, 8)

	r.mu.Lock()
	r.subscribers[ch] = struct{}{}
	initial := r.snapshotLocked()
	r.mu.Unlock()

	ch <- initial

	cancel := func() {
		r.mu.Lock()
		if _, ok := r.subscribers[ch]; ok {
			delete(r.subscribers, ch)
			close(ch)
		}
		r.mu.Unlock()
	}
	return ch, cancel
}

// Snapshot returns the current run state.
func (r *Run) Snapshot() Progress {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *Run) broadcastLocked() {
	snap := r.snapshotLocked()
	for ch := range r.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the stale snapshot so a slow subscriber cannot block the
			// year workers.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (r *Run) snapshotLocked() Progress {
	years := make([]YearProgress, 0, len(r.order))
	for _, year := range r.order {
		years = append(years, r.years[year])
	}
	return Progress{
		Subject:   r.subject,
		Years:     years,
		Done:      r.done,
		UpdatedAt: r.now(),
	}
}
