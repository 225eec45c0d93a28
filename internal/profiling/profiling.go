package profiling

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Recorder accumulates wall time per named phase. It is safe for concurrent
// use; workers and the controller share one Recorder per run.
type Recorder struct {
	mu     sync.Mutex
	totals map[string]time.Duration
	counts map[string]int
}

func NewRecorder() *Recorder {
	return &Recorder{
		totals: make(map[string]time.Duration),
		counts: make(map[string]int),
	}
}

// Track returns a stop function that records the elapsed time under the given name.
// Usage: defer rec.Track("meshing.Precompute")()
// A nil Recorder tracks nothing.
func (r *Recorder) Track(name string) func() {
	if r == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		r.Add(name, time.Since(start))
	}
}

// Add records d under name.
func (r *Recorder) Add(name string, d time.Duration) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.totals[name] += d
	r.counts[name]++
	r.mu.Unlock()
}

// Reset clears all totals.
func (r *Recorder) Reset() {
	if r == nil {
		return
	}
	r.mu.Lock()
	clear(r.totals)
	clear(r.counts)
	r.mu.Unlock()
}

// Snapshot returns a copy of current totals. A nil Recorder has none.
func (r *Recorder) Snapshot() map[string]time.Duration {
	if r == nil {
		return map[string]time.Duration{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]time.Duration, len(r.totals))
	for k, v := range r.totals {
		out[k] = v
	}
	return out
}

// Count returns how many times name was recorded.
func (r *Recorder) Count(name string) int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[name]
}

// Entry is one named total.
type Entry struct {
	Name     string
	Duration time.Duration
}

// Top returns the n largest totals, longest first. Ties sort by name.
func (r *Recorder) Top(n int) []Entry {
	ss := r.Snapshot()
	list := make([]Entry, 0, len(ss))
	for k, v := range ss {
		list = append(list, Entry{Name: k, Duration: v})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Duration != list[j].Duration {
			return list[i].Duration > list[j].Duration
		}
		return list[i].Name < list[j].Name
	})
	if n > len(list) {
		n = len(list)
	}
	return list[:max(n, 0)]
}

// TopN formats the top n totals.
// Example: "meshing.Dispatch:4.2ms, meshing.Precompute:2.1ms"
func (r *Recorder) TopN(n int) string {
	top := r.Top(n)
	parts := make([]string, 0, len(top))
	for _, e := range top {
		parts = append(parts, e.Name+":"+formatMs(e.Duration))
	}
	return strings.Join(parts, ", ")
}

// formatMs keeps one decimal and drops a trailing ".0".
func formatMs(d time.Duration) string {
	s := fmt.Sprintf("%.1f", float64(d.Microseconds())/1000.0)
	return strings.TrimSuffix(s, ".0") + "ms"
}
