package engine

import (
	"sync"
	"time"

	"github.com/bamsammich/sharesave/internal/stats"
)

// runState holds everything units share: the outstanding-work counter, the
// failure flag and the progress counters. A single mutex guards all three;
// it is held only for the read-modify-write and the sink notification,
// never across a remote call.
type runState struct {
	mu          sync.Mutex
	zero        *sync.Cond // broadcast when outstanding drops to 0
	sink        stats.Sink
	start       time.Time
	counters    stats.Counters
	outstanding int64
	failed      bool
}

func newRunState(sink stats.Sink) *runState {
	s := &runState{sink: sink, start: time.Now()}
	s.zero = sync.NewCond(&s.mu)
	return s
}

// begin records one submitted unit.
func (s *runState) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outstanding++
	s.notify()
}

// done records one finished unit, successful or not.
func (s *runState) done() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outstanding--
	if s.outstanding < 0 {
		panic("engine: outstanding work counter went negative")
	}
	if s.outstanding == 0 {
		s.zero.Broadcast()
	}
	s.notify()
}

// wait blocks until no unit is queued or executing.
func (s *runState) wait() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.outstanding > 0 {
		s.zero.Wait()
	}
}

// markFailed sets the failure flag. It reports whether this call changed it.
func (s *runState) markFailed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed {
		return false
	}
	s.failed = true
	s.notify()
	return true
}

// isFailed reads the failure flag. Once true it stays true.
func (s *runState) isFailed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed
}

func (s *runState) addWalkedFolder() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters.WalkedFolders++
	s.notify()
}

func (s *runState) addSavedFolder() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters.SavedFolders++
	s.notify()
}

func (s *runState) addSavedFiles(files int, bytes int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters.SavedFiles += int64(files)
	s.counters.SavedBytes += bytes
	s.notify()
}

func (s *runState) snapshot() stats.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *runState) snapshotLocked() stats.Snapshot {
	return stats.Snapshot{
		Counters:    s.counters,
		Outstanding: s.outstanding,
		Failed:      s.failed,
		Elapsed:     time.Since(s.start),
	}
}

// notify pushes the current snapshot to the sink. Caller holds s.mu.
func (s *runState) notify() {
	if s.sink != nil {
		s.sink.Update(s.snapshotLocked())
	}
}
