package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const ringSize = 60

// Counters are the confirmed-success totals of a save run.
type Counters struct {
	WalkedFolders int64
	SavedFolders  int64
	SavedFiles    int64
	SavedBytes    int64
}

// Snapshot is a point-in-time read of a run's progress.
type Snapshot struct {
	Counters
	Outstanding int64
	Failed      bool
	Elapsed     time.Duration
}

// Sink receives a snapshot after every counter mutation. Update is called
// while the engine holds its state lock, so implementations must not block
// and must not call back into the engine.
type Sink interface {
	Update(s Snapshot)
}

// MultiSink fans a snapshot out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) Update(s Snapshot) {
	for _, sink := range m {
		if sink != nil {
			sink.Update(s)
		}
	}
}

// Reader is the read side used by presenters.
type Reader interface {
	Snapshot() Snapshot
}

// ReadTicker is a Reader that also maintains rolling rate samples.
type ReadTicker interface {
	Reader
	Tick()
	RollingSpeed(seconds int) float64
	RollingFilesPerSec(seconds int) float64
	SparklineData(n int) []float64
}

// ring holds the most recent ringSize per-second samples.
type ring struct {
	samples [ringSize]int64
	next    int
	n       int
}

func (r *ring) push(v int64) {
	r.samples[r.next] = v
	r.next = (r.next + 1) % ringSize
	r.n = min(r.n+1, ringSize)
}

// last returns up to k of the newest samples, oldest first.
func (r *ring) last(k int) []int64 {
	k = min(k, r.n)
	if k <= 0 {
		return nil
	}
	out := make([]int64, k)
	for i := range out {
		out[i] = r.samples[(r.next-k+i+ringSize)%ringSize]
	}
	return out
}

func (r *ring) mean(k int) float64 {
	s := r.last(k)
	if len(s) == 0 {
		return 0
	}
	var sum int64
	for _, v := range s {
		sum += v
	}
	return float64(sum) / float64(len(s))
}

// Collector is the display-side Sink. It keeps the latest snapshot pushed by
// the engine and per-second deltas for rate displays.
type Collector struct {
	latest atomic.Pointer[Snapshot]
	start  time.Time

	mu        sync.Mutex // guards the fields below; Tick is the only writer
	bytes     ring
	files     ring
	lastBytes int64
	lastFiles int64
}

// NewCollector creates a Collector whose elapsed time starts now.
func NewCollector() *Collector {
	c := &Collector{start: time.Now()}
	c.latest.Store(&Snapshot{})
	return c
}

// Update stores s as the latest snapshot.
func (c *Collector) Update(s Snapshot) {
	c.latest.Store(&s)
}

// Snapshot returns the latest pushed snapshot with Elapsed measured from
// collector creation.
func (c *Collector) Snapshot() Snapshot {
	s := *c.latest.Load()
	s.Elapsed = c.Elapsed()
	return s
}

// Tick records the byte and file deltas since the previous Tick. Presenters
// call it once per second.
func (c *Collector) Tick() {
	cur := c.latest.Load()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.bytes.push(cur.SavedBytes - c.lastBytes)
	c.files.push(cur.SavedFiles - c.lastFiles)
	c.lastBytes, c.lastFiles = cur.SavedBytes, cur.SavedFiles
}

// RollingSpeed returns the mean bytes/sec over the last seconds samples.
func (c *Collector) RollingSpeed(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes.mean(seconds)
}

// RollingFilesPerSec returns the mean files/sec over the last seconds samples.
func (c *Collector) RollingFilesPerSec(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.files.mean(seconds)
}

// SparklineData returns up to n bytes/sec samples, oldest first.
func (c *Collector) SparklineData(n int) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.bytes.last(n)
	if s == nil {
		return nil
	}
	data := make([]float64, len(s))
	for i, v := range s {
		data[i] = float64(v)
	}
	return data
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.start)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"outstanding=%d walked=%d folders=%d files=%d bytes=%d failed=%t",
		s.Outstanding, s.WalkedFolders, s.SavedFolders, s.SavedFiles, s.SavedBytes, s.Failed,
	)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
