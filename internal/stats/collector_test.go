package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// push simulates the engine reporting cumulative totals.
func push(c *Collector, files, bytes int64) {
	c.Update(Snapshot{Counters: Counters{SavedFiles: files, SavedBytes: bytes}})
}

func TestCollectorConcurrentUpdates(t *testing.T) {
	c := NewCollector()
	const goroutines = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := range goroutines {
		go func() {
			defer wg.Done()
			for j := range 100 {
				c.Update(Snapshot{Outstanding: int64(i*100 + j)})
				_ = c.Snapshot()
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	assert.GreaterOrEqual(t, s.Outstanding, int64(0))
}

func TestSnapshotString(t *testing.T) {
	s := Snapshot{
		Counters: Counters{
			WalkedFolders: 3,
			SavedFolders:  2,
			SavedFiles:    10,
			SavedBytes:    4096,
		},
		Outstanding: 1,
	}
	expected := "outstanding=1 walked=3 folders=2 files=10 bytes=4096 failed=false"
	assert.Equal(t, expected, s.String())
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		expected string
		input    int64
	}{
		{"0 B", 0},
		{"512 B", 512},
		{"1.0 KiB", 1024},
		{"1.5 KiB", 1536},
		{"1.0 MiB", 1048576},
		{"1.0 GiB", 1073741824},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			require.Equal(t, tt.expected, FormatBytes(tt.input))
		})
	}
}

func TestNewCollector(t *testing.T) {
	c := NewCollector()
	assert.False(t, c.start.IsZero())
	assert.InDelta(t, 0, c.Elapsed().Seconds(), 1)
	assert.Equal(t, Counters{}, c.Snapshot().Counters)
}

func TestUpdateKeepsLatest(t *testing.T) {
	c := NewCollector()
	c.Update(Snapshot{Counters: Counters{SavedFiles: 1}, Outstanding: 4})
	c.Update(Snapshot{Counters: Counters{SavedFiles: 3}, Outstanding: 2, Failed: true})

	s := c.Snapshot()
	assert.Equal(t, int64(3), s.SavedFiles)
	assert.Equal(t, int64(2), s.Outstanding)
	assert.True(t, s.Failed)
}

func TestTickAndRollingSpeed(t *testing.T) {
	c := NewCollector()

	// 5 seconds of 1000 bytes/sec and 10 files/sec.
	for i := range 5 {
		push(c, int64(i+1)*10, int64(i+1)*1000)
		c.Tick()
	}

	assert.InDelta(t, 1000.0, c.RollingSpeed(5), 0.01)
	assert.InDelta(t, 10.0, c.RollingFilesPerSec(5), 0.01)
}

func TestRollingSpeedPartialWindow(t *testing.T) {
	c := NewCollector()

	push(c, 1, 500)
	c.Tick()
	push(c, 2, 1000)
	c.Tick()

	// Ask for 10 but only have 2.
	assert.InDelta(t, 500.0, c.RollingSpeed(10), 0.01)
}

func TestRollingSpeedNoSamples(t *testing.T) {
	c := NewCollector()
	assert.Equal(t, 0.0, c.RollingSpeed(5))
}

func TestRing(t *testing.T) {
	var r ring
	assert.Nil(t, r.last(3))
	assert.Zero(t, r.mean(3))

	for v := range int64(ringSize + 10) {
		r.push(v)
	}
	assert.Equal(t, []int64{ringSize + 7, ringSize + 8, ringSize + 9}, r.last(3))
	assert.Len(t, r.last(ringSize*2), ringSize)
	assert.Equal(t, int64(10), r.last(ringSize)[0])
	assert.InDelta(t, float64(ringSize+8), r.mean(3), 0.001)
}

func TestSparklineData(t *testing.T) {
	c := NewCollector()
	assert.Nil(t, c.SparklineData(5))

	var total int64
	for i := range 5 {
		total += int64((i + 1) * 100)
		push(c, 0, total)
		c.Tick()
	}

	assert.Equal(t, []float64{100, 200, 300, 400, 500}, c.SparklineData(5))
	assert.Equal(t, []float64{400, 500}, c.SparklineData(2))
}

func TestMultiSink(t *testing.T) {
	a, b := NewCollector(), NewCollector()
	MultiSink{a, nil, b}.Update(Snapshot{Outstanding: 7})

	assert.Equal(t, int64(7), a.Snapshot().Outstanding)
	assert.Equal(t, int64(7), b.Snapshot().Outstanding)
}

func TestSnapshotIncludesElapsed(t *testing.T) {
	c := NewCollector()
	time.Sleep(10 * time.Millisecond)
	assert.Greater(t, c.Snapshot().Elapsed, time.Duration(0))
}
