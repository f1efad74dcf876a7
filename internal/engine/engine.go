package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bamsammich/sharesave/internal/event"
	"github.com/bamsammich/sharesave/internal/share"
	"github.com/bamsammich/sharesave/internal/stats"
)

const (
	// DefaultBatchSize is the number of files saved per remote request.
	DefaultBatchSize = 500
	// DefaultWorkers is the worker pool size.
	DefaultWorkers = 5
)

// ErrBranchFailed is reported when the run finished but at least one unit
// failed. Details are in the log stream.
var ErrBranchFailed = errors.New("one or more branches failed")

// Config describes a save operation.
type Config struct {
	Lister  share.Lister
	Saver   share.Saver
	Folders share.FolderCreator
	Sink    stats.Sink         // optional; receives a snapshot on every counter change
	Events  chan<- event.Event // optional
	Logger  *slog.Logger       // optional; defaults to slog.Default()

	Root      share.Folder // share folder to copy
	DstID     string       // destination folder receiving Root's children
	BatchSize int
	Workers   int
}

func (c Config) validate() error {
	switch {
	case c.Lister == nil:
		return errors.New("no share lister configured")
	case c.Saver == nil:
		return errors.New("no saver configured")
	case c.Folders == nil:
		return errors.New("no folder creator configured")
	case c.BatchSize < 1:
		return fmt.Errorf("batch size must be at least 1, got %d", c.BatchSize)
	case c.Workers < 1:
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	case c.DstID == "":
		return errors.New("no destination folder")
	}
	return nil
}

// Result is the outcome of a save operation.
type Result struct {
	Err   error
	Stats stats.Snapshot
}

// OK reports whether every unit completed successfully.
func (r Result) OK() bool {
	return r.Err == nil
}

type engine struct {
	ctx       context.Context
	log       *slog.Logger
	state     *runState
	pool      *workerPool
	cfg       Config
	interrupt sync.Once
}

// Run copies cfg.Root into cfg.DstID, blocking until no work is outstanding.
//
// A failing unit never aborts units already queued or executing; it only
// stops new ones from being submitted. Cancelling ctx has the same effect
// and also fails in-flight remote calls.
func Run(ctx context.Context, cfg Config) Result {
	if err := cfg.validate(); err != nil {
		return Result{Err: err}
	}

	e := &engine{
		ctx:   ctx,
		cfg:   cfg,
		log:   cfg.Logger,
		state: newRunState(cfg.Sink),
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	e.pool = newWorkerPool(cfg.Workers, e.execute)

	start := time.Now()
	e.log.Debug("save started",
		"root", cfg.Root.ID, "dst", cfg.DstID,
		"workers", cfg.Workers, "batch_size", cfg.BatchSize)

	e.submit(unit{kind: kindWalk, folder: cfg.Root, dst: cfg.DstID})

	e.state.wait()
	e.pool.close()

	snap := e.state.snapshot()
	e.log.Debug("save finished", "stats", snap.String(), "elapsed", time.Since(start))

	res := Result{Stats: snap}
	if snap.Failed {
		res.Err = ErrBranchFailed
		if err := ctx.Err(); err != nil {
			res.Err = fmt.Errorf("%w: %w", ErrBranchFailed, err)
		}
	}
	return res
}

// submit queues u unless the run is stopping. The outstanding count is
// raised before the unit becomes visible to workers, so it cannot reach
// zero while the submitter still holds its own count.
func (e *engine) submit(u unit) bool {
	if e.stopping() {
		return false
	}
	e.state.begin()
	if !e.pool.submit(u) {
		e.state.done()
		return false
	}
	return true
}

// stopping reports whether new units must not be submitted. The check is
// advisory: a unit may still be queued just as another one fails.
func (e *engine) stopping() bool {
	if err := e.ctx.Err(); err != nil {
		e.interrupt.Do(func() {
			e.log.Warn("stopping: no new work will be submitted", "reason", err)
			e.state.markFailed()
		})
		return true
	}
	return e.state.isFailed()
}

// emit sends ev to the events channel if one is configured.
func (e *engine) emit(ev event.Event) {
	if e.cfg.Events == nil {
		return
	}
	ev.Timestamp = time.Now()
	select {
	case e.cfg.Events <- ev:
	case <-e.ctx.Done():
	}
}
