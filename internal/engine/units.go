package engine

import (
	"errors"
	"fmt"
	"path"

	"github.com/bamsammich/sharesave/internal/event"
	"github.com/bamsammich/sharesave/internal/share"
)

// UnexpectedCodeError is a save response code the engine has no strategy for.
type UnexpectedCodeError struct {
	Code string
}

func (e *UnexpectedCodeError) Error() string {
	return fmt.Sprintf("unexpected save response code %q", e.Code)
}

// execute runs one unit. It is the failure boundary: every error and panic
// is converted into a log line plus the failure flag, and the unit's
// outstanding count is released exactly once.
func (e *engine) execute(workerID int, u unit) {
	defer e.state.done()
	defer func() {
		if r := recover(); r != nil {
			e.fail(workerID, u, fmt.Errorf("panic: %v", r))
		}
	}()

	switch u.kind {
	case kindWalk:
		e.walk(workerID, u)
	case kindProbe:
		e.probe(workerID, u)
	case kindBatch:
		e.saveBatch(workerID, u)
	default:
		e.fail(workerID, u, fmt.Errorf("unknown unit kind %d", u.kind))
	}
}

// walk lists a folder, queues its files in batches and probes each
// sub-folder against the same destination.
func (e *engine) walk(workerID int, u unit) {
	listing, err := e.cfg.Lister.ListChildren(e.ctx, u.folder)
	if err != nil {
		e.fail(workerID, u, fmt.Errorf("list folder: %w", err))
		return
	}
	e.state.addWalkedFolder()
	e.emit(event.Event{
		Type:     event.FolderListed,
		Path:     displayPath(u.path),
		Files:    len(listing.Files),
		Folders:  len(listing.Folders),
		WorkerID: workerID,
	})

	if !e.splitAndSave(listing.Files, u.dst, u.path) {
		return
	}

	for _, sub := range listing.Folders {
		if !e.submit(unit{
			kind:   kindProbe,
			folder: sub,
			dst:    u.dst,
			path:   path.Join(u.path, sub.Name),
		}) {
			return
		}
	}
}

// splitAndSave queues one batch unit per batchSize files. It stops at the
// first batch refused because the run is stopping; the remaining files are
// skipped, not reported individually. It reports whether every batch was
// queued.
func (e *engine) splitAndSave(files []share.File, dst, dir string) bool {
	for _, batch := range splitBatches(files, e.cfg.BatchSize) {
		if !e.submit(unit{kind: kindBatch, files: batch, dst: dst, path: dir}) {
			return false
		}
	}
	return true
}

// probe tries to save a whole sub-folder in one remote operation. When the
// remote side refuses with CodeOverload the folder is materialized in the
// destination and walked instead.
func (e *engine) probe(workerID int, u unit) {
	code, err := e.cfg.Saver.Save(e.ctx, []share.Item{share.FolderItem(u.folder)}, u.dst)
	switch {
	case err != nil:
		e.fail(workerID, u, fmt.Errorf("save folder: %w", err))
	case code == "":
		e.state.addSavedFolder()
		e.emit(event.Event{Type: event.FolderSaved, Path: displayPath(u.path), WorkerID: workerID})
	case code == share.CodeOverload:
		e.materialize(workerID, u)
	default:
		e.fail(workerID, u, &UnexpectedCodeError{Code: code})
	}
}

func (e *engine) materialize(workerID int, u unit) {
	e.emit(event.Event{Type: event.FolderOverloaded, Path: displayPath(u.path), WorkerID: workerID})
	e.log.Debug("folder too large for a single save, walking it",
		"path", displayPath(u.path), "dst", u.dst)

	id, err := e.cfg.Folders.CreateFolder(e.ctx, u.dst, u.folder.Name)
	if err == nil && id == "" {
		err = errors.New("empty folder id")
	}
	if err != nil {
		e.fail(workerID, u, fmt.Errorf("create folder %q in %s: %w", u.folder.Name, u.dst, err))
		return
	}
	e.emit(event.Event{Type: event.FolderCreated, Path: displayPath(u.path), WorkerID: workerID})

	e.submit(unit{kind: kindWalk, folder: u.folder, dst: id, path: u.path})
}

// saveBatch saves a group of files as one unit: all or nothing.
func (e *engine) saveBatch(workerID int, u unit) {
	code, err := e.cfg.Saver.Save(e.ctx, share.FileItems(u.files), u.dst)
	if err == nil && code != "" {
		err = &UnexpectedCodeError{Code: code}
	}
	if err != nil {
		e.fail(workerID, u, fmt.Errorf("save %d files: %w", len(u.files), err))
		return
	}

	size := batchBytes(u.files)
	e.state.addSavedFiles(len(u.files), size)
	e.emit(event.Event{
		Type:     event.BatchSaved,
		Path:     displayPath(u.path),
		Files:    len(u.files),
		Size:     size,
		WorkerID: workerID,
	})
}

// fail logs err for u and sets the failure flag.
func (e *engine) fail(workerID int, u unit, err error) {
	e.log.Error("unit failed",
		"unit", u.kind.String(),
		"path", displayPath(u.path),
		"dst", u.dst,
		"worker", workerID,
		"error", err,
	)
	e.state.markFailed()
	e.emit(event.Event{
		Type:     event.UnitFailed,
		Path:     displayPath(u.path),
		Files:    len(u.files),
		Error:    err,
		WorkerID: workerID,
	})
}

func displayPath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
