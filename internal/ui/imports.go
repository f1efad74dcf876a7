package ui

import "github.com/bamsammich/sharesave/internal/event"

// Event is an engine progress event.
type Event = event.Event

// Re-export event types for convenience.
const (
	FolderListed     = event.FolderListed
	FolderSaved      = event.FolderSaved
	FolderOverloaded = event.FolderOverloaded
	FolderCreated    = event.FolderCreated
	BatchSaved       = event.BatchSaved
	UnitFailed       = event.UnitFailed
)
