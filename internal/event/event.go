package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	FolderListed Type = iota + 1
	FolderSaved
	FolderOverloaded
	FolderCreated
	BatchSaved
	UnitFailed
)

var typeNames = [...]string{
	FolderListed:     "FolderListed",
	FolderSaved:      "FolderSaved",
	FolderOverloaded: "FolderOverloaded",
	FolderCreated:    "FolderCreated",
	BatchSaved:       "BatchSaved",
	UnitFailed:       "UnitFailed",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event represents a single progress event from the engine.
type Event struct {
	Timestamp time.Time
	Error     error
	Path      string // share-relative folder path
	Type      Type
	Files     int   // files in a listing or batch
	Folders   int   // sub-folders in a listing
	Size      int64 // bytes in a batch
	WorkerID  int
}
