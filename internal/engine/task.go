package engine

import "github.com/bamsammich/sharesave/internal/share"

// unitKind identifies the kind of work unit.
type unitKind int

const (
	// kindWalk lists a share folder and fans its children out.
	kindWalk unitKind = iota + 1
	// kindProbe tries to save a sub-folder in one remote operation.
	kindProbe
	// kindBatch saves a bounded group of files.
	kindBatch
)

func (k unitKind) String() string {
	switch k {
	case kindWalk:
		return "walk"
	case kindProbe:
		return "probe"
	case kindBatch:
		return "batch"
	default:
		return "unknown"
	}
}

// unit is one schedulable piece of work. Which payload fields are set
// depends on kind: folder for walk and probe, files for batch.
type unit struct {
	folder share.Folder
	dst    string // destination folder id the payload is saved into
	path   string // share-relative path of folder (or of the batch's folder)
	files  []share.File
	kind   unitKind
}
