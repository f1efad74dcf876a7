// Package share defines the remote share tree and the destination-side
// operations the save engine is built on.
package share

import "context"

// CodeOverload is the save error code returned when a folder is too large
// to be saved as a single unit. The caller must create the folder itself and
// save its children instead.
const CodeOverload = "ShareDumpFileOverload"

// Folder is a folder node in the remote share tree.
type Folder struct {
	ID   string
	Name string
}

// File is a leaf node in the remote share tree.
type File struct {
	ID   string
	Name string
	Size int64
}

// Listing holds the immediate children of a share folder.
type Listing struct {
	Files   []File
	Folders []Folder
}

// Item is one entry of a save request.
type Item struct {
	ID       string
	Name     string
	IsFolder bool
}

// FileItems converts files to save items.
func FileItems(files []File) []Item {
	items := make([]Item, len(files))
	for i, f := range files {
		items[i] = Item{ID: f.ID, Name: f.Name}
	}
	return items
}

// FolderItem converts a folder to a save item.
func FolderItem(f Folder) Item {
	return Item{ID: f.ID, Name: f.Name, IsFolder: true}
}

// Lister reads the share tree.
type Lister interface {
	// ListChildren returns every immediate child of folder, following
	// pagination to the end. Any non-success remote status is an error.
	ListChildren(ctx context.Context, folder Folder) (Listing, error)
}

// Saver copies share items into a destination folder.
type Saver interface {
	// Save submits items for saving into dstID and blocks until the remote
	// task leaves the in-progress state. It returns the remote error code,
	// or "" when the task succeeded.
	Save(ctx context.Context, items []Item, dstID string) (string, error)
}

// FolderCreator creates folders in the destination tree.
type FolderCreator interface {
	// CreateFolder creates a folder named name under parentID and returns
	// its id.
	CreateFolder(ctx context.Context, parentID, name string) (string, error)
}
