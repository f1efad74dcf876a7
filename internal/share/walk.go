package share

import (
	"context"
	"fmt"
	"path"
)

// WalkFunc is called for each file and folder found by Walk. dir is the
// share-relative path of the folder containing the entry. Exactly one of
// file and folder is non-nil.
type WalkFunc func(dir string, file *File, folder *Folder) error

// Walk traverses the share tree below root depth-first, listing one folder
// at a time. Files of a folder are reported before its sub-folders.
func Walk(ctx context.Context, l Lister, root Folder, fn WalkFunc) error {
	return walk(ctx, l, root, "", fn)
}

func walk(ctx context.Context, l Lister, folder Folder, dir string, fn WalkFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	listing, err := l.ListChildren(ctx, folder)
	if err != nil {
		return fmt.Errorf("list %q: %w", displayPath(dir), err)
	}

	for i := range listing.Files {
		if err := fn(dir, &listing.Files[i], nil); err != nil {
			return err
		}
	}
	for i := range listing.Folders {
		sub := listing.Folders[i]
		if err := fn(dir, nil, &sub); err != nil {
			return err
		}
		if err := walk(ctx, l, sub, path.Join(dir, sub.Name), fn); err != nil {
			return err
		}
	}
	return nil
}

func displayPath(dir string) string {
	if dir == "" {
		return "/"
	}
	return dir
}
