package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bamsammich/sharesave/internal/share"
	"github.com/bamsammich/sharesave/internal/stats"
)

type saveCall struct {
	dst   string
	items []share.Item
}

type createCall struct {
	parent string
	name   string
	id     string
}

// fakeShare is an in-memory share tree implementing every collaborator the
// engine consumes. Responses are keyed by remote id.
type fakeShare struct {
	tree      map[string]share.Listing
	overload  map[string]bool   // folder ids refused with CodeOverload
	codes     map[string]string // item id -> code for any save containing it
	saveErr   map[string]error  // item id -> error for any save containing it
	listErr   map[string]error  // folder id -> listing error
	panicOn   map[string]bool   // item id -> Save panics
	createErr error

	saves   []saveCall
	created []createCall
	listed  []string
	mu      sync.Mutex
}

func newFakeShare() *fakeShare {
	return &fakeShare{
		tree:     map[string]share.Listing{"root": {}},
		overload: map[string]bool{},
		codes:    map[string]string{},
		saveErr:  map[string]error{},
		listErr:  map[string]error{},
		panicOn:  map[string]bool{},
	}
}

// addFolder creates folder id named name under parent.
func (f *fakeShare) addFolder(parent, id, name string) {
	l := f.tree[parent]
	l.Folders = append(l.Folders, share.Folder{ID: id, Name: name})
	f.tree[parent] = l
	if _, ok := f.tree[id]; !ok {
		f.tree[id] = share.Listing{}
	}
}

// addFiles appends n files of the given size to folder, ids "<folder>-f<i>".
func (f *fakeShare) addFiles(folder string, n int, size int64) []share.File {
	l := f.tree[folder]
	start := len(l.Files)
	for i := range n {
		idx := start + i + 1
		l.Files = append(l.Files, share.File{
			ID:   fmt.Sprintf("%s-f%d", folder, idx),
			Name: fmt.Sprintf("file%d.bin", idx),
			Size: size,
		})
	}
	f.tree[folder] = l
	return l.Files[start:]
}

func (f *fakeShare) ListChildren(_ context.Context, folder share.Folder) (share.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listed = append(f.listed, folder.ID)
	if err := f.listErr[folder.ID]; err != nil {
		return share.Listing{}, err
	}
	l, ok := f.tree[folder.ID]
	if !ok {
		return share.Listing{}, fmt.Errorf("folder %s not found", folder.ID)
	}
	return l, nil
}

func (f *fakeShare) Save(_ context.Context, items []share.Item, dst string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, saveCall{dst: dst, items: append([]share.Item(nil), items...)})
	for _, it := range items {
		if f.panicOn[it.ID] {
			panic("save exploded for " + it.ID)
		}
		if err := f.saveErr[it.ID]; err != nil {
			return "", err
		}
		if code := f.codes[it.ID]; code != "" {
			return code, nil
		}
		if it.IsFolder && f.overload[it.ID] {
			return share.CodeOverload, nil
		}
	}
	return "", nil
}

func (f *fakeShare) CreateFolder(_ context.Context, parent, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	id := fmt.Sprintf("new-%d", len(f.created)+1)
	f.created = append(f.created, createCall{parent: parent, name: name, id: id})
	return id, nil
}

// saveCallsTo returns the recorded saves targeting dst.
func (f *fakeShare) saveCallsTo(dst string) []saveCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []saveCall
	for _, c := range f.saves {
		if c.dst == dst {
			out = append(out, c)
		}
	}
	return out
}

// recordingSink keeps every snapshot pushed by the engine.
type recordingSink struct {
	snaps []stats.Snapshot
	mu    sync.Mutex
}

func (r *recordingSink) Update(s stats.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recordingSink) all() []stats.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]stats.Snapshot(nil), r.snaps...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testConfig wires f into a Config rooted at "root" saving into "dst".
func testConfig(f *fakeShare, batchSize, workers int) Config {
	return Config{
		Lister:    f,
		Saver:     f,
		Folders:   f,
		Root:      share.Folder{ID: "root", Name: "share"},
		DstID:     "dst",
		BatchSize: batchSize,
		Workers:   workers,
		Logger:    quietLogger(),
	}
}

func itemIDs(items []share.Item) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

func requireFailed(t *testing.T, res Result) {
	t.Helper()
	require.Error(t, res.Err)
	require.True(t, errors.Is(res.Err, ErrBranchFailed), "got %v", res.Err)
	require.True(t, res.Stats.Failed)
	require.Zero(t, res.Stats.Outstanding)
}
