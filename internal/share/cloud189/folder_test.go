package cloud189

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// folderTree is an in-memory account folder tree served over the portal and
// createFolder endpoints.
type folderTree struct {
	mu       sync.Mutex
	children map[string][]FolderNode
	nextID   int
	created  []string
}

func newFolderTree() *folderTree {
	return &folderTree{children: map[string][]FolderNode{}, nextID: 100}
}

func (ft *folderTree) add(parent, id, name string) {
	ft.children[parent] = append(ft.children[parent], FolderNode{ID: id, ParentID: parent, Name: name})
}

func (ft *folderTree) mux(t *testing.T) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/portal/getObjectFolderNodes.action", func(w http.ResponseWriter, r *http.Request) {
		ft.mu.Lock()
		defer ft.mu.Unlock()
		out := []map[string]any{}
		for _, n := range ft.children[r.FormValue("id")] {
			out = append(out, map[string]any{"id": n.ID, "pId": n.ParentID, "name": n.Name, "isParent": "true"})
		}
		writeJSON(t, w, out)
	})
	mux.HandleFunc("/api/open/file/createFolder.action", func(w http.ResponseWriter, r *http.Request) {
		ft.mu.Lock()
		defer ft.mu.Unlock()
		parent, name := r.FormValue("parentFolderId"), r.FormValue("folderName")
		ft.nextID++
		id := fmt.Sprint(ft.nextID)
		ft.add(parent, id, name)
		ft.created = append(ft.created, parent+"/"+name)
		writeJSON(t, w, map[string]any{"res_code": 0, "id": ft.nextID})
	})
	return mux
}

func TestFolderNodes(t *testing.T) {
	t.Parallel()

	ft := newFolderTree()
	ft.add(RootFolderID, "1", "books")
	c := testClient(t, ft.mux(t), Options{})

	nodes, err := c.FolderNodes(context.Background(), RootFolderID)
	require.NoError(t, err)
	assert.Equal(t, []FolderNode{{ID: "1", ParentID: RootFolderID, Name: "books", IsParent: true}}, nodes)
}

func TestFolderIDByPath(t *testing.T) {
	t.Parallel()

	ft := newFolderTree()
	ft.add(RootFolderID, "1", "A")
	ft.add("1", "2", "B")
	c := testClient(t, ft.mux(t), Options{})
	ctx := context.Background()

	id, found, err := c.FolderIDByPath(ctx, "/A/B/")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "2", id)

	id, found, err = c.FolderIDByPath(ctx, "/")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, RootFolderID, id)

	_, found, err = c.FolderIDByPath(ctx, "/A/missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestResolveFolder_ReusesExistingAndCreatesRest(t *testing.T) {
	t.Parallel()

	ft := newFolderTree()
	ft.add(RootFolderID, "1", "A")
	c := testClient(t, ft.mux(t), Options{})

	id, err := c.ResolveFolder(context.Background(), "/A/B/C")
	require.NoError(t, err)
	assert.Equal(t, "102", id)
	assert.Equal(t, []string{"1/B", "101/C"}, ft.created)

	// Second resolve finds everything.
	again, err := c.ResolveFolder(context.Background(), "A/B/C")
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.Len(t, ft.created, 2)
}

func TestResolveFolder_Root(t *testing.T) {
	t.Parallel()

	c := testClient(t, newFolderTree().mux(t), Options{})
	id, err := c.ResolveFolder(context.Background(), "/")
	require.NoError(t, err)
	assert.Equal(t, RootFolderID, id)
}

func TestResolveFolder_CreateFails(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/portal/getObjectFolderNodes.action", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, []any{})
	})
	mux.HandleFunc("/api/open/file/createFolder.action", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"res_code": "QuotaExceeded", "res_message": "full"})
	})
	c := testClient(t, mux, Options{})

	_, err := c.ResolveFolder(context.Background(), "/X")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "QuotaExceeded", apiErr.Code)
}

func TestCreateFolder_EmptyName(t *testing.T) {
	t.Parallel()

	c := testClient(t, http.NewServeMux(), Options{})
	_, err := c.CreateFolder(context.Background(), RootFolderID, "")
	assert.Error(t, err)
}
