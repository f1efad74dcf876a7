package cloud189

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/sharesave/internal/share"
)

func TestShareCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		link    string
		want    string
		wantErr bool
	}{
		{link: "https://cloud.189.cn/web/share?code=ABCdef123", want: "ABCdef123"},
		{link: "  https://cloud.189.cn/web/share?code=XYZ&foo=1 ", want: "XYZ"},
		{link: "https://cloud.189.cn/t/qQfIbiVNBjQn", want: "qQfIbiVNBjQn"},
		{link: "https://cloud.189.cn/t/qQfIbiVNBjQn/", want: "qQfIbiVNBjQn"},
		{link: "https://cloud.189.cn/web/main/#/t/Zz9", want: "Zz9"},
		{link: "https://cloud.189.cn/web/share", wantErr: true},
		{link: "https://cloud.189.cn/t/", wantErr: true},
		{link: "::not a url", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ShareCode(tt.link)
		if tt.wantErr {
			assert.Error(t, err, tt.link)
			continue
		}
		require.NoError(t, err, tt.link)
		assert.Equal(t, tt.want, got, tt.link)
	}
}

func TestShareInfo(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/open/share/getShareInfoByCodeV2.action", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "CODE1", r.URL.Query().Get("shareCode"))
		writeJSON(t, w, map[string]any{
			"res_code":  0,
			"shareId":   12345678,
			"fileId":    "98765",
			"shareMode": 1,
			"fileName":  "books",
		})
	})
	c := testClient(t, mux, Options{})

	s, err := c.ShareInfo(context.Background(), "https://cloud.189.cn/web/share?code=CODE1")
	require.NoError(t, err)
	assert.Equal(t, "12345678", s.ID)
	assert.Equal(t, "98765", s.RootID)
	assert.Equal(t, "1", s.Mode)
	assert.Equal(t, share.Folder{ID: "98765", Name: "books"}, s.Root())
}

func TestShareInfo_Rejected(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/open/share/getShareInfoByCodeV2.action", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"res_code": "ShareNotFound", "res_message": "share expired"})
	})
	c := testClient(t, mux, Options{})

	_, err := c.ShareInfo(context.Background(), "https://cloud.189.cn/t/gone")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "ShareNotFound", apiErr.Code)
}

func testShare(c *Client) *Share {
	return &Share{ID: "S", RootID: "R", Mode: "1", client: c}
}

func TestListChildren_ReadsEveryPage(t *testing.T) {
	t.Parallel()

	var pages atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/open/share/listShareDir.action", func(w http.ResponseWriter, r *http.Request) {
		pages.Add(1)
		q := r.URL.Query()
		assert.Equal(t, "F", q.Get("fileId"))
		assert.Equal(t, "R", q.Get("shareDirFileId"))
		assert.Equal(t, "S", q.Get("shareId"))
		assert.Equal(t, "10000", q.Get("pageSize"))

		page, _ := strconv.Atoi(q.Get("pageNum"))
		if page > 2 {
			writeJSON(t, w, map[string]any{"res_code": 0, "fileListAO": map[string]any{"fileListSize": 0}})
			return
		}
		writeJSON(t, w, map[string]any{
			"res_code": 0,
			"fileListAO": map[string]any{
				"fileListSize": 2,
				"fileList": []map[string]any{
					{"id": fmt.Sprintf("file-%d", page), "name": fmt.Sprintf("f%d.epub", page), "size": 100 * page},
				},
				"folderList": []map[string]any{
					{"id": 1000 + page, "name": fmt.Sprintf("dir%d", page)},
				},
			},
		})
	})
	c := testClient(t, mux, Options{})

	l, err := testShare(c).ListChildren(context.Background(), share.Folder{ID: "F"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), pages.Load())
	assert.Equal(t, []share.File{
		{ID: "file-1", Name: "f1.epub", Size: 100},
		{ID: "file-2", Name: "f2.epub", Size: 200},
	}, l.Files)
	assert.Equal(t, []share.Folder{{ID: "1001", Name: "dir1"}, {ID: "1002", Name: "dir2"}}, l.Folders)
}

func TestListChildren_EmptyFolder(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/open/share/listShareDir.action", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"res_code": 0, "fileListAO": map[string]any{"fileListSize": 0}})
	})
	c := testClient(t, mux, Options{})

	l, err := testShare(c).ListChildren(context.Background(), share.Folder{ID: "F"})
	require.NoError(t, err)
	assert.Empty(t, l.Files)
	assert.Empty(t, l.Folders)
}

func TestListChildren_ErrorMidway(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/open/share/listShareDir.action", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pageNum") == "2" {
			writeJSON(t, w, map[string]any{"res_code": "InternalError", "res_message": "boom"})
			return
		}
		writeJSON(t, w, map[string]any{
			"res_code":   0,
			"fileListAO": map[string]any{"fileListSize": 1, "fileList": []map[string]any{{"id": 1, "name": "a"}}},
		})
	})
	c := testClient(t, mux, Options{})

	_, err := testShare(c).ListChildren(context.Background(), share.Folder{ID: "F"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "boom", apiErr.Message)
}

func TestSave_PollsUntilSettled(t *testing.T) {
	t.Parallel()

	var checks atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/open/batch/createBatchTask.action", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "SHARE_SAVE", r.PostForm.Get("type"))
		assert.Equal(t, "DST", r.PostForm.Get("targetFolderId"))
		assert.Equal(t, "S", r.PostForm.Get("shareId"))

		var infos []taskInfo
		assert.NoError(t, json.Unmarshal([]byte(r.PostForm.Get("taskInfos")), &infos))
		assert.Equal(t, []taskInfo{
			{FileID: "1", FileName: "a.txt"},
			{FileID: "2", FileName: "sub", IsFolder: 1},
		}, infos)
		writeJSON(t, w, map[string]any{"res_code": 0, "taskId": "T1"})
	})
	mux.HandleFunc("/api/open/batch/checkBatchTask.action", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "T1", r.FormValue("taskId"))
		status := 3
		if checks.Add(1) == 3 {
			status = 4
		}
		writeJSON(t, w, map[string]any{"res_code": 0, "taskStatus": status})
	})
	c := testClient(t, mux, Options{})

	code, err := testShare(c).Save(context.Background(), []share.Item{
		{ID: "1", Name: "a.txt"},
		{ID: "2", Name: "sub", IsFolder: true},
	}, "DST")
	require.NoError(t, err)
	assert.Empty(t, code)
	assert.Equal(t, int32(3), checks.Load())
}

func TestSave_ReturnsErrorCode(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/open/batch/createBatchTask.action", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"res_code": 0, "taskId": 77})
	})
	mux.HandleFunc("/api/open/batch/checkBatchTask.action", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"res_code": 0, "taskStatus": 3, "errorCode": share.CodeOverload})
	})
	c := testClient(t, mux, Options{})

	code, err := testShare(c).Save(context.Background(), []share.Item{{ID: "9", Name: "big", IsFolder: true}}, "DST")
	require.NoError(t, err)
	assert.Equal(t, share.CodeOverload, code)
}

func TestSave_CancelledWhilePolling(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	mux := http.NewServeMux()
	mux.HandleFunc("/api/open/batch/createBatchTask.action", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"res_code": 0, "taskId": 1})
	})
	mux.HandleFunc("/api/open/batch/checkBatchTask.action", func(w http.ResponseWriter, _ *http.Request) {
		cancel()
		writeJSON(t, w, map[string]any{"res_code": 0, "taskStatus": 3})
	})
	c := testClient(t, mux, Options{PollInterval: 1 << 40})

	_, err := testShare(c).Save(ctx, []share.Item{{ID: "1", Name: "a"}}, "DST")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSave_NoItems(t *testing.T) {
	t.Parallel()

	c := testClient(t, http.NewServeMux(), Options{})
	_, err := testShare(c).Save(context.Background(), nil, "DST")
	assert.Error(t, err)
}
