package cloud189

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/bamsammich/sharesave/internal/share"
)

const listPageSize = 10000

// Share is a resolved share link. It lists the shared tree and saves items
// from it into the client's account.
type Share struct {
	ID     string
	RootID string
	Mode   string
	Name   string

	client *Client
}

var (
	_ share.Lister        = (*Share)(nil)
	_ share.Saver         = (*Share)(nil)
	_ share.FolderCreator = (*Client)(nil)
)

// Root is the shared top-level folder.
func (s *Share) Root() share.Folder {
	return share.Folder{ID: s.RootID, Name: s.Name}
}

// ShareCode extracts the share code from a link of the form
// https://cloud.189.cn/web/share?code=XXXX or https://cloud.189.cn/t/XXXX.
func ShareCode(link string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return "", fmt.Errorf("parse share link: %w", err)
	}
	if code := u.Query().Get("code"); code != "" {
		return code, nil
	}
	for _, p := range []string{u.Path, u.Fragment} {
		dir, code := path.Split(strings.TrimRight(p, "/"))
		if strings.HasSuffix(dir, "/t/") && code != "" {
			return code, nil
		}
	}
	return "", fmt.Errorf("no share code in link %q", link)
}

type shareInfoResponse struct {
	apiResult
	ShareID   flexID `json:"shareId"`
	FileID    flexID `json:"fileId"`
	ShareMode flexID `json:"shareMode"`
	FileName  string `json:"fileName"`
}

// ShareInfo resolves a share link.
func (c *Client) ShareInfo(ctx context.Context, link string) (*Share, error) {
	code, err := ShareCode(link)
	if err != nil {
		return nil, err
	}
	var res shareInfoResponse
	err = c.call(ctx, request{
		op:     "share info",
		method: http.MethodGet,
		url:    c.api + "/api/open/share/getShareInfoByCodeV2.action",
		params: url.Values{"shareCode": {code}},
	}, &res)
	if err != nil {
		return nil, err
	}
	if res.ShareID == "" || res.FileID == "" {
		return nil, errors.New("share info: response has no share or folder id")
	}
	return &Share{
		ID:     string(res.ShareID),
		RootID: string(res.FileID),
		Mode:   string(res.ShareMode),
		Name:   res.FileName,
		client: c,
	}, nil
}

type listEntry struct {
	ID   flexID `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type listShareDirResponse struct {
	apiResult
	FileListAO struct {
		FileListSize int         `json:"fileListSize"`
		FileList     []listEntry `json:"fileList"`
		FolderList   []listEntry `json:"folderList"`
	} `json:"fileListAO"`
}

// ListChildren returns the direct files and sub-folders of folder, reading
// every page.
func (s *Share) ListChildren(ctx context.Context, folder share.Folder) (share.Listing, error) {
	var out share.Listing
	for page := 1; ; page++ {
		var res listShareDirResponse
		err := s.client.call(ctx, request{
			op:     "list share dir",
			method: http.MethodGet,
			url:    s.client.api + "/api/open/share/listShareDir.action",
			params: url.Values{
				"pageNum":        {strconv.Itoa(page)},
				"pageSize":       {strconv.Itoa(listPageSize)},
				"fileId":         {folder.ID},
				"shareDirFileId": {s.RootID},
				"isFolder":       {"true"},
				"shareId":        {s.ID},
				"shareMode":      {s.Mode},
				"iconOption":     {"5"},
				"orderBy":        {"lastOpTime"},
				"descending":     {"true"},
				"accessCode":     {""},
			},
		}, &res)
		if err != nil {
			return share.Listing{}, err
		}

		ao := res.FileListAO
		if ao.FileListSize == 0 || len(ao.FileList)+len(ao.FolderList) == 0 {
			return out, nil
		}
		for _, e := range ao.FileList {
			out.Files = append(out.Files, share.File{ID: string(e.ID), Name: e.Name, Size: e.Size})
		}
		for _, e := range ao.FolderList {
			out.Folders = append(out.Folders, share.Folder{ID: string(e.ID), Name: e.Name})
		}
	}
}
