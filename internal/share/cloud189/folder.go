package cloud189

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// FolderNode is one entry of the account's folder tree.
type FolderNode struct {
	ID       string
	ParentID string
	Name     string
	IsParent bool
}

type folderNode struct {
	ID       flexID `json:"id"`
	PID      flexID `json:"pId"`
	Name     string `json:"name"`
	IsParent flexID `json:"isParent"`
}

type createFolderResponse struct {
	apiResult
	ID flexID `json:"id"`
}

// CreateFolder creates name under parentID and returns the new folder's id.
func (c *Client) CreateFolder(ctx context.Context, parentID, name string) (string, error) {
	if name == "" {
		return "", errors.New("create folder: empty name")
	}
	var res createFolderResponse
	err := c.call(ctx, request{
		op:     "create folder",
		method: http.MethodPost,
		url:    c.api + "/api/open/file/createFolder.action",
		params: url.Values{"parentFolderId": {parentID}, "folderName": {name}},
	}, &res)
	if err != nil {
		return "", err
	}
	return string(res.ID), nil
}

// FolderNodes lists the sub-folders of the account folder id.
func (c *Client) FolderNodes(ctx context.Context, id string) ([]FolderNode, error) {
	var raw []folderNode
	err := c.call(ctx, request{
		op:     "folder nodes",
		method: http.MethodPost,
		url:    c.api + "/api/portal/getObjectFolderNodes.action",
		params: url.Values{"id": {id}, "orderBy": {"1"}, "order": {"ASC"}},
	}, &raw)
	if err != nil {
		return nil, err
	}
	nodes := make([]FolderNode, len(raw))
	for i, n := range raw {
		nodes[i] = FolderNode{
			ID:       string(n.ID),
			ParentID: string(n.PID),
			Name:     n.Name,
			IsParent: n.IsParent == "true",
		}
	}
	return nodes, nil
}

// FolderIDByPath looks up an existing account folder by slash-separated
// path. found is false when a component does not exist.
func (c *Client) FolderIDByPath(ctx context.Context, p string) (id string, found bool, err error) {
	id = RootFolderID
	for _, name := range splitPath(p) {
		next, ok, err := c.child(ctx, id, name)
		if err != nil {
			return "", false, err
		}
		if !ok {
			return "", false, nil
		}
		id = next
	}
	return id, true, nil
}

// ResolveFolder returns the id of the account folder at path p, creating
// missing components. "/" resolves to the account root.
func (c *Client) ResolveFolder(ctx context.Context, p string) (string, error) {
	id := RootFolderID
	creating := false
	for _, name := range splitPath(p) {
		if !creating {
			next, ok, err := c.child(ctx, id, name)
			if err != nil {
				return "", fmt.Errorf("resolve %q: %w", p, err)
			}
			if ok {
				id = next
				continue
			}
			creating = true
		}
		next, err := c.CreateFolder(ctx, id, name)
		if err != nil {
			return "", fmt.Errorf("resolve %q: %w", p, err)
		}
		if next == "" {
			return "", fmt.Errorf("resolve %q: create %q returned no id", p, name)
		}
		c.log.Info("created destination folder", "name", name, "parent", id, "id", next)
		id = next
	}
	return id, nil
}

func (c *Client) child(ctx context.Context, parentID, name string) (string, bool, error) {
	nodes, err := c.FolderNodes(ctx, parentID)
	if err != nil {
		return "", false, err
	}
	for _, n := range nodes {
		if n.Name == name {
			return n.ID, true, nil
		}
	}
	return "", false, nil
}

func splitPath(p string) []string {
	var parts []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}
