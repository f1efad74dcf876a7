package cloud189

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bamsammich/sharesave/internal/share"
)

const (
	taskTypeShareSave = "SHARE_SAVE"
	// taskRunning is the checkBatchTask status of a task still in progress.
	taskRunning = 3
)

type taskInfo struct {
	FileID   string `json:"fileId"`
	FileName string `json:"fileName"`
	IsFolder int    `json:"isFolder"`
}

type createTaskResponse struct {
	apiResult
	TaskID flexID `json:"taskId"`
}

type checkTaskResponse struct {
	apiResult
	TaskStatus int    `json:"taskStatus"`
	ErrorCode  string `json:"errorCode"`
}

// Save copies items into the account folder dstID and waits for the batch
// task to settle. It returns the task's error code, "" on success.
func (s *Share) Save(ctx context.Context, items []share.Item, dstID string) (string, error) {
	if len(items) == 0 {
		return "", errors.New("save: no items")
	}
	infos := make([]taskInfo, len(items))
	for i, it := range items {
		infos[i] = taskInfo{FileID: it.ID, FileName: it.Name}
		if it.IsFolder {
			infos[i].IsFolder = 1
		}
	}
	payload, err := json.Marshal(infos)
	if err != nil {
		return "", fmt.Errorf("save: encode task infos: %w", err)
	}

	var created createTaskResponse
	err = s.client.call(ctx, request{
		op:     "create batch task",
		method: http.MethodPost,
		url:    s.client.api + "/api/open/batch/createBatchTask.action",
		params: url.Values{
			"type":           {taskTypeShareSave},
			"taskInfos":      {string(payload)},
			"targetFolderId": {dstID},
			"shareId":        {s.ID},
		},
	}, &created)
	if err != nil {
		return "", err
	}
	if created.TaskID == "" {
		return "", errors.New("create batch task: response has no task id")
	}

	return s.client.waitTask(ctx, string(created.TaskID))
}

// waitTask polls a batch task until it leaves the running state or reports
// an error code.
func (c *Client) waitTask(ctx context.Context, taskID string) (string, error) {
	for {
		var res checkTaskResponse
		err := c.call(ctx, request{
			op:     "check batch task",
			method: http.MethodPost,
			url:    c.api + "/api/open/batch/checkBatchTask.action",
			params: url.Values{"taskId": {taskID}, "type": {taskTypeShareSave}},
		}, &res)
		if err != nil {
			return "", err
		}
		if res.TaskStatus != taskRunning || res.ErrorCode != "" {
			return res.ErrorCode, nil
		}
		if err := sleep(ctx, c.poll); err != nil {
			return "", fmt.Errorf("check batch task %s: %w", taskID, err)
		}
	}
}
