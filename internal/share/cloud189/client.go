// Package cloud189 implements the share collaborators against the 189 Cloud
// web API: login, share lookup, paginated listing, batch save tasks and
// folder management.
package cloud189

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultAPIBase serves share, batch and folder endpoints.
	DefaultAPIBase = "https://cloud.189.cn"
	// DefaultAuthBase serves the login endpoints.
	DefaultAuthBase = "https://open.e.189.cn"
	// RootFolderID is the id of the account's top-level folder.
	RootFolderID = "-11"
	// DefaultPollInterval is the delay between batch task status checks.
	DefaultPollInterval = time.Second
)

const (
	clientID      = "538135150693412"
	clientModel   = "KB2000"
	clientVersion = "9.0.6"
	desktopAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:74.0) Gecko/20100101 Firefox/76.0"
)

var mobileAgent = fmt.Sprintf(
	"Mozilla/5.0 (Linux; U; Android 11; %[1]s Build/RP1A.201005.001) AppleWebKit/537.36 "+
		"(KHTML, like Gecko) Version/4.0 Chrome/74.0.3729.136 Mobile Safari/537.36 "+
		"Ecloud/%[2]s Android/30 clientId/%[3]s clientModel/%[1]s clientChannelId/qq proVersion/1.0.6",
	clientModel, clientVersion, clientID,
)

// RequestObserver is told about every API round trip.
type RequestObserver func(op string, d time.Duration, err error)

// Options configures a Client. The zero value talks to the production API
// without pacing.
type Options struct {
	APIBase  string
	AuthBase string

	// HTTPClient is used as-is when set; it should carry a cookie jar.
	HTTPClient *http.Client
	Timeout    time.Duration

	// RequestsPerSec caps the aggregate request rate. 0 means unlimited.
	RequestsPerSec float64
	PollInterval   time.Duration

	Logger   *slog.Logger
	Observer RequestObserver
}

// Client is a logged-in (or about to be) 189 Cloud session. It is safe for
// concurrent use.
type Client struct {
	api      string
	auth     string
	http     *http.Client
	limiter  *rate.Limiter
	poll     time.Duration
	log      *slog.Logger
	observer RequestObserver
}

// New builds a client with a fresh cookie jar.
func New(opts Options) (*Client, error) {
	c := &Client{
		api:      strings.TrimRight(opts.APIBase, "/"),
		auth:     strings.TrimRight(opts.AuthBase, "/"),
		http:     opts.HTTPClient,
		poll:     opts.PollInterval,
		log:      opts.Logger,
		observer: opts.Observer,
	}
	if c.api == "" {
		c.api = DefaultAPIBase
	}
	if c.auth == "" {
		c.auth = DefaultAuthBase
	}
	if c.poll <= 0 {
		c.poll = DefaultPollInterval
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	if c.http == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = 60 * time.Second
		}
		c.http = &http.Client{Jar: jar, Timeout: timeout}
	}
	if opts.RequestsPerSec > 0 {
		c.limiter = NewRequestLimiter(opts.RequestsPerSec)
	}
	return c, nil
}

// NewRequestLimiter paces API calls to perSec with no bursting beyond one
// request.
func NewRequestLimiter(perSec float64) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(perSec), 1)
}

// APIError is a request the service answered but rejected.
type APIError struct {
	Op      string
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: code %s", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %s (code %s)", e.Op, e.Message, e.Code)
}

// flexID decodes a JSON number or string into its decimal text. The API is
// inconsistent about which it sends for ids and result codes.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id %s: %w", b, err)
	}
	*f = flexID(n.String())
	return nil
}

// apiResult is embedded in every open-API response body.
type apiResult struct {
	ResCode    flexID `json:"res_code"`
	ResMessage string `json:"res_message"`
}

func (r apiResult) check(op string) error {
	if r.ResCode == "" || r.ResCode == "0" {
		return nil
	}
	return &APIError{Op: op, Code: string(r.ResCode), Message: r.ResMessage}
}

type checker interface {
	check(op string) error
}

type request struct {
	op     string
	method string
	url    string
	params url.Values
	header http.Header
}

// call performs req and decodes the JSON body into out. Bodies that embed
// apiResult are checked for a non-zero res_code.
func (c *Client) call(ctx context.Context, req request, out any) error {
	resp, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", req.op, err)
	}
	if ck, ok := out.(checker); ok {
		return ck.check(req.op)
	}
	return nil
}

// send performs req, returning the response when the status is below 400.
// The caller closes the body.
func (c *Client) send(ctx context.Context, req request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s: %w", req.op, err)
		}
	}

	var body io.Reader
	target := req.url
	if req.method == http.MethodGet {
		if len(req.params) > 0 {
			target += "?" + req.params.Encode()
		}
	} else if req.params != nil {
		body = strings.NewReader(req.params.Encode())
	}

	hr, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req.op, err)
	}
	hr.Header.Set("User-Agent", mobileAgent)
	hr.Header.Set("Accept", "application/json;charset=UTF-8")
	if body != nil {
		hr.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, vs := range req.header {
		hr.Header[k] = vs
	}

	start := time.Now()
	resp, err := c.http.Do(hr)
	if err == nil && resp.StatusCode >= http.StatusBadRequest {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		err = &APIError{
			Op:      req.op,
			Code:    strconv.Itoa(resp.StatusCode),
			Message: http.StatusText(resp.StatusCode),
		}
		resp = nil
	}
	elapsed := time.Since(start)

	if c.observer != nil {
		c.observer(req.op, elapsed, err)
	}
	if err != nil {
		c.log.Debug("api request failed", "op", req.op, "duration", elapsed, "error", err)
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", req.op, err)
	}
	c.log.Debug("api request", "op", req.op, "status", resp.StatusCode, "duration", elapsed)
	return resp, nil
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
