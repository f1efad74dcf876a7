package cloud189

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const encryptedPrefix = "{NRP}"

type encryptConf struct {
	Result flexID `json:"result"`
	Data   struct {
		PubKey string `json:"pubKey"`
	} `json:"data"`
}

type appConf struct {
	Result flexID `json:"result"`
	Msg    string `json:"msg"`
	Data   struct {
		ReturnURL string `json:"returnUrl"`
		ParamID   string `json:"paramId"`
	} `json:"data"`
}

type loginResult struct {
	Result flexID `json:"result"`
	Msg    string `json:"msg"`
	ToURL  string `json:"toUrl"`
}

// loginSession carries the values the login form must echo back.
type loginSession struct {
	lt    string
	reqID string
}

func (s loginSession) header() http.Header {
	return http.Header{
		"User-Agent": {desktopAgent},
		"Referer":    {"https://open.e.189.cn/"},
		"Lt":         {s.lt},
		"Reqid":      {s.reqID},
	}
}

// Login establishes a session for username. Session cookies are kept in the
// client's jar.
func (c *Client) Login(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return errors.New("login: username and password are required")
	}

	var conf encryptConf
	err := c.call(ctx, request{
		op:     "login: encrypt conf",
		method: http.MethodPost,
		url:    c.auth + "/api/logbox/config/encryptConf.do",
		params: url.Values{"appId": {"cloud"}},
	}, &conf)
	if err != nil {
		return err
	}
	pub, err := parsePublicKey(conf.Data.PubKey)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	sess, err := c.loginSession(ctx)
	if err != nil {
		return err
	}

	var app appConf
	err = c.call(ctx, request{
		op:     "login: app conf",
		method: http.MethodPost,
		url:    c.auth + "/api/logbox/oauth2/appConf.do",
		params: url.Values{"version": {"2.0"}, "appKey": {"cloud"}},
		header: sess.header(),
	}, &app)
	if err != nil {
		return err
	}
	if app.Result != "0" {
		return &APIError{Op: "login: app conf", Code: string(app.Result), Message: app.Msg}
	}

	encUser, err := encryptCredential(pub, username)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	encPass, err := encryptCredential(pub, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	var res loginResult
	err = c.call(ctx, request{
		op:     "login: submit",
		method: http.MethodPost,
		url:    c.auth + "/api/logbox/oauth2/loginSubmit.do",
		params: url.Values{
			"appKey":       {"cloud"},
			"version":      {"2.0"},
			"accountType":  {"01"},
			"mailSuffix":   {"@189.cn"},
			"validateCode": {""},
			"returnUrl":    {app.Data.ReturnURL},
			"paramId":      {app.Data.ParamID},
			"captchaToken": {""},
			"dynamicCheck": {"FALSE"},
			"clientType":   {"1"},
			"cb_SaveName":  {"0"},
			"isOauth2":     {"false"},
			"userName":     {encUser},
			"password":     {encPass},
		},
		header: sess.header(),
	}, &res)
	if err != nil {
		return err
	}
	if res.Result != "0" {
		return &APIError{Op: "login: submit", Code: string(res.Result), Message: res.Msg}
	}
	if res.ToURL == "" {
		return errors.New("login: no redirect in login response")
	}

	err = c.call(ctx, request{
		op:     "login: session",
		method: http.MethodGet,
		url:    res.ToURL,
		header: http.Header{
			"Referer": {"https://m.cloud.189.cn/zhuanti/2016/sign/index.jsp?albumBackupOpened=1"},
		},
	}, nil)
	if err != nil {
		return err
	}
	c.log.Info("logged in", "user", username)
	return nil
}

// loginSession follows the portal's login redirect and reads lt and reqId
// from the final URL.
func (c *Client) loginSession(ctx context.Context) (loginSession, error) {
	const op = "login: redirect"
	resp, err := c.send(ctx, request{
		op:     op,
		method: http.MethodGet,
		url:    c.api + "/api/portal/loginUrl.action",
		params: url.Values{
			"redirectURL": {"https://cloud.189.cn/web/redirect.html?returnURL=/main.action"},
		},
	})
	if err != nil {
		return loginSession{}, err
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return loginSession{}, fmt.Errorf("%s: status %d", op, resp.StatusCode)
	}
	q := resp.Request.URL.Query()
	sess := loginSession{lt: q.Get("lt"), reqID: q.Get("reqId")}
	if sess.lt == "" || sess.reqID == "" {
		return loginSession{}, fmt.Errorf("%s: missing lt or reqId in %s", op, resp.Request.URL.Redacted())
	}
	return sess, nil
}

// parsePublicKey decodes the base64 DER (PKIX) key served by encryptConf.
func parsePublicKey(b64 string) (*rsa.PublicKey, error) {
	der, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b64))
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	pub, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is %T, not RSA", key)
	}
	return pub, nil
}

// encryptCredential produces the {NRP}-prefixed hex ciphertext the login
// form expects.
func encryptCredential(pub *rsa.PublicKey, s string) (string, error) {
	ct, err := rsa.EncryptPKCS1v15(rand.Reader, pub, []byte(s))
	if err != nil {
		return "", fmt.Errorf("encrypt credential: %w", err)
	}
	return encryptedPrefix + hex.EncodeToString(ct), nil
}
