// Package client is a Go SDK for the daemon's HTTP control plane, used by
// swictl and available to any other Go program that wants to drive a swi
// daemon without hand-rolling JSON requests.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/dncore/swi/pkg/types"
)

// Client is an HTTP client for the daemon's control plane. Session auth
// is cookie-based, so Client carries a cookiejar across requests rather
// than an API key header.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client pointed at baseURL (e.g. "http://localhost:8443").
// Call Login before any other method that requires an authenticated session.
func NewClient(baseURL string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second, Jar: jar},
	}
}

// apiErrorBody mirrors internal/api's error envelope for decoding non-2xx
// response bodies.
type apiErrorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// PendingTask is returned by write endpoints that didn't complete within
// the server's synchronous window; the caller should poll the matching
// task or consume WebSocket events for it.
type PendingTask struct {
	Result string `json:"result"`
	TaskID int64  `json:"taskId"`
}

func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

// decode reads resp into out, or returns a descriptive error for any
// non-2xx status, preferring the API's {code,error} envelope when present.
func decode(resp *http.Response, out interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		var apiErr apiErrorBody
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Code != "" {
			return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Error)
		}
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, string(data))
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Login authenticates and stores the returned session cookie in the
// client's cookiejar for subsequent requests.
func (c *Client) Login(ctx context.Context, username, password string) error {
	req := map[string]string{"username": username, "password": password}
	resp, err := c.doRequest(ctx, http.MethodPost, "/login", req)
	if err != nil {
		return err
	}
	return decode(resp, nil)
}

// Logout invalidates the current session, server-side and locally.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/logout", nil)
	if err != nil {
		return err
	}
	return decode(resp, nil)
}

// ListServers lists every registered server.
func (c *Client) ListServers(ctx context.Context) ([]types.ServerSummary, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/servers", nil)
	if err != nil {
		return nil, err
	}
	var out []types.ServerSummary
	return out, decode(resp, &out)
}

// GetServer fetches a single server's summary.
func (c *Client) GetServer(ctx context.Context, id string) (*types.ServerSummary, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/server/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var out types.ServerSummary
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateServer registers a new server under directory with the given config.
func (c *Client) CreateServer(ctx context.Context, id, directory string, sc types.ServerConfig) (*types.ServerSummary, error) {
	body := struct {
		Directory string             `json:"directory"`
		Config    types.ServerConfig `json:"config"`
	}{Directory: directory, Config: sc}
	resp, err := c.doRequest(ctx, http.MethodPost, "/server/"+url.PathEscape(id), body)
	if err != nil {
		return nil, err
	}
	var out types.ServerSummary
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteServer unregisters a server, optionally removing its files.
func (c *Client) DeleteServer(ctx context.Context, id string, removeFiles bool) error {
	path := "/server/" + url.PathEscape(id)
	if removeFiles {
		path += "?removeFiles=true"
	}
	resp, err := c.doRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	return decode(resp, nil)
}

// StartServer launches a server's process.
func (c *Client) StartServer(ctx context.Context, id string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/server/"+url.PathEscape(id)+"/start", nil)
	if err != nil {
		return err
	}
	return decode(resp, nil)
}

// StopServer sends the configured graceful stop command.
func (c *Client) StopServer(ctx context.Context, id string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/server/"+url.PathEscape(id)+"/stop", nil)
	if err != nil {
		return err
	}
	return decode(resp, nil)
}

// RestartServer stops then starts a server.
func (c *Client) RestartServer(ctx context.Context, id string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/server/"+url.PathEscape(id)+"/restart", nil)
	if err != nil {
		return err
	}
	return decode(resp, nil)
}

// KillServer forcibly terminates a server's process.
func (c *Client) KillServer(ctx context.Context, id string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/server/"+url.PathEscape(id)+"/kill", nil)
	if err != nil {
		return err
	}
	return decode(resp, nil)
}

// SendCommand writes a line to a running server's console stdin.
func (c *Client) SendCommand(ctx context.Context, id, line string) error {
	req := map[string]string{"line": line}
	resp, err := c.doRequest(ctx, http.MethodPost, "/server/"+url.PathEscape(id)+"/send_line", req)
	if err != nil {
		return err
	}
	return decode(resp, nil)
}

// ConsoleTail fetches the most recent console lines retained in memory.
func (c *Client) ConsoleTail(ctx context.Context, id string) ([]string, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/server/"+url.PathEscape(id)+"/logs/latest", nil)
	if err != nil {
		return nil, err
	}
	var out []string
	return out, decode(resp, &out)
}

// ListFiles lists a directory under a server's (or the global) virtual
// root. Pass serverID "" to list the global servers root.
func (c *Client) ListFiles(ctx context.Context, serverID, path string) ([]types.EntryInfo, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, c.fileURL(serverID, "/files", path), nil)
	if err != nil {
		return nil, err
	}
	var out []types.EntryInfo
	return out, decode(resp, &out)
}

// MakeDir creates a directory under a server's virtual root.
func (c *Client) MakeDir(ctx context.Context, serverID, path string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, c.fileURL(serverID, "/file/mkdir", path), nil)
	if err != nil {
		return err
	}
	return decode(resp, nil)
}

// DeleteFile deletes a file or directory. The returned *PendingTask is
// non-nil if the daemon didn't finish within its synchronous window.
func (c *Client) DeleteFile(ctx context.Context, serverID, path string) (*PendingTask, error) {
	resp, err := c.doRequest(ctx, http.MethodDelete, c.fileURL(serverID, "/file", path), nil)
	if err != nil {
		return nil, err
	}
	return decodePending(resp)
}

// CreateBackup triggers a full backup of a server. The returned
// *types.Backup is nil if the daemon returned a pending task instead of
// finishing synchronously — in that case pending is non-nil.
func (c *Client) CreateBackup(ctx context.Context, serverID, comments string) (*types.Backup, *PendingTask, error) {
	req := types.CreateBackupRequest{Comments: comments}
	resp, err := c.doRequest(ctx, http.MethodPost, "/server/"+url.PathEscape(serverID)+"/backup", req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusAccepted {
		var pending PendingTask
		if err := json.NewDecoder(resp.Body).Decode(&pending); err != nil {
			return nil, nil, fmt.Errorf("decode pending response: %w", err)
		}
		return nil, &pending, nil
	}
	var out types.Backup
	if err := decode(resp, &out); err != nil {
		return nil, nil, err
	}
	return &out, nil, nil
}

// ListBackups lists every backup recorded for a server.
func (c *Client) ListBackups(ctx context.Context, serverID string) ([]types.BackupSummary, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/server/"+url.PathEscape(serverID)+"/backups", nil)
	if err != nil {
		return nil, err
	}
	var out []types.BackupSummary
	return out, decode(resp, &out)
}

// fileURL builds a files-family request path, scoped to a server if
// serverID is non-empty.
func (c *Client) fileURL(serverID, suffix, path string) string {
	base := suffix
	if serverID != "" {
		base = "/server/" + url.PathEscape(serverID) + suffix
	}
	return base + "?path=" + url.QueryEscape(path)
}

func decodePending(resp *http.Response) (*PendingTask, error) {
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		var apiErr apiErrorBody
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Code != "" {
			return nil, fmt.Errorf("%s: %s", apiErr.Code, apiErr.Error)
		}
		return nil, fmt.Errorf("request failed (status %d): %s", resp.StatusCode, string(data))
	}
	if resp.StatusCode != http.StatusAccepted {
		return nil, nil
	}
	var pending PendingTask
	if err := json.NewDecoder(resp.Body).Decode(&pending); err != nil {
		return nil, fmt.Errorf("decode pending response: %w", err)
	}
	return &pending, nil
}
