// Package registry implements the HTTP client for the tool registry API.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/toolstore/tool/internal/core"
)

// defaultTimeout bounds each HTTP call. Downloads and uploads stream and get
// a longer budget.
const (
	defaultTimeout  = 30 * time.Second
	transferTimeout = 15 * time.Minute
)

// APIError is a structured error response from the registry.
type APIError struct {
	Operation string
	Code      string
	Message   string
	Status    int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s failed: %s (%s, HTTP %d)", e.Operation, e.Message, e.Code, e.Status)
}

// Client talks to a tool registry over HTTP. It is stateless and safe for
// concurrent use; the install executor shares one Client across its workers.
type Client struct {
	baseURL  string
	token    string
	http     *http.Client
	transfer *http.Client
}

// NewClient creates a Client for the given registry URL. The token may be
// empty; only publish operations require one.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		http:     &http.Client{Timeout: defaultTimeout},
		transfer: &http.Client{Timeout: transferTimeout},
	}
}

// artifactResponse is the wire form of an artifact record.
type artifactResponse struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	LatestVersion string `json:"latest_version"`
}

// versionResponse is the wire form of a version record.
type versionResponse struct {
	Version          string                 `json:"version"`
	Files            map[string]versionFile `json:"files"`
	MainDownloadURL  string                 `json:"main_download_url"`
	MainDownloadSize int64                  `json:"main_download_size"`
}

type versionFile struct {
	Size int64 `json:"size"`
}

// GetArtifact fetches the package record for namespace/name.
func (c *Client) GetArtifact(ctx context.Context, namespace, name string) (*core.ArtifactInfo, error) {
	var resp artifactResponse
	path := fmt.Sprintf("/api/v1/artifacts/%s/%s", url.PathEscape(namespace), url.PathEscape(name))
	if err := c.getJSON(ctx, "GetArtifact", path, namespace+"/"+name, &resp); err != nil {
		return nil, err
	}
	return &core.ArtifactInfo{
		Namespace:     namespace,
		Name:          name,
		Description:   resp.Description,
		LatestVersion: resp.LatestVersion,
	}, nil
}

// GetVersion fetches one version's file listing and main download info.
func (c *Client) GetVersion(ctx context.Context, namespace, name, version string) (*core.VersionInfo, error) {
	var resp versionResponse
	path := fmt.Sprintf("/api/v1/artifacts/%s/%s/versions/%s",
		url.PathEscape(namespace), url.PathEscape(name), url.PathEscape(version))
	ref := fmt.Sprintf("%s/%s@%s", namespace, name, version)
	if err := c.getJSON(ctx, "GetVersion", path, ref, &resp); err != nil {
		return nil, err
	}

	files := make(map[string]int64, len(resp.Files))
	for filename, f := range resp.Files {
		files[filename] = f.Size
	}
	return &core.VersionInfo{
		Version:          resp.Version,
		Files:            files,
		MainDownloadURL:  resp.MainDownloadURL,
		MainDownloadSize: resp.MainDownloadSize,
	}, nil
}

// FileDownloadURL builds the download URL for one file of a version.
func (c *Client) FileDownloadURL(namespace, name, version, filename string) string {
	return fmt.Sprintf("%s/api/v1/artifacts/%s/%s/versions/%s/files/%s",
		c.baseURL, url.PathEscape(namespace), url.PathEscape(name),
		url.PathEscape(version), url.PathEscape(filename))
}

// ArtifactExists reports whether the package record exists.
func (c *Client) ArtifactExists(ctx context.Context, namespace, name string) (bool, error) {
	_, err := c.GetArtifact(ctx, namespace, name)
	if err != nil {
		var notFound *core.NotFoundError
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CreateArtifact creates the package record.
func (c *Client) CreateArtifact(ctx context.Context, namespace, name, description string, categories []string) error {
	body := map[string]any{
		"namespace":   namespace,
		"name":        name,
		"description": description,
	}
	if len(categories) > 0 {
		body["categories"] = categories
	}
	return c.postJSON(ctx, "CreateArtifact", "/api/v1/artifacts", body, nil)
}

// InitUpload declares an upload batch and returns presigned targets.
func (c *Client) InitUpload(ctx context.Context, namespace, name, version string, files []core.UploadFile) (*core.InitUploadResult, error) {
	type fileDecl struct {
		Name   string `json:"name"`
		Size   int64  `json:"size"`
		SHA256 string `json:"sha256"`
	}
	decls := make([]fileDecl, len(files))
	for i, f := range files {
		decls[i] = fileDecl{Name: f.Name, Size: f.Size, SHA256: f.SHA256}
	}

	var resp struct {
		UploadID string `json:"upload_id"`
		Uploads  []struct {
			Name      string `json:"name"`
			UploadURL string `json:"upload_url"`
			CDNURL    string `json:"cdn_url"`
		} `json:"uploads"`
	}
	path := fmt.Sprintf("/api/v1/artifacts/%s/%s/versions/%s/uploads",
		url.PathEscape(namespace), url.PathEscape(name), url.PathEscape(version))
	if err := c.postJSON(ctx, "InitUpload", path, map[string]any{"files": decls}, &resp); err != nil {
		return nil, err
	}

	result := &core.InitUploadResult{UploadID: resp.UploadID}
	for _, u := range resp.Uploads {
		result.Uploads = append(result.Uploads, core.UploadTarget{
			Name:      u.Name,
			UploadURL: u.UploadURL,
			CDNURL:    u.CDNURL,
		})
	}
	return result, nil
}

// UploadToPresignedURL PUTs one file's bytes to a presigned URL.
func (c *Client) UploadToPresignedURL(ctx context.Context, uploadURL string, data []byte, progress core.Progress) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL,
		&progressReader{r: bytes.NewReader(data), progress: progress})
	if err != nil {
		return fmt.Errorf("building upload request: %w", err)
	}
	req.ContentLength = int64(len(data))
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.transfer.Do(req)
	if err != nil {
		return fmt.Errorf("uploading: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.apiError("Upload", resp, "")
	}
	return nil
}

// PublishVersion finalizes an upload batch into a published version.
func (c *Client) PublishVersion(ctx context.Context, req *core.PublishRequest) (string, error) {
	body := map[string]any{
		"upload_id": req.UploadID,
		"version":   req.Version,
		"main_file": req.MainFile,
		"manifest":  json.RawMessage(req.ManifestJSON),
	}
	if req.Description != "" {
		body["description"] = req.Description
	}
	if len(req.Icons) > 0 {
		body["icons"] = req.Icons
	}

	var resp struct {
		Version string `json:"version"`
	}
	path := fmt.Sprintf("/api/v1/artifacts/%s/%s/publish",
		url.PathEscape(req.Namespace), url.PathEscape(req.Name))
	if err := c.postJSON(ctx, "PublishVersion", path, body, &resp); err != nil {
		return "", err
	}
	return resp.Version, nil
}

// DownloadWithProgress streams a URL to destPath, reporting progress by
// bytes written, and returns the byte count.
func (c *Client) DownloadWithProgress(ctx context.Context, downloadURL, destPath string, progress core.Progress) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return 0, fmt.Errorf("building download request: %w", err)
	}
	c.authorize(req)

	resp, err := c.transfer.Do(req)
	if err != nil {
		return 0, fmt.Errorf("downloading: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return 0, &core.NotFoundError{Kind: "download", Reference: downloadURL}
	}
	if resp.StatusCode != http.StatusOK {
		return 0, c.apiError("Download", resp, "")
	}

	if resp.ContentLength > 0 {
		progress.SetTotal(resp.ContentLength)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return 0, fmt.Errorf("creating download dir: %w", err)
	}
	out, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", destPath, err)
	}

	n, err := io.Copy(out, &progressReader{r: resp.Body, progress: progress})
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(destPath)
		return 0, fmt.Errorf("writing %s: %w", destPath, err)
	}
	return n, nil
}

func (c *Client) getJSON(ctx context.Context, operation, path, ref string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return &core.NotFoundError{Kind: "artifact", Reference: ref}
	}
	if resp.StatusCode != http.StatusOK {
		return c.apiError(operation, resp, ref)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", operation, err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, operation, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: encoding request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.apiError(operation, resp, "")
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s: decoding response: %w", operation, err)
		}
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// apiError decodes a structured error body, falling back to the raw text.
func (c *Client) apiError(operation string, resp *http.Response, ref string) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var wire struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	apiErr := &APIError{Operation: operation, Status: resp.StatusCode}
	if err := json.Unmarshal(data, &wire); err == nil && wire.Error.Message != "" {
		apiErr.Code = wire.Error.Code
		apiErr.Message = wire.Error.Message
	} else {
		apiErr.Code = http.StatusText(resp.StatusCode)
		apiErr.Message = strings.TrimSpace(string(data))
	}
	if apiErr.Message == "" {
		apiErr.Message = ref
	}
	return apiErr
}

// progressReader advances a Progress as bytes pass through.
type progressReader struct {
	r        io.Reader
	progress core.Progress
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.progress.Advance(int64(n))
	}
	return n, err
}
