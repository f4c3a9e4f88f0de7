// Package drive implements the artifact storage gateway against the Google
// Drive v3 REST API.
package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	llmhttp "github.com/bkyoung/bookreviewer/internal/adapter/llm/http"
	"github.com/bkyoung/bookreviewer/internal/domain"
)

const (
	defaultAPIURL    = "https://www.googleapis.com"
	defaultUploadURL = "https://www.googleapis.com/upload/drive/v3/files?uploadType=multipart"
	defaultTimeout   = 30 * time.Second

	markdownMimeType = "text/markdown"
	markdownExt      = ".md"
)

var (
	whitespace   = regexp.MustCompile(`\s+`)
	disallowed   = regexp.MustCompile(`[^0-9A-Za-z가-힣._\-]`)
	mdExtPattern = regexp.MustCompile(`\.md$`)
)

// Logger receives storage warnings. Satisfied by the observability logger.
type Logger interface {
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
}

// Config holds the settings for the Drive client. An empty AccessToken marks
// the integration as disabled: uploads return no handle and deletes are no-ops.
type Config struct {
	AccessToken    string
	ParentFolderID string
	APIURL         string
	UploadURL      string
	Timeout        time.Duration
}

// Client uploads, downloads and deletes review artifacts by opaque file id.
// The client holds no per-file state.
type Client struct {
	accessToken    string
	parentFolderID string
	apiURL         string
	uploadURL      string
	client         *http.Client
	logger         Logger
}

// NewClient creates a Drive client from config, applying endpoint defaults.
func NewClient(cfg Config) *Client {
	apiURL := strings.TrimSuffix(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	uploadURL := cfg.UploadURL
	if uploadURL == "" {
		uploadURL = defaultUploadURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		accessToken:    cfg.AccessToken,
		parentFolderID: cfg.ParentFolderID,
		apiURL:         apiURL,
		uploadURL:      uploadURL,
		client:         &http.Client{Timeout: timeout},
	}
}

// SetLogger wires structured logging.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// fileMetadata is the metadata part of a multipart upload.
type fileMetadata struct {
	Name     string   `json:"name"`
	MimeType string   `json:"mimeType"`
	Parents  []string `json:"parents,omitempty"`
}

// Upload stores a markdown artifact and returns its file id. When credentials
// are absent it returns an empty handle and no error so callers can treat
// storage as optionally disabled.
func (c *Client) Upload(ctx context.Context, filename, content string) (string, error) {
	if strings.TrimSpace(filename) == "" || strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("upload: %w", domain.ErrBlankField)
	}
	if c.accessToken == "" {
		c.warn(ctx, "storage credentials missing, skipping upload", nil)
		return "", nil
	}

	safeName := SanitizeFilename(filename)

	meta := fileMetadata{Name: safeName, MimeType: markdownMimeType}
	if c.parentFolderID != "" {
		meta.Parents = []string{c.parentFolderID}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal file metadata: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	metaPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"application/json; charset=UTF-8"},
	})
	if err != nil {
		return "", fmt.Errorf("build upload body: %w", err)
	}
	if _, err := metaPart.Write(metaJSON); err != nil {
		return "", fmt.Errorf("build upload body: %w", err)
	}

	contentPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {markdownMimeType},
	})
	if err != nil {
		return "", fmt.Errorf("build upload body: %w", err)
	}
	if _, err := contentPart.Write([]byte(content)); err != nil {
		return "", fmt.Errorf("build upload body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("build upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &buf)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "multipart/related; boundary="+writer.Boundary())

	c.info(ctx, "uploading artifact", map[string]interface{}{
		"filename":      safeName,
		"authorization": llmhttp.MaskAuthorization(req.Header.Get("Authorization")),
	})

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload to storage: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read upload response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("storage upload returned HTTP %d", resp.StatusCode)
	}

	var uploaded struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &uploaded); err != nil {
		return "", fmt.Errorf("parse upload response: %w", err)
	}
	if uploaded.ID == "" {
		return "", fmt.Errorf("storage returned empty file id")
	}

	c.info(ctx, "artifact uploaded", map[string]interface{}{
		"fileId":   uploaded.ID,
		"filename": safeName,
	})
	return uploaded.ID, nil
}

// Download streams a previously uploaded artifact. Unknown handles map to
// domain.ErrNotFound; a disabled integration behaves the same way.
func (c *Client) Download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	if strings.TrimSpace(fileID) == "" {
		return nil, fmt.Errorf("download: %w", domain.ErrBlankField)
	}
	if c.accessToken == "" {
		return nil, fmt.Errorf("storage integration disabled: %w", domain.ErrNotFound)
	}

	endpoint := fmt.Sprintf("%s/drive/v3/files/%s?alt=media", c.apiURL, url.PathEscape(fileID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download from storage: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, fmt.Errorf("file %s: %w", fileID, domain.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("storage download returned HTTP %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// Delete removes an uploaded artifact by handle. Errors are returned so
// callers can record warnings, but every caller treats deletion as
// best-effort; a disabled integration is a logged no-op.
func (c *Client) Delete(ctx context.Context, fileID string) error {
	if strings.TrimSpace(fileID) == "" {
		return nil
	}
	if c.accessToken == "" {
		c.warn(ctx, "storage integration disabled, skipping delete", map[string]interface{}{"fileId": fileID})
		return nil
	}

	endpoint := fmt.Sprintf("%s/drive/v3/files/%s", c.apiURL, url.PathEscape(fileID))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		c.warn(ctx, "storage delete failed", map[string]interface{}{"fileId": fileID, "error": err.Error()})
		return fmt.Errorf("delete from storage: %w", err)
	}
	defer resp.Body.Close()

	// 404 counts as deleted: the artifact is gone either way.
	if resp.StatusCode != http.StatusNotFound && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		c.warn(ctx, "storage delete failed", map[string]interface{}{"fileId": fileID, "status": resp.StatusCode})
		return fmt.Errorf("storage delete returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// SanitizeFilename produces a name the remote store accepts: NFC-normalized,
// trimmed, whitespace collapsed to hyphens, characters outside letters,
// digits, Hangul, period, hyphen and underscore stripped, with a .md extension.
func SanitizeFilename(filename string) string {
	base := mdExtPattern.ReplaceAllString(norm.NFC.String(filename), "")
	base = whitespace.ReplaceAllString(strings.TrimSpace(base), "-")
	base = disallowed.ReplaceAllString(base, "")
	return base + markdownExt
}

func (c *Client) warn(ctx context.Context, msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.LogWarning(ctx, msg, fields)
	}
}

func (c *Client) info(ctx context.Context, msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.LogInfo(ctx, msg, fields)
	}
}
