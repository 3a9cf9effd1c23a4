package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/domain"
)

const maxDownloadBytes = 64 << 20

// FileStore persists artifacts onto the local filesystem and serves them
// under baseURL. It also resolves remote and inline data: locators.
type FileStore struct {
	basePath   string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// Options configures a FileStore.
type Options struct {
	BasePath        string
	BaseURL         string
	HTTPClient      *http.Client
	DownloadTimeout time.Duration
}

// NewFileStore initializes a FileStore rooted at opts.BasePath.
func NewFileStore(opts Options) (*FileStore, error) {
	basePath := strings.TrimSpace(opts.BasePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := opts.DownloadTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FileStore{
		basePath:   basePath,
		baseURL:    strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		httpClient: httpClient,
		timeout:    timeout,
	}, nil
}

// BasePath returns the configured root directory.
func (s *FileStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// Upload writes data under folder and returns its public locator. An empty
// name gets a random one; the extension follows the sniffed content type.
func (s *FileStore) Upload(ctx context.Context, data []byte, folder, name string) (string, error) {
	if len(data) == 0 {
		return "", errors.New("storage: empty upload")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = uuid.NewString()
	}
	if path.Ext(name) == "" {
		name += extensionFor(data)
	}
	key, err := s.Write(ctx, path.Join(folder, name), data)
	if err != nil {
		return "", err
	}
	return s.locator(key), nil
}

// Write persists the provided bytes at the given relative key and returns the
// canonicalized storage key. Keys are cleaned to prevent directory traversal.
func (s *FileStore) Write(ctx context.Context, key string, data []byte) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(cleanKey))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("storage: ensure directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	return cleanKey, nil
}

// Download resolves a locator to bytes. Inline data: URLs and locators under
// the store's own base URL never touch the network.
func (s *FileStore) Download(ctx context.Context, locator string) ([]byte, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return nil, errors.New("storage: locator is required")
	}
	if strings.HasPrefix(locator, "data:") {
		return DecodeDataURL(locator)
	}
	if s.baseURL != "" && strings.HasPrefix(locator, s.baseURL+"/") {
		return s.read(strings.TrimPrefix(locator, s.baseURL+"/"))
	}
	if u, err := url.Parse(locator); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return s.fetch(ctx, u.String())
	}
	return s.read(locator)
}

func (s *FileStore) read(key string) ([]byte, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.basePath, filepath.FromSlash(cleanKey)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("storage: %s: %w", cleanKey, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("storage: read file: %w", err)
	}
	return data, nil
}

func (s *FileStore) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: build download request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storage: %w: %v", domain.ErrDependencyUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("storage: download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, fmt.Errorf("storage: read download: %w", err)
	}
	return data, nil
}

func (s *FileStore) locator(key string) string {
	if s.baseURL == "" {
		return key
	}
	return s.baseURL + "/" + key
}

// DecodeDataURL returns the payload of a base64 data: URL.
func DecodeDataURL(locator string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(locator, "data:"), ",")
	if !ok {
		return nil, errors.New("storage: malformed data url")
	}
	if !strings.HasSuffix(header, ";base64") {
		decoded, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("storage: decode data url: %w", err)
		}
		return []byte(decoded), nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("storage: decode data url: %w", err)
	}
	return data, nil
}

func extensionFor(data []byte) string {
	contentType := http.DetectContentType(data)
	switch contentType {
	case "image/webp":
		return ".webp"
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.Clean(key)
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("storage: invalid key")
	}
	return cleaned, nil
}

var _ domain.BlobStore = (*FileStore)(nil)
