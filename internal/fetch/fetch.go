package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ErrTooLarge means the remote file exceeded the download limit.
var ErrTooLarge = errors.New("file exceeds download limit")

// Fetcher downloads source files into a scratch directory.
type Fetcher struct {
	dir        string
	maxBytes   int64
	httpClient *http.Client
}

func New(dir string, maxBytes int64, httpClient *http.Client) *Fetcher {
	return &Fetcher{dir: dir, maxBytes: maxBytes, httpClient: httpClient}
}

// Download saves url under a unique name derived from name and returns the
// local path. A partial file is removed on failure.
func (f *Fetcher) Download(ctx context.Context, url, name string) (string, error) {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("download: status %d: %s", resp.StatusCode, string(body))
	}

	out, err := os.CreateTemp(f.dir, "*-"+sanitizeFilename(name))
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	path := out.Name()

	n, copyErr := io.Copy(out, io.LimitReader(resp.Body, f.maxBytes+1))
	closeErr := out.Close()
	switch {
	case copyErr != nil:
		err = fmt.Errorf("write file: %w", copyErr)
	case closeErr != nil:
		err = fmt.Errorf("close file: %w", closeErr)
	case n > f.maxBytes:
		err = fmt.Errorf("%w (%d bytes)", ErrTooLarge, f.maxBytes)
	}
	if err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// Remove deletes a downloaded file. A missing file is not an error.
func (f *Fetcher) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	name = strings.ReplaceAll(name, "*", "_")
	if name == "" || name == "." {
		name = "unnamed.pdf"
	}
	return name
}
