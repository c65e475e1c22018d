package uploads

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store saves uploaded item images under a local directory and serves them
// back by URL path. Paths handed out look like /uploads/items/<name> and are
// mounted as a static route by the HTTP server.
type Store struct {
	root string
}

// NewStore creates the items subdirectory under root.
func NewStore(root string) (*Store, error) {
	dir := filepath.Join(root, "items")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the directory the store writes under.
func (s *Store) Root() string {
	return s.root
}

// Save writes an uploaded file to disk and returns its URL path. The stored
// name is prefixed with a timestamp so repeated uploads of the same filename
// never collide.
func (s *Store) Save(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	name := fmt.Sprintf("%d-%s", time.Now().UnixNano(), sanitize(file.Filename))
	dst, err := os.Create(filepath.Join(s.root, "items", name))
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}

	return "/uploads/items/" + name, nil
}

// Remove deletes the stored file behind a URL path previously returned by
// Save. Unknown or already-deleted paths are not an error.
func (s *Store) Remove(urlPath string) error {
	name, ok := strings.CutPrefix(urlPath, "/uploads/items/")
	if !ok || name == "" || strings.Contains(name, "/") {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, "items", name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove upload: %w", err)
	}
	return nil
}

// sanitize strips path separators and whitespace from a client-supplied
// filename.
func sanitize(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	if name == "." || name == ".." || name == "" {
		return "upload"
	}
	return name
}
