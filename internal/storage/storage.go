// Package storage is the blob-store boundary for message attachments.
// The core only keeps the opaque locator; content lives outside it.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage stores attachment blobs and resolves their public URLs.
type Storage interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
	URL(locator string) string
	Delete(ctx context.Context, locator string) error
}

// Disk is a path-based Storage rooted at a local directory.
type Disk struct {
	root    string
	baseURL string
}

// NewDisk constructs a Disk store.
func NewDisk(root, baseURL string) *Disk {
	return &Disk{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

// Save writes the blob under a fresh random directory and returns its
// locator. The original filename is preserved inside the directory, so
// locators never collide even for identical names.
func (d *Disk) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	locator := path.Join("attachments", uuid.NewString(), sanitize(filename))
	full := filepath.Join(d.root, filepath.FromSlash(locator))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create attachment dir: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create attachment file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("write attachment: %w", err)
	}
	return locator, nil
}

// URL returns the public URL for a locator.
func (d *Disk) URL(locator string) string {
	return d.baseURL + "/" + locator
}

// Delete removes the blob; a missing blob is not an error.
func (d *Disk) Delete(ctx context.Context, locator string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full := filepath.Join(d.root, filepath.FromSlash(locator))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func sanitize(filename string) string {
	name := filepath.Base(filepath.Clean(filename))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "file"
	}
	return name
}
