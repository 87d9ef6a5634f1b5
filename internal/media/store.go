// Package media stores uploaded files in a remote or local object store
package media

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"storagify/file-api/pkg/util"

	"github.com/gabriel-vasile/mimetype"
)

// Store is where uploaded bytes end up. Implementations must report the
// stored size themselves instead of trusting the caller.
type Store interface {
	// Upload stores the file at path and returns where it ended up
	Upload(ctx context.Context, path string, opts UploadOptions) (*Object, error)
	// Delete removes the object with the given external ID
	Delete(ctx context.Context, externalID string) error
}

type UploadOptions struct {
	// Prefix for the object key, usually uploads/<userID>
	Namespace   string
	Tags        []string
	Filename    string
	ContentType string
}

type Object struct {
	URL        string
	ExternalID string
	Format     string
	Bytes      int64
}

// describe detects the format of the file at path. The extension of the
// original file name is used when the content isn't recognized.
func describe(path, filename string) (format, ext string, err error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to detect file type, %w", err)
	}

	ext = mt.Extension()
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(filename))
	}

	return strings.TrimPrefix(ext, "."), ext, nil
}

func newKey(namespace, ext string) (string, error) {
	id, err := util.NewID()
	if err != nil {
		return "", fmt.Errorf("failed to generate object key, %w", err)
	}

	namespace = strings.Trim(namespace, "/")
	if namespace == "" {
		return id + ext, nil
	}

	return namespace + "/" + id + ext, nil
}
