package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// LocalStore keeps objects on a filesystem, for development and tests.
// Objects are served back by mounting FileSystem under the public URL.
type LocalStore struct {
	fs        afero.Fs
	publicURL string
}

// NewLocalStore stores objects in the directory root on disk
func NewLocalStore(root, publicURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory, %w", err)
	}

	return NewLocalStoreFs(afero.NewBasePathFs(afero.NewOsFs(), root), publicURL), nil
}

func NewLocalStoreFs(fs afero.Fs, publicURL string) *LocalStore {
	return &LocalStore{
		fs:        fs,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}
}

func (l *LocalStore) Upload(ctx context.Context, p string, opts UploadOptions) (*Object, error) {
	src, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open file, %w", err)
	}
	defer src.Close()

	format, ext, err := describe(p, opts.Filename)
	if err != nil {
		return nil, err
	}

	key, err := newKey(opts.Namespace, ext)
	if err != nil {
		return nil, err
	}

	if err := l.fs.MkdirAll(path.Dir("/"+key), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create object directory, %w", err)
	}

	dst, err := l.fs.Create("/" + key)
	if err != nil {
		return nil, fmt.Errorf("failed to create object, %w", err)
	}

	_, err = io.Copy(dst, &ctxReader{ctx: ctx, r: src})
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		l.fs.Remove("/" + key)
		return nil, fmt.Errorf("failed to write object, %w", err)
	}

	stat, err := l.fs.Stat("/" + key)
	if err != nil {
		return nil, fmt.Errorf("failed to stat object, %w", err)
	}

	return &Object{
		URL:        l.publicURL + "/" + key,
		ExternalID: key,
		Format:     format,
		Bytes:      stat.Size(),
	}, nil
}

func (l *LocalStore) Delete(_ context.Context, externalID string) error {
	if strings.Contains(externalID, "..") {
		return fmt.Errorf("invalid object key %q", externalID)
	}

	err := l.fs.Remove("/" + externalID)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete object, %w", err)
	}

	return nil
}

// FileSystem exposes the stored objects for http.FileServer
func (l *LocalStore) FileSystem() http.FileSystem {
	return afero.NewHttpFs(l.fs).Dir("/")
}

// ctxReader stops a copy once ctx is done
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}

	return c.r.Read(p)
}
