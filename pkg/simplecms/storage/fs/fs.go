package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/tendant/simple-cms/pkg/simplecms"
)

const backendName = "fs"

// Config options for the filesystem backend
type Config struct {
	BaseDir string // Directory uploaded files are written below
}

// Backend stores uploaded files below a base directory, one file per object key.
type Backend struct {
	baseDir string
}

// New creates the base directory if needed and returns the backend
func New(config Config) (*Backend, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}
	baseDir, err := filepath.Abs(config.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &Backend{baseDir: baseDir}, nil
}

func fail(op, key string, err error) error {
	if errors.Is(err, iofs.ErrNotExist) {
		err = simplecms.ErrObjectNotFound
	}
	return &simplecms.StorageError{Backend: backendName, Key: key, Op: op, Err: err}
}

// resolve maps an object key to a file strictly below the base directory.
func (b *Backend) resolve(objectKey string) (string, error) {
	p := filepath.Join(b.baseDir, filepath.FromSlash(objectKey))
	if !strings.HasPrefix(p, b.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: object key %q escapes the storage directory", simplecms.ErrInvalidRequest, objectKey)
	}
	return p, nil
}

// Upload writes the object through a temporary file so readers never see a
// partial upload.
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	p, err := b.resolve(objectKey)
	if err != nil {
		return err
	}
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail("upload", objectKey, err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fail("upload", objectKey, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		return fail("upload", objectKey, err)
	}
	if err := tmp.Close(); err != nil {
		return fail("upload", objectKey, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fail("upload", objectKey, err)
	}
	return nil
}

// UploadWithParams ignores the MIME type; it is derived from the key on read.
func (b *Backend) UploadWithParams(ctx context.Context, reader io.Reader, params simplecms.UploadParams) error {
	return b.Upload(ctx, params.ObjectKey, reader)
}

// Download opens the stored file
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	p, err := b.resolve(objectKey)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(p)
	if err != nil {
		return nil, fail("download", objectKey, err)
	}
	return file, nil
}

// Delete removes the file and any directories left empty by it
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	p, err := b.resolve(objectKey)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		return fail("delete", objectKey, err)
	}
	for dir := filepath.Dir(p); dir != b.baseDir; dir = filepath.Dir(dir) {
		if os.Remove(dir) != nil {
			break
		}
	}
	return nil
}

// GetObjectMeta stats the file. The content type comes from the extension,
// falling back to sniffing the first 512 bytes.
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*simplecms.ObjectMeta, error) {
	p, err := b.resolve(objectKey)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, fail("stat", objectKey, err)
	}
	if info.IsDir() {
		return nil, fail("stat", objectKey, simplecms.ErrObjectNotFound)
	}

	contentType := mime.TypeByExtension(filepath.Ext(p))
	if contentType == "" {
		contentType = sniff(p)
	}

	return &simplecms.ObjectMeta{
		Key:         objectKey,
		Size:        info.Size(),
		ContentType: contentType,
		UpdatedAt:   info.ModTime().UTC(),
		ETag:        fmt.Sprintf("%x-%x", info.ModTime().UnixNano(), info.Size()),
		Metadata:    map[string]string{"content_type": contentType},
	}, nil
}

func sniff(p string) string {
	file, err := os.Open(p)
	if err != nil {
		return "application/octet-stream"
	}
	defer file.Close()
	head := make([]byte, 512)
	n, _ := io.ReadFull(file, head)
	return http.DetectContentType(head[:n])
}
