package simplecms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/tendant/simple-cms/pkg/simplecms/content"
	"github.com/tendant/simple-cms/pkg/utils"
)

const defaultMimeType = "application/octet-stream"

// File operations

func (s *service) UploadFile(ctx context.Context, req UploadFileRequest) (*content.FileValue, error) {
	ct, err := s.types.Get(req.TypeID)
	if err != nil {
		return nil, err
	}
	if s.blobStore == nil {
		return nil, errors.New("blob store is not configured")
	}
	if req.Reader == nil {
		return nil, invalid("file content is required")
	}

	key := utils.ObjectKey(ct.ID, uuid.NewString(), req.FileName)
	name := path.Base(key)
	if strings.TrimSpace(req.FileName) == "" || name == "." || name == ".." {
		return nil, invalid("file name is required")
	}

	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(name))
	}
	if mimeType == "" {
		mimeType = defaultMimeType
	}

	if err := s.blobStore.UploadWithParams(ctx, req.Reader, UploadParams{ObjectKey: key, MimeType: mimeType}); err != nil {
		return nil, fmt.Errorf("failed to store %s: %w", key, err)
	}
	slog.Info("File uploaded", "type", ct.ID, "key", key, "mime_type", mimeType)

	return &content.FileValue{
		Original: req.FileName,
		Name:     name,
		Type:     mimeType,
		Relative: key,
		Absolute: content.AbsolutePath(s.publicRoot, key),
	}, nil
}

func (s *service) DownloadFile(ctx context.Context, relative string) (io.ReadCloser, *ObjectMeta, error) {
	if s.blobStore == nil {
		return nil, nil, errors.New("blob store is not configured")
	}
	key := strings.TrimPrefix(path.Clean("/"+relative), "/")
	if key == "" || key != relative {
		return nil, nil, invalid("invalid file path %q", relative)
	}

	meta, err := s.blobStore.GetObjectMeta(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	reader, err := s.blobStore.Download(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	return reader, meta, nil
}

func (s *service) PublicRoot() string {
	return s.publicRoot
}
