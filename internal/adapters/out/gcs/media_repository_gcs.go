// internal/adapters/out/gcs/media_repository_gcs.go
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
)

// ========================================
// Errors
// ========================================

var (
	ErrFailedToUpload         = errors.New("gcs: failed to upload")
	ErrFailedToGetDownloadURL = errors.New("gcs: failed to get download url")
)

// MediaRepositoryGCS is the blob store for profile pictures and message
// attachments: images/, message_images/ and message_videos/ prefixes under
// one bucket. Implements the usecase ObjectStorage port.
type MediaRepositoryGCS struct {
	Client *storage.Client
	Bucket string
}

const defaultMediaBucket = "messenger_media"

func NewMediaRepositoryGCS(client *storage.Client, bucket string) *MediaRepositoryGCS {
	b := strings.TrimSpace(bucket)
	if b == "" {
		b = defaultMediaBucket
	}
	return &MediaRepositoryGCS{Client: client, Bucket: b}
}

func (r *MediaRepositoryGCS) object(objectPath string) *storage.ObjectHandle {
	return r.Client.Bucket(r.Bucket).Object(strings.TrimLeft(objectPath, "/"))
}

// =======================
// ObjectStorage impl
// =======================

// UploadBytes writes data at objectPath and resolves its URL.
func (r *MediaRepositoryGCS) UploadBytes(ctx context.Context, objectPath string, data []byte) (string, error) {
	if r.Client == nil {
		return "", errors.New("storage client is nil")
	}

	w := r.object(objectPath).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("%w: %v", ErrFailedToUpload, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedToUpload, err)
	}

	return r.DownloadURL(ctx, objectPath)
}

// UploadFile streams a local file to objectPath and resolves its URL.
func (r *MediaRepositoryGCS) UploadFile(ctx context.Context, objectPath, localPath string) (string, error) {
	if r.Client == nil {
		return "", errors.New("storage client is nil")
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedToUpload, err)
	}
	defer f.Close()

	w := r.object(objectPath).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("%w: %v", ErrFailedToUpload, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedToUpload, err)
	}

	return r.DownloadURL(ctx, objectPath)
}

// DownloadURL resolves an existing object to its public URL, verifying the
// object actually exists first.
func (r *MediaRepositoryGCS) DownloadURL(ctx context.Context, objectPath string) (string, error) {
	if r.Client == nil {
		return "", errors.New("storage client is nil")
	}

	objectPath = strings.TrimLeft(strings.TrimSpace(objectPath), "/")
	if _, err := r.object(objectPath).Attrs(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedToGetDownloadURL, err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", r.Bucket, objectPath), nil
}
