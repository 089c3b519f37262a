// internal/application/usecase/media_usecase.go
package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ObjectStorage is the blob-store port (GCS in production).
type ObjectStorage interface {
	// UploadBytes stores data at objectPath and returns a download URL.
	UploadBytes(ctx context.Context, objectPath string, data []byte) (string, error)
	// UploadFile streams a local file to objectPath and returns a download URL.
	UploadFile(ctx context.Context, objectPath, localPath string) (string, error)
	// DownloadURL resolves an existing objectPath to a URL.
	DownloadURL(ctx context.Context, objectPath string) (string, error)
}

// MediaUsecase covers profile pictures and message attachments. Entirely
// outside the sync core: the log only ever stores the resulting URLs.
type MediaUsecase struct {
	store ObjectStorage

	idGen func() string
}

func NewMediaUsecase(store ObjectStorage) *MediaUsecase {
	return &MediaUsecase{
		store: store,
		idGen: func() string { return uuid.NewString() },
	}
}

func (u *MediaUsecase) WithIDGen(idGen func() string) *MediaUsecase {
	u.idGen = idGen
	return u
}

// UploadProfilePicture stores the avatar under images/ with the fixed
// per-user file name.
func (u *MediaUsecase) UploadProfilePicture(ctx context.Context, sess Session, data []byte) (string, error) {
	if !sess.Valid() {
		return "", ErrNoSession
	}
	path := fmt.Sprintf("images/%s_profile_picture.png", sess.Key())
	return u.store.UploadBytes(ctx, path, data)
}

// UploadMessagePhoto stores a photo attachment and returns its URL for the
// message payload.
func (u *MediaUsecase) UploadMessagePhoto(ctx context.Context, data []byte, ext string) (string, error) {
	path := fmt.Sprintf("message_images/photo_message_%s%s", u.idGen(), normalizeExt(ext, ".png"))
	return u.store.UploadBytes(ctx, path, data)
}

// UploadMessageVideo streams a video attachment from a local file.
func (u *MediaUsecase) UploadMessageVideo(ctx context.Context, localPath, ext string) (string, error) {
	path := fmt.Sprintf("message_videos/video_message_%s%s", u.idGen(), normalizeExt(ext, ".mov"))
	return u.store.UploadFile(ctx, path, localPath)
}

// ResolveURL returns the download URL for an already-stored object.
func (u *MediaUsecase) ResolveURL(ctx context.Context, objectPath string) (string, error) {
	objectPath = strings.TrimLeft(strings.TrimSpace(objectPath), "/")
	if objectPath == "" {
		return "", fmt.Errorf("media: empty object path")
	}
	return u.store.DownloadURL(ctx, objectPath)
}

func normalizeExt(ext, def string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" {
		return def
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
