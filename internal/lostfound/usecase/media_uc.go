package usecase

import (
	"bytes"
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"go.uber.org/zap"
)

const DefaultMaxImageBytes int64 = 10 << 20

var allowedImageExt = map[string]bool{".jpeg": true, ".jpg": true, ".png": true, ".gif": true}

var allowedImageTypes = map[string]bool{"image/jpeg": true, "image/png": true, "image/gif": true}

// MediaUsecase filters uploads before handing them to the media store.
type MediaUsecase struct {
	store    MediaStore
	maxBytes int64
	timeout  time.Duration
	logger   *logger.Logger
}

func NewMediaUsecase(store MediaStore, maxBytes int64, timeout time.Duration, log *logger.Logger) *MediaUsecase {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &MediaUsecase{
		store:    store,
		maxBytes: maxBytes,
		timeout:  timeout,
		logger:   log.Named("MediaUsecase"),
	}
}

func (uc *MediaUsecase) MaxBytes() int64 {
	return uc.maxBytes
}

// UploadImage accepts jpeg, png and gif payloads up to the size limit and returns their URL.
// The content type is sniffed from the bytes, not taken from the client.
func (uc *MediaUsecase) UploadImage(ctx context.Context, uploaderID, fileName string, data []byte) (string, error) {
	if strings.TrimSpace(uploaderID) == "" {
		return "", domain.Invalid("uploader", "identity is required")
	}
	if len(data) == 0 {
		return "", domain.Invalid("image", "is empty")
	}
	if int64(len(data)) > uc.maxBytes {
		return "", domain.Invalid("image", "exceeds the size limit")
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedImageExt[ext] {
		return "", domain.Invalid("image", "only jpeg, jpg, png and gif files are allowed")
	}
	contentType := http.DetectContentType(data)
	if !allowedImageTypes[contentType] {
		return "", domain.Invalid("image", "content is not a jpeg, png or gif image")
	}

	mctx, cancel := withTimeout(ctx, uc.timeout)
	defer cancel()

	url, err := uc.store.Upload(mctx, "listings/"+uploaderID, fileName, contentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		uc.logger.Error("image upload failed", zap.String("uploader_id", uploaderID), zap.Error(err))
		return "", domain.Unavailable("upload image", err)
	}

	uc.logger.Info("image uploaded", zap.String("uploader_id", uploaderID), zap.String("url", url), zap.Int("bytes", len(data)))
	return url, nil
}
