package s3

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// S3Storage keeps listing images in a MinIO (S3 compatible) bucket.
type S3Storage struct {
	client *minio.Client
	bucket string
	logger *logger.Logger
}

// NewS3Storage creates the client and makes sure the bucket exists.
func NewS3Storage(ctx context.Context, endpoint, accessKey, secretKey, bucketName string, useSSL bool, log *logger.Logger) (*S3Storage, error) {
	log.Info("Initializing S3 MinIO storage",
		zap.String("endpoint", endpoint),
		zap.String("bucket", bucketName),
		zap.Bool("use_ssl", useSSL),
	)

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", endpoint, err)
	}

	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", bucketName, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", bucketName, err)
		}
		log.Info("S3Storage: bucket created", zap.String("bucket", bucketName))
	}

	return &S3Storage{
		client: client,
		bucket: bucketName,
		logger: log.Named("S3Storage"),
	}, nil
}

// Upload stores the object under folder with a generated name that keeps the original extension.
func (s *S3Storage) Upload(ctx context.Context, folder, fileName, contentType string, r io.Reader, size int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	objectKey := path.Join(folder, uuid.NewString()+ext)

	info, err := s.client.PutObject(ctx, s.bucket, objectKey, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"original-filename": filepath.Base(fileName)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s to bucket %s: %w", objectKey, s.bucket, err)
	}

	s.logger.Debug("S3Storage.Upload: object stored",
		zap.String("bucket", info.Bucket),
		zap.String("key", info.Key),
		zap.String("etag", info.ETag),
		zap.Int64("size", info.Size),
	)
	return s.objectURL(objectKey), nil
}

func (s *S3Storage) objectURL(objectKey string) string {
	return fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucket, objectKey)
}
