package checks

import (
	"context"
	"fmt"

	"connector-service/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// StorageReport describes the content index bucket.
type StorageReport struct {
	Bucket  string `json:"bucket"`
	Exists  bool   `json:"exists"`
	Indices int    `json:"indices"`
}

// CheckStorage reports whether the bucket exists and how many index prefixes it holds.
func CheckStorage(ctx context.Context, client storage.Client, bucket string) (*StorageReport, error) {
	report := &StorageReport{Bucket: bucket}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	report.Exists = exists
	if !exists {
		return report, nil
	}

	for obj := range client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Recursive: false}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list indices: %w", obj.Err)
		}
		report.Indices++
	}
	return report, nil
}

// FixStorage creates the bucket.
func FixStorage(ctx context.Context, client storage.Client, bucket, region string, logger *zap.Logger) error {
	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		logger.Error("Failed to create bucket", zap.String("bucket", bucket), zap.Error(err))
		return err
	}
	logger.Info("Created missing bucket", zap.String("bucket", bucket))
	return nil
}
