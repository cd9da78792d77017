package integrity

import (
	"context"

	"connector-service/core/storage"
	"connector-service/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service handles integrity checks.
type Service struct {
	client storage.Client
	bucket string
	region string
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates a new integrity service.
func NewService(client storage.Client, cfg storage.Config, db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
		db:     db,
		logger: logger,
	}
}

// CheckStorage inspects the content index bucket.
func (s *Service) CheckStorage(ctx context.Context) (*checks.StorageReport, error) {
	return checks.CheckStorage(ctx, s.client, s.bucket)
}

// FixStorage creates the content index bucket.
func (s *Service) FixStorage(ctx context.Context) error {
	return checks.FixStorage(ctx, s.client, s.bucket, s.region, s.logger)
}

// CheckDatabase compares the registry tables with the models.
func (s *Service) CheckDatabase() (*checks.SchemaReport, error) {
	return checks.CheckSchema(s.db)
}
