package sources

import (
	"context"
	"fmt"

	"connector-service/core/directory"
	"connector-service/core/service"
	"connector-service/core/source"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// ConnectorSummary describes a connector without its configuration.
type ConnectorSummary struct {
	ID             string              `json:"id"`
	ServiceType    string              `json:"service_type"`
	IsNative       bool                `json:"is_native"`
	IndexName      string              `json:"index_name"`
	Registered     bool                `json:"registered"`
	LastSyncStatus directory.JobStatus `json:"last_sync_status,omitempty"`
}

// Listing is the answer of GET /sources.
type Listing struct {
	ServiceTypes []string           `json:"service_types"`
	Connectors   []ConnectorSummary `json:"connectors"`
}

// Service opens the document source of a connector.
type Service struct {
	connectors directory.ConnectorDirectory
	registry   *source.Registry
	features   service.Features
	logger     *zap.Logger
}

// NewService creates a new sources service.
func NewService(connectors directory.ConnectorDirectory, registry *source.Registry, features service.Features, logger *zap.Logger) *Service {
	return &Service{connectors: connectors, registry: registry, features: features, logger: logger}
}

// List returns every connector of the registry.
func (s *Service) List(ctx context.Context) (*Listing, error) {
	listing := &Listing{ServiceTypes: s.registry.ServiceTypes(), Connectors: []ConnectorSummary{}}
	for c, err := range s.connectors.AllConnectors(ctx) {
		if err != nil {
			return nil, err
		}
		_, registered := s.registry.Lookup(c.ServiceType)
		listing.Connectors = append(listing.Connectors, ConnectorSummary{
			ID:             c.ID,
			ServiceType:    c.ServiceType,
			IsNative:       c.IsNative,
			IndexName:      c.IndexName,
			Registered:     registered,
			LastSyncStatus: c.LastSyncStatus,
		})
	}
	return listing, nil
}

// Open builds the source of a connector. Callers close it.
func (s *Service) Open(ctx context.Context, connectorID string) (source.DocumentSource, error) {
	connector, err := s.connectors.FetchByID(ctx, connectorID)
	if err != nil {
		return nil, err
	}
	return s.registry.Create(connector, source.Options{
		Features: s.features,
		Logger:   s.logger,
	})
}

// Ping checks connectivity of a connector's backend once.
func (s *Service) Ping(ctx context.Context, connectorID string) error {
	src, err := s.Open(ctx, connectorID)
	if err != nil {
		return err
	}
	defer s.close(ctx, src)
	return src.Ping(ctx)
}

// ValidateFiltering runs every advanced rule validator of the connector's source.
func (s *Service) ValidateFiltering(ctx context.Context, connectorID string, advanced json.RawMessage) ([]source.FilteringValidationResult, error) {
	src, err := s.Open(ctx, connectorID)
	if err != nil {
		return nil, err
	}
	defer s.close(ctx, src)

	validating, ok := src.(source.RulesValidating)
	if !ok {
		if (source.Filtering{Advanced: advanced}).HasAdvancedRules() {
			return []source.FilteringValidationResult{
				source.Invalid(source.AdvancedRulesID, "advanced rules are not supported by this source"),
			}, nil
		}
		return []source.FilteringValidationResult{source.Valid(source.AdvancedRulesID)}, nil
	}

	var results []source.FilteringValidationResult
	for _, v := range validating.AdvancedRulesValidators() {
		res, err := v.Validate(ctx, advanced)
		if err != nil {
			return nil, fmt.Errorf("advanced rules validation failed: %w", err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *Service) close(ctx context.Context, src source.DocumentSource) {
	if err := src.Close(ctx); err != nil {
		s.logger.Warn("Failed to close source", zap.Error(err))
	}
}
