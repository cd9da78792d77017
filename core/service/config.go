package service

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the connector service settings shared by the sweep and the sources.
type Config struct {
	// JobCleanupInterval is the pause between two reconciliation sweeps.
	JobCleanupInterval time.Duration `mapstructure:"job_cleanup_interval" default:"300s"`
	// StuckJobThreshold is how long an in-progress job may go without a status update.
	StuckJobThreshold time.Duration `mapstructure:"stuck_job_threshold" default:"60s"`
	// NativeServiceTypes lists the service types handled natively by this deployment.
	NativeServiceTypes []string `mapstructure:"native_service_types" default:"network_drive"`
	// ConnectorID is an explicitly configured (non-native) connector.
	ConnectorID string `mapstructure:"connector_id" default:""`
	// PageSize bounds every registry page fetched while iterating.
	PageSize int `mapstructure:"page_size" default:"100"`
}

// Features holds deployment-wide capability switches.
type Features struct {
	// DocumentLevelSecurity enables access-control decoration for the whole deployment.
	DocumentLevelSecurity bool `mapstructure:"document_level_security" default:"true"`
}

// ConnectorIDs returns the explicitly configured connector ids.
func (c Config) ConnectorIDs() []string {
	if c.ConnectorID == "" {
		return nil
	}
	return []string{c.ConnectorID}
}

// Validate checks the loaded values.
func (c Config) Validate() error {
	var errs []error
	if c.JobCleanupInterval <= 0 {
		errs = append(errs, fmt.Errorf("job_cleanup_interval must be positive, got %s", c.JobCleanupInterval))
	}
	if c.StuckJobThreshold <= 0 {
		errs = append(errs, fmt.Errorf("stuck_job_threshold must be positive, got %s", c.StuckJobThreshold))
	}
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page_size must be positive, got %d", c.PageSize))
	}
	return errors.Join(errs...)
}
