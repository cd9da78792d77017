// Package service holds the settings that drive the connector service itself:
// the reconciliation cadence, the stuck-job staleness window, and the set of
// connectors the deployment is responsible for.
//
// Durations are read with units (SERVICE_JOB_CLEANUP_INTERVAL=300s). Lists are
// comma separated (SERVICE_NATIVE_SERVICE_TYPES=network_drive,sharepoint).
package service
