// Package metrics defines the Prometheus collectors of the connector service.
//
// Collectors are registered on the default registry at init and exposed by the
// start command under GET /metrics.
//
//	metrics.OrphanJobsDeleted.Add(float64(report.Deleted))
//	defer metrics.ObserveSweep("stuck", time.Now())
package metrics
