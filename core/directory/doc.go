// Package directory holds the connector and sync-job registries.
//
// ConnectorDirectory and SyncJobDirectory are the contracts the reconciliation
// sweep consumes; GormConnectors and GormJobs implement them over the tables
// connectors and sync_jobs. Listing operations return lazy iter.Seq2
// sequences backed by keyset pagination, so a page is only fetched when the
// consumer reaches it.
//
// StopWaiting cancels any query in flight and makes later calls fail with
// ErrStopped; Close marks the directory unusable (ErrClosed). The database
// handle itself belongs to the caller.
//
// State transitions requested by other components go through StateService.
//
//	connectors := directory.NewGormConnectors(db, 100)
//	for c, err := range connectors.AllConnectors(ctx) {
//	    if err != nil {
//	        return err
//	    }
//	    ids = append(ids, c.ID)
//	}
package directory
