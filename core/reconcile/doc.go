// Package reconcile keeps the sync-job registry consistent with the connector registry.
//
// Two sweeps run on every cycle, each inside its own error boundary:
//
//  1. Orphan sweep: jobs whose connector no longer exists are deleted, together
//     with the content indices they wrote to (best effort).
//  2. Stuck sweep: in-progress jobs of supported connectors that have not been
//     updated within the stuck threshold are marked failed through the
//     directory.StateService.
//
// The Engine follows a plan/apply split so that a dry run reports what a sweep
// would do without touching either registry. The Loop repeats Engine sweeps
// every Config.Interval, classifies failures with an IsFatalFunc and always
// stops and closes both directories when it exits.
//
// # Usage
//
//	engine := reconcile.NewEngine(connectors, jobs, state, reconcile.Config{
//	    Interval:           5 * time.Minute,
//	    StuckThreshold:     time.Minute,
//	    NativeServiceTypes: []string{"network_drive"},
//	}, logger)
//	loop := reconcile.NewLoop(engine, nil, logger)
//	go loop.Run(ctx)
//	defer loop.Stop()
package reconcile
