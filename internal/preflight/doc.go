// Package preflight checks that a project can be served before any index is
// touched: configuration, disk, file limits, the legacy store directory and
// the catalog.
//
// The checks never create files or directories outside a short-lived probe
// file, so they are safe to run against a project in use:
//
//	checker := preflight.New(preflight.WithOutput(os.Stdout))
//	results := checker.RunAll(ctx, root)
//	checker.PrintResults(results)
//	if checker.HasCriticalFailures(results) {
//	    // refuse to continue
//	}
package preflight
