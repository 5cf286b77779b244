// Package delta reads just enough of a Delta table's transaction log to
// answer one question: which files under the table root are no longer
// referenced by any version inside the retention window.
//
// # Log replay
//
// [Open] lists <root>_delta_log/, loads the newest complete checkpoint
// (single or multi-part Parquet) and applies every later JSON commit in
// version order. The result is the set of active add files, the remove
// tombstones with their deletion timestamps, and the latest table metadata.
//
// # Vacuum
//
// [Table.Vacuum] lists the table root and returns every file that is not
// active, not a tombstone newer than the retention cutoff, not hidden, and
// last modified before the cutoff. It never mutates storage.
//
//	table, err := delta.Open(ctx, store, "warehouse/events/")
//	if err != nil {
//	    return err
//	}
//	stale, err := table.Vacuum(ctx, delta.VacuumOptions{
//	    RetentionHours:   168,
//	    DryRun:           true,
//	    EnforceRetention: true,
//	})
package delta
