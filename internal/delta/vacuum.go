package delta

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	retentionKey     = "delta.deletedFileRetentionDuration"
	defaultRetention = 7 * 24 * time.Hour

	// maxRetentionHours is the largest hour count a time.Duration can hold.
	maxRetentionHours = math.MaxInt64 / int64(time.Hour)
)

// ErrNotDryRun is returned by Vacuum when asked to delete; deletion is left
// to the caller.
var ErrNotDryRun = errors.New("delta: vacuum only lists files, set DryRun")

type VacuumOptions struct {
	RetentionHours   int64
	DryRun           bool
	EnforceRetention bool
	// Now defaults to time.Now.
	Now time.Time
}

// MinRetention is the table's deleted-file retention, or seven days when the
// table does not configure one.
func (t *Table) MinRetention() (time.Duration, error) {
	raw, ok := t.metadata.Configuration[retentionKey]
	if !ok || strings.TrimSpace(raw) == "" {
		return defaultRetention, nil
	}
	d, err := parseInterval(raw)
	if err != nil {
		return 0, &TableAccessError{Root: t.root, Err: fmt.Errorf("%s: %w", retentionKey, err)}
	}
	return d, nil
}

// Vacuum returns the root-relative paths of files eligible for deletion,
// sorted lexicographically.
func (t *Table) Vacuum(ctx context.Context, opts VacuumOptions) ([]string, error) {
	if !opts.DryRun {
		return nil, ErrNotDryRun
	}
	if opts.RetentionHours < 0 {
		return nil, fmt.Errorf("delta: negative retention %d", opts.RetentionHours)
	}
	if opts.RetentionHours > maxRetentionHours {
		return nil, fmt.Errorf("delta: retention %d hours exceeds the maximum of %d", opts.RetentionHours, maxRetentionHours)
	}

	retention := time.Duration(opts.RetentionHours) * time.Hour
	if opts.EnforceRetention {
		minimum, err := t.MinRetention()
		if err != nil {
			return nil, err
		}
		if retention < minimum {
			return nil, &RetentionViolation{Requested: retention, Minimum: minimum}
		}
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	cutoff := now.Add(-retention)
	cutoffMs := cutoff.UnixMilli()

	keep := make(map[string]struct{}, len(t.files)+len(t.tombstones))
	for p := range t.files {
		keep[p] = struct{}{}
	}
	for p, r := range t.tombstones {
		if r.deletedAtMs() > cutoffMs {
			keep[p] = struct{}{}
		}
	}

	objects, err := t.store.List(ctx, t.root)
	if err != nil {
		return nil, &TableAccessError{Root: t.root, Err: err}
	}

	partitions := make(map[string]struct{}, len(t.metadata.PartitionColumns))
	for _, c := range t.metadata.PartitionColumns {
		partitions[c] = struct{}{}
	}

	var out []string
	for _, obj := range objects {
		rel := strings.TrimPrefix(obj.Key, t.root)
		if rel == "" || strings.HasSuffix(rel, "/") {
			continue
		}
		if isHidden(rel, partitions) {
			continue
		}
		if _, ok := keep[rel]; ok {
			continue
		}
		if !obj.ModTime.IsZero() && obj.ModTime.After(cutoff) {
			continue
		}
		out = append(out, rel)
	}

	sort.Strings(out)
	return out, nil
}

// isHidden reports whether any segment of rel starts with "_" or ".". A
// directory segment of the form col=value is visible when col is a
// partition column.
func isHidden(rel string, partitions map[string]struct{}) bool {
	segments := strings.Split(rel, "/")
	for i, seg := range segments {
		if seg == "" || (seg[0] != '_' && seg[0] != '.') {
			continue
		}
		if i < len(segments)-1 {
			if col, _, ok := strings.Cut(seg, "="); ok {
				if _, isPartition := partitions[col]; isPartition {
					continue
				}
			}
		}
		return true
	}
	return false
}

// parseInterval parses Delta interval strings such as "interval 7 days" or
// "168 hours".
func parseInterval(raw string) (time.Duration, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(raw)))
	if len(fields) > 0 && fields[0] == "interval" {
		fields = fields[1:]
	}
	if len(fields) != 2 {
		return 0, fmt.Errorf("invalid interval %q", raw)
	}

	n, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid interval %q", raw)
	}

	var unit time.Duration
	switch strings.TrimSuffix(fields[1], "s") {
	case "nanosecond":
		unit = time.Nanosecond
	case "microsecond":
		unit = time.Microsecond
	case "millisecond":
		unit = time.Millisecond
	case "second":
		unit = time.Second
	case "minute":
		unit = time.Minute
	case "hour":
		unit = time.Hour
	case "day":
		unit = 24 * time.Hour
	case "week":
		unit = 7 * 24 * time.Hour
	default:
		return 0, fmt.Errorf("invalid interval unit in %q", raw)
	}
	if n > math.MaxInt64/int64(unit) {
		return 0, fmt.Errorf("interval %q overflows", raw)
	}
	return time.Duration(n) * unit, nil
}
