package delta

import (
	"context"
	"time"
)

// Provider lists vacuum candidates for one table.
type Provider struct {
	Store Store
	Root  string
	// Now overrides the clock in tests.
	Now func() time.Time
}

// ListCandidates opens the table and runs a dry-run vacuum with the
// retention check enforced.
func (p *Provider) ListCandidates(ctx context.Context, retentionHours int64) ([]string, error) {
	table, err := Open(ctx, p.Store, p.Root)
	if err != nil {
		return nil, err
	}

	opts := VacuumOptions{
		RetentionHours:   retentionHours,
		DryRun:           true,
		EnforceRetention: true,
	}
	if p.Now != nil {
		opts.Now = p.Now()
	}
	return table.Vacuum(ctx, opts)
}
