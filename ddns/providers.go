package ddns

import (
	"context"
	"time"

	"changeflare/config"
)

// Interface is the narrow capability the reconciliation loop needs from a
// DNS backend. Construction through Providers is the only vendor-specific
// surface; the loop never sees anything beyond these three calls.
type Interface interface {
	// Records fetches the zone's current record set. On failure it returns
	// the last successfully fetched snapshot (empty on first call) together
	// with the error, so callers can keep reconciling against known state.
	Records(ctx context.Context) ([]Record, error)

	// Update replaces the remote record identified by r.ID with r's full
	// body. On failure the input record is returned unchanged together
	// with the error; the next cycle re-detects the mismatch and retries.
	Update(ctx context.Context, r Record) (Record, error)

	// PollInterval is the configured delay between reconciliation cycles.
	PollInterval() time.Duration
}

var Providers = map[string]func(ctx context.Context, provider config.Provider) (Interface, error){
	"cloudflare": newCloudflare,
}
