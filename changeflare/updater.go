// Package changeflare drives the reconciliation of provider-managed DNS
// records against the host's externally visible address.
package changeflare

import (
	"context"
	"net/netip"
	"time"

	"changeflare/ddns"
	"changeflare/log"

	"go.uber.org/zap"
)

// AddressResolver yields the externally observed transport address of this
// host. Implemented by *resolver.Chain.
type AddressResolver interface {
	Resolve(ctx context.Context) (netip.AddrPort, error)
}

// Updater owns one provider and one resolver and runs the reconciliation
// cycle: resolve the external address, fetch the record set, diff, update.
// Everything happens sequentially on the goroutine calling Run; cycles
// never overlap.
type Updater struct {
	resolver AddressResolver
	provider ddns.Interface
}

func NewUpdater(resolver AddressResolver, provider ddns.Interface) *Updater {
	return &Updater{resolver: resolver, provider: provider}
}

// RunOnce performs a single reconciliation cycle. No failure inside the
// cycle propagates: a resolution failure skips the record work entirely, a
// fetch failure falls back to the provider's last known snapshot, and a
// failed update is retried naturally next cycle because the content still
// mismatches.
func (u *Updater) RunOnce(ctx context.Context) {
	ctx = log.With(ctx, log.Stage("reconcile"))
	cycle := log.Elapsed("elapsed")

	addr, err := u.resolver.Resolve(ctx)
	if err != nil {
		log.S(ctx).Errorw("resolve failed, skip cycle", zap.Error(err))
		return
	}
	ip := addr.Addr().Unmap()

	records, err := u.provider.Records(ctx)
	if err != nil {
		log.S(ctx).Warnw("fetch failed, reconciling last known records",
			"count", len(records), zap.Error(err))
	}

	updated := 0
	for _, record := range records {
		candidate := record.WithContent(ip)
		if candidate.Equivalent(record) {
			log.S(ctx).Debugw("record in sync", "record", record.Name, "ns_type", record.Type)
			continue
		}

		// No family guard: an AAAA record is overwritten on value
		// inequality even when the resolved address is IPv4.
		if mismatchedFamily(record.Type, ip) {
			log.S(ctx).Warnw("record type does not match address family",
				"record", record.Name, "ns_type", record.Type, log.Addr(ip))
		}

		if _, err := u.provider.Update(ctx, candidate); err != nil {
			log.S(ctx).Warnw("update failed, will retry next cycle",
				"record", record.Name, zap.Error(err))
			continue
		}

		log.S(ctx).Infow("record updated",
			"record", record.Name,
			"ns_type", record.Type,
			"old_ip", record.Content,
			log.Addr(ip))
		updated++
	}

	log.L(ctx).Info("cycle complete",
		zap.Int("records", len(records)),
		zap.Int("updated", updated),
		cycle)
}

// Run reconciles immediately and then once per poll interval until ctx is
// cancelled.
func (u *Updater) Run(ctx context.Context) {
	interval := u.provider.PollInterval()
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		u.RunOnce(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func mismatchedFamily(recordType string, ip netip.Addr) bool {
	switch recordType {
	case "A":
		return !ip.Is4()
	case "AAAA":
		return !ip.Is6()
	default:
		return false
	}
}
