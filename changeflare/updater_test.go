package changeflare_test

import (
	"context"
	"errors"
	"net/netip"
	"testing"
	"time"

	"changeflare/changeflare"
	"changeflare/ddns"
)

type fakeResolver struct {
	addr netip.AddrPort
	err  error
}

func (f *fakeResolver) Resolve(context.Context) (netip.AddrPort, error) {
	return f.addr, f.err
}

type fakeProvider struct {
	records   []ddns.Record
	listErr   error
	updateErr error

	listCalls int
	updates   []ddns.Record
}

func (f *fakeProvider) Records(context.Context) ([]ddns.Record, error) {
	f.listCalls++
	return f.records, f.listErr
}

func (f *fakeProvider) Update(_ context.Context, r ddns.Record) (ddns.Record, error) {
	f.updates = append(f.updates, r)
	return r, f.updateErr
}

func (f *fakeProvider) PollInterval() time.Duration {
	return time.Minute
}

func record(id, name, recordType, content string) ddns.Record {
	return ddns.Record{
		ID:      id,
		Name:    name,
		Type:    recordType,
		Content: netip.MustParseAddr(content),
		TTL:     1,
		ZoneID:  "zone123",
	}
}

func TestRunOnceUpdatesMismatchedRecord(t *testing.T) {
	provider := &fakeProvider{
		records: []ddns.Record{record("record123", "home.example.com", "A", "203.0.113.5")},
	}
	resolver := &fakeResolver{addr: netip.MustParseAddrPort("203.0.113.9:3478")}

	changeflare.NewUpdater(resolver, provider).RunOnce(context.Background())

	if len(provider.updates) != 1 {
		t.Fatalf("got %d updates, want 1", len(provider.updates))
	}

	got := provider.updates[0]
	want := provider.records[0].WithContent(netip.MustParseAddr("203.0.113.9"))
	if got != want {
		t.Errorf("update candidate = %+v, want %+v", got, want)
	}
}

func TestRunOnceSkipsMatchingRecord(t *testing.T) {
	provider := &fakeProvider{
		records: []ddns.Record{record("record123", "home.example.com", "A", "203.0.113.9")},
	}
	resolver := &fakeResolver{addr: netip.MustParseAddrPort("203.0.113.9:3478")}

	changeflare.NewUpdater(resolver, provider).RunOnce(context.Background())

	if len(provider.updates) != 0 {
		t.Errorf("got %d updates, want 0", len(provider.updates))
	}
}

func TestRunOnceResolveFailureSkipsRecordWork(t *testing.T) {
	provider := &fakeProvider{
		records: []ddns.Record{record("record123", "home.example.com", "A", "203.0.113.5")},
	}
	resolver := &fakeResolver{err: errors.New("stun exchange failed")}

	changeflare.NewUpdater(resolver, provider).RunOnce(context.Background())

	if provider.listCalls != 0 {
		t.Errorf("provider was consulted %d times after a resolve failure, want 0", provider.listCalls)
	}
	if len(provider.updates) != 0 {
		t.Errorf("got %d updates, want 0", len(provider.updates))
	}
}

func TestRunOnceFetchFailureReconcilesReturnedSnapshot(t *testing.T) {
	// A failed fetch still yields the provider's last known snapshot, and
	// that snapshot is reconciled as usual.
	provider := &fakeProvider{
		records: []ddns.Record{record("record123", "home.example.com", "A", "203.0.113.5")},
		listErr: errors.New("listing failed"),
	}
	resolver := &fakeResolver{addr: netip.MustParseAddrPort("203.0.113.9:3478")}

	changeflare.NewUpdater(resolver, provider).RunOnce(context.Background())

	if len(provider.updates) != 1 {
		t.Errorf("got %d updates, want 1", len(provider.updates))
	}
}

func TestRunOnceEmptySnapshot(t *testing.T) {
	provider := &fakeProvider{}
	resolver := &fakeResolver{addr: netip.MustParseAddrPort("203.0.113.9:3478")}

	changeflare.NewUpdater(resolver, provider).RunOnce(context.Background())

	if len(provider.updates) != 0 {
		t.Errorf("got %d updates, want 0", len(provider.updates))
	}
}

func TestRunOnceUpdateFailureContinues(t *testing.T) {
	provider := &fakeProvider{
		records: []ddns.Record{
			record("record123", "home.example.com", "A", "203.0.113.5"),
			record("record456", "lab.example.com", "A", "203.0.113.6"),
		},
		updateErr: errors.New("update rejected"),
	}
	resolver := &fakeResolver{addr: netip.MustParseAddrPort("203.0.113.9:3478")}

	changeflare.NewUpdater(resolver, provider).RunOnce(context.Background())

	if len(provider.updates) != 2 {
		t.Errorf("got %d update attempts, want 2", len(provider.updates))
	}
}

func TestRunOnceMismatchedFamilyStillUpdates(t *testing.T) {
	// No family-aware guard: an AAAA record is overwritten by a resolved
	// IPv4 address on value inequality alone.
	provider := &fakeProvider{
		records: []ddns.Record{record("record123", "home.example.com", "AAAA", "2001:db8::1")},
	}
	resolver := &fakeResolver{addr: netip.MustParseAddrPort("203.0.113.9:3478")}

	changeflare.NewUpdater(resolver, provider).RunOnce(context.Background())

	if len(provider.updates) != 1 {
		t.Fatalf("got %d updates, want 1", len(provider.updates))
	}
	if got := provider.updates[0].Content; got != netip.MustParseAddr("203.0.113.9") {
		t.Errorf("update content = %s, want 203.0.113.9", got)
	}
}
