package ddns

import "net/netip"

// Record is one provider-managed DNS resource record. ID is empty for a
// record not yet associated with a remote resource; the current flow only
// updates existing records, so every record flowing through the loop
// carries the ID assigned by the provider.
type Record struct {
	ID      string
	Name    string
	Type    string
	Content netip.Addr
	TTL     int
	Proxied bool
	ZoneID  string
}

// Equivalent reports whether two records are the same for change-detection
// purposes. Only Content, ID and Name participate; TTL, Proxied, Type and
// ZoneID differences never trigger an update.
func (r Record) Equivalent(other Record) bool {
	return r.Content == other.Content &&
		r.ID == other.ID &&
		r.Name == other.Name
}

// WithContent returns a copy of r with Content replaced.
func (r Record) WithContent(addr netip.Addr) Record {
	r.Content = addr
	return r
}
