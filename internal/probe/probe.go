package probe

import (
	"context"
	"sort"
	"time"
)

// Kind identifies which discovery method produced a Result.
type Kind string

const (
	// KindActiveScan is the nmap-based liveness scan of a network range
	KindActiveScan Kind = "activescan"

	// KindAnnouncement is passive mDNS/DNS-SD service announcement listening
	KindAnnouncement Kind = "announcement"

	// KindDescription is SSDP search plus UPnP device description retrieval
	KindDescription Kind = "description"

	// KindVendorPassive is the directed SSDP search for well-known device families
	KindVendorPassive Kind = "vendorpassive"

	// KindFingerprint is HTTP application-layer fingerprinting of known hosts
	KindFingerprint Kind = "fingerprint"
)

// AllKinds returns every probe kind in a stable order.
func AllKinds() []Kind {
	return []Kind{
		KindActiveScan,
		KindAnnouncement,
		KindDescription,
		KindVendorPassive,
		KindFingerprint,
	}
}

// Valid reports whether k is one of the known probe kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindActiveScan, KindAnnouncement, KindDescription, KindVendorPassive, KindFingerprint:
		return true
	}
	return false
}

// Fields holds the well-known, strongly typed observations a probe can make
// about a single address. Not every probe populates every field.
type Fields struct {
	// Hostname is the network hostname (reverse DNS or mDNS host)
	Hostname string

	// MAC is the hardware address, upper-case colon form, when resolvable
	MAC string

	// MACVendor is the vendor string derived from the MAC OUI
	MACVendor string

	// Manufacturer is the declared or inferred device manufacturer
	Manufacturer string

	// DeviceType is the declared or inferred device type/model class
	DeviceType string

	// Model is the vendor model name, when a description document declares one
	Model string

	// FriendlyName is the user-facing name a device announces for itself
	FriendlyName string

	// OpenPorts lists TCP ports observed open on the address
	OpenPorts []int

	// Services lists announced or inferred service names
	Services []string

	// Matched is set by the fingerprint probe when a signature positively
	// identified the device
	Matched bool
}

// Result is one unit of evidence: produced by exactly one probe, for exactly
// one address. A Result is immutable once emitted; probes never mutate shared
// state, they only emit.
type Result struct {
	// Addr is the IPv4/IPv6 address the evidence is about (the join key)
	Addr string

	// Kind identifies the probe that produced this result
	Kind Kind

	// Fields are the typed observations
	Fields Fields

	// Extra is an open string-keyed bag for raw, non-decision-relevant data
	// (TXT records, SSDP headers, HTTP response previews)
	Extra map[string]string

	// ObservedAt is when the probe produced the result. Diagnostics only;
	// merge correctness never depends on it.
	ObservedAt time.Time
}

// Targets describes what a probe should look at. Range-enumerating probes use
// Range; address-directed probes use Addrs (the host set known so far).
type Targets struct {
	// Range is a CIDR network range expression (e.g. "192.168.1.0/24")
	Range string

	// Addrs are already-discovered addresses, sorted for determinism
	Addrs []string
}

// SortedAddrs returns a sorted copy of Addrs.
func (t Targets) SortedAddrs() []string {
	out := make([]string, len(t.Addrs))
	copy(out, t.Addrs)
	sort.Strings(out)
	return out
}

// Probe is one independent discovery method.
//
// Run streams results through emit as they are found, so partial output
// survives budget expiry: when ctx is cancelled a probe returns whatever it
// already emitted and a nil or advisory error, never a fatal one. emit must be
// safe for concurrent use; the merger serializes writes internally.
//
// Available is resolved once per run, before Run is called. A probe whose
// underlying capability is missing (no nmap binary, no multicast socket)
// reports false and is skipped for the run; this is not an error.
type Probe interface {
	Kind() Kind
	Available(ctx context.Context) bool
	Run(ctx context.Context, targets Targets, emit func(Result)) error
}
