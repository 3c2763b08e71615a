package inventory

import (
	"sync"
	"time"

	"github.com/kmorling/netscout/internal/logging"
	"github.com/kmorling/netscout/internal/probe"
)

// Identification precedence tiers, high to low. The announcement and
// fingerprint probes identify positively (a device said who it is, or its
// HTTP surface matched a signature); descriptions are self-declared;
// vendor-passive hints are coarse; the active scan only establishes
// liveness.
const (
	tierNone = iota
	tierActiveScan
	tierVendorPassive
	tierDescription
	tierIdentifying // announcement and matched fingerprint
)

// kindTier returns the nominal tier of a probe kind; Apply demotes
// unmatched fingerprints to the description tier.
func kindTier(kind probe.Kind) int {
	switch kind {
	case probe.KindAnnouncement, probe.KindFingerprint:
		return tierIdentifying
	case probe.KindDescription:
		return tierDescription
	case probe.KindVendorPassive:
		return tierVendorPassive
	case probe.KindActiveScan:
		return tierActiveScan
	}
	return tierNone
}

// Store owns the per-run {address -> Record} map. All mutation goes through
// Apply, which serializes writes; emit callbacks from concurrently running
// probes may therefore share one Store.
type Store struct {
	mu      sync.Mutex
	records map[string]*Record
	started time.Time
}

// NewStore creates an empty per-run store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]*Record),
		started: time.Now(),
	}
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Addrs returns the addresses observed so far, unordered.
func (s *Store) Addrs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	addrs := make([]string, 0, len(s.records))
	for addr := range s.records {
		addrs = append(addrs, addr)
	}
	return addrs
}

// Records returns the live record map. Callers must not mutate records
// until the store is finalized; the orchestrator only reads after Finalize.
func (s *Store) Records() map[string]*Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*Record, len(s.records))
	for addr, record := range s.records {
		out[addr] = record
	}
	return out
}

// Apply merges one incoming Result into the record for its address, creating
// the record on first sight.
//
// Derived fields follow first-writer-wins: a field is written only while
// unset. The single exception: manufacturer and device type written by the
// vendor-passive probe may later be overwritten by an announcement or a
// matched fingerprint, whose identification is positive rather than a
// coarse hint. An unmatched fingerprint carries only self-declared header
// text, so it ranks with descriptions and never displaces anything. Port
// and service observations accumulate as set unions. This makes the final
// record content independent of probe arrival order and keeps confidence
// monotone: evidence can only add signals, never remove them.
func (s *Store) Apply(res probe.Result) {
	if res.Addr == "" || !res.Kind.Valid() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[res.Addr]
	if !ok {
		record = newRecord(res.Addr)
		s.records[res.Addr] = record
	}
	if record.sealed {
		return
	}

	// Keep every result, even repeats from the same probe
	record.Evidence[res.Kind] = append(record.Evidence[res.Kind], res)

	tier := kindTier(res.Kind)
	if res.Kind == probe.KindFingerprint && !res.Fields.Matched {
		tier = tierDescription
	}
	fields := res.Fields

	if fields.Manufacturer != "" && overwriteAllowed(record.manufacturerTier, tier) {
		record.Manufacturer = fields.Manufacturer
		record.manufacturerTier = tier
	}
	if fields.DeviceType != "" && overwriteAllowed(record.deviceTypeTier, tier) {
		record.DeviceType = fields.DeviceType
		record.deviceTypeTier = tier
	}
	if record.MACAddress == "" && fields.MAC != "" {
		record.MACAddress = fields.MAC
	}
	if record.MACVendor == "" && fields.MACVendor != "" {
		record.MACVendor = fields.MACVendor
	}
	if record.Hostname == "" && fields.Hostname != "" {
		record.Hostname = fields.Hostname
	}
	for _, port := range fields.OpenPorts {
		record.OpenPorts[port] = struct{}{}
	}
	for _, service := range fields.Services {
		record.Services[service] = struct{}{}
	}

	logging.LogEvidence(res.Addr, string(res.Kind), record.Manufacturer, record.DeviceType)
}

// overwriteAllowed implements the precedence rule for manufacturer and
// device type: unset fields accept any writer; values sourced only from the
// vendor-passive hint yield to positive identification.
func overwriteAllowed(current, incoming int) bool {
	if current == tierNone {
		return true
	}
	return current == tierVendorPassive && incoming == tierIdentifying
}

// Finalize seals every record, computing its confidence with the given
// weights and stamping the elapsed wall time. Returns the sealed map.
func (s *Store) Finalize(weights Weights) map[string]*Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	elapsed := time.Since(s.started)
	for _, record := range s.records {
		if record.sealed {
			continue
		}
		record.Confidence = weights.Score(record)
		record.Elapsed = elapsed
		record.sealed = true
	}

	out := make(map[string]*Record, len(s.records))
	for addr, record := range s.records {
		out[addr] = record
	}
	return out
}
