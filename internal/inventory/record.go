package inventory

import (
	"fmt"
	"sort"
	"time"

	"github.com/kmorling/netscout/internal/probe"
)

// Record is the merged, per-address aggregate of all evidence collected in
// one discovery run. It is created on the first Result for an address and
// sealed (confidence computed, derived fields frozen) when the run finalizes.
type Record struct {
	// Addr is the device network address (the unique key)
	Addr string

	// Evidence maps probe kind to every Result that probe contributed.
	// Kinds that never observed this address are absent.
	Evidence map[probe.Kind][]probe.Result

	// Derived fields: first non-empty writer wins, subject to the
	// precedence exceptions in Store.Apply
	Manufacturer string
	DeviceType   string
	MACAddress   string
	MACVendor    string
	Hostname     string

	// OpenPorts and Services accumulate as set unions
	OpenPorts map[int]struct{}
	Services  map[string]struct{}

	// Confidence is computed once when the record is sealed
	Confidence float64

	// Elapsed is wall time from run start to when the record was sealed
	Elapsed time.Duration

	sealed bool

	// source tier of the current Manufacturer/DeviceType values, used by
	// the precedence rule
	manufacturerTier int
	deviceTypeTier   int
}

func newRecord(addr string) *Record {
	return &Record{
		Addr:      addr,
		Evidence:  make(map[probe.Kind][]probe.Result),
		OpenPorts: make(map[int]struct{}),
		Services:  make(map[string]struct{}),
	}
}

// Sealed reports whether the record has been finalized.
func (r *Record) Sealed() bool { return r.sealed }

// HasEvidence reports whether any of the given probe kinds contributed.
func (r *Record) HasEvidence(kinds ...probe.Kind) bool {
	for _, kind := range kinds {
		if len(r.Evidence[kind]) > 0 {
			return true
		}
	}
	return false
}

// MatchedFingerprint reports whether any fingerprint evidence carries a
// positive signature match.
func (r *Record) MatchedFingerprint() bool {
	for _, res := range r.Evidence[probe.KindFingerprint] {
		if res.Fields.Matched {
			return true
		}
	}
	return false
}

// DiscoveryMethods returns the probe kinds that contributed evidence, in the
// fixed kind order.
func (r *Record) DiscoveryMethods() []string {
	var methods []string
	for _, kind := range probe.AllKinds() {
		if len(r.Evidence[kind]) > 0 {
			methods = append(methods, string(kind))
		}
	}
	return methods
}

// SortedPorts returns the open-port set as a sorted slice.
func (r *Record) SortedPorts() []int {
	ports := make([]int, 0, len(r.OpenPorts))
	for port := range r.OpenPorts {
		ports = append(ports, port)
	}
	sort.Ints(ports)
	return ports
}

// SortedServices returns the service set as a sorted slice.
func (r *Record) SortedServices() []string {
	services := make([]string, 0, len(r.Services))
	for service := range r.Services {
		services = append(services, service)
	}
	sort.Strings(services)
	return services
}

// String returns a human-readable summary of the record.
func (r *Record) String() string {
	name := r.Manufacturer
	if name == "" {
		name = "unknown"
	}
	return fmt.Sprintf("%s (%s %s, confidence %.2f)", r.Addr, name, r.DeviceType, r.Confidence)
}

// Flat is the serializable contract consumed by downstream layers. They
// depend on exactly these fields, never on internal evidence shapes.
type Flat struct {
	Address          string   `json:"address" yaml:"address"`
	Manufacturer     string   `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty"`
	DeviceType       string   `json:"device_type,omitempty" yaml:"device_type,omitempty"`
	MACAddress       string   `json:"mac_address,omitempty" yaml:"mac_address,omitempty"`
	Hostname         string   `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	ConfidenceScore  float64  `json:"confidence_score" yaml:"confidence_score"`
	DiscoveryMethods []string `json:"discovery_methods" yaml:"discovery_methods"`
	OpenPorts        []int    `json:"open_ports,omitempty" yaml:"open_ports,omitempty"`
	Services         []string `json:"services,omitempty" yaml:"services,omitempty"`
}

// Flatten exports the record in the flat, deterministic form.
func (r *Record) Flatten() Flat {
	return Flat{
		Address:          r.Addr,
		Manufacturer:     r.Manufacturer,
		DeviceType:       r.DeviceType,
		MACAddress:       r.MACAddress,
		Hostname:         r.Hostname,
		ConfidenceScore:  r.Confidence,
		DiscoveryMethods: r.DiscoveryMethods(),
		OpenPorts:        r.SortedPorts(),
		Services:         r.SortedServices(),
	}
}

// FlattenAll exports a record map as a slice sorted by address.
func FlattenAll(records map[string]*Record) []Flat {
	flats := make([]Flat, 0, len(records))
	for _, record := range records {
		flats = append(flats, record.Flatten())
	}
	sort.Slice(flats, func(i, j int) bool { return flats[i].Address < flats[j].Address })
	return flats
}
