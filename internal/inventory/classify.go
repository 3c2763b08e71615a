package inventory

import (
	"strings"

	"github.com/kmorling/netscout/internal/probe"
)

// DefaultConfidenceThreshold is the score at or above which a record is
// relevant regardless of any other signal.
const DefaultConfidenceThreshold = 0.6

// KnownVendorFragments are manufacturer-name fragments of ecosystems worth
// reporting, compared case-insensitively as substrings.
var KnownVendorFragments = []string{
	"samsung", "philips", "sonos", "nest", "google", "amazon", "apple",
}

// KnownServiceFragments are service-name fragments that mark a device as an
// ecosystem member.
var KnownServiceFragments = []string{
	"smartthings", "hue", "homekit", "hap", "matter", "airplay", "googlecast", "cast", "sonos",
}

// Classifier decides whether a merged, scored record describes a
// discoverable device of interest.
//
// The branches are joined by OR deliberately: silently dropping a real
// device is worse than reporting a doubtful one, and downstream consumers
// triage further using the confidence score.
type Classifier struct {
	// ConfidenceThreshold defaults to DefaultConfidenceThreshold
	ConfidenceThreshold float64

	// VendorFragments defaults to KnownVendorFragments
	VendorFragments []string

	// ServiceFragments defaults to KnownServiceFragments
	ServiceFragments []string
}

// NewClassifier returns a classifier with the default rules.
func NewClassifier() *Classifier {
	return &Classifier{
		ConfidenceThreshold: DefaultConfidenceThreshold,
		VendorFragments:     KnownVendorFragments,
		ServiceFragments:    KnownServiceFragments,
	}
}

// Relevant reports whether the record passes any classifier branch.
func (c *Classifier) Relevant(r *Record) bool {
	if r.Confidence >= c.threshold() {
		return true
	}

	// Evidence from an IoT-specific discovery method
	if r.HasEvidence(probe.KindAnnouncement, probe.KindDescription, probe.KindVendorPassive) {
		return true
	}

	manufacturer := strings.ToLower(r.Manufacturer)
	for _, fragment := range c.vendorFragments() {
		if fragment != "" && strings.Contains(manufacturer, fragment) {
			return true
		}
	}

	for service := range r.Services {
		service = strings.ToLower(service)
		for _, fragment := range c.serviceFragments() {
			if fragment != "" && strings.Contains(service, fragment) {
				return true
			}
		}
	}

	return false
}

// Filter returns only the relevant records.
func (c *Classifier) Filter(records map[string]*Record) map[string]*Record {
	out := make(map[string]*Record)
	for addr, record := range records {
		if c.Relevant(record) {
			out[addr] = record
		}
	}
	return out
}

func (c *Classifier) threshold() float64 {
	if c.ConfidenceThreshold > 0 {
		return c.ConfidenceThreshold
	}
	return DefaultConfidenceThreshold
}

func (c *Classifier) vendorFragments() []string {
	if len(c.VendorFragments) > 0 {
		return c.VendorFragments
	}
	return KnownVendorFragments
}

func (c *Classifier) serviceFragments() []string {
	if len(c.ServiceFragments) > 0 {
		return c.ServiceFragments
	}
	return KnownServiceFragments
}
