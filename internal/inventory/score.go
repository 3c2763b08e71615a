package inventory

import (
	"strings"

	"github.com/kmorling/netscout/internal/probe"
)

// Weights are the additive confidence contributions. The values are
// empirical constants; they are exposed as fields so deployments can tune
// them, but the defaults are the reference behavior.
type Weights struct {
	// BasePresence: the record exists at all
	BasePresence float64 `yaml:"base_presence"`

	// MACVendorAgreement: the MAC OUI vendor string appears inside the
	// derived manufacturer (case-insensitive)
	MACVendorAgreement float64 `yaml:"mac_vendor_agreement"`

	// Announcement: mDNS service announcement evidence present
	Announcement float64 `yaml:"announcement"`

	// DescriptionManufacturer: description evidence present and it
	// contributed a non-empty manufacturer
	DescriptionManufacturer float64 `yaml:"description_manufacturer"`

	// FingerprintMatch: fingerprint evidence with a positive signature match
	FingerprintMatch float64 `yaml:"fingerprint_match"`

	// VendorPassive: vendor-passive evidence present
	VendorPassive float64 `yaml:"vendor_passive"`

	// MultiMethodAgreement: at least two distinct probe kinds (excluding
	// the active scan, which carries no identification weight) contributed
	MultiMethodAgreement float64 `yaml:"multi_method_agreement"`

	// RecognizedDeviceType: the derived device type is in the recognized set
	RecognizedDeviceType float64 `yaml:"recognized_device_type"`
}

// DefaultWeights returns the reference scoring constants.
func DefaultWeights() Weights {
	return Weights{
		BasePresence:            0.1,
		MACVendorAgreement:      0.2,
		Announcement:            0.4,
		DescriptionManufacturer: 0.3,
		FingerprintMatch:        0.5,
		VendorPassive:           0.3,
		MultiMethodAgreement:    0.2,
		RecognizedDeviceType:    0.1,
	}
}

// RecognizedDeviceTypes is the fixed set of device types that earn the
// recognized-type bonus, compared case-insensitively.
var RecognizedDeviceTypes = []string{
	"SmartThings Hub",
	"Hue Bridge",
	"Thermostat",
	"Smart Speaker",
	"Washing Machine",
}

// Score derives a confidence in [0,1] from the record's evidence. Pure
// function of the record; signals add up and saturate at 1.0 so that
// independent weak corroboration is never discounted against one strong
// source.
func (w Weights) Score(r *Record) float64 {
	score := w.BasePresence

	if r.MACVendor != "" && r.Manufacturer != "" &&
		strings.Contains(strings.ToLower(r.Manufacturer), strings.ToLower(r.MACVendor)) {
		score += w.MACVendorAgreement
	}

	if r.HasEvidence(probe.KindAnnouncement) {
		score += w.Announcement
	}

	if descriptionManufacturer(r) {
		score += w.DescriptionManufacturer
	}

	if r.MatchedFingerprint() {
		score += w.FingerprintMatch
	}

	if r.HasEvidence(probe.KindVendorPassive) {
		score += w.VendorPassive
	}

	if identifyingKinds(r) >= 2 {
		score += w.MultiMethodAgreement
	}

	if recognizedDeviceType(r.DeviceType) {
		score += w.RecognizedDeviceType
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// descriptionManufacturer reports whether description evidence contributed a
// non-empty manufacturer.
func descriptionManufacturer(r *Record) bool {
	for _, res := range r.Evidence[probe.KindDescription] {
		if res.Fields.Manufacturer != "" {
			return true
		}
	}
	return false
}

// identifyingKinds counts distinct contributing probe kinds, excluding the
// active scan: it establishes liveness but says nothing about identity.
func identifyingKinds(r *Record) int {
	count := 0
	for kind, results := range r.Evidence {
		if kind == probe.KindActiveScan || len(results) == 0 {
			continue
		}
		count++
	}
	return count
}

func recognizedDeviceType(deviceType string) bool {
	if deviceType == "" {
		return false
	}
	for _, known := range RecognizedDeviceTypes {
		if strings.EqualFold(deviceType, known) {
			return true
		}
	}
	return false
}
