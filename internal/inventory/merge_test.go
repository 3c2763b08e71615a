package inventory

import (
	"math"
	"testing"

	"github.com/kmorling/netscout/internal/probe"
)

func result(kind probe.Kind, addr string, fields probe.Fields) probe.Result {
	return probe.Result{Addr: addr, Kind: kind, Fields: fields}
}

func applyAll(s *Store, results ...probe.Result) {
	for _, res := range results {
		s.Apply(res)
	}
}

func TestApplyCreatesRecord(t *testing.T) {
	s := NewStore()
	s.Apply(result(probe.KindActiveScan, "192.168.1.50", probe.Fields{
		MAC:       "AA:BB:CC:DD:EE:FF",
		MACVendor: "Samsung Electronics",
		Hostname:  "hub.lan",
		OpenPorts: []int{80, 8080},
	}))

	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}

	rec := s.Records()["192.168.1.50"]
	if rec == nil {
		t.Fatal("record not created")
	}
	if rec.MACAddress != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("MACAddress = %q", rec.MACAddress)
	}
	if rec.MACVendor != "Samsung Electronics" {
		t.Errorf("MACVendor = %q", rec.MACVendor)
	}
	if rec.Hostname != "hub.lan" {
		t.Errorf("Hostname = %q", rec.Hostname)
	}
	if len(rec.OpenPorts) != 2 {
		t.Errorf("OpenPorts = %v, want 2 entries", rec.OpenPorts)
	}
}

func TestApplyIgnoresInvalid(t *testing.T) {
	s := NewStore()
	s.Apply(probe.Result{Addr: "", Kind: probe.KindActiveScan})
	s.Apply(probe.Result{Addr: "192.168.1.50", Kind: probe.Kind("sonar")})

	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestApplyFirstWriterWins(t *testing.T) {
	s := NewStore()
	applyAll(s,
		result(probe.KindAnnouncement, "192.168.1.50", probe.Fields{
			Manufacturer: "Samsung SmartThings",
			DeviceType:   "SmartThings Hub",
			Hostname:     "hub.local",
		}),
		result(probe.KindDescription, "192.168.1.50", probe.Fields{
			Manufacturer: "Samsung Electronics Co.",
			DeviceType:   "Basic",
			Hostname:     "other-name",
		}),
	)

	rec := s.Records()["192.168.1.50"]
	if rec.Manufacturer != "Samsung SmartThings" {
		t.Errorf("Manufacturer = %q, first writer should win", rec.Manufacturer)
	}
	if rec.DeviceType != "SmartThings Hub" {
		t.Errorf("DeviceType = %q, first writer should win", rec.DeviceType)
	}
	if rec.Hostname != "hub.local" {
		t.Errorf("Hostname = %q, first writer should win", rec.Hostname)
	}
}

func TestApplyIdentifyingOverridesVendorPassive(t *testing.T) {
	s := NewStore()
	applyAll(s,
		result(probe.KindVendorPassive, "192.168.1.50", probe.Fields{
			Manufacturer: "Samsung SmartThings",
			DeviceType:   "SmartThings Hub",
		}),
		result(probe.KindFingerprint, "192.168.1.50", probe.Fields{
			Manufacturer: "Samsung SmartThings",
			DeviceType:   "SmartThings Hub v3",
			Matched:      true,
		}),
	)

	rec := s.Records()["192.168.1.50"]
	if rec.DeviceType != "SmartThings Hub v3" {
		t.Errorf("DeviceType = %q, fingerprint should override vendor-passive hint", rec.DeviceType)
	}
}

func TestApplyUnmatchedFingerprintDoesNotOverrideVendorPassive(t *testing.T) {
	s := NewStore()
	applyAll(s,
		result(probe.KindVendorPassive, "192.168.1.50", probe.Fields{
			Manufacturer: "Samsung SmartThings",
			DeviceType:   "SmartThings Hub",
		}),
		result(probe.KindFingerprint, "192.168.1.50", probe.Fields{
			Manufacturer: "Acme",
			DeviceType:   "Embedded Web Server",
			Matched:      false,
		}),
	)

	rec := s.Records()["192.168.1.50"]
	if rec.Manufacturer != "Samsung SmartThings" {
		t.Errorf("Manufacturer = %q, unmatched fingerprint must not displace the hint", rec.Manufacturer)
	}
	if rec.DeviceType != "SmartThings Hub" {
		t.Errorf("DeviceType = %q, unmatched fingerprint must not displace the hint", rec.DeviceType)
	}
}

func TestApplyDescriptionDoesNotOverrideAnnouncement(t *testing.T) {
	s := NewStore()
	applyAll(s,
		result(probe.KindAnnouncement, "192.168.1.50", probe.Fields{
			Manufacturer: "Philips",
			DeviceType:   "Hue Bridge",
		}),
		result(probe.KindVendorPassive, "192.168.1.50", probe.Fields{
			Manufacturer: "Philips",
			DeviceType:   "Basic Device",
		}),
	)

	rec := s.Records()["192.168.1.50"]
	if rec.DeviceType != "Hue Bridge" {
		t.Errorf("DeviceType = %q, lower-tier evidence must not overwrite", rec.DeviceType)
	}
}

func TestApplyOrderIndependent(t *testing.T) {
	scan := result(probe.KindActiveScan, "192.168.1.50", probe.Fields{
		MAC: "AA:BB:CC:DD:EE:FF", MACVendor: "Samsung Electronics", OpenPorts: []int{80},
	})
	vendor := result(probe.KindVendorPassive, "192.168.1.50", probe.Fields{
		Manufacturer: "Samsung SmartThings", DeviceType: "SmartThings Hub", Services: []string{"smartthings"},
	})
	fp := result(probe.KindFingerprint, "192.168.1.50", probe.Fields{
		Manufacturer: "Samsung SmartThings", DeviceType: "SmartThings Hub", Matched: true, OpenPorts: []int{8080},
	})

	orders := [][]probe.Result{
		{scan, vendor, fp},
		{vendor, scan, fp},
		{vendor, fp, scan},
		{fp, vendor, scan},
		{scan, fp, vendor},
		{fp, scan, vendor},
	}

	var reference *Record
	for i, order := range orders {
		s := NewStore()
		applyAll(s, order...)
		rec := s.Finalize(DefaultWeights())["192.168.1.50"]

		if reference == nil {
			reference = rec
			continue
		}
		if rec.Manufacturer != reference.Manufacturer {
			t.Errorf("order %d: Manufacturer = %q, want %q", i, rec.Manufacturer, reference.Manufacturer)
		}
		if rec.DeviceType != reference.DeviceType {
			t.Errorf("order %d: DeviceType = %q, want %q", i, rec.DeviceType, reference.DeviceType)
		}
		if rec.MACAddress != reference.MACAddress {
			t.Errorf("order %d: MACAddress = %q, want %q", i, rec.MACAddress, reference.MACAddress)
		}
		if math.Abs(rec.Confidence-reference.Confidence) > 1e-9 {
			t.Errorf("order %d: Confidence = %v, want %v", i, rec.Confidence, reference.Confidence)
		}
		if len(rec.OpenPorts) != len(reference.OpenPorts) {
			t.Errorf("order %d: OpenPorts = %v, want %v", i, rec.OpenPorts, reference.OpenPorts)
		}
	}
}

func TestApplyIdempotent(t *testing.T) {
	res := result(probe.KindAnnouncement, "192.168.1.50", probe.Fields{
		Manufacturer: "Sonos", DeviceType: "Speaker", OpenPorts: []int{1400}, Services: []string{"_sonos._tcp"},
	})

	s := NewStore()
	applyAll(s, res, res, res)

	rec := s.Finalize(DefaultWeights())["192.168.1.50"]
	if rec.Manufacturer != "Sonos" || rec.DeviceType != "Speaker" {
		t.Errorf("derived fields changed on repeat: %+v", rec)
	}
	if len(rec.OpenPorts) != 1 || len(rec.Services) != 1 {
		t.Errorf("sets must not grow on repeats: ports %v services %v", rec.OpenPorts, rec.Services)
	}

	// Same result applied once scores the same
	single := NewStore()
	single.Apply(res)
	want := single.Finalize(DefaultWeights())["192.168.1.50"].Confidence
	if math.Abs(rec.Confidence-want) > 1e-9 {
		t.Errorf("Confidence = %v after repeats, want %v", rec.Confidence, want)
	}
}

func TestApplyAfterFinalizeIgnored(t *testing.T) {
	s := NewStore()
	s.Apply(result(probe.KindActiveScan, "192.168.1.50", probe.Fields{}))
	s.Finalize(DefaultWeights())

	s.Apply(result(probe.KindAnnouncement, "192.168.1.50", probe.Fields{Manufacturer: "Sonos"}))

	rec := s.Records()["192.168.1.50"]
	if rec.Manufacturer != "" {
		t.Errorf("sealed record mutated: Manufacturer = %q", rec.Manufacturer)
	}
	if !rec.Sealed() {
		t.Error("record should be sealed after Finalize")
	}
}

func TestFinalizeSeals(t *testing.T) {
	s := NewStore()
	applyAll(s,
		result(probe.KindActiveScan, "192.168.1.50", probe.Fields{}),
		result(probe.KindActiveScan, "192.168.1.51", probe.Fields{}),
	)

	records := s.Finalize(DefaultWeights())
	if len(records) != 2 {
		t.Fatalf("Finalize() returned %d records, want 2", len(records))
	}
	for addr, rec := range records {
		if !rec.Sealed() {
			t.Errorf("%s: not sealed", addr)
		}
		if rec.Confidence != 0.1 {
			t.Errorf("%s: Confidence = %v, want base 0.1", addr, rec.Confidence)
		}
		if rec.Elapsed <= 0 {
			t.Errorf("%s: Elapsed not stamped", addr)
		}
	}
}
