package config

import (
	"time"

	"github.com/kmorling/netscout/internal/inventory"
)

// Settings represents the entire user configuration file.
// This stores scan defaults, scoring overrides, and remembered devices.
type Settings struct {
	Version      int                     `yaml:"version"`
	Scan         *ScanPrefs              `yaml:"scan,omitempty"`
	Scoring      *inventory.Weights      `yaml:"scoring,omitempty"`      // Confidence weight overrides
	Output       *OutputPrefs            `yaml:"output,omitempty"`
	KnownDevices map[string]*KnownDevice `yaml:"known_devices,omitempty"` // Keyed by MAC address
}

// ScanPrefs holds default parameters for discovery runs.
type ScanPrefs struct {
	Range            string   `yaml:"range,omitempty"`           // Default target range, e.g. "192.168.1.0/24"
	TimeoutSeconds   int      `yaml:"timeout_seconds"`           // Overall run budget
	Workers          int      `yaml:"workers"`                   // Concurrent fingerprint workers
	DisabledProbes   []string `yaml:"disabled_probes,omitempty"` // Probe kinds to skip
	ServiceDetection bool     `yaml:"service_detection"`         // nmap -sV during seeding
	SignaturesPath   string   `yaml:"signatures_path,omitempty"` // Extra fingerprint signatures file
}

// OutputPrefs holds display preferences for scan results.
type OutputPrefs struct {
	Format       string `yaml:"format"`        // "detailed", "compact", "json" or "yaml"
	ShowFiltered bool   `yaml:"show_filtered"` // Include records the classifier rejected
}

// KnownDevice represents user-assigned metadata for a device seen in a
// previous scan. This is purely client-side information.
type KnownDevice struct {
	Nickname string    `yaml:"nickname,omitempty"`  // User-friendly name
	LastIP   string    `yaml:"last_ip,omitempty"`   // Address at last sighting
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Time of last sighting
	Ignore   bool      `yaml:"ignore,omitempty"`    // Exclude from scan output
}

// NewSettings creates a new Settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Version:      1,
		KnownDevices: make(map[string]*KnownDevice),
		Scan: &ScanPrefs{
			TimeoutSeconds: 60,
			Workers:        10,
		},
		Output: &OutputPrefs{
			Format: "detailed",
		},
	}
}

// GetKnownDevice retrieves device metadata by MAC address.
// Returns nil if the device isn't in the settings.
func (s *Settings) GetKnownDevice(mac string) *KnownDevice {
	return s.KnownDevices[mac]
}

// EnsureKnownDevice ensures a device entry exists.
// Returns the entry (existing or newly created).
func (s *Settings) EnsureKnownDevice(mac string) *KnownDevice {
	if s.KnownDevices == nil {
		s.KnownDevices = make(map[string]*KnownDevice)
	}

	if device, exists := s.KnownDevices[mac]; exists {
		return device
	}

	device := &KnownDevice{}
	s.KnownDevices[mac] = device
	return device
}

// RememberSighting updates the last seen timestamp and address for a device.
func (s *Settings) RememberSighting(mac, ip string) {
	device := s.EnsureKnownDevice(mac)
	device.LastSeen = time.Now()
	device.LastIP = ip
}

// SetNickname sets a user-friendly nickname for a device.
func (s *Settings) SetNickname(mac, nickname string) {
	device := s.EnsureKnownDevice(mac)
	device.Nickname = nickname
}

// Weights returns the effective scoring weights, falling back to the
// defaults when no override is configured.
func (s *Settings) Weights() inventory.Weights {
	if s.Scoring != nil {
		return *s.Scoring
	}
	return inventory.DefaultWeights()
}
