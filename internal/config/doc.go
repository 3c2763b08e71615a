// Package config provides user configuration management for the Netscout project.
//
// This package manages a YAML-based configuration file that stores scan
// defaults, confidence scoring overrides, and metadata for devices seen in
// previous scans. The configuration follows OS-specific conventions for
// storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/netscout/config.yaml or $HOME/.config/netscout/config.yaml
//   - macOS: $HOME/.config/netscout/config.yaml
//   - Windows: %LOCALAPPDATA%\netscout\config.yaml
//
// # Usage Example
//
//	// Load the global settings
//	settings, err := config.LoadSettings()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Remember a device across scans
//	settings.SetNickname("AA:BB:CC:DD:EE:FF", "Living Room Hub")
//	settings.RememberSighting("AA:BB:CC:DD:EE:FF", "192.168.1.100")
//
//	// Save changes atomically
//	if err := settings.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global settings use sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
