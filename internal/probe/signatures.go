package probe

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Signature is one HTTP fingerprint rule. A response matches when any Headers
// substring appears in the joined response headers or any Body substring
// appears in the response body (both compared lower-case).
type Signature struct {
	// Name identifies the signature ("philips_hue", ...)
	Name string `yaml:"name"`

	// Manufacturer claimed on a match
	Manufacturer string `yaml:"manufacturer"`

	// DeviceType claimed on a match; defaults to Name when empty
	DeviceType string `yaml:"device_type,omitempty"`

	// Headers are lower-case substrings matched against "key:value" header text
	Headers []string `yaml:"headers,omitempty"`

	// Body are lower-case substrings matched against the response body
	Body []string `yaml:"body,omitempty"`

	// Ports are extra ports to try beyond the common HTTP ports
	Ports []int `yaml:"ports,omitempty"`
}

// DefaultSignatures is the built-in signature table for common smart-home
// ecosystems.
var DefaultSignatures = []Signature{
	{
		Name:         "smartthings",
		Manufacturer: "Samsung SmartThings",
		DeviceType:   "SmartThings Hub",
		Headers:      []string{"smartthings", "samsung"},
		Body:         []string{"smartthings", "hub"},
		Ports:        []int{8080, 39500},
	},
	{
		Name:         "philips_hue",
		Manufacturer: "Philips",
		DeviceType:   "Hue Bridge",
		Headers:      []string{"philips", "hue"},
		Body:         []string{"philips", "hue", "bridge"},
		Ports:        []int{80, 443},
	},
	{
		Name:         "sonos",
		Manufacturer: "Sonos",
		DeviceType:   "Speaker",
		Headers:      []string{"sonos"},
		Ports:        []int{1400},
	},
	{
		Name:         "nest",
		Manufacturer: "Google Nest",
		DeviceType:   "Thermostat",
		Headers:      []string{"nest", "google"},
	},
}

// signatureFile is the YAML shape of a user-provided signature table.
type signatureFile struct {
	Signatures []Signature `yaml:"signatures"`
}

// LoadSignatures reads extra signatures from a YAML file. They are appended
// to (not replacing) the built-in table by callers.
func LoadSignatures(path string) ([]Signature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read signature file: %w", err)
	}

	var file signatureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse signature file: %w", err)
	}

	for i := range file.Signatures {
		if err := ValidateSignature(&file.Signatures[i]); err != nil {
			return nil, fmt.Errorf("signature %d: %w", i+1, err)
		}
	}

	return file.Signatures, nil
}

// ValidateSignature checks a signature for the mistakes a hand-edited YAML
// file tends to contain, and normalizes match strings to lower case.
func ValidateSignature(sig *Signature) error {
	if strings.TrimSpace(sig.Name) == "" {
		return fmt.Errorf("missing name")
	}
	if strings.TrimSpace(sig.Manufacturer) == "" {
		return fmt.Errorf("signature %q: missing manufacturer", sig.Name)
	}
	if len(sig.Headers) == 0 && len(sig.Body) == 0 {
		return fmt.Errorf("signature %q: needs at least one header or body pattern", sig.Name)
	}
	for _, port := range sig.Ports {
		if port < 1 || port > 65535 {
			return fmt.Errorf("signature %q: invalid port %d", sig.Name, port)
		}
	}
	for i, h := range sig.Headers {
		sig.Headers[i] = strings.ToLower(strings.TrimSpace(h))
	}
	for i, b := range sig.Body {
		sig.Body[i] = strings.ToLower(strings.TrimSpace(b))
	}
	if sig.DeviceType == "" {
		sig.DeviceType = sig.Name
	}
	return nil
}
