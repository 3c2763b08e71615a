package ssdp

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxDescriptionSize caps how much of a description document is read.
// Real device descriptions are a few KB; anything larger is suspect.
const maxDescriptionSize = 256 * 1024

// DeviceDescription is the root of a UPnP device description document.
type DeviceDescription struct {
	XMLName xml.Name `xml:"root"`
	Device  Device   `xml:"device"`
}

// Device is the device element of a description document. Every field is
// optional on the wire; absent fields stay empty rather than failing the
// parse.
type Device struct {
	DeviceType       string    `xml:"deviceType"`
	FriendlyName     string    `xml:"friendlyName"`
	Manufacturer     string    `xml:"manufacturer"`
	ModelName        string    `xml:"modelName"`
	ModelDescription string    `xml:"modelDescription"`
	SerialNumber     string    `xml:"serialNumber"`
	UDN              string    `xml:"UDN"`
	Services         []Service `xml:"serviceList>service"`
	Devices          []Device  `xml:"deviceList>device"`
}

// Service is one entry of a device's service list.
type Service struct {
	ServiceType string `xml:"serviceType"`
	ServiceID   string `xml:"serviceId"`
}

// ServiceTypes returns the service types of the device and all embedded
// devices, depth-first.
func (d *Device) ServiceTypes() []string {
	var types []string
	for _, s := range d.Services {
		if s.ServiceType != "" {
			types = append(types, s.ServiceType)
		}
	}
	for i := range d.Devices {
		types = append(types, d.Devices[i].ServiceTypes()...)
	}
	return types
}

// ParseDescription parses a device description XML document.
func ParseDescription(data []byte) (*DeviceDescription, error) {
	var desc DeviceDescription
	if err := xml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("failed to parse device description: %w", err)
	}
	return &desc, nil
}

// FetchDescription retrieves and parses the device description document at
// location (the LOCATION header of an SSDP message).
func FetchDescription(ctx context.Context, client *http.Client, location string) (*DeviceDescription, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid description location %q: %w", location, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch device description: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("device description fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDescriptionSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read device description: %w", err)
	}

	return ParseDescription(data)
}

// LocationHost extracts the host (IP) part of a description location URL.
func LocationHost(location string) string {
	u, err := url.Parse(strings.TrimSpace(location))
	if err != nil {
		return ""
	}
	return u.Hostname()
}
