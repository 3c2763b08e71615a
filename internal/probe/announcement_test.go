package probe

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func TestParseServiceEntry(t *testing.T) {
	smartthings := ServiceMapping{
		Service:      "_smartthings._tcp",
		Manufacturer: "Samsung SmartThings",
		DeviceType:   "SmartThings Hub",
		TypeTXTKey:   "deviceType",
	}
	hap := ServiceMapping{
		Service:      "_hap._tcp",
		Manufacturer: "Apple HomeKit Compatible",
		DeviceType:   "HomeKit Device",
		TypeTXTKey:   "md",
	}

	tests := []struct {
		name             string
		entry            *zeroconf.ServiceEntry
		mapping          ServiceMapping
		wantOK           bool
		wantAddr         string
		wantHostname     string
		wantManufacturer string
		wantDeviceType   string
	}{
		{
			name: "smartthings hub with IPv4",
			entry: &zeroconf.ServiceEntry{
				HostName: "hub.local.",
				Port:     8080,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.50")},
			},
			mapping:          smartthings,
			wantOK:           true,
			wantAddr:         "192.168.1.50",
			wantHostname:     "hub.local",
			wantManufacturer: "Samsung SmartThings",
			wantDeviceType:   "SmartThings Hub",
		},
		{
			name: "TXT key refines device type",
			entry: &zeroconf.ServiceEntry{
				HostName: "hub.local",
				Port:     8080,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.50")},
				Text:     []string{"deviceType=SmartThings Hub v3"},
			},
			mapping:          smartthings,
			wantOK:           true,
			wantAddr:         "192.168.1.50",
			wantHostname:     "hub.local",
			wantManufacturer: "Samsung SmartThings",
			wantDeviceType:   "SmartThings Hub v3",
		},
		{
			name: "homekit model from md record",
			entry: &zeroconf.ServiceEntry{
				HostName: "bulb.local",
				Port:     5353,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.60")},
				Text:     []string{"md=LIFX Mini", "ci=5"},
			},
			mapping:          hap,
			wantOK:           true,
			wantAddr:         "192.168.1.60",
			wantHostname:     "bulb.local",
			wantManufacturer: "Apple HomeKit Compatible",
			wantDeviceType:   "LIFX Mini",
		},
		{
			name: "no address",
			entry: &zeroconf.ServiceEntry{
				HostName: "ghost.local",
				Port:     80,
			},
			mapping: smartthings,
			wantOK:  false,
		},
		{
			name: "IPv6 only",
			entry: &zeroconf.ServiceEntry{
				HostName: "hub6.local",
				Port:     8080,
				AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
			},
			mapping:      smartthings,
			wantOK:       true,
			wantAddr:     "fe80::1",
			wantHostname: "hub6.local",
		},
		{
			name: "both IPv4 and IPv6 prefers IPv4",
			entry: &zeroconf.ServiceEntry{
				HostName: "dual.local",
				Port:     8080,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.70")},
				AddrIPv6: []net.IP{net.ParseIP("fe80::2")},
			},
			mapping:      smartthings,
			wantOK:       true,
			wantAddr:     "192.168.1.70",
			wantHostname: "dual.local",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := parseServiceEntry(tt.entry, tt.mapping)

			if ok != tt.wantOK {
				t.Fatalf("parseServiceEntry() ok = %v, want %v", ok, tt.wantOK)
			}
			if !tt.wantOK {
				return
			}

			if res.Addr != tt.wantAddr {
				t.Errorf("res.Addr = %v, want %v", res.Addr, tt.wantAddr)
			}
			if res.Kind != KindAnnouncement {
				t.Errorf("res.Kind = %v, want %v", res.Kind, KindAnnouncement)
			}
			if res.Fields.Hostname != tt.wantHostname {
				t.Errorf("res.Fields.Hostname = %v, want %v", res.Fields.Hostname, tt.wantHostname)
			}
			if tt.wantManufacturer != "" && res.Fields.Manufacturer != tt.wantManufacturer {
				t.Errorf("res.Fields.Manufacturer = %v, want %v", res.Fields.Manufacturer, tt.wantManufacturer)
			}
			if tt.wantDeviceType != "" && res.Fields.DeviceType != tt.wantDeviceType {
				t.Errorf("res.Fields.DeviceType = %v, want %v", res.Fields.DeviceType, tt.wantDeviceType)
			}

			// Check that ObservedAt is recent (within last second)
			if time.Since(res.ObservedAt) > time.Second {
				t.Errorf("res.ObservedAt is not recent: %v", res.ObservedAt)
			}
		})
	}
}

func TestParseServiceEntryTXTRecords(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		HostName: "hub.local",
		Port:     8080,
		AddrIPv4: []net.IP{net.ParseIP("192.168.1.50")},
		Text:     []string{"path=/", "srcvers=1D90645", "flag", "version=1.0"},
	}

	res, ok := parseServiceEntry(entry, ServiceMapping{Service: "_http._tcp"})
	if !ok {
		t.Fatal("parseServiceEntry() ok = false, want true")
	}

	expected := map[string]string{
		"txt.path":    "/",
		"txt.srcvers": "1D90645",
		"txt.flag":    "", // Key without value
		"txt.version": "1.0",
	}

	for key, want := range expected {
		if got, ok := res.Extra[key]; !ok {
			t.Errorf("res.Extra missing key %q", key)
		} else if got != want {
			t.Errorf("res.Extra[%q] = %q, want %q", key, got, want)
		}
	}
}

func TestServiceCatalogWellFormed(t *testing.T) {
	seen := make(map[string]bool)
	for _, mapping := range ServiceCatalog {
		if mapping.Service == "" {
			t.Error("catalog entry with empty service type")
		}
		if seen[mapping.Service] {
			t.Errorf("duplicate catalog entry for %s", mapping.Service)
		}
		seen[mapping.Service] = true
	}
}
