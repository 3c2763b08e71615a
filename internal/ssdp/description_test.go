package ssdp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const sonosDescription = `<?xml version="1.0"?>
<root xmlns="urn:schemas-upnp-org:device-1-0">
  <device>
    <deviceType>urn:schemas-upnp-org:device:ZonePlayer:1</deviceType>
    <friendlyName>192.168.1.50 - Sonos One</friendlyName>
    <manufacturer>Sonos, Inc.</manufacturer>
    <modelName>Sonos One</modelName>
    <serialNumber>00-11-22-33-44-55:1</serialNumber>
    <serviceList>
      <service>
        <serviceType>urn:schemas-upnp-org:service:AVTransport:1</serviceType>
        <serviceId>urn:upnp-org:serviceId:AVTransport</serviceId>
      </service>
    </serviceList>
    <deviceList>
      <device>
        <deviceType>urn:schemas-upnp-org:device:MediaRenderer:1</deviceType>
        <serviceList>
          <service>
            <serviceType>urn:schemas-upnp-org:service:RenderingControl:1</serviceType>
          </service>
        </serviceList>
      </device>
    </deviceList>
  </device>
</root>`

func TestParseDescription(t *testing.T) {
	desc, err := ParseDescription([]byte(sonosDescription))
	if err != nil {
		t.Fatalf("ParseDescription() error = %v", err)
	}

	dev := desc.Device
	if dev.Manufacturer != "Sonos, Inc." {
		t.Errorf("Manufacturer = %q, want Sonos, Inc.", dev.Manufacturer)
	}
	if dev.ModelName != "Sonos One" {
		t.Errorf("ModelName = %q, want Sonos One", dev.ModelName)
	}
	if dev.DeviceType != "urn:schemas-upnp-org:device:ZonePlayer:1" {
		t.Errorf("DeviceType = %q", dev.DeviceType)
	}
	if dev.SerialNumber != "00-11-22-33-44-55:1" {
		t.Errorf("SerialNumber = %q", dev.SerialNumber)
	}

	// Service types include embedded devices, depth-first
	types := dev.ServiceTypes()
	want := []string{
		"urn:schemas-upnp-org:service:AVTransport:1",
		"urn:schemas-upnp-org:service:RenderingControl:1",
	}
	if len(types) != len(want) {
		t.Fatalf("ServiceTypes() = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("ServiceTypes()[%d] = %q, want %q", i, types[i], want[i])
		}
	}
}

func TestParseDescriptionInvalidXML(t *testing.T) {
	if _, err := ParseDescription([]byte("not xml at all <<<")); err == nil {
		t.Error("ParseDescription() should fail on invalid XML")
	}
}

func TestFetchDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(sonosDescription))
	}))
	defer srv.Close()

	client := &http.Client{Timeout: 2 * time.Second}
	desc, err := FetchDescription(context.Background(), client, srv.URL+"/desc.xml")
	if err != nil {
		t.Fatalf("FetchDescription() error = %v", err)
	}
	if desc.Device.FriendlyName != "192.168.1.50 - Sonos One" {
		t.Errorf("FriendlyName = %q", desc.Device.FriendlyName)
	}
}

func TestFetchDescriptionNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := &http.Client{Timeout: 2 * time.Second}
	if _, err := FetchDescription(context.Background(), client, srv.URL); err == nil {
		t.Error("FetchDescription() should fail on non-200 status")
	}
}

func TestLocationHost(t *testing.T) {
	tests := []struct {
		location string
		want     string
	}{
		{"http://192.168.1.50:1400/xml/device_description.xml", "192.168.1.50"},
		{"http://192.168.1.60/desc.xml", "192.168.1.60"},
		{"  http://10.0.0.5:80/  ", "10.0.0.5"},
		{"", ""},
		{"://bad url", ""},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			if got := LocationHost(tt.location); got != tt.want {
				t.Errorf("LocationHost(%q) = %q, want %q", tt.location, got, tt.want)
			}
		})
	}
}
