package ssdp

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name         string
		data         string
		wantErr      bool
		wantResponse bool
		wantLocation string
		wantST       string
	}{
		{
			name: "m-search response",
			data: "HTTP/1.1 200 OK\r\n" +
				"CACHE-CONTROL: max-age=100\r\n" +
				"LOCATION: http://192.168.1.50:1400/xml/device_description.xml\r\n" +
				"SERVER: Linux UPnP/1.0 Sonos/70.3\r\n" +
				"ST: urn:schemas-upnp-org:device:ZonePlayer:1\r\n" +
				"USN: uuid:RINCON_abc::urn:schemas-upnp-org:device:ZonePlayer:1\r\n\r\n",
			wantResponse: true,
			wantLocation: "http://192.168.1.50:1400/xml/device_description.xml",
			wantST:       "urn:schemas-upnp-org:device:ZonePlayer:1",
		},
		{
			name: "notify announcement uses NT",
			data: "NOTIFY * HTTP/1.1\r\n" +
				"HOST: 239.255.255.250:1900\r\n" +
				"NT: upnp:rootdevice\r\n" +
				"NTS: ssdp:alive\r\n" +
				"LOCATION: http://192.168.1.60/desc.xml\r\n\r\n",
			wantResponse: false,
			wantLocation: "http://192.168.1.60/desc.xml",
			wantST:       "upnp:rootdevice",
		},
		{
			name: "lower case headers are normalized",
			data: "HTTP/1.1 200 OK\r\n" +
				"location: http://192.168.1.70/desc.xml\r\n" +
				"st: ssdp:all\r\n\r\n",
			wantResponse: true,
			wantLocation: "http://192.168.1.70/desc.xml",
			wantST:       "ssdp:all",
		},
		{
			name: "malformed header line skipped",
			data: "HTTP/1.1 200 OK\r\n" +
				"this line has no colon\r\n" +
				"ST: ssdp:all\r\n\r\n",
			wantResponse: true,
			wantST:       "ssdp:all",
		},
		{
			name:    "empty datagram",
			data:    "",
			wantErr: true,
		},
		{
			name:    "not an ssdp message",
			data:    "GET / HTTP/1.1\r\nHost: example.com\r\n\r\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Parse([]byte(tt.data), "192.168.1.50")

			if tt.wantErr {
				if err == nil {
					t.Fatal("Parse() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}

			if msg.From != "192.168.1.50" {
				t.Errorf("msg.From = %v, want 192.168.1.50", msg.From)
			}
			if msg.IsResponse() != tt.wantResponse {
				t.Errorf("msg.IsResponse() = %v, want %v", msg.IsResponse(), tt.wantResponse)
			}
			if msg.Location() != tt.wantLocation {
				t.Errorf("msg.Location() = %v, want %v", msg.Location(), tt.wantLocation)
			}
			if msg.SearchTarget() != tt.wantST {
				t.Errorf("msg.SearchTarget() = %v, want %v", msg.SearchTarget(), tt.wantST)
			}
		})
	}
}

func TestMessageGetCaseInsensitive(t *testing.T) {
	msg, err := Parse([]byte("HTTP/1.1 200 OK\r\nServer: test/1.0\r\n\r\n"), "10.0.0.1")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	for _, name := range []string{"server", "Server", "SERVER"} {
		if got := msg.Get(name); got != "test/1.0" {
			t.Errorf("Get(%q) = %q, want test/1.0", name, got)
		}
	}
}

func TestBuildSearchRequest(t *testing.T) {
	req := string(BuildSearchRequest("urn:schemas-upnp-org:device:Basic:1", 3))

	wantLines := []string{
		"M-SEARCH * HTTP/1.1",
		"HOST: 239.255.255.250:1900",
		"MAN: \"ssdp:discover\"",
		"MX: 3",
		"ST: urn:schemas-upnp-org:device:Basic:1",
	}
	for _, line := range wantLines {
		if !strings.Contains(req, line+"\r\n") {
			t.Errorf("request missing line %q:\n%s", line, req)
		}
	}
	if !strings.HasSuffix(req, "\r\n\r\n") {
		t.Error("request must end with a blank line")
	}
}

func TestBuildSearchRequestDefaults(t *testing.T) {
	req := string(BuildSearchRequest("", 0))

	if !strings.Contains(req, "ST: "+SearchTargetAll+"\r\n") {
		t.Errorf("empty search target should default to %s:\n%s", SearchTargetAll, req)
	}
	if !strings.Contains(req, "MX: 2\r\n") {
		t.Errorf("zero MX should default to %d:\n%s", DefaultMX, req)
	}
}
