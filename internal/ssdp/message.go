package ssdp

import (
	"fmt"
	"strings"
)

// Header names used by the probes. SSDP headers are case-insensitive on the
// wire; parsed messages store them upper-cased.
const (
	HeaderLocation     = "LOCATION"
	HeaderServer       = "SERVER"
	HeaderUSN          = "USN"
	HeaderSearchTarget = "ST"
	HeaderNotifyType   = "NT"
	HeaderCacheControl = "CACHE-CONTROL"
)

// Message is one parsed SSDP datagram: a unicast M-SEARCH response or a
// multicast NOTIFY announcement.
type Message struct {
	// From is the source IP address of the datagram
	From string

	// StartLine is the raw first line ("HTTP/1.1 200 OK" or "NOTIFY * HTTP/1.1")
	StartLine string

	// Header maps upper-cased header names to values
	Header map[string]string
}

// Get returns the named header, matching case-insensitively.
func (m *Message) Get(name string) string {
	return m.Header[strings.ToUpper(name)]
}

// Location returns the device description URL, if announced.
func (m *Message) Location() string { return m.Header[HeaderLocation] }

// Server returns the SERVER header.
func (m *Message) Server() string { return m.Header[HeaderServer] }

// USN returns the unique service name.
func (m *Message) USN() string { return m.Header[HeaderUSN] }

// SearchTarget returns the ST header for responses, falling back to NT for
// NOTIFY announcements.
func (m *Message) SearchTarget() string {
	if st := m.Header[HeaderSearchTarget]; st != "" {
		return st
	}
	return m.Header[HeaderNotifyType]
}

// IsResponse reports whether the message is an M-SEARCH response.
func (m *Message) IsResponse() bool {
	return strings.HasPrefix(m.StartLine, "HTTP/1.1 200")
}

// Parse parses a raw SSDP datagram. from is the source IP.
//
// Only the start line is validated; unknown or malformed header lines are
// skipped so that one bad line never discards the rest of the datagram.
func Parse(data []byte, from string) (*Message, error) {
	lines := strings.Split(string(data), "\r\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, fmt.Errorf("empty SSDP datagram from %s", from)
	}

	start := strings.TrimSpace(lines[0])
	if !strings.HasPrefix(start, "HTTP/1.1 200") && !strings.HasPrefix(start, "NOTIFY") {
		return nil, fmt.Errorf("unexpected SSDP start line %q from %s", start, from)
	}

	msg := &Message{
		From:      from,
		StartLine: start,
		Header:    make(map[string]string),
	}

	for _, line := range lines[1:] {
		i := strings.Index(line, ":")
		if i <= 0 {
			continue
		}
		key := strings.ToUpper(strings.TrimSpace(line[:i]))
		value := strings.TrimSpace(line[i+1:])
		msg.Header[key] = value
	}

	return msg, nil
}
