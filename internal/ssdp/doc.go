// Package ssdp implements the SSDP/UPnP wire exchanges used by the discovery
// probes.
//
// SSDP (Simple Service Discovery Protocol) is HTTP-over-UDP on multicast
// group 239.255.255.250:1900. A client multicasts an M-SEARCH request and
// devices answer with unicast 200 responses; devices also multicast
// unsolicited NOTIFY announcements. Responses carry a LOCATION header
// pointing at an XML device description document that declares the
// manufacturer, model and service list.
//
// This package provides three layers:
//
//   - request construction: BuildSearchRequest
//   - datagram parsing: Parse and the Message accessors
//   - description retrieval: FetchDescription / ParseDescription
//
// # Usage Example
//
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//
//	messages, err := ssdp.Search(ctx, ssdp.SearchTargetAll, ssdp.DefaultMX)
//	if err != nil {
//	    return err
//	}
//	for _, msg := range messages {
//	    desc, err := ssdp.FetchDescription(ctx, client, msg.Location())
//	    if err != nil {
//	        continue // header-level evidence is still useful
//	    }
//	    fmt.Println(desc.Device.Manufacturer, desc.Device.FriendlyName)
//	}
//
// # Error Tolerance
//
// Device firmware emits all kinds of almost-HTTP. Parse validates only the
// start line and skips malformed header lines; ParseDescription leaves
// absent XML fields empty. Callers treat a failed description fetch as
// partial evidence (the SSDP headers alone), never as a fatal error.
//
// # Network Requirements
//
//   - UDP multicast support on the network interface
//   - Firewall must allow UDP port 1900
package ssdp
