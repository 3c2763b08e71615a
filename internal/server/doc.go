// Package server exposes discovery results over HTTP and WebSocket.
//
// This package provides a small JSON API on top of the discovery engine:
// the latest scan's inventory, a way to trigger new scans, and a live
// event feed for clients that want results as probes report them.
//
// # Endpoints
//
//   - GET  /v1/devices  - flattened inventory from the most recent scan
//   - POST /v1/scans    - start a scan (409 if one is already running)
//   - GET  /v1/events   - WebSocket feed of scan lifecycle and probe events
//   - GET  /v1/status   - whether a scan is running, last run summary
//
// # Event Feed
//
// Events are JSON objects with a type, timestamp, and payload:
//
//	{"type":"probe_result","time":"...","payload":{"addr":"192.168.1.50","probe":"announcement"}}
//
// Event types: scan_started, probe_result, scan_finished, scan_failed.
// Slow consumers are disconnected rather than allowed to stall the feed.
//
// # Usage Example
//
//	config := &server.Config{
//	    Host:     "",     // Listen on all interfaces
//	    Port:     8090,
//	    LogLevel: "info",
//	    Scan: discovery.Options{
//	        Range:   "192.168.1.0/24",
//	        Timeout: 60 * time.Second,
//	    },
//	}
//
//	srv, err := server.New(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Start blocks until shutdown signal or error
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// The server handles SIGINT and SIGTERM signals for graceful shutdown:
//  1. Stop accepting new requests
//  2. Close the event hub and its WebSocket clients
//  3. Clean up resources
//
// # Thread Safety
//
// Only one scan runs at a time; the event hub fans results out to any
// number of WebSocket clients, each served by its own goroutines.
package server
