// Package probe implements the five independent discovery methods and the
// common evidence model they emit.
//
// A probe observes one facet of the network and produces immutable Results,
// one per address it learned something about. Probes never talk to each
// other and never mutate shared state; the inventory package folds their
// streams into per-device records.
//
// # Probes
//
//   - ActiveScan: nmap liveness sweep of a CIDR range. Seeds the host set.
//   - Announcement: passive mDNS/DNS-SD listening against a fixed service
//     catalog (SmartThings, Hue, HomeKit, Matter, Chromecast, Sonos, ...).
//   - Description: SSDP M-SEARCH plus UPnP device description retrieval.
//   - VendorPassive: directed SSDP searches for well-known device families.
//   - Fingerprint: HTTP requests against every known host, matched against a
//     signature table, through a bounded worker pool.
//
// # Failure Policy
//
// A probe whose capability is missing (no nmap binary, no multicast socket,
// no permission) reports Available() == false and is skipped; a probe that
// fails mid-run has already emitted its partial results. Neither case is
// fatal to a discovery run.
//
// # Usage Example
//
//	p := probe.NewAnnouncement()
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//	defer cancel()
//
//	err := p.Run(ctx, probe.Targets{}, func(res probe.Result) {
//	    fmt.Printf("%s: %s %s\n", res.Addr, res.Fields.Manufacturer, res.Fields.DeviceType)
//	})
package probe
