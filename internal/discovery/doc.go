// Package discovery coordinates the probe suite against a target network
// and produces a scored, filtered device inventory.
//
// # Run Lifecycle
//
// A run moves through fixed stages: seeding, probing, merging, scoring,
// filtering. Seeding sweeps the range with the active scan so later
// probes have live addresses to work with. Probing runs the mDNS, SSDP
// description, and vendor search probes concurrently under per-probe
// sub-budgets, then fingerprints every discovered address with the
// remaining time. Evidence is merged into the shared inventory as it
// arrives; scoring and filtering run once all probes have stopped.
//
// # Degradation
//
// Probes whose capability check fails (no raw-socket privilege, no nmap
// binary, no multicast) are skipped and reported in the run Summary; the
// run proceeds with whatever probes remain. Budget expiry mid-probe is
// also not an error: results collected before the deadline are kept.
package discovery
