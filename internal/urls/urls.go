package urls

// Documentation URLs for guides and troubleshooting
// All URLs point to the documentation site at https://kmorling.github.io/netscout/

// GettingStarted is the quick start guide covering installation and a
// first discovery run.
const GettingStarted = "https://kmorling.github.io/netscout/getting-started/"

// ProbeRequirements documents the system requirements of each probe
// (nmap binary, multicast support, UDP 1900/5353 firewall rules).
const ProbeRequirements = "https://kmorling.github.io/netscout/probes/requirements/"

// Troubleshooting provides solutions to common issues such as empty scans,
// missing mDNS responses and blocked multicast.
const Troubleshooting = "https://kmorling.github.io/netscout/troubleshooting/"

// ContributingSignatures explains how to contribute new HTTP fingerprint
// signatures and service-catalog entries.
const ContributingSignatures = "https://kmorling.github.io/netscout/contributing/signatures/"
