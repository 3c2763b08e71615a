package probe

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
	"go.uber.org/zap"

	"github.com/kmorling/netscout/internal/logging"
)

// DefaultServicePorts is the port list used when service detection is enabled
// on the active scan. Biased toward ports IoT devices and their hubs expose.
const DefaultServicePorts = "22,53,80,443,1400,1883,8008,8060,8080,8443,9100,39500"

// ActiveScan enumerates live addresses in a network range using nmap. It is
// the seeding probe: its output is the baseline host set for address-directed
// probes. Requires the nmap binary on PATH.
type ActiveScan struct {
	// ServiceDetection enables a port/service scan in addition to the
	// liveness sweep. Slower, so off by default.
	ServiceDetection bool

	// OSDetection enables OS fingerprinting. Requires root, off by default.
	OSDetection bool

	// Ports is the port range used when ServiceDetection is set
	Ports string
}

// NewActiveScan creates the seeding scan probe with default settings.
func NewActiveScan() *ActiveScan {
	return &ActiveScan{
		Ports: DefaultServicePorts,
	}
}

// Kind implements Probe.
func (p *ActiveScan) Kind() Kind { return KindActiveScan }

// Available reports whether the nmap binary can be executed. Probed by
// running a trivial list scan against localhost.
func (p *ActiveScan) Available(ctx context.Context) bool {
	scanner, err := nmap.NewScanner(
		ctx,
		nmap.WithTargets("localhost"),
		nmap.WithListScan(),
	)
	if err != nil {
		return false
	}
	_, _, err = scanner.Run()
	return err == nil
}

// Run scans targets.Range and emits one Result per live host.
func (p *ActiveScan) Run(ctx context.Context, targets Targets, emit func(Result)) error {
	if targets.Range == "" {
		return nil
	}

	opts := []nmap.Option{
		nmap.WithTargets(targets.Range),
	}
	if p.ServiceDetection {
		ports := p.Ports
		if ports == "" {
			ports = DefaultServicePorts
		}
		opts = append(opts, nmap.WithPorts(ports), nmap.WithServiceInfo())
	} else {
		// Liveness only ("-sn"): no port scan, just host discovery
		opts = append(opts, nmap.WithPingScan())
	}
	if p.OSDetection {
		opts = append(opts, nmap.WithOSDetection())
	}

	scanner, err := nmap.NewScanner(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create nmap scanner: %w", err)
	}

	result, warnings, err := scanner.Run()
	if err != nil {
		// A cancelled budget still yields whatever nmap printed before the
		// kill; treat everything else as an advisory probe failure.
		if result == nil {
			return fmt.Errorf("nmap scan failed: %w", err)
		}
	}
	if warnings != nil && len(*warnings) > 0 {
		logging.Warn("nmap scan warnings", zap.Strings("warnings", *warnings))
	}

	for _, host := range result.Hosts {
		res, ok := hostResult(host)
		if !ok {
			continue
		}
		emit(res)
	}

	return nil
}

// hostResult converts one nmap host entry to a probe Result. Returns false
// for hosts that are down or carry no address.
func hostResult(host nmap.Host) (Result, bool) {
	if host.Status.State != "up" || len(host.Addresses) == 0 {
		return Result{}, false
	}

	var addr, mac, macVendor string
	for _, a := range host.Addresses {
		switch a.AddrType {
		case "ipv4":
			if addr == "" {
				addr = a.Addr
			}
		case "ipv6":
			if addr == "" {
				addr = a.Addr
			}
		case "mac":
			mac = strings.ToUpper(a.Addr)
			macVendor = a.Vendor
		}
	}
	if addr == "" {
		return Result{}, false
	}

	res := Result{
		Addr: addr,
		Kind: KindActiveScan,
		Fields: Fields{
			MAC:       mac,
			MACVendor: macVendor,
		},
		Extra:      map[string]string{},
		ObservedAt: time.Now(),
	}

	if len(host.Hostnames) > 0 {
		res.Fields.Hostname = host.Hostnames[0].Name
	}

	for _, port := range host.Ports {
		if port.State.State != "open" {
			continue
		}
		res.Fields.OpenPorts = append(res.Fields.OpenPorts, int(port.ID))
		if port.Service.Name != "" {
			res.Fields.Services = append(res.Fields.Services, port.Service.Name)
		}
		if port.Service.Product != "" {
			res.Extra[fmt.Sprintf("port_%d_product", port.ID)] = strings.TrimSpace(
				port.Service.Product + " " + port.Service.Version)
		}
	}

	// OS guesses are diagnostics only; kept in the open bag
	if len(host.OS.Matches) > 0 {
		best := host.OS.Matches[0]
		res.Extra["os_guess"] = best.Name
		res.Extra["os_accuracy"] = strconv.Itoa(best.Accuracy)
	}

	return res, true
}
