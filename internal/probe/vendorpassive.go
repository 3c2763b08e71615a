package probe

import (
	"context"
	"strings"
	"time"

	"github.com/kmorling/netscout/internal/ssdp"
)

// Family describes one well-known device family the vendor-passive probe
// searches for with a directed SSDP query. The hints it contributes are
// coarse; higher-precedence probes may refine them.
type Family struct {
	// Name identifies the family ("philips_hue", "sonos", ...)
	Name string

	// SearchTarget is the SSDP ST value that members of the family answer to
	SearchTarget string

	// Match lists lower-case substrings, one of which must appear in the
	// response USN, SERVER or ST header for the response to count. Empty
	// means any response to the directed search counts.
	Match []string

	// Manufacturer hint contributed on a match
	Manufacturer string

	// DeviceType hint contributed on a match
	DeviceType string
}

// FamilyCatalog is the fixed list of device families the probe queries for.
var FamilyCatalog = []Family{
	{
		Name:         "smartthings",
		SearchTarget: ssdp.SearchTargetRoot,
		Match:        []string{"smartthings"},
		Manufacturer: "Samsung SmartThings",
		DeviceType:   "SmartThings Hub",
	},
	{
		Name:         "philips_hue",
		SearchTarget: "urn:schemas-upnp-org:device:Basic:1",
		Match:        []string{"ipbridge", "hue"},
		Manufacturer: "Philips",
		DeviceType:   "Hue Bridge",
	},
	{
		Name:         "sonos",
		SearchTarget: "urn:schemas-upnp-org:device:ZonePlayer:1",
		Match:        []string{"sonos"},
		Manufacturer: "Sonos",
		DeviceType:   "Speaker",
	},
	{
		Name:         "google_cast",
		SearchTarget: "urn:dial-multiscreen-org:service:dial:1",
		Match:        []string{"chromecast", "google"},
		Manufacturer: "Google",
		DeviceType:   "Chromecast",
	},
	{
		Name:         "belkin_wemo",
		SearchTarget: "urn:Belkin:device:controllee:1",
		Match:        []string{"belkin", "wemo"},
		Manufacturer: "Belkin",
		DeviceType:   "WeMo Switch",
	},
	{
		Name:         "roku",
		SearchTarget: "roku:ecp",
		Match:        []string{"roku"},
		Manufacturer: "Roku",
		DeviceType:   "Streaming Player",
	},
}

// VendorPassive queries a secondary passive-discovery mechanism (directed
// SSDP searches) for a fixed list of well-known device families.
type VendorPassive struct {
	// Catalog is the family list; defaults to FamilyCatalog
	Catalog []Family
}

// NewVendorPassive creates the vendor-passive probe with the default catalog.
func NewVendorPassive() *VendorPassive {
	return &VendorPassive{Catalog: FamilyCatalog}
}

// Kind implements Probe.
func (p *VendorPassive) Kind() Kind { return KindVendorPassive }

// Available reports whether a UDP socket for SSDP can be opened.
func (p *VendorPassive) Available(ctx context.Context) bool {
	return ssdp.CanListen()
}

// Run issues one directed search per family, splitting the budget evenly,
// and emits a Result for every matching responder.
func (p *VendorPassive) Run(ctx context.Context, targets Targets, emit func(Result)) error {
	catalog := p.Catalog
	if len(catalog) == 0 {
		catalog = FamilyCatalog
	}

	// Split the remaining budget across families; each search needs at
	// least a couple of seconds to be worth sending
	perFamily := 3 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		share := time.Until(deadline) / time.Duration(len(catalog))
		if share < perFamily {
			perFamily = share
		}
	}
	if perFamily < time.Second {
		perFamily = time.Second
	}

	for _, family := range catalog {
		if ctx.Err() != nil {
			break
		}
		searchCtx, cancel := context.WithTimeout(ctx, perFamily)
		messages, err := ssdp.Search(searchCtx, family.SearchTarget, 1)
		cancel()
		if err != nil {
			continue
		}

		for _, msg := range messages {
			if !familyMatches(family, msg) {
				continue
			}
			addr := ssdp.LocationHost(msg.Location())
			if addr == "" {
				addr = msg.From
			}
			if addr == "" {
				continue
			}
			emit(Result{
				Addr: addr,
				Kind: KindVendorPassive,
				Fields: Fields{
					Manufacturer: family.Manufacturer,
					DeviceType:   family.DeviceType,
					Services:     []string{family.Name},
				},
				Extra: map[string]string{
					"ssdp.usn":    msg.USN(),
					"ssdp.server": msg.Server(),
					"family":      family.Name,
				},
				ObservedAt: time.Now(),
			})
		}
	}

	return nil
}

// familyMatches checks a response against the family's match substrings.
func familyMatches(family Family, msg *ssdp.Message) bool {
	if len(family.Match) == 0 {
		return true
	}
	haystack := strings.ToLower(msg.USN() + " " + msg.Server() + " " + msg.SearchTarget())
	for _, want := range family.Match {
		if strings.Contains(haystack, want) {
			return true
		}
	}
	return false
}
