package probe

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultAnnouncementWindow is the default passive listen window
	DefaultAnnouncementWindow = 10 * time.Second
)

// ServiceMapping associates an mDNS service type with the ecosystem that
// announces it. Entries without a manufacturer still contribute hostname and
// service evidence but make no identification claim.
type ServiceMapping struct {
	// Service is the DNS-SD service type (e.g. "_hue._tcp")
	Service string

	// Manufacturer claimed when this service type is seen
	Manufacturer string

	// DeviceType claimed when this service type is seen
	DeviceType string

	// TypeTXTKey optionally names a TXT record key whose value overrides
	// DeviceType (e.g. HomeKit advertises its model under "md")
	TypeTXTKey string
}

// ServiceCatalog is the fixed catalog of service types the announcement
// probe listens for, and what finding each one implies.
var ServiceCatalog = []ServiceMapping{
	{Service: "_smartthings._tcp", Manufacturer: "Samsung SmartThings", DeviceType: "SmartThings Hub", TypeTXTKey: "deviceType"},
	{Service: "_hue._tcp", Manufacturer: "Philips", DeviceType: "Hue Bridge"},
	{Service: "_hap._tcp", Manufacturer: "Apple HomeKit Compatible", DeviceType: "HomeKit Device", TypeTXTKey: "md"},
	{Service: "_matter._tcp", Manufacturer: "Matter Compatible", DeviceType: "Matter Device"},
	{Service: "_googlecast._tcp", Manufacturer: "Google", DeviceType: "Chromecast"},
	{Service: "_sonos._tcp", Manufacturer: "Sonos", DeviceType: "Speaker"},
	{Service: "_airplay._tcp", Manufacturer: "Apple", DeviceType: "AirPlay Device"},
	{Service: "_spotify-connect._tcp", Manufacturer: "", DeviceType: "Spotify Connect Device"},
	{Service: "_ipp._tcp", Manufacturer: "", DeviceType: "Printer"},
	{Service: "_http._tcp", Manufacturer: "", DeviceType: ""},
}

// Announcement listens passively for mDNS/DNS-SD service announcements over
// a fixed window. It never sends unicast queries to specific hosts and can
// discover devices the active scan missed.
type Announcement struct {
	// Catalog is the service-type catalog; defaults to ServiceCatalog
	Catalog []ServiceMapping
}

// NewAnnouncement creates the announcement probe with the default catalog.
func NewAnnouncement() *Announcement {
	return &Announcement{Catalog: ServiceCatalog}
}

// Kind implements Probe.
func (p *Announcement) Kind() Kind { return KindAnnouncement }

// Available reports whether an mDNS resolver can be created on this system.
func (p *Announcement) Available(ctx context.Context) bool {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return false
	}
	_ = resolver
	return true
}

// Run browses every catalog service type until ctx expires, emitting one
// Result per received announcement.
func (p *Announcement) Run(ctx context.Context, targets Targets, emit func(Result)) error {
	catalog := p.Catalog
	if len(catalog) == 0 {
		catalog = ServiceCatalog
	}

	var wg sync.WaitGroup
	for _, mapping := range catalog {
		wg.Add(1)
		go func(m ServiceMapping) {
			defer wg.Done()
			p.browse(ctx, m, emit)
		}(mapping)
	}
	wg.Wait()

	return nil
}

// browse watches a single service type for the lifetime of ctx.
func (p *Announcement) browse(ctx context.Context, mapping ServiceMapping, emit func(Result)) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return
	}

	entries := make(chan *zeroconf.ServiceEntry)

	go func() {
		for entry := range entries {
			if res, ok := parseServiceEntry(entry, mapping); ok {
				emit(res)
			}
		}
	}()

	if err := resolver.Browse(ctx, mapping.Service, ServiceDomain, entries); err != nil {
		return
	}

	<-ctx.Done()
}

// parseServiceEntry converts a zeroconf service entry to a Result.
// Returns false if the entry carries no usable address.
func parseServiceEntry(entry *zeroconf.ServiceEntry, mapping ServiceMapping) (Result, bool) {
	// Prefer IPv4
	var addr string
	for _, ip := range entry.AddrIPv4 {
		addr = ip.String()
		break
	}
	if addr == "" && len(entry.AddrIPv6) > 0 {
		addr = entry.AddrIPv6[0].String()
	}
	if addr == "" {
		return Result{}, false
	}

	res := Result{
		Addr: addr,
		Kind: KindAnnouncement,
		Fields: Fields{
			Hostname:     strings.TrimSuffix(entry.HostName, "."),
			Manufacturer: mapping.Manufacturer,
			DeviceType:   mapping.DeviceType,
			Services:     []string{mapping.Service},
		},
		Extra:      map[string]string{"instance": entry.Instance},
		ObservedAt: time.Now(),
	}

	if entry.Port > 0 {
		res.Fields.OpenPorts = []int{entry.Port}
	}

	// TXT records are "key=value" pairs; keep them all in the open bag and
	// let a designated key refine the device type
	for _, txt := range entry.Text {
		key, value := txt, ""
		if i := strings.Index(txt, "="); i >= 0 {
			key, value = txt[:i], txt[i+1:]
		}
		res.Extra["txt."+key] = value
		if mapping.TypeTXTKey != "" && key == mapping.TypeTXTKey && value != "" {
			res.Fields.DeviceType = value
		}
	}

	return res, true
}
