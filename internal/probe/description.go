package probe

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kmorling/netscout/internal/logging"
	"github.com/kmorling/netscout/internal/ssdp"
)

// DefaultDescriptionFetchTimeout bounds each device description HTTP fetch.
const DefaultDescriptionFetchTimeout = 3 * time.Second

// Description issues an SSDP discovery broadcast and parses the UPnP device
// description documents the responders point at, extracting manufacturer,
// model, friendly name and service list.
type Description struct {
	// FetchTimeout bounds each description document fetch
	FetchTimeout time.Duration

	clientOnce sync.Once
	client     *http.Client
}

// NewDescription creates the SSDP description probe.
func NewDescription() *Description {
	return &Description{
		FetchTimeout: DefaultDescriptionFetchTimeout,
	}
}

// httpClient lazily builds the shared client so a zero-value Description
// works too.
func (p *Description) httpClient() *http.Client {
	p.clientOnce.Do(func() {
		p.client = &http.Client{
			Timeout: p.fetchTimeout(),
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	})
	return p.client
}

// Kind implements Probe.
func (p *Description) Kind() Kind { return KindDescription }

// Available reports whether a UDP socket for SSDP can be opened.
func (p *Description) Available(ctx context.Context) bool {
	return ssdp.CanListen()
}

// Run searches for all SSDP devices and emits one Result per distinct
// responder. A responder whose description document cannot be fetched or
// parsed still yields header-level evidence.
func (p *Description) Run(ctx context.Context, targets Targets, emit func(Result)) error {
	messages, err := ssdp.Search(ctx, ssdp.SearchTargetAll, ssdp.DefaultMX)
	if err != nil {
		return err
	}

	// Multiple responses arrive per device (one per advertised service);
	// fetch each description location once
	seen := make(map[string]bool)
	for _, msg := range messages {
		location := msg.Location()
		addr := ssdp.LocationHost(location)
		if addr == "" {
			addr = msg.From
		}
		key := addr + "|" + location
		if addr == "" || seen[key] {
			continue
		}
		seen[key] = true

		res := Result{
			Addr: addr,
			Kind: KindDescription,
			Extra: map[string]string{
				"ssdp.usn":      msg.USN(),
				"ssdp.st":       msg.SearchTarget(),
				"ssdp.server":   msg.Server(),
				"ssdp.location": location,
			},
			ObservedAt: time.Now(),
		}

		if location != "" {
			p.annotateFromDescription(ctx, location, &res)
		}

		emit(res)
	}

	return nil
}

// annotateFromDescription fetches the description document at location and
// fills in the typed fields. Fetch or parse failures drop only the document
// fields; the SSDP header evidence already on res is kept.
func (p *Description) annotateFromDescription(ctx context.Context, location string, res *Result) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.fetchTimeout())
	defer cancel()

	desc, err := ssdp.FetchDescription(fetchCtx, p.httpClient(), location)
	if err != nil {
		logging.Debug("Device description unavailable",
			zap.String("addr", res.Addr),
			zap.String("location", location),
			zap.Error(err),
		)
		return
	}

	dev := desc.Device
	res.Fields.Manufacturer = strings.TrimSpace(dev.Manufacturer)
	res.Fields.Model = strings.TrimSpace(dev.ModelName)
	res.Fields.FriendlyName = strings.TrimSpace(dev.FriendlyName)
	res.Fields.DeviceType = deviceTypeName(dev.DeviceType)
	res.Fields.Services = dev.ServiceTypes()
	if dev.ModelDescription != "" {
		res.Extra["model_description"] = dev.ModelDescription
	}
	if dev.SerialNumber != "" {
		res.Extra["serial_number"] = dev.SerialNumber
	}
}

func (p *Description) fetchTimeout() time.Duration {
	if p.FetchTimeout > 0 {
		return p.FetchTimeout
	}
	return DefaultDescriptionFetchTimeout
}

// deviceTypeName reduces a UPnP device type URN to its readable middle part:
// "urn:schemas-upnp-org:device:ZonePlayer:1" -> "ZonePlayer".
func deviceTypeName(urn string) string {
	parts := strings.Split(urn, ":")
	if len(parts) >= 4 && parts[0] == "urn" {
		return parts[3]
	}
	return strings.TrimSpace(urn)
}
