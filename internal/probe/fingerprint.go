package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kmorling/netscout/internal/logging"
)

const (
	// DefaultFingerprintWorkers bounds concurrent in-flight address probes
	DefaultFingerprintWorkers = 10

	// DefaultRequestTimeout bounds each individual HTTP request
	DefaultRequestTimeout = 3 * time.Second

	// maxBodyPreview is how much of a response body is read and matched
	maxBodyPreview = 64 * 1024

	// previewExtraLen is how much body is kept in the evidence bag
	previewExtraLen = 500
)

// commonHTTPPorts are tried on every address, before signature-specific ports.
var commonHTTPPorts = []int{80, 8080, 443, 8443}

// Fingerprint probes every already-known address over HTTP and matches the
// responses against a signature table to positively identify a device.
// It dominates wall-clock cost when many hosts are live, so addresses are
// probed concurrently through a bounded worker pool.
type Fingerprint struct {
	// Signatures is the match table; defaults to DefaultSignatures
	Signatures []Signature

	// Workers bounds concurrent address probes
	Workers int

	// RequestTimeout bounds each HTTP request so one unresponsive host
	// cannot hold a pool slot
	RequestTimeout time.Duration

	clientOnce sync.Once
	client     *http.Client
}

// NewFingerprint creates the HTTP fingerprint probe with default settings.
func NewFingerprint() *Fingerprint {
	return &Fingerprint{
		Signatures:     DefaultSignatures,
		Workers:        DefaultFingerprintWorkers,
		RequestTimeout: DefaultRequestTimeout,
	}
}

// httpClient lazily builds the shared client so a zero-value Fingerprint
// works too.
func (p *Fingerprint) httpClient() *http.Client {
	p.clientOnce.Do(func() {
		p.client = &http.Client{
			Timeout: p.requestTimeout(),
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
			Transport: &http.Transport{
				// Devices present self-signed certificates; identification
				// reads headers, it does not trust the channel
				TLSClientConfig:   &tls.Config{InsecureSkipVerify: true},
				DisableKeepAlives: true,
			},
		}
	})
	return p.client
}

// Kind implements Probe.
func (p *Fingerprint) Kind() Kind { return KindFingerprint }

// Available always reports true: plain TCP needs no privilege or binary.
func (p *Fingerprint) Available(ctx context.Context) bool { return true }

// Run fingerprints every address in targets.Addrs concurrently and emits one
// Result per address that answered on at least one port.
func (p *Fingerprint) Run(ctx context.Context, targets Targets, emit func(Result)) error {
	addrs := targets.SortedAddrs()
	if len(addrs) == 0 {
		return nil
	}

	workers := p.Workers
	if workers <= 0 {
		workers = DefaultFingerprintWorkers
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, addr := range addrs {
		addr := addr
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if res, ok := p.fingerprintAddr(ctx, addr); ok {
				emit(res)
			}
			// Per-address failures never fail the probe
			return nil
		})
	}

	return g.Wait()
}

// ports returns the ordered, de-duplicated port list to try: the common HTTP
// ports first, then signature-specific extras.
func (p *Fingerprint) ports() []int {
	seen := make(map[int]bool)
	var ports []int
	for _, port := range commonHTTPPorts {
		if !seen[port] {
			seen[port] = true
			ports = append(ports, port)
		}
	}
	var extra []int
	for _, sig := range p.signatures() {
		for _, port := range sig.Ports {
			if !seen[port] {
				seen[port] = true
				extra = append(extra, port)
			}
		}
	}
	sort.Ints(extra)
	return append(ports, extra...)
}

func (p *Fingerprint) signatures() []Signature {
	if len(p.Signatures) > 0 {
		return p.Signatures
	}
	return DefaultSignatures
}

// fingerprintAddr tries each candidate port on one address. It stops early on
// a signature match; the Result accumulates per-port response metadata either
// way. Returns false if no port answered.
func (p *Fingerprint) fingerprintAddr(ctx context.Context, addr string) (Result, bool) {
	res := Result{
		Addr:       addr,
		Kind:       KindFingerprint,
		Extra:      map[string]string{},
		ObservedAt: time.Now(),
	}

	answered := false
	for _, port := range p.ports() {
		if ctx.Err() != nil {
			break
		}
		status, headerText, body, err := p.get(ctx, addr, port)
		if err != nil {
			continue
		}
		answered = true
		res.Fields.OpenPorts = append(res.Fields.OpenPorts, port)
		res.Extra["port_"+strconv.Itoa(port)+"_status"] = strconv.Itoa(status)
		if preview := bodyPreview(body); preview != "" {
			res.Extra["port_"+strconv.Itoa(port)+"_preview"] = preview
		}

		sig, matched := matchSignature(p.signatures(), headerText, body)
		logging.LogFingerprint(addr, port, status, matched)
		if matched {
			res.Fields.Matched = true
			res.Fields.Manufacturer = sig.Manufacturer
			res.Fields.DeviceType = sig.DeviceType
			res.Extra["signature"] = sig.Name
			break
		}
	}

	if !answered {
		return Result{}, false
	}
	return res, true
}

// get performs one bounded HTTP(S) request and returns the status code, the
// joined lower-case header text and the lower-case body prefix.
func (p *Fingerprint) get(ctx context.Context, addr string, port int) (int, string, string, error) {
	scheme := "http"
	if port == 443 || port == 8443 {
		scheme = "https"
	}
	url := fmt.Sprintf("%s://%s/", scheme, net.JoinHostPort(addr, strconv.Itoa(port)))

	reqCtx, cancel := context.WithTimeout(ctx, p.requestTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return 0, "", "", err
	}

	resp, err := p.httpClient().Do(req)
	if err != nil {
		return 0, "", "", err
	}
	defer func() { _ = resp.Body.Close() }()

	var sb strings.Builder
	for key, values := range resp.Header {
		for _, value := range values {
			sb.WriteString(strings.ToLower(key))
			sb.WriteString(":")
			sb.WriteString(strings.ToLower(value))
			sb.WriteString(" ")
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyPreview))
	if err != nil {
		// Headers already arrived; a truncated body is still evidence
		body = nil
	}

	return resp.StatusCode, sb.String(), strings.ToLower(string(body)), nil
}

func (p *Fingerprint) requestTimeout() time.Duration {
	if p.RequestTimeout > 0 {
		return p.RequestTimeout
	}
	return DefaultRequestTimeout
}

// matchSignature finds the first signature whose header or body patterns
// appear in the response.
func matchSignature(signatures []Signature, headerText, body string) (Signature, bool) {
	for _, sig := range signatures {
		for _, want := range sig.Headers {
			if want != "" && strings.Contains(headerText, want) {
				return sig, true
			}
		}
		if body == "" {
			continue
		}
		for _, want := range sig.Body {
			if want != "" && strings.Contains(body, want) {
				return sig, true
			}
		}
	}
	return Signature{}, false
}

// bodyPreview trims a body to the length kept in the evidence bag.
func bodyPreview(body string) string {
	body = strings.TrimSpace(body)
	if len(body) > previewExtraLen {
		return body[:previewExtraLen]
	}
	return body
}
