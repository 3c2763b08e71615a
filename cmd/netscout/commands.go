package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kmorling/netscout/internal/config"
	"github.com/kmorling/netscout/internal/discovery"
	"github.com/kmorling/netscout/internal/inventory"
	"github.com/kmorling/netscout/internal/logging"
	"github.com/kmorling/netscout/internal/probe"
	"github.com/kmorling/netscout/internal/server"
	"github.com/kmorling/netscout/internal/urls"
)

// Scan command flags
var (
	scanRange        string
	scanTimeout      int
	scanWorkers      int
	disabledProbes   []string
	outputFormat     string
	outputPath       string
	showAll          bool
	signaturesPath   string
	serviceDetection bool
)

// Serve command flags
var (
	serveHost     string
	servePort     int
	serveLogLevel string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&scanRange, "range", "", "Target network range, e.g. 192.168.1.0/24")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "", "Output format (detailed, compact, json, yaml)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(probesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configNicknameCmd)
}

// scanCmd runs a full discovery pass
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the network for smart home devices",
	Long: `Run every available discovery probe against the target range.

The scan sweeps the range with nmap, listens for mDNS and SSDP
announcements, queries UPnP device descriptions, and fingerprints HTTP
endpoints. Evidence from all probes is merged per device and each device
gets a confidence score; by default only devices classified as smart
home equipment are shown.`,
	Example: `  # Scan the default range from the config file
  netscout scan

  # Scan a specific range with a two minute budget
  netscout scan --range 192.168.1.0/24 --timeout 120

  # Skip the nmap sweep on networks where it is not permitted
  netscout scan --disable activescan

  # JSON output for scripting
  netscout scan --range 192.168.1.0/24 --format json`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 0, "Overall scan budget in seconds")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "Concurrent fingerprint workers")
	scanCmd.Flags().StringSliceVar(&disabledProbes, "disable", nil, "Probes to skip (activescan, announcement, description, vendorpassive, fingerprint)")
	scanCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write results to a file instead of stdout")
	scanCmd.Flags().BoolVar(&showAll, "all", false, "Include devices the classifier filtered out")
	scanCmd.Flags().StringVar(&signaturesPath, "signatures", "", "Extra HTTP fingerprint signatures (YAML)")
	scanCmd.Flags().BoolVar(&serviceDetection, "service-detection", false, "Enable nmap service/version detection (slower)")
}

func runScan(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	opts, err := scanOptions(settings)
	if err != nil {
		return err
	}
	if opts.Range == "" {
		return fmt.Errorf("no target range: pass --range or set scan.range in the config file\nSee %s", urls.GettingStarted)
	}

	engine := discovery.NewEngine(opts)
	if signaturesPath != "" {
		extra, err := probe.LoadSignatures(signaturesPath)
		if err != nil {
			return fmt.Errorf("failed to load signatures: %w", err)
		}
		sigs := append(append([]probe.Signature{}, probe.DefaultSignatures...), extra...)
		engine.RegisterProbe(&probe.Fingerprint{Signatures: sigs, Workers: opts.Workers})
	}

	fmt.Printf("Scanning %s (budget: %s)...\n\n", opts.Range, opts.Timeout)

	result, err := engine.Run(context.Background())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	rememberDevices(settings, result)

	devices := result.Devices
	if showAll {
		devices = result.All
	}
	devices = dropIgnored(settings, devices)

	format := outputFormat
	if format == "" && settings.Output != nil {
		format = settings.Output.Format
	}

	out, err := formatDevices(devices, result.Summary, format, settings)
	if err != nil {
		return err
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, []byte(out), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Printf("Results written to %s\n", outputPath)
		return nil
	}

	fmt.Print(out)

	if len(devices) == 0 {
		fmt.Println("No smart home devices found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Verify the target range covers your LAN")
		fmt.Println("  - Some probes need elevated privileges or the nmap binary; run 'netscout probes'")
		fmt.Println("  - Try increasing --timeout; passive probes need time to hear announcements")
		fmt.Println("  - Use --all to show hosts the classifier filtered out")
		fmt.Printf("\nMore help: %s\n", urls.Troubleshooting)
	}

	return nil
}

// scanOptions merges config file defaults with command line flags.
// Flags win.
func scanOptions(settings *config.Settings) (discovery.Options, error) {
	opts := discovery.Options{
		Weights:          weightsPtr(settings),
		ServiceDetection: serviceDetection,
	}

	if settings.Scan != nil {
		opts.Range = settings.Scan.Range
		opts.Timeout = time.Duration(settings.Scan.TimeoutSeconds) * time.Second
		opts.Workers = settings.Scan.Workers
		for _, name := range settings.Scan.DisabledProbes {
			kind := probe.Kind(name)
			if !kind.Valid() {
				return opts, fmt.Errorf("config: unknown probe kind %q", name)
			}
			opts.Disabled = append(opts.Disabled, kind)
		}
		if signaturesPath == "" {
			signaturesPath = settings.Scan.SignaturesPath
		}
	}

	if scanRange != "" {
		opts.Range = scanRange
	}
	if scanTimeout > 0 {
		opts.Timeout = time.Duration(scanTimeout) * time.Second
	}
	if scanWorkers > 0 {
		opts.Workers = scanWorkers
	}
	for _, name := range disabledProbes {
		kind := probe.Kind(name)
		if !kind.Valid() {
			return opts, fmt.Errorf("unknown probe kind %q (see 'netscout probes')", name)
		}
		opts.Disabled = append(opts.Disabled, kind)
	}

	return opts, nil
}

func weightsPtr(settings *config.Settings) *inventory.Weights {
	if settings.Scoring == nil {
		return nil
	}
	w := settings.Weights()
	return &w
}

// rememberDevices records sightings of devices with known MAC addresses
// so nicknames survive across scans.
func rememberDevices(settings *config.Settings, result *discovery.RunResult) {
	changed := false
	for _, rec := range result.Devices {
		if rec.MACAddress == "" {
			continue
		}
		settings.RememberSighting(rec.MACAddress, rec.Addr)
		changed = true
	}
	if changed {
		if err := settings.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not save settings: %v\n", err)
		}
	}
}

// dropIgnored removes devices the user marked ignored in the config file.
func dropIgnored(settings *config.Settings, devices map[string]*inventory.Record) map[string]*inventory.Record {
	out := make(map[string]*inventory.Record, len(devices))
	for addr, rec := range devices {
		if known := settings.GetKnownDevice(rec.MACAddress); known != nil && known.Ignore {
			continue
		}
		out[addr] = rec
	}
	return out
}

// nicknameByAddr maps each device address to its configured nickname, if any.
func nicknameByAddr(settings *config.Settings, devices map[string]*inventory.Record) map[string]string {
	names := make(map[string]string)
	for addr, rec := range devices {
		if known := settings.GetKnownDevice(rec.MACAddress); known != nil && known.Nickname != "" {
			names[addr] = known.Nickname
		}
	}
	return names
}

func formatDevices(devices map[string]*inventory.Record, summary discovery.Summary, format string, settings *config.Settings) (string, error) {
	flats := inventory.FlattenAll(devices)
	nicknames := nicknameByAddr(settings, devices)

	switch format {
	case "json":
		data, err := json.MarshalIndent(flats, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return string(data) + "\n", nil

	case "yaml":
		data, err := yaml.Marshal(flats)
		if err != nil {
			return "", fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return string(data), nil

	case "compact":
		var b strings.Builder
		for _, f := range flats {
			name := nicknames[f.Address]
			if name == "" {
				name = f.Manufacturer
			}
			if name == "" {
				name = "unknown"
			}
			fmt.Fprintf(&b, "%-16s %-24s %-20s %.2f\n", f.Address, name, f.DeviceType, f.ConfidenceScore)
		}
		return b.String(), nil

	case "detailed", "":
		var b strings.Builder
		fmt.Fprintf(&b, "Found %d device(s) in %s:\n\n", len(flats), summary.Elapsed.Round(time.Millisecond))
		for i, f := range flats {
			if nickname := nicknames[f.Address]; nickname != "" {
				fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, f.Address, nickname)
			} else {
				fmt.Fprintf(&b, "%d. %s\n", i+1, f.Address)
			}
			if f.Manufacturer != "" {
				fmt.Fprintf(&b, "   Manufacturer: %s\n", f.Manufacturer)
			}
			if f.DeviceType != "" {
				fmt.Fprintf(&b, "   Device Type:  %s\n", f.DeviceType)
			}
			if f.Hostname != "" {
				fmt.Fprintf(&b, "   Hostname:     %s\n", f.Hostname)
			}
			if f.MACAddress != "" {
				fmt.Fprintf(&b, "   MAC:          %s\n", f.MACAddress)
			}
			fmt.Fprintf(&b, "   Confidence:   %.2f\n", f.ConfidenceScore)
			fmt.Fprintf(&b, "   Methods:      %s\n", strings.Join(f.DiscoveryMethods, ", "))
			if len(f.OpenPorts) > 0 {
				ports := make([]string, len(f.OpenPorts))
				for j, p := range f.OpenPorts {
					ports[j] = fmt.Sprintf("%d", p)
				}
				fmt.Fprintf(&b, "   Open Ports:   %s\n", strings.Join(ports, ", "))
			}
			if len(f.Services) > 0 {
				fmt.Fprintf(&b, "   Services:     %s\n", strings.Join(f.Services, ", "))
			}
			b.WriteString("\n")
		}
		return b.String(), nil

	default:
		return "", fmt.Errorf("unknown output format %q (detailed, compact, json, yaml)", format)
	}
}

// probesCmd reports which probes can run on this host
var probesCmd = &cobra.Command{
	Use:   "probes",
	Short: "Show probe availability on this host",
	Long: `Check which discovery probes can run in the current environment.

Some probes have host requirements: the active scan needs the nmap
binary, the mDNS and SSDP listeners need multicast UDP, and MAC
addresses are only visible with raw socket privileges.`,
	RunE: runProbes,
}

func runProbes(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	checks := []probe.Probe{
		&probe.ActiveScan{},
		&probe.Announcement{},
		&probe.Description{},
		&probe.VendorPassive{},
		&probe.Fingerprint{},
	}

	fmt.Println("Probe availability:")
	for _, p := range checks {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		ok := p.Available(ctx)
		cancel()
		status := "available"
		if !ok {
			status = "UNAVAILABLE"
		}
		fmt.Printf("  %-14s %s\n", p.Kind(), status)
	}

	fmt.Printf("\nProbe requirements: %s\n", urls.ProbeRequirements)
	return nil
}

// configCmd groups configuration management subcommands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage netscout configuration",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.CreateDefaultConfig(); err != nil {
			return fmt.Errorf("failed to create config: %w", err)
		}
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Printf("Created %s\n", path)
		return nil
	},
}

var configNicknameCmd = &cobra.Command{
	Use:   "nickname <mac> <name>",
	Short: "Give a known device a nickname",
	Long: `Assign a nickname to a device by its MAC address.

Devices are remembered by MAC across scans, so nicknames survive
DHCP address changes.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.LoadSettings()
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		settings.SetNickname(strings.ToUpper(args[0]), args[1])
		if err := settings.Save(); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		fmt.Printf("Nicknamed %s %q\n", strings.ToUpper(args[0]), args[1])
		return nil
	},
}

// serveCmd runs the HTTP/WebSocket API server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the discovery API server",
	Long: `Run an HTTP server exposing discovery over a JSON API.

Clients can trigger scans, fetch the latest inventory, and subscribe to
a WebSocket event feed that streams probe results as they arrive.`,
	Example: `  # Serve on the default port
  netscout serve --range 192.168.1.0/24

  # Bind a specific interface and port
  netscout serve --host 192.168.1.10 --port 8090 --range 192.168.1.0/24`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen address (default all interfaces)")
	serveCmd.Flags().IntVar(&servePort, "port", 8090, "Listen port")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func runServe(cmd *cobra.Command, args []string) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	opts, err := scanOptions(settings)
	if err != nil {
		return err
	}

	srv, err := server.New(&server.Config{
		Host:     serveHost,
		Port:     servePort,
		LogLevel: serveLogLevel,
		Scan:     opts,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
