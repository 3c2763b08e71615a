package discovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kmorling/netscout/internal/inventory"
	"github.com/kmorling/netscout/internal/logging"
	"github.com/kmorling/netscout/internal/probe"
)

// Stage identifies where a run currently is in its lifecycle.
type Stage string

const (
	StageIdle      Stage = "idle"
	StageSeeding   Stage = "seeding"
	StageProbing   Stage = "probing"
	StageMerging   Stage = "merging"
	StageScoring   Stage = "scoring"
	StageFiltering Stage = "filtering"
	StageDone      Stage = "done"
)

const (
	// DefaultTimeout is the overall budget for a run when the caller does
	// not set one.
	DefaultTimeout = 60 * time.Second

	// passiveBudgetCap is the most wall-clock time any single passive or
	// query probe may consume regardless of the overall budget.
	passiveBudgetCap = 10 * time.Second

	// availabilityTimeout bounds each probe's capability check.
	availabilityTimeout = 3 * time.Second

	// seedingShare is the fraction of the overall budget the active scan
	// may consume. A hung sweep must leave room for the other probes.
	seedingShare = 2
)

// Options configures a discovery run.
type Options struct {
	// Range is the target network in nmap notation, e.g. "192.168.1.0/24".
	Range string

	// Timeout is the overall budget for the run. Zero means DefaultTimeout.
	Timeout time.Duration

	// Disabled lists probe kinds the caller wants skipped.
	Disabled []probe.Kind

	// Workers bounds concurrent HTTP fingerprinting. Zero uses the probe
	// default.
	Workers int

	// Weights overrides the confidence scoring weights. The zero value
	// means DefaultWeights.
	Weights *inventory.Weights

	// Classifier overrides the relevance filter. Nil means the default
	// classifier.
	Classifier *inventory.Classifier

	// ServiceDetection enables nmap service/version detection during the
	// seeding scan. Slower but yields service names for scoring.
	ServiceDetection bool
}

// Observer receives every probe result as it is merged, in arrival order.
// Observers must not block; slow consumers should buffer internally.
type Observer func(probe.Result)

// ProbeOutcome records what happened to one probe during a run.
type ProbeOutcome struct {
	Kind       probe.Kind    `json:"kind" yaml:"kind"`
	Ran        bool          `json:"ran" yaml:"ran"`
	SkipReason string        `json:"skip_reason,omitempty" yaml:"skip_reason,omitempty"`
	Results    int           `json:"results" yaml:"results"`
	Elapsed    time.Duration `json:"elapsed" yaml:"elapsed"`
	Err        string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summary is the run diagnostic returned alongside the device inventory.
type Summary struct {
	Range      string                       `json:"range" yaml:"range"`
	Started    time.Time                    `json:"started" yaml:"started"`
	Elapsed    time.Duration                `json:"elapsed" yaml:"elapsed"`
	Probes     map[probe.Kind]*ProbeOutcome `json:"probes" yaml:"probes"`
	Discovered int                          `json:"discovered" yaml:"discovered"`
	Relevant   int                          `json:"relevant" yaml:"relevant"`
}

// RunResult is the output of one discovery run.
type RunResult struct {
	// ID uniquely identifies the run.
	ID string

	// Devices holds the classifier-filtered inventory keyed by address.
	Devices map[string]*inventory.Record

	// All holds every discovered record, including ones the classifier
	// rejected.
	All map[string]*inventory.Record

	// Summary describes what each probe contributed.
	Summary Summary
}

// Engine coordinates the discovery probes against a shared inventory.
// An Engine is safe to reuse for sequential runs but not for concurrent
// ones.
type Engine struct {
	opts      Options
	mu        sync.Mutex
	probes    map[probe.Kind]probe.Probe
	observers []Observer
	stage     Stage
}

// NewEngine constructs an engine with the standard probe set. Probes can
// be replaced with RegisterProbe before Run.
func NewEngine(opts Options) *Engine {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	e := &Engine{
		opts:   opts,
		probes: make(map[probe.Kind]probe.Probe),
		stage:  StageIdle,
	}

	e.RegisterProbe(&probe.ActiveScan{ServiceDetection: opts.ServiceDetection})
	e.RegisterProbe(&probe.Announcement{})
	e.RegisterProbe(&probe.Description{})
	e.RegisterProbe(&probe.VendorPassive{})
	e.RegisterProbe(&probe.Fingerprint{Workers: opts.Workers})

	return e
}

// RegisterProbe installs p, replacing any probe of the same kind.
func (e *Engine) RegisterProbe(p probe.Probe) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.probes[p.Kind()] = p
}

// AddObserver registers fn to receive every merged probe result.
func (e *Engine) AddObserver(fn Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, fn)
}

// Stage reports the engine's current lifecycle stage.
func (e *Engine) Stage() Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stage
}

func (e *Engine) setStage(s Stage) {
	e.mu.Lock()
	e.stage = s
	e.mu.Unlock()
}

func (e *Engine) disabled(k probe.Kind) bool {
	for _, d := range e.opts.Disabled {
		if d == k {
			return true
		}
	}
	return false
}

// Run executes a full discovery pass and returns the filtered inventory.
// Expiry of the overall budget is not an error: probes stop where they
// are and the results collected so far are scored and returned. Run only
// fails when the options are unusable.
func (e *Engine) Run(ctx context.Context) (*RunResult, error) {
	if e.opts.Range == "" {
		return nil, fmt.Errorf("discovery: target range is required")
	}

	runID := uuid.New().String()
	started := time.Now()
	logger := logging.GetLogger()

	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()
	deadline, _ := ctx.Deadline()

	store := inventory.NewStore()
	summary := Summary{
		Range:   e.opts.Range,
		Started: started,
		Probes:  make(map[probe.Kind]*ProbeOutcome, len(e.probes)),
	}
	for k := range e.probes {
		summary.Probes[k] = &ProbeOutcome{Kind: k}
	}

	e.mu.Lock()
	observers := make([]Observer, len(e.observers))
	copy(observers, e.observers)
	e.mu.Unlock()

	var emitMu sync.Mutex
	emitFor := func(outcome *ProbeOutcome) func(probe.Result) {
		return func(res probe.Result) {
			emitMu.Lock()
			outcome.Results++
			store.Apply(res)
			for _, fn := range observers {
				fn(res)
			}
			emitMu.Unlock()
		}
	}

	logger.Info("discovery run starting",
		zap.String("run_id", runID),
		zap.String("range", e.opts.Range),
		zap.Duration("timeout", e.opts.Timeout))

	// Resolve probe availability once up front so an unavailable probe is
	// reported as skipped rather than failing mid-run.
	available := make(map[probe.Kind]bool, len(e.probes))
	for kind, p := range e.probes {
		outcome := summary.Probes[kind]
		if e.disabled(kind) {
			outcome.SkipReason = "disabled"
			logging.LogProbeSkipped(runID, string(kind), "disabled")
			continue
		}
		availCtx, availCancel := context.WithTimeout(ctx, availabilityTimeout)
		ok := p.Available(availCtx)
		availCancel()
		available[kind] = ok
		if !ok {
			outcome.SkipReason = "unavailable"
			logging.LogProbeSkipped(runID, string(kind), "capability unavailable")
		}
	}

	targets := probe.Targets{Range: e.opts.Range}

	// Seeding: the active scan populates the inventory with live hosts so
	// the fingerprint probe has addresses to work against. It gets half
	// the overall budget, never the whole of it.
	e.setStage(StageSeeding)
	if available[probe.KindActiveScan] {
		seedCtx, seedCancel := context.WithTimeout(ctx, e.opts.Timeout/seedingShare)
		e.runProbe(seedCtx, runID, e.probes[probe.KindActiveScan], targets,
			summary.Probes[probe.KindActiveScan], emitFor(summary.Probes[probe.KindActiveScan]))
		seedCancel()
	}

	// Probing: the passive and query probes run concurrently, each under
	// its own sub-budget so one slow listener cannot starve the rest.
	e.setStage(StageProbing)
	passiveBudget := minDuration(passiveBudgetCap, e.opts.Timeout/3)
	if remaining := time.Until(deadline); remaining < passiveBudget {
		passiveBudget = remaining
	}

	var wg sync.WaitGroup
	for _, kind := range []probe.Kind{probe.KindAnnouncement, probe.KindDescription, probe.KindVendorPassive} {
		if !available[kind] {
			continue
		}
		p := e.probes[kind]
		outcome := summary.Probes[kind]
		emit := emitFor(outcome)
		wg.Add(1)
		go func() {
			defer wg.Done()
			subCtx, subCancel := context.WithTimeout(ctx, passiveBudget)
			defer subCancel()
			e.runProbe(subCtx, runID, p, targets, outcome, emit)
		}()
	}
	wg.Wait()

	// Fingerprinting runs last, against every address seen so far, with
	// whatever budget is left.
	if available[probe.KindFingerprint] {
		fpOutcome := summary.Probes[probe.KindFingerprint]
		fpTargets := probe.Targets{Range: e.opts.Range, Addrs: store.Addrs()}
		switch {
		case ctx.Err() != nil:
			fpOutcome.SkipReason = "budget exhausted"
			logging.LogProbeSkipped(runID, string(probe.KindFingerprint), "budget exhausted")
		case len(fpTargets.Addrs) == 0:
			fpOutcome.SkipReason = "no addresses discovered"
			logging.LogProbeSkipped(runID, string(probe.KindFingerprint), "no addresses discovered")
		default:
			e.runProbe(ctx, runID, e.probes[probe.KindFingerprint], fpTargets,
				fpOutcome, emitFor(fpOutcome))
		}
	}

	// Evidence was merged as it arrived; the remaining stages score and
	// filter the accumulated records.
	e.setStage(StageMerging)
	e.setStage(StageScoring)
	weights := inventory.DefaultWeights()
	if e.opts.Weights != nil {
		weights = *e.opts.Weights
	}
	all := store.Finalize(weights)

	e.setStage(StageFiltering)
	classifier := e.opts.Classifier
	if classifier == nil {
		classifier = inventory.NewClassifier()
	}
	devices := classifier.Filter(all)

	e.setStage(StageDone)
	summary.Elapsed = time.Since(started)
	summary.Discovered = len(all)
	summary.Relevant = len(devices)

	logger.Info("discovery run finished",
		zap.String("run_id", runID),
		zap.Int("discovered", summary.Discovered),
		zap.Int("relevant", summary.Relevant),
		zap.Duration("elapsed", summary.Elapsed))

	return &RunResult{ID: runID, Devices: devices, All: all, Summary: summary}, nil
}

func (e *Engine) runProbe(ctx context.Context, runID string, p probe.Probe, targets probe.Targets, outcome *ProbeOutcome, emit func(probe.Result)) {
	remaining := e.opts.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining = time.Until(deadline)
	}
	if remaining <= 0 {
		outcome.SkipReason = "budget exhausted"
		logging.LogProbeSkipped(runID, string(p.Kind()), "budget exhausted")
		return
	}

	logging.LogProbeStart(runID, string(p.Kind()), remaining)
	start := time.Now()
	err := p.Run(ctx, targets, emit)
	outcome.Ran = true
	outcome.Elapsed = time.Since(start)

	// A deadline hitting mid-probe is expected; whatever the probe
	// emitted before stopping stays in the inventory.
	if err != nil && ctx.Err() == nil {
		outcome.Err = err.Error()
	}
	logging.LogProbeFinish(runID, string(p.Kind()), outcome.Results, outcome.Elapsed, err)
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
