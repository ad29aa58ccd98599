package cmd

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Iron-Ham/claudeflow/internal/config"
	"github.com/Iron-Ham/claudeflow/internal/detect"
	"github.com/Iron-Ham/claudeflow/internal/event"
	"github.com/Iron-Ham/claudeflow/internal/hooklog"
	"github.com/Iron-Ham/claudeflow/internal/ingest"
	"github.com/Iron-Ham/claudeflow/internal/logging"
	"github.com/Iron-Ham/claudeflow/internal/permission"
	"github.com/Iron-Ham/claudeflow/internal/schedule"
)

// app wires one bus to every producer and consumer.
type app struct {
	logger     *logging.Logger
	bus        *event.Bus
	classifier *detect.Classifier
	feeder     *ingest.Feeder
	tracker    *permission.Tracker
	recorder   *event.Recorder
	sched      schedule.Scheduler

	mu       sync.Mutex
	hooksCfg config.HooksConfig
	hooks    *hooklog.Reader // nil when hooks are disabled
	started  bool
}

func newApp(cfg *config.Config, logger *logging.Logger, sched schedule.Scheduler) (*app, error) {
	bus := event.NewBus(event.WithLogger(logger), event.WithClock(sched.Now))

	rules, err := buildRules(cfg.Classifier)
	if err != nil {
		return nil, err
	}
	classifier := detect.NewClassifier(rules, logger)
	classifier.SetClock(sched.Now)

	feeder, err := ingest.NewFeeder(classifier, bus,
		ingest.WithSourceFilter(cfg.Sources.Include...),
		ingest.WithANSIStripping(cfg.Classifier.StripANSI),
		ingest.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	recorder := event.NewRecorder(cfg.Events.RecentCapacity)
	recorder.Attach(bus)

	a := &app{
		logger:     logger,
		bus:        bus,
		classifier: classifier,
		feeder:     feeder,
		tracker:    permission.NewTracker(bus, sched, trackerConfig(cfg.Tracker), logger),
		recorder:   recorder,
		sched:      sched,
		hooksCfg:   cfg.Hooks,
	}

	a.hooks, err = a.newHookReader(cfg.Hooks)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// newHookReader builds a reader publishing on the app's bus, or returns nil
// when hook ingestion is disabled.
func (a *app) newHookReader(cfg config.HooksConfig) (*hooklog.Reader, error) {
	if !cfg.Enabled || cfg.FilePath == "" {
		return nil, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	r := hooklog.New(cfg.FilePath, cwd,
		hooklog.WithLogger(a.logger),
		hooklog.WithClock(a.sched.Now))
	r.OnEvent(a.bus.Publish)
	return r, nil
}

// buildRules assembles the classifier rule table from configuration.
func buildRules(cfg config.ClassifierConfig) ([]detect.Rule, error) {
	var rules []detect.Rule
	if !cfg.DisableDefaults {
		rules = detect.DefaultRules()
	}
	if cfg.RulesFile != "" {
		extra, err := detect.LoadRules(cfg.RulesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load classifier rules: %w", err)
		}
		rules = append(rules, extra...)
	}
	return rules, nil
}

func trackerConfig(cfg config.TrackerConfig) permission.Config {
	return permission.Config{
		MaxHistorySize: cfg.MaxHistorySize,
		SweepInterval:  cfg.SweepInterval(),
		Timeouts:       trackerTimeouts(cfg.Timeouts),
	}
}

func trackerTimeouts(cfg config.TimeoutsConfig) map[permission.RequestType]time.Duration {
	out := make(map[permission.RequestType]time.Duration)
	for name, d := range cfg.ByType() {
		out[permission.RequestType(name)] = d
	}
	return out
}

// start begins the autonomous parts: the tracker sweep and the hook watch.
func (a *app) start() error {
	a.tracker.Start()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.hooks != nil {
		if err := a.hooks.Start(); err != nil {
			a.tracker.Close()
			return err
		}
	}
	a.started = true
	return nil
}

// applyConfig pushes runtime-tunable settings from a reloaded config. A
// change to the hooks section replaces the hook reader.
func (a *app) applyConfig(cfg *config.Config) {
	a.tracker.SetMaxHistorySize(cfg.Tracker.MaxHistorySize)
	a.tracker.SetTimeouts(trackerTimeouts(cfg.Tracker.Timeouts))
	a.restartHooks(cfg.Hooks)
	a.logger.Info("configuration reloaded",
		"max_history_size", cfg.Tracker.MaxHistorySize,
		"hooks", cfg.Hooks.Enabled)
}

func (a *app) restartHooks(cfg config.HooksConfig) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if cfg == a.hooksCfg {
		return
	}
	if a.hooks != nil {
		a.hooks.Stop()
		a.hooks = nil
	}
	a.hooksCfg = cfg

	r, err := a.newHookReader(cfg)
	if err != nil {
		a.logger.Warn("failed to create hook reader", "error", err)
		return
	}
	if r != nil && a.started {
		if err := r.Start(); err != nil {
			a.logger.Warn("failed to start hook reader", "error", err)
			return
		}
	}
	a.hooks = r
}

// hookReader returns the current hook reader, nil when hooks are disabled.
func (a *app) hookReader() *hooklog.Reader {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hooks
}

// summary captures the tracker state and the recorder's recent events.
func (a *app) summary() watchSummary {
	return watchSummary{
		Snapshot:     a.tracker.Snapshot(),
		RecentEvents: a.recorder.Events(),
	}
}

func (a *app) close() {
	a.mu.Lock()
	if a.hooks != nil {
		a.hooks.Stop()
	}
	a.started = false
	a.mu.Unlock()

	a.tracker.Close()
	a.recorder.Detach()
}
