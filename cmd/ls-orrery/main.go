// Command ls-orrery shows planetary clocks and heliocentric positions in a
// terminal UI, as headless text/JSON, or over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/config"
	"github.com/litescript/ls-orrery/internal/engine"
	"github.com/litescript/ls-orrery/internal/ephem"
	"github.com/litescript/ls-orrery/internal/logging"
	"github.com/litescript/ls-orrery/internal/metrics"
	"github.com/litescript/ls-orrery/internal/selfcheck"
	"github.com/litescript/ls-orrery/internal/server"
	"github.com/litescript/ls-orrery/internal/state"
	"github.com/litescript/ls-orrery/internal/ui"
)

// CLI flags for headless mode
var (
	summaryMode   bool
	jsonPath      string
	watchInterval time.Duration
	selfCheckMode bool
	serveAddr     string
	atFlag        string
)

// longitudeFlags collects repeatable -lon BODY=DEG assignments.
type longitudeFlags []string

func (l *longitudeFlags) String() string { return strings.Join(*l, ",") }

func (l *longitudeFlags) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	defaults := config.DefaultConfig()

	cfgPath := flag.String("config", "", "TOML config file")
	source := flag.String("source", defaults.Source, "Ephemeris source (model, external)")
	backend := flag.String("backend", defaults.Backend, "External backend (service, jplfile)")
	ephemURL := flag.String("ephem-url", defaults.ServiceURL, "State-vector service URL")
	ephemFile := flag.String("ephem-file", "", "JPL DE binary ephemeris file (implies -backend jplfile)")
	timeout := flag.Duration("timeout", defaults.RequestTimeout.Duration, "External request timeout")
	refresh := flag.Duration("refresh", defaults.Refresh.Duration, "Refresh interval (e.g., 1s, 1m)")
	leap := flag.Float64("leap-seconds", defaults.LeapSeconds, "TAI-UTC in seconds")
	logLevel := flag.String("log-level", defaults.LogLevel, "Log level (debug, info, warn, error)")
	logFile := flag.String("log-file", "", "Write logs to file (TUI mode discards logs otherwise)")
	var lons longitudeFlags
	flag.Var(&lons, "lon", "Longitude assignment BODY=DEG, degrees east (repeatable)")
	flag.BoolVar(&summaryMode, "summary", false, "Print text summary instead of TUI")
	flag.StringVar(&jsonPath, "json", "", "Export JSON frame to file (use - for stdout)")
	flag.DurationVar(&watchInterval, "watch", 0, "Repeat headless output at interval (e.g., 30s)")
	flag.BoolVar(&selfCheckMode, "selfcheck", false, "Run the self-check battery and exit")
	flag.StringVar(&serveAddr, "serve", "", "Serve the HTTP API on ADDR (e.g., :8080; - uses listen_addr)")
	flag.StringVar(&atFlag, "at", "", "Evaluate at a fixed RFC3339 instant instead of now")
	flag.Parse()

	// Defaults < TOML < environment < explicitly set flags.
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "source":
			cfg.Source = *source
		case "backend":
			cfg.Backend = *backend
		case "ephem-url":
			cfg.ServiceURL = *ephemURL
		case "ephem-file":
			cfg.JPLFile = *ephemFile
			cfg.Backend = config.BackendJPLFile
		case "timeout":
			cfg.RequestTimeout.Duration = *timeout
		case "refresh":
			cfg.Refresh.Duration = *refresh
		case "leap-seconds":
			cfg.LeapSeconds = *leap
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-file":
			cfg.LogFile = *logFile
		case "serve":
			// "-" keeps listen_addr from the config file or environment.
			if serveAddr != "-" {
				cfg.ListenAddr = serveAddr
			}
		}
	})
	for _, assign := range lons {
		if err := cfg.SetLongitude(assign); err != nil {
			fmt.Fprintf(os.Stderr, "Error: -lon: %v\n", err)
			return 1
		}
	}
	cfg.ClampRefresh()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	now := time.Now
	if atFlag != "" {
		at, err := time.Parse(time.RFC3339Nano, atFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: -at: %v\n", err)
			return 1
		}
		now = func() time.Time { return at }
	}

	headless := summaryMode || jsonPath != "" || selfCheckMode || serveAddr != ""

	// Set up logging
	logger := logging.New(logging.ParseLevel(cfg.LogLevel))
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: open log file: %v\n", err)
			return 1
		}
		defer f.Close()
		logger.SetOutput(f)
	} else if !headless {
		// Anything written to stderr would tear the alt screen.
		logger.SetOutput(io.Discard)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if selfCheckMode {
		return runSelfCheck(now(), cfg)
	}

	src, closeSource, err := buildSource(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeSource()

	stateCfg := state.DefaultConfig()
	stateCfg.RefreshInterval = cfg.Refresh.Duration
	stateMgr := state.NewManager(stateCfg)

	engineCfg := cfg.Engine()

	if serveAddr != "" {
		return runServer(ctx, cfg, src, stateMgr, engineCfg, now, logger)
	}

	if !headless && !term.IsTerminal(int(os.Stdout.Fd())) {
		logger.Warn("stdout is not a terminal, printing summary")
		summaryMode = true
		headless = true
	}

	if headless {
		return runHeadless(ctx, src, stateMgr, engineCfg, now, logger)
	}

	model := ui.New(stateMgr, src, ui.Options{
		Engine:    engineCfg,
		Refresh:   cfg.Refresh.Duration,
		SelfCheck: selfcheck.Options{TimeScale: cfg.TimeScale(), Longitude: engineCfg.Longitude(bodies.Earth)},
		Now:       now,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		return 1
	}
	return 0
}

// buildSource wires the model provider and the configured external backend.
// A JPL file that cannot be opened is fatal only when external mode is requested.
func buildSource(cfg config.Config, logger *logging.Logger) (*ephem.Source, func(), error) {
	model := ephem.NewModelProvider(cfg.TimeScale())
	opts := []ephem.SourceOption{
		ephem.WithMode(cfg.Mode()),
		ephem.WithRequestTimeout(cfg.RequestTimeout.Duration),
		ephem.WithLogger(logger.With("ephem")),
	}
	closer := func() {}

	switch cfg.Backend {
	case config.BackendJPLFile:
		p, err := ephem.OpenJPLFile(cfg.JPLFile, cfg.TimeScale())
		if err != nil {
			if cfg.Mode() == ephem.ModeExternal {
				return nil, closer, err
			}
			logger.Warn("JPL file unavailable, external mode disabled: %v", err)
			break
		}
		opts = append(opts, ephem.WithExternal(p))
		closer = func() { _ = p.Close() }
	default:
		opts = append(opts, ephem.WithExternal(ephem.NewServiceProvider(
			ephem.WithURL(cfg.ServiceURL),
			ephem.WithTimeout(cfg.RequestTimeout.Duration),
		)))
	}

	return ephem.NewSource(model, opts...), closer, nil
}

// tick evaluates one frame synchronously and stores it.
func tick(ctx context.Context, src *ephem.Source, stateMgr *state.Manager, engineCfg engine.Config, at time.Time) state.Frame {
	frame := state.Frame{
		Snapshot: engine.Evaluate(at, engineCfg),
		Table:    src.Tick(ctx, at, bodies.Orbital()),
	}
	stateMgr.Update(frame)
	return frame
}

func runSelfCheck(at time.Time, cfg config.Config) int {
	engineCfg := cfg.Engine()
	results := selfcheck.Run(at, selfcheck.Options{
		TimeScale: cfg.TimeScale(),
		Longitude: engineCfg.Longitude(bodies.Earth),
	})
	state.WriteSelfCheck(os.Stdout, results)

	failures := selfcheck.Failures(results)
	metrics.SetSelfCheckFailures(len(failures))
	if len(failures) > 0 {
		return 1
	}
	return 0
}

// runHeadless handles summary, JSON and watch modes without starting the TUI.
func runHeadless(ctx context.Context, src *ephem.Source, stateMgr *state.Manager, engineCfg engine.Config, now func() time.Time, logger *logging.Logger) int {
	outputOnce := func() error {
		tick(ctx, src, stateMgr, engineCfg, now())
		snap := stateMgr.Snapshot()

		if jsonPath != "" {
			export := state.ExportFrame(snap, time.Now())
			if jsonPath == "-" {
				if err := export.WriteJSON(os.Stdout); err != nil {
					return fmt.Errorf("write JSON to stdout: %w", err)
				}
			} else {
				f, err := os.Create(jsonPath)
				if err != nil {
					return fmt.Errorf("create JSON file: %w", err)
				}
				defer f.Close()
				if err := export.WriteJSON(f); err != nil {
					return fmt.Errorf("write JSON to file: %w", err)
				}
			}
		}

		if summaryMode {
			state.WriteSummary(os.Stdout, *snap.Frame)
			if watchInterval > 0 {
				fmt.Println()
				state.WriteEvents(os.Stdout, snap.Events, 5)
			}
		}
		return nil
	}

	// Single run
	if watchInterval == 0 {
		if err := outputOnce(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	// Watch mode: repeat at interval
	if err := outputOnce(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("watch loop shutting down")
			return 0
		case <-ticker.C:
			if summaryMode {
				fmt.Println()
			}
			if err := outputOnce(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		}
	}
}

// runServer keeps the state fresh in the background and serves the API
// until the context is cancelled.
func runServer(ctx context.Context, cfg config.Config, src *ephem.Source, stateMgr *state.Manager, engineCfg engine.Config, now func() time.Time, logger *logging.Logger) int {
	srv := server.New(src, stateMgr, server.Options{
		Addr:      cfg.ListenAddr,
		Refresh:   cfg.Refresh.Duration,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
		Engine:    engineCfg,
		SelfCheck: selfcheck.Options{TimeScale: cfg.TimeScale(), Longitude: engineCfg.Longitude(bodies.Earth)},
	}, logger.With("http"))

	go runTickLoop(ctx, src, stateMgr, engineCfg, now, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening on %s", cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server: %v", err)
			return 1
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown: %v", err)
			return 1
		}
		logger.Info("server stopped")
	}
	return 0
}

func runTickLoop(ctx context.Context, src *ephem.Source, stateMgr *state.Manager, engineCfg engine.Config, now func() time.Time, logger *logging.Logger) {
	tick(ctx, src, stateMgr, engineCfg, now())

	ticker := time.NewTicker(stateMgr.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("tick loop shutting down")
			return
		case <-ticker.C:
			frame := tick(ctx, src, stateMgr, engineCfg, now())
			logger.Debug("frame %d: %s, %d rows", frame.Table.Generation, frame.Table.Status, len(frame.Table.Rows))
		}
	}
}
