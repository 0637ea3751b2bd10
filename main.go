// ABOUTME: Entry point for the ASIO tone player
// ABOUTME: Parses CLI flags, picks a driver and plays test tones through it
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Resonate-Protocol/asiodirect/internal/host"
	"github.com/Resonate-Protocol/asiodirect/internal/simdriver"
	"github.com/Resonate-Protocol/asiodirect/internal/tone"
	"github.com/Resonate-Protocol/asiodirect/internal/ui"
	"github.com/Resonate-Protocol/asiodirect/internal/version"
	"github.com/Resonate-Protocol/asiodirect/pkg/asio"
	"github.com/Resonate-Protocol/asiodirect/pkg/asio/discovery"
	"github.com/Resonate-Protocol/asiodirect/pkg/asio/loader"
	"github.com/Resonate-Protocol/asiodirect/pkg/asio/registry"
)

var (
	driverName  = flag.String("driver", "", "Driver name (substring) or class identifier; skips the picker")
	duration    = flag.Duration("duration", 3*time.Second, "How long to play")
	volume      = flag.Float64("volume", tone.DefaultVolume, "Tone amplitude, 0 to 1")
	bufferSize  = flag.Int("buffer", 0, "Buffer size in frames (default: driver preferred)")
	sampleRate  = flag.Float64("rate", 0, "Sample rate to switch to (default: keep current)")
	outputs     = flag.Int("outputs", len(tone.DefaultFrequencies), "Number of outputs to drive")
	logFile     = flag.String("log-file", "asiodirect.log", "Log file path")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	verbose     = flag.Bool("verbose", false, "Log debug detail")
	simulate    = flag.String("simulate", "", "Play into the simulated driver and write its output to this WAV file")
	wavBits     = flag.Int("wav-bits", 24, "Bit depth of the -simulate WAV file (16, 24 or 32)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", version.Product, version.Version)
		return
	}

	useTUI := !*noTUI

	logger, err := newLogger(*logFile, !useTUI, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	asio.SetLogger(logger.Named("asio"))
	discovery.SetLogger(logger.Named("discovery"))
	loader.SetLogger(logger.Named("loader"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting",
		zap.String("product", version.Product),
		zap.String("version", version.Version),
		zap.Bool("tui", useTUI))

	p := &player{log: logger, tui: useTUI}
	if *simulate != "" {
		err = p.simulate(ctx, *simulate)
	} else {
		err = p.run(ctx)
	}
	if err != nil && !errors.Is(err, ui.ErrCancelled) {
		logger.Error("failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

// newLogger writes JSON logs to path, and to stdout as well when the TUI
// is off.
func newLogger(path string, stream, debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	if stream {
		cfg.OutputPaths = append(cfg.OutputPaths, "stdout")
	}
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

type player struct {
	log *zap.Logger
	tui bool
}

func (p *player) sessionConfig() host.Config {
	cfg := host.DefaultConfig()
	cfg.BufferSize = *bufferSize
	cfg.SampleRate = *sampleRate
	cfg.Volume = *volume
	cfg.Outputs = *outputs
	cfg.Logger = p.log.Named("host")
	return cfg
}

// run discovers the installed drivers and plays through the chosen one.
// With the TUI, a driver that fails to load or open sends the user back
// to the picker.
func (p *player) run(ctx context.Context) error {
	plugins, err := discovery.Discover(registry.System(), discovery.DefaultMaxPlugins)
	if err != nil {
		return fmt.Errorf("failed to list drivers: %w", err)
	}
	p.log.Info("drivers found", zap.Int("count", len(plugins)))

	ld := loader.New(loader.DefaultOptions())
	var (
		notice  string
		current *discovery.Plugin
	)
	for {
		if current == nil {
			plugin, err := p.choose(plugins, notice)
			if err != nil {
				return err
			}
			current = &plugin
		}

		err := p.playPlugin(ctx, ld, *current)
		switch {
		case errors.Is(err, host.ErrResetRequested):
			// Reopen the same driver from scratch.
			p.log.Info("driver requested a reset", zap.String("driver", current.Name))
			continue
		case err == nil, errors.Is(err, context.Canceled):
			return nil
		case !p.tui || *driverName != "":
			return err
		}
		notice = fmt.Sprintf("%s: %v", current.Name, err)
		current = nil
	}
}

func (p *player) choose(plugins []discovery.Plugin, notice string) (discovery.Plugin, error) {
	if *driverName != "" || !p.tui {
		return selectPlugin(plugins, *driverName)
	}
	return ui.Pick(plugins, notice)
}

func (p *player) playPlugin(ctx context.Context, ld *loader.Loader, plugin discovery.Plugin) error {
	p.log.Info("loading driver",
		zap.String("name", plugin.Name),
		zap.String("clsid", plugin.Identifier),
		zap.String("module", plugin.ModulePath))

	h, err := ld.Load(plugin.Identifier, plugin.ModulePath)
	if err != nil {
		return err
	}
	return errors.Join(p.play(ctx, h), h.Close())
}

// simulate runs the same session against the simulated driver and saves
// what it played.
func (p *player) simulate(ctx context.Context, path string) error {
	cfg := simdriver.DefaultConfig()
	cfg.Outputs = max(*outputs, 1)
	drv := simdriver.New(cfg)
	h := asio.NewHandle(drv, nil)

	err := p.play(ctx, h)
	if err == nil || errors.Is(err, context.Canceled) {
		err = drv.WriteWAV(path, *wavBits)
		if err == nil {
			p.log.Info("wrote capture", zap.String("path", path), zap.Int64("frames", drv.Position()))
		}
	}
	return errors.Join(err, h.Close())
}

// play opens a session on h, plays for -duration and closes it again.
func (p *player) play(ctx context.Context, h *asio.Handle) (err error) {
	sess, err := host.Open(h, p.sessionConfig())
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, sess.Close()) }()

	info := sess.Info()
	p.log.Info("playing",
		zap.String("driver", info.DriverName),
		zap.Float64("sample_rate", info.SampleRate),
		zap.Int("buffer_size", info.BufferSize),
		zap.Duration("duration", *duration))

	if !p.tui {
		return sess.Play(ctx, *duration)
	}

	playCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 1)
	finished := make(chan struct{})
	go func() {
		errc <- sess.Play(playCtx, *duration)
		close(finished)
	}()

	if uiErr := ui.Playback(info, *volume, sess.Stats, finished, cancel); uiErr != nil {
		cancel()
		return errors.Join(uiErr, <-errc)
	}
	err = <-errc
	if errors.Is(err, context.Canceled) && ctx.Err() == nil {
		// Stopped from the status screen.
		err = nil
	}
	return err
}
