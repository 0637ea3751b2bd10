// ABOUTME: Entry point for the driver inventory tool
// ABOUTME: Lists installed ASIO drivers and optionally queries each one
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Resonate-Protocol/asiodirect/internal/version"
	"github.com/Resonate-Protocol/asiodirect/pkg/asio"
	"github.com/Resonate-Protocol/asiodirect/pkg/asio/discovery"
	"github.com/Resonate-Protocol/asiodirect/pkg/asio/loader"
	"github.com/Resonate-Protocol/asiodirect/pkg/asio/registry"
)

var (
	maxCount = flag.Int("max", discovery.DefaultMaxPlugins, "Maximum number of drivers to list")
	doQuery  = flag.Bool("query", false, "Load each driver and query its channels, rate and buffer sizes")
	verbose  = flag.Bool("verbose", false, "Log discovery and loading detail to stderr")
)

func main() {
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		cfg := zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stderr"}
		l, err := cfg.Build()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
			os.Exit(1)
		}
		logger = l
	}
	defer func() { _ = logger.Sync() }()

	asio.SetLogger(logger.Named("asio"))
	discovery.SetLogger(logger.Named("discovery"))
	loader.SetLogger(logger.Named("loader"))

	logger.Debug("listing drivers", zap.String("version", version.Version))

	entries := scan(registry.System(), *maxCount)
	if *doQuery {
		ld := loader.New(loader.DefaultOptions())
		for i := range entries {
			e := &entries[i]
			if e.Err != nil {
				continue
			}
			h, err := ld.Load(e.Identifier, e.ModulePath)
			if err != nil {
				e.Details = &details{Err: err}
				logger.Warn("failed to load driver", zap.String("name", e.Name), zap.Error(err))
				continue
			}
			e.Details = queryDriver(h)
			if err := h.Close(); err != nil {
				logger.Warn("failed to release driver", zap.String("name", e.Name), zap.Error(err))
			}
		}
	}

	fmt.Print(render(entries))
}
