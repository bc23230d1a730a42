package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dbod-pe/promptpack/internal/api"
	"github.com/dbod-pe/promptpack/internal/cli"
	"github.com/dbod-pe/promptpack/internal/config"
	"github.com/dbod-pe/promptpack/internal/errors"
	"github.com/dbod-pe/promptpack/internal/service"
	"github.com/dbod-pe/promptpack/internal/ui"
)

var version = "1.0.0"

func printHelp() {
	fmt.Printf(`promptpack - Prompt template library with output contracts

USAGE:
    promptpack [OPTIONS] [COMMAND]

OPTIONS:
    --help          Show this help information
    --version       Print version information
    --init          Initialize the template library
    --serve         Start the HTTP API server
    --port          Port for the API server (default: 8093)
    --dir           Library directory (default: ~/.promptpack)
    --sync-interval Git sync interval in minutes (default: 5, 0 to disable)
    --no-git-sync   Disable periodic git synchronization
    --verbose       Verbose error output

COMMANDS:
    (no command)       Start interactive TUI mode
    list, ls           List templates
    search <query>     Search templates
    show, get <id>     Show a template with its slots
    render <id>        Validate inputs and render a template
    verify <id>        Check agent output against a template's contract
    import <file>      Add a template file to the library
    delete, rm <id>    Delete a template
    git                Git synchronization commands
    help               Show CLI command help

EXAMPLES:
    promptpack                                          # Start interactive mode
    promptpack --init                                   # Initialize the library
    promptpack --serve --port 9000                      # API server on port 9000
    promptpack list --format json                       # List templates as JSON
    promptpack render commit-assistant \
        --var change_summary="fix login timeout"        # Render with slot values
    promptpack verify python-code-audit --file out.md   # Verify agent output
    promptpack git setup <repo-url>                     # Setup git sync

STORAGE:
    Default directory: ~/.promptpack
    Override with: PROMPTPACK_DIR=<path>
`)
}

func main() {
	var showVersion bool
	var initLib bool
	var showHelp bool
	var serve bool
	var port int
	var libDir string
	var syncInterval int
	var noGitSync bool
	var verbose bool

	flag.BoolVar(&showVersion, "version", false, "Print version information")
	flag.BoolVar(&initLib, "init", false, "Initialize the template library")
	flag.BoolVar(&showHelp, "help", false, "Show help information")
	flag.BoolVar(&serve, "serve", false, "Start the HTTP API server")
	flag.IntVar(&port, "port", 0, "Port for the API server")
	flag.StringVar(&libDir, "dir", "", "Library directory")
	flag.IntVar(&syncInterval, "sync-interval", -1, "Git sync interval in minutes (0 to disable)")
	flag.BoolVar(&noGitSync, "no-git-sync", false, "Disable periodic git synchronization")
	flag.BoolVar(&verbose, "verbose", false, "Verbose error output")
	flag.Parse()

	if showHelp {
		printHelp()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("promptpack version %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load(libDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Flags override config file and environment
	if port != 0 {
		cfg.Port = port
	}
	if syncInterval >= 0 {
		cfg.SyncInterval = syncInterval
	}
	if noGitSync || cfg.SyncInterval == 0 {
		cfg.GitSync = false
	}
	if verbose {
		cfg.Verbose = true
	}

	logger := newLogger(cfg.Verbose)
	defer logger.Sync()

	svc, err := service.NewService(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if initLib {
		if err := svc.InitLibrary(); err != nil {
			fmt.Fprintln(os.Stderr, "Error initializing library:", err)
			os.Exit(1)
		}
		fmt.Printf("Initialized promptpack library at %s\n", svc.BaseDir())
		return
	}

	if serve {
		runServer(cfg, svc, logger)
		return
	}

	// Command line arguments mean headless CLI mode
	args := flag.Args()
	if len(args) > 0 {
		errorHandler := errors.NewCLIErrorHandler(cfg.Verbose, logger)
		cliHandler := cli.NewCLI(svc, errorHandler)
		if err := cliHandler.Run(args); err != nil {
			os.Exit(1)
		}
		return
	}

	// No arguments, start the interactive interface
	if err := ui.Run(svc); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runServer starts the API server with periodic git sync and waits for a
// shutdown signal
func runServer(cfg *config.Config, svc *service.Service, logger *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.GitSync {
		svc.StartPeriodicSync(ctx)
	}

	srv := api.NewServer(svc, cfg.Port, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
		}
	}
}

// newLogger builds the process logger. Errors fall back to a no-op logger so
// the CLI still works in constrained environments.
func newLogger(verbose bool) *zap.Logger {
	var cfg zap.Config
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.OutputPaths = []string{"stderr"}
	}

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
