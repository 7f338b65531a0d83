package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ironsheep/docscan-mcp/internal/config"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/scanner"
	"github.com/ironsheep/docscan-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// errNotFound makes the scan subcommand exit with status 2.
var errNotFound = errors.New("no document outline found")

func main() {
	// Handle --version and --help before touching configuration
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("docscan-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printUsage()
			return
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "docscan-mcp: %v\n", err)
		os.Exit(1)
	}
	level, _ := cfg.Level()

	// Logging goes to stderr (stdout is for MCP protocol)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 && os.Args[1] == "scan" {
		err := runScan(ctx, cfg, logger, os.Args[2:])
		switch {
		case errors.Is(err, errNotFound):
			fmt.Fprintln(os.Stderr, "docscan-mcp: no document outline found")
			os.Exit(2)
		case err != nil:
			fmt.Fprintf(os.Stderr, "docscan-mcp: %v\n", err)
			os.Exit(1)
		}
		return
	}

	logger.Debug("starting server",
		"version", Version,
		"build_time", BuildTime,
		"commit", GitCommit)

	srv := server.New(cfg, logger, Version)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// loadConfig layers the optional JSON file and the environment over the
// defaults.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(os.Getenv(config.EnvConfigPath))
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// runScan implements "docscan-mcp scan <input> <output> [--format f]".
func runScan(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	formatName := fs.String("format", "", "output format: png, jpeg or pdf (default: from the output extension)")

	// Flags may appear before, between or after the two paths.
	var paths []string
	for {
		if err := fs.Parse(args); err != nil {
			return err
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		paths = append(paths, args[0])
		args = args[1:]
	}
	if len(paths) != 2 {
		return fmt.Errorf("usage: docscan-mcp scan <input> <output> [--format png|jpeg|pdf]")
	}
	in, out := paths[0], paths[1]

	format, err := outputFormat(*formatName, out, cfg)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	doc, err := scanner.New(cfg, logger).ScanBytes(ctx, data, format)
	if err != nil {
		return err
	}
	if !doc.Found {
		return errNotFound
	}

	if err := os.WriteFile(out, doc.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	logger.Info("page written",
		"path", out,
		"format", format.String(),
		"width", doc.Width,
		"height", doc.Height)
	return nil
}

// outputFormat picks the explicit format, then the one implied by the output
// file extension, then the configured default.
func outputFormat(name, out string, cfg config.Config) (imaging.OutputFormat, error) {
	if name != "" {
		return imaging.ParseOutputFormat(name)
	}
	if ext := strings.TrimPrefix(filepath.Ext(out), "."); ext != "" {
		if f, err := imaging.ParseOutputFormat(ext); err == nil {
			return f, nil
		}
	}
	return cfg.Format()
}

func printUsage() {
	fmt.Println("docscan-mcp - document scanner and MCP server")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  docscan-mcp                                  Run the MCP server on stdin/stdout")
	fmt.Println("  docscan-mcp scan <input> <output> [--format f]")
	fmt.Println("                                               Scan one photo to png, jpeg or pdf")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  DOCSCAN_CONFIG=path.json     Load settings from a JSON file")
	fmt.Println("  DOCSCAN_LOG_LEVEL=debug      Log level: debug, info, warn or error")
	fmt.Println("  DOCSCAN_<SETTING>=value      Override any setting, e.g. DOCSCAN_WORKING_HEIGHT=800")
	fmt.Println()
	fmt.Println("In server mode the tools are exposed via MCP over stdin/stdout.")
	fmt.Println("Configure it as a stdio server in your MCP client.")
}
