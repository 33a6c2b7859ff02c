// Command extracker is a terminal client for the expense tracker backend.
//
// Usage:
//
//	extracker [-server URL] [-v] [-metrics-file PATH] <command> [flags]
//
// Run "extracker help" for the list of commands.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/extracker/internal/api"
	"github.com/mmynk/extracker/internal/app"
	"github.com/mmynk/extracker/internal/config"
	"github.com/mmynk/extracker/internal/nav"
	"github.com/mmynk/extracker/internal/pages"
	"github.com/mmynk/extracker/internal/storage"
	"github.com/mmynk/extracker/internal/storage/sqlite"
	"github.com/mmynk/extracker/pkg/logging"
)

// errUsage is returned for bad command lines; usage has been printed.
var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		if !errors.Is(err, errUsage) {
			slog.Error("Command failed", "error", err)
		}
		os.Exit(1)
	}
}

// env is what every command gets.
type env struct {
	app     *app.App
	session storage.Store
	out     io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fs := flag.NewFlagSet("extracker", flag.ContinueOnError)
	fs.SetOutput(stderr)
	server := fs.String("server", cfg.BaseURL, "backend base URL")
	verbose := fs.Bool("v", false, "debug logging")
	metricsFile := fs.String("metrics-file", "", "write request metrics to this file on exit")
	fs.Usage = func() { usage(fs) }
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	cfg.BaseURL = *server
	if *verbose {
		cfg.LogLevel = slog.LevelDebug
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logging.Setup(stderr, cfg.LogLevel)

	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}
	name, rest := fs.Arg(0), fs.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		if name == "help" {
			fs.Usage()
			return nil
		}
		fmt.Fprintf(stderr, "unknown command %q\n", name)
		fs.Usage()
		return errUsage
	}

	reg := prometheus.NewRegistry()
	client, err := api.New(api.Config{
		BaseURL:    cfg.BaseURL,
		Scheme:     cfg.Scheme,
		Routes:     &cfg.Routes,
		Timeout:    cfg.Timeout,
		Registerer: reg,
	})
	if err != nil {
		return err
	}

	store, err := sqlite.New(cfg.SessionDB)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	defer store.Close()
	slog.Debug("Session store opened", "database", cfg.SessionDB)

	sched := &nav.TimerScheduler{}
	a := app.New(ctx, pages.Deps{
		API:        client,
		Session:    store,
		Scheduler:  sched,
		DelayScale: cfg.NavDelay,
	}, stdout)

	cmdErr := cmd.run(ctx, &env{app: a, session: store, out: stdout}, name, rest)

	// Let a scheduled navigation open and render its page.
	sched.Wait()
	a.Close()

	if *metricsFile != "" {
		if err := prometheus.WriteToTextfile(*metricsFile, reg); err != nil {
			slog.Warn("Failed to write metrics", "path", *metricsFile, "error", err)
		}
	}
	return cmdErr
}

func usage(fs *flag.FlagSet) {
	w := fs.Output()
	fmt.Fprintf(w, "Usage: extracker [flags] <command> [command flags]\n\nCommands:\n")
	for _, name := range commandOrder {
		fmt.Fprintf(w, "  %-12s %s\n", name, commands[name].summary)
	}
	fmt.Fprintf(w, "\nFlags:\n")
	fs.PrintDefaults()
}
