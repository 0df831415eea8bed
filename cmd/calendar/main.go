// Command calendar manages events and recurring series through the events API.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/mmynk/calendar/internal/auth"
	"github.com/mmynk/calendar/internal/calendar"
	"github.com/mmynk/calendar/internal/config"
	"github.com/mmynk/calendar/internal/gateway"
	"github.com/mmynk/calendar/pkg/logging"
)

// app holds what every subcommand needs.
type app struct {
	cfg      *config.Config
	coord    *calendar.Coordinator
	notifier calendar.Notifier
	out      io.Writer
}

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"list":    {"list events, optionally filtered by date range or search term", runList},
	"add":     {"create an event or a recurring series", runAdd},
	"edit":    {"edit an event or its whole series", runEdit},
	"delete":  {"delete an event or its whole series", runDelete},
	"preview": {"show the occurrences of a recurrence without saving", runPreview},
	"export":  {"write all events as iCalendar", runExport},
	"watch":   {"print alarms as events approach", runWatch},
}

func main() {
	fs := flag.NewFlagSet("calendar", flag.ExitOnError)
	configPath := fs.String("config", "", "path to the YAML config file")
	fs.Usage = func() { usage(fs) }
	fs.Parse(os.Args[1:])

	if fs.NArg() == 0 {
		usage(fs)
		os.Exit(2)
	}
	cmd, ok := commands[fs.Arg(0)]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", fs.Arg(0))
		usage(fs)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel)

	a, err := newApp(cfg, os.Stdout)
	if err != nil {
		slog.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.coord.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.run(ctx, a, fs.Args()[1:]); err != nil {
		slog.Error("Command failed", "command", fs.Arg(0), "error", err)
		stop()
		os.Exit(1)
	}
}

func newApp(cfg *config.Config, out io.Writer) (*app, error) {
	opts := []gateway.Option{gateway.WithTimeout(cfg.Gateway.Timeout())}
	if cfg.Auth.Secret != "" {
		jwtManager := auth.NewJWTManager(cfg.Auth.Secret, cfg.Auth.TokenTTL())
		opts = append(opts, gateway.WithToken(func() (string, error) {
			return jwtManager.Generate("calendar-cli")
		}))
	}
	client, err := gateway.New(cfg.Gateway.URL, opts...)
	if err != nil {
		return nil, err
	}

	notifier := calendar.ConsoleNotifier{W: out}
	return &app{
		cfg:      cfg,
		coord:    calendar.NewCoordinator(client, notifier),
		notifier: notifier,
		out:      out,
	}, nil
}

func usage(fs *flag.FlagSet) {
	w := fs.Output()
	fmt.Fprintf(w, "usage: calendar [-config path] <command> [flags]\n\ncommands:\n")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-8s %s\n", name, commands[name].usage)
	}
	fmt.Fprintf(w, "\nflags:\n")
	fs.PrintDefaults()
}
