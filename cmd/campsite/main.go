package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/FoxGroveMedia/campsite/internal/build"
	"github.com/FoxGroveMedia/campsite/internal/config"
	"github.com/FoxGroveMedia/campsite/internal/scaffold"
	"github.com/FoxGroveMedia/campsite/internal/server"
)

var version = "dev"

var cli struct {
	Config  string `short:"c" help:"Configuration file path." default:"campsite.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging."`

	Build struct{} `cmd:"" help:"Build the site into the output directory."`

	Dev struct {
		Port int `short:"p" help:"Dev server port." default:"0"`
	} `cmd:"" help:"Watch, rebuild and serve with live reload."`

	Serve struct {
		Port int `short:"p" help:"Server port." default:"0"`
	} `cmd:"" help:"Serve the previously built output directory."`

	Preview struct {
		Port int `short:"p" help:"Server port." default:"0"`
	} `cmd:"" help:"Build, then serve the output directory."`

	Make struct {
		Type  string `arg:"" help:"Content type (archetype subdirectory)."`
		Title string `arg:"" help:"Title of the new page."`
	} `cmd:"" help:"Create a new content file from the archetype."`

	New struct {
		Name string `arg:"" help:"Directory for the new site."`
	} `cmd:"" help:"Scaffold a new site."`

	Version kong.VersionFlag `help:"Print version and exit."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("campsite"),
		kong.Description("A static site generator with an incremental dev mode."),
		kong.Vars{"version": version},
	)

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(ctx.Command()); err != nil {
		fmt.Fprintf(os.Stderr, "campsite: %v\n", err)
		os.Exit(1)
	}
}

func run(command string) error {
	// "new" runs before any project exists, so the config load is deferred
	// past it.
	if command == "new <name>" {
		return scaffold.CreateSite(cli.New.Name)
	}

	cfg, err := config.Load(".", cli.Config)
	if err != nil {
		// Fall back to defaults; a broken config file never blocks a build.
		slog.Error("config error, continuing with defaults", "error", err)
	}

	switch command {
	case "build":
		_, err := build.Run(cfg, build.Options{})
		return err
	case "dev":
		return server.Dev(cfg, port(cli.Dev.Port, cfg), build.Options{})
	case "serve":
		return server.Static(cfg.OutputDir(), port(cli.Serve.Port, cfg))
	case "preview":
		if _, err := build.Run(cfg, build.Options{}); err != nil {
			return err
		}
		return server.Static(cfg.OutputDir(), port(cli.Preview.Port, cfg))
	case "make <type> <title>":
		return scaffold.CreateContent(cfg, cli.Make.Type, cli.Make.Title)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// port prefers the flag when set, else the configured default.
func port(flag int, cfg *config.Config) int {
	if flag > 0 {
		return flag
	}
	return cfg.Port
}
