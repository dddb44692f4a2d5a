package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/wikarden/internal"
	pkgconfig "github.com/starford/wikarden/pkg/config"
)

var version = "dev"

// loadConfig reads the config file, when present, and applies flag
// overrides. Validation runs after the overrides.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()

	path := cmd.String("config")
	load := pkgconfig.LoadOptional[internal.Config]
	if cmd.IsSet("config") {
		load = pkgconfig.Load[internal.Config]
	}
	if err := load(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	overridden := false
	if cmd.IsSet("source") {
		cfg.Site.Source = cmd.String("source")
		overridden = true
	}
	if cmd.IsSet("output") {
		cfg.Site.Output = cmd.String("output")
		overridden = true
	}
	if cmd.IsSet("port") {
		cfg.App.HTTP.Port = int(cmd.Int("port"))
		overridden = true
	}
	if overridden {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid flags: %w", err)
		}
	}
	return cfg, nil
}

func options(cmd *cli.Command) ([]internal.Option, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}, nil
}

func build(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	report, err := internal.Build(ctx, opts...)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "built %d pages (%d unchanged, %d drafts), %d assets, %d links in %s\n",
		report.Pages, report.Unchanged, report.Drafts, report.Assets, report.Links, report.Duration)
	return nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.Serve(ctx, opts...); err != nil {
		return fmt.Errorf("serve error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.ServeMCP(ctx, opts...); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "wikarden",
		Usage:   "Static site generator for an interlinked markup dialect",
		Version: version,
		Action:  build,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "source",
				Aliases: []string{"s"},
				Usage:   "Source directory (overrides site.source)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (overrides site.output)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Generate the site once",
				Action: build,
			},
			{
				Name:   "serve",
				Usage:  "Generate the site, serve it and rebuild on change",
				Action: serve,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Usage:   "HTTP port (overrides app.http.port)",
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve the site catalog to MCP clients on stdio",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
