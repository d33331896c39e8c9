package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/notetidy/internal"
	"github.com/starford/notetidy/internal/settings"
	pkgconfig "github.com/starford/notetidy/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadIfExists(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// withApp opens the application for a one-shot command. Logs go to stderr so
// stdout carries only the command output.
func withApp(ctx context.Context, cmd *cli.Command, fn func(context.Context, *internal.App) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	app, err := internal.Open(
		internal.WithConfig(cfg),
		internal.WithVersion(version),
		internal.WithLogOutput(os.Stderr),
	)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func notePathArg(cmd *cli.Command, app *internal.App) (string, error) {
	arg := cmd.Args().First()
	if arg == "" {
		return "", fmt.Errorf("note path is required")
	}
	return app.NotePath(arg)
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func strip(ctx context.Context, cmd *cli.Command) error {
	return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
		p, err := notePathArg(cmd, app)
		if err != nil {
			return err
		}
		svc := app.Service()
		res, err := svc.StripNote(ctx, svc.Settings(), p, cmd.Bool("dry-run"))
		if err != nil {
			return err
		}
		if res.DryRun && res.Changed {
			_, err = fmt.Print(res.Diff)
			return err
		}
		return printJSON(res)
	})
}

func stamp(ctx context.Context, cmd *cli.Command) error {
	return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
		p, err := notePathArg(cmd, app)
		if err != nil {
			return err
		}
		svc := app.Service()
		res, err := svc.StampCreated(ctx, svc.Settings(), p)
		if err != nil {
			return err
		}
		return printJSON(res)
	})
}

func summarize(ctx context.Context, cmd *cli.Command) error {
	return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
		p, err := notePathArg(cmd, app)
		if err != nil {
			return err
		}
		svc := app.Service()
		res, err := svc.SummarizeNote(ctx, svc.Settings(), p)
		if err != nil {
			return err
		}
		return printJSON(res)
	})
}

func showSettings(ctx context.Context, cmd *cli.Command) error {
	return withApp(ctx, cmd, func(_ context.Context, app *internal.App) error {
		return printJSON(app.Settings().Snapshot().Redacted())
	})
}

func setSettings(ctx context.Context, cmd *cli.Command) error {
	if !cmd.IsSet("target-folder") && !cmd.IsSet("api-key") {
		return fmt.Errorf("nothing to set: pass --target-folder or --api-key")
	}
	return withApp(ctx, cmd, func(_ context.Context, app *internal.App) error {
		updated, err := app.Settings().Update(func(s *settings.Settings) {
			if cmd.IsSet("target-folder") {
				s.TargetFolder = cmd.String("target-folder")
			}
			if cmd.IsSet("api-key") {
				s.APIKey = cmd.String("api-key")
			}
		})
		if err != nil {
			return err
		}
		return printJSON(updated.Redacted())
	})
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version))
}

func main() {
	cmd := &cli.Command{
		Name:    "notetidy",
		Usage:   "Clean up clipped Markdown notes and add LLM summaries",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and watch the vault for new notes",
				Action: serve,
			},
			{
				Name:      "strip",
				Usage:     "Remove annotations from a note in the target folder",
				ArgsUsage: "<note>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "dry-run", Usage: "Print a line diff instead of writing the note"},
				},
				Action: strip,
			},
			{
				Name:      "stamp",
				Usage:     "Add today's date as the created field of a note",
				ArgsUsage: "<note>",
				Action:    stamp,
			},
			{
				Name:      "summarize",
				Usage:     "Summarize a note and write the summary into its summary section",
				ArgsUsage: "<note>",
				Action:    summarize,
			},
			{
				Name:  "settings",
				Usage: "Show or change the target folder and API key",
				Commands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Print the current settings with the API key redacted",
						Action: showSettings,
					},
					{
						Name:  "set",
						Usage: "Change settings",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "target-folder", Usage: "Vault-relative folder whose notes are tidied"},
							&cli.StringFlag{Name: "api-key", Usage: "API key for the summary endpoint"},
						},
						Action: setSettings,
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve the tools over MCP on stdin/stdout",
				Action: mcp,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
