package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/yoav-lavi/pile/internal"
	"github.com/yoav-lavi/pile/internal/storage"
	pkgconfig "github.com/yoav-lavi/pile/pkg/config"
)

var version = "dev"

// stdout receives command results; logs go to stderr.
var stdout io.Writer = os.Stdout

func defaultConfigPath() string {
	root, err := storage.DefaultRoot()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(root, "config.yaml")
}

// loadOptions reads the config named by --config and applies --log-level.
func loadOptions(cmd *cli.Command) ([]internal.Option, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if lvl := cmd.String("log-level"); lvl != "" {
		if err := cfg.App.LogLevel.UnmarshalText([]byte(lvl)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", lvl, err)
		}
	}
	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}, nil
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "pile",
		Usage:   "Keep short notes and tag them automatically with keyword rules",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "~/.pile/config.yaml",
				Value:       defaultConfigPath(),
				Sources:     cli.EnvVars("PILE_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Override app.log_level (debug, info, warn, error)",
				Sources: cli.EnvVars("PILE_LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			noteCommand(),
			ruleCommand(),
			searchCommand(),
			indexCommand(),
			deleteCommand(),
			rulesCommand(),
			watchCommand(),
			serveCommand(),
			mcpCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
