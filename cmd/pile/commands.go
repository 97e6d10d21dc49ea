package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/yoav-lavi/pile/internal"
	"github.com/yoav-lavi/pile/internal/apperr"
	"github.com/yoav-lavi/pile/internal/render"
)

// withRuntime opens the pile root for one command and closes it afterwards.
func withRuntime(fn func(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		opts, err := loadOptions(cmd)
		if err != nil {
			return err
		}
		rt, err := internal.Open(opts...)
		if err != nil {
			return err
		}
		defer rt.Close()
		return fn(ctx, cmd, rt)
	}
}

func requireArgs(cmd *cli.Command, n int) error {
	if cmd.Args().Len() != n {
		return fmt.Errorf("%w: usage: pile %s %s", apperr.ErrInvalidInput, cmd.Name, cmd.ArgsUsage)
	}
	return nil
}

func noteCommand() *cli.Command {
	return &cli.Command{
		Name:      "note",
		Usage:     "Create a note tagged with every matching rule",
		ArgsUsage: "NAME CONTENTS",
		Action: withRuntime(func(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error {
			if err := requireArgs(cmd, 2); err != nil {
				return err
			}
			n, err := rt.Service.CreateNote(ctx, cmd.Args().Get(0), cmd.Args().Get(1))
			if err != nil {
				return err
			}
			return render.NewPrinter(stdout).Note(n)
		}),
	}
}

func ruleCommand() *cli.Command {
	return &cli.Command{
		Name:      "rule",
		Usage:     "Create a rule or add a keyword to it, then retag every note",
		ArgsUsage: "RULE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "keyword", Aliases: []string{"k"}, Usage: "Keyword to add (stored lower-cased)"},
			&cli.StringFlag{Name: "remove", Usage: "Keyword to remove (not supported yet)"},
			&cli.BoolFlag{Name: "delete", Usage: "Delete the rule (not supported yet)"},
		},
		Action: withRuntime(func(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error {
			if err := requireArgs(cmd, 1); err != nil {
				return err
			}
			name := cmd.Args().First()

			switch {
			case cmd.Bool("delete"):
				return rt.Service.DeleteRule(ctx, name)
			case cmd.IsSet("remove"):
				return rt.Service.RemoveKeyword(ctx, name, cmd.String("remove"))
			}

			var keyword *string
			if cmd.IsSet("keyword") {
				k := cmd.String("keyword")
				keyword = &k
			}
			res, err := rt.Service.UpsertRule(ctx, name, keyword)
			if err != nil {
				return err
			}
			return render.NewPrinter(stdout).Rule(res.Rule)
		}),
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Find notes whose rules, name or contents contain QUERY",
		ArgsUsage: "QUERY",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum results (0 for all)"},
		},
		Action: withRuntime(func(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error {
			if err := requireArgs(cmd, 1); err != nil {
				return err
			}
			results, err := rt.Service.Search(ctx, cmd.Args().First(), int(cmd.Int("limit")))
			if err != nil {
				return err
			}
			return render.NewPrinter(stdout).Notes(results)
		}),
	}
}

func indexCommand() *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "Recompute the rules of every note",
		Action: withRuntime(func(ctx context.Context, _ *cli.Command, rt *internal.Runtime) error {
			stats, err := rt.Service.Reindex(ctx)
			if err != nil {
				return err
			}
			return render.NewPrinter(stdout).Line("reindexed %d note(s), %d changed", stats.Notes, stats.Changed)
		}),
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete every note named NAME",
		ArgsUsage: "NAME",
		Action: withRuntime(func(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error {
			if err := requireArgs(cmd, 1); err != nil {
				return err
			}
			removed, err := rt.Service.DeleteNote(ctx, cmd.Args().First())
			if err != nil {
				return err
			}
			return render.NewPrinter(stdout).Line("deleted %d note(s)", removed)
		}),
	}
}

func rulesCommand() *cli.Command {
	return &cli.Command{
		Name:  "rules",
		Usage: "List rules",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "counts", Usage: "Show how many notes each rule tags"},
		},
		Action: withRuntime(func(ctx context.Context, cmd *cli.Command, rt *internal.Runtime) error {
			p := render.NewPrinter(stdout)
			if cmd.Bool("counts") {
				counts, err := rt.Service.RuleCounts(ctx)
				if err != nil {
					return err
				}
				return p.RuleCounts(counts)
			}
			rs, err := rt.Service.ListRules(ctx)
			if err != nil {
				return err
			}
			for _, r := range rs {
				if err := p.Rule(r); err != nil {
					return err
				}
			}
			return nil
		}),
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Retag notes whenever rules.toml is edited by hand",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts, err := loadOptions(cmd)
			if err != nil {
				return err
			}
			return internal.Watch(ctx, opts...)
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the HTTP API with live events",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts, err := loadOptions(cmd)
			if err != nil {
				return err
			}
			if err := internal.Serve(ctx, opts...); err != nil {
				return fmt.Errorf("app run error: %w", err)
			}
			return nil
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve pile tools to LLM clients over stdio (MCP)",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts, err := loadOptions(cmd)
			if err != nil {
				return err
			}
			return internal.MCP(ctx, opts...)
		},
	}
}
