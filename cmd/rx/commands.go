package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.starlark.net/starlark"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/wasilibs/go-rx"
	"github.com/wasilibs/go-rx/internal/log"
	"github.com/wasilibs/go-rx/internal/server"
	"github.com/wasilibs/go-rx/starlarkrx"
)

const patternArgs = "PATTERN [TEXT]"

func (cc *cmdContext) matchCommand() *cli.Command {
	return &cli.Command{
		Name:      "match",
		Usage:     "print the groups of the first match as: index 'text' start end",
		ArgsUsage: patternArgs,
		Action: func(c *cli.Context) error {
			p, text, err := cc.args(c)
			if err != nil {
				return err
			}
			m := p.Match(text)
			if !m.Matches() {
				return cli.Exit("no match", 1)
			}
			for i, s := range m.Groups() {
				start, end, _ := m.Range(i)
				fmt.Fprintf(c.App.Writer, "%d '%s' %d %d\n", i, s, start, end)
			}
			return nil
		},
	}
}

func (cc *cmdContext) findCommand() *cli.Command {
	return &cli.Command{
		Name:      "find",
		Usage:     "print the start and end offsets of the first match and its text",
		ArgsUsage: patternArgs,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "init", Usage: "byte offset to start at, negative counts from the end"},
		},
		Action: func(c *cli.Context) error {
			p, text, err := cc.args(c)
			if err != nil {
				return err
			}
			start, end, ok := p.Find(text, c.Int("init"))
			if !ok {
				return cli.Exit("no match", 1)
			}
			fmt.Fprintf(c.App.Writer, "%d %d %s\n", start, end, text[start:end])
			return nil
		},
	}
}

func (cc *cmdContext) gmatchCommand() *cli.Command {
	return &cli.Command{
		Name:      "gmatch",
		Usage:     "print every match on its own line",
		ArgsUsage: patternArgs,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "min-len", Usage: "skip matches shorter than this many bytes"},
		},
		Action: func(c *cli.Context) error {
			p, text, err := cc.args(c)
			if err != nil {
				return err
			}
			minLen := c.Int("min-len")
			n := 0
			for it := p.Gmatch(text); it.Next(); n++ {
				if s := it.Match().String(); len(s) >= minLen {
					fmt.Fprintln(c.App.Writer, s)
				}
			}
			log.Debug().Int("matches", n).Msg("gmatch done")
			return nil
		},
	}
}

func (cc *cmdContext) gsubCommand() *cli.Command {
	return &cli.Command{
		Name:      "gsub",
		Usage:     "replace matches and print the result",
		ArgsUsage: patternArgs,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "template", Aliases: []string{"t"}, Usage: "replacement template, %1 for group 1 and %% for %"},
			&cli.PathFlag{Name: "lookup", Usage: "YAML file mapping group 1 to replacements"},
			&cli.BoolFlag{Name: "env", Usage: "replace with the environment variable named by group 1"},
			&cli.PathFlag{Name: "script", Usage: "Starlark file defining repl(m)"},
			&cli.IntFlag{Name: "n", Value: -1, Usage: "replace at most n matches, all if negative"},
		},
		Action: func(c *cli.Context) error {
			p, text, err := cc.args(c)
			if err != nil {
				return err
			}
			repl, replErr, err := replacement(c)
			if err != nil {
				return cli.Exit(err, 1)
			}
			result, count, err := p.GsubN(text, repl, c.Int("n"))
			if err == nil && replErr != nil {
				err = replErr()
			}
			if err != nil {
				return cli.Exit(err, 1)
			}
			log.Debug().Int("count", count).Msg("gsub done")
			fmt.Fprintln(c.App.Writer, result)
			return nil
		},
	}
}

// replacement builds the replacement selected by the gsub flags. replErr, if not nil,
// reports errors raised by a script after the substitution.
func replacement(c *cli.Context) (repl rx.Replacement, replErr func() error, err error) {
	set := 0
	for _, name := range []string{"template", "lookup", "env", "script"} {
		if c.IsSet(name) {
			set++
		}
	}
	if set != 1 {
		return nil, nil, errors.New("exactly one of --template, --lookup, --env and --script is required")
	}

	switch {
	case c.IsSet("template"):
		return rx.Template(c.String("template")), nil, nil
	case c.IsSet("env"):
		return rx.Getenv, nil, nil
	case c.IsSet("lookup"):
		data, err := os.ReadFile(c.Path("lookup"))
		if err != nil {
			return nil, nil, err
		}
		var values map[string]any
		if err := yaml.Unmarshal(data, &values); err != nil {
			return nil, nil, fmt.Errorf("parsing %s: %w", c.Path("lookup"), err)
		}
		l, err := rx.LookupOf(values)
		if err != nil {
			return nil, nil, err
		}
		return l, nil, nil
	}

	thread := &starlark.Thread{
		Name:  "repl",
		Print: func(_ *starlark.Thread, msg string) { log.Info().Str("script", c.Path("script")).Msg(msg) },
	}
	globals, err := starlarkrx.ExecFile(thread, c.Path("script"), nil)
	if err != nil {
		return nil, nil, err
	}
	fn, ok := globals["repl"].(starlark.Callable)
	if !ok {
		return nil, nil, fmt.Errorf("%s does not define a repl function", c.Path("script"))
	}
	f, replErr := starlarkrx.Callback(thread, fn)
	return f, replErr, nil
}

func (cc *cmdContext) serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve the JSON matching API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listen", Usage: "address to listen on, overrides the config"},
		},
		Action: func(c *cli.Context) error {
			cfg := *cc.cfg
			if c.IsSet("listen") {
				cfg.Listen = c.String("listen")
			}
			s := server.New(&cfg)

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(s.Start)
			g.Go(func() error {
				<-ctx.Done()
				log.Info().Msg("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return s.Shutdown(shutdownCtx)
			})
			if err := g.Wait(); err != nil {
				return err
			}
			log.Printf("stopped serving on %s", cfg.Listen)
			return nil
		},
	}
}

// args compiles the pattern argument and returns it with the text, read from standard
// input when the text argument is absent or "-".
func (cc *cmdContext) args(c *cli.Context) (*rx.Pattern, string, error) {
	if c.NArg() < 1 || c.NArg() > 2 {
		return nil, "", cli.Exit(fmt.Sprintf("usage: rx %s %s", c.Command.Name, patternArgs), 1)
	}
	p, err := cc.cfg.Compile(c.Args().Get(0))
	if err != nil {
		return nil, "", cli.Exit(err, 1)
	}

	text := c.Args().Get(1)
	if c.NArg() < 2 || text == "-" {
		data, err := io.ReadAll(c.App.Reader)
		if err != nil {
			return nil, "", err
		}
		text = strings.TrimSuffix(string(data), "\n")
	}
	return p, text, nil
}
