// Command rx matches, scans and rewrites text with Lua and POSIX patterns.
//
//	rx [--config FILE] [--backend lua|posix] [--syntax S] [--engine E] COMMAND PATTERN [TEXT]
//
// TEXT defaults to standard input. Commands exit with status 1 when the pattern does
// not compile or, for match and find, when there is no match.
package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/wasilibs/go-rx/internal/config"
	"github.com/wasilibs/go-rx/internal/log"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Error().Err(err).Msg("rx failed")
		os.Exit(1)
	}
}

// cmdContext carries the loaded configuration from Before to the command actions.
type cmdContext struct {
	cfg *config.Config
}

func newApp() *cli.App {
	cc := &cmdContext{}
	return &cli.App{
		Name:    "rx",
		Usage:   "match, scan and rewrite text with Lua and POSIX patterns",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "config file, rx.yaml is searched for if unset"},
			&cli.BoolFlag{Name: "verbose", Usage: "log debug events to stderr"},
			&cli.StringFlag{Name: "backend", Usage: "pattern backend: lua or posix"},
			&cli.StringFlag{Name: "syntax", Usage: "POSIX syntax: extended, basic or lua"},
			&cli.StringFlag{Name: "engine", Usage: "POSIX regex engine"},
		},
		Before: cc.before,
		Commands: []*cli.Command{
			cc.matchCommand(),
			cc.findCommand(),
			cc.gmatchCommand(),
			cc.gsubCommand(),
			cc.serveCommand(),
		},
	}
}

func (cc *cmdContext) before(c *cli.Context) error {
	log.SetStd(c.Bool("verbose"))

	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return cli.Exit(err, 1)
	}
	for name, dst := range map[string]*string{
		"backend": &cfg.Backend,
		"syntax":  &cfg.Syntax,
		"engine":  &cfg.Engine,
	} {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	if _, _, err := cfg.Options(); err != nil {
		return cli.Exit(err, 1)
	}
	if cfg.ConfigFile != config.DefaultConfig().ConfigFile {
		log.Debug().Str("file", cfg.ConfigFile).Msg("using config file")
	}
	log.Debug().Str("backend", cfg.Backend).Str("syntax", cfg.Syntax).Str("engine", cfg.Engine).Msg("configured")
	cc.cfg = cfg
	return nil
}
